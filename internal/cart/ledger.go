package cart

import (
	"encoding/json"
	"fmt"
	"sync"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Catalog is the product lookup the ledger prices against.
type Catalog interface {
	Lookup(id string) (models.Product, bool)
}

// Line is one cart intention: what and how many. Prices are never stored.
type Line struct {
	ProductID    string `json:"productId"`
	VariantIndex *int   `json:"variantIndex"`
	Quantity     int    `json:"quantity"`
}

func (l Line) matches(productID string, variantIndex *int) bool {
	if l.ProductID != productID {
		return false
	}
	if l.VariantIndex == nil || variantIndex == nil {
		return l.VariantIndex == nil && variantIndex == nil
	}
	return *l.VariantIndex == *variantIndex
}

// ResolvedLine is a Line joined against a catalog at read time.
type ResolvedLine struct {
	Line
	Name      string
	UnitPrice decimal.Decimal
	Image     string
}

// Subtotal is unit price × quantity.
func (r ResolvedLine) Subtotal() decimal.Decimal {
	return r.UnitPrice.Mul(decimal.NewFromInt(int64(r.Quantity)))
}

// Ledger is the client-held cart. Every mutation persists the full line list
// before it becomes visible; if the write fails the ledger is left unchanged.
type Ledger struct {
	mu     sync.Mutex
	store  localstore.Store
	lines  []Line
	logger *zap.Logger
}

// NewLedger loads the persisted cart from store. A missing, empty or
// unreadable record yields an empty cart.
func NewLedger(store localstore.Store) *Ledger {
	l := &Ledger{
		store:  store,
		logger: util.GetLogger(),
	}
	l.lines = l.load()
	return l
}

func (l *Ledger) load() []Line {
	raw, err := l.store.Get(localstore.KeyCart)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			l.logger.Warn("Failed to read cart, starting empty", zap.Error(err))
		}
		return nil
	}
	if len(raw) == 0 {
		return nil
	}

	var lines []Line
	if err := json.Unmarshal(raw, &lines); err != nil {
		l.logger.Warn("Discarding unreadable cart",
			zap.Error(fmt.Errorf("%w: %v", models.ErrCorruptLocalState, err)))
		return nil
	}

	// Drop anything a healthy ledger could never have written and fold
	// repeated pairs into one line.
	valid := make([]Line, 0, len(lines))
	for _, line := range lines {
		if line.ProductID == "" || line.Quantity <= 0 {
			continue
		}
		merged := false
		for i := range valid {
			if valid[i].matches(line.ProductID, line.VariantIndex) {
				valid[i].Quantity += line.Quantity
				merged = true
				break
			}
		}
		if !merged {
			valid = append(valid, line)
		}
	}
	return valid
}

func (l *Ledger) commit(next []Line) error {
	if len(next) == 0 {
		if err := l.store.Delete(localstore.KeyCart); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
		l.lines = nil
		return nil
	}
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := l.store.Set(localstore.KeyCart, raw); err != nil {
		return fmt.Errorf("failed to persist cart: %w", err)
	}
	l.lines = next
	return nil
}

func (l *Ledger) index(productID string, variantIndex *int) int {
	for i, line := range l.lines {
		if line.matches(productID, variantIndex) {
			return i
		}
	}
	return -1
}

func (l *Ledger) cloneLines() []Line {
	next := make([]Line, len(l.lines))
	copy(next, l.lines)
	return next
}

// Add puts quantity of a product (or one of its variants) in the cart,
// merging with an existing line for the same pair. It refuses products or
// variants absent from catalog and anything out of stock.
func (l *Ledger) Add(catalog Catalog, productID string, variantIndex *int, quantity int) error {
	if quantity <= 0 {
		return models.Invalidf("quantity must be greater than 0")
	}

	product, ok := catalog.Lookup(productID)
	if !ok {
		return models.NotFoundf("product %s", productID)
	}
	inStock := product.InStock
	if variantIndex != nil {
		variant, ok := product.Variant(*variantIndex)
		if !ok {
			return models.NotFoundf("variant %d of product %s", *variantIndex, productID)
		}
		inStock = variant.InStock
	}
	if !inStock {
		return errors.Wrapf(models.ErrOutOfStock, "product %s", productID)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := l.cloneLines()
	if i := l.index(productID, variantIndex); i >= 0 {
		next[i].Quantity += quantity
	} else {
		next = append(next, Line{ProductID: productID, VariantIndex: copyIndex(variantIndex), Quantity: quantity})
	}
	return l.commit(next)
}

// Remove drops the line for the pair. Removing an absent pair is a no-op.
func (l *Ledger) Remove(productID string, variantIndex *int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(productID, variantIndex)
	if i < 0 {
		return nil
	}
	next := make([]Line, 0, len(l.lines)-1)
	next = append(next, l.lines[:i]...)
	next = append(next, l.lines[i+1:]...)
	return l.commit(next)
}

// SetQuantity overwrites the quantity of an existing line; n <= 0 removes it.
func (l *Ledger) SetQuantity(productID string, variantIndex *int, n int) error {
	if n <= 0 {
		return l.Remove(productID, variantIndex)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.index(productID, variantIndex)
	if i < 0 {
		return nil
	}
	next := l.cloneLines()
	next[i].Quantity = n
	return l.commit(next)
}

// Clear empties the cart and removes its persisted record.
func (l *Ledger) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.commit(nil)
}

// Lines returns a copy of the cart lines in insertion order.
func (l *Ledger) Lines() []Line {
	l.mu.Lock()
	defer l.mu.Unlock()
	next := make([]Line, len(l.lines))
	for i, line := range l.lines {
		line.VariantIndex = copyIndex(line.VariantIndex)
		next[i] = line
	}
	return next
}

// Count is the total number of units in the cart.
func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, line := range l.lines {
		n += line.Quantity
	}
	return n
}

// Empty reports whether the cart has no lines.
func (l *Ledger) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) == 0
}

// ResolvedLines prices every line against catalog. Lines whose product or
// variant is no longer present are left out.
func (l *Ledger) ResolvedLines(catalog Catalog, lang string) []ResolvedLine {
	lines := l.Lines()
	out := make([]ResolvedLine, 0, len(lines))
	for _, line := range lines {
		if r, ok := Resolve(catalog, line, lang); ok {
			out = append(out, r)
		}
	}
	return out
}

// Total sums the resolvable lines at the catalog's current prices.
func (l *Ledger) Total(catalog Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, r := range l.ResolvedLines(catalog, models.DefaultLang) {
		total = total.Add(r.Subtotal())
	}
	return total
}

// Resolve joins one line against catalog. A selected variant supplies the
// price, adds its name as a suffix and overrides the image when it has one.
func Resolve(catalog Catalog, line Line, lang string) (ResolvedLine, bool) {
	product, ok := catalog.Lookup(line.ProductID)
	if !ok {
		return ResolvedLine{}, false
	}

	r := ResolvedLine{
		Line:      line,
		Name:      product.Name.Get(lang),
		UnitPrice: product.Price,
		Image:     product.Image,
	}
	if line.VariantIndex != nil {
		variant, ok := product.Variant(*line.VariantIndex)
		if !ok {
			return ResolvedLine{}, false
		}
		r.Name += " - " + variant.Name.Get(lang)
		r.UnitPrice = variant.Price
		if variant.Image != "" {
			r.Image = variant.Image
		}
	}
	return r, true
}

func copyIndex(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}

package cart

import (
	"encoding/json"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/localstore"
	"storefront/internal/models"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idx(i int) *int { return &i }

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func soapCatalog(variantPrice int64) *catalog.Snapshot {
	return catalog.SnapshotOf([]models.Product{
		{
			ID:      "soap",
			Name:    models.LocalizedText{AR: "صابون", EN: "Soap"},
			Price:   price(20),
			Image:   "soap.svg",
			InStock: true,
			Variants: []models.Variant{
				{Name: models.LocalizedText{AR: "صغير", EN: "Small"}, Price: price(variantPrice), InStock: true},
				{Name: models.LocalizedText{EN: "Large"}, Price: price(40), Image: "soap-large.svg", InStock: false},
			},
		},
		{ID: "mop", Name: models.LocalizedText{EN: "Mop"}, Price: price(70), Image: "mop.svg", InStock: true},
		{ID: "bleach", Name: models.LocalizedText{EN: "Bleach"}, Price: price(30), InStock: false},
	})
}

type failingStore struct {
	*localstore.InMemoryStore
	fail bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Set(key string, value []byte) error {
	if s.fail {
		return errDiskFull
	}
	return s.InMemoryStore.Set(key, value)
}

func (s *failingStore) Delete(key string) error {
	if s.fail {
		return errDiskFull
	}
	return s.InMemoryStore.Delete(key)
}

func TestAdd_MergesDuplicatePairs(t *testing.T) {
	cat := soapCatalog(25)
	l := NewLedger(localstore.NewInMemoryStore())

	require.NoError(t, l.Add(cat, "soap", idx(0), 2))
	require.NoError(t, l.Add(cat, "soap", idx(0), 3))

	lines := l.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
}

func TestAdd_VariantAndBaseAreDistinctLines(t *testing.T) {
	cat := soapCatalog(25)
	l := NewLedger(localstore.NewInMemoryStore())

	require.NoError(t, l.Add(cat, "soap", idx(0), 1))
	require.NoError(t, l.Add(cat, "soap", nil, 1))
	require.NoError(t, l.Add(cat, "mop", nil, 1))

	assert.Len(t, l.Lines(), 3)
	assert.Equal(t, 3, l.Count())
}

func TestAdd_RefusesWithoutMutation(t *testing.T) {
	cat := soapCatalog(25)
	l := NewLedger(localstore.NewInMemoryStore())

	assert.ErrorIs(t, l.Add(cat, "ghost", nil, 1), models.ErrNotFound)
	assert.ErrorIs(t, l.Add(cat, "soap", idx(7), 1), models.ErrNotFound)
	assert.ErrorIs(t, l.Add(cat, "bleach", nil, 1), models.ErrOutOfStock)
	assert.ErrorIs(t, l.Add(cat, "soap", idx(1), 1), models.ErrOutOfStock)
	assert.ErrorIs(t, l.Add(cat, "mop", nil, 0), models.ErrValidation)

	assert.Empty(t, l.Lines())
}

func TestRemove_AndSetQuantityZeroAreEquivalent(t *testing.T) {
	cat := soapCatalog(25)

	a := NewLedger(localstore.NewInMemoryStore())
	b := NewLedger(localstore.NewInMemoryStore())
	for _, l := range []*Ledger{a, b} {
		require.NoError(t, l.Add(cat, "soap", idx(0), 2))
		require.NoError(t, l.Add(cat, "mop", nil, 1))
	}

	require.NoError(t, a.Remove("soap", idx(0)))
	require.NoError(t, b.SetQuantity("soap", idx(0), 0))

	assert.Equal(t, a.Lines(), b.Lines())
	for _, r := range a.ResolvedLines(cat, models.LangEN) {
		assert.NotEqual(t, "soap", r.ProductID)
	}
}

func TestSetQuantity_Overwrites(t *testing.T) {
	cat := soapCatalog(25)
	l := NewLedger(localstore.NewInMemoryStore())
	require.NoError(t, l.Add(cat, "mop", nil, 1))

	require.NoError(t, l.SetQuantity("mop", nil, 4))
	assert.Equal(t, 4, l.Lines()[0].Quantity)

	// absent pair: no-op
	require.NoError(t, l.SetQuantity("soap", idx(0), 9))
	assert.Len(t, l.Lines(), 1)
}

func TestTotal_FollowsCatalogPriceChanges(t *testing.T) {
	l := NewLedger(localstore.NewInMemoryStore())
	require.NoError(t, l.Add(soapCatalog(25), "soap", idx(0), 2))

	assert.True(t, price(50).Equal(l.Total(soapCatalog(25))))
	// refetched catalog with a new price, no cart call in between
	assert.True(t, price(60).Equal(l.Total(soapCatalog(30))))
}

func TestResolvedLines_NamesPricesImages(t *testing.T) {
	cat := soapCatalog(25)
	l := NewLedger(localstore.NewInMemoryStore())
	require.NoError(t, l.Add(cat, "soap", idx(0), 1))
	require.NoError(t, l.Add(cat, "mop", nil, 2))

	lines := l.ResolvedLines(cat, models.LangAR)
	require.Len(t, lines, 2)

	assert.Equal(t, "صابون - صغير", lines[0].Name)
	assert.True(t, price(25).Equal(lines[0].UnitPrice))
	assert.Equal(t, "soap.svg", lines[0].Image)

	// no Arabic name: English fallback
	assert.Equal(t, "Mop", lines[1].Name)
	assert.True(t, price(140).Equal(lines[1].Subtotal()))
}

func TestResolve_VariantImageOverride(t *testing.T) {
	r, ok := Resolve(soapCatalog(25), Line{ProductID: "soap", VariantIndex: idx(1), Quantity: 1}, models.LangEN)
	require.True(t, ok)
	assert.Equal(t, "Soap - Large", r.Name)
	assert.Equal(t, "soap-large.svg", r.Image)
}

func TestResolvedLines_SkipsVanishedProducts(t *testing.T) {
	l := NewLedger(localstore.NewInMemoryStore())
	require.NoError(t, l.Add(soapCatalog(25), "mop", nil, 1))
	require.NoError(t, l.Add(soapCatalog(25), "soap", idx(0), 1))

	shrunk := catalog.SnapshotOf([]models.Product{{ID: "soap", Name: models.LocalizedText{EN: "Soap"}, Price: price(20), InStock: true}})
	assert.Empty(t, l.ResolvedLines(shrunk, models.LangEN))
	assert.True(t, l.Total(shrunk).IsZero())
	assert.Len(t, l.Lines(), 2, "unresolvable lines stay in the ledger")
}

func TestPersistence_ReloadsLines(t *testing.T) {
	store := localstore.NewInMemoryStore()
	cat := soapCatalog(25)

	l := NewLedger(store)
	require.NoError(t, l.Add(cat, "soap", idx(0), 2))
	require.NoError(t, l.Add(cat, "mop", nil, 1))

	reloaded := NewLedger(store)
	assert.Equal(t, l.Lines(), reloaded.Lines())
}

func TestPersistence_ClearRemovesRecord(t *testing.T) {
	store := localstore.NewInMemoryStore()
	l := NewLedger(store)
	require.NoError(t, l.Add(soapCatalog(25), "mop", nil, 1))

	require.NoError(t, l.Clear())
	assert.True(t, l.Empty())
	_, err := store.Get(localstore.KeyCart)
	assert.ErrorIs(t, err, localstore.ErrNotFound)
}

func TestLoad_ToleratesBadRecords(t *testing.T) {
	cases := map[string][]byte{
		"empty":   {},
		"corrupt": []byte("{not json"),
		"wrong":   []byte(`{"productId":"x"}`),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := localstore.NewInMemoryStore()
			require.NoError(t, store.Set(localstore.KeyCart, raw))
			l := NewLedger(store)
			assert.True(t, l.Empty())

			// and the ledger is usable afterwards
			require.NoError(t, l.Add(soapCatalog(25), "mop", nil, 1))
			assert.Len(t, l.Lines(), 1)
		})
	}
}

func TestLoad_DropsInvalidLines(t *testing.T) {
	store := localstore.NewInMemoryStore()
	raw, _ := json.Marshal([]Line{
		{ProductID: "mop", Quantity: 2},
		{ProductID: "", Quantity: 1},
		{ProductID: "soap", Quantity: 0},
	})
	require.NoError(t, store.Set(localstore.KeyCart, raw))

	lines := NewLedger(store).Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "mop", lines[0].ProductID)
}

func TestLoad_MergesRepeatedPairs(t *testing.T) {
	store := localstore.NewInMemoryStore()
	raw, _ := json.Marshal([]Line{
		{ProductID: "soap", VariantIndex: idx(0), Quantity: 1},
		{ProductID: "mop", Quantity: 2},
		{ProductID: "soap", VariantIndex: idx(0), Quantity: 3},
		{ProductID: "soap", Quantity: 1},
		{ProductID: "mop", Quantity: 1},
	})
	require.NoError(t, store.Set(localstore.KeyCart, raw))

	ledger := NewLedger(store)
	lines := ledger.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, Line{ProductID: "soap", VariantIndex: idx(0), Quantity: 4}, lines[0])
	assert.Equal(t, Line{ProductID: "mop", Quantity: 3}, lines[1])
	assert.Equal(t, Line{ProductID: "soap", Quantity: 1}, lines[2])
	assert.Equal(t, 8, ledger.Count())

	require.NoError(t, ledger.Remove("mop", nil))
	assert.Len(t, ledger.Lines(), 2, "one remove clears every copy of the pair")
}

func TestMutation_FailedWriteLeavesLedgerUnchanged(t *testing.T) {
	store := &failingStore{InMemoryStore: localstore.NewInMemoryStore()}
	cat := soapCatalog(25)
	l := NewLedger(store)
	require.NoError(t, l.Add(cat, "mop", nil, 1))
	before := l.Lines()

	store.fail = true
	assert.ErrorIs(t, l.Add(cat, "mop", nil, 1), errDiskFull)
	assert.ErrorIs(t, l.Add(cat, "soap", idx(0), 1), errDiskFull)
	assert.ErrorIs(t, l.SetQuantity("mop", nil, 5), errDiskFull)
	assert.ErrorIs(t, l.Remove("mop", nil), errDiskFull)
	assert.ErrorIs(t, l.Clear(), errDiskFull)

	assert.Equal(t, before, l.Lines())

	store.fail = false
	assert.Equal(t, before, NewLedger(store).Lines())
}

func TestLines_ReturnsCopies(t *testing.T) {
	l := NewLedger(localstore.NewInMemoryStore())
	require.NoError(t, l.Add(soapCatalog(25), "soap", idx(0), 1))

	lines := l.Lines()
	*lines[0].VariantIndex = 1
	lines[0].Quantity = 99

	fresh := l.Lines()
	assert.Equal(t, 0, *fresh[0].VariantIndex)
	assert.Equal(t, 1, fresh[0].Quantity)
}

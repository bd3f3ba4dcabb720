package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// MemoryStore keeps products and orders in process. It answers catalog
// queries with the same engine clients use, so both sides agree on order.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
	orders   map[string]*models.Order
	byKey    map[string]string
	seq      []string
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]models.Product),
		orders:   make(map[string]*models.Order),
		byKey:    make(map[string]string),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Seed inserts products as-is, keeping their IDs and timestamps.
func (m *MemoryStore) Seed(products ...models.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range products {
		m.products[p.ID] = p
	}
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) QueryProducts(_ context.Context, q models.CatalogQuery) (*models.CatalogResult, error) {
	m.mu.RLock()
	all := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		all = append(all, p)
	}
	m.mu.RUnlock()

	result, err := catalog.Query(all, q)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (m *MemoryStore) GetProduct(_ context.Context, id string) (*models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.NotFoundf("product %s", id)
	}
	return &p, nil
}

func (m *MemoryStore) CreateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = m.now()
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) UpdateProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.products[p.ID]
	if !ok {
		return models.NotFoundf("product %s", p.ID)
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = m.now()
	m.products[p.ID] = *p
	return nil
}

func (m *MemoryStore) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return models.NotFoundf("product %s", id)
	}
	delete(m.products, id)
	return nil
}

func (m *MemoryStore) ToggleStock(_ context.Context, id string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, models.NotFoundf("product %s", id)
	}
	p.InStock = !p.InStock
	p.UpdatedAt = m.now()
	m.products[id] = p
	return &p, nil
}

func (m *MemoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if order.IdempotencyKey != "" {
		if _, ok := m.byKey[order.IdempotencyKey]; ok {
			return ErrDuplicateKey
		}
	}
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	order.CreatedAt = m.now()
	order.UpdatedAt = order.CreatedAt

	stored := cloneOrder(order)
	m.orders[order.ID] = stored
	m.seq = append(m.seq, order.ID)
	if order.IdempotencyKey != "" {
		m.byKey[order.IdempotencyKey] = order.ID
	}
	return nil
}

func (m *MemoryStore) GetOrderByID(_ context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, models.NotFoundf("order %s", id)
	}
	return cloneOrder(o), nil
}

func (m *MemoryStore) GetOrderByIdempotencyKey(_ context.Context, key string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byKey[key]
	if !ok {
		return nil, nil
	}
	return cloneOrder(m.orders[id]), nil
}

func (m *MemoryStore) ListOrders(_ context.Context, status models.OrderStatus, page, limit int) ([]models.Order, int, error) {
	m.mu.RLock()
	var matched []models.Order
	// seq is insertion order; walk it backwards for newest first
	for i := len(m.seq) - 1; i >= 0; i-- {
		o := m.orders[m.seq[i]]
		if status == "" || o.Status == status {
			matched = append(matched, *cloneOrder(o))
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)
	start := (page - 1) * limit
	if start >= total || start < 0 {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (m *MemoryStore) UpdateOrderStatus(_ context.Context, id string, from, to models.OrderStatus) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, models.NotFoundf("order %s", id)
	}
	if o.Status != from {
		return nil, errors.Wrapf(models.ErrInvalidTransition, "order %s is no longer %s", id, from)
	}
	o.Status = to
	o.UpdatedAt = m.now()
	return cloneOrder(o), nil
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = make([]models.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if item.VariantIndex != nil {
			v := *item.VariantIndex
			item.VariantIndex = &v
		}
		c.Items[i] = item
	}
	return &c
}

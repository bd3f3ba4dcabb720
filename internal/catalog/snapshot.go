package catalog

import (
	"sync"

	"storefront/internal/models"
)

// Ticket identifies one catalog fetch.
type Ticket uint64

// Snapshot is the most recently fetched set of products the client prices
// its cart against. Fetches are ordered by ticket; a response whose ticket is
// older than the newest issued one is discarded.
type Snapshot struct {
	mu       sync.RWMutex
	issued   Ticket
	applied  Ticket
	products []models.Product
	byID     map[string]int
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() *Snapshot {
	return &Snapshot{byID: map[string]int{}}
}

// SnapshotOf builds a snapshot holding products, for callers that already
// have a full catalog in hand.
func SnapshotOf(products []models.Product) *Snapshot {
	s := NewSnapshot()
	s.Apply(s.Begin(), products)
	return s
}

// Begin issues a ticket for a fetch about to start.
func (s *Snapshot) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// Apply installs products fetched under t. It returns false, leaving the
// snapshot untouched, when a newer fetch has been started since t was issued.
func (s *Snapshot) Apply(t Ticket, products []models.Product) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t != s.issued || t <= s.applied {
		return false
	}

	cp := make([]models.Product, len(products))
	copy(cp, products)
	byID := make(map[string]int, len(cp))
	for i := range cp {
		byID[cp[i].ID] = i
	}

	s.products = cp
	s.byID = byID
	s.applied = t
	return true
}

// Lookup returns the product with id.
func (s *Snapshot) Lookup(id string) (models.Product, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.byID[id]
	if !ok {
		return models.Product{}, false
	}
	return s.products[i], true
}

// Products returns a copy of the snapshot contents.
func (s *Snapshot) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := make([]models.Product, len(s.products))
	copy(cp, s.products)
	return cp
}

// Len is the number of products held.
func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

package localstore

import (
	"sync"

	"github.com/go-faster/errors"
)

// Keys are namespaced so the shop's records never collide with unrelated
// preferences kept in the same database.
const (
	Namespace   = "storefront:"
	KeyCart     = Namespace + "cart"
	KeyOrders   = Namespace + "orders"
	KeyLanguage = Namespace + "lang"
	KeyCatalog  = Namespace + "catalog"
)

// ErrNotFound is returned by Get for a key that was never written or was deleted.
var ErrNotFound = errors.New("key not found")

// Store abstracts the client's durable key/value state. Set replaces the whole
// value; there are no partial writes.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Delete(key string) error
}

// InMemoryStore is a simple thread-safe map store.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{data: make(map[string][]byte)}
}

func (s *InMemoryStore) Get(key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *InMemoryStore) Set(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}

func (s *InMemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

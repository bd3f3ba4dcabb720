package history

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxEntries is how many submitted orders are kept locally.
const MaxEntries = 50

// Entry is one locally recorded order submission.
type Entry struct {
	ID            string       `json:"id"`
	Date          string       `json:"date"`
	Order         models.Order `json:"order"`
	RemoteSaved   bool         `json:"remoteSaved"`
	RemoteOrderID string       `json:"remoteOrderId,omitempty"`
}

// Log is the append-only, capped record of orders submitted from this client.
// It never talks to the remote store.
type Log struct {
	mu     sync.Mutex
	store  localstore.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewLog(store localstore.Store) *Log {
	return &Log{
		store:  store,
		now:    time.Now,
		logger: util.GetLogger(),
	}
}

// Record prepends order, evicting the oldest entries beyond MaxEntries.
// remoteOrderID is empty when the remote write did not succeed.
func (l *Log) Record(order models.Order, remoteSaved bool, remoteOrderID string) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := Entry{
		ID:            uuid.New().String(),
		Date:          l.now().UTC().Format(time.RFC3339Nano),
		Order:         order,
		RemoteSaved:   remoteSaved,
		RemoteOrderID: remoteOrderID,
	}

	entries := append([]Entry{entry}, l.read()...)
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode history: %w", err)
	}
	if err := l.store.Set(localstore.KeyOrders, raw); err != nil {
		return Entry{}, fmt.Errorf("failed to persist history: %w", err)
	}
	return entry, nil
}

// List returns entries newest first.
func (l *Log) List() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.read()
}

// LocalOnly returns entries whose remote write never succeeded, newest first.
func (l *Log) LocalOnly() []Entry {
	var out []Entry
	for _, e := range l.List() {
		if !e.RemoteSaved {
			out = append(out, e)
		}
	}
	return out
}

// Clear removes every entry.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.store.Delete(localstore.KeyOrders); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}

func (l *Log) read() []Entry {
	raw, err := l.store.Get(localstore.KeyOrders)
	if err != nil {
		if !errors.Is(err, localstore.ErrNotFound) {
			l.logger.Warn("Failed to read order history", zap.Error(err))
		}
		return nil
	}
	if len(raw) == 0 {
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.logger.Warn("Discarding unreadable order history",
			zap.Error(fmt.Errorf("%w: %v", models.ErrCorruptLocalState, err)))
		return nil
	}
	return entries
}

// README: In-memory store for tests and local development.
package order

import (
	"context"
	"sort"
	"sync"

	"gswash/internal/types"
)

// MemStore implements Storage in memory with the same conditional-write
// semantics as the PostgreSQL store. It backs unit tests and local runs
// without a database.
type MemStore struct {
	mu     sync.Mutex
	orders map[string]Order
	codes  map[string]struct{}
	events []Event
	nextID int64
}

func NewMemStore() *MemStore {
	return &MemStore{
		orders: make(map[string]Order),
		codes:  make(map[string]struct{}),
	}
}

func (s *MemStore) Create(_ context.Context, o *Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.codes[o.Code]; taken {
		return ErrCodeTaken
	}
	s.codes[o.Code] = struct{}{}
	s.orders[o.ID] = *o
	return nil
}

func (s *MemStore) Get(_ context.Context, id string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (s *MemStore) ListByCustomer(_ context.Context, customerID types.ID) ([]Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemStore) LastCompleted(_ context.Context, customerID types.ID) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *Order
	for _, o := range s.orders {
		if o.CustomerID != customerID || o.Status != StatusCompleted {
			continue
		}
		o := o
		if best == nil || o.UpdatedAt.After(best.UpdatedAt) {
			best = &o
		}
	}
	if best == nil {
		return Order{}, ErrNotFound
	}
	return *best, nil
}

func (s *MemStore) UpdateTransition(_ context.Context, o *Order, fromStatus Status, fromVersion int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[o.ID]
	if !ok || cur.Status != fromStatus || cur.Version != fromVersion {
		return false, nil
	}
	s.orders[o.ID] = *o
	return true, nil
}

func (s *MemStore) SetPaid(_ context.Context, id string, method string, version int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.orders[id]
	if !ok || cur.Version != version {
		return false, nil
	}
	cur.IsPaid = true
	if method != "" {
		cur.PaymentMethod = method
	}
	cur.Version++
	s.orders[id] = cur
	return true, nil
}

func (s *MemStore) AppendEvent(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	s.events = append(s.events, *e)
	return nil
}

func (s *MemStore) EventsAfter(_ context.Context, afterID int64, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 100
	}
	var out []Event
	for _, e := range s.events {
		if e.ID > afterID {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

// Put seeds a record directly, bypassing code bookkeeping; test helper.
func (s *MemStore) Put(o Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[o.ID] = o
}

// Delete removes a record; lets tests exercise the absent-order path
// of detail subscriptions.
func (s *MemStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
}

// README: Session manager owning subscription lifetime per identity.
package session

import (
	"context"

	"go.uber.org/zap"

	"gswash/internal/modules/watch"
	"gswash/internal/types"
)

// Manager owns the live subscriptions for the logged-in identity. It is
// the only component permitted to start and stop them. On identity
// change all previous streams are torn down fully before new ones are
// established: a stale stream must never deliver a snapshot for the
// wrong identity.
type Manager struct {
	watch *watch.Service
	log   *zap.Logger

	identity *types.Identity
	list     *watch.ListSubscription
	last     *watch.DetailSubscription
	details  map[string]*watch.DetailSubscription
}

// NewManager builds a manager with no active identity. Manager is not
// safe for concurrent use; callers serialize access (the client session
// loop is single-threaded by construction).
func NewManager(w *watch.Service, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{watch: w, log: log, details: make(map[string]*watch.DetailSubscription)}
}

// Identity returns the active identity, or nil when logged out.
func (m *Manager) Identity() *types.Identity {
	return m.identity
}

// SetIdentity switches the session to a new identity. Teardown of the
// previous streams completes (pumps exited) before the new ones open,
// so there is no overlap window.
func (m *Manager) SetIdentity(ctx context.Context, id types.Identity) {
	m.teardown()

	m.identity = &id
	m.list = m.watch.SubscribeOrderList(ctx, id.CustomerID)
	m.last = m.watch.SubscribeLastCompleted(ctx, id.CustomerID)
	m.log.Info("session identity set", zap.String("customer_id", string(id.CustomerID)))
}

// Clear logs the session out and stops every stream.
func (m *Manager) Clear() {
	m.teardown()
	m.identity = nil
}

func (m *Manager) teardown() {
	if m.list != nil {
		m.list.Cancel()
		m.list = nil
	}
	if m.last != nil {
		m.last.Cancel()
		m.last = nil
	}
	for id, sub := range m.details {
		sub.Cancel()
		delete(m.details, id)
	}
}

// OrderList returns the live order-list stream, or nil when logged out.
func (m *Manager) OrderList() *watch.ListSubscription {
	return m.list
}

// LastCompleted returns the live last-completed stream, or nil when
// logged out.
func (m *Manager) LastCompleted() *watch.DetailSubscription {
	return m.last
}

// WatchOrder opens (or returns the existing) detail stream for one
// order. Streams opened here are torn down on identity change.
func (m *Manager) WatchOrder(ctx context.Context, orderID string) *watch.DetailSubscription {
	if sub, ok := m.details[orderID]; ok {
		return sub
	}
	sub := m.watch.SubscribeOrderDetail(ctx, orderID)
	m.details[orderID] = sub
	return sub
}

// StopWatching cancels one detail stream.
func (m *Manager) StopWatching(orderID string) {
	if sub, ok := m.details[orderID]; ok {
		sub.Cancel()
		delete(m.details, orderID)
	}
}

// Refetch forces a fresh full read on every open stream, bypassing any
// pending local state. Use it after an operation whose effect the live
// stream might not yet reflect, e.g. right after submitting an order.
func (m *Manager) Refetch() {
	if m.list != nil {
		m.list.Refresh()
	}
	if m.last != nil {
		m.last.Refresh()
	}
	for _, sub := range m.details {
		sub.Refresh()
	}
}

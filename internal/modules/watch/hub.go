// README: Subscription hub; maintains live per-viewer streams of order snapshots.
package watch

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"gswash/internal/modules/order"
	"gswash/internal/types"
)

// Reader is the read-side store contract the hub refreshes from.
type Reader interface {
	Get(ctx context.Context, id string) (order.Order, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]order.Order, error)
	LastCompleted(ctx context.Context, customerID types.ID) (order.Order, error)
	EventsAfter(ctx context.Context, afterID int64, limit int) ([]order.Event, error)
}

// sendBuffer sizes each subscription's delivery channel. Consumers that
// fall further behind stall the producer until they drain or cancel.
const sendBuffer = 8

type kind int

const (
	kindList kind = iota
	kindDetail
	kindLastCompleted
)

// Service owns all live subscriptions. Change hints arrive from the
// order service in-process and from the outbox poller; each hint marks
// the matching streams dirty and their pumps re-read the store. Refresh
// is idempotent and versions drop stale snapshots, so duplicate hints
// are harmless (at-least-once).
type Service struct {
	store Reader
	log   *zap.Logger

	mu   sync.RWMutex
	subs map[*subscription]struct{}
}

func NewService(store Reader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, subs: make(map[*subscription]struct{})}
}

type subscription struct {
	kind       kind
	customerID types.ID
	orderID    string

	ctx    context.Context
	cancel context.CancelFunc
	dirty  chan struct{}
	done   chan struct{}

	lists   chan ListSnapshot
	details chan DetailSnapshot
	errs    chan error

	// sendMu serializes publishes and guards lastSent so a stream never
	// goes backwards, even if a refresh path races a forced refetch.
	sendMu   sync.Mutex
	lastSent uint64
	nextVer  uint64
}

// Cancel stops delivery immediately: it waits for the pump to exit, so
// after Cancel returns no further snapshot is handed to the observer.
func (s *subscription) Cancel() {
	s.cancel()
	<-s.done
}

// Refresh forces a fresh full read, bypassing any pending state; used by
// the session manager's manual refetch escape hatch.
func (s *subscription) Refresh() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// ListSubscription is a live stream of a customer's order list.
type ListSubscription struct {
	C   <-chan ListSnapshot
	Err <-chan error
	sub *subscription
}

func (l *ListSubscription) Cancel()  { l.sub.Cancel() }
func (l *ListSubscription) Refresh() { l.sub.Refresh() }

// DetailSubscription is a live stream of one order, or of the latest
// completed order for a customer.
type DetailSubscription struct {
	C   <-chan DetailSnapshot
	Err <-chan error
	sub *subscription
}

func (d *DetailSubscription) Cancel()  { d.sub.Cancel() }
func (d *DetailSubscription) Refresh() { d.sub.Refresh() }

// SubscribeOrderList emits an initial snapshot immediately (possibly
// empty), then one per underlying change, ordered by created_at desc.
// The stream never terminates on its own except on store failure.
func (s *Service) SubscribeOrderList(ctx context.Context, customerID types.ID) *ListSubscription {
	sub := s.start(ctx, &subscription{kind: kindList, customerID: customerID})
	return &ListSubscription{C: sub.lists, Err: sub.errs, sub: sub}
}

// SubscribeOrderDetail emits the order or absent (nil) snapshots.
func (s *Service) SubscribeOrderDetail(ctx context.Context, orderID string) *DetailSubscription {
	sub := s.start(ctx, &subscription{kind: kindDetail, orderID: orderID})
	return &DetailSubscription{C: sub.details, Err: sub.errs, sub: sub}
}

// SubscribeLastCompleted tracks the most recently updated completed
// order. It re-evaluates on every change for the customer, not only on
// completions: an edit to the latest completed order re-emits too.
func (s *Service) SubscribeLastCompleted(ctx context.Context, customerID types.ID) *DetailSubscription {
	sub := s.start(ctx, &subscription{kind: kindLastCompleted, customerID: customerID})
	return &DetailSubscription{C: sub.details, Err: sub.errs, sub: sub}
}

func (s *Service) start(ctx context.Context, sub *subscription) *subscription {
	sub.ctx, sub.cancel = context.WithCancel(ctx)
	sub.dirty = make(chan struct{}, 1)
	sub.done = make(chan struct{})
	sub.errs = make(chan error, 1)
	sub.lists = make(chan ListSnapshot, sendBuffer)
	sub.details = make(chan DetailSnapshot, sendBuffer)

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()

	go s.pump(sub)
	return sub
}

// pump is the single producer for one subscription: serial refreshes
// keep per-stream ordering trivially correct.
func (s *Service) pump(sub *subscription) {
	defer func() {
		s.mu.Lock()
		delete(s.subs, sub)
		s.mu.Unlock()
		close(sub.lists)
		close(sub.details)
		close(sub.done)
	}()

	if !s.refresh(sub) {
		return
	}
	for {
		select {
		case <-sub.ctx.Done():
			return
		case <-sub.dirty:
			if !s.refresh(sub) {
				return
			}
		}
	}
}

// refresh re-reads the store and publishes one snapshot. A false return
// terminates the stream (cancellation or store failure).
func (s *Service) refresh(sub *subscription) bool {
	version := sub.nextVersion()

	var err error
	switch sub.kind {
	case kindList:
		var orders []order.Order
		orders, err = s.store.ListByCustomer(sub.ctx, sub.customerID)
		if err == nil {
			return publishList(sub, ListSnapshot{Version: version, Orders: orders})
		}
	case kindDetail:
		err = s.refreshDetail(sub, version, func() (order.Order, error) {
			return s.store.Get(sub.ctx, sub.orderID)
		})
	case kindLastCompleted:
		err = s.refreshDetail(sub, version, func() (order.Order, error) {
			return s.store.LastCompleted(sub.ctx, sub.customerID)
		})
	}
	if err == nil {
		return sub.ctx.Err() == nil
	}
	if sub.ctx.Err() != nil {
		return false
	}

	// Store failure is terminal for the stream; the caller resubscribes
	// for a fresh one. Never silently retry with stale data.
	s.log.Warn("subscription refresh failed",
		zap.String("order_id", sub.orderID),
		zap.String("customer_id", string(sub.customerID)),
		zap.Error(err))
	sub.errs <- err
	return false
}

func (s *Service) refreshDetail(sub *subscription, version uint64, read func() (order.Order, error)) error {
	o, err := read()
	switch {
	case err == nil:
		publishDetail(sub, DetailSnapshot{Version: version, Order: &o})
		return nil
	case errors.Is(err, order.ErrNotFound):
		publishDetail(sub, DetailSnapshot{Version: version}) // absent
		return nil
	default:
		return err
	}
}

func (sub *subscription) nextVersion() uint64 {
	sub.sendMu.Lock()
	defer sub.sendMu.Unlock()
	sub.nextVer++
	return sub.nextVer
}

// publishList delivers a snapshot unless it is stale or the
// subscription was cancelled. Stale means a fresher snapshot for this
// stream already went out; delivering it would violate the freshness
// ordering guarantee, so it is dropped.
func publishList(sub *subscription, snap ListSnapshot) bool {
	sub.sendMu.Lock()
	defer sub.sendMu.Unlock()
	if snap.Version <= sub.lastSent {
		return true
	}
	select {
	case <-sub.ctx.Done():
		return false
	case sub.lists <- snap:
		sub.lastSent = snap.Version
		return true
	}
}

func publishDetail(sub *subscription, snap DetailSnapshot) bool {
	sub.sendMu.Lock()
	defer sub.sendMu.Unlock()
	if snap.Version <= sub.lastSent {
		return true
	}
	select {
	case <-sub.ctx.Done():
		return false
	case sub.details <- snap:
		sub.lastSent = snap.Version
		return true
	}
}

// OrderChanged implements the order service's Publisher: it marks every
// stream the event touches dirty. Non-blocking; pumps coalesce repeated
// hints into one refresh.
func (s *Service) OrderChanged(e order.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for sub := range s.subs {
		switch sub.kind {
		case kindList, kindLastCompleted:
			if sub.customerID != e.CustomerID {
				continue
			}
		case kindDetail:
			if sub.orderID != e.OrderID {
				continue
			}
		}
		select {
		case sub.dirty <- struct{}{}:
		default:
		}
	}
}

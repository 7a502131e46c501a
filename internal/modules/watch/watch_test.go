// README: Subscription hub tests.
package watch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gswash/internal/modules/order"
	"gswash/internal/types"
)

const waitFor = 2 * time.Second

func seedOrder(store *order.MemStore, id string, customer types.ID, status order.Status, updated time.Time) order.Order {
	o := order.Order{
		ID:         id,
		Code:       order.CodeFromID(id),
		CustomerID: customer,
		Status:     status,
		TotalPrice: 10,
		CreatedAt:  updated,
		UpdatedAt:  updated,
	}
	store.Put(o)
	return o
}

func recvList(t *testing.T, sub *ListSubscription) ListSnapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		require.True(t, ok, "stream closed")
		return snap
	case err := <-sub.Err:
		t.Fatalf("stream error: %v", err)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for list snapshot")
	}
	return ListSnapshot{}
}

func recvDetail(t *testing.T, sub *DetailSubscription) DetailSnapshot {
	t.Helper()
	select {
	case snap, ok := <-sub.C:
		require.True(t, ok, "stream closed")
		return snap
	case err := <-sub.Err:
		t.Fatalf("stream error: %v", err)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for detail snapshot")
	}
	return DetailSnapshot{}
}

func TestListSubscriptionInitialAndChange(t *testing.T) {
	store := order.NewMemStore()
	now := time.Now().UTC()
	seedOrder(store, "o1", "c1", order.StatusPending, now)

	svc := NewService(store, nil)
	sub := svc.SubscribeOrderList(context.Background(), "c1")
	defer sub.Cancel()

	first := recvList(t, sub)
	require.Len(t, first.Orders, 1)
	assert.Equal(t, "o1", first.Orders[0].ID)

	seedOrder(store, "o2", "c1", order.StatusPending, now.Add(time.Second))
	svc.OrderChanged(order.Event{OrderID: "o2", CustomerID: "c1", ToStatus: order.StatusPending})

	second := recvList(t, sub)
	assert.Greater(t, second.Version, first.Version)
	require.Len(t, second.Orders, 2)
	assert.Equal(t, "o2", second.Orders[0].ID, "newest first")
}

func TestListSubscriptionIgnoresOtherCustomers(t *testing.T) {
	store := order.NewMemStore()
	svc := NewService(store, nil)
	sub := svc.SubscribeOrderList(context.Background(), "c1")
	defer sub.Cancel()

	first := recvList(t, sub)
	assert.Empty(t, first.Orders)

	seedOrder(store, "ox", "c2", order.StatusPending, time.Now().UTC())
	svc.OrderChanged(order.Event{OrderID: "ox", CustomerID: "c2"})

	select {
	case snap := <-sub.C:
		t.Fatalf("unexpected snapshot for foreign change: %+v", snap)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestDetailSubscriptionAbsent(t *testing.T) {
	store := order.NewMemStore()
	svc := NewService(store, nil)
	sub := svc.SubscribeOrderDetail(context.Background(), "missing")
	defer sub.Cancel()

	snap := recvDetail(t, sub)
	assert.Nil(t, snap.Order, "missing order emits an absent snapshot, not an error")

	seedOrder(store, "missing", "c1", order.StatusPending, time.Now().UTC())
	svc.OrderChanged(order.Event{OrderID: "missing", CustomerID: "c1"})

	next := recvDetail(t, sub)
	require.NotNil(t, next.Order)
	assert.Equal(t, "missing", next.Order.ID)
}

func TestDetailSubscriptionDeleteGoesAbsent(t *testing.T) {
	store := order.NewMemStore()
	seedOrder(store, "o1", "c1", order.StatusPending, time.Now().UTC())

	svc := NewService(store, nil)
	sub := svc.SubscribeOrderDetail(context.Background(), "o1")
	defer sub.Cancel()

	first := recvDetail(t, sub)
	require.NotNil(t, first.Order)

	store.Delete("o1")
	svc.OrderChanged(order.Event{OrderID: "o1", CustomerID: "c1"})

	next := recvDetail(t, sub)
	assert.Nil(t, next.Order)
	assert.Greater(t, next.Version, first.Version)
}

func TestLastCompletedReevaluates(t *testing.T) {
	store := order.NewMemStore()
	now := time.Now().UTC()
	seedOrder(store, "done1", "c1", order.StatusCompleted, now)

	svc := NewService(store, nil)
	sub := svc.SubscribeLastCompleted(context.Background(), "c1")
	defer sub.Cancel()

	first := recvDetail(t, sub)
	require.NotNil(t, first.Order)
	assert.Equal(t, "done1", first.Order.ID)

	// a later completion displaces the previous one
	seedOrder(store, "done2", "c1", order.StatusCompleted, now.Add(time.Minute))
	svc.OrderChanged(order.Event{OrderID: "done2", CustomerID: "c1", ToStatus: order.StatusCompleted})

	next := recvDetail(t, sub)
	require.NotNil(t, next.Order)
	assert.Equal(t, "done2", next.Order.ID)
}

func TestCancelStopsDelivery(t *testing.T) {
	store := order.NewMemStore()
	svc := NewService(store, nil)
	sub := svc.SubscribeOrderList(context.Background(), "c1")

	recvList(t, sub)
	sub.Cancel()

	// after Cancel returns the pump has exited and the channel is closed;
	// change hints cannot resurrect it
	svc.OrderChanged(order.Event{OrderID: "o1", CustomerID: "c1"})
	_, ok := <-sub.sub.lists
	assert.False(t, ok, "channel should be closed after Cancel")
}

func TestStaleSnapshotDropped(t *testing.T) {
	sub := &subscription{
		dirty:   make(chan struct{}, 1),
		lists:   make(chan ListSnapshot, sendBuffer),
		details: make(chan DetailSnapshot, sendBuffer),
	}
	sub.ctx, sub.cancel = context.WithCancel(context.Background())
	defer sub.cancel()

	require.True(t, publishList(sub, ListSnapshot{Version: 2}))
	require.True(t, publishList(sub, ListSnapshot{Version: 1}), "stale publish reports ok without sending")
	require.True(t, publishList(sub, ListSnapshot{Version: 3}))

	got := []uint64{(<-sub.lists).Version, (<-sub.lists).Version}
	assert.Equal(t, []uint64{2, 3}, got)
	select {
	case snap := <-sub.lists:
		t.Fatalf("stale snapshot delivered: %+v", snap)
	default:
	}
}

type failingReader struct {
	order.MemStore
}

func (f *failingReader) ListByCustomer(context.Context, types.ID) ([]order.Order, error) {
	return nil, assert.AnError
}

func TestStoreFailureTerminatesStream(t *testing.T) {
	svc := NewService(&failingReader{}, nil)
	sub := svc.SubscribeOrderList(context.Background(), "c1")

	select {
	case err := <-sub.Err:
		assert.Error(t, err)
	case <-time.After(waitFor):
		t.Fatal("timeout waiting for stream error")
	}
	_, ok := <-sub.sub.lists
	assert.False(t, ok, "stream must close after a store failure")
}

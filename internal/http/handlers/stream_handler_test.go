// README: SSE stream route tests, including detail-stream ownership.
package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gswash/internal/modules/order"
)

// sseRecorder adds the CloseNotifier gin's Stream helper asserts on.
type sseRecorder struct {
	*httptest.ResponseRecorder
	closeNotify chan bool
}

func newSSERecorder() *sseRecorder {
	return &sseRecorder{
		ResponseRecorder: httptest.NewRecorder(),
		closeNotify:      make(chan bool, 1),
	}
}

func (r *sseRecorder) CloseNotify() <-chan bool { return r.closeNotify }

// streamRequest serves an SSE route in the background and returns a
// channel that yields the recorder once the handler finishes.
func streamRequest(ctx context.Context, r http.Handler, path, token string) (*sseRecorder, <-chan struct{}) {
	req := httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token)
	w := newSSERecorder()
	done := make(chan struct{})
	go func() {
		r.ServeHTTP(w, req)
		close(done)
	}()
	return w, done
}

// TestOrderDetailStreamRejectsStranger covers the order-created-later
// case: a stranger subscribed to the id before the order existed must
// be rejected when the order materializes, not handed its data.
func TestOrderDetailStreamRejectsStranger(t *testing.T) {
	r, store, hub := buildTestRouter(t)

	w, done := streamRequest(context.Background(), r, "/api/stream/orders/o-alice", "mallory")

	// let the initial absent snapshot go out before the order exists
	time.Sleep(50 * time.Millisecond)
	store.Put(order.Order{ID: "o-alice", CustomerID: "alice", Status: order.StatusPending, TotalPrice: 42})
	hub.OrderChanged(order.Event{OrderID: "o-alice", CustomerID: "alice", ToStatus: order.StatusPending})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on the ownership check")
	}

	body := w.Body.String()
	assert.Contains(t, body, "forbidden")
	assert.NotContains(t, body, "alice", "stranger received the order payload")
	assert.NotContains(t, body, "42")
}

// drainStream runs the route until the deadline cancels it, then reads
// the body; the recorder is only touched after the handler goroutine
// has exited.
func drainStream(t *testing.T, r http.Handler, path, token string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	w, done := streamRequest(ctx, r, path, token)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate on context cancel")
	}
	return w.Body.String()
}

func TestOrderDetailStreamDeliversToOwner(t *testing.T) {
	r, store, _ := buildTestRouter(t)
	store.Put(order.Order{ID: "o1", CustomerID: "alice", Status: order.StatusAssigned, TotalPrice: 10})

	body := drainStream(t, r, "/api/stream/orders/o1", "alice")
	assert.Contains(t, body, `"o1"`)
	assert.Contains(t, body, "assigned")
	assert.NotContains(t, body, "forbidden")
}

func TestOrderDetailStreamOperatorMayWatch(t *testing.T) {
	r, store, _ := buildTestRouter(t)
	store.Put(order.Order{ID: "o1", CustomerID: "alice", Status: order.StatusPending})

	body := drainStream(t, r, "/api/stream/orders/o1", "staff:admin")
	assert.Contains(t, body, `"o1"`)
	assert.NotContains(t, body, "forbidden")
}

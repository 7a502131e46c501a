// README: SSE streaming handlers draining watch subscriptions.
package handlers

import (
	"io"

	"github.com/gin-gonic/gin"

	"gswash/internal/http/middleware"
	"gswash/internal/modules/order"
	"gswash/internal/modules/watch"
)

type StreamHandler struct {
	watch *watch.Service
}

func NewStreamHandler(w *watch.Service) *StreamHandler {
	return &StreamHandler{watch: w}
}

// OrderList streams the caller's order list as server-sent events. The
// subscription is bound to the request context, so client disconnect
// cancels it; no snapshot is delivered past that point.
func (h *StreamHandler) OrderList(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	filter := order.ParseFilter(c.Query("filter"))
	sub := h.watch.SubscribeOrderList(c.Request.Context(), ident.CustomerID)
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				return false
			}
			snap.Orders = filter.Apply(snap.Orders)
			c.SSEvent("orders", snap)
			return true
		case err := <-sub.Err:
			c.SSEvent("error", gin.H{"error": err.Error(), "kind": "subscription"})
			return false
		}
	})
}

// OrderDetail streams one order. The ownership check runs on every
// non-absent snapshot: an absent snapshot carries no customer to check
// against, and the order may come into existence after the subscription
// opened, so a one-time gate would wave strangers through.
func (h *StreamHandler) OrderDetail(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	sub := h.watch.SubscribeOrderDetail(c.Request.Context(), c.Param("id"))
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				return false
			}
			if snap.Order != nil && !canView(ident, *snap.Order) {
				c.SSEvent("error", gin.H{"error": "not your order", "kind": "forbidden"})
				return false
			}
			c.SSEvent("order", snap)
			return true
		case err := <-sub.Err:
			c.SSEvent("error", gin.H{"error": err.Error(), "kind": "subscription"})
			return false
		}
	})
}

// LastCompleted streams the caller's most recently updated completed
// order, re-evaluated on every relevant change.
func (h *StreamHandler) LastCompleted(c *gin.Context) {
	ident := middleware.CallerIdentity(c)
	sub := h.watch.SubscribeLastCompleted(c.Request.Context(), ident.CustomerID)
	defer sub.Cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Stream(func(w io.Writer) bool {
		select {
		case snap, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent("last_completed", snap)
			return true
		case err := <-sub.Err:
			c.SSEvent("error", gin.H{"error": err.Error(), "kind": "subscription"})
			return false
		}
	})
}

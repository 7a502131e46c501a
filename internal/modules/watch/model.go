// README: Snapshot types delivered over subscriptions.
package watch

import (
	"gswash/internal/modules/order"
)

// ListSnapshot is a point-in-time view of a customer's order list,
// newest first. Version is monotonic within one subscription; observers
// never see an older snapshot after a newer one.
type ListSnapshot struct {
	Version uint64        `json:"version"`
	Orders  []order.Order `json:"orders"`
}

// DetailSnapshot is a point-in-time view of a single order. Order is nil
// when the record does not exist (absent), which callers must handle
// even though orders are never deleted in the normal lifecycle.
type DetailSnapshot struct {
	Version uint64       `json:"version"`
	Order   *order.Order `json:"order"`
}

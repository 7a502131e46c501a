// README: Order aggregate and status definitions.
package order

import (
	"time"

	"gswash/internal/types"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusOnTheWay   Status = "on_the_way"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// AllStatuses lists every status the store may hold, in workflow order.
var AllStatuses = []Status{
	StatusPending,
	StatusAssigned,
	StatusOnTheWay,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// IsValidStatus reports whether s is one of the declared statuses.
func IsValidStatus(s Status) bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions.
func IsTerminal(s Status) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether from -> to is permitted. The workflow is
// deliberately permissive: intermediate steps reflect optional delegate
// workflow, not mandatory gates, so skipping forward (e.g. assigned ->
// completed) is allowed. The only hard rule is that terminal states have
// no outgoing transitions.
func CanTransition(from, to Status) bool {
	if !IsValidStatus(to) {
		return false
	}
	return !IsTerminal(from)
}

// VehicleInfo is an embedded value object, immutable after creation.
type VehicleInfo struct {
	Make      string `json:"make"`
	Model     string `json:"model"`
	PlateLast string `json:"plate_last"`
	Color     string `json:"color"`
}

// Address is an embedded value object, immutable after creation. Notes
// holds the display string resolved by the geocoding collaborator.
type Address struct {
	Area   string `json:"area"`
	Block  string `json:"block,omitempty"`
	Street string `json:"street,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// Order is the root entity for one booked wash service instance. It is
// never physically deleted; cancellation is a terminal status.
type Order struct {
	ID         string   `json:"id"`
	Code       string   `json:"order_code"`
	CustomerID types.ID `json:"customer_id"`
	Status     Status   `json:"status"`

	// Version guards every mutation with compare-and-swap semantics.
	Version int `json:"version"`

	ServiceType      string      `json:"service_type"`
	ServicePackageID string      `json:"service_package_id"`
	Vehicle          VehicleInfo `json:"vehicle_info"`
	Address          Address     `json:"address"`

	TotalPrice      float64 `json:"total_price"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountApplied float64 `json:"discount_applied"`
	PaymentMethod   string  `json:"payment_method"`
	IsPaid          bool    `json:"is_paid"`

	PointsEarned    int  `json:"loyalty_points_earned"`
	PointsRedeemed  int  `json:"loyalty_points_redeemed"`
	IsPointsApplied bool `json:"is_points_applied"`

	DriverID   *types.ID `json:"driver_id,omitempty"`
	DriverName string    `json:"driver_name,omitempty"`

	CancelReason *string `json:"cancel_reason,omitempty"`

	Source       string `json:"source,omitempty"`
	ReferralCode string `json:"referral_code,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event records one status transition, appended to the order_events
// outbox on every successful write. The watch poller tails it so writers
// on other nodes are observed too.
type Event struct {
	ID         int64
	OrderID    string
	CustomerID types.ID
	FromStatus Status
	ToStatus   Status
	ActorType  string
	ActorID    *types.ID
	CreatedAt  time.Time
}

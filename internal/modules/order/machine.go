// README: Status state machine; validates and applies transitions.
package order

import (
	"errors"
	"fmt"
	"time"

	"gswash/internal/modules/loyalty"
	"gswash/internal/types"
)

var (
	// ErrValidation marks malformed transition input (missing driver on
	// assign, empty cancel reason). Callers must not retry unchanged.
	ErrValidation = errors.New("invalid transition input")
	// ErrInvalidTransition marks a move the transition graph forbids.
	// Callers must not retry with the same arguments.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrConflict marks a lost optimistic-concurrency race. Callers may
	// re-read and retry a bounded number of times.
	ErrConflict = errors.New("order state conflict")
	// ErrNotFound marks a missing order.
	ErrNotFound = errors.New("order not found")
	// ErrCodeTaken marks an order code unique-index collision at create
	// time; the creator regenerates and retries.
	ErrCodeTaken = errors.New("order code already taken")
)

// TransitionInput carries the side-channel fields a transition may
// require. Callers supply them explicitly; the machine never infers.
type TransitionInput struct {
	DriverID     *types.ID
	DriverName   string
	CancelReason string
	// PointsRate is the points-per-currency-unit in effect at completion.
	PointsRate int
	Now        time.Time
}

// ApplyTransition validates and applies a status change, returning the
// updated copy. It stamps UpdatedAt, bumps the optimistic version, and
// fires loyalty accrual exactly once behind IsPointsApplied. The caller
// persists the result with a compare-and-swap on the previous version.
func ApplyTransition(o Order, to Status, in TransitionInput) (Order, error) {
	if !CanTransition(o.Status, to) {
		return o, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, to)
	}

	switch {
	case to == StatusCancelled:
		if in.CancelReason == "" {
			return o, fmt.Errorf("%w: cancel requires a reason", ErrValidation)
		}
	case to != StatusPending:
		// assigned and later require a driver, either already on the
		// order or supplied in the same mutation.
		if o.DriverID == nil && in.DriverID == nil {
			return o, fmt.Errorf("%w: %s requires a driver", ErrValidation, to)
		}
	}

	if in.DriverID != nil {
		d := *in.DriverID
		o.DriverID = &d
		o.DriverName = in.DriverName
	}
	if to == StatusPending {
		// a driver only exists from assigned onward; moving back to
		// pending unassigns
		o.DriverID = nil
		o.DriverName = ""
	}
	if to == StatusCancelled {
		r := in.CancelReason
		o.CancelReason = &r
	}

	if to == StatusCompleted && !o.IsPointsApplied {
		// credit at most once; the flag never resets
		o.PointsEarned = loyalty.Points(o.TotalPrice, in.PointsRate)
		o.IsPointsApplied = true
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	o.Status = to
	o.UpdatedAt = now
	o.Version++
	return o, nil
}

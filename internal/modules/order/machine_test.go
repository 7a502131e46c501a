// README: State machine tests (transition graph + side effects).
package order

import (
	"errors"
	"testing"
	"time"

	"gswash/internal/types"
)

// TestCanTransition verifies the transition rules without a store.
func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		// happy-path forward transitions
		{StatusPending, StatusAssigned, true},
		{StatusAssigned, StatusOnTheWay, true},
		{StatusOnTheWay, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		// cancel from every non-terminal state
		{StatusPending, StatusCancelled, true},
		{StatusAssigned, StatusCancelled, true},
		{StatusOnTheWay, StatusCancelled, true},
		{StatusInProgress, StatusCancelled, true},
		// skipping intermediate statuses is policy-permitted
		{StatusPending, StatusCompleted, true},
		{StatusAssigned, StatusCompleted, true},
		{StatusPending, StatusInProgress, true},
		// terminal states have no outgoing transitions
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusCancelled, false},
		{StatusCompleted, StatusCompleted, false},
		// unknown target
		{StatusPending, Status("archived"), false},
	}
	for _, tc := range cases {
		got := CanTransition(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

// TestRandomWalkStaysInGraph drives the machine with arbitrary proposed
// transitions; every accepted move must land on a declared status and
// never leave a terminal state.
func TestRandomWalkStaysInGraph(t *testing.T) {
	proposals := []Status{
		StatusAssigned, StatusCancelled, StatusCompleted, StatusOnTheWay,
		StatusPending, StatusInProgress, Status("bogus"), StatusCompleted,
		StatusAssigned, StatusCancelled, StatusPending, StatusInProgress,
	}
	d := types.ID("d1")
	o := Order{ID: "o1", Status: StatusPending, TotalPrice: 10}
	for i, to := range proposals {
		next, err := ApplyTransition(o, to, TransitionInput{
			DriverID:     &d,
			CancelReason: "walk",
			PointsRate:   35,
		})
		if err != nil {
			if IsTerminal(o.Status) && !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("step %d: terminal state rejected with %v, want ErrInvalidTransition", i, err)
			}
			continue
		}
		if !IsValidStatus(next.Status) {
			t.Fatalf("step %d: landed on undeclared status %q", i, next.Status)
		}
		if IsTerminal(o.Status) {
			t.Fatalf("step %d: escaped terminal state %s", i, o.Status)
		}
		o = next
	}
}

func TestApplyTransitionRequiresDriver(t *testing.T) {
	o := Order{ID: "o1", Status: StatusPending}
	_, err := ApplyTransition(o, StatusAssigned, TransitionInput{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("assign without driver: got %v, want ErrValidation", err)
	}

	d := types.ID("d1")
	got, err := ApplyTransition(o, StatusAssigned, TransitionInput{DriverID: &d, DriverName: "Hamad"})
	if err != nil {
		t.Fatalf("assign with driver: %v", err)
	}
	if got.DriverID == nil || *got.DriverID != d || got.DriverName != "Hamad" {
		t.Fatalf("driver not recorded: %+v", got)
	}

	// driver already on the order satisfies later transitions
	if _, err := ApplyTransition(got, StatusOnTheWay, TransitionInput{}); err != nil {
		t.Fatalf("depart with driver on order: %v", err)
	}
}

// TestBackToPendingUnassignsDriver keeps the invariant that a driver
// only exists from assigned onward, even across backward moves.
func TestBackToPendingUnassignsDriver(t *testing.T) {
	d := types.ID("d1")
	o := Order{ID: "o1", Status: StatusAssigned, DriverID: &d, DriverName: "Hamad"}
	got, err := ApplyTransition(o, StatusPending, TransitionInput{})
	if err != nil {
		t.Fatalf("back to pending: %v", err)
	}
	if got.DriverID != nil || got.DriverName != "" {
		t.Fatalf("driver survived the move back to pending: %+v", got)
	}
}

func TestApplyTransitionRequiresCancelReason(t *testing.T) {
	o := Order{ID: "o1", Status: StatusPending}
	_, err := ApplyTransition(o, StatusCancelled, TransitionInput{})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("cancel without reason: got %v, want ErrValidation", err)
	}

	got, err := ApplyTransition(o, StatusCancelled, TransitionInput{CancelReason: "customer_request"})
	if err != nil {
		t.Fatalf("cancel with reason: %v", err)
	}
	if got.CancelReason == nil || *got.CancelReason != "customer_request" {
		t.Fatalf("cancel reason not recorded: %+v", got)
	}
}

func TestApplyTransitionStampsAndBumps(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	d := types.ID("d1")
	o := Order{ID: "o1", Status: StatusPending, Version: 4}
	got, err := ApplyTransition(o, StatusAssigned, TransitionInput{DriverID: &d, Now: now})
	if err != nil {
		t.Fatal(err)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, now)
	}
	if got.Version != 5 {
		t.Errorf("Version = %d, want 5", got.Version)
	}
}

// TestCompletionCreditsPointsOnce simulates event replay: the second
// completed transition must fail terminally and leave the credited
// points untouched.
func TestCompletionCreditsPointsOnce(t *testing.T) {
	d := types.ID("d1")
	o := Order{ID: "o1", Status: StatusInProgress, DriverID: &d, TotalPrice: 10.0}

	got, err := ApplyTransition(o, StatusCompleted, TransitionInput{PointsRate: 35})
	if err != nil {
		t.Fatal(err)
	}
	if got.PointsEarned != 350 {
		t.Fatalf("PointsEarned = %d, want 350", got.PointsEarned)
	}
	if !got.IsPointsApplied {
		t.Fatal("IsPointsApplied not set")
	}

	_, err = ApplyTransition(got, StatusCompleted, TransitionInput{PointsRate: 35})
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("replayed completion: got %v, want ErrInvalidTransition", err)
	}
	if got.PointsEarned != 350 || !got.IsPointsApplied {
		t.Fatalf("replay mutated points: %+v", got)
	}
}

// TestCompletionZeroTotal keeps the guard flag even when nothing is
// earned, so replays of free orders are no-ops too.
func TestCompletionZeroTotal(t *testing.T) {
	d := types.ID("d1")
	o := Order{ID: "o1", Status: StatusInProgress, DriverID: &d, TotalPrice: 0}
	got, err := ApplyTransition(o, StatusCompleted, TransitionInput{PointsRate: 35})
	if err != nil {
		t.Fatal(err)
	}
	if got.PointsEarned != 0 {
		t.Errorf("PointsEarned = %d, want 0", got.PointsEarned)
	}
	if !got.IsPointsApplied {
		t.Error("IsPointsApplied not set for zero-total completion")
	}
}

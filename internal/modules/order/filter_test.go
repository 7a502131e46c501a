// README: Filter/projection tests.
package order

import "testing"

func sampleOrders() []Order {
	out := make([]Order, 0, len(AllStatuses))
	for i, s := range AllStatuses {
		out = append(out, Order{ID: string(rune('a' + i)), Status: s})
	}
	return out
}

func TestFilterSubsets(t *testing.T) {
	orders := sampleOrders()

	cases := []struct {
		filter Filter
		want   int
	}{
		{FilterAll, 6},
		{FilterActive, 3},
		{FilterCompleted, 1},
		{FilterCancelled, 1},
	}
	for _, tc := range cases {
		got := tc.filter.Apply(orders)
		if len(got) != tc.want {
			t.Errorf("filter %s: got %d orders, want %d", tc.filter, len(got), tc.want)
		}
	}
}

// The active subset is exactly {pending, assigned, in_progress}:
// on_the_way is excluded on purpose, matching what the customer app has
// always shown.
func TestFilterActiveExcludesOnTheWay(t *testing.T) {
	got := FilterActive.Apply(sampleOrders())
	seen := map[Status]bool{}
	for _, o := range got {
		seen[o.Status] = true
	}
	for _, want := range []Status{StatusPending, StatusAssigned, StatusInProgress} {
		if !seen[want] {
			t.Errorf("active filter missing %s", want)
		}
	}
	if seen[StatusOnTheWay] {
		t.Error("active filter must exclude on_the_way")
	}
}

func TestParseFilter(t *testing.T) {
	cases := map[string]Filter{
		"active":    FilterActive,
		"completed": FilterCompleted,
		"cancelled": FilterCancelled,
		"all":       FilterAll,
		"":          FilterAll,
		"bogus":     FilterAll,
	}
	for in, want := range cases {
		if got := ParseFilter(in); got != want {
			t.Errorf("ParseFilter(%q) = %s, want %s", in, got, want)
		}
	}
}

// README: Package catalog quote tests.
package pricing

import (
	"context"
	"errors"
	"testing"
)

type fakeCatalog map[string]Package

func (f fakeCatalog) Get(_ context.Context, id string) (Package, error) {
	p, ok := f[id]
	if !ok {
		return Package{}, ErrNotFound
	}
	return p, nil
}

func (f fakeCatalog) ListActive(context.Context) ([]Package, error) {
	var out []Package
	for _, p := range f {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestQuoteFor(t *testing.T) {
	svc := NewService(fakeCatalog{
		"basic": {ID: "basic", ServiceType: "exterior", Price: 12, Discount: 2, Active: true},
		"gone":  {ID: "gone", ServiceType: "full", Price: 20, Active: false},
		"bad":   {ID: "bad", ServiceType: "full", Price: 10, Discount: 15, Active: true},
	})
	ctx := context.Background()

	q, err := svc.QuoteFor(ctx, "basic")
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if q.TotalPrice != 10 || q.OriginalPrice != 12 || q.DiscountApplied != 2 {
		t.Fatalf("quote = %+v", q)
	}
	if q.ServiceType != "exterior" {
		t.Fatalf("service type = %s", q.ServiceType)
	}

	if _, err := svc.QuoteFor(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing: got %v", err)
	}
	if _, err := svc.QuoteFor(ctx, "gone"); !errors.Is(err, ErrInactive) {
		t.Fatalf("inactive: got %v", err)
	}
	if _, err := svc.QuoteFor(ctx, "bad"); err == nil {
		t.Fatal("invalid breakdown accepted")
	}
}

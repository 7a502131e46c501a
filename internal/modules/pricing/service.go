// README: Package catalog service resolves booking quotes.
package pricing

import (
	"context"
	"errors"
	"fmt"
)

var ErrInactive = errors.New("package not bookable")

// Catalog is the read contract the service needs; tests use a map fake.
type Catalog interface {
	Get(ctx context.Context, id string) (Package, error)
	ListActive(ctx context.Context) ([]Package, error)
}

type Service struct {
	catalog Catalog
}

func NewService(catalog Catalog) *Service {
	return &Service{catalog: catalog}
}

// QuoteFor resolves a package into the price breakdown applied to the
// booking. Inactive packages are not bookable.
func (s *Service) QuoteFor(ctx context.Context, packageID string) (Quote, error) {
	p, err := s.catalog.Get(ctx, packageID)
	if err != nil {
		return Quote{}, err
	}
	if !p.Active {
		return Quote{}, fmt.Errorf("%w: %s", ErrInactive, packageID)
	}
	if p.Discount < 0 || p.Discount > p.Price {
		return Quote{}, fmt.Errorf("package %s has invalid price breakdown", packageID)
	}
	return p.Quote(), nil
}

func (s *Service) List(ctx context.Context) ([]Package, error) {
	return s.catalog.ListActive(ctx)
}

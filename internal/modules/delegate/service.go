// README: Delegate availability service.
package delegate

import (
	"context"
	"errors"

	"gswash/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// Service tracks which delegates are currently accepting work. The
// admin assignment flow lists them before assigning an order.
type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Heartbeat marks the delegate available and refreshes its liveness
// window; the delegate app calls it periodically while on shift.
func (s *Service) Heartbeat(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.MarkAvailable(ctx, id)
}

// Withdraw removes the delegate from the available pool immediately.
func (s *Service) Withdraw(ctx context.Context, id types.ID) error {
	if id == "" {
		return ErrBadRequest
	}
	return s.store.MarkUnavailable(ctx, id)
}

func (s *Service) ListAvailable(ctx context.Context) ([]types.ID, error) {
	return s.store.ListAvailable(ctx)
}

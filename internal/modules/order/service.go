// README: Order service implements state transitions and persistence.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"gswash/internal/modules/loyalty"
	"gswash/internal/types"
)

// maxConflictRetries bounds automatic retry after a lost CAS race.
// Unbounded retry is forbidden: retrying past success risks duplicate
// side effects.
const maxConflictRetries = 3

// maxCodeRetries bounds regeneration attempts on order-code collisions.
const maxCodeRetries = 5

// Storage is the store contract the service needs. The production
// implementation is the pgx Store; tests use an in-memory fake.
type Storage interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (Order, error)
	ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error)
	LastCompleted(ctx context.Context, customerID types.ID) (Order, error)
	// UpdateTransition persists o conditionally: the write succeeds only
	// if the stored row still has fromStatus/fromVersion.
	UpdateTransition(ctx context.Context, o *Order, fromStatus Status, fromVersion int) (bool, error)
	SetPaid(ctx context.Context, id string, method string, version int) (bool, error)
	AppendEvent(ctx context.Context, e *Event) error
	EventsAfter(ctx context.Context, afterID int64, limit int) ([]Event, error)
}

// Publisher receives a change hint after every successful write. The
// watch hub, the audit pipeline, and the push notifier all implement it.
type Publisher interface {
	OrderChanged(e Event)
}

type Service struct {
	store Storage
	rates loyalty.RateProvider
	pubs  []Publisher
	log   *zap.Logger
}

func NewService(store Storage, rates loyalty.RateProvider, log *zap.Logger, pubs ...Publisher) *Service {
	if rates == nil {
		rates = loyalty.StaticRate(loyalty.DefaultRate)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, rates: rates, pubs: pubs, log: log}
}

var ErrBadRequest = errors.New("bad request")

type CreateCommand struct {
	CustomerID       types.ID
	ServiceType      string
	ServicePackageID string
	Vehicle          VehicleInfo
	Address          Address
	OriginalPrice    float64
	DiscountApplied  float64
	PaymentMethod    string
	Source           string
	ReferralCode     string
}

type AssignCommand struct {
	OrderID    string
	DriverID   types.ID
	DriverName string
	Actor      types.Identity
}

type DepartCommand struct {
	OrderID string
	Actor   types.Identity
}

type StartCommand struct {
	OrderID string
	Actor   types.Identity
}

type CompleteCommand struct {
	OrderID string
	Actor   types.Identity
}

type CancelCommand struct {
	OrderID   string
	Reason    string
	ActorType string
	ActorID   *types.ID
}

type PayCommand struct {
	OrderID string
	Method  string
}

// Create books a new order with status pending. The price invariant
// total = original - discount (both non-negative) is enforced at the
// door; the order code is regenerated on unique-index collisions.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Order, error) {
	if cmd.CustomerID == "" || cmd.ServiceType == "" {
		return Order{}, fmt.Errorf("%w: customer and service type required", ErrBadRequest)
	}
	if cmd.OriginalPrice < 0 || cmd.DiscountApplied < 0 || cmd.DiscountApplied > cmd.OriginalPrice {
		return Order{}, fmt.Errorf("%w: invalid price breakdown", ErrBadRequest)
	}

	now := time.Now().UTC()
	o := Order{
		ID:               uuid.NewString(),
		Code:             GenerateCode(),
		CustomerID:       cmd.CustomerID,
		Status:           StatusPending,
		ServiceType:      cmd.ServiceType,
		ServicePackageID: cmd.ServicePackageID,
		Vehicle:          cmd.Vehicle,
		Address:          cmd.Address,
		TotalPrice:       cmd.OriginalPrice - cmd.DiscountApplied,
		OriginalPrice:    cmd.OriginalPrice,
		DiscountApplied:  cmd.DiscountApplied,
		PaymentMethod:    cmd.PaymentMethod,
		Source:           cmd.Source,
		ReferralCode:     cmd.ReferralCode,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	var err error
	for attempt := 0; attempt < maxCodeRetries; attempt++ {
		err = s.store.Create(ctx, &o)
		if !errors.Is(err, ErrCodeTaken) {
			break
		}
		o.Code = GenerateCode()
	}
	if err != nil {
		return Order{}, err
	}

	s.emit(ctx, Event{
		OrderID:    o.ID,
		CustomerID: o.CustomerID,
		FromStatus: "",
		ToStatus:   StatusPending,
		ActorType:  "customer",
		ActorID:    &cmd.CustomerID,
		CreatedAt:  now,
	})
	return o, nil
}

func (s *Service) Assign(ctx context.Context, cmd AssignCommand) (Order, error) {
	if cmd.DriverID == "" {
		return Order{}, fmt.Errorf("%w: assign requires a driver", ErrValidation)
	}
	d := cmd.DriverID
	return s.transition(ctx, cmd.OrderID, StatusAssigned, TransitionInput{
		DriverID:   &d,
		DriverName: cmd.DriverName,
	}, "admin", actorID(cmd.Actor))
}

func (s *Service) Depart(ctx context.Context, cmd DepartCommand) (Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusOnTheWay, TransitionInput{}, "delegate", actorID(cmd.Actor))
}

func (s *Service) Start(ctx context.Context, cmd StartCommand) (Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusInProgress, TransitionInput{}, "delegate", actorID(cmd.Actor))
}

func (s *Service) Complete(ctx context.Context, cmd CompleteCommand) (Order, error) {
	return s.transition(ctx, cmd.OrderID, StatusCompleted, TransitionInput{
		PointsRate: s.rates.Rate(ctx),
	}, "delegate", actorID(cmd.Actor))
}

func (s *Service) Cancel(ctx context.Context, cmd CancelCommand) (Order, error) {
	actorType := cmd.ActorType
	if actorType == "" {
		actorType = "customer"
	}
	return s.transition(ctx, cmd.OrderID, StatusCancelled, TransitionInput{
		CancelReason: cmd.Reason,
	}, actorType, cmd.ActorID)
}

// transition re-reads, validates, and CAS-writes, retrying a bounded
// number of times on lost races. The terminal-state check and the
// IsPointsApplied guard are re-evaluated on every attempt, so replayed
// or raced transition events stay safe.
func (s *Service) transition(ctx context.Context, orderID string, to Status, in TransitionInput, actorType string, actor *types.ID) (Order, error) {
	if to == StatusCompleted && in.PointsRate == 0 {
		in.PointsRate = s.rates.Rate(ctx)
	}
	var lastErr error
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		o, err := s.store.Get(ctx, orderID)
		if err != nil {
			return Order{}, err
		}
		from, fromVersion := o.Status, o.Version

		next, err := ApplyTransition(o, to, in)
		if err != nil {
			return Order{}, err
		}

		ok, err := s.store.UpdateTransition(ctx, &next, from, fromVersion)
		if err != nil {
			return Order{}, err
		}
		if !ok {
			lastErr = fmt.Errorf("%w: %s (attempt %d)", ErrConflict, orderID, attempt+1)
			continue
		}

		s.emit(ctx, Event{
			OrderID:    next.ID,
			CustomerID: next.CustomerID,
			FromStatus: from,
			ToStatus:   to,
			ActorType:  actorType,
			ActorID:    actor,
			CreatedAt:  next.UpdatedAt,
		})
		return next, nil
	}
	return Order{}, lastErr
}

// SetPaid flips the payment flag; it is independent of status and may
// happen in any state.
func (s *Service) SetPaid(ctx context.Context, cmd PayCommand) (Order, error) {
	for attempt := 0; attempt <= maxConflictRetries; attempt++ {
		o, err := s.store.Get(ctx, cmd.OrderID)
		if err != nil {
			return Order{}, err
		}
		if o.IsPaid {
			return o, nil
		}
		ok, err := s.store.SetPaid(ctx, o.ID, cmd.Method, o.Version)
		if err != nil {
			return Order{}, err
		}
		if ok {
			s.emit(ctx, Event{
				OrderID:    o.ID,
				CustomerID: o.CustomerID,
				FromStatus: o.Status,
				ToStatus:   o.Status,
				ActorType:  "payment",
				CreatedAt:  time.Now().UTC(),
			})
			return s.store.Get(ctx, cmd.OrderID)
		}
	}
	return Order{}, fmt.Errorf("%w: %s", ErrConflict, cmd.OrderID)
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	return s.store.Get(ctx, id)
}

// List returns the customer's orders, newest first, narrowed by filter.
func (s *Service) List(ctx context.Context, customerID types.ID, filter Filter) ([]Order, error) {
	orders, err := s.store.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return filter.Apply(orders), nil
}

func (s *Service) LastCompleted(ctx context.Context, customerID types.ID) (Order, error) {
	return s.store.LastCompleted(ctx, customerID)
}

// emit appends the outbox event and fans the hint out to publishers.
// Publication is best-effort: the write already succeeded.
func (s *Service) emit(ctx context.Context, e Event) {
	if err := s.store.AppendEvent(ctx, &e); err != nil {
		s.log.Warn("append order event", zap.String("order_id", e.OrderID), zap.Error(err))
	}
	for _, p := range s.pubs {
		p.OrderChanged(e)
	}
}

func actorID(id types.Identity) *types.ID {
	if id.CustomerID == "" {
		return nil
	}
	c := id.CustomerID
	return &c
}

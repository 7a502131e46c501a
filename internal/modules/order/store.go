// README: Order store backed by PostgreSQL.
package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gswash/internal/types"
)

const orderColumns = `
	id, order_code, customer_id, status, version,
	service_type, service_package_id,
	vehicle_make, vehicle_model, vehicle_plate_last, vehicle_color,
	address_area, address_block, address_street, address_notes,
	total_price, original_price, discount_applied,
	payment_method, is_paid,
	points_earned, points_redeemed, is_points_applied,
	driver_id, driver_name, cancel_reason,
	source, referral_code,
	created_at, updated_at`

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, order_code, customer_id, status, version,
			service_type, service_package_id,
			vehicle_make, vehicle_model, vehicle_plate_last, vehicle_color,
			address_area, address_block, address_street, address_notes,
			total_price, original_price, discount_applied,
			payment_method, is_paid,
			points_earned, points_redeemed, is_points_applied,
			driver_id, driver_name, cancel_reason,
			source, referral_code,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9, $10, $11,
			$12, $13, $14, $15,
			$16, $17, $18,
			$19, $20,
			$21, $22, $23,
			$24, $25, $26,
			$27, $28,
			$29, $30
		)`,
		o.ID, o.Code, string(o.CustomerID), string(o.Status), o.Version,
		o.ServiceType, o.ServicePackageID,
		o.Vehicle.Make, o.Vehicle.Model, o.Vehicle.PlateLast, o.Vehicle.Color,
		o.Address.Area, o.Address.Block, o.Address.Street, o.Address.Notes,
		o.TotalPrice, o.OriginalPrice, o.DiscountApplied,
		o.PaymentMethod, o.IsPaid,
		o.PointsEarned, o.PointsRedeemed, o.IsPointsApplied,
		idPtr(o.DriverID), o.DriverName, o.CancelReason,
		o.Source, o.ReferralCode,
		o.CreatedAt, o.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "orders_order_code_key" {
		return ErrCodeTaken
	}
	return err
}

func (s *Store) Get(ctx context.Context, id string) (Order, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (s *Store) ListByCustomer(ctx context.Context, customerID types.ID) ([]Order, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE customer_id = $1
		 ORDER BY created_at DESC`, string(customerID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// LastCompleted returns the most recently updated completed order, not
// the most recently created one: an edit to an old completed order makes
// it "last" again.
func (s *Store) LastCompleted(ctx context.Context, customerID types.ID) (Order, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE customer_id = $1 AND status = 'completed'
		 ORDER BY updated_at DESC
		 LIMIT 1`, string(customerID))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

// UpdateTransition writes every status-bearing field in one atomic
// statement, guarded by the status and version the caller read. Zero
// rows affected means another writer got there first.
func (s *Store) UpdateTransition(ctx context.Context, o *Order, fromStatus Status, fromVersion int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET status = $1,
		    version = $2,
		    driver_id = $3,
		    driver_name = $4,
		    cancel_reason = $5,
		    points_earned = $6,
		    is_points_applied = $7,
		    updated_at = $8
		WHERE id = $9 AND status = $10 AND version = $11`,
		string(o.Status),
		o.Version,
		idPtr(o.DriverID),
		o.DriverName,
		o.CancelReason,
		o.PointsEarned,
		o.IsPointsApplied,
		o.UpdatedAt,
		o.ID,
		string(fromStatus),
		fromVersion,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) SetPaid(ctx context.Context, id string, method string, version int) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET is_paid = TRUE,
		    payment_method = CASE WHEN $1 <> '' THEN $1 ELSE payment_method END,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2 AND version = $3`,
		method, id, version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, e *Event) error {
	return s.db.QueryRow(ctx, `
		INSERT INTO order_events (
			order_id, customer_id, from_status, to_status, actor_type, actor_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		e.OrderID,
		string(e.CustomerID),
		string(e.FromStatus),
		string(e.ToStatus),
		e.ActorType,
		idPtr(e.ActorID),
		e.CreatedAt,
	).Scan(&e.ID)
}

// EventsAfter tails the outbox so changes written by other actors are
// observed; id ordering gives a stable offset.
func (s *Store) EventsAfter(ctx context.Context, afterID int64, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, customer_id, from_status, to_status, actor_type, actor_id, created_at
		FROM order_events
		WHERE id > $1
		ORDER BY id ASC
		LIMIT $2`, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var customerID, fromStatus, toStatus string
		var actor *string
		if err := rows.Scan(&e.ID, &e.OrderID, &customerID, &fromStatus, &toStatus, &e.ActorType, &actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.CustomerID = types.ID(customerID)
		e.FromStatus = Status(fromStatus)
		e.ToStatus = Status(toStatus)
		if actor != nil {
			a := types.ID(*actor)
			e.ActorID = &a
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// scanOrder reads a row into a loose Record and runs it through
// Normalize, so the list and detail paths share one defaulting path.
func scanOrder(row pgx.Row) (Order, error) {
	var rec Record
	err := row.Scan(
		&rec.ID, &rec.Code, &rec.CustomerID, &rec.Status, &rec.Version,
		&rec.ServiceType, &rec.ServicePackageID,
		&rec.VehicleMake, &rec.VehicleModel, &rec.VehiclePlateLast, &rec.VehicleColor,
		&rec.AddressArea, &rec.AddressBlock, &rec.AddressStreet, &rec.AddressNotes,
		&rec.TotalPrice, &rec.OriginalPrice, &rec.DiscountApplied,
		&rec.PaymentMethod, &rec.IsPaid,
		&rec.PointsEarned, &rec.PointsRedeemed, &rec.IsPointsApplied,
		&rec.DriverID, &rec.DriverName, &rec.CancelReason,
		&rec.Source, &rec.ReferralCode,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	return Normalize(rec), nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

// Schema reference (migrations live in deploy tooling):
//
//	CREATE TABLE orders (
//	    id TEXT PRIMARY KEY,
//	    order_code TEXT UNIQUE NOT NULL,
//	    customer_id TEXT NOT NULL,
//	    status TEXT NOT NULL,
//	    version INT NOT NULL DEFAULT 0,
//	    ...,
//	    created_at TIMESTAMPTZ NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX ON orders (customer_id, created_at DESC);
//	CREATE TABLE order_events (
//	    id BIGSERIAL PRIMARY KEY,
//	    order_id TEXT NOT NULL,
//	    customer_id TEXT NOT NULL,
//	    from_status TEXT NOT NULL,
//	    to_status TEXT NOT NULL,
//	    actor_type TEXT NOT NULL,
//	    actor_id TEXT,
//	    created_at TIMESTAMPTZ NOT NULL
//	);

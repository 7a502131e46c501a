// README: Package catalog store backed by PostgreSQL.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("package not found")

// Store reads the service_packages table.
//
//	CREATE TABLE service_packages (
//	    id           TEXT PRIMARY KEY,
//	    name         TEXT NOT NULL,
//	    service_type TEXT NOT NULL,
//	    price        DOUBLE PRECISION NOT NULL,
//	    discount     DOUBLE PRECISION NOT NULL DEFAULT 0,
//	    duration_min INT NOT NULL DEFAULT 0,
//	    active       BOOLEAN NOT NULL DEFAULT TRUE
//	);
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const packageColumns = `id, name, service_type, price, discount, duration_min, active`

func (s *Store) Get(ctx context.Context, id string) (Package, error) {
	row := s.db.QueryRow(ctx,
		`SELECT `+packageColumns+` FROM service_packages WHERE id = $1`, id)
	p, err := scanPackage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Package{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, err
}

func (s *Store) ListActive(ctx context.Context) ([]Package, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+packageColumns+` FROM service_packages WHERE active ORDER BY price`)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		p, err := scanPackage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPackage(row pgx.Row) (Package, error) {
	var p Package
	err := row.Scan(&p.ID, &p.Name, &p.ServiceType, &p.Price, &p.Discount, &p.DurationMin, &p.Active)
	if err != nil {
		return Package{}, err
	}
	return p, nil
}

package price

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
)

// ErrNotFound indicates that no observation exists for the symbol.
var ErrNotFound = errors.New("price observation not found")

// ObservationRepo defines persistent storage for price observations.
// One row is kept per symbol; Upsert overwrites price and timestamp, so the
// latest read never needs a timestamp scan and concurrent writers for the
// same symbol resolve to last-write-wins.
type ObservationRepo interface {
	Latest(ctx context.Context, symbol string) (domain.PriceObservation, error)
	Upsert(ctx context.Context, symbol string, price decimal.Decimal) error
}

// PgObservationRepo implements ObservationRepo with PostgreSQL.
type PgObservationRepo struct {
	pool *pgxpool.Pool
}

// NewPgObservationRepo creates a new PostgreSQL observation repository.
func NewPgObservationRepo(pool *pgxpool.Pool) *PgObservationRepo {
	return &PgObservationRepo{pool: pool}
}

func (r *PgObservationRepo) Latest(ctx context.Context, symbol string) (domain.PriceObservation, error) {
	var obs domain.PriceObservation
	err := r.pool.QueryRow(ctx,
		`SELECT symbol, price, observed_at FROM price_observations WHERE symbol = $1`,
		symbol).Scan(&obs.Symbol, &obs.Price, &obs.ObservedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PriceObservation{}, ErrNotFound
		}
		return domain.PriceObservation{}, fmt.Errorf("getting observation for %s: %w", symbol, err)
	}
	return obs, nil
}

func (r *PgObservationRepo) Upsert(ctx context.Context, symbol string, price decimal.Decimal) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO price_observations (symbol, price, observed_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (symbol) DO UPDATE SET price = $2, observed_at = NOW()`,
		symbol, price)
	if err != nil {
		return fmt.Errorf("saving observation for %s: %w", symbol, err)
	}
	return nil
}

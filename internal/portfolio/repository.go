package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sharefolio/tracker/internal/domain"
)

// ErrNotFound covers both a missing row and a row owned by someone else;
// ownership misses are indistinguishable from absence on purpose.
var ErrNotFound = errors.New("not found")

// AccountRepo defines persistent storage for trading accounts.
type AccountRepo interface {
	Create(ctx context.Context, account *domain.TradingAccount) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.TradingAccount, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.TradingAccount, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// HoldingRepo defines persistent storage for holdings.
type HoldingRepo interface {
	Create(ctx context.Context, holding *domain.Holding) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Holding, error)
	GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.Holding, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByAccount(ctx context.Context, accountID uuid.UUID) error
	DistinctSymbols(ctx context.Context) ([]string, error)
}

// PgAccountRepo implements AccountRepo with PostgreSQL.
type PgAccountRepo struct {
	pool *pgxpool.Pool
}

// NewPgAccountRepo creates a new PostgreSQL account repository.
func NewPgAccountRepo(pool *pgxpool.Pool) *PgAccountRepo {
	return &PgAccountRepo{pool: pool}
}

func (r *PgAccountRepo) Create(ctx context.Context, a *domain.TradingAccount) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO trading_accounts (id, user_id, name)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		a.ID, a.UserID, a.Name).Scan(&a.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating trading account: %w", err)
	}
	return nil
}

func (r *PgAccountRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.TradingAccount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, name, created_at
		 FROM trading_accounts
		 WHERE user_id = $1
		 ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing trading accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.TradingAccount
	for rows.Next() {
		var a domain.TradingAccount
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning trading account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *PgAccountRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.TradingAccount, error) {
	var a domain.TradingAccount
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, name, created_at
		 FROM trading_accounts
		 WHERE id = $1 AND user_id = $2`, id, userID).
		Scan(&a.ID, &a.UserID, &a.Name, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TradingAccount{}, ErrNotFound
		}
		return domain.TradingAccount{}, fmt.Errorf("getting trading account: %w", err)
	}
	return a, nil
}

func (r *PgAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM trading_accounts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting trading account: %w", err)
	}
	return nil
}

// PgHoldingRepo implements HoldingRepo with PostgreSQL.
type PgHoldingRepo struct {
	pool *pgxpool.Pool
}

// NewPgHoldingRepo creates a new PostgreSQL holding repository.
func NewPgHoldingRepo(pool *pgxpool.Pool) *PgHoldingRepo {
	return &PgHoldingRepo{pool: pool}
}

func (r *PgHoldingRepo) Create(ctx context.Context, h *domain.Holding) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO holdings (id, account_id, symbol, quantity, buy_price)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at`,
		h.ID, h.AccountID, h.Symbol, h.Quantity, h.BuyPrice).Scan(&h.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating holding: %w", err)
	}
	return nil
}

func (r *PgHoldingRepo) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]domain.Holding, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, account_id, symbol, quantity, buy_price, created_at
		 FROM holdings
		 WHERE account_id = $1
		 ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing holdings: %w", err)
	}
	defer rows.Close()

	var holdings []domain.Holding
	for rows.Next() {
		var h domain.Holding
		if err := rows.Scan(&h.ID, &h.AccountID, &h.Symbol, &h.Quantity, &h.BuyPrice, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning holding: %w", err)
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

func (r *PgHoldingRepo) GetForUser(ctx context.Context, id, userID uuid.UUID) (domain.Holding, error) {
	var h domain.Holding
	err := r.pool.QueryRow(ctx,
		`SELECT h.id, h.account_id, h.symbol, h.quantity, h.buy_price, h.created_at
		 FROM holdings h
		 JOIN trading_accounts a ON a.id = h.account_id
		 WHERE h.id = $1 AND a.user_id = $2`, id, userID).
		Scan(&h.ID, &h.AccountID, &h.Symbol, &h.Quantity, &h.BuyPrice, &h.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Holding{}, ErrNotFound
		}
		return domain.Holding{}, fmt.Errorf("getting holding: %w", err)
	}
	return h, nil
}

func (r *PgHoldingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM holdings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("deleting holding: %w", err)
	}
	return nil
}

func (r *PgHoldingRepo) DeleteByAccount(ctx context.Context, accountID uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM holdings WHERE account_id = $1`, accountID); err != nil {
		return fmt.Errorf("deleting holdings for account: %w", err)
	}
	return nil
}

func (r *PgHoldingRepo) DistinctSymbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM holdings ORDER BY symbol`)
	if err != nil {
		return nil, fmt.Errorf("listing held symbols: %w", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning symbol: %w", err)
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

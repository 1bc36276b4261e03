package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sharefolio/tracker/internal/domain"
	"github.com/sharefolio/tracker/internal/valuation"
)

// ErrInvalidInput indicates a rejected create request (empty name, bad
// quantity, negative buy price).
var ErrInvalidInput = errors.New("invalid input")

// AccountDashboard is one trading account with its valued holdings.
type AccountDashboard struct {
	Account  domain.TradingAccount        `json:"account"`
	Holdings []valuation.HoldingValuation `json:"holdings"`
	Summary  domain.Valuation             `json:"summary"`
}

// Dashboard is the full portfolio view for one user.
type Dashboard struct {
	Accounts []AccountDashboard `json:"accounts"`
	Total    domain.Valuation   `json:"total"`
}

// Service manages trading accounts and holdings and assembles the dashboard.
type Service struct {
	accounts   AccountRepo
	holdings   HoldingRepo
	valuations *valuation.Service
}

// NewService creates a portfolio service.
func NewService(accounts AccountRepo, holdings HoldingRepo, valuations *valuation.Service) *Service {
	return &Service{
		accounts:   accounts,
		holdings:   holdings,
		valuations: valuations,
	}
}

// CreateAccount creates a named trading account for the user.
func (s *Service) CreateAccount(ctx context.Context, userID uuid.UUID, name string) (domain.TradingAccount, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.TradingAccount{}, fmt.Errorf("account name required: %w", ErrInvalidInput)
	}

	account := domain.TradingAccount{
		ID:     uuid.New(),
		UserID: userID,
		Name:   name,
	}
	if err := s.accounts.Create(ctx, &account); err != nil {
		return domain.TradingAccount{}, err
	}
	return account, nil
}

// ListAccounts returns the user's trading accounts.
func (s *Service) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.TradingAccount, error) {
	return s.accounts.ListByUser(ctx, userID)
}

// DeleteAccount removes an account owned by the user. Contained holdings are
// deleted first; referential integrity here is manual, not cascading.
func (s *Service) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	account, err := s.accounts.GetForUser(ctx, accountID, userID)
	if err != nil {
		return err
	}

	if err := s.holdings.DeleteByAccount(ctx, account.ID); err != nil {
		return err
	}
	return s.accounts.Delete(ctx, account.ID)
}

// AddHolding records a new position in an account owned by the user.
func (s *Service) AddHolding(ctx context.Context, userID, accountID uuid.UUID, symbol string, quantity int64, buyPrice decimal.Decimal) (domain.Holding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return domain.Holding{}, fmt.Errorf("symbol required: %w", ErrInvalidInput)
	}
	if quantity <= 0 {
		return domain.Holding{}, fmt.Errorf("quantity must be positive: %w", ErrInvalidInput)
	}
	if buyPrice.IsNegative() {
		return domain.Holding{}, fmt.Errorf("buy price must not be negative: %w", ErrInvalidInput)
	}

	account, err := s.accounts.GetForUser(ctx, accountID, userID)
	if err != nil {
		return domain.Holding{}, err
	}

	h := domain.Holding{
		ID:        uuid.New(),
		AccountID: account.ID,
		Symbol:    symbol,
		Quantity:  quantity,
		BuyPrice:  buyPrice,
	}
	if err := s.holdings.Create(ctx, &h); err != nil {
		return domain.Holding{}, err
	}
	return h, nil
}

// RemoveHolding deletes a holding after confirming the user owns its account.
func (s *Service) RemoveHolding(ctx context.Context, userID, holdingID uuid.UUID) error {
	h, err := s.holdings.GetForUser(ctx, holdingID, userID)
	if err != nil {
		return err
	}
	return s.holdings.Delete(ctx, h.ID)
}

// HeldSymbols returns every distinct symbol held by any user, for the
// background price refresh.
func (s *Service) HeldSymbols(ctx context.Context) ([]string, error) {
	return s.holdings.DistinctSymbols(ctx)
}

// GetDashboard values every holding in every account of the user and
// aggregates per account and in total. Per-account summaries and the grand
// total are both derived from summed investment and current value, never
// from averaged percentages.
func (s *Service) GetDashboard(ctx context.Context, userID uuid.UUID) (Dashboard, error) {
	accounts, err := s.accounts.ListByUser(ctx, userID)
	if err != nil {
		return Dashboard{}, err
	}

	dashboard := Dashboard{Accounts: make([]AccountDashboard, 0, len(accounts))}
	summaries := make([]domain.Valuation, 0, len(accounts))

	for _, account := range accounts {
		holdings, err := s.holdings.ListByAccount(ctx, account.ID)
		if err != nil {
			return Dashboard{}, err
		}

		valued := s.valuations.ValueHoldings(ctx, holdings)
		summary := valuation.SumHoldings(valued)

		dashboard.Accounts = append(dashboard.Accounts, AccountDashboard{
			Account:  account,
			Holdings: valued,
			Summary:  summary,
		})
		summaries = append(summaries, summary)
	}

	dashboard.Total = valuation.Sum(summaries)
	return dashboard, nil
}

package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User is a registered account holder. Password is stored as a bcrypt hash
// and never leaves the auth package.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"isVerified"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TradingAccount is a named grouping of holdings belonging to one user.
type TradingAccount struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Holding is a position in one traded symbol inside a trading account.
// Holdings are immutable after creation; position changes are modelled as
// delete-and-recreate.
type Holding struct {
	ID        uuid.UUID       `json:"id"`
	AccountID uuid.UUID       `json:"accountId"`
	Symbol    string          `json:"symbol"`
	Quantity  int64           `json:"quantity"`
	BuyPrice  decimal.Decimal `json:"buyPrice"`
	CreatedAt time.Time       `json:"createdAt"`
}

// PriceObservation is the stored market price for a symbol. One row per
// symbol; each refresh overwrites price and timestamp.
type PriceObservation struct {
	Symbol     string          `json:"symbol"`
	Price      decimal.Decimal `json:"price"`
	ObservedAt time.Time       `json:"observedAt"`
}

// MarketEntry is one row of an index constituent or gainers/losers listing.
type MarketEntry struct {
	Symbol        string          `json:"symbol"`
	LastPrice     decimal.Decimal `json:"lastPrice"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"changePercent"`
}

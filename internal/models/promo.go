package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PromoCode struct {
	Code          string // canonical casing, lookups are case-insensitive
	Amount        decimal.Decimal
	UsesRemaining int
	Active        bool
	CreatedAt     time.Time
}

// Redemption is the proof that the account already used the code
// At most one exists per (AccountID, Code)
type Redemption struct {
	ID         uuid.UUID
	AccountID  int64
	Code       string
	Amount     decimal.Decimal
	RedeemedAt time.Time
}

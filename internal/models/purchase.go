package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is an append-only ledger entry
// Title, Price and Payload are copied from the item at purchase time
type Purchase struct {
	ID          uuid.UUID
	AccountID   int64
	ItemCode    string
	Title       string
	Price       decimal.Decimal
	Payload     string
	PurchasedAt time.Time
}

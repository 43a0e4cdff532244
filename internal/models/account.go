package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID          int64
	Balance     decimal.Decimal
	OrdersCount int
	CreatedAt   time.Time
}

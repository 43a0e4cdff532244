package validate

import (
	"errors"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	MaxCodeLen    = 64
	amountScale   = 2
	amountMaxLeft = 10 // NUMERIC(12, 2)
)

var maxAmount = decimal.New(1, amountMaxLeft)

// Amount parses money amount typed by a human
// Both '.' and ',' are accepted as decimal separator
// Amount must be positive with at most two fractional digits
func Amount(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	if s == "" {
		return decimal.Zero, errors.New("amount is empty")
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("amount is not a number")
	}

	switch {
	case !amount.IsPositive():
		return decimal.Zero, errors.New("amount must be positive")
	case !amount.Equal(amount.Round(amountScale)):
		return decimal.Zero, errors.New("amount must have at most two fractional digits")
	case amount.GreaterThanOrEqual(maxAmount):
		return decimal.Zero, errors.New("amount is too large")
	}

	return amount, nil
}

// PromoCode trims surrounding whitespace and checks the code is a single word
// Casing is kept: lookups are case-insensitive, the stored code keeps its canonical casing
func PromoCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)

	switch {
	case code == "":
		return "", errors.New("promo code is empty")
	case len(code) > MaxCodeLen:
		return "", errors.New("promo code is too long")
	case strings.IndexFunc(code, unicode.IsSpace) >= 0:
		return "", errors.New("promo code must not contain spaces")
	}

	return code, nil
}

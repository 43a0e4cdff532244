package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrAccountNotFound = errors.New("account not found")

	ErrItemUnavailable      = errors.New("item unavailable")
	ErrBalanceInsufficient  = errors.New("insufficient balance")
	ErrBalanceLimitExceeded = errors.New("balance limit exceeded")

	ErrPromoInvalid         = errors.New("promo code is invalid or exhausted")
	ErrPromoAlreadyRedeemed = errors.New("promo code already redeemed by this account")
	ErrPromoParamsInvalid   = errors.New("promo code parameters are invalid")

	ErrTokenInvalid = errors.New("account token is invalid")

	// Lock wait timeout, deadlock or serialization failure
	// The operation left no effect and may be retried as is
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
)

// InsufficientBalanceError reports the price asked and the balance seen under lock
// It matches ErrBalanceInsufficient with errors.Is
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: required %s, available %s", ErrBalanceInsufficient, e.Required.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrBalanceInsufficient
}

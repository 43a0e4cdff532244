package accountctx

import (
	"context"
)

type ctxKey string

const (
	accountKey ctxKey = "account"
	trackerKey ctxKey = "account-tracker"
)

type tracker struct {
	accountID int64
	known     bool
}

// Create a new context with the authenticated account id
func New(ctx context.Context, accountID int64) context.Context {
	if t, ok := ctx.Value(trackerKey).(*tracker); ok {
		t.accountID, t.known = accountID, true
	}
	return context.WithValue(ctx, accountKey, accountID)
}

// Extract the account id from the context
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountKey).(int64)
	return id, ok
}

// Track lets an outer handler learn the account id set by inner handlers on derived contexts.
// The returned func reports the last id passed to New.
func Track(ctx context.Context) (context.Context, func() (int64, bool)) {
	t := &tracker{}
	return context.WithValue(ctx, trackerKey, t), func() (int64, bool) {
		return t.accountID, t.known
	}
}

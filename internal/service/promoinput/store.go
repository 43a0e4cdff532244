package promoinput

import (
	"context"
	"time"
)

type State string

const (
	StateIdle         State = "idle"
	StateAwaitingCode State = "awaiting_code"
)

// Store keeps conversation state per account
type Store interface {
	// Save state, it is forgotten after ttl
	Set(ctx context.Context, accountID int64, state State, ttl time.Duration) error

	// Read and reset state to idle in one atomic step
	// Missing or expired state is StateIdle
	Take(ctx context.Context, accountID int64) (State, error)
}

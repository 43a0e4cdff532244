package promoinput

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/shopledger/internal/logger"
	"github.com/nkiryanov/shopledger/internal/models"
)

const DefaultAwaitTTL = 10 * time.Minute

type redeemer interface {
	Redeem(ctx context.Context, accountID int64, rawCode string) (models.Redemption, error)
}

// Machine turns "enter promo code" prompt and the next free text message into one redemption
//
//	idle --Await--> awaitingCode --HandleText--> idle
//
// The next text after Await is redeemed exactly once, whatever the outcome.
// Text received in idle state is not handled.
type Machine struct {
	store    Store
	redeemer redeemer
	ttl      time.Duration
	logger   logger.Logger
}

type Option func(*Machine)

// How long the machine waits for the code
func WithAwaitTTL(ttl time.Duration) Option {
	return func(m *Machine) {
		m.ttl = ttl
	}
}

func NewMachine(store Store, r redeemer, l logger.Logger, opts ...Option) *Machine {
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	m := &Machine{
		store:    store,
		redeemer: r,
		ttl:      DefaultAwaitTTL,
		logger:   l.WithGroup("promoinput"),
	}
	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Await switches account conversation to awaiting promo code
func (m *Machine) Await(ctx context.Context, accountID int64) error {
	err := m.store.Set(ctx, accountID, StateAwaitingCode, m.ttl)
	if err != nil {
		return fmt.Errorf("can't save conversation state. Err: %w", err)
	}

	m.logger.Debug("awaiting code", "account_id", accountID)
	return nil
}

// HandleText redeems text as promo code if the conversation awaits one
// handled is false when the conversation was idle, the text is left to other handlers then
func (m *Machine) HandleText(ctx context.Context, accountID int64, text string) (handled bool, redemption models.Redemption, err error) {
	state, err := m.store.Take(ctx, accountID)
	if err != nil {
		return false, models.Redemption{}, fmt.Errorf("can't read conversation state. Err: %w", err)
	}
	if state != StateAwaitingCode {
		return false, models.Redemption{}, nil
	}

	m.logger.Debug("code received", "account_id", accountID)

	redemption, err = m.redeemer.Redeem(ctx, accountID, text)
	return true, redemption, err
}

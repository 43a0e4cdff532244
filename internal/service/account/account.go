package account

import (
	"context"
	"fmt"

	"github.com/nkiryanov/shopledger/internal/models"
	"github.com/nkiryanov/shopledger/internal/repository"
)

const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 100
)

type storage interface {
	Account() repository.AccountRepo
	Purchase() repository.PurchaseRepo
}

type Service struct {
	storage storage
}

func NewService(storage storage) *Service {
	return &Service{storage: storage}
}

// Create account with zero balance if it does not exist yet
func (s *Service) EnsureAccount(ctx context.Context, accountID int64) error {
	err := s.storage.Account().EnsureAccount(ctx, accountID)
	if err != nil {
		return fmt.Errorf("can't ensure account. Err: %w", err)
	}
	return nil
}

// Unlocked read of balance and orders count
func (s *Service) GetSnapshot(ctx context.Context, accountID int64) (models.Account, error) {
	return s.storage.Account().GetAccount(ctx, accountID)
}

// Purchases of the account, newest first
// limit <= 0 means DefaultHistoryLimit, limit is capped by MaxHistoryLimit
func (s *Service) ListHistory(ctx context.Context, accountID int64, limit int) ([]models.Purchase, error) {
	switch {
	case limit <= 0:
		limit = DefaultHistoryLimit
	case limit > MaxHistoryLimit:
		limit = MaxHistoryLimit
	}

	return s.storage.Purchase().ListPurchases(ctx, accountID, limit)
}

package catalog

import (
	"context"

	"github.com/nkiryanov/shopledger/internal/models"
	"github.com/nkiryanov/shopledger/internal/repository"
)

type Service struct {
	catalogRepo repository.CatalogRepo
}

func NewService(catalogRepo repository.CatalogRepo) *Service {
	return &Service{catalogRepo: catalogRepo}
}

// Active items to show in the menu
// Prices are informational only, purchases always re-read the price under lock
func (s *Service) ListActive(ctx context.Context) ([]models.CatalogItem, error) {
	return s.catalogRepo.ListActiveItems(ctx)
}

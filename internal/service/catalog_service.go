package service

import (
	"context"
	"fmt"

	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// CatalogService manages a provider's offered-service listings and the
// public browse surface.
type CatalogService struct {
	catalog *repository.CatalogRepository
}

func NewCatalogService(catalog *repository.CatalogRepository) *CatalogService {
	return &CatalogService{catalog: catalog}
}

func (s *CatalogService) Create(ctx context.Context, p Principal, in *models.OfferedService) (*models.OfferedService, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	in.ID = 0
	in.ProviderID = p.ID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.catalog.Create(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return in, nil
}

func (s *CatalogService) Update(ctx context.Context, p Principal, id uint, in *models.OfferedService) (*models.OfferedService, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	existing, err := s.catalog.GetByID(id)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: offered service", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if existing.ProviderID != p.ID {
		return nil, fmt.Errorf("%w: offered service", domain.ErrNotFound)
	}
	in.ID = existing.ID
	in.ProviderID = existing.ProviderID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.catalog.Update(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return in, nil
}

func (s *CatalogService) Delete(ctx context.Context, p Principal, id uint) error {
	if !p.IsProvider() {
		return fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	existing, err := s.catalog.GetByID(id)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: offered service", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if existing.ProviderID != p.ID {
		return fmt.Errorf("%w: offered service", domain.ErrNotFound)
	}
	if err := s.catalog.Delete(id); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (s *CatalogService) ListMine(ctx context.Context, p Principal) ([]models.OfferedService, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	list, err := s.catalog.ListByProvider(p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// ListByProvider is the public view of one provider's listings.
func (s *CatalogService) ListByProvider(ctx context.Context, providerID uint) ([]models.OfferedService, error) {
	list, err := s.catalog.ListByProvider(providerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// Browse searches listings by name and category, unauthenticated.
func (s *CatalogService) Browse(ctx context.Context, name, category string, limit, offset int) ([]models.OfferedService, error) {
	list, err := s.catalog.Browse(name, category, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

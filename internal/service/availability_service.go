package service

import (
	"context"
	"fmt"

	"wyn/internal/domain"
	"wyn/internal/models"
	"wyn/internal/repository"
)

// AvailabilityService manages a provider's working schedule and
// unavailability periods.
type AvailabilityService struct {
	repo *repository.AvailabilityRepository
}

func NewAvailabilityService(repo *repository.AvailabilityRepository) *AvailabilityService {
	return &AvailabilityService{repo: repo}
}

// Get returns the schedule for a provider, creating nothing. A provider with
// no saved schedule gets an empty one.
func (s *AvailabilityService) Get(ctx context.Context, providerID uint) (*models.ProviderAvailability, error) {
	a, err := s.repo.GetByProvider(providerID)
	if err != nil {
		if notFound(err) {
			return &models.ProviderAvailability{ProviderID: providerID}, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return a, nil
}

// Save upserts the caller's standard schedule.
func (s *AvailabilityService) Save(ctx context.Context, p Principal, in *models.ProviderAvailability) (*models.ProviderAvailability, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	in.ProviderID = p.ID
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Upsert(in); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return s.Get(ctx, p.ID)
}

// AddPeriod appends an unavailable date range to the caller's schedule,
// creating the schedule row if it does not exist yet.
func (s *AvailabilityService) AddPeriod(ctx context.Context, p Principal, period *models.UnavailablePeriod) (*models.UnavailablePeriod, error) {
	if !p.IsProvider() {
		return nil, fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	if err := period.Validate(); err != nil {
		return nil, err
	}
	a, err := s.repo.GetByProvider(p.ID)
	if err != nil {
		if !notFound(err) {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
		a = &models.ProviderAvailability{ProviderID: p.ID}
		if err := s.repo.Upsert(a); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}
	}
	period.ID = 0
	period.AvailabilityID = a.ID
	if err := s.repo.AddPeriod(period); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return period, nil
}

// RemovePeriod deletes one of the caller's unavailable ranges.
func (s *AvailabilityService) RemovePeriod(ctx context.Context, p Principal, periodID uint) error {
	if !p.IsProvider() {
		return fmt.Errorf("%w: provider role required", domain.ErrForbidden)
	}
	period, err := s.repo.GetPeriod(periodID)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("%w: unavailable period", domain.ErrNotFound)
		}
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	a, err := s.repo.GetByProvider(p.ID)
	if err != nil || a.ID != period.AvailabilityID {
		return fmt.Errorf("%w: unavailable period", domain.ErrNotFound)
	}
	if err := s.repo.DeletePeriod(periodID); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

package repository

import (
	"gorm.io/gorm"

	"wyn/internal/models"
)

type AvailabilityRepository struct {
	db *gorm.DB
}

func NewAvailabilityRepository(db *gorm.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) GetByProvider(providerID uint) (*models.ProviderAvailability, error) {
	var a models.ProviderAvailability
	if err := r.db.Where("provider_id = ?", providerID).Preload("Periods").First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Upsert creates or replaces the provider's standard schedule.
func (r *AvailabilityRepository) Upsert(a *models.ProviderAvailability) error {
	var existing models.ProviderAvailability
	err := r.db.Where("provider_id = ?", a.ProviderID).First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return r.db.Create(a).Error
	}
	if err != nil {
		return err
	}
	a.ID = existing.ID
	return r.db.Save(a).Error
}

func (r *AvailabilityRepository) AddPeriod(p *models.UnavailablePeriod) error {
	return r.db.Create(p).Error
}

func (r *AvailabilityRepository) GetPeriod(id uint) (*models.UnavailablePeriod, error) {
	var p models.UnavailablePeriod
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *AvailabilityRepository) DeletePeriod(id uint) error {
	return r.db.Delete(&models.UnavailablePeriod{}, id).Error
}

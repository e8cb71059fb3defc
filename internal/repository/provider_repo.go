package repository

import (
	"gorm.io/gorm"

	"wyn/internal/domain"
	"wyn/internal/models"
)

type ProviderRepository struct {
	db *gorm.DB
}

func NewProviderRepository(db *gorm.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

func (r *ProviderRepository) Create(p *models.Provider) error {
	return r.db.Create(p).Error
}

func (r *ProviderRepository) GetByID(id uint) (*models.Provider, error) {
	var p models.Provider
	if err := r.db.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProviderRepository) GetByEmail(email string) (*models.Provider, error) {
	var p models.Provider
	if err := r.db.Where("email = ?", email).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProviderRepository) Update(p *models.Provider) error {
	return r.db.Save(p).Error
}

func (r *ProviderRepository) List(limit, offset int) ([]models.Provider, int64, error) {
	var list []models.Provider
	var total int64
	if err := r.db.Model(&models.Provider{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// Delete removes the account together with everything it owns: the requests
// assigned to the provider (with their dependents), the provider's catalog
// listings, its availability schedule and the notifications addressed to it.
func (r *ProviderRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var requestIDs []uint
		if err := tx.Model(&models.ServiceRequest{}).
			Where("provider_id = ?", id).Pluck("id", &requestIDs).Error; err != nil {
			return err
		}
		if err := deleteRequestTree(tx, requestIDs); err != nil {
			return err
		}
		if err := tx.Where("provider_id = ?", id).Delete(&models.OfferedService{}).Error; err != nil {
			return err
		}
		if err := tx.Where("availability_id IN (?)",
			tx.Model(&models.ProviderAvailability{}).Select("id").Where("provider_id = ?", id),
		).Delete(&models.UnavailablePeriod{}).Error; err != nil {
			return err
		}
		if err := tx.Where("provider_id = ?", id).Delete(&models.ProviderAvailability{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ? AND recipient_type = ?", id, domain.PrincipalProvider).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Provider{}, id).Error
	})
}

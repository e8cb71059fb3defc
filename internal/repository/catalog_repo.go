package repository

import (
	"gorm.io/gorm"

	"wyn/internal/models"
)

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) Create(s *models.OfferedService) error {
	return r.db.Create(s).Error
}

func (r *CatalogRepository) GetByID(id uint) (*models.OfferedService, error) {
	var s models.OfferedService
	if err := r.db.Preload("Provider").First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CatalogRepository) Update(s *models.OfferedService) error {
	return r.db.Save(s).Error
}

func (r *CatalogRepository) Delete(id uint) error {
	return r.db.Delete(&models.OfferedService{}, id).Error
}

func (r *CatalogRepository) ListByProvider(providerID uint) ([]models.OfferedService, error) {
	var list []models.OfferedService
	err := r.db.Where("provider_id = ?", providerID).Order("name ASC").Find(&list).Error
	return list, err
}

// Browse returns catalog listings filtered by name substring and category,
// newest first.
func (r *CatalogRepository) Browse(name, category string, limit, offset int) ([]models.OfferedService, error) {
	q := r.db.Preload("Provider").Order("created_at DESC").Limit(limit).Offset(offset)
	if name != "" {
		q = q.Where("name LIKE ?", "%"+name+"%")
	}
	if category != "" {
		q = q.Where("categories LIKE ?", "%"+category+"%")
	}
	var list []models.OfferedService
	err := q.Find(&list).Error
	return list, err
}

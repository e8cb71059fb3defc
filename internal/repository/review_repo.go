package repository

import (
	"gorm.io/gorm"

	"wyn/internal/models"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(rev *models.Review) error {
	return r.db.Create(rev).Error
}

func (r *ReviewRepository) GetByID(id uint) (*models.Review, error) {
	var rev models.Review
	if err := r.db.First(&rev, id).Error; err != nil {
		return nil, err
	}
	return &rev, nil
}

func (r *ReviewRepository) ExistsForRequest(requestID uint) (bool, error) {
	var c int64
	err := r.db.Model(&models.Review{}).Where("request_id = ?", requestID).Count(&c).Error
	return c > 0, err
}

func (r *ReviewRepository) ListByProvider(providerID uint, limit, offset int) ([]models.Review, error) {
	var list []models.Review
	err := r.db.Where("provider_id = ?", providerID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *ReviewRepository) AverageRatingByProvider(providerID uint) (float64, int64, error) {
	var row struct {
		Avg   float64
		Count int64
	}
	err := r.db.Model(&models.Review{}).
		Select("COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count").
		Where("provider_id = ?", providerID).
		Scan(&row).Error
	return row.Avg, row.Count, err
}

// AdminUpdate amends rating/comment through the override path.
func (r *ReviewRepository) AdminUpdate(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Review{}).Where("id = ?", id).Updates(updates).Error
}

func (r *ReviewRepository) ListAll(limit, offset int) ([]models.Review, int64, error) {
	var list []models.Review
	var total int64
	if err := r.db.Model(&models.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

func (r *ReviewRepository) Delete(id uint) error {
	return r.db.Delete(&models.Review{}, id).Error
}

// DeleteByRequest backs out a review when its status transition lost the race.
func (r *ReviewRepository) DeleteByRequest(requestID uint) error {
	return r.db.Where("request_id = ?", requestID).Delete(&models.Review{}).Error
}

package repository

import (
	"gorm.io/gorm"

	"wyn/internal/models"
)

// AdminRepository serves the admin dashboard aggregations.
type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

type DashboardCounts struct {
	Users     int64 `json:"users"`
	Providers int64 `json:"providers"`
	Requests  int64 `json:"requests"`
	Reviews   int64 `json:"reviews"`
}

func (r *AdminRepository) Counts() (*DashboardCounts, error) {
	var c DashboardCounts
	if err := r.db.Model(&models.User{}).Count(&c.Users).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Provider{}).Count(&c.Providers).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.ServiceRequest{}).Count(&c.Requests).Error; err != nil {
		return nil, err
	}
	if err := r.db.Model(&models.Review{}).Count(&c.Reviews).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *AdminRepository) RequestsByStatus() ([]StatusCount, error) {
	var rows []StatusCount
	err := r.db.Model(&models.ServiceRequest{}).
		Select("status, COUNT(*) AS count").
		Group("status").Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

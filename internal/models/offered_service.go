package models

import (
	"time"

	"github.com/shopspring/decimal"

	"wyn/internal/domain"
)

// OfferedService is a provider-authored catalog listing. Requests copy its
// name and description at creation time so later edits do not rewrite history.
type OfferedService struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	ProviderID  uint             `gorm:"not null;index" json:"provider_id"`
	Name        string           `gorm:"size:150;not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	PriceMin    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price_min"`
	PriceMax    *decimal.Decimal `gorm:"type:decimal(12,2)" json:"price_max"`
	Categories  string           `gorm:"size:512" json:"categories"` // comma-separated
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`

	Provider Provider `gorm:"foreignKey:ProviderID" json:"-"`
}

func (OfferedService) TableName() string {
	return "offered_services"
}

// Validate checks listing fields before create/update.
func (s *OfferedService) Validate() error {
	if s.Name == "" {
		return domain.Validationf("name is required")
	}
	if s.PriceMin != nil && s.PriceMin.IsNegative() {
		return domain.Validationf("price_min must not be negative")
	}
	if s.PriceMax != nil && s.PriceMax.IsNegative() {
		return domain.Validationf("price_max must not be negative")
	}
	if s.PriceMin != nil && s.PriceMax != nil && s.PriceMin.GreaterThan(*s.PriceMax) {
		return domain.Validationf("price_min must not exceed price_max")
	}
	return nil
}

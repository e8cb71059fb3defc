package models

import (
	"time"

	"wyn/internal/domain"
)

// Review is the single client rating for a completed request. The unique index
// on RequestID is the uniqueness invariant; a second insert is a conflict.
type Review struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  uint      `gorm:"uniqueIndex;not null" json:"request_id"`
	ClientID   uint      `gorm:"not null;index" json:"client_id"`
	ProviderID uint      `gorm:"not null;index" json:"provider_id"`
	Rating     int       `gorm:"not null" json:"rating"`
	Comment    string    `gorm:"type:text" json:"comment"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return domain.Validationf("rating must be between 1 and 5")
	}
	return nil
}

package models

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"wyn/internal/domain"
)

// ServiceRequest is the central workflow entity. Status only moves along the
// declared transition edges; AgreedValue is nil until the provider accepts.
type ServiceRequest struct {
	ID                 uint             `gorm:"primaryKey" json:"id"`
	ClientID           uint             `gorm:"not null;index" json:"client_id"`
	ProviderID         uint             `gorm:"not null;index" json:"provider_id"`
	OfferedServiceID   uint             `gorm:"not null;index" json:"offered_service_id"`
	ServiceName        string           `gorm:"size:150;not null" json:"service_name"`
	ServiceDescription string           `gorm:"type:text" json:"service_description"`
	AgreedValue        *decimal.Decimal `gorm:"type:decimal(12,2)" json:"agreed_value"`
	Address            string           `gorm:"size:512;not null" json:"address"`
	Notes              string           `gorm:"type:text" json:"notes"`
	Urgent             bool             `gorm:"not null" json:"urgent"`
	PreferredDate      *time.Time       `json:"preferred_date"`
	PreferredTime      *string          `gorm:"size:5" json:"preferred_time"` // HH:MM
	Status             string           `gorm:"size:40;not null;index" json:"status"`
	PaymentReference   string           `gorm:"size:128;index" json:"-"`    // external reference, kept for audit
	PaymentLink        string           `gorm:"size:1024" json:"payment_link,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	AcceptedAt         *time.Time       `json:"accepted_at"`
	CompletedAt        *time.Time       `json:"completed_at"`
	UpdatedAt          time.Time        `json:"updated_at"`

	Client   User           `gorm:"foreignKey:ClientID" json:"-"`
	Provider Provider       `gorm:"foreignKey:ProviderID" json:"-"`
	Listing  OfferedService `gorm:"foreignKey:OfferedServiceID" json:"-"`
}

func (ServiceRequest) TableName() string {
	return "service_requests"
}

func (r *ServiceRequest) IsParticipant(principalType string, principalID uint) bool {
	switch principalType {
	case domain.PrincipalClient:
		return r.ClientID == principalID
	case domain.PrincipalProvider:
		return r.ProviderID == principalID
	}
	return false
}

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTimeOfDay reports whether s is a valid HH:MM wall-clock time.
func ValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}

// ValidateSchedule enforces the both-or-neither invariant on the preferred
// date/time pair and the HH:MM format.
func ValidateSchedule(date *time.Time, tod *string) error {
	if (date == nil) != (tod == nil) {
		return domain.Validationf("preferred_date and preferred_time must be given together")
	}
	if tod != nil && !ValidTimeOfDay(*tod) {
		return domain.Validationf("preferred_time must be HH:MM")
	}
	return nil
}

// CompletionProof records one uploaded evidence file for a completed request.
type CompletionProof struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	RequestID    uint      `gorm:"not null;index" json:"request_id"`
	FileURL      string    `gorm:"size:1024;not null" json:"file_url"`
	OriginalName string    `gorm:"size:255" json:"original_name"`
	UploadedAt   time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (CompletionProof) TableName() string {
	return "completion_proofs"
}

package models

import (
	"time"

	"wyn/internal/domain"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// ProviderAvailability holds a provider's standard working schedule.
type ProviderAvailability struct {
	ID                     uint      `gorm:"primaryKey" json:"id"`
	ProviderID             uint      `gorm:"uniqueIndex;not null" json:"provider_id"`
	StandardStart          string    `gorm:"size:5" json:"standard_start"` // HH:MM
	StandardEnd            string    `gorm:"size:5" json:"standard_end"`   // HH:MM
	AvailableDays          string    `gorm:"size:128" json:"available_days"` // comma-separated weekday names
	TemporarilyUnavailable bool      `gorm:"default:false" json:"temporarily_unavailable"`
	UpdatedAt              time.Time `json:"updated_at"`

	Periods []UnavailablePeriod `gorm:"foreignKey:AvailabilityID" json:"unavailable_periods,omitempty"`
}

func (ProviderAvailability) TableName() string {
	return "provider_availabilities"
}

func (a *ProviderAvailability) Validate() error {
	if a.StandardStart != "" && !ValidTimeOfDay(a.StandardStart) {
		return domain.Validationf("standard_start must be HH:MM")
	}
	if a.StandardEnd != "" && !ValidTimeOfDay(a.StandardEnd) {
		return domain.Validationf("standard_end must be HH:MM")
	}
	for _, d := range SplitList(a.AvailableDays) {
		if !weekdays[d] {
			return domain.Validationf("unknown weekday %q", d)
		}
	}
	return nil
}

// UnavailablePeriod is one specific date range a provider is unavailable.
type UnavailablePeriod struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	AvailabilityID uint      `gorm:"not null;index" json:"-"`
	StartDate      time.Time `gorm:"not null" json:"start_date"`
	EndDate        time.Time `gorm:"not null" json:"end_date"`
}

func (UnavailablePeriod) TableName() string {
	return "unavailable_periods"
}

func (p *UnavailablePeriod) Validate() error {
	if p.EndDate.Before(p.StartDate) {
		return domain.Validationf("end_date must not precede start_date")
	}
	return nil
}

package models

import (
	"time"
)

// User is a client account. Admins are users with IsAdmin set; the flag is
// re-read from this table for destructive operations rather than trusted from
// the token alone.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Phone        string    `gorm:"size:32" json:"phone"`
	PhotoURL     string    `gorm:"size:512" json:"photo_url"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Provider is a service-provider account. Providers and clients live in
// separate tables because they are distinct principal types with no shared
// credentials.
type Provider struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:120;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Phone        string    `gorm:"size:32" json:"phone"`
	PhotoURL     string    `gorm:"size:512" json:"photo_url"`
	Specialties  string    `gorm:"size:512" json:"specialties"` // comma-separated
	ServiceArea  string    `gorm:"size:255" json:"service_area"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Provider) TableName() string {
	return "providers"
}

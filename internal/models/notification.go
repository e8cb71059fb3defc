package models

import (
	"time"
)

// Notification is one append-only event log entry for a recipient. The only
// permitted mutation after creation is flipping Read, and only by the
// recipient; rows go away only when their referenced request is deleted.
type Notification struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	RecipientID   uint      `gorm:"not null;index:idx_recipient" json:"recipient_id"`
	RecipientType string    `gorm:"size:10;not null;index:idx_recipient" json:"recipient_type"` // client | provider
	Type          string    `gorm:"size:50;not null" json:"type"`
	Summary       string    `gorm:"size:255;not null" json:"summary"`
	Body          string    `gorm:"type:text" json:"body"`
	RequestID     *uint     `gorm:"index" json:"request_id,omitempty"`
	Read          bool      `gorm:"default:false" json:"read"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

package models

import (
	"time"
)

// ChatMessage is one message in a request's thread. Sender identity is a
// tagged pair (type, id) since clients and providers live in separate tables.
type ChatMessage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	RequestID  uint      `gorm:"not null;index" json:"request_id"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	SenderType string    `gorm:"size:10;not null" json:"sender_type"` // client | provider
	SenderName string    `gorm:"size:120" json:"sender_name"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	SentAt     time.Time `gorm:"autoCreateTime;index" json:"sent_at"`

	Reads []MessageRead `gorm:"foreignKey:MessageID" json:"reads,omitempty"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// MessageRead marks a message as read by one participant. Rows are only ever
// inserted; the read set grows monotonically.
type MessageRead struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	MessageID  uint      `gorm:"not null;uniqueIndex:idx_message_reader" json:"message_id"`
	ReaderID   uint      `gorm:"not null;uniqueIndex:idx_message_reader" json:"reader_id"`
	ReaderType string    `gorm:"size:10;not null;uniqueIndex:idx_message_reader" json:"reader_type"`
	ReadAt     time.Time `gorm:"autoCreateTime" json:"read_at"`
}

func (MessageRead) TableName() string {
	return "message_reads"
}

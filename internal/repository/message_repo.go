package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"wyn/internal/models"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.ChatMessage) error {
	return r.db.Create(m).Error
}

func (r *MessageRepository) ListByRequest(requestID uint) ([]models.ChatMessage, error) {
	var list []models.ChatMessage
	err := r.db.Where("request_id = ?", requestID).
		Preload("Reads").Order("sent_at ASC").Find(&list).Error
	return list, err
}

// MarkRead inserts read rows for the given messages, ignoring duplicates so
// the read set only ever grows.
func (r *MessageRepository) MarkRead(messageIDs []uint, readerID uint, readerType string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	rows := make([]models.MessageRead, 0, len(messageIDs))
	for _, id := range messageIDs {
		rows = append(rows, models.MessageRead{MessageID: id, ReaderID: readerID, ReaderType: readerType})
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// CountUnread counts messages across all threads that were not sent by the
// reader and have no read row from them.
func (r *MessageRepository) CountUnread(readerID uint, readerType string, requestIDs []uint) (int64, error) {
	if len(requestIDs) == 0 {
		return 0, nil
	}
	var c int64
	err := r.db.Model(&models.ChatMessage{}).
		Where("request_id IN ?", requestIDs).
		Where("NOT (sender_id = ? AND sender_type = ?)", readerID, readerType).
		Where("id NOT IN (?)",
			r.db.Model(&models.MessageRead{}).Select("message_id").
				Where("reader_id = ? AND reader_type = ?", readerID, readerType),
		).
		Count(&c).Error
	return c, err
}

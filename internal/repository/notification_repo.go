package repository

import (
	"gorm.io/gorm"

	"wyn/internal/models"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(n *models.Notification) error {
	return r.db.Create(n).Error
}

func (r *NotificationRepository) ListByRecipient(recipientID uint, recipientType string, limit, offset int) ([]models.Notification, error) {
	var list []models.Notification
	err := r.db.Where("recipient_id = ? AND recipient_type = ?", recipientID, recipientType).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

// MarkRead flips the read flag; keyed by recipient so nobody can flip another
// recipient's entry. Returns whether a row changed.
func (r *NotificationRepository) MarkRead(id, recipientID uint, recipientType string) (bool, error) {
	res := r.db.Model(&models.Notification{}).
		Where("id = ? AND recipient_id = ? AND recipient_type = ?", id, recipientID, recipientType).
		Update("read", true)
	return res.RowsAffected > 0, res.Error
}

func (r *NotificationRepository) CountUnread(recipientID uint, recipientType string) (int64, error) {
	var c int64
	err := r.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND recipient_type = ? AND `read` = ?", recipientID, recipientType, false).
		Count(&c).Error
	return c, err
}

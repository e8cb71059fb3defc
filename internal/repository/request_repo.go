package repository

import (
	"gorm.io/gorm"

	"wyn/internal/domain"
	"wyn/internal/models"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(req *models.ServiceRequest) error {
	return r.db.Create(req).Error
}

func (r *RequestRepository) GetByID(id uint) (*models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := r.db.First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// UpdateStatusIf applies updates to the request only while its status is one
// of fromStatuses. The conditional WHERE makes the transition a single atomic
// compare-and-swap; the boolean reports whether this caller won the write.
func (r *RequestRepository) UpdateStatusIf(id uint, fromStatuses []string, updates map[string]interface{}) (bool, error) {
	res := r.db.Model(&models.ServiceRequest{}).
		Where("id = ? AND status IN ?", id, fromStatuses).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// AdminUpdate applies an override patch without a status guard.
func (r *RequestRepository) AdminUpdate(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.ServiceRequest{}).Where("id = ?", id).Updates(updates).Error
}

func (r *RequestRepository) ListByClient(clientID uint, limit, offset int) ([]models.ServiceRequest, error) {
	var list []models.ServiceRequest
	err := r.db.Where("client_id = ?", clientID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *RequestRepository) ListByProviderAndStatus(providerID uint, statuses []string, limit, offset int) ([]models.ServiceRequest, error) {
	var list []models.ServiceRequest
	err := r.db.Where("provider_id = ? AND status IN ?", providerID, statuses).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *RequestRepository) ListAll(limit, offset int) ([]models.ServiceRequest, int64, error) {
	var list []models.ServiceRequest
	var total int64
	if err := r.db.Model(&models.ServiceRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// ListByClientAndStatus supports the pending-review view.
func (r *RequestRepository) ListByClientAndStatus(clientID uint, statuses []string, limit, offset int) ([]models.ServiceRequest, error) {
	var list []models.ServiceRequest
	err := r.db.Where("client_id = ? AND status IN ?", clientID, statuses).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, err
}

func (r *RequestRepository) CountByClient(clientID uint) (int64, error) {
	var c int64
	err := r.db.Model(&models.ServiceRequest{}).Where("client_id = ?", clientID).Count(&c).Error
	return c, err
}

func (r *RequestRepository) CountByProviderAndStatus(providerID uint, statuses []string) (int64, error) {
	var c int64
	err := r.db.Model(&models.ServiceRequest{}).
		Where("provider_id = ? AND status IN ?", providerID, statuses).Count(&c).Error
	return c, err
}

// ListIDsByParticipant returns the IDs of every request the principal is a
// party to, for scoping cross-request aggregates.
func (r *RequestRepository) ListIDsByParticipant(principalID uint, principalType string) ([]uint, error) {
	var ids []uint
	q := r.db.Model(&models.ServiceRequest{})
	if principalType == domain.PrincipalProvider {
		q = q.Where("provider_id = ?", principalID)
	} else {
		q = q.Where("client_id = ?", principalID)
	}
	err := q.Pluck("id", &ids).Error
	return ids, err
}

// Delete removes the request and everything referencing it in one
// transaction: reviews, completion proofs, chat messages with their read
// rows, and notifications back-referencing the request.
func (r *RequestRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return deleteRequestTree(tx, []uint{id})
	})
}

// deleteRequestTree removes requests and every row referencing them. Children
// go first so the FK constraints AutoMigrate creates are never violated.
func deleteRequestTree(tx *gorm.DB, requestIDs []uint) error {
	if len(requestIDs) == 0 {
		return nil
	}
	if err := tx.Where("request_id IN ?", requestIDs).Delete(&models.Review{}).Error; err != nil {
		return err
	}
	if err := tx.Where("request_id IN ?", requestIDs).Delete(&models.CompletionProof{}).Error; err != nil {
		return err
	}
	if err := tx.Where("message_id IN (?)",
		tx.Model(&models.ChatMessage{}).Select("id").Where("request_id IN ?", requestIDs),
	).Delete(&models.MessageRead{}).Error; err != nil {
		return err
	}
	if err := tx.Where("request_id IN ?", requestIDs).Delete(&models.ChatMessage{}).Error; err != nil {
		return err
	}
	if err := tx.Where("request_id IN ?", requestIDs).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", requestIDs).Delete(&models.ServiceRequest{}).Error
}

// Completion proofs

func (r *RequestRepository) CreateProof(p *models.CompletionProof) error {
	return r.db.Create(p).Error
}

func (r *RequestRepository) ListProofs(requestID uint) ([]models.CompletionProof, error) {
	var list []models.CompletionProof
	err := r.db.Where("request_id = ?", requestID).Order("uploaded_at ASC").Find(&list).Error
	return list, err
}

// MonthlyEarnings aggregates agreed values of completed or reviewed requests
// per month for the provider's profit chart.
type MonthlyEarnings struct {
	Month string `json:"month"` // YYYY-MM
	Total string `json:"total"`
}

func (r *RequestRepository) EarningsByMonth(providerID uint, statuses []string) ([]MonthlyEarnings, error) {
	var rows []MonthlyEarnings
	err := r.db.Model(&models.ServiceRequest{}).
		Select("DATE_FORMAT(completed_at, '%Y-%m') AS month, CAST(COALESCE(SUM(agreed_value), 0) AS CHAR) AS total").
		Where("provider_id = ? AND status IN ? AND completed_at IS NOT NULL", providerID, statuses).
		Group("month").Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

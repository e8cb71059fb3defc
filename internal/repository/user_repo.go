package repository

import (
	"gorm.io/gorm"

	"wyn/internal/domain"
	"wyn/internal/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) Update(u *models.User) error {
	return r.db.Save(u).Error
}

// IsAdmin re-reads the admin flag from storage. Destructive paths call this
// instead of trusting the token claim, so revocation takes effect immediately.
func (r *UserRepository) IsAdmin(id uint) (bool, error) {
	var u models.User
	if err := r.db.Select("is_admin").First(&u, id).Error; err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

func (r *UserRepository) List(limit, offset int) ([]models.User, int64, error) {
	var list []models.User
	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&list).Error
	return list, total, err
}

// Delete removes the account together with everything it owns: the client's
// requests (with their reviews, proofs, messages and notifications) and the
// notifications addressed to the client.
func (r *UserRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var requestIDs []uint
		if err := tx.Model(&models.ServiceRequest{}).
			Where("client_id = ?", id).Pluck("id", &requestIDs).Error; err != nil {
			return err
		}
		if err := deleteRequestTree(tx, requestIDs); err != nil {
			return err
		}
		if err := tx.Where("recipient_id = ? AND recipient_type = ?", id, domain.PrincipalClient).
			Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
}

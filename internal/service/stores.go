package service

import (
	"wyn/internal/models"
	"wyn/internal/repository"
)

// Storage interfaces consumed by the services. The gorm repositories satisfy
// them; tests substitute in-memory fakes.

type RequestStore interface {
	Create(req *models.ServiceRequest) error
	GetByID(id uint) (*models.ServiceRequest, error)
	UpdateStatusIf(id uint, fromStatuses []string, updates map[string]interface{}) (bool, error)
	AdminUpdate(id uint, updates map[string]interface{}) error
	Delete(id uint) error
	CreateProof(p *models.CompletionProof) error
	ListProofs(requestID uint) ([]models.CompletionProof, error)
}

type ReviewStore interface {
	Create(rev *models.Review) error
	ExistsForRequest(requestID uint) (bool, error)
	DeleteByRequest(requestID uint) error
}

type NotificationStore interface {
	Create(n *models.Notification) error
	ListByRecipient(recipientID uint, recipientType string, limit, offset int) ([]models.Notification, error)
	MarkRead(id, recipientID uint, recipientType string) (bool, error)
	CountUnread(recipientID uint, recipientType string) (int64, error)
}

type CatalogStore interface {
	GetByID(id uint) (*models.OfferedService, error)
}

type UserStore interface {
	GetByID(id uint) (*models.User, error)
	IsAdmin(id uint) (bool, error)
}

type ProviderStore interface {
	GetByID(id uint) (*models.Provider, error)
}

type MessageStore interface {
	Create(m *models.ChatMessage) error
	ListByRequest(requestID uint) ([]models.ChatMessage, error)
	MarkRead(messageIDs []uint, readerID uint, readerType string) error
}

// Interface checks against the concrete repositories.
var (
	_ RequestStore      = (*repository.RequestRepository)(nil)
	_ ReviewStore       = (*repository.ReviewRepository)(nil)
	_ NotificationStore = (*repository.NotificationRepository)(nil)
	_ CatalogStore      = (*repository.CatalogRepository)(nil)
	_ UserStore         = (*repository.UserRepository)(nil)
	_ ProviderStore     = (*repository.ProviderRepository)(nil)
	_ MessageStore      = (*repository.MessageRepository)(nil)
)

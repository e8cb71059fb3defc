package service

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"wyn/internal/domain"
	"wyn/internal/models"
)

// NotificationService is the single producer for the notification log. The
// workflow engine and the chat path call its helpers; nothing else writes
// notifications.
type NotificationService struct {
	store NotificationStore
}

func NewNotificationService(store NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

func (s *NotificationService) Notify(recipientID uint, recipientType, notifType, summary, body string, requestID *uint) error {
	err := s.store.Create(&models.Notification{
		RecipientID:   recipientID,
		RecipientType: recipientType,
		Type:          notifType,
		Summary:       summary,
		Body:          body,
		RequestID:     requestID,
	})
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"recipient_id":   recipientID,
			"recipient_type": recipientType,
			"type":           notifType,
		}).Error("notification write failed")
	}
	return err
}

// List returns the principal's inbox, newest first.
func (s *NotificationService) List(p Principal, limit, offset int) ([]models.Notification, error) {
	list, err := s.store.ListByRecipient(p.ID, p.Type, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return list, nil
}

// MarkRead flags one of the principal's own notifications as read. Marking a
// foreign notification reports not found.
func (s *NotificationService) MarkRead(p Principal, notificationID uint) error {
	ok, err := s.store.MarkRead(notificationID, p.ID, p.Type)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if !ok {
		return fmt.Errorf("%w: notification", domain.ErrNotFound)
	}
	return nil
}

func (s *NotificationService) CountUnread(p Principal) (int64, error) {
	n, err := s.store.CountUnread(p.ID, p.Type)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return n, nil
}

func (s *NotificationService) NotifyNewRequest(providerID, requestID uint, clientName, serviceName string) error {
	return s.Notify(providerID, domain.PrincipalProvider, domain.NotifNewRequest,
		fmt.Sprintf("New request for %s", serviceName),
		fmt.Sprintf("%s requested your %s service. Accept or decline it.", clientName, serviceName),
		&requestID)
}

func (s *NotificationService) NotifyAccepted(clientID, requestID uint, serviceName string, value decimal.Decimal) error {
	return s.Notify(clientID, domain.PrincipalClient, domain.NotifAccepted,
		fmt.Sprintf("Your %s request was accepted", serviceName),
		fmt.Sprintf("The provider accepted your %s request for %s. Complete the payment to proceed.",
			serviceName, value.StringFixed(2)),
		&requestID)
}

func (s *NotificationService) NotifyRejected(clientID, requestID uint, serviceName string) error {
	return s.Notify(clientID, domain.PrincipalClient, domain.NotifRejected,
		fmt.Sprintf("Your %s request was declined", serviceName),
		"", &requestID)
}

func (s *NotificationService) NotifyPaymentReceived(providerID, requestID uint, serviceName string, value decimal.Decimal) error {
	return s.Notify(providerID, domain.PrincipalProvider, domain.NotifPaymentReceived,
		fmt.Sprintf("Payment received for %s", serviceName),
		fmt.Sprintf("The %s payment for the %s service was approved.", value.StringFixed(2), serviceName),
		&requestID)
}

func (s *NotificationService) NotifyCompleted(clientID, requestID uint, serviceName string) error {
	return s.Notify(clientID, domain.PrincipalClient, domain.NotifCompleted,
		fmt.Sprintf("Your %s service was completed", serviceName),
		"Review the work and rate the provider.", &requestID)
}

func (s *NotificationService) NotifyNewReview(providerID, requestID uint, serviceName string, rating int) error {
	return s.Notify(providerID, domain.PrincipalProvider, domain.NotifNewReview,
		fmt.Sprintf("New review for %s", serviceName),
		fmt.Sprintf("A client rated the %s service %d/5.", serviceName, rating),
		&requestID)
}

func (s *NotificationService) NotifyNewMessage(recipientID uint, recipientType string, requestID uint, senderName, preview string) error {
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return s.Notify(recipientID, recipientType, domain.NotifNewMessage,
		fmt.Sprintf("New message from %s", senderName),
		preview, &requestID)
}

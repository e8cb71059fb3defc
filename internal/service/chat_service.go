package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"wyn/internal/domain"
	"wyn/internal/models"
)

// Broadcaster pushes a persisted message to connected room subscribers. The
// websocket hub implements it; a nil broadcaster disables live push.
type Broadcaster interface {
	Publish(requestID uint, msg *models.ChatMessage)
}

// ChatService handles per-request conversations. Both gates go through the
// request guard so only the two parties (or an admin) can read or write.
type ChatService struct {
	messages  MessageStore
	requests  RequestStore
	users     UserStore
	providers ProviderStore
	notif     *NotificationService
	guard     *Guard
	hub       Broadcaster
}

func NewChatService(messages MessageStore, requests RequestStore, users UserStore, providers ProviderStore, notif *NotificationService, guard *Guard, hub Broadcaster) *ChatService {
	return &ChatService{
		messages:  messages,
		requests:  requests,
		users:     users,
		providers: providers,
		notif:     notif,
		guard:     guard,
		hub:       hub,
	}
}

func (s *ChatService) senderName(p Principal) string {
	if p.IsProvider() {
		if pr, err := s.providers.GetByID(p.ID); err == nil {
			return pr.Name
		}
	} else {
		if u, err := s.users.GetByID(p.ID); err == nil {
			return u.Name
		}
	}
	return p.Email
}

// SendMessage persists a message in the request's conversation, marks it read
// by its own sender, notifies the other party and pushes it to the room.
func (s *ChatService) SendMessage(ctx context.Context, p Principal, requestID uint, content string) (*models.ChatMessage, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.Validationf("message content is required")
	}
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: request", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.guard.RequireParticipant(req, p); err != nil {
		return nil, err
	}

	msg := &models.ChatMessage{
		RequestID:  req.ID,
		SenderID:   p.ID,
		SenderType: p.Type,
		SenderName: s.senderName(p),
		Content:    content,
	}
	if err := s.messages.Create(msg); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.messages.MarkRead([]uint{msg.ID}, p.ID, p.Type); err != nil {
		logrus.WithError(err).WithField("message_id", msg.ID).Error("mark own message read")
	}

	recipientID, recipientType := req.ClientID, domain.PrincipalClient
	if p.IsClient() {
		recipientID, recipientType = req.ProviderID, domain.PrincipalProvider
	}
	_ = s.notif.NotifyNewMessage(recipientID, recipientType, req.ID, msg.SenderName, content)

	if s.hub != nil {
		s.hub.Publish(req.ID, msg)
	}
	return msg, nil
}

// ListMessages returns the conversation oldest-first and opportunistically
// marks everything from the other party as read by the caller.
func (s *ChatService) ListMessages(ctx context.Context, p Principal, requestID uint) ([]models.ChatMessage, error) {
	req, err := s.requests.GetByID(requestID)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: request", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	if err := s.guard.RequireParticipant(req, p); err != nil {
		return nil, err
	}
	msgs, err := s.messages.ListByRequest(req.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	var unreadIDs []uint
	for i := range msgs {
		m := &msgs[i]
		if m.SenderID == p.ID && m.SenderType == p.Type {
			continue
		}
		read := false
		for _, r := range m.Reads {
			if r.ReaderID == p.ID && r.ReaderType == p.Type {
				read = true
				break
			}
		}
		if !read {
			unreadIDs = append(unreadIDs, m.ID)
		}
	}
	if len(unreadIDs) > 0 {
		if err := s.messages.MarkRead(unreadIDs, p.ID, p.Type); err != nil {
			logrus.WithError(err).WithField("request_id", req.ID).Error("mark conversation read")
		}
	}
	return msgs, nil
}

package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyn/internal/domain"
	"wyn/internal/models"
)

type recordingHub struct {
	mu        sync.Mutex
	published []uint
}

func (h *recordingHub) Publish(requestID uint, msg *models.ChatMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.published = append(h.published, requestID)
}

type chatFixture struct {
	svc      *ChatService
	requests *fakeRequestStore
	messages *fakeMessageStore
	notifs   *fakeNotificationStore
	hub      *recordingHub
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()
	f := &chatFixture{
		requests: newFakeRequestStore(),
		messages: newFakeMessageStore(),
		notifs:   newFakeNotificationStore(),
		hub:      &recordingHub{},
	}
	users := newFakeUserStore()
	users.add(models.User{ID: 1, Name: "Ana"})
	providers := newFakeProviderStore()
	providers.add(models.Provider{ID: 2, Name: "Bruno"})

	require.NoError(t, f.requests.Create(&models.ServiceRequest{
		ClientID: 1, ProviderID: 2, Status: domain.StatusProviderAccepted,
	}))

	guard := NewGuard(users)
	f.svc = NewChatService(f.messages, f.requests, users, providers, NewNotificationService(f.notifs), guard, f.hub)
	return f
}

func TestSendMessage(t *testing.T) {
	f := newChatFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), client, 1, "hello")
	require.NoError(t, err)
	assert.Equal(t, "Ana", msg.SenderName)
	assert.Equal(t, domain.PrincipalClient, msg.SenderType)

	// the other party is notified and the room sees the push
	notifs := f.notifs.ofType(domain.NotifNewMessage)
	require.Len(t, notifs, 1)
	assert.Equal(t, uint(2), notifs[0].RecipientID)
	assert.Equal(t, domain.PrincipalProvider, notifs[0].RecipientType)
	assert.Equal(t, []uint{1}, f.hub.published)
}

func TestSendMessageGating(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), stranger, 1, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.svc.SendMessage(context.Background(), client, 1, "   ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.svc.SendMessage(context.Background(), client, 404, "hi")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSendMessageMarksOwnRead(t *testing.T) {
	f := newChatFixture(t)

	msg, err := f.svc.SendMessage(context.Background(), client, 1, "hello")
	require.NoError(t, err)

	list, err := f.svc.ListMessages(context.Background(), client, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Len(t, list[0].Reads, 1)
	assert.Equal(t, msg.SenderID, list[0].Reads[0].ReaderID)
}

func TestListMessagesMarksRead(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.svc.SendMessage(context.Background(), client, 1, "first")
	require.NoError(t, err)
	_, err = f.svc.SendMessage(context.Background(), client, 1, "second")
	require.NoError(t, err)

	// provider reads the thread; both messages gain a provider read row
	_, err = f.svc.ListMessages(context.Background(), provider, 1)
	require.NoError(t, err)

	list, err := f.svc.ListMessages(context.Background(), client, 1)
	require.NoError(t, err)
	for _, m := range list {
		readers := make(map[string]bool)
		for _, r := range m.Reads {
			readers[r.ReaderType] = true
		}
		assert.True(t, readers[domain.PrincipalClient])
		assert.True(t, readers[domain.PrincipalProvider])
	}
}

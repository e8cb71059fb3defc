package ws

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wyn/internal/models"
)

func newTestClient(id uint, principalType string) *Client {
	return &Client{PrincipalID: id, PrincipalType: principalType, Send: make(chan []byte, 4)}
}

func TestRoomJoinLeave(t *testing.T) {
	room := newRoom(1)
	a := newTestClient(1, "client")
	b := newTestClient(2, "provider")

	room.Join(a)
	room.Join(b)
	assert.Equal(t, 2, room.ClientCount())

	room.Leave(a)
	assert.Equal(t, 1, room.ClientCount())
}

func TestBroadcastSkipsSender(t *testing.T) {
	room := newRoom(1)
	sender := newTestClient(1, "client")
	peer := newTestClient(2, "provider")
	room.Join(sender)
	room.Join(peer)

	room.Broadcast(sender, map[string]interface{}{"type": "message"})

	select {
	case <-peer.Send:
	default:
		t.Fatal("peer received nothing")
	}
	select {
	case <-sender.Send:
		t.Fatal("sender received its own broadcast")
	default:
	}
}

func TestBroadcastSkipsSaturatedClient(t *testing.T) {
	room := newRoom(1)
	slow := &Client{PrincipalID: 2, PrincipalType: "provider", Send: make(chan []byte)}
	room.Join(slow)

	// unbuffered channel with no reader must not block the broadcast
	room.Broadcast(nil, map[string]interface{}{"type": "message"})
	assert.Equal(t, 1, room.ClientCount())
}

func TestBroadcastDuringDisconnect(t *testing.T) {
	// A client leaving and closing while a broadcast is in flight must never
	// hit its closed channel.
	room := newRoom(1)
	for i := 0; i < 5000; i++ {
		c := newTestClient(2, "provider")
		room.Join(c)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			room.Broadcast(nil, map[string]interface{}{"type": "message"})
		}()
		go func() {
			defer wg.Done()
			room.Leave(c)
			c.Close()
		}()
		wg.Wait()
	}
}

func TestClientCloseIdempotent(t *testing.T) {
	c := newTestClient(1, "client")
	c.Close()
	c.Close()
	assert.False(t, c.trySend([]byte("x")))
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()

	// no room yet: publish is a no-op
	hub.Publish(9, &models.ChatMessage{RequestID: 9, Content: "hi"})

	room := hub.GetOrCreateRoom(9)
	c := newTestClient(1, "client")
	room.Join(c)

	hub.Publish(9, &models.ChatMessage{ID: 3, RequestID: 9, SenderID: 2, SenderType: "provider", Content: "hi"})

	select {
	case data := <-c.Send:
		require.NotEmpty(t, data)
	default:
		t.Fatal("connected client received nothing")
	}

	assert.Same(t, room, hub.GetOrCreateRoom(9))
	hub.RemoveRoom(9)
	assert.Nil(t, hub.GetRoom(9))
}

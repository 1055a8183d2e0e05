package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/goroutine"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func testClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{hub: hub, userID: userID, send: make(chan []byte, 4)}
}

func receive(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg map[string]any
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
		return nil
	}
}

func TestHub_BroadcastToUser(t *testing.T) {
	hub := startHub(t)
	owner := uuid.New()
	stranger := uuid.New()

	first := testClient(hub, owner)
	second := testClient(hub, owner)
	other := testClient(hub, stranger)
	hub.Register(first)
	hub.Register(second)
	hub.Register(other)

	require.Eventually(t, func() bool { return hub.ConnectedClients(owner) == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.BroadcastToUser(context.Background(), owner, "listing.activated", map[string]string{"id": "42"}))

	for _, c := range []*Client{first, second} {
		msg := receive(t, c)
		assert.Equal(t, "listing.activated", msg["type"])
		assert.Equal(t, map[string]any{"id": "42"}, msg["data"])
	}
	assert.Empty(t, other.send)
}

func TestHub_Unregister(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	c := testClient(hub, userID)

	hub.Register(c)
	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.ConnectedClients(userID) == 0 }, time.Second, 5*time.Millisecond)
	_, open := <-c.send
	assert.False(t, open)
}

func TestHub_StoppedHubRejectsBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	go hub.Run(ctx)
	cancel()
	<-hub.done

	// Register после остановки не блокируется.
	hub.Register(testClient(hub, uuid.New()))

	// broadcast буферизован, поэтому заполняем его, чтобы увидеть остановку.
	var err error
	for i := 0; i < cap(hub.broadcast)+1 && err == nil; i++ {
		err = hub.BroadcastToUser(context.Background(), uuid.New(), "payment.failed", nil)
	}
	assert.Error(t, err)
}

func TestHubNotifier_DeliversInBackground(t *testing.T) {
	logger.Silence()
	hub := startHub(t)
	userID := uuid.New()
	c := testClient(hub, userID)
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.ConnectedClients(userID) == 1 }, time.Second, 5*time.Millisecond)

	runner := goroutine.NewRunner(logger.Log)
	NewHubNotifier(hub, runner).Notify(context.Background(), userID, "contact.unlocked", map[string]int{"n": 1})
	runner.Wait()

	msg := receive(t, c)
	assert.Equal(t, "contact.unlocked", msg["type"])
}

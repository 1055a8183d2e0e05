package ws

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/goroutine"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
)

// HubNotifier доставляет доменные события через хаб в фоне, не блокируя запрос.
type HubNotifier struct {
	hub    *Hub
	runner *goroutine.Runner
}

func NewHubNotifier(hub *Hub, runner *goroutine.Runner) *HubNotifier {
	return &HubNotifier{hub: hub, runner: runner}
}

func (n *HubNotifier) Notify(ctx context.Context, userID uuid.UUID, event string, data interface{}) {
	n.runner.GoWithContext(ctx, func(ctx context.Context) {
		if err := n.hub.BroadcastToUser(ctx, userID, event, data); err != nil {
			logger.Log.WithFields(logrus.Fields{"user_id": userID, "event": event}).WithError(err).
				Warn("ws: уведомление не доставлено")
		}
	})
}

package repository

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
)

// PaymentGateway открывает страницу оплаты у внешнего провайдера.
type PaymentGateway interface {
	CreateCheckout(ctx context.Context, payment *entity.Payment) (string, error)
}

// Notifier доставляет события пользователю. Ошибки доставки не влияют на бизнес-операцию.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, event string, data interface{})
}

// MediaStorage хранит файлы объявлений.
type MediaStorage interface {
	Save(ctx context.Context, listingID uuid.UUID, filename, contentType string, r io.Reader) (entity.MediaRef, error)
	Delete(ctx context.Context, key string) error
}

// Deduplicator отмечает уже обработанные внешние события.
type Deduplicator interface {
	// FirstSeen возвращает true, если ключ встречается впервые.
	FirstSeen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

const (
	EventListingCreated         = "listing.created"
	EventListingPaymentRequired = "listing.payment_required"
	EventListingUpdated         = "listing.updated"
	EventListingTransferred     = "listing.transferred"
	EventListingDeleted         = "listing.deleted"
	EventListingActivated       = "listing.activated"
	EventListingPromoted        = "listing.promoted"
	EventContactUnlocked        = "contact.unlocked"
	EventPaymentFailed          = "payment.failed"
)

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

type PaymentRepository interface {
	// CreatePending сохраняет новую запись или возвращает уже существующую
	// ожидающую запись той же тройки (пользователь, объявление, тип).
	CreatePending(ctx context.Context, payment *entity.Payment) (*entity.Payment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindPending(ctx context.Context, userID, listingID uuid.UUID, paymentType valueobject.PaymentType) (*entity.Payment, error)
	SetCheckoutURL(ctx context.Context, id uuid.UUID, url string) error
	// MarkPaid и MarkFailed меняют только записи в статусе pending.
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, int, error)
}

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

// ListingRepository хранит объявления. Все условные операции возвращают
// признак того, что запись действительно изменилась.
type ListingRepository interface {
	Create(ctx context.Context, listing *entity.Listing) error
	Update(ctx context.Context, listing *entity.Listing) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error)
	List(ctx context.Context, filter ListingFilter) ([]*entity.Listing, int, error)

	// Deactivate выполняет мягкое удаление.
	Deactivate(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
	// MarkPaid переводит неоплаченное объявление в ACTIVE.
	MarkPaid(ctx context.Context, id, paymentID uuid.UUID, at time.Time) (bool, error)
	// ApplyPromotion сохраняет окно продвижения, только если активного продвижения нет.
	ApplyPromotion(ctx context.Context, id uuid.UUID, promotion entity.Promotion, now time.Time) (bool, error)
	// AddUnlock добавляет пользователя в журнал открытий, если его там ещё нет.
	AddUnlock(ctx context.Context, id uuid.UUID, unlock entity.Unlock) (bool, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error

	// ExpireListing и ExpireOffers переводят просроченные предложения в EXPIRED.
	ExpireListing(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
	ExpireOffers(ctx context.Context, now time.Time) (int64, error)
	ClearLapsedPromotion(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

const (
	SortDefault = ""
	SortNewest  = "newest"
	SortViews   = "views"
)

type ListingFilter struct {
	Kind    valueobject.ListingKind
	Sport   string
	OwnerID *uuid.UUID
	// PublicOnly ограничивает выдачу оплаченными, не удалёнными, активными объявлениями.
	PublicOnly bool
	SortBy     string
	Now        time.Time
	Limit      int
	Offset     int
}

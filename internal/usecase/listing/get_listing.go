package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
)

type GetListingUseCase struct {
	listings  repository.ListingRepository
	freshener Freshener
	clock     clock.Clock
}

func NewGetListingUseCase(listings repository.ListingRepository, freshener Freshener, clk clock.Clock) *GetListingUseCase {
	return &GetListingUseCase{listings: listings, freshener: freshener, clock: clk}
}

// Execute возвращает проекцию объявления. Удалённые и неоплаченные объявления
// для посторонних не существуют (404).
func (uc *GetListingUseCase) Execute(ctx context.Context, id uuid.UUID, r entity.Requester) (*paywall.ListingView, error) {
	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.freshener.EnsureFresh(ctx, l); err != nil {
		return nil, err
	}
	if !l.IsReadableBy(r) {
		return nil, apperror.ErrListingNotFound
	}

	uc.IncrementView(ctx, l, r)

	view := paywall.BuildView(l, r, uc.clock.Now())
	return &view, nil
}

// IncrementView увеличивает счётчик просмотров, если смотрит не владелец.
// Ошибка счётчика не влияет на чтение.
func (uc *GetListingUseCase) IncrementView(ctx context.Context, l *entity.Listing, viewer entity.Requester) {
	if !viewer.IsAnonymous() && l.IsOwnedBy(viewer.ID) {
		return
	}
	if err := uc.listings.IncrementViews(ctx, l.ID); err != nil {
		logger.Log.WithField("listing_id", l.ID).WithError(err).Warn("listing: не удалось обновить счётчик просмотров")
		return
	}
	l.Statistics.Views++
}

package listing

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
)

type DeleteListingUseCase struct {
	listings repository.ListingRepository
	media    repository.MediaStorage
	notifier repository.Notifier
	clock    clock.Clock
}

func NewDeleteListingUseCase(
	listings repository.ListingRepository,
	media repository.MediaStorage,
	notifier repository.Notifier,
	clk clock.Clock,
) *DeleteListingUseCase {
	return &DeleteListingUseCase{listings: listings, media: media, notifier: notifier, clock: clk}
}

// Execute удаляет файлы объявления и выполняет мягкое удаление. Запись сохраняется
// и остаётся доступной владельцу на чтение.
func (uc *DeleteListingUseCase) Execute(ctx context.Context, id uuid.UUID, r entity.Requester) error {
	if r.IsAnonymous() {
		return apperror.ErrUnauthorized
	}

	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !l.CanBeManagedBy(r) {
		return apperror.ErrForbidden
	}
	if !l.IsActive {
		return apperror.ErrListingInactive
	}

	for _, key := range l.MediaKeys() {
		if err := uc.media.Delete(ctx, key); err != nil {
			logger.Log.WithFields(logrus.Fields{"listing_id": l.ID, "key": key}).WithError(err).
				Warn("listing: не удалось удалить файл объявления")
		}
	}

	changed, err := uc.listings.Deactivate(ctx, l.ID, uc.clock.Now())
	if err != nil {
		return err
	}
	if !changed {
		return apperror.ErrListingInactive
	}

	uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingDeleted, map[string]interface{}{"listingId": l.ID})
	return nil
}

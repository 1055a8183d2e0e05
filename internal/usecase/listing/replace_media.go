package listing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

const MaxMediaFiles = 10

// MediaUpload: загружаемый файл. Reader закрывает вызывающая сторона.
type MediaUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// ReplaceMediaUseCase заменяет набор файлов объявления целиком.
type ReplaceMediaUseCase struct {
	guard    mutationGuard
	media    repository.MediaStorage
	notifier repository.Notifier
	clock    clock.Clock
}

func NewReplaceMediaUseCase(
	listings repository.ListingRepository,
	pricing policy.PricingPolicy,
	checkout *payment.CheckoutOpener,
	media repository.MediaStorage,
	notifier repository.Notifier,
	clk clock.Clock,
) *ReplaceMediaUseCase {
	return &ReplaceMediaUseCase{
		guard:    mutationGuard{listings: listings, pricing: pricing, checkout: checkout},
		media:    media,
		notifier: notifier,
		clock:    clk,
	}
}

func (uc *ReplaceMediaUseCase) Execute(ctx context.Context, id uuid.UUID, r entity.Requester, files []MediaUpload) (*entity.Listing, error) {
	if len(files) == 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "не переданы файлы")
	}
	if len(files) > MaxMediaFiles {
		return nil, apperror.New(apperror.ErrCodeValidation, "слишком много файлов").
			WithDetails(map[string]interface{}{"max": MaxMediaFiles})
	}

	l, err := uc.guard.load(ctx, id, r)
	if err != nil {
		return nil, err
	}

	saved := make([]entity.MediaRef, 0, len(files))
	for _, f := range files {
		ref, err := uc.media.Save(ctx, l.ID, f.Filename, f.ContentType, f.Reader)
		if err != nil {
			uc.discard(ctx, l.ID, saved)
			return nil, err
		}
		saved = append(saved, ref)
	}

	old := l.MediaKeys()
	l.Media = saved
	l.UpdatedAt = uc.clock.Now()
	if err := uc.guard.listings.Update(ctx, l); err != nil {
		uc.discard(ctx, l.ID, saved)
		return nil, err
	}

	for _, key := range old {
		if err := uc.media.Delete(ctx, key); err != nil {
			logger.Log.WithFields(logrus.Fields{"listing_id": l.ID, "key": key}).WithError(err).
				Warn("listing: не удалось удалить старый файл")
		}
	}

	uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingUpdated, map[string]interface{}{"listingId": l.ID})
	return l, nil
}

func (uc *ReplaceMediaUseCase) discard(ctx context.Context, listingID uuid.UUID, refs []entity.MediaRef) {
	for _, ref := range refs {
		if err := uc.media.Delete(ctx, ref.Key); err != nil {
			logger.Log.WithFields(logrus.Fields{"listing_id": listingID, "key": ref.Key}).WithError(err).
				Warn("listing: не удалось откатить загруженный файл")
		}
	}
}

package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

type UpdateListingUseCase struct {
	guard     mutationGuard
	freshener Freshener
	notifier  repository.Notifier
	clock     clock.Clock
}

func NewUpdateListingUseCase(
	listings repository.ListingRepository,
	freshener Freshener,
	pricing policy.PricingPolicy,
	checkout *payment.CheckoutOpener,
	notifier repository.Notifier,
	clk clock.Clock,
) *UpdateListingUseCase {
	return &UpdateListingUseCase{
		guard:     mutationGuard{listings: listings, pricing: pricing, checkout: checkout},
		freshener: freshener,
		notifier:  notifier,
		clock:     clk,
	}
}

func (uc *UpdateListingUseCase) Execute(ctx context.Context, id uuid.UUID, r entity.Requester, patch entity.ListingPatch) (*entity.Listing, error) {
	l, err := uc.guard.load(ctx, id, r)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return nil, apperror.New(apperror.ErrCodeValidation, "нет полей для обновления")
	}
	if err := uc.freshener.EnsureFresh(ctx, l); err != nil {
		return nil, err
	}

	result, err := l.ApplyPatch(patch, uc.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := uc.guard.listings.Update(ctx, l); err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingUpdated, map[string]interface{}{"listingId": l.ID})
	if result.TransferChanged {
		data := map[string]interface{}{
			"listingId":     l.ID,
			"transferredTo": l.Player.TransferredTo,
		}
		uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingTransferred, data)
		for _, u := range l.UnlockedBy {
			uc.notifier.Notify(ctx, u.UserID, repository.EventListingTransferred, data)
		}
	}

	return l, nil
}

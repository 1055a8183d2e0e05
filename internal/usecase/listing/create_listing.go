package listing

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

type CreateListingInput struct {
	Requester  entity.Requester
	Content    entity.ListingContent
	UnlockCost *float64
}

type CreateListingResult struct {
	Listing *entity.Listing
	// Payment заполнен, если объявление ждёт оплаты. URL может быть пустым,
	// если платёжный шлюз недоступен: оплату можно повторить позже.
	Payment *payment.Handle
}

type CreateListingUseCase struct {
	listings repository.ListingRepository
	pricing  policy.PricingPolicy
	checkout *payment.CheckoutOpener
	notifier repository.Notifier
	clock    clock.Clock
}

func NewCreateListingUseCase(
	listings repository.ListingRepository,
	pricing policy.PricingPolicy,
	checkout *payment.CheckoutOpener,
	notifier repository.Notifier,
	clk clock.Clock,
) *CreateListingUseCase {
	return &CreateListingUseCase{
		listings: listings,
		pricing:  pricing,
		checkout: checkout,
		notifier: notifier,
		clock:    clk,
	}
}

func (uc *CreateListingUseCase) Execute(ctx context.Context, input CreateListingInput) (*CreateListingResult, error) {
	if input.Requester.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	unlockCost := uc.pricing.DefaultUnlockCost()
	if input.UnlockCost != nil {
		cost, err := valueobject.NewMoney(*input.UnlockCost, unlockCost.Currency)
		if err != nil {
			return nil, err
		}
		unlockCost = cost
	}

	now := uc.clock.Now()
	l, err := entity.NewListing(input.Requester.ID, input.Content, unlockCost, now)
	if err != nil {
		return nil, err
	}

	price := uc.pricing.ListingPrice(l.Kind)
	if uc.pricing.IsExempt(input.Requester) || price.IsZero() {
		l.MarkExempt(now)
	}

	if err := uc.listings.Create(ctx, l); err != nil {
		return nil, err
	}

	result := &CreateListingResult{Listing: l}
	if l.Payment.IsPaid {
		uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingCreated, map[string]interface{}{"listingId": l.ID})
		return result, nil
	}

	handle, err := uc.checkout.Open(ctx, payment.CheckoutDraft{
		UserID:    l.OwnerID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeAddListing,
		Amount:    price,
	})
	if err != nil {
		// Объявление остаётся в PENDING_PAYMENT; владелец повторит оплату через /pay.
		logger.Log.WithFields(logrus.Fields{"listing_id": l.ID}).WithError(err).
			Warn("listing: не удалось открыть оплату размещения")
		if handle == nil {
			handle = &payment.Handle{Type: valueobject.PaymentTypeAddListing, Amount: price}
		}
	}
	result.Payment = handle

	uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingPaymentRequired, map[string]interface{}{
		"listingId":  l.ID,
		"amount":     handle.Amount,
		"paymentUrl": handle.URL,
	})

	return result, nil
}

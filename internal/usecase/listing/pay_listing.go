package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

// PayListingUseCase повторно открывает оплату размещения для объявления в PENDING_PAYMENT.
type PayListingUseCase struct {
	listings repository.ListingRepository
	pricing  policy.PricingPolicy
	checkout *payment.CheckoutOpener
}

func NewPayListingUseCase(
	listings repository.ListingRepository,
	pricing policy.PricingPolicy,
	checkout *payment.CheckoutOpener,
) *PayListingUseCase {
	return &PayListingUseCase{listings: listings, pricing: pricing, checkout: checkout}
}

type PayListingResult struct {
	Listing *entity.Listing
	Payment *payment.Handle
}

func (uc *PayListingUseCase) Execute(ctx context.Context, id uuid.UUID, r entity.Requester) (*PayListingResult, error) {
	if r.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	l, err := uc.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.IsOwnedBy(r.ID) {
		return nil, apperror.ErrForbidden
	}
	if !l.IsActive {
		return nil, apperror.ErrListingInactive
	}
	if l.Payment.IsPaid {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "объявление уже оплачено")
	}

	price := uc.pricing.ListingPrice(l.Kind)
	handle, err := uc.checkout.Open(ctx, payment.CheckoutDraft{
		UserID:    l.OwnerID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeAddListing,
		Amount:    price,
	})
	if err != nil {
		return nil, err
	}
	return &PayListingResult{Listing: l, Payment: handle}, nil
}

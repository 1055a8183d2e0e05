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

// mutationGuard проверяет права на изменение объявления до любой записи.
type mutationGuard struct {
	listings repository.ListingRepository
	pricing  policy.PricingPolicy
	checkout *payment.CheckoutOpener
}

// load возвращает объявление, которое requester вправе менять. Неоплаченное
// объявление отклоняется с 402 и данными для оплаты (администратор не проверяется).
func (g *mutationGuard) load(ctx context.Context, id uuid.UUID, r entity.Requester) (*entity.Listing, error) {
	if r.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	l, err := g.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !l.CanBeManagedBy(r) {
		return nil, apperror.ErrForbidden
	}
	if !l.IsActive {
		return nil, apperror.ErrListingInactive
	}
	if !l.Payment.IsPaid && !r.IsAdmin() {
		return nil, g.paymentRequired(ctx, l)
	}
	return l, nil
}

func (g *mutationGuard) paymentRequired(ctx context.Context, l *entity.Listing) error {
	price := g.pricing.ListingPrice(l.Kind)
	details := map[string]interface{}{
		"listingId": l.ID,
		"amount":    price.Amount,
		"currency":  price.Currency,
	}

	handle, err := g.checkout.Open(ctx, payment.CheckoutDraft{
		UserID:    l.OwnerID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeAddListing,
		Amount:    price,
	})
	if handle != nil {
		details["paymentId"] = handle.PaymentID
		details["amount"] = handle.Amount.Amount
		if handle.URL != "" {
			details["paymentUrl"] = handle.URL
		}
	}
	if err != nil && !apperror.IsGatewayError(err) {
		return err
	}

	return apperror.ErrPaymentRequired.WithDetails(details)
}

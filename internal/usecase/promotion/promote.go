package promotion

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/policy"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/validation"
)

type Freshener interface {
	EnsureFresh(ctx context.Context, l *entity.Listing) error
}

type PromoteInput struct {
	ListingID uuid.UUID
	Requester entity.Requester
	Days      int
	Type      string
}

// PromoteResult: либо продвижение применено сразу (привилегированный пользователь),
// либо возвращён дескриптор оплаты.
type PromoteResult struct {
	Applied   bool
	Promotion *entity.Promotion
	Payment   *payment.Handle
	Cost      valueobject.Money
}

type PromoteListingUseCase struct {
	listings  repository.ListingRepository
	freshener Freshener
	pricing   policy.PricingPolicy
	checkout  *payment.CheckoutOpener
	notifier  repository.Notifier
	clock     clock.Clock
}

func NewPromoteListingUseCase(
	listings repository.ListingRepository,
	freshener Freshener,
	pricing policy.PricingPolicy,
	checkout *payment.CheckoutOpener,
	notifier repository.Notifier,
	clk clock.Clock,
) *PromoteListingUseCase {
	return &PromoteListingUseCase{
		listings:  listings,
		freshener: freshener,
		pricing:   pricing,
		checkout:  checkout,
		notifier:  notifier,
		clock:     clk,
	}
}

func (uc *PromoteListingUseCase) Execute(ctx context.Context, input PromoteInput) (*PromoteResult, error) {
	if input.Requester.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	l, err := uc.listings.FindByID(ctx, input.ListingID)
	if err != nil {
		return nil, err
	}
	if !l.CanBeManagedBy(input.Requester) {
		return nil, apperror.ErrForbidden
	}
	if !l.IsActive {
		return nil, apperror.ErrListingInactive
	}

	if input.Days < 1 {
		return nil, apperror.ErrInvalidDuration
	}
	if err := validation.ValidatePromotionDays(input.Days); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	promotionType, err := valueobject.NewPromotionType(input.Type)
	if err != nil {
		return nil, err
	}

	if err := uc.freshener.EnsureFresh(ctx, l); err != nil {
		return nil, err
	}
	if !l.Payment.IsPaid {
		return nil, apperror.ErrPaymentRequired.WithStatus(http.StatusBadRequest).WithDetails(map[string]interface{}{
			"listingPrice": uc.pricing.ListingPrice(l.Kind),
		})
	}
	if l.Status != valueobject.LifecycleStatusActive {
		return nil, apperror.New(apperror.ErrCodeBadRequest, "продвигать можно только активное объявление")
	}

	now := uc.clock.Now()
	if l.PromotionActive(now) {
		return nil, apperror.ErrAlreadyPromoted
	}

	cost := uc.pricing.PromotionPrice(promotionType, input.Days)

	if uc.pricing.IsExempt(input.Requester) || cost.IsZero() {
		result, err := uc.applyNow(ctx, l, promotionType, input.Days, now)
		if err != nil {
			return nil, err
		}
		result.Cost = valueobject.Money{Currency: cost.Currency}
		return result, nil
	}

	handle, err := uc.checkout.Open(ctx, payment.CheckoutDraft{
		UserID:        input.Requester.ID,
		ListingID:     l.ID,
		Type:          valueobject.PaymentTypePromoteListing,
		Amount:        cost,
		PromotionType: promotionType,
		PromotionDays: input.Days,
	})
	if err != nil {
		return nil, err
	}

	return &PromoteResult{Payment: handle, Cost: handle.Amount}, nil
}

// applyNow включает продвижение без оплаты; повторная проверка выполняется в хранилище.
func (uc *PromoteListingUseCase) applyNow(ctx context.Context, l *entity.Listing, t valueobject.PromotionType, days int, now time.Time) (*PromoteResult, error) {
	promotion := entity.NewPromotion(t, days, nil, now)
	applied, err := uc.listings.ApplyPromotion(ctx, l.ID, promotion, now)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperror.ErrAlreadyPromoted
	}

	logger.Log.WithFields(logrus.Fields{
		"listing_id": l.ID,
		"type":       t,
		"days":       days,
	}).Info("promotion: продвижение включено без оплаты")

	uc.notifier.Notify(ctx, l.OwnerID, repository.EventListingPromoted, map[string]interface{}{
		"listingId":     l.ID,
		"promotionType": t,
		"days":          days,
	})

	return &PromoteResult{Applied: true, Promotion: &promotion}, nil
}

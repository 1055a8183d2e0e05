package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
)

type CheckoutDraft struct {
	UserID        uuid.UUID
	ListingID     uuid.UUID
	Type          valueobject.PaymentType
	Amount        valueobject.Money
	PromotionType valueobject.PromotionType
	PromotionDays int
}

// Handle: данные, достаточные клиенту для оплаты без повторного запроса цены.
type Handle struct {
	PaymentID uuid.UUID
	Type      valueobject.PaymentType
	Amount    valueobject.Money
	URL       string
}

// CheckoutOpener создаёт (или переиспользует) ожидающий платёж и открывает страницу оплаты.
type CheckoutOpener struct {
	payments repository.PaymentRepository
	gateway  repository.PaymentGateway
	clock    clock.Clock
}

func NewCheckoutOpener(payments repository.PaymentRepository, gateway repository.PaymentGateway, clk clock.Clock) *CheckoutOpener {
	return &CheckoutOpener{payments: payments, gateway: gateway, clock: clk}
}

func sameTerms(a, b *entity.Payment) bool {
	if a.Amount != b.Amount || a.PromotionDays != b.PromotionDays {
		return false
	}
	if (a.PromotionType == nil) != (b.PromotionType == nil) {
		return false
	}
	return a.PromotionType == nil || *a.PromotionType == *b.PromotionType
}

// Open возвращает дескриптор платежа. При сбое шлюза дескриптор всё равно
// возвращается (без URL) вместе с ошибкой ErrCodeGatewayError.
func (o *CheckoutOpener) Open(ctx context.Context, draft CheckoutDraft) (*Handle, error) {
	p, err := entity.NewPayment(draft.UserID, draft.ListingID, draft.Type, draft.Amount, o.clock.Now())
	if err != nil {
		return nil, err
	}
	if draft.Type == valueobject.PaymentTypePromoteListing {
		p.WithPromotion(draft.PromotionType, draft.PromotionDays)
	}

	stored, err := o.payments.CreatePending(ctx, p)
	if err != nil {
		return nil, err
	}

	// Ожидающий платёж с другими условиями (другой срок или тариф) заменяется новым.
	if stored.ID != p.ID && !sameTerms(stored, p) {
		if _, err := o.payments.MarkFailed(ctx, stored.ID, "заменён новым запросом на оплату"); err != nil {
			return nil, err
		}
		if stored, err = o.payments.CreatePending(ctx, p); err != nil {
			return nil, err
		}
	}

	handle := &Handle{PaymentID: stored.ID, Type: stored.Type, Amount: stored.Amount}
	if stored.CheckoutURL != nil && *stored.CheckoutURL != "" {
		handle.URL = *stored.CheckoutURL
		return handle, nil
	}

	url, err := o.gateway.CreateCheckout(ctx, stored)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"payment_id": stored.ID,
			"listing_id": stored.ListingID,
			"type":       stored.Type,
		}).WithError(err).Warn("checkout: платёжный шлюз не открыл страницу оплаты")
		return handle, apperror.Wrap(err, apperror.ErrCodeGatewayError, "платёжный шлюз временно недоступен")
	}

	if err := o.payments.SetCheckoutURL(ctx, stored.ID, url); err != nil {
		return nil, err
	}
	handle.URL = url
	return handle, nil
}

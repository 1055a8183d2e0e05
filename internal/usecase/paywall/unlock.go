package paywall

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

// Freshener приводит объявление в актуальное состояние перед чтением.
type Freshener interface {
	EnsureFresh(ctx context.Context, l *entity.Listing) error
}

// UnlockResult содержит либо контакт, либо дескриптор оплаты.
type UnlockResult struct {
	Contact    *ContactView
	Payment    *payment.Handle
	UnlockCost valueobject.Money
}

type RequestUnlockUseCase struct {
	listings  repository.ListingRepository
	freshener Freshener
	checkout  *payment.CheckoutOpener
}

func NewRequestUnlockUseCase(
	listings repository.ListingRepository,
	freshener Freshener,
	checkout *payment.CheckoutOpener,
) *RequestUnlockUseCase {
	return &RequestUnlockUseCase{
		listings:  listings,
		freshener: freshener,
		checkout:  checkout,
	}
}

func contactResult(l *entity.Listing, r entity.Requester) *UnlockResult {
	c := ContactFor(l, r)
	return &UnlockResult{Contact: &c, UnlockCost: l.Contact.UnlockCost}
}

// Execute никогда не добавляет запись в журнал открытий за плату: это делает
// только обработчик оплаты.
func (uc *RequestUnlockUseCase) Execute(ctx context.Context, listingID uuid.UUID, r entity.Requester) (*UnlockResult, error) {
	if r.IsAnonymous() {
		return nil, apperror.ErrUnauthorized
	}

	l, err := uc.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if err := uc.freshener.EnsureFresh(ctx, l); err != nil {
		return nil, err
	}

	if l.IsOwnedBy(r.ID) {
		return contactResult(l, r), nil
	}
	if !l.IsPubliclyListed() && !r.IsAdmin() {
		return nil, apperror.ErrListingNotFound
	}
	if CanViewContact(l, r) {
		return contactResult(l, r), nil
	}

	// Бесплатный контакт отдаётся сразу; журнал открытий пишет только обработчик оплаты.
	if l.Contact.UnlockCost.IsZero() {
		c := fullContact(l.Contact)
		return &UnlockResult{Contact: &c, UnlockCost: l.Contact.UnlockCost}, nil
	}

	handle, err := uc.checkout.Open(ctx, payment.CheckoutDraft{
		UserID:    r.ID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeUnlockContact,
		Amount:    l.Contact.UnlockCost,
	})
	if err != nil {
		return nil, err
	}

	logger.Log.WithFields(logrus.Fields{
		"listing_id": l.ID,
		"user_id":    r.ID,
		"payment_id": handle.PaymentID,
	}).Info("paywall: открыта оплата контакта")

	return &UnlockResult{Payment: handle, UnlockCost: l.Contact.UnlockCost}, nil
}

package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeFailed    Outcome = "failed"
	OutcomeAnomaly   Outcome = "anomaly"
)

type CallbackInput struct {
	PaymentID uuid.UUID
	Status    valueobject.PaymentStatus
	Reason    string
}

// SettlementResult описывает, что сделал обработчик. Аномалия не является ошибкой:
// шлюз получает подтверждение и не повторяет вызов.
type SettlementResult struct {
	PaymentID uuid.UUID
	Outcome   Outcome
	Anomaly   bool
	Reason    string
}

type HandleCallbackUseCase struct {
	payments repository.PaymentRepository
	listings repository.ListingRepository
	notifier repository.Notifier
	clock    clock.Clock
}

func NewHandleCallbackUseCase(
	payments repository.PaymentRepository,
	listings repository.ListingRepository,
	notifier repository.Notifier,
	clk clock.Clock,
) *HandleCallbackUseCase {
	return &HandleCallbackUseCase{payments: payments, listings: listings, notifier: notifier, clock: clk}
}

func anomaly(p *entity.Payment, id uuid.UUID, reason string) *SettlementResult {
	fields := logrus.Fields{"payment_id": id}
	if p != nil {
		fields["listing_id"] = p.ListingID
		fields["user_id"] = p.UserID
		fields["type"] = p.Type
	}
	logger.Anomaly(fields, "settlement: "+reason)
	return &SettlementResult{PaymentID: id, Outcome: OutcomeAnomaly, Anomaly: true, Reason: reason}
}

func (uc *HandleCallbackUseCase) Execute(ctx context.Context, input CallbackInput) (*SettlementResult, error) {
	if input.Status != valueobject.PaymentStatusPaid && input.Status != valueobject.PaymentStatusFailed {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный статус платежа в уведомлении")
	}

	p, err := uc.payments.FindByID(ctx, input.PaymentID)
	if apperror.IsNotFound(err) {
		return anomaly(nil, input.PaymentID, "неизвестный платёж"), nil
	}
	if err != nil {
		return nil, err
	}

	if input.Status == valueobject.PaymentStatusFailed {
		return uc.fail(ctx, p, input.Reason)
	}

	switch {
	case p.IsPaid():
		return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeDuplicate}, nil
	case p.Status == valueobject.PaymentStatusFailed:
		return anomaly(p, p.ID, "оплата по ранее отклонённому платежу"), nil
	}

	now := uc.clock.Now()
	listing, err := uc.listings.FindByID(ctx, p.ListingID)
	if apperror.IsNotFound(err) {
		return uc.settleOrphan(ctx, p, now, "объявление платежа не найдено")
	}
	if err != nil {
		return nil, err
	}
	if !listing.IsActive {
		return uc.settleOrphan(ctx, p, now, "объявление платежа удалено")
	}

	var applied bool
	switch p.Type {
	case valueobject.PaymentTypeAddListing:
		applied, err = uc.listings.MarkPaid(ctx, listing.ID, p.ID, now)
	case valueobject.PaymentTypePromoteListing:
		promotion := entity.NewPromotion(p.PromotionTypeOrDefault(), p.PromotionDaysOrDefault(), &p.ID, now)
		applied, err = uc.listings.ApplyPromotion(ctx, listing.ID, promotion, now)
	case valueobject.PaymentTypeUnlockContact:
		applied, err = uc.listings.AddUnlock(ctx, listing.ID, entity.Unlock{UserID: p.UserID, UnlockedAt: now, PaymentID: &p.ID})
	default:
		return anomaly(p, p.ID, "неизвестный тип платежа"), nil
	}
	if err != nil {
		return nil, err
	}

	if !applied {
		owned, err := uc.effectOwnedBy(ctx, p)
		if err != nil {
			return nil, err
		}
		if !owned {
			// Эффект уже обеспечен другим платежом: повторное списание фиксируем для возврата.
			if _, err := uc.payments.MarkFailed(ctx, p.ID, "эффект уже применён другим платежом"); err != nil {
				return nil, err
			}
			return anomaly(p, p.ID, "повторный платёж за уже применённый эффект"), nil
		}
	}

	if _, err := uc.payments.MarkPaid(ctx, p.ID, now); err != nil {
		return nil, err
	}

	if !applied {
		return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeDuplicate}, nil
	}

	uc.notifyApplied(ctx, p, listing)
	logger.Log.WithFields(logrus.Fields{
		"payment_id": p.ID,
		"listing_id": listing.ID,
		"type":       p.Type,
	}).Info("settlement: платёж применён")

	return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeApplied}, nil
}

// settleOrphan фиксирует списанные деньги по платежу без живого объявления.
// Объявление не меняется, повтор уведомления даёт duplicate.
func (uc *HandleCallbackUseCase) settleOrphan(ctx context.Context, p *entity.Payment, now time.Time, reason string) (*SettlementResult, error) {
	changed, err := uc.payments.MarkPaid(ctx, p.ID, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeDuplicate}, nil
	}
	return anomaly(p, p.ID, reason), nil
}

// effectOwnedBy проверяет, что уже применённый эффект принадлежит этому же платежу
// (параллельная доставка одного уведомления).
func (uc *HandleCallbackUseCase) effectOwnedBy(ctx context.Context, p *entity.Payment) (bool, error) {
	listing, err := uc.listings.FindByID(ctx, p.ListingID)
	if err != nil {
		return false, err
	}

	matches := func(id *uuid.UUID) bool { return id != nil && *id == p.ID }
	switch p.Type {
	case valueobject.PaymentTypeAddListing:
		return matches(listing.Payment.PaymentID), nil
	case valueobject.PaymentTypePromoteListing:
		return matches(listing.Promotion.PaymentID), nil
	case valueobject.PaymentTypeUnlockContact:
		u, ok := listing.UnlockOf(p.UserID)
		return ok && matches(u.PaymentID), nil
	}
	return false, nil
}

func (uc *HandleCallbackUseCase) fail(ctx context.Context, p *entity.Payment, reason string) (*SettlementResult, error) {
	changed, err := uc.payments.MarkFailed(ctx, p.ID, reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeDuplicate}, nil
	}

	uc.notifier.Notify(ctx, p.UserID, repository.EventPaymentFailed, map[string]interface{}{
		"paymentId": p.ID,
		"listingId": p.ListingID,
		"type":      p.Type,
		"reason":    reason,
	})
	return &SettlementResult{PaymentID: p.ID, Outcome: OutcomeFailed, Reason: reason}, nil
}

func (uc *HandleCallbackUseCase) notifyApplied(ctx context.Context, p *entity.Payment, listing *entity.Listing) {
	data := map[string]interface{}{"listingId": listing.ID, "paymentId": p.ID}
	switch p.Type {
	case valueobject.PaymentTypeAddListing:
		uc.notifier.Notify(ctx, listing.OwnerID, repository.EventListingActivated, data)
	case valueobject.PaymentTypePromoteListing:
		data["promotionType"] = p.PromotionTypeOrDefault()
		data["days"] = p.PromotionDaysOrDefault()
		uc.notifier.Notify(ctx, listing.OwnerID, repository.EventListingPromoted, data)
	case valueobject.PaymentTypeUnlockContact:
		uc.notifier.Notify(ctx, p.UserID, repository.EventContactUnlocked, data)
	}
}

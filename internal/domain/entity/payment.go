package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// Payment: запись о платёжном намерении пользователя.
type Payment struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          valueobject.PaymentType
	Amount        valueobject.Money
	ListingID     uuid.UUID
	Status        valueobject.PaymentStatus
	CheckoutURL   *string
	PromotionType *valueobject.PromotionType
	PromotionDays int
	FailureReason *string
	CreatedAt     time.Time
	PaidAt        *time.Time
}

func NewPayment(userID, listingID uuid.UUID, paymentType valueobject.PaymentType, amount valueobject.Money, now time.Time) (*Payment, error) {
	if !paymentType.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип платежа")
	}
	if amount.Amount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}

	return &Payment{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      paymentType,
		Amount:    amount,
		ListingID: listingID,
		Status:    valueobject.PaymentStatusPending,
		CreatedAt: now,
	}, nil
}

// WithPromotion фиксирует параметры продвижения, которые будут применены при оплате.
func (p *Payment) WithPromotion(t valueobject.PromotionType, days int) *Payment {
	p.PromotionType = &t
	p.PromotionDays = days
	return p
}

func (p *Payment) IsPending() bool {
	return p.Status == valueobject.PaymentStatusPending
}

func (p *Payment) IsPaid() bool {
	return p.Status == valueobject.PaymentStatusPaid
}

// PromotionTypeOrDefault возвращает тип продвижения из записи или featured.
func (p *Payment) PromotionTypeOrDefault() valueobject.PromotionType {
	if p.PromotionType == nil || !p.PromotionType.IsValid() {
		return valueobject.PromotionTypeFeatured
	}
	return *p.PromotionType
}

// PromotionDaysOrDefault: записи без срока продвигают объявление на 7 дней.
func (p *Payment) PromotionDaysOrDefault() int {
	if p.PromotionDays < 1 {
		return DefaultPromotionDays
	}
	return p.PromotionDays
}

const DefaultPromotionDays = 7

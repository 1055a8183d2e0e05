package valueobject

import "github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"

type LifecycleStatus string

const (
	LifecycleStatusPendingPayment LifecycleStatus = "PENDING_PAYMENT"
	LifecycleStatusActive         LifecycleStatus = "ACTIVE"
	LifecycleStatusExpired        LifecycleStatus = "EXPIRED"
	LifecycleStatusInactive       LifecycleStatus = "INACTIVE"
)

func (s LifecycleStatus) IsValid() bool {
	switch s {
	case LifecycleStatusPendingPayment, LifecycleStatusActive, LifecycleStatusExpired, LifecycleStatusInactive:
		return true
	}
	return false
}

// CanTransitionTo описывает допустимые переходы жизненного цикла объявления.
// INACTIVE терминален: удалённое объявление не восстанавливается через API.
func (s LifecycleStatus) CanTransitionTo(newStatus LifecycleStatus) bool {
	transitions := map[LifecycleStatus][]LifecycleStatus{
		LifecycleStatusPendingPayment: {LifecycleStatusActive, LifecycleStatusInactive},
		LifecycleStatusActive:         {LifecycleStatusExpired, LifecycleStatusInactive},
		LifecycleStatusExpired:        {LifecycleStatusInactive},
		LifecycleStatusInactive:       {},
	}

	allowed, ok := transitions[s]
	if !ok {
		return false
	}

	for _, status := range allowed {
		if status == newStatus {
			return true
		}
	}
	return false
}

type ListingKind string

const (
	ListingKindPlayer ListingKind = "player"
	ListingKindOffer  ListingKind = "offer"
)

func (k ListingKind) IsValid() bool {
	return k == ListingKindPlayer || k == ListingKindOffer
}

func NewListingKind(kind string) (ListingKind, error) {
	k := ListingKind(kind)
	if !k.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный тип объявления")
	}
	return k, nil
}

type PaymentType string

const (
	PaymentTypeAddListing     PaymentType = "add_listing"
	PaymentTypePromoteListing PaymentType = "promote_listing"
	PaymentTypeUnlockContact  PaymentType = "unlock_contact"
)

func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeAddListing, PaymentTypePromoteListing, PaymentTypeUnlockContact:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return true
	}
	return false
}

func NewPaymentStatus(status string) (PaymentStatus, error) {
	s := PaymentStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус платежа")
	}
	return s, nil
}

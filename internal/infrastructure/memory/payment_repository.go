package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	payments map[uuid.UUID]*entity.Payment
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{payments: make(map[uuid.UUID]*entity.Payment)}
}

func clonePayment(p *entity.Payment) *entity.Payment {
	c := *p
	return &c
}

func (r *PaymentRepository) findPendingLocked(userID, listingID uuid.UUID, paymentType valueobject.PaymentType) *entity.Payment {
	for _, p := range r.payments {
		if p.UserID == userID && p.ListingID == listingID && p.Type == paymentType && p.IsPending() {
			return p
		}
	}
	return nil
}

func (r *PaymentRepository) CreatePending(_ context.Context, payment *entity.Payment) (*entity.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing := r.findPendingLocked(payment.UserID, payment.ListingID, payment.Type); existing != nil {
		return clonePayment(existing), nil
	}
	r.payments[payment.ID] = clonePayment(payment)
	return clonePayment(payment), nil
}

func (r *PaymentRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, apperror.ErrPaymentNotFound
	}
	return clonePayment(p), nil
}

func (r *PaymentRepository) FindPending(_ context.Context, userID, listingID uuid.UUID, paymentType valueobject.PaymentType) (*entity.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p := r.findPendingLocked(userID, listingID, paymentType); p != nil {
		return clonePayment(p), nil
	}
	return nil, apperror.ErrPaymentNotFound
}

func (r *PaymentRepository) SetCheckoutURL(_ context.Context, id uuid.UUID, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return apperror.ErrPaymentNotFound
	}
	p.CheckoutURL = &url
	return nil
}

func (r *PaymentRepository) MarkPaid(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return false, apperror.ErrPaymentNotFound
	}
	if !p.IsPending() {
		return false, nil
	}
	p.Status = valueobject.PaymentStatusPaid
	p.PaidAt = &at
	return true, nil
}

func (r *PaymentRepository) MarkFailed(_ context.Context, id uuid.UUID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return false, apperror.ErrPaymentNotFound
	}
	if !p.IsPending() {
		return false, nil
	}
	p.Status = valueobject.PaymentStatusFailed
	if reason != "" {
		p.FailureReason = &reason
	}
	return true, nil
}

func (r *PaymentRepository) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	filtered := make([]*entity.Payment, 0)
	for _, p := range r.payments {
		if p.UserID == userID {
			filtered = append(filtered, clonePayment(p))
		}
	}
	slices.SortFunc(filtered, func(a, b *entity.Payment) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	total := len(filtered)
	return paginate(filtered, limit, offset), total, nil
}

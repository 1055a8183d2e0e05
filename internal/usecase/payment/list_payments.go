package payment

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

type ListMyPaymentsUseCase struct {
	payments repository.PaymentRepository
}

func NewListMyPaymentsUseCase(payments repository.PaymentRepository) *ListMyPaymentsUseCase {
	return &ListMyPaymentsUseCase{payments: payments}
}

func (uc *ListMyPaymentsUseCase) Execute(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.Payment, int, error) {
	if userID == uuid.Nil {
		return nil, 0, apperror.ErrUnauthorized
	}
	return uc.payments.ListByUser(ctx, userID, limit, offset)
}

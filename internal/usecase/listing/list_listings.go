package listing

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/promotion"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type ListListingsInput struct {
	Requester entity.Requester
	Kind      string
	Sport     string
	OwnerID   *uuid.UUID
	SortBy    string
	Limit     int
	Offset    int
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

type ListListingsUseCase struct {
	listings  repository.ListingRepository
	freshener Freshener
	clock     clock.Clock
}

func NewListListingsUseCase(listings repository.ListingRepository, freshener Freshener, clk clock.Clock) *ListListingsUseCase {
	return &ListListingsUseCase{listings: listings, freshener: freshener, clock: clk}
}

// Execute возвращает публичную выдачу: только оплаченные, не удалённые, активные объявления.
func (uc *ListListingsUseCase) Execute(ctx context.Context, input ListListingsInput) ([]paywall.ListingView, int, error) {
	filter := repository.ListingFilter{
		Sport:      input.Sport,
		OwnerID:    input.OwnerID,
		PublicOnly: true,
		SortBy:     input.SortBy,
	}
	if input.Kind != "" {
		kind, err := valueobject.NewListingKind(input.Kind)
		if err != nil {
			return nil, 0, err
		}
		filter.Kind = kind
	}
	switch input.SortBy {
	case repository.SortDefault, repository.SortNewest, repository.SortViews:
	default:
		return nil, 0, apperror.New(apperror.ErrCodeValidation, "некорректный параметр сортировки")
	}
	filter.Limit, filter.Offset = normalizePage(input.Limit, input.Offset)

	if _, err := uc.freshener.ReapExpired(ctx); err != nil {
		return nil, 0, err
	}

	now := uc.clock.Now()
	filter.Now = now
	items, total, err := uc.listings.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if filter.SortBy == repository.SortDefault {
		promotion.SortDefault(items, now)
	}

	return paywall.BuildViews(items, input.Requester, now), total, nil
}

type ListMyListingsUseCase struct {
	listings  repository.ListingRepository
	freshener Freshener
	clock     clock.Clock
}

func NewListMyListingsUseCase(listings repository.ListingRepository, freshener Freshener, clk clock.Clock) *ListMyListingsUseCase {
	return &ListMyListingsUseCase{listings: listings, freshener: freshener, clock: clk}
}

// Execute возвращает все объявления владельца, включая ожидающие оплаты и удалённые.
func (uc *ListMyListingsUseCase) Execute(ctx context.Context, r entity.Requester, limit, offset int) ([]paywall.ListingView, int, error) {
	if r.IsAnonymous() {
		return nil, 0, apperror.ErrUnauthorized
	}
	if _, err := uc.freshener.ReapExpired(ctx); err != nil {
		return nil, 0, err
	}

	now := uc.clock.Now()
	filter := repository.ListingFilter{OwnerID: &r.ID, SortBy: repository.SortNewest, Now: now}
	filter.Limit, filter.Offset = normalizePage(limit, offset)

	items, total, err := uc.listings.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return paywall.BuildViews(items, r, now), total, nil
}

package memory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// ListingRepository хранит объявления в памяти процесса. Условные операции
// выполняются под одной блокировкой, как условные UPDATE в Postgres.
type ListingRepository struct {
	mu       sync.RWMutex
	listings map[uuid.UUID]*entity.Listing
}

func NewListingRepository() *ListingRepository {
	return &ListingRepository{listings: make(map[uuid.UUID]*entity.Listing)}
}

func cloneListing(l *entity.Listing) *entity.Listing {
	c := *l
	c.UnlockedBy = append([]entity.Unlock{}, l.UnlockedBy...)
	c.Media = append([]entity.MediaRef{}, l.Media...)
	return &c
}

func (r *ListingRepository) Create(_ context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[listing.ID]; ok {
		return apperror.New(apperror.ErrCodeConflict, "объявление уже существует")
	}
	r.listings[listing.ID] = cloneListing(listing)
	return nil
}

// Update сохраняет пользовательские поля. Оплата, продвижение и журнал открытий
// меняются только условными операциями.
func (r *ListingRepository) Update(_ context.Context, listing *entity.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.listings[listing.ID]
	if !ok {
		return apperror.ErrListingNotFound
	}
	if !stored.IsActive {
		return apperror.ErrListingInactive
	}
	next := cloneListing(listing)
	next.Payment = stored.Payment
	next.Promotion = stored.Promotion
	next.UnlockedBy = stored.UnlockedBy
	next.Statistics = stored.Statistics
	next.Status = stored.Status
	next.IsActive = stored.IsActive
	r.listings[listing.ID] = next
	return nil
}

func (r *ListingRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, apperror.ErrListingNotFound
	}
	return cloneListing(l), nil
}

func matchesFilter(l *entity.Listing, filter repository.ListingFilter) bool {
	if filter.PublicOnly && !l.IsPubliclyListed() {
		return false
	}
	if filter.Kind != "" && l.Kind != filter.Kind {
		return false
	}
	if filter.Sport != "" && l.Sport != filter.Sport {
		return false
	}
	if filter.OwnerID != nil && l.OwnerID != *filter.OwnerID {
		return false
	}
	return true
}

func (r *ListingRepository) List(_ context.Context, filter repository.ListingFilter) ([]*entity.Listing, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := filter.Now
	if now.IsZero() {
		now = time.Now()
	}

	filtered := make([]*entity.Listing, 0)
	for _, l := range r.listings {
		if matchesFilter(l, filter) {
			filtered = append(filtered, cloneListing(l))
		}
	}

	switch filter.SortBy {
	case repository.SortNewest:
		slices.SortFunc(filtered, func(a, b *entity.Listing) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case repository.SortViews:
		slices.SortFunc(filtered, func(a, b *entity.Listing) int {
			if a.Statistics.Views != b.Statistics.Views {
				if a.Statistics.Views > b.Statistics.Views {
					return -1
				}
				return 1
			}
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	default:
		slices.SortStableFunc(filtered, func(a, b *entity.Listing) int {
			switch {
			case entity.DefaultOrderLess(a, b, now):
				return -1
			case entity.DefaultOrderLess(b, a, now):
				return 1
			}
			return 0
		})
	}

	total := len(filtered)
	return paginate(filtered, filter.Limit, filter.Offset), total, nil
}

func (r *ListingRepository) Deactivate(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	if err := l.Deactivate(at); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *ListingRepository) MarkPaid(_ context.Context, id, paymentID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	if !l.IsActive {
		return false, nil
	}
	changed, err := l.Activate(paymentID, at)
	if err != nil {
		return false, nil
	}
	return changed, nil
}

func (r *ListingRepository) ApplyPromotion(_ context.Context, id uuid.UUID, promotion entity.Promotion, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	if l.PromotionActive(now) {
		return false, nil
	}
	l.Promotion = promotion
	l.UpdatedAt = now
	return true, nil
}

func (r *ListingRepository) AddUnlock(_ context.Context, id uuid.UUID, unlock entity.Unlock) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	return l.AddUnlock(unlock), nil
}

func (r *ListingRepository) IncrementViews(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return apperror.ErrListingNotFound
	}
	l.Statistics.Views++
	return nil
}

func (r *ListingRepository) ExpireListing(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	return l.Expire(now), nil
}

func (r *ListingRepository) ExpireOffers(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, l := range r.listings {
		if l.Kind == valueobject.ListingKindOffer && l.Expire(now) {
			n++
		}
	}
	return n, nil
}

func (r *ListingRepository) ClearLapsedPromotion(_ context.Context, id uuid.UUID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return false, apperror.ErrListingNotFound
	}
	return l.ClearLapsedPromotion(now), nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

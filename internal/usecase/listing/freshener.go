package listing

import (
	"context"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
)

// Freshener выполняет ленивые переходы при чтении. Реализацию можно заменить
// фоновым обходом, не трогая места вызова.
type Freshener interface {
	EnsureFresh(ctx context.Context, l *entity.Listing) error
	ReapExpired(ctx context.Context) (int64, error)
}

// LazyFreshener переводит просроченные предложения в EXPIRED и снимает истёкшие
// продвижения в момент обращения.
type LazyFreshener struct {
	listings repository.ListingRepository
	clock    clock.Clock
}

func NewLazyFreshener(listings repository.ListingRepository, clk clock.Clock) *LazyFreshener {
	return &LazyFreshener{listings: listings, clock: clk}
}

func (f *LazyFreshener) EnsureFresh(ctx context.Context, l *entity.Listing) error {
	now := f.clock.Now()

	if l.NeedsExpiry(now) {
		if _, err := f.listings.ExpireListing(ctx, l.ID, now); err != nil {
			return err
		}
		l.Expire(now)
	}

	if l.HasLapsedPromotion(now) {
		if _, err := f.listings.ClearLapsedPromotion(ctx, l.ID, now); err != nil {
			return err
		}
		l.ClearLapsedPromotion(now)
	}

	return nil
}

func (f *LazyFreshener) ReapExpired(ctx context.Context) (int64, error) {
	n, err := f.listings.ExpireOffers(ctx, f.clock.Now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Log.WithField("count", n).Info("listing: просроченные предложения переведены в EXPIRED")
	}
	return n, nil
}

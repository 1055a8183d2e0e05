package entity

import (
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

func (l *Listing) promotedAt(now time.Time) bool {
	return l.Status == valueobject.LifecycleStatusActive && l.PromotionActive(now)
}

// DefaultOrderLess задаёт порядок выдачи по умолчанию: сначала действующие продвижения
// (position по возрастанию, затем более свежий startDate), потом остальные по createdAt.
func DefaultOrderLess(a, b *Listing, now time.Time) bool {
	ap, bp := a.promotedAt(now), b.promotedAt(now)
	if ap != bp {
		return ap
	}
	if ap {
		if a.Promotion.Position != b.Promotion.Position {
			return a.Promotion.Position < b.Promotion.Position
		}
		as, bs := a.Promotion.StartDate, b.Promotion.StartDate
		if as != nil && bs != nil && !as.Equal(*bs) {
			return as.After(*bs)
		}
	}
	return a.CreatedAt.After(b.CreatedAt)
}

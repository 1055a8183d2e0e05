package promotion

import (
	"sort"
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
)

// SortDefault упорядочивает выдачу: действующие продвижения первыми, затем остальные
// по дате создания. Истёкшее окно не учитывается, даже если флаг ещё не снят.
func SortDefault(listings []*entity.Listing, now time.Time) {
	sort.SliceStable(listings, func(i, j int) bool {
		return entity.DefaultOrderLess(listings[i], listings[j], now)
	})
}

package valueobject

import (
	"fmt"
	"math"

	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

const DefaultCurrency = "EUR"

type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: round2(amount), Currency: currency}, nil
}

// Times умножает сумму на целое количество (дней, единиц).
func (m Money) Times(n int) Money {
	return Money{Amount: round2(m.Amount * float64(n)), Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SalaryRange: вилка месячной зарплаты в предложении клуба.
type SalaryRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

func (r SalaryRange) Validate() error {
	if r.Min < 0 || r.Max < 0 {
		return apperror.New(apperror.ErrCodeValidation, "зарплата не может быть отрицательной")
	}
	if r.Max > 0 && r.Min > r.Max {
		return apperror.New(apperror.ErrCodeValidation, "минимальная зарплата не может превышать максимальную")
	}
	return nil
}

type PromotionType string

const (
	PromotionTypePremium  PromotionType = "premium"
	PromotionTypeFeatured PromotionType = "featured"
	PromotionTypeUrgent   PromotionType = "urgent"
)

func (t PromotionType) IsValid() bool {
	switch t {
	case PromotionTypePremium, PromotionTypeFeatured, PromotionTypeUrgent:
		return true
	}
	return false
}

// Position: место типа продвижения в выдаче: чем меньше, тем выше.
func (t PromotionType) Position() int {
	switch t {
	case PromotionTypePremium:
		return 1
	case PromotionTypeFeatured:
		return 2
	case PromotionTypeUrgent:
		return 3
	}
	return 99
}

func NewPromotionType(t string) (PromotionType, error) {
	if t == "" {
		return PromotionTypeFeatured, nil
	}
	pt := PromotionType(t)
	if !pt.IsValid() {
		return "", apperror.ErrInvalidPromotion
	}
	return pt, nil
}

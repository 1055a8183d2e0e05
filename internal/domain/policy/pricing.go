package policy

import (
	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

// PricingPolicy решает, кто освобождён от оплаты и сколько стоит каждая операция.
type PricingPolicy interface {
	IsExempt(r entity.Requester) bool
	ListingPrice(kind valueobject.ListingKind) valueobject.Money
	PromotionPrice(t valueobject.PromotionType, days int) valueobject.Money
	DefaultUnlockCost() valueobject.Money
}

type Prices struct {
	Currency          string
	PlayerListing     float64
	OfferListing      float64
	PromotionPerDay   map[valueobject.PromotionType]float64
	DefaultUnlockCost float64
	ExemptRoles       []string
}

// StaticPricing: тарифы из конфигурации.
type StaticPricing struct {
	prices Prices
	exempt map[string]struct{}
}

func NewStaticPricing(prices Prices) *StaticPricing {
	if prices.Currency == "" {
		prices.Currency = valueobject.DefaultCurrency
	}
	if len(prices.ExemptRoles) == 0 {
		prices.ExemptRoles = []string{entity.RoleAdmin}
	}
	exempt := make(map[string]struct{}, len(prices.ExemptRoles))
	for _, role := range prices.ExemptRoles {
		exempt[role] = struct{}{}
	}
	return &StaticPricing{prices: prices, exempt: exempt}
}

func (p *StaticPricing) IsExempt(r entity.Requester) bool {
	if r.IsAnonymous() {
		return false
	}
	_, ok := p.exempt[r.Role]
	return ok
}

func (p *StaticPricing) money(amount float64) valueobject.Money {
	m, err := valueobject.NewMoney(amount, p.prices.Currency)
	if err != nil {
		return valueobject.Money{Currency: p.prices.Currency}
	}
	return m
}

func (p *StaticPricing) ListingPrice(kind valueobject.ListingKind) valueobject.Money {
	if kind == valueobject.ListingKindOffer {
		return p.money(p.prices.OfferListing)
	}
	return p.money(p.prices.PlayerListing)
}

func (p *StaticPricing) PromotionPrice(t valueobject.PromotionType, days int) valueobject.Money {
	return p.money(p.prices.PromotionPerDay[t]).Times(days)
}

func (p *StaticPricing) DefaultUnlockCost() valueobject.Money {
	return p.money(p.prices.DefaultUnlockCost)
}

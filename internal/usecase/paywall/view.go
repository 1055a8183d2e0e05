package paywall

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

// ContactView: контакт в публичной проекции. Для закрытого контакта
// заполнены только IsHidden и UnlockCost.
type ContactView struct {
	IsHidden   bool    `json:"isHidden"`
	UnlockCost float64 `json:"unlockCost"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	AgentName  string  `json:"agentName,omitempty"`
	AgentPhone string  `json:"agentPhone,omitempty"`
	AgentEmail string  `json:"agentEmail,omitempty"`
}

type PaymentView struct {
	IsPaid bool       `json:"isPaid"`
	PaidAt *time.Time `json:"paidAt,omitempty"`
}

type PromotionView struct {
	IsPromoted bool                      `json:"isPromoted"`
	Type       valueobject.PromotionType `json:"type,omitempty"`
	StartDate  *time.Time                `json:"startDate,omitempty"`
	EndDate    *time.Time                `json:"endDate,omitempty"`
	Position   int                       `json:"position,omitempty"`
}

type ListingView struct {
	ID              uuid.UUID                   `json:"id"`
	OwnerID         uuid.UUID                   `json:"ownerId"`
	Kind            valueobject.ListingKind     `json:"kind"`
	LifecycleStatus valueobject.LifecycleStatus `json:"lifecycleStatus"`
	IsActive        bool                        `json:"isActive"`
	Payment         PaymentView                 `json:"payment"`
	Promotion       PromotionView               `json:"promotion"`
	Contact         ContactView                 `json:"contact"`
	Statistics      entity.Statistics           `json:"statistics"`
	Title           string                      `json:"title"`
	Description     string                      `json:"description"`
	Sport           string                      `json:"sport,omitempty"`
	Location        string                      `json:"location,omitempty"`
	Player          *entity.PlayerDetails       `json:"player,omitempty"`
	Offer           *entity.OfferDetails        `json:"offer,omitempty"`
	Media           []entity.MediaRef           `json:"media"`
	Currency        string                      `json:"currency"`
	IsOwner         bool                        `json:"isOwner"`
	CanViewContact  bool                        `json:"canViewContact"`
	UnlockCount     *int                        `json:"unlockCount,omitempty"`
	CreatedAt       time.Time                   `json:"createdAt"`
	UpdatedAt       time.Time                   `json:"updatedAt"`
}

// CanViewContact: владелец, открывший контакт пользователь или открытый контакт.
// Роль администратора доступ к скрытому контакту не даёт.
func CanViewContact(l *entity.Listing, r entity.Requester) bool {
	if !l.Contact.IsHidden {
		return true
	}
	return !r.IsAnonymous() && (l.IsOwnedBy(r.ID) || l.HasUnlocked(r.ID))
}

func maskedContact(c entity.Contact) ContactView {
	return ContactView{IsHidden: true, UnlockCost: c.UnlockCost.Amount}
}

func fullContact(c entity.Contact) ContactView {
	return ContactView{
		IsHidden:   c.IsHidden,
		UnlockCost: c.UnlockCost.Amount,
		Email:      c.Email,
		Phone:      c.Phone,
		AgentName:  c.AgentName,
		AgentPhone: c.AgentPhone,
		AgentEmail: c.AgentEmail,
	}
}

// ContactFor возвращает контакт в той форме, которую requester имеет право видеть.
func ContactFor(l *entity.Listing, r entity.Requester) ContactView {
	if CanViewContact(l, r) {
		return fullContact(l.Contact)
	}
	return maskedContact(l.Contact)
}

// BuildView: единственный способ собрать публичное представление объявления.
func BuildView(l *entity.Listing, r entity.Requester, now time.Time) ListingView {
	canView := CanViewContact(l, r)
	v := ListingView{
		ID:              l.ID,
		OwnerID:         l.OwnerID,
		Kind:            l.Kind,
		LifecycleStatus: l.Status,
		IsActive:        l.IsActive,
		Payment:         PaymentView{IsPaid: l.Payment.IsPaid, PaidAt: l.Payment.PaidAt},
		Contact:         ContactFor(l, r),
		Statistics:      l.Statistics,
		Title:           l.Title,
		Description:     l.Description,
		Sport:           l.Sport,
		Location:        l.Location,
		Media:           append([]entity.MediaRef{}, l.Media...),
		Currency:        l.Contact.UnlockCost.Currency,
		IsOwner:         !r.IsAnonymous() && l.IsOwnedBy(r.ID),
		CanViewContact:  canView,
		CreatedAt:       l.CreatedAt,
		UpdatedAt:       l.UpdatedAt,
	}

	if l.PromotionActive(now) {
		v.Promotion = PromotionView{
			IsPromoted: true,
			Type:       l.Promotion.Type,
			StartDate:  l.Promotion.StartDate,
			EndDate:    l.Promotion.EndDate,
			Position:   l.Promotion.Position,
		}
	}

	switch l.Kind {
	case valueobject.ListingKindPlayer:
		player := l.Player
		v.Player = &player
	case valueobject.ListingKindOffer:
		offer := l.Offer
		v.Offer = &offer
	}

	if l.CanBeManagedBy(r) {
		n := len(l.UnlockedBy)
		v.UnlockCount = &n
	}
	return v
}

func BuildViews(listings []*entity.Listing, r entity.Requester, now time.Time) []ListingView {
	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, BuildView(l, r, now))
	}
	return views
}

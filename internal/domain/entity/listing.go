package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/validation"
)

const RoleAdmin = "admin"

// Requester: уже аутентифицированный пользователь, выполняющий запрос.
// Нулевой ID означает анонимного посетителя.
type Requester struct {
	ID   uuid.UUID
	Role string
}

func (r Requester) IsAdmin() bool {
	return r.Role == RoleAdmin
}

func (r Requester) IsAnonymous() bool {
	return r.ID == uuid.Nil
}

type PaymentState struct {
	IsPaid    bool       `json:"isPaid"`
	PaidAt    *time.Time `json:"paidAt,omitempty"`
	PaymentID *uuid.UUID `json:"paymentId,omitempty"`
}

type Promotion struct {
	IsPromoted bool                      `json:"isPromoted"`
	Type       valueobject.PromotionType `json:"type,omitempty"`
	StartDate  *time.Time                `json:"startDate,omitempty"`
	EndDate    *time.Time                `json:"endDate,omitempty"`
	Position   int                       `json:"position"`
	PaymentID  *uuid.UUID                `json:"paymentId,omitempty"`
}

// IsActiveAt читает окно напрямую: просроченный флаг isPromoted не учитывается.
func (p Promotion) IsActiveAt(now time.Time) bool {
	return p.IsPromoted && p.EndDate != nil && p.EndDate.After(now)
}

type Contact struct {
	IsHidden   bool              `json:"isHidden"`
	UnlockCost valueobject.Money `json:"unlockCost"`
	Email      string            `json:"email,omitempty"`
	Phone      string            `json:"phone,omitempty"`
	AgentName  string            `json:"agentName,omitempty"`
	AgentPhone string            `json:"agentPhone,omitempty"`
	AgentEmail string            `json:"agentEmail,omitempty"`
}

type Unlock struct {
	UserID     uuid.UUID  `json:"userId"`
	UnlockedAt time.Time  `json:"unlockedAt"`
	PaymentID  *uuid.UUID `json:"paymentId,omitempty"`
}

type Statistics struct {
	Views int64 `json:"views"`
}

type TransferInfo struct {
	Club   string     `json:"club,omitempty"`
	Season string     `json:"season,omitempty"`
	Fee    float64    `json:"fee,omitempty"`
	Date   *time.Time `json:"date,omitempty"`
}

type PlayerDetails struct {
	FullName      string       `json:"fullName,omitempty"`
	Position      string       `json:"position,omitempty"`
	BirthYear     int          `json:"birthYear,omitempty"`
	Nationality   string       `json:"nationality,omitempty"`
	HeightCm      int          `json:"heightCm,omitempty"`
	WeightKg      int          `json:"weightKg,omitempty"`
	PreferredFoot string       `json:"preferredFoot,omitempty"`
	CurrentClub   string       `json:"currentClub,omitempty"`
	TransferredTo TransferInfo `json:"transferredTo"`
}

type OfferDetails struct {
	ClubName      string                  `json:"clubName,omitempty"`
	Position      string                  `json:"position,omitempty"`
	Requirements  string                  `json:"requirements,omitempty"`
	MonthlySalary valueobject.SalaryRange `json:"monthlySalary"`
	ExpiryDate    *time.Time              `json:"expiryDate,omitempty"`
}

type MediaRef struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"contentType,omitempty"`
}

// Listing: объявление игрока или предложение клуба.
// Все вложенные записи всегда присутствуют; отсутствие значения = нулевое значение.
type Listing struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Kind        valueobject.ListingKind
	Status      valueobject.LifecycleStatus
	Payment     PaymentState
	IsActive    bool
	Promotion   Promotion
	Contact     Contact
	UnlockedBy  []Unlock
	Statistics  Statistics
	Title       string
	Description string
	Sport       string
	Location    string
	Player      PlayerDetails
	Offer       OfferDetails
	Media       []MediaRef
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ListingContent: пользовательские данные объявления при создании.
type ListingContent struct {
	Kind        valueobject.ListingKind
	Title       string
	Description string
	Sport       string
	Location    string
	Player      PlayerDetails
	Offer       OfferDetails
	Contact     Contact
}

func NewListing(ownerID uuid.UUID, content ListingContent, unlockCost valueobject.Money, now time.Time) (*Listing, error) {
	if !content.Kind.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректный тип объявления")
	}

	l := &Listing{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Kind:        content.Kind,
		Status:      valueobject.LifecycleStatusPendingPayment,
		IsActive:    true,
		Title:       strings.TrimSpace(content.Title),
		Description: content.Description,
		Sport:       content.Sport,
		Location:    content.Location,
		Contact:     content.Contact,
		UnlockedBy:  []Unlock{},
		Media:       []MediaRef{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.Contact.UnlockCost = unlockCost

	switch content.Kind {
	case valueobject.ListingKindPlayer:
		l.Player = content.Player
	case valueobject.ListingKindOffer:
		l.Offer = content.Offer
		if err := validateExpiry(l.Offer.ExpiryDate, now); err != nil {
			return nil, err
		}
	}

	if err := l.validate(now); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listing) validate(now time.Time) error {
	if err := validation.ValidateListingTitle(l.Title); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	checks := []error{
		validation.ValidateLength("описание", l.Description, 0, validation.MaxListingDescriptionLength),
		validation.ValidateSport(l.Sport),
		validation.ValidateLocation(l.Location),
		validation.ValidatePhone(l.Contact.Phone),
		validation.ValidatePhone(l.Contact.AgentPhone),
		validation.ValidateLength("имя агента", l.Contact.AgentName, 0, validation.MaxPersonNameLength),
	}
	for _, email := range []string{l.Contact.Email, l.Contact.AgentEmail} {
		if email != "" {
			checks = append(checks, validation.ValidateEmail(email))
		}
	}
	for _, err := range checks {
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if l.Kind == valueobject.ListingKindOffer {
		if err := l.Offer.MonthlySalary.Validate(); err != nil {
			return err
		}
	}
	if l.Kind == valueobject.ListingKindPlayer && l.Player.BirthYear != 0 {
		if l.Player.BirthYear < 1900 || l.Player.BirthYear > now.Year() {
			return apperror.New(apperror.ErrCodeValidation, "некорректный год рождения")
		}
	}
	return nil
}

func validateExpiry(expiry *time.Time, now time.Time) error {
	if expiry == nil {
		return apperror.New(apperror.ErrCodeValidation, "для предложения обязателен срок действия")
	}
	if !expiry.After(now) {
		return apperror.New(apperror.ErrCodeValidation, "срок действия предложения должен быть в будущем")
	}
	return nil
}

func (l *Listing) IsOwnedBy(userID uuid.UUID) bool {
	return l.OwnerID == userID
}

// CanBeManagedBy: владелец или администратор.
func (l *Listing) CanBeManagedBy(r Requester) bool {
	return !r.IsAnonymous() && (l.IsOwnedBy(r.ID) || r.IsAdmin())
}

// IsReadableBy: владелец и администратор видят всё, остальные видят только оплаченные и не удалённые.
func (l *Listing) IsReadableBy(r Requester) bool {
	if l.CanBeManagedBy(r) {
		return true
	}
	return l.IsActive && l.Payment.IsPaid
}

// IsPubliclyListed: попадание в публичную выдачу по умолчанию.
func (l *Listing) IsPubliclyListed() bool {
	return l.IsActive && l.Payment.IsPaid && l.Status == valueobject.LifecycleStatusActive
}

func (l *Listing) transition(to valueobject.LifecycleStatus) error {
	if !l.Status.CanTransitionTo(to) {
		return apperror.New(apperror.ErrCodeBadRequest, "недопустимый переход статуса объявления")
	}
	l.Status = to
	return nil
}

// MarkExempt активирует объявление без оплаты (привилегированный автор).
func (l *Listing) MarkExempt(now time.Time) {
	l.Payment = PaymentState{IsPaid: true, PaidAt: &now}
	l.Status = valueobject.LifecycleStatusActive
}

// Activate применяет оплату размещения. Возвращает false, если объявление уже оплачено.
func (l *Listing) Activate(paymentID uuid.UUID, now time.Time) (bool, error) {
	if l.Payment.IsPaid {
		return false, nil
	}
	if err := l.transition(valueobject.LifecycleStatusActive); err != nil {
		return false, err
	}
	l.Payment = PaymentState{IsPaid: true, PaidAt: &now, PaymentID: &paymentID}
	l.UpdatedAt = now
	return true, nil
}

// NeedsExpiry: активное предложение с истёкшим сроком.
func (l *Listing) NeedsExpiry(now time.Time) bool {
	return l.Kind == valueobject.ListingKindOffer &&
		l.Status == valueobject.LifecycleStatusActive &&
		l.Offer.ExpiryDate != nil &&
		l.Offer.ExpiryDate.Before(now)
}

func (l *Listing) Expire(now time.Time) bool {
	if !l.NeedsExpiry(now) {
		return false
	}
	l.Status = valueobject.LifecycleStatusExpired
	l.UpdatedAt = now
	return true
}

// Deactivate: мягкое удаление.
func (l *Listing) Deactivate(now time.Time) error {
	if !l.IsActive {
		return apperror.ErrListingInactive
	}
	if err := l.transition(valueobject.LifecycleStatusInactive); err != nil {
		return err
	}
	l.IsActive = false
	l.UpdatedAt = now
	return nil
}

func (l *Listing) PromotionActive(now time.Time) bool {
	return l.Promotion.IsActiveAt(now)
}

// HasLapsedPromotion: флаг ещё стоит, но окно уже закрылось.
func (l *Listing) HasLapsedPromotion(now time.Time) bool {
	return l.Promotion.IsPromoted && !l.Promotion.IsActiveAt(now)
}

func (l *Listing) ClearLapsedPromotion(now time.Time) bool {
	if !l.HasLapsedPromotion(now) {
		return false
	}
	l.Promotion.IsPromoted = false
	return true
}

// NewPromotion строит окно продвижения, начинающееся в now.
func NewPromotion(t valueobject.PromotionType, days int, paymentID *uuid.UUID, now time.Time) Promotion {
	end := now.AddDate(0, 0, days)
	start := now
	return Promotion{
		IsPromoted: true,
		Type:       t,
		StartDate:  &start,
		EndDate:    &end,
		Position:   t.Position(),
		PaymentID:  paymentID,
	}
}

// ApplyPromotion включает продвижение. Повтор того же платежа ничего не меняет (false, nil),
// при чужой активной промоакции возвращается ErrAlreadyPromoted.
func (l *Listing) ApplyPromotion(p Promotion, now time.Time) (bool, error) {
	if l.PromotionActive(now) {
		if p.PaymentID != nil && l.Promotion.PaymentID != nil && *p.PaymentID == *l.Promotion.PaymentID {
			return false, nil
		}
		return false, apperror.ErrAlreadyPromoted
	}
	l.Promotion = p
	l.UpdatedAt = now
	return true, nil
}

func (l *Listing) HasUnlocked(userID uuid.UUID) bool {
	for _, u := range l.UnlockedBy {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

// UnlockOf возвращает запись журнала открытий пользователя.
func (l *Listing) UnlockOf(userID uuid.UUID) (Unlock, bool) {
	for _, u := range l.UnlockedBy {
		if u.UserID == userID {
			return u, true
		}
	}
	return Unlock{}, false
}

// AddUnlock добавляет запись в журнал открытий, только если пользователя там ещё нет.
func (l *Listing) AddUnlock(u Unlock) bool {
	if l.HasUnlocked(u.UserID) {
		return false
	}
	l.UnlockedBy = append(l.UnlockedBy, u)
	return true
}

// MediaKeys возвращает ключи всех сохранённых файлов.
func (l *Listing) MediaKeys() []string {
	keys := make([]string, 0, len(l.Media))
	for _, m := range l.Media {
		if m.Key != "" {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

package dto

import (
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
)

type TransferDTO struct {
	Club   string     `json:"club"`
	Season string     `json:"season"`
	Fee    float64    `json:"fee"`
	Date   *time.Time `json:"date"`
}

type PlayerDTO struct {
	FullName      string      `json:"fullName"`
	Position      string      `json:"position"`
	BirthYear     int         `json:"birthYear"`
	Nationality   string      `json:"nationality"`
	HeightCm      int         `json:"heightCm"`
	WeightKg      int         `json:"weightKg"`
	PreferredFoot string      `json:"preferredFoot"`
	CurrentClub   string      `json:"currentClub"`
	TransferredTo TransferDTO `json:"transferredTo"`
}

type SalaryDTO struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

type OfferDTO struct {
	ClubName      string     `json:"clubName"`
	Position      string     `json:"position"`
	Requirements  string     `json:"requirements"`
	MonthlySalary SalaryDTO  `json:"monthlySalary"`
	ExpiryDate    *time.Time `json:"expiryDate"`
}

type ContactDTO struct {
	IsHidden   bool     `json:"isHidden"`
	UnlockCost *float64 `json:"unlockCost"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	AgentName  string   `json:"agentName"`
	AgentPhone string   `json:"agentPhone"`
	AgentEmail string   `json:"agentEmail"`
}

type CreateListingRequest struct {
	Kind        string     `json:"kind" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Sport       string     `json:"sport"`
	Location    string     `json:"location"`
	Player      *PlayerDTO `json:"player"`
	Offer       *OfferDTO  `json:"offer"`
	Contact     ContactDTO `json:"contact"`
}

// ToContent переводит запрос в доменные данные. Вид объявления проверяется здесь,
// остальные правила проверяет сущность.
func (r CreateListingRequest) ToContent() (entity.ListingContent, error) {
	kind, err := valueobject.NewListingKind(r.Kind)
	if err != nil {
		return entity.ListingContent{}, err
	}

	content := entity.ListingContent{
		Kind:        kind,
		Title:       r.Title,
		Description: r.Description,
		Sport:       r.Sport,
		Location:    r.Location,
		Contact: entity.Contact{
			IsHidden:   r.Contact.IsHidden,
			Email:      r.Contact.Email,
			Phone:      r.Contact.Phone,
			AgentName:  r.Contact.AgentName,
			AgentPhone: r.Contact.AgentPhone,
			AgentEmail: r.Contact.AgentEmail,
		},
	}
	if r.Player != nil {
		content.Player = entity.PlayerDetails{
			FullName:      r.Player.FullName,
			Position:      r.Player.Position,
			BirthYear:     r.Player.BirthYear,
			Nationality:   r.Player.Nationality,
			HeightCm:      r.Player.HeightCm,
			WeightKg:      r.Player.WeightKg,
			PreferredFoot: r.Player.PreferredFoot,
			CurrentClub:   r.Player.CurrentClub,
			TransferredTo: entity.TransferInfo{
				Club:   r.Player.TransferredTo.Club,
				Season: r.Player.TransferredTo.Season,
				Fee:    r.Player.TransferredTo.Fee,
				Date:   r.Player.TransferredTo.Date,
			},
		}
	}
	if r.Offer != nil {
		content.Offer = entity.OfferDetails{
			ClubName:     r.Offer.ClubName,
			Position:     r.Offer.Position,
			Requirements: r.Offer.Requirements,
			MonthlySalary: valueobject.SalaryRange{
				Min:      r.Offer.MonthlySalary.Min,
				Max:      r.Offer.MonthlySalary.Max,
				Currency: r.Offer.MonthlySalary.Currency,
			},
			ExpiryDate: r.Offer.ExpiryDate,
		}
	}
	return content, nil
}

type TransferPatchDTO struct {
	Club   *string    `json:"club"`
	Season *string    `json:"season"`
	Fee    *float64   `json:"fee"`
	Date   *time.Time `json:"date"`
}

type PlayerPatchDTO struct {
	FullName      *string           `json:"fullName"`
	Position      *string           `json:"position"`
	BirthYear     *int              `json:"birthYear"`
	Nationality   *string           `json:"nationality"`
	HeightCm      *int              `json:"heightCm"`
	WeightKg      *int              `json:"weightKg"`
	PreferredFoot *string           `json:"preferredFoot"`
	CurrentClub   *string           `json:"currentClub"`
	TransferredTo *TransferPatchDTO `json:"transferredTo"`
}

type SalaryPatchDTO struct {
	Min      *float64 `json:"min"`
	Max      *float64 `json:"max"`
	Currency *string  `json:"currency"`
}

type OfferPatchDTO struct {
	ClubName      *string         `json:"clubName"`
	Position      *string         `json:"position"`
	Requirements  *string         `json:"requirements"`
	MonthlySalary *SalaryPatchDTO `json:"monthlySalary"`
	ExpiryDate    *time.Time      `json:"expiryDate"`
}

type ContactPatchDTO struct {
	IsHidden   *bool   `json:"isHidden"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	AgentName  *string `json:"agentName"`
	AgentPhone *string `json:"agentPhone"`
	AgentEmail *string `json:"agentEmail"`
}

type UpdateListingRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Sport       *string          `json:"sport"`
	Location    *string          `json:"location"`
	Contact     *ContactPatchDTO `json:"contact"`
	Player      *PlayerPatchDTO  `json:"player"`
	Offer       *OfferPatchDTO   `json:"offer"`
}

func (r UpdateListingRequest) ToPatch() entity.ListingPatch {
	patch := entity.ListingPatch{
		Title:       r.Title,
		Description: r.Description,
		Sport:       r.Sport,
		Location:    r.Location,
	}
	if r.Contact != nil {
		patch.Contact = &entity.ContactPatch{
			IsHidden:   r.Contact.IsHidden,
			Email:      r.Contact.Email,
			Phone:      r.Contact.Phone,
			AgentName:  r.Contact.AgentName,
			AgentPhone: r.Contact.AgentPhone,
			AgentEmail: r.Contact.AgentEmail,
		}
	}
	if p := r.Player; p != nil {
		patch.Player = &entity.PlayerPatch{
			FullName:      p.FullName,
			Position:      p.Position,
			BirthYear:     p.BirthYear,
			Nationality:   p.Nationality,
			HeightCm:      p.HeightCm,
			WeightKg:      p.WeightKg,
			PreferredFoot: p.PreferredFoot,
			CurrentClub:   p.CurrentClub,
		}
		if t := p.TransferredTo; t != nil {
			patch.Player.TransferredTo = &entity.TransferPatch{Club: t.Club, Season: t.Season, Fee: t.Fee, Date: t.Date}
		}
	}
	if o := r.Offer; o != nil {
		patch.Offer = &entity.OfferPatch{
			ClubName:     o.ClubName,
			Position:     o.Position,
			Requirements: o.Requirements,
			ExpiryDate:   o.ExpiryDate,
		}
		if s := o.MonthlySalary; s != nil {
			patch.Offer.MonthlySalary = &entity.SalaryPatch{Min: s.Min, Max: s.Max, Currency: s.Currency}
		}
	}
	return patch
}

type PromoteListingRequest struct {
	Days int    `json:"days" binding:"required"`
	Type string `json:"type"`
}

// PaymentHandleResponse: данные для перехода к оплате.
type PaymentHandleResponse struct {
	PaymentID  string                  `json:"paymentId,omitempty"`
	Type       valueobject.PaymentType `json:"type"`
	Amount     float64                 `json:"amount"`
	Currency   string                  `json:"currency"`
	PaymentURL string                  `json:"paymentUrl,omitempty"`
}

type CreateListingResponse struct {
	Listing paywall.ListingView    `json:"listing"`
	Payment *PaymentHandleResponse `json:"payment,omitempty"`
}

type PromoteListingResponse struct {
	Applied       bool                   `json:"applied"`
	Promotion     *paywall.PromotionView `json:"promotion,omitempty"`
	PaymentID     string                 `json:"paymentId,omitempty"`
	PaymentURL    string                 `json:"paymentUrl,omitempty"`
	PromotionCost float64                `json:"promotionCost"`
	Currency      string                 `json:"currency"`
}

type UnlockContactResponse struct {
	ContactInfo *paywall.ContactView `json:"contactInfo,omitempty"`
	PaymentID   string               `json:"paymentId,omitempty"`
	PaymentURL  string               `json:"paymentUrl,omitempty"`
	UnlockCost  float64              `json:"unlockCost"`
	Currency    string               `json:"currency"`
}

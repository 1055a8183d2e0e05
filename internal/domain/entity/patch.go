package entity

import (
	"strings"
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
)

// ListingPatch описывает частичное обновление. nil означает "поле не менялось".
type ListingPatch struct {
	Title       *string
	Description *string
	Sport       *string
	Location    *string
	Contact     *ContactPatch
	Player      *PlayerPatch
	Offer       *OfferPatch
}

type ContactPatch struct {
	IsHidden   *bool
	Email      *string
	Phone      *string
	AgentName  *string
	AgentPhone *string
	AgentEmail *string
}

type TransferPatch struct {
	Club   *string
	Season *string
	Fee    *float64
	Date   *time.Time
}

type PlayerPatch struct {
	FullName      *string
	Position      *string
	BirthYear     *int
	Nationality   *string
	HeightCm      *int
	WeightKg      *int
	PreferredFoot *string
	CurrentClub   *string
	TransferredTo *TransferPatch
}

type SalaryPatch struct {
	Min      *float64
	Max      *float64
	Currency *string
}

type OfferPatch struct {
	ClubName      *string
	Position      *string
	Requirements  *string
	MonthlySalary *SalaryPatch
	ExpiryDate    *time.Time
}

// PatchResult сообщает, какие значимые для уведомлений поля изменились.
type PatchResult struct {
	TransferChanged bool
}

func (p ListingPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Sport == nil && p.Location == nil &&
		p.Contact == nil && p.Player == nil && p.Offer == nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func mergeContact(dst Contact, p *ContactPatch) Contact {
	if p == nil {
		return dst
	}
	if p.IsHidden != nil {
		dst.IsHidden = *p.IsHidden
	}
	setString(&dst.Email, p.Email)
	setString(&dst.Phone, p.Phone)
	setString(&dst.AgentName, p.AgentName)
	setString(&dst.AgentPhone, p.AgentPhone)
	setString(&dst.AgentEmail, p.AgentEmail)
	return dst
}

func mergeTransferredTo(dst TransferInfo, p *TransferPatch) TransferInfo {
	if p == nil {
		return dst
	}
	setString(&dst.Club, p.Club)
	setString(&dst.Season, p.Season)
	setFloat(&dst.Fee, p.Fee)
	if p.Date != nil {
		d := *p.Date
		dst.Date = &d
	}
	return dst
}

func mergePlayer(dst PlayerDetails, p *PlayerPatch) PlayerDetails {
	if p == nil {
		return dst
	}
	setString(&dst.FullName, p.FullName)
	setString(&dst.Position, p.Position)
	setInt(&dst.BirthYear, p.BirthYear)
	setString(&dst.Nationality, p.Nationality)
	setInt(&dst.HeightCm, p.HeightCm)
	setInt(&dst.WeightKg, p.WeightKg)
	setString(&dst.PreferredFoot, p.PreferredFoot)
	setString(&dst.CurrentClub, p.CurrentClub)
	dst.TransferredTo = mergeTransferredTo(dst.TransferredTo, p.TransferredTo)
	return dst
}

func mergeMonthlySalary(dst valueobject.SalaryRange, p *SalaryPatch) valueobject.SalaryRange {
	if p == nil {
		return dst
	}
	setFloat(&dst.Min, p.Min)
	setFloat(&dst.Max, p.Max)
	setString(&dst.Currency, p.Currency)
	return dst
}

func mergeOffer(dst OfferDetails, p *OfferPatch) OfferDetails {
	if p == nil {
		return dst
	}
	setString(&dst.ClubName, p.ClubName)
	setString(&dst.Position, p.Position)
	setString(&dst.Requirements, p.Requirements)
	dst.MonthlySalary = mergeMonthlySalary(dst.MonthlySalary, p.MonthlySalary)
	if p.ExpiryDate != nil {
		d := *p.ExpiryDate
		dst.ExpiryDate = &d
	}
	return dst
}

// ApplyPatch применяет частичное обновление целиком или не применяет его вовсе.
func (l *Listing) ApplyPatch(p ListingPatch, now time.Time) (PatchResult, error) {
	var result PatchResult

	if p.Player != nil && l.Kind != valueobject.ListingKindPlayer {
		return result, apperror.New(apperror.ErrCodeValidation, "данные игрока недоступны для предложения клуба")
	}
	if p.Offer != nil && l.Kind != valueobject.ListingKindOffer {
		return result, apperror.New(apperror.ErrCodeValidation, "данные предложения недоступны для объявления игрока")
	}

	next := *l
	if p.Title != nil {
		next.Title = strings.TrimSpace(*p.Title)
	}
	setString(&next.Description, p.Description)
	setString(&next.Sport, p.Sport)
	setString(&next.Location, p.Location)
	next.Contact = mergeContact(next.Contact, p.Contact)
	next.Player = mergePlayer(next.Player, p.Player)
	next.Offer = mergeOffer(next.Offer, p.Offer)

	if p.Offer != nil && p.Offer.ExpiryDate != nil {
		if err := validateExpiry(next.Offer.ExpiryDate, now); err != nil {
			return result, err
		}
	}
	if err := next.validate(now); err != nil {
		return result, err
	}

	result.TransferChanged = next.Player.TransferredTo.Club != l.Player.TransferredTo.Club
	next.UpdatedAt = now
	*l = next
	return result, nil
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/promotion"
)

var errPendingStatus = apperror.New(apperror.ErrCodeValidation, "статус pending не может прийти в уведомлении")

// WebhookRequest: тело вызова от платёжного шлюза.
type WebhookRequest struct {
	PaymentID string `json:"payment_id" binding:"required"`
	Status    string `json:"status" binding:"required"`
	Reason    string `json:"reason"`
}

func (r WebhookRequest) ToInput() (payment.CallbackInput, error) {
	id, err := uuid.Parse(r.PaymentID)
	if err != nil {
		return payment.CallbackInput{}, err
	}
	status, err := valueobject.NewPaymentStatus(r.Status)
	if err != nil {
		return payment.CallbackInput{}, err
	}
	if status == valueobject.PaymentStatusPending {
		return payment.CallbackInput{}, errPendingStatus
	}
	return payment.CallbackInput{PaymentID: id, Status: status, Reason: r.Reason}, nil
}

type WebhookResponse struct {
	Received bool            `json:"received"`
	Outcome  payment.Outcome `json:"outcome,omitempty"`
}

type PaymentRecordResponse struct {
	ID            uuid.UUID                  `json:"id"`
	Type          valueobject.PaymentType    `json:"type"`
	Amount        float64                    `json:"amount"`
	Currency      string                     `json:"currency"`
	ListingID     uuid.UUID                  `json:"relatedListingId"`
	Status        valueobject.PaymentStatus  `json:"status"`
	PaymentURL    *string                    `json:"paymentUrl,omitempty"`
	PromotionType *valueobject.PromotionType `json:"promotionType,omitempty"`
	PromotionDays int                        `json:"promotionDays,omitempty"`
	FailureReason *string                    `json:"failureReason,omitempty"`
	CreatedAt     time.Time                  `json:"createdAt"`
	PaidAt        *time.Time                 `json:"paidAt,omitempty"`
}

func ToPaymentRecordResponse(p *entity.Payment) PaymentRecordResponse {
	resp := PaymentRecordResponse{
		ID:            p.ID,
		Type:          p.Type,
		Amount:        p.Amount.Amount,
		Currency:      p.Amount.Currency,
		ListingID:     p.ListingID,
		Status:        p.Status,
		PromotionType: p.PromotionType,
		PromotionDays: p.PromotionDays,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		PaidAt:        p.PaidAt,
	}
	if p.IsPending() {
		resp.PaymentURL = p.CheckoutURL
	}
	return resp
}

func ToPaymentRecordResponses(items []*entity.Payment) []PaymentRecordResponse {
	out := make([]PaymentRecordResponse, 0, len(items))
	for _, p := range items {
		out = append(out, ToPaymentRecordResponse(p))
	}
	return out
}

func ToPaymentHandleResponse(h *payment.Handle) *PaymentHandleResponse {
	if h == nil {
		return nil
	}
	resp := &PaymentHandleResponse{
		Type:       h.Type,
		Amount:     h.Amount.Amount,
		Currency:   h.Amount.Currency,
		PaymentURL: h.URL,
	}
	if h.PaymentID != uuid.Nil {
		resp.PaymentID = h.PaymentID.String()
	}
	return resp
}

func ToPromoteListingResponse(res *promotion.PromoteResult) PromoteListingResponse {
	resp := PromoteListingResponse{
		Applied:       res.Applied,
		PromotionCost: res.Cost.Amount,
		Currency:      res.Cost.Currency,
	}
	if res.Promotion != nil {
		resp.Promotion = &paywall.PromotionView{
			IsPromoted: res.Promotion.IsPromoted,
			Type:       res.Promotion.Type,
			StartDate:  res.Promotion.StartDate,
			EndDate:    res.Promotion.EndDate,
			Position:   res.Promotion.Position,
		}
	}
	if res.Payment != nil {
		resp.PaymentID = res.Payment.PaymentID.String()
		resp.PaymentURL = res.Payment.URL
	}
	return resp
}

func ToUnlockContactResponse(res *paywall.UnlockResult) UnlockContactResponse {
	resp := UnlockContactResponse{
		ContactInfo: res.Contact,
		UnlockCost:  res.UnlockCost.Amount,
		Currency:    res.UnlockCost.Currency,
	}
	if res.Payment != nil {
		resp.PaymentID = res.Payment.PaymentID.String()
		resp.PaymentURL = res.Payment.URL
	}
	return resp
}

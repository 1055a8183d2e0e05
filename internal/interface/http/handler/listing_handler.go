package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/sportmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/sportmarket-backend/internal/pkg/clock"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/promotion"
)

// ListingUseCases собирает сценарии, которые обслуживает ListingHandler.
type ListingUseCases struct {
	Create       *listing.CreateListingUseCase
	Update       *listing.UpdateListingUseCase
	Delete       *listing.DeleteListingUseCase
	Get          *listing.GetListingUseCase
	List         *listing.ListListingsUseCase
	ListMy       *listing.ListMyListingsUseCase
	Pay          *listing.PayListingUseCase
	ReplaceMedia *listing.ReplaceMediaUseCase
	Promote      *promotion.PromoteListingUseCase
	Unlock       *paywall.RequestUnlockUseCase
}

type ListingHandler struct {
	uc    ListingUseCases
	clock clock.Clock
}

func NewListingHandler(uc ListingUseCases, clk clock.Clock) *ListingHandler {
	return &ListingHandler{uc: uc, clock: clk}
}

// CreateListing POST /listings
func (h *ListingHandler) CreateListing(c *gin.Context) {
	requester := middleware.RequesterFrom(c)
	if requester.IsAnonymous() {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	var req dto.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	content, err := req.ToContent()
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.uc.Create.Execute(c.Request.Context(), listing.CreateListingInput{
		Requester:  requester,
		Content:    content,
		UnlockCost: req.Contact.UnlockCost,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.CreateListingResponse{
		Listing: paywall.BuildView(result.Listing, requester, h.clock.Now()),
		Payment: dto.ToPaymentHandleResponse(result.Payment),
	})
}

// ListListings GET /listings
func (h *ListingHandler) ListListings(c *gin.Context) {
	limit, offset := pageParams(c)

	input := listing.ListListingsInput{
		Requester: middleware.RequesterFrom(c),
		Kind:      c.Query("kind"),
		Sport:     c.Query("sport"),
		SortBy:    c.Query("sort"),
		Limit:     limit,
		Offset:    offset,
	}
	if owner := c.Query("ownerId"); owner != "" {
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			response.BadRequest(c, "некорректный ownerId")
			return
		}
		input.OwnerID = &ownerID
	}

	views, total, err := h.uc.List.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, views, total, limit, offset)
}

// ListMyListings GET /listings/my
func (h *ListingHandler) ListMyListings(c *gin.Context) {
	limit, offset := pageParams(c)

	views, total, err := h.uc.ListMy.Execute(c.Request.Context(), middleware.RequesterFrom(c), limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, views, total, limit, offset)
}

// GetListing GET /listings/:id
func (h *ListingHandler) GetListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	view, err := h.uc.Get.Execute(c.Request.Context(), id, middleware.RequesterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// UpdateListing PATCH /listings/:id
func (h *ListingHandler) UpdateListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	var req dto.UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	requester := middleware.RequesterFrom(c)
	updated, err := h.uc.Update.Execute(c.Request.Context(), id, requester, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, paywall.BuildView(updated, requester, h.clock.Now()))
}

// DeleteListing DELETE /listings/:id
func (h *ListingHandler) DeleteListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	if err := h.uc.Delete.Execute(c.Request.Context(), id, middleware.RequesterFrom(c)); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "объявление удалено"})
}

// PayListing POST /listings/:id/pay
func (h *ListingHandler) PayListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	result, err := h.uc.Pay.Execute(c.Request.Context(), id, middleware.RequesterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPaymentHandleResponse(result.Payment))
}

// ReplaceMedia PUT /listings/:id/media (multipart, поле files)
func (h *ListingHandler) ReplaceMedia(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		response.BadRequest(c, "ожидается multipart/form-data")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.BadRequest(c, "поле files обязательно")
		return
	}
	if len(headers) > listing.MaxMediaFiles {
		response.BadRequest(c, "слишком много файлов")
		return
	}

	uploads := make([]listing.MediaUpload, 0, len(headers))
	for _, header := range headers {
		src, err := header.Open()
		if err != nil {
			response.Error(c, err)
			return
		}
		defer src.Close()

		contentType, err := sniffImage(header, src)
		if err != nil {
			response.Error(c, err)
			return
		}
		uploads = append(uploads, listing.MediaUpload{
			Filename:    header.Filename,
			ContentType: contentType,
			Reader:      src,
		})
	}

	requester := middleware.RequesterFrom(c)
	updated, err := h.uc.ReplaceMedia.Execute(c.Request.Context(), id, requester, uploads)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, paywall.BuildView(updated, requester, h.clock.Now()))
}

// PromoteListing POST /listings/:id/promote
func (h *ListingHandler) PromoteListing(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	var req dto.PromoteListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "укажите срок продвижения в днях")
		return
	}

	result, err := h.uc.Promote.Execute(c.Request.Context(), promotion.PromoteInput{
		ListingID: id,
		Requester: middleware.RequesterFrom(c),
		Days:      req.Days,
		Type:      req.Type,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToPromoteListingResponse(result))
}

// UnlockContact POST /listings/:id/unlock-contact
func (h *ListingHandler) UnlockContact(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		response.BadRequest(c, "некорректный ID объявления")
		return
	}

	result, err := h.uc.Unlock.Execute(c.Request.Context(), id, middleware.RequesterFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToUnlockContactResponse(result))
}

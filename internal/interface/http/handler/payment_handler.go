package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/sportmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
)

const (
	SignatureHeader     = "X-Webhook-Signature"
	maxWebhookBodyBytes = 64 * 1024
)

type PaymentHandler struct {
	callback      *payment.HandleCallbackUseCase
	listMy        *payment.ListMyPaymentsUseCase
	dedupe        repository.Deduplicator
	webhookSecret []byte
}

// NewPaymentHandler создаёт хэндлер платежей. dedupe может быть nil: повторы
// тогда отсекает только сам обработчик оплаты.
func NewPaymentHandler(
	callback *payment.HandleCallbackUseCase,
	listMy *payment.ListMyPaymentsUseCase,
	dedupe repository.Deduplicator,
	webhookSecret string,
) *PaymentHandler {
	return &PaymentHandler{
		callback:      callback,
		listMy:        listMy,
		dedupe:        dedupe,
		webhookSecret: []byte(webhookSecret),
	}
}

// Sign вычисляет подпись тела вебхука (hex HMAC-SHA256).
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func (h *PaymentHandler) validSignature(body []byte, signature string) bool {
	if len(h.webhookSecret) == 0 || signature == "" {
		return false
	}
	expected, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, h.webhookSecret)
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), expected)
}

// Webhook POST /payments/webhook
func (h *PaymentHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes+1))
	if err != nil || len(body) > maxWebhookBodyBytes {
		response.BadRequest(c, "некорректное тело запроса")
		return
	}

	if !h.validSignature(body, c.GetHeader(SignatureHeader)) {
		logger.Log.WithField("ip", c.ClientIP()).Warn("webhook: неверная подпись")
		response.Unauthorized(c, "неверная подпись")
		return
	}

	var req dto.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil || req.PaymentID == "" || req.Status == "" {
		response.BadRequest(c, "некорректные данные уведомления")
		return
	}
	input, err := req.ToInput()
	if err != nil {
		response.BadRequest(c, "некорректные данные уведомления")
		return
	}

	ctx := c.Request.Context()
	key := fmt.Sprintf("webhook:%s:%s", input.PaymentID, input.Status)
	if h.dedupe != nil {
		first, err := h.dedupe.FirstSeen(ctx, key)
		if err != nil {
			logger.Log.WithError(err).Warn("webhook: дедупликация недоступна, обработка продолжается")
		} else if !first {
			c.JSON(http.StatusOK, response.Response{
				Success: true,
				Data:    dto.WebhookResponse{Received: true, Outcome: payment.OutcomeDuplicate},
			})
			return
		}
	}

	result, err := h.callback.Execute(ctx, input)
	if err != nil {
		// Ключ снимается, чтобы повтор от шлюза был обработан.
		if h.dedupe != nil {
			if ferr := h.dedupe.Forget(ctx, key); ferr != nil {
				logger.Log.WithError(ferr).Warn("webhook: не удалось снять ключ дедупликации")
			}
		}
		logger.Log.WithFields(logrus.Fields{"payment_id": input.PaymentID}).WithError(err).
			Error("webhook: ошибка обработки уведомления")
		response.Error(c, err)
		return
	}

	response.Success(c, dto.WebhookResponse{Received: true, Outcome: result.Outcome})
}

// ListMyPayments GET /payments/my
func (h *PaymentHandler) ListMyPayments(c *gin.Context) {
	requester := middleware.RequesterFrom(c)
	if requester.IsAnonymous() {
		response.Unauthorized(c, "требуется авторизация")
		return
	}

	limit, offset := pageParams(c)

	items, total, err := h.listMy.Execute(c.Request.Context(), requester.ID, limit, offset)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, dto.ToPaymentRecordResponses(items), total, limit, offset)
}

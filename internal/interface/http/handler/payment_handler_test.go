package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/usecasetest"
)

const webhookSecret = "test-webhook-secret"

type webhookBody struct {
	Success bool `json:"success"`
	Data    struct {
		Received bool   `json:"received"`
		Outcome  string `json:"outcome"`
	} `json:"data"`
}

func setupWebhook(t *testing.T) (*usecasetest.Env, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := usecasetest.NewEnv(t)
	h := handler.NewPaymentHandler(
		env.Callback,
		payment.NewListMyPaymentsUseCase(env.Payments),
		memory.NewDeduplicator(time.Hour, env.Clock),
		webhookSecret,
	)
	r := gin.New()
	r.POST("/api/payments/webhook", h.Webhook)
	r.GET("/api/payments/my", h.ListMyPayments)
	return env, r
}

func postWebhook(r *gin.Engine, body []byte, signature string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(handler.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signed(body []byte) string {
	return handler.Sign([]byte(webhookSecret), body)
}

func TestWebhook_RejectsBadSignature(t *testing.T) {
	_, r := setupWebhook(t)
	body := []byte(`{"payment_id":"` + uuid.NewString() + `","status":"paid"}`)

	w := postWebhook(r, body, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(r, body, handler.Sign([]byte("other-secret"), body))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postWebhook(r, body, "not-hex")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhook_RejectsMalformedBody(t *testing.T) {
	_, r := setupWebhook(t)

	for _, body := range [][]byte{
		[]byte(`{broken`),
		[]byte(`{"status":"paid"}`),
		[]byte(`{"payment_id":"not-a-uuid","status":"paid"}`),
		[]byte(`{"payment_id":"` + uuid.NewString() + `","status":"pending"}`),
		[]byte(`{"payment_id":"` + uuid.NewString() + `","status":"refunded"}`),
	} {
		w := postWebhook(r, body, signed(body))
		assert.Equal(t, http.StatusBadRequest, w.Code, string(body))
	}
}

func TestWebhook_AppliesPaymentOnce(t *testing.T) {
	env, r := setupWebhook(t)
	owner := usecasetest.User()
	l := env.Seed(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"), nil)
	handle, err := env.Checkout.Open(context.Background(), payment.CheckoutDraft{
		UserID:    owner.ID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeAddListing,
		Amount:    env.Pricing.ListingPrice(l.Kind),
	})
	require.NoError(t, err)

	body := []byte(`{"payment_id":"` + handle.PaymentID.String() + `","status":"paid"}`)

	w := postWebhook(r, body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)
	var first webhookBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.True(t, first.Data.Received)
	assert.Equal(t, string(payment.OutcomeApplied), first.Data.Outcome)

	w = postWebhook(r, body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)
	var second webhookBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, string(payment.OutcomeDuplicate), second.Data.Outcome)

	assert.Equal(t, valueobject.LifecycleStatusActive, env.Reload(t, l.ID).Status)
}

func TestWebhook_UnknownPaymentAcknowledged(t *testing.T) {
	_, r := setupWebhook(t)
	body := []byte(`{"payment_id":"` + uuid.NewString() + `","status":"paid"}`)

	w := postWebhook(r, body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp webhookBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.OutcomeAnomaly), resp.Data.Outcome)
}

func TestListMyPayments_Unauthorized(t *testing.T) {
	_, r := setupWebhook(t)

	req, _ := http.NewRequest(http.MethodGet, "/api/payments/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

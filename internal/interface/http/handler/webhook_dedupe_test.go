package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/usecasetest"
)

type mockDeduplicator struct {
	mock.Mock
}

func (m *mockDeduplicator) FirstSeen(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *mockDeduplicator) Forget(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func setupWebhookWithDedupe(t *testing.T, dedupe *mockDeduplicator) (*usecasetest.Env, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := usecasetest.NewEnv(t)
	h := handler.NewPaymentHandler(env.Callback, payment.NewListMyPaymentsUseCase(env.Payments), dedupe, webhookSecret)
	r := gin.New()
	r.POST("/api/payments/webhook", h.Webhook)
	return env, r
}

func openListingCheckout(t *testing.T, env *usecasetest.Env) (*payment.Handle, []byte) {
	t.Helper()
	owner := usecasetest.User()
	l := env.Seed(t, owner, usecasetest.PlayerContent("Вратарь ищет клуб"), nil)
	handle, err := env.Checkout.Open(context.Background(), payment.CheckoutDraft{
		UserID:    owner.ID,
		ListingID: l.ID,
		Type:      valueobject.PaymentTypeAddListing,
		Amount:    env.Pricing.ListingPrice(l.Kind),
	})
	require.NoError(t, err)
	return handle, []byte(`{"payment_id":"` + handle.PaymentID.String() + `","status":"paid"}`)
}

func TestWebhook_SkipsEventSeenBefore(t *testing.T) {
	dedupe := new(mockDeduplicator)
	env, r := setupWebhookWithDedupe(t, dedupe)
	handle, body := openListingCheckout(t, env)

	key := "webhook:" + handle.PaymentID.String() + ":paid"
	dedupe.On("FirstSeen", mock.Anything, key).Return(false, nil).Once()

	w := postWebhook(r, body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp webhookBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.OutcomeDuplicate), resp.Data.Outcome)

	// обработчик оплаты не вызывался
	p, err := env.Payments.FindByID(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusPending, p.Status)
	dedupe.AssertExpectations(t)
	dedupe.AssertNotCalled(t, "Forget", mock.Anything, mock.Anything)
}

func TestWebhook_ProcessesWhenDedupeUnavailable(t *testing.T) {
	dedupe := new(mockDeduplicator)
	env, r := setupWebhookWithDedupe(t, dedupe)
	handle, body := openListingCheckout(t, env)

	dedupe.On("FirstSeen", mock.Anything, mock.AnythingOfType("string")).Return(false, errors.New("redis: connection refused"))

	w := postWebhook(r, body, signed(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp webhookBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(payment.OutcomeApplied), resp.Data.Outcome)

	p, err := env.Payments.FindByID(context.Background(), handle.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.PaymentStatusPaid, p.Status)
	dedupe.AssertExpectations(t)
}

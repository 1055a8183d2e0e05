package router_test

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

	"github.com/ignatzorin/sportmarket-backend/internal/config"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/goroutine"
	"github.com/ignatzorin/sportmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/sportmarket-backend/internal/http/router"
	"github.com/ignatzorin/sportmarket-backend/internal/infrastructure/memory"
	"github.com/ignatzorin/sportmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/sportmarket-backend/internal/logger"
	"github.com/ignatzorin/sportmarket-backend/internal/service"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/listing"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/payment"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/paywall"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/promotion"
	"github.com/ignatzorin/sportmarket-backend/internal/usecase/usecasetest"
	"github.com/ignatzorin/sportmarket-backend/internal/ws"
)

const webhookSecret = "router-test-webhook-secret"

type testServer struct {
	env    *usecasetest.Env
	engine *gin.Engine
	tokens *service.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, tune func(*config.Config)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := usecasetest.NewEnv(t)

	cfg := &config.Config{
		Env:              "test",
		MediaDriver:      config.MediaDriverLocal,
		MediaStoragePath: t.TempDir(),
		AllowedOrigins:   []string{"http://localhost:3000"},
		RateLimitLimit:   100,
		RateLimitPeriod:  time.Minute,
	}
	if tune != nil {
		tune(cfg)
	}
	tokens := service.NewTokenManager("router-test-secret", time.Hour)
	runner := goroutine.NewRunner(logger.Log)

	listingHandler := handler.NewListingHandler(handler.ListingUseCases{
		Create:       listing.NewCreateListingUseCase(env.Listings, env.Pricing, env.Checkout, env.Notifier, env.Clock),
		Update:       listing.NewUpdateListingUseCase(env.Listings, env.Freshener, env.Pricing, env.Checkout, env.Notifier, env.Clock),
		Delete:       listing.NewDeleteListingUseCase(env.Listings, env.Media, env.Notifier, env.Clock),
		Get:          listing.NewGetListingUseCase(env.Listings, env.Freshener, env.Clock),
		List:         listing.NewListListingsUseCase(env.Listings, env.Freshener, env.Clock),
		ListMy:       listing.NewListMyListingsUseCase(env.Listings, env.Freshener, env.Clock),
		Pay:          listing.NewPayListingUseCase(env.Listings, env.Pricing, env.Checkout),
		ReplaceMedia: listing.NewReplaceMediaUseCase(env.Listings, env.Pricing, env.Checkout, env.Media, env.Notifier, env.Clock),
		Promote:      promotion.NewPromoteListingUseCase(env.Listings, env.Freshener, env.Pricing, env.Checkout, env.Notifier, env.Clock),
		Unlock:       paywall.NewRequestUnlockUseCase(env.Listings, env.Freshener, env.Checkout),
	}, env.Clock)
	paymentHandler := handler.NewPaymentHandler(
		env.Callback,
		payment.NewListMyPaymentsUseCase(env.Payments),
		memory.NewDeduplicator(time.Hour, env.Clock),
		webhookSecret,
	)

	engine := router.SetupRouter(cfg, router.Handlers{
		Listing: listingHandler,
		Payment: paymentHandler,
		WS:      handler.NewWSHandler(ws.NewHub(), tokens, runner, cfg.AllowedOrigins),
		Health:  handler.NewHealthHandler(nil),
	}, tokens, middleware.NewLimiterStore(nil))

	return &testServer{env: env, engine: engine, tokens: tokens}
}

func (s *testServer) token(t *testing.T, r entity.Requester) string {
	t.Helper()
	token, err := s.tokens.GenerateAccess(r.ID, r.Role)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
	default:
		var err error
		payload, err = json.Marshal(b)
		require.NoError(t, err)
	}

	req, _ := http.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) webhook(t *testing.T, paymentID, status string) *httptest.ResponseRecorder {
	t.Helper()
	body := []byte(`{"payment_id":"` + paymentID + `","status":"` + status + `"}`)
	req, _ := http.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader(body))
	req.Header.Set(handler.SignatureHeader, handler.Sign([]byte(webhookSecret), body))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string                 `json:"code"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

type createdListing struct {
	Listing struct {
		ID              string `json:"id"`
		LifecycleStatus string `json:"lifecycleStatus"`
	} `json:"listing"`
	Payment struct {
		PaymentID  string  `json:"paymentId"`
		Amount     float64 `json:"amount"`
		PaymentURL string  `json:"paymentUrl"`
	} `json:"payment"`
}

var createBody = map[string]interface{}{
	"kind":    "player",
	"title":   "Нападающий ищет клуб",
	"sport":   "football",
	"player":  map[string]interface{}{"fullName": "Иван Петров"},
	"contact": map[string]interface{}{"isHidden": true, "email": "agent@example.com"},
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := usecasetest.User()
	viewer := usecasetest.User()
	ownerToken := s.token(t, owner)
	viewerToken := s.token(t, viewer)

	// Создание: объявление ждёт оплаты.
	w := s.do(t, http.MethodPost, "/api/listings", ownerToken, createBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created createdListing
	decode(t, w, &created)
	assert.Equal(t, "PENDING_PAYMENT", created.Listing.LifecycleStatus)
	assert.Equal(t, 10.0, created.Payment.Amount)
	assert.NotEmpty(t, created.Payment.PaymentURL)

	listingPath := "/api/listings/" + created.Listing.ID

	// До оплаты объявление не видно посторонним, изменения требуют оплаты.
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, listingPath, viewerToken, nil).Code)
	w = s.do(t, http.MethodPatch, listingPath, ownerToken, map[string]string{"title": "Новый заголовок"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)
	body := decode(t, w, nil)
	assert.Equal(t, created.Payment.PaymentID, body.Error.Details["paymentId"])

	// Оплата подтверждается вебхуком.
	require.Equal(t, http.StatusOK, s.webhook(t, created.Payment.PaymentID, "paid").Code)

	// Контакт скрыт для постороннего.
	w = s.do(t, http.MethodGet, listingPath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		LifecycleStatus string          `json:"lifecycleStatus"`
		Contact         json.RawMessage `json:"contact"`
	}
	decode(t, w, &view)
	assert.Equal(t, "ACTIVE", view.LifecycleStatus)
	assert.JSONEq(t, `{"isHidden":true,"unlockCost":50}`, string(view.Contact))

	// Открытие контакта.
	w = s.do(t, http.MethodPost, listingPath+"/unlock-contact", viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unlock struct {
		PaymentID  string  `json:"paymentId"`
		PaymentURL string  `json:"paymentUrl"`
		UnlockCost float64 `json:"unlockCost"`
	}
	decode(t, w, &unlock)
	assert.Equal(t, 50.0, unlock.UnlockCost)
	assert.NotEmpty(t, unlock.PaymentURL)

	require.Equal(t, http.StatusOK, s.webhook(t, unlock.PaymentID, "paid").Code)

	w = s.do(t, http.MethodGet, listingPath, viewerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var unlocked struct {
		CanViewContact bool `json:"canViewContact"`
		Contact        struct {
			Email string `json:"email"`
		} `json:"contact"`
	}
	decode(t, w, &unlocked)
	assert.True(t, unlocked.CanViewContact)
	assert.Equal(t, "agent@example.com", unlocked.Contact.Email)

	// Мягкое удаление необратимо.
	require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, listingPath, ownerToken, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodDelete, listingPath, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, listingPath, viewerToken, nil).Code)

	w = s.do(t, http.MethodGet, listingPath, ownerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var deleted struct {
		IsActive bool `json:"isActive"`
	}
	decode(t, w, &deleted)
	assert.False(t, deleted.IsActive)
}

func TestPromoteOverHTTP(t *testing.T) {
	s := newTestServer(t)
	owner := usecasetest.User()
	l := s.env.SeedPaid(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"))
	path := "/api/listings/" + l.ID.String() + "/promote"

	w := s.do(t, http.MethodPost, path, s.token(t, owner), map[string]interface{}{"days": 7, "type": "premium"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var promote struct {
		Applied       bool    `json:"applied"`
		PaymentID     string  `json:"paymentId"`
		PromotionCost float64 `json:"promotionCost"`
	}
	decode(t, w, &promote)
	assert.False(t, promote.Applied)
	assert.Equal(t, 35.0, promote.PromotionCost)

	require.Equal(t, http.StatusOK, s.webhook(t, promote.PaymentID, "paid").Code)
	require.Equal(t, http.StatusOK, s.webhook(t, promote.PaymentID, "paid").Code)

	w = s.do(t, http.MethodPost, path, s.token(t, owner), map[string]interface{}{"days": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ALREADY_PROMOTED", decode(t, w, nil).Error.Code)

	w = s.do(t, http.MethodPost, path, s.token(t, owner), map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	id := uuid.NewString()

	routes := []struct{ method, path string }{
		{http.MethodPost, "/api/listings"},
		{http.MethodGet, "/api/listings/my"},
		{http.MethodPatch, "/api/listings/" + id},
		{http.MethodDelete, "/api/listings/" + id},
		{http.MethodPost, "/api/listings/" + id + "/pay"},
		{http.MethodPost, "/api/listings/" + id + "/promote"},
		{http.MethodPost, "/api/listings/" + id + "/unlock-contact"},
		{http.MethodGet, "/api/payments/my"},
	}
	for _, rt := range routes {
		w := s.do(t, rt.method, rt.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.method+" "+rt.path)

		w = s.do(t, rt.method, rt.path, "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, rt.method+" "+rt.path)
	}
}

func TestPublicListing(t *testing.T) {
	s := newTestServer(t)
	owner := usecasetest.User()
	s.env.SeedPaid(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"))
	s.env.Seed(t, owner, usecasetest.PlayerContent("Ждёт оплаты"), nil)

	w := s.do(t, http.MethodGet, "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Pagination.Total)
	assert.Len(t, page.Data, 1)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/listings/not-a-uuid", "", nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/listings?kind=coach", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health", "", nil).Code)
}

func TestWebhookIsNotRateLimited(t *testing.T) {
	s := newTestServerWith(t, func(cfg *config.Config) { cfg.RateLimitLimit = 1 })
	owner := usecasetest.User()
	l := s.env.Seed(t, owner, usecasetest.PlayerContent("Нападающий ищет клуб"), nil)
	result, err := listing.NewPayListingUseCase(s.env.Listings, s.env.Pricing, s.env.Checkout).
		Execute(context.Background(), l.ID, owner)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		w := s.webhook(t, result.Payment.PaymentID.String(), "paid")
		require.Equal(t, http.StatusOK, w.Code, "попытка %d: %s", i+1, w.Body.String())
	}

	// Платные действия пользователя по-прежнему ограничены.
	token := s.token(t, owner)
	path := "/api/listings/" + l.ID.String() + "/pay"
	assert.NotEqual(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, path, token, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodPost, path, token, nil).Code)
}

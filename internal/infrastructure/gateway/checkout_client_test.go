package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/sportmarket-backend/internal/domain/valueobject"
)

func testPayment() *entity.Payment {
	return &entity.Payment{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		ListingID: uuid.New(),
		Type:      valueobject.PaymentTypeUnlockContact,
		Amount:    valueobject.Money{Amount: 4.99, Currency: "EUR"},
	}
}

func TestCheckoutClient_CreateCheckout(t *testing.T) {
	p := testPayment()

	var got checkoutRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/checkout", r.URL.Path)
		assert.Equal(t, "Bearer gw-key", r.Header.Get("Authorization"))
		assert.Equal(t, p.ID.String(), r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(map[string]string{"url": "https://pay.example/s/1"})
	}))
	defer srv.Close()

	client := NewCheckoutClient(srv.URL+"/", "gw-key", "https://app.example/return", time.Second)
	url, err := client.CreateCheckout(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/s/1", url)
	assert.Equal(t, p.ID.String(), got.PaymentID)
	assert.Equal(t, 4.99, got.Amount)
	assert.Equal(t, "EUR", got.Currency)
	assert.Equal(t, "https://app.example/return", got.ReturnURL)
}

func TestCheckoutClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "error status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`{"error":"upstream"}`))
			},
		},
		{
			name: "empty url",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"url":""}`))
			},
		},
		{
			name: "broken body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewCheckoutClient(srv.URL, "", "", time.Second)
			_, err := client.CreateCheckout(context.Background(), testPayment())
			assert.Error(t, err)
		})
	}
}

func TestCheckoutClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewCheckoutClient(srv.URL, "", "", 200*time.Millisecond)
	_, err := client.CreateCheckout(context.Background(), testPayment())
	assert.Error(t, err)
}

func TestStubGateway(t *testing.T) {
	p := testPayment()
	url, err := StubGateway{BaseURL: "http://localhost:8080/"}.CreateCheckout(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/checkout/"+p.ID.String(), url)
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ignatzorin/sportmarket-backend/internal/domain/entity"
)

// CheckoutClient открывает страницу оплаты у провайдера (hosted checkout).
type CheckoutClient struct {
	baseURL    string
	apiKey     string
	returnURL  string
	httpClient *http.Client
}

func NewCheckoutClient(baseURL, apiKey, returnURL string, timeout time.Duration) *CheckoutClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &CheckoutClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		returnURL:  returnURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type checkoutRequest struct {
	PaymentID   string  `json:"payment_id"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Description string  `json:"description"`
	ReturnURL   string  `json:"return_url,omitempty"`
}

type checkoutResponse struct {
	URL string `json:"url"`
}

func describe(p *entity.Payment) string {
	return fmt.Sprintf("%s %s", p.Type, p.ListingID)
}

// CreateCheckout возвращает URL страницы оплаты. Идентификатор платежа передаётся
// провайдеру и возвращается в вебхуке.
func (c *CheckoutClient) CreateCheckout(ctx context.Context, p *entity.Payment) (string, error) {
	body, err := json.Marshal(checkoutRequest{
		PaymentID:   p.ID.String(),
		Amount:      p.Amount.Amount,
		Currency:    p.Amount.Currency,
		Description: describe(p),
		ReturnURL:   c.returnURL,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", p.ID.String())
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errorBody map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errorBody)
		return "", fmt.Errorf("gateway: код ответа %d: %v", resp.StatusCode, errorBody)
	}

	var result checkoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gateway: некорректный ответ: %w", err)
	}
	if result.URL == "" {
		return "", fmt.Errorf("gateway: в ответе нет url")
	}
	return result.URL, nil
}

// StubGateway используется в разработке: возвращает локальную ссылку без обращения к провайдеру.
type StubGateway struct {
	BaseURL string
}

func (g StubGateway) CreateCheckout(_ context.Context, p *entity.Payment) (string, error) {
	return strings.TrimSuffix(g.BaseURL, "/") + "/checkout/" + p.ID.String(), nil
}

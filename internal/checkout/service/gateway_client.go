package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
)

// GatewayIntent is the gateway's wire representation of a payment intent.
type GatewayIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// Gateway is the card-payment provider surface the checkout flow needs.
type Gateway interface {
	CreatePaymentIntent(ctx context.Context, billID string, amount int64, currency string) (GatewayIntent, error)
	RetrievePaymentIntent(ctx context.Context, intentID string) (GatewayIntent, error)
	UpdatePaymentIntentAmount(ctx context.Context, intentID string, amount int64) (GatewayIntent, error)
}

type gatewayErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// gatewayClient talks Stripe's form-encoded payment-intent API.
type gatewayClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGatewayClient(apiKey, baseURL string) Gateway {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.stripe.com"
	}
	return &gatewayClient{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

func (c *gatewayClient) CreatePaymentIntent(ctx context.Context, billID string, amount int64, currency string) (GatewayIntent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amount, 10))
	values.Set("currency", strings.ToLower(currency))
	values.Set("automatic_payment_methods[enabled]", "false")
	values.Set("payment_method_types[]", "card")
	values.Set("metadata[bill_id]", billID)

	return c.doRequest(ctx, http.MethodPost, "/v1/payment_intents", values, "bill:"+billID)
}

func (c *gatewayClient) RetrievePaymentIntent(ctx context.Context, intentID string) (GatewayIntent, error) {
	return c.doRequest(ctx, http.MethodGet, "/v1/payment_intents/"+intentID, nil, "")
}

func (c *gatewayClient) UpdatePaymentIntentAmount(ctx context.Context, intentID string, amount int64) (GatewayIntent, error) {
	values := url.Values{}
	values.Set("amount", strconv.FormatInt(amount, 10))
	return c.doRequest(ctx, http.MethodPost, "/v1/payment_intents/"+intentID, values, "")
}

func (c *gatewayClient) doRequest(
	ctx context.Context,
	method string,
	path string,
	values url.Values,
	idempotencyKey string,
) (GatewayIntent, error) {
	if c.apiKey == "" {
		return GatewayIntent{}, domain.ErrInvalidConfig
	}

	var bodyReader *strings.Reader
	if values != nil {
		bodyReader = strings.NewReader(values.Encode())
	} else {
		bodyReader = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return GatewayIntent{}, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return GatewayIntent{}, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var gatewayErr gatewayErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&gatewayErr); err != nil {
			return GatewayIntent{}, domain.ErrGateway
		}
		message := strings.TrimSpace(gatewayErr.Error.Message)
		if message == "" {
			return GatewayIntent{}, domain.ErrGateway
		}
		return GatewayIntent{}, fmt.Errorf("%w: %s", domain.ErrGateway, message)
	}

	var intent GatewayIntent
	if err := json.NewDecoder(resp.Body).Decode(&intent); err != nil {
		return GatewayIntent{}, fmt.Errorf("%w: %v", domain.ErrGateway, err)
	}
	if intent.ID == "" {
		return GatewayIntent{}, domain.ErrGateway
	}
	return intent, nil
}

package domain

import (
	"context"
	"net/http"

	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
)

type CreateIntentRequest struct {
	BillID string
}

// CreateIntentResponse carries the client secret back to the caller; it
// is the only place the secret ever appears.
type CreateIntentResponse struct {
	PaymentIntentID string `json:"payment_intent_id"`
	ClientSecret    string `json:"client_secret"`
	Amount          string `json:"amount"`
	Currency        string `json:"currency"`
	Status          string `json:"status"`
}

type ConfirmRequest struct {
	BillID          string `json:"-"`
	PaymentIntentID string `json:"payment_intent_id"`
}

type ConfirmResponse struct {
	Bill   billingdomain.Bill `json:"bill"`
	Status string             `json:"status"`
}

type Service interface {
	CreateIntent(context.Context, CreateIntentRequest) (CreateIntentResponse, error)
	Confirm(context.Context, ConfirmRequest) (ConfirmResponse, error)
	HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error
}

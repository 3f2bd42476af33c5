package domain

import (
	"context"
	"errors"

	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/money"
)

var (
	// ErrMalformedAmount rejects non-positive or non-decimal input.
	ErrMalformedAmount = money.ErrMalformedAmount
	// ErrExceedsBalance rejects manual payments above the outstanding
	// balance. Gateway reconciliation deliberately does not use this
	// check; the ledger's overpayment guard covers it there.
	ErrExceedsBalance = errors.New("exceeds_balance")
)

type RecordPaymentRequest struct {
	BillID     string `json:"bill_id"`
	Amount     string `json:"amount"`
	RecordedBy string `json:"recorded_by,omitempty"`
	Note       string `json:"note,omitempty"`
}

type RecordPaymentResponse struct {
	Bill    billingdomain.Bill    `json:"bill"`
	Payment billingdomain.Payment `json:"payment"`
}

type Service interface {
	RecordPayment(context.Context, RecordPaymentRequest) (RecordPaymentResponse, error)
}

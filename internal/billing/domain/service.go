package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
)

type CreateBillRequest struct {
	PatientID   string     `json:"patient_id"`
	Amount      string     `json:"amount"`
	Currency    string     `json:"currency,omitempty"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type GetBillRequest struct {
	ID string
}

type ListBillRequest struct {
	pagination.Pagination
	PatientID string `form:"patient_id"`
	Status    string `form:"status"`
}

type ListBillResponse struct {
	pagination.PageInfo
	Bills []Bill `json:"bills"`
}

// ApplyPaymentRequest mutates a bill's ledger. ExternalRef must be set for
// gateway payments and empty for manual ones.
type ApplyPaymentRequest struct {
	BillID      snowflake.ID
	Amount      int64
	Source      string
	ExternalRef string
	RecordedBy  string
	Note        string
}

// ApplyPaymentResult reports the committed bill plus whether this call
// actually applied a new payment. Applied is false when the external
// reference had already been reconciled.
type ApplyPaymentResult struct {
	Bill     Bill
	Payment  *Payment
	Applied  bool
	Previous Status
}

type Service interface {
	Create(context.Context, CreateBillRequest) (Bill, error)
	GetByID(context.Context, GetBillRequest) (Bill, error)
	List(context.Context, ListBillRequest) (ListBillResponse, error)
	ListPayments(ctx context.Context, billID snowflake.ID) ([]*Payment, error)
	ApplyPayment(context.Context, ApplyPaymentRequest) (ApplyPaymentResult, error)
}

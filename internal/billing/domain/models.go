package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
)

const (
	SourceManual  = "manual"
	SourceGateway = "gateway"
)

type Bill struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PatientID   snowflake.ID `gorm:"not null;index" json:"patient_id"`
	Currency    string       `gorm:"type:text;not null" json:"currency"`
	TotalAmount int64        `gorm:"not null" json:"total_amount"`
	PaidAmount  int64        `gorm:"not null" json:"paid_amount"`
	Status      Status       `gorm:"type:text;not null" json:"status"`
	Description string       `gorm:"type:text" json:"description,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (Bill) TableName() string { return "bills" }

// Balance is the outstanding amount in minor units.
func (b Bill) Balance() int64 {
	return b.TotalAmount - b.PaidAmount
}

// Payment is the persisted record of one applied payment. ExternalRef is
// nil for manual payments; for gateway payments it carries the gateway
// transaction reference and the (bill_id, external_ref) pair is unique.
type Payment struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	BillID      snowflake.ID `gorm:"not null;index" json:"bill_id"`
	Amount      int64        `gorm:"not null" json:"amount"`
	Source      string       `gorm:"type:text;not null" json:"source"`
	ExternalRef *string      `gorm:"type:text" json:"external_ref,omitempty"`
	RecordedBy  string       `gorm:"type:text" json:"recorded_by,omitempty"`
	Note        string       `gorm:"type:text" json:"note,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListBillFilter struct {
	PatientID snowflake.ID
	Status    Status
}

type Repository interface {
	InsertBill(ctx context.Context, db *gorm.DB, bill *Bill) error
	FindBillByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*Bill, error)
	ListBills(ctx context.Context, db *gorm.DB, filter ListBillFilter, cursor *pagination.Cursor, limit int) ([]*Bill, error)

	// InsertPayment returns false without error when the payment's
	// (bill_id, external_ref) pair already exists.
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) (bool, error)
	ListPayments(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]*Payment, error)

	// UpdateBillPaid persists the new paid amount and status only when the
	// bill's paid amount still equals expectedPaid. Returns false when a
	// concurrent writer got there first.
	UpdateBillPaid(ctx context.Context, db *gorm.DB, bill *Bill, expectedPaid int64) (bool, error)
}

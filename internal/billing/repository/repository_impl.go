package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	pkgdb "github.com/Biniyam0911/HospitalManager-sub001/pkg/db"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertBill(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO bills (
			id, patient_id, currency, total_amount, paid_amount, status,
			description, due_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bill.ID,
		bill.PatientID,
		bill.Currency,
		bill.TotalAmount,
		bill.PaidAmount,
		bill.Status,
		bill.Description,
		bill.DueDate,
		bill.CreatedAt,
		bill.UpdatedAt,
	).Error
}

func (r *repo) FindBillByID(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Bill, error) {
	query := `SELECT id, patient_id, currency, total_amount, paid_amount, status,
	                 description, due_date, created_at, updated_at
	          FROM bills
	          WHERE id = ?`
	if forUpdate {
		query += pkgdb.LockSuffix(db)
	}

	var bill domain.Bill
	err := db.WithContext(ctx).Raw(query, id).Scan(&bill).Error
	if err != nil {
		return nil, err
	}
	if bill.ID == 0 {
		return nil, nil
	}
	return &bill, nil
}

func (r *repo) ListBills(ctx context.Context, db *gorm.DB, filter domain.ListBillFilter, cursor *pagination.Cursor, limit int) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	stmt := db.WithContext(ctx).Model(&domain.Bill{})

	if filter.PatientID != 0 {
		stmt = stmt.Where("patient_id = ?", filter.PatientID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if cursor != nil {
		stmt = stmt.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	err := stmt.
		Order("created_at desc, id desc").
		Limit(limit + 1).
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, bill_id, amount, source, external_ref, recorded_by, note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (bill_id, external_ref) DO NOTHING`,
		payment.ID,
		payment.BillID,
		payment.Amount,
		payment.Source,
		payment.ExternalRef,
		payment.RecordedBy,
		payment.Note,
		payment.CreatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *repo) ListPayments(ctx context.Context, db *gorm.DB, billID snowflake.ID) ([]*domain.Payment, error) {
	var payments []*domain.Payment
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, amount, source, external_ref, recorded_by, note, created_at
		 FROM payments
		 WHERE bill_id = ?
		 ORDER BY created_at ASC, id ASC`,
		billID,
	).Scan(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) UpdateBillPaid(ctx context.Context, db *gorm.DB, bill *domain.Bill, expectedPaid int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE bills
		 SET paid_amount = ?, status = ?, updated_at = ?
		 WHERE id = ? AND paid_amount = ?`,
		bill.PaidAmount,
		bill.Status,
		bill.UpdatedAt,
		bill.ID,
		expectedPaid,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

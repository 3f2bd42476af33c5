package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	billingrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/repository"
	billingservice "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/service"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/migration"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	patientrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/repository"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/recorder/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRecorder(t *testing.T) (domain.Service, billingdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	require.NoError(t, migration.AutoMigrate(db))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	billingSvc := billingservice.New(billingservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		Repo:        billingrepo.Provide(),
		PatientRepo: patientrepo.Provide(),
		Policy:      config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy()),
	})

	recorderSvc := New(Params{
		Log:     zap.NewNop(),
		Billing: billingSvc,
	})

	return recorderSvc, billingSvc, db, node
}

func seedBill(t *testing.T, billing billingdomain.Service, db *gorm.DB, node *snowflake.Node, amount string) billingdomain.Bill {
	t.Helper()

	patient := patientdomain.Patient{
		ID:        node.Generate(),
		MRN:       fmt.Sprintf("MRN-%s", node.Generate()),
		FullName:  "Dawit Bekele",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Create(&patient).Error)

	bill, err := billing.Create(context.Background(), billingdomain.CreateBillRequest{
		PatientID: patient.ID.String(),
		Amount:    amount,
	})
	require.NoError(t, err)
	return bill
}

func TestRecordPayment(t *testing.T) {
	recorder, billing, db, node := setupRecorder(t)
	bill := seedBill(t, billing, db, node, "500.00")

	resp, err := recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID:     bill.ID.String(),
		Amount:     "200.00",
		RecordedBy: "front-desk",
	})
	require.NoError(t, err)
	require.Equal(t, int64(20000), resp.Payment.Amount)
	require.Equal(t, billingdomain.StatusPartial, resp.Bill.Status)
	require.Nil(t, resp.Payment.ExternalRef)

	resp, err = recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: bill.ID.String(),
		Amount: "300.00",
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.StatusPaid, resp.Bill.Status)
	require.Equal(t, int64(50000), resp.Bill.PaidAmount)
}

func TestRecordPaymentRejectsMalformedAmount(t *testing.T) {
	recorder, billing, db, node := setupRecorder(t)
	bill := seedBill(t, billing, db, node, "500.00")

	for _, amount := range []string{"", "abc", "-5.00", "12.345", "0"} {
		_, err := recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
			BillID: bill.ID.String(),
			Amount: amount,
		})
		require.ErrorIs(t, err, domain.ErrMalformedAmount, "amount %q", amount)
	}
}

func TestRecordPaymentRejectsExceedingBalance(t *testing.T) {
	recorder, billing, db, node := setupRecorder(t)
	bill := seedBill(t, billing, db, node, "500.00")

	_, err := recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: bill.ID.String(),
		Amount: "500.01",
	})
	require.ErrorIs(t, err, domain.ErrExceedsBalance)

	_, err = recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: bill.ID.String(),
		Amount: "300.00",
	})
	require.NoError(t, err)

	// Balance shrinks as payments land; the check follows it.
	_, err = recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: bill.ID.String(),
		Amount: "200.01",
	})
	require.ErrorIs(t, err, domain.ErrExceedsBalance)
}

func TestRecordPaymentUnknownBill(t *testing.T) {
	recorder, _, _, node := setupRecorder(t)

	_, err := recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: node.Generate().String(),
		Amount: "10.00",
	})
	require.ErrorIs(t, err, billingdomain.ErrBillNotFound)

	_, err = recorder.RecordPayment(context.Background(), domain.RecordPaymentRequest{
		BillID: "not-a-number",
		Amount: "10.00",
	})
	require.ErrorIs(t, err, billingdomain.ErrInvalidID)
}

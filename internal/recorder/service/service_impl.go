package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/money"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/recorder/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Billing billingdomain.Service
}

type Service struct {
	log     *zap.Logger
	billing billingdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("recorder.service"),
		billing: p.Billing,
	}
}

// RecordPayment applies a staff-entered payment. The balance check here
// is a fast precondition against a fresh read; the ledger re-validates
// everything under its row lock, so a racing writer cannot sneak an
// overpayment past this method.
func (s *Service) RecordPayment(ctx context.Context, req domain.RecordPaymentRequest) (domain.RecordPaymentResponse, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(req.BillID))
	if err != nil || billID == 0 {
		return domain.RecordPaymentResponse{}, billingdomain.ErrInvalidID
	}

	amount, err := money.ParseAmount(req.Amount)
	if err != nil {
		return domain.RecordPaymentResponse{}, domain.ErrMalformedAmount
	}
	if amount <= 0 {
		return domain.RecordPaymentResponse{}, domain.ErrMalformedAmount
	}

	bill, err := s.billing.GetByID(ctx, billingdomain.GetBillRequest{ID: billID.String()})
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}
	if amount > bill.Balance() {
		return domain.RecordPaymentResponse{}, domain.ErrExceedsBalance
	}

	result, err := s.billing.ApplyPayment(ctx, billingdomain.ApplyPaymentRequest{
		BillID:     billID,
		Amount:     amount,
		Source:     billingdomain.SourceManual,
		RecordedBy: strings.TrimSpace(req.RecordedBy),
		Note:       strings.TrimSpace(req.Note),
	})
	if err != nil {
		return domain.RecordPaymentResponse{}, err
	}

	s.log.Info("manual payment recorded",
		zap.Int64("bill_id", int64(billID)),
		zap.Int64("amount", amount),
		zap.String("status", string(result.Bill.Status)),
	)

	resp := domain.RecordPaymentResponse{Bill: result.Bill}
	if result.Payment != nil {
		resp.Payment = *result.Payment
	}
	return resp, nil
}

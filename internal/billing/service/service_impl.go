package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/cache"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/locks"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/money"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/observability/metrics"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const applyLockTTL = 10 * time.Second

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	PatientRepo patientdomain.Repository
	Policy      *config.BillingPolicyHolder
	Audit       auditdomain.Service `optional:"true"`
	Metrics     *metrics.Metrics    `optional:"true"`
	Locker      *locks.Locker       `optional:"true"`
	Cache       *cache.Store        `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	patientRepo patientdomain.Repository
	policy      *config.BillingPolicyHolder
	audit       auditdomain.Service
	metrics     *metrics.Metrics
	locker      *locks.Locker
	cache       *cache.Store
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("billing.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		patientRepo: p.PatientRepo,
		policy:      p.Policy,
		audit:       p.Audit,
		metrics:     p.Metrics,
		locker:      p.Locker,
		cache:       p.Cache,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBillRequest) (domain.Bill, error) {
	patientID, err := snowflake.ParseString(strings.TrimSpace(req.PatientID))
	if err != nil || patientID == 0 {
		return domain.Bill{}, domain.ErrInvalidPatient
	}

	total, err := money.ParseAmount(req.Amount)
	if err != nil || total <= 0 {
		return domain.Bill{}, domain.ErrInvalidTotal
	}

	patient, err := s.patientRepo.FindByID(ctx, s.db, patientID)
	if err != nil {
		return domain.Bill{}, err
	}
	if patient == nil {
		return domain.Bill{}, domain.ErrInvalidPatient
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.policy.Get().Currency
	}

	now := s.clock.Now()
	bill := domain.Bill{
		ID:          s.genID.Generate(),
		PatientID:   patientID,
		Currency:    currency,
		TotalAmount: total,
		PaidAmount:  0,
		Status:      domain.ComputeStatus(total, 0),
		Description: strings.TrimSpace(req.Description),
		DueDate:     req.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.InsertBill(ctx, s.db, &bill); err != nil {
		return domain.Bill{}, err
	}

	s.invalidate(ctx, bill)
	if s.audit != nil {
		_ = s.audit.Record(ctx, "system", auditdomain.ActionBillCreated, "bill", int64(bill.ID), map[string]any{
			"patient_id":   patientID.String(),
			"total_amount": total,
			"currency":     currency,
		})
	}

	return bill, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetBillRequest) (domain.Bill, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.Bill{}, domain.ErrInvalidID
	}

	bill, err := s.repo.FindBillByID(ctx, s.db, id, false)
	if err != nil {
		return domain.Bill{}, err
	}
	if bill == nil {
		return domain.Bill{}, domain.ErrBillNotFound
	}
	return *bill, nil
}

func (s *Service) List(ctx context.Context, req domain.ListBillRequest) (domain.ListBillResponse, error) {
	filter := domain.ListBillFilter{}
	if raw := strings.TrimSpace(req.PatientID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListBillResponse{}, domain.ErrInvalidPatient
		}
		filter.PatientID = id
	}
	if status := strings.TrimSpace(req.Status); status != "" {
		filter.Status = domain.Status(status)
	}

	var cursor *pagination.Cursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return domain.ListBillResponse{}, err
		}
		cursor = decoded
	}

	limit := req.Limit()
	items, err := s.repo.ListBills(ctx, s.db, filter, cursor, limit)
	if err != nil {
		return domain.ListBillResponse{}, err
	}

	items, pageInfo := pagination.BuildCursorPageInfo(items, limit, func(bill *domain.Bill) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        bill.ID.String(),
			CreatedAt: bill.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	bills := make([]domain.Bill, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		bills = append(bills, *item)
	}

	resp := domain.ListBillResponse{Bills: bills}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) ListPayments(ctx context.Context, billID snowflake.ID) ([]*domain.Payment, error) {
	if billID == 0 {
		return nil, domain.ErrInvalidID
	}
	return s.repo.ListPayments(ctx, s.db, billID)
}

// ApplyPayment is the only paid-amount mutation path. The bill row is
// locked for the whole transaction; the conditional update makes the
// call safe even without the row lock, so the sqlite dialect (which has
// no FOR UPDATE) keeps the same guarantees.
func (s *Service) ApplyPayment(ctx context.Context, req domain.ApplyPaymentRequest) (domain.ApplyPaymentResult, error) {
	var result domain.ApplyPaymentResult

	if req.BillID == 0 {
		return result, domain.ErrInvalidID
	}
	if req.Amount <= 0 {
		return result, domain.ErrInvalidAmount
	}

	externalRef := strings.TrimSpace(req.ExternalRef)
	switch req.Source {
	case domain.SourceManual:
		if externalRef != "" {
			return result, domain.ErrInvalidSource
		}
	case domain.SourceGateway:
		if externalRef == "" {
			return result, domain.ErrInvalidSource
		}
	default:
		return result, domain.ErrInvalidSource
	}

	// Cross-instance fast-fail; correctness never depends on this lock.
	if s.locker != nil {
		key := locks.BillKey(int64(req.BillID))
		token, ok, err := s.locker.TryLock(ctx, key, applyLockTTL)
		if err != nil {
			s.log.Warn("bill lock unavailable, relying on row lock", zap.Error(err))
		} else if !ok {
			s.recordOutcome(req.Source, "rejected")
			return result, domain.ErrConflict
		} else {
			defer func() {
				if err := s.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
					s.log.Warn("bill lock release failed", zap.Error(err))
				}
			}()
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		bill, err := s.repo.FindBillByID(ctx, tx, req.BillID, true)
		if err != nil {
			return err
		}
		if bill == nil {
			return domain.ErrBillNotFound
		}
		result.Previous = bill.Status

		payment := domain.Payment{
			ID:         s.genID.Generate(),
			BillID:     bill.ID,
			Amount:     req.Amount,
			Source:     req.Source,
			RecordedBy: strings.TrimSpace(req.RecordedBy),
			Note:       strings.TrimSpace(req.Note),
			CreatedAt:  s.clock.Now(),
		}
		if externalRef != "" {
			payment.ExternalRef = &externalRef
		}

		inserted, err := s.repo.InsertPayment(ctx, tx, &payment)
		if err != nil {
			return err
		}
		if !inserted {
			// External reference already reconciled: commit nothing new
			// and report the bill unchanged.
			result.Bill = *bill
			result.Applied = false
			return nil
		}

		newPaid := bill.PaidAmount + req.Amount
		tolerance := s.policy.Get().OverpaymentTolerance
		if newPaid > bill.TotalAmount+tolerance {
			return domain.ErrOverpayment
		}

		expectedPaid := bill.PaidAmount
		bill.PaidAmount = newPaid
		bill.Status = domain.ComputeStatus(bill.TotalAmount, newPaid)
		bill.UpdatedAt = s.clock.Now()

		ok, err := s.repo.UpdateBillPaid(ctx, tx, bill, expectedPaid)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConflict
		}

		result.Bill = *bill
		result.Payment = &payment
		result.Applied = true
		return nil
	})
	if err != nil {
		s.recordOutcome(req.Source, "rejected")
		return domain.ApplyPaymentResult{}, err
	}

	if !result.Applied {
		s.recordOutcome(req.Source, "duplicate")
		s.log.Info("duplicate external reference ignored",
			zap.Int64("bill_id", int64(req.BillID)),
			zap.String("external_ref", externalRef),
		)
		return result, nil
	}

	s.recordOutcome(req.Source, "applied")
	s.invalidate(ctx, result.Bill)

	if result.Previous != result.Bill.Status {
		s.log.Info("bill status transition",
			zap.Int64("bill_id", int64(result.Bill.ID)),
			zap.String("from", string(result.Previous)),
			zap.String("to", string(result.Bill.Status)),
		)
	}

	if s.audit != nil {
		meta := map[string]any{
			"amount":      req.Amount,
			"source":      req.Source,
			"paid_amount": result.Bill.PaidAmount,
			"status":      string(result.Bill.Status),
		}
		if externalRef != "" {
			meta["external_ref"] = externalRef
		}
		_ = s.audit.Record(ctx, "system", auditdomain.ActionPaymentApplied, "bill", int64(result.Bill.ID), meta)
	}

	return result, nil
}

func (s *Service) recordOutcome(source, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordPaymentApplied(source, outcome)
	}
}

func (s *Service) invalidate(ctx context.Context, bill domain.Bill) {
	s.cache.Invalidate(ctx,
		cache.KeyBills,
		cache.KeyBill(int64(bill.ID)),
		cache.KeyPatientBills(int64(bill.PatientID)),
	)
}

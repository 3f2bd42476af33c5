package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/money"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	eventIntentSucceeded = "payment_intent.succeeded"
	eventIntentFailed    = "payment_intent.payment_failed"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Cfg     config.Config
	Repo    domain.Repository
	Billing billingdomain.Service
	Gateway Gateway             `optional:"true"`
	Audit   auditdomain.Service `optional:"true"`
	Metrics *metrics.Metrics    `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	repo          domain.Repository
	billing       billingdomain.Service
	gateway       Gateway
	audit         auditdomain.Service
	metrics       *metrics.Metrics
	webhookSecret string
}

func New(p Params) domain.Service {
	gateway := p.Gateway
	if gateway == nil {
		gateway = NewGatewayClient(p.Cfg.GatewaySecretKey, p.Cfg.GatewayBaseURL)
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("checkout.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		billing:       p.Billing,
		gateway:       gateway,
		audit:         p.Audit,
		metrics:       p.Metrics,
		webhookSecret: p.Cfg.GatewayWebhookSecret,
	}
}

// CreateIntent creates a gateway payment intent for the bill's full total,
// reusing a live intent when one exists. The intent amount is corrected
// through the gateway if the bill total changed since creation.
func (s *Service) CreateIntent(ctx context.Context, req domain.CreateIntentRequest) (domain.CreateIntentResponse, error) {
	bill, err := s.billing.GetByID(ctx, billingdomain.GetBillRequest{ID: req.BillID})
	if err != nil {
		return domain.CreateIntentResponse{}, err
	}
	if bill.Status == billingdomain.StatusPaid || bill.Balance() <= 0 {
		return domain.CreateIntentResponse{}, domain.ErrBillUnavailable
	}

	amount := bill.TotalAmount

	existing, err := s.repo.FindLiveIntentByBill(ctx, s.db, bill.ID)
	if err != nil {
		return domain.CreateIntentResponse{}, err
	}

	if existing == nil {
		return s.createIntent(ctx, bill, amount)
	}

	remote, err := s.gateway.RetrievePaymentIntent(ctx, existing.ProviderIntentID)
	if err != nil {
		s.recordIntent("gateway_error")
		return domain.CreateIntentResponse{}, err
	}

	switch remote.Status {
	case "succeeded":
		existing.Status = domain.IntentStatusSucceeded
		existing.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateIntent(ctx, s.db, existing); err != nil {
			return domain.CreateIntentResponse{}, err
		}
		return domain.CreateIntentResponse{}, domain.ErrBillUnavailable
	case "canceled":
		existing.Status = domain.IntentStatusCanceled
		existing.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateIntent(ctx, s.db, existing); err != nil {
			return domain.CreateIntentResponse{}, err
		}
		return s.createIntent(ctx, bill, amount)
	default:
		if remote.Amount != amount {
			remote, err = s.gateway.UpdatePaymentIntentAmount(ctx, existing.ProviderIntentID, amount)
			if err != nil {
				s.recordIntent("gateway_error")
				return domain.CreateIntentResponse{}, err
			}
			existing.Amount = amount
			existing.UpdatedAt = s.clock.Now()
			if err := s.repo.UpdateIntent(ctx, s.db, existing); err != nil {
				return domain.CreateIntentResponse{}, err
			}
		}

		s.recordIntent("reused")
		if s.audit != nil {
			_ = s.audit.Record(ctx, "system", auditdomain.ActionIntentReused, "bill", int64(bill.ID), map[string]any{
				"provider_intent_id": existing.ProviderIntentID,
				"amount":             amount,
			})
		}
		return domain.CreateIntentResponse{
			PaymentIntentID: remote.ID,
			ClientSecret:    remote.ClientSecret,
			Amount:          money.FormatAmount(amount),
			Currency:        bill.Currency,
			Status:          domain.IntentStatusRequiresPayment,
		}, nil
	}
}

func (s *Service) createIntent(ctx context.Context, bill billingdomain.Bill, amount int64) (domain.CreateIntentResponse, error) {
	remote, err := s.gateway.CreatePaymentIntent(ctx, bill.ID.String(), amount, bill.Currency)
	if err != nil {
		s.recordIntent("gateway_error")
		return domain.CreateIntentResponse{}, err
	}

	now := s.clock.Now()
	intent := domain.PaymentIntent{
		ID:               s.genID.Generate(),
		BillID:           bill.ID,
		Provider:         domain.ProviderStripe,
		ProviderIntentID: remote.ID,
		Amount:           amount,
		Currency:         bill.Currency,
		Status:           domain.IntentStatusRequiresPayment,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.InsertIntent(ctx, s.db, &intent); err != nil {
		return domain.CreateIntentResponse{}, err
	}

	s.recordIntent("created")
	if s.audit != nil {
		_ = s.audit.Record(ctx, "system", auditdomain.ActionIntentCreated, "bill", int64(bill.ID), map[string]any{
			"provider_intent_id": remote.ID,
			"amount":             amount,
		})
	}

	return domain.CreateIntentResponse{
		PaymentIntentID: remote.ID,
		ClientSecret:    remote.ClientSecret,
		Amount:          money.FormatAmount(amount),
		Currency:        bill.Currency,
		Status:          domain.IntentStatusRequiresPayment,
	}, nil
}

// Confirm is the client-side confirmation callback. The intent's status
// is re-read from the gateway; the client's word alone never moves the
// ledger.
func (s *Service) Confirm(ctx context.Context, req domain.ConfirmRequest) (domain.ConfirmResponse, error) {
	billID, err := snowflake.ParseString(strings.TrimSpace(req.BillID))
	if err != nil || billID == 0 {
		return domain.ConfirmResponse{}, billingdomain.ErrInvalidID
	}

	intentID := strings.TrimSpace(req.PaymentIntentID)
	if intentID == "" {
		return domain.ConfirmResponse{}, domain.ErrIntentNotFound
	}

	row, err := s.repo.FindIntentByProviderID(ctx, s.db, domain.ProviderStripe, intentID)
	if err != nil {
		return domain.ConfirmResponse{}, err
	}
	if row == nil {
		return domain.ConfirmResponse{}, domain.ErrIntentNotFound
	}
	if row.BillID != billID {
		return domain.ConfirmResponse{}, domain.ErrIntentMismatch
	}

	remote, err := s.gateway.RetrievePaymentIntent(ctx, intentID)
	if err != nil {
		return domain.ConfirmResponse{}, err
	}
	if remote.Status != "succeeded" {
		return domain.ConfirmResponse{}, domain.ErrIntentNotPaid
	}

	bill, err := s.reconcile(ctx, billID, intentID, remote.Amount)
	if err != nil {
		return domain.ConfirmResponse{}, err
	}

	if row.Status != domain.IntentStatusSucceeded {
		row.Status = domain.IntentStatusSucceeded
		row.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateIntent(ctx, s.db, row); err != nil {
			return domain.ConfirmResponse{}, err
		}
	}

	return domain.ConfirmResponse{Bill: bill, Status: domain.IntentStatusSucceeded}, nil
}

// HandleWebhook ingests a signed gateway event. Redelivered events are
// no-ops via the gateway_events dedup insert; reconciliation failures are
// returned to the gateway so it retries.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, headers http.Header) error {
	if err := VerifySignature(s.webhookSecret, payload, headers); err != nil {
		return err
	}

	var event gatewayEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return domain.ErrInvalidPayload
	}
	if strings.TrimSpace(event.ID) == "" {
		return domain.ErrInvalidEvent
	}

	eventType := strings.TrimSpace(event.Type)
	if s.metrics != nil {
		s.metrics.RecordWebhookEvent(eventType)
	}

	inserted, err := s.repo.InsertEvent(ctx, s.db, &domain.GatewayEvent{
		ID:              s.genID.Generate(),
		Provider:        domain.ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       eventType,
		Payload:         datatypes.JSON(payload),
		ReceivedAt:      s.clock.Now(),
	})
	if err != nil {
		return err
	}
	if inserted {
		if s.audit != nil {
			_ = s.audit.Record(ctx, "gateway", auditdomain.ActionWebhookReceived, "gateway_event", int64(0), map[string]any{
				"provider_event_id": event.ID,
				"event_type":        eventType,
			})
		}
	} else {
		// A redelivery only short-circuits once the original delivery made
		// it through; an unprocessed row means the first attempt failed
		// after the dedup insert and the retry must run it again.
		existing, err := s.repo.FindEventByProviderID(ctx, s.db, domain.ProviderStripe, event.ID)
		if err != nil {
			return err
		}
		if existing == nil || existing.ProcessedAt != nil {
			s.log.Info("duplicate gateway event ignored", zap.String("event_id", event.ID))
			return nil
		}
		s.log.Info("retrying unprocessed gateway event", zap.String("event_id", event.ID))
	}

	switch eventType {
	case eventIntentSucceeded:
		if err := s.handleIntentSucceeded(ctx, event); err != nil {
			return err
		}
	case eventIntentFailed:
		if err := s.handleIntentFailed(ctx, event); err != nil {
			return err
		}
	default:
		s.log.Debug("unhandled gateway event type", zap.String("event_type", eventType))
	}

	return s.repo.MarkEventProcessed(ctx, s.db, domain.ProviderStripe, event.ID, s.clock.Now())
}

func (s *Service) handleIntentSucceeded(ctx context.Context, event gatewayEvent) error {
	intent, billID, err := s.resolveEventIntent(ctx, event)
	if err != nil {
		return err
	}

	amount := intent.AmountReceived
	if amount <= 0 {
		amount = intent.Amount
	}

	if _, err := s.reconcile(ctx, billID, intent.ID, amount); err != nil {
		s.log.Error("webhook reconciliation failed",
			zap.Int64("bill_id", int64(billID)),
			zap.String("provider_intent_id", intent.ID),
			zap.Error(err),
		)
		return err
	}

	if row, err := s.repo.FindIntentByProviderID(ctx, s.db, domain.ProviderStripe, intent.ID); err == nil && row != nil && row.Status != domain.IntentStatusSucceeded {
		row.Status = domain.IntentStatusSucceeded
		row.UpdatedAt = s.clock.Now()
		if err := s.repo.UpdateIntent(ctx, s.db, row); err != nil {
			return err
		}
	}
	return nil
}

// handleIntentFailed marks the intent failed and touches nothing in the
// ledger.
func (s *Service) handleIntentFailed(ctx context.Context, event gatewayEvent) error {
	var intent eventIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return domain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return domain.ErrInvalidEvent
	}

	row, err := s.repo.FindIntentByProviderID(ctx, s.db, domain.ProviderStripe, intent.ID)
	if err != nil {
		return err
	}
	if row == nil || row.Status == domain.IntentStatusSucceeded {
		return nil
	}

	row.Status = domain.IntentStatusFailed
	row.UpdatedAt = s.clock.Now()
	return s.repo.UpdateIntent(ctx, s.db, row)
}

func (s *Service) resolveEventIntent(ctx context.Context, event gatewayEvent) (eventIntent, snowflake.ID, error) {
	var intent eventIntent
	if err := json.Unmarshal(event.Data.Object, &intent); err != nil {
		return eventIntent{}, 0, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(intent.ID) == "" {
		return eventIntent{}, 0, domain.ErrInvalidEvent
	}

	row, err := s.repo.FindIntentByProviderID(ctx, s.db, domain.ProviderStripe, intent.ID)
	if err != nil {
		return eventIntent{}, 0, err
	}
	if row != nil {
		return intent, row.BillID, nil
	}

	// Unknown intent row: fall back to the bill reference the create call
	// stamped into the gateway metadata.
	if raw := strings.TrimSpace(intent.Metadata["bill_id"]); raw != "" {
		billID, err := snowflake.ParseString(raw)
		if err == nil && billID != 0 {
			return intent, billID, nil
		}
	}
	return eventIntent{}, 0, domain.ErrInvalidEvent
}

func (s *Service) reconcile(ctx context.Context, billID snowflake.ID, externalRef string, amount int64) (billingdomain.Bill, error) {
	result, err := s.billing.ApplyPayment(ctx, billingdomain.ApplyPaymentRequest{
		BillID:      billID,
		Amount:      amount,
		Source:      billingdomain.SourceGateway,
		ExternalRef: externalRef,
	})
	if err != nil {
		return billingdomain.Bill{}, err
	}
	return result.Bill, nil
}

func (s *Service) recordIntent(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCheckoutIntent(outcome)
	}
}

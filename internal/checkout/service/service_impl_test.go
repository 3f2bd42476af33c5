package service

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	billingrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/repository"
	billingservice "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/service"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	checkoutrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/repository"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/clock"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/config"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/migration"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	patientrepo "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test"

// gatewayStub keeps intents in memory and lets tests flip their status.
type gatewayStub struct {
	mu      sync.Mutex
	seq     int
	intents map[string]GatewayIntent
	err     error
}

func newGatewayStub() *gatewayStub {
	return &gatewayStub{intents: map[string]GatewayIntent{}}
}

func (g *gatewayStub) CreatePaymentIntent(ctx context.Context, billID string, amount int64, currency string) (GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return GatewayIntent{}, g.err
	}
	g.seq++
	intent := GatewayIntent{
		ID:           fmt.Sprintf("pi_test_%d", g.seq),
		ClientSecret: fmt.Sprintf("pi_test_%d_secret", g.seq),
		Status:       "requires_payment_method",
		Amount:       amount,
		Currency:     currency,
	}
	g.intents[intent.ID] = intent
	return intent, nil
}

func (g *gatewayStub) RetrievePaymentIntent(ctx context.Context, intentID string) (GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return GatewayIntent{}, g.err
	}
	intent, ok := g.intents[intentID]
	if !ok {
		return GatewayIntent{}, fmt.Errorf("%w: no such intent", domain.ErrGateway)
	}
	return intent, nil
}

func (g *gatewayStub) UpdatePaymentIntentAmount(ctx context.Context, intentID string, amount int64) (GatewayIntent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		return GatewayIntent{}, fmt.Errorf("%w: no such intent", domain.ErrGateway)
	}
	intent.Amount = amount
	g.intents[intentID] = intent
	return intent, nil
}

func (g *gatewayStub) setStatus(t *testing.T, intentID, status string) {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	intent, ok := g.intents[intentID]
	if !ok {
		t.Fatalf("no intent %s", intentID)
	}
	intent.Status = status
	g.intents[intentID] = intent
}

func setupCheckout(t *testing.T) (domain.Service, billingdomain.Service, *gatewayStub, *gorm.DB, *snowflake.Node) {
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

	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))

	billingSvc := billingservice.New(billingservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Clock:       fakeClock,
		Repo:        billingrepo.Provide(),
		PatientRepo: patientrepo.Provide(),
		Policy:      config.NewStaticBillingPolicyHolder(config.DefaultBillingPolicy()),
	})

	gateway := newGatewayStub()
	checkoutSvc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Clock:   fakeClock,
		Cfg:     config.Config{GatewayWebhookSecret: testWebhookSecret},
		Repo:    checkoutrepo.Provide(),
		Billing: billingSvc,
		Gateway: gateway,
	})

	return checkoutSvc, billingSvc, gateway, db, node
}

func seedCheckoutBill(t *testing.T, billing billingdomain.Service, db *gorm.DB, node *snowflake.Node, amount string) billingdomain.Bill {
	t.Helper()

	patient := patientdomain.Patient{
		ID:        node.Generate(),
		MRN:       fmt.Sprintf("MRN-%s", node.Generate()),
		FullName:  "Sara Haile",
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

func deliverEvent(t *testing.T, svc domain.Service, eventID, eventType, intentJSON string) error {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{"id":%q,"type":%q,"data":{"object":%s}}`, eventID, eventType, intentJSON))
	headers := http.Header{}
	headers.Set("Stripe-Signature", SignPayload(testWebhookSecret, "1767952800", payload))
	return svc.HandleWebhook(context.Background(), payload, headers)
}

func TestCreateIntent(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	resp, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	require.NotEmpty(t, resp.PaymentIntentID)
	require.NotEmpty(t, resp.ClientSecret)
	require.Equal(t, "500.00", resp.Amount)
	require.Equal(t, domain.IntentStatusRequiresPayment, resp.Status)

	// The client secret never lands in storage.
	var count int
	require.NoError(t, db.Raw(
		`SELECT COUNT(1) FROM payment_intents WHERE provider_intent_id = ?`, resp.PaymentIntentID,
	).Scan(&count).Error)
	require.Equal(t, 1, count)
}

func TestCreateIntentReusesLiveIntent(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	first, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	second, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, first.PaymentIntentID, second.PaymentIntentID)

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM payment_intents WHERE bill_id = ?`, bill.ID).Scan(&count).Error)
	require.Equal(t, 1, count)
}

func TestCreateIntentRecreatesAfterCancel(t *testing.T) {
	svc, billing, gateway, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	first, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	gateway.setStatus(t, first.PaymentIntentID, "canceled")

	second, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	require.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID)

	var status string
	require.NoError(t, db.Raw(
		`SELECT status FROM payment_intents WHERE provider_intent_id = ?`, first.PaymentIntentID,
	).Scan(&status).Error)
	require.Equal(t, domain.IntentStatusCanceled, status)
}

func TestCreateIntentPaidBillUnavailable(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "100.00")

	_, err := billing.ApplyPayment(context.Background(), billingdomain.ApplyPaymentRequest{
		BillID: bill.ID,
		Amount: 10000,
		Source: billingdomain.SourceManual,
	})
	require.NoError(t, err)

	_, err = svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.ErrorIs(t, err, domain.ErrBillUnavailable)
}

func TestConfirm(t *testing.T) {
	svc, billing, gateway, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	// Not yet paid on the gateway side.
	_, err = svc.Confirm(context.Background(), domain.ConfirmRequest{
		BillID:          bill.ID.String(),
		PaymentIntentID: intent.PaymentIntentID,
	})
	require.ErrorIs(t, err, domain.ErrIntentNotPaid)

	gateway.setStatus(t, intent.PaymentIntentID, "succeeded")

	resp, err := svc.Confirm(context.Background(), domain.ConfirmRequest{
		BillID:          bill.ID.String(),
		PaymentIntentID: intent.PaymentIntentID,
	})
	require.NoError(t, err)
	require.Equal(t, billingdomain.StatusPaid, resp.Bill.Status)
	require.Equal(t, domain.IntentStatusSucceeded, resp.Status)
}

func TestConfirmMismatchedBill(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")
	other := seedCheckoutBill(t, billing, db, node, "300.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), domain.ConfirmRequest{
		BillID:          other.ID.String(),
		PaymentIntentID: intent.PaymentIntentID,
	})
	require.ErrorIs(t, err, domain.ErrIntentMismatch)

	_, err = svc.Confirm(context.Background(), domain.ConfirmRequest{
		BillID:          bill.ID.String(),
		PaymentIntentID: "pi_unknown",
	})
	require.ErrorIs(t, err, domain.ErrIntentNotFound)
}

func TestHandleWebhookAppliesPayment(t *testing.T) {
	svc, billing, gateway, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	gateway.setStatus(t, intent.PaymentIntentID, "succeeded")

	intentJSON := fmt.Sprintf(`{"id":%q,"amount":50000,"amount_received":50000,"currency":"usd"}`, intent.PaymentIntentID)
	require.NoError(t, deliverEvent(t, svc, "evt_1", "payment_intent.succeeded", intentJSON))

	fetched, err := billing.GetByID(context.Background(), billingdomain.GetBillRequest{ID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, billingdomain.StatusPaid, fetched.Status)
	require.Equal(t, int64(50000), fetched.PaidAmount)
}

func TestHandleWebhookRedeliveryIsNoOp(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	intentJSON := fmt.Sprintf(`{"id":%q,"amount":50000,"amount_received":50000,"currency":"usd"}`, intent.PaymentIntentID)
	require.NoError(t, deliverEvent(t, svc, "evt_dup", "payment_intent.succeeded", intentJSON))
	require.NoError(t, deliverEvent(t, svc, "evt_dup", "payment_intent.succeeded", intentJSON))

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM payments WHERE bill_id = ?`, bill.ID).Scan(&count).Error)
	require.Equal(t, 1, count)
}

func TestHandleWebhookRetriesUnprocessedEvent(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	// First delivery lands before the intent row exists and fails after the
	// dedup insert, leaving the event recorded but unprocessed.
	intentJSON := `{"id":"pi_test_1","amount":50000,"amount_received":50000,"currency":"usd"}`
	err := deliverEvent(t, svc, "evt_retry", "payment_intent.succeeded", intentJSON)
	require.ErrorIs(t, err, domain.ErrInvalidEvent)

	var unprocessed int
	require.NoError(t, db.Raw(
		`SELECT COUNT(1) FROM gateway_events WHERE provider_event_id = ? AND processed_at IS NULL`, "evt_retry",
	).Scan(&unprocessed).Error)
	require.Equal(t, 1, unprocessed)

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, "pi_test_1", intent.PaymentIntentID)

	// The gateway retries the same event id; the unprocessed row must be
	// run again instead of acknowledged as a duplicate.
	require.NoError(t, deliverEvent(t, svc, "evt_retry", "payment_intent.succeeded", intentJSON))

	fetched, err := billing.GetByID(context.Background(), billingdomain.GetBillRequest{ID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, billingdomain.StatusPaid, fetched.Status)

	require.NoError(t, db.Raw(
		`SELECT COUNT(1) FROM gateway_events WHERE provider_event_id = ? AND processed_at IS NULL`, "evt_retry",
	).Scan(&unprocessed).Error)
	require.Equal(t, 0, unprocessed)
}

func TestHandleWebhookDistinctEventsSameIntentApplyOnce(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	// Two different event ids for the same intent: the payments unique
	// index collapses them to a single application.
	intentJSON := fmt.Sprintf(`{"id":%q,"amount":50000,"amount_received":50000,"currency":"usd"}`, intent.PaymentIntentID)
	require.NoError(t, deliverEvent(t, svc, "evt_a", "payment_intent.succeeded", intentJSON))
	require.NoError(t, deliverEvent(t, svc, "evt_b", "payment_intent.succeeded", intentJSON))

	fetched, err := billing.GetByID(context.Background(), billingdomain.GetBillRequest{ID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, int64(50000), fetched.PaidAmount)

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM payments WHERE bill_id = ?`, bill.ID).Scan(&count).Error)
	require.Equal(t, 1, count)
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	svc, _, _, _, _ := setupCheckout(t)

	payload := []byte(`{"id":"evt_x","type":"payment_intent.succeeded","data":{"object":{"id":"pi_x"}}}`)

	headers := http.Header{}
	err := svc.HandleWebhook(context.Background(), payload, headers)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)

	headers.Set("Stripe-Signature", SignPayload("whsec_wrong", "1767952800", payload))
	err = svc.HandleWebhook(context.Background(), payload, headers)
	require.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestHandleWebhookFailedIntent(t *testing.T) {
	svc, billing, _, db, node := setupCheckout(t)
	bill := seedCheckoutBill(t, billing, db, node, "500.00")

	intent, err := svc.CreateIntent(context.Background(), domain.CreateIntentRequest{BillID: bill.ID.String()})
	require.NoError(t, err)

	intentJSON := fmt.Sprintf(`{"id":%q}`, intent.PaymentIntentID)
	require.NoError(t, deliverEvent(t, svc, "evt_fail", "payment_intent.payment_failed", intentJSON))

	var status string
	require.NoError(t, db.Raw(
		`SELECT status FROM payment_intents WHERE provider_intent_id = ?`, intent.PaymentIntentID,
	).Scan(&status).Error)
	require.Equal(t, domain.IntentStatusFailed, status)

	fetched, err := billing.GetByID(context.Background(), billingdomain.GetBillRequest{ID: bill.ID.String()})
	require.NoError(t, err)
	require.Equal(t, int64(0), fetched.PaidAmount)
}

func TestHandleWebhookUnknownEventType(t *testing.T) {
	svc, _, _, db, _ := setupCheckout(t)

	require.NoError(t, deliverEvent(t, svc, "evt_other", "charge.refunded", `{"id":"ch_1"}`))

	var count int
	require.NoError(t, db.Raw(`SELECT COUNT(1) FROM gateway_events WHERE provider_event_id = 'evt_other'`).Scan(&count).Error)
	require.Equal(t, 1, count)
}

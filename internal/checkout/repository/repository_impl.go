package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertIntent(ctx context.Context, db *gorm.DB, intent *domain.PaymentIntent) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_intents (
			id, bill_id, provider, provider_intent_id, amount, currency, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		intent.ID,
		intent.BillID,
		intent.Provider,
		intent.ProviderIntentID,
		intent.Amount,
		intent.Currency,
		intent.Status,
		intent.CreatedAt,
		intent.UpdatedAt,
	).Error
}

func (r *repo) FindLiveIntentByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, provider, provider_intent_id, amount, currency, status,
		        created_at, updated_at
		 FROM payment_intents
		 WHERE bill_id = ? AND status = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		billID,
		domain.IntentStatusRequiresPayment,
	).Scan(&intent).Error
	if err != nil {
		return nil, err
	}
	if intent.ID == 0 {
		return nil, nil
	}
	return &intent, nil
}

func (r *repo) FindIntentByProviderID(ctx context.Context, db *gorm.DB, provider, providerIntentID string) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := db.WithContext(ctx).Raw(
		`SELECT id, bill_id, provider, provider_intent_id, amount, currency, status,
		        created_at, updated_at
		 FROM payment_intents
		 WHERE provider = ? AND provider_intent_id = ?`,
		provider,
		providerIntentID,
	).Scan(&intent).Error
	if err != nil {
		return nil, err
	}
	if intent.ID == 0 {
		return nil, nil
	}
	return &intent, nil
}

func (r *repo) UpdateIntent(ctx context.Context, db *gorm.DB, intent *domain.PaymentIntent) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_intents
		 SET provider_intent_id = ?, amount = ?, status = ?, updated_at = ?
		 WHERE id = ?`,
		intent.ProviderIntentID,
		intent.Amount,
		intent.Status,
		intent.UpdatedAt,
		intent.ID,
	).Error
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, event *domain.GatewayEvent) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO gateway_events (
			id, provider, provider_event_id, event_type, payload, received_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, provider_event_id) DO NOTHING`,
		event.ID,
		event.Provider,
		event.ProviderEventID,
		event.EventType,
		event.Payload,
		event.ReceivedAt,
		event.ProcessedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	return true, nil
}

func (r *repo) FindEventByProviderID(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*domain.GatewayEvent, error) {
	var event domain.GatewayEvent
	err := db.WithContext(ctx).Raw(
		`SELECT id, provider, provider_event_id, event_type, payload, received_at, processed_at
		 FROM gateway_events
		 WHERE provider = ? AND provider_event_id = ?`,
		provider,
		providerEventID,
	).Scan(&event).Error
	if err != nil {
		return nil, err
	}
	if event.ID == 0 {
		return nil, nil
	}
	return &event, nil
}

func (r *repo) MarkEventProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE gateway_events
		 SET processed_at = ?
		 WHERE provider = ? AND provider_event_id = ?`,
		at,
		provider,
		providerEventID,
	).Error
}

package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const ProviderStripe = "stripe"

const (
	IntentStatusRequiresPayment = "requires_payment"
	IntentStatusSucceeded       = "succeeded"
	IntentStatusFailed          = "failed"
	IntentStatusCanceled        = "canceled"
)

// PaymentIntent mirrors the gateway's intent lifecycle. The client secret
// is returned to the caller once and never persisted.
type PaymentIntent struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	BillID           snowflake.ID `gorm:"not null;index" json:"bill_id"`
	Provider         string       `gorm:"type:text;not null" json:"provider"`
	ProviderIntentID string       `gorm:"type:text" json:"provider_intent_id"`
	Amount           int64        `gorm:"not null" json:"amount"`
	Currency         string       `gorm:"type:text;not null" json:"currency"`
	Status           string       `gorm:"type:text;not null" json:"status"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (PaymentIntent) TableName() string { return "payment_intents" }

// Live reports whether the intent can still collect a payment.
func (i PaymentIntent) Live() bool {
	return i.Status == IntentStatusRequiresPayment
}

// GatewayEvent is the dedup record for webhook deliveries; the unique
// (provider, provider_event_id) pair makes redelivery a no-op.
type GatewayEvent struct {
	ID              snowflake.ID   `gorm:"primaryKey" json:"id"`
	Provider        string         `gorm:"type:text;not null" json:"provider"`
	ProviderEventID string         `gorm:"type:text;not null" json:"provider_event_id"`
	EventType       string         `gorm:"type:text" json:"event_type"`
	Payload         datatypes.JSON `json:"payload"`
	ReceivedAt      time.Time      `gorm:"not null" json:"received_at"`
	ProcessedAt     *time.Time     `json:"processed_at,omitempty"`
}

func (GatewayEvent) TableName() string { return "gateway_events" }

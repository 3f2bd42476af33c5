package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AuditLog struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	Actor      string            `json:"actor" gorm:"type:text"`
	Action     string            `json:"action" gorm:"type:text;not null"`
	EntityType string            `json:"entity_type" gorm:"type:text"`
	EntityID   int64             `json:"entity_id" gorm:"index:idx_audit_logs_entity"`
	Metadata   datatypes.JSONMap `json:"metadata"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActionBillCreated     = "bill.created"
	ActionPaymentApplied  = "bill.payment_applied"
	ActionPaymentRejected = "bill.payment_rejected"
	ActionIntentCreated   = "checkout.intent_created"
	ActionIntentReused    = "checkout.intent_reused"
	ActionWebhookReceived = "checkout.webhook_received"
	ActionPatientCreated  = "patient.created"
)

var ErrInvalidAction = errors.New("invalid_action")

type ListFilter struct {
	EntityType string
	EntityID   int64
	Action     string
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditLog) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditLog, error)
}

type Service interface {
	Record(ctx context.Context, actor, action, entityType string, entityID int64, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}

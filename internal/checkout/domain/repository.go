package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertIntent(ctx context.Context, db *gorm.DB, intent *PaymentIntent) error
	FindLiveIntentByBill(ctx context.Context, db *gorm.DB, billID snowflake.ID) (*PaymentIntent, error)
	FindIntentByProviderID(ctx context.Context, db *gorm.DB, provider, providerIntentID string) (*PaymentIntent, error)
	UpdateIntent(ctx context.Context, db *gorm.DB, intent *PaymentIntent) error

	// InsertEvent returns false without error when the event was already
	// recorded for this provider.
	InsertEvent(ctx context.Context, db *gorm.DB, event *GatewayEvent) (bool, error)
	FindEventByProviderID(ctx context.Context, db *gorm.DB, provider, providerEventID string) (*GatewayEvent, error)
	MarkEventProcessed(ctx context.Context, db *gorm.DB, provider, providerEventID string, at time.Time) error
}

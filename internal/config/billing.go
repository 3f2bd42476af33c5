package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingPolicy carries the operational knobs of the billing engine.
// Amounts are in minor currency units.
type BillingPolicy struct {
	// OverpaymentTolerance is the maximum amount by which a payment may
	// push paid_amount past total_amount before it is rejected. Payments
	// are never clamped; within the tolerance they are applied in full.
	OverpaymentTolerance int64  `mapstructure:"overpaymentTolerance"`
	Currency             string `mapstructure:"currency"`
	BillCacheTTLSeconds  int    `mapstructure:"billCacheTtlSeconds"`
}

func DefaultBillingPolicy() BillingPolicy {
	return BillingPolicy{
		OverpaymentTolerance: 0,
		Currency:             "USD",
		BillCacheTTLSeconds:  30,
	}
}

func (p BillingPolicy) BillCacheTTL() time.Duration {
	return time.Duration(p.BillCacheTTLSeconds) * time.Second
}

// BillingPolicyHolder exposes the current policy and hot-reloads it when
// the backing config file changes.
type BillingPolicyHolder struct {
	current atomic.Value // holds BillingPolicy
}

func NewBillingPolicyHolder() (*BillingPolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/hospitald")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HOSPITALD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultBillingPolicy()
		v.SetDefault("billing.overpaymentTolerance", defaults.OverpaymentTolerance)
		v.SetDefault("billing.currency", defaults.Currency)
		v.SetDefault("billing.billCacheTtlSeconds", defaults.BillCacheTTLSeconds)
	}

	var policy BillingPolicy
	if err := v.UnmarshalKey("billing", &policy); err != nil {
		return nil, err
	}
	if err := validateBillingPolicy(policy); err != nil {
		return nil, err
	}

	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated BillingPolicy
		if err := v.UnmarshalKey("billing", &updated); err != nil {
			log.Printf("[billing-policy] reload failed: %v", err)
			return
		}
		if err := validateBillingPolicy(updated); err != nil {
			log.Printf("[billing-policy] invalid policy ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[billing-policy] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticBillingPolicyHolder returns a holder pinned to the given policy.
func NewStaticBillingPolicyHolder(policy BillingPolicy) *BillingPolicyHolder {
	holder := &BillingPolicyHolder{}
	holder.current.Store(policy)
	return holder
}

func (h *BillingPolicyHolder) Get() BillingPolicy {
	return h.current.Load().(BillingPolicy)
}

func validateBillingPolicy(policy BillingPolicy) error {
	if policy.OverpaymentTolerance < 0 {
		return errors.New("billing.overpaymentTolerance cannot be negative")
	}
	if strings.TrimSpace(policy.Currency) == "" {
		return errors.New("billing.currency cannot be empty")
	}
	if policy.BillCacheTTLSeconds < 0 {
		return errors.New("billing.billCacheTtlSeconds cannot be negative")
	}
	return nil
}

package migration

import (
	auditdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/audit/domain"
	billingdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/billing/domain"
	checkoutdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/checkout/domain"
	patientdomain "github.com/Biniyam0911/HospitalManager-sub001/internal/patient/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		if conn.Dialector.Name() != "postgres" {
			return AutoMigrate(conn)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

// AutoMigrate covers the non-postgres path, where golang-migrate's
// postgres driver cannot run. Tests share it for sqlite setup.
func AutoMigrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&patientdomain.Patient{},
		&billingdomain.Bill{},
		&billingdomain.Payment{},
		&checkoutdomain.PaymentIntent{},
		&checkoutdomain.GatewayEvent{},
		&auditdomain.AuditLog{},
	); err != nil {
		return err
	}

	stmts := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_payments_bill_external_ref ON payments (bill_id, external_ref)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_gateway_events_provider_event ON gateway_events (provider, provider_event_id)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_payment_intents_provider_intent ON payment_intents (provider, provider_intent_id)`,
	}
	for _, stmt := range stmts {
		if err := conn.Exec(stmt).Error; err != nil {
			return err
		}
	}
	return nil
}

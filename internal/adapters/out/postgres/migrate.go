package postgres

import (
	"fmt"

	"dispatch/internal/adapters/out/postgres/auditrepo"
	"dispatch/internal/adapters/out/postgres/checkoutrepo"
	"dispatch/internal/adapters/out/postgres/orderrepo"
	"dispatch/internal/adapters/out/postgres/outboxrepo"
	"dispatch/internal/adapters/out/postgres/runrepo"
	"dispatch/internal/adapters/out/postgres/sequencerepo"

	"gorm.io/gorm"
)

// partialIndexes back the one-active-run and one-open-checkout rules.
// Both Postgres and SQLite accept this syntax.
var partialIndexes = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_delivery_runs_active_vehicle
		ON delivery_runs (vehicle) WHERE status = 'active'`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_vehicle_checkouts_open
		ON vehicle_checkouts (vehicle) WHERE checked_in_at IS NULL`,
}

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&orderrepo.OrderDTO{},
		&runrepo.RunDTO{},
		&checkoutrepo.CheckoutDTO{},
		&auditrepo.RecordDTO{},
		&sequencerepo.SequenceDTO{},
		&outboxrepo.EventDTO{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create partial index: %w", err)
		}
	}
	return nil
}

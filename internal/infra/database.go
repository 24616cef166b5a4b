package infra

import (
	"fmt"

	"courtpos/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase establishes a GORM connection backed by pgx, runs AutoMigrate
// for the ledger tables, then applies idempotent SQL patches that GORM cannot
// express (partial unique index, range-scan index for the aggregator).
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.Facility{},
		&model.CashSession{},
		&model.CashMovement{},
		&model.Booking{},
		&model.BookingPayment{},
		&model.Order{},
		&model.OrderPayment{},
	); err != nil {
		return nil, fmt.Errorf("AutoMigrate: %w", err)
	}

	if err := applySchemaPatches(db); err != nil {
		return nil, fmt.Errorf("schema patches: %w", err)
	}

	return db, nil
}

// applySchemaPatches runs idempotent DDL beyond AutoMigrate's reach.
func applySchemaPatches(db *gorm.DB) error {
	patches := []string{
		// At most one open session per facility at any instant.
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_open_session_per_facility
			ON cash_sessions (facility_id) WHERE status = 'open'`,
		// The aggregator and the window resolver both range-scan by time
		// within a session / facility.
		`CREATE INDEX IF NOT EXISTS idx_cash_movements_session_recorded
			ON cash_movements (session_id, recorded_at)`,
		`CREATE INDEX IF NOT EXISTS idx_cash_sessions_facility_window
			ON cash_sessions (facility_id, opened_at)`,
	}
	for _, p := range patches {
		if err := db.Exec(p).Error; err != nil {
			return err
		}
	}
	return nil
}

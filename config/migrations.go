package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/fuelnet/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250901_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Network{}, &models.TradingPoint{},
					&models.FuelType{}, &models.Tank{})
			},
		},
		{
			ID: "20250901_create_audit_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.FuelMeasurement{}, &models.TankEvent{})
			},
		},
		{
			ID: "20250901_audit_table_indexes",
			Migrate: func(tx *gorm.DB) error {
				// Composite indexes for the paginated history/event queries.
				if err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_fuel_measurement_history_tank_measured ON fuel_measurement_history (tank_id, measured_at DESC)").Error; err != nil {
					return err
				}
				return tx.Exec("CREATE INDEX IF NOT EXISTS idx_tank_events_tank_occurred ON tank_events (tank_id, occurred_at DESC)").Error
			},
		},
	})
	return m.Migrate()
}

package database

import (
	"github.com/aeroclubnz/aeroclub-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.Organization{},
		&models.User{},
		&models.MemberAccount{},
		&models.MemberDocument{},
		&models.DeviceToken{},
		&models.AircraftType{},
		&models.Aircraft{},
		&models.AircraftRate{},
		&models.AircraftTechLog{},
		&models.FlightType{},
		&models.Lesson{},
		&models.BookingFlightTimes{},
		&models.Booking{},
		&models.Chargeable{},
		&models.Invoice{},
		&models.InvoiceItem{},
		&models.Payment{},
		&models.Transaction{},
	)
	if err != nil {
		return err
	}

	// Update bookings table from deployments that predate the status enum
	if db.Migrator().HasTable(&models.Booking{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS description text DEFAULT ''",
			"ADD COLUMN IF NOT EXISTS booking_flight_times_id bigint",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE bookings " + column).Error; err != nil {
				return err
			}
		}

		// Update constraint
		db.Exec(`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_status_check`)
		db.Exec(`ALTER TABLE bookings ADD CONSTRAINT bookings_status_check CHECK (status IN ('unconfirmed', 'confirmed', 'flying', 'complete', 'cancelled'))`)
	}

	// Aircraft billing flags were added after the first schema shipped
	if db.Migrator().HasTable(&models.Aircraft{}) {
		columns := []string{
			"ADD COLUMN IF NOT EXISTS record_tacho boolean DEFAULT false",
			"ADD COLUMN IF NOT EXISTS record_hobbs boolean DEFAULT false",
		}

		for _, column := range columns {
			if err := db.Exec("ALTER TABLE aircraft " + column).Error; err != nil {
				return err
			}
		}
	}

	// Organizations created before configurable tax get the default rate
	if db.Migrator().HasTable(&models.Organization{}) {
		var columnExists bool
		err := db.Raw(`
			SELECT EXISTS (
				SELECT 1
				FROM information_schema.columns
				WHERE table_name = 'organizations'
				AND column_name = 'tax_rate'
			)`).Scan(&columnExists).Error
		if err != nil {
			return err
		}

		if !columnExists {
			if err := db.Exec(`ALTER TABLE organizations ADD COLUMN tax_rate numeric DEFAULT 0.15`).Error; err != nil {
				return err
			}

			if err := db.Exec(`UPDATE organizations SET tax_rate = 0.15 WHERE tax_rate IS NULL`).Error; err != nil {
				return err
			}

			if err := db.Exec(`ALTER TABLE organizations ALTER COLUMN tax_rate SET NOT NULL`).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

package migrations

import (
	"time"

	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/devasol/dlms-backend/internal/models"
)

// migrationsList holds all migrations in order
var migrationsList = []*gormigrate.Migration{
	createCoreTables(),
	createLicensingTables(),
	seedLicenseCounter(),
}

// RunMigrations runs all database migrations
func RunMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.Migrate(); err != nil {
		log.Error().Err(err).Msg("could not migrate")
		return err
	}
	log.Info().Msg("migrations ran successfully")
	return nil
}

// createCoreTables creates users, exam results and notifications
func createCoreTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_core_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.User{},
				&models.ExamResult{},
				&models.Notification{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.Notification{},
				&models.ExamResult{},
				&models.User{},
			)
		},
	}
}

// createLicensingTables creates payments, licenses, violations and renewals
func createLicensingTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_licensing_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&models.Payment{},
				&models.License{},
				&models.Violation{},
				&models.LicenseRenewal{},
				&models.LicenseCounter{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(
				&models.LicenseCounter{},
				&models.LicenseRenewal{},
				&models.Violation{},
				&models.License{},
				&models.Payment{},
			)
		},
	}
}

// seedLicenseCounter makes sure the current year has a counter row so the
// first issuance does not race on insert
func seedLicenseCounter() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_seed_license_counter",
		Migrate: func(tx *gorm.DB) error {
			counter := models.LicenseCounter{Year: time.Now().Year(), Seq: 0}
			return tx.FirstOrCreate(&counter, models.LicenseCounter{Year: counter.Year}).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return nil
		},
	}
}

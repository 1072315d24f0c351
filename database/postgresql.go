package database

import (
	"context"
	"fmt"
	"time"

	"MediCore/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB opens the Postgres connection, configures the pool and verifies it.
func InitDB(ctx context.Context, dsn string, debug bool, log zerolog.Logger) (*gorm.DB, error) {
	logMode := logger.Silent
	if debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
		Logger:         logger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}

	if err := configureConnectionPool(db); err != nil {
		return nil, err
	}

	if err := testDatabaseConnection(ctx, db); err != nil {
		return nil, err
	}

	log.Info().Msg("database initialized")
	return db, nil
}

// configureConnectionPool sets up the connection pool settings for the database.
func configureConnectionPool(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	sqlDB.SetMaxOpenConns(40)
	sqlDB.SetMaxIdleConns(20)
	sqlDB.SetConnMaxLifetime(10 * time.Minute)
	return nil
}

func testDatabaseConnection(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get sql.DB from GORM")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return errors.Wrap(err, "failed to ping database")
	}
	return nil
}

// RunMigrations creates or updates the schema, including the partial unique
// index that makes at most one non-cancelled appointment per doctor slot.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	db = db.WithContext(ctx)
	if err := db.AutoMigrate(
		&models.User{},
		&models.Patient{},
		&models.Appointment{},
		&models.Prescription{},
		&models.DiagnosisLog{},
	); err != nil {
		return errors.Wrap(err, "failed to auto-migrate schema")
	}

	activeSlot := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s (doctor_id, date, time_slot) WHERE status <> '%s'`,
		models.ActiveSlotIndex, models.Appointment{}.TableName(), models.StatusCancelled,
	)
	if err := db.Exec(activeSlot).Error; err != nil {
		return errors.Wrap(err, "failed to create active slot index")
	}
	return nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

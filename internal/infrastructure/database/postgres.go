package database

import (
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/one-zero-eight/omnidesk-portal/internal/infrastructure/database/models"
)

const (
	slowQueryThreshold = 300 * time.Millisecond
	maxOpenConns       = 10
	connMaxIdleTime    = 5 * time.Minute
)

// newQueryLogger routes gorm warnings into the process slog logger.
func newQueryLogger() logger.Interface {
	sink := slog.NewLogLogger(slog.Default().With(slog.String("module", "database")).Handler(), slog.LevelWarn)
	return logger.New(sink, logger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// NewPostgres opens the activity log database.
func NewPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         newQueryLogger(),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return db, nil
}

func MigratePostgres(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Activity{},
	)
}

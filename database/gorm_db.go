package database

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/camden-git/portfoliobackend/config"
	"github.com/camden-git/portfoliobackend/models"
)

// InitGormDB opens the configured driver and returns a GORM database instance.
// SQL logging goes through the application zap logger.
func InitGormDB(driver, dsn string, log *zap.Logger) (*gorm.DB, error) {
	level := logger.Warn
	if log.Core().Enabled(zapcore.DebugLevel) {
		level = logger.Info
	}
	stdLog, err := zap.NewStdLogAt(log.Named("gorm"), zapcore.InfoLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to build gorm logger: %w", err)
	}
	gormLogger := logger.New(
		stdLog,
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverSQLite, "":
		dialector = sqlite.Open(sqliteDSN(dsn))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database using GORM: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB from GORM: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("GORM database initialized", zap.String("driver", driver))
	return db, nil
}

// sqliteDSN turns on foreign keys and WAL unless the caller already set options.
func sqliteDSN(dsn string) string {
	if dsn == ":memory:" {
		return "file::memory:?cache=shared&_foreign_keys=on"
	}
	if strings.Contains(dsn, "?") {
		return dsn
	}
	return dsn + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000"
}

// AutoMigrateModels creates or updates the tables for all portfolio models.
func AutoMigrateModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Category{},
		&models.CategoryCover{},
		&models.Album{},
		&models.Photo{},
	)
	if err != nil {
		return fmt.Errorf("GORM AutoMigrate failed: %w", err)
	}
	return nil
}

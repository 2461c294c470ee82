package sqlStore

import (
	"context"
	"fmt"
	"time"

	"github.com/akolanti/DocuMind/pkg/logger_i"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var logger = logger_i.NewLogger("SQL Store")

// Open connects to MySQL and sizes the pool. The caller owns the returned handle.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("connecting to mysql: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("pinging mysql: %w", err)
	}
	logger.Info("MySQL database connected successfully")

	go func() {
		<-ctx.Done()
		if err := sqlDB.Close(); err != nil {
			logger.Error("Error closing mysql", "error", err)
		}
	}()
	return db, nil
}

// Migrate creates or updates the tables the repositories use.
func Migrate(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).AutoMigrate(&documentRecord{}, &sessionRecord{}, &sessionDocumentRecord{}, &messageRecord{})
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger: gormlogger.NewSlogLogger(logger.Slog(), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			IgnoreRecordNotFoundError: true,
			LogLevel:                  gormlogger.Warn,
		}),
	}
}

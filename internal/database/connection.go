package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/thereayou/streamhub/internal/models"
)

const (
	maxConnectDelay    = 10 * time.Second
	slowQueryThreshold = 200 * time.Millisecond
)

// Connect opens a Postgres connection, retrying with exponential backoff.
// Only connection establishment is retried; queries never are.
func Connect(ctx context.Context, dsn string, attempts int, delay time.Duration, log *zap.Logger) (*Database, error) {
	if dsn == "" {
		return nil, errors.New("DATABASE_URL is not set")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		db, err := Open(postgres.Open(dsn), log)
		if err == nil {
			if err = db.Ping(ctx); err == nil {
				if err = db.SetPool(25, 5, 30*time.Minute); err == nil {
					return db, nil
				}
			}
			_ = db.Close()
		}
		lastErr = err

		if attempt == attempts {
			break
		}
		log.Warn("database connect failed, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("database connect cancelled: %w", ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxConnectDelay {
			delay = maxConnectDelay
		}
	}
	return nil, fmt.Errorf("database connect failed after %d attempts: %w", attempts, lastErr)
}

// Open wraps any gorm dialector. Unique violations are translated to
// gorm.ErrDuplicatedKey so callers stay driver-agnostic. Query warnings and
// errors go to log; misses are reported to callers as NotFound, not logged.
func Open(dialector gorm.Dialector, log *zap.Logger) (*Database, error) {
	gormLog, err := newGormLogger(log)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormLog,
	})
	if err != nil {
		return nil, err
	}
	return NewDatabase(db), nil
}

func newGormLogger(log *zap.Logger) (gormlogger.Interface, error) {
	if log == nil {
		log = zap.NewNop()
	}
	writer, err := zap.NewStdLogAt(log.Named("gorm"), zap.WarnLevel)
	if err != nil {
		return nil, err
	}
	return gormlogger.New(writer, gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	}), nil
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(
		&models.User{},
		&models.Video{},
		&models.VideoReaction{},
		&models.Comment{},
		&models.Room{},
		&models.Message{},
	)
}

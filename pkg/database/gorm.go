package database

import (
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type options struct {
	logLevel      logger.LogLevel
	slowThreshold time.Duration
	maxIdleConns  int
	maxOpenConns  int
	connLifetime  time.Duration
}

type Option func(*options)

// WithQuietLogging keeps only slow queries and errors in the SQL log.
func WithQuietLogging() Option {
	return func(o *options) { o.logLevel = logger.Warn }
}

func WithPool(maxIdle, maxOpen int) Option {
	return func(o *options) {
		if maxIdle > 0 {
			o.maxIdleConns = maxIdle
		}
		if maxOpen > 0 {
			o.maxOpenConns = maxOpen
		}
	}
}

func defaultOptions() options {
	return options{
		logLevel:      logger.Info,
		slowThreshold: time.Second,
		maxIdleConns:  10,
		maxOpenConns:  50,
		connLifetime:  time.Hour,
	}
}

func newLogger(o options) logger.Interface {
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             o.slowThreshold,
			LogLevel:                  o.logLevel,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
			Colorful:                  o.logLevel == logger.Info,
		},
	)
}

// NewGormDBFromDSN opens a postgres connection pool.
func NewGormDBFromDSN(dsn string, opts ...Option) (*gorm.DB, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger(o),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(o.maxIdleConns)
	sqlDB.SetMaxOpenConns(o.maxOpenConns)
	sqlDB.SetConnMaxLifetime(o.connLifetime)

	return db, nil
}

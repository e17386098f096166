// Package database opens the gorm connection for the configured driver.
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/studieren/eco_shop/config"
)

type Options struct {
	Driver string
	DSN    string
	// LogLevel is the gorm SQL log level; zero means warnings only.
	LogLevel logger.LogLevel
}

// Open connects and applies pool settings. Driver errors such as unique
// violations are translated to gorm.ErrDuplicatedKey and friends.
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case config.DriverSQLite, "":
		dialector = sqlite.Open(opts.DSN)
	case config.DriverPostgres:
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported driver %q", opts.Driver)
	}

	level := opts.LogLevel
	if level == 0 {
		level = logger.Warn
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", opts.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if opts.Driver == config.DriverPostgres {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	} else {
		// sqlite allows one writer; a single connection also keeps
		// ":memory:" databases alive across calls.
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

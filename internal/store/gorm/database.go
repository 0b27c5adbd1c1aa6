package gorm

import (
	"log/slog"

	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDatabase opens the sqlite database at dsn. Queries are logged by gorm
// at a level derived from logLevel.
func OpenDatabase(dsn string, logLevel slog.Level) (*gorm.DB, error) {
	dialector := gormlite.Open(dsn)

	var gormLevel logger.LogLevel
	switch logLevel {
	case slog.LevelError:
		gormLevel = logger.Error
	case slog.LevelWarn:
		gormLevel = logger.Warn
	case slog.LevelInfo:
		gormLevel = logger.Warn
	default:
		gormLevel = logger.Error
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLevel),
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if logLevel == slog.LevelDebug {
		db = db.Debug()
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, errors.WithStack(err)
	}

	return db, nil
}

// CloseDatabase releases the connection pool of db.
func CloseDatabase(db *gorm.DB) error {
	internalDB, err := db.DB()
	if err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(internalDB.Close())
}

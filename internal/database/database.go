package database

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/apperr"
	"github.com/mrlokans/bookshelf/internal/database/dbctx"
	"github.com/mrlokans/bookshelf/internal/entities"
	"github.com/mrlokans/bookshelf/internal/logger"
)

// sqliteParams make concurrent writers wait for the lock instead of failing,
// and take the write lock when a transaction begins.
const sqliteParams = "_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"

// newGormLogger reports slow queries and failed statements to w. A missing
// row is a not-found answer, not a storage failure, so it is not logged.
func newGormLogger(w io.Writer) gormlogger.Interface {
	return gormlogger.New(stdlog.New(w, "\r\n", stdlog.LstdFlags), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  gormlogger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

type Database struct {
	DB  *gorm.DB
	log *logger.Logger
}

func NewDatabase(dbPath string, log *logger.Logger) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn(dbPath)), &gorm.Config{
		Logger: newGormLogger(os.Stdout),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Comment{},
		&entities.AuditEvent{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Info("Database initialized", "path", dbPath)

	return &Database{DB: db, log: log.With("component", "database")}, nil
}

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + sqliteParams
	}
	return dbPath + "?" + sqliteParams
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection pool can reach the database file.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Transaction runs fn inside a single database transaction. Errors returned
// by fn roll the transaction back and are passed through unchanged; failures
// to begin or commit are reported as storage errors.
func (d *Database) Transaction(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	var fnErr error
	err := d.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(dbctx.Context{Ctx: ctx, Tx: tx})
		return fnErr
	})
	if err == nil {
		return nil
	}
	if fnErr != nil {
		return fnErr
	}
	d.log.Error("Transaction failed", "error", err)
	return apperr.Storage("transaction", err)
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"

	pingTimeout = 10 * time.Second
)

// Options selects and tunes the database backend
type Options struct {
	Driver             string
	PostgresDSN        string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	SqlitePath         string
	MaxOpenConnections int
	// Logger receives one debug entry per query when set
	Logger *zap.Logger
}

// Open connects to the configured backend and verifies the connection
func Open(ctx context.Context, opts Options) (*bun.DB, error) {
	var (
		db  *bun.DB
		err error
	)

	switch opts.Driver {
	case DriverPostgres:
		db = openPostgres(opts)
	case DriverSqlite:
		db, err = OpenSqlite(opts.SqlitePath)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	if opts.Logger != nil {
		db.AddQueryHook(NewQueryHook(opts.Logger))
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, nil
}

func openPostgres(opts Options) *bun.DB {
	connOpts := []pgdriver.Option{pgdriver.WithDSN(opts.PostgresDSN)}
	if opts.ReadTimeout > 0 {
		connOpts = append(connOpts, pgdriver.WithReadTimeout(opts.ReadTimeout))
	}
	if opts.WriteTimeout > 0 {
		connOpts = append(connOpts, pgdriver.WithWriteTimeout(opts.WriteTimeout))
	}

	maxConnections := opts.MaxOpenConnections
	if maxConnections <= 0 {
		maxConnections = 10
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(connOpts...))
	sqldb.SetMaxOpenConns(maxConnections)
	sqldb.SetMaxIdleConns(maxConnections / 2)
	sqldb.SetConnMaxLifetime(time.Hour)

	return bun.NewDB(sqldb, pgdialect.New())
}

// OpenSqlite opens (or creates) a sqlite database. ":memory:" gives a private
// in-memory database that lives as long as the returned handle.
func OpenSqlite(path string) (*bun.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// a single connection serialises writers and keeps an in-memory database alive
	sqldb.SetMaxOpenConns(1)
	sqldb.SetMaxIdleConns(1)
	sqldb.SetConnMaxLifetime(0)

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// CreateTables creates the table of every model that does not exist yet
func CreateTables(ctx context.Context, db bun.IDB, models ...interface{}) error {
	for _, model := range models {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table for model %T: %w", model, err)
		}
	}
	return nil
}

// CreateIndexes runs index statements; each must be idempotent
func CreateIndexes(ctx context.Context, db bun.IDB, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index with SQL %q: %w", stmt, err)
		}
	}
	return nil
}

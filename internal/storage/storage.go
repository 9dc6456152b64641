// Package storage opens the bun database handle and creates the editorial schema.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/runtimeconfig"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// ErrDriverUnsupported indicates the configured driver has no dialect wiring.
var ErrDriverUnsupported = errors.New("storage: unsupported driver")

// Models lists the bun models owned by the editorial schema.
func Models() []any {
	return []any{
		(*content.Item)(nil),
		(*audit.Entry)(nil),
	}
}

// Open connects to the configured database. SQLite handles are limited to a
// single connection so transactions serialise instead of failing with
// "database is locked".
func Open(cfg runtimeconfig.StorageConfig) (*bun.DB, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case runtimeconfig.StorageDriverSQLite:
		sqlDB, err := sql.Open("sqlite3", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("storage: open sqlite: %w", err)
		}
		db := bun.NewDB(sqlDB, sqlitedialect.New())
		db.SetMaxOpenConns(1)
		return db, nil
	case runtimeconfig.StorageDriverPostgres:
		sqlDB := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DSN)))
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		return bun.NewDB(sqlDB, pgdialect.New()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrDriverUnsupported, cfg.Driver)
	}
}

// Migrate creates the tables and indexes used by the bun stores. It is safe
// to run repeatedly.
func Migrate(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return fmt.Errorf("storage: database required")
	}
	for _, model := range Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("storage: create table for %T: %w", model, err)
		}
	}
	if _, err := db.NewCreateIndex().
		Model((*audit.Entry)(nil)).
		Index("content_audit_entries_content_version_idx").
		Unique().
		IfNotExists().
		Column("content_id", "version").
		Exec(ctx); err != nil {
		return fmt.Errorf("storage: create audit version index: %w", err)
	}
	if _, err := db.NewCreateIndex().
		Model((*content.Item)(nil)).
		Index("content_items_state_updated_idx").
		IfNotExists().
		Column("state", "updated_at").
		Exec(ctx); err != nil {
		return fmt.Errorf("storage: create item state index: %w", err)
	}
	return nil
}

package testsupport

import (
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

var dbCounter atomic.Int64

// NewIsolatedSQLiteDB opens a named in-memory database so tests in the same
// package do not observe each other's rows.
func NewIsolatedSQLiteDB(name string) (*sql.DB, error) {
	label := strings.NewReplacer("/", "_", " ", "_").Replace(strings.TrimSpace(name))
	if label == "" {
		label = "editorial"
	}
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", label, dbCounter.Add(1))
	return sql.Open("sqlite3", dsn)
}

// NewBunDB returns a bun handle over an isolated in-memory SQLite database
// that is closed when the test finishes.
func NewBunDB(t testing.TB) *bun.DB {
	t.Helper()
	sqlDB, err := NewIsolatedSQLiteDB(t.Name())
	if err != nil {
		t.Fatalf("new sqlite db: %v", err)
	}
	db := bun.NewDB(sqlDB, sqlitedialect.New())
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db
}

package sqlerr_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/goliatone/go-editorial/internal/storage/sqlerr"
	"github.com/goliatone/go-editorial/pkg/testsupport"
	"github.com/mattn/go-sqlite3"
)

func TestIsUniqueViolationClassifiesSQLiteCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "plain error mentioning unique", err: errors.New("unique constraint failed"), want: false},
		{name: "unique", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, want: true},
		{name: "primary key", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, want: true},
		{name: "not null", err: sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintNotNull}, want: false},
		{name: "wrapped unique", err: fmt.Errorf("insert: %w", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}), want: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := sqlerr.IsUniqueViolation(tc.err); got != tc.want {
				t.Fatalf("IsUniqueViolation(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestIsUniqueViolationOnSQLiteInsert(t *testing.T) {
	db := testsupport.NewBunDB(t)
	ctx := context.Background()

	if _, err := db.ExecContext(ctx, "CREATE TABLE slugs (slug TEXT NOT NULL UNIQUE)"); err != nil {
		t.Fatalf("create table: %v", err)
	}
	if _, err := db.ExecContext(ctx, "INSERT INTO slugs (slug) VALUES (?)", "budget-vote"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.ExecContext(ctx, "INSERT INTO slugs (slug) VALUES (?)", "budget-vote")
	if !sqlerr.IsUniqueViolation(err) {
		t.Fatalf("expected unique violation, got %v", err)
	}
	_, err = db.ExecContext(ctx, "INSERT INTO slugs (slug) VALUES (NULL)")
	if err == nil || sqlerr.IsUniqueViolation(err) {
		t.Fatalf("expected a non-unique constraint failure, got %v", err)
	}
}

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/goliatone/go-editorial/internal/storage/sqlerr"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunLog persists entries in the content_audit_entries table. The unique
// (content_id, version) index created by storage.Migrate backs the
// duplicate check when writers race.
type BunLog struct {
	db   *bun.DB
	repo repository.Repository[*Entry]
}

var _ Log = (*BunLog)(nil)

func NewBunLog(db *bun.DB) *BunLog {
	return &BunLog{db: db, repo: NewEntryRepository(db)}
}

// NewEntryRepository builds the go-repository-bun handle used for reads.
func NewEntryRepository(db *bun.DB) repository.Repository[*Entry] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Entry]{
		NewRecord: func() *Entry { return &Entry{} },
		GetID: func(e *Entry) uuid.UUID {
			return e.ID
		},
		SetID: func(e *Entry, id uuid.UUID) {
			e.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(e *Entry) string {
			return e.ID.String()
		},
	})
}

func (l *BunLog) Append(ctx context.Context, entry Entry) error {
	return l.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return AppendTx(ctx, tx, entry)
	})
}

// AppendTx appends entry using the caller's transaction so it commits or
// rolls back together with the item update.
func AppendTx(ctx context.Context, db bun.IDB, entry Entry) error {
	entry, err := prepare(entry)
	if err != nil {
		return err
	}

	var latest sql.NullInt64
	if err := db.NewSelect().
		Model((*Entry)(nil)).
		ColumnExpr("MAX(?TableAlias.version)").
		Where("?TableAlias.content_id = ?", entry.ContentID).
		Scan(ctx, &latest); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("audit: read latest version: %w", err)
	}
	if err := checkSequence(entry, int(latest.Int64)); err != nil {
		return err
	}

	if _, err := db.NewInsert().Model(&entry).Exec(ctx); err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: content %s version %d", ErrDuplicateVersion, entry.ContentID, entry.Version)
		}
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

func (l *BunLog) HistoryOf(ctx context.Context, contentID uuid.UUID) ([]Entry, error) {
	records, _, err := l.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.content_id = ?", contentID).
				OrderExpr("?TableAlias.version ASC")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("audit: history of %s: %w", contentID, err)
	}
	out := make([]Entry, 0, len(records))
	for _, record := range records {
		out = append(out, *record)
	}
	return out, nil
}

func (l *BunLog) Latest(ctx context.Context, contentID uuid.UUID) (Entry, bool, error) {
	records, _, err := l.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.content_id = ?", contentID).
				OrderExpr("?TableAlias.version DESC")
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return Entry{}, false, fmt.Errorf("audit: latest of %s: %w", contentID, err)
	}
	if len(records) == 0 {
		return Entry{}, false, nil
	}
	return *records[0], true, nil
}

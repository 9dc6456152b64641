package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/storage/sqlerr"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunStore persists items with bun. Reads go through go-repository-bun;
// commits run in a transaction that updates the row only while it still
// holds the expected version and state, then appends the audit entry.
type BunStore struct {
	db   *bun.DB
	repo repository.Repository[*Item]
}

var _ Store = (*BunStore)(nil)

func NewBunStore(db *bun.DB) *BunStore {
	return &BunStore{db: db, repo: NewItemRepository(db)}
}

// NewItemRepository builds the go-repository-bun handle for content items.
func NewItemRepository(db *bun.DB) repository.Repository[*Item] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Item]{
		NewRecord: func() *Item { return &Item{} },
		GetID: func(i *Item) uuid.UUID {
			return i.ID
		},
		SetID: func(i *Item, id uuid.UUID) {
			i.ID = id
		},
		GetIdentifier: func() string {
			return "slug"
		},
		GetIdentifierValue: func(i *Item) string {
			return i.Slug
		},
	})
}

func (s *BunStore) Create(ctx context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, fmt.Errorf("content: item required")
	}
	record := cloneItem(item)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	taken, err := s.db.NewSelect().Model((*Item)(nil)).Where("?TableAlias.slug = ?", record.Slug).Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("content: check slug: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: %s", ErrSlugExists, record.Slug)
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, record.Slug)
		}
		return nil, fmt.Errorf("content repository error: %w", err)
	}
	return created, nil
}

func (s *BunStore) Get(ctx context.Context, id uuid.UUID) (*Item, error) {
	result, err := s.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "content", id.String())
	}
	return result, nil
}

func (s *BunStore) List(ctx context.Context, opts ListOptions) ([]*Item, int, error) {
	opts = opts.Normalized()
	records, total, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			if opts.State != "" {
				q = q.Where("?TableAlias.state = ?", opts.State)
			}
			if opts.Owner != uuid.Nil {
				q = q.Where("?TableAlias.owner_id = ?", opts.Owner)
			}
			return q.OrderExpr("?TableAlias.updated_at ASC").OrderExpr("?TableAlias.id ASC")
		}),
		repository.SelectPaginate(opts.Limit, opts.Offset),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("content repository error: %w", err)
	}
	return records, total, nil
}

type stateCount struct {
	State domain.ContentState `bun:"state"`
	Count int                 `bun:"count"`
}

func (s *BunStore) CountByState(ctx context.Context) (map[domain.ContentState]int, error) {
	var rows []stateCount
	if err := s.db.NewSelect().
		Model((*Item)(nil)).
		ColumnExpr("?TableAlias.state AS state").
		ColumnExpr("COUNT(*) AS count").
		GroupExpr("?TableAlias.state").
		Scan(ctx, &rows); err != nil {
		return nil, fmt.Errorf("content: count by state: %w", err)
	}
	counts := make(map[domain.ContentState]int, len(domain.States()))
	for _, state := range domain.States() {
		counts[state] = 0
	}
	for _, row := range rows {
		counts[row.State] = row.Count
	}
	return counts, nil
}

func (s *BunStore) Commit(ctx context.Context, commit Commit) (*Item, error) {
	if err := commit.validate(); err != nil {
		return nil, err
	}
	entry := commit.Entry
	at := entry.Timestamp.UTC()
	entry.Timestamp = at

	var updated Item
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*Item)(nil)).
			Set("state = ?", entry.ToState).
			Set("version = ?", entry.Version).
			Set("last_transition_by = ?", entry.ActorID).
			Set("last_transition_at = ?", at).
			Set("updated_at = ?", at).
			Where("id = ?", entry.ContentID).
			Where("version = ?", commit.ExpectedVersion).
			Where("state = ?", entry.FromState).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("content: update item: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("content: rows affected: %w", err)
		}
		if affected == 0 {
			exists, err := tx.NewSelect().Model((*Item)(nil)).Where("id = ?", entry.ContentID).Exists(ctx)
			if err != nil {
				return fmt.Errorf("content: check item: %w", err)
			}
			if !exists {
				return &NotFoundError{Resource: "content", Key: entry.ContentID.String()}
			}
			return fmt.Errorf("%w: content %s no longer at version %d", ErrVersionConflict, entry.ContentID, commit.ExpectedVersion)
		}

		if err := audit.AppendTx(ctx, tx, entry); err != nil {
			return err
		}

		return tx.NewSelect().Model(&updated).Where("?TableAlias.id = ?", entry.ContentID).Scan(ctx)
	})
	if err != nil {
		if errors.Is(err, audit.ErrDuplicateVersion) {
			return nil, fmt.Errorf("%w: %v", ErrVersionConflict, err)
		}
		return nil, err
	}
	return &updated, nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

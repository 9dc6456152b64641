// Package content persists editorial items and commits workflow transitions
// together with their audit entries.
package content

import (
	"context"
	"fmt"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// ListOptions filters the item listing used by review and publishing queues.
type ListOptions struct {
	State  domain.ContentState
	Owner  uuid.UUID
	Limit  int
	Offset int
}

// Normalized clamps pagination into the supported range.
func (o ListOptions) Normalized() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	if o.Limit > MaxListLimit {
		o.Limit = MaxListLimit
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}

// Commit advances an item by one transition. The store applies it only when
// the item still holds ExpectedVersion and Entry.FromState; the item update
// and the audit entry are written together or not at all.
type Commit struct {
	ExpectedVersion int
	Entry           audit.Entry
}

func (c Commit) validate() error {
	if c.Entry.ContentID == uuid.Nil {
		return fmt.Errorf("%w: content id required", ErrCommitInvalid)
	}
	if c.ExpectedVersion < 0 || c.Entry.Version != c.ExpectedVersion+1 {
		return fmt.Errorf("%w: version %d does not follow %d", ErrCommitInvalid, c.Entry.Version, c.ExpectedVersion)
	}
	return nil
}

// Store is the persistence contract consumed by the workflow service.
type Store interface {
	Create(ctx context.Context, item *Item) (*Item, error)
	Get(ctx context.Context, id uuid.UUID) (*Item, error)
	List(ctx context.Context, opts ListOptions) ([]*Item, int, error)
	CountByState(ctx context.Context) (map[domain.ContentState]int, error)
	Commit(ctx context.Context, commit Commit) (*Item, error)
}

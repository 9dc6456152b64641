package content

import (
	"time"

	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Item is a piece of editorial content moving through the workflow.
type Item struct {
	bun.BaseModel `bun:"table:content_items,alias:ci"`

	ID               uuid.UUID           `bun:",pk,type:uuid" json:"id"`
	OwnerID          uuid.UUID           `bun:"owner_id,notnull,type:uuid" json:"owner"`
	Title            string              `bun:"title,notnull" json:"title"`
	Slug             string              `bun:"slug,notnull,unique" json:"slug"`
	Kind             domain.ContentKind  `bun:"kind,notnull" json:"kind"`
	State            domain.ContentState `bun:"state,notnull" json:"state"`
	Version          int                 `bun:"version,notnull" json:"version"`
	LastTransitionBy *uuid.UUID          `bun:"last_transition_by,type:uuid" json:"last_transition_by,omitempty"`
	LastTransitionAt *time.Time          `bun:"last_transition_at" json:"last_transition_at,omitempty"`
	CreatedAt        time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt        time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

func cloneItem(item *Item) *Item {
	if item == nil {
		return nil
	}
	cloned := *item
	if item.LastTransitionBy != nil {
		by := *item.LastTransitionBy
		cloned.LastTransitionBy = &by
	}
	if item.LastTransitionAt != nil {
		at := *item.LastTransitionAt
		cloned.LastTransitionAt = &at
	}
	return &cloned
}

// Package audit records the append-only trail of committed workflow transitions.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrEntryInvalid indicates an entry is missing required fields.
	ErrEntryInvalid = errors.New("audit: entry invalid")
	// ErrDuplicateVersion indicates an entry already exists for the content version.
	ErrDuplicateVersion = errors.New("audit: duplicate version")
	// ErrVersionGap indicates the entry version does not follow the latest recorded version.
	ErrVersionGap = errors.New("audit: version gap")
)

// Entry is an immutable record of one committed transition. Version is the
// item version produced by the transition; per content item the versions
// form the sequence 1, 2, 3 with no gaps or duplicates.
type Entry struct {
	bun.BaseModel `bun:"table:content_audit_entries,alias:cae"`

	ID        uuid.UUID           `bun:",pk,type:uuid" json:"id"`
	ContentID uuid.UUID           `bun:"content_id,notnull,type:uuid" json:"content_id"`
	Version   int                 `bun:"version,notnull" json:"version"`
	FromState domain.ContentState `bun:"from_state,notnull" json:"from_state"`
	ToState   domain.ContentState `bun:"to_state,notnull" json:"to_state"`
	Action    domain.Action       `bun:"action,notnull" json:"action"`
	ActorID   uuid.UUID           `bun:"actor_id,notnull,type:uuid" json:"actor_id"`
	ActorRole domain.Role         `bun:"actor_role,notnull" json:"actor_role"`
	Comment   string              `bun:"comment" json:"comment,omitempty"`
	Timestamp time.Time           `bun:"created_at,notnull" json:"timestamp"`
}

// Validate checks the entry carries everything needed to reconstruct the transition.
func (e Entry) Validate() error {
	switch {
	case e.ContentID == uuid.Nil:
		return fmt.Errorf("%w: content_id required", ErrEntryInvalid)
	case e.Version < 1:
		return fmt.Errorf("%w: version must be positive", ErrEntryInvalid)
	case !e.FromState.Valid() || !e.ToState.Valid():
		return fmt.Errorf("%w: unknown state %q -> %q", ErrEntryInvalid, e.FromState, e.ToState)
	case !e.Action.Valid():
		return fmt.Errorf("%w: unknown action %q", ErrEntryInvalid, e.Action)
	case e.ActorID == uuid.Nil:
		return fmt.Errorf("%w: actor_id required", ErrEntryInvalid)
	case !e.ActorRole.Valid():
		return fmt.Errorf("%w: unknown role %q", ErrEntryInvalid, e.ActorRole)
	case e.Timestamp.IsZero():
		return fmt.Errorf("%w: timestamp required", ErrEntryInvalid)
	}
	return nil
}

// Log is the append-only ledger. Implementations never update or delete entries.
type Log interface {
	// Append records entry, rejecting duplicate or non-consecutive versions.
	Append(ctx context.Context, entry Entry) error
	// HistoryOf returns the entries for contentID ordered by version ascending.
	// Every call returns a fresh slice.
	HistoryOf(ctx context.Context, contentID uuid.UUID) ([]Entry, error)
	// Latest returns the most recent entry, or false when none exist.
	Latest(ctx context.Context, contentID uuid.UUID) (Entry, bool, error)
}

// checkSequence enforces the gapless version rule against the latest recorded version.
func checkSequence(entry Entry, latest int) error {
	switch {
	case entry.Version <= latest:
		return fmt.Errorf("%w: content %s version %d", ErrDuplicateVersion, entry.ContentID, entry.Version)
	case entry.Version != latest+1:
		return fmt.Errorf("%w: content %s expected version %d got %d", ErrVersionGap, entry.ContentID, latest+1, entry.Version)
	}
	return nil
}

func prepare(entry Entry) (Entry, error) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.Timestamp = entry.Timestamp.UTC()
	return entry, entry.Validate()
}

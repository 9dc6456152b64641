package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/google/uuid"
)

var (
	// ErrSubjectRequired indicates the identity carries no subject identifier.
	ErrSubjectRequired = errors.New("identity: subject required")
	// ErrRoleInvalid indicates the identity role is not part of the editorial vocabulary.
	ErrRoleInvalid = errors.New("identity: role invalid")
)

// Context is the authenticated caller: who they are and the role they act in.
type Context struct {
	SubjectID uuid.UUID   `json:"subject_id"`
	Role      domain.Role `json:"role"`
}

// New builds a validated identity.
func New(subject uuid.UUID, role domain.Role) (Context, error) {
	id := Context{SubjectID: subject, Role: role}
	if err := id.Validate(); err != nil {
		return Context{}, err
	}
	return id, nil
}

// Validate ensures the identity is usable for authorization decisions.
func (c Context) Validate() error {
	if c.SubjectID == uuid.Nil {
		return ErrSubjectRequired
	}
	if !c.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrRoleInvalid, c.Role)
	}
	return nil
}

type contextKey string

const identityKey contextKey = "editorial.identity"

// WithIdentity stores the caller identity on the context.
func WithIdentity(ctx context.Context, id Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityKey, id)
}

// FromContext returns the caller identity stored by WithIdentity.
func FromContext(ctx context.Context) (Context, bool) {
	if ctx == nil {
		return Context{}, false
	}
	id, ok := ctx.Value(identityKey).(Context)
	return id, ok
}

package workflow

import (
	"errors"
	"fmt"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	// ErrNotFound indicates the content item does not exist.
	ErrNotFound = errors.New("workflow: content not found")
	// ErrIllegalTransition indicates the action is not defined for the item's current state.
	ErrIllegalTransition = errors.New("workflow: illegal transition")
	// ErrUnauthorized indicates the actor's role may not perform the action.
	ErrUnauthorized = errors.New("workflow: unauthorized")
	// ErrStaleVersion indicates the caller observed a version the item no longer holds.
	ErrStaleVersion = errors.New("workflow: stale version")
	// ErrValidationFailed indicates a malformed request.
	ErrValidationFailed = errors.New("workflow: validation failed")
	// ErrUnauthenticated indicates the request carries no usable identity.
	ErrUnauthenticated = errors.New("workflow: unauthenticated")
	// ErrSlugConflict indicates another item already uses the slug.
	ErrSlugConflict = errors.New("workflow: slug conflict")
	// ErrHistoryInconsistent indicates an audit trail that does not replay through the state machine.
	ErrHistoryInconsistent = errors.New("workflow: history inconsistent")
)

// Text codes surfaced to API clients.
const (
	TextCodeNotFound          = "NOT_FOUND"
	TextCodeIllegalTransition = "ILLEGAL_TRANSITION"
	TextCodeUnauthorized      = "UNAUTHORIZED"
	TextCodeStaleVersion      = "STALE_VERSION"
	TextCodeValidationFailed  = "VALIDATION_FAILED"
	TextCodeUnauthenticated   = "UNAUTHENTICATED"
	TextCodeSlugConflict      = "SLUG_CONFLICT"
)

func notFoundError(id uuid.UUID) error {
	return goerrors.Wrap(ErrNotFound, goerrors.CategoryNotFound, "content item not found").
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{"content_id": id.String()})
}

func illegalTransitionError(action domain.Action, from domain.ContentState) error {
	return goerrors.Wrap(ErrIllegalTransition, goerrors.CategoryConflict,
		fmt.Sprintf("action %s is not allowed from state %s", action, from)).
		WithTextCode(TextCodeIllegalTransition).
		WithMetadata(map[string]any{
			"action":        action.String(),
			"current_state": from.String(),
		})
}

func unauthorizedError(action domain.Action, role domain.Role) error {
	return goerrors.Wrap(ErrUnauthorized, goerrors.CategoryAuthz,
		fmt.Sprintf("role %s may not %s", role, action)).
		WithTextCode(TextCodeUnauthorized).
		WithMetadata(map[string]any{
			"action": action.String(),
			"role":   role.String(),
		})
}

func ownershipError(action domain.Action, id uuid.UUID) error {
	return goerrors.Wrap(ErrUnauthorized, goerrors.CategoryAuthz,
		fmt.Sprintf("only the owner may %s this item", action)).
		WithTextCode(TextCodeUnauthorized).
		WithMetadata(map[string]any{
			"action":     action.String(),
			"content_id": id.String(),
			"reason":     "not_owner",
		})
}

func staleVersionError(id uuid.UUID, observed, current int) error {
	meta := map[string]any{
		"content_id":       id.String(),
		"observed_version": observed,
	}
	if current >= 0 {
		meta["current_version"] = current
	}
	return goerrors.Wrap(ErrStaleVersion, goerrors.CategoryConflict, "content item was modified concurrently").
		WithTextCode(TextCodeStaleVersion).
		WithMetadata(meta)
}

func slugConflictError(slug string) error {
	return goerrors.Wrap(ErrSlugConflict, goerrors.CategoryConflict, "slug already in use").
		WithTextCode(TextCodeSlugConflict).
		WithMetadata(map[string]any{"slug": slug})
}

func unauthenticatedError(reason string) error {
	return goerrors.Wrap(ErrUnauthenticated, goerrors.CategoryAuth, reason).
		WithTextCode(TextCodeUnauthenticated)
}

// validationError converts ozzo field errors into a categorised error that
// still matches ErrValidationFailed.
func validationError(err error, message string) error {
	if err == nil {
		return nil
	}
	verr := goerrors.FromOzzoValidation(err, message)
	verr.Source = ErrValidationFailed
	return verr.WithTextCode(TextCodeValidationFailed)
}

// mapStoreError translates content store failures into workflow errors.
func mapStoreError(err error, id uuid.UUID, observed int) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, content.ErrNotFound):
		return notFoundError(id)
	case errors.Is(err, content.ErrVersionConflict), errors.Is(err, audit.ErrDuplicateVersion):
		return staleVersionError(id, observed, -1)
	}
	return err
}

// Kind returns the wire name of a workflow error, or "" for unknown errors.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return TextCodeNotFound
	case errors.Is(err, ErrIllegalTransition):
		return TextCodeIllegalTransition
	case errors.Is(err, ErrUnauthorized):
		return TextCodeUnauthorized
	case errors.Is(err, ErrStaleVersion):
		return TextCodeStaleVersion
	case errors.Is(err, ErrValidationFailed):
		return TextCodeValidationFailed
	case errors.Is(err, ErrUnauthenticated):
		return TextCodeUnauthenticated
	case errors.Is(err, ErrSlugConflict):
		return TextCodeSlugConflict
	}
	return ""
}

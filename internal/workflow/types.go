package workflow

import (
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
)

const (
	MaxCommentLength = 1000
	MaxTitleLength   = 200
)

// TransitionRequest asks to apply Action to an item the caller last saw at
// ObservedVersion.
type TransitionRequest struct {
	ContentID       uuid.UUID
	Action          domain.Action
	Actor           identity.Context
	ObservedVersion int
	Comment         string
}

// Validate checks the request shape. It does not consult the item.
func (r TransitionRequest) Validate() error {
	errs := validation.Errors{}
	if r.ContentID == uuid.Nil {
		errs["content_id"] = validation.NewError("editorial.transition.content_id_required", "content_id is required")
	}
	if !r.Action.Valid() {
		errs["action"] = validation.NewError("editorial.transition.action_invalid", "action is not recognised")
	}
	if r.ObservedVersion < 0 {
		errs["observed_version"] = validation.NewError("editorial.transition.version_invalid", "observed_version must not be negative")
	}
	comment := strings.TrimSpace(r.Comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		errs["comment"] = validation.NewError("editorial.transition.comment_too_long", "comment must be at most 1000 characters")
	} else if r.Action == domain.ActionRequestRevision && comment == "" {
		errs["comment"] = validation.NewError("editorial.transition.comment_required", "comment is required when requesting a revision")
	}
	if len(errs) > 0 {
		return validationError(errs, "invalid transition request")
	}
	return nil
}

// TransitionResult reports the item's state and version after a committed transition.
type TransitionResult struct {
	ContentID uuid.UUID           `json:"id"`
	FromState domain.ContentState `json:"from_state"`
	State     domain.ContentState `json:"state"`
	Version   int                 `json:"version"`
	Entry     audit.Entry         `json:"-"`
}

// CreateItemRequest registers a new draft.
type CreateItemRequest struct {
	Title string
	Slug  string
	Kind  domain.ContentKind
	Actor identity.Context
	// Owner defaults to the actor. Only admins may set it to someone else.
	Owner uuid.UUID
}

func (r CreateItemRequest) normalized() (CreateItemRequest, error) {
	errs := validation.Errors{}

	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		errs["title"] = validation.NewError("editorial.create.title_required", "title is required")
	} else if utf8.RuneCountInString(r.Title) > MaxTitleLength {
		errs["title"] = validation.NewError("editorial.create.title_too_long", "title must be at most 200 characters")
	}

	source := strings.TrimSpace(r.Slug)
	if source == "" {
		source = r.Title
	}
	normalized, err := slug.Normalize(source)
	if err != nil || normalized == "" {
		errs["slug"] = validation.NewError("editorial.create.slug_invalid", "slug must contain letters or digits")
	} else {
		r.Slug = normalized
	}

	kind, ok := domain.ParseKind(string(r.Kind))
	if !ok {
		errs["kind"] = validation.NewError("editorial.create.kind_invalid", "kind must be article or news")
	} else {
		r.Kind = kind
	}

	if len(errs) > 0 {
		return r, validationError(errs, "invalid content item")
	}
	return r, nil
}

// Page is a slice of items plus the unpaginated total.
type Page struct {
	Items  []*content.Item `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ActionDescriptor describes a transition the caller may take right now.
type ActionDescriptor struct {
	Action      domain.Action       `json:"action"`
	To          domain.ContentState `json:"to"`
	Description string              `json:"description,omitempty"`
}

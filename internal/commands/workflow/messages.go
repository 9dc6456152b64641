package workflowcmd

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/google/uuid"
)

const (
	requestTransitionMessageType = "editorial.workflow.request_transition"
	createContentMessageType     = "editorial.workflow.create_content"
)

// RequestTransitionCommand asks the workflow service to apply Action to a content item.
type RequestTransitionCommand struct {
	ContentID       uuid.UUID     `json:"content_id"`
	Action          domain.Action `json:"action"`
	ObservedVersion int           `json:"observed_version"`
	Comment         string        `json:"comment,omitempty"`
	ActorID         uuid.UUID     `json:"actor_id"`
	ActorRole       domain.Role   `json:"actor_role"`
	// Result receives the committed state when set.
	Result *workflow.TransitionResult `json:"-"`
}

// Type implements command.Message.
func (RequestTransitionCommand) Type() string { return requestTransitionMessageType }

// Validate ensures the message carries an action and an actor before reaching handlers.
func (m RequestTransitionCommand) Validate() error {
	errs := validation.Errors{}
	if m.ContentID == uuid.Nil {
		errs["content_id"] = validation.NewError("editorial.workflow.transition.content_id_required", "content_id is required")
	}
	if !m.Action.Valid() {
		errs["action"] = validation.NewError("editorial.workflow.transition.action_invalid", "action is not recognised")
	}
	if m.ObservedVersion < 0 {
		errs["observed_version"] = validation.NewError("editorial.workflow.transition.version_invalid", "observed_version must not be negative")
	}
	if m.ActorID == uuid.Nil {
		errs["actor_id"] = validation.NewError("editorial.workflow.transition.actor_required", "actor_id is required")
	}
	if !m.ActorRole.Valid() {
		errs["actor_role"] = validation.NewError("editorial.workflow.transition.role_invalid", "actor_role is not recognised")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (m RequestTransitionCommand) request() workflow.TransitionRequest {
	return workflow.TransitionRequest{
		ContentID:       m.ContentID,
		Action:          m.Action,
		ObservedVersion: m.ObservedVersion,
		Comment:         m.Comment,
		Actor:           identity.Context{SubjectID: m.ActorID, Role: m.ActorRole},
	}
}

// CreateContentCommand registers a new draft.
type CreateContentCommand struct {
	Title     string             `json:"title"`
	Slug      string             `json:"slug,omitempty"`
	Kind      domain.ContentKind `json:"kind,omitempty"`
	OwnerID   uuid.UUID          `json:"owner_id,omitempty"`
	ActorID   uuid.UUID          `json:"actor_id"`
	ActorRole domain.Role        `json:"actor_role"`
	// Result receives the created item when set.
	Result *content.Item `json:"-"`
}

// Type implements command.Message.
func (CreateContentCommand) Type() string { return createContentMessageType }

// Validate checks the actor; title and slug rules are enforced by the service.
func (m CreateContentCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.ActorID, validation.By(func(value any) error {
			if id, _ := value.(uuid.UUID); id == uuid.Nil {
				return validation.NewError("editorial.workflow.create.actor_required", "actor_id is required")
			}
			return nil
		})),
		validation.Field(&m.ActorRole, validation.By(func(value any) error {
			if role, _ := value.(domain.Role); !role.Valid() {
				return validation.NewError("editorial.workflow.create.role_invalid", "actor_role is not recognised")
			}
			return nil
		})),
	)
}

func (m CreateContentCommand) request() workflow.CreateItemRequest {
	return workflow.CreateItemRequest{
		Title: m.Title,
		Slug:  m.Slug,
		Kind:  m.Kind,
		Owner: m.OwnerID,
		Actor: identity.Context{SubjectID: m.ActorID, Role: m.ActorRole},
	}
}

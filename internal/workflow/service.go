// Package workflow moves editorial content through its lifecycle. Every
// transition is checked for legality, role authorization and version
// currency before the store commits the new state with its audit entry.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/logging"
	"github.com/goliatone/go-editorial/internal/permissions"
	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/interfaces"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName = "github.com/goliatone/go-editorial/internal/workflow"
	objectType = "content"

	textCodeHistoryInconsistent = "HISTORY_INCONSISTENT"
)

// Service is the orchestration surface used by commands and the HTTP API.
type Service interface {
	Create(ctx context.Context, req CreateItemRequest) (*content.Item, error)
	Get(ctx context.Context, id uuid.UUID) (*content.Item, error)
	RequestTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error)
	History(ctx context.Context, id uuid.UUID) ([]audit.Entry, error)
	AvailableActions(ctx context.Context, id uuid.UUID, actor identity.Context) ([]ActionDescriptor, error)
	List(ctx context.Context, opts content.ListOptions) (Page, error)
	CountByState(ctx context.Context) (map[domain.ContentState]int, error)
	Verify(ctx context.Context, id uuid.UUID) error
}

// ServiceOption configures the workflow service.
type ServiceOption func(*service)

// WithStateMachine overrides the default lifecycle graph.
func WithStateMachine(machine *StateMachine) ServiceOption {
	return func(s *service) {
		if machine != nil {
			s.machine = machine
		}
	}
}

// WithAuthorizer overrides the default permission matrix.
func WithAuthorizer(authorizer permissions.Authorizer) ServiceOption {
	return func(s *service) {
		if authorizer != nil {
			s.authorizer = authorizer
		}
	}
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the identifier source for items and audit entries.
func WithIDGenerator(gen func() uuid.UUID) ServiceOption {
	return func(s *service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger used for transition outcomes.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithActivityEmitter wires the emitter used after successful commits.
func WithActivityEmitter(emitter *activity.Emitter) ServiceOption {
	return func(s *service) {
		if emitter != nil {
			s.activity = emitter
		}
	}
}

// WithTracer overrides the tracer used for transition spans.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(s *service) {
		if tracer != nil {
			s.tracer = tracer
		}
	}
}

// WithAuthorizeFirst checks role authorization before structural legality.
func WithAuthorizeFirst(enabled bool) ServiceOption {
	return func(s *service) {
		s.authorizeFirst = enabled
	}
}

// WithOwnershipEnforcement restricts editors to submitting items they own.
func WithOwnershipEnforcement(enabled bool) ServiceOption {
	return func(s *service) {
		s.enforceOwnership = enabled
	}
}

type service struct {
	store            content.Store
	log              audit.Log
	machine          *StateMachine
	authorizer       permissions.Authorizer
	guard            ConflictGuard
	now              func() time.Time
	newID            func() uuid.UUID
	logger           interfaces.Logger
	activity         *activity.Emitter
	tracer           trace.Tracer
	authorizeFirst   bool
	enforceOwnership bool
}

// NewService wires the workflow service. log must be the audit log the store
// commits to; it is only read here.
func NewService(store content.Store, log audit.Log, opts ...ServiceOption) Service {
	s := &service{
		store:      store,
		log:        log,
		machine:    DefaultStateMachine(),
		authorizer: permissions.DefaultMatrix(),
		now:        time.Now,
		newID:      uuid.New,
		logger:     logging.NoOp(),
		activity:   activity.NewEmitter(nil, activity.Config{}),
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) RequestTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	ctx, span := s.tracer.Start(ctx, "workflow.request_transition", trace.WithAttributes(
		attribute.String("editorial.content_id", req.ContentID.String()),
		attribute.String("editorial.action", req.Action.String()),
		attribute.String("editorial.actor_role", req.Actor.Role.String()),
		attribute.Int("editorial.observed_version", req.ObservedVersion),
	))
	defer span.End()

	logger := logging.WithTransitionContext(s.logger.WithContext(ctx),
		req.ContentID.String(), req.Action.String(), req.Actor.SubjectID.String(), req.Actor.Role.String())

	result, err := s.requestTransition(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Kind(err))
		logger.Warn("workflow.transition.rejected", "kind", Kind(err), "error", err)
		return TransitionResult{}, err
	}

	span.SetAttributes(
		attribute.String("editorial.to_state", result.State.String()),
		attribute.Int("editorial.version", result.Version),
	)
	logger.Info("workflow.transition.committed",
		"from_state", result.FromState,
		"to_state", result.State,
		"version", result.Version,
	)

	s.emitActivity(ctx, logger, req.Actor, req.Action.String(), result.ContentID, map[string]any{
		"from_state": result.FromState.String(),
		"to_state":   result.State.String(),
		"version":    result.Version,
		"actor_role": req.Actor.Role.String(),
		"comment":    result.Entry.Comment,
	})
	return result, nil
}

func (s *service) requestTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	if err := req.Actor.Validate(); err != nil {
		return TransitionResult{}, unauthenticatedError("actor identity is required")
	}
	if err := req.Validate(); err != nil {
		return TransitionResult{}, err
	}

	item, err := s.store.Get(ctx, req.ContentID)
	if err != nil {
		return TransitionResult{}, mapStoreError(err, req.ContentID, req.ObservedVersion)
	}

	var to domain.ContentState
	if s.authorizeFirst {
		if err := s.authorize(item, req.Action, req.Actor); err != nil {
			return TransitionResult{}, err
		}
		if to, err = s.legal(item, req.Action, req.ObservedVersion); err != nil {
			return TransitionResult{}, err
		}
	} else {
		if to, err = s.legal(item, req.Action, req.ObservedVersion); err != nil {
			return TransitionResult{}, err
		}
		if err := s.authorize(item, req.Action, req.Actor); err != nil {
			return TransitionResult{}, err
		}
	}

	next, ok := s.guard.CheckAndAdvance(item, req.ObservedVersion)
	if !ok {
		return TransitionResult{}, staleVersionError(item.ID, req.ObservedVersion, item.Version)
	}

	entry := audit.Entry{
		ID:        s.newID(),
		ContentID: item.ID,
		Version:   next,
		FromState: item.State,
		ToState:   to,
		Action:    req.Action,
		ActorID:   req.Actor.SubjectID,
		ActorRole: req.Actor.Role,
		Comment:   strings.TrimSpace(req.Comment),
		Timestamp: s.now().UTC(),
	}
	updated, err := s.store.Commit(ctx, content.Commit{
		ExpectedVersion: req.ObservedVersion,
		Entry:           entry,
	})
	if err != nil {
		return TransitionResult{}, mapStoreError(err, item.ID, req.ObservedVersion)
	}

	return TransitionResult{
		ContentID: updated.ID,
		FromState: entry.FromState,
		State:     updated.State,
		Version:   updated.Version,
		Entry:     entry,
	}, nil
}

// legal resolves the target state. An action that is illegal from a state the
// caller never observed is reported as stale: the caller must reload first.
func (s *service) legal(item *content.Item, action domain.Action, observed int) (domain.ContentState, error) {
	to, ok := s.machine.IsLegal(action, item.State)
	if ok {
		return to, nil
	}
	if observed != item.Version {
		return "", staleVersionError(item.ID, observed, item.Version)
	}
	return "", illegalTransitionError(action, item.State)
}

func (s *service) authorize(item *content.Item, action domain.Action, actor identity.Context) error {
	if !s.authorizer.Authorize(action, actor.Role) {
		return unauthorizedError(action, actor.Role)
	}
	if !s.ownerMayAct(item, action, actor) {
		return ownershipError(action, item.ID)
	}
	return nil
}

func (s *service) ownerMayAct(item *content.Item, action domain.Action, actor identity.Context) bool {
	if !s.enforceOwnership || actor.Role != domain.RoleEditor || action != domain.ActionSubmit {
		return true
	}
	return item.OwnerID == actor.SubjectID
}

func (s *service) Create(ctx context.Context, req CreateItemRequest) (*content.Item, error) {
	if err := req.Actor.Validate(); err != nil {
		return nil, unauthenticatedError("actor identity is required")
	}
	role := req.Actor.Role
	if role != domain.RoleEditor && role != domain.RoleAdmin {
		return nil, createForbiddenError(role, "only editors may create content")
	}

	normalized, err := req.normalized()
	if err != nil {
		return nil, err
	}

	owner := req.Actor.SubjectID
	if normalized.Owner != uuid.Nil && normalized.Owner != owner {
		if role != domain.RoleAdmin {
			return nil, createForbiddenError(role, "only admins may assign another owner")
		}
		owner = normalized.Owner
	}

	now := s.now().UTC()
	item := &content.Item{
		ID:        s.newID(),
		OwnerID:   owner,
		Title:     normalized.Title,
		Slug:      normalized.Slug,
		Kind:      normalized.Kind,
		State:     s.machine.InitialState(),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.store.Create(ctx, item)
	if err != nil {
		if errors.Is(err, content.ErrSlugExists) {
			return nil, slugConflictError(item.Slug)
		}
		return nil, err
	}

	logger := logging.WithFields(s.logger.WithContext(ctx), map[string]any{
		"content_id": created.ID.String(),
		"slug":       created.Slug,
	})
	logger.Info("workflow.content.created", "owner", created.OwnerID, "kind", created.Kind)

	s.emitActivity(ctx, logger, req.Actor, "create", created.ID, map[string]any{
		"slug":  created.Slug,
		"kind":  string(created.Kind),
		"owner": created.OwnerID.String(),
		"state": created.State.String(),
	})
	return created, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*content.Item, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id, -1)
	}
	return item, nil
}

func (s *service) History(ctx context.Context, id uuid.UUID) ([]audit.Entry, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.log.HistoryOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("workflow: load history: %w", err)
	}
	return entries, nil
}

func (s *service) AvailableActions(ctx context.Context, id uuid.UUID, actor identity.Context) ([]ActionDescriptor, error) {
	if err := actor.Validate(); err != nil {
		return nil, unauthenticatedError("actor identity is required")
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	out := make([]ActionDescriptor, 0)
	for _, transition := range s.machine.Available(item.State) {
		if !s.authorizer.Authorize(transition.Action, actor.Role) {
			continue
		}
		if !s.ownerMayAct(item, transition.Action, actor) {
			continue
		}
		out = append(out, ActionDescriptor{
			Action:      transition.Action,
			To:          transition.To,
			Description: transition.Description,
		})
	}
	return out, nil
}

func (s *service) List(ctx context.Context, opts content.ListOptions) (Page, error) {
	if err := validateListOptions(opts); err != nil {
		return Page{}, err
	}
	opts = opts.Normalized()
	items, total, err := s.store.List(ctx, opts)
	if err != nil {
		return Page{}, err
	}
	if items == nil {
		items = []*content.Item{}
	}
	return Page{
		Items:  items,
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}, nil
}

func (s *service) CountByState(ctx context.Context) (map[domain.ContentState]int, error) {
	return s.store.CountByState(ctx)
}

// Verify replays the audit trail of id through the state machine and the
// permission matrix, then checks the item agrees with the final entry.
func (s *service) Verify(ctx context.Context, id uuid.UUID) error {
	item, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	entries, err := s.log.HistoryOf(ctx, id)
	if err != nil {
		return fmt.Errorf("workflow: load history: %w", err)
	}

	state := s.machine.InitialState()
	for idx, entry := range entries {
		if entry.Version != idx+1 {
			return historyInconsistentError(id, entry.Version, fmt.Sprintf("expected version %d", idx+1))
		}
		if entry.FromState != state {
			return historyInconsistentError(id, entry.Version, fmt.Sprintf("entry starts at %s but item was %s", entry.FromState, state))
		}
		to, ok := s.machine.IsLegal(entry.Action, entry.FromState)
		if !ok || to != entry.ToState {
			return historyInconsistentError(id, entry.Version, fmt.Sprintf("%s from %s is not a legal transition to %s", entry.Action, entry.FromState, entry.ToState))
		}
		if !s.authorizer.Authorize(entry.Action, entry.ActorRole) {
			return historyInconsistentError(id, entry.Version, fmt.Sprintf("role %s may not %s", entry.ActorRole, entry.Action))
		}
		state = entry.ToState
	}

	if item.Version != len(entries) {
		return historyInconsistentError(id, item.Version, fmt.Sprintf("item version %d but %d entries recorded", item.Version, len(entries)))
	}
	if item.State != state {
		return historyInconsistentError(id, item.Version, fmt.Sprintf("item state %s but history ends at %s", item.State, state))
	}
	return nil
}

func (s *service) emitActivity(ctx context.Context, logger interfaces.Logger, actor identity.Context, verb string, objectID uuid.UUID, meta map[string]any) {
	if s.activity == nil || !s.activity.Enabled() || objectID == uuid.Nil {
		return
	}
	event := activity.Event{
		Verb:           verb,
		ActorID:        actor.SubjectID.String(),
		UserID:         actor.SubjectID.String(),
		ObjectType:     objectType,
		ObjectID:       objectID.String(),
		DefinitionCode: permissions.Join(objectType, domain.Action(verb)),
		Metadata:       meta,
		OccurredAt:     s.now().UTC(),
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		logger.Warn("workflow.activity.emit_failed", "error", err)
	}
}

func validateListOptions(opts content.ListOptions) error {
	fields := map[string]string{}
	if opts.State != "" && !opts.State.Valid() {
		fields["state"] = "state is not recognised"
	}
	if opts.Limit < 0 || opts.Limit > content.MaxListLimit {
		fields["limit"] = fmt.Sprintf("limit must be between 1 and %d", content.MaxListLimit)
	}
	if opts.Offset < 0 {
		fields["offset"] = "offset must not be negative"
	}
	if len(fields) == 0 {
		return nil
	}
	verr := goerrors.NewValidationFromMap("invalid list options", fields)
	verr.Source = ErrValidationFailed
	return verr.WithTextCode(TextCodeValidationFailed)
}

func createForbiddenError(role domain.Role, reason string) error {
	return goerrors.Wrap(ErrUnauthorized, goerrors.CategoryAuthz, reason).
		WithTextCode(TextCodeUnauthorized).
		WithMetadata(map[string]any{
			"operation": "create",
			"role":      role.String(),
		})
}

func historyInconsistentError(id uuid.UUID, version int, detail string) error {
	return goerrors.Wrap(ErrHistoryInconsistent, goerrors.CategoryInternal, detail).
		WithTextCode(textCodeHistoryInconsistent).
		WithMetadata(map[string]any{
			"content_id": id.String(),
			"version":    version,
		})
}

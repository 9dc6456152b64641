package workflow_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/storage"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/testsupport"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

var (
	editor     = identity.Context{SubjectID: identity.UserUUID("erin"), Role: domain.RoleEditor}
	otherEdit  = identity.Context{SubjectID: identity.UserUUID("oscar"), Role: domain.RoleEditor}
	chief      = identity.Context{SubjectID: identity.UserUUID("chen"), Role: domain.RoleChiefEditor}
	publisher  = identity.Context{SubjectID: identity.UserUUID("pat"), Role: domain.RolePublishingEditor}
	admin      = identity.Context{SubjectID: identity.UserUUID("ada"), Role: domain.RoleAdmin}
	reader     = identity.Context{SubjectID: identity.UserUUID("uma"), Role: domain.RoleUser}
	moderator  = identity.Context{SubjectID: identity.UserUUID("mo"), Role: domain.RoleModerator}
	fixedClock = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
)

type harness struct {
	svc   workflow.Service
	store content.Store
	log   audit.Log
}

type backend func(t *testing.T) (content.Store, audit.Log)

func backends() map[string]backend {
	return map[string]backend{
		"memory": func(t *testing.T) (content.Store, audit.Log) {
			log := audit.NewMemoryLog()
			return content.NewMemoryStore(log), log
		},
		"bun": func(t *testing.T) (content.Store, audit.Log) {
			db := testsupport.NewBunDB(t)
			if err := storage.Migrate(context.Background(), db); err != nil {
				t.Fatalf("migrate: %v", err)
			}
			return content.NewBunStore(db), audit.NewBunLog(db)
		},
	}
}

func newHarness(t *testing.T, open backend, opts ...workflow.ServiceOption) harness {
	t.Helper()
	store, log := open(t)
	tick := fixedClock
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	opts = append([]workflow.ServiceOption{workflow.WithClock(clock)}, opts...)
	return harness{
		svc:   workflow.NewService(store, log, opts...),
		store: store,
		log:   log,
	}
}

func forEachBackend(t *testing.T, fn func(t *testing.T, open backend)) {
	for name, open := range backends() {
		t.Run(name, func(t *testing.T) {
			fn(t, open)
		})
	}
}

func (h harness) create(t *testing.T, title string) *content.Item {
	t.Helper()
	item, err := h.svc.Create(context.Background(), workflow.CreateItemRequest{
		Title: title,
		Actor: editor,
	})
	if err != nil {
		t.Fatalf("create %q: %v", title, err)
	}
	return item
}

func (h harness) transition(t *testing.T, id uuid.UUID, action domain.Action, actor identity.Context, observed int, comment string) (workflow.TransitionResult, error) {
	t.Helper()
	return h.svc.RequestTransition(context.Background(), workflow.TransitionRequest{
		ContentID:       id,
		Action:          action,
		Actor:           actor,
		ObservedVersion: observed,
		Comment:         comment,
	})
}

func (h harness) mustTransition(t *testing.T, id uuid.UUID, action domain.Action, actor identity.Context, observed int) workflow.TransitionResult {
	t.Helper()
	comment := ""
	if action == domain.ActionRequestRevision {
		comment = "needs sources"
	}
	result, err := h.transition(t, id, action, actor, observed, comment)
	if err != nil {
		t.Fatalf("%s by %s at v%d: %v", action, actor.Role, observed, err)
	}
	return result
}

func expectKind(t *testing.T, err error, sentinel error, category goerrors.Category) {
	t.Helper()
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected %v, got %v", sentinel, err)
	}
	if !goerrors.IsCategory(err, category) {
		t.Fatalf("expected category %s, got %v", category, err)
	}
}

func TestRequestTransitionEditorialScenario(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		item := h.create(t, "City council vote")
		if item.State != domain.StateDraft || item.Version != 0 {
			t.Fatalf("expected draft v0, got %s v%d", item.State, item.Version)
		}

		result := h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
		if result.State != domain.StateInReview || result.Version != 1 {
			t.Fatalf("expected in_review v1, got %s v%d", result.State, result.Version)
		}

		_, err := h.transition(t, item.ID, domain.ActionApprove, reader, 1, "")
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)
		if workflow.Kind(err) != workflow.TextCodeUnauthorized {
			t.Fatalf("expected UNAUTHORIZED kind, got %q", workflow.Kind(err))
		}
		current, err := h.svc.Get(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if current.Version != 1 || current.State != domain.StateInReview {
			t.Fatalf("expected unauthorized attempt to leave v1 in_review, got %s v%d", current.State, current.Version)
		}

		result = h.mustTransition(t, item.ID, domain.ActionApprove, chief, 1)
		if result.State != domain.StateApproved || result.Version != 2 {
			t.Fatalf("expected approved v2, got %s v%d", result.State, result.Version)
		}

		result = h.mustTransition(t, item.ID, domain.ActionPublish, publisher, 2)
		if result.State != domain.StatePublished || result.Version != 3 {
			t.Fatalf("expected published v3, got %s v%d", result.State, result.Version)
		}

		_, err = h.transition(t, item.ID, domain.ActionPublish, publisher, 2, "")
		expectKind(t, err, workflow.ErrStaleVersion, goerrors.CategoryConflict)

		history, err := h.svc.History(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(history) != 3 {
			t.Fatalf("expected 3 audit entries, got %d", len(history))
		}
		if history[1].ActorID != chief.SubjectID || history[1].ActorRole != domain.RoleChiefEditor {
			t.Fatalf("expected approval recorded for chief editor, got %+v", history[1])
		}
		if err := h.svc.Verify(context.Background(), item.ID); err != nil {
			t.Fatalf("verify: %v", err)
		}
	})
}

func TestRequestTransitionIllegalEvenForAdmin(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		item := h.create(t, "Draft only")

		_, err := h.transition(t, item.ID, domain.ActionPublish, admin, 0, "")
		expectKind(t, err, workflow.ErrIllegalTransition, goerrors.CategoryConflict)
		if workflow.Kind(err) != workflow.TextCodeIllegalTransition {
			t.Fatalf("expected ILLEGAL_TRANSITION kind, got %q", workflow.Kind(err))
		}

		history, err := h.svc.History(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(history) != 0 {
			t.Fatalf("expected no audit entries, got %d", len(history))
		}
	})
}

func TestRequestTransitionHistoryMatchesCommits(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		item := h.create(t, "Long running story")

		steps := []struct {
			action domain.Action
			actor  identity.Context
		}{
			{domain.ActionSubmit, editor},
			{domain.ActionRequestRevision, chief},
			{domain.ActionSubmit, editor},
			{domain.ActionReject, chief},
			{domain.ActionSubmit, editor},
			{domain.ActionApprove, chief},
			{domain.ActionPublish, publisher},
			{domain.ActionUnpublish, publisher},
			{domain.ActionPublish, admin},
		}

		var last workflow.TransitionResult
		for idx, step := range steps {
			last = h.mustTransition(t, item.ID, step.action, step.actor, idx)
		}

		history, err := h.svc.History(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("history: %v", err)
		}
		if len(history) != len(steps) {
			t.Fatalf("expected %d entries, got %d", len(steps), len(history))
		}
		for idx, entry := range history {
			if entry.Version != idx+1 {
				t.Fatalf("entry %d has version %d", idx, entry.Version)
			}
			if entry.Action != steps[idx].action {
				t.Fatalf("entry %d action %s, want %s", idx, entry.Action, steps[idx].action)
			}
			if idx > 0 && !entry.Timestamp.After(history[idx-1].Timestamp) {
				t.Fatalf("expected timestamps to increase at entry %d", idx)
			}
		}

		current, err := h.svc.Get(context.Background(), item.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if current.State != history[len(history)-1].ToState || current.State != last.State {
			t.Fatalf("item state %s does not match last entry %s", current.State, history[len(history)-1].ToState)
		}
		if current.Version != len(steps) {
			t.Fatalf("expected version %d, got %d", len(steps), current.Version)
		}
		if current.LastTransitionBy == nil || *current.LastTransitionBy != admin.SubjectID {
			t.Fatalf("expected last transition by admin, got %v", current.LastTransitionBy)
		}
		if current.OwnerID != editor.SubjectID {
			t.Fatalf("expected reject to preserve owner, got %s", current.OwnerID)
		}
		if history[1].Comment != "needs sources" {
			t.Fatalf("expected revision comment recorded, got %q", history[1].Comment)
		}
		if err := h.svc.Verify(context.Background(), item.ID); err != nil {
			t.Fatalf("verify: %v", err)
		}
	})
}

func TestArchiveRestoreReturnsToDraft(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		item := h.create(t, "Seasonal feature")

		h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
		h.mustTransition(t, item.ID, domain.ActionApprove, chief, 1)
		h.mustTransition(t, item.ID, domain.ActionPublish, publisher, 2)
		h.mustTransition(t, item.ID, domain.ActionArchive, publisher, 3)

		_, err := h.transition(t, item.ID, domain.ActionRestore, publisher, 4, "")
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)

		result := h.mustTransition(t, item.ID, domain.ActionRestore, admin, 4)
		if result.State != domain.StateDraft {
			t.Fatalf("expected restore to draft, got %s", result.State)
		}
		if result.Version != 5 {
			t.Fatalf("expected version 5, got %d", result.Version)
		}

		_, err = h.transition(t, item.ID, domain.ActionUnpublish, admin, 5, "")
		expectKind(t, err, workflow.ErrIllegalTransition, goerrors.CategoryConflict)
	})
}

func TestArchiveDraftDirectly(t *testing.T) {
	h := newHarness(t, backends()["memory"])
	item := h.create(t, "Abandoned")

	result := h.mustTransition(t, item.ID, domain.ActionArchive, publisher, 0)
	if result.State != domain.StateArchived {
		t.Fatalf("expected archived, got %s", result.State)
	}
}

func TestRequestTransitionNotFound(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		_, err := h.transition(t, uuid.New(), domain.ActionSubmit, editor, 0, "")
		expectKind(t, err, workflow.ErrNotFound, goerrors.CategoryNotFound)

		if _, err := h.svc.History(context.Background(), uuid.New()); !errors.Is(err, workflow.ErrNotFound) {
			t.Fatalf("expected history not found, got %v", err)
		}
	})
}

func TestRequestTransitionCheckOrder(t *testing.T) {
	memory := backends()["memory"]

	t.Run("legality first by default", func(t *testing.T) {
		h := newHarness(t, memory)
		item := h.create(t, "Ordering")
		_, err := h.transition(t, item.ID, domain.ActionApprove, reader, 0, "")
		expectKind(t, err, workflow.ErrIllegalTransition, goerrors.CategoryConflict)
	})

	t.Run("authorization first when configured", func(t *testing.T) {
		h := newHarness(t, memory, workflow.WithAuthorizeFirst(true))
		item := h.create(t, "Ordering")
		_, err := h.transition(t, item.ID, domain.ActionApprove, reader, 0, "")
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)
	})

	t.Run("authorization before version", func(t *testing.T) {
		h := newHarness(t, memory)
		item := h.create(t, "Ordering")
		h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
		_, err := h.transition(t, item.ID, domain.ActionApprove, moderator, 7, "")
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)
	})

	t.Run("stale observation on legal action", func(t *testing.T) {
		h := newHarness(t, memory)
		item := h.create(t, "Ordering")
		h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
		_, err := h.transition(t, item.ID, domain.ActionApprove, chief, 0, "")
		expectKind(t, err, workflow.ErrStaleVersion, goerrors.CategoryConflict)
		var gerr *goerrors.Error
		if !errors.As(err, &gerr) || gerr.Metadata["current_version"] != 1 {
			t.Fatalf("expected current_version metadata, got %v", err)
		}
	})
}

func TestRequestTransitionValidation(t *testing.T) {
	h := newHarness(t, backends()["memory"])
	item := h.create(t, "Validation")
	h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)

	cases := []struct {
		name    string
		req     workflow.TransitionRequest
		field   string
		wantErr error
	}{
		{
			name:    "revision needs comment",
			req:     workflow.TransitionRequest{ContentID: item.ID, Action: domain.ActionRequestRevision, Actor: chief, ObservedVersion: 1, Comment: "   "},
			field:   "comment",
			wantErr: workflow.ErrValidationFailed,
		},
		{
			name:    "comment too long",
			req:     workflow.TransitionRequest{ContentID: item.ID, Action: domain.ActionApprove, Actor: chief, ObservedVersion: 1, Comment: strings.Repeat("é", workflow.MaxCommentLength+1)},
			field:   "comment",
			wantErr: workflow.ErrValidationFailed,
		},
		{
			name:    "unknown action",
			req:     workflow.TransitionRequest{ContentID: item.ID, Action: "teleport", Actor: chief, ObservedVersion: 1},
			field:   "action",
			wantErr: workflow.ErrValidationFailed,
		},
		{
			name:    "negative version",
			req:     workflow.TransitionRequest{ContentID: item.ID, Action: domain.ActionApprove, Actor: chief, ObservedVersion: -1},
			field:   "observed_version",
			wantErr: workflow.ErrValidationFailed,
		},
		{
			name:    "missing identity",
			req:     workflow.TransitionRequest{ContentID: item.ID, Action: domain.ActionApprove, ObservedVersion: 1},
			wantErr: workflow.ErrUnauthenticated,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.RequestTransition(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.field == "" {
				return
			}
			fields, ok := goerrors.GetValidationErrors(err)
			if !ok {
				t.Fatalf("expected validation errors, got %v", err)
			}
			found := false
			for _, fe := range fields {
				if fe.Field == tc.field {
					found = true
				}
			}
			if !found {
				t.Fatalf("expected field %s in %v", tc.field, fields)
			}
		})
	}

	result, err := h.transition(t, item.ID, domain.ActionRequestRevision, chief, 1, strings.Repeat("é", workflow.MaxCommentLength))
	if err != nil {
		t.Fatalf("expected comment at the limit to be accepted: %v", err)
	}
	if result.State != domain.StateNeedsRevision {
		t.Fatalf("expected needs_revision, got %s", result.State)
	}
}

func TestOwnershipEnforcement(t *testing.T) {
	memory := backends()["memory"]

	h := newHarness(t, memory, workflow.WithOwnershipEnforcement(true))
	item := h.create(t, "Owned story")

	_, err := h.transition(t, item.ID, domain.ActionSubmit, otherEdit, 0, "")
	expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)

	actions, err := h.svc.AvailableActions(context.Background(), item.ID, otherEdit)
	if err != nil {
		t.Fatalf("available actions: %v", err)
	}
	if len(actions) != 0 {
		t.Fatalf("expected no actions for non-owner, got %v", actions)
	}

	h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)

	relaxed := newHarness(t, memory)
	other := relaxed.create(t, "Shared story")
	relaxed.mustTransition(t, other.ID, domain.ActionSubmit, otherEdit, 0)
}

func TestAvailableActions(t *testing.T) {
	h := newHarness(t, backends()["memory"])
	item := h.create(t, "Choices")
	h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)

	cases := []struct {
		actor identity.Context
		want  []domain.Action
	}{
		{chief, []domain.Action{domain.ActionRequestRevision, domain.ActionApprove, domain.ActionReject}},
		{admin, []domain.Action{domain.ActionRequestRevision, domain.ActionApprove, domain.ActionReject}},
		{editor, nil},
		{publisher, nil},
		{moderator, nil},
	}
	for _, tc := range cases {
		actions, err := h.svc.AvailableActions(context.Background(), item.ID, tc.actor)
		if err != nil {
			t.Fatalf("available actions for %s: %v", tc.actor.Role, err)
		}
		if len(actions) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.actor.Role, tc.want, actions)
		}
		for i, action := range actions {
			if action.Action != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.actor.Role, tc.want, actions)
			}
		}
	}

	if _, err := h.svc.AvailableActions(context.Background(), item.ID, identity.Context{}); !errors.Is(err, workflow.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		ctx := context.Background()

		item, err := h.svc.Create(ctx, workflow.CreateItemRequest{
			Title: "  Breaking: Bridge Reopens  ",
			Kind:  domain.KindNews,
			Actor: editor,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if item.Title != "Breaking: Bridge Reopens" {
			t.Fatalf("expected trimmed title, got %q", item.Title)
		}
		if item.Slug == "" || strings.ContainsAny(item.Slug, " :") {
			t.Fatalf("expected normalized slug, got %q", item.Slug)
		}
		if item.Kind != domain.KindNews || item.OwnerID != editor.SubjectID {
			t.Fatalf("unexpected item %+v", item)
		}

		_, err = h.svc.Create(ctx, workflow.CreateItemRequest{Title: "Other", Slug: item.Slug, Actor: editor})
		if !errors.Is(err, workflow.ErrSlugConflict) {
			t.Fatalf("expected slug conflict, got %v", err)
		}

		_, err = h.svc.Create(ctx, workflow.CreateItemRequest{Title: "Not mine", Actor: chief})
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)

		_, err = h.svc.Create(ctx, workflow.CreateItemRequest{Title: "Delegated", Owner: otherEdit.SubjectID, Actor: editor})
		expectKind(t, err, workflow.ErrUnauthorized, goerrors.CategoryAuthz)

		delegated, err := h.svc.Create(ctx, workflow.CreateItemRequest{Title: "Delegated", Owner: otherEdit.SubjectID, Actor: admin})
		if err != nil {
			t.Fatalf("admin create: %v", err)
		}
		if delegated.OwnerID != otherEdit.SubjectID {
			t.Fatalf("expected admin-assigned owner, got %s", delegated.OwnerID)
		}

		_, err = h.svc.Create(ctx, workflow.CreateItemRequest{Title: " ", Kind: "podcast", Actor: editor})
		expectKind(t, err, workflow.ErrValidationFailed, goerrors.CategoryValidation)
		fields, _ := goerrors.GetValidationErrors(err)
		if len(fields) != 3 {
			t.Fatalf("expected title, slug and kind errors, got %v", fields)
		}
	})
}

func TestListAndCounts(t *testing.T) {
	forEachBackend(t, func(t *testing.T, open backend) {
		h := newHarness(t, open)
		ctx := context.Background()

		first := h.create(t, "Queue one")
		second := h.create(t, "Queue two")
		h.create(t, "Queue three")
		h.mustTransition(t, second.ID, domain.ActionSubmit, editor, 0)
		h.mustTransition(t, first.ID, domain.ActionSubmit, editor, 0)

		page, err := h.svc.List(ctx, content.ListOptions{State: domain.StateInReview})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if page.Total != 2 || len(page.Items) != 2 {
			t.Fatalf("expected 2 items in review, got %d/%d", len(page.Items), page.Total)
		}
		if page.Items[0].ID != second.ID {
			t.Fatalf("expected oldest update first")
		}
		if page.Limit != content.DefaultListLimit {
			t.Fatalf("expected default limit, got %d", page.Limit)
		}

		page, err = h.svc.List(ctx, content.ListOptions{Limit: 1, Offset: 1})
		if err != nil {
			t.Fatalf("list page: %v", err)
		}
		if page.Total != 3 || len(page.Items) != 1 {
			t.Fatalf("expected 1 of 3, got %d/%d", len(page.Items), page.Total)
		}

		if _, err := h.svc.List(ctx, content.ListOptions{Limit: content.MaxListLimit + 1}); !errors.Is(err, workflow.ErrValidationFailed) {
			t.Fatalf("expected limit validation, got %v", err)
		}
		if _, err := h.svc.List(ctx, content.ListOptions{State: "limbo"}); !errors.Is(err, workflow.ErrValidationFailed) {
			t.Fatalf("expected state validation, got %v", err)
		}

		counts, err := h.svc.CountByState(ctx)
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if counts[domain.StateDraft] != 1 || counts[domain.StateInReview] != 2 || counts[domain.StatePublished] != 0 {
			t.Fatalf("unexpected counts %v", counts)
		}
	})
}

func TestVerifyDetectsTamperedHistory(t *testing.T) {
	log := audit.NewMemoryLog()
	store := content.NewMemoryStore(log)
	svc := workflow.NewService(store, log)
	ctx := context.Background()

	item, err := svc.Create(ctx, workflow.CreateItemRequest{Title: "Tampered", Actor: editor})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Verify(ctx, item.ID); err != nil {
		t.Fatalf("verify fresh item: %v", err)
	}

	if err := log.Append(ctx, audit.Entry{
		ContentID: item.ID,
		Version:   1,
		FromState: domain.StateDraft,
		ToState:   domain.StatePublished,
		Action:    domain.ActionPublish,
		ActorID:   admin.SubjectID,
		ActorRole: domain.RoleAdmin,
		Timestamp: fixedClock,
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := svc.Verify(ctx, item.ID); !errors.Is(err, workflow.ErrHistoryInconsistent) {
		t.Fatalf("expected inconsistent history, got %v", err)
	}
}

func TestActivityEmittedAfterCommit(t *testing.T) {
	hook := &activity.CaptureHook{}
	emitter := activity.NewEmitter(activity.Hooks{hook}, activity.Config{Enabled: true, Channel: "editorial"})
	h := newHarness(t, backends()["memory"], workflow.WithActivityEmitter(emitter))

	item := h.create(t, "Observed")
	h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
	_, _ = h.transition(t, item.ID, domain.ActionPublish, publisher, 1, "")

	events := hook.Snapshot()
	if len(events) != 2 {
		t.Fatalf("expected create and submit events, got %d", len(events))
	}
	submit := events[1]
	if submit.Verb != "submit" || submit.ObjectType != "content" || submit.ObjectID != item.ID.String() {
		t.Fatalf("unexpected event %+v", submit)
	}
	if submit.ActorID != editor.SubjectID.String() || submit.Channel != "editorial" {
		t.Fatalf("unexpected actor or channel %+v", submit)
	}
	if submit.Metadata["to_state"] != "in_review" || submit.Metadata["version"] != 1 {
		t.Fatalf("unexpected metadata %v", submit.Metadata)
	}
}

func TestActivityFailureDoesNotUndoCommit(t *testing.T) {
	failing := activity.HookFunc(func(context.Context, activity.Event) error {
		return errors.New("sink down")
	})
	emitter := activity.NewEmitter(activity.Hooks{failing}, activity.Config{Enabled: true})
	h := newHarness(t, backends()["memory"], workflow.WithActivityEmitter(emitter))

	item := h.create(t, "Resilient")
	result := h.mustTransition(t, item.ID, domain.ActionSubmit, editor, 0)
	if result.Version != 1 {
		t.Fatalf("expected commit to stand, got v%d", result.Version)
	}
}

package usersink_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	objectID := uuid.New().String()

	event := activity.Event{
		Verb:           "publish",
		ActorID:        actorID.String(),
		UserID:         userID.String(),
		ObjectType:     "content",
		ObjectID:       objectID,
		Channel:        "editorial",
		DefinitionCode: "workflow:publish",
		Metadata: map[string]any{
			"to_state": "published",
		},
		OccurredAt: now,
	}

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID {
		t.Fatalf("expected actor %s got %s", actorID, record.ActorID)
	}
	if record.UserID != userID {
		t.Fatalf("expected user %s got %s", userID, record.UserID)
	}
	if record.Verb != "publish" || record.ObjectType != "content" || record.ObjectID != objectID {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "editorial" {
		t.Fatalf("expected channel editorial got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["definition_code"] != "workflow:publish" {
		t.Fatalf("expected definition_code metadata got %v", record.Data["definition_code"])
	}
	if record.Data["to_state"] != "published" {
		t.Fatalf("expected to_state metadata got %v", record.Data["to_state"])
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifyPropagatesSinkError(t *testing.T) {
	sink := &recordingSink{err: errSink}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{Verb: "approve", ObjectID: "abc"})
	if !errors.Is(err, errSink) {
		t.Fatalf("expected sink error, got %v", err)
	}
}

func TestHookNotifyIgnoresMalformedIDs(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	if err := hook.Notify(context.Background(), activity.Event{Verb: "submit", ActorID: "not-a-uuid"}); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 || sink.records[0].ActorID != uuid.Nil {
		t.Fatalf("expected nil actor for malformed id, got %+v", sink.records)
	}
}

var errSink = errors.New("sink unavailable")

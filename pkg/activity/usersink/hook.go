// Package usersink forwards activity events into a go-users activity sink.
package usersink

import (
	"context"
	"strings"

	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/interfaces"
	"github.com/google/uuid"
)

// Hook adapts an interfaces.ActivitySink to activity.Hook.
type Hook struct {
	Sink interfaces.ActivitySink
}

var _ activity.Hook = Hook{}

func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil || strings.TrimSpace(event.Verb) == "" {
		return nil
	}

	data := make(map[string]any, len(event.Metadata)+1)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.DefinitionCode != "" {
		data["definition_code"] = event.DefinitionCode
	}

	return h.Sink.Log(ctx, interfaces.ActivityRecord{
		UserID:     parseUUID(event.UserID),
		ActorID:    parseUUID(event.ActorID),
		Verb:       event.Verb,
		ObjectType: event.ObjectType,
		ObjectID:   event.ObjectID,
		Channel:    event.Channel,
		Data:       data,
		OccurredAt: event.OccurredAt,
	})
}

func parseUUID(value string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// Package activity fans editorial events out to pluggable hooks.
package activity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// Event describes something that happened to an editorial object.
type Event struct {
	Verb           string
	ActorID        string
	UserID         string
	ObjectType     string
	ObjectID       string
	Channel        string
	DefinitionCode string
	Metadata       map[string]any
	OccurredAt     time.Time
}

// Hook receives emitted events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (f HookFunc) Notify(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Hooks is an ordered hook list.
type Hooks []Hook

// Config toggles emission and stamps a default channel.
type Config struct {
	Enabled bool   `json:"enabled"`
	Channel string `json:"channel"`
}

// Emitter delivers events to every registered hook.
type Emitter struct {
	hooks Hooks
	cfg   Config
	now   func() time.Time
}

// NewEmitter returns an emitter. A nil or empty hook list yields a disabled emitter.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	filtered := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			filtered = append(filtered, hook)
		}
	}
	return &Emitter{hooks: filtered, cfg: cfg, now: time.Now}
}

// Enabled reports whether Emit will reach any hook.
func (e *Emitter) Enabled() bool {
	return e != nil && e.cfg.Enabled && len(e.hooks) > 0
}

// Emit delivers event to every hook and joins their errors. Events without a
// verb are dropped.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Verb) == "" {
		return nil
	}
	if event.Channel == "" {
		event.Channel = e.cfg.Channel
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = e.now().UTC()
	}

	var errs []error
	for _, hook := range e.hooks {
		if err := hook.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CaptureHook records events in memory.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
}

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.Events = append(h.Events, event)
	return nil
}

// Snapshot returns a copy of the captured events.
func (h *CaptureHook) Snapshot() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Event, len(h.Events))
	copy(out, h.Events)
	return out
}

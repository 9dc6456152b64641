package di_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-editorial/internal/audit"
	workflowcmd "github.com/goliatone/go-editorial/internal/commands/workflow"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/di"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/runtimeconfig"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/interfaces"
	"github.com/goliatone/go-editorial/pkg/testsupport"
	"github.com/google/uuid"
)

var editor = identity.Context{SubjectID: identity.UserUUID("container-editor"), Role: domain.RoleEditor}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = "mongo"

	if _, err := di.NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrStorageDriverUnknown) {
		t.Fatalf("expected ErrStorageDriverUnknown, got %v", err)
	}
}

func TestNewContainerMemoryDefaults(t *testing.T) {
	container, err := di.NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if container.WorkflowService() == nil {
		t.Fatal("expected workflow service")
	}
	if container.BunDB() != nil {
		t.Fatal("expected no database handle for the memory driver")
	}
	if container.LoggerProvider() != nil {
		t.Fatal("expected logging to stay disabled by default")
	}
	if container.Logger("editorial.test") == nil {
		t.Fatal("expected a no-op logger when logging is disabled")
	}

	item, err := container.WorkflowService().Create(context.Background(), workflow.CreateItemRequest{Title: "Memory", Actor: editor})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.State != domain.StateDraft || item.Version != 0 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestNewContainerGoLoggerProvider(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if container.LoggerProvider() == nil {
		t.Fatal("expected gologger provider")
	}
}

func TestNewContainerSQLiteMigrates(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = runtimeconfig.StorageDriverSQLite
	cfg.Storage.DSN = "file:container_sqlite?mode=memory&cache=shared"

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if container.BunDB() == nil {
		t.Fatal("expected database handle for sqlite")
	}

	ctx := context.Background()
	svc := container.WorkflowService()
	item, err := svc.Create(ctx, workflow.CreateItemRequest{Title: "Persisted", Actor: editor})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RequestTransition(ctx, workflow.TransitionRequest{
		ContentID: item.ID, Action: domain.ActionSubmit, Actor: editor, ObservedVersion: 0,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	history, err := svc.History(ctx, item.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 1 || history[0].ToState != domain.StateInReview {
		t.Fatalf("unexpected history %+v", history)
	}

	if err := container.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if container.BunDB() != nil {
		t.Fatal("expected owned handle to be released on close")
	}
}

func TestNewContainerUsesSuppliedBunDB(t *testing.T) {
	db := testsupport.NewBunDB(t)
	cfg := runtimeconfig.DefaultConfig()
	cfg.Storage.Driver = runtimeconfig.StorageDriverSQLite
	cfg.Storage.DSN = "unused"

	container, err := di.NewContainer(cfg, di.WithBunDB(db))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if container.BunDB() != db {
		t.Fatal("expected supplied handle to be used")
	}
	if err := container.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("expected supplied handle to stay open, got %v", err)
	}
}

func TestNewContainerCustomStoreRequiresLog(t *testing.T) {
	store := content.NewMemoryStore(audit.NewMemoryLog())
	if _, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithStore(store, nil)); err == nil {
		t.Fatal("expected error for store without audit log")
	}

	log := audit.NewMemoryLog()
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithStore(content.NewMemoryStore(log), log))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()
}

func TestContainerHTTPHandlerRequiresSecret(t *testing.T) {
	container, err := di.NewContainer(runtimeconfig.DefaultConfig())
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if _, err := container.HTTPHandler(); !errors.Is(err, di.ErrAuthNotConfigured) {
		t.Fatalf("expected ErrAuthNotConfigured, got %v", err)
	}
}

func TestContainerHTTPHandlerServesHealth(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Auth.Secret = "0123456789abcdef0123456789abcdef"

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	handler, err := container.HTTPHandler()
	if err != nil {
		t.Fatalf("HTTPHandler returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/content", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
}

func TestContainerActivityForwardsToSink(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Activity = true
	cfg.Activity.Channel = "newsroom"

	sink := &recordingSink{}
	capture := &activity.CaptureHook{}
	container, err := di.NewContainer(cfg, di.WithActivitySink(sink), di.WithActivityHooks(capture))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if !container.ActivityEmitter().Enabled() {
		t.Fatal("expected activity emitter to be enabled")
	}
	if _, err := container.WorkflowService().Create(context.Background(), workflow.CreateItemRequest{Title: "Noted", Actor: editor}); err != nil {
		t.Fatalf("create: %v", err)
	}

	records := sink.snapshot()
	if len(records) != 1 {
		t.Fatalf("expected 1 sink record, got %d", len(records))
	}
	if records[0].Verb != "create" || records[0].Channel != "newsroom" || records[0].ActorID != editor.SubjectID {
		t.Fatalf("unexpected record %+v", records[0])
	}
	if len(capture.Snapshot()) != 1 {
		t.Fatalf("expected capture hook to see the event")
	}
}

func TestContainerActivityDisabledByDefault(t *testing.T) {
	calls := 0
	sink := interfaces.ActivitySinkFunc(func(context.Context, interfaces.ActivityRecord) error {
		calls++
		return nil
	})
	container, err := di.NewContainer(runtimeconfig.DefaultConfig(), di.WithActivitySink(sink))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if _, err := container.WorkflowService().Create(context.Background(), workflow.CreateItemRequest{Title: "Quiet", Actor: editor}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if calls != 0 {
		t.Fatal("expected no records while activity is disabled")
	}
}

func TestContainerRegistersCommands(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Commands = true

	container, err := di.NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	ctx := context.Background()
	create := workflowcmd.CreateContentCommand{
		Title:     "Dispatched",
		ActorID:   editor.SubjectID,
		ActorRole: editor.Role,
		Result:    &content.Item{},
	}
	if err := dispatcher.Dispatch(ctx, create); err != nil {
		t.Fatalf("dispatch create: %v", err)
	}
	if create.Result.ID == uuid.Nil || create.Result.State != domain.StateDraft {
		t.Fatalf("unexpected created item %+v", create.Result)
	}

	transition := workflowcmd.RequestTransitionCommand{
		ContentID:       create.Result.ID,
		Action:          domain.ActionSubmit,
		ObservedVersion: 0,
		ActorID:         editor.SubjectID,
		ActorRole:       editor.Role,
		Result:          &workflow.TransitionResult{},
	}
	if err := dispatcher.Dispatch(ctx, transition); err != nil {
		t.Fatalf("dispatch transition: %v", err)
	}
	if transition.Result.State != domain.StateInReview || transition.Result.Version != 1 {
		t.Fatalf("unexpected transition result %+v", transition.Result)
	}
}

type recordingSink struct {
	mu      sync.Mutex
	records []interfaces.ActivityRecord
}

func (s *recordingSink) Log(_ context.Context, record interfaces.ActivityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *recordingSink) snapshot() []interfaces.ActivityRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]interfaces.ActivityRecord(nil), s.records...)
}

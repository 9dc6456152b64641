// Package di wires the editorial services from a runtime configuration.
package di

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/auth"
	workflowcmd "github.com/goliatone/go-editorial/internal/commands/workflow"
	"github.com/goliatone/go-editorial/internal/content"
	edhttp "github.com/goliatone/go-editorial/internal/http"
	"github.com/goliatone/go-editorial/internal/logging"
	"github.com/goliatone/go-editorial/internal/logging/gologger"
	"github.com/goliatone/go-editorial/internal/permissions"
	"github.com/goliatone/go-editorial/internal/runtimeconfig"
	"github.com/goliatone/go-editorial/internal/storage"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/activity"
	"github.com/goliatone/go-editorial/pkg/activity/usersink"
	"github.com/goliatone/go-editorial/pkg/interfaces"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace"
)

// ErrAuthNotConfigured indicates the HTTP surface was requested without a token secret.
var ErrAuthNotConfigured = errors.New("di: auth secret is required for the http api")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider

	bunDB  *bun.DB
	ownsDB bool

	store    content.Store
	auditLog audit.Log

	authorizer    permissions.Authorizer
	tracer        trace.Tracer
	activitySink  interfaces.ActivitySink
	activityHooks activity.Hooks
	emitter       *activity.Emitter

	workflowSvc workflow.Service
	verifier    edhttp.TokenVerifier
	commands    *workflowcmd.Registration
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected from the logging config.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithBunDB supplies an existing database handle for the sql drivers. The
// container does not close handles it did not open.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithStore overrides the persistence backend. log must be the audit log the
// store commits to.
func WithStore(store content.Store, log audit.Log) Option {
	return func(c *Container) {
		c.store = store
		c.auditLog = log
	}
}

// WithAuthorizer overrides the default permission matrix.
func WithAuthorizer(authorizer permissions.Authorizer) Option {
	return func(c *Container) {
		c.authorizer = authorizer
	}
}

// WithTracer overrides the tracer used for workflow spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		c.tracer = tracer
	}
}

// WithActivitySink forwards activity events to a go-users compatible sink.
func WithActivitySink(sink interfaces.ActivitySink) Option {
	return func(c *Container) {
		c.activitySink = sink
	}
}

// WithActivityHooks registers additional activity hooks.
func WithActivityHooks(hooks ...activity.Hook) Option {
	return func(c *Container) {
		c.activityHooks = append(c.activityHooks, hooks...)
	}
}

// WithTokenVerifier overrides the verifier built from the auth config.
func WithTokenVerifier(verifier edhttp.TokenVerifier) Option {
	return func(c *Container) {
		c.verifier = verifier
	}
}

// WithWorkflowService overrides the workflow service binding.
func WithWorkflowService(svc workflow.Service) Option {
	return func(c *Container) {
		c.workflowSvc = svc
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{Config: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureStorage(context.Background()); err != nil {
		return nil, err
	}
	c.configureActivity()
	c.configureWorkflow()
	if err := c.configureAuth(); err != nil {
		c.closeDB()
		return nil, err
	}
	if err := c.configureCommands(); err != nil {
		c.closeDB()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider != nil || !c.Config.Features.Logger {
		return nil
	}
	provider, err := gologger.NewProvider(gologger.ConfigFromRuntime(c.Config.Logging))
	if err != nil {
		return fmt.Errorf("di: configure logger: %w", err)
	}
	c.loggerProvider = provider
	return nil
}

func (c *Container) configureStorage(ctx context.Context) error {
	if c.store != nil {
		if c.auditLog == nil {
			return errors.New("di: audit log is required with a custom store")
		}
		return nil
	}

	logger := logging.StorageLogger(c.loggerProvider)
	driver := c.Config.Storage.StorageDriver()
	if driver == runtimeconfig.StorageDriverMemory {
		c.auditLog = audit.NewMemoryLog()
		c.store = content.NewMemoryStore(c.auditLog)
		logger.Info("storage.configured", "driver", driver)
		return nil
	}

	if c.bunDB == nil {
		db, err := storage.Open(c.Config.Storage)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	if c.Config.Storage.AutoMigrate {
		if err := storage.Migrate(ctx, c.bunDB); err != nil {
			c.closeDB()
			return err
		}
	}
	c.auditLog = audit.NewBunLog(c.bunDB)
	c.store = content.NewBunStore(c.bunDB)
	logger.Info("storage.configured", "driver", driver, "migrated", c.Config.Storage.AutoMigrate)
	return nil
}

func (c *Container) configureActivity() {
	hooks := append(activity.Hooks{}, c.activityHooks...)
	if c.activitySink != nil {
		hooks = append(hooks, usersink.Hook{Sink: c.activitySink})
	}
	c.emitter = activity.NewEmitter(hooks, activity.Config{
		Enabled: c.Config.Features.Activity,
		Channel: c.Config.Activity.Channel,
	})
}

func (c *Container) configureWorkflow() {
	if c.workflowSvc != nil {
		return
	}
	opts := []workflow.ServiceOption{
		workflow.WithLogger(logging.WorkflowLogger(c.loggerProvider)),
		workflow.WithActivityEmitter(c.emitter),
		workflow.WithAuthorizeFirst(c.Config.Workflow.AuthorizeFirst),
		workflow.WithOwnershipEnforcement(c.Config.Workflow.EnforceOwnership),
	}
	if c.authorizer != nil {
		opts = append(opts, workflow.WithAuthorizer(c.authorizer))
	}
	if c.tracer != nil {
		opts = append(opts, workflow.WithTracer(c.tracer))
	}
	c.workflowSvc = workflow.NewService(c.store, c.auditLog, opts...)
}

func (c *Container) configureAuth() error {
	if c.verifier != nil || c.Config.Auth.Secret == "" {
		return nil
	}
	verifier, err := auth.NewVerifier(auth.Config{
		Secret:   []byte(c.Config.Auth.Secret),
		Issuer:   c.Config.Auth.Issuer,
		Audience: c.Config.Auth.Audience,
	})
	if err != nil {
		return fmt.Errorf("di: configure auth: %w", err)
	}
	c.verifier = verifier
	return nil
}

func (c *Container) configureCommands() error {
	if !c.Config.Features.Commands {
		return nil
	}
	reg, err := workflowcmd.Register(c.workflowSvc, logging.CommandsLogger(c.loggerProvider))
	if err != nil {
		return fmt.Errorf("di: register commands: %w", err)
	}
	c.commands = reg
	logging.CommandsLogger(c.loggerProvider).Info("commands.registered")
	return nil
}

// WorkflowService returns the configured workflow service.
func (c *Container) WorkflowService() workflow.Service {
	return c.workflowSvc
}

// LoggerProvider returns the configured provider, or nil when logging is disabled.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// Logger returns a module-scoped logger.
func (c *Container) Logger(module string) interfaces.Logger {
	return logging.ModuleLogger(c.loggerProvider, module)
}

// BunDB returns the database handle, or nil for the memory driver.
func (c *Container) BunDB() *bun.DB {
	return c.bunDB
}

// ActivityEmitter returns the emitter shared with the workflow service.
func (c *Container) ActivityEmitter() *activity.Emitter {
	return c.emitter
}

// HTTPHandler builds the HTTP API over the workflow service.
func (c *Container) HTTPHandler() (http.Handler, error) {
	if c.verifier == nil {
		return nil, ErrAuthNotConfigured
	}
	api, err := edhttp.NewAPI(c.workflowSvc, c.verifier, edhttp.WithLogger(logging.HTTPLogger(c.loggerProvider)))
	if err != nil {
		return nil, err
	}
	return api.Handler(), nil
}

// Close releases the command subscriptions and any database handle opened by
// the container.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	c.commands.Close()
	c.commands = nil
	return c.closeDB()
}

func (c *Container) closeDB() error {
	if !c.ownsDB || c.bunDB == nil {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownsDB = false
	return err
}

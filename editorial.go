// Package editorial is the entry point for the editorial workflow engine. It
// wires the state machine, permission matrix, content store and audit log
// behind a single Module.
package editorial

import (
	"net/http"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/content"
	"github.com/goliatone/go-editorial/internal/di"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/goliatone/go-editorial/internal/identity"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/interfaces"
)

// WorkflowService exports the workflow service contract.
type WorkflowService = workflow.Service

type (
	Role              = domain.Role
	ContentState      = domain.ContentState
	Action            = domain.Action
	ContentKind       = domain.ContentKind
	Identity          = identity.Context
	ContentItem       = content.Item
	ListOptions       = content.ListOptions
	AuditEntry        = audit.Entry
	TransitionRequest = workflow.TransitionRequest
	TransitionResult  = workflow.TransitionResult
	CreateItemRequest = workflow.CreateItemRequest
	ActionDescriptor  = workflow.ActionDescriptor
	Page              = workflow.Page
	Option            = di.Option
)

var (
	ErrNotFound          = workflow.ErrNotFound
	ErrIllegalTransition = workflow.ErrIllegalTransition
	ErrUnauthorized      = workflow.ErrUnauthorized
	ErrStaleVersion      = workflow.ErrStaleVersion
	ErrSlugConflict      = workflow.ErrSlugConflict
)

// Kind reports the machine readable kind of a workflow error.
func Kind(err error) string {
	return workflow.Kind(err)
}

// Module represents the top level editorial runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Workflow returns the configured workflow service.
func (m *Module) Workflow() WorkflowService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.WorkflowService()
}

// Logger returns a module-scoped logger.
func (m *Module) Logger(module string) interfaces.Logger {
	return m.container.Logger(module)
}

// Handler returns the HTTP API. It requires Auth.Secret to be configured.
func (m *Module) Handler() (http.Handler, error) {
	return m.container.HTTPHandler()
}

// Close releases resources held by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-editorial/pkg/interfaces"
)

const (
	rootModule     = "editorial"
	workflowModule = "editorial.workflow"
	commandsModule = "editorial.commands"
	httpModule     = "editorial.http"
	storageModule  = "editorial.storage"
)

const (
	fieldContentID = "content_id"
	fieldAction    = "action"
	fieldActorID   = "actor_id"
	fieldActorRole = "actor_role"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(map[string]any{
			"module": module,
		})
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// WorkflowLogger returns the logger namespace reserved for the workflow service.
func WorkflowLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, workflowModule)
}

// CommandsLogger returns the logger namespace reserved for command handlers.
func CommandsLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, commandsModule)
}

// HTTPLogger returns the logger namespace reserved for the HTTP API.
func HTTPLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, httpModule)
}

// StorageLogger returns the logger namespace reserved for storage bootstrapping.
func StorageLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, storageModule)
}

// WithTransitionContext enriches the provided logger with the content item,
// action and actor of a transition request. Empty values are ignored.
func WithTransitionContext(logger interfaces.Logger, contentID, action, actorID, actorRole string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(contentID); trimmed != "" {
		fields[fieldContentID] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	if trimmed := strings.TrimSpace(actorID); trimmed != "" {
		fields[fieldActorID] = trimmed
	}
	if trimmed := strings.TrimSpace(actorRole); trimmed != "" {
		fields[fieldActorRole] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

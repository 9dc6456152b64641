// Package workflowcmd exposes workflow operations as go-command messages.
package workflowcmd

import (
	"context"
	"errors"

	"github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	"github.com/goliatone/go-editorial/internal/commands"
	"github.com/goliatone/go-editorial/internal/workflow"
	"github.com/goliatone/go-editorial/pkg/interfaces"
)

// RequestTransitionHandler applies transitions through the workflow service.
type RequestTransitionHandler struct {
	inner *commands.Handler[RequestTransitionCommand]
}

// NewRequestTransitionHandler constructs a handler wired to the provided workflow service.
func NewRequestTransitionHandler(service workflow.Service, logger interfaces.Logger, opts ...commands.HandlerOption[RequestTransitionCommand]) *RequestTransitionHandler {
	exec := func(ctx context.Context, msg RequestTransitionCommand) error {
		result, err := service.RequestTransition(ctx, msg.request())
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = result
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[RequestTransitionCommand]{
		commands.WithLogger[RequestTransitionCommand](logger),
		commands.WithOperation[RequestTransitionCommand]("workflow.request_transition"),
		commands.WithTelemetry(commands.LoggingTelemetry[RequestTransitionCommand](logger, workflow.Kind)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &RequestTransitionHandler{
		inner: commands.NewHandler[RequestTransitionCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[RequestTransitionCommand].Execute.
func (h *RequestTransitionHandler) Execute(ctx context.Context, msg RequestTransitionCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CreateContentHandler registers drafts through the workflow service.
type CreateContentHandler struct {
	inner *commands.Handler[CreateContentCommand]
}

// NewCreateContentHandler constructs a handler wired to the provided workflow service.
func NewCreateContentHandler(service workflow.Service, logger interfaces.Logger, opts ...commands.HandlerOption[CreateContentCommand]) *CreateContentHandler {
	exec := func(ctx context.Context, msg CreateContentCommand) error {
		item, err := service.Create(ctx, msg.request())
		if err != nil {
			return err
		}
		if msg.Result != nil {
			*msg.Result = *item
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[CreateContentCommand]{
		commands.WithLogger[CreateContentCommand](logger),
		commands.WithOperation[CreateContentCommand]("workflow.create_content"),
		commands.WithTelemetry(commands.LoggingTelemetry[CreateContentCommand](logger, workflow.Kind)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CreateContentHandler{
		inner: commands.NewHandler[CreateContentCommand](exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CreateContentCommand].Execute.
func (h *CreateContentHandler) Execute(ctx context.Context, msg CreateContentCommand) error {
	return h.inner.Execute(ctx, msg)
}

// Registration holds the dispatcher subscriptions created by Register.
type Registration struct {
	unsubscribe []func()
}

// Close removes every subscription.
func (r *Registration) Close() {
	if r == nil {
		return
	}
	for _, fn := range r.unsubscribe {
		fn()
	}
	r.unsubscribe = nil
}

// Register subscribes the workflow handlers to the global go-command
// dispatcher. Workflow rejections are never retried: the caller must reload
// and decide.
func Register(service workflow.Service, logger interfaces.Logger) (*Registration, error) {
	if service == nil {
		return nil, errors.New("workflowcmd: service is required")
	}
	transition := dispatcher.SubscribeCommand(NewRequestTransitionHandler(service, logger), runner.WithMaxRetries(0))
	create := dispatcher.SubscribeCommand(NewCreateContentHandler(service, logger), runner.WithMaxRetries(0))
	return &Registration{
		unsubscribe: []func(){transition.Unsubscribe, create.Unsubscribe},
	}, nil
}

package commands

import (
	"strings"

	"github.com/goliatone/go-editorial/internal/logging"
	"github.com/goliatone/go-editorial/pkg/interfaces"
)

// CommandLogger returns a logger scoped under editorial.commands for the
// given command group.
func CommandLogger(provider interfaces.LoggerProvider, group string) interfaces.Logger {
	name := strings.TrimSpace(group)
	if name == "" {
		return logging.WithFields(logging.CommandsLogger(provider), map[string]any{
			"component": "command",
		})
	}
	logger := logging.ModuleLogger(provider, "editorial.commands."+name)
	return logging.WithFields(logger, map[string]any{
		"component":     "command",
		"command_group": name,
	})
}

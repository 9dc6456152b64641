package logging

import (
	"context"
	"maps"
	"slices"

	"github.com/goliatone/go-editorial/pkg/interfaces"
)

// WithFields attaches structured fields to a logger. Loggers without the
// FieldsLogger extension receive the fields as trailing key/value arguments
// on every entry.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}
	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		return fieldsLogger.WithFields(maps.Clone(fields))
	}
	return argsLogger{base: logger, fields: maps.Clone(fields)}
}

type argsLogger struct {
	base   interfaces.Logger
	fields map[string]any
}

func (l argsLogger) Trace(msg string, args ...any) { l.base.Trace(msg, l.args(args)...) }
func (l argsLogger) Debug(msg string, args ...any) { l.base.Debug(msg, l.args(args)...) }
func (l argsLogger) Info(msg string, args ...any)  { l.base.Info(msg, l.args(args)...) }
func (l argsLogger) Warn(msg string, args ...any)  { l.base.Warn(msg, l.args(args)...) }
func (l argsLogger) Error(msg string, args ...any) { l.base.Error(msg, l.args(args)...) }
func (l argsLogger) Fatal(msg string, args ...any) { l.base.Fatal(msg, l.args(args)...) }

func (l argsLogger) WithContext(ctx context.Context) interfaces.Logger {
	return argsLogger{base: l.base.WithContext(ctx), fields: l.fields}
}

func (l argsLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := maps.Clone(l.fields)
	maps.Copy(merged, fields)
	return argsLogger{base: l.base, fields: merged}
}

// args appends the persistent fields after the call site arguments in key order.
func (l argsLogger) args(args []any) []any {
	out := make([]any, 0, len(args)+2*len(l.fields))
	out = append(out, args...)
	for _, key := range slices.Sorted(maps.Keys(l.fields)) {
		out = append(out, key, l.fields[key])
	}
	return out
}

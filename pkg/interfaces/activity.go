package interfaces

import (
	"context"

	usertypes "github.com/goliatone/go-users/pkg/types"
)

// ActivityRecord is the go-users activity record. Workflow commits are
// forwarded as one record per created item or committed transition.
type ActivityRecord = usertypes.ActivityRecord

// ActivitySink receives activity records. A go-users activity sink satisfies
// it directly.
type ActivitySink interface {
	Log(ctx context.Context, record ActivityRecord) error
}

// ActivitySinkFunc adapts a function to ActivitySink.
type ActivitySinkFunc func(ctx context.Context, record ActivityRecord) error

func (fn ActivitySinkFunc) Log(ctx context.Context, record ActivityRecord) error {
	return fn(ctx, record)
}

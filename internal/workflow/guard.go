package workflow

import "github.com/goliatone/go-editorial/internal/content"

// ConflictGuard is the optimistic concurrency check on item versions.
type ConflictGuard struct{}

// CheckAndAdvance returns the version the item will hold after a successful
// commit, or false when observed does not match the item. It never mutates
// item; the store re-checks the version inside the commit.
func (ConflictGuard) CheckAndAdvance(item *content.Item, observed int) (int, bool) {
	if item == nil || item.Version != observed {
		return 0, false
	}
	return item.Version + 1, true
}

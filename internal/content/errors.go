package content

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the sentinel wrapped by NotFoundError.
	ErrNotFound = errors.New("content: not found")
	// ErrSlugExists indicates another item already uses the slug.
	ErrSlugExists = errors.New("content: slug already exists")
	// ErrVersionConflict indicates the item moved on since the caller observed it.
	ErrVersionConflict = errors.New("content: version conflict")
	// ErrCommitInvalid indicates a commit request does not describe a single-step advance.
	ErrCommitInvalid = errors.New("content: commit invalid")
)

// NotFoundError is returned when an item cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

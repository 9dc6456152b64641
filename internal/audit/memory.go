package audit

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryLog keeps entries in process memory.
type MemoryLog struct {
	mu      sync.RWMutex
	entries map[uuid.UUID][]Entry
}

var _ Log = (*MemoryLog)(nil)

func NewMemoryLog() *MemoryLog {
	return &MemoryLog{entries: make(map[uuid.UUID][]Entry)}
}

func (l *MemoryLog) Append(_ context.Context, entry Entry) error {
	entry, err := prepare(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	existing := l.entries[entry.ContentID]
	if err := checkSequence(entry, len(existing)); err != nil {
		return err
	}
	l.entries[entry.ContentID] = append(existing, entry)
	return nil
}

func (l *MemoryLog) HistoryOf(_ context.Context, contentID uuid.UUID) ([]Entry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	existing := l.entries[contentID]
	out := make([]Entry, len(existing))
	copy(out, existing)
	return out, nil
}

func (l *MemoryLog) Latest(_ context.Context, contentID uuid.UUID) (Entry, bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	existing := l.entries[contentID]
	if len(existing) == 0 {
		return Entry{}, false, nil
	}
	return existing[len(existing)-1], true, nil
}

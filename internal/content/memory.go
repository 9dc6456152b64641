package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-editorial/internal/audit"
	"github.com/goliatone/go-editorial/internal/domain"
	"github.com/google/uuid"
)

// MemoryStore keeps items in process memory. Each item has its own mutex held
// across the version check and the commit; the map lock only guards lookups
// and inserts, so transitions on different items never wait on each other.
type MemoryStore struct {
	mu    sync.RWMutex
	slots map[uuid.UUID]*slot
	slugs map[string]uuid.UUID
	log   audit.Log
}

type slot struct {
	mu   sync.Mutex
	item Item
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store that records committed transitions in log.
func NewMemoryStore(log audit.Log) *MemoryStore {
	if log == nil {
		log = audit.NewMemoryLog()
	}
	return &MemoryStore{
		slots: make(map[uuid.UUID]*slot),
		slugs: make(map[string]uuid.UUID),
		log:   log,
	}
}

// AuditLog exposes the log commits are written to.
func (s *MemoryStore) AuditLog() audit.Log {
	return s.log
}

func (s *MemoryStore) Create(_ context.Context, item *Item) (*Item, error) {
	if item == nil {
		return nil, fmt.Errorf("content: item required")
	}
	record := cloneItem(item)
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	slugKey := strings.ToLower(strings.TrimSpace(record.Slug))

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.slots[record.ID]; exists {
		return nil, fmt.Errorf("content: item %s already exists", record.ID)
	}
	if slugKey != "" {
		if _, exists := s.slugs[slugKey]; exists {
			return nil, fmt.Errorf("%w: %s", ErrSlugExists, record.Slug)
		}
		s.slugs[slugKey] = record.ID
	}
	s.slots[record.ID] = &slot{item: *record}
	return cloneItem(record), nil
}

func (s *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Item, error) {
	sl, ok := s.lookup(id)
	if !ok {
		return nil, &NotFoundError{Resource: "content", Key: id.String()}
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return cloneItem(&sl.item), nil
}

func (s *MemoryStore) List(_ context.Context, opts ListOptions) ([]*Item, int, error) {
	opts = opts.Normalized()
	matched := make([]*Item, 0)
	for _, sl := range s.snapshot() {
		sl.mu.Lock()
		item := cloneItem(&sl.item)
		sl.mu.Unlock()
		if opts.State != "" && item.State != opts.State {
			continue
		}
		if opts.Owner != uuid.Nil && item.OwnerID != opts.Owner {
			continue
		}
		matched = append(matched, item)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UpdatedAt.Equal(matched[j].UpdatedAt) {
			return matched[i].UpdatedAt.Before(matched[j].UpdatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	if opts.Offset >= total {
		return []*Item{}, total, nil
	}
	end := min(opts.Offset+opts.Limit, total)
	return matched[opts.Offset:end], total, nil
}

func (s *MemoryStore) CountByState(_ context.Context) (map[domain.ContentState]int, error) {
	counts := make(map[domain.ContentState]int, len(domain.States()))
	for _, state := range domain.States() {
		counts[state] = 0
	}
	for _, sl := range s.snapshot() {
		sl.mu.Lock()
		counts[sl.item.State]++
		sl.mu.Unlock()
	}
	return counts, nil
}

func (s *MemoryStore) Commit(ctx context.Context, commit Commit) (*Item, error) {
	if err := commit.validate(); err != nil {
		return nil, err
	}
	entry := commit.Entry
	sl, ok := s.lookup(entry.ContentID)
	if !ok {
		return nil, &NotFoundError{Resource: "content", Key: entry.ContentID.String()}
	}

	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.item.Version != commit.ExpectedVersion || sl.item.State != entry.FromState {
		return nil, fmt.Errorf("%w: content %s at version %d, expected %d", ErrVersionConflict, entry.ContentID, sl.item.Version, commit.ExpectedVersion)
	}
	if err := s.log.Append(ctx, entry); err != nil {
		return nil, err
	}

	at := entry.Timestamp.UTC()
	by := entry.ActorID
	sl.item.State = entry.ToState
	sl.item.Version = entry.Version
	sl.item.LastTransitionBy = &by
	sl.item.LastTransitionAt = &at
	sl.item.UpdatedAt = at
	return cloneItem(&sl.item), nil
}

func (s *MemoryStore) lookup(id uuid.UUID) (*slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.slots[id]
	return sl, ok
}

func (s *MemoryStore) snapshot() []*slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*slot, 0, len(s.slots))
	for _, sl := range s.slots {
		out = append(out, sl)
	}
	return out
}

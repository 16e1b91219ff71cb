package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	session   *Session
	expiresAt time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates a [MemoryStore]. A ttl of zero keeps sessions until
// they are cleared.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// WithClock replaces the store clock. It must be called before the store is shared.
func (m *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	m.now = now
	return m
}

func (m *MemoryStore) Create(_ context.Context, s *Session) error {
	if err := validateNew(s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if _, ok := m.liveLocked(s.ID, now); ok {
		return ErrExists
	}

	stored := s.Clone()
	if stored.CreatedAt == 0 {
		stored.CreatedAt = now.Unix()
	}
	stored.UpdatedAt = stored.CreatedAt

	entry := memoryEntry{session: stored}
	if m.ttl > 0 {
		entry.expiresAt = now.Add(m.ttl)
	}
	m.entries[s.ID] = entry
	return nil
}

func (m *MemoryStore) Read(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(id, m.now())
	if !ok {
		return nil, ErrNotFound
	}
	return entry.session.Clone(), nil
}

func (m *MemoryStore) Update(_ context.Context, id string, p Patch) (*Session, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.liveLocked(id, now)
	if !ok {
		return nil, ErrNotFound
	}

	next := entry.session.Clone()
	p.apply(next, now)
	entry.session = next
	m.entries[id] = entry

	return next.Clone(), nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.entries, id)
	m.mu.Unlock()
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	n := 0
	for id := range m.entries {
		if _, ok := m.liveLocked(id, now); ok {
			n++
		}
	}
	return n
}

func (m *MemoryStore) liveLocked(id string, now time.Time) (memoryEntry, bool) {
	entry, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt) {
		delete(m.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}

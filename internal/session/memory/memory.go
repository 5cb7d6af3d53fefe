package memory

import (
	"context"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/klotz/summarizer-service/internal/session"
)

const defaultMaxEntries = 1024

// MemoryStore keeps sessions in process, evicting the least recently used
// once maxEntries is reached.
type MemoryStore struct {
	mu      sync.Mutex
	entries *lru.Cache
}

type entry struct {
	mu   sync.Mutex
	data session.Session
}

func New(maxEntries int) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: cache}, nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (session.Session, error) {
	value, ok := m.entries.Get(id)
	if !ok {
		return session.Session{}, nil
	}
	current := value.(*entry)
	current.mu.Lock()
	defer current.mu.Unlock()
	return current.data.Clone(), nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*session.Session) error) (session.Session, error) {
	current := m.lockEntry(id)
	defer current.mu.Unlock()

	working := current.data.Clone()
	if err := fn(&working); err != nil {
		return session.Session{}, err
	}
	current.data = working
	return working.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.entries.Remove(id)
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Len() int {
	return m.entries.Len()
}

// beforeEntryLock runs between the cache lookup and the entry lock.
var beforeEntryLock = func() {}

// lockEntry returns the locked entry for id. An entry evicted while waiting
// for its lock is put back unless a newer entry for id has replaced it, in
// which case the lookup starts over.
func (m *MemoryStore) lockEntry(id string) *entry {
	for {
		current := m.entryFor(id)
		beforeEntryLock()
		current.mu.Lock()
		if m.reinstate(id, current) {
			return current
		}
		current.mu.Unlock()
	}
}

func (m *MemoryStore) reinstate(id string, current *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.entries.Get(id)
	if !ok {
		m.entries.Add(id, current)
		return true
	}
	return value.(*entry) == current
}

func (m *MemoryStore) entryFor(id string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if value, ok := m.entries.Get(id); ok {
		return value.(*entry)
	}
	created := &entry{}
	m.entries.Add(id, created)
	return created
}

package storage

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Package storage provides local DB/cache abstraction.

// Store tracks IDs of readings already forwarded downstream.
type Store interface {
	Close() error
	SeenReading(id string) (bool, error)
	MarkReading(id string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	ReadingTTL      time.Duration
	CleanupInterval time.Duration
}

const (
	defaultReadingTTL      = 2 * 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "memory":
		return newMemoryStore(opts), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.ReadingTTL <= 0 {
		opts.ReadingTTL = defaultReadingTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

// noopStore never remembers anything, so every reading is forwarded.
type noopStore struct{}

func (noopStore) Close() error                     { return nil }
func (noopStore) SeenReading(string) (bool, error) { return false, nil }
func (noopStore) MarkReading(string) error         { return nil }

// memoryStore keeps IDs in process memory; entries expire like the bbolt store
// but do not survive restarts.
type memoryStore struct {
	mu      sync.Mutex
	now     func() time.Time
	ttl     time.Duration
	expires map[string]time.Time
}

func newMemoryStore(opts Options) *memoryStore {
	return &memoryStore{
		now:     time.Now,
		ttl:     opts.ReadingTTL,
		expires: make(map[string]time.Time),
	}
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) SeenReading(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.expires[id]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.expires, id)
		return false, nil
	}
	return true, nil
}

func (m *memoryStore) MarkReading(id string) error {
	m.mu.Lock()
	m.expires[id] = m.now().Add(m.ttl)
	m.mu.Unlock()
	return nil
}

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store with an in-process LRU keyed by fingerprint.
// This is the default backend; contents are lost when the process exits.
//
// All mutations run under a single mutex so byte accounting and eviction
// order stay consistent under concurrent Puts. Lookups take the same lock
// because a hit mutates recency order.
type MemoryStore struct {
	mu sync.Mutex

	// entries maps key to its element in the recency list.
	entries map[Key]*list.Element

	// lru orders elements most-recently-used first.
	lru *list.List

	totalBytes int64

	maxBytes   int64
	maxEntries int
	ttl        time.Duration
	observer   Observer
}

// MemoryStoreConfig configures a MemoryStore.
type MemoryStoreConfig struct {
	// MaxBytes bounds the total resident value size. Required.
	MaxBytes int64

	// MaxEntries bounds the entry count. Zero means unbounded.
	MaxEntries int

	// TTL is the freshness horizon. Zero disables expiry.
	TTL time.Duration

	// Observer receives eviction and size notifications. Optional.
	Observer Observer
}

// NewMemoryStore creates an in-memory LRU cache store.
func NewMemoryStore(cfg MemoryStoreConfig) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[Key]*list.Element),
		lru:        list.New(),
		maxBytes:   cfg.MaxBytes,
		maxEntries: cfg.MaxEntries,
		ttl:        cfg.TTL,
		observer:   cfg.Observer,
	}
}

// Get returns the entry for key, or nil on miss. A TTL-expired entry is
// removed and reported as a miss.
func (m *MemoryStore) Get(ctx context.Context, key Key) (*Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.entries[key]
	if !ok {
		return nil, nil
	}

	entry := elem.Value.(*Entry)
	if m.expired(entry, time.Now()) {
		m.removeLocked(elem)
		m.notifyLocked(1)
		return nil, nil
	}

	m.lru.MoveToFront(elem)
	return entry, nil
}

// Put inserts or overwrites the entry for key, evicting from the LRU tail
// until the insertion fits.
func (m *MemoryStore) Put(ctx context.Context, key Key, value []byte) error {
	size := int64(len(value))
	if size > m.maxBytes {
		return &EntryTooLargeError{Key: key, SizeBytes: size, MaxBytes: m.maxBytes}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if elem, ok := m.entries[key]; ok {
		m.removeLocked(elem)
	}

	evicted := 0
	for m.totalBytes+size > m.maxBytes || (m.maxEntries > 0 && m.lru.Len() >= m.maxEntries) {
		tail := m.lru.Back()
		if tail == nil {
			break
		}
		m.removeLocked(tail)
		evicted++
	}

	entry := &Entry{
		Key:       key,
		Value:     value,
		StoredAt:  time.Now(),
		SizeBytes: size,
	}
	m.entries[key] = m.lru.PushFront(entry)
	m.totalBytes += size

	m.notifyLocked(evicted)
	return nil
}

// InvalidateAll clears the store.
func (m *MemoryStore) InvalidateAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped := m.lru.Len()
	m.entries = make(map[Key]*list.Element)
	m.lru.Init()
	m.totalBytes = 0

	m.notifyLocked(dropped)
	return nil
}

// PurgeExpired removes all entries past the TTL.
func (m *MemoryStore) PurgeExpired(ctx context.Context) (int, error) {
	if m.ttl == 0 {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	purged := 0
	for elem := m.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if m.expired(elem.Value.(*Entry), now) {
			m.removeLocked(elem)
			purged++
		}
		elem = prev
	}

	m.notifyLocked(purged)
	return purged, nil
}

// Len returns the current number of resident entries.
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lru.Len()
}

// SizeBytes returns the current total resident value size.
func (m *MemoryStore) SizeBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.totalBytes
}

// Close releases resources. A no-op for the memory backend.
func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) expired(entry *Entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(entry.StoredAt) > m.ttl
}

// removeLocked unlinks an element and adjusts accounting. Caller holds mu.
func (m *MemoryStore) removeLocked(elem *list.Element) {
	entry := elem.Value.(*Entry)
	m.lru.Remove(elem)
	delete(m.entries, entry.Key)
	m.totalBytes -= entry.SizeBytes
}

// notifyLocked reports evictions and current totals. Caller holds mu.
func (m *MemoryStore) notifyLocked(evicted int) {
	if m.observer == nil {
		return
	}
	if evicted > 0 {
		m.observer.Evicted(evicted)
	}
	m.observer.Resized(m.lru.Len(), m.totalBytes)
}

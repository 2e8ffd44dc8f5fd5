package datastore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/terrastore/codec"
)

// MemoryStore is an in-process DataStore.
// It stores documents in memory without any filesystem dependency and keeps
// nothing across process restarts. Used for tests and ephemeral runs.
// Thread-safe for concurrent reads and writes.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	used    int64

	maxSize int64
	codec   codec.Codec
	now     func() time.Time
}

type memoryEntry struct {
	data        []byte
	contentType string
	metadata    Metadata
	modified    time.Time
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := applyOptions(opts)
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		maxSize: o.maxSizeBytes,
		codec:   o.codec,
		now:     o.now,
	}
}

// Write replaces any prior entry under key wholesale.
func (m *MemoryStore) Write(_ context.Context, key string, doc any, opts ...WriteOption) WriteResult {
	if err := ValidateKey(key); err != nil {
		return WriteFailed(key, NewError("write", key, CodeInvalidKey, err))
	}
	wo := ApplyWriteOptions(opts...)

	data, err := m.codec.Marshal(doc)
	if err != nil {
		return WriteFailed(key, NewError("write", key, CodeSerialize, err))
	}
	size := int64(len(data))

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSize > 0 {
		projected := m.used - int64(len(m.entries[key].data)) + size
		if projected > m.maxSize {
			return WriteFailed(key, NewError("write", key, CodeCapacityExceeded,
				fmt.Errorf("document of %d bytes would bring usage to %d of %d bytes", size, projected, m.maxSize)))
		}
	}

	now := m.now().UTC()
	m.used += size - int64(len(m.entries[key].data))
	m.entries[key] = memoryEntry{
		data:        data,
		contentType: wo.ContentType,
		metadata:    wo.Metadata,
		modified:    now,
	}

	return WriteResult{
		Success:     true,
		Key:         key,
		Size:        size,
		ContentType: wo.ContentType,
		Timestamp:   now,
	}
}

// Read returns a copy of the stored document.
func (m *MemoryStore) Read(_ context.Context, key string) (json.RawMessage, error) {
	if err := ValidateKey(key); err != nil {
		return nil, NewError("read", key, CodeInvalidKey, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}

	// Return a copy to prevent external mutation
	copied := make([]byte, len(e.data))
	copy(copied, e.data)
	return copied, nil
}

// Exists reports whether key is present.
func (m *MemoryStore) Exists(_ context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, NewError("exists", key, CodeInvalidKey, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[key]
	return ok, nil
}

// Delete removes key. Deleting an absent key succeeds.
func (m *MemoryStore) Delete(_ context.Context, key string) DeleteResult {
	if err := ValidateKey(key); err != nil {
		return DeleteFailed(key, NewError("delete", key, CodeInvalidKey, err))
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.used -= int64(len(m.entries[key].data))
	delete(m.entries, key)
	return DeleteResult{Success: true, Key: key}
}

// List returns entries matching prefix sorted by key.
func (m *MemoryStore) List(_ context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return nil, NewError("list", prefix, CodeInvalidKey, err)
	}
	limit = NormalizeLimit(limit)

	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]ObjectInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.info(k, m.entries[k]))
	}
	return out, nil
}

// GetMetadata returns the metadata of key, or nil if absent.
func (m *MemoryStore) GetMetadata(_ context.Context, key string) (*ObjectInfo, error) {
	if err := ValidateKey(key); err != nil {
		return nil, NewError("getMetadata", key, CodeInvalidKey, err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	info := m.info(key, e)
	return &info, nil
}

// Usage returns the total serialized bytes currently stored.
func (m *MemoryStore) Usage() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

func (m *MemoryStore) info(key string, e memoryEntry) ObjectInfo {
	return ObjectInfo{
		Key:          key,
		Size:         int64(len(e.data)),
		ContentType:  e.contentType,
		LastModified: e.modified,
		Metadata:     e.metadata.Clone(),
	}
}

var _ DataStore = (*MemoryStore)(nil)

package remote

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/terrastore/datastore"
)

// MemoryProvider is a thread-safe in-memory Provider for unit testing.
// Like a real blob service, Stat fails with ErrObjectNotFound for a
// missing object instead of returning an empty result.
type MemoryProvider struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

type memoryObject struct {
	data        []byte
	contentType string
	metadata    map[string]string
	modified    time.Time
}

// NewMemoryProvider creates a new in-memory Provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *MemoryProvider) Name() string { return "memory" }

func (m *MemoryProvider) Stat(_ context.Context, key string) (datastore.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return datastore.ObjectInfo{}, ErrObjectNotFound
	}
	return o.info(key), nil
}

func (m *MemoryProvider) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	cp := make([]byte, len(o.data))
	copy(cp, o.data)
	return cp, nil
}

func (m *MemoryProvider) Put(_ context.Context, key string, data []byte, contentType string, metadata map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = memoryObject{
		data:        cp,
		contentType: contentType,
		metadata:    datastore.Metadata(metadata).Clone(),
		modified:    m.now().UTC(),
	}
	return nil
}

func (m *MemoryProvider) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *MemoryProvider) List(_ context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	out := make([]datastore.ObjectInfo, 0, len(keys))
	for _, k := range keys {
		out = append(out, m.objects[k].info(k))
	}
	return out, nil
}

// Keys returns all physical keys, sorted.
func (m *MemoryProvider) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PutRaw stores data under key as-is, bypassing serialization.
func (m *MemoryProvider) PutRaw(key string, data []byte) {
	_ = m.Put(context.Background(), key, data, "", nil)
}

func (o memoryObject) info(key string) datastore.ObjectInfo {
	var meta datastore.Metadata
	if o.metadata != nil {
		meta = datastore.Metadata(o.metadata).Clone()
	}
	return datastore.ObjectInfo{
		Key:          key,
		Size:         int64(len(o.data)),
		ContentType:  o.contentType,
		LastModified: o.modified,
		Metadata:     meta,
	}
}

var _ Provider = (*MemoryProvider)(nil)

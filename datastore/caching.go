package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachingStore wraps a DataStore and caches serialized documents returned by
// Read in an LRU. Entries are invalidated by Write and Delete through this
// store; writes that bypass it are not observed.
type CachingStore struct {
	inner DataStore
	cache *lru.Cache[string, json.RawMessage]

	// epoch advances on every invalidation. A read-through fill is only
	// admitted if no invalidation happened while the inner read ran.
	mu    sync.Mutex
	epoch uint64

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachingStore creates a new CachingStore holding at most size documents.
func NewCachingStore(inner DataStore, size int) (*CachingStore, error) {
	if inner == nil {
		return nil, errors.New("inner store is required")
	}
	cache, err := lru.New[string, json.RawMessage](size)
	if err != nil {
		return nil, err
	}
	return &CachingStore{inner: inner, cache: cache}, nil
}

// Unwrap returns the wrapped store.
func (s *CachingStore) Unwrap() DataStore { return s.inner }

func (s *CachingStore) Write(ctx context.Context, key string, doc any, opts ...WriteOption) WriteResult {
	// Invalidate even on failure: a failed write may have partially replaced
	// the stored document.
	s.invalidate(key)
	defer s.invalidate(key)
	return s.inner.Write(ctx, key, doc, opts...)
}

func (s *CachingStore) Read(ctx context.Context, key string) (json.RawMessage, error) {
	if data, ok := s.cache.Get(key); ok {
		s.hits.Add(1)
		return clone(data), nil
	}
	s.misses.Add(1)

	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	data, err := s.inner.Read(ctx, key)
	if err != nil || data == nil {
		return data, err
	}

	s.mu.Lock()
	if s.epoch == epoch {
		s.cache.Add(key, clone(data))
	}
	s.mu.Unlock()
	return data, nil
}

func (s *CachingStore) Exists(ctx context.Context, key string) (bool, error) {
	if s.cache.Contains(key) {
		return true, nil
	}
	return s.inner.Exists(ctx, key)
}

func (s *CachingStore) Delete(ctx context.Context, key string) DeleteResult {
	s.invalidate(key)
	defer s.invalidate(key)
	return s.inner.Delete(ctx, key)
}

func (s *CachingStore) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	return s.inner.List(ctx, prefix, limit)
}

func (s *CachingStore) GetMetadata(ctx context.Context, key string) (*ObjectInfo, error) {
	return s.inner.GetMetadata(ctx, key)
}

// Purge drops all cached documents.
func (s *CachingStore) Purge() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.cache.Purge()
}

func (s *CachingStore) invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.cache.Remove(key)
}

// Stats returns the cache hit and miss counts.
func (s *CachingStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// Close closes the wrapped store if it holds resources.
func (s *CachingStore) Close() error {
	s.Purge()
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func clone(b json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}

var _ DataStore = (*CachingStore)(nil)

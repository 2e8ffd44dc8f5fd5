package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/hupe1980/terrastore/codec"
	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/internal/resource"
)

// Store implements datastore.DataStore on top of a Provider.
type Store struct {
	provider Provider
	folder   string
	codec    codec.Codec
	now      func() time.Time
	limiter  *resource.Controller
	breaker  *gobreaker.CircuitBreaker[any]
}

// New creates a remote Store. A nil provider is a connection error.
func New(p Provider, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, datastore.NewError("open", "", datastore.CodeConnection, errors.New("provider is required"))
	}
	o := options{
		codec:   codec.Default,
		now:     time.Now,
		breaker: DefaultBreakerSettings(p.Name()),
	}
	for _, fn := range opts {
		fn(&o)
	}

	s := &Store{
		provider: p,
		folder:   strings.Trim(o.folder, "/"),
		codec:    o.codec,
		now:      o.now,
		limiter:  o.limiter,
	}
	if o.breaker != nil {
		st := *o.breaker
		if st.IsSuccessful == nil {
			st.IsSuccessful = isSuccessful
		}
		s.breaker = gobreaker.NewCircuitBreaker[any](st)
	}
	return s, nil
}

// Provider returns the underlying provider.
func (s *Store) Provider() Provider { return s.provider }

// Folder returns the logical folder prefix stripped from physical keys.
func (s *Store) Folder() string { return s.folder }

// BreakerState reports the circuit breaker state ("closed" when disabled).
func (s *Store) BreakerState() string {
	if s.breaker == nil {
		return gobreaker.StateClosed.String()
	}
	return s.breaker.State().String()
}

// Write computes the size locally and attaches metadata only when non-empty.
func (s *Store) Write(ctx context.Context, key string, doc any, opts ...datastore.WriteOption) datastore.WriteResult {
	if err := datastore.ValidateKey(key); err != nil {
		return datastore.WriteFailed(key, datastore.NewError("write", key, datastore.CodeInvalidKey, err))
	}
	wo := datastore.ApplyWriteOptions(opts...)

	data, err := s.codec.Marshal(doc)
	if err != nil {
		return datastore.WriteFailed(key, datastore.NewError("write", key, datastore.CodeSerialize, err))
	}

	var meta map[string]string
	if len(wo.Metadata) > 0 {
		meta = wo.Metadata
	}

	if err := s.limiter.AcquireIO(ctx, len(data)); err != nil {
		return datastore.WriteFailed(key, s.classify("write", key, err))
	}
	_, err = call(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.provider.Put(ctx, s.physical(key), data, wo.ContentType, meta)
	})
	if err != nil {
		return datastore.WriteFailed(key, s.classify("write", key, err))
	}

	return datastore.WriteResult{
		Success:     true,
		Key:         key,
		Size:        int64(len(data)),
		ContentType: wo.ContentType,
		Timestamp:   s.now().UTC(),
	}
}

// Read probes for existence before fetching so a missing key yields nil
// rather than the provider's failure.
func (s *Store) Read(ctx context.Context, key string) (json.RawMessage, error) {
	if err := datastore.ValidateKey(key); err != nil {
		return nil, datastore.NewError("read", key, datastore.CodeInvalidKey, err)
	}

	if _, err := s.stat(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil
		}
		return nil, s.classify("read", key, err)
	}

	data, err := call(ctx, s, func(ctx context.Context) ([]byte, error) {
		return s.provider.Get(ctx, s.physical(key))
	})
	if err != nil {
		// Deleted between probe and fetch.
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil
		}
		return nil, s.classify("read", key, err)
	}
	if err := s.limiter.AcquireIO(ctx, len(data)); err != nil {
		return nil, s.classify("read", key, err)
	}
	if !json.Valid(data) {
		return nil, datastore.NewError("read", key, datastore.CodeParse, errors.New("stored object is not valid JSON"))
	}
	return data, nil
}

// Exists translates the provider's not-found failure into false.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	if err := datastore.ValidateKey(key); err != nil {
		return false, datastore.NewError("exists", key, datastore.CodeInvalidKey, err)
	}
	if _, err := s.stat(ctx, key); err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return false, nil
		}
		return false, s.classify("exists", key, err)
	}
	return true, nil
}

// Delete removes key. Removing a missing key succeeds.
func (s *Store) Delete(ctx context.Context, key string) datastore.DeleteResult {
	if err := datastore.ValidateKey(key); err != nil {
		return datastore.DeleteFailed(key, datastore.NewError("delete", key, datastore.CodeInvalidKey, err))
	}
	_, err := call(ctx, s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.provider.Delete(ctx, s.physical(key))
	})
	if err != nil && !errors.Is(err, ErrObjectNotFound) {
		return datastore.DeleteFailed(key, s.classify("delete", key, err))
	}
	return datastore.DeleteResult{Success: true, Key: key}
}

// List delegates to the provider's prefix listing and strips the folder.
func (s *Store) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	if err := datastore.ValidatePrefix(prefix); err != nil {
		return nil, datastore.NewError("list", prefix, datastore.CodeInvalidKey, err)
	}
	limit = datastore.NormalizeLimit(limit)

	objs, err := call(ctx, s, func(ctx context.Context) ([]datastore.ObjectInfo, error) {
		return s.provider.List(ctx, s.physical(prefix), limit)
	})
	if err != nil {
		return nil, s.classify("list", prefix, err)
	}

	out := make([]datastore.ObjectInfo, 0, len(objs))
	for _, o := range objs {
		key, ok := s.logical(o.Key)
		if !ok || !strings.HasPrefix(key, prefix) {
			continue
		}
		out = append(out, s.normalize(key, o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// GetMetadata translates the provider's not-found failure into nil.
func (s *Store) GetMetadata(ctx context.Context, key string) (*datastore.ObjectInfo, error) {
	if err := datastore.ValidateKey(key); err != nil {
		return nil, datastore.NewError("getMetadata", key, datastore.CodeInvalidKey, err)
	}
	info, err := s.stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, nil
		}
		return nil, s.classify("getMetadata", key, err)
	}
	out := s.normalize(key, info)
	return &out, nil
}

// Close closes the provider if it holds resources.
func (s *Store) Close() error {
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Store) stat(ctx context.Context, key string) (datastore.ObjectInfo, error) {
	return call(ctx, s, func(ctx context.Context) (datastore.ObjectInfo, error) {
		return s.provider.Stat(ctx, s.physical(key))
	})
}

func (s *Store) physical(key string) string {
	if s.folder == "" {
		return key
	}
	return s.folder + "/" + key
}

func (s *Store) logical(physical string) (string, bool) {
	if s.folder == "" {
		return physical, true
	}
	return strings.CutPrefix(physical, s.folder+"/")
}

func (s *Store) normalize(key string, o datastore.ObjectInfo) datastore.ObjectInfo {
	o.Key = key
	if o.ContentType == "" {
		o.ContentType = datastore.ContentTypeJSON
	}
	if o.Metadata == nil {
		o.Metadata = datastore.Metadata{}
	}
	return o
}

func (s *Store) classify(op, key string, err error) error {
	if errors.Is(err, ErrObjectNotFound) {
		return datastore.NewError(op, key, datastore.CodeNotFound, err)
	}
	return datastore.NewError(op, key, datastore.CodeNetwork, err)
}

// call runs fn under the request limiter and the circuit breaker.
func call[T any](ctx context.Context, s *Store, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		return zero, fmt.Errorf("request not admitted, %d in flight: %w", s.limiter.InFlight(), err)
	}
	defer release()

	if s.breaker == nil {
		return fn(ctx)
	}
	v, err := s.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// isSuccessful keeps expected outcomes from tripping the breaker.
func isSuccessful(err error) bool {
	return err == nil ||
		errors.Is(err, ErrObjectNotFound) ||
		errors.Is(err, context.Canceled)
}

var _ datastore.DataStore = (*Store)(nil)

package terrastore

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/hupe1980/terrastore/datastore"
)

// instrumentedStore logs and records metrics for every call on inner.
type instrumentedStore struct {
	inner   datastore.DataStore
	logger  *Logger
	metrics MetricsCollector
}

func instrument(inner datastore.DataStore, backend string, logger *Logger, metrics MetricsCollector) *instrumentedStore {
	return &instrumentedStore{
		inner:   inner,
		logger:  logger.WithBackend(backend),
		metrics: metrics,
	}
}

func (s *instrumentedStore) Write(ctx context.Context, key string, doc any, opts ...datastore.WriteOption) datastore.WriteResult {
	start := time.Now()
	res := s.inner.Write(ctx, key, doc, opts...)
	s.metrics.RecordWrite(res.Size, time.Since(start), res.Success)
	s.logger.LogWrite(ctx, key, res.Size, res.Error)
	return res
}

func (s *instrumentedStore) Read(ctx context.Context, key string) (json.RawMessage, error) {
	start := time.Now()
	raw, err := s.inner.Read(ctx, key)
	s.metrics.RecordRead(raw != nil, time.Since(start), err)
	s.logger.LogRead(ctx, key, raw != nil, err)
	return raw, err
}

func (s *instrumentedStore) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Exists(ctx, key)
	s.metrics.RecordStat(time.Since(start), err)
	return ok, err
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) datastore.DeleteResult {
	start := time.Now()
	res := s.inner.Delete(ctx, key)
	s.metrics.RecordDelete(time.Since(start), res.Success)
	s.logger.LogDelete(ctx, key, res.Error)
	return res
}

func (s *instrumentedStore) List(ctx context.Context, prefix string, limit int) ([]datastore.ObjectInfo, error) {
	start := time.Now()
	list, err := s.inner.List(ctx, prefix, limit)
	s.metrics.RecordList(len(list), time.Since(start), err)
	s.logger.LogList(ctx, prefix, len(list), err)
	return list, err
}

func (s *instrumentedStore) GetMetadata(ctx context.Context, key string) (*datastore.ObjectInfo, error) {
	start := time.Now()
	info, err := s.inner.GetMetadata(ctx, key)
	s.metrics.RecordStat(time.Since(start), err)
	return info, err
}

// Unwrap returns the wrapped store.
func (s *instrumentedStore) Unwrap() datastore.DataStore { return s.inner }

// Close closes the wrapped store if it holds resources.
func (s *instrumentedStore) Close() error {
	if c, ok := s.inner.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

var _ datastore.DataStore = (*instrumentedStore)(nil)

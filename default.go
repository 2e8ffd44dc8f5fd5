package terrastore

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/hupe1980/terrastore/datastore"
)

var (
	defaultMu   sync.Mutex
	defaultDocs *Documents
)

// Default returns the process-wide Documents handle, building its store
// from the environment (ConfigFromEnv) on first use.
func Default(ctx context.Context) (*Documents, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDocs != nil {
		return defaultDocs, nil
	}

	cfg, err := ConfigFromEnv()
	if err != nil {
		return nil, err
	}
	store, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defaultDocs = NewDocuments(store)
	return defaultDocs, nil
}

// SetDefault installs store as the process-wide store, replacing (without
// closing) any previous one.
func SetDefault(store datastore.DataStore, optFns ...Option) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultDocs = NewDocuments(store, optFns...)
}

// ResetDefault closes and clears the process-wide store so the next Default
// call builds a fresh one. It exists for test isolation; ordering against
// in-flight operations on the old store is undefined.
func ResetDefault() error {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultDocs == nil {
		return nil
	}
	var err error
	if c, ok := defaultDocs.Store().(io.Closer); ok {
		err = c.Close()
	}
	defaultDocs = nil
	return err
}

// StoreLocationData calls Documents.StoreLocationData on the default handle.
// Configuration failures are reported in the result.
func StoreLocationData(ctx context.Context, location, dataType string, doc any, extra datastore.Metadata) datastore.WriteResult {
	d, err := Default(ctx)
	if err != nil {
		return datastore.WriteFailed(LocationKey(location, dataType), err)
	}
	return d.StoreLocationData(ctx, location, dataType, doc, extra)
}

// LoadLocationData calls Documents.LoadLocationData on the default handle.
func LoadLocationData(ctx context.Context, location, dataType string) (json.RawMessage, error) {
	d, err := Default(ctx)
	if err != nil {
		return nil, dataError("load", location, dataType, err)
	}
	return d.LoadLocationData(ctx, location, dataType)
}

// StoreScenario calls Documents.StoreScenario on the default handle.
func StoreScenario(ctx context.Context, location, id string, doc any, extra datastore.Metadata) (string, datastore.WriteResult) {
	d, err := Default(ctx)
	if err != nil {
		return id, datastore.WriteFailed(ScenarioKey(location, id), err)
	}
	return d.StoreScenario(ctx, location, id, doc, extra)
}

// ListScenarios calls Documents.ListScenarios on the default handle.
func ListScenarios(ctx context.Context, location string) ([]string, error) {
	d, err := Default(ctx)
	if err != nil {
		return nil, dataError("list", location, scenariosDir, err)
	}
	return d.ListScenarios(ctx, location)
}

// CreateBackup calls Documents.CreateBackup on the default handle.
func CreateBackup(ctx context.Context, location, dataType string) (BackupResult, error) {
	d, err := Default(ctx)
	if err != nil {
		return BackupResult{}, dataError("back up", location, dataType, err)
	}
	return d.CreateBackup(ctx, location, dataType)
}

package terrastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/terrastore/codec"
	"github.com/hupe1980/terrastore/datastore"
)

// Metadata keys written by the convention helpers.
const (
	MetaLocation        = "location"
	MetaDataType        = "dataType"
	MetaUploadedAt      = "uploadedAt"
	MetaScenarioID      = "scenarioId"
	MetaOriginalKey     = "originalKey"
	MetaBackupTimestamp = "backupTimestamp"
	MetaRestoredFrom    = "restoredFrom"
)

// DataTypeScenario is the dataType recorded on scenario documents.
const DataTypeScenario = "scenario"

// ReasonNothingToBackUp is reported when no live document exists.
const ReasonNothingToBackUp = "nothing to back up"

// Documents derives keys by convention and composes store calls on top of
// a DataStore. It is safe for concurrent use if the store is.
type Documents struct {
	store   datastore.DataStore
	logger  *Logger
	metrics MetricsCollector
	now     func() time.Time
	newID   func() string
}

// NewDocuments creates a Documents handle over store.
func NewDocuments(store datastore.DataStore, optFns ...Option) *Documents {
	o := applyOptions(optFns)
	return &Documents{
		store:   store,
		logger:  o.logger,
		metrics: o.metricsCollector,
		now:     o.now,
		newID:   o.newID,
	}
}

// Store returns the underlying store.
func (d *Documents) Store() datastore.DataStore { return d.store }

// StoreLocationData writes doc under {location}/{dataType}-data.json.
// The metadata is extra plus location, dataType and uploadedAt; the derived
// fields win over caller-supplied ones of the same name.
func (d *Documents) StoreLocationData(ctx context.Context, location, dataType string, doc any, extra datastore.Metadata) datastore.WriteResult {
	if !validLocation(location) || !validSegment(dataType) {
		key := location + "/" + dataType
		return saveFailed(location, dataType,
			datastore.WriteFailed(key, datastore.NewError("write", key, datastore.CodeInvalidKey, ErrInvalidLocation)))
	}

	meta := extra.Clone()
	meta[MetaLocation] = location
	meta[MetaDataType] = dataType
	meta[MetaUploadedAt] = d.now().UTC().Format(isoMillis)

	res := d.store.Write(ctx, LocationKey(location, dataType), doc, datastore.WithMetadata(meta))
	return saveFailed(location, dataType, res)
}

// LoadLocationData reads the document under {location}/{dataType}-data.json.
// It returns nil, nil when none exists; failures are *DataError.
func (d *Documents) LoadLocationData(ctx context.Context, location, dataType string) (json.RawMessage, error) {
	if !validLocation(location) || !validSegment(dataType) {
		return nil, dataError("load", location, dataType, invalidKey("read", location+"/"+dataType))
	}
	raw, err := d.store.Read(ctx, LocationKey(location, dataType))
	if err != nil {
		return nil, dataError("load", location, dataType, err)
	}
	return raw, nil
}

// StoreScenario writes doc under {location}/scenarios/{id}.json. An empty
// id is replaced by a generated one; the id used is returned.
func (d *Documents) StoreScenario(ctx context.Context, location, id string, doc any, extra datastore.Metadata) (string, datastore.WriteResult) {
	if id == "" {
		id = d.newID()
	}
	kind := scenariosDir + "/" + id
	if !validLocation(location) || !validSegment(id) {
		key := ScenarioPrefix(location) + id
		return id, saveFailed(location, kind,
			datastore.WriteFailed(key, datastore.NewError("write", key, datastore.CodeInvalidKey, ErrInvalidLocation)))
	}

	meta := extra.Clone()
	meta[MetaLocation] = location
	meta[MetaDataType] = DataTypeScenario
	meta[MetaScenarioID] = id
	meta[MetaUploadedAt] = d.now().UTC().Format(isoMillis)

	res := d.store.Write(ctx, ScenarioKey(location, id), doc, datastore.WithMetadata(meta))
	return id, saveFailed(location, kind, res)
}

// LoadScenario reads a scenario document. It returns nil, nil when none exists.
func (d *Documents) LoadScenario(ctx context.Context, location, id string) (json.RawMessage, error) {
	kind := scenariosDir + "/" + id
	if !validLocation(location) || !validSegment(id) {
		return nil, dataError("load", location, kind, invalidKey("read", ScenarioPrefix(location)+id))
	}
	raw, err := d.store.Read(ctx, ScenarioKey(location, id))
	if err != nil {
		return nil, dataError("load", location, kind, err)
	}
	return raw, nil
}

// DeleteScenario removes a scenario document.
func (d *Documents) DeleteScenario(ctx context.Context, location, id string) datastore.DeleteResult {
	if !validLocation(location) || !validSegment(id) {
		key := ScenarioPrefix(location) + id
		return datastore.DeleteFailed(key, invalidKey("delete", key))
	}
	return d.store.Delete(ctx, ScenarioKey(location, id))
}

// ListScenarios returns the ids of all of a location's scenarios in key
// order. Keys nested below the scenarios folder are not scenarios and are
// skipped.
func (d *Documents) ListScenarios(ctx context.Context, location string) ([]string, error) {
	if !validLocation(location) {
		return nil, dataError("list", location, scenariosDir, invalidKey("list", location))
	}
	prefix := ScenarioPrefix(location)
	objs, err := d.listAll(ctx, prefix)
	if err != nil {
		return nil, dataError("list", location, scenariosDir, err)
	}

	ids := make([]string, 0, len(objs))
	for _, o := range objs {
		name := strings.TrimPrefix(o.Key, prefix)
		if strings.Contains(name, "/") {
			continue
		}
		id, ok := strings.CutSuffix(name, jsonSuffix)
		if !ok || id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// BackupResult reports the outcome of CreateBackup.
type BackupResult struct {
	// Created is false when nothing was written.
	Created bool

	// Key is the backup key; empty when nothing was written.
	Key string

	// OriginalKey is the live key that was backed up.
	OriginalKey string

	Timestamp time.Time

	// Write is the result of the backup write, when one was attempted.
	Write datastore.WriteResult

	// Reason explains why no backup was created.
	Reason string
}

// CreateBackup copies the live document of location/dataType to a
// timestamped backup key. Without a live document it writes nothing and
// reports ReasonNothingToBackUp. Read and write are not atomic: a
// concurrent write to the live key may or may not be captured.
func (d *Documents) CreateBackup(ctx context.Context, location, dataType string) (res BackupResult, err error) {
	defer func() {
		recErr := err
		if recErr == nil && res.Write.Error != "" {
			recErr = errors.New(res.Write.Error)
		}
		d.metrics.RecordBackup(res.Created, recErr)
		d.logger.WithLocation(location).LogBackup(ctx, res, recErr)
	}()

	if !validLocation(location) || !validSegment(dataType) {
		return BackupResult{}, dataError("back up", location, dataType, invalidKey("read", location+"/"+dataType))
	}

	res.OriginalKey = LocationKey(location, dataType)
	raw, err := d.store.Read(ctx, res.OriginalKey)
	if err != nil {
		return res, dataError("back up", location, dataType, err)
	}
	if raw == nil {
		res.Reason = ReasonNothingToBackUp
		return res, nil
	}

	res.Timestamp = d.now().UTC().Truncate(time.Millisecond)
	key := BackupKey(location, dataType, res.Timestamp)
	res.Write = d.store.Write(ctx, key, raw, datastore.WithMetadata(datastore.Metadata{
		MetaOriginalKey:     res.OriginalKey,
		MetaBackupTimestamp: res.Timestamp.Format(isoMillis),
		MetaLocation:        location,
		MetaDataType:        dataType,
	}))
	if !res.Write.Success {
		res.Reason = "backup write failed: " + res.Write.Error
		return res, nil
	}

	res.Created = true
	res.Key = key
	return res, nil
}

// BackupInfo describes a stored backup.
type BackupInfo struct {
	BackupRef
	Key  string
	Size int64
}

// ListBackups returns the backups of location/dataType, newest first.
func (d *Documents) ListBackups(ctx context.Context, location, dataType string) ([]BackupInfo, error) {
	if !validLocation(location) || !validSegment(dataType) {
		return nil, dataError("list backups", location, dataType, invalidKey("list", location+"/"+dataType))
	}
	objs, err := d.listAll(ctx, BackupPrefix+location+"/"+dataType+"-")
	if err != nil {
		return nil, dataError("list backups", location, dataType, err)
	}

	out := make([]BackupInfo, 0, len(objs))
	for _, o := range objs {
		ref, err := ParseBackupKey(o.Key)
		// "territory-" also prefixes "territory-extra-..." backups.
		if err != nil || ref.Location != location || ref.DataType != dataType {
			continue
		}
		out = append(out, BackupInfo{BackupRef: ref, Key: o.Key, Size: o.Size})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// RestoreBackup writes a backup back to its live key. The live key is taken
// from the backup's originalKey metadata, falling back to the key layout.
func (d *Documents) RestoreBackup(ctx context.Context, backupKey string) (res datastore.WriteResult, err error) {
	var (
		ref      BackupRef
		target   string
		writeErr error
	)
	defer func() {
		if err != nil {
			writeErr = err
		}
		d.logger.WithLocation(ref.Location).LogRestore(ctx, backupKey, target, writeErr)
	}()

	ref, err = ParseBackupKey(backupKey)
	if err != nil {
		return datastore.WriteResult{}, dataError("restore", backupKey, "", datastore.NewError("restore", backupKey, datastore.CodeInvalidKey, err))
	}

	raw, err := d.store.Read(ctx, backupKey)
	if err != nil {
		return datastore.WriteResult{}, dataError("restore", ref.Location, ref.DataType, err)
	}
	if raw == nil {
		return datastore.WriteResult{}, dataError("restore", ref.Location, ref.DataType,
			datastore.NewError("read", backupKey, datastore.CodeNotFound, errors.New("backup does not exist")))
	}

	target = LocationKey(ref.Location, ref.DataType)
	if info, err := d.store.GetMetadata(ctx, backupKey); err == nil && info != nil {
		if orig := metaValue(info.Metadata, MetaOriginalKey); orig != "" {
			target = orig
		}
	}

	res = d.store.Write(ctx, target, raw, datastore.WithMetadata(datastore.Metadata{
		MetaLocation:     ref.Location,
		MetaDataType:     ref.DataType,
		MetaUploadedAt:   d.now().UTC().Format(isoMillis),
		MetaRestoredFrom: backupKey,
	}))
	if !res.Success {
		writeErr = fmt.Errorf("restore %s: %s", backupKey, res.Error)
	}
	return res, nil
}

// Decode unmarshals a stored document into T with codec.Default.
// A nil document is a NOT_FOUND error and malformed input a PARSE_ERROR.
func Decode[T any](raw json.RawMessage) (T, error) {
	var v T
	if raw == nil {
		return v, datastore.NewError("decode", "", datastore.CodeNotFound, nil)
	}
	if err := codec.Default.Unmarshal(raw, &v); err != nil {
		return v, datastore.NewError("decode", "", datastore.CodeParse, err)
	}
	return v, nil
}

// listAll lists every key under prefix, raising the limit until the store
// returns fewer entries than asked for.
func (d *Documents) listAll(ctx context.Context, prefix string) ([]datastore.ObjectInfo, error) {
	for limit := datastore.DefaultListLimit; ; limit *= 4 {
		objs, err := d.store.List(ctx, prefix, limit)
		if err != nil || len(objs) < limit {
			return objs, err
		}
	}
}

// saveFailed rewrites the error of a failed write into the user-facing
// form, keeping the storage detail after it.
func saveFailed(location, kind string, res datastore.WriteResult) datastore.WriteResult {
	if res.Success {
		return res
	}
	de := &DataError{Op: "save", Location: location, Kind: kind, Code: datastore.ParseCode(res.Error)}
	res.Error = de.Error() + ": " + res.Error
	return res
}

func invalidKey(op, key string) error {
	return datastore.NewError(op, key, datastore.CodeInvalidKey, ErrInvalidLocation)
}

// metaValue looks up a metadata key ignoring case; blob services may return
// header-derived keys canonicalized.
func metaValue(m datastore.Metadata, key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func newScenarioID() string {
	return uuid.NewString()
}

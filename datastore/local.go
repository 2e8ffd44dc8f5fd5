package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	securejoin "github.com/cyphar/filepath-securejoin"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/terrastore/codec"
	"github.com/hupe1980/terrastore/internal/fs"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	indent   = "  "

	// sidecarWorkers bounds the concurrent sidecar reads of List.
	sidecarWorkers = 8
)

// LocalStore implements DataStore using the local file system.
//
// Each document is stored as two files: the serialized document at
// <root>/<key> and a sidecar metadata file at <root>/<key>.meta. The two
// writes are independent; a crash between them leaves the sidecar stale.
// Sidecar metadata is advisory and never fails a read or a listing.
type LocalStore struct {
	root  string
	fs    fs.FileSystem
	codec codec.Codec
	now   func() time.Time
}

// NewLocalStore creates a new LocalStore rooted at the given directory.
// The directory is created if missing.
func NewLocalStore(root string, opts ...Option) (*LocalStore, error) {
	if root == "" {
		return nil, NewError("open", "", CodeConnection, errors.New("base directory is required"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, NewError("open", "", CodeConnection, err)
	}
	o := applyOptions(opts)
	if err := o.fs.MkdirAll(abs, dirPerm); err != nil {
		return nil, NewError("open", "", CodeConnection, fmt.Errorf("create base directory: %w", err))
	}
	return &LocalStore{
		root:  abs,
		fs:    o.fs,
		codec: o.codec,
		now:   o.now,
	}, nil
}

// Root returns the absolute base directory.
func (s *LocalStore) Root() string { return s.root }

// resolve maps a key to a path that cannot escape the root.
func (s *LocalStore) resolve(key string) (string, error) {
	return securejoin.SecureJoin(s.root, filepath.FromSlash(key))
}

// Write writes the data file, then the sidecar.
func (s *LocalStore) Write(_ context.Context, key string, doc any, opts ...WriteOption) WriteResult {
	if err := ValidateKey(key); err != nil {
		return WriteFailed(key, NewError("write", key, CodeInvalidKey, err))
	}
	wo := ApplyWriteOptions(opts...)

	data, err := codec.MarshalIndent(s.codec, doc, indent)
	if err != nil {
		return WriteFailed(key, NewError("write", key, CodeSerialize, err))
	}

	p, err := s.resolve(key)
	if err != nil {
		return WriteFailed(key, NewError("write", key, CodeInvalidKey, err))
	}
	if err := s.fs.MkdirAll(filepath.Dir(p), dirPerm); err != nil {
		return WriteFailed(key, NewError("write", key, CodeIO, err))
	}
	if err := s.fs.WriteFile(p, data, filePerm); err != nil {
		return WriteFailed(key, NewError("write", key, CodeIO, err))
	}

	now := s.now().UTC()
	sidecar := ObjectInfo{
		Key:          key,
		Size:         int64(len(data)),
		ContentType:  wo.ContentType,
		LastModified: now,
		Metadata:     wo.Metadata,
	}
	meta, err := codec.MarshalIndent(s.codec, sidecar, indent)
	if err != nil {
		return WriteFailed(key, NewError("write", key, CodeSerialize, fmt.Errorf("metadata: %w", err)))
	}
	if err := s.fs.WriteFile(p+MetaSuffix, meta, filePerm); err != nil {
		return WriteFailed(key, NewError("write", key, CodeIO, fmt.Errorf("document written, metadata not: %w", err)))
	}

	return WriteResult{
		Success:     true,
		Key:         key,
		Size:        sidecar.Size,
		ContentType: sidecar.ContentType,
		Timestamp:   now,
	}
}

// Read returns nil for a missing file, PARSE_ERROR for a file that is not
// valid JSON and IO_ERROR for any other failure.
func (s *LocalStore) Read(_ context.Context, key string) (json.RawMessage, error) {
	p, info, err := s.stat("read", key)
	if err != nil || info == nil {
		return nil, err
	}

	data, err := s.fs.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, NewError("read", key, CodeIO, err)
	}
	if !json.Valid(data) {
		return nil, NewError("read", key, CodeParse, errors.New("stored file is not valid JSON"))
	}
	return data, nil
}

// Exists reports whether a regular data file exists for key.
func (s *LocalStore) Exists(_ context.Context, key string) (bool, error) {
	_, info, err := s.stat("exists", key)
	if err != nil {
		return false, err
	}
	return info != nil, nil
}

// Delete removes the data file and, best-effort, the sidecar.
// Deleting an absent key fails.
func (s *LocalStore) Delete(_ context.Context, key string) DeleteResult {
	p, info, err := s.stat("delete", key)
	if err != nil {
		return DeleteFailed(key, err)
	}
	if info == nil {
		return DeleteFailed(key, NewError("delete", key, CodeNotFound, os.ErrNotExist))
	}
	if err := s.fs.Remove(p); err != nil {
		return DeleteFailed(key, NewError("delete", key, CodeIO, err))
	}
	// A leftover sidecar is harmless: List only reports data files.
	_ = s.fs.Remove(p + MetaSuffix)
	return DeleteResult{Success: true, Key: key}
}

// List walks the directory implied by prefix and skips sidecar files.
func (s *LocalStore) List(ctx context.Context, prefix string, limit int) ([]ObjectInfo, error) {
	if err := ValidatePrefix(prefix); err != nil {
		return nil, NewError("list", prefix, CodeInvalidKey, err)
	}
	limit = NormalizeLimit(limit)

	// Only the directory part of the prefix narrows the walk; the rest is
	// matched against the file names.
	dir := ""
	if i := strings.LastIndex(prefix, "/"); i >= 0 {
		dir = prefix[:i]
	}
	start, err := s.resolve(dir)
	if err != nil {
		return nil, NewError("list", prefix, CodeInvalidKey, err)
	}

	var keys []string
	if err := s.walk(start, dir, prefix, &keys); err != nil {
		return nil, NewError("list", prefix, CodeIO, err)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	infos := make([]*ObjectInfo, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sidecarWorkers)
	for i, key := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := s.resolve(key)
			if err != nil {
				return nil
			}
			fi, err := s.fs.Stat(p)
			if err != nil {
				// Removed while listing.
				return nil
			}
			info := s.describe(key, p, fi)
			infos[i] = &info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, NewError("list", prefix, CodeIO, err)
	}

	out := make([]ObjectInfo, 0, len(infos))
	for _, info := range infos {
		if info != nil {
			out = append(out, *info)
		}
	}
	return out, nil
}

// GetMetadata returns physical attributes plus sidecar metadata.
func (s *LocalStore) GetMetadata(_ context.Context, key string) (*ObjectInfo, error) {
	p, fi, err := s.stat("getMetadata", key)
	if err != nil || fi == nil {
		return nil, err
	}
	info := s.describe(key, p, fi)
	return &info, nil
}

// stat resolves key and stats its data file. A missing file or a directory
// yields a nil FileInfo and no error.
func (s *LocalStore) stat(op, key string) (string, os.FileInfo, error) {
	if err := ValidateKey(key); err != nil {
		return "", nil, NewError(op, key, CodeInvalidKey, err)
	}
	p, err := s.resolve(key)
	if err != nil {
		return "", nil, NewError(op, key, CodeInvalidKey, err)
	}
	fi, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil, nil
		}
		return p, nil, NewError(op, key, CodeIO, err)
	}
	if fi.IsDir() {
		return p, nil, nil
	}
	return p, fi, nil
}

func (s *LocalStore) walk(dirPath, rel, prefix string, keys *[]string) error {
	entries, err := s.fs.ReadDir(dirPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		key := e.Name()
		if rel != "" {
			key = path.Join(rel, e.Name())
		}
		if e.IsDir() {
			// Prune subtrees that cannot contain a match.
			if strings.HasPrefix(key+"/", prefix) || strings.HasPrefix(prefix, key+"/") {
				if err := s.walk(filepath.Join(dirPath, e.Name()), key, prefix, keys); err != nil {
					return err
				}
			}
			continue
		}
		if strings.HasSuffix(key, MetaSuffix) || !strings.HasPrefix(key, prefix) {
			continue
		}
		*keys = append(*keys, key)
	}
	return nil
}

// describe merges the data file's attributes with its sidecar. A missing or
// corrupt sidecar degrades to empty metadata.
func (s *LocalStore) describe(key, p string, fi os.FileInfo) ObjectInfo {
	info := ObjectInfo{
		Key:          key,
		Size:         fi.Size(),
		ContentType:  ContentTypeJSON,
		LastModified: fi.ModTime().UTC(),
		Metadata:     Metadata{},
	}

	raw, err := s.fs.ReadFile(p + MetaSuffix)
	if err != nil {
		return info
	}
	var sidecar ObjectInfo
	if err := s.codec.Unmarshal(raw, &sidecar); err != nil {
		return info
	}
	if sidecar.ContentType != "" {
		info.ContentType = sidecar.ContentType
	}
	if !sidecar.LastModified.IsZero() {
		info.LastModified = sidecar.LastModified
	}
	if sidecar.Metadata != nil {
		info.Metadata = sidecar.Metadata
	}
	return info
}

var _ DataStore = (*LocalStore)(nil)

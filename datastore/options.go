package datastore

import (
	"time"

	"github.com/hupe1980/terrastore/codec"
	"github.com/hupe1980/terrastore/internal/fs"
)

type options struct {
	codec        codec.Codec
	now          func() time.Time
	fs           fs.FileSystem
	maxSizeBytes int64
}

func defaultOptions() options {
	return options{
		codec: codec.Default,
		now:   time.Now,
		fs:    fs.Default,
	}
}

// Option configures a built-in store.
type Option func(*options)

// WithCodec sets the codec used to serialize documents.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithClock overrides the time source used for write timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithFileSystem overrides the filesystem used by LocalStore.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithMaxSizeBytes caps the total serialized size held by a MemoryStore.
// Zero or negative disables the cap.
func WithMaxSizeBytes(n int64) Option {
	return func(o *options) {
		o.maxSizeBytes = n
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

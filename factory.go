package terrastore

import (
	"context"
	"fmt"

	"github.com/hupe1980/terrastore/datastore"
	"github.com/hupe1980/terrastore/datastore/remote"
	"github.com/hupe1980/terrastore/datastore/remote/azure"
	"github.com/hupe1980/terrastore/datastore/remote/gcs"
	"github.com/hupe1980/terrastore/datastore/remote/minio"
	"github.com/hupe1980/terrastore/datastore/remote/s3"
	"github.com/hupe1980/terrastore/internal/resource"
)

// New validates cfg and constructs the selected backend. Missing or invalid
// parameters fail here with a CONNECTION_ERROR rather than on first use.
//
// The returned store logs and records metrics per the options and, with
// WithCache, serves repeated reads from an LRU cache. It implements
// io.Closer.
func New(ctx context.Context, cfg Config, optFns ...Option) (datastore.DataStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(optFns)

	store, err := open(ctx, cfg, o)
	if err != nil {
		return nil, err
	}

	if o.cacheSize > 0 {
		cs, err := datastore.NewCachingStore(store, o.cacheSize)
		if err != nil {
			return nil, configErr(err)
		}
		store = cs
	}

	o.logger.InfoContext(ctx, "store opened", "backend", string(cfg.Kind), "cache", o.cacheSize)
	return instrument(store, string(cfg.Kind), o.logger, o.metricsCollector), nil
}

func open(ctx context.Context, cfg Config, o options) (datastore.DataStore, error) {
	switch cfg.Kind {
	case KindLocal:
		return datastore.NewLocalStore(cfg.Local.Dir,
			datastore.WithCodec(o.codec),
			datastore.WithClock(o.now),
		)
	case KindMemory:
		return datastore.NewMemoryStore(
			datastore.WithCodec(o.codec),
			datastore.WithClock(o.now),
			datastore.WithMaxSizeBytes(cfg.Memory.MaxSizeBytes),
		), nil
	case KindRemote:
		p, err := newProvider(ctx, cfg.Remote)
		if err != nil {
			return nil, err
		}
		ropts := []remote.Option{
			remote.WithFolder(cfg.Remote.Folder),
			remote.WithCodec(o.codec),
			remote.WithClock(o.now),
		}
		if cfg.Remote.RequestsPerSecond > 0 || cfg.Remote.MaxConcurrent > 0 {
			ropts = append(ropts, remote.WithLimits(resource.Config{
				RequestsPerSecond: cfg.Remote.RequestsPerSecond,
				MaxConcurrent:     cfg.Remote.MaxConcurrent,
			}))
		}
		return remote.New(p, ropts...)
	default:
		return nil, configErr(fmt.Errorf("unsupported backend kind %q", cfg.Kind))
	}
}

func newProvider(ctx context.Context, s *RemoteSettings) (remote.Provider, error) {
	switch s.Provider {
	case ProviderS3:
		return s3.New(ctx, s3.Config{
			Bucket:    s.Bucket,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
		})
	case ProviderMinIO:
		return minio.New(minio.Config{
			Endpoint:  s.Endpoint,
			Bucket:    s.Bucket,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
			Region:    s.Region,
			UseSSL:    s.UseSSL,
		})
	case ProviderGCS:
		return gcs.New(ctx, gcs.Config{
			Bucket:          s.Bucket,
			CredentialsFile: s.CredentialsFile,
		})
	case ProviderAzure:
		return azure.New(azure.Config{
			Container:   s.Bucket,
			AccountName: s.AccountName,
			AccountKey:  s.AccountKey,
			ServiceURL:  s.Endpoint,
		})
	case ProviderMemory:
		return remote.NewMemoryProvider(), nil
	default:
		return nil, configErr(fmt.Errorf("unsupported remote provider %q", s.Provider))
	}
}

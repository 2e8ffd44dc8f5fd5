package terrastore

import (
	"errors"
	"fmt"

	"github.com/hupe1980/terrastore/datastore"
)

// Kind selects a storage backend.
type Kind string

const (
	// KindLocal stores documents as files under a base directory.
	KindLocal Kind = "local"
	// KindMemory stores documents in a process-local table.
	KindMemory Kind = "memory"
	// KindRemote stores documents on a cloud blob service.
	KindRemote Kind = "remote"
)

// ProviderKind selects the blob service behind a remote backend.
type ProviderKind string

const (
	ProviderS3     ProviderKind = "s3"
	ProviderMinIO  ProviderKind = "minio"
	ProviderGCS    ProviderKind = "gcs"
	ProviderAzure  ProviderKind = "azure"
	ProviderMemory ProviderKind = "memory"
)

// DefaultLocalDir is the base directory used when none is configured.
const DefaultLocalDir = "./data"

// LocalSettings configures the local filesystem backend.
type LocalSettings struct {
	Dir string
}

// MemorySettings configures the memory backend.
type MemorySettings struct {
	// MaxSizeBytes caps the total serialized size. Zero means unlimited.
	MaxSizeBytes int64
}

// RemoteSettings configures the remote blob backend.
type RemoteSettings struct {
	Provider ProviderKind

	// Bucket is the bucket (S3, MinIO, GCS) or container (Azure).
	Bucket string

	// Folder is a logical prefix under which all keys are stored.
	Folder string

	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// CredentialsFile is a GCS service account key file.
	CredentialsFile string

	AccountName string
	AccountKey  string

	// RequestsPerSecond throttles provider requests. Zero means unlimited.
	RequestsPerSecond float64

	// MaxConcurrent caps in-flight provider requests. Zero means unlimited.
	MaxConcurrent int64
}

// Config selects exactly one backend and carries its parameters.
// Build it with Local, Memory or Remote.
type Config struct {
	Kind   Kind
	Local  *LocalSettings
	Memory *MemorySettings
	Remote *RemoteSettings
}

// Local returns a configuration for the local filesystem backend.
func Local(dir string) Config {
	return Config{Kind: KindLocal, Local: &LocalSettings{Dir: dir}}
}

// Memory returns a configuration for the memory backend.
func Memory(maxSizeBytes int64) Config {
	return Config{Kind: KindMemory, Memory: &MemorySettings{MaxSizeBytes: maxSizeBytes}}
}

// Remote returns a configuration for the remote blob backend.
func Remote(s RemoteSettings) Config {
	return Config{Kind: KindRemote, Remote: &s}
}

// Validate checks that exactly the variant named by Kind is populated and
// carries its required parameters. Failures are connection errors.
func (c Config) Validate() error {
	switch c.Kind {
	case KindLocal, KindMemory, KindRemote:
	default:
		return configErr(fmt.Errorf("unsupported backend kind %q", c.Kind))
	}

	populated := 0
	for _, set := range []bool{c.Local != nil, c.Memory != nil, c.Remote != nil} {
		if set {
			populated++
		}
	}
	if populated != 1 {
		return configErr(fmt.Errorf("exactly one backend must be configured, got %d", populated))
	}

	switch c.Kind {
	case KindLocal:
		if c.Local == nil {
			return configErr(errors.New("local backend selected without local settings"))
		}
		if c.Local.Dir == "" {
			return configErr(errors.New("local backend requires a base directory"))
		}
	case KindMemory:
		if c.Memory == nil {
			return configErr(errors.New("memory backend selected without memory settings"))
		}
		if c.Memory.MaxSizeBytes < 0 {
			return configErr(fmt.Errorf("memory capacity must not be negative, got %d", c.Memory.MaxSizeBytes))
		}
	case KindRemote:
		if c.Remote == nil {
			return configErr(errors.New("remote backend selected without remote settings"))
		}
		return c.Remote.validate()
	}
	return nil
}

func (s *RemoteSettings) validate() error {
	switch s.Provider {
	case ProviderMemory:
		return nil
	case ProviderS3, ProviderMinIO, ProviderGCS, ProviderAzure:
		if s.Bucket == "" {
			return configErr(fmt.Errorf("%s provider requires a bucket", s.Provider))
		}
		return nil
	case "":
		return configErr(errors.New("remote backend requires a provider"))
	default:
		return configErr(fmt.Errorf("unsupported remote provider %q", s.Provider))
	}
}

func configErr(err error) error {
	return datastore.NewError("open", "", datastore.CodeConnection, err)
}

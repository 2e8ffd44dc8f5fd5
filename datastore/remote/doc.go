// Package remote provides the DataStore backed by a cloud blob service.
//
// The Store speaks to the service through a Provider. Built-in providers live
// in subpackages:
//
//   - remote/minio: MinIO and other S3-compatible services
//   - remote/s3: Amazon S3
//   - remote/gcs: Google Cloud Storage
//   - remote/azure: Azure Blob Storage
//
// # Usage
//
//	p, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    Bucket:    "territories",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := remote.New(p, remote.WithFolder("prod"))
//
// # Consistency
//
// Providers signal a missing object by failing Stat with ErrObjectNotFound.
// Exists and GetMetadata translate that into false/nil, and Read probes with
// Stat before fetching. Writes are unconditional (last write wins) and a List
// issued right after a Write may not reflect it yet.
package remote

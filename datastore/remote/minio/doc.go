// Package minio provides a remote.Provider backed by the MinIO client.
//
// It works against MinIO itself and any S3-compatible service (Ceph,
// SeaweedFS, Garage), which makes it the usual choice for on-premise
// deployments of the planning dashboard.
//
// # Basic Usage
//
//	p, err := minio.New(minio.Config{
//	    Endpoint:  "localhost:9000",
//	    Bucket:    "territory-plans",
//	    AccessKey: "minioadmin",
//	    SecretKey: "minioadmin",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store, err := remote.New(p, remote.WithFolder("prod"))
//
// User metadata is sent as x-amz-meta-* headers. MinIO returns the keys
// canonicalized, so "uploadedBy" may come back as "Uploadedby".
package minio

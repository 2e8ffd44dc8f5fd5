// Package s3 provides a remote.Provider for Amazon S3.
//
// Credentials come from the config when both keys are set, otherwise from
// the default AWS chain (environment, shared config, IMDS). An endpoint
// override enables path-style addressing for S3-compatible services.
//
//	p, err := s3.New(ctx, s3.Config{Bucket: "territory-plans", Region: "us-west-2"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store, err := remote.New(p, remote.WithFolder("prod"))
package s3

// Package terrastore provides the document store behind the territory
// planning dashboard.
//
// Documents (territory data, customer records, scenario definitions, upload
// metadata) are stored as JSON under string keys in one of three backends:
// a process-local memory table, a local directory, or a remote blob
// service (S3, MinIO, GCS, Azure). All backends implement
// datastore.DataStore and behave identically through it.
//
// # Quick Start
//
// Explicit configuration:
//
//	ctx := context.Background()
//	store, _ := terrastore.New(ctx, terrastore.Local("./data"))
//	store, _ := terrastore.New(ctx, terrastore.Memory(64<<20))
//	store, _ := terrastore.New(ctx, terrastore.Remote(terrastore.RemoteSettings{
//	    Provider: terrastore.ProviderS3,
//	    Bucket:   "territory-plans",
//	    Region:   "us-west-2",
//	    Folder:   "prod",
//	}))
//
// Environment configuration (DATA_STORE_TYPE, DATA_STORE_PATH, ...):
//
//	cfg, _ := terrastore.ConfigFromEnv()
//	store, _ := terrastore.New(ctx, cfg)
//
// # Key Conventions
//
// The helpers on Documents derive keys by fixed patterns shared with other
// tooling:
//
//	{location}/{dataType}-data.json
//	{location}/scenarios/{scenarioId}.json
//	backups/{location}/{dataType}-{timestamp}.json
//
// where timestamp is ISO-8601 UTC with millisecond precision and ':' and
// '.' replaced by '-'.
//
//	docs := terrastore.NewDocuments(store)
//	docs.StoreLocationData(ctx, "arizona", "territory", territory, nil)
//	raw, _ := docs.LoadLocationData(ctx, "arizona", "territory")
//	t, _ := terrastore.Decode[Territory](raw)
//
// # Error Model
//
// Write and Delete never return errors; they return results with a
// Success flag that callers must check. Read, Exists, List and
// GetMetadata return classified *datastore.StorageError values. A missing
// key is not an error: Read returns nil and Exists returns false.
//
// # Process-wide Store
//
// Default lazily builds one store from the environment and shares it.
// SetDefault injects a store; ResetDefault exists for test isolation only.
// Prefer holding a *Documents handle where one can be threaded through.
package terrastore

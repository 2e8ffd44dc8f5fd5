// Package datastore provides the storage abstraction for terrastore documents.
//
// DataStore is the interface for writing and reading named JSON documents
// (territory assignments, customer records, scenario plans, backups).
// Implementations must be safe for concurrent use by independent callers;
// concurrent writers to the same key are not arbitrated (last write wins).
//
// # Built-in Implementations
//
//   - MemoryStore: process-local table with an optional size cap
//   - LocalStore: filesystem with a sidecar ".meta" file per document
//   - remote.Store: cloud blob service (see package datastore/remote)
//
// # Error Policy
//
// Write and Delete never return errors. They report the outcome in a
// WriteResult/DeleteResult and callers must check Success.
//
// Read, Exists, GetMetadata and List return a *StorageError for anything
// other than an absent key. An absent key yields (nil, nil) from Read and
// GetMetadata, and false from Exists:
//
//	doc, err := store.Read(ctx, "arizona/territory-data.json")
//	if err != nil {
//	    // classified: datastore.CodeOf(err) is PARSE_ERROR, IO_ERROR, ...
//	}
//	if doc == nil {
//	    // not found
//	}
package datastore

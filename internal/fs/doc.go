// Package fs provides filesystem abstractions for testability and fault injection.
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection (simulate I/O errors)
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]).
// Tests can inject [FaultyFS] to simulate failures:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".meta", fs.Fault{Ops: fs.OpRemove})
//	store, _ := datastore.NewLocalStore(dir, datastore.WithFileSystem(ffs))
//
// This package intentionally does NOT include context.Context parameters.
// Local filesystem calls are not interruptible at the syscall level.
package fs

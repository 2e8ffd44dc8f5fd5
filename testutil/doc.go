// Package testutil provides testing utilities for terrastore.
//
// This package is intended for use in tests only. RunConformance exercises
// the observable DataStore contract that every backend must share:
//
//	func TestMemoryStore_Conformance(t *testing.T) {
//	    testutil.RunConformance(t, func(t *testing.T) datastore.DataStore {
//	        return datastore.NewMemoryStore()
//	    })
//	}
//
// Behavior that intentionally differs between backends (for example deleting
// an absent key) is not covered here and belongs in backend-specific tests.
package testutil

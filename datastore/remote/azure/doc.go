// Package azure provides a remote.Provider for Azure Blob Storage.
//
// A shared account key is used when configured; otherwise the provider
// authenticates with azidentity's default credential chain (environment,
// workload identity, managed identity, Azure CLI).
package azure

// Package gcs provides a remote.Provider for Google Cloud Storage.
//
// Credentials are taken from a service account key (file or inline JSON)
// when configured, otherwise from Application Default Credentials. Setting
// STORAGE_EMULATOR_HOST points the client at a local emulator.
package gcs

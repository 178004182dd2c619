// Package store persists settings as a JSON document on disk. A File serves
// the settings schema to a session (via the metadata package) and writes
// edited values back by dotted path, replacing the file atomically.
package store

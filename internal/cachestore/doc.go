// Package cachestore persists metadata lookups and the duplicate registry.
//
// Two backends implement Store: a SQLite database (default, WAL mode with an
// embedded, versioned schema) and a single JSON file written atomically.
// Entries never expire; they are removed only by Forget or Clear.
package cachestore

// Package fingerprint computes content keys for releases and groups releases
// that share one.
//
// A fingerprint is a SHA-256 over the ordered per-track payload digests, so
// tags and file names do not influence it. Index collects fingerprints from
// concurrent workers; Groups nominates the lexicographically smallest path of
// each collision set as primary and reports the rest as duplicates. Entries
// from the persisted duplicate registry join the sets as external members
// that are never moved.
package fingerprint

// Package textutil provides text processing utilities for name comparison and
// filename sanitization.
//
// Fold builds the comparison key used for cache keys and canonical name
// matching (Unicode compatibility decomposition, diacritics removed,
// punctuation collapsed, case folded). Fingerprints are token term-frequency
// vectors over folded text, compared with cosine similarity to pick the best
// candidate when no exact match exists.
package textutil

// Package oracle resolves declared artist and release names against an
// external metadata authority.
//
// Every query is answered from an in-memory map backed by a persistent
// cachestore. Misses go through a process-wide Gate (bounded concurrency plus
// a token bucket) and are deduplicated with single flight, so N concurrent
// callers asking the same question cost one external lookup. Matched and
// NotFound answers are cached; Failed answers are not, so a later run retries
// them.
//
// Providers are tried in configured order. Each provider is asked a small set
// of query variants (featured artists and bracketed suffixes stripped) before
// it reports NotFound.
package oracle

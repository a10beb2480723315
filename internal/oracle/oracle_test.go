package oracle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"centrifuge/internal/cachestore"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]cachestore.LookupEntry
	puts    int
	failPut bool
}

func newMemStore() *memStore {
	return &memStore{entries: map[string]cachestore.LookupEntry{}}
}

func (s *memStore) GetLookup(_ context.Context, key string) (cachestore.LookupEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *memStore) PutLookups(_ context.Context, entries []cachestore.LookupEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("disk full")
	}
	s.puts++
	for _, e := range entries {
		s.entries[e.Key] = e
	}
	return nil
}

type fakeProvider struct {
	name    string
	calls   atomic.Int64
	delay   time.Duration
	answers map[string][]Candidate
	err     error
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Lookup(ctx context.Context, artist, title string) ([]Candidate, error) {
	p.calls.Add(1)
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.answers[Key(artist, title)], nil
}

func newTestOracle(store Store, providers ...Provider) *Oracle {
	return New(store, providers, Options{MaxConcurrent: 4, RequestsPerSecond: 1000, FlushEvery: 100})
}

func TestResolveSingleFlight(t *testing.T) {
	provider := &fakeProvider{
		name:  "fake",
		delay: 50 * time.Millisecond,
		answers: map[string][]Candidate{
			Key("radiohead", "ok computer"): {{Artist: "Radiohead", Title: "OK Computer"}},
		},
	}
	o := newTestOracle(newMemStore(), provider)

	const callers = 16
	results := make([]Resolution, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = o.Resolve(context.Background(), "radiohead", "ok computer")
		}(i)
	}
	wg.Wait()

	if got := provider.calls.Load(); got != 1 {
		t.Fatalf("expected exactly one external lookup, got %d", got)
	}
	for i, res := range results {
		if res != results[0] {
			t.Fatalf("result %d differs: %+v vs %+v", i, res, results[0])
		}
	}
	if results[0].Status != StatusMatched || results[0].Artist != "Radiohead" || results[0].Title != "OK Computer" {
		t.Fatalf("unexpected resolution %+v", results[0])
	}
}

func TestResolveCachesNotFoundAcrossRuns(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: "fake"}

	first := newTestOracle(store, provider)
	if res := first.Resolve(context.Background(), "Nobody", "Nothing"); res.Status != StatusNotFound {
		t.Fatalf("expected NotFound, got %+v", res)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	calls := provider.calls.Load()

	second := newTestOracle(store, provider)
	if res := second.Resolve(context.Background(), "nobody", "NOTHING"); res.Status != StatusNotFound {
		t.Fatalf("expected cached NotFound, got %+v", res)
	}
	if provider.calls.Load() != calls {
		t.Fatal("cached query should not reach the provider")
	}
}

func TestResolveDoesNotCacheFailures(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: "fake", err: errors.New("connection refused")}
	o := newTestOracle(store, provider)

	res := o.Resolve(context.Background(), "Artist", "Title")
	if res.Status != StatusFailed || res.Err == nil {
		t.Fatalf("expected Failed, got %+v", res)
	}
	_ = o.Flush(context.Background())
	if len(store.entries) != 0 {
		t.Fatalf("failed lookups must not be cached: %+v", store.entries)
	}

	provider.err = nil
	provider.answers = map[string][]Candidate{Key("Artist", "Title"): {{Artist: "Artist", Title: "Title"}}}
	if res := o.Resolve(context.Background(), "Artist", "Title"); res.Status != StatusMatched {
		t.Fatalf("expected retry to match, got %+v", res)
	}
}

func TestResolveFallsThroughProviders(t *testing.T) {
	broken := &fakeProvider{name: "broken", err: errors.New("HTTP 503")}
	empty := &fakeProvider{name: "empty"}
	good := &fakeProvider{name: "good", answers: map[string][]Candidate{
		Key("The Band", "Music"): {{Artist: "The Band", Title: "Music From Big Pink"}},
	}}

	res := newTestOracle(nil, broken, empty, good).Resolve(context.Background(), "The Band", "Music")
	if res.Status != StatusMatched || res.Provider != "good" {
		t.Fatalf("expected match from later provider, got %+v", res)
	}

	res = newTestOracle(nil, broken, empty).Resolve(context.Background(), "The Band", "Music")
	if res.Status != StatusFailed {
		t.Fatalf("NotFound plus failure should be Failed, got %+v", res)
	}

	res = newTestOracle(nil, empty, &fakeProvider{name: "empty2"}).Resolve(context.Background(), "The Band", "Music")
	if res.Status != StatusNotFound {
		t.Fatalf("all NotFound should be NotFound, got %+v", res)
	}
}

func TestResolveTriesVariants(t *testing.T) {
	provider := &fakeProvider{name: "fake", answers: map[string][]Candidate{
		Key("Artist", "Title"): {{Artist: "Artist", Title: "Title"}},
	}}
	res := newTestOracle(nil, provider).Resolve(context.Background(), "Artist feat. Guest", "Title (Deluxe Edition)")
	if res.Status != StatusMatched || res.Title != "Title" {
		t.Fatalf("expected variant match, got %+v", res)
	}
}

func TestResolvePrefersFullMatchOverArtistOnly(t *testing.T) {
	provider := &fakeProvider{name: "fake", answers: map[string][]Candidate{
		Key("Artist", "Title [Remastered]"): {{Artist: "Artist"}},
		Key("Artist", "Title"):              {{Artist: "Artist", Title: "Title"}},
	}}
	res := newTestOracle(nil, provider).Resolve(context.Background(), "Artist", "Title [Remastered]")
	if res.ArtistOnly || res.Title != "Title" {
		t.Fatalf("expected full match from later variant, got %+v", res)
	}

	provider.answers = map[string][]Candidate{Key("Solo", "Unknown"): {{Artist: "Solo"}}}
	res = newTestOracle(nil, provider).Resolve(context.Background(), "Solo", "Unknown")
	if res.Status != StatusMatched || !res.ArtistOnly {
		t.Fatalf("expected artist-only match, got %+v", res)
	}
}

func TestFlushEveryPersistsPending(t *testing.T) {
	store := newMemStore()
	provider := &fakeProvider{name: "fake"}
	o := New(store, []Provider{provider}, Options{MaxConcurrent: 1, RequestsPerSecond: 1000, FlushEvery: 2})

	o.Resolve(context.Background(), "a", "1")
	if store.puts != 0 {
		t.Fatal("flush should wait for flush_every entries")
	}
	o.Resolve(context.Background(), "b", "2")
	if store.puts != 1 || len(store.entries) != 2 {
		t.Fatalf("expected one flush of two entries, got puts=%d entries=%d", store.puts, len(store.entries))
	}
}

func TestFlushKeepsPendingOnError(t *testing.T) {
	store := newMemStore()
	store.failPut = true
	o := newTestOracle(store, &fakeProvider{name: "fake"})
	o.Resolve(context.Background(), "a", "1")
	if err := o.Flush(context.Background()); err == nil {
		t.Fatal("expected flush error")
	}
	store.failPut = false
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(store.entries) != 1 {
		t.Fatalf("pending entry should survive a failed flush, got %d", len(store.entries))
	}
}

func TestResolveBlankArtist(t *testing.T) {
	provider := &fakeProvider{name: "fake"}
	if res := newTestOracle(nil, provider).Resolve(context.Background(), "  ", "Title"); res.Status != StatusNotFound {
		t.Fatalf("expected NotFound, got %+v", res)
	}
	if provider.calls.Load() != 0 {
		t.Fatal("blank artist should not reach the provider")
	}
}

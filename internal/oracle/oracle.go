package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"centrifuge/internal/cachestore"
	"centrifuge/internal/logging"
	"centrifuge/internal/services"
)

// Status classifies a resolution.
type Status string

const (
	StatusMatched  Status = "matched"
	StatusNotFound Status = "not_found"
	StatusFailed   Status = "failed"
)

// Resolution is the answer to one query.
type Resolution struct {
	Status Status
	Artist string
	Title  string
	// ArtistOnly is set when the authority knows the artist but not the release.
	ArtistOnly bool
	Provider   string
	// Err is set for StatusFailed.
	Err error
}

// Store is the persistence the oracle reads through and writes behind.
type Store interface {
	GetLookup(ctx context.Context, key string) (cachestore.LookupEntry, bool, error)
	PutLookups(ctx context.Context, entries []cachestore.LookupEntry) error
}

// Options tunes an Oracle.
type Options struct {
	MaxConcurrent     int
	RequestsPerSecond float64
	// FlushEvery persists pending entries once this many accumulate.
	FlushEvery int
	Logger     *slog.Logger
	Now        func() time.Time
}

// Oracle resolves names through a cache, single flight and a rate gate.
// Construct one per run and Close it on every exit path.
type Oracle struct {
	store      Store
	providers  []Provider
	gate       *Gate
	group      singleflight.Group
	logger     *slog.Logger
	now        func() time.Time
	flushEvery int

	mu      sync.Mutex
	mem     map[string]Resolution
	pending map[string]cachestore.LookupEntry

	lookups atomic.Int64
}

// New constructs an Oracle. store may be nil for a memory-only run.
func New(store Store, providers []Provider, opts Options) *Oracle {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	flushEvery := opts.FlushEvery
	if flushEvery < 1 {
		flushEvery = 1
	}
	return &Oracle{
		store:      store,
		providers:  providers,
		gate:       NewGate(opts.MaxConcurrent, opts.RequestsPerSecond),
		logger:     logging.NewComponentLogger(logger, "oracle"),
		now:        now,
		flushEvery: flushEvery,
		mem:        make(map[string]Resolution),
		pending:    make(map[string]cachestore.LookupEntry),
	}
}

// Lookups returns how many external lookups this Oracle has issued.
func (o *Oracle) Lookups() int64 {
	return o.lookups.Load()
}

// Resolve answers (artist, title). A blank artist is NotFound without a lookup.
func (o *Oracle) Resolve(ctx context.Context, artist, title string) Resolution {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	if artist == "" {
		return Resolution{Status: StatusNotFound}
	}
	key := Key(artist, title)
	if res, ok := o.cached(ctx, key); ok {
		return res
	}

	v, _, _ := o.group.Do(key, func() (any, error) {
		if res, ok := o.memory(key); ok {
			return res, nil
		}
		res := o.lookup(ctx, artist, title)
		if res.Status != StatusFailed {
			o.remember(ctx, key, res)
		}
		return res, nil
	})
	return v.(Resolution)
}

func (o *Oracle) memory(key string) (Resolution, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	res, ok := o.mem[key]
	return res, ok
}

func (o *Oracle) cached(ctx context.Context, key string) (Resolution, bool) {
	if res, ok := o.memory(key); ok {
		return res, true
	}
	if o.store == nil {
		return Resolution{}, false
	}
	entry, ok, err := o.store.GetLookup(ctx, key)
	if err != nil {
		logging.WarnWithContext(o.logger, "cache read failed", "oracle_cache_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "query will be sent to the metadata provider"))
		return Resolution{}, false
	}
	if !ok {
		return Resolution{}, false
	}
	res := resolutionFromEntry(entry)
	o.mu.Lock()
	o.mem[key] = res
	o.mu.Unlock()
	return res, true
}

func (o *Oracle) remember(ctx context.Context, key string, res Resolution) {
	o.mu.Lock()
	o.mem[key] = res
	o.pending[key] = entryFromResolution(key, res, o.now())
	due := len(o.pending) >= o.flushEvery
	o.mu.Unlock()
	if due {
		if err := o.Flush(ctx); err != nil {
			logging.WarnWithContext(o.logger, "cache flush failed", "oracle_cache_flush_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "entries stay pending until the next flush"))
		}
	}
}

// Flush persists pending entries. Entries that fail to persist stay pending.
func (o *Oracle) Flush(ctx context.Context) error {
	o.mu.Lock()
	if len(o.pending) == 0 || o.store == nil {
		o.mu.Unlock()
		return nil
	}
	batch := make([]cachestore.LookupEntry, 0, len(o.pending))
	for _, entry := range o.pending {
		batch = append(batch, entry)
	}
	o.pending = make(map[string]cachestore.LookupEntry)
	o.mu.Unlock()

	if err := o.store.PutLookups(ctx, batch); err != nil {
		o.mu.Lock()
		for _, entry := range batch {
			if _, newer := o.pending[entry.Key]; !newer {
				o.pending[entry.Key] = entry
			}
		}
		o.mu.Unlock()
		return services.Wrap(services.ErrTransient, "oracle", "flush cache", "", err)
	}
	o.logger.Debug("flushed lookup cache", logging.Int("entry_count", len(batch)))
	return nil
}

// Close flushes pending entries, ignoring any cancellation of the run context.
func (o *Oracle) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return o.Flush(ctx)
}

// lookup asks every provider in order. Any match wins; NotFound requires
// every provider to answer NotFound.
func (o *Oracle) lookup(ctx context.Context, artist, title string) Resolution {
	if len(o.providers) == 0 {
		return Resolution{Status: StatusFailed, Err: errors.New("no metadata providers configured")}
	}
	var failures []error
	for _, p := range o.providers {
		res, err := o.ask(ctx, p, artist, title)
		if err != nil {
			failures = append(failures, fmt.Errorf("%s: %w", p.Name(), err))
			o.logger.Debug("provider lookup failed",
				logging.String("provider", p.Name()),
				logging.String("artist", artist),
				logging.Error(err))
			continue
		}
		if res.Status == StatusMatched {
			return res
		}
	}
	if len(failures) > 0 {
		return Resolution{
			Status: StatusFailed,
			Err:    services.Wrap(services.ErrExternalService, "oracle", "lookup", artist, errors.Join(failures...)),
		}
	}
	return Resolution{Status: StatusNotFound}
}

// ask tries each query variant against one provider. A full match returns
// immediately; an artist-only match is kept in case a later variant matches
// the release too.
func (o *Oracle) ask(ctx context.Context, p Provider, artist, title string) (Resolution, error) {
	var artistOnly *Resolution
	for _, q := range variants(artist, title) {
		release, err := o.gate.Acquire(ctx)
		if err != nil {
			return Resolution{}, err
		}
		o.lookups.Add(1)
		candidates, err := p.Lookup(ctx, q.artist, q.title)
		release()
		if err != nil {
			return Resolution{}, err
		}
		best, ok := choose(q, candidates)
		if !ok {
			continue
		}
		res := Resolution{Status: StatusMatched, Artist: best.Artist, Title: best.Title, Provider: p.Name()}
		if best.Title == "" {
			res.ArtistOnly = true
			if artistOnly == nil {
				artistOnly = &res
			}
			continue
		}
		return res, nil
	}
	if artistOnly != nil {
		return *artistOnly, nil
	}
	return Resolution{Status: StatusNotFound, Provider: p.Name()}, nil
}

func resolutionFromEntry(entry cachestore.LookupEntry) Resolution {
	if entry.Status != cachestore.StatusMatched {
		return Resolution{Status: StatusNotFound, Provider: entry.Provider}
	}
	return Resolution{
		Status:     StatusMatched,
		Artist:     entry.Artist,
		Title:      entry.Title,
		ArtistOnly: entry.ArtistOnly,
		Provider:   entry.Provider,
	}
}

func entryFromResolution(key string, res Resolution, now time.Time) cachestore.LookupEntry {
	entry := cachestore.LookupEntry{Key: key, Provider: res.Provider, FetchedAt: now.UTC()}
	if res.Status == StatusMatched {
		entry.Status = cachestore.StatusMatched
		entry.Artist = res.Artist
		entry.Title = res.Title
		entry.ArtistOnly = res.ArtistOnly
	} else {
		entry.Status = cachestore.StatusNotFound
	}
	return entry
}

package testsupport

import (
	"context"
	"sync"

	"centrifuge/internal/oracle"
)

// FakeOracle answers from a fixed table. Unlisted queries echo the query back
// as a full match, so clean fixtures validate without spelling violations.
type FakeOracle struct {
	mu      sync.Mutex
	answers map[[2]string]oracle.Resolution
	calls   int
}

// NewFakeOracle returns an oracle that confirms every query.
func NewFakeOracle() *FakeOracle {
	return &FakeOracle{answers: map[[2]string]oracle.Resolution{}}
}

// Set fixes the answer for (artist, title).
func (f *FakeOracle) Set(artist, title string, res oracle.Resolution) *FakeOracle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[[2]string{artist, title}] = res
	return f
}

// Resolve implements validation.Oracle.
func (f *FakeOracle) Resolve(_ context.Context, artist, title string) oracle.Resolution {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if res, ok := f.answers[[2]string{artist, title}]; ok {
		return res
	}
	return oracle.Resolution{Status: oracle.StatusMatched, Artist: artist, Title: title, Provider: "fake"}
}

// Calls returns how many times Resolve ran.
func (f *FakeOracle) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// Matched is a full match resolution.
func Matched(artist, title string) oracle.Resolution {
	return oracle.Resolution{Status: oracle.StatusMatched, Artist: artist, Title: title, Provider: "fake"}
}

// StaticProvider is an oracle.Provider answering from a table keyed by
// oracle.Key, counting calls.
type StaticProvider struct {
	mu      sync.Mutex
	Answers map[string][]oracle.Candidate
	calls   int
}

// Name implements oracle.Provider.
func (p *StaticProvider) Name() string { return "static" }

// Lookup implements oracle.Provider.
func (p *StaticProvider) Lookup(_ context.Context, artist, title string) ([]oracle.Candidate, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.Answers == nil {
		return []oracle.Candidate{{Artist: artist, Title: title}}, nil
	}
	return p.Answers[oracle.Key(artist, title)], nil
}

// Calls returns how many lookups ran.
func (p *StaticProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

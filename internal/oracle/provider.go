package oracle

import (
	"context"
	"fmt"
	"strings"
)

// Candidate is one canonical (artist, title) pair returned by a provider. An
// empty Title marks an artist-only match.
type Candidate struct {
	Artist string
	Title  string
}

// Provider looks names up at one metadata authority. An empty result with a
// nil error means the authority has no match.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, artist, title string) ([]Candidate, error)
}

// Registry is a read-only set of providers indexed by lowercase name.
type Registry struct {
	byName map[string]Provider
}

// NewRegistry indexes providers by name, rejecting blanks and duplicates.
func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider must not be nil")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("provider name must not be empty")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("duplicate provider %q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

// Get returns the provider registered under name.
func (r Registry) Get(name string) (Provider, bool) {
	if r.byName == nil {
		return nil, false
	}
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Ordered returns the providers for names in order.
func (r Registry) Ordered(names []string) ([]Provider, error) {
	out := make([]Provider, 0, len(names))
	for _, name := range names {
		p, ok := r.Get(name)
		if !ok {
			return nil, fmt.Errorf("provider %q is not registered", name)
		}
		out = append(out, p)
	}
	return out, nil
}

// HTTPStatusError reports a non-2xx response from a provider endpoint.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.URL)
}

// Retriable reports whether the status is worth another attempt.
func (e *HTTPStatusError) Retriable() bool {
	return e != nil && (e.StatusCode == 429 || e.StatusCode >= 500)
}

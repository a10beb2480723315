// Package lastfmweb resolves names by scraping the public Last.fm album and
// artist pages. It needs no API key.
package lastfmweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"centrifuge/internal/oracle"
)

// Name is the provider name used in configuration.
const Name = "lastfm-web"

const maxPageBytes = 8 << 20

// Scraper implements oracle.Provider over last.fm HTML pages.
type Scraper struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

var _ oracle.Provider = (*Scraper)(nil)

// Option configures a Scraper.
type Option func(*Scraper)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(s *Scraper) {
		s.userAgent = strings.TrimSpace(ua)
	}
}

// WithRetries sets the retry budget for 429 and 5xx responses.
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(s *Scraper) {
		if maxRetries >= 0 {
			s.maxRetries = maxRetries
		}
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

// New creates a scraper rooted at baseURL (normally https://www.last.fm).
func New(baseURL string, opts ...Option) (*Scraper, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("lastfm web url required")
	}
	s := &Scraper{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
		backoff:    oracle.InitialBackoff,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Name implements oracle.Provider.
func (s *Scraper) Name() string { return Name }

// Lookup fetches the album page, then the artist page.
func (s *Scraper) Lookup(ctx context.Context, artist, title string) ([]oracle.Candidate, error) {
	if strings.TrimSpace(title) != "" {
		doc, err := s.fetch(ctx, "/music/"+pathSegment(artist)+"/"+pathSegment(title))
		if err != nil {
			return nil, err
		}
		if doc != nil {
			album := strings.TrimSpace(doc.Find("h1.header-new-title").First().Text())
			crumb := strings.TrimSpace(doc.Find("a.header-new-crumb span").First().Text())
			if album != "" && crumb != "" {
				return []oracle.Candidate{{Artist: crumb, Title: album}}, nil
			}
		}
	}

	doc, err := s.fetch(ctx, "/music/"+pathSegment(artist))
	if err != nil || doc == nil {
		return nil, err
	}
	if name := strings.TrimSpace(doc.Find("h1.header-new-title").First().Text()); name != "" {
		return []oracle.Candidate{{Artist: name}}, nil
	}
	return nil, nil
}

// pathSegment encodes a name the way last.fm builds its URLs: spaces become
// plus signs and everything else is path escaped.
func pathSegment(name string) string {
	parts := strings.Fields(name)
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "+")
}

// fetch returns the parsed page, or nil for a 404.
func (s *Scraper) fetch(ctx context.Context, path string) (*goquery.Document, error) {
	for attempt := 0; ; attempt++ {
		doc, err := s.fetchOnce(ctx, path)
		if err == nil || !oracle.IsRetriable(err) || attempt >= s.maxRetries {
			return doc, err
		}
		if sleepErr := oracle.SleepWithContext(ctx, oracle.Backoff(s.backoff, attempt)); sleepErr != nil {
			return nil, sleepErr
		}
	}
}

func (s *Scraper) fetchOnce(ctx context.Context, path string) (*goquery.Document, error) {
	pageURL := s.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &oracle.HTTPStatusError{URL: pageURL, StatusCode: resp.StatusCode}
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, nil
}

// Package lastfm queries the Last.fm web service for canonical artist and
// album names.
package lastfm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"centrifuge/internal/oracle"
)

// Name is the provider name used in configuration.
const Name = "lastfm"

const maxBodyBytes = 4 << 20

// Last.fm error codes the client acts on.
const (
	errInvalidParameters = 6
	errServiceOffline    = 11
	errTemporary         = 16
	errRateLimited       = 29
)

// APIError is an error payload returned by the web service.
type APIError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lastfm error %d: %s", e.Code, e.Message)
}

// Retriable reports whether the service asked us to come back later.
func (e *APIError) Retriable() bool {
	switch e.Code {
	case errServiceOffline, errTemporary, errRateLimited:
		return true
	default:
		return false
	}
}

// Client implements oracle.Provider over album.getinfo and artist.getinfo.
type Client struct {
	apiKey     string
	baseURL    string
	userAgent  string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
}

var _ oracle.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = strings.TrimSpace(ua)
	}
}

// WithRetries sets how many times a retriable failure is retried and the
// initial backoff between attempts.
func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if backoff > 0 {
			c.backoff = backoff
		}
	}
}

// New creates a Last.fm client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("lastfm api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("lastfm base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		maxRetries: 3,
		backoff:    oracle.InitialBackoff,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name implements oracle.Provider.
func (c *Client) Name() string { return Name }

// Lookup asks for the album first and falls back to the artist alone.
func (c *Client) Lookup(ctx context.Context, artist, title string) ([]oracle.Candidate, error) {
	if strings.TrimSpace(title) != "" {
		var payload struct {
			Album struct {
				Name   string `json:"name"`
				Artist string `json:"artist"`
			} `json:"album"`
		}
		found, err := c.call(ctx, url.Values{
			"method": {"album.getinfo"},
			"artist": {artist},
			"album":  {title},
		}, &payload)
		if err != nil {
			return nil, err
		}
		if found && payload.Album.Name != "" && payload.Album.Artist != "" {
			return []oracle.Candidate{{Artist: payload.Album.Artist, Title: payload.Album.Name}}, nil
		}
	}

	var payload struct {
		Artist struct {
			Name string `json:"name"`
		} `json:"artist"`
	}
	found, err := c.call(ctx, url.Values{
		"method": {"artist.getinfo"},
		"artist": {artist},
	}, &payload)
	if err != nil {
		return nil, err
	}
	if found && payload.Artist.Name != "" {
		return []oracle.Candidate{{Artist: payload.Artist.Name}}, nil
	}
	return nil, nil
}

// call performs one method call with retries. It reports false when the
// service answers "not found".
func (c *Client) call(ctx context.Context, params url.Values, out any) (bool, error) {
	params.Set("autocorrect", "1")
	params.Set("api_key", c.apiKey)
	params.Set("format", "json")

	for attempt := 0; ; attempt++ {
		found, err := c.do(ctx, params, out)
		if err == nil || !oracle.IsRetriable(err) || attempt >= c.maxRetries {
			return found, err
		}
		if sleepErr := oracle.SleepWithContext(ctx, oracle.Backoff(c.backoff, attempt)); sleepErr != nil {
			return false, sleepErr
		}
	}
}

func (c *Client) do(ctx context.Context, params url.Values, out any) (bool, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return false, fmt.Errorf("parse lastfm url: %w", err)
	}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return false, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return false, fmt.Errorf("read lastfm response: %w", err)
	}

	var apiErr APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Code != 0 {
		if apiErr.Code == errInvalidParameters {
			return false, nil
		}
		return false, &apiErr
	}
	if resp.StatusCode != http.StatusOK {
		return false, &oracle.HTTPStatusError{URL: c.baseURL, StatusCode: resp.StatusCode}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode lastfm response: %w", err)
	}
	return true, nil
}

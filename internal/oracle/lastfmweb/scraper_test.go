package lastfmweb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const albumPage = `<html><body>
<header>
  <a class="header-new-crumb" href="/music/Radiohead"><span itemprop="name">Radiohead</span></a>
  <h1 class="header-new-title" itemprop="name">OK Computer</h1>
</header></body></html>`

const artistPage = `<html><body><h1 class="header-new-title">Radiohead</h1></body></html>`

func newTestScraper(t *testing.T, mux *http.ServeMux) *Scraper {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	s, err := New(server.URL+"/", WithHTTPClient(server.Client()), WithRetries(1, time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLookupAlbumPage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/music/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/music/radiohead/ok+computer" {
			t.Errorf("unexpected path %q", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(albumPage))
	})
	got, err := newTestScraper(t, mux).Lookup(context.Background(), "radiohead", "ok computer")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].Artist != "Radiohead" || got[0].Title != "OK Computer" {
		t.Fatalf("unexpected candidates %+v", got)
	}
}

func TestLookupArtistFallbackAndNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/music/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() == "/music/radiohead" {
			_, _ = w.Write([]byte(artistPage))
			return
		}
		http.NotFound(w, r)
	})
	s := newTestScraper(t, mux)

	got, err := s.Lookup(context.Background(), "radiohead", "missing album")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if len(got) != 1 || got[0].Artist != "Radiohead" || got[0].Title != "" {
		t.Fatalf("expected artist-only candidate, got %+v", got)
	}

	got, err = s.Lookup(context.Background(), "nobody", "nothing")
	if err != nil || len(got) != 0 {
		t.Fatalf("expected not found, got %+v, %v", got, err)
	}
}

func TestLookupServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/music/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := newTestScraper(t, mux).Lookup(context.Background(), "a", ""); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestPathSegment(t *testing.T) {
	if got := pathSegment("AC/DC  Back"); got != "AC%2FDC+Back" {
		t.Fatalf("pathSegment = %q", got)
	}
}

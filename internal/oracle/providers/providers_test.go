package providers

import (
	"errors"
	"testing"

	"centrifuge/internal/config"
	"centrifuge/internal/oracle/lastfm"
	"centrifuge/internal/oracle/lastfmweb"
	"centrifuge/internal/services"
)

func TestFromConfigKeepsOrder(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.APIKey = "key"
	cfg.Oracle.Providers = []string{config.ProviderLastfmWeb, config.ProviderLastfm}

	got, err := FromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(got) != 2 || got[0].Name() != lastfmweb.Name || got[1].Name() != lastfm.Name {
		t.Fatalf("unexpected provider order: %v", names(got))
	}
}

func TestFromConfigSkipsKeylessAPIProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Oracle.APIKey = ""

	got, err := FromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("FromConfig: %v", err)
	}
	if len(got) != 1 || got[0].Name() != lastfmweb.Name {
		t.Fatalf("expected only the web provider, got %v", names(got))
	}

	cfg.Oracle.Providers = []string{config.ProviderLastfm}
	_, err = FromConfig(&cfg, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func names[T interface{ Name() string }](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Name()
	}
	return out
}

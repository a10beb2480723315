// Package providers builds the configured metadata providers.
package providers

import (
	"log/slog"
	"net/http"
	"time"

	"centrifuge/internal/config"
	"centrifuge/internal/logging"
	"centrifuge/internal/oracle"
	"centrifuge/internal/oracle/lastfm"
	"centrifuge/internal/oracle/lastfmweb"
	"centrifuge/internal/services"
)

// FromConfig returns the providers named in cfg.Oracle.Providers, in order.
// The API provider is skipped with a warning when no key is configured.
func FromConfig(cfg *config.Config, logger *slog.Logger) ([]oracle.Provider, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	httpClient := &http.Client{Timeout: time.Duration(cfg.Oracle.TimeoutSeconds) * time.Second}
	var all []oracle.Provider

	if cfg.Oracle.APIKey != "" {
		client, err := lastfm.New(cfg.Oracle.APIKey, cfg.Oracle.BaseURL,
			lastfm.WithHTTPClient(httpClient),
			lastfm.WithUserAgent(cfg.Oracle.UserAgent),
			lastfm.WithRetries(cfg.Oracle.MaxRetries, oracle.InitialBackoff))
		if err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "oracle", "build lastfm provider", "", err)
		}
		all = append(all, client)
	}
	scraper, err := lastfmweb.New(cfg.Oracle.WebURL,
		lastfmweb.WithHTTPClient(httpClient),
		lastfmweb.WithUserAgent(cfg.Oracle.UserAgent),
		lastfmweb.WithRetries(cfg.Oracle.MaxRetries, oracle.InitialBackoff))
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "build lastfm-web provider", "", err)
	}
	all = append(all, scraper)

	registry, err := oracle.NewRegistry(all...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "register providers", "", err)
	}

	names := make([]string, 0, len(cfg.Oracle.Providers))
	for _, name := range cfg.Oracle.Providers {
		if name == config.ProviderLastfm && cfg.Oracle.APIKey == "" {
			logging.WarnWithContext(logger, "lastfm provider disabled", "oracle_provider_disabled",
				logging.String(logging.FieldErrorHint, "set oracle.api_key or LASTFM_API_KEY"),
				logging.String(logging.FieldImpact, "lookups use the remaining providers"))
			continue
		}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "select providers",
			"no usable provider (lastfm requires an api key)", nil)
	}
	ordered, err := registry.Ordered(names)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "oracle", "select providers", "", err)
	}
	return ordered, nil
}

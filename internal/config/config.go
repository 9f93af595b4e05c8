// Package config holds runtime configuration for autoquote.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default configuration values.
const (
	// DefaultExchangeRate is the amount of base currency (ARS) per one unit
	// of foreign currency (USD).
	DefaultExchangeRate = 1210.0

	// ExchangeRateEnv overrides the exchange rate at startup.
	ExchangeRateEnv = "ML_USD_ARS"

	DefaultTimeout      = 15 * time.Second
	DefaultMaxCards     = 15
	DefaultAPILimit     = 15
	MaxResultLimit      = 15
	DefaultWorkers      = 4
	DefaultMaxBodySize  = 8 * 1024 * 1024
	DefaultListingURL   = "https://listado.mercadolibre.com.ar/"
	DefaultAPIURL       = "https://api.mercadolibre.com"
	DefaultSite         = "MLA"
	DefaultFetcher      = "http"
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0 Safari/537.36"
	DefaultAccept       = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	DefaultLanguage     = "es-AR,es;q=0.9,en;q=0.8"
	DefaultBrowserPages = 15 * time.Second
)

// Config holds all configuration for a search session. It is built once at
// startup and not modified afterwards.
type Config struct {
	// ExchangeRate converts foreign prices to the base currency.
	ExchangeRate float64 `yaml:"exchange_rate"`

	// ListingURL is the results-page base; the search term is appended.
	ListingURL string `yaml:"listing_url"`
	// APIURL and Site locate the structured search endpoint.
	APIURL string `yaml:"api_url"`
	Site   string `yaml:"site"`

	// Request options
	Timeout         time.Duration     `yaml:"timeout"`
	UserAgent       string            `yaml:"user_agent"`
	RandomUserAgent bool              `yaml:"random_user_agent"`
	Headers         map[string]string `yaml:"headers"`
	Proxy           string            `yaml:"proxy"`
	MaxBodySize     int               `yaml:"max_body_size"`

	// Fetcher selects the page transport: "http" or "browser".
	Fetcher     string        `yaml:"fetcher"`
	PageTimeout time.Duration `yaml:"page_timeout"`

	// Extraction limits
	MaxCards int `yaml:"max_cards"`
	APILimit int `yaml:"api_limit"`
	Workers  int `yaml:"workers"`

	// GatePhrases replaces the built-in interstitial phrases when set.
	GatePhrases []string `yaml:"gate_phrases"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		ExchangeRate: DefaultExchangeRate,
		ListingURL:   DefaultListingURL,
		APIURL:       DefaultAPIURL,
		Site:         DefaultSite,
		Timeout:      DefaultTimeout,
		UserAgent:    DefaultUserAgent,
		Headers: map[string]string{
			"Accept":          DefaultAccept,
			"Accept-Language": DefaultLanguage,
			"Referer":         DefaultListingURL,
		},
		MaxBodySize: DefaultMaxBodySize,
		Fetcher:     DefaultFetcher,
		PageTimeout: DefaultBrowserPages,
		MaxCards:    DefaultMaxCards,
		APILimit:    DefaultAPILimit,
		Workers:     DefaultWorkers,
	}
}

// ApplyEnv overrides values from the process environment. An unparseable
// exchange rate is reported instead of silently ignored.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) error {
	v := strings.TrimSpace(getenv(ExchangeRateEnv))
	if v == "" {
		return nil
	}
	rate, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return &EnvError{Key: ExchangeRateEnv, Value: v, Err: err}
	}
	c.ExchangeRate = rate
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.ExchangeRate <= 0 {
		return ErrInvalidExchangeRate
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxCards <= 0 || c.APILimit <= 0 || c.MaxCards > MaxResultLimit || c.APILimit > MaxResultLimit {
		return ErrInvalidLimit
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if strings.TrimSpace(c.ListingURL) == "" || strings.TrimSpace(c.APIURL) == "" {
		return ErrMissingEndpoint
	}
	switch c.Fetcher {
	case "http", "browser":
	default:
		return ErrUnknownFetcher
	}
	return nil
}

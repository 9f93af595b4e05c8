package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ramkansal/autoquote/internal/config"
	"github.com/ramkansal/autoquote/internal/fetcher"
	"github.com/ramkansal/autoquote/internal/output"
	"github.com/ramkansal/autoquote/internal/search"
	"github.com/ramkansal/autoquote/pkg/plugin"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autoquote",
		Short: "Vehicle listing prices from the marketplace",
		Long: `autoquote searches the marketplace for used-vehicle listings and reports
their prices converted to a common currency.

A search tries the listing pages first, falls back to the structured search
API, and finally retries both without the trim when one was given.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose logging")
	flags.StringP("config", "c", "", "Configuration file (default: "+config.DefaultConfigFile+" in the current directory, the XDG config dir, or home)")
	flags.Float64("rate", 0, "Exchange rate, base currency per foreign unit (overrides "+config.ExchangeRateEnv+")")
	flags.StringP("fetcher", "f", "", "Page fetcher: http or browser")
	flags.Duration("timeout", 0, "Request timeout")
	flags.StringArrayP("header", "H", nil, `Custom header in "Key: Value" format (repeatable)`)
	flags.String("proxy", "", "HTTP or SOCKS5 proxy")
	flags.Bool("random-agent", false, "Use a random user agent for every page fetch")
	flags.StringP("output", "o", "", "Write results to a file")
	flags.BoolP("json", "j", false, "Write the output file as JSON")
	flags.BoolP("markdown", "M", false, "Write the output file as Markdown")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("silent", false, "Suppress terminal output except errors")

	cmd.AddCommand(NewSearchCmd())
	cmd.AddCommand(NewListingCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\n  %s %v\n\n", color.RedString("ERROR:"), err)
		os.Exit(1)
	}
}

// session is everything a command needs to run.
type session struct {
	log      *logrus.Logger
	searcher *search.Searcher
	terminal *output.Terminal
	writers  []plugin.OutputWriter
	silent   bool
	saveTo   string
}

// newSession loads configuration and wires the fetchers, searcher and
// writers from the command flags.
func newSession(cmd *cobra.Command) (*session, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	flags := cmd.Flags()
	verbose, _ := flags.GetBool("verbose")
	log := newLogger(cmd.ErrOrStderr(), verbose)

	configPath, _ := flags.GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	pages, err := newPageFetcher(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}
	api, err := fetcher.NewSearchAPI(fetcher.SearchAPIConfig{
		BaseURL:   cfg.APIURL,
		Site:      cfg.Site,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
	})
	if err != nil {
		_ = pages.Close()
		return nil, err
	}

	noColor, _ := flags.GetBool("no-color")
	silent, _ := flags.GetBool("silent")
	s := &session{
		log:      log,
		searcher: search.New(cfg, pages, api, search.WithLogger(log)),
		terminal: output.NewTerminal(cmd.OutOrStdout(), noColor),
		silent:   silent,
	}
	if !silent {
		s.writers = append(s.writers, s.terminal)
	}

	if path, _ := flags.GetString("output"); path != "" {
		asJSON, _ := flags.GetBool("json")
		asMarkdown, _ := flags.GetBool("markdown")
		if asJSON && asMarkdown {
			_ = s.searcher.Close()
			return nil, errors.New("--json and --markdown are mutually exclusive")
		}
		s.writers = append(s.writers, fileWriter(path, asJSON, asMarkdown))
		s.saveTo = path
	}
	return s, nil
}

// fileWriter picks the output file format from the flags, then from the
// file extension.
func fileWriter(path string, asJSON, asMarkdown bool) plugin.OutputWriter {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case asJSON || (!asMarkdown && ext == ".json"):
		return output.NewJSONWriter(path)
	case asMarkdown || ext == ".md":
		return output.NewMarkdownWriter(path)
	default:
		return output.NewTextWriter(path)
	}
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("rate") {
		cfg.ExchangeRate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("fetcher") {
		f, _ := flags.GetString("fetcher")
		cfg.Fetcher = strings.ToLower(strings.TrimSpace(f))
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("proxy") {
		cfg.Proxy, _ = flags.GetString("proxy")
	}
	if flags.Changed("random-agent") {
		cfg.RandomUserAgent, _ = flags.GetBool("random-agent")
	}
	if flags.Changed("header") {
		lines, err := flags.GetStringArray("header")
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		for k, v := range fetcher.ParseHeaders(lines) {
			cfg.Headers[k] = v
		}
	}
	return nil
}

// newPageFetcher returns the configured page fetcher. A browser that fails
// to launch falls back to plain HTTP.
func newPageFetcher(cfg *config.Config, log logrus.FieldLogger) (plugin.Fetcher, error) {
	if cfg.Fetcher == "browser" {
		bf, err := fetcher.NewBrowserFetcher(fetcher.BrowserFetcherConfig{
			Timeout:        cfg.Timeout,
			PageTimeout:    cfg.PageTimeout,
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: cfg.Headers["Accept-Language"],
		})
		if err == nil {
			return bf, nil
		}
		log.WithError(err).Warn("browser fetcher unavailable, falling back to HTTP")
	}
	hf, err := fetcher.NewHTTPFetcher(fetcher.HTTPFetcherConfig{
		UserAgent:       cfg.UserAgent,
		RandomUserAgent: cfg.RandomUserAgent,
		Timeout:         cfg.Timeout,
		MaxResponseSize: cfg.MaxBodySize,
		Proxy:           cfg.Proxy,
		Headers:         cfg.Headers,
	})
	if err != nil {
		return nil, err
	}
	return hf, nil
}

func newLogger(out io.Writer, verbose bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	log.SetLevel(logrus.WarnLevel)
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

// emit fans a result out to every writer.
func (s *session) emit(fn func(plugin.OutputWriter) error) {
	for _, w := range s.writers {
		if err := fn(w); err != nil {
			s.log.WithError(err).WithField("writer", w.Name()).Error("write failed")
		}
	}
}

// close finalizes the writers and releases the fetchers.
func (s *session) close() {
	s.emit(func(w plugin.OutputWriter) error { return w.Finalize() })
	if s.saveTo != "" && !s.silent {
		s.terminal.Saved(s.saveTo)
	}
	if err := s.searcher.Close(); err != nil {
		s.log.WithError(err).Debug("close fetcher")
	}
}

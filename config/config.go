package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/BurntSushi/toml"
)

const baseCfgPath = "geosite/config.toml"

// DefaultFeedURL is used when no feed is configured. Geopolitical
// Monitor publishes a public world-news feed; swap it for any provider
// whose feed carries title, link and description fields.
const DefaultFeedURL = "https://www.geopoliticalmonitor.com/feed/"

type Config struct {
	FeedURL      string `toml:"feed_url"`
	SiteDir      string `toml:"site_dir"`      // Site repository root the job writes into
	NewsDir      string `toml:"news_dir"`      // Article pages directory, relative to site_dir
	IndexFile    string `toml:"index_file"`    // Site index, relative to site_dir
	DefaultTitle string `toml:"default_title"` // Fallback for entries without a title
	CachePath    string `toml:"cache_path"`    // Feed fetch cache database; empty disables caching
	CacheTTL     string `toml:"cache_ttl"`     // Max age before a cached feed body goes stale
	PDFOutput    string `toml:"pdf_output"`    // When set, a PDF of the new page is written here

	Filters     map[string]Filter `toml:"filters"` // Named filters that can be referenced by filter_names
	FilterNames []string          `toml:"filter_names"`
}

// Filter defines rules for rejecting feed entries
type Filter struct {
	MinLength         int      `toml:"min_length"`         // Minimum character count (0 = no limit)
	MinWords          int      `toml:"min_words"`          // Minimum word count (0 = no limit)
	ExcludePatterns   []string `toml:"exclude_patterns"`   // Regex patterns to exclude
	RequireParagraphs bool     `toml:"require_paragraphs"` // Must have multiple lines/paragraphs
}

func Read(path string) (Config, error) {
	conf := Default()
	dat, err := os.ReadFile(path)
	if err != nil {
		return conf, err
	}
	_, err = toml.Decode(string(dat), &conf)
	if err != nil {
		return conf, fmt.Errorf("failed to decode config at %s with %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return conf, fmt.Errorf("invalid config at %s with %w", path, err)
	}
	return conf, nil
}

func Write(cfgPath string, cfg Config) error {
	blob, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config with %w", err)
	}
	basePath := path.Dir(cfgPath)
	err = os.MkdirAll(basePath, os.ModePerm)
	if err != nil {
		return fmt.Errorf("failed to create base config directory at '%s' with %w", basePath, err)
	}
	err = os.WriteFile(cfgPath, blob, 0644)
	if err != nil {
		return fmt.Errorf("failed to write into config file at '%s' with %w", cfgPath, err)
	}
	slog.Info("config written", "at", cfgPath)
	return nil
}

// Validate rejects configs the pipeline cannot run with.
func (c Config) Validate() error {
	if _, err := url.ParseRequestURI(c.FeedURL); err != nil {
		return fmt.Errorf("invalid feed_url '%s' with %w", c.FeedURL, err)
	}
	if c.CacheTTL != "" {
		if _, err := time.ParseDuration(c.CacheTTL); err != nil {
			return fmt.Errorf("invalid cache_ttl '%s' with %w", c.CacheTTL, err)
		}
	}
	if c.NewsDir == "" {
		return fmt.Errorf("news_dir must not be empty")
	}
	if c.IndexFile == "" {
		return fmt.Errorf("index_file must not be empty")
	}
	return nil
}

// TTL returns the parsed cache_ttl. Call Validate first.
func (c Config) TTL() time.Duration {
	d, err := time.ParseDuration(c.CacheTTL)
	if err != nil {
		return 45 * time.Minute
	}
	return d
}

func Default() Config {
	return Config{
		FeedURL:      DefaultFeedURL,
		SiteDir:      ".",
		NewsDir:      "news",
		IndexFile:    "index.html",
		DefaultTitle: "Article sans titre",
		CacheTTL:     "45m",
	}
}

func DefaultPath() string {
	var xdgHome = os.Getenv("XDG_CONFIG_HOME")
	if xdgHome != "" {
		return path.Join(xdgHome, baseCfgPath)
	}

	var home = os.Getenv("HOME")
	if home != "" {
		return path.Join(home, ".config", baseCfgPath)
	}

	panic("unclear where to search for the config file")
}

// DefaultCachePath returns where the fetch cache lives when the config
// enables it without an explicit path.
func DefaultCachePath() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home := os.Getenv("HOME")
		if home == "" {
			return "cache.db"
		}
		cacheDir = path.Join(home, ".cache")
	}
	return path.Join(cacheDir, "geosite", "cache.db")
}

package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 60 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultEnvironment        = "local"
	defaultCMSTimeout         = 30 * time.Second
	minCMSTimeout             = 10 * time.Second
	maxCMSTimeout             = 30 * time.Second
	defaultCMSMaxRetries      = 2
	defaultCMSRetryBaseDelay  = time.Second
	defaultCMSLang            = "en"
	defaultStaticWindow       = 5 * time.Minute
	defaultVolatileWindow     = time.Minute
	defaultSearchWindow       = 30 * time.Second
	defaultMaxDetailEntries   = 256
	defaultRevalidateTimeout  = 30 * time.Second
	defaultSiteBaseURL        = "http://localhost:8080"
	defaultSiteLang           = "ar"
	defaultSiteTheme          = "dark"
	defaultScrollHeaderOffset = 90
	defaultScrollSpyOffset    = 100
	defaultScrollRetryDelay   = 500 * time.Millisecond
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	CMS         CMSConfig
	Cache       CacheConfig
	Site        SiteConfig
	Scroll      ScrollConfig
	Analytics   AnalyticsConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// SecureCookies marks preference and CSRF cookies Secure. Defaults to true outside local.
	SecureCookies bool
}

// CMSConfig points the fetch layer at the remote content API.
type CMSConfig struct {
	BaseURL        string
	Timeout        time.Duration
	MaxRetries     int
	RetryBaseDelay time.Duration
	DefaultLang    string
}

// CacheConfig controls dedupe windows of the content cache.
type CacheConfig struct {
	StaticWindow      time.Duration
	VolatileWindow    time.Duration
	SearchWindow      time.Duration
	RevalidateTimeout time.Duration
	// MaxDetailEntries caps cached single posts and search queries.
	MaxDetailEntries int
}

// SiteConfig holds public site settings.
type SiteConfig struct {
	BaseURL      string
	DefaultLang  string
	DefaultTheme string
	Languages    []string
	// MenuFile optionally replaces the embedded fallback menu YAML.
	MenuFile string
}

// ScrollConfig holds the navigation offsets shared with the client.
type ScrollConfig struct {
	HeaderOffset int
	SpyOffset    int
	RetryDelay   time.Duration
}

// AnalyticsConfig holds client instrumentation ids surfaced to templates.
type AnalyticsConfig struct {
	GA4MeasurementID string
	GTMContainerID   string
	Debug            bool
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides
// and environment variables.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	_ = ctx
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	// Cloud Run style PORT is honoured when the prefixed key is absent.
	port := stringWithDefault(lookup, "PORT", defaultPort)

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "WEB_ENV", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "WEB_PORT", port),
			ReadTimeout:  durationWithDefault(lookup, "WEB_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "WEB_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "WEB_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		CMS: CMSConfig{
			BaseURL:        strings.TrimRight(stringWithDefault(lookup, "WEB_CMS_BASE_URL", ""), "/"),
			Timeout:        clampDuration(durationWithDefault(lookup, "WEB_CMS_TIMEOUT", defaultCMSTimeout), minCMSTimeout, maxCMSTimeout),
			MaxRetries:     intWithDefault(lookup, "WEB_CMS_MAX_RETRIES", defaultCMSMaxRetries),
			RetryBaseDelay: durationWithDefault(lookup, "WEB_CMS_RETRY_BASE_DELAY", defaultCMSRetryBaseDelay),
			DefaultLang:    strings.ToLower(stringWithDefault(lookup, "WEB_CMS_DEFAULT_LANG", defaultCMSLang)),
		},
		Cache: CacheConfig{
			StaticWindow:      durationWithDefault(lookup, "WEB_CACHE_STATIC_WINDOW", defaultStaticWindow),
			VolatileWindow:    durationWithDefault(lookup, "WEB_CACHE_VOLATILE_WINDOW", defaultVolatileWindow),
			SearchWindow:      durationWithDefault(lookup, "WEB_CACHE_SEARCH_WINDOW", defaultSearchWindow),
			RevalidateTimeout: durationWithDefault(lookup, "WEB_CACHE_REVALIDATE_TIMEOUT", defaultRevalidateTimeout),
			MaxDetailEntries:  intWithDefault(lookup, "WEB_CACHE_MAX_DETAIL_ENTRIES", defaultMaxDetailEntries),
		},
		Site: SiteConfig{
			BaseURL:      strings.TrimRight(stringWithDefault(lookup, "WEB_SITE_BASE_URL", defaultSiteBaseURL), "/"),
			DefaultLang:  strings.ToLower(stringWithDefault(lookup, "WEB_SITE_DEFAULT_LANG", defaultSiteLang)),
			DefaultTheme: strings.ToLower(stringWithDefault(lookup, "WEB_SITE_DEFAULT_THEME", defaultSiteTheme)),
			Languages:    csvWithDefault(lookup, "WEB_SITE_LANGUAGES"),
			MenuFile:     stringWithDefault(lookup, "WEB_SITE_MENU_FILE", ""),
		},
		Analytics: AnalyticsConfig{
			GA4MeasurementID: stringWithDefault(lookup, "WEB_ANALYTICS_GA_MEASUREMENT_ID", ""),
			GTMContainerID:   stringWithDefault(lookup, "WEB_ANALYTICS_GTM_CONTAINER_ID", ""),
			Debug:            boolWithDefault(lookup, "WEB_ANALYTICS_DEBUG", false),
		},
		Scroll: ScrollConfig{
			HeaderOffset: intWithDefault(lookup, "WEB_SCROLL_HEADER_OFFSET", defaultScrollHeaderOffset),
			SpyOffset:    intWithDefault(lookup, "WEB_SCROLL_SPY_OFFSET", defaultScrollSpyOffset),
			RetryDelay:   durationWithDefault(lookup, "WEB_SCROLL_RETRY_DELAY", defaultScrollRetryDelay),
		},
	}

	cfg.Server.SecureCookies = boolWithDefault(lookup, "WEB_SECURE_COOKIES", cfg.Environment != defaultEnvironment)

	if len(cfg.Site.Languages) == 0 {
		cfg.Site.Languages = []string{"ar", "en"}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.CMS.BaseURL == "" {
		missing = append(missing, "CMS.BaseURL")
	} else if u, err := url.Parse(cfg.CMS.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		missing = append(missing, "CMS.BaseURL")
	}
	if cfg.CMS.MaxRetries < 0 {
		missing = append(missing, "CMS.MaxRetries")
	}
	if cfg.CMS.RetryBaseDelay < 0 {
		missing = append(missing, "CMS.RetryBaseDelay")
	}
	if !contains(cfg.Site.Languages, cfg.CMS.DefaultLang) {
		missing = append(missing, "CMS.DefaultLang")
	}
	if cfg.Cache.StaticWindow <= 0 {
		missing = append(missing, "Cache.StaticWindow")
	}
	if cfg.Cache.VolatileWindow <= 0 {
		missing = append(missing, "Cache.VolatileWindow")
	}
	if cfg.Cache.SearchWindow <= 0 {
		missing = append(missing, "Cache.SearchWindow")
	}
	if cfg.Cache.MaxDetailEntries <= 0 {
		missing = append(missing, "Cache.MaxDetailEntries")
	}
	if cfg.Cache.RevalidateTimeout <= 0 {
		missing = append(missing, "Cache.RevalidateTimeout")
	}
	if !contains(cfg.Site.Languages, cfg.Site.DefaultLang) {
		missing = append(missing, "Site.DefaultLang")
	}
	if cfg.Site.DefaultTheme != "dark" && cfg.Site.DefaultTheme != "light" {
		missing = append(missing, "Site.DefaultTheme")
	}
	if cfg.Scroll.HeaderOffset < 0 {
		missing = append(missing, "Scroll.HeaderOffset")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}

func clampDuration(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		values[key] = strings.Trim(value, "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.ToLower(strings.TrimSpace(part))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

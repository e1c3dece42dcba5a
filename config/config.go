package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Fallbacks for the step and attempt bounds when a caller leaves them zero.
const (
	DefaultStepTimeout    = 15 * time.Second
	DefaultAttemptTimeout = 3 * time.Minute
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Browser    BrowserConfig
	Navigation NavigationConfig
	Scroll     ScrollConfig
	Retry      RetryConfig
	Cache      CacheConfig
	Target     TargetConfig
	Places     PlacesConfig
	Auth       AuthConfig
	RateLimit  RateLimitConfig
	Log        LogConfig
}

// Profile selects how the browser is launched.
type Profile string

const (
	// ProfileLocal is for development machines: permissive sandboxing and
	// rod-managed browser resolution.
	ProfileLocal Profile = "local"

	// ProfileServerless is for locked-down runtimes: sandbox disabled,
	// incognito, always headless, fixed executable path.
	ProfileServerless Profile = "serverless"
)

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls how each per-attempt browser is launched.
type BrowserConfig struct {
	// Profile is the launch profile; default: "local".
	Profile Profile

	// Headless controls whether the browser runs headless (local profile only).
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (local profile; always on for serverless).
	NoSandbox bool // default: false

	// BrowserBin overrides the Chromium binary path. Required for serverless.
	BrowserBin string

	// DefaultProxy is the proxy URL for all browser traffic.
	DefaultProxy string

	// BlockedResourceTypes lists resource types the page never loads.
	// default: ["Image", "Font", "Media"]
	BlockedResourceTypes []string

	// MaxSessions caps concurrently running browsers across all requests.
	MaxSessions int // default: 4
}

// NavigationConfig bounds every wait of the navigation phase.
type NavigationConfig struct {
	// NavigationTimeout bounds page load plus the network-idle wait.
	NavigationTimeout time.Duration // default: 30s

	// SelectorTimeout bounds each wait for the feed entry point and container.
	SelectorTimeout time.Duration // default: 10s

	// ConsentTimeout bounds the probe for a consent interstitial.
	ConsentTimeout time.Duration // default: 3s

	// IdleWindow is how long the network must stay quiet to count as idle.
	IdleWindow time.Duration // default: 500ms
}

// ScrollConfig controls feed pagination.
type ScrollConfig struct {
	// MaxResults is the collection cap per request.
	MaxResults int // default: 100

	// MaxAttempts is the number of scroll rounds before giving up on growth.
	MaxAttempts int // default: 10

	// Steps is the number of sub-steps in one smooth scroll.
	Steps int // default: 5

	// StepDelayMin and StepDelayMax bound the random pause between sub-steps.
	StepDelayMin time.Duration // default: 150ms
	StepDelayMax time.Duration // default: 450ms

	// Confirmations is the number of extra scrolls that must also show no
	// growth before the feed is declared exhausted.
	Confirmations int // default: 0

	// StepTimeout bounds one scroll or one page snapshot.
	StepTimeout time.Duration // default: 15s
}

// RetryConfig controls the attempt loop.
type RetryConfig struct {
	// MaxRetries is the total number of attempts per request.
	MaxRetries int // default: 3

	// BaseDelay is the delay after the first failed attempt; it doubles each time.
	BaseDelay time.Duration // default: 1s

	// MaxDelay caps a single delay; 0 disables the cap.
	MaxDelay time.Duration // default: 30s

	// AttemptTimeout bounds one whole attempt, waiting for a browser slot
	// included.
	AttemptTimeout time.Duration // default: 3m
}

// CacheConfig controls the result cache.
type CacheConfig struct {
	// TTL is how long a result stays fresh. Set in seconds.
	TTL time.Duration // default: 3600s

	// MaxEntries is the maximum number of in-memory entries.
	MaxEntries int // default: 1000

	// RedisAddr switches the cache to a shared Redis instance when set.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// TargetConfig describes the site being scraped.
type TargetConfig struct {
	// SearchURLTemplate turns a free-text query into a URL; %s receives the
	// escaped query.
	SearchURLTemplate string // default: "https://www.google.com/maps/search/%s"

	// SelectorsFile is an optional YAML file overriding the default selectors.
	SelectorsFile string
}

// PlacesConfig points at the autocomplete upstream.
type PlacesConfig struct {
	BaseURL string // default: Google Places autocomplete JSON endpoint
	APIKey  string
	Timeout time.Duration // default: 5s
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 5
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("REVIEWSCOPE_HOST", "0.0.0.0"),
			Port: envIntOr("REVIEWSCOPE_PORT", 8080),
			Mode: envOr("REVIEWSCOPE_MODE", "release"),
		},
		Browser: BrowserConfig{
			Profile:      Profile(envOr("REVIEWSCOPE_PROFILE", string(ProfileLocal))),
			Headless:     envBoolOr("REVIEWSCOPE_HEADLESS", true),
			NoSandbox:    envBoolOr("REVIEWSCOPE_NO_SANDBOX", false),
			BrowserBin:   os.Getenv("REVIEWSCOPE_BROWSER_BIN"),
			DefaultProxy: os.Getenv("REVIEWSCOPE_PROXY"),
			BlockedResourceTypes: envSliceOr("REVIEWSCOPE_BLOCKED_RESOURCES", []string{
				"Image", "Font", "Media",
			}),
			MaxSessions: envIntOr("REVIEWSCOPE_MAX_SESSIONS", 4),
		},
		Navigation: NavigationConfig{
			NavigationTimeout: envDurationOr("REVIEWSCOPE_NAV_TIMEOUT", 30*time.Second),
			SelectorTimeout:   envDurationOr("REVIEWSCOPE_SELECTOR_TIMEOUT", 10*time.Second),
			ConsentTimeout:    envDurationOr("REVIEWSCOPE_CONSENT_TIMEOUT", 3*time.Second),
			IdleWindow:        envDurationOr("REVIEWSCOPE_IDLE_WINDOW", 500*time.Millisecond),
		},
		Scroll: ScrollConfig{
			MaxResults:    envIntOr("REVIEWSCOPE_MAX_RESULTS", 100),
			MaxAttempts:   envIntOr("REVIEWSCOPE_MAX_SCROLL_ATTEMPTS", 10),
			Steps:         envIntOr("REVIEWSCOPE_SCROLL_STEPS", 5),
			StepDelayMin:  envDurationOr("REVIEWSCOPE_SCROLL_DELAY_MIN", 150*time.Millisecond),
			StepDelayMax:  envDurationOr("REVIEWSCOPE_SCROLL_DELAY_MAX", 450*time.Millisecond),
			Confirmations: envIntOr("REVIEWSCOPE_SCROLL_CONFIRMATIONS", 0),
			StepTimeout:   envDurationOr("REVIEWSCOPE_SCROLL_STEP_TIMEOUT", DefaultStepTimeout),
		},
		Retry: RetryConfig{
			MaxRetries: envIntOr("REVIEWSCOPE_MAX_RETRIES", 3),
			BaseDelay:  envDurationOr("REVIEWSCOPE_RETRY_BASE_DELAY", time.Second),
			MaxDelay:   envDurationOr("REVIEWSCOPE_RETRY_MAX_DELAY", 30*time.Second),

			AttemptTimeout: envDurationOr("REVIEWSCOPE_ATTEMPT_TIMEOUT", DefaultAttemptTimeout),
		},
		Cache: CacheConfig{
			TTL:           time.Duration(envIntOr("REVIEWSCOPE_CACHE_TTL", 3600)) * time.Second,
			MaxEntries:    envIntOr("REVIEWSCOPE_CACHE_MAX_ENTRIES", 1000),
			RedisAddr:     os.Getenv("REVIEWSCOPE_REDIS_ADDR"),
			RedisPassword: os.Getenv("REVIEWSCOPE_REDIS_PASSWORD"),
			RedisDB:       envIntOr("REVIEWSCOPE_REDIS_DB", 0),
		},
		Target: TargetConfig{
			SearchURLTemplate: envOr("REVIEWSCOPE_SEARCH_URL", "https://www.google.com/maps/search/%s"),
			SelectorsFile:     os.Getenv("REVIEWSCOPE_SELECTORS_FILE"),
		},
		Places: PlacesConfig{
			BaseURL: envOr("REVIEWSCOPE_PLACES_URL", "https://maps.googleapis.com/maps/api/place/autocomplete/json"),
			APIKey:  os.Getenv("REVIEWSCOPE_PLACES_API_KEY"),
			Timeout: envDurationOr("REVIEWSCOPE_PLACES_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("REVIEWSCOPE_AUTH_ENABLED", true),
			APIKeys: envSliceOr("REVIEWSCOPE_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("REVIEWSCOPE_RATE_RPS", 1.0),
			Burst:             envIntOr("REVIEWSCOPE_RATE_BURST", 5),
		},
		Log: LogConfig{
			Level:  envOr("REVIEWSCOPE_LOG_LEVEL", "info"),
			Format: envOr("REVIEWSCOPE_LOG_FORMAT", "json"),
		},
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	switch c.Browser.Profile {
	case ProfileLocal:
	case ProfileServerless:
		if c.Browser.BrowserBin == "" {
			return fmt.Errorf("serverless profile requires REVIEWSCOPE_BROWSER_BIN")
		}
	default:
		return fmt.Errorf("unknown browser profile %q (want %q or %q)", c.Browser.Profile, ProfileLocal, ProfileServerless)
	}

	if c.Browser.MaxSessions <= 0 {
		return fmt.Errorf("max sessions must be positive")
	}

	if c.Navigation.NavigationTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.Navigation.SelectorTimeout <= 0 {
		return fmt.Errorf("selector timeout must be positive")
	}
	if c.Navigation.ConsentTimeout < 0 {
		return fmt.Errorf("consent timeout cannot be negative")
	}
	if c.Navigation.IdleWindow <= 0 {
		return fmt.Errorf("idle window must be positive")
	}

	if c.Scroll.MaxResults <= 0 {
		return fmt.Errorf("max results must be positive")
	}
	if c.Scroll.MaxAttempts <= 0 {
		return fmt.Errorf("max scroll attempts must be positive")
	}
	if c.Scroll.Steps <= 0 {
		return fmt.Errorf("scroll steps must be positive")
	}
	if c.Scroll.StepDelayMin < 0 || c.Scroll.StepDelayMax < c.Scroll.StepDelayMin {
		return fmt.Errorf("scroll delay range [%s, %s] is invalid", c.Scroll.StepDelayMin, c.Scroll.StepDelayMax)
	}
	if c.Scroll.Confirmations < 0 {
		return fmt.Errorf("scroll confirmations cannot be negative")
	}
	if c.Scroll.StepTimeout <= 0 {
		return fmt.Errorf("scroll step timeout must be positive")
	}

	if c.Retry.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be at least 1")
	}
	if c.Retry.BaseDelay < 0 {
		return fmt.Errorf("retry base delay cannot be negative")
	}
	if c.Retry.MaxDelay < 0 {
		return fmt.Errorf("retry max delay cannot be negative")
	}
	if c.Retry.AttemptTimeout <= 0 {
		return fmt.Errorf("attempt timeout must be positive")
	}

	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache max entries must be positive")
	}

	if !strings.Contains(c.Target.SearchURLTemplate, "%s") {
		return fmt.Errorf("search URL template must contain %%s")
	}

	return nil
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}

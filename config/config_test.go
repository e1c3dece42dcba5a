package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Browser.Profile != ProfileLocal {
		t.Errorf("profile = %q, want %q", cfg.Browser.Profile, ProfileLocal)
	}
	if cfg.Cache.TTL != time.Hour {
		t.Errorf("cache TTL = %v, want 1h", cfg.Cache.TTL)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("max retries = %d, want 3", cfg.Retry.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("REVIEWSCOPE_PROFILE", "serverless")
	t.Setenv("REVIEWSCOPE_BROWSER_BIN", "/opt/chromium/chrome")
	t.Setenv("REVIEWSCOPE_CACHE_TTL", "120")
	t.Setenv("REVIEWSCOPE_MAX_RESULTS", "25")
	t.Setenv("REVIEWSCOPE_MAX_SCROLL_ATTEMPTS", "4")
	t.Setenv("REVIEWSCOPE_MAX_RETRIES", "5")
	t.Setenv("REVIEWSCOPE_SELECTOR_TIMEOUT", "2s")
	t.Setenv("REVIEWSCOPE_NAV_TIMEOUT", "12s")
	t.Setenv("REVIEWSCOPE_RETRY_BASE_DELAY", "250ms")
	t.Setenv("REVIEWSCOPE_BLOCKED_RESOURCES", "Image, Media ,")
	t.Setenv("REVIEWSCOPE_SCROLL_STEP_TIMEOUT", "4s")
	t.Setenv("REVIEWSCOPE_ATTEMPT_TIMEOUT", "90s")

	cfg := Load()

	if cfg.Browser.Profile != ProfileServerless {
		t.Errorf("profile = %q", cfg.Browser.Profile)
	}
	if cfg.Browser.BrowserBin != "/opt/chromium/chrome" {
		t.Errorf("browser bin = %q", cfg.Browser.BrowserBin)
	}
	if cfg.Cache.TTL != 2*time.Minute {
		t.Errorf("cache TTL = %v, want 2m", cfg.Cache.TTL)
	}
	if cfg.Scroll.MaxResults != 25 || cfg.Scroll.MaxAttempts != 4 {
		t.Errorf("scroll = %+v", cfg.Scroll)
	}
	if cfg.Retry.MaxRetries != 5 || cfg.Retry.BaseDelay != 250*time.Millisecond {
		t.Errorf("retry = %+v", cfg.Retry)
	}
	if cfg.Navigation.SelectorTimeout != 2*time.Second || cfg.Navigation.NavigationTimeout != 12*time.Second {
		t.Errorf("navigation = %+v", cfg.Navigation)
	}
	if cfg.Scroll.StepTimeout != 4*time.Second || cfg.Retry.AttemptTimeout != 90*time.Second {
		t.Errorf("step timeout = %v, attempt timeout = %v", cfg.Scroll.StepTimeout, cfg.Retry.AttemptTimeout)
	}
	if got := strings.Join(cfg.Browser.BlockedResourceTypes, ","); got != "Image,Media" {
		t.Errorf("blocked resources = %q", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REVIEWSCOPE_PORT", "eighty")
	t.Setenv("REVIEWSCOPE_NAV_TIMEOUT", "soon")

	cfg := Load()
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want fallback 8080", cfg.Server.Port)
	}
	if cfg.Navigation.NavigationTimeout != 30*time.Second {
		t.Errorf("nav timeout = %v, want fallback 30s", cfg.Navigation.NavigationTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"unknown profile", func(c *Config) { c.Browser.Profile = "cloud" }, "unknown browser profile"},
		{"serverless without bin", func(c *Config) { c.Browser.Profile = ProfileServerless }, "REVIEWSCOPE_BROWSER_BIN"},
		{"zero retries", func(c *Config) { c.Retry.MaxRetries = 0 }, "max retries"},
		{"zero ttl", func(c *Config) { c.Cache.TTL = 0 }, "cache TTL"},
		{"zero cap", func(c *Config) { c.Scroll.MaxResults = 0 }, "max results"},
		{"inverted delays", func(c *Config) {
			c.Scroll.StepDelayMin = time.Second
			c.Scroll.StepDelayMax = time.Millisecond
		}, "scroll delay range"},
		{"zero step timeout", func(c *Config) { c.Scroll.StepTimeout = 0 }, "scroll step timeout"},
		{"zero attempt timeout", func(c *Config) { c.Retry.AttemptTimeout = 0 }, "attempt timeout"},
		{"template without verb", func(c *Config) { c.Target.SearchURLTemplate = "https://example.com" }, "must contain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

package config

import (
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_FailsWithoutAuthBaseURL(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AUTH_API_BASE_URL", "")
	t.Setenv("AUTH_API_KEY", "public-anon-key")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected missing auth base URL error")
	}
	if !strings.Contains(err.Error(), "AUTH_API_BASE_URL") {
		t.Fatalf("expected error to mention AUTH_API_BASE_URL, got %v", err)
	}
}

func TestLoadConfig_FailsWithoutAuthAPIKey(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AUTH_API_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTH_API_KEY", "   ")

	_, err := LoadConfig()
	if err == nil {
		t.Fatal("expected missing auth API key error")
	}
	if !strings.Contains(err.Error(), "AUTH_API_KEY") {
		t.Fatalf("expected error to mention AUTH_API_KEY, got %v", err)
	}
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AUTH_API_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTH_API_KEY", "public-anon-key")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default server port 8080, got %q", cfg.ServerPort)
	}
	if cfg.LoginRedirectURL != "/login" {
		t.Fatalf("expected default login redirect /login, got %q", cfg.LoginRedirectURL)
	}
	if cfg.RatesRefreshSchedule == "" {
		t.Fatal("expected a default rates refresh schedule")
	}
	if cfg.RatesCacheTTLMinutes != 45 {
		t.Fatalf("expected default rates cache TTL of 45 minutes, got %d", cfg.RatesCacheTTLMinutes)
	}
}

func TestLoadConfig_NegativeCacheTTLCoercedToDefault(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("AUTH_API_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTH_API_KEY", "public-anon-key")
	t.Setenv("RATES_CACHE_TTL_MINUTES", "-5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.RatesCacheTTLMinutes != 45 {
		t.Fatalf("expected negative TTL to fall back to 45, got %d", cfg.RatesCacheTTLMinutes)
	}
}

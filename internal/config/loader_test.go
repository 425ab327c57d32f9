package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEETAI_CONFIG",
		"MEETAI_HTTP_PORT",
		"MEETAI_SQLITE_DSN",
		"MEETAI_SESSION_SECRET",
		"MEETAI_SESSION_TTL",
		"MEETAI_ASSISTANT_URL",
		"MEETAI_ASSISTANT_API_KEY",
		"MEETAI_ASSISTANT_TIMEOUT",
		"MEETAI_WEATHER_API_KEY",
		"MEETAI_WEATHER_BASE_URL",
		"MEETAI_WEATHER_REFRESH_CRON",
		"MEETAI_CHAT_RATE_PER_MINUTE",
	} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETAI_SESSION_SECRET", "super-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:meetassist.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.SessionTTL != 24*time.Hour {
			t.Fatalf("expected default session TTL 24h, got %s", cfg.SessionTTL)
		}
		if cfg.HistoryLimit != 10 {
			t.Fatalf("expected default history limit 10, got %d", cfg.HistoryLimit)
		}
		if cfg.WeatherBaseURL != "https://api.weatherapi.com/v1" {
			t.Fatalf("unexpected weather base URL: %q", cfg.WeatherBaseURL)
		}
	})

	t.Run("errors when the session secret is missing", func(t *testing.T) {
		clearEnv(t)

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error when required values are missing")
		}
		expected := "required configuration is missing: MEETAI_SESSION_SECRET"
		if err.Error() != expected {
			t.Fatalf("unexpected error message: %q", err.Error())
		}
	})

	t.Run("parses duration and numeric fields", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETAI_SESSION_SECRET", "secret-value")
		t.Setenv("MEETAI_HTTP_PORT", "9090")
		t.Setenv("MEETAI_SQLITE_DSN", "file:/tmp/meetassist.db")
		t.Setenv("MEETAI_SESSION_TTL", "12h")
		t.Setenv("MEETAI_ASSISTANT_TIMEOUT", "45s")
		t.Setenv("MEETAI_CHAT_RATE_PER_MINUTE", "5")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.SessionTTL != 12*time.Hour {
			t.Fatalf("expected session TTL 12h, got %s", cfg.SessionTTL)
		}
		if cfg.AssistantTimeout != 45*time.Second {
			t.Fatalf("expected assistant timeout 45s, got %s", cfg.AssistantTimeout)
		}
		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.ChatRatePerMinute != 5 {
			t.Fatalf("expected chat rate 5/minute, got %d", cfg.ChatRatePerMinute)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETAI_SESSION_SECRET", "secret-value")
		t.Setenv("MEETAI_HTTP_PORT", "not-a-port")

		_, err := Load()
		if err == nil {
			t.Fatalf("expected error for invalid HTTP port")
		}
	})
}

func TestLoader_ConfigFile(t *testing.T) {

	t.Run("reads values from the YAML file", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "meetassist.yaml")
		body := "http_port: 9191\nsession_secret: file-secret\nsession_ttl: 48h\nweather_api_key: wkey\n"
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("MEETAI_CONFIG", path)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9191 {
			t.Fatalf("expected HTTP port 9191, got %d", cfg.HTTPPort)
		}
		if cfg.SessionSecret != "file-secret" {
			t.Fatalf("unexpected session secret: %q", cfg.SessionSecret)
		}
		if cfg.SessionTTL != 48*time.Hour {
			t.Fatalf("expected session TTL 48h, got %s", cfg.SessionTTL)
		}
		if cfg.WeatherAPIKey != "wkey" {
			t.Fatalf("unexpected weather API key: %q", cfg.WeatherAPIKey)
		}
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		clearEnv(t)

		path := filepath.Join(t.TempDir(), "meetassist.yaml")
		body := "http_port: 9191\nsession_secret: file-secret\n"
		if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
			t.Fatalf("failed to write config file: %v", err)
		}
		t.Setenv("MEETAI_CONFIG", path)
		t.Setenv("MEETAI_HTTP_PORT", "9999")
		t.Setenv("MEETAI_SESSION_SECRET", "env-secret")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9999 {
			t.Fatalf("expected HTTP port 9999, got %d", cfg.HTTPPort)
		}
		if cfg.SessionSecret != "env-secret" {
			t.Fatalf("unexpected session secret: %q", cfg.SessionSecret)
		}
	})

	t.Run("errors when the named file is absent", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEETAI_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
		t.Setenv("MEETAI_SESSION_SECRET", "secret")

		if _, err := Load(); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})
}

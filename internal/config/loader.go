package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures configuration values for the assistant service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionTTL    time.Duration

	AssistantURL     string
	AssistantAPIKey  string
	AssistantTimeout time.Duration
	HistoryLimit     int

	WeatherAPIKey      string
	WeatherBaseURL     string
	WeatherRefreshCron string

	ChatRatePerMinute int
	ChatRateBurst     int
}

// fileConfig mirrors Config for the YAML file, with durations written as
// strings ("24h") so the file stays human editable.
type fileConfig struct {
	HTTPPort      int    `yaml:"http_port"`
	SQLiteDSN     string `yaml:"sqlite_dsn"`
	SessionSecret string `yaml:"session_secret"`
	SessionTTL    string `yaml:"session_ttl"`

	AssistantURL     string `yaml:"assistant_url"`
	AssistantAPIKey  string `yaml:"assistant_api_key"`
	AssistantTimeout string `yaml:"assistant_timeout"`
	HistoryLimit     int    `yaml:"history_limit"`

	WeatherAPIKey      string `yaml:"weather_api_key"`
	WeatherBaseURL     string `yaml:"weather_base_url"`
	WeatherRefreshCron string `yaml:"weather_refresh_cron"`

	ChatRatePerMinute int `yaml:"chat_rate_per_minute"`
	ChatRateBurst     int `yaml:"chat_rate_burst"`
}

func defaults() Config {
	return Config{
		HTTPPort:           8080,
		SQLiteDSN:          "file:meetassist.db",
		SessionTTL:         24 * time.Hour,
		AssistantTimeout:   30 * time.Second,
		HistoryLimit:       10,
		WeatherBaseURL:     "https://api.weatherapi.com/v1",
		WeatherRefreshCron: "*/30 * * * *",
		ChatRatePerMinute:  20,
		ChatRateBurst:      5,
	}
}

// Load resolves configuration from an optional YAML file named by
// MEETAI_CONFIG, then applies environment overrides on top.
//
// Required values are validated last so a file may satisfy them.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("MEETAI_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("MEETAI_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "MEETAI_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("MEETAI_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("MEETAI_SESSION_SECRET")); secret != "" {
		cfg.SessionSecret = secret
	}
	if cfg.SessionSecret == "" {
		missing = append(missing, "MEETAI_SESSION_SECRET")
	}

	if ttlValue := strings.TrimSpace(os.Getenv("MEETAI_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "MEETAI_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if url := strings.TrimSpace(os.Getenv("MEETAI_ASSISTANT_URL")); url != "" {
		cfg.AssistantURL = url
	}
	if key := strings.TrimSpace(os.Getenv("MEETAI_ASSISTANT_API_KEY")); key != "" {
		cfg.AssistantAPIKey = key
	}
	if timeoutValue := strings.TrimSpace(os.Getenv("MEETAI_ASSISTANT_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "MEETAI_ASSISTANT_TIMEOUT")
		} else {
			cfg.AssistantTimeout = timeout
		}
	}

	if key := strings.TrimSpace(os.Getenv("MEETAI_WEATHER_API_KEY")); key != "" {
		cfg.WeatherAPIKey = key
	}
	if base := strings.TrimSpace(os.Getenv("MEETAI_WEATHER_BASE_URL")); base != "" {
		cfg.WeatherBaseURL = base
	}
	if spec := strings.TrimSpace(os.Getenv("MEETAI_WEATHER_REFRESH_CRON")); spec != "" {
		cfg.WeatherRefreshCron = spec
	}

	if limitValue := strings.TrimSpace(os.Getenv("MEETAI_CHAT_RATE_PER_MINUTE")); limitValue != "" {
		limit, err := strconv.Atoi(limitValue)
		if err != nil || limit <= 0 {
			invalid = append(invalid, "MEETAI_CHAT_RATE_PER_MINUTE")
		} else {
			cfg.ChatRatePerMinute = limit
		}
	}

	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.ChatRateBurst <= 0 {
		cfg.ChatRateBurst = 5
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("configuration values are invalid: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s does not exist", path)
		}
		return err
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if file.HTTPPort > 0 {
		cfg.HTTPPort = file.HTTPPort
	}
	if file.SQLiteDSN != "" {
		cfg.SQLiteDSN = file.SQLiteDSN
	}
	if file.SessionSecret != "" {
		cfg.SessionSecret = file.SessionSecret
	}
	if file.SessionTTL != "" {
		ttl, err := time.ParseDuration(file.SessionTTL)
		if err != nil || ttl <= 0 {
			return fmt.Errorf("config file %s: invalid session_ttl %q", path, file.SessionTTL)
		}
		cfg.SessionTTL = ttl
	}
	if file.AssistantURL != "" {
		cfg.AssistantURL = file.AssistantURL
	}
	if file.AssistantAPIKey != "" {
		cfg.AssistantAPIKey = file.AssistantAPIKey
	}
	if file.AssistantTimeout != "" {
		timeout, err := time.ParseDuration(file.AssistantTimeout)
		if err != nil || timeout <= 0 {
			return fmt.Errorf("config file %s: invalid assistant_timeout %q", path, file.AssistantTimeout)
		}
		cfg.AssistantTimeout = timeout
	}
	if file.HistoryLimit > 0 {
		cfg.HistoryLimit = file.HistoryLimit
	}
	if file.WeatherAPIKey != "" {
		cfg.WeatherAPIKey = file.WeatherAPIKey
	}
	if file.WeatherBaseURL != "" {
		cfg.WeatherBaseURL = file.WeatherBaseURL
	}
	if file.WeatherRefreshCron != "" {
		cfg.WeatherRefreshCron = file.WeatherRefreshCron
	}
	if file.ChatRatePerMinute > 0 {
		cfg.ChatRatePerMinute = file.ChatRatePerMinute
	}
	if file.ChatRateBurst > 0 {
		cfg.ChatRateBurst = file.ChatRateBurst
	}

	return nil
}

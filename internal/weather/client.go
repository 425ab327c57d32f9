package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
)

// ErrMissingAPIKey is returned when the client is constructed without a key.
var ErrMissingAPIKey = errors.New("weather api key is not configured")

// DefaultBaseURL is the production weatherapi.com endpoint.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// Observation is a current-conditions reading for a location.
type Observation struct {
	Location   string  `json:"location"`
	Region     string  `json:"region"`
	Country    string  `json:"country"`
	TempC      float64 `json:"tempC"`
	Condition  string  `json:"condition"`
	Humidity   int     `json:"humidity"`
	WindKph    float64 `json:"windKph"`
	FeelsLikeC float64 `json:"feelsLikeC"`
}

// LocationMatch is a search result for a partial location query.
type LocationMatch struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

type cacheEntry struct {
	observation Observation
	fetchedAt   time.Time
}

// Client talks to the weatherapi.com REST API. Current-conditions responses
// are cached per normalized location so dashboard reads stay cheap.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time

	retryAttempts uint
	retryDelay    time.Duration

	cacheMu  sync.RWMutex
	cache    map[string]*cacheEntry
	cacheTTL time.Duration
}

// NewClient constructs a weather client. An empty baseURL falls back to
// DefaultBaseURL.
func NewClient(apiKey, baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		apiKey:        apiKey,
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		logger:        logger,
		now:           time.Now,
		retryAttempts: 3,
		retryDelay:    250 * time.Millisecond,
		cache:         map[string]*cacheEntry{},
		cacheTTL:      10 * time.Minute,
	}
}

type currentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		Condition struct {
			Text string `json:"text"`
		} `json:"condition"`
		Humidity   int     `json:"humidity"`
		WindKph    float64 `json:"wind_kph"`
		FeelsLikeC float64 `json:"feelslike_c"`
	} `json:"current"`
}

type searchResult struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Current returns conditions for the location, served from cache when a
// fresh enough observation exists.
func (c *Client) Current(ctx context.Context, location string) (Observation, error) {
	key := strings.ToLower(strings.TrimSpace(location))
	if key == "" {
		return Observation{}, fmt.Errorf("location is required")
	}

	c.cacheMu.RLock()
	if entry, ok := c.cache[key]; ok && c.now().Sub(entry.fetchedAt) < c.cacheTTL {
		c.cacheMu.RUnlock()
		return entry.observation, nil
	}
	c.cacheMu.RUnlock()

	return c.Refresh(ctx, location)
}

// Refresh fetches conditions for the location, bypassing and repopulating
// the cache. The cron refresher calls this directly.
func (c *Client) Refresh(ctx context.Context, location string) (Observation, error) {
	if c.apiKey == "" {
		return Observation{}, ErrMissingAPIKey
	}

	trimmed := strings.TrimSpace(location)
	if trimmed == "" {
		return Observation{}, fmt.Errorf("location is required")
	}

	endpoint := fmt.Sprintf("%s/current.json?key=%s&q=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(trimmed))

	var decoded currentResponse
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return Observation{}, err
	}

	observation := Observation{
		Location:   decoded.Location.Name,
		Region:     decoded.Location.Region,
		Country:    decoded.Location.Country,
		TempC:      decoded.Current.TempC,
		Condition:  decoded.Current.Condition.Text,
		Humidity:   decoded.Current.Humidity,
		WindKph:    decoded.Current.WindKph,
		FeelsLikeC: decoded.Current.FeelsLikeC,
	}

	key := strings.ToLower(trimmed)
	c.cacheMu.Lock()
	c.cache[key] = &cacheEntry{observation: observation, fetchedAt: c.now()}
	c.cacheMu.Unlock()

	return observation, nil
}

// Search resolves a partial location query to candidate locations.
func (c *Client) Search(ctx context.Context, query string) ([]LocationMatch, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, fmt.Errorf("query is required")
	}

	endpoint := fmt.Sprintf("%s/search.json?key=%s&q=%s", c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(trimmed))

	var decoded []searchResult
	if err := c.getJSON(ctx, endpoint, &decoded); err != nil {
		return nil, err
	}

	matches := make([]LocationMatch, 0, len(decoded))
	for _, result := range decoded {
		matches = append(matches, LocationMatch(result))
	}
	return matches, nil
}

// getJSON performs a GET with retries on transient failures and decodes
// the body into out.
func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("weather request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("weather request: unexpected status %d", resp.StatusCode)
				if transientStatus(resp.StatusCode) {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("weather response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.retryAttempts),
		retry.Delay(c.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.WarnContext(ctx, "retrying weather request", "attempt", attempt+1, "error", err)
		}),
	)
}

func transientStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

// Provider produces a conversational reply and tool requests for an
// instruction.
type Provider interface {
	Complete(ctx context.Context, request ProviderRequest) (ProviderResponse, error)
}

// HTTPProvider posts provider requests to an external tool-calling service.
type HTTPProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger

	retryAttempts uint
	retryDelay    time.Duration
}

// NewHTTPProvider constructs a provider client for the given endpoint.
func NewHTTPProvider(url, apiKey string, timeout time.Duration, logger *slog.Logger) *HTTPProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPProvider{
		url:           url,
		apiKey:        apiKey,
		httpClient:    &http.Client{Timeout: timeout},
		logger:        logger,
		retryAttempts: 3,
		retryDelay:    250 * time.Millisecond,
	}
}

// Complete posts the request and decodes the provider's reply, retrying on
// transient failures.
func (p *HTTPProvider) Complete(ctx context.Context, request ProviderRequest) (ProviderResponse, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return ProviderResponse{}, fmt.Errorf("encode provider request: %w", err)
	}

	var decoded ProviderResponse
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")
			if p.apiKey != "" {
				req.Header.Set("Authorization", "Bearer "+p.apiKey)
			}

			resp, err := p.httpClient.Do(req)
			if err != nil {
				return fmt.Errorf("provider request: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := fmt.Errorf("provider request: unexpected status %d", resp.StatusCode)
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			decoded = ProviderResponse{}
			if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
				return retry.Unrecoverable(fmt.Errorf("provider response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(p.retryAttempts),
		retry.Delay(p.retryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			p.logger.WarnContext(ctx, "retrying provider request", "attempt", attempt+1, "error", err)
		}),
	)
	if err != nil {
		return ProviderResponse{}, err
	}
	return decoded, nil
}

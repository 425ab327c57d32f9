package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, handler http.Handler) *HTTPProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider := NewHTTPProvider(server.URL, "secret-key", time.Second, nil)
	provider.retryDelay = time.Millisecond
	return provider
}

func TestHTTPProvider_Complete(t *testing.T) {
	t.Parallel()

	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret-key", r.Header.Get("Authorization"))

		var request ProviderRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "book a meeting", request.Instruction)

		json.NewEncoder(w).Encode(ProviderResponse{
			Response: "Booked.",
			ToolRequests: []ToolRequest{
				{Tool: ToolCall{Name: "createMeeting"}, Input: json.RawMessage(`{"title":"Sync"}`)},
			},
		})
	}))

	response, err := provider.Complete(context.Background(), ProviderRequest{Instruction: "book a meeting"})
	require.NoError(t, err)
	assert.Equal(t, "Booked.", response.Response)
	require.Len(t, response.ToolRequests, 1)
	assert.Equal(t, "createMeeting", response.ToolRequests[0].Tool.Name)
}

func TestHTTPProvider_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(ProviderResponse{Response: "ok"})
	}))

	response, err := provider.Complete(context.Background(), ProviderRequest{Instruction: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "ok", response.Response)
	assert.Equal(t, int64(2), requests.Load())
}

func TestHTTPProvider_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	provider := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))

	_, err := provider.Complete(context.Background(), ProviderRequest{Instruction: "hello"})
	require.Error(t, err)
	assert.Equal(t, int64(1), requests.Load())
}

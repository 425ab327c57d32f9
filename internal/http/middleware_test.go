package http

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/testfixtures"
)

type accountsStub struct {
	account application.Account
}

func (a accountsStub) Current() application.Account { return a.account }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRequireSession(t *testing.T) {
	t.Parallel()

	tokens := NewTokenManager("secret", time.Hour)
	account := testfixtures.NewAccountFixture(testfixtures.WithEmail("alice@example.com"))

	newHandler := func(accounts CurrentAccountProvider) http.Handler {
		return RequireSession(tokens, accounts, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identifier, ok := IdentifierFromContext(r.Context())
			require.True(t, ok)
			w.Write([]byte(identifier))
		}))
	}

	t.Run("accepts a matching bearer token", func(t *testing.T) {
		t.Parallel()

		token, _, err := tokens.Issue("alice@example.com")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		request.Header.Set("Authorization", "Bearer "+token)

		newHandler(accountsStub{account: account}).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Equal(t, "alice@example.com", recorder.Body.String())
	})

	t.Run("accepts the session cookie", func(t *testing.T) {
		t.Parallel()

		token, _, err := tokens.Issue("alice@example.com")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		request.AddCookie(&http.Cookie{Name: sessionCookieName, Value: token})

		newHandler(accountsStub{account: account}).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("rejects a missing token", func(t *testing.T) {
		t.Parallel()

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/profile", nil)

		newHandler(accountsStub{account: account}).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a token for a different aggregate", func(t *testing.T) {
		t.Parallel()

		token, _, err := tokens.Issue("someone-else@example.com")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		request.Header.Set("Authorization", "Bearer "+token)

		newHandler(accountsStub{account: account}).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects tokens once the aggregate is a guest", func(t *testing.T) {
		t.Parallel()

		token, _, err := tokens.Issue("alice@example.com")
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		request := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
		request.Header.Set("Authorization", "Bearer "+token)

		newHandler(accountsStub{account: application.GuestAccount()}).ServeHTTP(recorder, request)
		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}

func TestRequestLoggerPassesThrough(t *testing.T) {
	t.Parallel()

	var sawLogger bool
	handler := RequestLogger(discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, recorder.Code)
	assert.True(t, sawLogger)
}

func TestCORSPreflight(t *testing.T) {
	t.Parallel()

	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("preflight must not reach the next handler")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodOptions, "/api/login", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/assistant"
	"github.com/example/meetassist/internal/persistence"
	"github.com/example/meetassist/internal/testfixtures"
	"github.com/example/meetassist/internal/weather"
)

// storeAdapter bridges the persistence store to the application's
// AccountStore interface, mirroring the wiring in cmd/meetassist.
type storeAdapter struct {
	store *persistence.Store
}

func (a storeAdapter) Load(ctx context.Context) map[string]application.Account {
	loaded := a.store.Load(ctx)
	accounts := make(map[string]application.Account, len(loaded))
	for email, record := range loaded {
		accounts[email] = toApplicationAccount(record)
	}
	return accounts
}

func (a storeAdapter) Save(ctx context.Context, accounts map[string]application.Account) {
	records := make(map[string]persistence.Account, len(accounts))
	for email, account := range accounts {
		records[email] = toPersistenceAccount(account)
	}
	a.store.Save(ctx, records)
}

func (a storeAdapter) RememberIdentifier(ctx context.Context, email string) {
	a.store.RememberIdentifier(ctx, email)
}

func (a storeAdapter) RememberedIdentifier(ctx context.Context) (string, bool) {
	return a.store.RememberedIdentifier(ctx)
}

func toApplicationAccount(record persistence.Account) application.Account {
	contacts := make([]application.Contact, 0, len(record.Contacts))
	for _, contact := range record.Contacts {
		contacts = append(contacts, application.Contact(contact))
	}
	meetings := make([]application.Meeting, 0, len(record.Meetings))
	for _, meeting := range record.Meetings {
		meetings = append(meetings, application.Meeting(meeting))
	}
	return application.Account{
		Email:      record.Email,
		Name:       record.Name,
		SecretHash: record.SecretHash,
		Avatar:     record.Avatar,
		Location:   record.Location,
		WorkTime:   application.WorkTime(record.WorkTime),
		OffDays:    record.OffDays,
		Contacts:   contacts,
		Meetings:   meetings,
	}
}

func toPersistenceAccount(account application.Account) persistence.Account {
	contacts := make([]persistence.Contact, 0, len(account.Contacts))
	for _, contact := range account.Contacts {
		contacts = append(contacts, persistence.Contact(contact))
	}
	meetings := make([]persistence.Meeting, 0, len(account.Meetings))
	for _, meeting := range account.Meetings {
		meetings = append(meetings, persistence.Meeting(meeting))
	}
	return persistence.Account{
		Email:      account.Email,
		Name:       account.Name,
		SecretHash: account.SecretHash,
		Avatar:     account.Avatar,
		Location:   account.Location,
		WorkTime:   persistence.WorkTime(account.WorkTime),
		OffDays:    account.OffDays,
		Contacts:   contacts,
		Meetings:   meetings,
		LoggedIn:   account.Authenticated,
	}
}

type providerStub struct {
	response assistant.ProviderResponse
}

func (p *providerStub) Complete(ctx context.Context, request assistant.ProviderRequest) (assistant.ProviderResponse, error) {
	return p.response, nil
}

type weatherStub struct {
	observation weather.Observation
}

func (w *weatherStub) Current(ctx context.Context, location string) (weather.Observation, error) {
	return w.observation, nil
}

func (w *weatherStub) Search(ctx context.Context, query string) ([]weather.LocationMatch, error) {
	return nil, nil
}

type testServer struct {
	server   *httptest.Server
	accounts *application.AccountService
	provider *providerStub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := persistence.NewStore(testfixtures.NewKV(), logger)

	clock := testfixtures.NewClock(time.Time{})
	ids := testfixtures.NewIDGenerator("id")

	accounts := application.NewAccountServiceWithLogger(storeAdapter{store: store}, ids.NextFunc(), clock.NowFunc(), logger)
	accounts.Start(context.Background())

	tokens := NewTokenManager("test-secret", time.Hour)
	provider := &providerStub{response: assistant.ProviderResponse{Response: "ok"}}
	bridge := assistant.NewBridge(provider, accounts, &weatherStub{}, assistant.DefaultHistoryLimit, logger)

	// One refill per minute keeps the burst the only tokens available
	// within a test run.
	limiter := NewLimiterStore(1, 2, time.Minute)
	t.Cleanup(limiter.Stop)

	handler := NewRouter(RouterConfig{
		Auth:       NewAuthHandler(accounts, tokens, logger),
		Profile:    NewProfileHandler(accounts, logger),
		Contacts:   NewContactHandler(accounts, logger),
		Meetings:   NewMeetingHandler(accounts, clock.NowFunc(), logger),
		Chat:       NewChatHandler(bridge, logger),
		Weather:    NewWeatherHandler(&weatherStub{observation: weather.Observation{Location: "London", TempC: 11.5}}, accounts, logger),
		Session:    RequireSession(tokens, accounts, logger),
		ChatLimit:  RateLimit(limiter, logger),
		Middleware: []func(http.Handler) http.Handler{RequestLogger(logger)},
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testServer{server: server, accounts: accounts, provider: provider}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, ts.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var decoded T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func (ts *testServer) signup(t *testing.T) (string, accountDTO) {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	session := decodeBody[sessionResponse](t, resp)
	require.NotEmpty(t, session.Token)
	return session.Token, session.User
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSignupFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	_, user := ts.signup(t)

	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, workTimeDTO{Start: "09:00", End: "17:00"}, user.WorkTime)
	assert.Equal(t, []int{0, 6}, user.OffDays)
	assert.True(t, user.IsLoggedIn)
}

func TestSignupValidation(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	resp := ts.do(t, http.MethodPost, "/api/signup", "", map[string]string{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeBody[errorResponse](t, resp)
	assert.Contains(t, body.Errors, "name")
	assert.Contains(t, body.Errors, "email")
	assert.Contains(t, body.Errors, "secret")
}

func TestDuplicateSignupConflicts(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"name":     "Mallory",
		"email":    "alice@example.com",
		"password": "other",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginFlow(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decodeBody[errorResponse](t, resp)
	assert.Equal(t, "AUTH_INVALID_CREDENTIALS", body.ErrorCode)

	resp = ts.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email":    "Alice@Example.com",
		"password": "hunter2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	session := decodeBody[sessionResponse](t, resp)
	assert.True(t, session.User.IsLoggedIn)
	assert.False(t, session.Onboarding)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/profile", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogoutInvalidatesSession(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/logout", token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// The token still parses but no longer matches an authenticated aggregate.
	resp = ts.do(t, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProfileUpdate(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPatch, "/api/profile", token, map[string]any{
		"location": "Berlin, Germany",
		"offDays":  []int{5, 6},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated := decodeBody[accountDTO](t, resp)
	assert.Equal(t, "Berlin, Germany", updated.Location)
	assert.Equal(t, []int{5, 6}, updated.OffDays)
	assert.Equal(t, "alice@example.com", updated.Email)
}

func TestContactLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/contacts", token, map[string]string{
		"name":  "Bob",
		"email": "bob@example.com",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[contactDTO](t, resp)
	require.NotEmpty(t, created.ID)

	resp = ts.do(t, http.MethodPut, "/api/contacts/"+created.ID, token, map[string]string{
		"name":  "Robert",
		"email": "bob@example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/contacts", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]contactDTO](t, resp)
	require.Len(t, listed, 1)
	assert.Equal(t, "Robert", listed[0].Name)

	resp = ts.do(t, http.MethodPut, "/api/contacts/missing", token, map[string]string{
		"name":  "Ghost",
		"email": "ghost@example.com",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/contacts/"+created.ID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/contacts", token, nil)
	listed = decodeBody[[]contactDTO](t, resp)
	assert.Empty(t, listed)
}

func TestMeetingLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/meetings", token, map[string]any{
		"title": "Planning",
		"date":  "2024-03-10T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/meetings", token, map[string]any{
		"date": "2024-03-10T09:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	untitled := decodeBody[meetingDTO](t, resp)
	assert.Equal(t, "Untitled Meeting", untitled.Title)

	resp = ts.do(t, http.MethodGet, "/api/meetings", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listed := decodeBody[[]meetingDTO](t, resp)
	require.Len(t, listed, 2)
	assert.Equal(t, "Untitled Meeting", listed[0].Title)
	assert.Equal(t, "Planning", listed[1].Title)

	resp = ts.do(t, http.MethodPost, "/api/meetings", token, map[string]any{"date": "whenever"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/meetings/"+untitled.ID, token, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMeetingICSExport(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodPost, "/api/meetings", token, map[string]any{
		"title": "Planning",
		"date":  "2024-03-10T14:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/meetings/ics", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/calendar")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "BEGIN:VCALENDAR"))
	assert.Contains(t, string(body), "SUMMARY:Planning")
}

func TestChatEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	ts.provider.response = assistant.ProviderResponse{Response: "Hello Alice!"}
	resp := ts.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	reply := decodeBody[chatResponse](t, resp)
	assert.Equal(t, "Hello Alice!", reply.Reply)

	resp = ts.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": "   "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestChatRateLimit(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	// The test limiter allows a burst of two.
	for i := 0; i < 2; i++ {
		resp := ts.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": "hi"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodPost, "/api/chat", token, map[string]any{"message": "hi"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestWeatherEndpoint(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	token, _ := ts.signup(t)

	resp := ts.do(t, http.MethodGet, "/api/weather?location=London", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	observation := decodeBody[weather.Observation](t, resp)
	assert.Equal(t, "London", observation.Location)
	assert.Equal(t, 11.5, observation.TempC)
}

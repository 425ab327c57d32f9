package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/assistant"
	"github.com/example/meetassist/internal/config"
	httptransport "github.com/example/meetassist/internal/http"
	"github.com/example/meetassist/internal/logging"
	"github.com/example/meetassist/internal/persistence"
	"github.com/example/meetassist/internal/persistence/sqlite"
	"github.com/example/meetassist/internal/weather"
)

func main() {
	logger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	kv, err := sqlite.Open(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := kv.Migrate(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	store := persistence.NewStore(kv, logger)
	accounts := application.NewAccountServiceWithLogger(newStoreAdapter(store), uuid.NewString, time.Now, logger)
	accounts.Start(ctx)

	tokens := httptransport.NewTokenManager(cfg.SessionSecret, cfg.SessionTTL)
	weatherClient := weather.NewClient(cfg.WeatherAPIKey, cfg.WeatherBaseURL, logger)
	provider := assistant.NewHTTPProvider(cfg.AssistantURL, cfg.AssistantAPIKey, cfg.AssistantTimeout, logger)
	bridge := assistant.NewBridge(provider, accounts, weatherClient, cfg.HistoryLimit, logger)

	// Drop conversation history when the authenticated aggregate logs
	// out, so the next sign-in starts a fresh conversation.
	unsubscribe := accounts.Subscribe(newLogoutWatcher(bridge).observe)
	defer unsubscribe()

	refresher := cron.New()
	if _, err := refresher.AddFunc(cfg.WeatherRefreshCron, func() {
		current := accounts.Current()
		if !current.Authenticated || current.Location == "" {
			return
		}
		refreshCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := weatherClient.Refresh(refreshCtx, current.Location); err != nil {
			logger.Warn("failed to refresh weather", "location", current.Location, "error", err)
		}
	}); err != nil {
		logger.Error("invalid weather refresh schedule", "spec", cfg.WeatherRefreshCron, "error", err)
		os.Exit(1)
	}
	refresher.Start()
	defer refresher.Stop()

	limiter := httptransport.NewLimiterStore(cfg.ChatRatePerMinute, cfg.ChatRateBurst, 10*time.Minute)
	defer limiter.Stop()

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:       httptransport.NewAuthHandler(accounts, tokens, logger),
		Profile:    httptransport.NewProfileHandler(accounts, logger),
		Contacts:   httptransport.NewContactHandler(accounts, logger),
		Meetings:   httptransport.NewMeetingHandler(accounts, time.Now, logger),
		Chat:       httptransport.NewChatHandler(bridge, logger),
		Weather:    httptransport.NewWeatherHandler(weatherClient, accounts, logger),
		Session:    httptransport.RequireSession(tokens, accounts, logger),
		ChatLimit:  httptransport.RateLimit(limiter, logger),
		Middleware: []func(http.Handler) http.Handler{httptransport.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("assistant API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// logoutWatcher remembers who was signed in so a transition back to the
// guest aggregate can be attributed to an identifier.
type logoutWatcher struct {
	bridge *assistant.Bridge

	mu       sync.Mutex
	previous string
}

func newLogoutWatcher(bridge *assistant.Bridge) *logoutWatcher {
	return &logoutWatcher{bridge: bridge}
}

func (w *logoutWatcher) observe(account application.Account) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if account.Authenticated {
		w.previous = account.Email
		return
	}
	if w.previous != "" {
		w.bridge.ForgetHistory(w.previous)
		w.previous = ""
	}
}

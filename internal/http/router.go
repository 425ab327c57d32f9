package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

type RouterConfig struct {
	Auth     *AuthHandler
	Profile  *ProfileHandler
	Contacts *ContactHandler
	Meetings *MeetingHandler
	Chat     *ChatHandler
	Weather  *WeatherHandler

	// Session guards /api routes that need an authenticated aggregate.
	Session func(http.Handler) http.Handler
	// ChatLimit wraps only the chat endpoint.
	ChatLimit func(http.Handler) http.Handler
	// Middleware wraps the whole router, first entry outermost.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	router.Use(CORS)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	if cfg.Auth != nil {
		api.HandleFunc("/signup", cfg.Auth.Signup).Methods(http.MethodPost, http.MethodOptions)
		api.HandleFunc("/login", cfg.Auth.Login).Methods(http.MethodPost, http.MethodOptions)
	}

	session := cfg.Session
	if session == nil {
		session = func(next http.Handler) http.Handler { return next }
	}

	protected := api.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(session))

	if cfg.Auth != nil {
		protected.HandleFunc("/logout", cfg.Auth.Logout).Methods(http.MethodPost, http.MethodOptions)
	}

	if cfg.Profile != nil {
		protected.HandleFunc("/profile", cfg.Profile.Get).Methods(http.MethodGet, http.MethodOptions)
		protected.HandleFunc("/profile", cfg.Profile.Update).Methods(http.MethodPatch)
	}

	if cfg.Contacts != nil {
		protected.HandleFunc("/contacts", cfg.Contacts.List).Methods(http.MethodGet, http.MethodOptions)
		protected.HandleFunc("/contacts", cfg.Contacts.Create).Methods(http.MethodPost)
		protected.HandleFunc("/contacts/{id}", cfg.Contacts.Update).Methods(http.MethodPut, http.MethodOptions)
		protected.HandleFunc("/contacts/{id}", cfg.Contacts.Delete).Methods(http.MethodDelete)
	}

	if cfg.Meetings != nil {
		protected.HandleFunc("/meetings", cfg.Meetings.List).Methods(http.MethodGet, http.MethodOptions)
		protected.HandleFunc("/meetings", cfg.Meetings.Create).Methods(http.MethodPost)
		protected.HandleFunc("/meetings/ics", cfg.Meetings.ExportICS).Methods(http.MethodGet)
		protected.HandleFunc("/meetings/{id}", cfg.Meetings.Delete).Methods(http.MethodDelete, http.MethodOptions)
	}

	if cfg.Chat != nil {
		chat := http.Handler(http.HandlerFunc(cfg.Chat.Send))
		if cfg.ChatLimit != nil {
			chat = cfg.ChatLimit(chat)
		}
		protected.Handle("/chat", chat).Methods(http.MethodPost, http.MethodOptions)
	}

	if cfg.Weather != nil {
		protected.HandleFunc("/weather", cfg.Weather.Get).Methods(http.MethodGet, http.MethodOptions)
	}

	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

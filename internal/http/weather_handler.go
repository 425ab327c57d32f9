package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/weather"
)

type weatherService interface {
	Current(ctx context.Context, location string) (weather.Observation, error)
}

type WeatherHandler struct {
	service   weatherService
	accounts  CurrentAccountProvider
	responder responder
	logger    *slog.Logger
}

func NewWeatherHandler(service weatherService, accounts CurrentAccountProvider, logger *slog.Logger) *WeatherHandler {
	base := defaultLogger(logger)
	return &WeatherHandler{service: service, accounts: accounts, responder: newResponder(base), logger: base}
}

// Get answers current conditions for ?location=, falling back to the
// aggregate's saved location.
func (h *WeatherHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	location := strings.TrimSpace(r.URL.Query().Get("location"))
	if location == "" && h.accounts != nil {
		location = h.accounts.Current().Location
	}
	if location == "" {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "There are problems with the submitted values.",
			Errors:  map[string]string{"location": "location is required"},
		})
		return
	}

	observation, err := h.service.Current(r.Context(), location)
	if err != nil {
		logger := handlerLogger(r.Context(), h.logger, "WeatherHandler", "Get", "location", location)
		logger.ErrorContext(r.Context(), "weather lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.writeJSON(r.Context(), w, http.StatusBadGateway, errorResponse{
			Message: "The weather service is unavailable right now.",
		})
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, observation)
}

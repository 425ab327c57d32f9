package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/meetassist/internal/application"
	"github.com/example/meetassist/internal/ical"
)

type meetingService interface {
	Current() application.Account
	AddMeeting(ctx context.Context, input application.MeetingInput) (application.Meeting, error)
	DeleteMeeting(ctx context.Context, id string) error
}

type MeetingHandler struct {
	service   meetingService
	now       func() time.Time
	responder responder
	logger    *slog.Logger
}

func NewMeetingHandler(service meetingService, now func() time.Time, logger *slog.Logger) *MeetingHandler {
	if now == nil {
		now = time.Now
	}
	base := defaultLogger(logger)
	return &MeetingHandler{service: service, now: now, responder: newResponder(base), logger: base}
}

func (h *MeetingHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MeetingHandler", operation, attrs...)
}

type meetingDTO struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes,omitempty"`
}

func newMeetingDTO(meeting application.Meeting) meetingDTO {
	participants := meeting.Participants
	if participants == nil {
		participants = []string{}
	}
	return meetingDTO{
		ID:           meeting.ID,
		Title:        meeting.Title,
		Date:         meeting.Date.Format(time.RFC3339Nano),
		Participants: participants,
		Notes:        meeting.Notes,
	}
}

type meetingRequest struct {
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Participants []string `json:"participants"`
	Notes        string   `json:"notes"`
}

func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	meetings := h.service.Current().Meetings
	payload := make([]meetingDTO, 0, len(meetings))
	for _, meeting := range meetings {
		payload = append(payload, newMeetingDTO(meeting))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req meetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	meeting, err := h.service.AddMeeting(r.Context(), application.MeetingInput{
		Title:        req.Title,
		Date:         req.Date,
		Participants: req.Participants,
		Notes:        req.Notes,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "meeting rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting created", "meeting_id", meeting.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newMeetingDTO(meeting))
}

func (h *MeetingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	logger := h.log(r.Context(), "Delete", "meeting_id", id)

	if err := h.service.DeleteMeeting(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "meeting delete rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "meeting deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// ExportICS streams the aggregate's meetings as an iCalendar document.
func (h *MeetingHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	serialized := ical.Export(h.service.Current(), h.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="meetings.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(serialized)); err != nil {
		h.log(r.Context(), "ExportICS").ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

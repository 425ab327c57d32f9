package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/meetassist/internal/application"
)

type profileService interface {
	Current() application.Account
	UpdateProfile(ctx context.Context, settings application.Settings) (application.Account, error)
}

type ProfileHandler struct {
	service   profileService
	responder responder
	logger    *slog.Logger
}

func NewProfileHandler(service profileService, logger *slog.Logger) *ProfileHandler {
	base := defaultLogger(logger)
	return &ProfileHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProfileHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProfileHandler", operation, attrs...)
}

type workTimeDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type accountDTO struct {
	Name       string      `json:"name"`
	Email      string      `json:"email"`
	Avatar     string      `json:"avatar"`
	Location   string      `json:"location"`
	WorkTime   workTimeDTO `json:"workTime"`
	OffDays    []int       `json:"offDays"`
	IsLoggedIn bool        `json:"isLoggedIn"`
}

func newAccountDTO(account application.Account) accountDTO {
	offDays := account.OffDays
	if offDays == nil {
		offDays = []int{}
	}
	return accountDTO{
		Name:       account.Name,
		Email:      account.Email,
		Avatar:     account.Avatar,
		Location:   account.Location,
		WorkTime:   workTimeDTO{Start: account.WorkTime.Start, End: account.WorkTime.End},
		OffDays:    offDays,
		IsLoggedIn: account.Authenticated,
	}
}

type updateProfileRequest struct {
	Name          *string `json:"name"`
	Location      *string `json:"location"`
	Avatar        *string `json:"avatar"`
	WorkTimeStart *string `json:"workTimeStart"`
	WorkTimeEnd   *string `json:"workTimeEnd"`
	OffDays       []int   `json:"offDays"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, newAccountDTO(h.service.Current()))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update")

	updated, err := h.service.UpdateProfile(r.Context(), application.Settings{
		Name:          req.Name,
		Location:      req.Location,
		Avatar:        req.Avatar,
		WorkTimeStart: req.WorkTimeStart,
		WorkTimeEnd:   req.WorkTimeEnd,
		OffDays:       req.OffDays,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "profile update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "profile updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newAccountDTO(updated))
}

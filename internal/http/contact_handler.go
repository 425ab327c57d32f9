package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/example/meetassist/internal/application"
)

type contactService interface {
	Current() application.Account
	AddContact(ctx context.Context, input application.ContactInput) (application.Contact, error)
	UpdateContact(ctx context.Context, contact application.Contact) error
	DeleteContact(ctx context.Context, id string) error
}

type ContactHandler struct {
	service   contactService
	responder responder
	logger    *slog.Logger
}

func NewContactHandler(service contactService, logger *slog.Logger) *ContactHandler {
	base := defaultLogger(logger)
	return &ContactHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ContactHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ContactHandler", operation, attrs...)
}

type contactDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Number      string `json:"number,omitempty"`
	Description string `json:"description,omitempty"`
}

func newContactDTO(contact application.Contact) contactDTO {
	return contactDTO{
		ID:          contact.ID,
		Name:        contact.Name,
		Email:       contact.Email,
		Number:      contact.Number,
		Description: contact.Description,
	}
}

type contactRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Number      string `json:"number"`
	Description string `json:"description"`
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	contacts := h.service.Current().Contacts
	payload := make([]contactDTO, 0, len(contacts))
	for _, contact := range contacts {
		payload = append(payload, newContactDTO(contact))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, payload)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")

	contact, err := h.service.AddContact(r.Context(), application.ContactInput{
		Name:        req.Name,
		Email:       req.Email,
		Number:      req.Number,
		Description: req.Description,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "contact rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact created", "contact_id", contact.ID)
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, newContactDTO(contact))
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidContactID)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "contact_id", id)

	contact := application.Contact{
		ID:          id,
		Name:        req.Name,
		Email:       req.Email,
		Number:      req.Number,
		Description: req.Description,
	}
	if err := h.service.UpdateContact(r.Context(), contact); err != nil {
		logger.ErrorContext(r.Context(), "contact update rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, newContactDTO(contact))
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	if id == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidContactID)
		return
	}

	logger := h.log(r.Context(), "Delete", "contact_id", id)

	if err := h.service.DeleteContact(r.Context(), id); err != nil {
		logger.ErrorContext(r.Context(), "contact delete rejected", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

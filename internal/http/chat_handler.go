package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type chatBridge interface {
	HandleInstruction(ctx context.Context, instruction string, openAIMode bool) string
}

type ChatHandler struct {
	bridge    chatBridge
	responder responder
	logger    *slog.Logger
}

func NewChatHandler(bridge chatBridge, logger *slog.Logger) *ChatHandler {
	base := defaultLogger(logger)
	return &ChatHandler{bridge: bridge, responder: newResponder(base), logger: base}
}

type chatRequest struct {
	Message    string `json:"message"`
	OpenAIMode bool   `json:"openAiMode"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.bridge == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		h.responder.writeJSON(r.Context(), w, http.StatusUnprocessableEntity, errorResponse{
			Message: "There are problems with the submitted values.",
			Errors:  map[string]string{"message": "message is required"},
		})
		return
	}

	reply := h.bridge.HandleInstruction(r.Context(), message, req.OpenAIMode)
	h.responder.writeJSON(r.Context(), w, http.StatusOK, chatResponse{Reply: reply})
}

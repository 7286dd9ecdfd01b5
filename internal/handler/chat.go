package handler

import (
	"log/slog"
	"net/http"

	"latentchat/internal/domain"
	"latentchat/internal/httputil"
	"latentchat/internal/service"
)

// ChatHandler handles conversation HTTP requests
type ChatHandler struct {
	chat   *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

// messageView is a message with its render-time actions resolved.
type messageView struct {
	domain.Message
	Actions []domain.Action `json:"actions,omitempty"`
}

func (h *ChatHandler) view(m domain.Message) messageView {
	return messageView{Message: m, Actions: h.chat.Actions(m)}
}

// SendMessage submits a prompt and returns the terminal assistant message
// POST /api/messages
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt    string `json:"prompt"`
		Modifiers string `json:"modifiers"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.chat.Send(r.Context(), req.Prompt, req.Modifiers)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, h.view(*msg))
}

// ListMessages returns the conversation history in display order
// GET /api/messages
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	history := h.chat.History()

	views := make([]messageView, 0, len(history))
	for _, m := range history {
		views = append(views, h.view(m))
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// RetryMessage re-submits a message's exact prompt and modifiers
// POST /api/messages/{id}/retry
func (h *ChatHandler) RetryMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.chat.Retry(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, h.view(*msg))
}

// RemixMessage re-submits a message's prompt with freshly synthesized modifiers
// POST /api/messages/{id}/remix
func (h *ChatHandler) RemixMessage(w http.ResponseWriter, r *http.Request) {
	msg, err := h.chat.Remix(r.Context(), r.PathValue("id"))
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, h.view(*msg))
}

// DeleteMessage removes a message; absent ids succeed silently
// DELETE /api/messages/{id}
func (h *ChatHandler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	h.chat.Remove(r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

// LastPrompt returns the most recent user prompt for input recall
// GET /api/messages/last
func (h *ChatHandler) LastPrompt(w http.ResponseWriter, r *http.Request) {
	prompt, ok := h.chat.LastUserPrompt()
	if !ok {
		httputil.RespondError(w, http.StatusNotFound, "no messages yet")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

// Surprise returns a randomly synthesized prompt
// GET /api/surprise
func (h *ChatHandler) Surprise(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"prompt": h.chat.Surprise()})
}

// RateMessage records a 1..5 rating for a message's artifacts
// POST /api/rate
func (h *ChatHandler) RateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageID string `json:"message_id"`
		Rating    int    `json:"rating"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	msg, err := h.chat.Rate(r.Context(), req.MessageID, req.Rating)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, h.view(*msg))
}

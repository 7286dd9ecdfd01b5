package handler

import (
	"log/slog"
	"net/http"

	"latentchat/internal/httputil"
	"latentchat/internal/promptbook"
)

// PromptBookHandler handles saved-prompt HTTP requests
type PromptBookHandler struct {
	book   *promptbook.Book
	logger *slog.Logger
}

// NewPromptBookHandler creates a new prompt book handler
func NewPromptBookHandler(book *promptbook.Book, logger *slog.Logger) *PromptBookHandler {
	return &PromptBookHandler{book: book, logger: logger}
}

type promptRequest struct {
	Prompt string `json:"prompt"`
}

// ListPrompts returns all saved prompts in insertion order
// GET /api/prompts
func (h *PromptBookHandler) ListPrompts(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, h.book.All())
}

// SavePrompt adds a prompt to the book; duplicates succeed without effect
// POST /api/prompts
func (h *PromptBookHandler) SavePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil || req.Prompt == "" {
		httputil.RespondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if err := h.book.Add(req.Prompt); err != nil {
		h.logger.Error("failed to persist prompt book", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to save prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemovePrompt deletes a prompt from the book; absent prompts succeed
// DELETE /api/prompts
func (h *PromptBookHandler) RemovePrompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil || req.Prompt == "" {
		httputil.RespondError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	if err := h.book.Remove(req.Prompt); err != nil {
		h.logger.Error("failed to persist prompt book", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "failed to remove prompt")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

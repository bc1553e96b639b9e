// Package handler provides HTTP handlers for the status API.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aria-ai/recruiter-agent/internal/middleware"
	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/store"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	store  store.Store
	logger *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(st store.Store, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:  st,
		logger: log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	convs, err := h.store.ListActive(ctx)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeError(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	total := len(convs)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	summaries := make([]model.ConversationSummary, 0, end-offset)
	for _, conv := range convs[offset:end] {
		summaries = append(summaries, conv.Summary())
	}

	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: summaries,
		Total:         total,
	})
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	threadID := chi.URLParam(r, "id")

	if err := middleware.ValidateThreadID(threadID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, err := h.store.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "conversation not found")
			return
		}
		h.logger.Error("failed to get conversation")
		writeError(w, http.StatusInternalServerError, "failed to get conversation")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

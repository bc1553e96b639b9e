package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aria-ai/recruiter-agent/internal/model"
	"github.com/aria-ai/recruiter-agent/internal/store"
	"github.com/aria-ai/recruiter-agent/pkg/logger"
)

func newTestRouter(t *testing.T) (*chi.Mux, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	h := NewConversationHandler(st, logger.NewNop())

	r := chi.NewRouter()
	r.Get("/api/v1/conversations", h.List)
	r.Get("/api/v1/conversations/{id}", h.Get)
	return r, st
}

func seedConversation(t *testing.T, st store.Store, threadID, company string) {
	t.Helper()
	ctx := context.Background()
	conv, err := st.GetOrCreate(ctx, threadID, model.ChannelEmail)
	require.NoError(t, err)
	conv.Facts.Company = company
	conv.Append(model.Message{ID: "m1", Direction: model.DirectionIncoming, Content: "hi"})
	require.NoError(t, st.Commit(ctx, conv, nil))
}

func TestListConversations(t *testing.T) {
	r, st := newTestRouter(t)
	seedConversation(t, st, "T1", "Acme")
	seedConversation(t, st, "T2", "Initech")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Conversations, 2)
	assert.Equal(t, 1, resp.Conversations[0].MessageCount)
}

func TestListConversationsPagination(t *testing.T) {
	r, st := newTestRouter(t)
	seedConversation(t, st, "T1", "Acme")
	seedConversation(t, st, "T2", "Initech")
	seedConversation(t, st, "T3", "Globex")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations?limit=2&offset=2", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ListConversationsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Total)
	assert.Len(t, resp.Conversations, 1)
}

func TestGetConversation(t *testing.T) {
	r, st := newTestRouter(t)
	seedConversation(t, st, "T1", "Acme")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/T1", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var conv model.Conversation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &conv))
	assert.Equal(t, "T1", conv.ThreadID)
	assert.Equal(t, "Acme", conv.Facts.Company)
	assert.Len(t, conv.History, 1)
}

func TestGetConversationNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package session

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

func newTestHandler(t *testing.T) (*Handler, *lead.InMemoryRepository) {
	t.Helper()

	repo := lead.NewInMemoryRepository()
	orch := NewOrchestrator(dialogue.New(), NewMemoryStore(0),
		WithLeadRepository(repo),
		WithLogger(logging.Default()),
	)
	return NewHandler(orch, repo, logging.Default()), repo
}

func newHandlerRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/api/v1/conversations", h.StartConversation)
	r.Get("/api/v1/conversations/{sessionID}", h.GetConversation)
	r.Delete("/api/v1/conversations/{sessionID}", h.EndConversation)
	r.Post("/api/v1/conversations/{sessionID}/turns", h.PostTurn)
	r.Get("/api/v1/conversations/{sessionID}/lead", h.GetLead)
	return r
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeConversation(t *testing.T, rr *httptest.ResponseRecorder) ConversationResponse {
	t.Helper()

	var resp ConversationResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	return resp
}

func TestStartConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	rr := postJSON(t, router, "/api/v1/conversations", StartConversationRequest{SessionID: "sess-1"})

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeConversation(t, rr)
	assert.Equal(t, "sess-1", resp.SessionID)
	assert.Equal(t, dialogue.PhaseName, resp.Phase)
	assert.True(t, resp.AwaitingInput)
	assert.NotEmpty(t, resp.Response)
}

func TestStartConversationGeneratesSessionID(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	resp := decodeConversation(t, rr)
	assert.NotEmpty(t, resp.SessionID)
}

func TestStartConversationRejectsBadBody(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostTurnAdvancesConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	rr := postJSON(t, router, "/api/v1/conversations", StartConversationRequest{SessionID: "sess-turn"})
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, router, "/api/v1/conversations/sess-turn/turns", TurnRequest{Transcript: "My name is John Smith"})

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeConversation(t, rr)
	assert.Equal(t, dialogue.PhaseCompany, resp.Phase)
	assert.Equal(t, "John Smith", resp.Lead.Name)
	assert.True(t, resp.AwaitingInput)
}

func TestPostTurnRequiresTranscript(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	rr := postJSON(t, router, "/api/v1/conversations/sess-x/turns", TurnRequest{})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	postJSON(t, router, "/api/v1/conversations", StartConversationRequest{SessionID: "sess-get"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/sess-get", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeConversation(t, rr)
	assert.Equal(t, "sess-get", resp.SessionID)
}

func TestGetConversationNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/missing", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestEndConversation(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	postJSON(t, router, "/api/v1/conversations", StartConversationRequest{SessionID: "sess-end"})

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/conversations/sess-end", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/conversations/sess-end", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetLead(t *testing.T) {
	h, repo := newTestHandler(t)
	router := newHandlerRouter(h)

	_, err := repo.Create(context.Background(), "sess-lead", lead.Info{Name: "Jane", Email: "jane@acme.com"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/sess-lead/lead", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var rec lead.Record
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&rec))
	assert.Equal(t, "Jane", rec.Info.Name)
}

func TestGetLeadNotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	router := newHandlerRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conversations/nobody/lead", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

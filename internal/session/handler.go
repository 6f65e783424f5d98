package session

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dioinnovo/voicelead/internal/dialogue"
	"github.com/dioinnovo/voicelead/internal/lead"
	"github.com/dioinnovo/voicelead/pkg/logging"
)

// Handler handles HTTP requests for conversation sessions
type Handler struct {
	orch   *Orchestrator
	leads  lead.Repository
	logger *logging.Logger
}

// NewHandler creates a new conversation handler
func NewHandler(orch *Orchestrator, leads lead.Repository, logger *logging.Logger) *Handler {
	if orch == nil {
		panic("session: handler requires an orchestrator")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		orch:   orch,
		leads:  leads,
		logger: logger,
	}
}

// StartConversationRequest is the body for POST /api/v1/conversations.
// SessionID is optional; an empty one gets a generated UUID.
type StartConversationRequest struct {
	SessionID string `json:"session_id"`
}

// TurnRequest is the body for posting one user transcript to a session.
type TurnRequest struct {
	Transcript string `json:"transcript"`
}

// ConversationResponse is the wire view of a session after a turn.
type ConversationResponse struct {
	SessionID     string             `json:"session_id"`
	Phase         dialogue.Phase     `json:"phase"`
	Response      string             `json:"ai_response,omitempty"`
	UIAction      *dialogue.UIAction `json:"ui_action,omitempty"`
	AwaitingInput bool               `json:"awaiting_input"`
	Completed     bool               `json:"completed"`
	Qualified     bool               `json:"qualified"`
	Lead          lead.Info          `json:"lead_info"`
	Err           string             `json:"error,omitempty"`
}

func conversationView(s *dialogue.State) ConversationResponse {
	return ConversationResponse{
		SessionID:     s.SessionID,
		Phase:         s.Phase,
		Response:      s.Response,
		UIAction:      s.UIAction,
		AwaitingInput: s.AwaitingInput,
		Completed:     s.Phase.Terminal(),
		Qualified:     s.Qualified(),
		Lead:          s.Lead,
		Err:           s.Err,
	}
}

// StartConversation handles POST /api/v1/conversations requests
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	var req StartConversationRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.logger.Error("failed to decode request", "error", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	state, err := h.orch.Start(r.Context(), req.SessionID)
	if err != nil {
		h.logger.Error("failed to start session", "error", err)
		http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, conversationView(state))
}

// PostTurn handles POST /api/v1/conversations/{sessionID}/turns requests
func (h *Handler) PostTurn(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}

	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Transcript == "" {
		http.Error(w, "missing transcript", http.StatusBadRequest)
		return
	}

	state, err := h.orch.ProcessTranscript(r.Context(), sessionID, req.Transcript)
	if err != nil {
		h.logger.Error("failed to process transcript", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to process transcript", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, conversationView(state))
}

// GetConversation handles GET /api/v1/conversations/{sessionID} requests
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}

	state, err := h.orch.GetState(r.Context(), sessionID)
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Conversation not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load session", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to load conversation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, conversationView(state))
}

// EndConversation handles DELETE /api/v1/conversations/{sessionID} requests
func (h *Handler) EndConversation(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}

	if err := h.orch.End(r.Context(), sessionID); err != nil {
		h.logger.Error("failed to end session", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to end conversation", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLead handles GET /api/v1/conversations/{sessionID}/lead requests
func (h *Handler) GetLead(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "missing session_id", http.StatusBadRequest)
		return
	}
	if h.leads == nil {
		http.Error(w, "lead storage not configured", http.StatusNotImplemented)
		return
	}

	rec, err := h.leads.GetBySession(r.Context(), sessionID)
	if errors.Is(err, lead.ErrNotFound) {
		http.Error(w, "Lead not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("failed to load lead", "session_id", sessionID, "error", err)
		http.Error(w, "Failed to load lead", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, rec)
}

// HealthCheck handles GET /health requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

package conversation

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/espacodiva/bellabot/pkg/logging"
)

// Handler wires HTTP requests to the conversation service.
type Handler struct {
	service Service
	logger  *logging.Logger
}

// NewHandler creates a conversation handler.
func NewHandler(service Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type startPayload struct {
	SessionID string  `json:"session_id"`
	Contact   string  `json:"contact,omitempty"`
	Channel   Channel `json:"channel,omitempty"`
}

type messagePayload struct {
	SessionID string  `json:"session_id"`
	Contact   string  `json:"contact,omitempty"`
	Message   string  `json:"message"`
	Channel   Channel `json:"channel,omitempty"`
}

type responsePayload struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Stage     Stage  `json:"stage"`
	Timestamp string `json:"timestamp"`
}

// Start handles POST /conversations/start.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req startPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode start request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.StartConversation(r.Context(), StartRequest{
		SessionID: req.SessionID,
		Contact:   req.Contact,
		Channel:   req.Channel,
	})
	if err != nil {
		h.logger.Error("failed to start conversation", "error", err)
		http.Error(w, "Failed to start conversation", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, toResponsePayload(resp))
}

// Message handles POST /conversations/message.
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	var req messagePayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode message request", "error", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	resp, err := h.service.ProcessMessage(r.Context(), MessageRequest{
		SessionID: req.SessionID,
		Contact:   req.Contact,
		Message:   req.Message,
		Channel:   req.Channel,
	})
	if err != nil {
		h.logger.Error("failed to process message", "error", err)
		http.Error(w, "Failed to process message", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, toResponsePayload(resp))
}

// History handles GET /conversations/{sessionID}/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		http.Error(w, "sessionID is required", http.StatusBadRequest)
		return
	}

	messages, err := h.service.GetHistory(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("failed to load history", "error", err)
		http.Error(w, "Failed to load history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []Message{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   messages,
	})
}

func toResponsePayload(resp *Response) responsePayload {
	return responsePayload{
		SessionID: resp.SessionID,
		Message:   resp.Message,
		Stage:     resp.Stage,
		Timestamp: resp.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}

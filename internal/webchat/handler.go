package webchat

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/espacodiva/bellabot/internal/conversation"
	"github.com/espacodiva/bellabot/pkg/logging"
)

// Handler relays widget messages to the conversation service over
// WebSocket, with an HTTP fallback for environments that block upgrades.
type Handler struct {
	service conversation.Service
	logger  *logging.Logger

	mu       sync.RWMutex
	sessions map[string]*wsConn // sessionID -> active connection
}

type wsConn struct {
	conn *websocket.Conn
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Contact   string `json:"contact,omitempty"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string           `json:"type"` // "message", "history", "session", "pong", "error"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	Stage     string           `json:"stage,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// NewHandler creates a web chat handler.
func NewHandler(service conversation.Service, logger *logging.Logger) *Handler {
	if service == nil {
		panic("webchat: conversation service cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service:  service,
		logger:   logger,
		sessions: make(map[string]*wsConn),
	}
}

// generateSessionID creates a random session identifier.
func generateSessionID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return uuid.New().String()
	}
	return hex.EncodeToString(b)
}

// HandleWebSocket upgrades to WebSocket and handles real-time messaging.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		sessionID = generateSessionID()
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "session",
		SessionID: sessionID,
	})

	if history, err := h.service.GetHistory(r.Context(), sessionID); err == nil && len(history) > 0 {
		messages := make([]HistoryMessage, 0, len(history))
		for _, m := range history {
			messages = append(messages, HistoryMessage{Role: m.Role, Text: m.Content})
		}
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: messages})
	} else {
		h.sendGreeting(r.Context(), conn, sessionID)
	}

	wsc := &wsConn{conn: conn}
	h.mu.Lock()
	h.sessions[sessionID] = wsc
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		if h.sessions[sessionID] == wsc {
			delete(h.sessions, sessionID)
		}
		h.mu.Unlock()
	}()

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		reply, err := h.service.ProcessMessage(r.Context(), conversation.MessageRequest{
			SessionID: sessionID,
			Contact:   msg.Contact,
			Message:   msg.Text,
			Channel:   conversation.ChannelWebchat,
		})
		if err != nil {
			h.logger.Error("webchat: turn failed", "error", err, "session_id", sessionID)
			_ = websocket.JSON.Send(conn, OutboundMessage{
				Type: "error",
				Text: "Desculpe, algo deu errado. Tente novamente.",
			})
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Role:      "assistant",
			Text:      reply.Message,
			Stage:     string(reply.Stage),
			SessionID: sessionID,
			Timestamp: reply.Timestamp.Format(time.RFC3339),
		})
	}
}

func (h *Handler) sendGreeting(ctx context.Context, conn *websocket.Conn, sessionID string) {
	resp, err := h.service.StartConversation(ctx, conversation.StartRequest{
		SessionID: sessionID,
		Channel:   conversation.ChannelWebchat,
	})
	if err != nil {
		h.logger.Error("webchat: greeting failed", "error", err, "session_id", sessionID)
		return
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{
		Type:      "message",
		Role:      "assistant",
		Text:      resp.Message,
		SessionID: sessionID,
		Timestamp: resp.Timestamp.Format(time.RFC3339),
	})
}

// HandleMessage is the HTTP fallback for sending messages.
func (h *Handler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Contact   string `json:"contact,omitempty"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = generateSessionID()
	}

	resp, err := h.service.ProcessMessage(r.Context(), conversation.MessageRequest{
		SessionID: req.SessionID,
		Contact:   req.Contact,
		Message:   req.Text,
		Channel:   conversation.ChannelWebchat,
	})
	if err != nil {
		h.logger.Error("webchat: turn failed", "error", err, "session_id", req.SessionID)
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"session_id": req.SessionID,
		"message":    resp.Message,
		"stage":      string(resp.Stage),
	})
}

// HandleHistory returns chat history for a session.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	history, err := h.service.GetHistory(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("webchat: failed to load history", "error", err)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}

	messages := make([]HistoryMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, HistoryMessage{Role: m.Role, Text: m.Content})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"messages": messages})
}

package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/espacodiva/bellabot/internal/conversation"
)

type stubService struct {
	history []conversation.Message
}

func (s *stubService) StartConversation(ctx context.Context, req conversation.StartRequest) (*conversation.Response, error) {
	return &conversation.Response{
		SessionID: req.SessionID,
		Message:   "Olá! Eu sou a Bella.",
		Stage:     conversation.StageIdle,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *stubService) ProcessMessage(ctx context.Context, req conversation.MessageRequest) (*conversation.Response, error) {
	return &conversation.Response{
		SessionID: req.SessionID,
		Message:   "Qual é o seu nome completo?",
		Stage:     conversation.StageAwaitingName,
		Timestamp: time.Now().UTC(),
	}, nil
}

func (s *stubService) GetHistory(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	return s.history, nil
}

func TestHandleMessageFallback(t *testing.T) {
	h := NewHandler(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message",
		strings.NewReader(`{"session_id":"maria","text":"quero agendar"}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "maria", payload["session_id"])
	assert.Equal(t, string(conversation.StageAwaitingName), payload["stage"])
}

func TestHandleMessageGeneratesSessionID(t *testing.T) {
	h := NewHandler(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message",
		strings.NewReader(`{"text":"oi"}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	var payload map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.NotEmpty(t, payload["session_id"])
}

func TestHandleMessageRequiresText(t *testing.T) {
	h := NewHandler(&stubService{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/webchat/message", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleMessage(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleHistory(t *testing.T) {
	h := NewHandler(&stubService{history: []conversation.Message{
		{Role: "user", Content: "quero agendar"},
		{Role: "assistant", Content: "Qual é o seu nome completo?"},
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/webchat/history?session=maria", nil)
	rec := httptest.NewRecorder()
	h.HandleHistory(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload struct {
		Messages []HistoryMessage `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Len(t, payload.Messages, 2)
}

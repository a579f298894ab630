package conversation

import (
	"context"
	"time"
)

// Service describes how the conversation engine should behave.
type Service interface {
	StartConversation(ctx context.Context, req StartRequest) (*Response, error)
	ProcessMessage(ctx context.Context, req MessageRequest) (*Response, error)
	GetHistory(ctx context.Context, sessionID string) ([]Message, error)
}

// Message represents a single message in a conversation transcript.
type Message struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Channel identifies which transport the conversation is happening on.
type Channel string

const (
	ChannelUnknown  Channel = ""
	ChannelTerminal Channel = "terminal"
	ChannelWebchat  Channel = "webchat"
)

// StartRequest represents the minimal data we need to open a session.
type StartRequest struct {
	SessionID string
	Contact   string
	Channel   Channel
	Metadata  map[string]string
}

// MessageRequest represents a single turn in the conversation.
type MessageRequest struct {
	SessionID string
	Contact   string
	Message   string
	Channel   Channel
	Metadata  map[string]string
}

// Response is a simple DTO returned to the transport layer.
type Response struct {
	SessionID string
	Message   string
	Stage     Stage
	Timestamp time.Time
}

package conversation

import "context"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of the transcript handed to the language model.
type ChatMessage struct {
	Role    string
	Content string
}

// LLMRequest carries the persona instructions and the running transcript.
// The last message is the prompt to answer; everything before it is history.
type LLMRequest struct {
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

// LLMResponse holds the model's reply text.
type LLMResponse struct {
	Text string
}

// LLMClient generates one reply for the oracle. Implementations must honor
// ctx cancellation; the oracle applies its own per-attempt timeout.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

package conversation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/espacodiva/bellabot/pkg/logging"
)

// ErrOracleUnavailable signals that the language oracle failed, timed out,
// or returned nothing usable. Callers recover with canned responses and
// never surface this to the end user.
var ErrOracleUnavailable = errors.New("conversation: language oracle unavailable")

// Oracle wraps an LLMClient with per-attempt timeouts and jittered retry.
// It owns the resilience policy so the engine can treat every failure mode
// uniformly as ErrOracleUnavailable.
type Oracle struct {
	llm      LLMClient
	attempts int
	timeout  time.Duration
	logger   *logging.Logger
}

// NewOracle builds an Oracle. A nil llm is allowed; every Ask then fails
// with ErrOracleUnavailable, which keeps the canned-fallback path testable
// without network access.
func NewOracle(llm LLMClient, attempts int, timeout time.Duration, logger *logging.Logger) *Oracle {
	if attempts <= 0 {
		attempts = 3
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Oracle{
		llm:      llm,
		attempts: attempts,
		timeout:  timeout,
		logger:   logger,
	}
}

// Ask sends the transcript plus a new user prompt to the oracle and returns
// its reply text. Blank replies count as failures.
func (o *Oracle) Ask(ctx context.Context, system []string, history []Message, prompt string) (string, error) {
	if o.llm == nil {
		return "", ErrOracleUnavailable
	}

	messages := make([]ChatMessage, 0, len(history)+1)
	for _, msg := range history {
		messages = append(messages, ChatMessage{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: prompt})

	req := LLMRequest{
		System:      system,
		Messages:    messages,
		MaxTokens:   512,
		Temperature: 0.7,
	}

	var lastErr error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
		resp, err := o.llm.Complete(attemptCtx, req)
		cancel()

		if err == nil && strings.TrimSpace(resp.Text) != "" {
			return strings.TrimSpace(resp.Text), nil
		}
		if err == nil {
			err = errors.New("conversation: oracle returned empty text")
		}
		lastErr = err
		o.logger.Warn("oracle attempt failed", "attempt", attempt, "error", err)

		if attempt < o.attempts {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, ctx.Err())
			case <-time.After(backoffWithJitter(attempt)):
			}
		}
	}

	return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, lastErr)
}

// backoffWithJitter returns 1s, 2s, 4s... plus up to 500ms of jitter.
func backoffWithJitter(attempt int) time.Duration {
	base := time.Second << (attempt - 1)
	if base > 8*time.Second {
		base = 8 * time.Second
	}
	return base + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
}

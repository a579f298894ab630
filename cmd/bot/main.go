// Command bot runs the salon assistant as an interactive terminal session.
// It keeps everything in process memory and needs no external services;
// set GEMINI_API_KEY to get generated phrasing instead of canned replies.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	appconfig "github.com/espacodiva/bellabot/internal/config"
	"github.com/espacodiva/bellabot/internal/conversation"
	"github.com/espacodiva/bellabot/internal/schedule"
	"github.com/espacodiva/bellabot/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	// Keep stdout clean for the conversation itself.
	logger := logging.NewWithWriter(cfg.LogLevel, os.Stderr)

	var regOpts []schedule.MemoryOption
	if cfg.BookingLog != "" {
		bookLog, err := schedule.NewBookingLog(cfg.BookingLog)
		if err != nil {
			logger.Error("failed to open booking log", "error", err, "path", cfg.BookingLog)
			os.Exit(1)
		}
		regOpts = append(regOpts, schedule.WithBookingLog(bookLog))
	}
	registry, err := schedule.NewMemoryRegistry(regOpts...)
	if err != nil {
		logger.Error("failed to build slot registry", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var llm conversation.LLMClient
	if cfg.GeminiAPIKey != "" {
		gemini, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = gemini.Close() }()
		llm = gemini
	}
	oracle := conversation.NewOracle(llm, cfg.OracleAttempts, cfg.OracleTimeout, logger)

	engine := conversation.NewEngine(
		registry,
		conversation.NewMemorySessionStore(cfg.SessionTTL),
		oracle,
		logger,
	)

	sessionID := uuid.NewString()

	greeting, err := engine.StartConversation(ctx, conversation.StartRequest{
		SessionID: sessionID,
		Channel:   conversation.ChannelTerminal,
	})
	if err != nil {
		logger.Error("failed to start conversation", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Bella: %s\n\n", greeting.Message)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Você: ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		resp, err := engine.ProcessMessage(ctx, conversation.MessageRequest{
			SessionID: sessionID,
			Message:   text,
			Channel:   conversation.ChannelTerminal,
		})
		if err != nil {
			logger.Error("failed to process message", "error", err)
			continue
		}
		fmt.Printf("\nBella: %s\n\n", resp.Message)

		if isExit(text) && resp.Stage == conversation.StageIdle {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("stdin read failed", "error", err)
		os.Exit(1)
	}
}

func isExit(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "0", "sair", "tchau":
		return true
	}
	return false
}

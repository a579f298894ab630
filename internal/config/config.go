package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port           string
	Env            string
	LogLevel       string
	UseMemoryQueue bool
	WorkerCount    int
	DatabaseURL    string

	// Conversation queue (SQS-compatible). Empty means in-process memory queue.
	ConversationQueueURL string

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	// Gemini oracle credentials. The process refuses to start an oracle-backed
	// engine without an API key; canned replies are used in that case.
	GeminiAPIKey   string
	GeminiModelID  string
	OracleTimeout  time.Duration
	OracleAttempts int

	// Session inactivity threshold. A session idle longer than this is reset
	// to the main menu before the next message is processed.
	SessionTTL time.Duration

	// Salon settings
	SalonTimezone string
	BookingLog    string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		Env:                  getEnv("ENV", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		UseMemoryQueue:       getEnvAsBool("USE_MEMORY_QUEUE", true),
		WorkerCount:          getEnvAsInt("WORKER_COUNT", 2),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		ConversationQueueURL: getEnv("CONVERSATION_QUEUE_URL", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisTLS:             getEnvAsBool("REDIS_TLS", false),
		GeminiAPIKey:         getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:        getEnv("GEMINI_MODEL_ID", "gemini-2.5-flash"),
		OracleTimeout:        getEnvAsDuration("ORACLE_TIMEOUT", 20*time.Second),
		OracleAttempts:       getEnvAsInt("ORACLE_ATTEMPTS", 3),
		SessionTTL:           getEnvAsDuration("SESSION_TTL", time.Hour),
		SalonTimezone:        getEnv("SALON_TZ", "America/Sao_Paulo"),
		BookingLog:           getEnv("BOOKING_LOG", ""),
		AWSRegion:            getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:       getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:  getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		CORSAllowedOrigins:   getEnvAsList("CORS_ALLOWED_ORIGINS"),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

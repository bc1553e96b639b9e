// Package config provides environment configuration for the agent.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	// Engine settings
	PollInterval  time.Duration
	BatchSize     int
	HistoryWindow int
	SalaryFloor   int

	// Keyword sets, comma separated in the environment
	RecruiterKeywords   []string
	DeclineKeywords     []string
	NegotiationKeywords []string

	// Profile
	ProfilePath string
	PromptsPath string

	// Storage; empty DatabaseURL selects the in-memory store
	DatabaseURL string

	// Gmail settings
	GmailAccessToken string
	GmailQuery       string
	EmailSignature   string

	// SMS settings
	SMSEnabled        bool
	SMSDefaultGateway string

	// NATS settings; empty URL disables the escalation feed
	NATSURL   string
	NATSToken string

	// LLM settings
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultLLM      string
	LLMModel        string

	// Status API
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration
	JWTSecret          string
	RateLimitRequests  int
	RateLimitWindow    time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Engine
		PollInterval:  getDurationEnv("POLL_INTERVAL", 5*time.Minute),
		BatchSize:     getIntEnv("BATCH_SIZE", 10),
		HistoryWindow: getIntEnv("HISTORY_WINDOW", 6),
		SalaryFloor:   getIntEnv("SALARY_FLOOR", 0),

		RecruiterKeywords:   getListEnv("RECRUITER_KEYWORDS", nil),
		DeclineKeywords:     getListEnv("DECLINE_KEYWORDS", nil),
		NegotiationKeywords: getListEnv("NEGOTIATION_KEYWORDS", nil),

		// Profile
		ProfilePath: getEnv("PROFILE_PATH", "config/profile.yaml"),
		PromptsPath: getEnv("PROMPTS_PATH", "config/prompts.yaml"),

		// Storage
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Gmail
		GmailAccessToken: getEnv("GMAIL_ACCESS_TOKEN", ""),
		GmailQuery:       getEnv("GMAIL_QUERY", "is:unread"),
		EmailSignature:   getEnv("EMAIL_SIGNATURE", ""),

		// SMS
		SMSEnabled:        getBoolEnv("SMS_ENABLED", false),
		SMSDefaultGateway: getEnv("SMS_DEFAULT_GATEWAY", ""),

		// NATS
		NATSURL:   getEnv("NATS_URL", ""),
		NATSToken: getEnv("NATS_TOKEN", ""),

		// LLM
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultLLM:      getEnv("DEFAULT_LLM", "anthropic"),
		LLMModel:        getEnv("LLM_MODEL", ""),

		// Status API
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),
		JWTSecret:          getEnv("JWT_SECRET", "development-secret-change-in-production"),
		RateLimitRequests:  getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:    getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

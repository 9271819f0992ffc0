package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all configuration for the application
type Config struct {
	Port        string
	DatabaseURL string // postgres://, mysql:// or sqlite:// URL
	Version     string
	LogLevel    string
	FrontendURL string // Allowed CORS origin

	UnipileAPIKey  string
	UnipileBaseURL string
	UnipileTimeout int // Messaging API request timeout in seconds

	ChatThreadCap         int // Stop listing chat threads once this many are collected (0 = no cap)
	ChatThreadPageSize    int
	ChatMessagesPerThread int
	MailFetchLimit        int
	PageDelayMS           int // Courtesy delay between paginated upstream calls
	CheckpointEvery       int // Persist import progress every N stored messages
	MailBodyLimit         int // Mail bodies are truncated to this many characters

	FuzzyThreshold         float64 // Name similarity needed to group people at read time
	DedupeMessages         bool    // Skip messages already stored for (account_id, external_id)
	ProfileIdentifierChain []string

	AdminUsername   string
	AdminPassword   string // Empty disables the admin guard on mutating routes
	WebhookSecret   string // When set, pushed events must carry it in X-Webhook-Secret
	NATSURL         string // Empty disables import notifications
	AccountCacheTTL int    // Seconds
}

// Load initializes and returns application configuration
func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", "sqlite://timeline.db"),
		Version:     getEnv("VERSION", "1.0.0"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		UnipileAPIKey:  os.Getenv("UNIPILE_API_KEY"),
		UnipileBaseURL: strings.TrimRight(os.Getenv("UNIPILE_BASE_URL"), "/"),
		UnipileTimeout: getEnvInt("UNIPILE_TIMEOUT", 60),

		ChatThreadCap:         getEnvInt("CHAT_THREAD_CAP", 20),
		ChatThreadPageSize:    getEnvInt("CHAT_THREAD_PAGE_SIZE", 20),
		ChatMessagesPerThread: getEnvInt("CHAT_MESSAGES_PER_THREAD", 100),
		MailFetchLimit:        getEnvInt("MAIL_FETCH_LIMIT", 100),
		PageDelayMS:           getEnvInt("PAGE_DELAY_MS", 100),
		CheckpointEvery:       getEnvInt("CHECKPOINT_EVERY", 10),
		MailBodyLimit:         getEnvInt("MAIL_BODY_LIMIT", 1000),

		FuzzyThreshold:         getEnvFloat("FUZZY_THRESHOLD", 0.85),
		DedupeMessages:         getEnvBool("DEDUPE_MESSAGES", false),
		ProfileIdentifierChain: getEnvList("PROFILE_IDENTIFIER_CHAIN", []string{"public_identifier", "id", "member_urn"}),

		AdminUsername:   getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:   os.Getenv("ADMIN_PASSWORD"),
		WebhookSecret:   os.Getenv("WEBHOOK_SECRET"),
		NATSURL:         os.Getenv("NATS_URL"),
		AccountCacheTTL: getEnvInt("ACCOUNT_CACHE_TTL", 60),
	}

	return config
}

// Validate checks values that would make an import run misbehave
func (c *Config) Validate() error {
	if c.FuzzyThreshold <= 0 || c.FuzzyThreshold > 1 {
		return fmt.Errorf("FUZZY_THRESHOLD must be in (0, 1], got %v", c.FuzzyThreshold)
	}
	if c.CheckpointEvery <= 0 {
		return fmt.Errorf("CHECKPOINT_EVERY must be positive, got %d", c.CheckpointEvery)
	}
	if c.ChatThreadCap < 0 {
		return fmt.Errorf("CHAT_THREAD_CAP must not be negative, got %d", c.ChatThreadCap)
	}
	for name, v := range map[string]int{
		"CHAT_THREAD_PAGE_SIZE":    c.ChatThreadPageSize,
		"CHAT_MESSAGES_PER_THREAD": c.ChatMessagesPerThread,
		"MAIL_FETCH_LIMIT":         c.MailFetchLimit,
		"MAIL_BODY_LIMIT":          c.MailBodyLimit,
		"UNIPILE_TIMEOUT":          c.UnipileTimeout,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if len(c.ProfileIdentifierChain) == 0 {
		return fmt.Errorf("PROFILE_IDENTIFIER_CHAIN must name at least one field")
	}
	return nil
}

// PageDelay returns the courtesy delay between upstream pages
func (c *Config) PageDelay() time.Duration {
	return time.Duration(c.PageDelayMS) * time.Millisecond
}

// getEnv gets an environment variable with a default fallback
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an environment variable as integer with a default fallback
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets an environment variable as float with a default fallback
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getEnvBool gets an environment variable as boolean with a default fallback
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
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

// SetupLogger configures zerolog with JSON output and single-line format
func (c *Config) SetupLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "timeline").
		Str("version", c.Version).
		Logger()

	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger = logger.Level(level)

	return logger
}

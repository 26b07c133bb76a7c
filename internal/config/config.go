package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LLM providers understood by NewFromEnv.
const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
	ProviderStub   = "stub"
)

const (
	defaultGeminiModel = "gemini-2.5-flash"
	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultPort        = "8080"
)

// Config holds the configuration for the application.
type Config struct {
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	Port            string
	FormTokenSecret string
	MetricsDBPath   string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// Error reports a missing or invalid setting. It is fatal at startup.
type Error struct {
	Key    string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Reason)
}

func missing(key string) *Error {
	return &Error{Key: key, Reason: "environment variable not set"}
}

// LoadDotEnv loads variables from a .env file in the working directory, if present.
// Variables already set in the environment win.
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env file: %v", err)
	}
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = ProviderGemini
	}

	cfg := &Config{
		LLMProvider:     provider,
		GeminiModel:     getEnv("GEMINI_MODEL", defaultGeminiModel),
		GroqModel:       getEnv("GROQ_MODEL", defaultGroqModel),
		Port:            getEnv("PORT", defaultPort),
		FormTokenSecret: os.Getenv("FORM_TOKEN_SECRET"),
		MetricsDBPath:   os.Getenv("METRICS_DB_PATH"),

		TelegramBotToken:   os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL: os.Getenv("TELEGRAM_WEBHOOK_URL"),
	}

	// GOOGLE_API_KEY is the name used by the Google SDKs; GEMINI_API_KEY is accepted as well.
	cfg.GeminiAPIKey = os.Getenv("GOOGLE_API_KEY")
	if cfg.GeminiAPIKey == "" {
		cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.GroqAPIKey = os.Getenv("GROQ_API_KEY")

	switch provider {
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, missing("GOOGLE_API_KEY")
		}
	case ProviderGroq:
		if cfg.GroqAPIKey == "" {
			return nil, missing("GROQ_API_KEY")
		}
	case ProviderStub:
	default:
		return nil, &Error{Key: "LLM_PROVIDER", Reason: fmt.Sprintf("has unsupported value %q", provider)}
	}

	ids, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, &Error{Key: "TELEGRAM_ALLOWED_USER_IDS", Reason: err.Error()}
	}
	cfg.TelegramAllowedUserIDs = ids

	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, &Error{Key: "ADMIN_TELEGRAM_ID", Reason: fmt.Sprintf("is not a number: %q", raw)}
		}
		cfg.AdminTelegramID = id
	}

	return cfg, nil
}

// Model returns the model identifier for the configured provider.
func (c *Config) Model() string {
	switch c.LLMProvider {
	case ProviderGroq:
		return c.GroqModel
	case ProviderStub:
		return ProviderStub
	default:
		return c.GeminiModel
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("contains a non-numeric id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

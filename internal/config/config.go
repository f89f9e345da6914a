package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
)

type Config struct {
	WAAccessToken   string
	WAPhoneNumberID string
	WAVerifyToken   string

	LLMProvider string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMModel    string
	LLMRefine   bool

	SupabaseURL string
	SupabaseKey string
	DatabaseURL string

	Port     string
	DataDir  string
	LogLevel slog.Level

	// GeneratedVerifyToken is true when WAVerifyToken was not supplied and a
	// random one was created at startup.
	GeneratedVerifyToken bool
}

func Load() (*Config, error) {
	// .env is optional; env vars may already be set (e.g. in production)
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests don't touch the process env.
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		WAAccessToken:   getenv("WHATSAPP_ACCESS_TOKEN"),
		WAPhoneNumberID: getenv("PHONE_NUMBER_ID"),
		WAVerifyToken:   getenv("VERIFY_TOKEN"),
		LLMProvider:     strings.ToLower(strings.TrimSpace(getenv("LLM_PROVIDER"))),
		LLMBaseURL:      getenv("LLM_BASE_URL"),
		LLMModel:        getenv("LLM_MODEL"),
		LLMRefine:       parseBoolEnv(getenv("LLM_REFINE"), true),
		SupabaseURL:     strings.TrimRight(getenv("SUPABASE_URL"), "/"),
		SupabaseKey:     getenv("SUPABASE_SERVICE_ROLE_KEY"),
		DatabaseURL:     getenv("SUPABASE_DB_URL"),
		Port:            getenv("PORT"),
		DataDir:         getenv("DATA_DIR"),
	}

	if cfg.Port == "" {
		cfg.Port = "3000"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "."
	}

	level, err := parseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}
	cfg.LogLevel = level

	switch cfg.LLMProvider {
	case "", ProviderGroq:
		cfg.LLMProvider = ProviderGroq
		cfg.LLMAPIKey = getenv("GROQ_API_KEY")
	case ProviderGemini:
		cfg.LLMAPIKey = getenv("GEMINI_API_KEY")
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}

	if cfg.WAVerifyToken == "" {
		token, err := randomHex(16)
		if err != nil {
			return nil, fmt.Errorf("generating verify token: %w", err)
		}
		cfg.WAVerifyToken = token
		cfg.GeneratedVerifyToken = true
	}

	for _, req := range []struct {
		name, val string
	}{
		{"WHATSAPP_ACCESS_TOKEN", cfg.WAAccessToken},
		{"PHONE_NUMBER_ID", cfg.WAPhoneNumberID},
		{apiKeyEnv(cfg.LLMProvider), cfg.LLMAPIKey},
	} {
		if req.val == "" {
			return nil, fmt.Errorf("required env var %s is not set", req.name)
		}
	}

	return cfg, nil
}

// StoreConfigured reports whether any backing store credentials are present.
func (c *Config) StoreConfigured() bool {
	return c.DatabaseURL != "" || (c.SupabaseURL != "" && c.SupabaseKey != "")
}

func apiKeyEnv(provider string) string {
	if provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "GROQ_API_KEY"
}

func parseBoolEnv(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func parseLevel(v string) (slog.Level, error) {
	var level slog.Level
	if v == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
	}
	return level, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

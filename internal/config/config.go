package config

import (
	"errors"
	"os"
	"strconv"
	"time"
)

const (
	placeholderClientID     = "YOUR_CLIENT_ID"
	placeholderClientSecret = "YOUR_CLIENT_SECRET"
)

// ErrMissingCredentials is returned when the client id or secret is unset or
// still holds a placeholder value.
var ErrMissingCredentials = errors.New("GLOO_CLIENT_ID and GLOO_CLIENT_SECRET must be set")

type Config struct {
	Server   ServerConfig
	Gloo     GlooConfig
	RAG      RAGConfig
	Frontend FrontendConfig
	Log      LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Mode string
}

type GlooConfig struct {
	ClientID       string
	ClientSecret   string
	Tenant         string
	TokenURL       string
	SearchURL      string
	CompletionsURL string
	TokenTimeout   time.Duration
	RequestTimeout time.Duration
}

type RAGConfig struct {
	MaxTokens          int
	MaxSnippets        int
	MaxCharsPerSnippet int
}

type FrontendConfig struct {
	Dir string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("PORT", 3000),
			Mode: getEnv("GIN_MODE", "debug"),
		},
		Gloo: GlooConfig{
			ClientID:       getEnv("GLOO_CLIENT_ID", placeholderClientID),
			ClientSecret:   getEnv("GLOO_CLIENT_SECRET", placeholderClientSecret),
			Tenant:         getEnv("GLOO_TENANT", "your-tenant-name"),
			TokenURL:       getEnv("GLOO_TOKEN_URL", "https://platform.ai.gloo.com/oauth2/token"),
			SearchURL:      getEnv("GLOO_SEARCH_URL", "https://platform.ai.gloo.com/ai/data/v1/search"),
			CompletionsURL: getEnv("GLOO_COMPLETIONS_URL", "https://platform.ai.gloo.com/ai/v2/chat/completions"),
			TokenTimeout:   getEnvAsDuration("TOKEN_TIMEOUT", 30*time.Second),
			RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		},
		RAG: RAGConfig{
			MaxTokens:          getEnvAsInt("RAG_MAX_TOKENS", 3000),
			MaxSnippets:        getEnvAsInt("RAG_CONTEXT_MAX_SNIPPETS", 5),
			MaxCharsPerSnippet: getEnvAsInt("RAG_CONTEXT_MAX_CHARS_PER_SNIPPET", 350),
		},
		Frontend: FrontendConfig{
			Dir: getEnv("FRONTEND_DIR", "../frontend-example/simple-html"),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// ValidateCredentials reports ErrMissingCredentials when the client
// credentials are empty or left as placeholders.
func (c *Config) ValidateCredentials() error {
	id, secret := c.Gloo.ClientID, c.Gloo.ClientSecret
	if id == "" || secret == "" || id == placeholderClientID || secret == placeholderClientSecret {
		return ErrMissingCredentials
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

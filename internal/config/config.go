package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"marketpulse/internal/domain"

	"github.com/rs/zerolog/log"
)

type Config struct {
	OpenAIAPIKey      string
	OpenAIModel       string
	AnalysisMaxTokens int64

	TelegramBotToken string
	TelegramChatID   int64

	DatabaseURL string
	RedisURL    string
	HTTPAddr    string

	CycleIntervalSecs  int
	ErrorBackoffSecs   int
	MaxRetries         int
	RetryBaseDelaySecs int

	Post domain.PostConstraints
}

func Load() *Config {
	cfg := &Config{
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
	}

	if cfg.DatabaseURL == "" {
		log.Warn().Msg("DATABASE_URL not set, post archive will be disabled")
	}
	if cfg.RedisURL == "" {
		log.Warn().Msg("REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.AnalysisMaxTokens = 1500
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_MAX_TOKENS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.AnalysisMaxTokens = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Warn().Str("value", v).Msg("invalid TELEGRAM_CHAT_ID")
		}
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.CycleIntervalSecs = 60
	if v := os.Getenv("CYCLE_INTERVAL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CycleIntervalSecs = n
		}
	}

	cfg.ErrorBackoffSecs = 300
	if v := os.Getenv("ERROR_BACKOFF_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ErrorBackoffSecs = n
		}
	}

	cfg.MaxRetries = 3
	if v := os.Getenv("MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxRetries = n
		}
	}

	cfg.RetryBaseDelaySecs = 10
	if v := os.Getenv("RETRY_BASE_DELAY_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RetryBaseDelaySecs = n
		}
	}

	cfg.Post = domain.PostConstraints{
		MinLength:      220,
		MaxLength:      270,
		HardStopLength: 280,
	}

	return cfg
}

// Validate reports required settings that are missing. Called once at startup
// so a misconfigured process fails before the first cycle, not during it.
func (c *Config) Validate() error {
	var missing []string
	if c.OpenAIAPIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	if c.TelegramBotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	if c.TelegramChatID == 0 {
		missing = append(missing, "TELEGRAM_CHAT_ID")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

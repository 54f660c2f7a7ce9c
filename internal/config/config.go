package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr string
	DBPath     string

	BlobBackend   string
	BlobLocalPath string
	PublicBaseURL string
	S3Endpoint    string
	S3AccessKey   string
	S3SecretKey   string
	S3Bucket      string
	S3UseSSL      bool
	S3PublicURL   string

	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration

	CaptionBackend string
	ClaudeAPIKey   string
	ClaudeModel    string
	OllamaHost     string
	OllamaModel    string

	TelegramBotToken string
	TelegramChatID   int64

	SentryDSN string
	AppEnv    string
	LogLevel  string
	LogFile   string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; variables already set win.
func Load() (*Config, error) {
	// A missing .env file is the normal case in production.
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}

	useSSL, err := strconv.ParseBool(getEnv("S3_USE_SSL", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid S3_USE_SSL: %w", err)
	}

	var chatID int64
	if raw := getEnv("TELEGRAM_CHAT_ID", ""); raw != "" {
		chatID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
	}

	cfg := &Config{
		ListenAddr:        getEnv("LISTEN_ADDR", ":8080"),
		DBPath:            getEnv("DB_PATH", "/data/ecosite.db"),
		BlobBackend:       getEnv("BLOB_BACKEND", "local"),
		BlobLocalPath:     getEnv("BLOB_LOCAL_PATH", "/data/media"),
		PublicBaseURL:     getEnv("PUBLIC_BASE_URL", ""),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3AccessKey:       getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:       getEnv("S3_SECRET_KEY", ""),
		S3Bucket:          getEnv("S3_BUCKET", "gallery"),
		S3UseSSL:          useSSL,
		S3PublicURL:       getEnv("S3_PUBLIC_URL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionTTL:        ttl,
		CaptionBackend:    getEnv("CAPTION_BACKEND", "none"),
		ClaudeAPIKey:      getEnv("CLAUDE_API_KEY", ""),
		ClaudeModel:       getEnv("CLAUDE_MODEL", "claude-sonnet-4-5"),
		OllamaHost:        getEnv("OLLAMA_HOST", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "moondream"),
		TelegramBotToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:    chatID,
		SentryDSN:         getEnv("SENTRY_DSN", ""),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFile:           getEnv("LOG_FILE", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.AdminPasswordHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH is required")
	}
	if len(c.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}
	switch c.BlobBackend {
	case "local":
	case "s3":
		if c.S3Endpoint == "" || c.S3AccessKey == "" || c.S3SecretKey == "" {
			return errors.New("S3_ENDPOINT, S3_ACCESS_KEY and S3_SECRET_KEY are required for the s3 blob backend")
		}
	default:
		return fmt.Errorf("unknown BLOB_BACKEND %q", c.BlobBackend)
	}
	switch c.CaptionBackend {
	case "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return errors.New("CLAUDE_API_KEY is required for the claude caption backend")
		}
	default:
		return fmt.Errorf("unknown CAPTION_BACKEND %q", c.CaptionBackend)
	}
	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		return errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return nil
}

// TelegramEnabled reports whether new-review notifications are configured.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

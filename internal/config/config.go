// Package config provides centralized configuration for the storeforge server.
// All configurable values are loaded from environment variables with sensible defaults.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration values.
type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	// LLMProvider selects which LLM backend to use: "openai", "claude", "gemini", "ollama".
	LLMProvider    string
	OpenAIKey      string
	OpenAIBaseURL  string
	OpenAIModel    string
	AnthropicKey   string
	AnthropicModel string
	GeminiKey      string
	GeminiModel    string
	OllamaURL      string
	OllamaModel    string

	// ContentTimeout bounds each of the six content generation calls.
	ContentTimeout time.Duration

	LeonardoKey     string
	LeonardoBaseURL string
	// ImagePollInterval and ImagePollAttempts set the per-pass wait budget.
	ImagePollInterval time.Duration
	ImagePollAttempts int
	ImageRatePerSec   float64

	EnhanceQuality          bool
	EnhanceRemoveBackground bool
	EnhanceStyle            bool

	// S3Bucket enables S3 storage for enhanced images. Empty falls back to StoragePath.
	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3PublicBaseURL string
	// S3AccessKey and S3SecretKey override the default AWS credential chain.
	S3AccessKey    string
	S3SecretKey    string
	StoragePath    string
	StorageBaseURL string

	ShopifyDomain     string
	ShopifyToken      string
	ShopifyAPIVersion string
	StoreVendor       string

	// RedisURL enables the cross-process run lock.
	RedisURL   string
	RunLockTTL time.Duration

	// WorkerInterval is the polling interval for the background worker.
	WorkerInterval time.Duration

	// HTTPTimeout is the timeout for outgoing HTTP requests (extract, LLM).
	HTTPTimeout time.Duration

	// CORSOrigin is the allowed CORS origin. Defaults to "*".
	CORSOrigin string
}

// Load reads .env.local and .env (without overriding the real environment),
// then builds the configuration from environment variables.
func Load() Config {
	loadEnvFile(".env.local")
	loadEnvFile(".env")

	return Config{
		Port:      envOr("PORT", "8080"),
		DBPath:    envOr("DB_PATH", "storeforge.db"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),

		LLMProvider:    envOr("LLM_PROVIDER", "openai"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:    envOr("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:   os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel: envOr("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:    envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		OllamaURL:      envOr("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:    envOr("OLLAMA_MODEL", "llama3"),
		ContentTimeout: envDuration("CONTENT_TIMEOUT", 45*time.Second),

		LeonardoKey:       os.Getenv("LEONARDO_API_KEY"),
		LeonardoBaseURL:   envOr("LEONARDO_BASE_URL", "https://cloud.leonardo.ai/api/rest/v1"),
		ImagePollInterval: envDuration("IMAGE_POLL_INTERVAL", 10*time.Second),
		ImagePollAttempts: envInt("IMAGE_POLL_ATTEMPTS", 30),
		ImageRatePerSec:   envFloat("IMAGE_RATE_PER_SEC", 2),

		EnhanceQuality:          envBool("ENHANCE_QUALITY", true),
		EnhanceRemoveBackground: envBool("ENHANCE_REMOVE_BACKGROUND", false),
		EnhanceStyle:            envBool("ENHANCE_STYLE", true),

		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3Region:        envOr("S3_REGION", "us-east-1"),
		S3Endpoint:      os.Getenv("S3_ENDPOINT"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretKey:     os.Getenv("S3_SECRET_ACCESS_KEY"),
		StoragePath:     envOr("STORAGE_PATH", "media"),
		StorageBaseURL:  envOr("STORAGE_BASE_URL", "http://localhost:8080/media"),

		ShopifyDomain:     os.Getenv("SHOPIFY_SHOP_DOMAIN"),
		ShopifyToken:      os.Getenv("SHOPIFY_ACCESS_TOKEN"),
		ShopifyAPIVersion: envOr("SHOPIFY_API_VERSION", "2024-04"),
		StoreVendor:       envOr("STORE_VENDOR", "StoreForge"),

		RedisURL:   os.Getenv("REDIS_URL"),
		RunLockTTL: envDuration("RUN_LOCK_TTL", 30*time.Minute),

		WorkerInterval: envDuration("WORKER_INTERVAL", 3*time.Second),
		HTTPTimeout:    envDuration("HTTP_TIMEOUT", 60*time.Second),
		CORSOrigin:     envOr("CORS_ORIGIN", "*"),
	}
}

// UseStubs returns true when no LLM API key is configured for the selected provider.
func (c Config) UseStubs() bool {
	switch c.LLMProvider {
	case "claude":
		return c.AnthropicKey == ""
	case "gemini":
		return c.GeminiKey == ""
	case "ollama":
		return false // Ollama runs locally, no key needed
	default:
		return c.OpenAIKey == ""
	}
}

// UseImageStub returns true when no image service key is configured.
func (c Config) UseImageStub() bool { return c.LeonardoKey == "" }

// PublishEnabled reports whether commerce credentials are present.
func (c Config) PublishEnabled() bool { return c.ShopifyDomain != "" && c.ShopifyToken != "" }

// SlogLevel maps LogLevel onto a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// loadEnvFile loads KEY=VALUE pairs; variables already set are kept.
func loadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("env file ignored", "path", path, "error", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func envBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

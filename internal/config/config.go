package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Ai       AIConfig
	Chat     ChatConfig
	Enrich   EnrichConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection   string
	MaxIdleConns int
	MaxOpenConns int
}

type AuthConfig struct {
	JwtSecret string
}

type AIConfig struct {
	Provider        string // "forward" or "ollama"
	ForwardURL      string
	OllamaBaseURL   string
	OllamaModel     string
	ClassifyTimeout time.Duration
	StreamTimeout   time.Duration
	RetryBackoff    time.Duration
	MaxLength       int
}

type ChatConfig struct {
	HistoryLimit   int
	RequestCeiling time.Duration
	TurnTopic      string
	Heartbeat      time.Duration
}

type EnrichConfig struct {
	Concurrency    int
	LookupInterval time.Duration
	LookupLimit    int
	CacheTTL       time.Duration
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	SampleRatio float64
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection:   getEnv("DB_CONNECTION_STRING", ""),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 50),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Ai: AIConfig{
			Provider:        getEnv("AI_PROVIDER", "forward"),
			ForwardURL:      getEnv("AI_FORWARD_URL", "http://localhost:8000/api/chat"),
			OllamaBaseURL:   getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:     getEnv("OLLAMA_MODEL", "qwen3"),
			ClassifyTimeout: getEnvAsDuration("AI_CLASSIFY_TIMEOUT", 100*time.Second),
			StreamTimeout:   getEnvAsDuration("AI_STREAM_TIMEOUT", 600*time.Second),
			RetryBackoff:    getEnvAsDuration("AI_RETRY_BACKOFF", 500*time.Millisecond),
			MaxLength:       getEnvAsInt("AI_MAX_LENGTH", 2000),
		},
		Chat: ChatConfig{
			HistoryLimit:   getEnvAsInt("CHAT_HISTORY_LIMIT", 10),
			RequestCeiling: getEnvAsDuration("CHAT_REQUEST_CEILING", 30*time.Minute),
			TurnTopic:      getEnv("CHAT_TURN_TOPIC", "CHAT_TURN_COMPLETED"),
			Heartbeat:      getEnvAsDuration("CHAT_SSE_HEARTBEAT", 15*time.Second),
		},
		Enrich: EnrichConfig{
			Concurrency:    getEnvAsInt("ENRICH_CONCURRENCY", 3),
			LookupInterval: getEnvAsDuration("ENRICH_LOOKUP_INTERVAL", 100*time.Millisecond),
			LookupLimit:    getEnvAsInt("ENRICH_LOOKUP_LIMIT", 5),
			CacheTTL:       getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		},
		Tracing: TracingConfig{
			Enabled:     getEnv("OTEL_ENABLED", "false") == "true",
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
			SampleRatio: getEnvAsFloat("OTEL_SAMPLE_RATIO", 1.0),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("30s") or plain seconds ("30").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	if seconds, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(seconds) * time.Second
	}
	return fallback
}

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
	Ai       AIConfig
	Intake   IntakeConfig
	Auth     AuthConfig
	Tracing  TracingConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	SocketLogFilePath  string
	AuditLogFilePath   string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	CompletionTopic    string
}

type DatabaseConfig struct {
	Connection string
	Verbose    bool
}

type AIConfig struct {
	OllamaBaseURL      string
	LLMProvider        string // "ollama" or "openai"
	LLMModel           string
	LLMAPIKey          string
	EmbeddingModel     string
	ExtractTemperature float64
	ReplyTemperature   float64
	ReplyTopP          float64
	HistoryTurns       int
	ExtractTimeout     time.Duration
	ReplyTimeout       time.Duration
}

type IntakeConfig struct {
	CacheMaxDistance float64
	CacheTimeout     time.Duration
	RecordStore      string // "file", "postgres" or "redis"
	RecordDir        string
	SaveTimeout      time.Duration
	SessionIdleTTL   time.Duration
	TranscriptTurns  int
}

type AuthConfig struct {
	JWTSecret string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			SocketLogFilePath:  getEnv("SOCKET_LOG_FILE_PATH", "logs/socket.log"),
			AuditLogFilePath:   getEnv("AUDIT_LOG_FILE_PATH", "logs/intake_audit.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			CompletionTopic:    getEnv("COMPLETION_TOPIC_NAME", "INTAKE_COMPLETED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Verbose:    getEnvAsBool("DB_VERBOSE", false),
		},
		Ai: AIConfig{
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			LLMProvider:        getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:           getEnv("LLM_MODEL", "llama3.2"),
			LLMAPIKey:          getEnv("LLM_API_KEY", ""),
			EmbeddingModel:     getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			ExtractTemperature: getEnvAsFloat("EXTRACT_TEMPERATURE", 0.1),
			ReplyTemperature:   getEnvAsFloat("REPLY_TEMPERATURE", 0.9),
			ReplyTopP:          getEnvAsFloat("REPLY_TOP_P", 0.8),
			HistoryTurns:       getEnvAsInt("REPLY_HISTORY_TURNS", 6),
			ExtractTimeout:     getEnvAsDuration("EXTRACT_TIMEOUT", 30*time.Second),
			ReplyTimeout:       getEnvAsDuration("REPLY_TIMEOUT", 60*time.Second),
		},
		Intake: IntakeConfig{
			CacheMaxDistance: getEnvAsFloat("CACHE_MAX_DISTANCE", 0.5),
			CacheTimeout:     getEnvAsDuration("CACHE_TIMEOUT", 5*time.Second),
			RecordStore:      getEnv("RECORD_STORE", "file"),
			RecordDir:        getEnv("RECORD_DIR", "records"),
			SaveTimeout:      getEnvAsDuration("SAVE_TIMEOUT", 10*time.Second),
			SessionIdleTTL:   getEnvAsDuration("SESSION_IDLE_TTL", 2*time.Hour),
			TranscriptTurns:  getEnvAsInt("TRANSCRIPT_TURNS", 50),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
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
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("45s") or plain seconds ("45")
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}

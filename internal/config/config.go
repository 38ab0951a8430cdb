package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Gateway    GatewayConfig
	LocalCache LocalCacheConfig
	Ai         AIConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	TierLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	UploadsDir         string
	MaxUploadBytes     int
}

type DatabaseConfig struct {
	Connection string
}

type GatewayConfig struct {
	FunctionsURL     string
	FunctionsKey     string
	AnalyzerProvider string        // "function" or "gemini"
	TierTimeout      time.Duration // bound on each tier attempt
}

type LocalCacheConfig struct {
	Driver     string // "sqlite" or "redis"
	SQLitePath string
	Key        string
}

type AIConfig struct {
	GeminiAPIKey string
	GeminiModel  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			TierLogFilePath:    getEnv("TIER_LOG_FILE_PATH", "logs/tiers.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			UploadsDir:         getEnv("UPLOADS_DIR", "./uploads"),
			MaxUploadBytes:     getEnvAsInt("MAX_UPLOAD_BYTES", 8*1024*1024),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Gateway: GatewayConfig{
			FunctionsURL:     getEnv("GATEWAY_FUNCTIONS_URL", ""),
			FunctionsKey:     getEnv("GATEWAY_FUNCTIONS_KEY", ""),
			AnalyzerProvider: getEnv("ANALYZER_PROVIDER", "function"),
			TierTimeout:      getEnvAsDuration("TIER_TIMEOUT", 8*time.Second),
		},
		LocalCache: LocalCacheConfig{
			Driver:     getEnv("LOCAL_CACHE_DRIVER", "sqlite"),
			SQLitePath: getEnv("LOCAL_CACHE_SQLITE_PATH", "data/local_cache.db"),
			Key:        getEnv("LOCAL_CACHE_KEY", "outfit-stylist:saved-outfits"),
		},
		Ai: AIConfig{
			GeminiAPIKey: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
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

// getEnvAsDuration accepts Go durations ("5s") or plain milliseconds ("5000").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return fallback
	}
	if d, err := time.ParseDuration(strValue); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(strValue); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64
	AllowedOrigin      string

	// Display parameter for item leaderboards; not a core invariant.
	LeaderboardSize int

	OpenAIAPIKey string
	OpenAIModel  string
}

var Cfg *AppConfig

func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, relying on OS environment variables and defaults.")
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	leaderboardSize := getEnvAsInt("LEADERBOARD_SIZE", 5)
	if leaderboardSize < 1 {
		log.Printf("WARNING: LEADERBOARD_SIZE must be positive, got %d. Using default 5.", leaderboardSize)
		leaderboardSize = 5
	}

	openAIKey := getEnv("OPENAI_API_KEY", "")
	if openAIKey == "" {
		log.Println("WARNING: OPENAI_API_KEY not set. Insight features will start in offline mode.")
	}

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./shrinklens.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,
		AllowedOrigin:      getEnv("ALLOWED_ORIGIN", "http://localhost:3000"),
		LeaderboardSize:    leaderboardSize,
		OpenAIAPIKey:       openAIKey,
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, LeaderboardSize=%d",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.LeaderboardSize)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string
	JWTSecret  string

	GeminiAPIKey string
	GeminiModel  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PersonaPath string

	MaxHistory      int
	StartingCredits int
	Cooldown        time.Duration
	SessionTTL      time.Duration
}

func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		// no .env file, system environment only
	}

	return Config{
		Port:       getEnv("PORT", ":8000"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", ""),
		DBPort:     getEnv("DB_PORT", ""),
		DBName:     getEnv("DB_NAME", ""),
		JWTSecret:  getEnv("JWT_SECRET", ""),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PersonaPath: getEnv("PERSONA_PATH", "./configs/persona.yaml"),

		MaxHistory:      getEnvAsInt("MAX_HISTORY", 12),
		StartingCredits: getEnvAsInt("STARTING_CREDITS", 10),
		Cooldown:        time.Duration(getEnvAsInt("COOLDOWN_SECONDS", 5)) * time.Second,
		SessionTTL:      time.Duration(getEnvAsInt("SESSION_TTL_HOURS", 24)) * time.Hour,
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

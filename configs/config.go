package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port             string
	Environment      string
	DataFile         string
	GroqEndpoint     string
	GroqAPIKey       string
	GroqModel        string
	AITimeoutSeconds int
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:             getEnv("PORT", "8080"),
		Environment:      getEnv("ENVIRONMENT", "development"),
		DataFile:         getEnv("DATA_FILE", "data/market_dataset.csv"),
		GroqEndpoint:     getEnv("GROQ_ENDPOINT", "https://api.groq.com/openai/v1"),
		GroqAPIKey:       getEnv("GROQ_API_KEY", ""),
		GroqModel:        getEnv("GROQ_MODEL", "llama-3.1-70b-versatile"),
		AITimeoutSeconds: getEnvInt("AI_TIMEOUT_SECONDS", 30),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

package config

import (
	"os"
)

// Config holds the application configuration
type Config struct {
	Port           string
	Environment    string
	DataDir        string
	TuningFile     string
	OpenAIEndpoint string
	OpenAIAPIKey   string
	OpenAIModel    string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:           getEnv("PORT", "4000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		DataDir:        getEnv("DATA_DIR", "data"),
		TuningFile:     getEnv("TUNING_FILE", ""),
		OpenAIEndpoint: getEnv("OPENAI_ENDPOINT", "https://api.openai.com/v1/chat/completions"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

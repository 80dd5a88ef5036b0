package config

import (
	"os"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	testCases := map[string]string{
		"PORT":               "9090",
		"ENVIRONMENT":        "test",
		"DATA_FILE":          "testdata/sample.csv",
		"GROQ_ENDPOINT":      "https://groq.example.com/openai/v1",
		"GROQ_API_KEY":       "test-key",
		"GROQ_MODEL":         "llama-3.1-8b-instant",
		"AI_TIMEOUT_SECONDS": "10",
	}

	for key, value := range testCases {
		os.Setenv(key, value)
	}

	defer func() {
		for key := range testCases {
			os.Unsetenv(key)
		}
	}()

	cfg := LoadConfig()

	if cfg.Port != "9090" {
		t.Errorf("Expected Port to be '9090', got '%s'", cfg.Port)
	}

	if cfg.Environment != "test" {
		t.Errorf("Expected Environment to be 'test', got '%s'", cfg.Environment)
	}

	if cfg.DataFile != "testdata/sample.csv" {
		t.Errorf("Expected DataFile to be 'testdata/sample.csv', got '%s'", cfg.DataFile)
	}

	if cfg.GroqAPIKey != "test-key" {
		t.Errorf("Expected GroqAPIKey to be 'test-key', got '%s'", cfg.GroqAPIKey)
	}

	if cfg.GroqModel != "llama-3.1-8b-instant" {
		t.Errorf("Expected GroqModel to be 'llama-3.1-8b-instant', got '%s'", cfg.GroqModel)
	}

	if cfg.AITimeoutSeconds != 10 {
		t.Errorf("Expected AITimeoutSeconds to be 10, got %d", cfg.AITimeoutSeconds)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	vars := []string{
		"PORT", "ENVIRONMENT", "DATA_FILE",
		"GROQ_ENDPOINT", "GROQ_API_KEY", "GROQ_MODEL",
		"AI_TIMEOUT_SECONDS",
	}

	for _, v := range vars {
		os.Unsetenv(v)
	}

	cfg := LoadConfig()

	if cfg.Port != "8080" {
		t.Errorf("Expected default Port to be '8080', got '%s'", cfg.Port)
	}

	if cfg.Environment != "development" {
		t.Errorf("Expected default Environment to be 'development', got '%s'", cfg.Environment)
	}

	if cfg.DataFile != "data/market_dataset.csv" {
		t.Errorf("Expected default DataFile to be 'data/market_dataset.csv', got '%s'", cfg.DataFile)
	}

	if cfg.GroqEndpoint != "https://api.groq.com/openai/v1" {
		t.Errorf("Expected default GroqEndpoint, got '%s'", cfg.GroqEndpoint)
	}

	if cfg.AITimeoutSeconds != 30 {
		t.Errorf("Expected default AITimeoutSeconds to be 30, got %d", cfg.AITimeoutSeconds)
	}
}

func TestLoadConfigInvalidTimeout(t *testing.T) {
	os.Setenv("AI_TIMEOUT_SECONDS", "not-a-number")
	defer os.Unsetenv("AI_TIMEOUT_SECONDS")

	cfg := LoadConfig()

	if cfg.AITimeoutSeconds != 30 {
		t.Errorf("Expected fallback AITimeoutSeconds to be 30, got %d", cfg.AITimeoutSeconds)
	}
}

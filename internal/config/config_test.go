package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("GOOGLE_MAPS_API_KEY", "maps_key")
		setEnv("OPENWEATHER_API_KEY", "weather_key")
		setEnv("TELEGRAM_ALLOW_USER_IDS", "111, 222")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.GoogleMapsAPIKey != "maps_key" {
			t.Errorf("Expected GoogleMapsAPIKey to be 'maps_key', got '%s'", cfg.GoogleMapsAPIKey)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[0] != 111 || cfg.TelegramAllowedUserIDs[1] != 222 {
			t.Errorf("Expected allowed user IDs [111 222], got %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.MaxRevisionCycles != 3 {
			t.Errorf("Expected default MaxRevisionCycles 3, got %d", cfg.MaxRevisionCycles)
		}
		if cfg.DatabasePath != "data/trip-planner.db" {
			t.Errorf("Expected default database path, got '%s'", cfg.DatabasePath)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidAllowedUserIDs", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TELEGRAM_ALLOW_USER_IDS", "not-a-number")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid TELEGRAM_ALLOW_USER_IDS, got nil")
		}
	})

	t.Run("MaxRevisionCyclesOverride", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("TELEGRAM_ALLOW_USER_IDS", "")
		setEnv("MAX_REVISION_CYCLES", "5")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.MaxRevisionCycles != 5 {
			t.Errorf("Expected MaxRevisionCycles 5, got %d", cfg.MaxRevisionCycles)
		}
	})

	t.Run("InvalidMaxRevisionCycles", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("MAX_REVISION_CYCLES", "-1")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for invalid MAX_REVISION_CYCLES, got nil")
		}
	})
}

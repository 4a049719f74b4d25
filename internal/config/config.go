package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds the configuration for the application.
type Config struct {
	GeminiAPIKey      string
	GoogleMapsAPIKey  string
	OpenWeatherAPIKey string

	DatabasePath string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// HTTP API Config
	APIAuthSecret string

	// Planner tuning
	MaxRevisionCycles int
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	// Maps and weather keys are optional: discovery falls back to the HTML
	// scraper and the scheduler proceeds with an empty forecast without them.
	googleMapsAPIKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	openWeatherAPIKey := os.Getenv("OPENWEATHER_API_KEY")

	databasePath := os.Getenv("TRIP_PLANNER_DB_PATH")
	if databasePath == "" {
		databasePath = "data/trip-planner.db"
	}

	// Telegram Config (Optional for CLI, required for Bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	var allowedUserIDs []int64
	if raw := os.Getenv("TELEGRAM_ALLOW_USER_IDS"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS entry %q: %w", part, err)
			}
			allowedUserIDs = append(allowedUserIDs, id)
		}
	}

	var adminTelegramID int64
	if raw := os.Getenv("ADMIN_TELEGRAM_ID"); raw != "" {
		fmt.Sscanf(raw, "%d", &adminTelegramID)
	}

	maxRevisionCycles := 3
	if raw := os.Getenv("MAX_REVISION_CYCLES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid MAX_REVISION_CYCLES value %q", raw)
		}
		maxRevisionCycles = n
	}

	return &Config{
		GeminiAPIKey:           geminiAPIKey,
		GoogleMapsAPIKey:       googleMapsAPIKey,
		OpenWeatherAPIKey:      openWeatherAPIKey,
		DatabasePath:           databasePath,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedUserIDs,
		AdminTelegramID:        adminTelegramID,
		APIAuthSecret:          os.Getenv("API_AUTH_SECRET"),
		MaxRevisionCycles:      maxRevisionCycles,
	}, nil
}

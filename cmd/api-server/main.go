package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"ai-trip-planner/internal/api"
	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/discover"
	"ai-trip-planner/internal/geo"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/output"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.APIAuthSecret == "" {
		log.Fatal("API_AUTH_SECRET environment variable not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create Gemini client: %v", err)
	}
	if closer, ok := geminiClient.(llm.Closer); ok {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	mapsClient := geo.NewMapsClient(cfg.GoogleMapsAPIKey)
	weatherClient := geo.NewOpenWeatherClient(cfg.OpenWeatherAPIKey)
	discovery := discover.NewService(
		discover.NewPlacesClient(cfg.GoogleMapsAPIKey),
		discover.NewWebScraper(geminiClient),
	)

	sessionRepo := planner.NewSessionRepository(db.SQL)
	orchestrator := planner.NewOrchestrator(
		mapsClient,
		weatherClient,
		discovery,
		planner.NewScheduler(mapsClient),
		planner.NewCritic(),
		planner.NewBudgetEstimator(),
		output.NewMarkdownFormatter(),
		planner.WithMaxRevisionCycles(cfg.MaxRevisionCycles),
		planner.WithSessionStore(sessionRepo),
	)

	server := api.NewServer(
		orchestrator,
		intent.NewExtractor(geminiClient),
		api.NewAuthenticator(cfg.APIAuthSecret),
		metrics.NewStore(db.SQL),
		trip.NewRepository(db.SQL),
		sessionRepo,
	)

	port := 8080
	if raw := os.Getenv("PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			log.Fatalf("Invalid PORT value %q", raw)
		}
		port = p
	}

	if err := server.Start(ctx, port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
	log.Println("Server exiting")
}

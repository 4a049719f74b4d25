package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ai-trip-planner/internal/config"
	"ai-trip-planner/internal/database"
	"ai-trip-planner/internal/discover"
	"ai-trip-planner/internal/geo"
	"ai-trip-planner/internal/intent"
	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/metrics"
	"ai-trip-planner/internal/output"
	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/telegram"
	"ai-trip-planner/internal/trip"
)

func main() {
	_ = godotenv.Load()

	// 1. Load Configuration
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable not set")
	}

	ctx := context.Background()

	// 2. Initialize Infrastructure
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

	metricsStore := metrics.NewStore(db.SQL)
	tripRepo := trip.NewRepository(db.SQL)

	// 3. Initialize the planning engine
	mapsClient := geo.NewMapsClient(cfg.GoogleMapsAPIKey)
	weatherClient := geo.NewOpenWeatherClient(cfg.OpenWeatherAPIKey)
	discovery := discover.NewService(
		discover.NewPlacesClient(cfg.GoogleMapsAPIKey),
		discover.NewWebScraper(geminiClient),
	)

	orchestrator := planner.NewOrchestrator(
		mapsClient,
		weatherClient,
		discovery,
		planner.NewScheduler(mapsClient),
		planner.NewCritic(),
		planner.NewBudgetEstimator(),
		output.NewMarkdownFormatter(),
		planner.WithMaxRevisionCycles(cfg.MaxRevisionCycles),
		planner.WithSessionStore(planner.NewSessionRepository(db.SQL)),
	)
	extractor := intent.NewExtractor(geminiClient)

	// 4. Initialize Telegram Bot
	bot, err := telegram.NewBot(cfg, orchestrator, extractor, tripRepo, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	// 5. Start Server with Graceful Shutdown
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}

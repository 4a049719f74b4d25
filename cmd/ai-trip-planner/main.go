package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

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
	"ai-trip-planner/internal/trip"
)

func main() {
	_ = godotenv.Load()
	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "plan":
		request := strings.Join(os.Args[2:], " ")
		if strings.TrimSpace(request) == "" {
			log.Fatal("plan requires a request, e.g.: ai-trip-planner plan \"3 days in Bangkok for 2, budget-friendly\"")
		}
		if err := runPlan(ctx, cfg, request); err != nil {
			log.Fatalf("Planning failed: %v", err)
		}
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		db, err := database.NewDB(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runPlan(ctx context.Context, cfg *config.Config, request string) error {
	geminiClient, err := llm.NewGeminiClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	if closer, ok := geminiClient.(llm.Closer); ok {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	metricsStore := metrics.NewStore(db.SQL)
	tripRepo := trip.NewRepository(db.SQL)

	extractor := intent.NewExtractor(geminiClient)
	orchestrator := buildOrchestrator(cfg, geminiClient, db)

	req, meta, err := extractor.Extract(ctx, request)
	_ = metricsStore.RecordMeta(ctx, meta)
	if err != nil {
		return fmt.Errorf("could not understand request: %w", err)
	}

	result, err := orchestrator.Plan(ctx, "cli", req)
	if err != nil {
		return err
	}

	if err := tripRepo.Save(ctx, result.SessionID, "cli", result.Context); err != nil {
		log.Printf("Warning: failed to save trip: %v", err)
	}

	fmt.Println(result.FormattedOutput)
	if result.Warning != "" {
		fmt.Printf("\nWarning: %s\n", result.Warning)
	}
	return nil
}

// buildOrchestrator wires the engine with its live collaborators.
func buildOrchestrator(cfg *config.Config, textGen llm.TextGenerator, db *database.DB) *planner.Orchestrator {
	mapsClient := geo.NewMapsClient(cfg.GoogleMapsAPIKey)
	weatherClient := geo.NewOpenWeatherClient(cfg.OpenWeatherAPIKey)

	discovery := discover.NewService(
		discover.NewPlacesClient(cfg.GoogleMapsAPIKey),
		discover.NewWebScraper(textGen),
	)

	return planner.NewOrchestrator(
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
}

func printUsage() {
	fmt.Println("Usage: ai-trip-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  plan <request>     Plan a trip from a free-text request and print the itinerary")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}

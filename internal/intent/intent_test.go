package intent

import (
	"context"
	"testing"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/trip"
)

type mockTextGenerator struct {
	response string
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: m.response}, nil
}

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
}

func TestExtract(t *testing.T) {
	gen := &mockTextGenerator{response: `{
		"destination": "Bangkok",
		"duration_days": 3,
		"start_date": "2026-03-10",
		"food_preferences": ["thai"],
		"activity_preferences": ["cultural"],
		"poi_preferences": ["temples"],
		"interests": ["history"],
		"travelers": 2,
		"budget_level": "budget",
		"pace": "moderate",
		"daily_budget_max": 120
	}`}

	e := NewExtractor(gen)
	e.now = fixedNow

	req, meta, err := e.Extract(context.Background(), "3 days in Bangkok for two on a budget")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if req.Destination != "Bangkok" {
		t.Errorf("Expected destination 'Bangkok', got '%s'", req.Destination)
	}
	if req.DurationDays != 3 {
		t.Errorf("Expected 3 days, got %d", req.DurationDays)
	}
	if req.Travelers != 2 {
		t.Errorf("Expected 2 travelers, got %d", req.Travelers)
	}
	if req.SpendTier != trip.TierBudget {
		t.Errorf("Expected budget tier, got '%s'", req.SpendTier)
	}
	if req.StartDate.Format("2006-01-02") != "2026-03-10" {
		t.Errorf("Expected start date 2026-03-10, got %s", req.StartDate.Format("2006-01-02"))
	}
	if req.DailyBudgetMax != 120 {
		t.Errorf("Expected daily budget max 120, got %f", req.DailyBudgetMax)
	}
	if !meta.Success {
		t.Error("Expected meta.Success to be true")
	}
	if meta.Stage != "intent" {
		t.Errorf("Expected stage 'intent', got '%s'", meta.Stage)
	}
}

func TestExtractDefaults(t *testing.T) {
	gen := &mockTextGenerator{response: `{"destination": "Prague"}`}

	e := NewExtractor(gen)
	e.now = fixedNow

	req, _, err := e.Extract(context.Background(), "I want to visit Prague")
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if req.DurationDays != 3 {
		t.Errorf("Expected default duration 3, got %d", req.DurationDays)
	}
	if req.Travelers != 1 {
		t.Errorf("Expected default 1 traveler, got %d", req.Travelers)
	}
	if req.SpendTier != trip.TierMidRange {
		t.Errorf("Expected default mid-range tier, got '%s'", req.SpendTier)
	}
	if req.Pace != trip.PaceModerate {
		t.Errorf("Expected default moderate pace, got '%s'", req.Pace)
	}
	// Start date defaults to one week out.
	want := fixedNow().Add(7 * 24 * time.Hour).Truncate(24 * time.Hour)
	if !req.StartDate.Equal(want) {
		t.Errorf("Expected start date %v, got %v", want, req.StartDate)
	}
}

func TestExtractMissingDestination(t *testing.T) {
	gen := &mockTextGenerator{response: `{"duration_days": 5}`}

	e := NewExtractor(gen)
	e.now = fixedNow

	_, _, err := e.Extract(context.Background(), "plan me something nice")
	if err == nil {
		t.Fatal("Expected an error for missing destination, got nil")
	}
}

func TestExtractEmptyQuery(t *testing.T) {
	e := NewExtractor(&mockTextGenerator{response: `{}`})
	e.now = fixedNow

	_, _, err := e.Extract(context.Background(), "   ")
	if err == nil {
		t.Fatal("Expected an error for empty query, got nil")
	}
}

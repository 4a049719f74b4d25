// Package intent turns a free-text travel request into a structured
// trip.Request using an LLM.
package intent

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"ai-trip-planner/internal/llm"
	"ai-trip-planner/internal/shared"
	"ai-trip-planner/internal/trip"
)

//go:embed intent_prompt.md
var intentPrompt string

const (
	defaultDurationDays = 3
	defaultStartOffset  = 7 * 24 * time.Hour
)

type intentPromptData struct {
	UserQuery string
	Today     string
}

type rawIntent struct {
	Destination         string   `json:"destination"`
	DurationDays        int      `json:"duration_days"`
	StartDate           string   `json:"start_date"`
	FoodPreferences     []string `json:"food_preferences"`
	ActivityPreferences []string `json:"activity_preferences"`
	POIPreferences      []string `json:"poi_preferences"`
	Interests           []string `json:"interests"`
	Travelers           int      `json:"travelers"`
	BudgetLevel         string   `json:"budget_level"`
	Pace                string   `json:"pace"`
	DailyBudgetMax      float64  `json:"daily_budget_max"`
}

// Extractor parses user queries into travel requests.
type Extractor struct {
	textGen llm.TextGenerator
	now     func() time.Time
}

// NewExtractor creates a new Extractor instance.
func NewExtractor(textGen llm.TextGenerator) *Extractor {
	return &Extractor{textGen: textGen, now: time.Now}
}

// Extract parses the user query and returns a normalized trip request.
func (e *Extractor) Extract(ctx context.Context, userQuery string) (trip.Request, shared.StageMeta, error) {
	start := e.now()
	meta := shared.StageMeta{Stage: "intent"}

	if strings.TrimSpace(userQuery) == "" {
		return trip.Request{}, meta, fmt.Errorf("user query is empty")
	}

	prompt, err := buildIntentPrompt(intentPromptData{
		UserQuery: userQuery,
		Today:     start.Format("2006-01-02"),
	})
	if err != nil {
		return trip.Request{}, meta, err
	}

	resp, err := e.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = e.now().Sub(start)
	if err != nil {
		return trip.Request{}, meta, fmt.Errorf("intent extraction failed: %w", err)
	}

	raw := rawIntent{}
	if err := json.Unmarshal([]byte(resp.Content), &raw); err != nil {
		return trip.Request{}, meta, fmt.Errorf(
			"failed to parse intent response %w. Response: %s", err, resp.Content)
	}

	req, err := e.normalize(raw)
	if err != nil {
		return trip.Request{}, meta, err
	}

	meta.Success = true
	return req, meta, nil
}

// normalize applies defaults and validates the extracted intent.
func (e *Extractor) normalize(raw rawIntent) (trip.Request, error) {
	if strings.TrimSpace(raw.Destination) == "" {
		return trip.Request{}, fmt.Errorf("no destination found in query")
	}

	duration := raw.DurationDays
	if duration <= 0 {
		duration = defaultDurationDays
	}

	startDate, err := time.Parse("2006-01-02", raw.StartDate)
	if err != nil || startDate.Before(e.now().Truncate(24*time.Hour)) {
		startDate = e.now().Add(defaultStartOffset).Truncate(24 * time.Hour)
	}

	travelers := raw.Travelers
	if travelers <= 0 {
		travelers = 1
	}

	return trip.Request{
		Destination:         strings.TrimSpace(raw.Destination),
		DurationDays:        duration,
		StartDate:           startDate,
		FoodPreferences:     raw.FoodPreferences,
		ActivityPreferences: raw.ActivityPreferences,
		POIPreferences:      raw.POIPreferences,
		Interests:           raw.Interests,
		Travelers:           travelers,
		SpendTier:           trip.ParseSpendTier(raw.BudgetLevel),
		Pace:                trip.ParsePace(raw.Pace),
		DailyBudgetMax:      raw.DailyBudgetMax,
	}, nil
}

func buildIntentPrompt(data intentPromptData) (string, error) {
	tmpl, err := template.New("intent").Parse(intentPrompt)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

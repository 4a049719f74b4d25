package output

import (
	"context"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/planner"
	"ai-trip-planner/internal/trip"
)

func sampleResult() *planner.Result {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	return &planner.Result{
		SessionID: "sess-1",
		Context: &trip.TravelContext{
			Request: trip.Request{
				Destination:         "Bangkok, Thailand",
				DurationDays:        2,
				StartDate:           start,
				Travelers:           2,
				SpendTier:           trip.TierBudget,
				Pace:                trip.PaceModerate,
				ActivityPreferences: []string{"cultural", "dining"},
			},
			Itinerary: []trip.DayPlan{
				{
					DayIndex: 1,
					Date:     start,
					Theme:    "Cultural Immersion",
					Items: []trip.ScheduledItem{
						{
							Candidate: trip.Candidate{
								Name:     "Grand Palace",
								Category: trip.CategorySightseeing,
								Cost:     15,
								Location: trip.Location{Name: "Grand Palace, Bangkok"},
							},
							StartTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
							EndTime:   time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
						},
						{
							Candidate: trip.Candidate{
								Name:     "Lumpini Park",
								Category: trip.CategoryOutdoor,
							},
							StartTime: time.Date(2026, 3, 2, 11, 10, 0, 0, time.UTC),
							EndTime:   time.Date(2026, 3, 2, 12, 40, 0, 0, time.UTC),
						},
					},
				},
			},
			Budget: &trip.BudgetBreakdown{
				TotalCost:    180,
				DailyAverage: 90,
				CategoryTotals: map[trip.CostCategory]float64{
					trip.CostDining:      80,
					trip.CostAttractions: 60,
					trip.CostTransport:   40,
				},
			},
			Insights: &trip.BudgetInsights{
				Tips: []string{"Use public transportation for cost-effective city travel"},
			},
		},
	}
}

func TestFormatRendersAllSections(t *testing.T) {
	f := &MarkdownFormatter{now: func() time.Time {
		return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	}}

	out, err := f.Format(context.Background(), sampleResult())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	for _, want := range []string{
		"2-day trip to Bangkok, Thailand",
		"## 🌍 Trip Overview",
		"| **Start Date** | 2026-03-02 |",
		"| **End Date** | 2026-03-03 |",
		"### Day 1: Cultural Immersion",
		"| 09:00 | Grand Palace | Grand Palace, Bangkok | USD 15.00 |",
		"| 11:10 | Lumpini Park | Lumpini Park | Free |",
		"| **Estimated Total** | USD 180.00 |",
		"| **Daily Average** | USD 90.00 |",
		"Use public transportation",
		"| **Travel Style** | cultural, dining |",
		"| **Pace** | Moderate |",
		"| **Budget Level** | Budget |",
		"🎯 **Your trip is ready!**",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestFormatIncludesWarningAndIssues(t *testing.T) {
	f := NewMarkdownFormatter()
	result := sampleResult()
	result.Warning = "Maximum revisions (3) reached, presenting best candidate"
	result.OutstandingIssues = []trip.Issue{
		{Type: "over_budget", Severity: trip.SeverityHigh, Description: "Estimated cost exceeds daily budget"},
	}

	out, err := f.Format(context.Background(), result)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Maximum revisions (3) reached") {
		t.Error("missing force-accept warning")
	}
	if !strings.Contains(out, "- Estimated cost exceeds daily budget") {
		t.Error("missing outstanding issue list")
	}
}

func TestFormatEmptyItinerary(t *testing.T) {
	f := NewMarkdownFormatter()
	result := sampleResult()
	result.Context.Itinerary = nil
	result.Context.Budget = nil
	result.Context.Insights = nil

	out, err := f.Format(context.Background(), result)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "No detailed itinerary available.") {
		t.Error("missing empty-itinerary placeholder")
	}
	if !strings.Contains(out, "| **Estimated Total** | USD 0.00 |") {
		t.Error("missing zeroed budget table")
	}
}

func TestFormatNilResult(t *testing.T) {
	f := NewMarkdownFormatter()
	if _, err := f.Format(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil result")
	}
}

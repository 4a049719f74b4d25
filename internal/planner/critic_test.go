package planner

import (
	"reflect"
	"testing"
	"time"

	"ai-trip-planner/internal/trip"
)

func dayAt(items ...trip.ScheduledItem) trip.DayPlan {
	return trip.DayPlan{
		DayIndex: 1,
		Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		Items:    items,
	}
}

func scheduledItem(name string, category trip.ItemCategory, start, end time.Time, durationMin int) trip.ScheduledItem {
	return trip.ScheduledItem{
		Candidate: trip.Candidate{
			ID:              name,
			Name:            name,
			Category:        category,
			Rating:          4.5,
			DurationMinutes: durationMin,
		},
		StartTime: start,
		EndTime:   end,
	}
}

func at(hour, minute int) time.Time {
	return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
}

func TestCritiqueDeterministic(t *testing.T) {
	critic := NewCritic()
	day := dayAt(
		scheduledItem("Museum", trip.CategoryCultural, at(9, 0), at(11, 0), 120),
		scheduledItem("Lunch Spot", trip.CategoryDining, at(12, 0), at(13, 30), 90),
		scheduledItem("Old Town Walk", trip.CategorySightseeing, at(14, 0), at(15, 30), 90),
	)
	profile := trip.TravelerProfile{
		SpendTier: trip.TierMidRange,
		Pace:      trip.PaceModerate,
		GroupSize: 2,
	}

	first := critic.Critique(day, profile)
	second := critic.Critique(day, profile)

	if first.Score != second.Score {
		t.Errorf("scores differ between runs: %f vs %f", first.Score, second.Score)
	}
	if !reflect.DeepEqual(first.Issues, second.Issues) {
		t.Errorf("issue lists differ between runs")
	}
	if first.Approved != second.Approved {
		t.Error("approval differs between runs")
	}
}

func TestCritiqueApprovalInvariant(t *testing.T) {
	critic := NewCritic()
	profile := trip.TravelerProfile{
		SpendTier: trip.TierMidRange,
		Pace:      trip.PaceModerate,
		GroupSize: 2,
	}

	days := []trip.DayPlan{
		dayAt(
			scheduledItem("Museum", trip.CategoryCultural, at(9, 0), at(11, 0), 120),
			scheduledItem("Lunch Spot", trip.CategoryDining, at(12, 0), at(13, 30), 90),
			scheduledItem("Park Walk", trip.CategoryOutdoor, at(14, 0), at(17, 0), 180),
		),
		// Overlapping day.
		dayAt(
			scheduledItem("Gallery", trip.CategoryCultural, at(9, 0), at(11, 0), 120),
			scheduledItem("Brunch", trip.CategoryDining, at(10, 45), at(12, 15), 90),
		),
		// Empty day.
		dayAt(),
	}

	for i, day := range days {
		result := critic.Critique(day, profile)
		wantApproved := result.Score >= 70 && result.CountBySeverity(trip.SeverityHigh) == 0
		if result.Approved != wantApproved {
			t.Errorf("day %d: approved=%v violates invariant (score=%.1f, high=%d)",
				i, result.Approved, result.Score, result.CountBySeverity(trip.SeverityHigh))
		}
	}
}

func TestLogicalConsistencyOverlapScore(t *testing.T) {
	// Two activities overlapping by 15 minutes and nothing else wrong.
	day := dayAt(
		scheduledItem("Castle Tour", trip.CategorySightseeing, at(9, 0), at(10, 30), 90),
		scheduledItem("River Cruise", trip.CategorySightseeing, at(10, 15), at(11, 45), 90),
	)

	res := checkLogicalConsistency(day)

	if res.Score != 80 {
		t.Errorf("logical consistency score %.1f, want exactly 80", res.Score)
	}
	if len(res.Issues) != 1 {
		t.Fatalf("expected exactly 1 issue, got %d", len(res.Issues))
	}
	issue := res.Issues[0]
	if issue.Type != "time_overlap" {
		t.Errorf("issue type %q, want time_overlap", issue.Type)
	}
	if issue.Severity != trip.SeverityHigh {
		t.Errorf("issue severity %q, want high", issue.Severity)
	}
}

func TestBudgetOverAmount(t *testing.T) {
	// Day costing $340 against a declared daily max of $250.
	itemA := scheduledItem("Fine Dining", trip.CategoryDining, at(12, 0), at(13, 30), 90)
	itemA.Cost = 170
	itemB := scheduledItem("Private Tour", trip.CategorySightseeing, at(14, 0), at(16, 0), 120)
	itemB.Cost = 170
	day := dayAt(itemA, itemB)

	profile := trip.TravelerProfile{
		SpendTier:      trip.TierMidRange,
		DailyBudgetMax: 250,
		Pace:           trip.PaceModerate,
		GroupSize:      2,
	}

	res := analyzeBudget(day, profile)

	var overBudget *trip.Issue
	for i := range res.Issues {
		if res.Issues[i].Type == "over_budget" {
			overBudget = &res.Issues[i]
		}
	}
	if overBudget == nil {
		t.Fatal("expected an over_budget issue")
	}
	if overBudget.Severity != trip.SeverityHigh {
		t.Errorf("over_budget severity %q, want high", overBudget.Severity)
	}
	if got := overBudget.Detail["over_amount"]; got != 90.0 {
		t.Errorf("over_amount = %v, want 90", got)
	}
}

func TestTimeFeasibilityEmptyDayScoresZero(t *testing.T) {
	res := analyzeTimeFeasibility(dayAt())
	if res.Score != 0 {
		t.Errorf("empty day time feasibility score %.1f, want 0", res.Score)
	}
	if len(res.Issues) != 0 {
		t.Errorf("empty day should carry no time issues, got %d", len(res.Issues))
	}
}

func TestActivityQualityChecks(t *testing.T) {
	t.Run("MissingDining", func(t *testing.T) {
		day := dayAt(
			scheduledItem("A", trip.CategorySightseeing, at(9, 0), at(10, 30), 90),
			scheduledItem("B", trip.CategorySightseeing, at(11, 0), at(12, 30), 90),
			scheduledItem("C", trip.CategorySightseeing, at(13, 0), at(14, 30), 90),
		)
		res := analyzeActivityQuality(day)

		types := make(map[string]bool)
		for _, issue := range res.Issues {
			types[issue.Type] = true
		}
		if !types["missing_dining"] {
			t.Error("expected missing_dining issue")
		}
		if !types["lack_of_variety"] {
			t.Error("expected lack_of_variety issue")
		}
		if res.Score != 75 {
			t.Errorf("score %.1f, want 75 after -10 variety and -15 dining", res.Score)
		}
	})

	t.Run("LowRated", func(t *testing.T) {
		item := scheduledItem("Tourist Trap", trip.CategorySightseeing, at(9, 0), at(10, 30), 90)
		item.Rating = 2.1
		res := analyzeActivityQuality(dayAt(item))

		found := false
		for _, issue := range res.Issues {
			if issue.Type == "low_rated_activities" && issue.Severity == trip.SeverityMedium {
				found = true
			}
		}
		if !found {
			t.Error("expected a medium low_rated_activities issue")
		}
	})
}

func TestProfileAlignmentPace(t *testing.T) {
	critic := NewCritic()

	// Five items against a slow pace.
	day := dayAt(
		scheduledItem("A", trip.CategoryCultural, at(9, 0), at(10, 30), 90),
		scheduledItem("B", trip.CategorySightseeing, at(11, 0), at(12, 30), 90),
		scheduledItem("Lunch", trip.CategoryDining, at(13, 0), at(14, 30), 90),
		scheduledItem("C", trip.CategoryOutdoor, at(15, 0), at(16, 30), 90),
		scheduledItem("D", trip.CategoryShopping, at(17, 0), at(18, 30), 90),
	)
	profile := trip.TravelerProfile{
		SpendTier: trip.TierMidRange,
		Pace:      trip.PaceSlow,
		GroupSize: 2,
	}

	result := critic.Critique(day, profile)
	found := false
	for _, issue := range result.Issues {
		if issue.Type == "pace_mismatch" && issue.Severity == trip.SeverityMedium {
			found = true
		}
	}
	if !found {
		t.Error("expected a medium pace_mismatch for an overpacked slow day")
	}
}

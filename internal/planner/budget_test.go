package planner

import (
	"math"
	"strings"
	"testing"
	"time"

	"ai-trip-planner/internal/trip"
)

func pricedItem(name string, category trip.ItemCategory, cost float64) trip.ScheduledItem {
	return trip.ScheduledItem{
		Candidate: trip.Candidate{
			ID:       name,
			Name:     name,
			Category: category,
			Cost:     cost,
		},
	}
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

func sampleItinerary() []trip.DayPlan {
	return []trip.DayPlan{
		{
			DayIndex: 1,
			Date:     time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Items: []trip.ScheduledItem{
				pricedItem("Grand Palace", trip.CategorySightseeing, 15),
				pricedItem("Thai Kitchen", trip.CategoryDining, 12),
				pricedItem("Night Market", trip.CategoryShopping, 0),
			},
		},
		{
			DayIndex: 2,
			Date:     time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC),
			Items: []trip.ScheduledItem{
				pricedItem("National Museum", trip.CategoryCultural, 8),
				pricedItem("River Bistro", trip.CategoryDining, 20),
			},
		},
	}
}

func TestEstimateTotalsAreConsistent(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}
	breakdown := est.Estimate(sampleItinerary(), "Bangkok, Thailand", 2, trip.TierBudget)

	var daySum float64
	for _, day := range breakdown.DailyBreakdowns {
		daySum += day.TotalCost

		var categorySum float64
		for _, amount := range day.Categories {
			categorySum += amount
		}
		if math.Abs(day.TotalCost-categorySum) > 0.001 {
			t.Errorf("day %d: total %.2f != category sum %.2f", day.DayIndex, day.TotalCost, categorySum)
		}

		var itemSum float64
		for _, item := range day.ItemCosts {
			itemSum += item.TotalCost
		}
		if math.Abs(day.TotalCost-itemSum) > 0.001 {
			t.Errorf("day %d: total %.2f != item sum %.2f", day.DayIndex, day.TotalCost, itemSum)
		}
	}
	if math.Abs(breakdown.TotalCost-daySum) > 0.001 {
		t.Errorf("trip total %.2f != sum of day totals %.2f", breakdown.TotalCost, daySum)
	}

	var categoryTotalSum float64
	for _, amount := range breakdown.CategoryTotals {
		categoryTotalSum += amount
	}
	if math.Abs(breakdown.TotalCost-categoryTotalSum) > 0.001 {
		t.Errorf("trip total %.2f != category totals sum %.2f", breakdown.TotalCost, categoryTotalSum)
	}

	wantAverage := breakdown.TotalCost / 2
	if math.Abs(breakdown.DailyAverage-wantAverage) > 0.001 {
		t.Errorf("daily average %.2f, want %.2f", breakdown.DailyAverage, wantAverage)
	}
}

func TestEstimateLocationMultiplier(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}

	bangkok := est.Estimate(sampleItinerary(), "Bangkok, Thailand", 2, trip.TierMidRange)
	if bangkok.LocationMultiplier != 0.6 {
		t.Errorf("Bangkok multiplier %.2f, want 0.6", bangkok.LocationMultiplier)
	}

	unknown := est.Estimate(sampleItinerary(), "Springfield", 2, trip.TierMidRange)
	if unknown.LocationMultiplier != 1.0 {
		t.Errorf("unknown city multiplier %.2f, want 1.0", unknown.LocationMultiplier)
	}

	// A priced item scales linearly with the location multiplier.
	item := bangkok.DailyBreakdowns[0].ItemCosts[0]
	if item.Name != "Grand Palace" {
		t.Fatalf("unexpected first item %q", item.Name)
	}
	if math.Abs(item.CostPerPerson-15*0.6) > 0.001 {
		t.Errorf("Grand Palace per person %.2f, want %.2f", item.CostPerPerson, 15*0.6)
	}
}

func TestEstimateTierMultiplier(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}
	itinerary := sampleItinerary()

	budget := est.Estimate(itinerary, "Springfield", 1, trip.TierBudget)
	luxury := est.Estimate(itinerary, "Springfield", 1, trip.TierLuxury)

	if budget.TierMultiplier != 0.7 {
		t.Errorf("budget tier multiplier %.2f, want 0.7", budget.TierMultiplier)
	}
	if luxury.TierMultiplier != 1.8 {
		t.Errorf("luxury tier multiplier %.2f, want 1.8", luxury.TierMultiplier)
	}
	if luxury.TotalCost <= budget.TotalCost {
		t.Errorf("luxury total %.2f should exceed budget total %.2f", luxury.TotalCost, budget.TotalCost)
	}
}

func TestEstimateSynthesizesTransport(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}
	breakdown := est.Estimate(sampleItinerary(), "Springfield", 2, trip.TierMidRange)

	for _, day := range breakdown.DailyBreakdowns {
		if day.Categories[trip.CostTransport] == 0 {
			t.Errorf("day %d: no transport cost synthesized", day.DayIndex)
		}
		found := false
		for _, item := range day.ItemCosts {
			if item.Name == "Local Transportation" {
				found = true
				// Default transport cost of $15 per person for two travelers.
				if math.Abs(item.TotalCost-30) > 0.001 {
					t.Errorf("day %d: transport total %.2f, want 30", day.DayIndex, item.TotalCost)
				}
			}
		}
		if !found {
			t.Errorf("day %d: missing Local Transportation line", day.DayIndex)
		}
	}
}

func TestEstimateDefaultCostsWhenUnpriced(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}
	itinerary := []trip.DayPlan{{
		DayIndex: 1,
		Items: []trip.ScheduledItem{
			pricedItem("Free Gallery", trip.CategoryCultural, 0),
		},
	}}

	breakdown := est.Estimate(itinerary, "Springfield", 1, trip.TierMidRange)
	item := breakdown.DailyBreakdowns[0].ItemCosts[0]
	if item.CostPerPerson != 15 {
		t.Errorf("unpriced cultural item per person %.2f, want category default 15", item.CostPerPerson)
	}
}

func TestEstimateZeroTravelersClamped(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}
	breakdown := est.Estimate(sampleItinerary(), "Springfield", 0, trip.TierMidRange)
	if breakdown.Travelers != 1 {
		t.Errorf("travelers %d, want clamped to 1", breakdown.Travelers)
	}
}

func TestInsightsComparisonAndTips(t *testing.T) {
	est := &BudgetEstimator{now: fixedClock}

	breakdown := trip.BudgetBreakdown{
		TotalCost: 600,
		Travelers: 1,
		SpendTier: trip.TierBudget,
		CategoryTotals: map[trip.CostCategory]float64{
			trip.CostDining:      400,
			trip.CostAttractions: 150,
			trip.CostTransport:   50,
		},
	}
	insights := est.Insights(breakdown, "New York, USA", 3)

	// 200/day per person against a 40-80 budget range.
	if insights.Comparison.WithinRange {
		t.Error("comparison should be out of range")
	}
	if insights.Comparison.ActualDailyPerPerson != 200 {
		t.Errorf("actual daily per person %.2f, want 200", insights.Comparison.ActualDailyPerPerson)
	}
	if insights.Comparison.VariancePercent != 150 {
		t.Errorf("variance %.1f%%, want 150", insights.Comparison.VariancePercent)
	}

	if len(insights.Warnings) == 0 {
		t.Fatal("expected warnings for an over-budget, dining-heavy plan")
	}
	joined := strings.Join(insights.Warnings, " | ")
	if !strings.Contains(joined, "exceed budget expectations") {
		t.Errorf("missing over-budget warning in %q", joined)
	}
	if !strings.Contains(joined, "dining") {
		t.Errorf("missing dining warning in %q", joined)
	}

	var highCostTip bool
	for _, tip := range insights.Tips {
		if strings.Contains(tip, "High-cost city") {
			highCostTip = true
		}
	}
	if !highCostTip {
		t.Error("expected a high-cost city tip for New York")
	}
	if len(insights.Tips) < 3 {
		t.Errorf("expected the standard money-saving tips, got %d tips", len(insights.Tips))
	}
}

func TestFormatCost(t *testing.T) {
	if got := FormatCost(42.5); got != "$42.50" {
		t.Errorf("FormatCost = %q, want $42.50", got)
	}
}

package planner

import (
	"fmt"
	"math"
	"strings"
	"time"

	"ai-trip-planner/internal/trip"
)

// Rough cost-of-living multipliers by destination, matched by substring.
var locationCostMultipliers = map[string]float64{
	// High cost cities
	"new york":      1.3,
	"san francisco": 1.4,
	"london":        1.2,
	"paris":         1.2,
	"tokyo":         1.3,
	"zurich":        1.5,
	"singapore":     1.2,

	// Medium cost cities
	"chicago":   1.1,
	"seattle":   1.1,
	"berlin":    1.0,
	"amsterdam": 1.1,
	"sydney":    1.2,

	// Lower cost cities
	"bangkok":     0.6,
	"budapest":    0.7,
	"prague":      0.8,
	"mexico city": 0.7,
	"mumbai":      0.5,
}

// Default per-person cost in USD by category, used when an item carries no
// explicit price.
var defaultCategoryCosts = map[trip.ItemCategory]float64{
	trip.CategoryCultural:      15,
	trip.CategorySightseeing:   10,
	trip.CategoryOutdoor:       5,
	trip.CategoryEntertainment: 25,
	trip.CategoryShopping:      0,
	trip.CategoryDining:        25,
	trip.CategoryAccommodation: 80,
	trip.CategoryTransport:     15,
}

var tierMultipliers = map[trip.SpendTier]float64{
	trip.TierBudget:   0.7,
	trip.TierMidRange: 1.0,
	trip.TierLuxury:   1.8,
}

// Expected per-person daily spend ranges by tier, used for insights only.
var tierDailyRanges = map[trip.SpendTier][2]float64{
	trip.TierBudget:   {40, 80},
	trip.TierMidRange: {80, 150},
	trip.TierLuxury:   {150, 300},
}

var highCostCities = []string{"new york", "london", "paris", "tokyo"}

// BudgetEstimator prices an itinerary. The multiplier and cost tables are
// read-only reference data shared safely across concurrent sessions.
type BudgetEstimator struct {
	now func() time.Time
}

func NewBudgetEstimator() *BudgetEstimator {
	return &BudgetEstimator{now: time.Now}
}

// Estimate prices each day of the itinerary and totals the trip. A day that
// fails to price cleanly contributes a zeroed breakdown rather than aborting
// the whole estimate.
func (e *BudgetEstimator) Estimate(itinerary []trip.DayPlan, destination string, travelers int, tier trip.SpendTier) trip.BudgetBreakdown {
	if travelers < 1 {
		travelers = 1
	}

	locMultiplier := locationMultiplier(destination)
	tierMultiplier, ok := tierMultipliers[tier]
	if !ok {
		tierMultiplier = 1.0
	}

	breakdown := trip.BudgetBreakdown{
		CategoryTotals:     make(map[trip.CostCategory]float64),
		Travelers:          travelers,
		SpendTier:          tier,
		LocationMultiplier: locMultiplier,
		TierMultiplier:     tierMultiplier,
		Currency:           "USD",
		CalculatedAt:       e.now(),
	}

	for _, day := range itinerary {
		daily := e.estimateDay(day, travelers, locMultiplier, tierMultiplier)
		breakdown.DailyBreakdowns = append(breakdown.DailyBreakdowns, daily)
		breakdown.TotalCost += daily.TotalCost
		for category, amount := range daily.Categories {
			breakdown.CategoryTotals[category] += amount
		}
	}

	if len(itinerary) > 0 {
		breakdown.DailyAverage = breakdown.TotalCost / float64(len(itinerary))
	}
	return breakdown
}

func (e *BudgetEstimator) estimateDay(day trip.DayPlan, travelers int, locMultiplier, tierMultiplier float64) trip.DailyBudget {
	daily := trip.DailyBudget{
		DayIndex:   day.DayIndex,
		Date:       day.Date,
		Theme:      day.Theme,
		Categories: make(map[trip.CostCategory]float64),
	}

	for _, item := range day.Items {
		perPerson := itemCost(item.Candidate, locMultiplier, tierMultiplier)
		total := perPerson * float64(travelers)
		category := costCategory(item.Category)

		daily.Categories[category] += total
		daily.ItemCosts = append(daily.ItemCosts, trip.ItemCost{
			Name:          item.Name,
			Category:      item.Category,
			CostCategory:  category,
			CostPerPerson: perPerson,
			TotalCost:     total,
		})
	}

	// Every day carries a transport cost: synthesize a local-transport line
	// when the schedule itself had none.
	if daily.Categories[trip.CostTransport] == 0 {
		transport := defaultCategoryCosts[trip.CategoryTransport] * locMultiplier * tierMultiplier * float64(travelers)
		daily.Categories[trip.CostTransport] += transport
		daily.ItemCosts = append(daily.ItemCosts, trip.ItemCost{
			Name:          "Local Transportation",
			Category:      trip.CategoryTransport,
			CostCategory:  trip.CostTransport,
			CostPerPerson: transport / float64(travelers),
			TotalCost:     transport,
		})
	}

	for _, amount := range daily.Categories {
		daily.TotalCost += amount
	}
	daily.CostPerPerson = daily.TotalCost / float64(travelers)
	return daily
}

func itemCost(c trip.Candidate, locMultiplier, tierMultiplier float64) float64 {
	if c.Cost > 0 {
		return c.Cost * locMultiplier * tierMultiplier
	}
	base, ok := defaultCategoryCosts[c.Category]
	if !ok {
		base = 15
	}
	return math.Round(base*locMultiplier*tierMultiplier*100) / 100
}

func costCategory(category trip.ItemCategory) trip.CostCategory {
	switch category {
	case trip.CategoryDining:
		return trip.CostDining
	case trip.CategoryCultural, trip.CategorySightseeing:
		return trip.CostAttractions
	case trip.CategoryEntertainment:
		return trip.CostEntertainment
	case trip.CategoryShopping:
		return trip.CostShopping
	case trip.CategoryTransport:
		return trip.CostTransport
	default:
		return trip.CostActivities
	}
}

func locationMultiplier(destination string) float64 {
	if destination == "" {
		return 1.0
	}
	lower := strings.ToLower(destination)
	for city, multiplier := range locationCostMultipliers {
		if strings.Contains(lower, city) {
			return multiplier
		}
	}
	return 1.0
}

// Insights produces the advisory layer over a computed breakdown. It is not
// part of the numeric contract.
func (e *BudgetEstimator) Insights(breakdown trip.BudgetBreakdown, destination string, durationDays int) trip.BudgetInsights {
	var insights trip.BudgetInsights

	if durationDays < 1 {
		durationDays = 1
	}
	dailyAverage := breakdown.TotalCost / float64(durationDays)
	dailyPerPerson := dailyAverage / float64(breakdown.Travelers)

	if breakdown.SpendTier == trip.TierBudget && dailyPerPerson > 80 {
		insights.Warnings = append(insights.Warnings, "Daily costs may exceed budget expectations - consider more economical options")
	} else if breakdown.SpendTier == trip.TierLuxury && dailyPerPerson < 150 {
		insights.Recommendations = append(insights.Recommendations, "Room for premium experiences within luxury budget")
	}

	if breakdown.TotalCost > 0 {
		diningPct := breakdown.CategoryTotals[trip.CostDining] / breakdown.TotalCost * 100
		if diningPct > 50 {
			insights.Warnings = append(insights.Warnings, "High proportion of budget on dining - consider mixing restaurant types")
		} else if diningPct < 25 {
			insights.Recommendations = append(insights.Recommendations, "Budget allows for more diverse dining experiences")
		}

		activitiesPct := (breakdown.CategoryTotals[trip.CostAttractions] + breakdown.CategoryTotals[trip.CostActivities]) / breakdown.TotalCost * 100
		if activitiesPct < 30 {
			insights.Recommendations = append(insights.Recommendations, "Consider adding more paid activities or attractions")
		}
	}

	if breakdown.Travelers > 4 {
		insights.Tips = append(insights.Tips,
			"Look for group discounts at attractions and restaurants",
			"Consider family-style dining to reduce costs")
	}

	lowerDest := strings.ToLower(destination)
	for _, city := range highCostCities {
		if strings.Contains(lowerDest, city) {
			insights.Tips = append(insights.Tips,
				"High-cost city: Consider lunch specials and happy hour deals",
				"Many world-class museums offer free or discounted hours")
			break
		}
	}

	expected, ok := tierDailyRanges[breakdown.SpendTier]
	if !ok {
		expected = tierDailyRanges[trip.TierMidRange]
	}
	comparison := trip.BudgetComparison{
		ExpectedDailyMin:     expected[0],
		ExpectedDailyMax:     expected[1],
		ActualDailyPerPerson: math.Round(dailyPerPerson*100) / 100,
		WithinRange:          dailyPerPerson >= expected[0] && dailyPerPerson <= expected[1],
	}
	if dailyPerPerson > expected[1] {
		comparison.VariancePercent = math.Round((dailyPerPerson-expected[1])/expected[1]*1000) / 10
	}
	insights.Comparison = comparison

	insights.Tips = append(insights.Tips,
		"Book attraction tickets online for potential discounts",
		"Use public transportation for cost-effective city travel",
		"Consider picnic lunches in parks to save on meal costs")

	return insights
}

// FormatCost renders a USD amount for user-facing output.
func FormatCost(amount float64) string {
	return fmt.Sprintf("$%.2f", amount)
}

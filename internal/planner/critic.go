package planner

import (
	"fmt"
	"log/slog"
	"strings"

	"ai-trip-planner/internal/trip"
)

// Quality thresholds used by the critic's sub-checks.
const (
	minimumApprovalScore = 70.0
	minActivityMinutes   = 30
	maxActivityMinutes   = 240
	maxDayMinutes        = 720 // 12 hours
	maxTravelRatio       = 0.4
	minBreakMinutes      = 15
	maxCoordinateSpread  = 0.1 // degrees, roughly 10km
)

// Per-person cost estimates by category and tier, used when an item carries
// no explicit price.
var categoryCostEstimates = map[trip.ItemCategory]map[trip.SpendTier]float64{
	trip.CategoryDining:        {trip.TierBudget: 15, trip.TierMidRange: 30, trip.TierLuxury: 80},
	trip.CategorySightseeing:   {trip.TierBudget: 10, trip.TierMidRange: 20, trip.TierLuxury: 50},
	trip.CategoryCultural:      {trip.TierBudget: 12, trip.TierMidRange: 25, trip.TierLuxury: 60},
	trip.CategoryEntertainment: {trip.TierBudget: 20, trip.TierMidRange: 40, trip.TierLuxury: 100},
	trip.CategoryShopping:      {trip.TierBudget: 30, trip.TierMidRange: 100, trip.TierLuxury: 300},
	trip.CategoryOutdoor:       {trip.TierBudget: 5, trip.TierMidRange: 15, trip.TierLuxury: 40},
	trip.CategoryTransport:     {trip.TierBudget: 10, trip.TierMidRange: 20, trip.TierLuxury: 50},
}

// Critic scores a single day plan against the traveler's profile. It is a
// pure function of its inputs: no I/O, no retries, deterministic output.
type Critic struct{}

func NewCritic() *Critic {
	return &Critic{}
}

// subResult is one sub-check's contribution to the overall critique. Degraded
// is set when the check panicked and was replaced with a zero score, so the
// failure stays visible without aborting the whole critique.
type subResult struct {
	Score           float64
	Issues          []trip.Issue
	Recommendations []string
	Degraded        bool
}

// Critique runs the five sub-checks, averages their scores unweighted, and
// applies the approval rule: score >= 70 and zero high-severity issues.
func (c *Critic) Critique(day trip.DayPlan, profile trip.TravelerProfile) trip.CritiqueResult {
	checks := []struct {
		name string
		run  func() subResult
	}{
		{"logical_consistency", func() subResult { return checkLogicalConsistency(day) }},
		{"budget_alignment", func() subResult { return analyzeBudget(day, profile) }},
		{"profile_alignment", func() subResult { return analyzeProfileAlignment(day, profile) }},
		{"time_feasibility", func() subResult { return analyzeTimeFeasibility(day) }},
		{"activity_quality", func() subResult { return analyzeActivityQuality(day) }},
	}

	var (
		scoreSum        float64
		issues          []trip.Issue
		recommendations []string
	)
	for _, check := range checks {
		res := guardSubCheck(check.name, check.run)
		scoreSum += res.Score
		issues = append(issues, res.Issues...)
		recommendations = append(recommendations, res.Recommendations...)
	}

	overall := scoreSum / float64(len(checks))
	result := trip.CritiqueResult{
		Score:           overall,
		Issues:          issues,
		Recommendations: dedupeStrings(recommendations),
	}
	result.Approved = overall >= minimumApprovalScore && result.CountBySeverity(trip.SeverityHigh) == 0
	result.Summary = critiqueSummary(result)
	return result
}

// guardSubCheck converts a panicking sub-check into a degraded zero-score
// result so one bad record cannot abort the whole critique.
func guardSubCheck(name string, run func() subResult) (res subResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("critique sub-check failed, degrading to zero score", "check", name, "panic", r)
			res = subResult{Degraded: true}
		}
	}()
	return run()
}

func checkLogicalConsistency(day trip.DayPlan) subResult {
	var res subResult
	score := 100.0
	items := day.Items

	// Overlapping consecutive items.
	for i := 0; i < len(items)-1; i++ {
		current, next := items[i], items[i+1]
		if current.EndTime.After(next.StartTime) {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "time_overlap",
				Severity:    trip.SeverityHigh,
				Description: fmt.Sprintf("Activity '%s' overlaps with '%s'", current.Name, next.Name),
				Detail:      map[string]any{"activities": []string{current.Name, next.Name}},
			})
			score -= 20
		}
	}

	// Gaps smaller than the declared travel time.
	for i := 0; i < len(items)-1; i++ {
		current, next := items[i], items[i+1]
		if next.TravelTimeFromPrevious == nil {
			continue
		}
		expected := *next.TravelTimeFromPrevious
		actualGap := next.StartTime.Sub(current.EndTime).Minutes()
		if actualGap < float64(expected) {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "insufficient_travel_time",
				Severity:    trip.SeverityHigh,
				Description: fmt.Sprintf("Insufficient travel time between '%s' and '%s'", current.Name, next.Name),
				Detail:      map[string]any{"expected_minutes": expected, "actual_minutes": actualGap},
			})
			score -= 15
		}
	}

	// Unreasonable durations.
	for _, item := range items {
		if item.DurationMinutes == 0 {
			continue
		}
		if item.DurationMinutes < minActivityMinutes {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "too_short_activity",
				Severity:    trip.SeverityMedium,
				Description: fmt.Sprintf("Activity '%s' is too short (%d minutes)", item.Name, item.DurationMinutes),
				Detail:      map[string]any{"activity": item.Name},
			})
			score -= 10
		}
		if item.DurationMinutes > maxActivityMinutes {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "too_long_activity",
				Severity:    trip.SeverityMedium,
				Description: fmt.Sprintf("Activity '%s' is too long (%d minutes)", item.Name, item.DurationMinutes),
				Detail:      map[string]any{"activity": item.Name},
			})
			score -= 10
		}
	}

	if len(res.Issues) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Adjust activity timing to eliminate overlaps",
			"Ensure realistic travel times between activities",
			"Balance activity durations appropriately")
	}
	res.Score = max(0, score)
	return res
}

func analyzeBudget(day trip.DayPlan, profile trip.TravelerProfile) subResult {
	var res subResult
	score := 100.0

	estimatedTotal := 0.0
	for _, item := range day.Items {
		if item.Cost > 0 {
			estimatedTotal += item.Cost
		} else if estimates, ok := categoryCostEstimates[item.Category]; ok {
			if cost, ok := estimates[profile.SpendTier]; ok {
				estimatedTotal += cost
			} else {
				estimatedTotal += 30
			}
		}
	}

	if profile.DailyBudgetMax > 0 && estimatedTotal > profile.DailyBudgetMax {
		overAmount := estimatedTotal - profile.DailyBudgetMax
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "over_budget",
			Severity:    trip.SeverityHigh,
			Description: fmt.Sprintf("Estimated cost ($%.2f) exceeds daily budget ($%.2f)", estimatedTotal, profile.DailyBudgetMax),
			Detail:      map[string]any{"over_amount": overAmount},
		})
		score -= 30
	}

	expensiveCount := 0
	for _, item := range day.Items {
		estimates, ok := categoryCostEstimates[item.Category]
		if !ok {
			continue
		}
		midRange := estimates[trip.TierMidRange]
		if profile.SpendTier == trip.TierBudget && item.Cost > 0 && item.Cost > midRange {
			expensiveCount++
		} else if profile.SpendTier == trip.TierLuxury && item.Cost > 0 && item.Cost < midRange {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "budget_mismatch",
				Severity:    trip.SeverityMedium,
				Description: fmt.Sprintf("Activity '%s' may be too budget-oriented for luxury preference", item.Name),
				Detail:      map[string]any{"activity": item.Name},
			})
			score -= 10
		}
	}
	if expensiveCount > 0 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "budget_mismatch",
			Severity:    trip.SeverityMedium,
			Description: fmt.Sprintf("%d activities may be too expensive for budget preference", expensiveCount),
			Detail:      map[string]any{"count": expensiveCount},
		})
		score -= 15
	}

	if len(res.Issues) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Consider adjusting activity choices to match budget",
			"Look for free or low-cost alternatives",
			"Spread expensive activities across multiple days")
	}
	res.Score = max(0, score)
	return res
}

func analyzeProfileAlignment(day trip.DayPlan, profile trip.TravelerProfile) subResult {
	var res subResult
	score := 100.0

	categories := make(map[trip.ItemCategory]bool)
	for _, item := range day.Items {
		categories[item.Category] = true
	}

	styleMatch := false
	styleNames := make([]string, 0, len(profile.TravelStyles))
	for _, style := range profile.TravelStyles {
		styleNames = append(styleNames, string(style))
		switch style {
		case trip.StyleCultural:
			if categories[trip.CategoryCultural] {
				styleMatch = true
			}
		case trip.StyleAdventure:
			if categories[trip.CategoryOutdoor] {
				styleMatch = true
			}
		case trip.StyleRelaxation:
			if len(day.Items) <= 3 {
				styleMatch = true
			}
		}
	}
	if !styleMatch && len(profile.TravelStyles) > 0 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "style_mismatch",
			Severity:    trip.SeverityMedium,
			Description: fmt.Sprintf("Activities don't align with travel style: %s", strings.Join(styleNames, ", ")),
			Detail:      map[string]any{"user_styles": styleNames},
		})
		score -= 20
	}

	count := len(day.Items)
	if profile.Pace == trip.PaceSlow && count > 4 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "pace_mismatch",
			Severity:    trip.SeverityMedium,
			Description: fmt.Sprintf("Too many activities (%d) for slow pace preference", count),
			Detail:      map[string]any{"activity_count": count},
		})
		score -= 15
	} else if profile.Pace == trip.PaceFast && count < 5 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "pace_mismatch",
			Severity:    trip.SeverityLow,
			Description: fmt.Sprintf("Too few activities (%d) for fast pace preference", count),
			Detail:      map[string]any{"activity_count": count},
		})
		score -= 10
	}

	if len(profile.Interests) > 0 {
		interestMatch := false
		for _, item := range day.Items {
			haystack := strings.ToLower(item.Name + " " + item.Description)
			for _, interest := range profile.Interests {
				if strings.Contains(haystack, strings.ToLower(interest)) {
					interestMatch = true
					break
				}
			}
			if interestMatch {
				break
			}
		}
		if !interestMatch {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "interest_mismatch",
				Severity:    trip.SeverityMedium,
				Description: fmt.Sprintf("Activities don't align with user interests: %s", strings.Join(profile.Interests, ", ")),
				Detail:      map[string]any{"user_interests": profile.Interests},
			})
			score -= 15
		}
	}

	if profile.GroupSize > 4 {
		for _, item := range day.Items {
			if item.Category == trip.CategoryDining && item.BookingRef == "" {
				res.Issues = append(res.Issues, trip.Issue{
					Type:        "group_size_concern",
					Severity:    trip.SeverityLow,
					Description: fmt.Sprintf("Large group (%d) may need reservations for '%s'", profile.GroupSize, item.Name),
					Detail:      map[string]any{"activity": item.Name, "group_size": profile.GroupSize},
				})
				score -= 5
			}
		}
	}

	if len(res.Issues) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Adjust activities to better match user preferences",
			"Consider user's travel style and interests",
			"Ensure activity count matches preferred pace")
	}
	res.Score = max(0, score)
	return res
}

func analyzeTimeFeasibility(day trip.DayPlan) subResult {
	var res subResult
	items := day.Items
	if len(items) == 0 {
		return subResult{Score: 0}
	}
	score := 100.0

	span := items[len(items)-1].EndTime.Sub(items[0].StartTime).Minutes()
	if span > maxDayMinutes {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "day_too_long",
			Severity:    trip.SeverityMedium,
			Description: fmt.Sprintf("Day is too long (%.1f hours)", span/60),
			Detail:      map[string]any{"duration_hours": span / 60},
		})
		score -= 15
	}

	totalTravel := day.TotalTravelMinutes()
	totalActivity := 0
	for _, item := range items {
		totalActivity += item.DurationMinutes
	}
	if totalActivity > 0 {
		ratio := float64(totalTravel) / float64(totalActivity)
		if ratio > maxTravelRatio {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "too_much_travel",
				Severity:    trip.SeverityMedium,
				Description: fmt.Sprintf("Too much time spent traveling (%.1f%%)", ratio*100),
				Detail:      map[string]any{"travel_ratio": ratio},
			})
			score -= 20
		}
	}

	for i := 0; i < len(items)-1; i++ {
		current, next := items[i], items[i+1]
		breakTime := next.StartTime.Sub(current.EndTime).Minutes()
		travel := 0
		if next.TravelTimeFromPrevious != nil {
			travel = *next.TravelTimeFromPrevious
		}
		actualBreak := breakTime - float64(travel)
		if actualBreak < minBreakMinutes {
			res.Issues = append(res.Issues, trip.Issue{
				Type:        "insufficient_break",
				Severity:    trip.SeverityLow,
				Description: fmt.Sprintf("Insufficient break time between '%s' and '%s'", current.Name, next.Name),
				Detail:      map[string]any{"break_minutes": actualBreak},
			})
			score -= 5
		}
	}

	if len(res.Issues) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Reduce total day duration",
			"Minimize travel time between activities",
			"Add sufficient break time between activities")
	}
	res.Score = max(0, score)
	return res
}

func analyzeActivityQuality(day trip.DayPlan) subResult {
	var res subResult
	score := 100.0
	items := day.Items

	unique := make(map[trip.ItemCategory]bool)
	for _, item := range items {
		unique[item.Category] = true
	}
	if len(unique) < 2 && len(items) > 2 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "lack_of_variety",
			Severity:    trip.SeverityLow,
			Description: "Itinerary lacks activity variety",
			Detail:      map[string]any{"unique_types": len(unique), "total_activities": len(items)},
		})
		score -= 10
	}

	var lowRated []string
	for _, item := range items {
		if item.Rating > 0 && item.Rating < 3.0 {
			lowRated = append(lowRated, item.Name)
		}
	}
	if len(lowRated) > 0 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "low_rated_activities",
			Severity:    trip.SeverityMedium,
			Description: fmt.Sprintf("Some activities have low ratings: %s", strings.Join(lowRated, ", ")),
			Detail:      map[string]any{"activities": lowRated},
		})
		score -= 15
	}

	hasDining := false
	for _, item := range items {
		if item.Category == trip.CategoryDining {
			hasDining = true
			break
		}
	}
	if !hasDining && len(items) > 2 {
		res.Issues = append(res.Issues, trip.Issue{
			Type:        "missing_dining",
			Severity:    trip.SeverityMedium,
			Description: "No dining activities planned for the day",
		})
		score -= 15
	}

	if len(items) > 3 {
		var lats, lngs []float64
		for _, item := range items {
			if item.Location.HasCoordinates() {
				lats = append(lats, *item.Location.Latitude)
				lngs = append(lngs, *item.Location.Longitude)
			}
		}
		if len(lats) > 1 {
			latSpread := maxFloat(lats) - minFloat(lats)
			lngSpread := maxFloat(lngs) - minFloat(lngs)
			if latSpread > maxCoordinateSpread || lngSpread > maxCoordinateSpread {
				res.Issues = append(res.Issues, trip.Issue{
					Type:        "spread_out_locations",
					Severity:    trip.SeverityLow,
					Description: "Activities are spread across distant locations",
					Detail:      map[string]any{"lat_spread": latSpread, "lng_spread": lngSpread},
				})
				score -= 10
			}
		}
	}

	if len(res.Issues) > 0 {
		res.Recommendations = append(res.Recommendations,
			"Add variety to activity types",
			"Replace low-rated activities with better alternatives",
			"Include dining options",
			"Group activities by location to reduce travel")
	}
	res.Score = max(0, score)
	return res
}

func critiqueSummary(result trip.CritiqueResult) string {
	if result.Approved {
		return fmt.Sprintf("Approved with score %.1f. Ready for user confirmation.", result.Score)
	}
	return fmt.Sprintf("Not approved (score %.1f). Found %d high-priority and %d medium-priority issues requiring revision.",
		result.Score, result.CountBySeverity(trip.SeverityHigh), result.CountBySeverity(trip.SeverityMedium))
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func maxFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

func minFloat(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

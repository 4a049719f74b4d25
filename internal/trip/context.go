package trip

import "time"

// Request is the traveler's extracted intent: everything the planning
// pipeline needs before any enrichment happens.
type Request struct {
	Destination         string    `json:"destination"`
	DurationDays        int       `json:"duration_days"`
	StartDate           time.Time `json:"start_date"`
	FoodPreferences     []string  `json:"food_preferences,omitempty"`
	ActivityPreferences []string  `json:"activity_preferences,omitempty"`
	POIPreferences      []string  `json:"poi_preferences,omitempty"`
	Travelers           int       `json:"travelers"`
	SpendTier           SpendTier `json:"spend_tier"`
	Pace                Pace      `json:"pace"`
	DailyBudgetMax      float64   `json:"daily_budget_max,omitempty"`
	Interests           []string  `json:"interests,omitempty"`
}

// TravelContext is the session's accumulating working set. Each pipeline
// stage receives a snapshot and returns an enriched copy; only the
// orchestrator mutates the session's record between stages. Enrichment fields
// are append-only within a session except the itinerary, which a revision
// cycle may replace wholesale.
type TravelContext struct {
	Request

	Location    *Location        `json:"validated_location,omitempty"`
	Weather     WeatherData      `json:"weather_data,omitempty"`
	POIs        []Candidate      `json:"potential_pois,omitempty"`
	Activities  []Candidate      `json:"potential_activities,omitempty"`
	Restaurants []Candidate      `json:"potential_restaurants,omitempty"`
	Itinerary   []DayPlan        `json:"proposed_itinerary,omitempty"`
	Budget      *BudgetBreakdown `json:"budget_breakdown,omitempty"`
	Insights    *BudgetInsights  `json:"budget_insights,omitempty"`
}

// Profile derives the critic's traveler profile from the request.
func (r Request) Profile() TravelerProfile {
	styles := make([]TravelStyle, 0, len(r.ActivityPreferences))
	for _, pref := range r.ActivityPreferences {
		switch TravelStyle(pref) {
		case StyleAdventure, StyleCultural, StyleRelaxation, StyleLuxury, StyleBudget:
			styles = append(styles, TravelStyle(pref))
		}
	}
	interests := append([]string{}, r.Interests...)
	interests = append(interests, r.POIPreferences...)
	return TravelerProfile{
		SpendTier:      r.SpendTier,
		DailyBudgetMax: r.DailyBudgetMax,
		Pace:           r.Pace,
		TravelStyles:   styles,
		Interests:      interests,
		GroupSize:      r.Travelers,
	}
}

// Clone returns a deep copy so a stage can enrich its snapshot without
// touching the session's record.
func (tc *TravelContext) Clone() *TravelContext {
	out := *tc
	out.FoodPreferences = append([]string(nil), tc.FoodPreferences...)
	out.ActivityPreferences = append([]string(nil), tc.ActivityPreferences...)
	out.POIPreferences = append([]string(nil), tc.POIPreferences...)
	out.Interests = append([]string(nil), tc.Interests...)
	if tc.Location != nil {
		loc := *tc.Location
		out.Location = &loc
	}
	out.Weather.Forecast = append([]WeatherDay(nil), tc.Weather.Forecast...)
	out.POIs = append([]Candidate(nil), tc.POIs...)
	out.Activities = append([]Candidate(nil), tc.Activities...)
	out.Restaurants = append([]Candidate(nil), tc.Restaurants...)
	out.Itinerary = CloneItinerary(tc.Itinerary)
	if tc.Budget != nil {
		budget := *tc.Budget
		budget.DailyBreakdowns = append([]DailyBudget(nil), tc.Budget.DailyBreakdowns...)
		budget.CategoryTotals = make(map[CostCategory]float64, len(tc.Budget.CategoryTotals))
		for k, v := range tc.Budget.CategoryTotals {
			budget.CategoryTotals[k] = v
		}
		out.Budget = &budget
	}
	if tc.Insights != nil {
		insights := *tc.Insights
		insights.Recommendations = append([]string(nil), tc.Insights.Recommendations...)
		insights.Warnings = append([]string(nil), tc.Insights.Warnings...)
		insights.Tips = append([]string(nil), tc.Insights.Tips...)
		out.Insights = &insights
	}
	return &out
}

// CloneItinerary deep-copies a list of day plans.
func CloneItinerary(days []DayPlan) []DayPlan {
	if days == nil {
		return nil
	}
	out := make([]DayPlan, len(days))
	for i, day := range days {
		out[i] = day
		out[i].Items = append([]ScheduledItem(nil), day.Items...)
	}
	return out
}

package trip

import (
	"strings"
	"time"
)

// ItemCategory classifies a candidate or scheduled item.
type ItemCategory string

const (
	CategorySightseeing   ItemCategory = "sightseeing"
	CategoryDining        ItemCategory = "dining"
	CategoryCultural      ItemCategory = "cultural"
	CategoryOutdoor       ItemCategory = "outdoor"
	CategoryEntertainment ItemCategory = "entertainment"
	CategoryShopping      ItemCategory = "shopping"
	CategoryTransport     ItemCategory = "transport"
	CategoryAccommodation ItemCategory = "accommodation"
)

// DayStatus represents the approval state of a single planned day.
type DayStatus string

const (
	DayStatusPending       DayStatus = "pending"
	DayStatusApproved      DayStatus = "approved"
	DayStatusNeedsRevision DayStatus = "needs_revision"
)

// Location holds geographic information for a destination or venue.
// Coordinates are pointers because many scraped candidates carry none.
type Location struct {
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PlaceID   string   `json:"place_id,omitempty"`
	Country   string   `json:"country,omitempty"`
	City      string   `json:"city,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Candidate is the canonical shape every discovered POI, activity, or
// restaurant is normalized into at ingestion. The scheduler and critic only
// ever see this shape, never the provider-specific records.
type Candidate struct {
	ID              string       `json:"id"`
	Name            string       `json:"name"`
	Category        ItemCategory `json:"category"`
	Description     string       `json:"description,omitempty"`
	Location        Location     `json:"location"`
	Rating          float64      `json:"rating,omitempty"`
	PriceLevel      int          `json:"price_level,omitempty"`
	Cost            float64      `json:"cost,omitempty"`
	DurationMinutes int          `json:"duration_minutes,omitempty"`
	CuisineType     string       `json:"cuisine_type,omitempty"`
	BookingRef      string       `json:"booking_reference,omitempty"`
	Source          string       `json:"source,omitempty"`
}

// ScheduledItem is a candidate placed into a day's timeline.
type ScheduledItem struct {
	Candidate
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	// TravelTimeFromPrevious is minutes from the previous item of the same
	// day; nil for the first item.
	TravelTimeFromPrevious *int   `json:"travel_time_from_previous,omitempty"`
	TravelMode             string `json:"travel_mode,omitempty"`
}

// DayPlan is a single day's itinerary.
type DayPlan struct {
	DayIndex              int             `json:"day_index"`
	Date                  time.Time       `json:"date"`
	Theme                 string          `json:"theme"`
	Status                DayStatus       `json:"status"`
	Items                 []ScheduledItem `json:"items"`
	TotalCost             float64         `json:"total_cost"`
	TotalDurationMinutes  int             `json:"total_duration_minutes"`
	Weather               WeatherDay      `json:"weather_forecast"`
	SpecialConsiderations string          `json:"special_considerations,omitempty"`
	RevisionCount         int             `json:"revision_count"`
}

// TotalTravelMinutes sums the travel legs between the day's items.
func (d DayPlan) TotalTravelMinutes() int {
	total := 0
	for _, item := range d.Items {
		if item.TravelTimeFromPrevious != nil {
			total += *item.TravelTimeFromPrevious
		}
	}
	return total
}

// WeatherDay is the forecast slice for a single calendar day.
type WeatherDay struct {
	Date              string  `json:"date,omitempty"`
	Condition         string  `json:"condition,omitempty"`
	Description       string  `json:"description,omitempty"`
	PrecipProbability float64 `json:"precip_probability,omitempty"`
	TempMinC          float64 `json:"temp_min_c,omitempty"`
	TempMaxC          float64 `json:"temp_max_c,omitempty"`
}

// IsAdverse reports whether the forecast argues against outdoor plans:
// rain/storm/snow condition keywords or precipitation probability above 50%.
func (w WeatherDay) IsAdverse() bool {
	cond := strings.ToLower(w.Condition)
	for _, kw := range []string{"rain", "storm", "snow", "thunder", "drizzle"} {
		if strings.Contains(cond, kw) {
			return true
		}
	}
	return w.PrecipProbability > 0.5
}

// WeatherData is the per-trip forecast returned by the weather collaborator.
// An empty value is valid and means "no forecast available".
type WeatherData struct {
	Forecast []WeatherDay `json:"forecast,omitempty"`
	Summary  string       `json:"summary,omitempty"`
}

// ForDate returns the forecast slice for the given date, falling back to the
// first forecast day when the exact date is missing.
func (w WeatherData) ForDate(date time.Time) WeatherDay {
	if len(w.Forecast) == 0 {
		return WeatherDay{}
	}
	key := date.Format("2006-01-02")
	for _, day := range w.Forecast {
		if day.Date == key {
			return day
		}
	}
	return w.Forecast[0]
}

// Severity tags how serious a critique issue is. It drives both the score
// penalty and the approval gate.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue is a single defect found by the quality critic.
type Issue struct {
	Type        string         `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Detail      map[string]any `json:"detail,omitempty"`
}

// CritiqueResult is the critic's verdict over one day.
type CritiqueResult struct {
	Score           float64  `json:"score"`
	Approved        bool     `json:"approved"`
	Issues          []Issue  `json:"issues"`
	Recommendations []string `json:"recommendations"`
	Summary         string   `json:"summary"`
}

// CountBySeverity returns how many issues carry the given severity.
func (c CritiqueResult) CountBySeverity(sev Severity) int {
	n := 0
	for _, issue := range c.Issues {
		if issue.Severity == sev {
			n++
		}
	}
	return n
}

// CostCategory buckets spending for the budget breakdown.
type CostCategory string

const (
	CostDining        CostCategory = "dining"
	CostAttractions   CostCategory = "attractions"
	CostActivities    CostCategory = "activities"
	CostEntertainment CostCategory = "entertainment"
	CostShopping      CostCategory = "shopping"
	CostTransport     CostCategory = "transport"
)

// ItemCost is the priced line for one scheduled item.
type ItemCost struct {
	Name          string       `json:"name"`
	Category      ItemCategory `json:"category"`
	CostCategory  CostCategory `json:"cost_category"`
	CostPerPerson float64      `json:"cost_per_person"`
	TotalCost     float64      `json:"total_cost"`
}

// DailyBudget is the per-day slice of the budget breakdown.
type DailyBudget struct {
	DayIndex      int                      `json:"day_index"`
	Date          time.Time                `json:"date"`
	Theme         string                   `json:"theme,omitempty"`
	Categories    map[CostCategory]float64 `json:"categories"`
	ItemCosts     []ItemCost               `json:"item_costs"`
	TotalCost     float64                  `json:"total_cost"`
	CostPerPerson float64                  `json:"cost_per_person"`
}

// BudgetBreakdown prices a whole itinerary.
type BudgetBreakdown struct {
	DailyBreakdowns    []DailyBudget            `json:"daily_breakdowns"`
	CategoryTotals     map[CostCategory]float64 `json:"category_totals"`
	TotalCost          float64                  `json:"total_cost"`
	DailyAverage       float64                  `json:"daily_average"`
	Travelers          int                      `json:"travelers"`
	SpendTier          SpendTier                `json:"spend_tier"`
	LocationMultiplier float64                  `json:"location_multiplier"`
	TierMultiplier     float64                  `json:"tier_multiplier"`
	Currency           string                   `json:"currency"`
	CalculatedAt       time.Time                `json:"calculated_at"`
}

// BudgetComparison relates actual daily per-person spend to the range the
// traveler's tier is expected to land in.
type BudgetComparison struct {
	ExpectedDailyMin     float64 `json:"expected_daily_min"`
	ExpectedDailyMax     float64 `json:"expected_daily_max"`
	ActualDailyPerPerson float64 `json:"actual_daily_per_person"`
	WithinRange          bool    `json:"within_range"`
	VariancePercent      float64 `json:"variance_percent"`
}

// BudgetInsights is advisory output attached to the breakdown. It is not part
// of the numeric contract.
type BudgetInsights struct {
	Recommendations []string         `json:"recommendations,omitempty"`
	Warnings        []string         `json:"warnings,omitempty"`
	Tips            []string         `json:"tips,omitempty"`
	Comparison      BudgetComparison `json:"comparison"`
}

package trip

// Pace controls how many activities get packed into a day.
type Pace string

const (
	PaceSlow     Pace = "slow"
	PaceModerate Pace = "moderate"
	PaceFast     Pace = "fast"
)

// SpendTier is the traveler's declared budget category.
type SpendTier string

const (
	TierBudget   SpendTier = "budget"
	TierMidRange SpendTier = "mid-range"
	TierLuxury   SpendTier = "luxury"
)

// TravelStyle tags the kind of trip the traveler wants.
type TravelStyle string

const (
	StyleAdventure  TravelStyle = "adventure"
	StyleCultural   TravelStyle = "cultural"
	StyleRelaxation TravelStyle = "relaxation"
	StyleLuxury     TravelStyle = "luxury"
	StyleBudget     TravelStyle = "budget"
)

// TravelerProfile is everything the critic needs to judge a day against the
// traveler, assembled from the extracted request.
type TravelerProfile struct {
	SpendTier SpendTier `json:"spend_tier"`
	// DailyBudgetMax is the declared daily ceiling in USD; 0 means none.
	DailyBudgetMax float64       `json:"daily_budget_max,omitempty"`
	Pace           Pace          `json:"pace"`
	TravelStyles   []TravelStyle `json:"travel_styles,omitempty"`
	Interests      []string      `json:"interests,omitempty"`
	GroupSize      int           `json:"group_size"`
}

// ParsePace maps free text onto a Pace, defaulting to moderate.
func ParsePace(s string) Pace {
	switch Pace(s) {
	case PaceSlow, PaceModerate, PaceFast:
		return Pace(s)
	default:
		return PaceModerate
	}
}

// ParseSpendTier maps free text onto a SpendTier, defaulting to mid-range.
func ParseSpendTier(s string) SpendTier {
	switch SpendTier(s) {
	case TierBudget, TierMidRange, TierLuxury:
		return SpendTier(s)
	default:
		return TierMidRange
	}
}

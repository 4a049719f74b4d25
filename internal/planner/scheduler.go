package planner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-trip-planner/internal/geo"
	"ai-trip-planner/internal/trip"
)

const (
	dayStartHour       = 9
	interItemBufferMin = 30
	revisionBufferMin  = 60
	highCostDayUSD     = 100
	defaultItemMinutes = 90
)

// Non-dining activity budget per day by pace.
var paceActivityBudget = map[trip.Pace]int{
	trip.PaceSlow:     3,
	trip.PaceModerate: 4,
	trip.PaceFast:     6,
}

var themeByCategory = map[trip.ItemCategory]string{
	trip.CategoryCultural:      "Cultural Immersion",
	trip.CategorySightseeing:   "City Highlights",
	trip.CategoryOutdoor:       "Nature & Adventure",
	trip.CategoryEntertainment: "Entertainment & Fun",
	trip.CategoryShopping:      "Shopping & Local Markets",
	trip.CategoryDining:        "Culinary Discovery",
}

// Scheduler turns candidate pools into day-sequenced, time-slotted
// itineraries. It is a greedy heuristic producer: earlier days pick from the
// pools first, and the critic is the authority on whether the result is any
// good.
type Scheduler struct {
	travelEst geo.TravelTimeEstimator
}

func NewScheduler(travelEst geo.TravelTimeEstimator) *Scheduler {
	return &Scheduler{travelEst: travelEst}
}

// candidatePools partitions the context's candidates for greedy allocation.
// Items are removed as days consume them so nothing is scheduled twice.
type candidatePools struct {
	pois        []trip.Candidate
	activities  []trip.Candidate
	restaurants []trip.Candidate
}

func poolsFromContext(tc *trip.TravelContext) *candidatePools {
	all := make([]trip.Candidate, 0, len(tc.POIs)+len(tc.Activities)+len(tc.Restaurants))
	all = append(all, tc.POIs...)
	all = append(all, tc.Activities...)
	all = append(all, tc.Restaurants...)

	pools := &candidatePools{}
	for _, c := range all {
		switch c.Category {
		case trip.CategoryCultural, trip.CategorySightseeing:
			pools.pois = append(pools.pois, c)
		case trip.CategoryDining:
			pools.restaurants = append(pools.restaurants, c)
		default:
			pools.activities = append(pools.activities, c)
		}
	}
	return pools
}

func (p *candidatePools) clone() *candidatePools {
	return &candidatePools{
		pois:        append([]trip.Candidate(nil), p.pois...),
		activities:  append([]trip.Candidate(nil), p.activities...),
		restaurants: append([]trip.Candidate(nil), p.restaurants...),
	}
}

func (p *candidatePools) remove(usedIDs map[string]bool) {
	filter := func(in []trip.Candidate) []trip.Candidate {
		out := in[:0]
		for _, c := range in {
			if !usedIDs[c.ID] {
				out = append(out, c)
			}
		}
		return out
	}
	p.pois = filter(p.pois)
	p.activities = filter(p.activities)
	p.restaurants = filter(p.restaurants)
}

// BuildItinerary produces one DayPlan per calendar day of the trip. An empty
// candidate pool never fails generation: it yields an empty day the critic
// will flag instead.
func (s *Scheduler) BuildItinerary(ctx context.Context, tc *trip.TravelContext) ([]trip.DayPlan, error) {
	if tc.DurationDays <= 0 {
		return nil, fmt.Errorf("trip duration must be positive, got %d", tc.DurationDays)
	}

	pools := poolsFromContext(tc)
	itinerary := make([]trip.DayPlan, 0, tc.DurationDays)

	for dayIndex := 1; dayIndex <= tc.DurationDays; dayIndex++ {
		date := tc.StartDate.AddDate(0, 0, dayIndex-1)
		weather := tc.Weather.ForDate(date)

		day := s.buildDay(ctx, dayIndex, date, pools, tc.Pace, weather)
		itinerary = append(itinerary, day)

		usedIDs := make(map[string]bool, len(day.Items))
		for _, item := range day.Items {
			usedIDs[item.ID] = true
		}
		pools.remove(usedIDs)
	}
	return itinerary, nil
}

func (s *Scheduler) buildDay(ctx context.Context, dayIndex int, date time.Time, pools *candidatePools, pace trip.Pace, weather trip.WeatherDay) trip.DayPlan {
	maxNonDining, ok := paceActivityBudget[pace]
	if !ok {
		maxNonDining = paceActivityBudget[trip.PaceModerate]
	}

	var selectedPOIs, selectedActivities []trip.Candidate
	if weather.IsAdverse() {
		selectedPOIs = preferIndoor(pools.pois, maxNonDining/2)
		selectedActivities = preferIndoor(pools.activities, maxNonDining/2)
	} else {
		selectedPOIs = headOf(pools.pois, maxNonDining/2)
		selectedActivities = headOf(pools.activities, maxNonDining/2)
	}

	dayItems := append(append([]trip.Candidate{}, selectedPOIs...), selectedActivities...)
	meals := selectDailyRestaurants(pools.restaurants)

	items := s.scheduleItems(ctx, append(dayItems, meals...), date)

	day := trip.DayPlan{
		DayIndex: dayIndex,
		Date:     date,
		Status:   trip.DayStatusPending,
		Items:    items,
		Weather:  weather,
	}
	for _, item := range items {
		day.TotalCost += item.Cost
		day.TotalDurationMinutes += item.DurationMinutes
	}
	day.Theme = dailyTheme(items, weather)
	day.SpecialConsiderations = specialConsiderations(items, weather)
	return day
}

// scheduleItems orders a day's items as morning activities, lunch, afternoon
// activities, dinner, then assigns sequential timing from 09:00: each start is
// the previous end plus travel time plus a 30-minute buffer.
func (s *Scheduler) scheduleItems(ctx context.Context, candidates []trip.Candidate, date time.Time) []trip.ScheduledItem {
	if len(candidates) == 0 {
		return nil
	}

	var restaurants, nonRestaurants []trip.Candidate
	for _, c := range candidates {
		if c.Category == trip.CategoryDining {
			restaurants = append(restaurants, c)
		} else {
			nonRestaurants = append(nonRestaurants, c)
		}
	}

	var plan []trip.Candidate

	// Morning block.
	plan = append(plan, headOf(nonRestaurants, 2)...)

	// Lunch.
	if i := indexWhere(restaurants, lunchSuitable); i >= 0 {
		plan = append(plan, restaurants[i])
		restaurants = append(restaurants[:i], restaurants[i+1:]...)
	}

	// Afternoon block.
	if len(nonRestaurants) > 2 {
		plan = append(plan, headOf(nonRestaurants[2:], 2)...)
	}

	// Dinner, or any remaining restaurant if no dinner-specific match.
	if i := indexWhere(restaurants, dinnerSuitable); i >= 0 {
		plan = append(plan, restaurants[i])
	} else if len(restaurants) > 0 {
		plan = append(plan, restaurants[0])
	}

	return s.assignTiming(ctx, plan, date, interItemBufferMin)
}

func (s *Scheduler) assignTiming(ctx context.Context, plan []trip.Candidate, date time.Time, bufferMin int) []trip.ScheduledItem {
	current := time.Date(date.Year(), date.Month(), date.Day(), dayStartHour, 0, 0, 0, date.Location())

	scheduled := make([]trip.ScheduledItem, 0, len(plan))
	for i, c := range plan {
		duration := c.DurationMinutes
		if duration == 0 {
			duration = defaultItemMinutes
		}

		item := trip.ScheduledItem{Candidate: c}
		if i > 0 {
			prev := scheduled[i-1]
			travel := s.travelEst.TravelMinutes(ctx, prev.Location, c.Location, geo.ModeWalking)
			item.TravelTimeFromPrevious = &travel
			item.TravelMode = string(geo.ModeWalking)
			current = current.Add(time.Duration(travel+bufferMin) * time.Minute)
		}
		item.StartTime = current
		item.EndTime = current.Add(time.Duration(duration) * time.Minute)
		item.DurationMinutes = duration
		current = item.EndTime

		scheduled = append(scheduled, item)
	}
	return scheduled
}

// Revise regenerates the rejected days of an itinerary guided by the
// critique digest. Approved days are left untouched; each regenerated day
// increments its revision counter. The feedback channel is a free-text
// digest, so revision is best-effort guidance rather than closed-loop repair:
// add/remove keyword cues are honored, everything else triggers a fresh
// rebuild from the remaining pools.
func (s *Scheduler) Revise(ctx context.Context, tc *trip.TravelContext, feedback string) ([]trip.DayPlan, error) {
	if len(tc.Itinerary) == 0 {
		return nil, fmt.Errorf("no itinerary to revise")
	}

	// Pools minus everything still scheduled on approved days.
	pools := poolsFromContext(tc)
	keptIDs := make(map[string]bool)
	for _, day := range tc.Itinerary {
		if day.Status != trip.DayStatusNeedsRevision {
			for _, item := range day.Items {
				keptIDs[item.ID] = true
			}
		}
	}
	pools.remove(keptIDs)

	revised := make([]trip.DayPlan, len(tc.Itinerary))
	for i, day := range tc.Itinerary {
		if day.Status != trip.DayStatusNeedsRevision {
			revised[i] = day
			continue
		}

		newDay := s.reviseDay(ctx, day, pools, tc.Pace, feedback)
		revised[i] = newDay

		usedIDs := make(map[string]bool, len(newDay.Items))
		for _, item := range newDay.Items {
			usedIDs[item.ID] = true
		}
		pools.remove(usedIDs)
	}
	return revised, nil
}

func (s *Scheduler) reviseDay(ctx context.Context, day trip.DayPlan, pools *candidatePools, pace trip.Pace, feedback string) trip.DayPlan {
	lower := strings.ToLower(feedback)

	items := modifyFromFeedback(day, lower)
	if items == nil {
		// No actionable cue: rebuild the day from the remaining pools,
		// steering away from the rejected selection when alternatives exist.
		rejectedIDs := make(map[string]bool, len(day.Items))
		for _, item := range day.Items {
			rejectedIDs[item.ID] = true
		}
		alternatives := pools.clone()
		alternatives.remove(rejectedIDs)
		if len(alternatives.pois)+len(alternatives.activities) == 0 {
			alternatives = pools
		}
		rebuilt := s.buildDay(ctx, day.DayIndex, day.Date, alternatives, pace, day.Weather)
		rebuilt.RevisionCount = day.RevisionCount + 1
		return rebuilt
	}

	// Re-time the adjusted item list with a more generous buffer.
	candidates := make([]trip.Candidate, len(items))
	for i, item := range items {
		candidates[i] = item.Candidate
	}
	scheduled := s.assignTiming(ctx, candidates, day.Date, revisionBufferMin)

	out := day
	out.Items = scheduled
	out.Status = trip.DayStatusPending
	out.RevisionCount = day.RevisionCount + 1
	out.TotalCost = 0
	out.TotalDurationMinutes = 0
	for _, item := range scheduled {
		out.TotalCost += item.Cost
		out.TotalDurationMinutes += item.DurationMinutes
	}
	out.Theme = dailyTheme(scheduled, day.Weather)
	out.SpecialConsiderations = specialConsiderations(scheduled, day.Weather)
	return out
}

// modifyFromFeedback applies add/remove cues from the feedback text to the
// day's items. Returns nil when the feedback carries no recognizable cue.
func modifyFromFeedback(day trip.DayPlan, feedback string) []trip.ScheduledItem {
	items := append([]trip.ScheduledItem(nil), day.Items...)
	acted := false

	for _, keyword := range []string{"remove", "don't want", "skip", "not interested"} {
		after, found := cutAfterWord(feedback, keyword)
		if !found {
			continue
		}
		target := strings.TrimSpace(after)
		if target == "" {
			continue
		}
		kept := items[:0]
		for _, item := range items {
			if !strings.Contains(strings.ToLower(item.Name), target) {
				kept = append(kept, item)
			}
		}
		if len(kept) != len(items) {
			items = kept
			acted = true
		}
		break
	}

	for _, keyword := range []string{"add", "include", "want", "more"} {
		after, found := cutAfterWord(feedback, keyword)
		if !found {
			continue
		}
		name := strings.TrimSpace(after)
		if name == "" {
			continue
		}
		items = append(items, trip.ScheduledItem{
			Candidate: trip.Candidate{
				ID:              fmt.Sprintf("revised-%s", strings.ReplaceAll(name, " ", "-")),
				Name:            titleCase(name),
				Category:        trip.CategorySightseeing,
				Description:     fmt.Sprintf("Added based on feedback: %s", name),
				Location:        trip.Location{Name: titleCase(name)},
				DurationMinutes: 120,
				Source:          "user_feedback",
			},
		})
		acted = true
		break
	}

	if !acted {
		return nil
	}
	return items
}

// cutAfterWord returns the text following the first whole-word occurrence
// of cue, so "add" does not fire inside "added" or "want" inside "unwanted".
func cutAfterWord(s, cue string) (string, bool) {
	for start := 0; start < len(s); {
		idx := strings.Index(s[start:], cue)
		if idx < 0 {
			return "", false
		}
		idx += start
		end := idx + len(cue)
		beforeOK := idx == 0 || !isWordByte(s[idx-1])
		afterOK := end == len(s) || !isWordByte(s[end])
		if beforeOK && afterOK {
			return s[end:], true
		}
		start = end
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9' || b >= 0x80
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func headOf(in []trip.Candidate, n int) []trip.Candidate {
	if len(in) < n {
		n = len(in)
	}
	return append([]trip.Candidate(nil), in[:n]...)
}

// preferIndoor picks indoor-compatible candidates first, falling back to the
// general pool when too few exist.
func preferIndoor(in []trip.Candidate, n int) []trip.Candidate {
	var indoor []trip.Candidate
	for _, c := range in {
		if isIndoor(c) {
			indoor = append(indoor, c)
		}
	}
	if len(indoor) > 0 {
		return headOf(indoor, n)
	}
	return headOf(in, n)
}

var indoorKeywords = []string{"museum", "gallery", "mall", "restaurant", "cafe", "theater", "cinema"}

func isIndoor(c trip.Candidate) bool {
	switch c.Category {
	case trip.CategoryCultural, trip.CategoryShopping, trip.CategoryDining:
		return true
	}
	name := strings.ToLower(c.Name)
	for _, kw := range indoorKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

var breakfastKeywords = []string{"cafe", "bakery", "breakfast", "coffee", "brunch"}

func breakfastSuitable(c trip.Candidate) bool {
	name := strings.ToLower(c.Name)
	cuisine := strings.ToLower(c.CuisineType)
	for _, kw := range breakfastKeywords {
		if strings.Contains(name, kw) || strings.Contains(cuisine, kw) {
			return true
		}
	}
	return false
}

func lunchSuitable(c trip.Candidate) bool {
	// Most restaurants do lunch; pure bakeries usually don't, cafes can.
	if breakfastSuitable(c) {
		return strings.Contains(strings.ToLower(c.Name), "cafe")
	}
	return true
}

func dinnerSuitable(c trip.Candidate) bool {
	cuisine := strings.ToLower(c.CuisineType)
	if cuisine == "bakery" && c.PriceLevel <= 1 {
		return false
	}
	return true
}

// selectDailyRestaurants picks up to three meals with slot variety, falling
// back to whatever is unused when slot-specific matches run out.
func selectDailyRestaurants(restaurants []trip.Candidate) []trip.Candidate {
	if len(restaurants) == 0 {
		return nil
	}

	var selected []trip.Candidate
	used := make(map[string]bool)
	pick := func(match func(trip.Candidate) bool) {
		for _, r := range restaurants {
			if !used[r.ID] && match(r) {
				selected = append(selected, r)
				used[r.ID] = true
				return
			}
		}
	}

	pick(breakfastSuitable)
	pick(lunchSuitable)
	pick(dinnerSuitable)

	if len(selected) < 2 {
		for _, r := range restaurants {
			if len(selected) >= 3 {
				break
			}
			if !used[r.ID] {
				selected = append(selected, r)
				used[r.ID] = true
			}
		}
	}
	if len(selected) > 3 {
		selected = selected[:3]
	}
	return selected
}

func indexWhere(in []trip.Candidate, match func(trip.Candidate) bool) int {
	for i, c := range in {
		if match(c) {
			return i
		}
	}
	return -1
}

// dailyTheme labels a day by its majority item category, with an indoor
// override when adverse weather filtered the selection.
func dailyTheme(items []trip.ScheduledItem, weather trip.WeatherDay) string {
	if len(items) == 0 {
		return "City Exploration"
	}

	counts := make(map[trip.ItemCategory]int)
	for _, item := range items {
		counts[item.Category]++
	}
	var dominant trip.ItemCategory
	best := 0
	for _, item := range items { // iterate items so ties resolve deterministically
		if counts[item.Category] > best {
			best = counts[item.Category]
			dominant = item.Category
		}
	}

	theme, ok := themeByCategory[dominant]
	if !ok {
		theme = "City Exploration"
	}
	if weather.IsAdverse() {
		lower := strings.ToLower(theme)
		if strings.Contains(lower, "outdoor") || strings.Contains(lower, "nature") {
			theme = "Indoor Exploration"
		}
	}
	return theme
}

func specialConsiderations(items []trip.ScheduledItem, weather trip.WeatherDay) string {
	var notes []string

	if weather.IsAdverse() {
		notes = append(notes, "Weather may affect outdoor activities - indoor alternatives recommended")
	}

	outdoorCount, diningCount := 0, 0
	totalCost := 0.0
	for _, item := range items {
		switch item.Category {
		case trip.CategoryOutdoor:
			outdoorCount++
		case trip.CategoryDining:
			diningCount++
		}
		totalCost += item.Cost
	}
	if outdoorCount > 2 {
		notes = append(notes, "Day includes multiple outdoor activities - consider weather and energy levels")
	}
	if diningCount < 2 {
		notes = append(notes, "Limited dining options planned - consider additional meal stops")
	}
	if totalCost > highCostDayUSD {
		notes = append(notes, fmt.Sprintf("High-cost day ($%.0f) - consider budget implications", totalCost))
	}

	return strings.Join(notes, "; ")
}

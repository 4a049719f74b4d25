package discover

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"ai-trip-planner/internal/trip"
)

// Place is the raw venue shape returned by a searcher before it is
// normalized into a trip.Candidate.
type Place struct {
	PlaceID     string
	Name        string
	Address     string
	Latitude    *float64
	Longitude   *float64
	Rating      float64
	ReviewCount int
	PriceLevel  *int
	Types       []string
	Source      string
}

// PlaceSearcher finds venues of a given type near a location.
type PlaceSearcher interface {
	NearbyPlaces(ctx context.Context, loc trip.Location, placeType string, radiusMeters int) ([]Place, error)
}

// Results holds the three candidate pools handed to the scheduler.
type Results struct {
	POIs        []trip.Candidate
	Activities  []trip.Candidate
	Restaurants []trip.Candidate
}

// Preference keywords mapped to place types for points of interest.
var poiTypeMapping = map[string][]string{
	"museums":      {"museum", "art_gallery"},
	"art":          {"art_gallery", "museum"},
	"history":      {"museum", "historical_site"},
	"historical":   {"museum", "historical_site"},
	"landmarks":    {"tourist_attraction", "point_of_interest"},
	"parks":        {"park", "amusement_park"},
	"nature":       {"park", "zoo", "aquarium"},
	"architecture": {"tourist_attraction", "church", "synagogue", "hindu_temple"},
	"culture":      {"museum", "art_gallery", "cultural_center"},
	"galleries":    {"art_gallery"},
	"monuments":    {"tourist_attraction", "cemetery"},
}

var activityTypeMapping = map[string][]string{
	"adventure":     {"amusement_park", "zoo", "aquarium", "park"},
	"outdoor":       {"park", "zoo", "amusement_park"},
	"entertainment": {"amusement_park", "movie_theater", "night_club"},
	"shopping":      {"shopping_mall", "clothing_store", "electronics_store"},
	"cultural":      {"museum", "art_gallery", "cultural_center"},
	"relaxing":      {"spa", "park", "beauty_salon"},
	"sports":        {"gym", "stadium"},
	"nightlife":     {"bar", "night_club"},
	"music":         {"music_venue", "night_club"},
}

var cuisineMapping = map[string][]string{
	"italian":       {"italian_restaurant"},
	"chinese":       {"chinese_restaurant"},
	"japanese":      {"japanese_restaurant"},
	"french":        {"french_restaurant"},
	"mexican":       {"mexican_restaurant"},
	"indian":        {"indian_restaurant"},
	"thai":          {"thai_restaurant"},
	"american":      {"american_restaurant"},
	"mediterranean": {"mediterranean_restaurant"},
	"seafood":       {"seafood_restaurant"},
	"vegetarian":    {"vegetarian_restaurant"},
	"vegan":         {"vegetarian_restaurant"},
	"pizza":         {"pizza_restaurant"},
	"sushi":         {"sushi_restaurant"},
	"bbq":           {"barbecue_restaurant"},
	"steakhouse":    {"steak_house"},
	"fast food":     {"fast_food_restaurant"},
	"cafe":          {"cafe"},
	"bakery":        {"bakery"},
	"fine dining":   {"fine_dining_restaurant"},
}

// Price levels (Google's 0-4 scale) acceptable per spend tier.
var tierPriceLevels = map[trip.SpendTier][]int{
	trip.TierBudget:   {0, 1, 2},
	trip.TierMidRange: {1, 2, 3},
	trip.TierLuxury:   {3, 4},
}

// Google place types mapped to itinerary categories.
var categoryByPlaceType = map[string]trip.ItemCategory{
	"museum":          trip.CategoryCultural,
	"art_gallery":     trip.CategoryCultural,
	"cultural_center": trip.CategoryCultural,
	"aquarium":        trip.CategoryCultural,
	"park":            trip.CategoryOutdoor,
	"zoo":             trip.CategoryOutdoor,
	"amusement_park":  trip.CategoryEntertainment,
	"spa":             trip.CategoryEntertainment,
	"movie_theater":   trip.CategoryEntertainment,
	"night_club":      trip.CategoryEntertainment,
	"bar":             trip.CategoryEntertainment,
	"shopping_mall":   trip.CategoryShopping,
	"clothing_store":  trip.CategoryShopping,

	"tourist_attraction": trip.CategorySightseeing,
	"restaurant":         trip.CategoryDining,
	"cafe":               trip.CategoryDining,
	"bakery":             trip.CategoryDining,
}

var durationByCategory = map[trip.ItemCategory]int{
	trip.CategoryCultural:      120,
	trip.CategorySightseeing:   90,
	trip.CategoryOutdoor:       180,
	trip.CategoryEntertainment: 150,
	trip.CategoryShopping:      120,
	trip.CategoryDining:        90,
}

// Per-person dining cost by price level.
var diningCostByPriceLevel = map[int]float64{
	0: 8,
	1: 15,
	2: 25,
	3: 45,
	4: 80,
}

const (
	poiSearchRadius      = 10000
	activitySearchRadius = 15000
	diningSearchRadius   = 5000
	maxPerPool           = 20
)

// Service discovers candidate venues for a trip. A fallback searcher, when
// set, is consulted only if the primary one fails or returns nothing.
type Service struct {
	searcher PlaceSearcher
	fallback PlaceSearcher
}

func NewService(searcher PlaceSearcher, fallback PlaceSearcher) *Service {
	return &Service{searcher: searcher, fallback: fallback}
}

// Discover populates the three candidate pools for the request. Individual
// place-type searches that fail are logged and skipped; the call only errors
// when every pool comes back empty.
func (s *Service) Discover(ctx context.Context, loc trip.Location, req trip.Request, weather trip.WeatherData) (Results, error) {
	profile := req.Profile()

	res := Results{
		POIs:        s.discoverPOIs(ctx, loc, req, profile),
		Activities:  s.discoverActivities(ctx, loc, req, profile, weather),
		Restaurants: s.discoverRestaurants(ctx, loc, req, profile),
	}

	if len(res.POIs) == 0 && len(res.Activities) == 0 && len(res.Restaurants) == 0 {
		return Results{}, fmt.Errorf("no venues found near %s", loc.Name)
	}
	return res, nil
}

func (s *Service) discoverPOIs(ctx context.Context, loc trip.Location, req trip.Request, profile trip.TravelerProfile) []trip.Candidate {
	placeTypes := matchTypes(req.POIPreferences, poiTypeMapping)
	if len(placeTypes) == 0 {
		placeTypes = []string{"tourist_attraction", "museum", "park"}
	}

	var pool []trip.Candidate
	for _, placeType := range placeTypes {
		places, err := s.search(ctx, loc, placeType, poiSearchRadius)
		if err != nil {
			slog.Warn("poi search failed", "place_type", placeType, "error", err)
			continue
		}
		for _, place := range places {
			cand := normalize(place, trip.CategorySightseeing)
			if suitablePOI(cand, profile) {
				pool = append(pool, cand)
			}
		}
	}
	return dedupeAndSort(pool, maxPerPool)
}

func (s *Service) discoverActivities(ctx context.Context, loc trip.Location, req trip.Request, profile trip.TravelerProfile, weather trip.WeatherData) []trip.Candidate {
	placeTypes := matchTypes(req.ActivityPreferences, activityTypeMapping)

	// Adverse weather trades outdoor venues for indoor ones.
	if anyAdverse(weather) {
		filtered := placeTypes[:0]
		for _, pt := range placeTypes {
			if pt != "park" && pt != "amusement_park" && pt != "zoo" {
				filtered = append(filtered, pt)
			}
		}
		placeTypes = append(filtered, "shopping_mall", "museum", "movie_theater")
	}
	if len(placeTypes) == 0 {
		placeTypes = []string{"amusement_park", "shopping_mall", "spa"}
	}

	var pool []trip.Candidate
	for _, placeType := range placeTypes {
		places, err := s.search(ctx, loc, placeType, activitySearchRadius)
		if err != nil {
			slog.Warn("activity search failed", "place_type", placeType, "error", err)
			continue
		}
		for _, place := range places {
			cand := normalize(place, trip.CategoryEntertainment)
			if suitableActivity(cand, profile) {
				pool = append(pool, cand)
			}
		}
	}
	return dedupeAndSort(pool, maxPerPool)
}

func (s *Service) discoverRestaurants(ctx context.Context, loc trip.Location, req trip.Request, profile trip.TravelerProfile) []trip.Candidate {
	searchTerms := matchTypes(req.FoodPreferences, cuisineMapping)
	if len(searchTerms) == 0 {
		searchTerms = []string{"restaurant"}
	}

	var pool []trip.Candidate
	for _, term := range searchTerms {
		places, err := s.search(ctx, loc, term, diningSearchRadius)
		if err != nil {
			slog.Warn("restaurant search failed", "search_term", term, "error", err)
			continue
		}
		for _, place := range places {
			cand := normalizeRestaurant(place, term)
			if suitableRestaurant(cand, profile) {
				pool = append(pool, cand)
			}
		}
	}
	return dedupeAndSort(pool, maxPerPool)
}

func (s *Service) search(ctx context.Context, loc trip.Location, placeType string, radius int) ([]Place, error) {
	places, err := s.searcher.NearbyPlaces(ctx, loc, placeType, radius)
	if (err != nil || len(places) == 0) && s.fallback != nil {
		if err != nil {
			slog.Info("primary search failed, trying fallback", "place_type", placeType, "error", err)
		}
		return s.fallback.NearbyPlaces(ctx, loc, placeType, radius)
	}
	return places, err
}

func matchTypes(preferences []string, mapping map[string][]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, pref := range preferences {
		lower := strings.ToLower(pref)
		for keyword, types := range mapping {
			if !strings.Contains(lower, keyword) {
				continue
			}
			for _, t := range types {
				if !seen[t] {
					seen[t] = true
					out = append(out, t)
				}
			}
		}
	}
	sort.Strings(out)
	return out
}

func anyAdverse(weather trip.WeatherData) bool {
	for _, day := range weather.Forecast {
		if day.IsAdverse() {
			return true
		}
	}
	return false
}

// normalize turns a raw place into a candidate with an estimated category,
// duration, and cost.
func normalize(place Place, defaultCategory trip.ItemCategory) trip.Candidate {
	category := defaultCategory
	for _, t := range place.Types {
		if c, ok := categoryByPlaceType[t]; ok {
			category = c
			break
		}
	}

	priceLevel := 0
	if place.PriceLevel != nil {
		priceLevel = *place.PriceLevel
	}

	return trip.Candidate{
		ID:              candidateID(place),
		Name:            place.Name,
		Category:        category,
		Description:     describe(place, category),
		Location:        placeLocation(place),
		Rating:          place.Rating,
		PriceLevel:      priceLevel,
		Cost:            estimateVenueCost(place, category),
		DurationMinutes: durationByCategory[category],
		Source:          place.Source,
	}
}

func normalizeRestaurant(place Place, searchTerm string) trip.Candidate {
	cost := diningCostByPriceLevel[2]
	if place.PriceLevel != nil {
		if c, ok := diningCostByPriceLevel[*place.PriceLevel]; ok {
			cost = c
		}
	}

	priceLevel := 0
	if place.PriceLevel != nil {
		priceLevel = *place.PriceLevel
	}

	cuisine := strings.TrimSuffix(searchTerm, "_restaurant")
	if cuisine == "restaurant" {
		cuisine = ""
	}

	return trip.Candidate{
		ID:              candidateID(place),
		Name:            place.Name,
		Category:        trip.CategoryDining,
		Description:     describe(place, trip.CategoryDining),
		Location:        placeLocation(place),
		Rating:          place.Rating,
		PriceLevel:      priceLevel,
		Cost:            cost,
		DurationMinutes: durationByCategory[trip.CategoryDining],
		CuisineType:     cuisine,
		Source:          place.Source,
	}
}

func candidateID(place Place) string {
	if place.PlaceID != "" {
		return place.PlaceID
	}
	return strings.ToLower(strings.ReplaceAll(place.Name, " ", "-"))
}

func placeLocation(place Place) trip.Location {
	return trip.Location{
		Name:      place.Name,
		Address:   place.Address,
		Latitude:  place.Latitude,
		Longitude: place.Longitude,
		PlaceID:   place.PlaceID,
	}
}

func describe(place Place, category trip.ItemCategory) string {
	switch category {
	case trip.CategoryCultural:
		return fmt.Sprintf("Explore %s, a cultural institution with exhibits and collections", place.Name)
	case trip.CategoryOutdoor:
		return fmt.Sprintf("Enjoy outdoor time at %s", place.Name)
	case trip.CategorySightseeing:
		return fmt.Sprintf("Visit %s, a popular destination", place.Name)
	case trip.CategoryDining:
		return fmt.Sprintf("Dine at %s", place.Name)
	default:
		return fmt.Sprintf("Experience %s", place.Name)
	}
}

var baseVenueCosts = map[string]float64{
	"museum":             15,
	"tourist_attraction": 10,
	"park":               0,
	"amusement_park":     35,
	"shopping_mall":      0,
	"spa":                50,
}

func estimateVenueCost(place Place, category trip.ItemCategory) float64 {
	var cost float64
	for _, t := range place.Types {
		if base, ok := baseVenueCosts[t]; ok {
			cost = base
			break
		}
	}
	if place.PriceLevel != nil {
		multipliers := map[int]float64{0: 0, 1: 0.5, 2: 1.0, 3: 1.5, 4: 2.0}
		if m, ok := multipliers[*place.PriceLevel]; ok {
			cost *= m
		}
	}
	return cost
}

func suitablePOI(c trip.Candidate, profile trip.TravelerProfile) bool {
	if c.Rating > 0 && c.Rating < 3.5 {
		return false
	}
	switch profile.SpendTier {
	case trip.TierBudget:
		return c.Cost <= 25
	case trip.TierLuxury:
		return c.Cost >= 10 || c.Cost == 0
	}
	return true
}

func suitableActivity(c trip.Candidate, profile trip.TravelerProfile) bool {
	if c.Rating > 0 && c.Rating < 3.0 {
		return false
	}
	switch profile.SpendTier {
	case trip.TierBudget:
		return c.Cost <= 40
	case trip.TierLuxury:
		return c.Cost >= 20 || c.Cost == 0
	}
	return true
}

func suitableRestaurant(c trip.Candidate, profile trip.TravelerProfile) bool {
	if c.Rating > 0 && c.Rating < 3.0 {
		return false
	}
	levels, ok := tierPriceLevels[profile.SpendTier]
	if !ok {
		levels = []int{1, 2, 3}
	}
	for _, l := range levels {
		if c.PriceLevel == l {
			return true
		}
	}
	return false
}

// dedupeAndSort removes duplicate venues by ID then name, sorts by rating
// descending, and truncates to the pool cap.
func dedupeAndSort(pool []trip.Candidate, limit int) []trip.Candidate {
	seenIDs := make(map[string]bool)
	seenNames := make(map[string]bool)
	unique := pool[:0]
	for _, c := range pool {
		if c.ID != "" && seenIDs[c.ID] {
			continue
		}
		nameKey := strings.ToLower(c.Name)
		if seenNames[nameKey] {
			continue
		}
		seenIDs[c.ID] = true
		seenNames[nameKey] = true
		unique = append(unique, c)
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].Rating > unique[j].Rating
	})

	if len(unique) > limit {
		unique = unique[:limit]
	}
	return unique
}

package discover

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ai-trip-planner/internal/trip"
)

const nearbySearchAPIURL = "https://maps.googleapis.com/maps/api/place/nearbysearch/json"

// PlacesClient implements PlaceSearcher on top of the Google Places Nearby
// Search API.
type PlacesClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewPlacesClient(apiKey string) *PlacesClient {
	return &PlacesClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type nearbySearchResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		Rating           float64  `json:"rating"`
		UserRatingsTotal int      `json:"user_ratings_total"`
		PriceLevel       *int     `json:"price_level"`
		Types            []string `json:"types"`
	} `json:"results"`
}

// NearbyPlaces searches for venues of the given type around the location.
// Cuisine search terms like "thai_restaurant" are not Places types, so they
// are sent as a keyword with the generic "restaurant" type instead.
func (c *PlacesClient) NearbyPlaces(ctx context.Context, loc trip.Location, placeType string, radiusMeters int) ([]Place, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("google maps api key not configured")
	}
	if !loc.HasCoordinates() {
		return nil, fmt.Errorf("location %q has no coordinates", loc.Name)
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", *loc.Latitude, *loc.Longitude))
	params.Set("radius", fmt.Sprintf("%d", radiusMeters))
	params.Set("key", c.apiKey)
	if strings.HasSuffix(placeType, "_restaurant") || placeType == "steak_house" {
		params.Set("type", "restaurant")
		params.Set("keyword", strings.TrimSuffix(placeType, "_restaurant"))
	} else {
		params.Set("type", placeType)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nearbySearchAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places api error: status=%d", resp.StatusCode)
	}

	var search nearbySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if search.Status != "OK" && search.Status != "ZERO_RESULTS" {
		return nil, fmt.Errorf("places api returned status %s", search.Status)
	}

	places := make([]Place, 0, len(search.Results))
	for _, r := range search.Results {
		lat := r.Geometry.Location.Lat
		lng := r.Geometry.Location.Lng
		places = append(places, Place{
			PlaceID:     r.PlaceID,
			Name:        r.Name,
			Address:     r.Vicinity,
			Latitude:    &lat,
			Longitude:   &lng,
			Rating:      r.Rating,
			ReviewCount: r.UserRatingsTotal,
			PriceLevel:  r.PriceLevel,
			Types:       r.Types,
			Source:      "google_maps",
		})
	}
	return places, nil
}

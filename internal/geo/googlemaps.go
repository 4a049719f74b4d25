package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"ai-trip-planner/internal/trip"
)

const (
	geocodeAPIURL        = "https://maps.googleapis.com/maps/api/geocode/json"
	distanceMatrixAPIURL = "https://maps.googleapis.com/maps/api/distancematrix/json"
)

// MapsClient talks to the Google Maps web APIs for geocoding and travel
// times.
type MapsClient struct {
	apiKey     string
	httpClient *http.Client
	fallback   TravelTimeEstimator
}

// NewMapsClient creates a new Maps API client. Travel-time lookups fall back
// to the haversine estimator whenever the API is unreachable or returns no
// route, so callers always get a number.
func NewMapsClient(apiKey string) *MapsClient {
	return &MapsClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		fallback: NewHaversineEstimator(),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		PlaceID           string `json:"place_id"`
		AddressComponents []struct {
			LongName string   `json:"long_name"`
			Types    []string `json:"types"`
		} `json:"address_components"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve validates a destination string via the Geocoding API.
func (c *MapsClient) Resolve(ctx context.Context, destination string) (trip.Location, error) {
	if c.apiKey == "" {
		return trip.Location{}, fmt.Errorf("google maps api key not configured")
	}

	params := url.Values{}
	params.Set("address", destination)
	params.Set("key", c.apiKey)

	var geo geocodeResponse
	if err := c.getJSON(ctx, geocodeAPIURL+"?"+params.Encode(), &geo); err != nil {
		return trip.Location{}, fmt.Errorf("geocoding request failed: %w", err)
	}

	if geo.Status != "OK" || len(geo.Results) == 0 {
		return trip.Location{}, fmt.Errorf("could not validate destination %q: status %s", destination, geo.Status)
	}

	result := geo.Results[0]
	lat := result.Geometry.Location.Lat
	lng := result.Geometry.Location.Lng

	loc := trip.Location{
		Name:      destination,
		Address:   result.FormattedAddress,
		Latitude:  &lat,
		Longitude: &lng,
		PlaceID:   result.PlaceID,
	}
	for _, comp := range result.AddressComponents {
		for _, t := range comp.Types {
			switch t {
			case "country":
				loc.Country = comp.LongName
			case "locality":
				loc.City = comp.LongName
			}
		}
	}
	return loc, nil
}

type distanceMatrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}

// TravelMinutes returns the travel time between two venues via the Distance
// Matrix API, falling back to the offline estimate on any failure.
func (c *MapsClient) TravelMinutes(ctx context.Context, from, to trip.Location, mode TravelMode) int {
	if c.apiKey == "" || !from.HasCoordinates() || !to.HasCoordinates() {
		return c.fallback.TravelMinutes(ctx, from, to, mode)
	}

	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", *from.Latitude, *from.Longitude))
	params.Set("destinations", fmt.Sprintf("%f,%f", *to.Latitude, *to.Longitude))
	params.Set("mode", string(mode))
	params.Set("key", c.apiKey)

	var matrix distanceMatrixResponse
	if err := c.getJSON(ctx, distanceMatrixAPIURL+"?"+params.Encode(), &matrix); err != nil {
		slog.Warn("distance matrix request failed, using fallback estimate", "error", err)
		return c.fallback.TravelMinutes(ctx, from, to, mode)
	}

	if matrix.Status != "OK" || len(matrix.Rows) == 0 || len(matrix.Rows[0].Elements) == 0 ||
		matrix.Rows[0].Elements[0].Status != "OK" {
		return c.fallback.TravelMinutes(ctx, from, to, mode)
	}

	minutes := matrix.Rows[0].Elements[0].Duration.Value / 60
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (c *MapsClient) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("maps api error: status=%d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

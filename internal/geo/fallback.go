package geo

import (
	"context"
	"math"

	"ai-trip-planner/internal/trip"
)

const (
	// defaultTravelMinutes is used when either endpoint has no coordinates.
	defaultTravelMinutes = 30
	minTravelMinutes     = 5
	earthRadiusKm        = 6371.0
)

// Speeds in km/h used for the distance-based estimate.
var modeSpeeds = map[TravelMode]float64{
	ModeWalking: 4.5,
	ModeDriving: 30.0,
	ModeTransit: 20.0,
}

// HaversineEstimator is a deterministic, offline travel-time estimator based
// on great-circle distance and a fixed speed per mode. It backs the scheduler
// when no routing provider is configured and serves as the fallback when one
// is but fails.
type HaversineEstimator struct{}

// NewHaversineEstimator creates a new HaversineEstimator.
func NewHaversineEstimator() *HaversineEstimator {
	return &HaversineEstimator{}
}

// TravelMinutes estimates the travel time between two venues.
func (e *HaversineEstimator) TravelMinutes(_ context.Context, from, to trip.Location, mode TravelMode) int {
	if !from.HasCoordinates() || !to.HasCoordinates() {
		return defaultTravelMinutes
	}

	distKm := haversineKm(*from.Latitude, *from.Longitude, *to.Latitude, *to.Longitude)
	speed, ok := modeSpeeds[mode]
	if !ok {
		speed = modeSpeeds[ModeWalking]
	}

	minutes := int(math.Round(distKm / speed * 60))
	if minutes < minTravelMinutes {
		return minTravelMinutes
	}
	return minutes
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

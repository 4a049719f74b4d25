// Package geo holds the location, weather, and travel-time collaborators the
// planning engine depends on. The engine itself performs no blocking I/O;
// everything here is an adapter boundary.
package geo

import (
	"context"
	"time"

	"ai-trip-planner/internal/trip"
)

// TravelMode selects how a hop between two venues is made.
type TravelMode string

const (
	ModeWalking TravelMode = "walking"
	ModeDriving TravelMode = "driving"
	ModeTransit TravelMode = "transit"
)

// Resolver validates a destination string into a concrete location.
type Resolver interface {
	Resolve(ctx context.Context, destination string) (trip.Location, error)
}

// WeatherProvider returns a per-day forecast for a location and date range.
type WeatherProvider interface {
	Forecast(ctx context.Context, loc trip.Location, start time.Time, days int) (trip.WeatherData, error)
}

// TravelTimeEstimator returns the travel time between two venues in minutes.
// Implementations must always return a usable number: the scheduler's timing
// algorithm has no failure path for this value.
type TravelTimeEstimator interface {
	TravelMinutes(ctx context.Context, from, to trip.Location, mode TravelMode) int
}

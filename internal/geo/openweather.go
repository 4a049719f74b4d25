package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"ai-trip-planner/internal/trip"
)

const forecastAPIURL = "https://api.openweathermap.org/data/2.5/forecast"

// OpenWeatherClient fetches the 5-day / 3-hour forecast and rolls it up into
// one entry per trip day.
type OpenWeatherClient struct {
	apiKey     string
	httpClient *http.Client
}

func NewOpenWeatherClient(apiKey string) *OpenWeatherClient {
	return &OpenWeatherClient{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			TempMin float64 `json:"temp_min"`
			TempMax float64 `json:"temp_max"`
		} `json:"main"`
		Weather []struct {
			Main        string `json:"main"`
			Description string `json:"description"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // shift from UTC in seconds
	} `json:"city"`
}

// Forecast returns per-day weather for the trip window. The API only covers
// five days out; days beyond that window are simply absent and callers fall
// back to the nearest available day.
func (c *OpenWeatherClient) Forecast(ctx context.Context, loc trip.Location, start time.Time, days int) (trip.WeatherData, error) {
	if c.apiKey == "" {
		return trip.WeatherData{}, fmt.Errorf("openweather api key not configured")
	}
	if !loc.HasCoordinates() {
		return trip.WeatherData{}, fmt.Errorf("location %q has no coordinates", loc.Name)
	}

	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", *loc.Latitude))
	params.Set("lon", fmt.Sprintf("%f", *loc.Longitude))
	params.Set("units", "metric")
	params.Set("appid", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, forecastAPIURL+"?"+params.Encode(), nil)
	if err != nil {
		return trip.WeatherData{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return trip.WeatherData{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return trip.WeatherData{}, fmt.Errorf("openweather api error: status=%d", resp.StatusCode)
	}

	var forecast forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&forecast); err != nil {
		return trip.WeatherData{}, fmt.Errorf("failed to decode response: %w", err)
	}

	tz := time.FixedZone("local", forecast.City.Timezone)
	byDate := make(map[string]*trip.WeatherDay)
	for _, slot := range forecast.List {
		date := time.Unix(slot.Dt, 0).In(tz).Format("2006-01-02")
		day, ok := byDate[date]
		if !ok {
			day = &trip.WeatherDay{
				Date:     date,
				TempMinC: slot.Main.TempMin,
				TempMaxC: slot.Main.TempMax,
			}
			byDate[date] = day
		}
		if slot.Main.TempMin < day.TempMinC {
			day.TempMinC = slot.Main.TempMin
		}
		if slot.Main.TempMax > day.TempMaxC {
			day.TempMaxC = slot.Main.TempMax
		}
		if slot.Pop > day.PrecipProbability {
			day.PrecipProbability = slot.Pop
		}
		// Keep the worst condition of the day so adverse weather is not
		// masked by a sunny morning.
		if len(slot.Weather) > 0 {
			cond := slot.Weather[0].Main
			if day.Condition == "" || conditionRank(cond) > conditionRank(day.Condition) {
				day.Condition = cond
				day.Description = slot.Weather[0].Description
			}
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	data := trip.WeatherData{}
	end := start.AddDate(0, 0, days).Format("2006-01-02")
	startKey := start.Format("2006-01-02")
	for _, date := range dates {
		if date < startKey || date >= end {
			continue
		}
		data.Forecast = append(data.Forecast, *byDate[date])
	}
	if len(data.Forecast) == 0 {
		// Trip starts beyond the forecast horizon; return what we have so
		// the planner can still reason about typical conditions.
		for _, date := range dates {
			data.Forecast = append(data.Forecast, *byDate[date])
		}
	}
	data.Summary = summarize(data.Forecast, forecast.City.Name)
	return data, nil
}

func conditionRank(condition string) int {
	switch strings.ToLower(condition) {
	case "thunderstorm":
		return 5
	case "snow":
		return 4
	case "rain":
		return 3
	case "drizzle":
		return 2
	case "clouds":
		return 1
	default:
		return 0
	}
}

func summarize(days []trip.WeatherDay, city string) string {
	if len(days) == 0 {
		return ""
	}
	adverse := 0
	for _, day := range days {
		if day.IsAdverse() {
			adverse++
		}
	}
	if adverse == 0 {
		return fmt.Sprintf("Weather in %s looks clear for the forecast window.", city)
	}
	return fmt.Sprintf("Weather in %s: %d of %d forecast days show rain or storms.", city, adverse, len(days))
}

package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.open-meteo.com/v1/forecast"

	// DefaultTimeout bounds each forecast request.
	DefaultTimeout = 10 * time.Second

	// MinDays and MaxDays bound the forecast window. Open-Meteo serves
	// at most 16 days; the itinerary caps at 14.
	MinDays = 1
	MaxDays = 14

	maxResponseBody = 4 << 20

	// Metric labels for forecast fetches.
	operationForecast = "forecast"
	statusSuccess     = "success"
	statusError       = "error"
)

// MetricsRecorder records forecast fetch outcomes. Satisfied by the
// instrumentation metrics.
type MetricsRecorder interface {
	RecordWeatherAPIOperation(ctx context.Context, operation, status string, fallback bool, duration time.Duration)
}

// Client fetches forecasts from the Open-Meteo API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different forecast endpoint. Used by
// tests to target a fake API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithMetrics sets the recorder for forecast fetch outcomes.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(c *Client) { c.metrics = metrics }
}

// NewClient creates an Open-Meteo client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParseStartDate parses a trip start date. Accepts "today", ISO dates, and
// a few common layouts; anything unparseable falls back to today, matching
// the forgiving behavior callers expect from a planning tool.
func ParseStartDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "today") {
		return time.Now()
	}
	for _, layout := range []string{"2006-01-02", "02 Jan 2006", "2 Jan 2006", "Jan 2, 2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now()
}

// ClampDays bounds the trip length to the supported window.
func ClampDays(days int) int {
	if days < MinDays {
		return MinDays
	}
	if days > MaxDays {
		return MaxDays
	}
	return days
}

// GetForecast fetches the daily forecast for Cox's Bazar covering the given
// window. On any API or network failure it returns fallback data rather
// than an error so planning tools keep working; the fallback is marked via
// the Note field.
func (c *Client) GetForecast(ctx context.Context, startDate string, days int) *Forecast {
	days = ClampDays(days)
	start := ParseStartDate(startDate)
	end := start.AddDate(0, 0, days-1)

	startStr := start.Format("2006-01-02")
	endStr := end.Format("2006-01-02")

	began := time.Now()
	forecast, err := c.fetch(ctx, startStr, endStr)
	if err != nil {
		c.logger.Warn("Open-Meteo request failed, using fallback data", "error", err)
		c.recordFetch(ctx, statusError, true, time.Since(began))
		return fallbackForecast(start, startStr, endStr, days)
	}
	c.recordFetch(ctx, statusSuccess, false, time.Since(began))

	forecast.StartDate = startStr
	forecast.EndDate = endStr
	forecast.Days = days
	return forecast
}

func (c *Client) recordFetch(ctx context.Context, status string, fallback bool, duration time.Duration) {
	if c.metrics == nil {
		return
	}
	c.metrics.RecordWeatherAPIOperation(ctx, operationForecast, status, fallback, duration)
}

func (c *Client) fetch(ctx context.Context, startDate, endDate string) (*Forecast, error) {
	params := url.Values{
		"latitude":   {fmt.Sprintf("%.4f", Latitude)},
		"longitude":  {fmt.Sprintf("%.4f", Longitude)},
		"daily":      {"temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode,windspeed_10m_max,sunrise,sunset"},
		"timezone":   {Timezone},
		"start_date": {startDate},
		"end_date":   {endDate},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("forecast request returned status %d", resp.StatusCode)
	}

	var payload openMeteoResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if payload.Error {
		return nil, fmt.Errorf("Open-Meteo error: %s", payload.Reason)
	}

	return buildForecast(&payload), nil
}

// buildForecast converts the raw API payload into a Forecast. Arrays in the
// payload are indexed defensively since Open-Meteo makes no hard guarantee
// they are all the same length.
func buildForecast(payload *openMeteoResponse) *Forecast {
	daily := payload.Daily
	forecast := &Forecast{
		Location:    Location,
		Coordinates: Coordinates{Latitude: Latitude, Longitude: Longitude},
		Timezone:    Timezone,
		Daily:       make([]DayForecast, 0, len(daily.Time)),
	}

	for i, date := range daily.Time {
		day := DayForecast{Day: i + 1, Date: date}

		if i < len(daily.TemperatureMax) {
			day.TempMax = round1(daily.TemperatureMax[i])
		}
		if i < len(daily.TemperatureMin) {
			day.TempMin = round1(daily.TemperatureMin[i])
		}
		if i < len(daily.TemperatureMax) && i < len(daily.TemperatureMin) {
			day.TempAvg = round1((daily.TemperatureMax[i] + daily.TemperatureMin[i]) / 2)
		}
		if i < len(daily.PrecipitationSum) {
			day.Precipitation = round1(daily.PrecipitationSum[i])
		}
		if i < len(daily.WeatherCode) {
			day.WeatherCode = daily.WeatherCode[i]
		}
		day.Weather = DescribeWeatherCode(day.WeatherCode)
		if i < len(daily.WindSpeedMax) {
			day.WindSpeed = round1(daily.WindSpeedMax[i])
		}
		if i < len(daily.Sunrise) {
			day.Sunrise = timeOfDay(daily.Sunrise[i])
		}
		if i < len(daily.Sunset) {
			day.Sunset = timeOfDay(daily.Sunset[i])
		}

		forecast.Daily = append(forecast.Daily, day)
	}

	return forecast
}

// fallbackForecast produces synthetic data when the API is unavailable.
func fallbackForecast(start time.Time, startDate, endDate string, days int) *Forecast {
	const baseTemp = 28.0

	forecast := &Forecast{
		Location:    Location,
		Coordinates: Coordinates{Latitude: Latitude, Longitude: Longitude},
		StartDate:   startDate,
		EndDate:     endDate,
		Days:        days,
		Timezone:    Timezone,
		Daily:       make([]DayForecast, 0, days),
		Note:        "Fallback data - API unavailable",
	}

	for i := 0; i < days; i++ {
		variation := float64(i%3) - 1
		tempMax := baseTemp + 2 + variation
		tempMin := baseTemp - 3 + variation

		forecast.Daily = append(forecast.Daily, DayForecast{
			Day:           i + 1,
			Date:          start.AddDate(0, 0, i).Format("2006-01-02"),
			TempMax:       tempMax,
			TempMin:       tempMin,
			TempAvg:       round1((tempMax + tempMin) / 2),
			Precipitation: 0,
			Weather:       DescribeWeatherCode(2),
			WeatherCode:   2,
			WindSpeed:     15.0,
			Sunrise:       "06:00",
			Sunset:        "18:00",
		})
	}

	return forecast
}

// timeOfDay strips the date part from an ISO 8601 timestamp, leaving the
// local time ("2025-01-15T06:32" -> "06:32").
func timeOfDay(iso string) string {
	if idx := strings.IndexByte(iso, 'T'); idx >= 0 {
		return iso[idx+1:]
	}
	return iso
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

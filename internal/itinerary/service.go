package itinerary

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/code4mk/coxbazar-mcp/internal/weather"
)

// MinRecommendedDays is the trip length below which the itinerary carries
// an advisory note suggesting an extension.
const MinRecommendedDays = 2

// Forecaster is the weather surface the service depends on. The Open-Meteo
// client implements it; tests substitute fakes.
type Forecaster interface {
	GetForecast(ctx context.Context, startDate string, days int) *weather.Forecast
}

// Service generates markdown itineraries from weather forecasts.
type Service struct {
	forecaster Forecaster
	logger     *slog.Logger
}

// NewService creates an itinerary service.
func NewService(forecaster Forecaster, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{forecaster: forecaster, logger: logger}
}

// Generate produces a day-by-day itinerary for the given trip window,
// combining the forecast with time-of-day activity suggestions and the AI
// prompts for further refinement. Trips shorter than MinRecommendedDays are
// still generated but carry an advisory note.
func (s *Service) Generate(ctx context.Context, startDate string, days int) (string, error) {
	days = weather.ClampDays(days)

	var advisory string
	if days < MinRecommendedDays {
		advisory = fmt.Sprintf(
			"NOTE: We recommend at least %d days for a better travel experience. Proceeding with a %d-day itinerary.\n\n",
			MinRecommendedDays, days)
		s.logger.Info("trip below recommended minimum", "days", days, "min_days", MinRecommendedDays)
	}

	forecast := s.forecaster.GetForecast(ctx, startDate, days)
	if len(forecast.Daily) == 0 {
		return "", fmt.Errorf("no forecast data for %s", startDate)
	}

	var b strings.Builder

	b.WriteString("# Cox's Bazar Itinerary Planning\n\n")
	b.WriteString("## Trip Details\n")
	fmt.Fprintf(&b, "- **Location:** %s\n", forecast.Location)
	fmt.Fprintf(&b, "- **Start Date:** %s\n", forecast.StartDate)
	fmt.Fprintf(&b, "- **Duration:** %d day(s)\n", forecast.Days)
	fmt.Fprintf(&b, "- **Timezone:** %s\n\n", forecast.Timezone)

	if advisory != "" {
		b.WriteString(advisory)
	}
	if forecast.Note != "" {
		fmt.Fprintf(&b, "> %s\n\n", forecast.Note)
	}

	b.WriteString("## Weather Forecast\n\n")
	for _, day := range forecast.Daily {
		fmt.Fprintf(&b, "### Day %d - %s\n", day.Day, day.Date)
		fmt.Fprintf(&b, "- **Weather:** %s\n", day.Weather)
		fmt.Fprintf(&b, "- **Temperature:** %.1f°C - %.1f°C (Average: %.1f°C)\n", day.TempMin, day.TempMax, day.TempAvg)
		fmt.Fprintf(&b, "- **Precipitation:** %.1fmm\n", day.Precipitation)
		fmt.Fprintf(&b, "- **Wind Speed:** %.1f km/h\n", day.WindSpeed)
		fmt.Fprintf(&b, "- **Sunrise:** %s | **Sunset:** %s\n\n", day.Sunrise, day.Sunset)

		b.WriteString("**Activity Suggestions:**\n\n")
		morning := weather.SuggestActivities(day.TempAvg-2, weather.Morning)
		afternoon := weather.SuggestActivities(day.TempAvg, weather.Afternoon)
		evening := weather.SuggestActivities(day.TempAvg, weather.Evening)

		fmt.Fprintf(&b, "- **Morning:** %s\n", strings.Join(firstN(morning, 2), ", "))
		fmt.Fprintf(&b, "- **Afternoon:** %s\n", strings.Join(firstN(afternoon, 2), ", "))
		fmt.Fprintf(&b, "- **Evening:** %s\n\n", strings.Join(firstN(evening, 2), ", "))
	}

	b.WriteString("---\n\n## AI Itinerary Generation Prompt\n\n")
	b.WriteString(ItineraryPrompt(forecast.Days, forecast.StartDate))
	b.WriteString("\n\n---\n\n## Weather-Based Activities Prompt\n\n")
	b.WriteString(WeatherActivitiesPrompt(forecast))
	b.WriteString("\n---\n\n**Note:** Use the above prompts with an AI assistant to generate a detailed, personalized itinerary based on the weather forecast and your preferences.\n")

	return b.String(), nil
}

// Suggest returns activity suggestions for a temperature and time of day.
func (s *Service) Suggest(temperature float64, timeOfDay string) []string {
	return weather.SuggestActivities(temperature, timeOfDay)
}

func firstN(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}

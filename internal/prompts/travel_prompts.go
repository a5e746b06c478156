package prompts

import (
	"context"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/itinerary"
	"github.com/code4mk/coxbazar-mcp/internal/server"
	"github.com/code4mk/coxbazar-mcp/internal/weather"
)

// RegisterTravelPrompts registers the itinerary and weather-activities
// prompts with the MCP server. Prompts are public: they produce AI prompt
// text, not user data.
func RegisterTravelPrompts(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	itineraryPrompt := mcp.NewPrompt("generate_itinerary_prompt",
		mcp.WithPromptDescription("AI prompt for generating a detailed Cox's Bazar itinerary for a trip window."),
		mcp.WithArgument("start_date",
			mcp.ArgumentDescription("Start date of the trip in YYYY-MM-DD form, or 'today'."),
		),
		mcp.WithArgument("days",
			mcp.ArgumentDescription("Number of trip days, 1 to 14."),
		),
	)
	s.AddPrompt(itineraryPrompt, itineraryPromptHandler())

	activitiesPrompt := mcp.NewPrompt("weather_based_activities_prompt",
		mcp.WithPromptDescription("AI prompt asking for weather-aware activity suggestions based on the live Cox's Bazar forecast."),
		mcp.WithArgument("start_date",
			mcp.ArgumentDescription("Start date of the forecast window in YYYY-MM-DD form, or 'today'."),
		),
		mcp.WithArgument("days",
			mcp.ArgumentDescription("Number of forecast days, 1 to 14."),
		),
	)
	s.AddPrompt(activitiesPrompt, weatherActivitiesPromptHandler(sc))

	return nil
}

// itineraryPromptHandler renders the static itinerary prompt for the
// requested trip window.
func itineraryPromptHandler() func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		startDate, days := promptWindow(request.Params.Arguments)

		text := itinerary.ItineraryPrompt(days, startDate)
		return mcp.NewGetPromptResult(
			fmt.Sprintf("Cox's Bazar itinerary prompt for %d day(s) from %s", days, startDate),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	}
}

// weatherActivitiesPromptHandler fetches the forecast for the window and
// renders the weather-aware activities prompt from it.
func weatherActivitiesPromptHandler(sc *server.ServerContext) func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return func(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		startDate, days := promptWindow(request.Params.Arguments)

		forecast := sc.Weather().GetForecast(ctx, startDate, days)
		text := itinerary.WeatherActivitiesPrompt(forecast)
		return mcp.NewGetPromptResult(
			fmt.Sprintf("Weather-based activity prompt for %d day(s) from %s", days, startDate),
			[]mcp.PromptMessage{
				mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(text)),
			},
		), nil
	}
}

// promptWindow resolves the trip window from prompt arguments, defaulting to
// a 2-day trip starting today and clamping days to the supported range.
func promptWindow(args map[string]string) (startDate string, days int) {
	startDate = "today"
	if v := args["start_date"]; v != "" {
		startDate = v
	}

	days = itinerary.MinRecommendedDays
	if v := args["days"]; v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}
	return startDate, weather.ClampDays(days)
}

package travel_tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/instrumentation"
	"github.com/code4mk/coxbazar-mcp/internal/server"
	"github.com/code4mk/coxbazar-mcp/internal/tools/common"
)

const (
	defaultDays      = 2
	defaultStartDate = "today"
)

// RegisterTravelTools registers the travel planning tools with the MCP
// server. Both tools require a valid session.
func RegisterTravelTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	itineraryTool := mcp.NewTool("generate_itinerary",
		mcp.WithDescription("Generate a day-by-day travel itinerary for Cox's Bazar combining the weather forecast with activity suggestions. Requires a valid session."),
		mcp.WithString("start_date",
			mcp.Description("Start date of the trip in YYYY-MM-DD form, or 'today' (default)."),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of trip days, 1 to 14 (default 2). Trips shorter than 2 days get an advisory note."),
		),
		common.SessionIDArg(),
	)
	s.AddTool(itineraryTool, mcpserver.ToolHandlerFunc(sc.Gate().RequireSession("generate_itinerary",
		common.InstrumentedToolHandlerWithOperation("generate_itinerary", instrumentation.OperationForecast, sc,
			generateItineraryHandler(sc)))))

	suggestionsTool := mcp.NewTool("get_activity_suggestions",
		mcp.WithDescription("Suggest Cox's Bazar activities for a given temperature and time of day. Requires a valid session."),
		mcp.WithNumber("temperature",
			mcp.Description("Temperature in Celsius (default 28)."),
		),
		mcp.WithString("time_of_day",
			mcp.Description("Time of day: morning, afternoon, or evening (default afternoon)."),
		),
		common.SessionIDArg(),
	)
	s.AddTool(suggestionsTool, mcpserver.ToolHandlerFunc(sc.Gate().RequireSession("get_activity_suggestions",
		common.InstrumentedToolHandler("get_activity_suggestions", sc,
			activitySuggestionsHandler(sc)))))

	return nil
}

// generateItineraryHandler builds the markdown itinerary. Weather API
// failures degrade to a synthetic forecast inside the weather client, so the
// only hard failure here is an empty forecast window.
func generateItineraryHandler(sc *server.ServerContext) auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		startDate := stringArg(args, "start_date", defaultStartDate)
		days := intArg(args, "days", defaultDays)

		itinerary, err := sc.Itinerary().Generate(ctx, startDate, days)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to generate itinerary: %v", err)), nil
		}
		return mcp.NewToolResultText(itinerary), nil
	}
}

// activitySuggestionsHandler returns the activity list as a JSON array, the
// shape MCP clients expect for list-valued tools.
func activitySuggestionsHandler(sc *server.ServerContext) auth.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()

		temperature := floatArg(args, "temperature", 28)
		timeOfDay := stringArg(args, "time_of_day", "afternoon")

		activities := sc.Itinerary().Suggest(temperature, timeOfDay)
		result, err := json.MarshalIndent(activities, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode suggestions: %v", err)), nil
		}
		return mcp.NewToolResultText(string(result)), nil
	}
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intArg handles the float64 values JSON numbers decode to as well as
// native ints from in-process callers.
func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return fallback
	}
}

func floatArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return fallback
	}
}

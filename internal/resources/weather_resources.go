package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/server"
)

// ForecastURIPrefix is the scheme-and-path prefix of the forecast resource.
const ForecastURIPrefix = "weather://coxsbazar/forecast/"

// RegisterWeatherResources registers the forecast resource template with the
// MCP server. Resources are read-only and public: the forecast contains no
// user data, so no session is required.
func RegisterWeatherResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	forecastTemplate := mcp.NewResourceTemplate(
		"weather://coxsbazar/forecast/{start_date}/{days}",
		"Cox's Bazar Weather Forecast",
		mcp.WithTemplateDescription("Daily weather forecast for Cox's Bazar: temperatures, precipitation, weather conditions, wind, sunrise and sunset. start_date is YYYY-MM-DD or 'today'; days is 1 to 14."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	s.AddResourceTemplate(forecastTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleForecast(ctx, request, sc)
	})

	return nil
}

// handleForecast serves one forecast window as JSON. The weather client
// degrades to synthetic data when Open-Meteo is unreachable, so the handler
// fails only on a malformed URI.
func handleForecast(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	startDate, days, err := parseForecastURI(request.Params.URI)
	if err != nil {
		return nil, err
	}

	forecast := sc.Weather().GetForecast(ctx, startDate, days)

	jsonData, err := json.MarshalIndent(forecast, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal forecast: %w", err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

// parseForecastURI extracts the start_date and days variables from a
// forecast resource URI.
func parseForecastURI(uri string) (startDate string, days int, err error) {
	rest, ok := strings.CutPrefix(uri, ForecastURIPrefix)
	if !ok {
		return "", 0, fmt.Errorf("unexpected resource URI: %s", uri)
	}

	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", 0, fmt.Errorf("forecast URI needs start_date and days: %s", uri)
	}

	days, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, fmt.Errorf("invalid days value %q: %w", parts[1], err)
	}

	return parts[0], days, nil
}

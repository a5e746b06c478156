package resources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/code4mk/coxbazar-mcp/internal/auth"
	"github.com/code4mk/coxbazar-mcp/internal/server"
)

const sampleForecastResponse = `{
	"daily": {
		"time": ["2026-01-24"],
		"temperature_2m_max": [29.4],
		"temperature_2m_min": [21.2],
		"precipitation_sum": [0.0],
		"weathercode": [0],
		"windspeed_10m_max": [14.3],
		"sunrise": ["2026-01-24T06:32"],
		"sunset": ["2026-01-24T17:45"]
	}
}`

func testServerContext(t *testing.T) *server.ServerContext {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleForecastResponse))
	}))
	t.Cleanup(srv.Close)

	sc, err := server.NewServerContext(context.Background(), server.Config{
		GitHub: auth.GitHubConfig{
			ClientID:     "test-client",
			ClientSecret: "test-secret",
		},
		WeatherBaseURL: srv.URL,
	})
	if err != nil {
		t.Fatalf("NewServerContext() error = %v", err)
	}
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestParseForecastURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		wantDate  string
		wantDays  int
		wantError bool
	}{
		{
			name:     "valid",
			uri:      "weather://coxsbazar/forecast/2026-01-24/3",
			wantDate: "2026-01-24",
			wantDays: 3,
		},
		{
			name:     "today",
			uri:      "weather://coxsbazar/forecast/today/1",
			wantDate: "today",
			wantDays: 1,
		},
		{
			name:      "wrong scheme",
			uri:       "users://profile",
			wantError: true,
		},
		{
			name:      "missing days",
			uri:       "weather://coxsbazar/forecast/2026-01-24",
			wantError: true,
		},
		{
			name:      "non-numeric days",
			uri:       "weather://coxsbazar/forecast/2026-01-24/many",
			wantError: true,
		},
		{
			name:      "empty segments",
			uri:       "weather://coxsbazar/forecast//3",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, days, err := parseForecastURI(tt.uri)
			if (err != nil) != tt.wantError {
				t.Fatalf("parseForecastURI(%q) error = %v, wantError %v", tt.uri, err, tt.wantError)
			}
			if err != nil {
				return
			}
			if date != tt.wantDate || days != tt.wantDays {
				t.Errorf("parseForecastURI(%q) = (%q, %d), want (%q, %d)", tt.uri, date, days, tt.wantDate, tt.wantDays)
			}
		})
	}
}

func TestHandleForecast(t *testing.T) {
	sc := testServerContext(t)

	request := mcp.ReadResourceRequest{}
	request.Params.URI = "weather://coxsbazar/forecast/2026-01-24/1"

	contents, err := handleForecast(context.Background(), request, sc)
	if err != nil {
		t.Fatalf("handleForecast() error = %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}

	text, ok := contents[0].(*mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want *mcp.TextResourceContents", contents[0])
	}
	if text.MIMEType != "application/json" {
		t.Errorf("MIMEType = %s, want application/json", text.MIMEType)
	}
	if text.URI != request.Params.URI {
		t.Errorf("URI = %s, want %s", text.URI, request.Params.URI)
	}
	for _, want := range []string{"Cox's Bazar", "2026-01-24", "Clear sky"} {
		if !strings.Contains(text.Text, want) {
			t.Errorf("forecast JSON missing %q: %s", want, text.Text)
		}
	}
}

func TestHandleForecast_BadURI(t *testing.T) {
	sc := testServerContext(t)

	request := mcp.ReadResourceRequest{}
	request.Params.URI = "weather://coxsbazar/forecast/bad"

	if _, err := handleForecast(context.Background(), request, sc); err == nil {
		t.Error("expected an error for a malformed URI")
	}
}

func TestRegisterWeatherResources(t *testing.T) {
	sc := testServerContext(t)
	s := mcpserver.NewMCPServer("test", "0.0.1")

	if err := RegisterWeatherResources(s, sc); err != nil {
		t.Fatalf("RegisterWeatherResources() error = %v", err)
	}
}

package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleResponse = `{
	"daily": {
		"time": ["2026-01-24", "2026-01-25"],
		"temperature_2m_max": [29.4, 30.1],
		"temperature_2m_min": [21.2, 22.0],
		"precipitation_sum": [0.0, 1.5],
		"weathercode": [0, 61],
		"windspeed_10m_max": [14.3, 18.7],
		"sunrise": ["2026-01-24T06:32", "2026-01-25T06:32"],
		"sunset": ["2026-01-24T17:45", "2026-01-25T17:46"]
	}
}`

func TestGetForecastParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("timezone") != Timezone {
			t.Errorf("timezone = %s, want %s", q.Get("timezone"), Timezone)
		}
		if q.Get("start_date") != "2026-01-24" {
			t.Errorf("start_date = %s, want 2026-01-24", q.Get("start_date"))
		}
		if q.Get("end_date") != "2026-01-25" {
			t.Errorf("end_date = %s, want 2026-01-25", q.Get("end_date"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	forecast := client.GetForecast(context.Background(), "2026-01-24", 2)

	if forecast.Note != "" {
		t.Fatalf("unexpected fallback: %s", forecast.Note)
	}
	if forecast.Location != Location {
		t.Errorf("Location = %s, want %s", forecast.Location, Location)
	}
	if len(forecast.Daily) != 2 {
		t.Fatalf("got %d days, want 2", len(forecast.Daily))
	}

	day := forecast.Daily[0]
	if day.Weather != "Clear sky" {
		t.Errorf("Weather = %s, want Clear sky", day.Weather)
	}
	if day.TempAvg != 25.3 {
		t.Errorf("TempAvg = %v, want 25.3", day.TempAvg)
	}
	if day.Sunrise != "06:32" {
		t.Errorf("Sunrise = %s, want 06:32", day.Sunrise)
	}

	if forecast.Daily[1].Weather != "Slight rain" {
		t.Errorf("day 2 Weather = %s, want Slight rain", forecast.Daily[1].Weather)
	}
}

func TestGetForecastFallbackOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	forecast := client.GetForecast(context.Background(), "2026-01-24", 3)

	if forecast.Note == "" {
		t.Fatal("expected fallback note on server error")
	}
	if len(forecast.Daily) != 3 {
		t.Fatalf("got %d fallback days, want 3", len(forecast.Daily))
	}
	if forecast.Daily[2].Date != "2026-01-26" {
		t.Errorf("fallback day 3 date = %s, want 2026-01-26", forecast.Daily[2].Date)
	}
}

func TestGetForecastFallbackOnAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error": true, "reason": "invalid date range"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	forecast := client.GetForecast(context.Background(), "2026-01-24", 1)

	if forecast.Note == "" {
		t.Fatal("expected fallback note on API error payload")
	}
}

type fetchRecord struct {
	operation string
	status    string
	fallback  bool
}

type fakeMetricsRecorder struct {
	records []fetchRecord
}

func (r *fakeMetricsRecorder) RecordWeatherAPIOperation(_ context.Context, operation, status string, fallback bool, _ time.Duration) {
	r.records = append(r.records, fetchRecord{operation, status, fallback})
}

func TestGetForecastRecordsFetchOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	recorder := &fakeMetricsRecorder{}
	client := NewClient(WithBaseURL(srv.URL), WithMetrics(recorder))
	client.GetForecast(context.Background(), "2026-01-24", 2)

	if len(recorder.records) != 1 {
		t.Fatalf("got %d metric records, want 1", len(recorder.records))
	}
	got := recorder.records[0]
	if got.operation != "forecast" || got.status != "success" || got.fallback {
		t.Errorf("recorded %+v, want {forecast success false}", got)
	}
}

func TestGetForecastRecordsFallbackOutcome(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	recorder := &fakeMetricsRecorder{}
	client := NewClient(WithBaseURL(srv.URL), WithMetrics(recorder))
	forecast := client.GetForecast(context.Background(), "2026-01-24", 2)

	if forecast.Note == "" {
		t.Fatal("expected fallback note")
	}
	if len(recorder.records) != 1 {
		t.Fatalf("got %d metric records, want 1", len(recorder.records))
	}
	got := recorder.records[0]
	if got.operation != "forecast" || got.status != "error" || !got.fallback {
		t.Errorf("recorded %+v, want {forecast error true}", got)
	}
}

func TestGetForecastClampsDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))

	if got := client.GetForecast(context.Background(), "today", 0); got.Days != MinDays {
		t.Errorf("Days = %d, want %d for zero input", got.Days, MinDays)
	}
	if got := client.GetForecast(context.Background(), "today", 99); got.Days != MaxDays {
		t.Errorf("Days = %d, want %d for oversized input", got.Days, MaxDays)
	}
}

func TestParseStartDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string // expected date, empty means "today"
	}{
		{"ISO date", "2026-01-24", "2026-01-24"},
		{"long form", "24 Jan 2026", "2026-01-24"},
		{"short day", "5 Feb 2026", "2026-02-05"},
		{"today keyword", "today", ""},
		{"TODAY uppercase", "TODAY", ""},
		{"empty", "", ""},
		{"garbage", "not-a-date", ""},
	}

	today := time.Now().Format("2006-01-02")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStartDate(tt.input).Format("2006-01-02")
			want := tt.want
			if want == "" {
				want = today
			}
			if got != want {
				t.Errorf("ParseStartDate(%q) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestDescribeWeatherCode(t *testing.T) {
	if got := DescribeWeatherCode(95); got != "Thunderstorm" {
		t.Errorf("DescribeWeatherCode(95) = %s, want Thunderstorm", got)
	}
	if got := DescribeWeatherCode(42); got != "Unknown" {
		t.Errorf("DescribeWeatherCode(42) = %s, want Unknown", got)
	}
}

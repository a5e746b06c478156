package instrumentation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSpanAttributeBuilder(t *testing.T) {
	builder := NewSpanAttributeBuilder().
		WithTool("generate_itinerary").
		WithOperation("forecast").
		WithUser("octocat").
		WithForecastWindow("2026-01-15", 3).
		WithFallback(false)

	attrs := builder.Build()

	if len(attrs) != 6 {
		t.Errorf("expected 6 attributes, got %d", len(attrs))
	}

	// Verify attributes are present
	attrMap := make(map[string]interface{})
	for _, attr := range attrs {
		attrMap[string(attr.Key)] = attr.Value.AsInterface()
	}

	if attrMap[SpanAttrTool] != "generate_itinerary" {
		t.Errorf("expected tool 'generate_itinerary', got %v", attrMap[SpanAttrTool])
	}
	if attrMap[SpanAttrOperation] != "forecast" {
		t.Errorf("expected operation 'forecast', got %v", attrMap[SpanAttrOperation])
	}
	if attrMap[SpanAttrUser] != "octocat" {
		t.Errorf("expected user 'octocat', got %v", attrMap[SpanAttrUser])
	}
	if attrMap[SpanAttrStartDate] != "2026-01-15" {
		t.Errorf("expected start date '2026-01-15', got %v", attrMap[SpanAttrStartDate])
	}
	if attrMap[SpanAttrDays] != int64(3) {
		t.Errorf("expected days 3, got %v", attrMap[SpanAttrDays])
	}
	if attrMap[SpanAttrFallback] != false {
		t.Errorf("expected fallback false, got %v", attrMap[SpanAttrFallback])
	}
}

func TestSpanAttributeBuilder_EmptyValues(t *testing.T) {
	// Empty user and start date should not be added
	builder := NewSpanAttributeBuilder().
		WithTool("test_tool").
		WithUser("")

	attrs := builder.Build()

	// Only tool should be present
	if len(attrs) != 1 {
		t.Errorf("expected 1 attribute (only tool), got %d", len(attrs))
	}
}

func TestStartSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Initialize provider to set global tracer
	provider := newTestProvider(t, ctx, false)
	_ = provider

	spanCtx, span := StartSpan(ctx, "test-span")
	defer span.End()

	if spanCtx == nil {
		t.Error("expected context to be non-nil")
	}
	if span == nil {
		t.Error("expected span to be non-nil")
	}
}

func TestStartToolSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	spanCtx, span := StartToolSpan(ctx, "generate_itinerary")
	defer span.End()

	if spanCtx == nil {
		t.Error("expected context to be non-nil")
	}
	if span == nil {
		t.Error("expected span to be non-nil")
	}
}

func TestStartWeatherAPISpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	spanCtx, span := StartWeatherAPISpan(ctx, OperationForecast)
	defer span.End()

	if spanCtx == nil {
		t.Error("expected context to be non-nil")
	}
	if span == nil {
		t.Error("expected span to be non-nil")
	}
}

func TestStartAuthSpan(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	spanCtx, span := StartAuthSpan(ctx, OperationCallback)
	defer span.End()

	if spanCtx == nil {
		t.Error("expected context to be non-nil")
	}
	if span == nil {
		t.Error("expected span to be non-nil")
	}
}

func TestSetSpanError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	SetSpanError(span, errors.New("test error"))
	SetSpanError(span, nil) // nil error should be safe
	span.End()
}

func TestSetSpanSuccess(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	SetSpanSuccess(span)
	span.End()
}

func TestAddSpanEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = newTestProvider(t, ctx, false)

	_, span := StartSpan(ctx, "test-span")

	// Should not panic
	AddSpanEvent(span, "test-event")
	span.End()
}

func TestGetTraceID_NoSpan(t *testing.T) {
	ctx := context.Background()
	traceID := GetTraceID(ctx)
	if traceID != "" {
		t.Errorf("expected empty trace ID for context without span, got %q", traceID)
	}
}

func TestGetSpanID_NoSpan(t *testing.T) {
	ctx := context.Background()
	spanID := GetSpanID(ctx)
	if spanID != "" {
		t.Errorf("expected empty span ID for context without span, got %q", spanID)
	}
}

func TestSpanContextString_NoSpan(t *testing.T) {
	ctx := context.Background()
	ctxStr := SpanContextString(ctx)
	if ctxStr != "" {
		t.Errorf("expected empty context string for context without span, got %q", ctxStr)
	}
}

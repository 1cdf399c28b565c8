package tracing

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

type captureExporter struct {
	endpoint string
}

func (c *captureExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	return nil
}

func (c *captureExporter) Shutdown(ctx context.Context) error {
	return nil
}

func TestInitTracerDisabled(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "false")

	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tp == nil || tracer == nil {
		t.Fatal("expected a tracer provider even with tracing disabled")
	}
}

func TestInitTracerUsesConfiguredEndpoint(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317")

	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()

	capture := &captureExporter{}
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		capture.endpoint = endpoint
		return capture, nil
	}

	tp, tracer, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tracer == nil {
		t.Fatal("expected tracer")
	}
	if capture.endpoint != "otel-collector:4317" {
		t.Fatalf("endpoint not propagated, got %q", capture.endpoint)
	}

	if err := Shutdown(tp); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

func TestInitTracerDefaultEndpoint(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	orig := newTraceExporter
	defer func() { newTraceExporter = orig }()

	capture := &captureExporter{}
	newTraceExporter = func(ctx context.Context, endpoint string) (sdktrace.SpanExporter, error) {
		capture.endpoint = endpoint
		return capture, nil
	}

	tp, _, err := InitTracer(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capture.endpoint != "localhost:4317" {
		t.Fatalf("expected default endpoint, got %q", capture.endpoint)
	}

	if err := Shutdown(tp); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
}

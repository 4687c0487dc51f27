package otelx

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestConfigFromEnvDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_SAMPLING_RATIO", "")
	cfg := ConfigFromEnv("salon-bot")
	if cfg.Enabled {
		t.Fatal("expected tracing disabled without an endpoint")
	}
	if cfg.SampleRatio != 1 {
		t.Fatalf("expected default sample ratio 1, got %v", cfg.SampleRatio)
	}
}

func TestConfigFromEnvExplicitToggle(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317")
	t.Setenv("OTEL_ENABLED", "false")
	t.Setenv("OTEL_SAMPLING_RATIO", "0.25")
	cfg := ConfigFromEnv("salon-bot")
	if cfg.Enabled {
		t.Fatal("OTEL_ENABLED=false must win over endpoint")
	}
	if cfg.OTLPEndpoint != "jaeger:4317" || cfg.SampleRatio != 0.25 {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestTraceContextRoundTrip(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0x4b, 0xf9, 0x2f, 0x35, 0x77, 0xb3, 0x4d, 0xa6, 0xa3, 0xce, 0x92, 0x9d, 0x0e, 0x0e, 0x47, 0x36},
		SpanID:     trace.SpanID{0x00, 0xf0, 0x67, 0xaa, 0x0b, 0xa9, 0x02, 0xb7},
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), parent)

	tp, ts := TraceContextStrings(ctx)
	if tp != "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01" || ts != "" {
		t.Fatalf("unexpected carrier %q %q", tp, ts)
	}
	restored := trace.SpanContextFromContext(ContextWithTraceContext(context.Background(), tp, ts))
	if restored.TraceID() != parent.TraceID() || !restored.IsRemote() {
		t.Fatalf("unexpected restored context %+v", restored)
	}
	if got := ContextWithTraceContext(ctx, "", ""); got != ctx {
		t.Fatal("empty traceparent should leave ctx untouched")
	}
}

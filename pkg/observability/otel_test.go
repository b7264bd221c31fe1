package observability

import (
	"context"
	"testing"
)

func TestSampleRatio(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 0.1},
		{"0.5", 0.5},
		{"-1", 0},
		{"3", 1},
		{"abc", 0.1},
	}
	for _, tc := range cases {
		t.Setenv("OTEL_SAMPLER_RATIO", tc.raw)
		if got := sampleRatio(); got != tc.want {
			t.Fatalf("raw=%q want=%v got=%v", tc.raw, tc.want, got)
		}
	}
}

func TestHeaders(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "api-key=abc, bad ,x=,tenant=shop")
	h := headers()
	if len(h) != 2 || h["api-key"] != "abc" || h["tenant"] != "shop" {
		t.Fatalf("unexpected headers: %v", h)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_HEADERS", "")
	if headers() != nil {
		t.Fatalf("empty value must yield nil")
	}
}

func TestInitDisabledIsNoop(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "false")
	shutdown := InitOTel(context.Background(), OtelConfig{ServiceName: "test"})
	if shutdown == nil {
		t.Fatalf("shutdown must never be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

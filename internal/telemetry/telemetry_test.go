package telemetry

import (
	"context"
	"testing"
)

func TestSetupDisabledWithoutEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdown := Setup(Options{ServiceName: "torre-segura", Sync: true})
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestSampleRatio(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"", 1},
		{"0.25", 0.25},
		{"0", 0},
		{"1.5", 1},
		{"-1", 1},
		{"mitad", 1},
	}
	for _, tt := range cases {
		if got := sampleRatio(tt.raw); got != tt.want {
			t.Fatalf("sampleRatio(%q)=%v, want %v", tt.raw, got, tt.want)
		}
	}
}

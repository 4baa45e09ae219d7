package telemetry

import (
	"context"
	"testing"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		endpoint string
	}{
		{name: "disabled", enabled: false, endpoint: "http://localhost:4318"},
		{name: "no endpoint", enabled: true, endpoint: ""},
		// Non-routable address so no export happens.
		{name: "provider", enabled: true, endpoint: "http://192.0.2.1:4318"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shutdown, err := Setup(context.Background(), "classicsim-test", tt.enabled, tt.endpoint)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if err := shutdown(context.Background()); err != nil {
				t.Fatalf("shutdown error: %v", err)
			}
		})
	}
}

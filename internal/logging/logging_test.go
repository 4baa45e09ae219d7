package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		enabled       zapcore.Level
		disabled      zapcore.Level
		wantErr       bool
	}{
		{level: "info", format: "json", enabled: zapcore.InfoLevel, disabled: zapcore.DebugLevel},
		{level: "debug", format: "console", enabled: zapcore.DebugLevel, disabled: zapcore.DebugLevel - 1},
		{level: "WARN", format: "", enabled: zapcore.WarnLevel, disabled: zapcore.InfoLevel},
		{level: "loud", format: "json", wantErr: true},
		{level: "info", format: "xml", wantErr: true},
	}
	for _, tt := range tests {
		logger, err := New(tt.level, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q, %q) succeeded, want error", tt.level, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q, %q) = %v", tt.level, tt.format, err)
		}
		core := logger.Core()
		if !core.Enabled(tt.enabled) || core.Enabled(tt.disabled) {
			t.Errorf("New(%q, %q): level gate wrong", tt.level, tt.format)
		}
	}
}

package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestInit(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	logger := Init("test-service", slog.LevelInfo)
	if logger == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestInitWriter_JSONWithService(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	InitWriter(&buf, "arrayd", slog.LevelWarn)
	slog.Info("dropped")
	slog.Warn("kept", slog.Int("pending", 3))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("expected one JSON record, got %q: %v", buf.String(), err)
	}
	if rec["service"] != "arrayd" {
		t.Errorf("expected service 'arrayd', got %v", rec["service"])
	}
	if rec["msg"] != "kept" {
		t.Errorf("expected msg 'kept', got %v", rec["msg"])
	}
	if rec["pending"] != 3.0 {
		t.Errorf("expected pending 3, got %v", rec["pending"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"Error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tc := range cases {
		if got := ParseLevel(tc.in); got != tc.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

package controller

import (
	"testing"
	"time"
)

func TestNormalizePair(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"kas/usdc", "KASUSDC"},
		{"KAS-USDC", "KASUSDC"},
		{" kas_usdc ", "KASUSDC"},
		{"KASUSDC", "KASUSDC"},
	}

	for _, tt := range tests {
		if got := NormalizePair(tt.input); got != tt.expected {
			t.Fatalf("expected %s -> %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestPercentOfFloatSafe(t *testing.T) {
	if got := PercentOfFloatSafe(200, 10); got != 20 {
		t.Fatalf("expected 10%% of 200 to be 20, got %f", got)
	}

	if got := PercentOfFloatSafe(100, 0); got != 1 {
		t.Fatalf("percent should clamp to minimum, expected 1 got %f", got)
	}

	if got := PercentOfFloatSafe(100, 150); got != 100 {
		t.Fatalf("percent should clamp to maximum, expected 100 got %f", got)
	}
}

func TestParseWindow(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
	}{
		{"90s", 90 * time.Second},
		{"30m", 30 * time.Minute},
		{"2h", 2 * time.Hour},
		{"1d", 24 * time.Hour},
		{"45", 45 * time.Minute},
		{" 15M ", 15 * time.Minute},
		{"10s", time.Minute},
		{"3d", 24 * time.Hour},
	}

	for _, tt := range tests {
		got, err := ParseWindow(tt.input)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", tt.input, err)
		}
		if got != tt.expected {
			t.Fatalf("expected %q -> %s, got %s", tt.input, tt.expected, got)
		}
	}
}

func TestParseWindowRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "abc", "-5m", "m"} {
		if _, err := ParseWindow(input); err == nil {
			t.Fatalf("expected error for %q", input)
		}
	}
}

func TestClampOpenLimit(t *testing.T) {
	if got := ClampOpenLimit(1); got != MinOpenLimit {
		t.Fatalf("expected %d, got %d", MinOpenLimit, got)
	}
	if got := ClampOpenLimit(5000); got != MaxOpenLimit {
		t.Fatalf("expected %d, got %d", MaxOpenLimit, got)
	}
	if got := ClampOpenLimit(500); got != 500 {
		t.Fatalf("expected 500, got %d", got)
	}
}

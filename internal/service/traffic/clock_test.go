package traffic

import (
	"errors"
	"testing"
	"time"

	"bikeflow/internal/domain/traffic"
)

func TestMinutesSinceMidnight(t *testing.T) {
	boston, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	tests := []struct {
		name string
		in   time.Time
		want int
	}{
		{"midnight", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0},
		{"afternoon", time.Date(2024, 3, 1, 15, 15, 59, 0, time.UTC), 915},
		{"last minute", time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC), 1439},
		{"local fields are used as is", time.Date(2024, 3, 1, 8, 30, 0, 0, boston), 510},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinutesSinceMidnight(tt.in); got != tt.want {
				t.Fatalf("MinutesSinceMidnight() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "12:00 AM"},
		{59, "12:59 AM"},
		{195, "3:15 AM"},
		{720, "12:00 PM"},
		{915, "3:15 PM"},
		{1439, "11:59 PM"},
		{1440, "12:00 AM"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.minutes); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		raw     string
		want    traffic.Selection
		wantErr bool
	}{
		{"", traffic.NoFilter, false},
		{"-1", traffic.NoFilter, false},
		{"0", 0, false},
		{" 720 ", 720, false},
		{"1439", 1439, false},
		{"1440", traffic.NoFilter, true},
		{"-2", traffic.NoFilter, true},
		{"noon", traffic.NoFilter, true},
	}

	for _, tt := range tests {
		got, err := ParseSelection(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSelection) {
				t.Errorf("ParseSelection(%q) error = %v, want ErrInvalidSelection", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSelection(%q) unexpected error: %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSelection(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestSelectionLabel(t *testing.T) {
	if got := SelectionLabel(traffic.NoFilter); got != "" {
		t.Fatalf("label for no filter = %q, want empty", got)
	}
	if got := SelectionLabel(traffic.Selection(495)); got != "8:15 AM" {
		t.Fatalf("label for 495 = %q, want 8:15 AM", got)
	}
}

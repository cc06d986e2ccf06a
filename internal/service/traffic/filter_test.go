package traffic

import (
	"testing"
	"time"

	"bikeflow/internal/domain/traffic"
)

func at(minutes int) time.Time {
	return time.Date(2024, 3, 1, 0, minutes, 0, 0, time.UTC)
}

func trip(id string, start, end int) traffic.Trip {
	return traffic.Trip{
		RideID:         id,
		StartStationID: "A",
		EndStationID:   "B",
		StartedAt:      at(start),
		EndedAt:        at(end),
	}
}

func TestFilterTripsByTimeNoFilterIsIdentity(t *testing.T) {
	trips := []traffic.Trip{trip("1", 10, 20), trip("2", 600, 640), trip("3", 10, 20)}

	got := FilterTripsByTime(trips, traffic.NoFilter)
	if len(got) != len(trips) {
		t.Fatalf("len = %d, want %d", len(got), len(trips))
	}
	if &got[0] != &trips[0] {
		t.Fatal("expected the input slice to be returned unchanged")
	}
	for i := range trips {
		if got[i] != trips[i] {
			t.Fatalf("trip %d changed: %+v != %+v", i, got[i], trips[i])
		}
	}
}

func TestFilterTripsByTimeWindowBoundary(t *testing.T) {
	const sel = 600

	tests := []struct {
		name  string
		start int
		end   int
		want  bool
	}{
		{"start at upper bound", sel + 60, sel + 200, true},
		{"start past upper bound", sel + 61, sel + 200, false},
		{"start at lower bound", sel - 60, sel - 200, true},
		{"start past lower bound", sel - 61, sel - 200, false},
		{"end at upper bound", sel - 300, sel + 60, true},
		{"end past upper bound", sel - 300, sel + 61, false},
		{"end at lower bound", sel - 300, sel - 60, true},
		{"spans window without touching it", sel - 100, sel + 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterTripsByTime([]traffic.Trip{trip("x", tt.start, tt.end)}, sel)
			if (len(got) == 1) != tt.want {
				t.Fatalf("included = %v, want %v", len(got) == 1, tt.want)
			}
		})
	}
}

func TestFilterTripsByTimeDoesNotWrapMidnight(t *testing.T) {
	trips := []traffic.Trip{trip("late", 5, 5)}

	if got := FilterTripsByTime(trips, 1439); len(got) != 0 {
		t.Fatalf("trip at 00:05 matched 23:59 selection: %+v", got)
	}
}

func TestFilterTripsByTimePreservesOrderAndInput(t *testing.T) {
	trips := []traffic.Trip{
		trip("1", 480, 490),
		trip("2", 900, 910),
		trip("3", 500, 520),
		trip("1", 480, 490),
	}
	before := append([]traffic.Trip(nil), trips...)

	got := FilterTripsByTime(trips, 500)

	wantIDs := []string{"1", "3", "1"}
	if len(got) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(got), len(wantIDs))
	}
	for i, id := range wantIDs {
		if got[i].RideID != id {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].RideID, id)
		}
	}
	for i := range trips {
		if trips[i] != before[i] {
			t.Fatalf("input trip %d mutated", i)
		}
	}
}

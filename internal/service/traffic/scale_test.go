package traffic

import (
	"math"
	"testing"

	"bikeflow/internal/domain/traffic"
)

func TestQuantizeFlow(t *testing.T) {
	tests := []struct {
		ratio float64
		want  float64
	}{
		{0, 0},
		{0.2, 0},
		{1.0 / 3, 0.5},
		{0.5, 0.5},
		{0.66, 0.5},
		{2.0 / 3, 1},
		{1, 1},
		{-0.5, 0},
		{1.5, 1},
	}

	for _, tt := range tests {
		if got := QuantizeFlow(tt.ratio); got != tt.want {
			t.Errorf("QuantizeFlow(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestStationFlow(t *testing.T) {
	tests := []struct {
		name string
		st   traffic.StationTraffic
		want float64
	}{
		{"arrivals only", traffic.StationTraffic{Arrivals: 4, TotalTraffic: 4}, 0},
		{"departures only", traffic.StationTraffic{Departures: 4, TotalTraffic: 4}, 1},
		{"balanced", traffic.StationTraffic{Departures: 2, Arrivals: 2, TotalTraffic: 4}, 0.5},
		{"no traffic", traffic.StationTraffic{}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StationFlow(tt.st); got != tt.want {
				t.Fatalf("StationFlow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRadiusScaleScenario(t *testing.T) {
	agg := traffic.NewAggregate([]traffic.StationTraffic{
		{StationID: "A"},
		{StationID: "B", Departures: 10, TotalTraffic: 10},
	}, 10, 0, 0)

	scale := NewRadiusScale(agg, traffic.NoFilter, DefaultRadiusRanges())

	if scale.DomainMax != 10 {
		t.Fatalf("DomainMax = %v, want 10", scale.DomainMax)
	}
	if got := scale.Radius(0); got != 0 {
		t.Errorf("radius(A) = %v, want 0", got)
	}
	if got := scale.Radius(10); got != 25 {
		t.Errorf("radius(B) = %v, want 25", got)
	}
}

func TestRadiusScaleFilteredRange(t *testing.T) {
	agg := traffic.NewAggregate([]traffic.StationTraffic{{StationID: "A", TotalTraffic: 16}}, 8, 0, 0)

	scale := NewRadiusScale(agg, 480, DefaultRadiusRanges())

	if scale.Range != (Range{Min: 3, Max: 50}) {
		t.Fatalf("Range = %+v, want [3, 50]", scale.Range)
	}
	if got := scale.Radius(0); got != 3 {
		t.Errorf("radius(0) = %v, want 3", got)
	}
	if got := scale.Radius(16); got != 50 {
		t.Errorf("radius(16) = %v, want 50", got)
	}
	if got := scale.Radius(4); math.Abs(got-26.5) > 1e-9 {
		t.Errorf("radius(4) = %v, want 26.5", got)
	}
}

func TestRadiusScaleMonotonicAndAreaProportional(t *testing.T) {
	scale := RadiusScale{DomainMax: 400, Range: Range{Min: 0, Max: 25}}

	prev := -1.0
	for total := 0; total <= 400; total += 10 {
		r := scale.Radius(total)
		if r < prev {
			t.Fatalf("radius decreased at %d: %v < %v", total, r, prev)
		}
		prev = r
	}

	r1, r2 := scale.Radius(100), scale.Radius(200)
	if r2 >= 2*r1 {
		t.Fatalf("doubling traffic doubled the radius: %v -> %v", r1, r2)
	}
	if area := (r2 * r2) / (r1 * r1); math.Abs(area-2) > 1e-9 {
		t.Fatalf("area ratio = %v, want 2", area)
	}
}

func TestRadiusScaleEmptyDomain(t *testing.T) {
	empty := traffic.NewAggregate(nil, 0, 0, 0)

	tests := []struct {
		sel  traffic.Selection
		want float64
	}{
		{traffic.NoFilter, 0},
		{traffic.Selection(180), 3},
	}

	for _, tt := range tests {
		scale := NewRadiusScale(empty, tt.sel, DefaultRadiusRanges())
		if got := scale.Radius(0); got != tt.want {
			t.Errorf("selection %d: Radius(0) on empty domain = %v, want range minimum %v", tt.sel, got, tt.want)
		}
	}
}

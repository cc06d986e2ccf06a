package geo

import (
	"testing"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
)

func TestCalculateDistance(t *testing.T) {
	// MIT to Boston Common, roughly 2.7 km
	mit := geo.Coordinate{Longitude: -71.0942, Latitude: 42.3601}
	common := geo.Coordinate{Longitude: -71.0656, Latitude: 42.3550}

	d := CalculateDistance(mit, common)
	if d < 2.0 || d > 3.0 {
		t.Fatalf("unexpected distance %.2f km", d)
	}
	if CalculateDistance(mit, mit) != 0 {
		t.Fatal("distance to self is not zero")
	}
}

func TestStationLocatorNearby(t *testing.T) {
	locator := NewStationLocator([]traffic.Station{
		{ShortName: "far", Coordinate: geo.Coordinate{Longitude: -71.2, Latitude: 42.5}},
		{ShortName: "mid", Coordinate: geo.Coordinate{Longitude: -71.08, Latitude: 42.36}},
		{ShortName: "near", Coordinate: geo.Coordinate{Longitude: -71.094, Latitude: 42.3601}},
	})

	got := locator.Nearby(geo.Coordinate{Longitude: -71.0942, Latitude: 42.3601}, 2)
	if len(got) != 2 {
		t.Fatalf("got %d stations, want 2", len(got))
	}
	if got[0].Station.ShortName != "near" || got[1].Station.ShortName != "mid" {
		t.Fatalf("wrong order: %s, %s", got[0].Station.ShortName, got[1].Station.ShortName)
	}
}

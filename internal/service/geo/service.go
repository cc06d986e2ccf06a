// internal/service/geo/service.go

package geo

import (
	"math"
	"sort"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
)

// StationDistance pairs a station with its distance from a query point
type StationDistance struct {
	Station    traffic.Station `json:"station"`
	DistanceKm float64         `json:"distance_km"`
}

// StationLocator answers proximity queries over a loaded station list
type StationLocator struct {
	stations []traffic.Station
}

// NewStationLocator creates a locator over stations. The slice is not copied
// and must not be modified afterwards.
func NewStationLocator(stations []traffic.Station) *StationLocator {
	return &StationLocator{
		stations: stations,
	}
}

// Nearby returns stations within radiusKm of location, closest first
func (l *StationLocator) Nearby(location geo.Coordinate, radiusKm float64) []StationDistance {
	var result []StationDistance
	for _, st := range l.stations {
		d := CalculateDistance(location, st.Coordinate)
		if d <= radiusKm {
			result = append(result, StationDistance{Station: st, DistanceKm: d})
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	return result
}

// CalculateDistance calculates the distance between two coordinates in kilometers
func CalculateDistance(a, b geo.Coordinate) float64 {
	// Implementation of the Haversine formula for distance on a sphere
	const earthRadiusKm = 6371.0

	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin

	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// internal/domain/traffic/model.go

package traffic

import (
	"time"

	"bikeflow/internal/domain/geo"
)

// Station is a fixed dock location. ShortName is its identity across datasets.
type Station struct {
	ShortName  string         `json:"short_name"`
	Name       string         `json:"name"`
	Coordinate geo.Coordinate `json:"coordinate"`
	Capacity   int            `json:"capacity,omitempty"`
}

// Trip is one rental from a start station to an end station
type Trip struct {
	RideID         string    `json:"ride_id,omitempty"`
	StartStationID string    `json:"start_station_id"`
	EndStationID   string    `json:"end_station_id"`
	StartedAt      time.Time `json:"started_at"`
	EndedAt        time.Time `json:"ended_at"`
}

// StationTraffic holds the counts derived for one station in one pass
type StationTraffic struct {
	StationID    string `json:"station_id"`
	Arrivals     int    `json:"arrivals"`
	Departures   int    `json:"departures"`
	TotalTraffic int    `json:"total_traffic"`
}

// Aggregate is the result of one aggregation pass over a trip subset.
// Every pass produces a new Aggregate; nothing is carried over between passes.
type Aggregate struct {
	Stations         []StationTraffic `json:"stations"`
	TripCount        int              `json:"trip_count"`
	OrphanDepartures int              `json:"orphan_departures"`
	OrphanArrivals   int              `json:"orphan_arrivals"`
	MaxTotal         int              `json:"max_total"`

	index map[string]int
}

// NewAggregate builds an Aggregate and indexes it by station id
func NewAggregate(stations []StationTraffic, tripCount, orphanDepartures, orphanArrivals int) Aggregate {
	agg := Aggregate{
		Stations:         stations,
		TripCount:        tripCount,
		OrphanDepartures: orphanDepartures,
		OrphanArrivals:   orphanArrivals,
		index:            make(map[string]int, len(stations)),
	}

	for i, st := range stations {
		agg.index[st.StationID] = i
		if st.TotalTraffic > agg.MaxTotal {
			agg.MaxTotal = st.TotalTraffic
		}
	}

	return agg
}

// Get returns the traffic for a station id
func (a Aggregate) Get(stationID string) (StationTraffic, bool) {
	i, ok := a.index[stationID]
	if !ok {
		return StationTraffic{}, false
	}
	return a.Stations[i], true
}

// OrphanRate is the share of trip endpoints that reference unknown stations
func (a Aggregate) OrphanRate() float64 {
	if a.TripCount == 0 {
		return 0
	}
	return float64(a.OrphanDepartures+a.OrphanArrivals) / float64(2*a.TripCount)
}

// internal/domain/traffic/service.go

package traffic

import (
	"context"
)

// Source provides the station and trip datasets
type Source interface {
	// LoadStations returns every station in the dataset
	LoadStations(ctx context.Context) ([]Station, error)

	// LoadTrips returns every trip in the dataset
	LoadTrips(ctx context.Context) ([]Trip, error)
}

// Store persists datasets so later runs can load them without the upstream source
type Store interface {
	Source

	// SaveStations upserts stations by short name
	SaveStations(ctx context.Context, stations []Station) error

	// SaveTrips appends trips
	SaveTrips(ctx context.Context, trips []Trip) (int64, error)
}

// Dataset is the fully loaded, read-only data a session works on
type Dataset struct {
	Stations []Station
	Trips    []Trip
}

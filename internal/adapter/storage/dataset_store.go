// internal/adapter/storage/dataset_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
)

const schema = `
	CREATE TABLE IF NOT EXISTS stations (
		short_name TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		longitude  DOUBLE PRECISION NOT NULL,
		latitude   DOUBLE PRECISION NOT NULL,
		capacity   INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS trips (
		id               BIGSERIAL PRIMARY KEY,
		ride_id          TEXT NOT NULL DEFAULT '',
		start_station_id TEXT NOT NULL,
		end_station_id   TEXT NOT NULL,
		started_at       TIMESTAMPTZ NOT NULL,
		ended_at         TIMESTAMPTZ NOT NULL
	);
`

// DatasetStore combines the station and trip stores into a traffic.Store
type DatasetStore struct {
	*StationStore
	*TripStore
	db *pgxpool.Pool
}

// NewDatasetStore creates a new dataset store
func NewDatasetStore(db *pgxpool.Pool, location *time.Location) *DatasetStore {
	return &DatasetStore{
		StationStore: NewStationStore(db),
		TripStore:    NewTripStore(db, location),
		db:           db,
	}
}

// EnsureSchema creates the dataset tables when they do not exist
func (s *DatasetStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("error creating schema: %w", err)
	}
	return nil
}

// Empty reports whether no trips have been imported yet
func (s *DatasetStore) Empty(ctx context.Context) (bool, error) {
	n, err := s.CountTrips(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// internal/adapter/storage/station_store.go

package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
)

// StationStore implements storage for stations
type StationStore struct {
	db *pgxpool.Pool
}

// NewStationStore creates a new station store
func NewStationStore(db *pgxpool.Pool) *StationStore {
	return &StationStore{
		db: db,
	}
}

// SaveStations upserts stations by short name in a single batch
func (s *StationStore) SaveStations(ctx context.Context, stations []traffic.Station) error {
	query := `
		INSERT INTO stations (short_name, name, longitude, latitude, capacity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (short_name) DO UPDATE
		SET
			name = $2,
			longitude = $3,
			latitude = $4,
			capacity = $5
	`

	batch := &pgx.Batch{}
	for _, st := range stations {
		batch.Queue(query, st.ShortName, st.Name, st.Coordinate.Longitude, st.Coordinate.Latitude, st.Capacity)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, st := range stations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("error saving station %s: %w", st.ShortName, err)
		}
	}

	return nil
}

// LoadStations returns every station ordered by short name
func (s *StationStore) LoadStations(ctx context.Context) ([]traffic.Station, error) {
	query := `
		SELECT short_name, name, longitude, latitude, capacity
		FROM stations
		ORDER BY short_name
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var stations []traffic.Station
	for rows.Next() {
		var st traffic.Station
		var c geo.Coordinate

		if err := rows.Scan(&st.ShortName, &st.Name, &c.Longitude, &c.Latitude, &st.Capacity); err != nil {
			return nil, fmt.Errorf("error scanning station: %w", err)
		}
		st.Coordinate = c

		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stations: %w", err)
	}

	return stations, nil
}

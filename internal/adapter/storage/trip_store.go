// internal/adapter/storage/trip_store.go

package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"bikeflow/internal/domain/traffic"
)

// TripStore implements storage for trips
type TripStore struct {
	db       *pgxpool.Pool
	location *time.Location
}

// NewTripStore creates a new trip store. Loaded timestamps are converted to
// location so hour and minute match the dataset's wall clock.
func NewTripStore(db *pgxpool.Pool, location *time.Location) *TripStore {
	if location == nil {
		location = time.Local
	}

	return &TripStore{
		db:       db,
		location: location,
	}
}

// SaveTrips appends trips using COPY and returns the number of rows written
func (s *TripStore) SaveTrips(ctx context.Context, trips []traffic.Trip) (int64, error) {
	rows := make([][]interface{}, len(trips))
	for i, t := range trips {
		rows[i] = []interface{}{t.RideID, t.StartStationID, t.EndStationID, t.StartedAt, t.EndedAt}
	}

	n, err := s.db.CopyFrom(
		ctx,
		pgx.Identifier{"trips"},
		[]string{"ride_id", "start_station_id", "end_station_id", "started_at", "ended_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return n, fmt.Errorf("error copying trips: %w", err)
	}

	return n, nil
}

// LoadTrips returns every trip in insertion order
func (s *TripStore) LoadTrips(ctx context.Context) ([]traffic.Trip, error) {
	query := `
		SELECT ride_id, start_station_id, end_station_id, started_at, ended_at
		FROM trips
		ORDER BY id
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	var trips []traffic.Trip
	for rows.Next() {
		var t traffic.Trip

		if err := rows.Scan(&t.RideID, &t.StartStationID, &t.EndStationID, &t.StartedAt, &t.EndedAt); err != nil {
			return nil, fmt.Errorf("error scanning trip: %w", err)
		}
		t.StartedAt = t.StartedAt.In(s.location)
		t.EndedAt = t.EndedAt.In(s.location)

		trips = append(trips, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trips: %w", err)
	}

	return trips, nil
}

// CountTrips returns the number of stored trips
func (s *TripStore) CountTrips(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM trips`).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting trips: %w", err)
	}
	return n, nil
}

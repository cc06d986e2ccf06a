// internal/adapter/dataset/trips.go

package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"bikeflow/internal/domain/traffic"
)

// Trip CSV columns, located by header name
const (
	colRideID       = "ride_id"
	colStartedAt    = "started_at"
	colEndedAt      = "ended_at"
	colStartStation = "start_station_id"
	colEndStation   = "end_station_id"
)

var requiredColumns = []string{colStartedAt, colEndedAt, colStartStation, colEndStation}

// Timestamp layouts without a zone are read in the dataset location.
// Fractional seconds are accepted after any seconds field.
var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
}

// ParseTrips decodes a trip CSV with a header row. Timestamps are converted to
// loc so their hour and minute are local wall-clock values. Rows with missing
// columns or unparseable timestamps are skipped and counted.
func ParseTrips(r io.Reader, loc *time.Location) ([]traffic.Trip, int, error) {
	if loc == nil {
		loc = time.Local
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, fmt.Errorf("trips csv is empty")
		}
		return nil, 0, fmt.Errorf("error reading trips header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			return nil, 0, fmt.Errorf("trips csv is missing column %q", name)
		}
	}
	rideCol, hasRideID := cols[colRideID]

	var trips []traffic.Trip
	skipped := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				skipped++
				continue
			}
			return nil, 0, fmt.Errorf("error reading trips: %w", err)
		}

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		startedAt, err := ParseTimestamp(field(colStartedAt), loc)
		if err != nil {
			skipped++
			continue
		}
		endedAt, err := ParseTimestamp(field(colEndedAt), loc)
		if err != nil {
			skipped++
			continue
		}

		t := traffic.Trip{
			StartStationID: field(colStartStation),
			EndStationID:   field(colEndStation),
			StartedAt:      startedAt,
			EndedAt:        endedAt,
		}
		if hasRideID && rideCol < len(record) {
			t.RideID = strings.TrimSpace(record[rideCol])
		}
		trips = append(trips, t)
	}

	return trips, skipped, nil
}

// ParseTimestamp parses a trip timestamp. Values with an explicit offset are
// converted into loc; values without one are taken as loc wall-clock time.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), nil
	}

	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

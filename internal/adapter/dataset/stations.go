// internal/adapter/dataset/stations.go

package dataset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
)

// Upstream station feeds name the same fields differently. The first key
// present wins.
var (
	idKeys        = []string{"short_name", "Number"}
	nameKeys      = []string{"name", "NAME"}
	longitudeKeys = []string{"Long", "lon"}
	latitudeKeys  = []string{"Lat", "lat"}
)

// stationsEnvelope is the GBFS style wrapper {"data": {"stations": [...]}}
type stationsEnvelope struct {
	Data struct {
		Stations []map[string]json.RawMessage `json:"stations"`
	} `json:"data"`
}

// ParseStations decodes a station feed. It accepts the GBFS envelope or a bare
// array. Records without an id or a usable coordinate are skipped and counted.
func ParseStations(r io.Reader) ([]traffic.Station, int, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("error reading stations: %w", err)
	}

	var records []map[string]json.RawMessage
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, 0, fmt.Errorf("error decoding stations: %w", err)
		}
	} else {
		var env stationsEnvelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, 0, fmt.Errorf("error decoding stations: %w", err)
		}
		records = env.Data.Stations
	}

	stations := make([]traffic.Station, 0, len(records))
	skipped := 0
	for _, rec := range records {
		st, ok := parseStation(rec)
		if !ok {
			skipped++
			continue
		}
		stations = append(stations, st)
	}

	return stations, skipped, nil
}

func parseStation(rec map[string]json.RawMessage) (traffic.Station, bool) {
	id, ok := stringField(rec, idKeys)
	if !ok || id == "" {
		return traffic.Station{}, false
	}

	lng, ok := numberField(rec, longitudeKeys)
	if !ok || lng < -180 || lng > 180 {
		return traffic.Station{}, false
	}
	lat, ok := numberField(rec, latitudeKeys)
	if !ok || lat < -90 || lat > 90 {
		return traffic.Station{}, false
	}

	name, _ := stringField(rec, nameKeys)
	capacity, _ := numberField(rec, []string{"capacity"})

	return traffic.Station{
		ShortName:  id,
		Name:       name,
		Coordinate: geo.Coordinate{Longitude: lng, Latitude: lat},
		Capacity:   int(capacity),
	}, true
}

// lookup returns the first non-null value among keys
func lookup(rec map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		v, ok := rec[k]
		if ok && string(v) != "null" {
			return v, true
		}
	}
	return nil, false
}

// stringField reads a string, accepting bare numbers as well
func stringField(rec map[string]json.RawMessage, keys []string) (string, bool) {
	v, ok := lookup(rec, keys)
	if !ok {
		return "", false
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return strings.TrimSpace(s), true
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), true
	}

	return "", false
}

// numberField reads a finite number, accepting numeric strings as well
func numberField(rec map[string]json.RawMessage, keys []string) (float64, bool) {
	v, ok := lookup(rec, keys)
	if !ok {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(v, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

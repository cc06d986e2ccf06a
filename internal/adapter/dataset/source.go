// internal/adapter/dataset/source.go

package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"bikeflow/internal/domain/traffic"
)

// ErrDataUnavailable wraps every failure to fetch or decode a dataset
var ErrDataUnavailable = errors.New("dataset unavailable")

// SourceConfig contains configuration for the remote dataset source
type SourceConfig struct {
	StationsURL string
	TripsURL    string
	Location    *time.Location
	Timeout     time.Duration
}

// RemoteSource loads the station feed and trip CSV from http(s) URLs or
// local paths
type RemoteSource struct {
	config     SourceConfig
	httpClient *http.Client
}

// NewRemoteSource creates a new remote source
func NewRemoteSource(config SourceConfig) *RemoteSource {
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}

	return &RemoteSource{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

// LoadStations fetches and decodes the station feed
func (s *RemoteSource) LoadStations(ctx context.Context) ([]traffic.Station, error) {
	body, err := s.open(ctx, s.config.StationsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: stations: %v", ErrDataUnavailable, err)
	}
	defer body.Close()

	stations, skipped, err := ParseStations(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(stations) == 0 {
		return nil, fmt.Errorf("%w: no usable stations in %s", ErrDataUnavailable, s.config.StationsURL)
	}
	if skipped > 0 {
		log.Printf("Skipped %d malformed station records", skipped)
	}

	return stations, nil
}

// LoadTrips fetches and decodes the trip CSV
func (s *RemoteSource) LoadTrips(ctx context.Context) ([]traffic.Trip, error) {
	body, err := s.open(ctx, s.config.TripsURL)
	if err != nil {
		return nil, fmt.Errorf("%w: trips: %v", ErrDataUnavailable, err)
	}
	defer body.Close()

	trips, skipped, err := ParseTrips(body, s.config.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDataUnavailable, err)
	}
	if len(trips) == 0 {
		return nil, fmt.Errorf("%w: no usable trips in %s", ErrDataUnavailable, s.config.TripsURL)
	}
	if skipped > 0 {
		log.Printf("Skipped %d malformed trip records", skipped)
	}

	return trips, nil
}

// open returns a reader for an http(s) URL, a file:// URL or a plain path
func (s *RemoteSource) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if location == "" {
		return nil, fmt.Errorf("no location configured")
	}

	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		// Local reads do not block on the network, so only cancellation
		// before the open is honored and the fetch timeout does not apply.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.Open(strings.TrimPrefix(location, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("status code %d from %s", resp.StatusCode, location)
	}

	return resp.Body, nil
}

// Load reads both datasets from src. An empty station list or trip list is
// reported as ErrDataUnavailable.
func Load(ctx context.Context, src traffic.Source) (traffic.Dataset, error) {
	stations, err := src.LoadStations(ctx)
	if err != nil {
		return traffic.Dataset{}, err
	}
	if len(stations) == 0 {
		return traffic.Dataset{}, fmt.Errorf("%w: no stations", ErrDataUnavailable)
	}
	log.Printf("Stations: %d", len(stations))

	trips, err := src.LoadTrips(ctx)
	if err != nil {
		return traffic.Dataset{}, err
	}
	if len(trips) == 0 {
		return traffic.Dataset{}, fmt.Errorf("%w: no trips", ErrDataUnavailable)
	}
	log.Printf("Trips: %d", len(trips))

	return traffic.Dataset{Stations: stations, Trips: trips}, nil
}

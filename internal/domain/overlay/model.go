// internal/domain/overlay/model.go

package overlay

import (
	"bikeflow/internal/domain/traffic"
)

// Attribute and style names understood by a Surface
const (
	AttrCX          = "cx"
	AttrCY          = "cy"
	AttrRadius      = "r"
	AttrStroke      = "stroke"
	AttrStrokeWidth = "stroke-width"
	AttrFillOpacity = "fill-opacity"

	StyleDepartureRatio = "--departure-ratio"
)

// Mark holds the visual attributes derived for one station in one pass.
// Marks are recomputed on every filter change and never stored on stations.
type Mark struct {
	StationID      string                 `json:"station_id"`
	Radius         float64                `json:"radius"`
	DepartureRatio float64                `json:"departure_ratio"`
	Title          string                 `json:"title"`
	Traffic        traffic.StationTraffic `json:"traffic"`
}

// Circle is the rendered state of one station element
type Circle struct {
	ID             string  `json:"id"`
	CX             float64 `json:"cx"`
	CY             float64 `json:"cy"`
	R              float64 `json:"r"`
	Stroke         string  `json:"stroke"`
	StrokeWidth    float64 `json:"stroke_width"`
	FillOpacity    float64 `json:"fill_opacity"`
	DepartureRatio float64 `json:"departure_ratio"`
	Title          string  `json:"title"`
}

// Summary describes the aggregation pass behind a frame
type Summary struct {
	TripCount        int     `json:"trip_count"`
	MaxTotal         int     `json:"max_total"`
	OrphanDepartures int     `json:"orphan_departures"`
	OrphanArrivals   int     `json:"orphan_arrivals"`
	RadiusMin        float64 `json:"radius_min"`
	RadiusMax        float64 `json:"radius_max"`
}

// Frame is the overlay state after one handled event
type Frame struct {
	Sequence  uint64   `json:"sequence"`
	Event     string   `json:"event"`
	Selection int      `json:"selection"`
	Label     string   `json:"label"`
	AnyTime   bool     `json:"any_time"`
	Summary   Summary  `json:"summary"`
	Circles   []Circle `json:"circles"`
}

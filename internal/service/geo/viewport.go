// internal/service/geo/viewport.go

package geo

import (
	"math"

	"bikeflow/internal/domain/geo"
)

// tileSize matches the 512px vector tiles used by Mapbox GL, so projected
// positions line up with what the client map draws.
const tileSize = 512

// maxLatitude is the Web Mercator cut-off
const maxLatitude = 85.051129

// ViewportConfig bounds and seeds a viewport
type ViewportConfig struct {
	Center  geo.Coordinate
	Zoom    float64
	MinZoom float64
	MaxZoom float64
}

// MercatorViewport projects coordinates with the Web Mercator projection for
// the view a client reports. It is owned by a single overlay session.
type MercatorViewport struct {
	config ViewportConfig
	state  geo.ViewportState
}

// NewMercatorViewport creates a viewport at the configured center and zoom.
// It has no size until the client reports one, so Ready is false until then.
func NewMercatorViewport(config ViewportConfig) *MercatorViewport {
	v := &MercatorViewport{config: config}
	v.state = geo.ViewportState{
		Center: config.Center,
		Zoom:   v.clampZoom(config.Zoom),
	}
	return v
}

// State returns the current view
func (v *MercatorViewport) State() geo.ViewportState {
	return v.state
}

// Apply replaces the current view. Zoom is clamped to the configured bounds;
// a zero width or height keeps the previous size.
func (v *MercatorViewport) Apply(state geo.ViewportState) geo.ViewportState {
	if state.Width <= 0 || state.Height <= 0 {
		state.Width = v.state.Width
		state.Height = v.state.Height
	}
	state.Zoom = v.clampZoom(state.Zoom)
	state.Center.Latitude = clampLatitude(state.Center.Latitude)
	v.state = state
	return v.state
}

// Ready reports whether the viewport has a size to project into
func (v *MercatorViewport) Ready() bool {
	return v.state.Width > 0 && v.state.Height > 0
}

// Project returns the pixel position of a coordinate relative to the top-left
// corner of the view
func (v *MercatorViewport) Project(longitude, latitude float64) (x, y float64) {
	worldSize := tileSize * math.Pow(2, v.state.Zoom)

	px, py := mercator(longitude, latitude, worldSize)
	cx, cy := mercator(v.state.Center.Longitude, v.state.Center.Latitude, worldSize)

	return px - cx + v.state.Width/2, py - cy + v.state.Height/2
}

// Unproject is the inverse of Project
func (v *MercatorViewport) Unproject(x, y float64) geo.Coordinate {
	worldSize := tileSize * math.Pow(2, v.state.Zoom)
	cx, cy := mercator(v.state.Center.Longitude, v.state.Center.Latitude, worldSize)

	wx := x - v.state.Width/2 + cx
	wy := y - v.state.Height/2 + cy

	lng := wx/worldSize*360 - 180
	y2 := 180 - wy/worldSize*360
	lat := 360/math.Pi*math.Atan(math.Exp(y2*math.Pi/180)) - 90

	return geo.Coordinate{Longitude: lng, Latitude: lat}
}

func (v *MercatorViewport) clampZoom(z float64) float64 {
	if v.config.MaxZoom > v.config.MinZoom {
		z = math.Max(v.config.MinZoom, math.Min(v.config.MaxZoom, z))
	}
	return z
}

// mercator converts a coordinate into world pixels for a world of the given size
func mercator(longitude, latitude, worldSize float64) (x, y float64) {
	latitude = clampLatitude(latitude)

	x = (180 + longitude) / 360 * worldSize
	y = (180 - (180/math.Pi)*math.Log(math.Tan(math.Pi/4+latitude*math.Pi/360))) / 360 * worldSize
	return x, y
}

func clampLatitude(lat float64) float64 {
	return math.Max(-maxLatitude, math.Min(maxLatitude, lat))
}

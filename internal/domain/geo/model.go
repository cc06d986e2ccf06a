// internal/domain/geo/model.go

package geo

// Coordinate is a geographic position in degrees
type Coordinate struct {
	Longitude float64 `json:"lng"`
	Latitude  float64 `json:"lat"`
}

// ScreenPoint is a projected position in pixels relative to the viewport origin
type ScreenPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ViewportState describes what a client map is currently showing
type ViewportState struct {
	Center Coordinate `json:"center"`
	Zoom   float64    `json:"zoom"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

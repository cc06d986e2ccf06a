// internal/domain/geo/service.go

package geo

// Projector converts geographic coordinates into screen coordinates.
// Results are only meaningful once the owning map surface is ready and must
// be re-evaluated after every viewport change.
type Projector interface {
	// Project returns the pixel position of a longitude/latitude pair
	Project(longitude, latitude float64) (x, y float64)
}

// Viewport is a Projector whose view can be moved by the client
type Viewport interface {
	Projector

	// State returns the current center, zoom and size
	State() ViewportState

	// Apply moves the view to the given state, clamping zoom to the allowed bounds
	Apply(state ViewportState) ViewportState

	// Ready reports whether the view has a usable size
	Ready() bool
}

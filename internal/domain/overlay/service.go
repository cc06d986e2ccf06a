// internal/domain/overlay/service.go

package overlay

import (
	"context"

	"bikeflow/internal/domain/traffic"
)

// Element is one keyed visual element on a Surface
type Element interface {
	// SetAttr sets a presentation attribute such as AttrRadius
	SetAttr(name string, value any)

	// SetStyle sets a style property such as StyleDepartureRatio
	SetStyle(name string, value any)

	// SetTitle sets the tooltip text of the element
	SetTitle(text string)
}

// Surface binds records to visual elements by a stable key
type Surface interface {
	// Join returns the element bound to key, creating it when absent.
	// Elements are never removed.
	Join(key string) Element

	// Each calls fn for every bound element in creation order
	Each(fn func(key string, el Element))
}

// FrameSink receives the overlay state after each handled event
type FrameSink interface {
	Emit(ctx context.Context, frame Frame) error
}

// Event is a trigger handled by the overlay controller
type Event interface {
	Name() string
}

// ViewportReason names the map signal behind a viewport change
type ViewportReason string

const (
	ReasonInit    ViewportReason = "init"
	ReasonMove    ViewportReason = "move"
	ReasonZoom    ViewportReason = "zoom"
	ReasonResize  ViewportReason = "resize"
	ReasonMoveEnd ViewportReason = "moveend"
)

// Valid reports whether r is a known reason
func (r ViewportReason) Valid() bool {
	switch r {
	case ReasonInit, ReasonMove, ReasonZoom, ReasonResize, ReasonMoveEnd:
		return true
	}
	return false
}

// FilterChanged is sent when the time-of-day selection changes, including a
// reset to traffic.NoFilter
type FilterChanged struct {
	Selection traffic.Selection
}

// Name implements Event
func (FilterChanged) Name() string { return "filter" }

// ViewportChanged is sent when the client map pans, zooms or resizes
type ViewportChanged struct {
	Reason ViewportReason
}

// Name implements Event
func (e ViewportChanged) Name() string { return "viewport:" + string(e.Reason) }

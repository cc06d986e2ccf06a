// internal/service/overlay/controller.go

package overlay

import (
	"context"
	"errors"
	"fmt"
	"log"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/overlay"
	"bikeflow/internal/domain/traffic"
	trafficService "bikeflow/internal/service/traffic"
)

// Common errors
var (
	ErrSurfaceNotReady = errors.New("map surface not ready")
	ErrUnknownEvent    = errors.New("unknown overlay event")
)

// Style is the base look of every station circle
type Style struct {
	Stroke      string
	StrokeWidth float64
	FillOpacity float64
}

// DefaultStyle returns white outlined, semi-transparent circles
func DefaultStyle() Style {
	return Style{
		Stroke:      "white",
		StrokeWidth: 1,
		FillOpacity: 0.6,
	}
}

// ControllerConfig contains configuration for the overlay controller
type ControllerConfig struct {
	Radius trafficService.RadiusRanges
	Style  Style
}

// readiness is implemented by projectors that only work after a signal
type readiness interface {
	Ready() bool
}

// Controller keeps a Surface in sync with the time filter and the viewport.
//
// It handles one event at a time, synchronously, and is owned by a single
// session. Filter changes rerun the whole pipeline; viewport changes only
// move elements.
type Controller struct {
	dataset   traffic.Dataset
	coords    map[string]geo.Coordinate
	surface   overlay.Surface
	projector geo.Projector
	sink      overlay.FrameSink
	config    ControllerConfig

	selection traffic.Selection
	pass      Pass
	sequence  uint64
}

// NewController creates a controller over a loaded dataset. sink may be nil.
func NewController(
	dataset traffic.Dataset,
	surface overlay.Surface,
	projector geo.Projector,
	sink overlay.FrameSink,
	config ControllerConfig,
) *Controller {
	coords := make(map[string]geo.Coordinate, len(dataset.Stations))
	for _, st := range dataset.Stations {
		coords[st.ShortName] = st.Coordinate
	}

	return &Controller{
		dataset:   dataset,
		coords:    coords,
		surface:   surface,
		projector: projector,
		sink:      sink,
		config:    config,
		selection: traffic.NoFilter,
	}
}

// Init establishes the baseline: an unfiltered pass followed by placing
// every element. The projector must be ready.
func (c *Controller) Init(ctx context.Context) error {
	if !c.ready() {
		return ErrSurfaceNotReady
	}

	if err := c.Dispatch(ctx, overlay.FilterChanged{Selection: traffic.NoFilter}); err != nil {
		return fmt.Errorf("error running baseline pass: %w", err)
	}

	return c.Dispatch(ctx, overlay.ViewportChanged{Reason: overlay.ReasonInit})
}

// Dispatch handles one event to completion
func (c *Controller) Dispatch(ctx context.Context, ev overlay.Event) error {
	switch e := ev.(type) {
	case overlay.FilterChanged:
		if !e.Selection.Valid() {
			return fmt.Errorf("%w: %d", trafficService.ErrInvalidSelection, e.Selection)
		}
		c.handleFilterChanged(e.Selection)

	case overlay.ViewportChanged:
		if !c.ready() {
			return ErrSurfaceNotReady
		}
		c.updatePositions()

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}

	c.emit(ctx, ev)
	return nil
}

// Selection returns the current time filter
func (c *Controller) Selection() traffic.Selection {
	return c.selection
}

// Pass returns the result of the most recent filter pass
func (c *Controller) Pass() Pass {
	return c.pass
}

// handleFilterChanged reruns the pipeline and rebinds every station
func (c *Controller) handleFilterChanged(sel traffic.Selection) {
	c.selection = sel
	c.pass = Recompute(c.dataset, sel, c.config.Radius)

	if agg := c.pass.Aggregate; agg.OrphanDepartures+agg.OrphanArrivals > 0 {
		log.Printf("Selection %d: %d departures and %d arrivals reference unknown stations",
			sel, agg.OrphanDepartures, agg.OrphanArrivals)
	}

	style := c.config.Style
	for _, m := range c.pass.Marks {
		el := c.surface.Join(m.StationID)
		el.SetAttr(overlay.AttrStroke, style.Stroke)
		el.SetAttr(overlay.AttrStrokeWidth, style.StrokeWidth)
		el.SetAttr(overlay.AttrFillOpacity, style.FillOpacity)
		el.SetAttr(overlay.AttrRadius, m.Radius)
		el.SetStyle(overlay.StyleDepartureRatio, m.DepartureRatio)
		el.SetTitle(m.Title)
	}

	// New elements have no position yet
	if c.ready() {
		c.updatePositions()
	}
}

// updatePositions projects every element from its station coordinate
func (c *Controller) updatePositions() {
	c.surface.Each(func(key string, el overlay.Element) {
		coord, ok := c.coords[key]
		if !ok {
			return
		}
		x, y := c.projector.Project(coord.Longitude, coord.Latitude)
		el.SetAttr(overlay.AttrCX, x)
		el.SetAttr(overlay.AttrCY, y)
	})
}

func (c *Controller) ready() bool {
	if c.projector == nil {
		return false
	}
	if r, ok := c.projector.(readiness); ok {
		return r.Ready()
	}
	return true
}

// emit sends the current state to the sink
func (c *Controller) emit(ctx context.Context, ev overlay.Event) {
	if c.sink == nil {
		return
	}

	c.sequence++
	frame := overlay.Frame{
		Sequence:  c.sequence,
		Event:     ev.Name(),
		Selection: int(c.selection),
		Label:     trafficService.SelectionLabel(c.selection),
		AnyTime:   !c.selection.Active(),
		Summary:   c.pass.Summary(),
		Circles:   c.circles(),
	}

	if err := c.sink.Emit(ctx, frame); err != nil {
		// Log error but continue
		log.Printf("Error emitting overlay frame %d: %v", frame.Sequence, err)
	}
}

// circles reads the rendered state back from the surface when it exposes it
func (c *Controller) circles() []overlay.Circle {
	if scene, ok := c.surface.(interface{ Circles() []overlay.Circle }); ok {
		return scene.Circles()
	}
	return nil
}

// internal/service/overlay/scene.go

package overlay

import (
	"fmt"
	"strconv"

	"bikeflow/internal/domain/overlay"
)

// Scene is an in-memory Surface. It keeps one circle per key in creation
// order and never removes any. A Scene belongs to one overlay session and is
// not safe for concurrent use.
type Scene struct {
	elements map[string]*sceneElement
	order    []string
}

// NewScene creates an empty scene
func NewScene() *Scene {
	return &Scene{
		elements: make(map[string]*sceneElement),
	}
}

// Join implements overlay.Surface
func (s *Scene) Join(key string) overlay.Element {
	if el, ok := s.elements[key]; ok {
		return el
	}

	el := &sceneElement{circle: overlay.Circle{ID: key}}
	s.elements[key] = el
	s.order = append(s.order, key)
	return el
}

// Each implements overlay.Surface
func (s *Scene) Each(fn func(key string, el overlay.Element)) {
	for _, key := range s.order {
		fn(key, s.elements[key])
	}
}

// Len returns the number of bound elements
func (s *Scene) Len() int {
	return len(s.order)
}

// Circle returns the rendered state of one element
func (s *Scene) Circle(key string) (overlay.Circle, bool) {
	el, ok := s.elements[key]
	if !ok {
		return overlay.Circle{}, false
	}
	return el.circle, true
}

// Circles returns every element in creation order
func (s *Scene) Circles() []overlay.Circle {
	circles := make([]overlay.Circle, 0, len(s.order))
	for _, key := range s.order {
		circles = append(circles, s.elements[key].circle)
	}
	return circles
}

type sceneElement struct {
	circle overlay.Circle
}

func (e *sceneElement) SetAttr(name string, value any) {
	switch name {
	case overlay.AttrCX:
		e.circle.CX = toFloat(value)
	case overlay.AttrCY:
		e.circle.CY = toFloat(value)
	case overlay.AttrRadius:
		e.circle.R = toFloat(value)
	case overlay.AttrStroke:
		e.circle.Stroke = fmt.Sprint(value)
	case overlay.AttrStrokeWidth:
		e.circle.StrokeWidth = toFloat(value)
	case overlay.AttrFillOpacity:
		e.circle.FillOpacity = toFloat(value)
	}
}

func (e *sceneElement) SetStyle(name string, value any) {
	if name == overlay.StyleDepartureRatio {
		e.circle.DepartureRatio = toFloat(value)
	}
}

func (e *sceneElement) SetTitle(text string) {
	e.circle.Title = text
}

func toFloat(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

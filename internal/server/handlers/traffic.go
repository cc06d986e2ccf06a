// internal/server/handlers/traffic.go

package handlers

import (
	"errors"
	"net/http"

	"bikeflow/internal/domain/overlay"
	"bikeflow/internal/domain/traffic"
	overlayService "bikeflow/internal/service/overlay"
	trafficService "bikeflow/internal/service/traffic"
)

// TrafficHandler serves one-shot aggregation passes over the loaded dataset
type TrafficHandler struct {
	dataset traffic.Dataset
	ranges  trafficService.RadiusRanges
}

// NewTrafficHandler creates a new traffic handler
func NewTrafficHandler(dataset traffic.Dataset, ranges trafficService.RadiusRanges) *TrafficHandler {
	return &TrafficHandler{
		dataset: dataset,
		ranges:  ranges,
	}
}

// StationTrafficResponse is the body of GET /stations/traffic
type StationTrafficResponse struct {
	Selection int             `json:"selection"`
	Label     string          `json:"label"`
	AnyTime   bool            `json:"any_time"`
	Summary   overlay.Summary `json:"summary"`
	Marks     []overlay.Mark  `json:"marks"`
}

// SummaryResponse is the body of GET /traffic/summary
type SummaryResponse struct {
	Selection    int             `json:"selection"`
	Label        string          `json:"label"`
	AnyTime      bool            `json:"any_time"`
	StationCount int             `json:"station_count"`
	Summary      overlay.Summary `json:"summary"`
	OrphanRate   float64         `json:"orphan_rate"`
}

// GetStationTraffic returns per-station counts and visual attributes for the
// selection given by the "time" query parameter
func (h *TrafficHandler) GetStationTraffic(w http.ResponseWriter, r *http.Request) {
	pass, ok := h.recompute(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, StationTrafficResponse{
		Selection: int(pass.Selection),
		Label:     trafficService.SelectionLabel(pass.Selection),
		AnyTime:   !pass.Selection.Active(),
		Summary:   pass.Summary(),
		Marks:     pass.Marks,
	})
}

// GetSummary returns totals for the selection without per-station detail
func (h *TrafficHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	pass, ok := h.recompute(w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, SummaryResponse{
		Selection:    int(pass.Selection),
		Label:        trafficService.SelectionLabel(pass.Selection),
		AnyTime:      !pass.Selection.Active(),
		StationCount: len(pass.Aggregate.Stations),
		Summary:      pass.Summary(),
		OrphanRate:   pass.Aggregate.OrphanRate(),
	})
}

func (h *TrafficHandler) recompute(w http.ResponseWriter, r *http.Request) (overlayService.Pass, bool) {
	sel, err := trafficService.ParseSelection(r.URL.Query().Get("time"))
	if err != nil {
		if errors.Is(err, trafficService.ErrInvalidSelection) {
			respondWithError(w, http.StatusBadRequest, "Invalid time selection", err)
		} else {
			respondWithError(w, http.StatusInternalServerError, "Failed to parse time selection", err)
		}
		return overlayService.Pass{}, false
	}

	return overlayService.Recompute(h.dataset, sel, h.ranges), true
}

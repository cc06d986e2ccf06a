// internal/server/handlers/station.go

package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
	geoService "bikeflow/internal/service/geo"
)

// Nearby search bounds in kilometers
const (
	DefaultNearbyRadius = 1.0
	MaxNearbyRadius     = 50.0
)

// StationHandler handles station-related HTTP requests
type StationHandler struct {
	stations []traffic.Station
	index    map[string]int
	locator  *geoService.StationLocator
}

// NewStationHandler creates a new station handler
func NewStationHandler(stations []traffic.Station) *StationHandler {
	index := make(map[string]int, len(stations))
	for i, st := range stations {
		index[st.ShortName] = i
	}

	return &StationHandler{
		stations: stations,
		index:    index,
		locator:  geoService.NewStationLocator(stations),
	}
}

// ListStations returns every loaded station
func (h *StationHandler) ListStations(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.stations)
}

// GetStation returns a station by its short name
func (h *StationHandler) GetStation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	i, ok := h.index[id]
	if !ok {
		respondWithError(w, http.StatusNotFound, "Station not found", ErrNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, h.stations[i])
}

// GetNearbyStations returns stations within a radius of a location
func (h *StationHandler) GetNearbyStations(w http.ResponseWriter, r *http.Request) {
	// Parse query parameters
	latStr := r.URL.Query().Get("lat")
	lngStr := r.URL.Query().Get("lng")
	radiusStr := r.URL.Query().Get("radius")

	if latStr == "" || lngStr == "" {
		respondWithError(w, http.StatusBadRequest, "Missing location parameters", nil)
		return
	}

	// Parse coordinates
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil || lat < -90 || lat > 90 {
		respondWithError(w, http.StatusBadRequest, "Invalid latitude", err)
		return
	}

	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil || lng < -180 || lng > 180 {
		respondWithError(w, http.StatusBadRequest, "Invalid longitude", err)
		return
	}

	// Parse radius
	radius := DefaultNearbyRadius
	if radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil || radius <= 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid radius", err)
			return
		}
		if radius > MaxNearbyRadius {
			radius = MaxNearbyRadius
		}
	}

	nearby := h.locator.Nearby(geo.Coordinate{Longitude: lng, Latitude: lat}, radius)
	if nearby == nil {
		nearby = []geoService.StationDistance{}
	}

	respondWithJSON(w, http.StatusOK, nearby)
}

// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"bikeflow/internal/config"
	"bikeflow/internal/domain/geo"
	"bikeflow/internal/domain/traffic"
	"bikeflow/internal/server/handlers"
	geoService "bikeflow/internal/service/geo"
	overlayService "bikeflow/internal/service/overlay"
	trafficService "bikeflow/internal/service/traffic"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server. natsConn may be nil.
func NewServer(
	cfg config.Config,
	dataset traffic.Dataset,
	natsConn *nats.Conn,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	ranges := RadiusRanges(cfg.Scale)

	// Create handler dependencies
	trafficHandler := handlers.NewTrafficHandler(dataset, ranges)
	stationHandler := handlers.NewStationHandler(dataset.Stations)

	sessionConfig := handlers.OverlaySessionConfig{
		EventsTopic: cfg.Overlay.EventsTopic,
		Viewport: geoService.ViewportConfig{
			Center: geo.Coordinate{
				Longitude: cfg.Map.CenterLongitude,
				Latitude:  cfg.Map.CenterLatitude,
			},
			Zoom:    cfg.Map.Zoom,
			MinZoom: cfg.Map.MinZoom,
			MaxZoom: cfg.Map.MaxZoom,
		},
		Controller: overlayService.ControllerConfig{
			Radius: ranges,
			Style:  overlayService.DefaultStyle(),
		},
		WebSocket: handlers.NewWebSocketConfig(
			cfg.Overlay.WriteWait,
			cfg.Overlay.PongWait,
			cfg.Overlay.MaxMessageSize,
		),
	}

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			// Stations API
			r.Route("/stations", func(r chi.Router) {
				r.Get("/", stationHandler.ListStations)
				r.Get("/traffic", trafficHandler.GetStationTraffic)
				r.Get("/nearby", stationHandler.GetNearbyStations)
				r.Get("/{id}", stationHandler.GetStation)
			})

			// Traffic API
			r.Route("/traffic", func(r chi.Router) {
				r.Get("/summary", trafficHandler.GetSummary)
			})
		})
	})

	// WebSocket endpoint for the live overlay
	router.Get("/ws/overlay", handlers.OverlayWebSocketHandler(dataset, natsConn, sessionConfig))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// RadiusRanges converts the configured radii into scale ranges
func RadiusRanges(cfg config.ScaleConfig) trafficService.RadiusRanges {
	return trafficService.RadiusRanges{
		Unfiltered: trafficService.Range{Min: cfg.UnfilteredMinRadius, Max: cfg.UnfilteredMaxRadius},
		Filtered:   trafficService.Range{Min: cfg.FilteredMinRadius, Max: cfg.FilteredMaxRadius},
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

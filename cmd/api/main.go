// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/nats-io/nats.go"

	"bikeflow/internal/adapter/dataset"
	"bikeflow/internal/adapter/storage"
	"bikeflow/internal/config"
	"bikeflow/internal/domain/traffic"
	"bikeflow/internal/server"
	trafficService "bikeflow/internal/service/traffic"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	location, err := cfg.Dataset.Location()
	if err != nil {
		log.Fatalf("Failed to load time zone %q: %v", cfg.Dataset.Timezone, err)
	}

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	var store *storage.DatasetStore
	if cfg.Dataset.UsesDatabase() {
		db, err := initDatabase(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()

		store = storage.NewDatasetStore(db, location)
		if err := store.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to prepare database schema: %v", err)
		}
	}

	var natsConn *nats.Conn
	if cfg.NATS.Enabled {
		natsConn, err = initNATS(cfg.NATS)
		if err != nil {
			log.Fatalf("Failed to connect to NATS: %v", err)
		}
		defer natsConn.Close()
	}

	// Load the dataset once; it is read-only from here on
	var source traffic.Source = dataset.NewRemoteSource(dataset.SourceConfig{
		StationsURL: cfg.Dataset.StationsURL,
		TripsURL:    cfg.Dataset.TripsURL,
		Location:    location,
		Timeout:     cfg.Dataset.FetchTimeout,
	})
	if cfg.Dataset.Source == config.SourcePostgres {
		source = store
	}

	data, err := dataset.Load(ctx, source)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	if cfg.Dataset.Persist && cfg.Dataset.Source != config.SourcePostgres {
		if err := persistDataset(ctx, store, data); err != nil {
			log.Printf("Failed to persist dataset: %v", err)
		}
	}

	baseline := trafficService.ComputeStationTraffic(data.Stations, data.Trips)
	if baseline.OrphanDepartures+baseline.OrphanArrivals > 0 {
		log.Printf("Trips referencing unknown stations: %d departures, %d arrivals (%.2f%% of endpoints)",
			baseline.OrphanDepartures, baseline.OrphanArrivals, baseline.OrphanRate()*100)
	}

	// Initialize HTTP server
	httpServer := server.NewServer(cfg, data, natsConn)

	// Start HTTP server
	go func() {
		log.Printf("Starting HTTP server on %s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Println("Shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Shutdown HTTP server
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if natsConn != nil {
		if err := natsConn.Drain(); err != nil {
			log.Printf("NATS drain error: %v", err)
		}
	}

	log.Println("Shutdown complete")
}

// persistDataset imports a freshly fetched dataset into an empty store
func persistDataset(ctx context.Context, store *storage.DatasetStore, data traffic.Dataset) error {
	empty, err := store.Empty(ctx)
	if err != nil {
		return fmt.Errorf("error checking stored trips: %w", err)
	}
	if !empty {
		log.Printf("Database already holds trips, skipping import")
		return nil
	}

	start := time.Now()
	if err := store.SaveStations(ctx, data.Stations); err != nil {
		return err
	}
	n, err := store.SaveTrips(ctx, data.Trips)
	if err != nil {
		return err
	}
	log.Printf("Imported %d stations and %d trips in %v", len(data.Stations), n, time.Since(start))

	return nil
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("bikeflow"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// internal/config/config.go

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Dataset sources
const (
	SourceRemote   = "remote"
	SourcePostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Environment string         `yaml:"environment"`
	Server      ServerConfig   `yaml:"server"`
	Database    DatabaseConfig `yaml:"database"`
	NATS        NATSConfig     `yaml:"nats"`
	Dataset     DatasetConfig  `yaml:"dataset"`
	Scale       ScaleConfig    `yaml:"scale"`
	Map         MapConfig      `yaml:"map"`
	Overlay     OverlayConfig  `yaml:"overlay"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CorsOrigins     []string      `yaml:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"database"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxLifetime  time.Duration `yaml:"max_lifetime"`
	SSLMode      string        `yaml:"ssl_mode"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled        bool          `yaml:"enabled"`
	URL            string        `yaml:"url"`
	MaxReconnects  int           `yaml:"max_reconnects"`
	ReconnectWait  time.Duration `yaml:"reconnect_wait"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// DatasetConfig holds where station and trip data come from
type DatasetConfig struct {
	Source       string        `yaml:"source"`
	StationsURL  string        `yaml:"stations_url"`
	TripsURL     string        `yaml:"trips_url"`
	Timezone     string        `yaml:"timezone"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	Persist      bool          `yaml:"persist"`
}

// ScaleConfig holds the circle radius ranges
type ScaleConfig struct {
	UnfilteredMinRadius float64 `yaml:"unfiltered_min_radius"`
	UnfilteredMaxRadius float64 `yaml:"unfiltered_max_radius"`
	FilteredMinRadius   float64 `yaml:"filtered_min_radius"`
	FilteredMaxRadius   float64 `yaml:"filtered_max_radius"`
}

// MapConfig holds the initial map view and zoom bounds
type MapConfig struct {
	CenterLongitude float64 `yaml:"center_longitude"`
	CenterLatitude  float64 `yaml:"center_latitude"`
	Zoom            float64 `yaml:"zoom"`
	MinZoom         float64 `yaml:"min_zoom"`
	MaxZoom         float64 `yaml:"max_zoom"`
}

// OverlayConfig holds overlay session configuration
type OverlayConfig struct {
	EventsTopic    string        `yaml:"events_topic"`
	WriteWait      time.Duration `yaml:"write_wait"`
	PongWait       time.Duration `yaml:"pong_wait"`
	MaxMessageSize int64         `yaml:"max_message_size"`
}

// Location returns the dataset time zone
func (d DatasetConfig) Location() (*time.Location, error) {
	return time.LoadLocation(d.Timezone)
}

// UsesDatabase reports whether Postgres is needed at all
func (d DatasetConfig) UsesDatabase() bool {
	return d.Source == SourcePostgres || d.Persist
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Environment: "development",
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CorsOrigins:     []string{"*"},
		},
		Database: DatabaseConfig{
			Host:         "localhost",
			Port:         5432,
			User:         "postgres",
			Password:     "postgres",
			Database:     "bikeflow",
			MaxOpenConns: 10,
			MaxIdleConns: 2,
			MaxLifetime:  5 * time.Minute,
			SSLMode:      "disable",
		},
		NATS: NATSConfig{
			Enabled:        true,
			URL:            "nats://localhost:4222",
			MaxReconnects:  10,
			ReconnectWait:  1 * time.Second,
			ConnectTimeout: 2 * time.Second,
		},
		Dataset: DatasetConfig{
			Source:       SourceRemote,
			StationsURL:  "https://dsc106.com/labs/lab07/data/bluebikes-stations.json",
			TripsURL:     "https://dsc106.com/labs/lab07/data/bluebikes-traffic-2024-03.csv",
			Timezone:     "America/New_York",
			FetchTimeout: 60 * time.Second,
		},
		Scale: ScaleConfig{
			UnfilteredMinRadius: 0,
			UnfilteredMaxRadius: 25,
			FilteredMinRadius:   3,
			FilteredMaxRadius:   50,
		},
		Map: MapConfig{
			CenterLongitude: -71.09415,
			CenterLatitude:  42.36027,
			Zoom:            12,
			MinZoom:         5,
			MaxZoom:         18,
		},
		Overlay: OverlayConfig{
			EventsTopic:    "overlay",
			WriteWait:      10 * time.Second,
			PongWait:       60 * time.Second,
			MaxMessageSize: 64 * 1024,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE and environment variables, in that order. A .env file in the
// working directory is loaded into the environment first when present.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env: %w", err)
	}

	config := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, &config); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&config)

	return config, validate(config)
}

// loadFile decodes a YAML file over config. Keys absent from the file keep
// their current value.
func loadFile(path string, config *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("error decoding config file %s: %w", path, err)
	}

	return nil
}

func applyEnv(c *Config) {
	c.Environment = getEnv("APP_ENV", c.Environment)

	c.Server.Host = getEnv("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsDuration("SERVER_READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsDuration("SERVER_WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.ShutdownTimeout = getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", c.Server.ShutdownTimeout)
	c.Server.CorsOrigins = getEnvAsSlice("SERVER_CORS_ORIGINS", c.Server.CorsOrigins)

	c.Database.Host = getEnv("DB_HOST", c.Database.Host)
	c.Database.Port = getEnvAsInt("DB_PORT", c.Database.Port)
	c.Database.User = getEnv("DB_USER", c.Database.User)
	c.Database.Password = getEnv("DB_PASSWORD", c.Database.Password)
	c.Database.Database = getEnv("DB_NAME", c.Database.Database)
	c.Database.MaxOpenConns = getEnvAsInt("DB_MAX_OPEN_CONNS", c.Database.MaxOpenConns)
	c.Database.MaxIdleConns = getEnvAsInt("DB_MAX_IDLE_CONNS", c.Database.MaxIdleConns)
	c.Database.MaxLifetime = getEnvAsDuration("DB_MAX_LIFETIME", c.Database.MaxLifetime)
	c.Database.SSLMode = getEnv("DB_SSL_MODE", c.Database.SSLMode)

	c.NATS.Enabled = getEnvAsBool("NATS_ENABLED", c.NATS.Enabled)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.MaxReconnects = getEnvAsInt("NATS_MAX_RECONNECTS", c.NATS.MaxReconnects)
	c.NATS.ReconnectWait = getEnvAsDuration("NATS_RECONNECT_WAIT", c.NATS.ReconnectWait)
	c.NATS.ConnectTimeout = getEnvAsDuration("NATS_CONNECT_TIMEOUT", c.NATS.ConnectTimeout)

	c.Dataset.Source = getEnv("DATASET_SOURCE", c.Dataset.Source)
	c.Dataset.StationsURL = getEnv("DATASET_STATIONS_URL", c.Dataset.StationsURL)
	c.Dataset.TripsURL = getEnv("DATASET_TRIPS_URL", c.Dataset.TripsURL)
	c.Dataset.Timezone = getEnv("DATASET_TIMEZONE", c.Dataset.Timezone)
	c.Dataset.FetchTimeout = getEnvAsDuration("DATASET_FETCH_TIMEOUT", c.Dataset.FetchTimeout)
	c.Dataset.Persist = getEnvAsBool("DATASET_PERSIST", c.Dataset.Persist)

	c.Scale.UnfilteredMinRadius = getEnvAsFloat("SCALE_UNFILTERED_MIN_RADIUS", c.Scale.UnfilteredMinRadius)
	c.Scale.UnfilteredMaxRadius = getEnvAsFloat("SCALE_UNFILTERED_MAX_RADIUS", c.Scale.UnfilteredMaxRadius)
	c.Scale.FilteredMinRadius = getEnvAsFloat("SCALE_FILTERED_MIN_RADIUS", c.Scale.FilteredMinRadius)
	c.Scale.FilteredMaxRadius = getEnvAsFloat("SCALE_FILTERED_MAX_RADIUS", c.Scale.FilteredMaxRadius)

	c.Map.CenterLongitude = getEnvAsFloat("MAP_CENTER_LONGITUDE", c.Map.CenterLongitude)
	c.Map.CenterLatitude = getEnvAsFloat("MAP_CENTER_LATITUDE", c.Map.CenterLatitude)
	c.Map.Zoom = getEnvAsFloat("MAP_ZOOM", c.Map.Zoom)
	c.Map.MinZoom = getEnvAsFloat("MAP_MIN_ZOOM", c.Map.MinZoom)
	c.Map.MaxZoom = getEnvAsFloat("MAP_MAX_ZOOM", c.Map.MaxZoom)

	c.Overlay.EventsTopic = getEnv("OVERLAY_EVENTS_TOPIC", c.Overlay.EventsTopic)
	c.Overlay.WriteWait = getEnvAsDuration("OVERLAY_WRITE_WAIT", c.Overlay.WriteWait)
	c.Overlay.PongWait = getEnvAsDuration("OVERLAY_PONG_WAIT", c.Overlay.PongWait)
	c.Overlay.MaxMessageSize = int64(getEnvAsInt("OVERLAY_MAX_MESSAGE_SIZE", int(c.Overlay.MaxMessageSize)))
}

// validate checks if config is valid
func validate(config Config) error {
	switch config.Dataset.Source {
	case SourceRemote, SourcePostgres:
	default:
		return fmt.Errorf("unknown dataset source %q", config.Dataset.Source)
	}

	if _, err := config.Dataset.Location(); err != nil {
		return fmt.Errorf("invalid dataset timezone %q: %w", config.Dataset.Timezone, err)
	}

	s := config.Scale
	if s.UnfilteredMinRadius < 0 || s.UnfilteredMinRadius > s.UnfilteredMaxRadius {
		return fmt.Errorf("unfiltered radius range [%v, %v] is invalid", s.UnfilteredMinRadius, s.UnfilteredMaxRadius)
	}
	if s.FilteredMinRadius < 0 || s.FilteredMinRadius > s.FilteredMaxRadius {
		return fmt.Errorf("filtered radius range [%v, %v] is invalid", s.FilteredMinRadius, s.FilteredMaxRadius)
	}

	m := config.Map
	if m.MinZoom >= m.MaxZoom {
		return fmt.Errorf("map zoom bounds [%v, %v] are invalid", m.MinZoom, m.MaxZoom)
	}
	if m.Zoom < m.MinZoom || m.Zoom > m.MaxZoom {
		return fmt.Errorf("map zoom %v is outside [%v, %v]", m.Zoom, m.MinZoom, m.MaxZoom)
	}

	if config.Overlay.EventsTopic == "" && config.NATS.Enabled {
		return fmt.Errorf("overlay events topic must be set when NATS is enabled")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pulsehq/venue-pulse/internal/ingest"
	"github.com/pulsehq/venue-pulse/internal/store"
)

// Backend selectors for the pluggable stores.
const (
	StoreBackendMemory = "memory"
	StoreBackendInflux = "influx"

	LearningBackendMemory = "memory"
	LearningBackendSQLite = "sqlite"
)

type AppConfig struct {
	// Venues to track.
	VenueIDs []string

	// BarDayBoundaryHour is the clock hour a venue's operational day starts
	// at (03:00 by default, so the overnight session stays in one window).
	BarDayBoundaryHour int

	// RecomputeInterval controls how often the pipeline re-runs per venue.
	RecomputeInterval time.Duration

	// Reading store backend and retention.
	StoreBackend    string
	StoreMaxHistory int           // max readings per venue (0 = unlimited)
	StoreMaxAge     time.Duration // max age of readings (0 = unlimited)
	Influx          store.InfluxConfig

	// Learning store backend.
	LearningBackend string
	LearningDBPath  string

	// Ingestion.
	MQTTEnabled bool
	MQTT        ingest.MQTTConfig
	// PollEndpoints lists sensor-bridge URLs polled as an MQTT fallback.
	PollEndpoints []string
	HTTPTimeout   time.Duration

	Port string
}

// Load reads configuration from environment with sensible defaults.
// Invalid values that would corrupt every downstream computation (bad
// boundary hour, no venues) are configuration errors and fail loudly here.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	venues := getenvDefault("VENUE_IDS", "")
	if venues == "" {
		return nil, fmt.Errorf("VENUE_IDS is required (comma-separated venue ids)")
	}
	for _, v := range strings.Split(venues, ",") {
		if v = strings.TrimSpace(v); v != "" {
			cfg.VenueIDs = append(cfg.VenueIDs, v)
		}
	}
	if len(cfg.VenueIDs) == 0 {
		return nil, fmt.Errorf("VENUE_IDS contained no venue ids")
	}

	cfg.BarDayBoundaryHour = getenvInt("BAR_DAY_BOUNDARY_HOUR", 3)
	if cfg.BarDayBoundaryHour < 0 || cfg.BarDayBoundaryHour > 23 {
		return nil, fmt.Errorf("invalid BAR_DAY_BOUNDARY_HOUR %d: must be 0-23", cfg.BarDayBoundaryHour)
	}

	cfg.RecomputeInterval = getenvDuration("RECOMPUTE_INTERVAL", 30*time.Second)

	cfg.StoreBackend = getenvDefault("STORE_BACKEND", StoreBackendMemory)
	// Publishers send every ~15s; 5760 readings is roughly 24h of cadence.
	cfg.StoreMaxHistory = getenvInt("STORE_MAX_HISTORY", 5760)
	cfg.StoreMaxAge = getenvDuration("STORE_MAX_AGE", 24*time.Hour)

	cfg.Influx = store.InfluxConfig{
		URL:    getenvDefault("INFLUXDB_URL", "http://localhost:8086"),
		Org:    os.Getenv("INFLUXDB_ORG"),
		Token:  os.Getenv("INFLUXDB_TOKEN"),
		Bucket: getenvDefault("INFLUXDB_BUCKET", "venue-pulse"),
	}
	if cfg.StoreBackend == StoreBackendInflux && cfg.Influx.Token == "" {
		return nil, fmt.Errorf("INFLUXDB_TOKEN is required when STORE_BACKEND=influx")
	}

	cfg.LearningBackend = getenvDefault("LEARNING_BACKEND", LearningBackendMemory)
	cfg.LearningDBPath = getenvDefault("LEARNING_DB_PATH", "venue_learning.db")

	cfg.MQTTEnabled = getenvBool("MQTT_ENABLED", false)
	cfg.MQTT = ingest.MQTTConfig{
		Broker:   getenvDefault("MQTT_BROKER", "tcp://localhost:1883"),
		ClientID: getenvDefault("MQTT_CLIENT_ID", "venue-pulse"),
		Topic:    getenvDefault("MQTT_TOPIC", "pulse/sensors/+"),
		Username: os.Getenv("MQTT_USERNAME"),
		Password: os.Getenv("MQTT_PASSWORD"),
	}

	if endpoints := os.Getenv("HTTP_POLL_ENDPOINTS"); endpoints != "" {
		for _, e := range strings.Split(endpoints, ",") {
			if e = strings.TrimSpace(e); e != "" {
				cfg.PollEndpoints = append(cfg.PollEndpoints, e)
			}
		}
	}
	cfg.HTTPTimeout = getenvDuration("HTTP_TIMEOUT", 10*time.Second)

	cfg.Port = getenvDefault("PORT", "8080")

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err == nil {
			return d
		}
	}
	return def
}

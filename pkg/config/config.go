package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds runtime settings for the incident pipeline
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Inputs
	HotspotsPath string
	NodesPath    string

	// Incident store. DatabaseURL wins over ClickHouseAddr, which wins over the CSV file.
	IncidentsCSV   string
	DatabaseURL    string
	ClickHouseAddr string
	ClickHouseDB   string
	ClickHouseUser string
	ClickHousePass string

	// Simulator feed, disabled when MQTTBroker is empty
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string
	MQTTTopic    string

	// Generation defaults
	HorizonMin      int
	HotspotFraction float64
	Seed            int64

	RunsDir string
}

// Load reads configuration from .env (if present) and the process environment
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("GO_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HotspotsPath: getEnv("HOTSPOTS_PATH", "configs/hotspots.json"),
		NodesPath:    getEnv("NODES_PATH", "data/processed/nodes.csv"),

		IncidentsCSV:   getEnv("INCIDENTS_CSV", "data/processed/incidents.csv"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "ems"),
		ClickHouseUser: getEnv("CLICKHOUSE_USER", "default"),
		ClickHousePass: getEnv("CLICKHOUSE_PASS", ""),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "incident-generator"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),
		MQTTTopic:    getEnv("MQTT_TOPIC", "sim/incidents"),

		HorizonMin:      getEnvInt("HORIZON_MIN", 1440),
		HotspotFraction: getEnvFloat("HOTSPOT_FRACTION", 0.8),
		Seed:            getEnvInt64("SEED", 42),

		RunsDir: getEnv("RUNS_DIR", "runs"),
	}
}

// Validate rejects settings the generator would refuse at call time
func (c *Config) Validate() error {
	if c.HotspotFraction < 0 || c.HotspotFraction > 1 || c.HotspotFraction != c.HotspotFraction {
		return fmt.Errorf("config: HOTSPOT_FRACTION must be in [0, 1], got %v", c.HotspotFraction)
	}
	if c.HorizonMin <= 0 {
		return fmt.Errorf("config: HORIZON_MIN must be positive, got %d", c.HorizonMin)
	}
	return nil
}

// IsProduction reports whether the service runs with GO_ENV=production
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return parsed
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int64, using default: %v", key, err)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: failed to parse %s as float, using default: %v", key, err)
		return defaultValue
	}
	return parsed
}

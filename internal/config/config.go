package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
)

// DefaultPollutants are the dataset names kept by the cleaning step.
var DefaultPollutants = []string{
	"Fine particles (PM 2.5)",
	"Nitrogen dioxide (NO2)",
	"Ozone (O3)",
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	RawDataPath     string
	Pollutants      []string
	ForecastYears   int
	MapWorkers      int
	BreakpointsFile string

	// Artifact storage.
	ArtifactBackend   string // "file" or "redis"
	RedisAddr         string
	ArtifactCacheSize int

	// Optional sinks.
	KafkaBrokers       []string
	KafkaForecastTopic string
	KafkaEnabled       bool
	DatabaseURL        string

	HTTPAddr        string
	Serve           bool
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	forecastYears, err := parsePositiveInt("FORECAST_YEARS", 5)
	if err != nil {
		return nil, err
	}
	mapWorkers, err := parsePositiveInt("MAP_WORKERS", 4)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("ARTIFACT_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		DataDir:         sharedcfg.EnvOrDefault("DATA_DIR", "."),
		RawDataPath:     sharedcfg.EnvOrDefault("RAW_DATA_PATH", "data/raw_aqi_data.csv"),
		Pollutants:      parseList(sharedcfg.EnvOrDefault("POLLUTANTS", strings.Join(DefaultPollutants, ","))),
		ForecastYears:   forecastYears,
		MapWorkers:      mapWorkers,
		BreakpointsFile: os.Getenv("BREAKPOINTS_FILE"),

		ArtifactBackend:   strings.ToLower(sharedcfg.EnvOrDefault("ARTIFACT_BACKEND", "file")),
		RedisAddr:         sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		ArtifactCacheSize: cacheSize,

		KafkaBrokers:       brokers,
		KafkaForecastTopic: sharedcfg.EnvOrDefault("KAFKA_FORECAST_TOPIC", "aqi-forecasts"),
		KafkaEnabled:       len(brokers) > 0,
		DatabaseURL:        os.Getenv("DATABASE_URL"),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		Serve:           os.Getenv("SERVE") == "true",
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if len(cfg.Pollutants) == 0 {
		return nil, errors.New("POLLUTANTS must name at least one pollutant")
	}
	if cfg.ArtifactBackend != "file" && cfg.ArtifactBackend != "redis" {
		return nil, fmt.Errorf("invalid ARTIFACT_BACKEND %q: want file or redis", cfg.ArtifactBackend)
	}

	return cfg, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

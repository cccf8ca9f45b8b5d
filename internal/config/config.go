// Package config loads runtime configuration from the environment.
package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaults used when the environment leaves a knob unset.
const (
	DefaultDataDir       = "./data"
	DefaultQueueQuota    = 5 * 1024 * 1024 // bytes, localStorage-sized
	DefaultProbeInterval = 30 * time.Second
	DefaultHTTPTimeout   = 30 * time.Second
)

// Config holds every runtime knob of the collector daemon.
type Config struct {
	ServerURL     string
	NominatimURL  string
	DataDir       string
	QueueQuota    int64
	ProbeURL      string
	ProbeInterval time.Duration
	HTTPTimeout   time.Duration
	LogLevel      string
}

// New reads configuration from a .env file if present, then from the
// environment. Missing values fall back to defaults; the probe URL falls
// back to the server URL itself.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	viper.AutomaticEnv()

	cfg := &Config{
		ServerURL:     viper.GetString("server_url"),
		NominatimURL:  viper.GetString("nominatim_url"),
		DataDir:       viper.GetString("data_dir"),
		QueueQuota:    viper.GetInt64("queue_quota_bytes"),
		ProbeURL:      viper.GetString("probe_url"),
		ProbeInterval: time.Duration(viper.GetInt("probe_interval_seconds")) * time.Second,
		HTTPTimeout:   time.Duration(viper.GetInt("http_timeout_seconds")) * time.Second,
		LogLevel:      viper.GetString("log_level"),
	}

	if cfg.DataDir == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.QueueQuota <= 0 {
		cfg.QueueQuota = DefaultQueueQuota
	}
	if cfg.ProbeURL == "" {
		cfg.ProbeURL = cfg.ServerURL
	}
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = DefaultProbeInterval
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = DefaultHTTPTimeout
	}

	return cfg
}

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sethvargo/go-envconfig"
)

// DefaultNewsFeeds are polled when NEWS_FEEDS is unset.
var DefaultNewsFeeds = []string{
	"https://www.swpc.noaa.gov/rss.xml",
	"https://spaceweatherarchive.com/feed/",
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir       string        `env:"DATA_DIR,default=./data"`
	SourceTimeout time.Duration `env:"SOURCE_TIMEOUT,default=10s"`

	// Upstream feeds.
	KpURL            string   `env:"KP_URL,default=https://services.swpc.noaa.gov/products/noaa-planetary-k-index.json"`
	SolarWindURL     string   `env:"SOLAR_WIND_URL,default=https://services.swpc.noaa.gov/products/solar-wind/plasma-1-day.json"`
	XrayURL          string   `env:"XRAY_URL,default=https://services.swpc.noaa.gov/json/goes/primary/xrays-1-day.json"`
	FlareURL         string   `env:"FLARE_URL,default=https://services.swpc.noaa.gov/json/goes/primary/xray-flares-7-day.json"`
	FlareFallbackURL string   `env:"FLARE_FALLBACK_URL,default=https://kauai.ccmc.gsfc.nasa.gov/DONKI/WS/get/FLR"`
	DstURL           string   `env:"DST_URL,default=https://services.swpc.noaa.gov/products/kyoto-dst.json"`
	NewsFeeds        []string `env:"NEWS_FEEDS"`
	MeteorSeed       uint64   `env:"METEOR_SEED,default=1"`

	// Scheduling. An empty schedule runs the pipeline once and exits.
	Schedule        string        `env:"SCHEDULE"`
	HTTPAddr        string        `env:"HTTP_ADDR,default=:8080"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	// Optional Kafka fan-out of every snapshot.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC,default=space-weather-snapshots"`

	LogLevel  string `env:"LOG_LEVEL,default=info"`
	LogFormat string `env:"LOG_FORMAT,default=json"`
}

// KafkaEnabled reports whether snapshots are also published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Scheduled reports whether the service runs on a cron schedule.
func (c *Config) Scheduled() bool {
	return c.Schedule != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("process config: %w", err)
	}

	cfg.NewsFeeds = compact(cfg.NewsFeeds)
	if len(cfg.NewsFeeds) == 0 {
		cfg.NewsFeeds = append([]string(nil), DefaultNewsFeeds...)
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("DATA_DIR is required")
	}
	if c.SourceTimeout <= 0 {
		return errors.New("SOURCE_TIMEOUT must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be positive")
	}
	required := map[string]string{
		"KP_URL":         c.KpURL,
		"SOLAR_WIND_URL": c.SolarWindURL,
		"XRAY_URL":       c.XrayURL,
		"FLARE_URL":      c.FlareURL,
		"DST_URL":        c.DstURL,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	if c.Scheduled() {
		if _, err := cron.ParseStandard(c.Schedule); err != nil {
			return fmt.Errorf("invalid SCHEDULE %q: %w", c.Schedule, err)
		}
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the grading controller.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	NATSURL            string
	JWTSecret          string
	PeerGraderCount    int
	ETADefaultSeconds  int
	ETAHistoryWindow   time.Duration
	ETACacheTTL        time.Duration
	IngestRateLimit    int
	IngestRateWindow   time.Duration
	EventSubjectPrefix string
	CORSAllowOrigins   string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and an optional
// .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("OEGC")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Grading Controller")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("peer.grader_count", 3)
	v.SetDefault("eta.default_seconds", 600)
	v.SetDefault("eta.history_window", "1h")
	v.SetDefault("eta.cache_ttl", "30s")
	v.SetDefault("ingest.rate_limit", 50)
	v.SetDefault("ingest.rate_window", "1s")
	v.SetDefault("events.subject_prefix", "grading")
	v.SetDefault("http.cors_origins", "*")

	historyWindow, err := time.ParseDuration(v.GetString("eta.history_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid eta history window: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("eta.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid eta cache ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("ingest.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ingest rate window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		NATSURL:            v.GetString("nats.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		PeerGraderCount:    v.GetInt("peer.grader_count"),
		ETADefaultSeconds:  v.GetInt("eta.default_seconds"),
		ETAHistoryWindow:   historyWindow,
		ETACacheTTL:        cacheTTL,
		IngestRateLimit:    v.GetInt("ingest.rate_limit"),
		IngestRateWindow:   rateWindow,
		EventSubjectPrefix: v.GetString("events.subject_prefix"),
		CORSAllowOrigins:   v.GetString("http.cors_origins"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.PeerGraderCount <= 0 {
		return Config{}, fmt.Errorf("peer grader count must be positive, got %d", cfg.PeerGraderCount)
	}

	if cfg.ETADefaultSeconds <= 0 {
		cfg.ETADefaultSeconds = 600
	}

	return cfg, nil
}

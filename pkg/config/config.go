// Package config loads process configuration from the environment,
// with an optional .env file for development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is everything the binaries need, loaded once at startup and
// passed down explicitly.
type Config struct {
	// Bot.
	BotToken string
	AdminID  int64
	BotDebug bool

	// Relay.
	RelayPort    int
	RelayBaseURL string
	RelayTTL     time.Duration

	// Device. Mode is "adb", "ssh" or "none".
	DeviceMode      string
	DeviceSerial    string
	DeviceSSHTarget string

	// Pipeline.
	SettleDelay     time.Duration
	GateSize        int
	ConsumeAttempts int
	ConsumeDelay    time.Duration

	// Archive. Backend is "file", "mongo", "postgres", "supabase" or "none".
	ArchiveBackend   string
	ArchiveDir       string
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	PostgresDSN      string
	SupabaseURL      string
	SupabaseKey      string
	SupabasePassword string

	// Telegraph.
	TelegraphShortName  string
	TelegraphAuthorName string
	TelegraphAuthorURL  string

	// Health.
	HealthThreshold int
	HealthWindow    time.Duration
	HealthProbeURL  string
}

// Load reads configuration. A missing .env file is fine; real
// deployments set the environment directly.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BotToken:            os.Getenv("BOT_TOKEN"),
		AdminID:             envInt64("ADMIN_ID", 0),
		BotDebug:            envBool("BOT_DEBUG", false),
		RelayPort:           envInt("RELAY_PORT", 8000),
		RelayBaseURL:        envString("RELAY_BASE_URL", "http://127.0.0.1:8000"),
		RelayTTL:            envDuration("RELAY_TTL", 0),
		DeviceMode:          envString("DEVICE_MODE", "adb"),
		DeviceSerial:        os.Getenv("DEVICE_SERIAL"),
		DeviceSSHTarget:     os.Getenv("DEVICE_SSH_TARGET"),
		SettleDelay:         envDuration("SETTLE_DELAY", 500*time.Millisecond),
		GateSize:            envInt("GATE_SIZE", 5),
		ConsumeAttempts:     envInt("CONSUME_ATTEMPTS", 3),
		ConsumeDelay:        envDuration("CONSUME_DELAY", 100*time.Millisecond),
		ArchiveBackend:      envString("ARCHIVE_BACKEND", "file"),
		ArchiveDir:          envString("ARCHIVE_DIR", "archive"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       envString("MONGO_DATABASE", "xhsfeed"),
		MongoCollection:     envString("MONGO_COLLECTION", "payloads"),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		SupabaseURL:         os.Getenv("SUPABASE_URL"),
		SupabaseKey:         os.Getenv("SUPABASE_KEY"),
		SupabasePassword:    os.Getenv("SUPABASE_PASSWORD"),
		TelegraphShortName:  envString("TELEGRAPH_SHORT_NAME", "xhsfeed"),
		TelegraphAuthorName: envString("TELEGRAPH_AUTHOR_NAME", "xhsfeedbot"),
		TelegraphAuthorURL:  os.Getenv("TELEGRAPH_AUTHOR_URL"),
		HealthThreshold:     envInt("HEALTH_THRESHOLD", 5),
		HealthWindow:        envDuration("HEALTH_WINDOW", 2*time.Minute),
		HealthProbeURL:      os.Getenv("HEALTH_PROBE_URL"),
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}
	switch cfg.DeviceMode {
	case "adb", "ssh", "none":
	default:
		return Config{}, fmt.Errorf("DEVICE_MODE must be adb, ssh or none, got %q", cfg.DeviceMode)
	}
	if cfg.DeviceMode == "ssh" && cfg.DeviceSSHTarget == "" {
		return Config{}, fmt.Errorf("DEVICE_SSH_TARGET is required when DEVICE_MODE=ssh")
	}
	switch cfg.ArchiveBackend {
	case "file", "mongo", "postgres", "supabase", "none":
	default:
		return Config{}, fmt.Errorf("ARCHIVE_BACKEND must be file, mongo, postgres, supabase or none, got %q", cfg.ArchiveBackend)
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

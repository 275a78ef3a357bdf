package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port        string
	HTTPTimeout time.Duration

	// BestTime foot-traffic provider.
	BestTimeAPIKey  string
	BestTimeBaseURL string

	// Progress polling for deferred venue searches.
	ProgressTimeout     time.Duration
	ProgressInterval    time.Duration
	ProgressMaxInterval time.Duration
	ProgressGrowth      float64

	// Google APIs.
	PlacesAPIKey   string
	GeocoderAPIKey string

	// Postgres and the demographics dataset.
	DatabaseURL         string
	DemographicsSchema  string
	DemographicsTable   string
	DefaultMunicipality string

	// OpenAI analysis and speech.
	OpenAIAPIKey    string
	OpenAITTSKey    string
	OpenAIChatModel string
	OpenAITTSModel  string
	OpenAITTSVoice  string

	// Background refresh of saved targets.
	RefreshInterval    time.Duration
	RefreshTargetLimit int

	// Snapshot cache retention.
	SnapshotMaxHistory int           // max snapshots per target (0 = unlimited)
	SnapshotMaxAge     time.Duration // max snapshot age (0 = unlimited)
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	httpTimeout, err := parseDuration("HTTP_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	cfg.HTTPTimeout = httpTimeout

	// The private key has gone by several names across deployments.
	cfg.BestTimeAPIKey = getenvFirst("BESTTIME_API_KEY_PRIVATE", "BESTTIME_PRIVATE", "BESTTIME_PRIVATE_KEY")
	cfg.BestTimeBaseURL = getenvDefault("BESTTIME_BASE", "https://besttime.app/api/v1")

	if cfg.ProgressTimeout, err = parseDuration("BESTTIME_PROGRESS_TIMEOUT", "30s"); err != nil {
		return nil, err
	}
	if cfg.ProgressInterval, err = parseDuration("BESTTIME_PROGRESS_INTERVAL", "2s"); err != nil {
		return nil, err
	}
	if cfg.ProgressMaxInterval, err = parseDuration("BESTTIME_PROGRESS_MAX_INTERVAL", "8s"); err != nil {
		return nil, err
	}
	cfg.ProgressGrowth = getenvFloat("BESTTIME_PROGRESS_GROWTH", 1.5)

	cfg.PlacesAPIKey = os.Getenv("GOOGLE_PLACES_API_KEY")
	cfg.GeocoderAPIKey = getenvDefault("GOOGLE_GEOCODER_API_KEY", cfg.PlacesAPIKey)

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	cfg.DemographicsSchema = getenvDefault("DEMOGRAPHICS_SCHEMA", "public")
	cfg.DemographicsTable = getenvDefault("DEMOGRAPHICS_TABLE", "demographics")
	cfg.DefaultMunicipality = getenvDefault("DEFAULT_MUNICIPALITY", "LAS PIÑAS")

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAITTSKey = getenvDefault("OPENAI_TEXT_TO_SPEECH", cfg.OpenAIAPIKey)
	cfg.OpenAIChatModel = getenvDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini")
	cfg.OpenAITTSModel = getenvDefault("OPENAI_TTS_MODEL", "gpt-4o-mini-tts")
	cfg.OpenAITTSVoice = getenvDefault("OPENAI_TTS_VOICE", "coral")

	if cfg.RefreshInterval, err = parseDuration("REFRESH_INTERVAL", "1h"); err != nil {
		return nil, err
	}
	cfg.RefreshTargetLimit = getenvInt("REFRESH_TARGET_LIMIT", 20)

	cfg.SnapshotMaxHistory = getenvInt("SNAPSHOT_MAX_HISTORY", 48)
	if cfg.SnapshotMaxAge, err = parseDuration("SNAPSHOT_MAX_AGE", "48h"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFirst(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
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

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"cocktailLogAPI/internal/badge"
)

type Config struct {
	Port           string
	DatabaseURL    string
	ClerkSecretKey string

	MetricsUser string
	MetricsPass string
	PprofSecret string

	BadgeBucket       string
	BadgeThresholds   badge.Thresholds
	BadgeSignedURLTTL time.Duration

	StoragePublicBaseURL       string
	FirebaseCredentialsFile    string
	FirebaseServiceAccountJSON string
	FirebaseStorageBucket      string

	Location       *time.Location
	StreakLookback int

	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

// SignedBadgeURLs reports whether badge images should be served through Firebase
// Storage signed URLs: that needs credentials and a positive TTL.
func (c *Config) SignedBadgeURLs() bool {
	hasCredentials := c.FirebaseCredentialsFile != "" || c.FirebaseServiceAccountJSON != ""
	return hasCredentials && c.BadgeSignedURLTTL > 0
}

func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "3333"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		ClerkSecretKey: os.Getenv("CLERK_SECRET_KEY"),

		MetricsUser: os.Getenv("METRICS_USER"),
		MetricsPass: os.Getenv("METRICS_PASS"),
		PprofSecret: os.Getenv("PPROF_SECRET"),

		BadgeBucket: getEnv("BADGE_BUCKET", "badges"),
		BadgeThresholds: badge.Thresholds{
			Bronze: getEnvInt("BADGE_BRONZE", badge.DefaultThresholds.Bronze),
			Silver: getEnvInt("BADGE_SILVER", badge.DefaultThresholds.Silver),
			Gold:   getEnvInt("BADGE_GOLD", badge.DefaultThresholds.Gold),
		},
		BadgeSignedURLTTL: getEnvDuration("BADGE_SIGNED_URL_TTL", 0),

		StoragePublicBaseURL:       getEnv("STORAGE_PUBLIC_BASE_URL", "https://storage.googleapis.com"),
		FirebaseCredentialsFile:    os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		FirebaseServiceAccountJSON: os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"),
		FirebaseStorageBucket:      os.Getenv("FIREBASE_STORAGE_BUCKET"),

		StreakLookback: getEnvInt("STREAK_LOOKBACK", 365),

		RateLimitRPS:   getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getEnvInt("RATE_LIMIT_BURST", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}
	if cfg.ClerkSecretKey == "" {
		return nil, fmt.Errorf("CLERK_SECRET_KEY environment variable is not set")
	}

	if err := cfg.BadgeThresholds.Validate(); err != nil {
		return nil, fmt.Errorf("invalid badge thresholds: %w", err)
	}

	loc, err := time.LoadLocation(getEnv("METRICS_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid METRICS_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	if cfg.StreakLookback <= 0 {
		return nil, fmt.Errorf("STREAK_LOOKBACK must be positive, got %d", cfg.StreakLookback)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("Config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("Config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Config: ignoring invalid %s=%q", key, v)
	}
	return fallback
}

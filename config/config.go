// Package config loads server settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all server settings sourced from the environment.
type Config struct {
	Host        string
	Port        string
	DatabaseURL string

	// TokenSecret is the HMAC secret handshake tokens are verified against.
	TokenSecret string

	RoomCapacity  int
	ShutdownGrace time.Duration

	// Per-connection inbound rate limit (token bucket).
	RateLimitEnabled bool
	MessagesPerSec   float64
	RateLimitBurst   int

	// Retention windows for the background expiry sweeps.
	ListingTTL time.Duration
	GiftTTL    time.Duration
	SweepEvery time.Duration
}

// Load reads configuration from environment variables, applying defaults
// for everything except DATABASE_URL (optional) and TOKEN_SECRET.
func Load() Config {
	return Config{
		Host:             getEnv("HOST", "0.0.0.0"),
		Port:             getEnv("PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		TokenSecret:      getEnv("TOKEN_SECRET", "dev-secret"),
		RoomCapacity:     getEnvInt("ROOM_CAPACITY", 4),
		ShutdownGrace:    getEnvDuration("SHUTDOWN_GRACE", 5*time.Second),
		RateLimitEnabled: getEnv("RATE_LIMIT", "on") != "off",
		MessagesPerSec:   getEnvFloat("RATE_LIMIT_PER_SEC", 100),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 200),
		ListingTTL:       getEnvDuration("LISTING_TTL", 72*time.Hour),
		GiftTTL:          getEnvDuration("GIFT_TTL", 30*24*time.Hour),
		SweepEvery:       getEnvDuration("SWEEP_INTERVAL", time.Hour),
	}
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
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

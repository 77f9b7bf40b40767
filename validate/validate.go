// Command validate provides a small CLI that validates server environment
// files (.env) before deployment. It checks:
//   - TOKEN_SECRET is set, long enough and not a placeholder
//   - PORT is a valid TCP port
//   - DATABASE_URL, when set, is a postgres URL
//   - duration settings parse and are positive
//   - rate limit settings are coherent
//   - no unknown settings are present (catches typos)
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// knownKeys lists every setting the server reads. Anything else in the
// file is almost certainly a typo.
var knownKeys = map[string]bool{
	"HOST":               true,
	"PORT":               true,
	"DATABASE_URL":       true,
	"TOKEN_SECRET":       true,
	"ROOM_CAPACITY":      true,
	"SHUTDOWN_GRACE":     true,
	"RATE_LIMIT":         true,
	"RATE_LIMIT_PER_SEC": true,
	"RATE_LIMIT_BURST":   true,
	"LISTING_TTL":        true,
	"GIFT_TTL":           true,
	"SWEEP_INTERVAL":     true,
	"NGROK_AUTHTOKEN":    true,
	"NGROK_DOMAIN":       true,
}

var durationKeys = []string{"SHUTDOWN_GRACE", "LISTING_TTL", "GIFT_TTL", "SWEEP_INTERVAL"}

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateEnvFile loads and validates a single environment file.
func validateEnvFile(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	env, err := godotenv.Read(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	for key := range env {
		if !knownKeys[key] {
			result.fail("Unknown setting %q", key)
		}
	}

	validateSecret(env, &result)

	if port, ok := env["PORT"]; ok {
		if n, err := strconv.Atoi(port); err != nil || n < 1 || n > 65535 {
			result.fail("PORT must be a TCP port (1-65535), got %q", port)
		}
	}

	if dsn, ok := env["DATABASE_URL"]; ok {
		if !strings.HasPrefix(dsn, "postgres://") && !strings.HasPrefix(dsn, "postgresql://") {
			result.fail("DATABASE_URL must be a postgres:// URL")
		}
	}

	if capacity, ok := env["ROOM_CAPACITY"]; ok {
		if n, err := strconv.Atoi(capacity); err != nil || n < 2 {
			result.fail("ROOM_CAPACITY must be an integer of at least 2, got %q", capacity)
		}
	}

	for _, key := range durationKeys {
		value, ok := env[key]
		if !ok {
			continue
		}
		if d, err := time.ParseDuration(value); err != nil || d <= 0 {
			result.fail("%s must be a positive duration (e.g. 5s, 72h), got %q", key, value)
		}
	}

	validateRateLimit(env, &result)

	return result
}

func validateSecret(env map[string]string, result *ValidationResult) {
	secret, ok := env["TOKEN_SECRET"]
	switch {
	case !ok || secret == "":
		result.fail("TOKEN_SECRET is required")
	case secret == "dev-secret" || secret == "changeme":
		result.fail("TOKEN_SECRET is a placeholder value")
	case len(secret) < 16:
		result.fail("TOKEN_SECRET is too short (want at least 16 characters)")
	}
}

func validateRateLimit(env map[string]string, result *ValidationResult) {
	if mode, ok := env["RATE_LIMIT"]; ok && mode != "on" && mode != "off" {
		result.fail("RATE_LIMIT must be \"on\" or \"off\", got %q", mode)
	}

	if perSec, ok := env["RATE_LIMIT_PER_SEC"]; ok {
		if f, err := strconv.ParseFloat(perSec, 64); err != nil || f <= 0 {
			result.fail("RATE_LIMIT_PER_SEC must be a positive number, got %q", perSec)
		}
	}

	if burst, ok := env["RATE_LIMIT_BURST"]; ok {
		if n, err := strconv.Atoi(burst); err != nil || n < 1 {
			result.fail("RATE_LIMIT_BURST must be a positive integer, got %q", burst)
		}
	}
}

func main() {
	files := os.Args[1:]
	if len(files) == 0 {
		files = []string{".env"}
	}

	failed := 0
	for _, file := range files {
		result := validateEnvFile(file)
		if result.Valid {
			fmt.Printf("✓ %s\n", result.File)
			continue
		}

		failed++
		fmt.Printf("✗ %s\n", result.File)
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}

	fmt.Printf("\n%d of %d files valid\n", len(files)-failed, len(files))
	if failed > 0 {
		os.Exit(1)
	}
}

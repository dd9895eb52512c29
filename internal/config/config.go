// Package config provides environment configuration helpers for
// playsight commands.
package config

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the playsight process.
const (
	DefaultServiceURL     = "http://localhost:8500"
	DefaultPort           = "8080"
	DefaultSampleInterval = 300 * time.Millisecond
)

// ServiceURL returns the inference service base URL from SERVICE_URL.
// Falls back to the local default if not set.
func ServiceURL() string {
	if url := os.Getenv("SERVICE_URL"); url != "" {
		return url
	}
	return DefaultServiceURL
}

// Port returns the dashboard listen port from PORT.
func Port() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// LogLevel returns the log level from LOG_LEVEL ("debug", "info",
// "warn", "error").
func LogLevel() string {
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		return lvl
	}
	return "info"
}

// SampleInterval returns the frame sampling period from
// SAMPLE_INTERVAL_MS. Falls back to the default 300ms cadence.
func SampleInterval() time.Duration {
	if raw := os.Getenv("SAMPLE_INTERVAL_MS"); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return DefaultSampleInterval
}

// Package config provides environment configuration helpers for steerline
// commands.
package config

import (
	"os"
	"strconv"
)

// Defaults shared by the commands.
const (
	DefaultDashboardPort = "8077"
	DefaultLogLevel      = "info"
)

// String returns the value of an env var, or def when unset.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the integer value of an env var, or def when unset or
// not parseable.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Float returns the float value of an env var, or def when unset or
// not parseable.
func Float(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// Bool returns the boolean value of an env var, or def when unset.
// Accepts the forms understood by strconv.ParseBool.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// DashboardAddr returns the listen address for the web dashboard.
func DashboardAddr() string {
	return ":" + String("STEERLINE_PORT", DefaultDashboardPort)
}

// LogLevel returns the configured log level.
func LogLevel() string {
	return String("STEERLINE_LOG", DefaultLogLevel)
}

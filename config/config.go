// Package config exposes the runtime configuration of the modelhub panel.
// All settings come from environment variables (optionally loaded from a
// .env file) so that nothing security-sensitive is hardcoded.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	name    = "modelhub"
	version = "1.2.0"
)

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// LoadEnvFile reads an optional .env file into the process environment.
// A missing file is not an error; real environment variables win.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func GetVersion() string {
	return version
}

func GetName() string {
	return name
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("MHUB_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("MHUB_DEBUG") == "true"
}

func GetListenAddr() string {
	addr := os.Getenv("MHUB_LISTEN")
	if addr == "" {
		addr = "0.0.0.0"
	}
	return addr
}

func GetListenPort() int {
	return getEnvInt("MHUB_PORT", 8080)
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("MHUB_DB_FOLDER")
	if dbFolderPath == "" {
		if IsDebug() {
			dbFolderPath = "db"
		} else {
			dbFolderPath = "/etc/modelhub"
		}
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("MHUB_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

// GetTokenSecret returns the symmetric key used to sign session tokens.
// Empty means "not configured"; the caller decides how to handle that.
func GetTokenSecret() string {
	return os.Getenv("MHUB_TOKEN_SECRET")
}

// GetSessionLifetime is the expiry applied to sessions created without
// the remember-me flag.
func GetSessionLifetime() time.Duration {
	return getEnvDuration("MHUB_SESSION_LIFETIME", 24*time.Hour)
}

// GetRememberLifetime is the expiry applied to remember-me sessions.
// It must be longer than the default lifetime; misconfiguration falls
// back to the 30 day default.
func GetRememberLifetime() time.Duration {
	d := getEnvDuration("MHUB_SESSION_REMEMBER_LIFETIME", 30*24*time.Hour)
	if d <= GetSessionLifetime() {
		return 30 * 24 * time.Hour
	}
	return d
}

// GetBcryptCost returns the bcrypt work factor, clamped to at least 12.
func GetBcryptCost() int {
	cost := getEnvInt("MHUB_BCRYPT_COST", 12)
	if cost < 12 {
		cost = 12
	}
	return cost
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

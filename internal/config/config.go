package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all process configuration for the application. Backup
// settings (accounts, credentials, destination store) are not part of it;
// those live in the settings store and are edited over the HTTP API.
type Config struct {
	// Port is the HTTP server port.
	Port int

	// DBPath is the path of the local SQLite database holding settings
	// and the status ledger.
	DBPath string

	// BackupInterval is how often the scheduled backup job runs.
	BackupInterval time.Duration

	// Retention is how long status ledger entries stay visible.
	Retention time.Duration

	// HTTPTimeout bounds each remote call made during a backup.
	HTTPTimeout time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	port := 3000
	if p := os.Getenv("FEDIBACK_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid FEDIBACK_PORT: %w", err)
		}
	}

	dbPath := os.Getenv("FEDIBACK_DB_PATH")
	if dbPath == "" {
		dbPath = "fediback.db"
	}

	interval, err := durationEnv("FEDIBACK_BACKUP_INTERVAL", 6*time.Hour)
	if err != nil {
		return nil, err
	}

	retention, err := durationEnv("FEDIBACK_RETENTION", 48*time.Hour)
	if err != nil {
		return nil, err
	}

	httpTimeout, err := durationEnv("FEDIBACK_HTTP_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:           port,
		DBPath:         dbPath,
		BackupInterval: interval,
		Retention:      retention,
		HTTPTimeout:    httpTimeout,
	}, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

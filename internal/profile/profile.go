package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory, used for the database file (sqlite) and image blobs
	Data string
	// DSN points to where slider stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string

	// RedisAddr enables the redis cache backend when non-empty; otherwise the
	// in-process memory backend is used.
	RedisAddr     string // SLIDER_REDIS_ADDR
	RedisPassword string // SLIDER_REDIS_PASSWORD
	RedisDB       int    // SLIDER_REDIS_DB
	RedisPrefix   string // SLIDER_REDIS_PREFIX (default: "slider:")

	// PayloadTTL is the base expiration of cached slider payloads.
	PayloadTTL time.Duration // SLIDER_CACHE_PAYLOAD_TTL (default: 600s)
	// PayloadJitter bounds the random offset added to PayloadTTL so that many
	// sliders cached at the same time do not all expire at the same instant.
	PayloadJitter time.Duration // SLIDER_CACHE_PAYLOAD_JITTER (default: 60s)
	// LockTTL is the expiration of the populate lock. It is the only backstop
	// for a populator that dies without releasing its lock, so it must exceed
	// the worst-case population latency.
	LockTTL time.Duration // SLIDER_CACHE_LOCK_TTL (default: 10s)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", slog.String("key", key), slog.String("value", value))
		return defaultValue
	}
	return d
}

// FromEnv loads cache configuration from SLIDER_* environment variables.
func (p *Profile) FromEnv() {
	p.RedisAddr = os.Getenv("SLIDER_REDIS_ADDR")
	p.RedisPassword = os.Getenv("SLIDER_REDIS_PASSWORD")
	if v := os.Getenv("SLIDER_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			p.RedisDB = db
		}
	}
	p.RedisPrefix = getEnvOrDefault("SLIDER_REDIS_PREFIX", "slider:")

	p.PayloadTTL = getDurationEnv("SLIDER_CACHE_PAYLOAD_TTL", 600*time.Second)
	p.PayloadJitter = getDurationEnv("SLIDER_CACHE_PAYLOAD_JITTER", 60*time.Second)
	p.LockTTL = getDurationEnv("SLIDER_CACHE_LOCK_TTL", 10*time.Second)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "slider")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/slider"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("slider_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}

	if p.PayloadTTL <= 0 {
		p.PayloadTTL = 600 * time.Second
	}
	if p.PayloadJitter < 0 || p.PayloadJitter >= p.PayloadTTL {
		p.PayloadJitter = p.PayloadTTL / 10
	}
	if p.LockTTL <= 0 {
		p.LockTTL = 10 * time.Second
	}

	return nil
}

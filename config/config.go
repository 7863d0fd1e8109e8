// ABOUTME: Environment configuration for the orgmap binary
// ABOUTME: Loads .env files, parses ORGMAP_* variables and builds the logger
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMongo  = "mongo"
)

type Config struct {
	Addr        string        `env:"ORGMAP_ADDR" envDefault:":8080"`
	Store       string        `env:"ORGMAP_STORE" envDefault:"sqlite"`
	DBPath      string        `env:"ORGMAP_DB_PATH"`
	BadgerDir   string        `env:"ORGMAP_BADGER_DIR"`
	MongoURI    string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017/?replicaSet=rs0"`
	MongoDB     string        `env:"MONGO_DB" envDefault:"orgmap"`
	RedisURL    string        `env:"REDIS_URL"`
	CacheTTL    time.Duration `env:"ORGMAP_CACHE_TTL" envDefault:"5m"`
	JWTSecret   string        `env:"ORGMAP_JWT_SECRET"`
	TokenTTL    time.Duration `env:"ORGMAP_TOKEN_TTL" envDefault:"24h"`
	CORSOrigins []string      `env:"ORGMAP_CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string        `env:"LOG_FORMAT" envDefault:"text"`
	MetricsPath string        `env:"ORGMAP_METRICS_PATH" envDefault:"/metrics"`
}

// LoadEnv loads whichever of files exist and returns how many were loaded.
func LoadEnv(files ...string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads .env and .env.local when present, then the environment.
func Load() (*Config, error) {
	if _, err := LoadEnv(".env", ".env.local"); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}
	return Parse()
}

// Parse builds a Config from the process environment and fills path defaults.
func Parse() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, err
	}
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	if c.DBPath == "" {
		c.DBPath = filepath.Join(xdg.DataHome, "orgmap", "orgmap.db")
	}
	if c.BadgerDir == "" {
		c.BadgerDir = filepath.Join(xdg.DataHome, "orgmap", "badger")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StoreBadger, StoreMongo:
	default:
		return fmt.Errorf("invalid ORGMAP_STORE=%q (expected sqlite|badger|mongo)", c.Store)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT=%q (expected text|json)", c.LogFormat)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("ORGMAP_CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	return nil
}

// ValidateAuth checks the settings needed to issue or verify tokens.
func (c *Config) ValidateAuth() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("ORGMAP_JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("ORGMAP_TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// LogrusLevel maps LOG_LEVEL, falling back to info.
func (c *Config) LogrusLevel() logrus.Level {
	switch strings.ToLower(c.LogLevel) {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// NewLogger builds the process logger. Logs go to stderr so command output
// on stdout stays clean.
func (c *Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(c.LogrusLevel())
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Seed    SeedConfig
	QRAPI   QRAPIConfig
	Log     LogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port            int           `env:"SERVER_PORT" envDefault:"8090"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// StorageConfig selects where templates are kept.
type StorageConfig struct {
	Driver string `env:"STORAGE_DRIVER" envDefault:"memory"`
	DSN    string `env:"DB_DSN" envDefault:"data/qr-templates.db"`
}

// SeedConfig holds the initial template source.
type SeedConfig struct {
	File string `env:"SEED_FILE"` // Empty uses the built-in template
}

// QRAPIConfig holds remote QR API configuration.
type QRAPIConfig struct {
	BaseURL      string        `env:"QR_API_BASE_URL" envDefault:"http://localhost:8080/api/v1.0/qrcode"`
	Timeout      time.Duration `env:"QR_API_TIMEOUT" envDefault:"10s"`
	Retries      uint64        `env:"QR_API_RETRIES" envDefault:"2"`
	MockFallback bool          `env:"QR_API_MOCK_FALLBACK" envDefault:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load loads configuration from environment variables. Each env file that
// exists is loaded first; variables already set in the environment win.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Storage); err != nil {
		return nil, fmt.Errorf("parsing storage config: %w", err)
	}
	if err := env.Parse(&cfg.Seed); err != nil {
		return nil, fmt.Errorf("parsing seed config: %w", err)
	}
	if err := env.Parse(&cfg.QRAPI); err != nil {
		return nil, fmt.Errorf("parsing QR API config: %w", err)
	}
	if err := env.Parse(&cfg.Log); err != nil {
		return nil, fmt.Errorf("parsing log config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverSQLite, DriverPostgres:
		if c.Storage.DSN == "" {
			return fmt.Errorf("DB_DSN is required for STORAGE_DRIVER=%s", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (want memory, sqlite3 or postgres)", c.Storage.Driver)
	}

	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("unsupported LOG_FORMAT %q (want text or json)", c.Log.Format)
	}
	if c.QRAPI.Timeout <= 0 {
		return fmt.Errorf("QR_API_TIMEOUT must be positive")
	}
	if c.QRAPI.pointsAt(&c.Server) {
		return fmt.Errorf("QR_API_BASE_URL %s points at this server (SERVER_PORT=%d)", c.QRAPI.BaseURL, c.Server.Port)
	}

	return nil
}

// pointsAt reports whether the API base URL addresses the local server,
// which does not serve the QR API itself.
func (c *QRAPIConfig) pointsAt(srv *ServerConfig) bool {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Port() == "" || u.Port() != strconv.Itoa(srv.Port) {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1", srv.Host:
		return true
	}
	return false
}

// NewLogger builds the process logger.
func (c *LogConfig) NewLogger(out io.Writer) (*logrus.Logger, error) {
	lvl, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(lvl)
	if c.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return logger, nil
}

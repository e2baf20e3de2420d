package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Engine configures the debounced dispatcher.
type Engine struct {
	QuietPeriod    string `toml:"quiet_period" env:"BATCHSIM_QUIET_PERIOD"`
	MaxPending     int    `toml:"max_pending" env:"BATCHSIM_MAX_PENDING"`
	RequestTimeout string `toml:"request_timeout" env:"BATCHSIM_REQUEST_TIMEOUT"`

	quietPeriod    time.Duration
	requestTimeout time.Duration
}

// Resync configures the reconciler.
type Resync struct {
	Delay string `toml:"delay" env:"BATCHSIM_RESYNC_DELAY"`

	delay time.Duration
}

// Endpoint configures the HTTP batch client.
type Endpoint struct {
	BaseURL   string `toml:"base_url" env:"BATCHSIM_ENDPOINT_URL"`
	BatchPath string `toml:"batch_path" env:"BATCHSIM_BATCH_PATH"`
	Token     string `toml:"token" env:"BATCHSIM_ENDPOINT_TOKEN"`
	Timeout   string `toml:"timeout" env:"BATCHSIM_ENDPOINT_TIMEOUT"`

	timeout time.Duration
}

// Server configures the reference batch endpoint.
type Server struct {
	Addr         string `toml:"addr" env:"BATCHSIM_SERVER_ADDR"`
	DBPath       string `toml:"db_path" env:"BATCHSIM_DB_PATH"`
	Token        string `toml:"token" env:"BATCHSIM_SERVER_TOKEN"`
	MaxBodyBytes int64  `toml:"max_body_bytes" env:"BATCHSIM_MAX_BODY_BYTES"`
}

// Config holds every knob the CLI, the adapters and the reference server
// read.
//
// Sections:
//   - Engine: quiet period, pending cap and request timeout of the dispatcher
//   - Resync: debounce delay before a post-success resync
//   - Endpoint: where the batch client sends requests
//   - Server: listen address, database and limits of the reference endpoint
type Config struct {
	Engine   Engine   `toml:"engine"`
	Resync   Resync   `toml:"resync"`
	Endpoint Endpoint `toml:"endpoint"`
	Server   Server   `toml:"server"`
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty or the file does not exist) and the environment. The
// returned bool reports whether the file was read.
func Load(path string) (*Config, bool, error) {
	cfg := Default()

	exists := false
	if path != "" {
		file, err := os.Open(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, false, fmt.Errorf("open config: %w", err)
		default:
			defer file.Close()
			decoder := toml.NewDecoder(file)
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&cfg); err != nil {
				return nil, false, fmt.Errorf("parse config %s: %w", path, err)
			}
			exists = true
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, false, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, false, err
	}
	return &cfg, exists, nil
}

// QuietPeriodDuration returns the resolved engine quiet period.
func (e Engine) QuietPeriodDuration() time.Duration { return e.quietPeriod }

// RequestTimeoutDuration returns the resolved per-flush request timeout.
func (e Engine) RequestTimeoutDuration() time.Duration { return e.requestTimeout }

// DelayDuration returns the resolved resync delay.
func (r Resync) DelayDuration() time.Duration { return r.delay }

// TimeoutDuration returns the resolved HTTP client timeout.
func (e Endpoint) TimeoutDuration() time.Duration { return e.timeout }

// CreateSample writes a commented sample configuration file to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

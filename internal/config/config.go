// Package config holds build metadata and the console's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/edirooss/gasket-console/internal/patch"
	"gopkg.in/yaml.v3"
)

// Set via -ldflags "-X github.com/edirooss/gasket-console/internal/config.Version=..."
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

const DefaultPath = "gasket-console.yaml"

type Config struct {
	APIURL         string        `yaml:"api_url"`         // gasket-lb base URL
	ListenAddress  string        `yaml:"listen_address"`  //
	Port           string        `yaml:"port"`            //
	PollInterval   time.Duration `yaml:"poll_interval"`   // e.g. "1s"
	PollTimeout    time.Duration `yaml:"poll_timeout"`    //
	RedisAddress   string        `yaml:"redis_address"`   // empty disables snapshot publishing
	RedisChannel   string        `yaml:"redis_channel"`   //
	EnabledToggle  string        `yaml:"enabled_toggle"`  // merge | reset
	AllowedOrigins []string      `yaml:"allowed_origins"` // CORS origins in dev
}

func (c *Config) setDefaults() {
	if c.APIURL == "" {
		c.APIURL = "http://127.0.0.1:3000"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.PollInterval <= 0 {
		c.PollInterval = time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 5 * time.Second
	}
	if c.RedisChannel == "" {
		c.RedisChannel = "gasket:console:snapshots"
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"http://localhost:5173", "http://localhost:4173"}
	}
}

// ToggleMode parses EnabledToggle; empty means merge.
func (c *Config) ToggleMode() (patch.ToggleMode, error) {
	m, ok := patch.ParseToggleMode(c.EnabledToggle)
	if !ok {
		return m, fmt.Errorf("enabled_toggle: unknown mode %q", c.EnabledToggle)
	}
	return m, nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return c.ListenAddress + ":" + c.Port }

// Load reads the YAML file at path and applies defaults. A missing file is not
// an error: the defaults alone are a usable dev setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.setDefaults()
	if _, err := cfg.ToggleMode(); err != nil {
		return nil, err
	}
	return cfg, nil
}

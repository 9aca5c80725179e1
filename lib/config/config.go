// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable [Load] reads.
const EnvironmentVariable = "ASSETPIPE_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the assetpipe configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Assets lists where asset bytes come from.
	Assets AssetsConfig `yaml:"assets"`

	// Store configures the asset store's import workers.
	Store StoreConfig `yaml:"store"`

	// Host configures the frame loop that pumps the store.
	Host HostConfig `yaml:"host"`

	// Service configures assetd's inspection socket.
	Service ServiceConfig `yaml:"service"`

	Log LogConfig `yaml:"log"`

	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per
// environment. Zero values leave the base value alone.
type ConfigOverrides struct {
	Assets  *AssetsConfig  `yaml:"assets,omitempty"`
	Store   *StoreConfig   `yaml:"store,omitempty"`
	Host    *HostConfig    `yaml:"host,omitempty"`
	Service *ServiceConfig `yaml:"service,omitempty"`
	Log     *LogConfig     `yaml:"log,omitempty"`
}

// AssetsConfig lists the asset sources in precedence order. Roots
// come before packs, so a loose file overrides the packed copy of the
// same path.
type AssetsConfig struct {
	// Roots are directories read through a filesystem source.
	Roots []string `yaml:"roots"`

	// Packs are .apk archives built by "assetctl pack build".
	Packs []string `yaml:"packs"`
}

// StoreConfig configures the asset store.
type StoreConfig struct {
	// Workers bounds concurrent imports. Zero means one per CPU.
	Workers int `yaml:"workers"`
}

// HostConfig configures the frame loop.
type HostConfig struct {
	// FrameInterval is the time between pumps.
	// Default: 16ms
	FrameInterval time.Duration `yaml:"frame_interval"`

	// PumpSteps is the maximum completions applied per frame.
	// Default: 8
	PumpSteps int `yaml:"pump_steps"`

	// PumpSlice additionally bounds each pump by time. Zero means no
	// time bound.
	PumpSlice time.Duration `yaml:"pump_slice"`
}

// ServiceConfig configures the inspection socket.
type ServiceConfig struct {
	// SocketPath is the Unix socket assetd listens on.
	// Default: ${XDG_RUNTIME_DIR:-/tmp}/assetpipe/assetd.sock
	SocketPath string `yaml:"socket_path"`
}

// LogConfig configures service logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is "text" or "json".
	Format string `yaml:"format"`
}

// Default returns the base configuration a file is merged into.
func Default() *Config {
	return &Config{
		Environment: Development,
		Assets: AssetsConfig{
			Roots: []string{"assets"},
		},
		Host: HostConfig{
			FrameInterval: 16 * time.Millisecond,
			PumpSteps:     8,
		},
		Service: ServiceConfig{
			SocketPath: "${XDG_RUNTIME_DIR:-/tmp}/assetpipe/assetd.sock",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads the file named by ASSETPIPE_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your assetpipe.yaml, or use --config", EnvironmentVariable)
	}
	return LoadFile(configPath)
}

// LoadFile loads configuration from path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.applyEnvironmentOverrides()

	configDir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("resolving config directory: %w", err)
	}
	cfg.expandVariables(configDir)

	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		if overrides == nil {
			overrides = &ConfigOverrides{
				Log: &LogConfig{Level: "info", Format: "json"},
			}
		}
	}

	if overrides == nil {
		return
	}

	if overrides.Assets != nil {
		if len(overrides.Assets.Roots) > 0 {
			c.Assets.Roots = overrides.Assets.Roots
		}
		if len(overrides.Assets.Packs) > 0 {
			c.Assets.Packs = overrides.Assets.Packs
		}
	}

	if overrides.Store != nil && overrides.Store.Workers != 0 {
		c.Store.Workers = overrides.Store.Workers
	}

	if overrides.Host != nil {
		if overrides.Host.FrameInterval != 0 {
			c.Host.FrameInterval = overrides.Host.FrameInterval
		}
		if overrides.Host.PumpSteps != 0 {
			c.Host.PumpSteps = overrides.Host.PumpSteps
		}
		if overrides.Host.PumpSlice != 0 {
			c.Host.PumpSlice = overrides.Host.PumpSlice
		}
	}

	if overrides.Service != nil && overrides.Service.SocketPath != "" {
		c.Service.SocketPath = overrides.Service.SocketPath
	}

	if overrides.Log != nil {
		if overrides.Log.Level != "" {
			c.Log.Level = overrides.Log.Level
		}
		if overrides.Log.Format != "" {
			c.Log.Format = overrides.Log.Format
		}
	}
}

// expandVariables expands path fields and anchors relative asset
// paths at configDir.
func (c *Config) expandVariables(configDir string) {
	vars := map[string]string{
		"CONFIG_DIR": configDir,
		"HOME":       os.Getenv("HOME"),
	}

	for i, root := range c.Assets.Roots {
		c.Assets.Roots[i] = anchor(expandVars(root, vars), configDir)
	}
	for i, pack := range c.Assets.Packs {
		c.Assets.Packs[i] = anchor(expandVars(pack, vars), configDir)
	}
	c.Service.SocketPath = expandVars(c.Service.SocketPath, vars)
}

func anchor(path, dir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. vars are consulted
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if len(c.Assets.Roots) == 0 && len(c.Assets.Packs) == 0 {
		errs = append(errs, errors.New("assets: at least one root or pack is required"))
	}
	for _, root := range c.Assets.Roots {
		if root == "" {
			errs = append(errs, errors.New("assets.roots: empty entry"))
		}
	}
	for _, pack := range c.Assets.Packs {
		if pack == "" {
			errs = append(errs, errors.New("assets.packs: empty entry"))
		}
	}

	if c.Store.Workers < 0 {
		errs = append(errs, fmt.Errorf("store.workers must be >= 0, got %d", c.Store.Workers))
	}

	if c.Host.FrameInterval <= 0 {
		errs = append(errs, fmt.Errorf("host.frame_interval must be positive, got %s", c.Host.FrameInterval))
	}
	if c.Host.PumpSteps < 1 {
		errs = append(errs, fmt.Errorf("host.pump_steps must be >= 1, got %d", c.Host.PumpSteps))
	}
	if c.Host.PumpSlice < 0 {
		errs = append(errs, fmt.Errorf("host.pump_slice must not be negative, got %s", c.Host.PumpSlice))
	}

	if c.Service.SocketPath == "" {
		errs = append(errs, errors.New("service.socket_path is required"))
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level must be one of: %v", logLevels))
	}
	if !slices.Contains(logFormats, c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format must be one of: %v", logFormats))
	}

	return errors.Join(errs...)
}

// EnsureSocketDir creates the directory holding the service socket.
func (c *Config) EnsureSocketDir() error {
	dir := filepath.Dir(c.Service.SocketPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

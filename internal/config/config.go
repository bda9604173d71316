// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all meshbrowse configuration.
type Config struct {
	Loading Loading `yaml:"loading"`
	Tree    Tree    `yaml:"tree"`
	Fetch   Fetch   `yaml:"fetch"`
	Log     Log     `yaml:"log"`
	State   State   `yaml:"state"`
	Metrics Metrics `yaml:"metrics"`
}

// Loading holds readiness debounce settings.
type Loading struct {
	ConfirmationFrames int           `yaml:"confirmation_frames"` // Clean ticks before Ready
	TickInterval       time.Duration `yaml:"tick_interval"`
}

// Tree holds tree description limits.
type Tree struct {
	MaxDepth int `yaml:"max_depth"`
}

// Fetch holds asset fetch settings.
type Fetch struct {
	Timeout     time.Duration `yaml:"timeout"`
	Concurrency int           `yaml:"concurrency"`
}

// Log holds logging settings.
type Log struct {
	Level string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	File  string `yaml:"file"`  // Log destination while the TUI owns the terminal
}

// State holds session persistence settings.
type State struct {
	Dir string `yaml:"dir"`
}

// Metrics holds the prometheus endpoint settings.
type Metrics struct {
	Addr string `yaml:"addr"` // Empty disables the endpoint
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Loading: Loading{
			ConfirmationFrames: 5,
			TickInterval:       50 * time.Millisecond,
		},
		Tree: Tree{
			MaxDepth: 64,
		},
		Fetch: Fetch{
			Timeout:     30 * time.Second,
			Concurrency: 4,
		},
		Log: Log{
			Level: "info",
			File:  ".meshbrowse/meshbrowse.log",
		},
		State: State{
			Dir: ".meshbrowse/sessions",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Loading.ConfirmationFrames < 1 {
		return fmt.Errorf("config: loading.confirmation_frames must be at least 1, got %d", c.Loading.ConfirmationFrames)
	}
	if c.Loading.TickInterval <= 0 {
		return fmt.Errorf("config: loading.tick_interval must be positive, got %v", c.Loading.TickInterval)
	}
	if c.Tree.MaxDepth < 1 {
		return fmt.Errorf("config: tree.max_depth must be at least 1, got %d", c.Tree.MaxDepth)
	}
	if c.Fetch.Timeout < 0 {
		return fmt.Errorf("config: fetch.timeout must be non-negative, got %v", c.Fetch.Timeout)
	}
	if c.Fetch.Concurrency < 1 {
		return fmt.Errorf("config: fetch.concurrency must be at least 1, got %d", c.Fetch.Concurrency)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	if c.State.Dir == "" {
		return errors.New("config: state.dir cannot be empty")
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: MESHBROWSE_LOG_LEVEL, MESHBROWSE_LOG_FILE,
// MESHBROWSE_FETCH_TIMEOUT, MESHBROWSE_FETCH_CONCURRENCY,
// MESHBROWSE_TICK_INTERVAL, MESHBROWSE_CONFIRMATION_FRAMES,
// MESHBROWSE_MAX_DEPTH, MESHBROWSE_STATE_DIR, MESHBROWSE_METRICS_ADDR.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("MESHBROWSE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("MESHBROWSE_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("MESHBROWSE_FETCH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid MESHBROWSE_FETCH_TIMEOUT %q: %w", v, err)
		}
		c.Fetch.Timeout = d
	}
	if v := os.Getenv("MESHBROWSE_FETCH_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid MESHBROWSE_FETCH_CONCURRENCY %q: %w", v, err)
		}
		c.Fetch.Concurrency = n
	}
	if v := os.Getenv("MESHBROWSE_TICK_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid MESHBROWSE_TICK_INTERVAL %q: %w", v, err)
		}
		c.Loading.TickInterval = d
	}
	if v := os.Getenv("MESHBROWSE_CONFIRMATION_FRAMES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid MESHBROWSE_CONFIRMATION_FRAMES %q: %w", v, err)
		}
		c.Loading.ConfirmationFrames = n
	}
	if v := os.Getenv("MESHBROWSE_MAX_DEPTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid MESHBROWSE_MAX_DEPTH %q: %w", v, err)
		}
		c.Tree.MaxDepth = n
	}
	if v := os.Getenv("MESHBROWSE_STATE_DIR"); v != "" {
		c.State.Dir = v
	}
	if v := os.Getenv("MESHBROWSE_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Loading *rawLoading `yaml:"loading"`
	Tree    *rawTree    `yaml:"tree"`
	Fetch   *rawFetch   `yaml:"fetch"`
	Log     *rawLog     `yaml:"log"`
	State   *rawState   `yaml:"state"`
	Metrics *rawMetrics `yaml:"metrics"`
}

type rawLoading struct {
	ConfirmationFrames *int           `yaml:"confirmation_frames"`
	TickInterval       *time.Duration `yaml:"tick_interval"`
}

type rawTree struct {
	MaxDepth *int `yaml:"max_depth"`
}

type rawFetch struct {
	Timeout     *time.Duration `yaml:"timeout"`
	Concurrency *int           `yaml:"concurrency"`
}

type rawLog struct {
	Level *string `yaml:"level"`
	File  *string `yaml:"file"`
}

type rawState struct {
	Dir *string `yaml:"dir"`
}

type rawMetrics struct {
	Addr *string `yaml:"addr"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if l := layer.Loading; l != nil {
		setIf(&c.Loading.ConfirmationFrames, l.ConfirmationFrames)
		setIf(&c.Loading.TickInterval, l.TickInterval)
	}
	if l := layer.Tree; l != nil {
		setIf(&c.Tree.MaxDepth, l.MaxDepth)
	}
	if l := layer.Fetch; l != nil {
		setIf(&c.Fetch.Timeout, l.Timeout)
		setIf(&c.Fetch.Concurrency, l.Concurrency)
	}
	if l := layer.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.File, l.File)
	}
	if l := layer.State; l != nil {
		setIf(&c.State.Dir, l.Dir)
	}
	if l := layer.Metrics; l != nil {
		setIf(&c.Metrics.Addr, l.Addr)
	}
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultDelaySeconds is the wait used when the delay argument is missing or unparsable
const DefaultDelaySeconds = 600

type LoggingCfg struct {
	Level        string `yaml:"level" json:"level"`                 // debug, info, error or off
	File         string `yaml:"file" json:"file"`                   // Optional log file; stderr only when empty
	RotationDays int    `yaml:"rotation_days" json:"rotation_days"` // Days to keep logs before rotation
}

type MetricsCfg struct {
	Textfile string `yaml:"textfile" json:"textfile"` // node_exporter textfile collector target
}

type Config struct {
	DefaultDelaySeconds int        `yaml:"default_delay_seconds" json:"default_delay_seconds"`
	DatabasePath        string     `yaml:"database_path" json:"database_path"` // SQLite history of finished runs; disabled when empty
	Logging             LoggingCfg `yaml:"logging" json:"logging"`
	Metrics             MetricsCfg `yaml:"metrics" json:"metrics"`
}

var (
	errNegativeDelay = errors.New("default_delay_seconds cannot be negative")
	errInvalidPath   = errors.New("path must be absolute")
	errInvalidLevel  = errors.New("logging.level must be one of debug, info, error, off")
)

// Default returns the configuration used when no config file is given.
// It reproduces the bare helper: ERROR-level stderr logging, no history, no metrics.
func Default() *Config {
	cfg := &Config{}
	// Defaults never fail validation
	_ = cfg.validateAndDefault()
	return cfg
}

func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			// Empty file means all defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if c.DefaultDelaySeconds < 0 {
		return errNegativeDelay
	}
	if c.DefaultDelaySeconds == 0 {
		c.DefaultDelaySeconds = DefaultDelaySeconds
	}

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	switch c.Logging.Level {
	case "":
		c.Logging.Level = "error"
	case "debug", "info", "error", "off":
	default:
		return fmt.Errorf("%w: %q", errInvalidLevel, c.Logging.Level)
	}

	// Set defaults for logging
	if c.Logging.RotationDays <= 0 {
		c.Logging.RotationDays = 30
	}

	var err error
	if c.Logging.File, err = cleanOptionalAbsolute(c.Logging.File); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	if c.DatabasePath, err = cleanOptionalAbsolute(c.DatabasePath); err != nil {
		return fmt.Errorf("database_path: %w", err)
	}
	if c.Metrics.Textfile, err = cleanOptionalAbsolute(c.Metrics.Textfile); err != nil {
		return fmt.Errorf("metrics.textfile: %w", err)
	}

	return nil
}

func cleanOptionalAbsolute(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}

func (c *Config) DefaultDelay() time.Duration {
	return time.Duration(c.DefaultDelaySeconds) * time.Second
}

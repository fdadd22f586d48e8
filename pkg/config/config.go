// Package config loads worker pool settings from YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jzx17/gopool/internal/logging"
	"github.com/jzx17/gopool/pkg/worker"
	"gopkg.in/yaml.v3"
)

// FileConfig is the layout of a configuration file
type FileConfig struct {
	Pool    PoolConfig    `yaml:"pool" json:"pool"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// PoolConfig holds worker pool settings
type PoolConfig struct {
	// Threads is the worker count; 0 selects worker.DefaultPoolSize()
	Threads int `yaml:"threads" json:"threads"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// MetricsConfig holds Prometheus exporter settings
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Namespace string `yaml:"namespace" json:"namespace"`
	Addr      string `yaml:"addr" json:"addr"`
}

// Default returns the configuration used when no file is given
func Default() *FileConfig {
	return &FileConfig{
		Logging: LoggingConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Metrics: MetricsConfig{
			Namespace: "gopool",
			Addr:      ":9090",
		},
	}
}

// LoadFile reads a configuration file, choosing the decoder by extension.
// Fields absent from the file keep their Default values.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration
func (f *FileConfig) Validate() error {
	if f.Pool.Threads < 0 {
		return fmt.Errorf("pool.threads must be non-negative")
	}

	if _, err := logging.ParseLevel(f.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}

	switch strings.ToLower(f.Logging.Format) {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("logging.format must be %q or %q, got %q", logging.FormatText, logging.FormatJSON, f.Logging.Format)
	}

	if f.Metrics.Enabled && f.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

// NewLogger builds the logger described by the logging section
func (f *FileConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := logging.ParseLevel(f.Logging.Level)
	if err != nil {
		return nil, err
	}
	return logging.New(w, level, f.Logging.Format)
}

// WorkerPoolConfig converts the pool section into a worker pool configuration
func (f *FileConfig) WorkerPoolConfig(logger *slog.Logger) *worker.FixedWorkerPoolConfig {
	config := worker.DefaultFixedWorkerPoolConfig()
	config.PoolSize = f.Pool.Threads
	if logger != nil {
		config.Logger = logger
	}
	return config
}

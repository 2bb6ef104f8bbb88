// Package cli implements the pqcbridge command surface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/latticegate/pqcbridge/engine"
	"github.com/latticegate/pqcbridge/schedule"
)

// Transport selections for serve.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Duration unmarshals YAML duration strings like "120s" or "2m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Config is the bridge configuration loaded from pqcbridge.yaml.
type Config struct {
	Engine        EngineConfig     `yaml:"engine"`
	Transport     string           `yaml:"transport"`
	HTTP          HTTPConfig       `yaml:"http"`
	MaxConcurrent int              `yaml:"max_concurrent"`
	History       HistoryConfig    `yaml:"history"`
	DescriptorDir string           `yaml:"descriptor_dir"`
	Schedules     []schedule.Entry `yaml:"schedules"`
	Log           LogConfig        `yaml:"log"`
	OTel          OTelConfig       `yaml:"otel"`
}

// EngineConfig locates and bounds the scanner binary.
type EngineConfig struct {
	Path       string   `yaml:"path"`
	Timeout    Duration `yaml:"timeout"`
	ScratchDir string   `yaml:"scratch_dir"`
}

// HTTPConfig configures the http transport listener.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// HistoryConfig configures the dispatch history store.
type HistoryConfig struct {
	DSN string `yaml:"dsn"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// OTelConfig configures trace export. Tracing is disabled when Endpoint is
// empty.
type OTelConfig struct {
	Endpoint string `yaml:"endpoint"`
	Insecure bool   `yaml:"insecure"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Path:    "pqc-scanner",
			Timeout: Duration(engine.DefaultTimeout),
		},
		Transport: TransportStdio,
		HTTP:      HTTPConfig{Addr: ":8643"},
		Log:       LogConfig{Level: "info"},
	}
}

// LoadConfig reads path on top of the defaults and validates the result. An
// empty path returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	clean := strings.TrimSpace(path)
	if clean != "" {
		// #nosec G304 -- CLI config path argument.
		data, err := os.ReadFile(clean)
		if err != nil {
			return Config{}, fmt.Errorf("reading config %q: %w", clean, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config %q: %w", clean, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the constraints the YAML shape cannot express. Schedule
// entries are validated separately when the scheduler is built.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Engine.Path) == "" {
		return errors.New("engine.path is required")
	}
	if c.Engine.Timeout < 0 {
		return errors.New("engine.timeout must not be negative")
	}
	switch c.Transport {
	case TransportStdio, TransportHTTP:
	default:
		return fmt.Errorf("unknown transport %q (use stdio or http)", c.Transport)
	}
	if c.Transport == TransportHTTP && strings.TrimSpace(c.HTTP.Addr) == "" {
		return errors.New("http.addr is required for the http transport")
	}
	if c.MaxConcurrent < 0 {
		return errors.New("max_concurrent must not be negative")
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLogLevel maps a config level name to a slog level.
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q (use debug, info, warn, or error)", level)
	}
}

// resolveConfig loads the --config file and layers any override flags the
// calling command declares on top.
func resolveConfig(cmd *cobra.Command) (Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return Config{}, err
	}

	applyFlagOverrides(cmd, &cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *Config) {
	if changed(cmd, "engine") {
		cfg.Engine.Path, _ = cmd.Flags().GetString("engine")
	}
	if changed(cmd, "engine-timeout") {
		timeout, _ := cmd.Flags().GetDuration("engine-timeout")
		cfg.Engine.Timeout = Duration(timeout)
	}
	if changed(cmd, "scratch-dir") {
		cfg.Engine.ScratchDir, _ = cmd.Flags().GetString("scratch-dir")
	}
	if changed(cmd, "transport") {
		cfg.Transport, _ = cmd.Flags().GetString("transport")
	}
	if changed(cmd, "http-addr") {
		cfg.HTTP.Addr, _ = cmd.Flags().GetString("http-addr")
	}
	if changed(cmd, "history-dsn") {
		cfg.History.DSN, _ = cmd.Flags().GetString("history-dsn")
	}
	if changed(cmd, "descriptor-dir") {
		cfg.DescriptorDir, _ = cmd.Flags().GetString("descriptor-dir")
	}
	if changed(cmd, "max-concurrent") {
		cfg.MaxConcurrent, _ = cmd.Flags().GetInt("max-concurrent")
	}
	if changed(cmd, "log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
}

func changed(cmd *cobra.Command, name string) bool {
	flag := cmd.Flags().Lookup(name)
	return flag != nil && flag.Changed
}

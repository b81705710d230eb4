// ABOUTME: Configuration loading and defaults for hikmaai-censor
// ABOUTME: Handles YAML config files, .env files and CENSOR_* environment overrides

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dario.cat/mergo"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CENSOR_"

// Config holds the complete configuration for hikmaai-censor.
type Config struct {
	// Data directory for the journal.
	DataDir string `yaml:"data_dir"`

	// SchemaFile is the YAML or TOML field schema.
	SchemaFile string `yaml:"schema_file"`

	// MaskingCharacter is the default masking character.
	MaskingCharacter string `yaml:"masking_character" validate:"omitempty,len=1"`

	// Journal configuration.
	Journal JournalConfig `yaml:"journal"`

	// NATS configuration.
	NATS NATSConfig `yaml:"nats"`

	// HTTP server configuration.
	HTTP HTTPConfig `yaml:"http"`

	// Logging configuration.
	Log LogConfig `yaml:"log"`

	// Tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// JournalConfig holds the censored-record journal settings.
type JournalConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Path       string        `yaml:"path"`
	InMemory   bool          `yaml:"in_memory"`
	SyncWrites bool          `yaml:"sync_writes"`
	TTL        time.Duration `yaml:"ttl"`
}

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	// Disabled when empty.
	URL          string        `yaml:"url"`
	Subject      string        `yaml:"subject" validate:"required"`
	BatchSubject string        `yaml:"batch_subject"`
	Queue        string        `yaml:"queue"`
	Timeout      time.Duration `yaml:"timeout"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	// Disabled when empty.
	Addr string `yaml:"addr"`

	// RateLimit is requests per second on write endpoints. Zero disables it.
	RateLimit    float64 `yaml:"rate_limit" validate:"gte=0"`
	Burst        int     `yaml:"burst" validate:"gte=0"`
	MaxBodyBytes int64   `yaml:"max_body_bytes" validate:"gte=0"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn warning error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

// TracingConfig holds tracing settings.
type TracingConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Endpoint      string  `yaml:"endpoint"`
	Insecure      bool    `yaml:"insecure"`
	SamplingRatio float64 `yaml:"sampling_ratio" validate:"gte=0,lte=1"`
}

// DefaultConfig returns a Config with default values.
// External dependencies (NATS, HTTP, tracing, journal) are disabled by
// default for standalone single-binary operation.
func DefaultConfig() *Config {
	return &Config{
		DataDir:          DefaultDataDir(),
		MaskingCharacter: "X",
		NATS: NATSConfig{
			Subject:      "hikmaai.censor.request",
			BatchSubject: "hikmaai.censor.batch",
			Queue:        "censor-workers",
			Timeout:      5 * time.Second,
		},
		HTTP: HTTPConfig{
			RateLimit:       50,
			Burst:           100,
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: TracingConfig{
			Endpoint:      "localhost:4317",
			Insecure:      true,
			SamplingRatio: 1.0,
		},
	}
}

// Load returns the defaults overlaid with the YAML file at path (if path is
// non-empty) and then with CENSOR_* environment variables.
//
// File values override defaults only when non-zero, so a file cannot turn a
// default-on boolean off; use the environment for that.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := cfg.merge(data); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(data []byte) error {
	var file Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return mergo.Merge(c, file, mergo.WithOverride)
}

// LoadEnvFile loads variables from a .env file into the process
// environment without overriding variables that are already set.
func LoadEnvFile(path string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := godotenv.Load(path); err != nil {
		logger.Warn("could not load .env file, continuing with existing environment",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return
	}
	logger.Debug("loaded environment", slog.String("path", path))
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Journal.TTL < 0 {
		return errors.New("invalid config: journal.ttl must not be negative")
	}
	if c.NATS.Timeout < 0 || c.HTTP.ShutdownTimeout < 0 {
		return errors.New("invalid config: timeouts must not be negative")
	}
	return nil
}

// JournalPath returns the journal directory, defaulting to DataDir/journal.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.DataDir, "journal")
}

// applyEnv overlays CENSOR_* variables found through lookup.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	var errs []error
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("DATA_DIR", &cfg.DataDir)
	str("SCHEMA_FILE", &cfg.SchemaFile)
	str("MASKING_CHARACTER", &cfg.MaskingCharacter)

	boolean("JOURNAL_ENABLED", &cfg.Journal.Enabled)
	str("JOURNAL_PATH", &cfg.Journal.Path)
	boolean("JOURNAL_IN_MEMORY", &cfg.Journal.InMemory)
	duration("JOURNAL_TTL", &cfg.Journal.TTL)

	str("NATS_URL", &cfg.NATS.URL)
	str("NATS_SUBJECT", &cfg.NATS.Subject)
	str("NATS_QUEUE", &cfg.NATS.Queue)

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	float("HTTP_RATE_LIMIT", &cfg.HTTP.RateLimit)

	str("LOG_LEVEL", &cfg.Log.Level)
	str("LOG_FORMAT", &cfg.Log.Format)

	boolean("TRACING_ENABLED", &cfg.Tracing.Enabled)
	str("TRACING_ENDPOINT", &cfg.Tracing.Endpoint)
	boolean("TRACING_INSECURE", &cfg.Tracing.Insecure)
	float("TRACING_SAMPLING_RATIO", &cfg.Tracing.SamplingRatio)

	return errors.Join(errs...)
}

// DefaultDataDir returns the default data directory.
func DefaultDataDir() string {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "hikmaai-censor")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/var/lib/hikmaai-censor"
	}

	return filepath.Join(home, ".local", "share", "hikmaai-censor")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hikmaai-censor", "config.yaml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "/etc/hikmaai-censor/config.yaml"
	}

	return filepath.Join(home, ".config", "hikmaai-censor", "config.yaml")
}

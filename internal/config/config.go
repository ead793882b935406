// Package config provides configuration types and defaults for peruse.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/flags"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/source"
	"github.com/zjrosen/peruse/internal/tracing"
)

// Config holds all configuration options for peruse.
type Config struct {
	DataDir  string          `mapstructure:"data_dir"`
	Encoding string          `mapstructure:"encoding"`
	Reader   ReaderConfig    `mapstructure:"reader"`
	UI       UIConfig        `mapstructure:"ui"`
	Tracing  tracing.Config  `mapstructure:"tracing"`
	Flags    map[string]bool `mapstructure:"flags"`
}

// ReaderConfig sizes the cursor pipeline.
type ReaderConfig struct {
	CacheSize  int `mapstructure:"cache_size"`  // rows kept around the current one
	BlockSize  int `mapstructure:"block_size"`  // characters per decoded block
	BlockCount int `mapstructure:"block_count"` // decoded blocks kept in memory
	TabSize    int `mapstructure:"tab_size"`
	Width      int `mapstructure:"width"` // 0 follows the terminal
}

// UIConfig holds user interface options.
type UIConfig struct {
	ShowStatusBar bool `mapstructure:"show_status_bar"`
}

// DefaultDataDir is where the library and traces live unless data_dir is
// set.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".peruse"
	}
	return filepath.Join(home, ".config", "peruse")
}

// Defaults returns the configuration used for unset keys.
func Defaults() Config {
	return Config{
		DataDir:  DefaultDataDir(),
		Encoding: source.UTF8,
		Reader: ReaderConfig{
			CacheSize:  cursor.DefaultCacheSize,
			BlockSize:  cursor.DefaultBlockSize,
			BlockCount: cursor.DefaultBlockCount,
			TabSize:    layout.DefaultTabSize,
		},
		UI:      UIConfig{ShowStatusBar: true},
		Tracing: tracing.DefaultConfig(),
		Flags:   flags.Defaults(),
	}
}

// SetDefaults registers every key of Defaults with v so that environment
// variables and partial files fall back to them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("data_dir", d.DataDir)
	v.SetDefault("encoding", d.Encoding)
	v.SetDefault("reader.cache_size", d.Reader.CacheSize)
	v.SetDefault("reader.block_size", d.Reader.BlockSize)
	v.SetDefault("reader.block_count", d.Reader.BlockCount)
	v.SetDefault("reader.tab_size", d.Reader.TabSize)
	v.SetDefault("reader.width", d.Reader.Width)
	v.SetDefault("ui.show_status_bar", d.UI.ShowStatusBar)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	for name, on := range d.Flags {
		v.SetDefault("flags."+name, on)
	}
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.Tracing.FilePath = expandHome(cfg.Tracing.FilePath)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks the values a book cannot be opened with.
func Validate(c Config) error {
	if !source.Supported(c.Encoding) {
		return fmt.Errorf("encoding %q is not supported (want one of %s)",
			c.Encoding, strings.Join(source.Encodings(), ", "))
	}
	if err := ValidateReader(c.Reader); err != nil {
		return err
	}
	return ValidateTracing(c.Tracing)
}

// ValidateReader checks the pipeline sizes.
func ValidateReader(r ReaderConfig) error {
	switch {
	case r.CacheSize < 1:
		return fmt.Errorf("reader.cache_size must be at least 1, got %d", r.CacheSize)
	case r.BlockSize < 1:
		return fmt.Errorf("reader.block_size must be at least 1, got %d", r.BlockSize)
	case r.BlockCount < 1:
		return fmt.Errorf("reader.block_count must be at least 1, got %d", r.BlockCount)
	case r.TabSize < 1:
		return fmt.Errorf("reader.tab_size must be at least 1, got %d", r.TabSize)
	case r.Width < 0:
		return fmt.Errorf("reader.width must not be negative, got %d", r.Width)
	}
	return nil
}

// ValidateTracing checks tracing configuration.
func ValidateTracing(t tracing.Config) error {
	if t.SampleRate < 0.0 || t.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", t.SampleRate)
	}

	switch t.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", t.Exporter)
	}

	if t.Enabled && t.Exporter == tracing.ExporterOTLP && t.OTLPEndpoint == "" {
		return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
	}
	return nil
}

// LibraryDir returns the directory holding the library database.
func (c Config) LibraryDir() string { return c.DataDir }

// TracingConfig returns the tracing configuration with the trace file
// defaulted into the data directory.
func (c Config) TracingConfig() tracing.Config {
	t := c.Tracing
	if t.FilePath == "" {
		t.FilePath = filepath.Join(c.DataDir, "traces", "traces.jsonl")
	}
	return t
}

// DefaultConfigTemplate returns the commented YAML written on first run.
func DefaultConfigTemplate() string {
	return `# Peruse Configuration

# Where the library database and traces are kept (default: ~/.config/peruse)
# data_dir: ~/.config/peruse

# Character encoding of books: utf-8, utf-16le, utf-16be, windows-1251,
# windows-1252, koi8-r, iso-8859-1
encoding: utf-8

# Reading pipeline
reader:
  cache_size: 300    # Rows kept around the current row
  block_size: 4096   # Characters decoded per block
  block_count: 64    # Decoded blocks kept in memory
  tab_size: 4        # Tab stop distance in plain text
  width: 0           # Row width in cells, 0 follows the terminal

# UI settings
ui:
  show_status_bar: true   # Show status bar at bottom

# Feature flags
# flags:
#   prefetch: true        # Warm the next page in the background
#   trace-cursors: false  # Record a span for every row navigation
#   log-cursors: false    # Log layout calls made by the row cache (with --debug)
#   watch: true           # Reload the book when it changes on disk

# Tracing of cursor navigation (needs flags.trace-cursors)
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/peruse/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}

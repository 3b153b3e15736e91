package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hbkit/handbook-extract/internal/layout"
)

const (
	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultWorkers     = 1
)

// Config holds all configuration for the handbook extractor.
type Config struct {
	// Input: exactly one of PDFPath (positional argument) or InputDir
	// (batch mode) must be set.
	PDFPath  string
	InputDir string

	// Output
	OutputDir string

	// Field configuration
	FieldsFile string

	// Layout heuristics
	Margin     float64
	LineGap    float64
	MinOverlap float64

	// Application configuration
	Workers     int
	Version     string
	LogLevel    string
	MaxFileSize int64
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Margin:      layout.DefaultTerminatorMargin,
		LineGap:     layout.DefaultLineGap,
		MinOverlap:  layout.DefaultMinOverlap,
		Workers:     DefaultWorkers,
		Version:     "1.0.0",
		LogLevel:    DefaultLogLevel,
		MaxFileSize: DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration.
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	pflag.Parse()

	populateConfigFromViper(cfg)

	// The handbook path is the single positional argument.
	args := pflag.Args()
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one PDF path, got %d arguments", len(args))
	}
	if len(args) == 1 {
		cfg.PDFPath = args[0]
	}

	// Expand paths if needed
	if cfg.OutputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.OutputDir); err == nil {
			cfg.OutputDir = expandedPath
		}
	}
	if cfg.InputDir != "" {
		if expandedPath, err := filepath.Abs(cfg.InputDir); err == nil {
			cfg.InputDir = expandedPath
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults.
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix("HANDBOOK")
	viper.AutomaticEnv()

	viper.SetDefault("output", cfg.OutputDir)
	viper.SetDefault("dir", cfg.InputDir)
	viper.SetDefault("fields", cfg.FieldsFile)
	viper.SetDefault("margin", cfg.Margin)
	viper.SetDefault("linegap", cfg.LineGap)
	viper.SetDefault("minoverlap", cfg.MinOverlap)
	viper.SetDefault("workers", cfg.Workers)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags.
func defineCommandLineFlags(cfg *Config) {
	pflag.StringP("output", "o", cfg.OutputDir, "Directory to write extracted module files to (stdout when omitted)")
	pflag.String("dir", cfg.InputDir, "Batch mode: extract every PDF under this directory")
	pflag.String("fields", cfg.FieldsFile, "YAML field spec file overriding the built-in handbook fields")
	pflag.Float64("margin", cfg.Margin, "Vertical gap kept above a terminator row, in points")
	pflag.Float64("linegap", cfg.LineGap, "Vertical gap treated as a line break, in points")
	pflag.Float64("minoverlap", cfg.MinOverlap, "Fragment/box overlap ratio required for containment (0 = any overlap)")
	pflag.Int("workers", cfg.Workers, "Number of pages matched concurrently")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration.
func bindFlagsToViper() {
	_ = viper.BindPFlag("output", pflag.Lookup("output"))
	_ = viper.BindPFlag("dir", pflag.Lookup("dir"))
	_ = viper.BindPFlag("fields", pflag.Lookup("fields"))
	_ = viper.BindPFlag("margin", pflag.Lookup("margin"))
	_ = viper.BindPFlag("linegap", pflag.Lookup("linegap"))
	_ = viper.BindPFlag("minoverlap", pflag.Lookup("minoverlap"))
	_ = viper.BindPFlag("workers", pflag.Lookup("workers"))
	_ = viper.BindPFlag("loglevel", pflag.Lookup("loglevel"))
	_ = viper.BindPFlag("maxfilesize", pflag.Lookup("maxfilesize"))
}

// setupUsageMessage configures the custom usage message.
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nHandbook Extract - extracts module fields from tabular PDF handbooks\n\n")
		fmt.Fprintf(os.Stderr, "  %s [options] <handbook.pdf>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s handbook.pdf                       # print extracted modules to stdout\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -o out/ handbook.pdf               # write per-module directories\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --dir=handbooks/ -o out/           # batch mode over a directory\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --fields=fields.yaml handbook.pdf  # custom field set\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  HANDBOOK_OUTPUT       Output directory\n")
		fmt.Fprintf(os.Stderr, "  HANDBOOK_DIR          Batch input directory\n")
		fmt.Fprintf(os.Stderr, "  HANDBOOK_FIELDS       Field spec file\n")
		fmt.Fprintf(os.Stderr, "  HANDBOOK_LOGLEVEL     Log level\n")
		fmt.Fprintf(os.Stderr, "  HANDBOOK_MAXFILESIZE  Maximum file size\n")
	}
}

// populateConfigFromViper fills the config struct with values from viper.
func populateConfigFromViper(cfg *Config) {
	cfg.OutputDir = viper.GetString("output")
	cfg.InputDir = viper.GetString("dir")
	cfg.FieldsFile = viper.GetString("fields")
	cfg.Margin = viper.GetFloat64("margin")
	cfg.LineGap = viper.GetFloat64("linegap")
	cfg.MinOverlap = viper.GetFloat64("minoverlap")
	cfg.Workers = viper.GetInt("workers")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.PDFPath == "" && c.InputDir == "" {
		return errors.New("a PDF path or --dir is required")
	}
	if c.PDFPath != "" && c.InputDir != "" {
		return errors.New("a PDF path and --dir are mutually exclusive")
	}

	if c.Margin < 0 {
		return errors.New("margin cannot be negative")
	}
	if c.LineGap <= 0 {
		return errors.New("line gap must be positive")
	}
	if c.MinOverlap < 0 || c.MinOverlap >= 1 {
		return errors.New("minimum overlap ratio must be in [0, 1)")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// IsDebug returns true if debug logging is enabled.
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsBatchMode returns true when a whole directory of handbooks is
// processed instead of a single file.
func (c *Config) IsBatchMode() bool {
	return c.InputDir != ""
}

// String returns a string representation of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf("Config{PDFPath: %s, InputDir: %s, OutputDir: %s, FieldsFile: %s, Workers: %d, LogLevel: %s, MaxFileSize: %d}",
		c.PDFPath, c.InputDir, c.OutputDir, c.FieldsFile, c.Workers, c.LogLevel, c.MaxFileSize)
}

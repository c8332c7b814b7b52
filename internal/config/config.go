package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// Mode constants
	ModeExtract = "extract"
	ModeMCP     = "mcp"

	// Output formats
	FormatJSON = "json"
	FormatCSV  = "csv"

	// Default values
	DefaultTemplate    = "template.json"
	DefaultFormat      = FormatJSON
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	// EnvPrefix is prepended to every environment override
	EnvPrefix = "STR_EXTRACT"
)

// ErrVersionRequested is returned by LoadFromFlags when --version is given
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the extractor
type Config struct {
	Mode string // "extract" or "mcp"

	// Templates
	TemplatePath          string
	WithSpouseTemplate    string
	WithoutSpouseTemplate string
	InitTemplate          string // write a starter template here and exit

	// Extraction
	ProfilePath string
	OverlayDir  string
	Inputs      []string

	// Output
	OutputPath string
	Format     string

	// MCP tool server
	Directory string

	// Application configuration
	ConfigFile  string
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	return &Config{
		Mode:         ModeExtract,
		TemplatePath: DefaultTemplate,
		Format:       DefaultFormat,
		Directory:    currentDir,
		Version:      "1.0.0",
		ServerName:   "str-extract",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
	}
}

// LoadFromFlags parses command line flags, the optional config file and
// STR_EXTRACT_* environment variables, and returns a validated configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	if err := readConfigFile(); err != nil {
		return nil, err
	}

	populateConfigFromViper(cfg)
	cfg.Inputs = pflag.Args()

	if cfg.Directory != "" {
		if expandedPath, err := filepath.Abs(cfg.Directory); err == nil {
			cfg.Directory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("template", cfg.TemplatePath)
	viper.SetDefault("template-with-spouse", "")
	viper.SetDefault("template-without-spouse", "")
	viper.SetDefault("output", "")
	viper.SetDefault("format", cfg.Format)
	viper.SetDefault("profile", "")
	viper.SetDefault("overlay-dir", "")
	viper.SetDefault("dir", cfg.Directory)
	viper.SetDefault("loglevel", cfg.LogLevel)
	viper.SetDefault("maxfilesize", cfg.MaxFileSize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("config", "", "Config file (yaml, toml or json)")
	pflag.String("mode", cfg.Mode, "Run mode: 'extract' processes the given PDFs, 'mcp' serves tools over stdio")
	pflag.String("template", cfg.TemplatePath, "Bootstrap template used to pick the form variant")
	pflag.String("template-with-spouse", "", "Template for forms with a spouse section (default: "+
		"template_with_pasangan.json next to --template)")
	pflag.String("template-without-spouse", "", "Template for forms without a spouse section (default: "+
		"template_without_pasangan.json next to --template)")
	pflag.StringP("output", "o", "", "Output file (default: <input>.<format> or str_extracted.<format>)")
	pflag.String("format", cfg.Format, "Output format (json, csv)")
	pflag.String("profile", "", "TOML section profile overriding the built-in keywords and tolerances")
	pflag.String("overlay-dir", "", "Write an extraction overlay PDF per input into this directory")
	pflag.String("dir", cfg.Directory, "Directory the MCP tools may read from (mcp mode only)")
	pflag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	pflag.String("init-template", "", "Write a starter template to this path, sized from the first input")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "template", "template-with-spouse", "template-without-spouse",
		"output", "format", "profile", "overlay-dir", "dir", "loglevel", "maxfilesize",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nSTR Extract - field extraction for STR application form PDFs\n\n")
		fmt.Fprintf(os.Stderr, "  %s [flags] file.pdf [more.pdf ...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s borang.pdf                              # writes borang.json\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --format=csv a.pdf b.pdf                # writes str_extracted.csv\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --overlay-dir=overlays borang.pdf       # also draws the boxes\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --init-template=template.json borang.pdf # starter template\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=mcp --dir=/path/to/forms         # MCP tool server\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_MODE                    Run mode\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_TEMPLATE                Bootstrap template\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_TEMPLATE_WITH_SPOUSE    Template with spouse section\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_TEMPLATE_WITHOUT_SPOUSE Template without spouse section\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_FORMAT                  Output format\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_PROFILE                 Section profile\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_DIR                     MCP directory\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_LOGLEVEL                Log level\n")
		fmt.Fprintf(os.Stderr, "  STR_EXTRACT_MAXFILESIZE             Maximum file size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return ErrVersionRequested
		}
	}
	return nil
}

// readConfigFile merges the file named by --config under the flag values
func readConfigFile() error {
	path, _ := pflag.CommandLine.GetString("config")
	if path == "" {
		return nil
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("cannot read config file %s: %w", path, err)
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.ConfigFile = viper.ConfigFileUsed()
	cfg.Mode = viper.GetString("mode")
	cfg.TemplatePath = viper.GetString("template")
	cfg.WithSpouseTemplate = viper.GetString("template-with-spouse")
	cfg.WithoutSpouseTemplate = viper.GetString("template-without-spouse")
	cfg.OutputPath = viper.GetString("output")
	cfg.Format = strings.ToLower(viper.GetString("format"))
	cfg.ProfilePath = viper.GetString("profile")
	cfg.OverlayDir = viper.GetString("overlay-dir")
	cfg.Directory = viper.GetString("dir")
	cfg.LogLevel = viper.GetString("loglevel")
	cfg.MaxFileSize = viper.GetInt64("maxfilesize")
	cfg.InitTemplate, _ = pflag.CommandLine.GetString("init-template")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeExtract && c.Mode != ModeMCP {
		return errors.New("mode must be either 'extract' or 'mcp'")
	}

	if c.Format != FormatJSON && c.Format != FormatCSV {
		return fmt.Errorf("invalid format: %s (must be one of: json, csv)", c.Format)
	}

	if c.TemplatePath == "" {
		return errors.New("template path cannot be empty")
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

	switch c.Mode {
	case ModeExtract:
		if len(c.Inputs) == 0 && c.InitTemplate == "" {
			return errors.New("at least one input PDF is required")
		}
	case ModeMCP:
		if c.Directory == "" {
			return errors.New("directory cannot be empty")
		}
		info, err := os.Stat(c.Directory)
		if err != nil {
			return fmt.Errorf("cannot access directory %s: %w", c.Directory, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", c.Directory)
		}
	}

	return nil
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// IsMCPMode returns true when the tool server should be started
func (c *Config) IsMCPMode() bool {
	return c.Mode == ModeMCP
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Template: %s, Format: %s, Output: %s, Inputs: %d, LogLevel: %s, MaxFileSize: %d}",
		c.Mode, c.TemplatePath, c.Format, c.OutputPath, len(c.Inputs), c.LogLevel, c.MaxFileSize)
}

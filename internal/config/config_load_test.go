package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var envVars = []string{
	"STR_EXTRACT_MODE",
	"STR_EXTRACT_TEMPLATE",
	"STR_EXTRACT_TEMPLATE_WITH_SPOUSE",
	"STR_EXTRACT_FORMAT",
	"STR_EXTRACT_LOGLEVEL",
	"STR_EXTRACT_MAXFILESIZE",
	"STR_EXTRACT_DIR",
}

// resetFlags gives every test a fresh flag set and viper instance
func resetFlags() {
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}

func clearEnvVars() {
	for _, name := range envVars {
		os.Unsetenv(name)
	}
}

// withArgs runs fn with os.Args set to args and restores global state after
func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
		resetFlags()
		clearEnvVars()
	}()
	os.Args = args
	resetFlags()
	fn()
}

func TestLoadFromFlags_Defaults(t *testing.T) {
	clearEnvVars()
	withArgs(t, []string{"str-extract", "borang.pdf"}, func() {
		cfg, err := LoadFromFlags()
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.Mode != ModeExtract {
			t.Errorf("Mode = %v, want %v", cfg.Mode, ModeExtract)
		}
		if cfg.TemplatePath != DefaultTemplate {
			t.Errorf("TemplatePath = %v, want %v", cfg.TemplatePath, DefaultTemplate)
		}
		if cfg.Format != FormatJSON {
			t.Errorf("Format = %v, want %v", cfg.Format, FormatJSON)
		}
		if cfg.MaxFileSize != DefaultMaxFileSize {
			t.Errorf("MaxFileSize = %v, want %v", cfg.MaxFileSize, DefaultMaxFileSize)
		}
		if len(cfg.Inputs) != 1 || cfg.Inputs[0] != "borang.pdf" {
			t.Errorf("Inputs = %v, want [borang.pdf]", cfg.Inputs)
		}
		if !filepath.IsAbs(cfg.Directory) {
			t.Errorf("Directory = %v, want an absolute path", cfg.Directory)
		}
	})
}

func TestLoadFromFlags_ValidFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantFormat string
		wantOutput string
		wantLevel  string
		wantInputs int
		wantSpouse string
	}{
		{
			name:       "csv batch",
			args:       []string{"str-extract", "--format=csv", "a.pdf", "b.pdf"},
			wantFormat: "csv",
			wantLevel:  "info",
			wantInputs: 2,
		},
		{
			name:       "explicit output and upper-case format",
			args:       []string{"str-extract", "-o", "out.json", "--format=JSON", "a.pdf"},
			wantFormat: "json",
			wantOutput: "out.json",
			wantLevel:  "info",
			wantInputs: 1,
		},
		{
			name:       "variant template and debug logging",
			args:       []string{"str-extract", "--loglevel=debug", "--template-with-spouse=married.json", "a.pdf"},
			wantFormat: "json",
			wantLevel:  "debug",
			wantInputs: 1,
			wantSpouse: "married.json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			withArgs(t, tt.args, func() {
				cfg, err := LoadFromFlags()
				if err != nil {
					t.Fatalf("LoadFromFlags() unexpected error: %v", err)
				}
				if cfg.Format != tt.wantFormat {
					t.Errorf("Format = %v, want %v", cfg.Format, tt.wantFormat)
				}
				if cfg.OutputPath != tt.wantOutput {
					t.Errorf("OutputPath = %v, want %v", cfg.OutputPath, tt.wantOutput)
				}
				if cfg.LogLevel != tt.wantLevel {
					t.Errorf("LogLevel = %v, want %v", cfg.LogLevel, tt.wantLevel)
				}
				if len(cfg.Inputs) != tt.wantInputs {
					t.Errorf("Inputs = %v, want %d entries", cfg.Inputs, tt.wantInputs)
				}
				if cfg.WithSpouseTemplate != tt.wantSpouse {
					t.Errorf("WithSpouseTemplate = %v, want %v", cfg.WithSpouseTemplate, tt.wantSpouse)
				}
			})
		})
	}
}

func TestLoadFromFlags_EnvironmentVariables(t *testing.T) {
	tempDir := t.TempDir()
	os.Setenv("STR_EXTRACT_MODE", "mcp")
	os.Setenv("STR_EXTRACT_DIR", tempDir)
	os.Setenv("STR_EXTRACT_TEMPLATE_WITH_SPOUSE", "kahwin.json")
	os.Setenv("STR_EXTRACT_LOGLEVEL", "warn")
	os.Setenv("STR_EXTRACT_MAXFILESIZE", "200000000")

	withArgs(t, []string{"str-extract"}, func() {
		cfg, err := LoadFromFlags()
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.Mode != ModeMCP {
			t.Errorf("Mode = %v, want %v", cfg.Mode, ModeMCP)
		}
		if cfg.Directory != tempDir {
			t.Errorf("Directory = %v, want %v", cfg.Directory, tempDir)
		}
		if cfg.WithSpouseTemplate != "kahwin.json" {
			t.Errorf("WithSpouseTemplate = %v, want kahwin.json", cfg.WithSpouseTemplate)
		}
		if cfg.LogLevel != "warn" {
			t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
		}
		if cfg.MaxFileSize != 200000000 {
			t.Errorf("MaxFileSize = %v, want 200000000", cfg.MaxFileSize)
		}
	})
}

func TestLoadFromFlags_FlagOverridesEnvironment(t *testing.T) {
	os.Setenv("STR_EXTRACT_FORMAT", "csv")
	os.Setenv("STR_EXTRACT_TEMPLATE", "env.json")

	withArgs(t, []string{"str-extract", "--format=json", "--template=flag.json", "a.pdf"}, func() {
		cfg, err := LoadFromFlags()
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.Format != "json" {
			t.Errorf("Format = %v, want json (should override env)", cfg.Format)
		}
		if cfg.TemplatePath != "flag.json" {
			t.Errorf("TemplatePath = %v, want flag.json (should override env)", cfg.TemplatePath)
		}
	})
}

func TestLoadFromFlags_ConfigFile(t *testing.T) {
	clearEnvVars()
	path := filepath.Join(t.TempDir(), "str.toml")
	content := "format = \"csv\"\ntemplate = \"file.json\"\nloglevel = \"error\"\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	withArgs(t, []string{"str-extract", "--config=" + path, "--loglevel=debug", "a.pdf"}, func() {
		cfg, err := LoadFromFlags()
		if err != nil {
			t.Fatalf("LoadFromFlags() unexpected error: %v", err)
		}
		if cfg.Format != "csv" {
			t.Errorf("Format = %v, want csv from config file", cfg.Format)
		}
		if cfg.TemplatePath != "file.json" {
			t.Errorf("TemplatePath = %v, want file.json from config file", cfg.TemplatePath)
		}
		if cfg.LogLevel != "debug" {
			t.Errorf("LogLevel = %v, want debug (flag should override config file)", cfg.LogLevel)
		}
		if cfg.ConfigFile != path {
			t.Errorf("ConfigFile = %v, want %v", cfg.ConfigFile, path)
		}
	})
}

func TestLoadFromFlags_MissingConfigFile(t *testing.T) {
	clearEnvVars()
	withArgs(t, []string{"str-extract", "--config=/non/existent/str.toml", "a.pdf"}, func() {
		_, err := LoadFromFlags()
		if err == nil || !strings.Contains(err.Error(), "cannot read config file") {
			t.Errorf("LoadFromFlags() error = %v, want config file error", err)
		}
	})
}

func TestLoadFromFlags_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"invalid mode", []string{"str-extract", "--mode=server", "a.pdf"}, "mode must be either 'extract' or 'mcp'"},
		{"invalid format", []string{"str-extract", "--format=xml", "a.pdf"}, "invalid format"},
		{"invalid log level", []string{"str-extract", "--loglevel=invalid", "a.pdf"}, "invalid log level"},
		{"no inputs", []string{"str-extract"}, "at least one input PDF is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			withArgs(t, tt.args, func() {
				_, err := LoadFromFlags()
				if err == nil {
					t.Fatalf("LoadFromFlags() expected error")
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("LoadFromFlags() error = %v, want error containing %q", err, tt.wantErr)
				}
			})
		})
	}
}

func TestLoadFromFlags_VersionFlag(t *testing.T) {
	clearEnvVars()
	withArgs(t, []string{"str-extract", "--version"}, func() {
		_, err := LoadFromFlags()
		if !errors.Is(err, ErrVersionRequested) {
			t.Errorf("LoadFromFlags() error = %v, want %v", err, ErrVersionRequested)
		}
	})
}

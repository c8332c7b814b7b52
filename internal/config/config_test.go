package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mode != "extract" {
		t.Errorf("Expected default mode to be 'extract', got '%s'", cfg.Mode)
	}

	if cfg.TemplatePath != "template.json" {
		t.Errorf("Expected default template to be 'template.json', got '%s'", cfg.TemplatePath)
	}

	if cfg.Format != "json" {
		t.Errorf("Expected default format to be 'json', got '%s'", cfg.Format)
	}

	if cfg.ServerName != "str-extract" {
		t.Errorf("Expected default server name to be 'str-extract', got '%s'", cfg.ServerName)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("Expected default log level to be 'info', got '%s'", cfg.LogLevel)
	}

	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Expected default max file size to be 100MB, got %d", cfg.MaxFileSize)
	}

	currentDir, _ := os.Getwd()
	if cfg.Directory != currentDir {
		t.Errorf("Expected default directory to be '%s', got '%s'", currentDir, cfg.Directory)
	}
}

func TestConfigValidate(t *testing.T) {
	tempDir := t.TempDir()
	notDir := filepath.Join(tempDir, "file.txt")
	if err := os.WriteFile(notDir, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	withInputs := func(mut func(c *Config)) *Config {
		c := DefaultConfig()
		c.Inputs = []string{"borang.pdf"}
		if mut != nil {
			mut(c)
		}
		return c
	}

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{
			name:   "valid extract config",
			config: withInputs(nil),
		},
		{
			name:   "valid csv config",
			config: withInputs(func(c *Config) { c.Format = FormatCSV }),
		},
		{
			name:   "init template without inputs",
			config: withInputs(func(c *Config) { c.Inputs = nil; c.InitTemplate = "template.json" }),
		},
		{
			name:   "valid mcp config",
			config: withInputs(func(c *Config) { c.Mode = ModeMCP; c.Inputs = nil; c.Directory = tempDir }),
		},
		{
			name:    "invalid mode",
			config:  withInputs(func(c *Config) { c.Mode = "server" }),
			wantErr: "mode must be either",
		},
		{
			name:    "invalid format",
			config:  withInputs(func(c *Config) { c.Format = "xml" }),
			wantErr: "invalid format",
		},
		{
			name:    "empty template",
			config:  withInputs(func(c *Config) { c.TemplatePath = "" }),
			wantErr: "template path cannot be empty",
		},
		{
			name:    "zero max file size",
			config:  withInputs(func(c *Config) { c.MaxFileSize = 0 }),
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "negative max file size",
			config:  withInputs(func(c *Config) { c.MaxFileSize = -1 }),
			wantErr: "maximum file size must be positive",
		},
		{
			name:    "invalid log level",
			config:  withInputs(func(c *Config) { c.LogLevel = "trace" }),
			wantErr: "invalid log level",
		},
		{
			name:    "extract without inputs",
			config:  withInputs(func(c *Config) { c.Inputs = nil }),
			wantErr: "at least one input PDF is required",
		},
		{
			name:    "mcp with missing directory",
			config:  withInputs(func(c *Config) { c.Mode = ModeMCP; c.Directory = filepath.Join(tempDir, "nope") }),
			wantErr: "cannot access directory",
		},
		{
			name:    "mcp with file as directory",
			config:  withInputs(func(c *Config) { c.Mode = ModeMCP; c.Directory = notDir }),
			wantErr: "is not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.IsDebug() {
		t.Error("IsDebug() should be false for info level")
	}
	cfg.LogLevel = "debug"
	if !cfg.IsDebug() {
		t.Error("IsDebug() should be true for debug level")
	}

	if cfg.IsMCPMode() {
		t.Error("IsMCPMode() should be false in extract mode")
	}
	cfg.Mode = ModeMCP
	if !cfg.IsMCPMode() {
		t.Error("IsMCPMode() should be true in mcp mode")
	}

	cfg.Inputs = []string{"a.pdf", "b.pdf"}
	s := cfg.String()
	for _, want := range []string{"Mode: mcp", "Template: template.json", "Inputs: 2"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %s, want it to contain %q", s, want)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

// load parses args on a fresh flag set and loads the configuration from it.
func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("form-fields", pflag.ContinueOnError)
	BindFlags(fs, DefaultConfig())
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) unexpected error: %v", args, err)
	}
	return Load(fs)
}

func TestLoad_DefaultConfig(t *testing.T) {
	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	// Verify default values
	if cfg.Mode != "stdio" {
		t.Errorf("Load() Mode = %v, want %v", cfg.Mode, "stdio")
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("Load() Host = %v, want %v", cfg.Host, "127.0.0.1")
	}
	if cfg.Port != 8080 {
		t.Errorf("Load() Port = %v, want %v", cfg.Port, 8080)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want %v", cfg.LogLevel, "info")
	}
	if cfg.MaxFileSize != 100*1024*1024 {
		t.Errorf("Load() MaxFileSize = %v, want %v", cfg.MaxFileSize, 100*1024*1024)
	}
	if cfg.Annotator.Timeout != 30*time.Second {
		t.Errorf("Load() Annotator.Timeout = %v, want 30s", cfg.Annotator.Timeout)
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "csv" {
		t.Errorf("Load() Output.Formats = %v, want [csv]", cfg.Output.Formats)
	}
	// PDFDirectory should be current working directory
	if cfg.PDFDirectory == "" {
		t.Error("Load() PDFDirectory should not be empty")
	}
}

func TestLoad_ValidFlags(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg *Config)
	}{
		{
			name: "server mode with custom host and port",
			args: []string{"--mode=server", "--host=0.0.0.0", "--port=9090", "--dir=" + dir},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Mode != "server" || cfg.Host != "0.0.0.0" || cfg.Port != 9090 {
					t.Errorf("unexpected server settings: %s", cfg)
				}
				if cfg.PDFDirectory != dir {
					t.Errorf("PDFDirectory = %v, want %v", cfg.PDFDirectory, dir)
				}
			},
		},
		{
			name: "layout calibration",
			args: []string{"--column-threshold=180.5", "--vertical-tolerance=3", "--artifact-labels=Edit,Delete"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Layout.ColumnThreshold != 180.5 || cfg.Layout.VerticalTolerance != 3 {
					t.Errorf("unexpected layout: %+v", cfg.Layout)
				}
				if len(cfg.Layout.ArtifactLabels) != 2 || cfg.Layout.ArtifactLabels[1] != "Delete" {
					t.Errorf("ArtifactLabels = %v", cfg.Layout.ArtifactLabels)
				}
			},
		},
		{
			name: "annotator settings",
			args: []string{"--api-key=abc", "--api-timeout=5s", "--api-attempts=2", "--sections=Title,Summary", "--discard=disease"},
			check: func(t *testing.T, cfg *Config) {
				a := cfg.Annotator
				if a.APIKey != "abc" || a.Timeout != 5*time.Second || a.Attempts != 2 {
					t.Errorf("unexpected annotator settings: %+v", a)
				}
				if len(a.Sections) != 2 || len(a.Discard) != 1 {
					t.Errorf("Sections = %v, Discard = %v", a.Sections, a.Discard)
				}
			},
		},
		{
			name: "outputs and storage",
			args: []string{"--formats=json,yaml", "--output-dir=" + dir, "--mongo-uri=mongodb://localhost:27017"},
			check: func(t *testing.T, cfg *Config) {
				if len(cfg.Output.Formats) != 2 || cfg.Output.Dir != dir {
					t.Errorf("unexpected output settings: %+v", cfg.Output)
				}
				if !cfg.Store.Enabled() || cfg.Store.Database != DefaultMongoDatabase {
					t.Errorf("unexpected store settings: %+v", cfg.Store)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := load(t, tt.args...)
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("FORM_FIELDS_MODE", "server")
	t.Setenv("FORM_FIELDS_PORT", "7070")
	t.Setenv("FORM_FIELDS_DIR", dir)
	t.Setenv("FORM_FIELDS_LOG_LEVEL", "debug")
	t.Setenv("FORM_FIELDS_API_KEY", "from-env")

	cfg, err := load(t)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Mode != "server" {
		t.Errorf("Load() Mode = %v, want server", cfg.Mode)
	}
	if cfg.Port != 7070 {
		t.Errorf("Load() Port = %v, want 7070", cfg.Port)
	}
	if cfg.PDFDirectory != dir {
		t.Errorf("Load() PDFDirectory = %v, want %v", cfg.PDFDirectory, dir)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Load() LogLevel = %v, want debug", cfg.LogLevel)
	}
	if cfg.Annotator.APIKey != "from-env" {
		t.Errorf("Load() Annotator.APIKey = %v, want from-env", cfg.Annotator.APIKey)
	}
}

func TestLoad_FlagOverridesEnvironment(t *testing.T) {
	t.Setenv("FORM_FIELDS_LOG_LEVEL", "debug")
	t.Setenv("FORM_FIELDS_PORT", "7070")

	cfg, err := load(t, "--log-level=error")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != "error" {
		t.Errorf("Load() LogLevel = %v, want error (flag should win)", cfg.LogLevel)
	}
	if cfg.Port != 7070 {
		t.Errorf("Load() Port = %v, want 7070 from environment", cfg.Port)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "form-fields.yaml")
	content := []byte("log-level: warn\ncolumn-threshold: 190\nformats:\n  - json\nsections:\n  - Title\n  - Aims\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("WriteFile() unexpected error: %v", err)
	}

	cfg, err := load(t, "--config="+path, "--log-level=debug")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Load() LogLevel = %v, want debug (flag should win over file)", cfg.LogLevel)
	}
	if cfg.Layout.ColumnThreshold != 190 {
		t.Errorf("Load() ColumnThreshold = %v, want 190", cfg.Layout.ColumnThreshold)
	}
	if len(cfg.Output.Formats) != 1 || cfg.Output.Formats[0] != "json" {
		t.Errorf("Load() Output.Formats = %v, want [json]", cfg.Output.Formats)
	}
	if len(cfg.Annotator.Sections) != 2 {
		t.Errorf("Load() Annotator.Sections = %v, want 2 entries", cfg.Annotator.Sections)
	}
	if cfg.ConfigFile != path {
		t.Errorf("Load() ConfigFile = %v, want %v", cfg.ConfigFile, path)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid mode", args: []string{"--mode=invalid"}},
		{name: "invalid port", args: []string{"--mode=server", "--port=70000"}},
		{name: "invalid log level", args: []string{"--log-level=verbose"}},
		{name: "invalid format", args: []string{"--formats=xml"}},
		{name: "invalid dark threshold", args: []string{"--dark-threshold=0"}},
		{name: "missing config file", args: []string{"--config=" + filepath.Join(os.TempDir(), "does-not-exist.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := load(t, tt.args...); err == nil {
				t.Errorf("Load(%v) expected error, got nil", tt.args)
			}
		})
	}
}

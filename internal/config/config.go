package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/mcp-form-fields/internal/checkbox"
	"github.com/a3tai/mcp-form-fields/internal/concepts"
	"github.com/a3tai/mcp-form-fields/internal/export"
	"github.com/a3tai/mcp-form-fields/internal/fields"
	"github.com/a3tai/mcp-form-fields/internal/store"
	"github.com/a3tai/mcp-form-fields/internal/watch"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Default values
	DefaultPort        = 8080
	DefaultHost        = "127.0.0.1"
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB

	DefaultMongoDatabase   = "forms"
	DefaultMongoCollection = "scans"

	// EnvPrefix prefixes every environment variable, e.g. FORM_FIELDS_API_KEY.
	EnvPrefix = "FORM_FIELDS"
)

// LayoutConfig is the geometric calibration of the form template.
type LayoutConfig struct {
	ColumnThreshold   float64
	VerticalTolerance float64
	ArtifactLabels    []string
	ChecklistLabel    string
	Separator         string
}

// CheckboxConfig is the calibration of the checkbox engine.
type CheckboxConfig struct {
	DarkThreshold   int
	SampleHalfWidth int
	ItemToleranceX  float64
	ItemToleranceY  float64
	Delimiter       string
}

// AnnotatorConfig configures concept resolution.
type AnnotatorConfig struct {
	Enabled     bool
	URL         string
	APIKey      string
	Format      string
	Ontologies  string
	Timeout     time.Duration
	Attempts    int
	Concurrency int
	Sections    []string
	Discard     []string
	IDMarker    string
}

// OutputConfig selects where and how results are written.
type OutputConfig struct {
	// Dir defaults to the input file's directory when empty.
	Dir     string
	Formats []string
}

// Config holds all configuration for the form fields tools
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// PDF configuration
	PDFDirectory string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	MaxFileSize int64 // Maximum PDF file size in bytes
	ConfigFile  string

	Layout    LayoutConfig
	Checkbox  CheckboxConfig
	Annotator AnnotatorConfig
	Output    OutputConfig
	Store     store.Config
	Settle    time.Duration
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		// Fallback to current directory if working directory cannot be determined
		currentDir = "."
	}

	fieldDefaults := fields.DefaultOptions()
	boxDefaults := checkbox.DefaultConfig()
	clientDefaults := concepts.DefaultClientConfig()
	resolverDefaults := concepts.DefaultResolverConfig()

	return &Config{
		Mode:         ModeStdio, // Default to stdio mode for MCP compatibility
		Host:         DefaultHost,
		Port:         DefaultPort,
		PDFDirectory: currentDir,
		Version:      "1.0.0",
		ServerName:   "mcp-form-fields",
		LogLevel:     DefaultLogLevel,
		MaxFileSize:  DefaultMaxFileSize,
		Layout: LayoutConfig{
			ColumnThreshold:   fieldDefaults.ColumnThreshold,
			VerticalTolerance: fieldDefaults.VerticalTolerance,
			ArtifactLabels:    fieldDefaults.ArtifactLabels,
			ChecklistLabel:    fieldDefaults.ChecklistLabel,
			Separator:         fieldDefaults.Separator,
		},
		Checkbox: CheckboxConfig{
			DarkThreshold:   int(boxDefaults.DarkThreshold),
			SampleHalfWidth: boxDefaults.SampleHalfWidth,
			ItemToleranceX:  boxDefaults.ItemToleranceX,
			ItemToleranceY:  boxDefaults.ItemToleranceY,
			Delimiter:       boxDefaults.Delimiter,
		},
		Annotator: AnnotatorConfig{
			Enabled:     true,
			URL:         clientDefaults.URL,
			Format:      clientDefaults.Format,
			Ontologies:  clientDefaults.Ontologies,
			Timeout:     clientDefaults.Timeout,
			Attempts:    int(clientDefaults.Attempts),
			Concurrency: resolverDefaults.Concurrency,
			Sections:    resolverDefaults.Sections,
			IDMarker:    resolverDefaults.IDMarker,
		},
		Output: OutputConfig{
			Formats: []string{string(export.FormatCSV)},
		},
		Store: store.Config{
			Database:   DefaultMongoDatabase,
			Collection: DefaultMongoCollection,
		},
		Settle: watch.DefaultSettle,
	}
}

// BindFlags defines every configuration flag on fs with the defaults of cfg.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.String("config", "", "YAML configuration file")
	fs.String("mode", cfg.Mode, "Server mode: 'stdio' for MCP standard I/O, 'server' for HTTP server")
	fs.String("host", cfg.Host, "Server host address (server mode only)")
	fs.Int("port", cfg.Port, "Server port (server mode only)")
	fs.String("dir", cfg.PDFDirectory, "Directory containing form PDFs")
	fs.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	fs.Int64("max-file-size", cfg.MaxFileSize, "Maximum PDF file size in bytes")

	fs.Float64("column-threshold", cfg.Layout.ColumnThreshold, "x coordinate separating the label and content columns")
	fs.Float64("vertical-tolerance", cfg.Layout.VerticalTolerance, "Upward slack of each label interval")
	fs.StringSlice("artifact-labels", cfg.Layout.ArtifactLabels, "Content texts dropped as UI artifacts")
	fs.String("checklist-label", cfg.Layout.ChecklistLabel, "Label of the checkbox list field")
	fs.String("separator", cfg.Layout.Separator, "Separator stripped from labels")

	fs.Int("dark-threshold", cfg.Checkbox.DarkThreshold, "Pixel intensity below which a pixel is dark")
	fs.Int("sample-half-width", cfg.Checkbox.SampleHalfWidth, "Half width of the checkbox sampling window")
	fs.Float64("item-tolerance-x", cfg.Checkbox.ItemToleranceX, "Horizontal distance from a mark to its item text")
	fs.Float64("item-tolerance-y", cfg.Checkbox.ItemToleranceY, "Vertical distance from a mark to its item text")
	fs.String("item-delimiter", cfg.Checkbox.Delimiter, "Delimiter joining selected checklist items")

	fs.Bool("annotate", cfg.Annotator.Enabled, "Resolve sections to ontology concepts")
	fs.String("api-url", cfg.Annotator.URL, "Annotator endpoint")
	fs.String("api-key", cfg.Annotator.APIKey, "Annotator API key")
	fs.String("api-format", cfg.Annotator.Format, "Annotator response format")
	fs.String("ontologies", cfg.Annotator.Ontologies, "Ontologies the annotator searches")
	fs.Duration("api-timeout", cfg.Annotator.Timeout, "Timeout of each annotator call")
	fs.Int("api-attempts", cfg.Annotator.Attempts, "Attempts per annotator call")
	fs.Int("concurrency", cfg.Annotator.Concurrency, "Sections annotated in parallel")
	fs.StringSlice("sections", cfg.Annotator.Sections, "Section labels to annotate, in output order")
	fs.StringSlice("discard", cfg.Annotator.Discard, "Concept labels never reported")
	fs.String("id-marker", cfg.Annotator.IDMarker, "Label fragment of the document identifier field")

	fs.String("output-dir", cfg.Output.Dir, "Output directory (default: next to the input)")
	fs.StringSlice("formats", cfg.Output.Formats, "Output formats: csv, json, yaml")

	fs.String("mongo-uri", cfg.Store.URI, "MongoDB URI; empty disables storage")
	fs.String("mongo-database", cfg.Store.Database, "MongoDB database")
	fs.String("mongo-collection", cfg.Store.Collection, "MongoDB collection")

	fs.Duration("settle", cfg.Settle, "Quiet time before a watched file is processed")
}

// Load merges defaults, the optional config file, FORM_FIELDS_* environment variables and
// the flags of fs, in increasing priority, then validates the result.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()
	populateConfigFromViper(v, cfg)

	// Expand paths if needed
	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.ConfigFile = v.GetString("config")
	cfg.Mode = v.GetString("mode")
	cfg.Host = v.GetString("host")
	cfg.Port = v.GetInt("port")
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = v.GetString("log-level")
	cfg.MaxFileSize = v.GetInt64("max-file-size")

	cfg.Layout = LayoutConfig{
		ColumnThreshold:   v.GetFloat64("column-threshold"),
		VerticalTolerance: v.GetFloat64("vertical-tolerance"),
		ArtifactLabels:    v.GetStringSlice("artifact-labels"),
		ChecklistLabel:    v.GetString("checklist-label"),
		Separator:         v.GetString("separator"),
	}
	cfg.Checkbox = CheckboxConfig{
		DarkThreshold:   v.GetInt("dark-threshold"),
		SampleHalfWidth: v.GetInt("sample-half-width"),
		ItemToleranceX:  v.GetFloat64("item-tolerance-x"),
		ItemToleranceY:  v.GetFloat64("item-tolerance-y"),
		Delimiter:       v.GetString("item-delimiter"),
	}
	cfg.Annotator = AnnotatorConfig{
		Enabled:     v.GetBool("annotate"),
		URL:         v.GetString("api-url"),
		APIKey:      v.GetString("api-key"),
		Format:      v.GetString("api-format"),
		Ontologies:  v.GetString("ontologies"),
		Timeout:     v.GetDuration("api-timeout"),
		Attempts:    v.GetInt("api-attempts"),
		Concurrency: v.GetInt("concurrency"),
		Sections:    v.GetStringSlice("sections"),
		Discard:     v.GetStringSlice("discard"),
		IDMarker:    v.GetString("id-marker"),
	}
	cfg.Output = OutputConfig{
		Dir:     v.GetString("output-dir"),
		Formats: v.GetStringSlice("formats"),
	}
	cfg.Store = store.Config{
		URI:        v.GetString("mongo-uri"),
		Database:   v.GetString("mongo-database"),
		Collection: v.GetString("mongo-collection"),
	}
	cfg.Settle = v.GetDuration("settle")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate mode
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Validate port range (only for server mode)
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	// Validate PDF directory
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// A missing directory is accepted so placeholder paths survive until first use
	if _, err := os.Stat(c.PDFDirectory); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	// Validate max file size
	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if err := c.validateCalibration(); err != nil {
		return err
	}

	for _, f := range c.Output.Formats {
		if _, err := export.ParseFormat(f); err != nil {
			return err
		}
	}

	if c.Annotator.Enabled {
		if c.Annotator.URL == "" {
			return errors.New("annotator URL cannot be empty")
		}
		if c.Annotator.Timeout <= 0 {
			return errors.New("annotator timeout must be positive")
		}
		if c.Annotator.Attempts < 1 {
			return errors.New("annotator attempts must be at least 1")
		}
		if c.Annotator.Concurrency < 1 {
			return errors.New("annotator concurrency must be at least 1")
		}
	}

	if c.Store.Enabled() && (c.Store.Database == "" || c.Store.Collection == "") {
		return errors.New("mongo database and collection are required when mongo-uri is set")
	}
	return nil
}

func (c *Config) validateCalibration() error {
	if c.Layout.ColumnThreshold <= 0 {
		return errors.New("column threshold must be positive")
	}
	if c.Layout.VerticalTolerance < 0 {
		return errors.New("vertical tolerance cannot be negative")
	}
	if c.Checkbox.DarkThreshold < 1 || c.Checkbox.DarkThreshold > 255 {
		return fmt.Errorf("dark threshold must be between 1 and 255, got %d", c.Checkbox.DarkThreshold)
	}
	if c.Checkbox.SampleHalfWidth < 1 {
		return errors.New("sample half width must be at least 1")
	}
	if c.Checkbox.ItemToleranceX < 0 || c.Checkbox.ItemToleranceY < 0 {
		return errors.New("item tolerances cannot be negative")
	}
	return nil
}

// FieldOptions returns the scanner calibration.
func (c *Config) FieldOptions() fields.Options {
	return fields.Options{
		ColumnThreshold:   c.Layout.ColumnThreshold,
		VerticalTolerance: c.Layout.VerticalTolerance,
		ArtifactLabels:    c.Layout.ArtifactLabels,
		ChecklistLabel:    c.Layout.ChecklistLabel,
		Separator:         c.Layout.Separator,
		Checkbox: checkbox.Config{
			DarkThreshold:   uint8(c.Checkbox.DarkThreshold),
			SampleHalfWidth: c.Checkbox.SampleHalfWidth,
			ItemToleranceX:  c.Checkbox.ItemToleranceX,
			ItemToleranceY:  c.Checkbox.ItemToleranceY,
			Delimiter:       c.Checkbox.Delimiter,
		},
	}
}

// ClientConfig returns the annotator client settings.
func (c *Config) ClientConfig() concepts.ClientConfig {
	cc := concepts.DefaultClientConfig()
	cc.URL = c.Annotator.URL
	cc.APIKey = c.Annotator.APIKey
	cc.Format = c.Annotator.Format
	cc.Ontologies = c.Annotator.Ontologies
	cc.Timeout = c.Annotator.Timeout
	cc.Attempts = uint(c.Annotator.Attempts)
	return cc
}

// ResolverConfig returns the section selection of the concept resolver.
func (c *Config) ResolverConfig() concepts.ResolverConfig {
	return concepts.ResolverConfig{
		Sections:    c.Annotator.Sections,
		Discard:     c.Annotator.Discard,
		IDMarker:    c.Annotator.IDMarker,
		Concurrency: c.Annotator.Concurrency,
	}
}

// ExportFiles returns the output writer settings. Formats must have passed Validate.
func (c *Config) ExportFiles() export.Files {
	files := export.Files{Dir: c.Output.Dir}
	for _, f := range c.Output.Formats {
		if format, err := export.ParseFormat(f); err == nil {
			files.Formats = append(files.Formats, format)
		}
	}
	return files
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration. The API key is masked.
func (c *Config) String() string {
	key := ""
	if c.Annotator.APIKey != "" {
		key = "***"
	}
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, PDFDirectory: %s, LogLevel: %s, MaxFileSize: %d, "+
		"Annotate: %t, APIKey: %q, Formats: %v, Mongo: %t}",
		c.Mode, c.Host, c.Port, c.PDFDirectory, c.LogLevel, c.MaxFileSize,
		c.Annotator.Enabled, key, c.Output.Formats, c.Store.Enabled())
}

// IsServerMode returns true if the server is running in HTTP server mode
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the server is running in stdio mode
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

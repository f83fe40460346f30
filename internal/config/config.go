package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Paths     PathsConfig     `yaml:"paths" envconfig:"PATHS"`
	Ingest    IngestConfig    `yaml:"ingest" envconfig:"INGEST"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	Reference ReferenceConfig `yaml:"reference" envconfig:"REFERENCE"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level     string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Output    string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath  string `yaml:"file_path" envconfig:"FILE_PATH" validate:"required_unless=Output console"`
	AddSource bool   `yaml:"add_source" envconfig:"ADD_SOURCE"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	ReportsDir string `yaml:"reports_dir" envconfig:"REPORTS_DIR"`
	LogsDir    string `yaml:"logs_dir" envconfig:"LOGS_DIR"`
}

// IngestConfig controls how delimited text files are sniffed and decoded.
type IngestConfig struct {
	// Delimiters holds the candidate delimiters, one per character, in
	// tie-break order.
	Delimiters string   `yaml:"delimiters" envconfig:"DELIMITERS" validate:"required"`
	Encodings  []string `yaml:"encodings" envconfig:"ENCODINGS" validate:"min=1,dive,oneof=windows-1252 cp1252 latin-1 latin1 iso-8859-1"`
	Sheet      string   `yaml:"sheet" envconfig:"SHEET"`
}

// ExportConfig selects the output formats written by every job.
type ExportConfig struct {
	Formats      []string `yaml:"formats" envconfig:"FORMATS" validate:"min=1,dive,oneof=csv dta xlsx"`
	BOM          bool     `yaml:"bom" envconfig:"BOM"`
	DatasetLabel string   `yaml:"dataset_label" envconfig:"DATASET_LABEL" validate:"max=80"`
}

// TelemetryConfig contains tracing and metrics configuration
type TelemetryConfig struct {
	TraceExporter string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER" validate:"oneof=stdout none"`
	SampleRatio   float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO" validate:"gte=0,lte=1"`
	MetricsFile   string  `yaml:"metrics_file" envconfig:"METRICS_FILE"`
}

// ReferenceConfig points at an optional override for the built-in reference tables.
type ReferenceConfig struct {
	File string `yaml:"file" envconfig:"FILE"`
}

// Load builds the configuration from defaults, then the YAML file, then
// VCPANEL_* environment variables. An empty path searches the usual locations.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperrors.NewConfigError(fmt.Sprintf("config file %s not found", path), err)
		}
		return apperrors.NewConfigError("failed to read config file", err).WithContext("path", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperrors.NewConfigError("failed to parse config file", err).WithContext("path", path)
	}
	return nil
}

// Validate checks field constraints and fills derived paths.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return apperrors.NewConfigError("config validation failed", err)
	}
	if c.Paths.ReportsDir == "" {
		c.Paths.ReportsDir = filepath.Join(c.Paths.DataDir, DefaultReportsSubdir)
	}
	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = DefaultLogsDir
	}
	return nil
}

// SetDataDir points the data directory at dir. A reports directory that was
// derived from the old data directory follows it.
func (c *Config) SetDataDir(dir string) {
	if c.Paths.ReportsDir == filepath.Join(c.Paths.DataDir, DefaultReportsSubdir) {
		c.Paths.ReportsDir = filepath.Join(dir, DefaultReportsSubdir)
	}
	c.Paths.DataDir = dir
}

// DataPath resolves name against the data directory unless it is absolute.
func (c *Config) DataPath(name string) string {
	return resolve(c.Paths.DataDir, name)
}

// ReportPath resolves name against the reports directory unless it is absolute.
func (c *Config) ReportPath(name string) string {
	return resolve(c.Paths.ReportsDir, name)
}

// DelimiterRunes returns the configured delimiter candidates.
func (c *Config) DelimiterRunes() []rune {
	return []rune(c.Ingest.Delimiters)
}

func resolve(dir, name string) string {
	if name == "" || filepath.IsAbs(name) || dir == "" {
		return name
	}
	// Paths already pointing into dir are left as given.
	if strings.HasPrefix(filepath.Clean(name), filepath.Clean(dir)+string(filepath.Separator)) {
		return name
	}
	return filepath.Join(dir, name)
}

// findConfigFile returns the first config file found in the common locations
func findConfigFile() string {
	for _, location := range configLocations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "console",
			FilePath: filepath.Join(DefaultLogsDir, "vcpanel.log"),
		},
		Paths: PathsConfig{
			DataDir: DefaultDataDir,
			LogsDir: DefaultLogsDir,
		},
		Ingest: IngestConfig{
			Delimiters: ";,\t",
			Encodings:  []string{"windows-1252"},
		},
		Export: ExportConfig{
			Formats: []string{"csv"},
			BOM:     true,
		},
		Telemetry: TelemetryConfig{
			TraceExporter: "none",
			SampleRatio:   1.0,
		},
	}
}

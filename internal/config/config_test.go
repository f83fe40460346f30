package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/mkguldan/empirical/internal/errors"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vcpanel.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		env         map[string]string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults when file and env are empty",
			file: "",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "info", cfg.Logging.Level)
				assert.Equal(t, "console", cfg.Logging.Output)
				assert.Equal(t, "data", cfg.Paths.DataDir)
				assert.Equal(t, filepath.Join("data", "reports"), cfg.Paths.ReportsDir)
				assert.Equal(t, []string{"csv"}, cfg.Export.Formats)
				assert.True(t, cfg.Export.BOM)
				assert.Equal(t, []rune{';', ',', '\t'}, cfg.DelimiterRunes())
				assert.Equal(t, "none", cfg.Telemetry.TraceExporter)
			},
		},
		{
			name: "file overrides defaults",
			file: "logging:\n  level: debug\npaths:\n  data_dir: research\nexport:\n  formats: [csv, dta]\n  bom: false\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "debug", cfg.Logging.Level)
				assert.Equal(t, "research", cfg.Paths.DataDir)
				assert.Equal(t, []string{"csv", "dta"}, cfg.Export.Formats)
				assert.False(t, cfg.Export.BOM)
				assert.Equal(t, "console", cfg.Logging.Output, "keys absent from the file keep defaults")
			},
		},
		{
			name: "env overrides file",
			file: "logging:\n  level: debug\n",
			env: map[string]string{
				"VCPANEL_LOGGING_LEVEL":  "warn",
				"VCPANEL_EXPORT_FORMATS": "xlsx,dta",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "warn", cfg.Logging.Level)
				assert.Equal(t, []string{"xlsx", "dta"}, cfg.Export.Formats)
			},
		},
		{
			name:    "unknown export format fails validation",
			file:    "export:\n  formats: [parquet]\n",
			wantErr: true,
		},
		{
			name:    "unknown log level fails validation",
			env:     map[string]string{"VCPANEL_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "logging: [unclosed\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestLoad_FindsFileInConfigsDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.MkdirAll("configs", 0755))
	require.NoError(t, os.WriteFile(filepath.Join("configs", "vcpanel.yaml"), []byte("paths:\n  data_dir: found\n"), 0644))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "found", cfg.Paths.DataDir)
}

func TestConfig_Paths(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	abs := filepath.Join(t.TempDir(), "master.csv")

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{name: "relative data path", got: cfg.DataPath("master.csv"), expected: filepath.Join("data", "master.csv")},
		{name: "already under data dir", got: cfg.DataPath(filepath.Join("data", "x.csv")), expected: filepath.Join("data", "x.csv")},
		{name: "absolute path untouched", got: cfg.DataPath(abs), expected: abs},
		{name: "report path", got: cfg.ReportPath("log.md"), expected: filepath.Join("data", "reports", "log.md")},
		{name: "empty name", got: cfg.DataPath(""), expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.got)
		})
	}
}

func TestConfig_SetDataDir(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	cfg.SetDataDir("panel")
	assert.Equal(t, "panel", cfg.Paths.DataDir)
	assert.Equal(t, filepath.Join("panel", "reports"), cfg.Paths.ReportsDir)

	cfg.Paths.ReportsDir = "out"
	cfg.SetDataDir("other")
	assert.Equal(t, "out", cfg.Paths.ReportsDir, "explicit reports dir is kept")
}

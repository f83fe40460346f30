// Package config provides centralized configuration management for vcpanel.
// It handles loading configuration from multiple sources, validation, and
// path resolution for the batch jobs.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// The file is taken from --config when given, otherwise the first of
// vcpanel.yaml and configs/vcpanel.yaml that exists.
//
// # Environment Variables
//
// All environment variables follow the pattern VCPANEL_<SECTION>_<FIELD>:
//
//	VCPANEL_LOGGING_LEVEL=debug
//	VCPANEL_PATHS_DATA_DIR=/srv/research/data
//	VCPANEL_EXPORT_FORMATS=csv,dta
//	VCPANEL_TELEMETRY_METRICS_FILE=logs/run.prom
//
// # Validation
//
// Struct tags are checked with go-playground/validator at load time, so an
// unknown export format or log level fails before any file is touched.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	out := cfg.DataPath("founder_vc_analysis.csv")
package config

package config

import "github.com/mkguldan/empirical/pkg/contracts"

// Application constants
const (
	AppName   = "vcpanel"
	EnvPrefix = "VCPANEL"

	// File Paths (relative to the working directory)
	DefaultDataDir       = "data"
	DefaultLogsDir       = "logs"
	DefaultReportsSubdir = "reports"
)

// AppVersion is reported by telemetry and the CLI.
var AppVersion = contracts.Version

var configLocations = []string{
	"vcpanel.yaml",
	"configs/vcpanel.yaml",
}

// Package config provides configuration management for vcxsync.
package config

import "time"

// Default configuration values for vcxsync.
const (
	// AppName names the configuration, state and environment namespaces.
	AppName = "vcxsync"

	// EnvPrefix prefixes environment overrides (VCXSYNC_OUTPUT, ...).
	EnvPrefix = "VCXSYNC"

	// DefaultOutput is the default report format.
	DefaultOutput = "pretty"

	// DefaultLogLevel is the default log file level.
	DefaultLogLevel = "info"

	// DefaultDebounce is how long watch mode waits for events to settle.
	DefaultDebounce = 500 * time.Millisecond
)

// DefaultComponentLevels are the per-component log levels written by
// WriteDefault.
var DefaultComponentLevels = map[string]string{
	"scanner":   "info",
	"reconcile": "info",
	"msbuild":   "info",
	"syncer":    "info",
	"watcher":   "warn",
}

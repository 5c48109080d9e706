// Package logging contains the singleton logger used throughout the
// generator. It deliberately has little else, since it's imported
// practically everywhere.
package logging

import (
	"gopkg.in/op/go-logging.v1"
)

// Log is the singleton logger instance. We never vary levels per-package
// and never log the module name, so one logger for the whole process is
// enough and avoids data races around reconfiguring several of them.
var Log = logging.MustGetLogger("bg")

// Level re-exports the underlying library's type, so callers don't need to
// import it directly.
type Level = logging.Level

// Re-exports of the levels we use.
const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)

// SetLevel sets the verbosity of the default backend.
func SetLevel(level Level) {
	logging.SetLevel(level, "bg")
}

// package logging provides the structured leveled logger
// shared by every component of the batch service
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ServiceLogger is a json structured leveled logger
// used by the service to log messages to stdout
type ServiceLogger struct {
	*zerolog.Logger
}

var (
	serviceLogLevelToZeroLogLevel = map[string]zerolog.Level{
		"TRACE": zerolog.TraceLevel,
		"DEBUG": zerolog.DebugLevel,
		"INFO":  zerolog.InfoLevel,
		"ERROR": zerolog.ErrorLevel,
	}
)

// New creates and returns a new ServiceLogger and error (if any).
func New(logLevel string) (ServiceLogger, error) {
	return NewWithWriter(logLevel, os.Stdout)
}

// NewWithWriter creates a ServiceLogger writing to w instead of stdout
func NewWithWriter(logLevel string, w io.Writer) (ServiceLogger, error) {
	zerologLevel, exists := serviceLogLevelToZeroLogLevel[logLevel]
	if !exists {
		return ServiceLogger{}, fmt.Errorf("invalid zero log level provided %s ", logLevel)
	}

	serviceLog := zerolog.New(w).With().Timestamp().Caller().Logger()

	zerolog.SetGlobalLevel(zerologLevel)

	return ServiceLogger{
		Logger: &serviceLog,
	}, nil
}

// Nop returns a ServiceLogger that discards everything, useful for tests
func Nop() *ServiceLogger {
	nop := zerolog.Nop()
	return &ServiceLogger{Logger: &nop}
}

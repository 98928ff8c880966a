package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger, configured once via Init. Every other
// helper in this package derives a child from a base logger the caller
// supplies rather than always rooting at Logger, so call sites can chain
// component/tenant/job/module context onto whatever logger they already
// hold instead of rebuilding it from scratch each time.
var Logger zerolog.Logger

// Level represents log level
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config holds logging configuration
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Init initializes the root logger
func Init(cfg Config) {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case InfoLevel:
		level = zerolog.InfoLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	if cfg.JSONOutput {
		Logger = zerolog.New(output).With().Timestamp().Logger()
	} else {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
	}
}

// WithComponent derives a child of base scoped to a package/subsystem
// name. Every collaborator in this tree builds its own logger once at
// construction time with this, then narrows it further per call with
// WithTenantID/WithJobID/WithModuleID.
func WithComponent(base zerolog.Logger, component string) zerolog.Logger {
	return base.With().Str("component", component).Logger()
}

// WithTenantID derives a child of base scoped to a tenant. Install jobs,
// module changes and timer fires all act on behalf of exactly one
// tenant; chaining this onto a component logger is how their log lines
// correlate back to the tenant that caused them.
func WithTenantID(base zerolog.Logger, tenantID string) zerolog.Logger {
	return base.With().Str("tenant_id", tenantID).Logger()
}

// WithModuleID derives a child of base scoped to a module.
func WithModuleID(base zerolog.Logger, moduleID string) zerolog.Logger {
	return base.With().Str("module_id", moduleID).Logger()
}

// WithJobID derives a child of base scoped to an install/upgrade job.
func WithJobID(base zerolog.Logger, jobID string) zerolog.Logger {
	return base.With().Str("job_id", jobID).Logger()
}

// Helper functions for common logging patterns against the root logger.
func Info(msg string) {
	Logger.Info().Msg(msg)
}

func Debug(msg string) {
	Logger.Debug().Msg(msg)
}

func Warn(msg string) {
	Logger.Warn().Msg(msg)
}

func Error(msg string) {
	Logger.Error().Msg(msg)
}

func Errorf(format string, err error) {
	Logger.Error().Err(err).Msg(format)
}

func Fatal(msg string) {
	Logger.Fatal().Msg(msg)
}

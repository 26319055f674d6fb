package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog logger with component helpers
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the process-wide logger
	Default *Logger

	initOnce sync.Once
)

// Init initializes the default logger writing to stdout
func Init() {
	initOnce.Do(func() {
		level := getLogLevel()

		zerolog.TimeFieldFormat = time.RFC3339
		zerolog.SetGlobalLevel(level)

		Default = New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})

		Default.Debug().
			Str("level", level.String()).
			Msg("Logger initialized")
	})
}

// New creates a logger writing to w
func New(w io.Writer) *Logger {
	return &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{logger: zerolog.Nop()}
}

// getLogLevel reads LOG_LEVEL, falling back to the deployment environment
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("SKINPRICER_ENVIRONMENT") == "production" {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

func get() *Logger {
	if Default == nil {
		Init()
	}
	return Default
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	get().Info().Msgf(format, v...)
}

// ForResolver creates a logger for the price resolver
func ForResolver() *Logger {
	return get().WithField("component", "resolver")
}

// ForFetcher creates a logger for a page fetcher of the given kind (browser, http)
func ForFetcher(kind string) *Logger {
	return get().WithFields(Fields{"component": "fetcher", "fetcher": kind})
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return get().WithField("component", "worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return get().WithField("component", "publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return get().WithField("component", "cache")
}

// ForStore creates a logger for the quote history store
func ForStore() *Logger {
	return get().WithField("component", "store")
}

// LogError logs err with a component tag
func LogError(component string, err error, format string, v ...interface{}) {
	get().Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}

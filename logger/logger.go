package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the logger with the given configuration
func Init() {
	level := getLogLevel()

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	// Console output reads better than JSON when run from a terminal
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	Default = New(zerolog.New(output).With().Timestamp().Logger())

	Default.Debug().
		Str("level", level.String()).
		Msg("Logger initialized")
}

// getLogLevel returns the log level from environment variable
func getLogLevel() zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if os.Getenv("MAKKARA_ENVIRONMENT") == "production" {
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

// New wraps an existing zerolog logger
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
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

// Fatal returns a fatal event
func (l *Logger) Fatal() *zerolog.Event {
	return l.logger.Fatal()
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

func ensureDefault() {
	if Default == nil {
		Init()
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	ensureDefault()
	Default.Info().Msgf(format, v...)
}

// Warn logs a warning message
func Warn(format string, v ...interface{}) {
	ensureDefault()
	Default.Warn().Msgf(format, v...)
}

// ForComponent creates a logger tagged with a component name
func ForComponent(component string) *Logger {
	ensureDefault()
	return Default.WithField("component", component)
}

// ForCrawler creates a logger for the listing crawler of a city
func ForCrawler(city string) *Logger {
	return ForComponent("crawler").WithField("city", city)
}

// ForAnalyzer creates a logger for the menu analyzer
func ForAnalyzer() *Logger {
	return ForComponent("analyzer")
}

// ForGeocoder creates a logger for the geocoder
func ForGeocoder() *Logger {
	return ForComponent("geocoder")
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return ForComponent("worker")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return ForComponent("publisher")
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return ForComponent("cache")
}

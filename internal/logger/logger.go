package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	defaultLogger *zerolog.Logger
)

// Options controls where and how the global logger writes.
type Options struct {
	Level string
	JSON  bool
	// File enables an additional size-rotated log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the global logger
func Init(level string, json bool) {
	InitWithOptions(Options{Level: level, JSON: json})
}

func InitWithOptions(opts Options) {
	zerolog.LevelFieldName = "severity"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var out io.Writer = os.Stdout
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if opts.File != "" {
		rotating := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 100),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotating)
	}

	l := zerolog.New(out).Level(parseLevel(opts.Level)).With().Timestamp().Logger()
	defaultLogger = &l
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Get returns the default logger
func Get() *zerolog.Logger {
	if defaultLogger == nil {
		Init("info", false)
	}
	return defaultLogger
}

// WithContext returns the logger stored in ctx, falling back to the default.
func WithContext(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return Get()
}

// Info logs at info level
func Info(msg string, args ...any) {
	Get().Info().Fields(args).Msg(msg)
}

// Debug logs at debug level
func Debug(msg string, args ...any) {
	Get().Debug().Fields(args).Msg(msg)
}

// Warn logs at warn level
func Warn(msg string, args ...any) {
	Get().Warn().Fields(args).Msg(msg)
}

// Error logs at error level
func Error(msg string, args ...any) {
	Get().Error().Fields(args).Msg(msg)
}

// Fatal logs at error level and exits
func Fatal(msg string, args ...any) {
	Get().Error().Fields(args).Msg(msg)
	os.Exit(1)
}

// With returns a logger with the given key/value pairs attached
func With(args ...any) zerolog.Logger {
	return Get().With().Fields(args).Logger()
}

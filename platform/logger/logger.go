package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"cwbridge/platform/config"
)

// Logger wraps zerolog with the field-map helpers used across the service.
type Logger struct {
	logger zerolog.Logger
	config config.LogConfig
}

func New(cfg config.LogConfig) *Logger {
	cfg = validateLogConfig(cfg)

	zerolog.SetGlobalLevel(parseLogLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339

	var writer io.Writer = os.Stdout
	if cfg.Output == "stderr" {
		writer = os.Stderr
	}

	if cfg.Format == "console" {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        writer,
			TimeFormat: "15:04:05",
		}
		if cfg.Caller {
			consoleWriter.FormatCaller = func(i interface{}) string {
				if caller, ok := i.(string); ok {
					return formatCaller(caller)
				}
				return ""
			}
		}
		writer = consoleWriter
	}

	ctx := zerolog.New(writer).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.CallerWithSkipFrameCount(3)
	}

	return &Logger{
		logger: ctx.Logger(),
		config: cfg,
	}
}

func NewFromAppConfig(appConfig *config.Config) *Logger {
	return New(appConfig.Log)
}

// WithModule returns a child logger tagged with a component name.
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{
		logger: l.logger.With().Str("component", module).Logger(),
		config: l.config,
	}
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}

func (l *Logger) DebugWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Debug()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.logger.Info().Msgf(format, args...)
}

func (l *Logger) InfoWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Info()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.logger.Warn().Msgf(format, args...)
}

func (l *Logger) WarnWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Warn()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Msgf(format, args...)
}

func (l *Logger) ErrorWithFields(msg string, fields map[string]interface{}) {
	event := l.logger.Error()
	for k, v := range fields {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *Logger) Fatal(msg string) {
	l.logger.Fatal().Msg(msg)
}

func (l *Logger) WithError(err error) *Logger {
	return &Logger{
		logger: l.logger.With().Err(err).Logger(),
		config: l.config,
	}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{
		logger: ctx.Logger(),
		config: l.config,
	}
}

func (l *Logger) GetZerologLogger() zerolog.Logger {
	return l.logger
}

func parseLogLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

func validateLogConfig(cfg config.LogConfig) config.LogConfig {
	validLevels := map[string]bool{
		"trace": true, "debug": true, "info": true,
		"warn": true, "error": true, "fatal": true, "disabled": true,
	}
	if !validLevels[strings.ToLower(cfg.Level)] {
		cfg.Level = "info"
	}

	if cfg.Format != "console" && cfg.Format != "json" {
		cfg.Format = "json"
	}

	if cfg.Output != "stdout" && cfg.Output != "stderr" {
		cfg.Output = "stdout"
	}

	return cfg
}

func formatCaller(caller string) string {
	if strings.Contains(caller, "cwbridge/") {
		parts := strings.Split(caller, "cwbridge/")
		return parts[len(parts)-1]
	}
	return filepath.Base(caller)
}

// TestConfig is the log configuration used by package tests.
func TestConfig() config.LogConfig {
	return config.LogConfig{
		Level:  "disabled",
		Format: "json",
		Output: "stdout",
	}
}

package api

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/kasuganosora/tablerow/pkg/config"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogError LogLevel = iota
	LogWarn
	LogInfo
	LogDebug
)

// String 返回日志级别字符串
func (l LogLevel) String() string {
	switch l {
	case LogError:
		return "ERROR"
	case LogWarn:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel 解析配置中的日志级别
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "error":
		return LogError, nil
	case "warn", "warning":
		return LogWarn, nil
	case "info", "":
		return LogInfo, nil
	case "debug":
		return LogDebug, nil
	}
	return LogInfo, fmt.Errorf("unknown log level %q", s)
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogError:
		return slog.LevelError
	case LogWarn:
		return slog.LevelWarn
	case LogDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// SlogProvider is implemented by loggers that can hand the executor a
// structured logger.
type SlogProvider interface {
	Slog() *slog.Logger
}

// DefaultLogger 默认日志实现，基于 slog
type DefaultLogger struct {
	lv     *slog.LevelVar
	logger *slog.Logger
}

// NewDefaultLogger 创建输出到 stderr 的默认日志
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewLoggerFromConfig(os.Stderr, config.LogConfig{Level: level.String(), Format: "text"})
}

// NewDefaultLoggerWithOutput 创建带输出的默认日志
func NewDefaultLoggerWithOutput(level LogLevel, output io.Writer) *DefaultLogger {
	return NewLoggerFromConfig(output, config.LogConfig{Level: level.String(), Format: "text"})
}

// NewLoggerFromConfig builds a logger writing to w. Text output goes
// through tint, colored only when w is a terminal and color is not disabled.
func NewLoggerFromConfig(w io.Writer, cfg config.LogConfig) *DefaultLogger {
	level, err := ParseLogLevel(cfg.Level)
	if err != nil {
		level = LogInfo
	}
	lv := &slog.LevelVar{}
	lv.Set(level.slogLevel())

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	} else {
		noColor := cfg.NoColor
		if f, ok := w.(*os.File); ok {
			noColor = noColor || !isatty.IsTerminal(f.Fd())
			w = colorable.NewColorable(f)
		} else {
			noColor = true
		}
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lv,
			TimeFormat: "15:04:05.000",
			NoColor:    noColor,
		})
	}

	return &DefaultLogger{
		lv:     lv,
		logger: slog.New(handler),
	}
}

// SetLevel 设置日志级别
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.lv.Set(level.slogLevel())
}

// GetLevel 获取日志级别
func (l *DefaultLogger) GetLevel() LogLevel {
	switch lvl := l.lv.Level(); {
	case lvl >= slog.LevelError:
		return LogError
	case lvl >= slog.LevelWarn:
		return LogWarn
	case lvl >= slog.LevelInfo:
		return LogInfo
	default:
		return LogDebug
	}
}

// Slog returns the underlying structured logger.
func (l *DefaultLogger) Slog() *slog.Logger {
	return l.logger
}

// Debug 输出 DEBUG 级别日志
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Info 输出 INFO 级别日志
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

// Warn 输出 WARN 级别日志
func (l *DefaultLogger) Warn(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// Error 输出 ERROR 级别日志
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

// NoOpLogger 空日志实现（用于禁用日志）
type NoOpLogger struct{}

// NewNoOpLogger 创建空日志
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (l *NoOpLogger) Debug(format string, args ...interface{}) {}
func (l *NoOpLogger) Info(format string, args ...interface{})  {}
func (l *NoOpLogger) Warn(format string, args ...interface{})  {}
func (l *NoOpLogger) Error(format string, args ...interface{}) {}
func (l *NoOpLogger) SetLevel(level LogLevel)                  {}
func (l *NoOpLogger) GetLevel() LogLevel                       { return LogInfo }

// Slog returns a logger that discards everything.
func (l *NoOpLogger) Slog() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

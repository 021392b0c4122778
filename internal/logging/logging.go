package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup 以 tint 彩色处理器初始化默认 slog 日志并返回它。
func Setup(w io.Writer, level string, noColor bool) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.RFC3339,
		NoColor:    noColor,
	}))
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps debug/info/warn/error to a slog level, info by default.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Component returns a logger tagged with the component attribute.
func Component(name string) *slog.Logger {
	return slog.Default().With("component", name)
}

func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }
func Debug(msg string, args ...any) { slog.Debug(msg, args...) }

func InfoWithComponent(component, msg string, args ...any) {
	Component(component).Info(msg, args...)
}

func WarnWithComponent(component, msg string, args ...any) {
	Component(component).Warn(msg, args...)
}

func ErrorWithComponent(component, msg string, args ...any) {
	Component(component).Error(msg, args...)
}

func DebugWithComponent(component, msg string, args ...any) {
	Component(component).Debug(msg, args...)
}

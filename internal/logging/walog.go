package logging

import (
	"context"
	"fmt"
	"log/slog"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// Compile-time interface satisfaction check.
var _ waLog.Logger = (*WALogger)(nil)

// WALogger adapts a slog.Logger to the whatsmeow logger interface. Library
// messages are preformatted; the module path is attached as an attribute.
type WALogger struct {
	logger *slog.Logger
	module string
}

// NewWALogger returns a whatsmeow logger writing through logger.
func NewWALogger(logger *slog.Logger, module string) *WALogger {
	return &WALogger{logger: logger, module: module}
}

func (l *WALogger) log(level slog.Level, msg string, args []any) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}
	l.logger.Log(ctx, level, fmt.Sprintf(msg, args...), "module", l.module)
}

func (l *WALogger) Errorf(msg string, args ...any) { l.log(slog.LevelError, msg, args) }
func (l *WALogger) Warnf(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *WALogger) Infof(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *WALogger) Debugf(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Sub returns a logger for a nested module.
func (l *WALogger) Sub(module string) waLog.Logger {
	name := module
	if l.module != "" {
		name = l.module + "/" + module
	}
	return &WALogger{logger: l.logger, module: name}
}

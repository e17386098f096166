package gormtool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Logger is the structured logging surface used by CRUDTool and the handlers.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, fields map[string]interface{})
}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

func (l Level) String() string {
	if s, ok := levelNames[l]; ok {
		return s
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// DefaultLogger writes one line per entry, the field map encoded as JSON.
type DefaultLogger struct {
	logger *log.Logger
	min    Level
}

// NewDefaultLogger logs at info level and above to stdout.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, LevelInfo)
}

// NewLogger logs entries at min and above to w.
func NewLogger(w io.Writer, min Level) *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(w, "[ECO_SHOP] ", log.LstdFlags|log.Lshortfile),
		min:    min,
	}
}

func (l *DefaultLogger) Debug(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelDebug, msg, fields)
}

func (l *DefaultLogger) Info(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelInfo, msg, fields)
}

func (l *DefaultLogger) Warn(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelWarn, msg, fields)
}

func (l *DefaultLogger) Error(ctx context.Context, msg string, fields map[string]interface{}) {
	l.log(LevelError, msg, fields)
}

func (l *DefaultLogger) log(level Level, msg string, fields map[string]interface{}) {
	if level < l.min {
		return
	}
	logMsg := fmt.Sprintf("[%s] %s", level, msg)
	if len(fields) > 0 {
		jsonFields, err := json.Marshal(fields)
		if err != nil {
			jsonFields = []byte(fmt.Sprintf("%q", fmt.Sprint(fields)))
		}
		logMsg += " " + string(jsonFields)
	}
	l.logger.Output(3, logMsg)
}

// NopLogger drops everything.
type NopLogger struct{}

func (NopLogger) Debug(context.Context, string, map[string]interface{}) {}
func (NopLogger) Info(context.Context, string, map[string]interface{})  {}
func (NopLogger) Warn(context.Context, string, map[string]interface{})  {}
func (NopLogger) Error(context.Context, string, map[string]interface{}) {}

// Package logging builds the loggers used by ferry.
//
// Lines look like "[1.234s] INFO: message", where the bracketed value is the
// time elapsed since the process started.
package logging

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var processStart = time.Now()

var levels = map[string]zapcore.Level{
	"debug":    zapcore.DebugLevel,
	"info":     zapcore.InfoLevel,
	"warning":  zapcore.WarnLevel,
	"error":    zapcore.ErrorLevel,
	"critical": zapcore.DPanicLevel,
}

// LevelNames returns the accepted log level names in severity order.
func LevelNames() []string {
	names := make([]string, 0, len(levels))
	for name := range levels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return levels[names[i]] < levels[names[j]]
	})
	return names
}

// ParseLevel maps a level name to the matching zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	level, ok := levels[strings.ToLower(name)]
	if !ok {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q, expected one of %s",
			name, strings.Join(LevelNames(), ", "))
	}
	return level, nil
}

func levelName(l zapcore.Level) string {
	switch {
	case l <= zapcore.DebugLevel:
		return "DEBUG"
	case l == zapcore.InfoLevel:
		return "INFO"
	case l == zapcore.WarnLevel:
		return "WARNING"
	case l == zapcore.ErrorLevel:
		return "ERROR"
	default:
		return "CRITICAL"
	}
}

func encodeElapsed(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(fmt.Sprintf("[%.3fs]", t.Sub(processStart).Seconds()))
}

func encodeLevel(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(levelName(l) + ":")
}

// NewEncoder returns the console encoder producing the elapsed-time format.
func NewEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		LevelKey:         "level",
		MessageKey:       "message",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       encodeElapsed,
		EncodeLevel:      encodeLevel,
		EncodeDuration:   zapcore.StringDurationEncoder,
		ConsoleSeparator: " ",
	})
}

// New creates a logger writing to w that drops everything below level.
func New(w io.Writer, level zapcore.Level) *zap.SugaredLogger {
	core := zapcore.NewCore(NewEncoder(), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core).Sugar()
}

// NewFromName is New with the level given by name.
func NewFromName(w io.Writer, name string) (*zap.SugaredLogger, error) {
	level, err := ParseLevel(name)
	if err != nil {
		return nil, err
	}
	return New(w, level), nil
}

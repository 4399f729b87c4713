// Package logging contains a small leveled logger built on top of the
// standard library log package, used everywhere a component would otherwise
// reach for a loose log.Printf call.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
)

// Level is the severity of a log record, ordered from most to least verbose.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	}
	panic("logging: unknown level " + strconv.Itoa(int(l)))
}

var levelNames = map[string]Level{
	"debug": DebugLevel,
	"info":  InfoLevel,
	"warn":  WarnLevel,
	"error": ErrorLevel,
}

// LevelFromString parses a level name; names are case-sensitive lowercase
// ("debug", "info", "warn", "error").
func LevelFromString(s string) (Level, error) {
	l, ok := levelNames[s]
	if !ok {
		return 0, fmt.Errorf("logging: invalid level %q", s)
	}
	return l, nil
}

// Fields is a set of structured key-value pairs attached to a log record.
type Fields map[string]interface{}

// Logger is a leveled logger that can carry a fixed set of structured fields.
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})
	Info(msg string)
	Infof(format string, args ...interface{})
	Warn(msg string)
	Warnf(format string, args ...interface{})
	Error(msg string)
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	WithFields(fields Fields) Logger
}

type logger struct {
	std    *log.Logger
	level  Level
	fields Fields
}

// New builds a Logger that writes to w, filtering out records below level.
func New(level Level, w io.Writer) Logger {
	return &logger{
		std:   log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		level: level,
	}
}

func (l *logger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &logger{std: l.std, level: l.level, fields: merged}
}

func (l *logger) Debug(msg string)  { l.emit(DebugLevel, msg) }
func (l *logger) Info(msg string)   { l.emit(InfoLevel, msg) }
func (l *logger) Warn(msg string)   { l.emit(WarnLevel, msg) }
func (l *logger) Error(msg string)  { l.emit(ErrorLevel, msg) }

func (l *logger) Debugf(format string, args ...interface{}) { l.emit(DebugLevel, fmt.Sprintf(format, args...)) }
func (l *logger) Infof(format string, args ...interface{})  { l.emit(InfoLevel, fmt.Sprintf(format, args...)) }
func (l *logger) Warnf(format string, args ...interface{})  { l.emit(WarnLevel, fmt.Sprintf(format, args...)) }
func (l *logger) Errorf(format string, args ...interface{}) { l.emit(ErrorLevel, fmt.Sprintf(format, args...)) }

func (l *logger) Fatalf(format string, args ...interface{}) {
	l.emit(ErrorLevel, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func (l *logger) emit(level Level, msg string) {
	if level < l.level {
		return
	}
	if len(l.fields) == 0 {
		l.std.Printf("%s: %s", level, msg)
		return
	}
	fieldBytes, err := json.Marshal(l.fields)
	if err != nil {
		l.std.Printf("%s: %s (fields marshal error: %v)", level, msg, err)
		return
	}
	l.std.Printf("%s: %s %s", level, msg, fieldBytes)
}

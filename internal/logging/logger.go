// Package logging provides structured JSON logging for the collector module.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// Level represents a log level.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

var levelRank = map[Level]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return LevelDebug
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return LevelInfo
	}
}

// Fields carries structured context for one log entry.
type Fields map[string]any

// Logger writes one JSON object per entry.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	minLevel Level
}

// New creates a Logger writing to out at the given minimum level.
func New(out io.Writer, minLevel Level) *Logger {
	return &Logger{out: out, minLevel: minLevel}
}

var (
	global *Logger
	once   sync.Once
)

// Init initializes the global logger. Later calls are no-ops.
func Init(out io.Writer, minLevel Level) {
	once.Do(func() {
		global = New(out, minLevel)
	})
}

// Get returns the global logger, initializing a default one if needed.
func Get() *Logger {
	if global == nil {
		Init(os.Stdout, LevelInfo)
	}
	return global
}

type entry struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Context   Fields `json:"context,omitempty"`
}

func (l *Logger) log(level Level, message string, err error, fields Fields) {
	if levelRank[level] < levelRank[l.minLevel] {
		return
	}

	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     string(level),
		Message:   message,
		Context:   fields,
	}
	if err != nil {
		e.Error = err.Error()
	}

	data, jsonErr := json.Marshal(e)
	if jsonErr != nil {
		data = []byte(fmt.Sprintf(`{"level":"ERROR","message":"unencodable log entry: %v"}`, jsonErr))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.out, string(data))
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields Fields) { l.log(LevelDebug, message, nil, fields) }

// Info logs an info message.
func (l *Logger) Info(message string, fields Fields) { l.log(LevelInfo, message, nil, fields) }

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields Fields) { l.log(LevelWarn, message, nil, fields) }

// Error logs an error message with its cause.
func (l *Logger) Error(message string, err error, fields Fields) {
	l.log(LevelError, message, err, fields)
}

// Convenience functions using the global logger.

func Debug(message string, fields Fields) { Get().Debug(message, fields) }

func Info(message string, fields Fields) { Get().Info(message, fields) }

func Warn(message string, fields Fields) { Get().Warn(message, fields) }

func Error(message string, err error, fields Fields) { Get().Error(message, err, fields) }

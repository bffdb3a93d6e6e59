// Package utils provides shared infrastructure for kb-query: the structured
// logger used by every component.
package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// LogLevel represents different logging levels
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLogLevel converts a level name to a LogLevel, defaulting to INFO.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Field is one structured key/value pair attached to a log entry.
type Field struct {
	Key   string
	Value any
}

// F creates a log field.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// LogEntry represents a structured log entry
type LogEntry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Logger provides leveled structured logging with text or JSON output.
// It is created at process start, handed to the orchestrator at construction,
// and safe for concurrent use.
type Logger struct {
	mu        sync.RWMutex
	level     LogLevel
	format    string // "json" or "text"
	output    io.Writer
	component string
}

// NewLogger creates a logger with INFO level and text output on stderr.
func NewLogger() *Logger {
	return &Logger{
		level:  INFO,
		format: "text",
		output: os.Stderr,
	}
}

// SetLevel sets the logging level
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetFormat sets the logging format ("json" or "text")
func (l *Logger) SetFormat(format string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.format = strings.ToLower(format)
}

// SetOutput sets the logging output destination
func (l *Logger) SetOutput(output io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.output = output
}

// WithComponent returns a copy of the logger tagged with a component name.
func (l *Logger) WithComponent(component string) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{
		level:     l.level,
		format:    l.format,
		output:    l.output,
		component: component,
	}
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields ...Field) {
	l.log(DEBUG, msg, nil, fields...)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields ...Field) {
	l.log(INFO, msg, nil, fields...)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, fields ...Field) {
	l.log(WARN, msg, nil, fields...)
}

// Error logs an error message
func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(ERROR, msg, err, fields...)
}

func (l *Logger) log(level LogLevel, msg string, err error, fields ...Field) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if level < l.level {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level.String(),
		Message:   msg,
		Component: l.component,
	}
	if err != nil {
		entry.Error = err.Error()
	}
	if len(fields) > 0 {
		entry.Fields = make(map[string]any, len(fields))
		for _, f := range fields {
			entry.Fields[f.Key] = f.Value
		}
	}

	if l.format == "json" {
		if data, marshalErr := json.Marshal(entry); marshalErr == nil {
			fmt.Fprintln(l.output, string(data))
		}
		return
	}
	fmt.Fprint(l.output, l.formatText(entry))
}

func (l *Logger) formatText(entry *LogEntry) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", entry.Timestamp, entry.Level))
	if entry.Component != "" {
		sb.WriteString(" [" + entry.Component + "]")
	}
	sb.WriteString(" " + entry.Message)
	if entry.Error != "" {
		sb.WriteString(" error=" + entry.Error)
	}
	for key, value := range entry.Fields {
		sb.WriteString(fmt.Sprintf(" %s=%v", key, value))
	}
	sb.WriteString("\n")
	return sb.String()
}

var (
	globalLogger     *Logger
	globalLoggerOnce sync.Once
)

// GetLogger returns the process-wide logger, creating it on first use.
func GetLogger() *Logger {
	globalLoggerOnce.Do(func() {
		globalLogger = NewLogger()
	})
	return globalLogger
}

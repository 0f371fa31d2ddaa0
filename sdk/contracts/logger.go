package contracts

import (
	"fmt"
	"time"
)

// LogLevel selects which entries a Logger emits.
type LogLevel int

const (
	InfoLevel  LogLevel = iota // Transport transitions and device changes.
	DebugLevel                 // Per-message diagnostics, including dropped notifications.
	ErrorLevel                 // Failures a caller must act on.
	WarnLevel                  // Recoverable trouble, such as a destination dropped after a failed send.
	FatalLevel                 // Logs, then exits the process.
)

// LogDestination selects where entries are written.
type LogDestination string

const (
	ConsoleLog LogDestination = "console" // stderr
	FileLog    LogDestination = "file"
)

// Field builds one typed key/value for a log entry. Every method returns a new Field.
type Field interface {
	Bool(key string, val bool) Field
	Int(key string, val int) Field
	Int64(key string, val int64) Field
	Uint8(key string, val uint8) Field
	Uint64(key string, val uint64) Field
	Float64(key string, val float64) Field
	String(key string, val string) Field
	Stringer(key string, val fmt.Stringer) Field
	Time(key string, val time.Time) Field
	Duration(key string, val time.Duration) Field
	Error(key string, val error) Field
}

// Logger is the only logging surface the chrono and its transports see.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Field() Field

	SetLevel(level LogLevel)
	SetDestination(dest LogDestination, filePath ...string)
}

// Package logger is a leveled file logger with line-count rotation. The
// daemon logs beside its socket, so the file must stay small enough to
// paste into a bug report.
package logger

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// MaxLogLines is the rotation threshold: once the file exceeds it, only
// the newest MaxLogLines lines are kept.
const MaxLogLines = 5000

type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// ParseLogLevel maps a config string to a level, defaulting to INFO.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "TRACE":
		return LogLevelTrace
	case "DEBUG":
		return LogLevelDebug
	case "WARN", "WARNING":
		return LogLevelWarn
	case "ERROR":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// LimitedLogger writes leveled, timestamped lines to a file and trims
// the file in place when it grows past MaxLogLines.
type LimitedLogger struct {
	mu        sync.Mutex
	file      *os.File
	lineCount int
	level     LogLevel
}

var globalLogger *LimitedLogger

// defaultLogger serves package-level calls made before initialization.
var defaultLogger = &LimitedLogger{file: os.Stderr, level: LogLevelInfo}

// NewLimitedLogger opens a logger over file and installs it as the
// package-level logger. Existing lines are counted so rotation carries
// across restarts.
func NewLimitedLogger(file *os.File, level LogLevel) *LimitedLogger {
	ll := &LimitedLogger{file: file, level: level}
	ll.countExistingLines()
	globalLogger = ll
	return ll
}

func (ll *LimitedLogger) SetLevel(level LogLevel) {
	ll.mu.Lock()
	defer ll.mu.Unlock()
	ll.level = level
}

// SetGlobalLevel adjusts the installed logger, if any.
func SetGlobalLevel(level LogLevel) {
	if globalLogger != nil {
		globalLogger.SetLevel(level)
	}
}

func (ll *LimitedLogger) shouldLog(level LogLevel) bool {
	return level >= ll.level
}

func (ll *LimitedLogger) logWithLevel(level LogLevel, format string, v ...any) {
	if !ll.shouldLog(level) {
		return
	}
	// route through Write so rotation sees every line
	msg := fmt.Sprintf("%s [%s] %s\n",
		time.Now().Format("2006/01/02 15:04:05"), level, fmt.Sprintf(format, v...))
	ll.Write([]byte(msg))
}

func (ll *LimitedLogger) Debug(format string, v ...any) { ll.logWithLevel(LogLevelDebug, format, v...) }
func (ll *LimitedLogger) Info(format string, v ...any)  { ll.logWithLevel(LogLevelInfo, format, v...) }
func (ll *LimitedLogger) Warn(format string, v ...any)  { ll.logWithLevel(LogLevelWarn, format, v...) }
func (ll *LimitedLogger) Error(format string, v ...any) { ll.logWithLevel(LogLevelError, format, v...) }

// Fatal logs at ERROR and exits.
func (ll *LimitedLogger) Fatal(format string, v ...any) {
	ll.logWithLevel(LogLevelError, format, v...)
	os.Exit(1)
}

func active() *LimitedLogger {
	if globalLogger != nil {
		return globalLogger
	}
	return defaultLogger
}

// Package-level functions log through the installed logger.

func Debug(format string, v ...any) { active().Debug(format, v...) }
func Info(format string, v ...any)  { active().Info(format, v...) }
func Warn(format string, v ...any)  { active().Warn(format, v...) }
func Error(format string, v ...any) { active().Error(format, v...) }
func Fatal(format string, v ...any) { active().Fatal(format, v...) }

var noopFunc = func() {}

// Trace times an operation at TRACE level:
//
//	defer logger.Trace("operation")()
//
// When TRACE is disabled the returned func is a shared no-op.
func Trace(name string) func() {
	l := active()
	if !l.shouldLog(LogLevelTrace) {
		return noopFunc
	}
	start := time.Now()
	return func() {
		l.logWithLevel(LogLevelTrace, "%s: %v", name, time.Since(start))
	}
}

func (ll *LimitedLogger) countExistingLines() {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	ll.file.Seek(0, 0)
	scanner := bufio.NewScanner(ll.file)
	count := 0
	for scanner.Scan() {
		count++
	}
	ll.lineCount = count
	ll.file.Seek(0, 2)
}

// Write implements io.Writer, so the standard library's log package can
// be pointed at the same file.
func (ll *LimitedLogger) Write(p []byte) (n int, err error) {
	ll.mu.Lock()
	defer ll.mu.Unlock()

	n, err = ll.file.Write(p)
	if err != nil {
		return n, err
	}
	ll.lineCount += strings.Count(string(p), "\n")
	if ll.lineCount > MaxLogLines {
		ll.rotate()
	}
	return n, err
}

// rotate trims the file in place to the newest MaxLogLines lines.
func (ll *LimitedLogger) rotate() {
	ll.file.Seek(0, 0)
	scanner := bufio.NewScanner(ll.file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if len(lines) > MaxLogLines {
		lines = lines[len(lines)-MaxLogLines:]
	}

	ll.file.Truncate(0)
	ll.file.Seek(0, 0)
	for _, line := range lines {
		ll.file.WriteString(line + "\n")
	}
	ll.lineCount = len(lines)
}

func (ll *LimitedLogger) Close() error {
	return ll.file.Close()
}

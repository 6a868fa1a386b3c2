// Package logging provides categorized file-based debug logging for the
// session manager. Logs are written under <workspace>/logs with one file
// per category per day. Nothing is written unless debug mode is enabled,
// so production runs stay silent; operator-facing output goes through
// zap in cmd/.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/system.
type Category string

const (
	CategoryBoot      Category = "boot"      // startup, config resolution
	CategorySession   Category = "session"   // session manager lifecycle
	CategoryWire      Category = "wire"      // protocol encode/decode
	CategoryProc      Category = "proc"      // subprocess lifecycle
	CategoryContainer Category = "container" // SWISH container provisioning
	CategoryFiles     Category = "files"     // knowledge-base file store
)

// Log levels.
const (
	LevelDebug = 0
	LevelInfo  = 1
	LevelWarn  = 2
	LevelError = 3
)

// Options controls logger behavior, set once at startup.
type Options struct {
	Dir   string // directory for log files
	Debug bool   // master switch; false = no files, no-op loggers
	Level string // debug/info/warn/error, default info
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	optsMu   sync.RWMutex
	opts     Options
	logLevel = LevelInfo
)

// Logger wraps a standard logger with category and file output.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Configure sets up the logging directory and level. Safe to call before
// any Get; calling it again re-points new loggers but leaves already
// opened files alone.
func Configure(o Options) error {
	optsMu.Lock()
	opts = o
	switch o.Level {
	case "debug":
		logLevel = LevelDebug
	case "warn", "warning":
		logLevel = LevelWarn
	case "error":
		logLevel = LevelError
	default:
		logLevel = LevelInfo
	}
	optsMu.Unlock()

	if !o.Debug {
		return nil
	}
	if o.Dir == "" {
		return fmt.Errorf("log directory required in debug mode")
	}
	if err := os.MkdirAll(o.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== swish session logging initialized ===")
	boot.Info("Logs directory: %s", o.Dir)
	boot.Info("Level: %s", o.Level)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	optsMu.RLock()
	defer optsMu.RUnlock()
	return opts.Debug
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled.
func Get(category Category) *Logger {
	optsMu.RLock()
	debug, dir := opts.Debug, opts.Dir
	optsMu.RUnlock()

	if !debug || dir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix so old files can be rotated away with a glob.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))

	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] Warning: could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message (only if level <= debug).
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message (only if level <= info).
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message (only if level <= warn).
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > LevelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always logged if logger exists).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick logging without getting a logger first.
// These are no-ops when debug mode is disabled.
// =============================================================================

// Boot logs to the boot category.
func Boot(format string, args ...interface{}) {
	Get(CategoryBoot).Info(format, args...)
}

// BootError logs error to the boot category.
func BootError(format string, args ...interface{}) {
	Get(CategoryBoot).Error(format, args...)
}

// Session logs to the session category.
func Session(format string, args ...interface{}) {
	Get(CategorySession).Info(format, args...)
}

// SessionDebug logs debug to the session category.
func SessionDebug(format string, args ...interface{}) {
	Get(CategorySession).Debug(format, args...)
}

// SessionWarn logs warning to the session category.
func SessionWarn(format string, args ...interface{}) {
	Get(CategorySession).Warn(format, args...)
}

// SessionError logs error to the session category.
func SessionError(format string, args ...interface{}) {
	Get(CategorySession).Error(format, args...)
}

// Wire logs to the wire category.
func Wire(format string, args ...interface{}) {
	Get(CategoryWire).Info(format, args...)
}

// WireDebug logs debug to the wire category.
func WireDebug(format string, args ...interface{}) {
	Get(CategoryWire).Debug(format, args...)
}

// Proc logs to the proc category.
func Proc(format string, args ...interface{}) {
	Get(CategoryProc).Info(format, args...)
}

// ProcDebug logs debug to the proc category.
func ProcDebug(format string, args ...interface{}) {
	Get(CategoryProc).Debug(format, args...)
}

// ProcWarn logs warning to the proc category.
func ProcWarn(format string, args ...interface{}) {
	Get(CategoryProc).Warn(format, args...)
}

// ProcError logs error to the proc category.
func ProcError(format string, args ...interface{}) {
	Get(CategoryProc).Error(format, args...)
}

// Container logs to the container category.
func Container(format string, args ...interface{}) {
	Get(CategoryContainer).Info(format, args...)
}

// ContainerDebug logs debug to the container category.
func ContainerDebug(format string, args ...interface{}) {
	Get(CategoryContainer).Debug(format, args...)
}

// ContainerWarn logs warning to the container category.
func ContainerWarn(format string, args ...interface{}) {
	Get(CategoryContainer).Warn(format, args...)
}

// ContainerError logs error to the container category.
func ContainerError(format string, args ...interface{}) {
	Get(CategoryContainer).Error(format, args...)
}

// Files logs to the files category.
func Files(format string, args ...interface{}) {
	Get(CategoryFiles).Info(format, args...)
}

// FilesDebug logs debug to the files category.
func FilesDebug(format string, args ...interface{}) {
	Get(CategoryFiles).Debug(format, args...)
}

// FilesError logs error to the files category.
func FilesError(format string, args ...interface{}) {
	Get(CategoryFiles).Error(format, args...)
}

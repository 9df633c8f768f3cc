package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/juju/fslock"

	"deleteafter/internal/config"
)

// Level is a logging threshold; messages below it are discarded
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelError
	LevelOff
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelError:
		return "ERROR"
	default:
		return "OFF"
	}
}

// ParseLevel accepts the config spellings debug, info, error and off
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "", "error":
		return LevelError, nil
	case "off":
		return LevelOff, nil
	}
	return LevelOff, fmt.Errorf("unknown log level %q", s)
}

// Logger wraps the standard logger with a level threshold.
// It is a plain value handed to whoever logs; nothing here touches log.Default().
type Logger struct {
	*log.Logger
	level Level
	file  *os.File
}

// New creates a logger writing to w at the given threshold
func New(w io.Writer, level Level) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		level:  level,
	}
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return New(io.Discard, LevelOff)
}

// NewWithConfig creates a logger on stderr plus the optional configured file.
// The file is rotated first when it is older than RotationDays. A file that
// cannot be opened is reported through the returned error while the logger
// keeps writing to stderr.
func NewWithConfig(cfg config.LoggingCfg, stderr io.Writer) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return New(stderr, LevelError), err
	}
	if cfg.File == "" || level == LevelOff {
		return New(stderr, level), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return New(stderr, level), fmt.Errorf("ensure log directory: %w", err)
	}

	rotateDays := 30
	if cfg.RotationDays > 0 {
		rotateDays = cfg.RotationDays
	}
	rotateLogsIfNeeded(cfg.File, rotateDays, time.Now())

	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return New(stderr, level), fmt.Errorf("open log file: %w", err)
	}

	l := New(io.MultiWriter(stderr, f), level)
	l.file = f
	return l, nil
}

// Level returns the logger's threshold
func (l *Logger) Level() Level {
	return l.level
}

// Enabled reports whether messages at level are written
func (l *Logger) Enabled(level Level) bool {
	return l.level != LevelOff && level >= l.level
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.logWithLevel(LevelDebug, msg, args...)
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.logWithLevel(LevelInfo, msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.logWithLevel(LevelError, msg, args...)
}

// logWithLevel prints "[LEVEL] msg k=v k=v"
func (l *Logger) logWithLevel(level Level, msg string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	l.Logger.Println(b.String())
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// rotateLogsIfNeeded rotates the log file when it is older than rotationDays.
// Several helpers can start at once and share one log file, so rotation runs
// under an fslock; whoever loses the race skips rotation for this run.
func rotateLogsIfNeeded(logPath string, rotationDays int, now time.Time) {
	info, err := os.Stat(logPath)
	if err != nil {
		// Log file doesn't exist yet, nothing to rotate
		return
	}

	cutoffTime := now.AddDate(0, 0, -rotationDays)
	if !info.ModTime().Before(cutoffTime) {
		return
	}

	lock := fslock.New(logPath + ".lock")
	if err := lock.TryLock(); err != nil {
		return
	}
	defer lock.Unlock()

	// Re-check under the lock; another process may have rotated already
	info, err = os.Stat(logPath)
	if err != nil || !info.ModTime().Before(cutoffTime) {
		return
	}

	timestamp := info.ModTime().Format("20060102-150405")
	rotatedPath := logPath + "." + timestamp
	if err := os.Rename(logPath, rotatedPath); err != nil {
		log.Printf("failed to rotate log file: %v", err)
		return
	}

	// Rotated files are kept for one more rotation period
	cleanupOldLogs(logPath, cutoffTime.AddDate(0, 0, -rotationDays))
}

// cleanupOldLogs removes rotated log files last written before cutoffTime
func cleanupOldLogs(logPath string, cutoffTime time.Time) {
	logDir := filepath.Dir(logPath)
	prefix := filepath.Base(logPath) + "."

	entries, err := os.ReadDir(logDir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || name == prefix+"lock" {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoffTime) {
			fullPath := filepath.Join(logDir, name)
			if err := os.Remove(fullPath); err != nil {
				log.Printf("failed to remove old log file %s: %v", fullPath, err)
			}
		}
	}
}

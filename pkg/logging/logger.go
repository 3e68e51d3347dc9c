package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger writes component-tagged log lines for tabpilot.
// All components of one process share a rotated file in ~/.tabpilot/logs/.
//
// All log methods (Debugf, Infof, Warnf, Errorf) write unconditionally.
type Logger struct {
	out       io.Writer
	logger    *log.Logger
	sessionID string
	component string
	logPath   string
	mu        sync.Mutex
	closeOnce sync.Once
}

// Rotation limits for the shared log file.
const (
	maxLogSizeMB  = 10
	maxLogBackups = 5
	maxLogAgeDays = 14
)

var (
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	initOnce sync.Once
	initErr  error

	rotatorMu sync.Mutex
	rotators  = map[string]*lumberjack.Logger{}
)

func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists. A directory set before
// the first call (tests, SetDirectory) is kept.
func initLogDirectory() error {
	initOnce.Do(func() {
		if logDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				initErr = fmt.Errorf("failed to get home directory: %w", err)
				return
			}
			logDir = filepath.Join(homeDir, ".tabpilot", "logs")
		}
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("failed to create log directory: %w", err)
		}
	})
	return initErr
}

// SetDirectory overrides the log directory. It must be called before the
// first NewLogger call to take effect.
func SetDirectory(dir string) {
	logDir = dir
}

// rotatorFor returns the shared rotating writer for path.
func rotatorFor(path string) *lumberjack.Logger {
	rotatorMu.Lock()
	defer rotatorMu.Unlock()
	if r, ok := rotators[path]; ok {
		return r
	}
	r := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		MaxAge:     maxLogAgeDays,
	}
	rotators[path] = r
	return r
}

// NewLogger creates a logger for a specific component.
// The logger writes to ~/.tabpilot/logs/<session-id>-tabpilot.log
//
// If the log directory cannot be created it returns a fallback logger that
// writes to stderr along with the error.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component, err), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-tabpilot.log", sessID))

	// lumberjack opens lazily; touch the file so open errors surface here
	// rather than on the first write.
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component, fmt.Errorf("failed to open log file: %w", err)), err
	}
	_ = f.Close()

	out := rotatorFor(logPath)
	return &Logger{
		out:       out,
		logger:    log.New(out, "", 0),
		sessionID: sessID,
		component: component,
		logPath:   logPath,
	}, nil
}

// Discard returns a logger that drops everything. Useful as a default for
// components constructed without one.
func Discard(component string) *Logger {
	return &Logger{
		out:       io.Discard,
		logger:    log.New(io.Discard, "", 0),
		sessionID: getSessionID(),
		component: component,
	}
}

func newFallbackLogger(component string, err error) *Logger {
	logger := log.New(os.Stderr, fmt.Sprintf("[%s] ", component), log.LstdFlags|log.Lshortfile)
	logger.Printf("WARNING: Failed to initialize file logging: %v", err)
	logger.Printf("Falling back to stderr logging")

	return &Logger{
		out:       os.Stderr,
		logger:    logger,
		sessionID: getSessionID(),
		component: component,
	}
}

func (l *Logger) formatLogEntry(level, message string) string {
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, l.component, level, message)
}

func (l *Logger) write(level, format string, v ...interface{}) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logger.Println(l.formatLogEntry(level, fmt.Sprintf(format, v...)))
}

// Printf logs a formatted message at INFO level.
func (l *Logger) Printf(format string, v ...interface{}) { l.write("INFO", format, v...) }

// Debugf logs a debug-level message
func (l *Logger) Debugf(format string, v ...interface{}) { l.write("DEBUG", format, v...) }

// Infof logs an info-level message
func (l *Logger) Infof(format string, v ...interface{}) { l.write("INFO", format, v...) }

// Warnf logs a warning-level message
func (l *Logger) Warnf(format string, v ...interface{}) { l.write("WARN", format, v...) }

// Errorf logs an error-level message
func (l *Logger) Errorf(format string, v ...interface{}) { l.write("ERROR", format, v...) }

// With returns a logger for a sub-component sharing the same output.
func (l *Logger) With(component string) *Logger {
	return &Logger{
		out:       l.out,
		logger:    log.New(l.out, "", 0),
		sessionID: l.sessionID,
		component: l.component + "/" + component,
		logPath:   l.logPath,
	}
}

// Writer returns an io.Writer that writes to this logger's output.
func (l *Logger) Writer() io.Writer {
	return l.out
}

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, empty for stderr or discard loggers.
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close flushes and closes the underlying file. Safe to call multiple times;
// other loggers sharing the file reopen it on their next write.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if c, ok := l.out.(*lumberjack.Logger); ok {
			err = c.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}

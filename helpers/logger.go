package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/skinpricer/logger"
)

// LoggerInterface records item failures and progress messages
type LoggerInterface interface {
	LogError(item string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger appends failures to a plain-text file, one line per item, so a
// later run can be pointed at what was left unresolved.
type Logger struct {
	mu        sync.Mutex
	errorFile string
}

// NewLogger creates a failure logger writing to errorFile.
// An empty path disables the file and only logs to the console.
func NewLogger(errorFile string) *Logger {
	return &Logger{errorFile: errorFile}
}

// LogError appends "[timestamp] [item] error" to the failure file
func (l *Logger) LogError(item string, err error) {
	logger.ForWorker().Warn().Str("item", item).Err(err).Msg("Item unresolved")
	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.LogError("failure-log", fileErr, "failed to open %s", l.errorFile)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	if _, werr := fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, item, err.Error()); werr != nil {
		logger.LogError("failure-log", werr, "failed to write %s", l.errorFile)
	}
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}

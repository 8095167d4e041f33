package logging

import (
	"log"
	"os"
)

// Logger provides level-based logging for the CLI.
type Logger struct {
	debugEnabled bool
	logger       *log.Logger
}

var globalLogger *Logger

// Initialize sets up the global logger with the debug mode setting.
func Initialize(debugMode bool) {
	globalLogger = &Logger{
		debugEnabled: debugMode,
		logger:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

// Info logs informational messages (always shown).
func Info(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.logger.Printf(format, args...)
	}
}

// Debug logs debug messages (only shown when debug mode is enabled).
func Debug(format string, args ...interface{}) {
	if globalLogger != nil && globalLogger.debugEnabled {
		globalLogger.logger.Printf("DEBUG: "+format, args...)
	}
}

// Error logs error messages (always shown).
func Error(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.logger.Printf("ERROR: "+format, args...)
	}
}

// IsDebugEnabled returns true if debug logging is enabled.
func IsDebugEnabled() bool {
	return globalLogger != nil && globalLogger.debugEnabled
}

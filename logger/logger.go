// Package logger provides a configured Zap sugared logger instance for the application.
// It handles initialization based on environment variables (LOG_LEVEL, SERVER_ENVIRONMENT)
// and provides utility functions for masking visitor data in logs.
package logger

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger      *zap.SugaredLogger
	once        sync.Once
	outputPaths []string
)

// IsTest should be set to true when running in a test environment to adjust
// logger configuration (development encoder, stdout only).
var IsTest bool

// initLoggerInternal sets up the global zap.SugaredLogger based on environment.
func initLoggerInternal() {
	var zapLogger *zap.Logger
	var err error

	levelStr := os.Getenv("LOG_LEVEL")
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = zapcore.InfoLevel
	}

	if IsTest {
		cfg := zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stdout"}
		zapLogger, err = cfg.Build()
	} else if os.Getenv("SERVER_ENVIRONMENT") == "production" {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		if len(outputPaths) > 0 {
			cfg.OutputPaths = outputPaths
			cfg.ErrorOutputPaths = outputPaths
		}
		zapLogger, err = cfg.Build()
	} else {
		devCfg := zap.NewDevelopmentConfig()
		devCfg.Level = zap.NewAtomicLevelAt(level)
		if len(outputPaths) > 0 {
			devCfg.OutputPaths = outputPaths
			devCfg.ErrorOutputPaths = outputPaths
		}
		zapLogger, err = devCfg.Build()
	}

	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	logger = zapLogger.Sugar()
}

// InitLogger initializes the global logger instance. Safe for concurrent calls.
func InitLogger() {
	once.Do(initLoggerInternal)
}

// InitLoggerWithOutput initializes the global logger writing to paths instead
// of stdout/stderr. Terminal UIs use it to keep log lines off the screen. It
// has no effect once the logger exists.
func InitLoggerWithOutput(paths ...string) {
	once.Do(func() {
		outputPaths = paths
		initLoggerInternal()
	})
}

// GetLogger returns the shared global zap.SugaredLogger instance,
// initializing it on first use.
func GetLogger() *zap.SugaredLogger {
	once.Do(initLoggerInternal)
	return logger
}

// Close syncs the global logger to flush any buffered log entries.
func Close() error {
	if logger != nil && !IsTest {
		err := logger.Sync()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
		}
		return err
	}
	return nil
}

// MaskSensitiveString masks the middle part of a string, showing only the
// first prefixLen and last suffixLen characters.
func MaskSensitiveString(s string, prefixLen, suffixLen int) string {
	if s == "" {
		return ""
	}

	// Short strings are fully masked so their length is the only thing revealed.
	if len(s) < (prefixLen + suffixLen + 3) {
		return strings.Repeat("*", len(s))
	}

	return s[:prefixLen] + "..." + s[len(s)-suffixLen:]
}

// MaskEmail masks the local part of an email address but keeps the domain.
func MaskEmail(email string) string {
	if email == "" {
		return ""
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return MaskSensitiveString(email, 2, 2)
	}

	return MaskSensitiveString(parts[0], 2, 1) + "@" + parts[1]
}

// MaskConnectionString masks the password of a postgres:// URL or a
// key-value connection string. Best effort only.
func MaskConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}

	masked := connStr

	if idx := strings.Index(masked, "://"); idx != -1 {
		if credIdx := strings.Index(masked[idx+3:], "@"); credIdx != -1 {
			userInfo := masked[idx+3 : idx+3+credIdx]
			if passIdx := strings.Index(userInfo, ":"); passIdx != -1 {
				user := userInfo[:passIdx]
				masked = strings.Replace(masked, userInfo, user+":***", 1)
			}
		}
	}

	if kvIdx := strings.Index(masked, "password="); kvIdx != -1 {
		start := kvIdx + len("password=")
		endIdx := strings.Index(masked[start:], " ")
		if endIdx == -1 {
			masked = masked[:start] + "***"
		} else {
			masked = masked[:start] + "***" + masked[start+endIdx:]
		}
	}

	return masked
}

package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const (
	defaultTimeFormat = "15:04:05.000"
	logFileName       = "colligo.log"
)

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the global logger. Before InitLogger runs it falls back
// to a console-only logger so early startup paths can always log.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	// Double-check after acquiring write lock
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleConfig(defaultTimeFormat, true))
	}
	return globalLogger
}

// InitLogger builds the process logger from configuration: level, text or
// json rendering, and any combination of console and file outputs
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	timeFormat := config.Logging.TimeFormat
	if timeFormat == "" {
		timeFormat = defaultTimeFormat
	}
	textOutput := config.Logging.Format != "json"

	logger := arbor.NewLogger()

	var consoleAdded, fileAdded bool
	for _, output := range config.Logging.Output {
		switch output {
		case "stdout", "console":
			if consoleAdded {
				continue
			}
			logger = logger.WithConsoleWriter(consoleConfig(timeFormat, textOutput))
			consoleAdded = true

		case "file":
			if fileAdded {
				continue
			}
			logFile, err := resolveLogFile()
			if err != nil {
				fmt.Printf("Warning: file logging disabled: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(models.WriterConfiguration{
				Type:       models.LogWriterTypeFile,
				FileName:   logFile,
				TimeFormat: timeFormat,
				MaxSize:    100 * 1024 * 1024, // 100 MB
				MaxBackups: 3,
				TextOutput: textOutput,
			})
			fileAdded = true

		default:
			fmt.Printf("Warning: unknown log output %q ignored\n", output)
		}
	}

	logger = logger.WithLevelFromString(config.Logging.Level)

	globalLogger = logger
	return logger
}

func consoleConfig(timeFormat string, textOutput bool) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: timeFormat,
		TextOutput: textOutput,
	}
}

// resolveLogFile places the log file in a logs directory next to the
// executable, creating the directory when missing
func resolveLogFile() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	return filepath.Join(logsDir, logFileName), nil
}

// GetLogFilePath returns the log file the logger writes to, empty when file
// output is not configured
func GetLogFilePath(logger arbor.ILogger) string {
	if logger != nil {
		if logFilePath := logger.GetLogFilePath(); logFilePath != "" {
			return logFilePath
		}
	}
	return ""
}

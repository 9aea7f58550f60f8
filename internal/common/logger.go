package common

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

const logTimeFormat = "15:04:05"

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.RWMutex
)

// GetLogger returns the shared logger, creating a console-only one on first
// use. Tests and early startup paths rely on this default.
func GetLogger() arbor.ILogger {
	loggerMutex.RLock()
	if globalLogger != nil {
		loggerMutex.RUnlock()
		return globalLogger
	}
	loggerMutex.RUnlock()

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter())
	}
	return globalLogger
}

// InitLogger builds the logger from config (outputs, level) and installs it
// as the shared instance.
func InitLogger(config *Config) arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	logger := arbor.NewLogger()

	for _, output := range config.Logging.Output {
		switch output {
		case "stdout", "console":
			logger = logger.WithConsoleWriter(consoleWriter())
		case "file":
			path, err := logFilePath()
			if err != nil {
				fmt.Printf("Warning: file logging disabled: %v\n", err)
				continue
			}
			logger = logger.WithFileWriter(fileWriter(path))
		}
	}

	logger = logger.WithLevelFromString(config.Logging.Level)
	globalLogger = logger
	return logger
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: logTimeFormat,
		OutputType: models.OutputFormatLogfmt,
	}
}

func fileWriter(path string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   path,
		TimeFormat: logTimeFormat,
		MaxSize:    100 * 1024 * 1024,
		MaxBackups: 3,
		OutputType: models.OutputFormatLogfmt,
	}
}

// logFilePath puts the log next to the binary, under logs/.
func logFilePath() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable path: %w", err)
	}
	logsDir := filepath.Join(filepath.Dir(execPath), "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create logs directory: %w", err)
	}
	return filepath.Join(logsDir, "taskpulse.log"), nil
}

package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"pairlink/internal/constants"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Direction string    `json:"direction"`
	Type      string    `json:"type"`
	Endpoint  string    `json:"endpoint,omitempty"`
	Status    string    `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// Logger writes one JSON line per wire event to a per-connection file
// under the user data dir. Payload fields are never logged, only message
// status values; session tokens must not end up in log files.
type Logger struct {
	mu     sync.Mutex
	file   *os.File
	enc    *json.Encoder
	logDir string
}

func NewLogger(connID string) (*Logger, error) {
	logDir, err := getLogDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get log directory: %w", err)
	}

	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile := filepath.Join(logDir, fmt.Sprintf("%s.log", connID))

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &Logger{
		file:   file,
		enc:    json.NewEncoder(file),
		logDir: logDir,
	}, nil
}

func getLogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	var logDir string
	switch runtime.GOOS {
	case "windows":
		logDir = filepath.Join(homeDir, "AppData", "Local", constants.AppName, "logs")
	case "darwin":
		logDir = filepath.Join(homeDir, "Library", "Logs", constants.AppName)
	default: // linux and others
		logDir = filepath.Join(homeDir, ".local", "share", constants.AppName, "logs")
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			logDir = filepath.Join(xdgData, constants.AppName, "logs")
		}
	}

	return logDir, nil
}

func (l *Logger) Log(entry LogEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.Timestamp = time.Now()
	l.enc.Encode(entry)
}

func (l *Logger) LogMessage(direction, status, endpoint string) {
	l.Log(LogEntry{
		Direction: direction,
		Type:      "message",
		Status:    status,
		Endpoint:  endpoint,
	})
}

func (l *Logger) LogError(direction string, err error, endpoint string) {
	l.Log(LogEntry{
		Direction: direction,
		Type:      "error",
		Error:     err.Error(),
		Endpoint:  endpoint,
	})
}

func (l *Logger) LogEvent(message, endpoint string) {
	l.Log(LogEntry{
		Direction: "client",
		Type:      "event",
		Message:   message,
		Endpoint:  endpoint,
	})
}

func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

func (l *Logger) GetLogPath() string {
	if l.file != nil {
		return l.file.Name()
	}
	return ""
}

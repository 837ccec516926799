package security

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

type AuditEvent struct {
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	IP        string    `json:"ip"`
	RoomCode  string    `json:"room_code,omitempty"`
	Details   string    `json:"details"`
	Severity  string    `json:"severity"`
}

// AuditLogger appends relay security events as JSON lines, one file per
// day, rate limited so a flood cannot fill the disk.
type AuditLogger struct {
	mu          sync.RWMutex
	file        *os.File
	enc         *json.Encoder
	logCount    map[string]int
	windowStart time.Time
}

var (
	instance *AuditLogger
	once     sync.Once
)

func GetAuditLogger() (*AuditLogger, error) {
	var err error
	once.Do(func() {
		instance, err = newAuditLogger()
	})
	return instance, err
}

func newAuditLogger() (*AuditLogger, error) {
	dir, err := getAuditLogDir()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	filename := filepath.Join(dir, fmt.Sprintf("audit-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &AuditLogger{
		file:        file,
		enc:         json.NewEncoder(file),
		logCount:    make(map[string]int),
		windowStart: time.Now(),
	}, nil
}

func getAuditLogDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", constants.AppName, "audit"), nil
	case "darwin":
		return filepath.Join(home, "Library", "Logs", constants.AppName, "audit"), nil
	default:
		return filepath.Join(home, ".local", "share", constants.AppName, "audit"), nil
	}
}

func (al *AuditLogger) Log(event AuditEvent) {
	al.mu.Lock()
	defer al.mu.Unlock()

	now := time.Now()

	if now.Sub(al.windowStart) > time.Minute {
		al.windowStart = now
		al.logCount = make(map[string]int)
	}

	totalLogs := 0
	for _, count := range al.logCount {
		totalLogs += count
	}

	if totalLogs >= constants.MaxAuditLogsPerMinute {
		return
	}

	al.logCount[event.EventType]++
	event.Timestamp = now
	al.enc.Encode(event)
}

func (al *AuditLogger) LogRoomRegister(ip, code string) {
	al.Log(AuditEvent{
		EventType: "room_register",
		IP:        ip,
		RoomCode:  code,
		Details:   "Room registered",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogHubConnect(ip, code string) {
	al.Log(AuditEvent{
		EventType: "hub_connect",
		IP:        ip,
		RoomCode:  code,
		Details:   "Hub parked its leg",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogHubDisconnect(ip, code, reason string) {
	al.Log(AuditEvent{
		EventType: "hub_disconnect",
		IP:        ip,
		RoomCode:  code,
		Details:   fmt.Sprintf("Hub leg closed: %s", reason),
		Severity:  "info",
	})
}

func (al *AuditLogger) LogClientJoin(ip, code string) {
	al.Log(AuditEvent{
		EventType: "client_join",
		IP:        ip,
		RoomCode:  code,
		Details:   "Client bridged into room",
		Severity:  "info",
	})
}

func (al *AuditLogger) LogInvalidRoom(ip, code string) {
	al.Log(AuditEvent{
		EventType: "invalid_room",
		IP:        ip,
		RoomCode:  code,
		Details:   "Join attempt for unknown or expired room",
		Severity:  "warning",
	})
}

func (al *AuditLogger) LogBruteForce(ip string, attempts int) {
	al.Log(AuditEvent{
		EventType: "brute_force",
		IP:        ip,
		Details:   fmt.Sprintf("Multiple failed room lookups: %d", attempts),
		Severity:  "critical",
	})
}

func (al *AuditLogger) LogConnectionLimit(ip string) {
	al.Log(AuditEvent{
		EventType: "connection_limit",
		IP:        ip,
		Details:   "Connection limit exceeded",
		Severity:  "warning",
	})
}

func (al *AuditLogger) Close() error {
	al.mu.Lock()
	defer al.mu.Unlock()
	if al.file != nil {
		return al.file.Close()
	}
	return nil
}

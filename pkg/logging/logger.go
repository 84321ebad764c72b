// Package logging provides satchel's structured logger. Events are written
// as JSONL to per-session log files and, when a bus is attached, rebroadcast
// as "satchel.log" notifications.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/odvcencio/satchel/pkg/bus"
)

// Level represents log severity.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// Category represents the subsystem generating the log.
type Category string

const (
	CategorySession Category = "session"
	CategoryQueue   Category = "queue"
	CategoryHarvest Category = "harvest"
	CategoryPortal  Category = "portal"
	CategoryNetwork Category = "network"
	CategoryConfig  Category = "config"
)

// Event represents a structured log event.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Category  Category       `json:"category"`
	EventType string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Message   string         `json:"message,omitempty"`
}

// Notification is the wire shape of a "satchel.log" bus message.
// Timestamp is epoch milliseconds.
type Notification struct {
	Timestamp int64  `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// Logger writes structured events to log files and the notification bus.
type Logger struct {
	sessionID   string
	baseDir     string
	sessionFile *os.File
	errorFile   *os.File
	mu          sync.Mutex
	minLevel    Level
	bus         bus.MessageBus
}

// NewLogger creates a logger writing under baseDir. Pass an empty baseDir
// for a file-less logger (bus tap and level filtering still apply), which
// is what tests and embedded engines use.
func NewLogger(baseDir, sessionID string) (*Logger, error) {
	l := &Logger{
		sessionID: sessionID,
		baseDir:   baseDir,
		minLevel:  LevelInfo,
	}
	if baseDir == "" {
		return l, nil
	}

	sessionsDir := filepath.Join(baseDir, "sessions")
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}

	sessionFile, err := os.OpenFile(
		filepath.Join(sessionsDir, sessionID+".jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	errorFile, err := os.OpenFile(
		filepath.Join(baseDir, "errors.jsonl"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0644,
	)
	if err != nil {
		sessionFile.Close()
		return nil, fmt.Errorf("failed to open error log: %w", err)
	}

	l.sessionFile = sessionFile
	l.errorFile = errorFile
	return l, nil
}

// SetMinLevel sets the minimum log level.
func (l *Logger) SetMinLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLevel = level
}

// AttachBus wires the logger to a notification bus. Every event at or above
// the minimum level is additionally published as a "satchel.log" message.
func (l *Logger) AttachBus(b bus.MessageBus) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bus = b
}

// Log writes an event to all destinations.
func (l *Logger) Log(event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	if !l.shouldLog(event.Level) {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	data = append(data, '\n')

	if l.sessionFile != nil {
		if _, err := l.sessionFile.Write(data); err != nil {
			return fmt.Errorf("failed to write to session log: %w", err)
		}
	}

	if event.Level == LevelError && l.errorFile != nil {
		if _, err := l.errorFile.Write(data); err != nil {
			return fmt.Errorf("failed to write to error log: %w", err)
		}
	}

	if l.bus != nil {
		notif, err := json.Marshal(Notification{
			Timestamp: event.Timestamp.UnixMilli(),
			Level:     string(event.Level),
			Message:   event.Message,
		})
		if err == nil {
			_ = l.bus.Publish(context.Background(), bus.SubjectLog, notif)
		}
	}

	return nil
}

// shouldLog checks if event should be logged based on level.
func (l *Logger) shouldLog(level Level) bool {
	levels := map[Level]int{
		LevelDebug: 0,
		LevelInfo:  1,
		LevelWarn:  2,
		LevelError: 3,
	}
	return levels[level] >= levels[l.minLevel]
}

// Helper methods for common log patterns

// Debug logs a debug event.
func (l *Logger) Debug(category Category, eventType string, message string, details map[string]any) error {
	return l.Log(Event{
		Level:     LevelDebug,
		Category:  category,
		EventType: eventType,
		Message:   message,
		Details:   details,
	})
}

// Info logs an info event.
func (l *Logger) Info(category Category, eventType string, message string, details map[string]any) error {
	return l.Log(Event{
		Level:     LevelInfo,
		Category:  category,
		EventType: eventType,
		Message:   message,
		Details:   details,
	})
}

// Warn logs a warning event.
func (l *Logger) Warn(category Category, eventType string, message string, details map[string]any) error {
	return l.Log(Event{
		Level:     LevelWarn,
		Category:  category,
		EventType: eventType,
		Message:   message,
		Details:   details,
	})
}

// Error logs an error event.
func (l *Logger) Error(category Category, eventType string, message string, details map[string]any) error {
	return l.Log(Event{
		Level:     LevelError,
		Category:  category,
		EventType: eventType,
		Message:   message,
		Details:   details,
	})
}

// Close closes all log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var errs []error
	if l.sessionFile != nil {
		if err := l.sessionFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if l.errorFile != nil {
		if err := l.errorFile.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing log files: %v", errs)
	}
	return nil
}

package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/satchel/pkg/bus"
)

func TestLoggerWritesSessionFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "test-session")
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Info(CategorySession, "session_started", "session up", map[string]any{
		"headless": true,
	}))

	path := filepath.Join(dir, "sessions", "test-session.jsonl")
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan(), "expected one log line")

	var event Event
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &event))
	assert.Equal(t, LevelInfo, event.Level)
	assert.Equal(t, CategorySession, event.Category)
	assert.Equal(t, "session_started", event.EventType)
	assert.Equal(t, "test-session", event.SessionID)
	assert.False(t, event.Timestamp.IsZero())
}

func TestLoggerErrorsGoToErrorFile(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "errsess")
	require.NoError(t, err)
	defer logger.Close()

	require.NoError(t, logger.Error(CategoryQueue, "action_failed", "boom", nil))
	require.NoError(t, logger.Info(CategoryQueue, "drain_done", "ok", nil))

	data, err := os.ReadFile(filepath.Join(dir, "errors.jsonl"))
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, LevelError, event.Level)
	assert.Equal(t, "boom", event.Message)
}

func TestLoggerMinLevel(t *testing.T) {
	dir := t.TempDir()

	logger, err := NewLogger(dir, "lvl")
	require.NoError(t, err)
	defer logger.Close()

	logger.SetMinLevel(LevelWarn)
	require.NoError(t, logger.Info(CategorySession, "ignored", "should be filtered", nil))
	require.NoError(t, logger.Warn(CategorySession, "kept", "should pass", nil))

	data, err := os.ReadFile(filepath.Join(dir, "sessions", "lvl.jsonl"))
	require.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal(data, &event))
	assert.Equal(t, "kept", event.EventType)
}

func TestLoggerBusTap(t *testing.T) {
	b := bus.NewMemoryBus()
	defer b.Close()

	received := make(chan *bus.Message, 1)
	_, err := b.Subscribe(context.Background(), bus.SubjectLog, func(msg *bus.Message) {
		received <- msg
	})
	require.NoError(t, err)

	logger, err := NewLogger("", "bus-tap")
	require.NoError(t, err)
	logger.AttachBus(b)

	require.NoError(t, logger.Warn(CategoryHarvest, "identity_parse_failed", "bad fragment", nil))

	select {
	case msg := <-received:
		var notif Notification
		require.NoError(t, json.Unmarshal(msg.Data, &notif))
		assert.Equal(t, "WARN", notif.Level)
		assert.Equal(t, "bad fragment", notif.Message)
		assert.InDelta(t, time.Now().UnixMilli(), notif.Timestamp, 5000)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for log notification")
	}
}

func TestFilelessLogger(t *testing.T) {
	logger, err := NewLogger("", "memory-only")
	require.NoError(t, err)
	assert.NoError(t, logger.Info(CategoryPortal, "fetch_done", "ok", nil))
	assert.NoError(t, logger.Close())
}

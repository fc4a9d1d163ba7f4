package mqtt

import (
	"errors"
	"sync"
	"testing"
)

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	warns  []string
	errors []string
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func TestHandleDisconnect_LogsAndNotifies(t *testing.T) {
	c := &Client{}
	logger := &recordingLogger{}
	c.SetLogger(logger)

	var gotErr error
	c.SetOnDisconnect(func(err error) { gotErr = err })

	c.handleDisconnect(errors.New("broker gone"))

	if c.IsConnected() {
		t.Error("expected disconnected state")
	}
	if gotErr == nil || gotErr.Error() != "broker gone" {
		t.Errorf("expected disconnect callback with cause, got %v", gotErr)
	}

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 || logger.warns[0] != "mqtt connection lost" {
		t.Errorf("expected one connection-lost warning, got %v", logger.warns)
	}
}

func TestHandleDisconnect_NoLogger(t *testing.T) {
	c := &Client{}
	// Must not panic without a logger or callback.
	c.handleDisconnect(errors.New("broker gone"))
}

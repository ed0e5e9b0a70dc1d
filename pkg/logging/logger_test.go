package logging

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestLoggerWritesToFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New("merge", WithDir(dir))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer l.Close()

	l.Infof("merged %d fields", 3)
	l.Warnf("rejected field %q", "constraints")

	data, err := os.ReadFile(l.LogPath())
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "[merge] [INFO] merged 3 fields") {
		t.Errorf("missing info entry, got: %s", content)
	}
	if !strings.Contains(content, "[WARN]") {
		t.Errorf("missing warn entry, got: %s", content)
	}
}

func TestLoggerWithWriter(t *testing.T) {
	var buf bytes.Buffer
	l, err := New("extract", WithWriter(&buf))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	l.Debugf("prompt tokens: %d", 128)
	if !strings.Contains(buf.String(), "[extract] [DEBUG] prompt tokens: 128") {
		t.Errorf("unexpected output: %s", buf.String())
	}
	if l.LogPath() != "" {
		t.Errorf("writer-backed logger should have no log path")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *Logger
	l.Infof("should not panic")
}

func TestSessionIDStable(t *testing.T) {
	if SessionID() != SessionID() {
		t.Errorf("session ID changed between calls")
	}
	if len(SessionID()) < 10 {
		t.Errorf("suspiciously short session ID: %q", SessionID())
	}
}

func TestCloseIdempotent(t *testing.T) {
	l, err := New("test", WithDir(t.TempDir()))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

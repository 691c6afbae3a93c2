package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testStringer string

func (s testStringer) String() string { return string(s) }

func swapConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := console
	console = &buf
	t.Cleanup(func() {
		_ = Close()
		console = prev
	})
	return &buf
}

func TestInitAndLoggingToFile(t *testing.T) {
	buf := swapConsole(t)
	tempDir := t.TempDir()
	logPath := filepath.Join(tempDir, "nested", "lvcbench.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init error: %v", err)
	}

	LogEvent("hello %s", "world")
	LogRequest("lvc->llm", "Gemini", "gemini-2.5-flash-lite", map[string]string{"prompt": "P1"})
	_ = Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "hello world") {
		t.Fatalf("expected LogEvent content, got: %s", content)
	}
	if !strings.Contains(content, "[LVC->LLM] backend=Gemini") {
		t.Fatalf("expected LogRequest content, got: %s", content)
	}
	if !strings.Contains(buf.String(), "hello world") {
		t.Fatalf("expected console copy, got: %s", buf.String())
	}
}

func TestBuildRequestMessageDefaults(t *testing.T) {
	msg := buildRequestMessage(" in ", " ", "", map[string]any{"ok": true})
	if !strings.Contains(msg, "[IN]") {
		t.Fatalf("expected uppercased direction, got: %s", msg)
	}
	if !strings.Contains(msg, "backend=unknown") {
		t.Fatalf("expected default backend, got: %s", msg)
	}
	if !strings.Contains(msg, "model=unknown") {
		t.Fatalf("expected default model, got: %s", msg)
	}
	if !strings.Contains(msg, "payload={\"ok\":true}") {
		t.Fatalf("expected payload json, got: %s", msg)
	}
}

func TestFormatPayloadVariants(t *testing.T) {
	if got := formatPayload(nil); got != "null" {
		t.Fatalf("nil payload: %s", got)
	}
	if got := formatPayload(" "); got != `""` {
		t.Fatalf("empty string payload: %s", got)
	}
	if got := formatPayload([]byte("hi")); got != "hi" {
		t.Fatalf("byte payload: %s", got)
	}
	if got := formatPayload(testStringer("ok")); got != "ok" {
		t.Fatalf("stringer payload: %s", got)
	}
}

func TestInitConsoleOnly(t *testing.T) {
	buf := swapConsole(t)
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	LogEvent("console only")
	if !strings.Contains(buf.String(), "console only") {
		t.Fatalf("expected console output, got: %s", buf.String())
	}
}

func TestTruncateLongPayload(t *testing.T) {
	prev := MaxPayloadRunes
	MaxPayloadRunes = 5
	t.Cleanup(func() { MaxPayloadRunes = prev })

	msg := buildRequestMessage("STT->LVC", "whisper", "base", "héllo world")
	if !strings.Contains(msg, "payload=héllo...(6 more runes)") {
		t.Fatalf("expected truncated payload, got: %s", msg)
	}
	if got := truncate("short"); got != "short" {
		t.Fatalf("payload at the limit should be kept, got: %s", got)
	}
}

func TestLogResult(t *testing.T) {
	buf := swapConsole(t)
	if err := Init(""); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	LogResult("Ollama", "P1", 1500*time.Millisecond, nil)
	LogResult("Gemini", "", 20*time.Millisecond, errors.New("boom "))

	out := buf.String()
	if !strings.Contains(out, "[RESULT] backend=Ollama input=P1 elapsed=1.5s status=ok") {
		t.Fatalf("unexpected success line: %s", out)
	}
	if !strings.Contains(out, "[RESULT] backend=Gemini input=unknown elapsed=20ms error=boom") {
		t.Fatalf("unexpected failure line: %s", out)
	}
}

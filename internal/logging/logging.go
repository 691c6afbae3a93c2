// Package logging writes benchmark events and backend traffic to the console
// and an optional log file.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// MaxPayloadRunes caps how much of a request or response body is logged.
var MaxPayloadRunes = 4000

var (
	mu      sync.Mutex
	logFile *os.File
	console io.Writer = os.Stdout
)

// Init routes the standard logger to the console and, when logPath is set, to
// an append-only log file.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	writers := []io.Writer{console}
	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	log.SetOutput(io.MultiWriter(writers...))
	return nil
}

// Close detaches the log file and points the logger back at stderr.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := logFile.Close()
	logFile = nil
	return err
}

func LogEvent(format string, args ...any) {
	log.Println(fmt.Sprintf(format, args...))
}

// LogRequest records one leg of a backend exchange, e.g. direction "LVC->LLM".
func LogRequest(direction, backend, model string, payload any) {
	log.Println(buildRequestMessage(direction, backend, model, payload))
}

// LogResult records the outcome of one timed (input, backend) evaluation.
func LogResult(backend, input string, elapsed time.Duration, err error) {
	parts := []string{
		"[RESULT]",
		"backend=" + orUnknown(backend),
		"input=" + orUnknown(input),
		"elapsed=" + elapsed.Round(time.Millisecond).String(),
	}
	if err != nil {
		parts = append(parts, "error="+strings.TrimSpace(err.Error()))
	} else {
		parts = append(parts, "status=ok")
	}
	log.Println(strings.Join(parts, " "))
}

func buildRequestMessage(direction, backend, model string, payload any) string {
	parts := []string{
		fmt.Sprintf("[%s]", strings.ToUpper(strings.TrimSpace(direction))),
		"backend=" + orUnknown(backend),
		"model=" + orUnknown(model),
		"payload=" + truncate(formatPayload(payload)),
	}
	return strings.Join(parts, " ")
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "unknown"
	}
	return s
}

func truncate(s string) string {
	if MaxPayloadRunes <= 0 || utf8.RuneCountInString(s) <= MaxPayloadRunes {
		return s
	}
	runes := []rune(s)
	return fmt.Sprintf("%s...(%d more runes)", string(runes[:MaxPayloadRunes]), len(runes)-MaxPayloadRunes)
}

func formatPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return "null"
	case string:
		if strings.TrimSpace(v) == "" {
			return `""`
		}
		return v
	case []byte:
		if len(v) == 0 {
			return "[]"
		}
		return string(v)
	case fmt.Stringer:
		return v.String()
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

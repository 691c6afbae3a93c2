package whispercpp

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/providers"
)

func writeAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("RIFF0000WAVE"), 0o644); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestTranscribe(t *testing.T) {
	audio := writeAudio(t)
	var gotFormat, gotFile, gotLanguage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inference" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		if _, header, err := r.FormFile("file"); err == nil {
			gotFile = header.Filename
		}
		_, _ = io.WriteString(w, `{"text":" And so my fellow Americans."}`)
	}))
	defer server.Close()

	backend := appconfig.Backend{Name: "Local Whisper (base)", URL: server.URL + "/", Model: "base", Language: "en"}
	res, err := New(&appconfig.Config{TimeoutSeconds: 5}).Transcribe(context.Background(), providers.TranscriptionRequest{Backend: backend, AudioPath: audio})
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if res.Text != " And so my fellow Americans." {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if gotFormat != "json" || gotFile != "sample.wav" || gotLanguage != "en" {
		t.Fatalf("unexpected form: format=%q file=%q language=%q", gotFormat, gotFile, gotLanguage)
	}
}

func TestTranscribeServerError(t *testing.T) {
	audio := writeAudio(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "failed to read WAV file", http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := New(&appconfig.Config{TimeoutSeconds: 5}).Transcribe(context.Background(), providers.TranscriptionRequest{
		Backend:   appconfig.Backend{URL: server.URL},
		AudioPath: audio,
	})
	if err == nil || !strings.Contains(err.Error(), "failed to read WAV file") {
		t.Fatalf("expected server error, got %v", err)
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	_, err := New(&appconfig.Config{TimeoutSeconds: 5}).Transcribe(context.Background(), providers.TranscriptionRequest{
		Backend:   appconfig.Backend{URL: "http://127.0.0.1:1"},
		AudioPath: filepath.Join(t.TempDir(), "missing.wav"),
	})
	if err == nil || !strings.Contains(err.Error(), "open audio") {
		t.Fatalf("expected open error, got %v", err)
	}
}

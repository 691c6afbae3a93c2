package results

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSaveAndLoadLLM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "results.json")
	records := []LLMRecord{
		{Model: "Gemma3 (4B)", PromptID: "P1", LatencyMS: 1200, TokensPerSecond: 31.5, QualityScore: -1, OfflineCapable: true, Response: "ok"},
		FailedLLM("Gemini", "P1", "General knowledge", "run-1", errors.New("GEMINI_API_KEY environment variable not set.")),
	}
	if err := Save(path, records); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	loaded, err := LoadLLM(path)
	if err != nil {
		t.Fatalf("LoadLLM error: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("expected 2 records, got %d", len(loaded))
	}
	if loaded[0].Failed() || !loaded[1].Failed() {
		t.Fatalf("unexpected failure flags: %+v", loaded)
	}
	if loaded[1].ErrorText() != "GEMINI_API_KEY environment variable not set." || loaded[1].LatencyMS != -1 {
		t.Fatalf("unexpected error record: %+v", loaded[1])
	}
}

func TestSaveOmitsErrorOnSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_results.json")
	if err := Save(path, []TranscriptionRecord{{Model: "m", File: "a.wav", Transcription: "hi", DurationSeconds: 1}}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), `"error"`) {
		t.Fatalf("successful record must not carry an error key: %s", data)
	}
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := Save[LLMRecord](path, nil); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("expected empty array, got %s", data)
	}
}

func TestLoadTranscriptionOriginalFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local_results.json")
	content := `[
    {"model": "Local Whisper (base)", "file": "a.wav", "transcription": " Hello.", "duration_seconds": 1.25},
    {"model": "Local Whisper (base)", "file": "b.wav", "transcription": "Error", "duration_seconds": -1, "error": "boom"}
]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := LoadTranscription(path)
	if err != nil {
		t.Fatalf("LoadTranscription error: %v", err)
	}
	if len(records) != 2 || records[0].DurationSeconds != 1.25 || !records[1].Failed() {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := LoadLLM(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadRejectsSchemaViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte(`[{"model": "x", "latency_ms": "fast"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadLLM(path)
	if err == nil || !strings.Contains(err.Error(), "schema validation failed") {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte(`[{"model": `), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadLLM(path); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := LoadLLM(path)
	if err != nil || len(records) != 0 {
		t.Fatalf("expected empty records, got %v %v", records, err)
	}
}

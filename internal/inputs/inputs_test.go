package inputs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeWAV(t *testing.T, path string, sampleRate, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           make([]int, frames),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func TestDefaultPrompts(t *testing.T) {
	prompts := DefaultPrompts()
	if len(prompts) != 5 {
		t.Fatalf("expected 5 prompts, got %d", len(prompts))
	}
	for i, p := range prompts {
		if want := "P" + string(rune('1'+i)); p.ID != want {
			t.Fatalf("prompt %d: expected %s, got %s", i, want, p.ID)
		}
	}
	if !strings.Contains(prompts[3].Input, "Question: What was the first message sent over ARPANET?") {
		t.Fatalf("unexpected context prompt: %q", prompts[3].Input)
	}
	if err := ValidatePrompts(prompts); err != nil {
		t.Fatalf("default prompts invalid: %v", err)
	}
}

func TestLoadPromptsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := `prompts:
  - id: Q1
    category: Math
    input: What is 2+2?
    expected: 4
  - id: Q2
    category: Trivia
    input: |
      Name the largest planet.
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}
	prompts, err := LoadPrompts(path)
	if err != nil {
		t.Fatalf("LoadPrompts error: %v", err)
	}
	if len(prompts) != 2 || prompts[0].ID != "Q1" || prompts[1].Input != "Name the largest planet.\n" {
		t.Fatalf("unexpected prompts: %+v", prompts)
	}
	if prompts[0].Expected == nil || *prompts[0].Expected != 4 || prompts[1].Expected != nil {
		t.Fatalf("unexpected expectations: %+v", prompts)
	}
}

func TestLoadPromptsEmptyPathUsesDefaults(t *testing.T) {
	prompts, err := LoadPrompts("")
	if err != nil || len(prompts) != 5 {
		t.Fatalf("expected defaults, got %d prompts, err %v", len(prompts), err)
	}
}

func TestLoadPromptsRejectsDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prompts.yaml")
	content := "prompts:\n  - {id: A, input: x}\n  - {id: A, input: y}\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write prompts: %v", err)
	}
	if _, err := LoadPrompts(path); err == nil || !strings.Contains(err.Error(), "duplicate id") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestDiscoverAudioMissingDir(t *testing.T) {
	_, err := DiscoverAudio(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, ErrAudioDirMissing) {
		t.Fatalf("expected ErrAudioDirMissing, got %v", err)
	}
}

func TestDiscoverAudioEmptyDir(t *testing.T) {
	files, err := DiscoverAudio(t.TempDir())
	if err != nil {
		t.Fatalf("DiscoverAudio error: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected no files, got %+v", files)
	}
}

func TestDiscoverAudioSortsAndProbes(t *testing.T) {
	dir := t.TempDir()
	writeWAV(t, filepath.Join(dir, "b.wav"), 16000, 8000)
	if err := os.WriteFile(filepath.Join(dir, "a.mp3"), []byte("not audio"), 0o644); err != nil {
		t.Fatalf("write mp3: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	files, err := DiscoverAudio(dir)
	if err != nil {
		t.Fatalf("DiscoverAudio error: %v", err)
	}
	if len(files) != 2 || files[0].Name != "a.mp3" || files[1].Name != "b.wav" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if files[0].Seconds != -1 {
		t.Fatalf("expected unknown length for mp3, got %v", files[0].Seconds)
	}
	if files[1].Seconds != 0.5 {
		t.Fatalf("expected 0.5s wav, got %v", files[1].Seconds)
	}
}

func TestProbeWAVSecondsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ProbeWAVSeconds(path); err == nil {
		t.Fatal("expected error for invalid wav")
	}
}

func TestLoadExamplePromptSuite(t *testing.T) {
	prompts, err := LoadPrompts(filepath.Join("..", "..", "prompts", "suite.example.yaml"))
	if err != nil {
		t.Fatalf("LoadPrompts: %v", err)
	}
	if len(prompts) != 5 {
		t.Fatalf("expected 5 prompts, got %d", len(prompts))
	}
	if prompts[2].Expected == nil || *prompts[2].Expected != 391 {
		t.Fatalf("expected integer answer on P3, got %+v", prompts[2])
	}
	if prompts[3].ExpectedText != "lo" || !strings.Contains(prompts[3].Input, "ARPANET") {
		t.Fatalf("unexpected P4: %+v", prompts[3])
	}
}

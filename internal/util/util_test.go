// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sample.txt")
	data := []byte("test payload")

	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("unexpected file contents: got %q want %q", got, data)
	}
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "no truncation", in: "hello", max: 10, want: "hello"},
		{name: "ascii truncation", in: "helloworld", max: 5, want: "hello…"},
		{name: "multibyte truncation", in: "こんにちは世界", max: 4, want: "こんにち…"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateRunes(tt.in, tt.max); got != tt.want {
				t.Fatalf("TruncateRunes(%q,%d)=%q want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestWriteFileCreatesParents(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results", "charts", "out.txt")
	if err := WriteFile(path, []byte("x")); err != nil {
		t.Fatalf("WriteFile returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
}

func TestEscapeMarkdownCell(t *testing.T) {
	t.Parallel()

	in := "a | b\nline two\r\nline three"
	want := "a \\| b<br>line two<br>line three"
	if got := EscapeMarkdownCell(in); got != want {
		t.Fatalf("EscapeMarkdownCell(%q)=%q want %q", in, got, want)
	}
	if strings.Contains(EscapeMarkdownCell("x\ny"), "\n") {
		t.Fatal("newlines must not survive escaping")
	}
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Model:One":               "model_one",
		"  Model Two  ":           "model-two",
		"Model--Three!!":          "model-three",
		"__Mixed__Case__":         "mixed__case",
		"Latency Comparison (ms)": "latency-comparison-ms",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, expected)
		}
	}
}

package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrNotFound is returned by the loaders when the results file does not exist.
var ErrNotFound = errors.New("results file not found")

const transcriptionSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["model", "file"],
    "properties": {
      "model": {"type": "string"},
      "file": {"type": "string"},
      "transcription": {"type": "string"},
      "duration_seconds": {"type": "number"},
      "audio_seconds": {"type": "number"},
      "real_time_factor": {"type": "number"},
      "run_id": {"type": "string"},
      "error": {"type": "string"}
    }
  }
}`

const llmSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["model", "prompt_id"],
    "properties": {
      "model": {"type": "string"},
      "prompt_id": {"type": "string"},
      "category": {"type": "string"},
      "latency_ms": {"type": "number"},
      "tokens_per_second": {"type": "number"},
      "time_to_first_token_ms": {"type": "number"},
      "input_tokens": {"type": "integer"},
      "output_tokens": {"type": "integer"},
      "quality_score": {"type": "number"},
      "offline_capable": {"type": "boolean"},
      "cost": {"type": "number"},
      "response": {"type": "string"},
      "notes": {"type": "string"},
      "run_id": {"type": "string"},
      "error": {"type": "string"}
    }
  }
}`

// Save writes records as one indented JSON array, creating parent directories.
func Save[T any](path string, records []T) error {
	if records == nil {
		records = []T{}
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating results directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding results: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("error writing results to file: %w", err)
	}
	return nil
}

// LoadTranscription reads and validates a transcription results file.
func LoadTranscription(path string) ([]TranscriptionRecord, error) {
	return load[TranscriptionRecord](path, transcriptionSchema)
}

// LoadLLM reads and validates an LLM results file.
func LoadLLM(path string) ([]LLMRecord, error) {
	return load[LLMRecord](path, llmSchema)
}

func load[T any](path, schema string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read results %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}

	if err := validate(data, schema); err != nil {
		return nil, fmt.Errorf("results %s: %w", path, err)
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode results %s: %w", path, err)
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

func validate(data []byte, schema string) error {
	result, err := gojsonschema.Validate(gojsonschema.NewStringLoader(schema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

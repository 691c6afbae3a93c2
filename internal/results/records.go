// Package results defines the benchmark record schemas and persists them as
// flat JSON arrays.
package results

// TranscriptionRecord is one (audio file, model) evaluation.
type TranscriptionRecord struct {
	Model           string  `json:"model"`
	File            string  `json:"file"`
	Transcription   string  `json:"transcription"`
	DurationSeconds float64 `json:"duration_seconds"`
	AudioSeconds    float64 `json:"audio_seconds"`
	RealTimeFactor  float64 `json:"real_time_factor"`
	RunID           string  `json:"run_id,omitempty"`
	Error           *string `json:"error,omitempty"`
}

// LLMRecord is one (prompt, model) evaluation.
type LLMRecord struct {
	Model              string  `json:"model"`
	PromptID           string  `json:"prompt_id"`
	Category           string  `json:"category,omitempty"`
	LatencyMS          float64 `json:"latency_ms"`
	TokensPerSecond    float64 `json:"tokens_per_second"`
	TimeToFirstTokenMS float64 `json:"time_to_first_token_ms"`
	InputTokens        int     `json:"input_tokens"`
	OutputTokens       int     `json:"output_tokens"`
	QualityScore       float64 `json:"quality_score"`
	OfflineCapable     bool    `json:"offline_capable"`
	Cost               float64 `json:"cost"`
	Response           string  `json:"response"`
	Notes              string  `json:"notes"`
	RunID              string  `json:"run_id,omitempty"`
	Error              *string `json:"error,omitempty"`
}

// Sentinel written into numeric fields that could not be measured.
const Unavailable = -1.0

// ErrorText returns the record's error message, or "" for a successful record.
func (r TranscriptionRecord) ErrorText() string { return deref(r.Error) }

// Failed reports whether the backend call behind the record failed.
func (r TranscriptionRecord) Failed() bool { return r.Error != nil }

// ErrorText returns the record's error message, or "" for a successful record.
func (r LLMRecord) ErrorText() string { return deref(r.Error) }

// Failed reports whether the backend call behind the record failed.
func (r LLMRecord) Failed() bool { return r.Error != nil }

// FailedTranscription builds the record written when a transcription call fails.
func FailedTranscription(model, file, runID string, err error) TranscriptionRecord {
	msg := err.Error()
	return TranscriptionRecord{
		Model:           model,
		File:            file,
		Transcription:   "Error",
		DurationSeconds: Unavailable,
		AudioSeconds:    Unavailable,
		RealTimeFactor:  Unavailable,
		RunID:           runID,
		Error:           &msg,
	}
}

// FailedLLM builds the record written when an LLM call fails.
func FailedLLM(model, promptID, category, runID string, err error) LLMRecord {
	msg := err.Error()
	return LLMRecord{
		Model:              model,
		PromptID:           promptID,
		Category:           category,
		LatencyMS:          Unavailable,
		TokensPerSecond:    Unavailable,
		TimeToFirstTokenMS: Unavailable,
		QualityScore:       Unavailable,
		Cost:               Unavailable,
		RunID:              runID,
		Error:              &msg,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

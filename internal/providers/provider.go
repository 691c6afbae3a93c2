// internal/providers/provider.go

// Package providers defines the interfaces for calling model backends.
// LLM backends implement ChatProvider; speech-to-text backends implement
// Transcriber. Implementations live in sub-packages (ollama, gemini, openai,
// whispercpp) and are selected by the providerfactory package.
package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/lvcbench/internal/appconfig"
)

// ErrMissingAPIKey is returned when a cloud backend has no key in its environment variable.
var ErrMissingAPIKey = errors.New("api key not configured")

// MissingKeyError reports which environment variable was expected to hold the key.
func MissingKeyError(backend appconfig.Backend) error {
	return fmt.Errorf("%s environment variable not set: %w", backend.APIKeyEnv, ErrMissingAPIKey)
}

// ChatMessage represents a single message in a chat conversation.
// It contains the role of the message sender (e.g., "user", "assistant") and the message content.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StreamMetadata contains metadata about a completed chat stream,
// including performance metrics like timing and token counts. Durations are
// nanoseconds as reported by the backend; zero means not reported.
type StreamMetadata struct {
	Model              string
	CreatedAt          time.Time
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
}

// TokensPerSecond derives generation throughput from the backend's own
// timings, or -1 when the backend did not report them.
func (m StreamMetadata) TokensPerSecond() float64 {
	if m.EvalDuration <= 0 || m.EvalCount <= 0 {
		return -1
	}
	return float64(m.EvalCount) * 1e9 / float64(m.EvalDuration)
}

// StreamRequest encapsulates all the information needed to initiate a chat stream.
type StreamRequest struct {
	Backend          appconfig.Backend
	Model            string
	History          []ChatMessage
	SystemPrompt     string
	Parameters       appconfig.Parameters
	DisableStreaming bool
}

// StreamCallbacks defines the callback functions that are invoked during a chat stream.
// OnChunk is called for each message chunk received, and OnComplete is called when the stream is finished.
type StreamCallbacks struct {
	OnChunk    func(ChatMessage) error
	OnComplete func(StreamMetadata) error
}

// ChatProvider is the interface that all LLM backends must implement.
type ChatProvider interface {
	// EnsureModelReady asks the backend to load the model before timed calls.
	EnsureModelReady(ctx context.Context, backend appconfig.Backend) error
	// Stream sends the conversation and forwards the response to callbacks.
	Stream(ctx context.Context, req StreamRequest, callbacks StreamCallbacks) error
	// Close cleans up any resources used by the provider.
	Close() error
}

// TranscriptionRequest identifies one audio file to transcribe.
type TranscriptionRequest struct {
	Backend   appconfig.Backend
	AudioPath string
	Language  string
}

// TranscriptionResult is the text a backend produced for one audio file.
type TranscriptionResult struct {
	Text     string
	Language string
}

// Transcriber is the interface that all speech-to-text backends implement.
type Transcriber interface {
	Transcribe(ctx context.Context, req TranscriptionRequest) (TranscriptionResult, error)
	Close() error
}

// Pacer is implemented by backends with a request budget. Callers wait on it
// before timing a call so throttling never counts as latency.
type Pacer interface {
	Wait(ctx context.Context) error
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
)

const defaultTranscriptionModel = "whisper-1"

// Transcriber implements providers.Transcriber against /audio/transcriptions.
type Transcriber struct {
	client  *http.Client
	timeout time.Duration
	apiKey  string
}

// NewTranscriber returns a Transcriber, or providers.ErrMissingAPIKey when
// the configured key variable is empty.
func NewTranscriber(cfg *appconfig.Config, backend appconfig.Backend) (*Transcriber, error) {
	key, err := resolveKey(backend)
	if err != nil {
		return nil, err
	}
	timeout := cfg.RequestTimeout()
	return &Transcriber{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		apiKey:  key,
	}, nil
}

// Transcribe uploads one audio file and returns the recognised text.
func (t *Transcriber) Transcribe(ctx context.Context, req providers.TranscriptionRequest) (providers.TranscriptionResult, error) {
	model := strings.TrimSpace(req.Backend.Model)
	if model == "" {
		model = defaultTranscriptionModel
	}
	body, contentType, err := providers.AudioForm(req.AudioPath, map[string]string{
		"model":           model,
		"language":        req.Language,
		"response_format": "json",
	})
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	backendID := req.Backend.Label()
	logging.LogRequest("LVC->STT", backendID, model, map[string]string{"file": filepath.Base(req.AudioPath)})

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(req.Backend.URL)+"/audio/transcriptions", body)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	if t.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	logging.LogRequest("STT->LVC", backendID, model, raw)

	if resp.StatusCode != http.StatusOK {
		return providers.TranscriptionResult{}, fmt.Errorf("openai: /audio/transcriptions returned %s: %s", resp.Status, errorMessage(raw))
	}

	var result struct {
		Text     string `json:"text"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return providers.TranscriptionResult{}, fmt.Errorf("openai: decode transcription: %w", err)
	}
	return providers.TranscriptionResult{Text: result.Text, Language: result.Language}, nil
}

// Close releases any resources held by the transcriber.
func (t *Transcriber) Close() error {
	return nil
}

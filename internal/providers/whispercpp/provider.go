// internal/providers/whispercpp/provider.go
// Package whispercpp provides a Transcriber backed by a whisper.cpp server.
package whispercpp

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

// Provider calls the /inference endpoint of whisper.cpp's example server.
type Provider struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider configured with the application's request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

type inferenceResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Error    string `json:"error"`
}

// Transcribe uploads the audio file and returns the transcript.
func (p *Provider) Transcribe(ctx context.Context, req providers.TranscriptionRequest) (providers.TranscriptionResult, error) {
	language := req.Language
	if language == "" {
		language = req.Backend.Language
	}
	body, contentType, err := providers.AudioForm(req.AudioPath, map[string]string{
		"response_format": "json",
		"language":        language,
		"temperature":     "0.0",
	})
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	backendID := req.Backend.Label()
	logging.LogRequest("LVC->STT", backendID, req.Backend.Model, map[string]string{"file": filepath.Base(req.AudioPath)})

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	endpoint := strings.TrimRight(req.Backend.URL, "/") + "/inference"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.TranscriptionResult{}, err
	}
	logging.LogRequest("STT->LVC", backendID, req.Backend.Model, raw)

	if resp.StatusCode != http.StatusOK {
		return providers.TranscriptionResult{}, fmt.Errorf("whisper.cpp: /inference returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var result inferenceResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return providers.TranscriptionResult{}, fmt.Errorf("whisper.cpp: decode response: %w", err)
	}
	if result.Error != "" {
		return providers.TranscriptionResult{}, fmt.Errorf("whisper.cpp: %s", result.Error)
	}
	return providers.TranscriptionResult{Text: result.Text, Language: result.Language}, nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

// Package llamacpp implements a local LLM backend against llama-server's
// OpenAI-compatible API, reading generation speed from its "timings" report.
package llamacpp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
)

// Provider is a providers.ChatProvider for llama-server, either a
// single-model server or one running in router mode with /models endpoints.
type Provider struct {
	client       *http.Client
	timeout      time.Duration
	pollInterval time.Duration
}

// New constructs a Provider with the configured request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout:      timeout,
		pollInterval: 200 * time.Millisecond,
	}
}

type chatRequest struct {
	Model         string                  `json:"model"`
	Messages      []providers.ChatMessage `json:"messages"`
	Stream        bool                    `json:"stream"`
	TopK          *int                    `json:"top_k,omitempty"`
	TopP          *float64                `json:"top_p,omitempty"`
	MinP          *float64                `json:"min_p,omitempty"`
	Temperature   *float64                `json:"temperature,omitempty"`
	RepeatPenalty *float64                `json:"repeat_penalty,omitempty"`
	Seed          *int64                  `json:"seed,omitempty"`
	MaxTokens     *int                    `json:"max_tokens,omitempty"`
}

// completion is both the non-streamed response and one streamed chunk; the
// final chunk carries timings.
type completion struct {
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
	Timings *timings `json:"timings"`
}

type choice struct {
	Message      providers.ChatMessage `json:"message"`
	Delta        providers.ChatMessage `json:"delta"`
	FinishReason *string               `json:"finish_reason"`
}

// finished reports whether any choice carries a finish_reason.
func (c completion) finished() bool {
	return lo.SomeBy(c.Choices, func(ch choice) bool {
		return ch.FinishReason != nil && *ch.FinishReason != ""
	})
}

// content returns the first choice from either the delta or the full message.
func (c completion) content() providers.ChatMessage {
	if len(c.Choices) == 0 {
		return providers.ChatMessage{}
	}
	msg := c.Choices[0].Delta
	if msg.Content == "" {
		msg = c.Choices[0].Message
	}
	if msg.Role == "" {
		msg.Role = "assistant"
	}
	return msg
}

// timings is llama.cpp's per-request generation report, in milliseconds.
type timings struct {
	PromptN     int     `json:"prompt_n"`
	PromptMS    float64 `json:"prompt_ms"`
	PredictedN  int     `json:"predicted_n"`
	PredictedMS float64 `json:"predicted_ms"`
}

type llamaModel struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Model  string      `json:"model"`
	Path   string      `json:"path"`
	Status statusField `json:"status"`
}

// EnsureModelReady asks a router-mode server to load the model and waits for
// it to report loaded. A single-model server answers 404 or 405 and is
// always ready.
func (p *Provider) EnsureModelReady(ctx context.Context, backend appconfig.Backend) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	status, body, err := p.do(ctx, backend, http.MethodPost, "/models/load", map[string]string{"model": backend.Model})
	if err != nil {
		return err
	}
	switch {
	case status == http.StatusNotFound || status == http.StatusMethodNotAllowed:
		return nil
	case status >= 400 && !alreadyLoaded(status, body):
		return fmt.Errorf("llama.cpp: /models/load returned %d: %s", status, strings.TrimSpace(string(body)))
	}
	return p.waitForModelLoaded(ctx, backend)
}

// Stream posts to /v1/chat/completions and forwards the reply to callbacks.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	messages := req.History
	if req.SystemPrompt != "" {
		messages = append([]providers.ChatMessage{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}
	params := req.Parameters
	payload := chatRequest{
		Model:         req.Model,
		Messages:      sanitizeMessages(messages),
		Stream:        !req.DisableStreaming,
		TopK:          params.TopK,
		TopP:          params.TopP,
		MinP:          params.MinP,
		Temperature:   params.Temperature,
		RepeatPenalty: params.RepeatPenalty,
		Seed:          params.Seed,
		MaxTokens:     params.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	backendID := req.Backend.Label()
	logging.LogRequest("LVC->LLM", backendID, req.Model, body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(req.Backend)+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if payload.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->LVC", backendID, req.Model, raw)
		return fmt.Errorf("llama.cpp: /v1/chat/completions returned %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var final completion
	if payload.Stream {
		final, err = readStream(resp.Body, req, callbacks)
	} else {
		final, err = readWhole(resp.Body, req, callbacks)
	}
	if err != nil {
		return err
	}
	if callbacks.OnComplete != nil {
		return callbacks.OnComplete(metadata(final.Model, req.Model, final.Timings))
	}
	return nil
}

func readWhole(body io.Reader, req providers.StreamRequest, callbacks providers.StreamCallbacks) (completion, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return completion{}, err
	}
	logging.LogRequest("LLM->LVC", req.Backend.Label(), req.Model, raw)

	var parsed completion
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return completion{}, fmt.Errorf("llama.cpp: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return completion{}, errors.New("llama.cpp: chat response contained no choices")
	}
	if msg := parsed.content(); callbacks.OnChunk != nil && strings.TrimSpace(msg.Content) != "" {
		if err := callbacks.OnChunk(msg); err != nil {
			return completion{}, err
		}
	}
	return parsed, nil
}

// readStream forwards deltas and folds the chunks into one completion holding
// the last reported model and timings. The stream must end with [DONE] or a
// chunk carrying a finish_reason.
func readStream(body io.Reader, req providers.StreamRequest, callbacks providers.StreamCallbacks) (completion, error) {
	backendID := req.Backend.Label()
	reader := providers.NewSSEReader(body)
	var final completion
	finished := false
	for {
		data, err := reader.Next()
		if errors.Is(err, io.EOF) {
			if !finished {
				return completion{}, errors.New("llama.cpp: stream ended before completion")
			}
			return final, nil
		}
		if err != nil {
			return completion{}, err
		}
		if providers.IsDone(data) {
			return final, nil
		}
		logging.LogRequest("LLM->LVC", backendID, req.Model, data)

		var chunk completion
		if err := json.Unmarshal(data, &chunk); err != nil {
			return completion{}, fmt.Errorf("llama.cpp: decode stream chunk: %w", err)
		}
		if chunk.Model != "" {
			final.Model = chunk.Model
		}
		if chunk.Timings != nil {
			final.Timings = chunk.Timings
		}
		finished = finished || chunk.finished()
		if msg := chunk.content(); callbacks.OnChunk != nil && msg.Content != "" {
			if err := callbacks.OnChunk(msg); err != nil {
				return completion{}, err
			}
		}
	}
}

// Close is a no-op; the HTTP client holds no per-provider state.
func (p *Provider) Close() error {
	return nil
}

// metadata converts llama.cpp timings into StreamMetadata nanoseconds.
func metadata(reported, requested string, t *timings) providers.StreamMetadata {
	meta := providers.StreamMetadata{
		Model:     lo.Ternary(reported != "", reported, requested),
		CreatedAt: time.Now(),
		Done:      true,
	}
	if t != nil {
		meta.PromptEvalCount = t.PromptN
		meta.PromptEvalDuration = msToNs(t.PromptMS)
		meta.EvalCount = t.PredictedN
		meta.EvalDuration = msToNs(t.PredictedMS)
		meta.TotalDuration = meta.PromptEvalDuration + meta.EvalDuration
	}
	return meta
}

func msToNs(ms float64) int64 {
	if ms <= 0 {
		return 0
	}
	return int64(ms * float64(time.Millisecond))
}

// do sends an optional JSON payload and returns the status and body. Only
// transport failures are errors.
func (p *Provider) do(ctx context.Context, backend appconfig.Backend, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		logging.LogRequest("LVC->LLM", backend.Label(), backend.Model, body)
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, baseURL(backend)+path, reqBody)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	logging.LogRequest("LLM->LVC", backend.Label(), backend.Model, body)
	return resp.StatusCode, body, nil
}

func (p *Provider) waitForModelLoaded(ctx context.Context, backend appconfig.Backend) error {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		loaded, err := p.isModelLoaded(ctx, backend)
		if err != nil {
			return err
		}
		if loaded {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("llama.cpp: model %s did not load before timeout", backend.Model)
		case <-ticker.C:
		}
	}
}

func (p *Provider) isModelLoaded(ctx context.Context, backend appconfig.Backend) (bool, error) {
	status, body, err := p.do(ctx, backend, http.MethodGet, "/models", nil)
	if err != nil {
		return false, err
	}
	if status != http.StatusOK {
		return false, fmt.Errorf("llama.cpp: /models returned %d", status)
	}
	models, err := parseModels(body)
	if err != nil {
		return false, err
	}
	model, ok := lo.Find(models, func(m llamaModel) bool {
		return strings.EqualFold(modelDisplayName(m), backend.Model)
	})
	return ok && strings.EqualFold(strings.TrimSpace(model.Status.Value), "loaded"), nil
}

// parseModels accepts {"data": [...]}, {"models": [...]} and a bare array.
func parseModels(body []byte) ([]llamaModel, error) {
	var wrapped struct {
		Data   []llamaModel `json:"data"`
		Models []llamaModel `json:"models"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		if len(wrapped.Models) > 0 {
			return wrapped.Models, nil
		}
		if len(wrapped.Data) > 0 {
			return wrapped.Data, nil
		}
	}

	var direct []llamaModel
	if err := json.Unmarshal(body, &direct); err == nil && len(direct) > 0 {
		return direct, nil
	}
	return nil, errors.New("llama.cpp: unrecognized /models response")
}

func modelDisplayName(model llamaModel) string {
	name, _ := lo.Find([]string{model.ID, model.Name, model.Model, model.Path}, func(v string) bool {
		return strings.TrimSpace(v) != ""
	})
	return strings.TrimSpace(name)
}

// statusField accepts both "loaded" and {"value": "loaded"}.
type statusField struct {
	Value string
}

func (s *statusField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		s.Value = ""
		return nil
	}
	if trimmed[0] == '"' {
		return json.Unmarshal(data, &s.Value)
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	s.Value = obj.Value
	return nil
}

// alreadyLoaded recognizes the 400 a router returns for a resident model.
func alreadyLoaded(status int, body []byte) bool {
	return status == http.StatusBadRequest && strings.Contains(strings.ToLower(string(body)), "already loaded")
}

// sanitizeMessages drops empty non-assistant turns, which llama-server rejects.
func sanitizeMessages(messages []providers.ChatMessage) []providers.ChatMessage {
	return lo.FilterMap(messages, func(msg providers.ChatMessage, _ int) (providers.ChatMessage, bool) {
		role := strings.TrimSpace(msg.Role)
		content := strings.TrimSpace(msg.Content)
		if role == "" {
			role = "user"
		}
		return providers.ChatMessage{Role: role, Content: content}, role == "assistant" || content != ""
	})
}

func baseURL(backend appconfig.Backend) string {
	return strings.TrimRight(backend.URL, "/")
}

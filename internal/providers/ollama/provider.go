// Package ollama implements the local LLM backend against Ollama's
// /api/chat and /api/generate endpoints.
package ollama

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

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
)

// Provider talks to one or more Ollama servers; the target URL comes with
// each request.
type Provider struct {
	client  *http.Client
	timeout time.Duration
}

// New constructs a Provider with the configured request timeout.
func New(cfg *appconfig.Config) *Provider {
	timeout := cfg.RequestTimeout()
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		timeout: timeout,
	}
}

type chatRequest struct {
	Model    string                  `json:"model"`
	Messages []providers.ChatMessage `json:"messages"`
	Options  map[string]any          `json:"options"`
	Stream   bool                    `json:"stream"`
}

type generateRequest struct {
	Model string `json:"model"`
}

// chatChunk is one NDJSON line of /api/chat. A non-streamed reply is a single
// chunk with Done set.
type chatChunk struct {
	Model   string `json:"model"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Error              string `json:"error"`
	Done               bool   `json:"done"`
	TotalDuration      int64  `json:"total_duration"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalCount          int    `json:"eval_count"`
	EvalDuration       int64  `json:"eval_duration"`
}

func (c chatChunk) metadata(fallbackModel string) providers.StreamMetadata {
	model := c.Model
	if model == "" {
		model = fallbackModel
	}
	return providers.StreamMetadata{
		Model:              model,
		CreatedAt:          time.Now(),
		Done:               c.Done,
		TotalDuration:      c.TotalDuration,
		LoadDuration:       c.LoadDuration,
		PromptEvalCount:    c.PromptEvalCount,
		PromptEvalDuration: c.PromptEvalDuration,
		EvalCount:          c.EvalCount,
		EvalDuration:       c.EvalDuration,
	}
}

// EnsureModelReady sends a prompt-less generate request, which makes Ollama
// load the model without producing tokens.
func (p *Provider) EnsureModelReady(ctx context.Context, backend appconfig.Backend) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.post(ctx, backend, backend.Model, "/api/generate", generateRequest{Model: backend.Model})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->LVC", backend.Label(), backend.Model, body)
	return nil
}

// Stream sends the conversation to /api/chat and forwards the reply to
// callbacks as it arrives.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	messages := make([]providers.ChatMessage, 0, len(req.History)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, providers.ChatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, req.History...)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.post(ctx, req.Backend, req.Model, "/api/chat", chatRequest{
		Model:    req.Model,
		Messages: messages,
		Options:  buildOptions(req.Parameters),
		Stream:   !req.DisableStreaming,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	final, err := p.readChunks(resp.Body, req, callbacks)
	if err != nil {
		return err
	}
	if callbacks.OnComplete != nil {
		return callbacks.OnComplete(final.metadata(req.Model))
	}
	return nil
}

// readChunks decodes chunks until one reports done and returns that chunk. A
// body that ends before the done chunk is an error.
func (p *Provider) readChunks(body io.Reader, req providers.StreamRequest, callbacks providers.StreamCallbacks) (chatChunk, error) {
	backendID := req.Backend.Label()
	decoder := json.NewDecoder(body)
	for {
		var chunk chatChunk
		if err := decoder.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return chatChunk{}, errors.New("ollama: stream ended before done")
			}
			return chatChunk{}, fmt.Errorf("ollama: decode chat response: %w", err)
		}
		logging.LogRequest("LLM->LVC", backendID, req.Model, chunk)

		if chunk.Error != "" {
			return chatChunk{}, fmt.Errorf("ollama: %s", chunk.Error)
		}
		if callbacks.OnChunk != nil && chunk.Message.Content != "" {
			role := chunk.Message.Role
			if role == "" {
				role = "assistant"
			}
			if err := callbacks.OnChunk(providers.ChatMessage{Role: role, Content: chunk.Message.Content}); err != nil {
				return chatChunk{}, err
			}
		}
		if chunk.Done {
			return chunk, nil
		}
	}
}

// post sends payload as JSON and returns the response when its status is 200.
func (p *Provider) post(ctx context.Context, backend appconfig.Backend, model, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	logging.LogRequest("LVC->LLM", backend.Label(), model, body)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(backend.URL, "/")+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->LVC", backend.Label(), model, errBody)
		return nil, fmt.Errorf("ollama: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(errBody)))
	}
	return resp, nil
}

// buildOptions maps the configured sampling parameters onto Ollama's option
// names; unset parameters are left to the model's defaults.
func buildOptions(params appconfig.Parameters) map[string]any {
	options := map[string]any{}
	if params.TopK != nil {
		options["top_k"] = *params.TopK
	}
	if params.TopP != nil {
		options["top_p"] = *params.TopP
	}
	if params.MinP != nil {
		options["min_p"] = *params.MinP
	}
	if params.Temperature != nil {
		options["temperature"] = *params.Temperature
	}
	if params.RepeatPenalty != nil {
		options["repeat_penalty"] = *params.RepeatPenalty
	}
	if params.Seed != nil {
		options["seed"] = *params.Seed
	}
	if params.MaxTokens != nil {
		options["num_predict"] = *params.MaxTokens
	}
	return options
}

// Close is a no-op; the HTTP client holds no per-provider state.
func (p *Provider) Close() error {
	return nil
}

// Package openai talks to OpenAI-compatible chat completion and audio
// transcription endpoints.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// ChatProvider implements providers.ChatProvider against /chat/completions.
type ChatProvider struct {
	client  *http.Client
	timeout time.Duration
	apiKey  string
}

// NewChat returns a ChatProvider. A backend with an apiKeyEnv whose variable is
// empty yields providers.ErrMissingAPIKey; a backend without apiKeyEnv is
// treated as an unauthenticated local server.
func NewChat(cfg *appconfig.Config, backend appconfig.Backend) (*ChatProvider, error) {
	key, err := resolveKey(backend)
	if err != nil {
		return nil, err
	}
	timeout := cfg.RequestTimeout()
	return &ChatProvider{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		apiKey:  key,
	}, nil
}

func resolveKey(backend appconfig.Backend) (string, error) {
	if strings.TrimSpace(backend.APIKeyEnv) == "" {
		return "", nil
	}
	key := backend.APIKey()
	if key == "" {
		return "", providers.MissingKeyError(backend)
	}
	return key, nil
}

func baseURL(raw string) string {
	base := strings.TrimRight(strings.TrimSpace(raw), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

type chatRequest struct {
	Model         string                  `json:"model"`
	Messages      []providers.ChatMessage `json:"messages"`
	Stream        bool                    `json:"stream"`
	StreamOptions *streamOptions          `json:"stream_options,omitempty"`
	Temperature   *float64                `json:"temperature,omitempty"`
	TopP          *float64                `json:"top_p,omitempty"`
	MaxTokens     *int                    `json:"max_tokens,omitempty"`
	Seed          *int64                  `json:"seed,omitempty"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      providers.ChatMessage `json:"message"`
		Delta        providers.ChatMessage `json:"delta"`
		FinishReason *string               `json:"finish_reason"`
	} `json:"choices"`
	Usage *usage `json:"usage,omitempty"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EnsureModelReady is a no-op for hosted endpoints.
func (p *ChatProvider) EnsureModelReady(ctx context.Context, backend appconfig.Backend) error {
	return nil
}

// Stream posts the conversation and forwards deltas (or the whole message when
// streaming is disabled) to callbacks.
func (p *ChatProvider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	messages := req.History
	if req.SystemPrompt != "" {
		messages = append([]providers.ChatMessage{{Role: "system", Content: req.SystemPrompt}}, messages...)
	}
	payload := chatRequest{
		Model:       req.Model,
		Messages:    messages,
		Stream:      !req.DisableStreaming,
		Temperature: req.Parameters.Temperature,
		TopP:        req.Parameters.TopP,
		MaxTokens:   req.Parameters.MaxTokens,
		Seed:        req.Parameters.Seed,
	}
	if payload.Stream {
		payload.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	backendID := req.Backend.Label()
	logging.LogRequest("LVC->LLM", backendID, req.Model, body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(req.Backend.URL)+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		logging.LogRequest("LLM->LVC", backendID, req.Model, raw)
		return fmt.Errorf("openai: /chat/completions returned %s: %s", resp.Status, errorMessage(raw))
	}

	meta := providers.StreamMetadata{Model: req.Model, Done: true}

	if !payload.Stream {
		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		logging.LogRequest("LLM->LVC", backendID, req.Model, raw)
		var result chatResponse
		if err := json.Unmarshal(raw, &result); err != nil {
			return fmt.Errorf("openai: decode response: %w", err)
		}
		if len(result.Choices) == 0 {
			return errors.New("openai: response contained no choices")
		}
		msg := result.Choices[0].Message
		if msg.Role == "" {
			msg.Role = "assistant"
		}
		if callbacks.OnChunk != nil && msg.Content != "" {
			if err := callbacks.OnChunk(msg); err != nil {
				return err
			}
		}
		applyUsage(&meta, result)
		return complete(callbacks, meta)
	}

	// A stream is complete once [DONE] or a finish_reason arrives.
	finished := false
	reader := providers.NewSSEReader(resp.Body)
	for {
		data, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				if !finished {
					return errors.New("openai: stream ended before completion")
				}
				break
			}
			return err
		}
		if providers.IsDone(data) {
			break
		}
		logging.LogRequest("LLM->LVC", backendID, req.Model, data)

		var chunk chatResponse
		if err := json.Unmarshal(data, &chunk); err != nil {
			return fmt.Errorf("openai: decode stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("openai: stream error: %s", chunk.Error.Message)
		}
		applyUsage(&meta, chunk)
		if len(chunk.Choices) > 0 && chunk.Choices[0].FinishReason != nil && *chunk.Choices[0].FinishReason != "" {
			finished = true
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if callbacks.OnChunk != nil {
			delta := chunk.Choices[0].Delta
			if delta.Role == "" {
				delta.Role = "assistant"
			}
			if err := callbacks.OnChunk(delta); err != nil {
				return err
			}
		}
	}
	return complete(callbacks, meta)
}

// Close releases any resources held by the provider.
func (p *ChatProvider) Close() error {
	return nil
}

func applyUsage(meta *providers.StreamMetadata, resp chatResponse) {
	if resp.Model != "" {
		meta.Model = resp.Model
	}
	if resp.Usage != nil {
		meta.PromptEvalCount = resp.Usage.PromptTokens
		meta.EvalCount = resp.Usage.CompletionTokens
	}
}

func complete(callbacks providers.StreamCallbacks, meta providers.StreamMetadata) error {
	if callbacks.OnComplete == nil {
		return nil
	}
	meta.CreatedAt = time.Now()
	return callbacks.OnComplete(meta)
}

func errorMessage(raw []byte) string {
	var env struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		return env.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

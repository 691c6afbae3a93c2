// internal/providers/gemini/provider.go
// Package gemini provides a ChatProvider backed by the Gemini generateContent API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Provider implements providers.ChatProvider for Gemini.
type Provider struct {
	client  *http.Client
	timeout time.Duration
	apiKey  string
}

// New returns a Provider for backend, or providers.ErrMissingAPIKey when the
// backend's key environment variable is empty.
func New(cfg *appconfig.Config, backend appconfig.Backend) (*Provider, error) {
	key := backend.APIKey()
	if key == "" {
		return nil, providers.MissingKeyError(backend)
	}
	timeout := cfg.RequestTimeout()
	return &Provider{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		apiKey:  key,
	}, nil
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     *float64 `json:"temperature,omitempty"`
	TopP            *float64 `json:"topP,omitempty"`
	TopK            *int     `json:"topK,omitempty"`
	MaxOutputTokens *int     `json:"maxOutputTokens,omitempty"`
	Seed            *int64   `json:"seed,omitempty"`
}

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// EnsureModelReady is a no-op: hosted models are always loaded.
func (p *Provider) EnsureModelReady(ctx context.Context, backend appconfig.Backend) error {
	return nil
}

// Stream sends one generateContent request and delivers the full text as a single chunk.
func (p *Provider) Stream(ctx context.Context, req providers.StreamRequest, callbacks providers.StreamCallbacks) error {
	payload := buildRequest(req)
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	backendID := req.Backend.Label()
	logging.LogRequest("LVC->LLM", backendID, req.Model, body)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(req.Backend.URL, req.Model), bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->LVC", backendID, req.Model, respBody)

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gemini: generateContent returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
		}
		return fmt.Errorf("gemini: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != nil {
			return fmt.Errorf("gemini: generateContent returned %s: %s", resp.Status, result.Error.Message)
		}
		return fmt.Errorf("gemini: generateContent returned %s", resp.Status)
	}
	if len(result.Candidates) == 0 {
		return fmt.Errorf("gemini: response contained no candidates")
	}

	var sb strings.Builder
	for _, pt := range result.Candidates[0].Content.Parts {
		sb.WriteString(pt.Text)
	}
	// SAFETY or MAX_TOKENS stops can return a candidate with no parts.
	if sb.Len() == 0 {
		return fmt.Errorf("gemini: candidate has no text (finishReason %s)", result.Candidates[0].FinishReason)
	}

	if callbacks.OnChunk != nil {
		if err := callbacks.OnChunk(providers.ChatMessage{Role: "assistant", Content: sb.String()}); err != nil {
			return err
		}
	}
	if callbacks.OnComplete != nil {
		modelName := result.ModelVersion
		if modelName == "" {
			modelName = req.Model
		}
		meta := providers.StreamMetadata{
			Model:           modelName,
			CreatedAt:       time.Now(),
			Done:            true,
			PromptEvalCount: result.UsageMetadata.PromptTokenCount,
			EvalCount:       result.UsageMetadata.CandidatesTokenCount,
		}
		if err := callbacks.OnComplete(meta); err != nil {
			return err
		}
	}
	return nil
}

// Close releases any resources held by the provider.
func (p *Provider) Close() error {
	return nil
}

func endpoint(baseURL, model string) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = defaultBaseURL
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, url.PathEscape(model))
}

func buildRequest(req providers.StreamRequest) generateRequest {
	out := generateRequest{}
	for _, msg := range req.History {
		role := "user"
		if msg.Role == "assistant" {
			role = "model"
		}
		out.Contents = append(out.Contents, content{Role: role, Parts: []part{{Text: msg.Content}}})
	}
	if strings.TrimSpace(req.SystemPrompt) != "" {
		out.SystemInstruction = &content{Parts: []part{{Text: req.SystemPrompt}}}
	}
	params := req.Parameters
	if params.Temperature != nil || params.TopP != nil || params.TopK != nil || params.MaxTokens != nil || params.Seed != nil {
		out.GenerationConfig = &generationConfig{
			Temperature:     params.Temperature,
			TopP:            params.TopP,
			TopK:            params.TopK,
			MaxOutputTokens: params.MaxTokens,
			Seed:            params.Seed,
		}
	}
	return out
}

package benchmark

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mwiater/lvcbench/internal/accuracy"
	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
	"github.com/mwiater/lvcbench/internal/results"
)

// LLMOptions overrides the configured prompt suite and output file.
type LLMOptions struct {
	PromptsFile string
	OutputPath  string
}

// RunLLM is the CLI entry point for the LLM pipeline. It evaluates the prompt
// suite against every configured LLM backend and writes the records once at
// the end of the run.
func RunLLM(ctx context.Context, cfg *appconfig.Config, opts LLMOptions) error {
	if cfg == nil {
		return fmt.Errorf("nil config provided to llm benchmark")
	}
	promptsFile := opts.PromptsFile
	if promptsFile == "" {
		promptsFile = cfg.PromptsFile
	}
	prompts, err := inputs.LoadPrompts(promptsFile)
	if err != nil {
		return err
	}

	records, err := EvaluateLLM(ctx, cfg, prompts)
	if err != nil {
		return err
	}

	path := opts.OutputPath
	if path == "" {
		path = cfg.LLMResultsPath()
	}
	if err := writeLLMResultsFn(path, records); err != nil {
		return err
	}
	logging.LogEvent("Tests complete. Results saved to %s", path)
	return nil
}

// EvaluateLLM runs every prompt against every backend, backend-major, and
// returns one record per pair. Backend failures become error records; only
// context cancellation stops the run.
func EvaluateLLM(ctx context.Context, cfg *appconfig.Config, prompts []inputs.Prompt) ([]results.LLMRecord, error) {
	runID := newRunID()
	records := make([]results.LLMRecord, 0, len(prompts)*len(cfg.LLMBackends))

	for _, backend := range cfg.LLMBackends {
		label := backend.Label()
		logging.LogEvent("Running tests on %s (%s)...", label, backend.Model)

		provider, err := newChatProvider(cfg, backend)
		if err != nil {
			logging.LogEvent("error creating provider for %s: %v", label, err)
			for _, prompt := range prompts {
				records = append(records, results.FailedLLM(label, prompt.ID, prompt.Category, runID, err))
			}
			continue
		}

		if cfg.Warmup && !backend.Cloud {
			logging.LogEvent("Ensuring model %s is loaded on %s...", backend.Model, label)
			if err := provider.EnsureModelReady(ctx, backend); err != nil {
				logging.LogEvent("warm-up failed for %s: %v", label, err)
			}
		}

		bar := newProgressBar(out, label, len(prompts), cfg.Progress)
		for _, prompt := range prompts {
			if err := ctx.Err(); err != nil {
				_ = provider.Close()
				return records, err
			}
			logging.LogEvent("  Running prompt: %s (%s)", prompt.ID, prompt.Category)
			record := evaluatePrompt(ctx, provider, backend, prompt, runID)
			if !record.Failed() {
				logging.LogEvent("  Result: %s latency=%.0fms tokens/s=%.2f", prompt.ID, record.LatencyMS, record.TokensPerSecond)
			}
			records = append(records, record)
			bar.step()
		}
		_ = provider.Close()
	}

	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, nil
}

func evaluatePrompt(ctx context.Context, provider providers.ChatProvider, backend appconfig.Backend, prompt inputs.Prompt, runID string) results.LLMRecord {
	label := backend.Label()
	if pacer, ok := provider.(providers.Pacer); ok {
		if err := pacer.Wait(ctx); err != nil {
			return results.FailedLLM(label, prompt.ID, prompt.Category, runID, err)
		}
	}

	var response strings.Builder
	var meta providers.StreamMetadata
	var firstToken time.Time

	req := providers.StreamRequest{
		Backend:          backend,
		Model:            backend.Model,
		History:          []providers.ChatMessage{{Role: "user", Content: prompt.Input}},
		SystemPrompt:     backend.SystemPrompt,
		Parameters:       backend.Parameters,
		DisableStreaming: backend.DisableStreaming,
	}
	callbacks := providers.StreamCallbacks{
		OnChunk: func(chunk providers.ChatMessage) error {
			if firstToken.IsZero() {
				firstToken = now()
			}
			response.WriteString(chunk.Content)
			return nil
		},
		OnComplete: func(m providers.StreamMetadata) error {
			meta = m
			return nil
		},
	}

	start := now()
	err := provider.Stream(ctx, req, callbacks)
	end := now()
	logging.LogResult(label, prompt.ID, end.Sub(start), err)
	if err != nil {
		return results.FailedLLM(label, prompt.ID, prompt.Category, runID, err)
	}

	ttft := results.Unavailable
	if !firstToken.IsZero() {
		ttft = millis(firstToken.Sub(start))
	}
	notes := ""
	if meta.EvalCount > 0 {
		notes = fmt.Sprintf("Tokens: %d", meta.EvalCount)
	}

	return results.LLMRecord{
		Model:              label,
		PromptID:           prompt.ID,
		Category:           prompt.Category,
		LatencyMS:          millis(end.Sub(start)),
		TokensPerSecond:    meta.TokensPerSecond(),
		TimeToFirstTokenMS: ttft,
		InputTokens:        meta.PromptEvalCount,
		OutputTokens:       meta.EvalCount,
		QualityScore:       accuracy.Score(prompt, response.String()),
		OfflineCapable:     !backend.Cloud,
		Cost:               callCost(backend),
		Response:           response.String(),
		Notes:              notes,
		RunID:              runID,
	}
}

// callCost is the configured per-call cost, else 0 for local and -1 (unknown)
// for cloud backends.
func callCost(backend appconfig.Backend) float64 {
	if backend.CostPerCall != nil {
		return *backend.CostPerCall
	}
	if backend.Cloud {
		return results.Unavailable
	}
	return 0
}

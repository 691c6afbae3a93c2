// internal/providerfactory/factory.go
package providerfactory

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
	"github.com/mwiater/lvcbench/internal/providers/gemini"
	"github.com/mwiater/lvcbench/internal/providers/llamacpp"
	"github.com/mwiater/lvcbench/internal/providers/ollama"
	"github.com/mwiater/lvcbench/internal/providers/openai"
	"github.com/mwiater/lvcbench/internal/providers/whispercpp"
)

// NewChatProvider selects and configures the chat provider for one LLM backend.
// Backends declaring requestsPerMinute are wrapped with a limiter that the
// runner consults before it starts the clock.
func NewChatProvider(cfg *appconfig.Config, backend appconfig.Backend) (providers.ChatProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var provider providers.ChatProvider
	switch backend.Type {
	case appconfig.TypeOllama:
		provider = ollama.New(cfg)
	case appconfig.TypeLlamaCpp:
		provider = llamacpp.New(cfg)
	case appconfig.TypeGemini:
		p, err := gemini.New(cfg, backend)
		if err != nil {
			logging.LogEvent("gemini provider unavailable for %s: %v", backend.Label(), err)
			return nil, err
		}
		provider = p
	case appconfig.TypeOpenAI:
		p, err := openai.NewChat(cfg, backend)
		if err != nil {
			logging.LogEvent("openai provider unavailable for %s: %v", backend.Label(), err)
			return nil, err
		}
		provider = p
	default:
		return nil, fmt.Errorf("unsupported llm backend type %q for %s", backend.Type, backend.Label())
	}

	if limiter := newLimiter(backend); limiter != nil {
		provider = &pacedChatProvider{ChatProvider: provider, limiter: limiter}
	}
	return provider, nil
}

// NewTranscriber selects and configures the transcriber for one speech-to-text backend.
func NewTranscriber(cfg *appconfig.Config, backend appconfig.Backend) (providers.Transcriber, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to provider factory")
	}

	var transcriber providers.Transcriber
	switch backend.Type {
	case appconfig.TypeWhisperCpp:
		transcriber = whispercpp.New(cfg)
	case appconfig.TypeOpenAI:
		t, err := openai.NewTranscriber(cfg, backend)
		if err != nil {
			logging.LogEvent("openai transcriber unavailable for %s: %v", backend.Label(), err)
			return nil, err
		}
		transcriber = t
	default:
		return nil, fmt.Errorf("unsupported transcription backend type %q for %s", backend.Type, backend.Label())
	}

	if limiter := newLimiter(backend); limiter != nil {
		transcriber = &pacedTranscriber{Transcriber: transcriber, limiter: limiter}
	}
	return transcriber, nil
}

func newLimiter(backend appconfig.Backend) *rate.Limiter {
	if backend.RequestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(backend.RequestsPerMinute)), 1)
}

type pacedChatProvider struct {
	providers.ChatProvider
	limiter *rate.Limiter
}

// Wait blocks until the backend's request budget allows another call.
func (p *pacedChatProvider) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

type pacedTranscriber struct {
	providers.Transcriber
	limiter *rate.Limiter
}

// Wait blocks until the backend's request budget allows another call.
func (p *pacedTranscriber) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}

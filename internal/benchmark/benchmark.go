// internal/benchmark/benchmark.go
// Package benchmark runs the inputs of a pipeline against every configured
// backend and persists one record per (input, backend) pair.
package benchmark

import (
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/lvcbench/internal/providerfactory"
	"github.com/mwiater/lvcbench/internal/results"
)

var (
	newChatProvider             = providerfactory.NewChatProvider
	newTranscriber              = providerfactory.NewTranscriber
	writeLLMResultsFn           = results.Save[results.LLMRecord]
	writeTranscriptionResultsFn = results.Save[results.TranscriptionRecord]
	now                         = time.Now
	newRunID                    = uuid.NewString
)

// out receives progress bars and run banners.
var out io.Writer = os.Stdout

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

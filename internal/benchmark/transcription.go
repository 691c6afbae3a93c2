package benchmark

import (
	"context"
	"errors"
	"fmt"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/providers"
	"github.com/mwiater/lvcbench/internal/results"
)

// TranscriptionOptions overrides the configured audio directory and output file.
type TranscriptionOptions struct {
	AudioDir   string
	OutputPath string
}

// RunTranscription is the CLI entry point for the transcription pipeline. A
// missing or empty audio directory is reported and nothing is written.
func RunTranscription(ctx context.Context, cfg *appconfig.Config, opts TranscriptionOptions) error {
	if cfg == nil {
		return fmt.Errorf("nil config provided to transcription benchmark")
	}
	dir := opts.AudioDir
	if dir == "" {
		dir = cfg.AudioDirPath()
	}

	files, err := inputs.DiscoverAudio(dir)
	if err != nil {
		if errors.Is(err, inputs.ErrAudioDirMissing) {
			fmt.Fprintf(out, "Error: The directory '%s' does not exist.\n", dir)
			fmt.Fprintln(out, "Please create it and add some audio files to transcribe.")
			return nil
		}
		return err
	}
	if len(files) == 0 {
		fmt.Fprintf(out, "No audio files found in '%s'.\n", dir)
		fmt.Fprintln(out, "Please add some audio files to transcribe.")
		return nil
	}

	records, err := EvaluateTranscription(ctx, cfg, files)
	if err != nil {
		return err
	}

	path := opts.OutputPath
	if path == "" {
		path = cfg.TranscriptionResultsPath()
	}
	if err := writeTranscriptionResultsFn(path, records); err != nil {
		return err
	}
	printTranscriptionTable(out, records)
	logging.LogEvent("Benchmark complete. Results saved to %s", path)
	return nil
}

// EvaluateTranscription transcribes every file with every transcription
// backend, backend-major, returning one record per pair.
func EvaluateTranscription(ctx context.Context, cfg *appconfig.Config, files []inputs.AudioFile) ([]results.TranscriptionRecord, error) {
	runID := newRunID()
	records := make([]results.TranscriptionRecord, 0, len(files)*len(cfg.TranscriptionBackends))

	for _, backend := range cfg.TranscriptionBackends {
		label := backend.Label()
		logging.LogEvent("Starting %s benchmark...", label)

		transcriber, err := newTranscriber(cfg, backend)
		if err != nil {
			logging.LogEvent("error creating transcriber for %s: %v", label, err)
			for _, file := range files {
				records = append(records, results.FailedTranscription(label, file.Name, runID, err))
			}
			continue
		}

		bar := newProgressBar(out, "Transcribing ("+label+")", len(files), cfg.Progress)
		for _, file := range files {
			if err := ctx.Err(); err != nil {
				_ = transcriber.Close()
				return records, err
			}
			record := transcribeFile(ctx, transcriber, backend, file, runID)
			records = append(records, record)
			bar.step()
		}
		_ = transcriber.Close()
	}

	if err := ctx.Err(); err != nil {
		return records, err
	}
	return records, nil
}

func transcribeFile(ctx context.Context, transcriber providers.Transcriber, backend appconfig.Backend, file inputs.AudioFile, runID string) results.TranscriptionRecord {
	label := backend.Label()
	if pacer, ok := transcriber.(providers.Pacer); ok {
		if err := pacer.Wait(ctx); err != nil {
			return results.FailedTranscription(label, file.Name, runID, err)
		}
	}

	start := now()
	res, err := transcriber.Transcribe(ctx, providers.TranscriptionRequest{
		Backend:   backend,
		AudioPath: file.Path,
		Language:  backend.Language,
	})
	end := now()
	logging.LogResult(label, file.Name, end.Sub(start), err)
	if err != nil {
		return results.FailedTranscription(label, file.Name, runID, err)
	}

	duration := end.Sub(start).Seconds()
	audioSeconds := results.Unavailable
	rtf := results.Unavailable
	if file.Seconds > 0 {
		audioSeconds = file.Seconds
		rtf = duration / file.Seconds
	}

	return results.TranscriptionRecord{
		Model:           label,
		File:            file.Name,
		Transcription:   res.Text,
		DurationSeconds: duration,
		AudioSeconds:    audioSeconds,
		RealTimeFactor:  rtf,
		RunID:           runID,
	}
}

package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Debug:           %v\n", cfg.Debug)
	fmt.Fprintf(out, "  Log File:        %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Timeout:         %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Warmup:          %v\n", cfg.Warmup)
	fmt.Fprintf(out, "  Results Dir:     %s\n", cfg.ResultsDirPath())
	fmt.Fprintf(out, "  Audio Dir:       %s\n", cfg.AudioDirPath())
	if cfg.PromptsFile != "" {
		fmt.Fprintf(out, "  Prompts File:    %s\n", cfg.PromptsFile)
	} else {
		fmt.Fprintln(out, "  Prompts File:    (built-in suite)")
	}
	fmt.Fprintf(out, "  LLM Results:     %s\n", cfg.LLMResultsPath())
	fmt.Fprintf(out, "  Audio Results:   %s\n", cfg.TranscriptionResultsPath())
	fmt.Fprintf(out, "  Baseline:        %s\n", cfg.BaselinePath())

	fmt.Fprintln(out, "\nLLM backends:")
	showBackends(out, cfg.LLMBackends)
	fmt.Fprintln(out, "\nTranscription backends:")
	showBackends(out, cfg.TranscriptionBackends)
}

func showBackends(out io.Writer, backends []Backend) {
	if len(backends) == 0 {
		fmt.Fprintln(out, "  (none)")
		return
	}
	for _, b := range backends {
		where := "local"
		if b.Cloud {
			where = "cloud"
		}
		fmt.Fprintf(out, "  - %s [%s, %s] %s model=%s\n", b.Label(), b.Type, where, b.URL, b.Model)
		if b.APIKeyEnv != "" {
			state := "unset"
			if b.APIKey() != "" {
				state = "set"
			}
			fmt.Fprintf(out, "      api key: $%s (%s)\n", b.APIKeyEnv, state)
		}
		if b.RequestsPerMinute > 0 {
			fmt.Fprintf(out, "      pacing:  %d requests/minute\n", b.RequestsPerMinute)
		}
	}
}

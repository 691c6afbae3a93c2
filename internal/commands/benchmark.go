// internal/commands/benchmark.go
package lvcbench

import (
	"github.com/mwiater/lvcbench/internal/benchmark"
	"github.com/spf13/cobra"
)

var (
	runLLMBenchmark           = benchmark.RunLLM
	runTranscriptionBenchmark = benchmark.RunTranscription
)

// benchmarkCmd groups benchmark-related CLI commands.
var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Group commands for running benchmarks",
}

var benchmarkLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Run the prompt suite against every configured LLM backend",
	Long: `Sends each prompt of the suite to every configured LLM backend, one call at a
time, and writes one record per (prompt, backend) pair to the results file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := benchmark.LLMOptions{}
		opts.PromptsFile, _ = cmd.Flags().GetString("prompts")
		opts.OutputPath, _ = cmd.Flags().GetString("output")
		return runLLMBenchmark(cmd.Context(), GetConfig(), opts)
	},
}

var benchmarkTranscriptionCmd = &cobra.Command{
	Use:   "transcription",
	Short: "Transcribe every audio file with every configured speech-to-text backend",
	Long: `Transcribes each file of the audio directory with every configured
transcription backend and writes one record per (file, backend) pair.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := benchmark.TranscriptionOptions{}
		opts.AudioDir, _ = cmd.Flags().GetString("audio-dir")
		opts.OutputPath, _ = cmd.Flags().GetString("output")
		return runTranscriptionBenchmark(cmd.Context(), GetConfig(), opts)
	},
}

func init() {
	benchmarkLLMCmd.Flags().String("prompts", "", "YAML prompt suite (defaults to the built-in suite)")
	benchmarkLLMCmd.Flags().String("output", "", "results file (defaults to results/results.json)")
	benchmarkTranscriptionCmd.Flags().String("audio-dir", "", "directory of audio files (defaults to audio_samples)")
	benchmarkTranscriptionCmd.Flags().String("output", "", "results file (defaults to results/local_results.json)")

	benchmarkCmd.AddCommand(benchmarkLLMCmd, benchmarkTranscriptionCmd)
	rootCmd.AddCommand(benchmarkCmd)
}

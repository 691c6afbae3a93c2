// internal/commands/analyze.go
package lvcbench

import (
	"github.com/mwiater/lvcbench/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	analyzeLLM           = analysis.AnalyzeLLM
	analyzeTranscription = analysis.AnalyzeTranscription
)

// analyzeCmd hosts commands that inspect benchmark output and build reports.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze benchmark outputs",
	Long: `Tools for post-processing benchmark runs. Use these commands to turn raw
benchmark JSON into a markdown comparison report and bar charts.`,
}

var analyzeLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Compare LLM records: latency, tokens/s and side-by-side responses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := analyzeOptions(cmd)
		opts.PromptsFile, _ = cmd.Flags().GetString("prompts")
		_, err := analyzeLLM(*GetConfig(), opts)
		return err
	},
}

var analyzeTranscriptionCmd = &cobra.Command{
	Use:   "transcription",
	Short: "Compare transcription records against the cloud baseline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := analyzeTranscription(*GetConfig(), analyzeOptions(cmd))
		return err
	},
}

func analyzeOptions(cmd *cobra.Command) analysis.Options {
	var opts analysis.Options
	opts.Input, _ = cmd.Flags().GetString("input")
	opts.Baseline, _ = cmd.Flags().GetString("baseline")
	opts.Markdown, _ = cmd.Flags().GetString("markdown")
	opts.ChartsDir, _ = cmd.Flags().GetString("charts-dir")
	return opts
}

func addAnalyzeFlags(cmd *cobra.Command, input, baseline string) {
	cmd.Flags().String("input", "", "results file to analyze (defaults to "+input+")")
	cmd.Flags().String("baseline", "", "optional baseline results file ("+baseline+")")
	cmd.Flags().String("markdown", "", "markdown report path (defaults to results/comparison.md)")
	cmd.Flags().String("charts-dir", "", "chart output directory (defaults to results/charts)")
}

func init() {
	addAnalyzeFlags(analyzeLLMCmd, "results/results.json", "none by default")
	analyzeLLMCmd.Flags().String("prompts", "", "YAML prompt suite used for prompt text (defaults to the built-in suite)")
	addAnalyzeFlags(analyzeTranscriptionCmd, "results/local_results.json", "defaults to results/cloud_results.json")

	analyzeCmd.AddCommand(analyzeLLMCmd, analyzeTranscriptionCmd)
	rootCmd.AddCommand(analyzeCmd)
}

package analysis

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/logging"
	"github.com/mwiater/lvcbench/internal/metrics"
	"github.com/mwiater/lvcbench/internal/results"
	"github.com/mwiater/lvcbench/internal/util"
)

var out io.Writer = os.Stdout

// Options overrides the configured analyzer paths. Empty fields use the
// configuration's defaults.
type Options struct {
	Input       string
	Baseline    string
	Markdown    string
	ChartsDir   string
	PromptsFile string
}

// Report lists what an analysis run produced.
type Report struct {
	Markdown string
	Charts   []string
}

func (o Options) resolve(input, baseline string, cfg appconfig.Config) Options {
	if o.Input == "" {
		o.Input = input
	}
	if o.Baseline == "" {
		o.Baseline = baseline
	}
	if o.Markdown == "" {
		o.Markdown = cfg.ComparisonPath()
	}
	if o.ChartsDir == "" {
		o.ChartsDir = cfg.ChartsDirPath()
	}
	if o.PromptsFile == "" {
		o.PromptsFile = cfg.PromptsFile
	}
	return o
}

// loadSources reads the primary and baseline files with load. A missing
// primary yields ok=false after printing a diagnostic; a missing baseline
// only warns.
func loadSources[T any](opts Options, load func(string) ([]T, error)) (primary, baseline []T, ok bool, err error) {
	primary, err = load(opts.Input)
	if errors.Is(err, results.ErrNotFound) {
		fmt.Fprintln(out, errorText(fmt.Sprintf("Error: Results file not found at %s", opts.Input)))
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("load %s: %w", opts.Input, err)
	}
	if len(primary) == 0 {
		fmt.Fprintln(out, "No results to analyze.")
		return nil, nil, false, nil
	}

	if opts.Baseline == "" {
		return primary, nil, true, nil
	}
	baseline, err = load(opts.Baseline)
	if errors.Is(err, results.ErrNotFound) {
		fmt.Fprintln(out, warnText(fmt.Sprintf("Warning: %s not found. Analyzing %s only.", opts.Baseline, opts.Input)))
		return primary, nil, true, nil
	}
	if err != nil {
		return nil, nil, false, fmt.Errorf("load %s: %w", opts.Baseline, err)
	}
	return primary, baseline, true, nil
}

func summarize(obs []Observation) []metrics.ModelSummary {
	agg := metrics.NewAggregator()
	for _, o := range obs {
		agg.Record(o.Model, o.Metrics, o.Failed())
	}
	return agg.Summaries()
}

// AnalyzeLLM compares LLM records and writes the markdown report and charts.
// It returns a zero Report when there was nothing to analyze.
func AnalyzeLLM(cfg appconfig.Config, opts Options) (Report, error) {
	opts = opts.resolve(cfg.LLMResultsPath(), "", cfg)
	primary, baseline, ok, err := loadSources(opts, results.LoadLLM)
	if err != nil || !ok {
		return Report{}, err
	}
	suite, err := inputs.LoadPrompts(opts.PromptsFile)
	if err != nil {
		logging.LogEvent("analyze: prompt suite unavailable, rendering responses without prompt text: %v", err)
		suite = nil
	}

	obs := Combine(FromLLM(primary), FromLLM(baseline))
	summaries := summarize(obs)
	report := Report{Markdown: opts.Markdown}
	if err := util.WriteFile(opts.Markdown, []byte(renderLLMReport(obs, summaries, suite))); err != nil {
		return Report{}, fmt.Errorf("write %s: %w", opts.Markdown, err)
	}

	latency := Pivot(obs, MetricLatencyMS)
	paths, err := RenderCharts(opts.ChartsDir, ChartSpec{
		Name:   "latency_comparison",
		Title:  "Latency Comparison",
		YLabel: "Latency (ms)",
		XLabel: "Prompt ID",
	}, latency)
	if err != nil {
		return Report{}, err
	}
	report.Charts = append(report.Charts, paths...)

	tps := Pivot(obs, MetricTokensPerSecond)
	if tps.Any(func(v float64) bool { return v > 0 }) {
		paths, err := RenderCharts(opts.ChartsDir, ChartSpec{
			Name:   "tokens_per_second_comparison",
			Title:  "Tokens per Second Comparison",
			YLabel: "Tokens per Second",
			XLabel: "Prompt ID",
		}, tps)
		if err != nil {
			return Report{}, err
		}
		report.Charts = append(report.Charts, paths...)
	}

	printSummaryTable(out, llmSummaryColumns, summaries)
	printReport(report)
	return report, nil
}

// AnalyzeTranscription compares transcription records, by default the local
// results against the cloud baseline.
func AnalyzeTranscription(cfg appconfig.Config, opts Options) (Report, error) {
	opts = opts.resolve(cfg.TranscriptionResultsPath(), cfg.BaselinePath(), cfg)
	primary, baseline, ok, err := loadSources(opts, results.LoadTranscription)
	if err != nil || !ok {
		return Report{}, err
	}

	obs := Combine(FromTranscription(primary), FromTranscription(baseline))
	summaries := summarize(obs)
	report := Report{Markdown: opts.Markdown}
	if err := util.WriteFile(opts.Markdown, []byte(renderTranscriptionReport(obs, summaries))); err != nil {
		return Report{}, fmt.Errorf("write %s: %w", opts.Markdown, err)
	}

	paths, err := RenderCharts(opts.ChartsDir, ChartSpec{
		Name:   "latency_comparison",
		Title:  "Transcription Latency Comparison",
		YLabel: "Duration (s)",
		XLabel: "Audio File",
	}, Pivot(obs, MetricDurationSeconds))
	if err != nil {
		return Report{}, err
	}
	report.Charts = paths

	printSummaryTable(out, transcriptionSummaryColumns, summaries)
	printReport(report)
	return report, nil
}

func printReport(r Report) {
	fmt.Fprintln(out, successText("Analysis complete."))
	fmt.Fprintf(out, "Markdown report: %s\n", r.Markdown)
	for _, p := range r.Charts {
		fmt.Fprintf(out, "Chart: %s\n", p)
	}
	logging.LogEvent("analysis wrote %s and %d chart file(s)", r.Markdown, len(r.Charts))
}

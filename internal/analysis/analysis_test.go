package analysis

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mwiater/lvcbench/internal/appconfig"
	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/results"
)

func quiet(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	t.Cleanup(func() { out = prev })
	return &buf
}

func testConfig(t *testing.T) appconfig.Config {
	t.Helper()
	return appconfig.Config{ResultsDir: filepath.Join(t.TempDir(), "results")}
}

func section(md, heading string) string {
	start := strings.Index(md, heading)
	if start < 0 {
		return ""
	}
	rest := md[start+len(heading):]
	if end := strings.Index(rest, "\n## "); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func tableRows(s string) int {
	n := 0
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, "| ") {
			n++
		}
	}
	// header and alignment rows
	return n - 2
}

func TestPivotMeanAndSort(t *testing.T) {
	obs := []Observation{
		{Input: "b.wav", Model: "Z", Metrics: map[string]float64{MetricDurationSeconds: 2}},
		{Input: "a.wav", Model: "Z", Metrics: map[string]float64{MetricDurationSeconds: 1}},
		{Input: "a.wav", Model: "Z", Metrics: map[string]float64{MetricDurationSeconds: 3}},
		{Input: "a.wav", Model: "A", Metrics: map[string]float64{MetricDurationSeconds: 5}},
		{Input: "c.wav", Model: "A", Err: "boom", Metrics: map[string]float64{}},
	}
	tbl := Pivot(obs, MetricDurationSeconds)
	if strings.Join(tbl.Rows, ",") != "a.wav,b.wav" {
		t.Fatalf("unexpected rows %v", tbl.Rows)
	}
	if strings.Join(tbl.Cols, ",") != "A,Z" {
		t.Fatalf("unexpected cols %v", tbl.Cols)
	}
	if v, ok := tbl.Value("a.wav", "Z"); !ok || v != 2 {
		t.Fatalf("expected mean 2, got %v %v", v, ok)
	}
	if _, ok := tbl.Value("b.wav", "A"); ok {
		t.Fatalf("expected missing cell for b.wav/A")
	}
}

func TestCombineKeepsSharedInputs(t *testing.T) {
	primary := []Observation{{Input: "A", Model: "local"}, {Input: "B", Model: "local"}}
	baseline := []Observation{{Input: "A", Model: "cloud"}, {Input: "C", Model: "cloud"}}

	combined := Combine(primary, baseline)
	if len(combined) != 2 {
		t.Fatalf("expected 2 observations, got %+v", combined)
	}
	for _, o := range combined {
		if o.Input != "A" {
			t.Fatalf("unexpected input %q", o.Input)
		}
	}
	if got := Combine(primary, nil); len(got) != 2 {
		t.Fatalf("empty baseline should not filter, got %+v", got)
	}
}

func TestFromLLMOmitsUnavailableMetrics(t *testing.T) {
	obs := FromLLM([]results.LLMRecord{
		{Model: "m", PromptID: "P1", LatencyMS: 120, TokensPerSecond: -1, TimeToFirstTokenMS: 0},
		results.FailedLLM("m", "P2", "Logic", "", io.ErrUnexpectedEOF),
	})
	if _, ok := obs[0].Metrics[MetricTokensPerSecond]; ok {
		t.Fatalf("tokens/s sentinel should be omitted")
	}
	if obs[0].Metrics[MetricLatencyMS] != 120 {
		t.Fatalf("unexpected latency %v", obs[0].Metrics)
	}
	if !obs[1].Failed() || len(obs[1].Metrics) != 0 {
		t.Fatalf("failed record should carry no metrics: %+v", obs[1])
	}
}

func TestRenderLLMReportResponses(t *testing.T) {
	obs := FromLLM([]results.LLMRecord{
		{Model: "gemma3:4b", PromptID: "P1", Category: "Logic", LatencyMS: 10, Response: "a | b\nc"},
		results.FailedLLM("gemini", "P1", "Logic", "", io.EOF),
		{Model: "gemma3:4b", PromptID: "P2", Category: "Math", LatencyMS: 20, Response: "42"},
	})
	suite := []inputs.Prompt{{ID: "P1", Category: "Logic", Input: "Why?"}}
	md := renderLLMReport(obs, summarize(obs), suite)

	for _, want := range []string{
		"# Model Response Comparison",
		"### Prompt P1: Logic",
		"**Prompt:** `Why?`",
		"a \\| b<br>c",
		"Error: EOF",
		"Response not found.",
		"| P1 | 10.00 |",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("report missing %q:\n%s", want, md)
		}
	}
}

func TestAnalyzeTranscriptionMissingPrimary(t *testing.T) {
	buf := quiet(t)
	cfg := testConfig(t)

	report, err := AnalyzeTranscription(cfg, Options{})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if report.Markdown != "" || len(report.Charts) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
	if _, err := os.Stat(cfg.ResultsDirPath()); !os.IsNotExist(err) {
		t.Fatalf("results dir should not be created, stat err=%v", err)
	}
	if !strings.Contains(buf.String(), "Results file not found") {
		t.Fatalf("expected diagnostic, got %q", buf.String())
	}
}

func TestAnalyzeEmptyPrimary(t *testing.T) {
	buf := quiet(t)
	cfg := testConfig(t)
	if err := results.Save(cfg.LLMResultsPath(), []results.LLMRecord{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := AnalyzeLLM(cfg, Options{}); err != nil {
		t.Fatalf("AnalyzeLLM error: %v", err)
	}
	if !strings.Contains(buf.String(), "No results to analyze.") {
		t.Fatalf("expected empty diagnostic, got %q", buf.String())
	}
	if _, err := os.Stat(cfg.ComparisonPath()); !os.IsNotExist(err) {
		t.Fatalf("comparison should not be written")
	}
}

func TestAnalyzeTranscriptionTwoFiles(t *testing.T) {
	quiet(t)
	cfg := testConfig(t)
	records := []results.TranscriptionRecord{
		{Model: "Local Whisper (base)", File: "a.wav", Transcription: "one", DurationSeconds: 1.0, AudioSeconds: -1, RealTimeFactor: -1},
		{Model: "Local Whisper (base)", File: "b.wav", Transcription: "two", DurationSeconds: 1.0, AudioSeconds: -1, RealTimeFactor: -1},
	}
	if err := results.Save(cfg.TranscriptionResultsPath(), records); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err := AnalyzeTranscription(cfg, Options{})
	if err != nil {
		t.Fatalf("AnalyzeTranscription error: %v", err)
	}
	data, err := os.ReadFile(report.Markdown)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	md := string(data)
	durations := section(md, "## Transcription Durations")
	if rows := tableRows(durations); rows != 2 {
		t.Fatalf("expected 2 duration rows, got %d:\n%s", rows, durations)
	}
	if !strings.Contains(durations, "| a.wav | 1.00 |") {
		t.Fatalf("unexpected duration table:\n%s", durations)
	}
	if strings.Contains(md, "## Real-Time Factor") {
		t.Fatalf("rtf section should be omitted when unknown")
	}
	for _, name := range []string{"latency_comparison.png", "latency_comparison.html"} {
		if _, err := os.Stat(filepath.Join(cfg.ChartsDirPath(), name)); err != nil {
			t.Fatalf("missing chart %s: %v", name, err)
		}
	}
}

func TestAnalyzeTranscriptionBaselineIntersection(t *testing.T) {
	quiet(t)
	cfg := testConfig(t)
	local := []results.TranscriptionRecord{
		{Model: "local", File: "A.wav", DurationSeconds: 1},
		{Model: "local", File: "B.wav", DurationSeconds: 1},
	}
	cloud := []results.TranscriptionRecord{
		{Model: "cloud", File: "A.wav", DurationSeconds: 2},
		{Model: "cloud", File: "C.wav", DurationSeconds: 2},
	}
	if err := results.Save(cfg.TranscriptionResultsPath(), local); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := results.Save(cfg.BaselinePath(), cloud); err != nil {
		t.Fatalf("save: %v", err)
	}

	report, err := AnalyzeTranscription(cfg, Options{})
	if err != nil {
		t.Fatalf("AnalyzeTranscription error: %v", err)
	}
	data, _ := os.ReadFile(report.Markdown)
	md := string(data)
	if !strings.Contains(md, "| A.wav | 2.00 | 1.00 |") {
		t.Fatalf("expected A.wav row for both models:\n%s", md)
	}
	if strings.Contains(md, "B.wav") || strings.Contains(md, "C.wav") {
		t.Fatalf("unshared inputs leaked into report:\n%s", md)
	}
}

func TestAnalyzeMissingBaselineWarns(t *testing.T) {
	buf := quiet(t)
	cfg := testConfig(t)
	if err := results.Save(cfg.TranscriptionResultsPath(), []results.TranscriptionRecord{{Model: "local", File: "a.wav", DurationSeconds: 1}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := AnalyzeTranscription(cfg, Options{}); err != nil {
		t.Fatalf("AnalyzeTranscription error: %v", err)
	}
	if !strings.Contains(buf.String(), "Warning:") {
		t.Fatalf("expected baseline warning, got %q", buf.String())
	}
}

func TestAnalyzeLLMIdempotent(t *testing.T) {
	quiet(t)
	cfg := testConfig(t)
	records := []results.LLMRecord{
		{Model: "gemma3:4b", PromptID: "P1", Category: "Logic", LatencyMS: 1500, TokensPerSecond: 40, Response: "yes"},
		{Model: "gemini-2.5-flash-lite", PromptID: "P1", Category: "Logic", LatencyMS: 800, TokensPerSecond: -1, Response: "no"},
		{Model: "gemma3:4b", PromptID: "P2", Category: "Math", LatencyMS: 900, TokensPerSecond: 38, Response: "4"},
		results.FailedLLM("gemini-2.5-flash-lite", "P2", "Math", "", io.ErrUnexpectedEOF),
	}
	if err := results.Save(cfg.LLMResultsPath(), records); err != nil {
		t.Fatalf("save: %v", err)
	}

	read := func(path string) []byte {
		t.Helper()
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		return data
	}

	first, err := AnalyzeLLM(cfg, Options{})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if len(first.Charts) != 4 {
		t.Fatalf("expected latency and tokens/s charts, got %v", first.Charts)
	}
	md1 := read(first.Markdown)
	html1 := read(filepath.Join(cfg.ChartsDirPath(), "latency_comparison.html"))

	second, err := AnalyzeLLM(cfg, Options{})
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !bytes.Equal(md1, read(second.Markdown)) {
		t.Fatalf("markdown differs between runs")
	}
	if !bytes.Equal(html1, read(filepath.Join(cfg.ChartsDirPath(), "latency_comparison.html"))) {
		t.Fatalf("chart html differs between runs")
	}
}

func TestAnalyzeLLMSkipsThroughputChartWithoutTimings(t *testing.T) {
	quiet(t)
	cfg := testConfig(t)
	records := []results.LLMRecord{
		{Model: "gemini", PromptID: "P1", LatencyMS: 800, TokensPerSecond: -1, Response: "ok"},
	}
	if err := results.Save(cfg.LLMResultsPath(), records); err != nil {
		t.Fatalf("save: %v", err)
	}
	report, err := AnalyzeLLM(cfg, Options{})
	if err != nil {
		t.Fatalf("AnalyzeLLM error: %v", err)
	}
	for _, p := range report.Charts {
		if strings.Contains(p, "tokens_per_second") {
			t.Fatalf("unexpected throughput chart %s", p)
		}
	}
}

func TestAnalyzeRejectsMalformedResults(t *testing.T) {
	quiet(t)
	cfg := testConfig(t)
	path := cfg.LLMResultsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`[{"model": 3}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := AnalyzeLLM(cfg, Options{}); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestPrintSummaryTable(t *testing.T) {
	var buf bytes.Buffer
	obs := []Observation{
		{Input: "a", Model: "m1", Metrics: map[string]float64{MetricLatencyMS: 10}},
		{Input: "b", Model: "m1", Err: "x"},
	}
	printSummaryTable(&buf, llmSummaryColumns, summarize(obs))
	got := buf.String()
	if !strings.Contains(got, "m1") || !strings.Contains(got, "10.00") || !strings.Contains(got, "Errors") {
		t.Fatalf("unexpected table:\n%s", got)
	}
}

func TestRenderLLMReportQualitySection(t *testing.T) {
	scored := FromLLM([]results.LLMRecord{
		{Model: "m", PromptID: "Q1", LatencyMS: 5, QualityScore: 1},
	})
	if md := renderLLMReport(scored, summarize(scored), nil); !strings.Contains(md, "## Quality Score") || !strings.Contains(md, "| Q1 | 1.00 |") {
		t.Fatalf("expected quality section:\n%s", md)
	}

	unscored := FromLLM([]results.LLMRecord{
		{Model: "m", PromptID: "Q1", LatencyMS: 5, QualityScore: -1},
	})
	if md := renderLLMReport(unscored, summarize(unscored), nil); strings.Contains(md, "## Quality Score") {
		t.Fatalf("unscored records should not render a quality section:\n%s", md)
	}
}

func TestRenderLLMReportListsUnansweredSuitePrompts(t *testing.T) {
	obs := FromLLM([]results.LLMRecord{
		{Model: "gemma3:4b", PromptID: "P2", Category: "Math", LatencyMS: 20, Response: "42"},
	})
	suite := []inputs.Prompt{
		{ID: "P2", Category: "Math", Input: "6*7?"},
		{ID: "P1", Category: "Logic", Input: "Why?"},
	}
	responses := section(renderLLMReport(obs, summarize(obs), suite), "## Responses")

	p2 := strings.Index(responses, "### Prompt P2: Math")
	p1 := strings.Index(responses, "### Prompt P1: Logic")
	if p2 < 0 || p1 < 0 || p2 > p1 {
		t.Fatalf("expected suite order P2 then P1:\n%s", responses)
	}
	if !strings.Contains(responses[p1:], "**Prompt:** `Why?`") || !strings.Contains(responses[p1:], "Response not found.") {
		t.Fatalf("unanswered prompt should render with a placeholder:\n%s", responses[p1:])
	}
}

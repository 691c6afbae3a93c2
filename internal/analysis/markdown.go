package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mwiater/lvcbench/internal/inputs"
	"github.com/mwiater/lvcbench/internal/metrics"
	"github.com/mwiater/lvcbench/internal/util"
	"github.com/samber/lo"
)

const notAvailable = "n/a"

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func writeRow(sb *strings.Builder, cells []string) {
	sb.WriteString("| ")
	sb.WriteString(strings.Join(cells, " | "))
	sb.WriteString(" |\n")
}

func writeAlign(sb *strings.Builder, first string, rest int, align string) {
	cells := []string{first}
	for i := 0; i < rest; i++ {
		cells = append(cells, align)
	}
	writeRow(sb, cells)
}

// writePivot renders t as a markdown table with one row per input.
func writePivot(sb *strings.Builder, t Table, rowHeader string) {
	header := append([]string{rowHeader}, escapeAll(t.Cols)...)
	writeRow(sb, header)
	writeAlign(sb, ":---", len(t.Cols), "---:")
	for _, row := range t.Rows {
		cells := []string{util.EscapeMarkdownCell(row)}
		for _, col := range t.Cols {
			if v, ok := t.Value(row, col); ok {
				cells = append(cells, formatValue(v))
			} else {
				cells = append(cells, notAvailable)
			}
		}
		writeRow(sb, cells)
	}
	sb.WriteString("\n")
}

func escapeAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = util.EscapeMarkdownCell(v)
	}
	return out
}

// summaryColumns describes the per-model summary: full statistics for the
// primary metric plus the mean of a secondary one.
type summaryColumns struct {
	primary        string
	primaryLabel   string
	secondary      string
	secondaryLabel string
}

func (c summaryColumns) headers() []string {
	return []string{
		"Model", "Records", "Errors",
		"Mean " + c.primaryLabel, "Min " + c.primaryLabel, "Max " + c.primaryLabel, "Std dev " + c.primaryLabel,
		"Mean " + c.secondaryLabel,
	}
}

func (c summaryColumns) rows(summaries []metrics.ModelSummary) [][]string {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		p := s.Stat(c.primary)
		sec := s.Stat(c.secondary)
		row := []string{s.Model, strconv.Itoa(s.Records), strconv.Itoa(s.Errors)}
		if p.Count > 0 {
			row = append(row, formatValue(p.Mean), formatValue(p.Min), formatValue(p.Max), formatValue(p.StdDev()))
		} else {
			row = append(row, notAvailable, notAvailable, notAvailable, notAvailable)
		}
		if sec.Count > 0 {
			row = append(row, formatValue(sec.Mean))
		} else {
			row = append(row, notAvailable)
		}
		rows = append(rows, row)
	}
	return rows
}

func writeSummary(sb *strings.Builder, cols summaryColumns, summaries []metrics.ModelSummary) {
	writeRow(sb, cols.headers())
	writeAlign(sb, ":---", len(cols.headers())-1, "---:")
	for _, row := range cols.rows(summaries) {
		row[0] = util.EscapeMarkdownCell(row[0])
		writeRow(sb, row)
	}
	sb.WriteString("\n")
}

var llmSummaryColumns = summaryColumns{
	primary:        MetricLatencyMS,
	primaryLabel:   "latency (ms)",
	secondary:      MetricTokensPerSecond,
	secondaryLabel: "tokens/s",
}

var transcriptionSummaryColumns = summaryColumns{
	primary:        MetricDurationSeconds,
	primaryLabel:   "duration (s)",
	secondary:      MetricRealTimeFactor,
	secondaryLabel: "real-time factor",
}

// renderLLMReport builds comparison.md for the LLM pipeline. suite supplies
// prompt text and categories for the side-by-side section.
func renderLLMReport(obs []Observation, summaries []metrics.ModelSummary, suite []inputs.Prompt) string {
	var sb strings.Builder
	sb.WriteString("# Model Response Comparison\n\n")

	latency := Pivot(obs, MetricLatencyMS)
	sb.WriteString("## Latency (ms)\n\n")
	if latency.Empty() {
		sb.WriteString("No successful records.\n\n")
	} else {
		writePivot(&sb, latency, "Prompt")
	}

	tps := Pivot(obs, MetricTokensPerSecond)
	sb.WriteString("## Tokens per Second\n\n")
	if tps.Empty() {
		sb.WriteString("No model reported generation timing.\n\n")
	} else {
		writePivot(&sb, tps, "Prompt")
	}

	if quality := Pivot(obs, MetricQualityScore); !quality.Empty() {
		sb.WriteString("## Quality Score\n\n")
		writePivot(&sb, quality, "Prompt")
	}

	sb.WriteString("## Model Summary\n\n")
	writeSummary(&sb, llmSummaryColumns, summaries)

	byID := make(map[string]inputs.Prompt, len(suite))
	for _, p := range suite {
		byID[p.ID] = p
	}
	models := Models(obs)
	responses := map[cellKey]string{}
	categories := map[string]string{}
	for _, o := range obs {
		text := o.Output
		if o.Failed() {
			text = "Error: " + o.Err
		}
		responses[cellKey{o.Input, o.Model}] = text
		if o.Category != "" {
			categories[o.Input] = o.Category
		}
	}

	// Suite order first so unanswered prompts still get a section; prompts
	// only present in the results follow.
	promptIDs := lo.Uniq(append(lo.Map(suite, func(p inputs.Prompt, _ int) string { return p.ID }), Inputs(obs)...))

	sb.WriteString("## Responses\n\n")
	for _, id := range promptIDs {
		prompt, known := byID[id]
		category := categories[id]
		if category == "" {
			category = prompt.Category
		}
		if category != "" {
			fmt.Fprintf(&sb, "### Prompt %s: %s\n", id, category)
		} else {
			fmt.Fprintf(&sb, "### Prompt %s\n", id)
		}
		if known {
			fmt.Fprintf(&sb, "**Prompt:** `%s`\n\n", strings.TrimSpace(prompt.Input))
		} else {
			sb.WriteString("\n")
		}

		headers := make([]string, len(models))
		cells := make([]string, len(models))
		for i, m := range models {
			headers[i] = util.EscapeMarkdownCell(m) + " Response"
			text, ok := responses[cellKey{id, m}]
			if !ok {
				text = "Response not found."
			}
			cells[i] = util.EscapeMarkdownCell(text)
		}
		writeRow(&sb, headers)
		writeAlign(&sb, ":---", len(models)-1, ":---")
		writeRow(&sb, cells)
		sb.WriteString("\n---\n\n")
	}
	return sb.String()
}

// renderTranscriptionReport builds comparison.md for the transcription pipeline.
func renderTranscriptionReport(obs []Observation, summaries []metrics.ModelSummary) string {
	var sb strings.Builder
	sb.WriteString("# Audio-to-Text Benchmark Analysis\n\n")
	sb.WriteString("This report summarizes the performance of the audio-to-text models.\n\n")

	sb.WriteString("## Transcription Durations\n\n")
	durations := Pivot(obs, MetricDurationSeconds)
	if durations.Empty() {
		sb.WriteString("No successful records.\n\n")
	} else {
		writePivot(&sb, durations, "File")
	}

	if rtf := Pivot(obs, MetricRealTimeFactor); !rtf.Empty() {
		sb.WriteString("## Real-Time Factor\n\n")
		writePivot(&sb, rtf, "File")
	}

	sb.WriteString("## Model Summary\n\n")
	writeSummary(&sb, transcriptionSummaryColumns, summaries)

	sb.WriteString("## Records\n\n")
	writeRow(&sb, []string{"model", "file", "transcription", "duration_seconds", "error"})
	writeAlign(&sb, ":---", 4, ":---")
	for _, o := range obs {
		duration := "-1.00"
		if v, ok := o.Metrics[MetricDurationSeconds]; ok {
			duration = formatValue(v)
		}
		writeRow(&sb, []string{
			util.EscapeMarkdownCell(o.Model),
			util.EscapeMarkdownCell(o.Input),
			util.EscapeMarkdownCell(strings.TrimSpace(o.Output)),
			duration,
			util.EscapeMarkdownCell(o.Err),
		})
	}
	sb.WriteString("\n")
	return sb.String()
}

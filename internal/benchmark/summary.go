package benchmark

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/lvcbench/internal/results"
	"github.com/mwiater/lvcbench/internal/util"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// printTranscriptionTable writes one row per record: model, file, timing and
// either "ok" or the truncated error.
func printTranscriptionTable(w io.Writer, records []results.TranscriptionRecord) {
	if len(records) == 0 {
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := "ok"
		if r.Failed() {
			status = util.TruncateRunes(*r.Error, 60)
		}
		rows = append(rows, []string{r.Model, r.File, seconds(r.DurationSeconds), seconds(r.RealTimeFactor), status})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Model", "File", "Duration (s)", "RTF", "Status").
		Rows(rows...)
	fmt.Fprintln(w, "--- Benchmark Results ---")
	fmt.Fprintln(w, t.Render())
}

func seconds(v float64) string {
	if v < 0 {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

package analysis

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/mwiater/lvcbench/internal/metrics"
)

var (
	warnText    = color.New(color.FgYellow).SprintFunc()
	errorText   = color.New(color.FgRed).SprintFunc()
	successText = color.New(color.FgGreen).SprintFunc()
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

// printSummaryTable writes the per-model summary as a bordered console table.
func printSummaryTable(w io.Writer, cols summaryColumns, summaries []metrics.ModelSummary) {
	if len(summaries) == 0 {
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(cols.headers()...).
		Rows(cols.rows(summaries)...)
	fmt.Fprintln(w, t.Render())
}

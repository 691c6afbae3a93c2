package benchmark

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
)

// progressBar renders a bubbles progress bar frame by frame on a plain writer.
type progressBar struct {
	w     io.Writer
	bar   progress.Model
	label string
	total int
	done  int
}

func newProgressBar(w io.Writer, label string, total int, enabled bool) *progressBar {
	if !enabled || total <= 0 {
		return nil
	}
	pb := &progressBar{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		label: label,
		total: total,
	}
	pb.render()
	return pb
}

func (p *progressBar) step() {
	if p == nil {
		return
	}
	p.done++
	p.render()
	if p.done >= p.total {
		fmt.Fprintln(p.w)
	}
}

func (p *progressBar) render() {
	pct := float64(p.done) / float64(p.total)
	fmt.Fprintf(p.w, "\r%s %s %d/%d", p.label, p.bar.ViewAs(pct), p.done, p.total)
}

// Package dashboard renders the dataset dashboard to a terminal: headline
// metrics, target balance, a sensor pair comparison, a feature histogram,
// a data preview and a project footer. Styled output is used on a TTY and
// plain text everywhere else.
package dashboard

import (
	"io"
	"math"
	"os"

	"golang.org/x/term"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/table"
)

const (
	defaultWidth = 100
	minWidth     = 60
	maxBarWidth  = 50
)

// Dashboard is everything one render needs. Zero-valued sections are skipped.
type Dashboard struct {
	Title  string
	Source string
	// SampledRows is the sample size the charts were built from; 0 means the
	// full table was used.
	SampledRows int

	Overview  analysis.Overview
	Target    []analysis.CategoryCount
	XName     string
	YName     string
	Scatter   []analysis.PointGroup
	Histogram *analysis.Histogram
	Preview   *table.Table
	About     []string
}

// PairStat summarizes one scatter group without drawing it.
type PairStat struct {
	Group        string
	N            int
	MeanX, MeanY float64
	R            float64
}

// PairStats reduces scatter groups to count, means and Pearson r.
func PairStats(groups []analysis.PointGroup) []PairStat {
	out := make([]PairStat, 0, len(groups))
	for _, g := range groups {
		n := float64(len(g.X))
		if n == 0 {
			continue
		}
		var sx, sy, sxx, syy, sxy float64
		for i := range g.X {
			x, y := g.X[i], g.Y[i]
			sx += x
			sy += y
			sxx += x * x
			syy += y * y
			sxy += x * y
		}
		ps := PairStat{Group: display(g.Key, g.Label), N: len(g.X), MeanX: sx / n, MeanY: sy / n}
		if denom := math.Sqrt((n*sxx - sx*sx) * (n*syy - sy*sy)); denom > 0 {
			ps.R = math.Max(-1, math.Min(1, (n*sxy-sx*sy)/denom))
		}
		out = append(out, ps)
	}
	return out
}

func display(key, label string) string {
	if label == "" {
		return key
	}
	return key + " (" + label + ")"
}

// Render writes d to w, styled when w is a terminal.
func Render(w io.Writer, d Dashboard) error {
	if isWriterTerminal(w) {
		return RenderStyled(w, d, terminalWidth(w))
	}
	return RenderPlain(w, d)
}

func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func terminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return max(width, minWidth)
		}
	}
	return defaultWidth
}

// bar scales value against top into at most width cells.
func bar(value, top, width int, glyph string) string {
	if top <= 0 || value <= 0 || width <= 0 {
		return ""
	}
	n := int(math.Round(float64(value) / float64(top) * float64(width)))
	if n == 0 {
		n = 1
	}
	out := make([]byte, 0, n*len(glyph))
	for i := 0; i < n; i++ {
		out = append(out, glyph...)
	}
	return string(out)
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}

func totalCount(counts []analysis.CategoryCount) int {
	t := 0
	for _, c := range counts {
		t += c.Count
	}
	return t
}

func previewRows(t *table.Table) [][]string {
	rows := make([][]string, t.Rows())
	for i := range rows {
		rows[i] = t.Row(i)
	}
	return rows
}

package dashboard

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	ltable "github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var groupColors = []lipgloss.Color{"39", "203", "42", "214", "141"}

func groupColor(i int) lipgloss.Color { return groupColors[i%len(groupColors)] }

// RenderStyled draws d with Lip Gloss boxes and colors at the given width.
func RenderStyled(w io.Writer, d Dashboard, width int) error {
	width = max(width, minWidth)
	p := message.NewPrinter(language.English)

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).MarginTop(1)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	var sections []string
	sections = append(sections, titleStyle.Render(d.Title))
	if d.Source != "" {
		sections = append(sections, dimStyle.Render("source: "+d.Source))
	}
	if d.SampledRows > 0 {
		sections = append(sections, dimStyle.Render(p.Sprintf("charts use a sample of %d rows", d.SampledRows)))
	}

	sections = append(sections, sectionStyle.Render("Key metrics"), metricBoxes(p, d, width))

	if len(d.Target) > 0 {
		sections = append(sections, sectionStyle.Render("Target distribution"), styledTarget(p, d, width))
	}
	if len(d.Scatter) > 0 {
		sections = append(sections,
			sectionStyle.Render(fmt.Sprintf("%s vs %s", d.XName, d.YName)),
			styledPairs(p, d))
	}
	if d.Histogram != nil && d.Histogram.Bins() > 0 {
		sections = append(sections,
			sectionStyle.Render("Distribution of "+d.Histogram.Feature),
			styledHistogram(d, width))
	}
	if d.Preview != nil && d.Preview.Rows() > 0 {
		sections = append(sections,
			sectionStyle.Render(p.Sprintf("First %d rows", d.Preview.Rows())),
			ltable.New().
				Border(lipgloss.RoundedBorder()).
				BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
				Headers(d.Preview.ColumnNames()...).
				Rows(previewRows(d.Preview)...).
				StyleFunc(func(row, _ int) lipgloss.Style {
					if row == ltable.HeaderRow {
						return lipgloss.NewStyle().Bold(true).Padding(0, 1)
					}
					return lipgloss.NewStyle().Padding(0, 1)
				}).
				Width(width).
				String())
	}
	if len(d.About) > 0 {
		about := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Width(width - 2).
			Render(strings.Join(d.About, "\n"))
		sections = append(sections, sectionStyle.Render("About"), about)
	}

	_, err := fmt.Fprintln(w, lipgloss.JoinVertical(lipgloss.Left, sections...))
	return err
}

func metricBoxes(p *message.Printer, d Dashboard, width int) string {
	boxWidth := (width - 6) / 3
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1).
		Width(boxWidth)
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	value := lipgloss.NewStyle().Bold(true)
	cell := func(l, v string) string {
		return box.Render(label.Render(l) + "\n" + value.Render(v))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		cell("Rows", p.Sprintf("%d", d.Overview.Rows)),
		cell("Features", p.Sprintf("%d", d.Overview.Features)),
		cell("Participants", p.Sprintf("%d", d.Overview.Participants)),
	)
}

func styledTarget(p *message.Printer, d Dashboard, width int) string {
	total := totalCount(d.Target)
	barWidth := min(maxBarWidth, width-40)
	var b strings.Builder
	for i, c := range d.Target {
		style := lipgloss.NewStyle().Foreground(groupColor(i))
		fmt.Fprintf(&b, "%-22s %s %s\n",
			truncate(c.Display(), 22),
			style.Render(bar(c.Count, total, barWidth, "█")),
			p.Sprintf("%d (%.1f%%)", c.Count, percent(c.Count, total)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func styledPairs(p *message.Printer, d Dashboard) string {
	t := ltable.New().
		Border(lipgloss.NormalBorder()).
		Headers("group", "n", "mean "+d.XName, "mean "+d.YName, "r")
	for _, s := range PairStats(d.Scatter) {
		t.Row(s.Group, p.Sprintf("%d", s.N), fmt.Sprintf("%.3f", s.MeanX), fmt.Sprintf("%.3f", s.MeanY), fmt.Sprintf("%.3f", s.R))
	}
	return t.String()
}

func styledHistogram(d Dashboard, width int) string {
	h := d.Histogram
	top := h.Max()
	groups := len(h.Groups)
	barWidth := max(4, min(maxBarWidth, (width-24)/max(groups, 1)-8))
	var b strings.Builder
	var legend []string
	for i, g := range h.Groups {
		legend = append(legend, lipgloss.NewStyle().Foreground(groupColor(i)).Render("█ "+display(g.Key, g.Label)))
	}
	b.WriteString(strings.Join(legend, "   "))
	b.WriteString("\n")
	for bin := 0; bin < h.Bins(); bin++ {
		fmt.Fprintf(&b, "%10.4g ", h.Edges[bin])
		for i, g := range h.Groups {
			cell := lipgloss.NewStyle().Foreground(groupColor(i)).Render(bar(g.Counts[bin], top, barWidth, "█"))
			fmt.Fprintf(&b, "%s %-6d", padRight(cell, barWidth), g.Counts[bin])
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// padRight pads s to n visible cells.
func padRight(s string, n int) string {
	if gap := n - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

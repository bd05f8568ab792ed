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

// RenderPlain writes d as uncolored text suitable for pipes and logs.
func RenderPlain(w io.Writer, d Dashboard) error {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	b.WriteString(strings.ToUpper(d.Title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("=", max(len(d.Title), 10)))
	b.WriteString("\n")
	if d.Source != "" {
		fmt.Fprintf(&b, "Source: %s\n", d.Source)
	}
	if d.SampledRows > 0 {
		b.WriteString(p.Sprintf("Charts use a sample of %d rows\n", d.SampledRows))
	}

	b.WriteString("\nKEY METRICS\n")
	b.WriteString(p.Sprintf("  Rows:         %d\n", d.Overview.Rows))
	b.WriteString(p.Sprintf("  Features:     %d\n", d.Overview.Features))
	b.WriteString(p.Sprintf("  Participants: %d\n", d.Overview.Participants))
	if len(d.Overview.MissingFeatures) > 0 {
		fmt.Fprintf(&b, "  Missing features: %s\n", strings.Join(d.Overview.MissingFeatures, ", "))
	}

	if len(d.Target) > 0 {
		b.WriteString("\nTARGET DISTRIBUTION\n")
		total := totalCount(d.Target)
		for _, c := range d.Target {
			b.WriteString(p.Sprintf("  %-22s %-30s %d (%.1f%%)\n",
				truncate(c.Display(), 22), bar(c.Count, total, 30, "#"), c.Count, percent(c.Count, total)))
		}
	}

	if len(d.Scatter) > 0 {
		fmt.Fprintf(&b, "\n%s VS %s\n", strings.ToUpper(d.XName), strings.ToUpper(d.YName))
		for _, s := range PairStats(d.Scatter) {
			b.WriteString(p.Sprintf("  %-22s n=%d  mean %s=%.3f  mean %s=%.3f  r=%.3f\n",
				truncate(s.Group, 22), s.N, d.XName, s.MeanX, d.YName, s.MeanY, s.R))
		}
	}

	if h := d.Histogram; h != nil && h.Bins() > 0 {
		fmt.Fprintf(&b, "\nDISTRIBUTION OF %s\n", strings.ToUpper(h.Feature))
		top := h.Max()
		for bin := 0; bin < h.Bins(); bin++ {
			fmt.Fprintf(&b, "  %10.4g", h.Edges[bin])
			for _, g := range h.Groups {
				fmt.Fprintf(&b, "  %s=%-6d %-20s", g.Key, g.Counts[bin], bar(g.Counts[bin], top, 20, "#"))
			}
			b.WriteString("\n")
		}
	}

	if d.Preview != nil && d.Preview.Rows() > 0 {
		b.WriteString(p.Sprintf("\nFIRST %d ROWS\n", d.Preview.Rows()))
		b.WriteString(ltable.New().
			Border(lipgloss.ASCIIBorder()).
			Headers(d.Preview.ColumnNames()...).
			Rows(previewRows(d.Preview)...).
			String())
		b.WriteString("\n")
	}

	if len(d.About) > 0 {
		b.WriteString("\nABOUT\n")
		for _, line := range d.About {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Package charts turns analysis results into PNG or SVG chart files.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/afero"
	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/utils"
)

const (
	FormatPNG = "png"
	FormatSVG = "svg"

	defaultWidth  = 1024
	defaultHeight = 640
)

// ErrNoData is returned when a chart would have nothing to draw.
var ErrNoData = errors.New("no data to chart")

// Renderer is any go-chart chart.
type Renderer interface {
	Render(rp chart.RendererProvider, w io.Writer) error
}

var palette = []drawing.Color{
	drawing.ColorFromHex("1f77b4"),
	drawing.ColorFromHex("d62728"),
	drawing.ColorFromHex("2ca02c"),
	drawing.ColorFromHex("ff7f0e"),
	drawing.ColorFromHex("9467bd"),
	drawing.ColorFromHex("8c564b"),
}

func colorAt(i int) drawing.Color { return palette[i%len(palette)] }

func groupName(key, label string) string {
	if label == "" {
		return key
	}
	return fmt.Sprintf("%s (%s)", key, label)
}

// Pie draws the share of each value, e.g. the target class balance.
func Pie(counts []analysis.CategoryCount, title string) (Renderer, error) {
	values := make([]chart.Value, 0, len(counts))
	for i, c := range counts {
		if c.Count == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %d", c.Display(), c.Count),
			Value: float64(c.Count),
			Style: chart.Style{FillColor: colorAt(i)},
		})
	}
	if len(values) == 0 {
		return nil, ErrNoData
	}
	return chart.PieChart{
		Title:  title,
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: values,
	}, nil
}

// Scatter draws one dot series per group.
func Scatter(groups []analysis.PointGroup, xName, yName, title string) (Renderer, error) {
	var series []chart.Series
	xr, yr := newBounds(), newBounds()
	for i, g := range groups {
		if len(g.X) == 0 {
			continue
		}
		xs, ys := g.X, g.Y
		// go-chart wants at least two points per series.
		if len(xs) == 1 {
			xs, ys = []float64{xs[0], xs[0]}, []float64{ys[0], ys[0]}
		}
		for j := range xs {
			xr.add(xs[j])
			yr.add(ys[j])
		}
		series = append(series, chart.ContinuousSeries{
			Name:    groupName(g.Key, g.Label),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    2,
				DotColor:    colorAt(i).WithAlpha(128),
			},
		})
	}
	if len(series) == 0 {
		return nil, ErrNoData
	}
	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: xName, Range: xr.axis()},
		YAxis:      chart.YAxis{Name: yName, Range: yr.axis()},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

// Histogram draws each group's bin counts as a filled step outline over a
// shared x axis, so overlapping distributions stay readable.
func Histogram(h *analysis.Histogram, title string) (Renderer, error) {
	if h == nil || h.Bins() <= 0 || h.Max() == 0 {
		return nil, ErrNoData
	}
	var series []chart.Series
	for i, g := range h.Groups {
		xs := make([]float64, 0, 2*h.Bins())
		ys := make([]float64, 0, 2*h.Bins())
		for b, c := range g.Counts {
			xs = append(xs, h.Edges[b], h.Edges[b+1])
			ys = append(ys, float64(c), float64(c))
		}
		series = append(series, chart.ContinuousSeries{
			Name:    groupName(g.Key, g.Label),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: 1.5,
				StrokeColor: colorAt(i),
				FillColor:   colorAt(i).WithAlpha(64),
			},
		})
	}
	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  h.Feature,
			Range: &chart.ContinuousRange{Min: h.Edges[0], Max: h.Edges[h.Bins()]},
		},
		YAxis: chart.YAxis{
			Name:  "count",
			Range: &chart.ContinuousRange{Min: 0, Max: math.Ceil(float64(h.Max()) * 1.05)},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch, nil
}

type bounds struct{ lo, hi float64 }

func newBounds() *bounds { return &bounds{lo: math.Inf(1), hi: math.Inf(-1)} }

func (b *bounds) add(v float64) {
	b.lo, b.hi = math.Min(b.lo, v), math.Max(b.hi, v)
}

// axis returns nil to let go-chart pick the range, except when every value is
// equal and the automatic range would be empty.
func (b *bounds) axis() *chart.ContinuousRange {
	if b.lo != b.hi {
		return nil
	}
	return &chart.ContinuousRange{Min: b.lo - 1, Max: b.hi + 1}
}

// ParseFormat normalizes a format name.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("unsupported chart format %q (use png or svg)", s)
}

// Encode renders r in the given format.
func Encode(r Renderer, format string) ([]byte, error) {
	format, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	rp := chart.PNG
	if format == FormatSVG {
		rp = chart.SVG
	}
	var buf bytes.Buffer
	if err := r.Render(rp, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Write renders r and stores it at path on fs.
func Write(fs afero.Fs, path string, r Renderer, format string) error {
	b, err := Encode(r, format)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(fs, path, b)
}

package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/KaramelBytes/datadash/internal/table"
)

// Options controls Summarize.
type Options struct {
	// SampleRows determines how many leading rows to include in the report.
	SampleRows int
	// GroupBy computes per-group numeric summaries keyed by this column.
	GroupBy string
	// GroupLabels renames group keys, e.g. {"1": "Lelah"}.
	GroupLabels map[string]string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categories listed per categorical column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset analysis.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly analysis of a table.
type Report struct {
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples,omitempty"`
	Warnings []string        `json:"warnings,omitempty"`
	Groups   []GroupResult   `json:"groups,omitempty"`
	Corr     *CorrMatrix     `json:"correlations,omitempty"`
}

// ColumnSummary captures kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|datetime|bool|categorical|text
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min,omitempty"`
	Max  float64 `json:"max,omitempty"`
	Mean float64 `json:"mean,omitempty"`
	Std  float64 `json:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Datetime range
	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

// CategoryCount is one distinct value and how often it occurs. Label is the
// display name when a label mapping applies.
type CategoryCount struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
	Count int    `json:"count"`
}

// Display returns "value (label)" when labelled, else the value.
func (c CategoryCount) Display() string {
	if c.Label == "" {
		return c.Value
	}
	return fmt.Sprintf("%s (%s)", c.Value, c.Label)
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]NumSummary `json:"metrics"` // by column name
}

type NumSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// maxCategories is the distinct-value ceiling for treating text as categorical.
const maxCategories = 1000

// Summarize computes per-column statistics for t.
func Summarize(t *table.Table, opt Options) (*Report, error) {
	rep := &Report{Name: t.Name, Rows: t.Rows()}
	if opt.TopValues <= 0 {
		opt.TopValues = 8
	}

	var numeric []*table.Column
	for _, c := range t.Columns() {
		s := summarizeColumn(c, opt)
		rep.Cols = append(rep.Cols, s)
		if s.Kind == "numeric" && s.NonNull > 0 {
			numeric = append(numeric, c)
		}
	}

	if opt.SampleRows > 0 {
		head := t.Head(opt.SampleRows)
		for i := 0; i < head.Rows(); i++ {
			rep.Samples = append(rep.Samples, head.Row(i))
		}
	}

	if opt.GroupBy != "" {
		key, err := t.Column(opt.GroupBy)
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		rep.Groups = groupSummaries(key, numeric, opt.GroupLabels)
		if len(rep.Groups) == 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("group-by column %q has no values", key.Name))
		}
	}

	if opt.Correlations && len(numeric) >= 2 {
		rep.Corr = correlations(numeric)
	}
	if rep.Rows == 0 {
		rep.Warnings = append(rep.Warnings, "table has no rows")
	}
	return rep, nil
}

func summarizeColumn(c *table.Column, opt Options) ColumnSummary {
	s := ColumnSummary{Name: c.Name}
	n := c.Len()
	for i := 0; i < n; i++ {
		if c.IsNull(i) {
			s.Missing++
		} else {
			s.NonNull++
		}
	}

	switch c.Kind {
	case table.KindNumeric:
		s.Kind = "numeric"
		var w welford
		distinct := make(map[float64]struct{})
		vals := make([]float64, 0, s.NonNull)
		for i := 0; i < n; i++ {
			x, ok := c.FloatAt(i)
			if !ok || !finite(x) {
				continue
			}
			w.add(x)
			distinct[x] = struct{}{}
			vals = append(vals, x)
		}
		s.Unique = len(distinct)
		if w.n > 0 {
			s.Min, s.Max, s.Mean, s.Std = w.min, w.max, w.mean, w.std()
		}
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, thr)
			s.OutlierThreshold = thr
		}
	case table.KindDatetime:
		s.Kind = "datetime"
		first, last := math.Inf(1), math.Inf(-1)
		distinct := make(map[float64]struct{})
		for i := 0; i < n; i++ {
			x, ok := c.FloatAt(i)
			if !ok {
				continue
			}
			distinct[x] = struct{}{}
			first = math.Min(first, x)
			last = math.Max(last, x)
		}
		s.Unique = len(distinct)
		if len(distinct) > 0 {
			s.First = time.Unix(int64(first), 0).UTC().Format(time.RFC3339)
			s.Last = time.Unix(int64(last), 0).UTC().Format(time.RFC3339)
		}
	default:
		counts := ValueCounts(c, nil)
		s.Unique = len(counts)
		categorical := c.Kind == table.KindBool || len(counts) <= maxCategories
		for _, cc := range counts {
			if len(cc.Value) > 64 {
				categorical = false
				break
			}
		}
		switch {
		case c.Kind == table.KindBool:
			s.Kind = "bool"
		case categorical:
			s.Kind = "categorical"
		default:
			s.Kind = "text"
		}
		if s.Kind == "text" {
			for i := 0; i < n && len(s.ExampleTexts) < 3; i++ {
				if !c.IsNull(i) {
					s.ExampleTexts = append(s.ExampleTexts, c.Value(i))
				}
			}
			break
		}
		if len(counts) > opt.TopValues {
			counts = counts[:opt.TopValues]
		}
		s.TopValues = counts
	}
	return s
}

// welford accumulates running mean and variance.
type welford struct {
	n        int
	mean, m2 float64
	min, max float64
}

func (w *welford) add(x float64) {
	if w.n == 0 {
		w.min, w.max = x, x
	}
	w.n++
	if x < w.min {
		w.min = x
	}
	if x > w.max {
		w.max = x
	}
	delta := x - w.mean
	w.mean += delta / float64(w.n)
	w.m2 += delta * (x - w.mean)
}

// std is the sample standard deviation.
func (w *welford) std() float64 {
	if w.n < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.n-1))
}

func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func groupSummaries(key *table.Column, numeric []*table.Column, labels map[string]string) []GroupResult {
	type acc struct {
		size int
		sum  map[string]float64
		w    map[string]*welford
	}
	groups := map[string]*acc{}
	for i := 0; i < key.Len(); i++ {
		if key.IsNull(i) {
			continue
		}
		k := key.Value(i)
		g := groups[k]
		if g == nil {
			g = &acc{sum: map[string]float64{}, w: map[string]*welford{}}
			groups[k] = g
		}
		g.size++
		for _, c := range numeric {
			if c == key {
				continue
			}
			x, ok := c.FloatAt(i)
			if !ok || !finite(x) {
				continue
			}
			w := g.w[c.Name]
			if w == nil {
				w = &welford{}
				g.w[c.Name] = w
			}
			w.add(x)
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, g := range groups {
		name := fmt.Sprintf("%s=%s", key.Name, k)
		if l, ok := labels[k]; ok {
			name = fmt.Sprintf("%s (%s)", name, l)
		}
		gr := GroupResult{Key: name, Size: g.size, Metrics: map[string]NumSummary{}}
		for col, w := range g.w {
			gr.Metrics[col] = NumSummary{Count: w.n, Min: w.min, Max: w.max, Mean: w.mean}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out
}

func correlations(cols []*table.Column) *CorrMatrix {
	n := len(cols)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, c := range cols {
		m.Columns[i] = c.Name
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(cols[a], cols[b])
			m.Values[a][b], m.Values[b][a] = r, r
		}
	}
	return m
}

// pearson correlates a and b over rows where both are present. Degenerate
// inputs report 0.
func pearson(a, b *table.Column) float64 {
	var n, sx, sy, sxx, syy, sxy float64
	for i := 0; i < a.Len(); i++ {
		x, okx := a.FloatAt(i)
		y, oky := b.FloatAt(i)
		if !okx || !oky || !finite(x) || !finite(y) {
			continue
		}
		n++
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sxx - sx*sx) * (n*syy - sy*sy))
	if denom == 0 || math.IsNaN(denom) {
		return 0
	}
	r := (n*sxy - sx*sy) / denom
	return math.Max(-1, math.Min(1, r))
}

var printer = message.NewPrinter(language.English)

// Markdown renders the report as plain sections suitable for docs or a terminal.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		fmt.Fprintf(&b, "File: %s\n", r.Name)
	}
	b.WriteString(printer.Sprintf("Rows: %d\n", r.Rows))
	fmt.Fprintf(&b, "Columns: %d\n\n", len(r.Cols))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		total := c.NonNull + c.Missing
		missPct := 0.0
		if total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		fmt.Fprintf(&b, "- %s: %s (non-null %d, missing %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, missPct, c.Unique)
		switch c.Kind {
		case "numeric":
			fmt.Fprintf(&b, ": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std)
			if c.OutlierThreshold > 0 {
				fmt.Fprintf(&b, "; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold)
				if c.OutliersMaxAbsZ > 0 {
					fmt.Fprintf(&b, " (max |z|≈%.2f)", c.OutliersMaxAbsZ)
				}
			}
		case "datetime":
			if c.First != "" {
				fmt.Fprintf(&b, ": %s .. %s", c.First, c.Last)
			}
		case "categorical", "bool":
			if len(c.TopValues) > 0 {
				b.WriteString(": top ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					fmt.Fprintf(&b, "%s(%d)", safeVal(kv.Display()), kv.Count)
				}
			}
		case "text":
			if len(c.ExampleTexts) > 0 {
				b.WriteString(": e.g. ")
				for i, ex := range c.ExampleTexts {
					if i > 0 {
						b.WriteString(" | ")
					}
					b.WriteString(safeVal(ex))
				}
			}
		}
		b.WriteString("\n")
	}

	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(printer.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				m := g.Metrics[k]
				fmt.Fprintf(&b, "  • %s: mean %.4g (min %.4g, max %.4g)\n", k, m.Mean, m.Min, m.Max)
			}
		}
	}

	if r.Corr != nil && len(r.Corr.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		for _, p := range r.Corr.TopPairs(10) {
			fmt.Fprintf(&b, "- %s ~ %s: r=%.3f\n", p.A, p.B, p.R)
		}
	}

	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD]\n")
		names := make([]string, len(r.Cols))
		for i, c := range r.Cols {
			names[i] = safeName(c.Name)
		}
		writeMarkdownTable(&b, names, r.Samples)
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}

// PairCorr is a simple correlation pair summary.
type PairCorr struct {
	A, B string
	R    float64
}

// TopPairs lists up to n off-diagonal pairs ordered by |r|.
func (m *CorrMatrix) TopPairs(n int) []PairCorr {
	var pairs []PairCorr
	for i := range m.Columns {
		for j := i + 1; j < len(m.Columns); j++ {
			pairs = append(pairs, PairCorr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		ai, aj := math.Abs(pairs[i].R), math.Abs(pairs[j].R)
		if ai == aj {
			return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
		}
		return ai > aj
	})
	if len(pairs) > n {
		pairs = pairs[:n]
	}
	return pairs
}

func writeMarkdownTable(b *strings.Builder, header []string, rows [][]string) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(header))
		for i := range header {
			if i < len(row) {
				v := row[i]
				if len(v) > 80 {
					v = v[:77] + "..."
				}
				cells[i] = safeVal(v)
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

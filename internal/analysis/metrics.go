package analysis

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/KaramelBytes/datadash/internal/table"
)

// MetricsSpec names the columns that carry meaning for the dashboard.
type MetricsSpec struct {
	IDColumn     string
	TargetColumn string
	// FeatureColumns, when set, is the explicit feature list. Otherwise every
	// numeric column other than the id and target counts as a feature.
	FeatureColumns []string
}

// Overview is the dashboard's headline metrics row.
type Overview struct {
	Rows         int      `json:"rows"`
	Features     int      `json:"features"`
	FeatureNames []string `json:"feature_names"`
	Participants int      `json:"participants"`
	// MissingFeatures lists configured features absent from the table.
	MissingFeatures []string `json:"missing_features,omitempty"`
}

// Metrics computes the row count, feature count and distinct ids of t.
func Metrics(t *table.Table, spec MetricsSpec) (Overview, error) {
	ov := Overview{Rows: t.Rows()}
	id, err := t.Column(spec.IDColumn)
	if err != nil {
		return ov, fmt.Errorf("id column: %w", err)
	}
	ov.Participants = distinct(id)

	if len(spec.FeatureColumns) > 0 {
		for _, name := range spec.FeatureColumns {
			c, err := t.Column(name)
			if err != nil || c.Kind != table.KindNumeric {
				ov.MissingFeatures = append(ov.MissingFeatures, name)
				continue
			}
			ov.FeatureNames = append(ov.FeatureNames, c.Name)
		}
	} else {
		for _, c := range t.Columns() {
			if c.Kind != table.KindNumeric || c == id || sameName(c.Name, spec.TargetColumn) {
				continue
			}
			ov.FeatureNames = append(ov.FeatureNames, c.Name)
		}
	}
	ov.Features = len(ov.FeatureNames)
	return ov, nil
}

func sameName(a, b string) bool {
	return b != "" && strings.EqualFold(a, b)
}

func distinct(c *table.Column) int {
	seen := make(map[string]struct{})
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			seen[c.Value(i)] = struct{}{}
		}
	}
	return len(seen)
}

// ValueCounts counts the non-null values of c, most frequent first. Values
// found in labels get their Label set.
func ValueCounts(c *table.Column, labels map[string]string) []CategoryCount {
	counts := make(map[string]int)
	for i := 0; i < c.Len(); i++ {
		if !c.IsNull(i) {
			counts[c.Value(i)]++
		}
	}
	out := make([]CategoryCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, CategoryCount{Value: v, Label: labels[v], Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// Sample draws n rows without replacement using a PCG source seeded with
// seed, so the same seed yields the same rows. n <= 0 or n >= Rows()
// returns t unchanged.
func Sample(t *table.Table, n int, seed int64) (*table.Table, error) {
	if n <= 0 || n >= t.Rows() {
		return t, nil
	}
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	idx := r.Perm(t.Rows())[:n]
	return t.Take(idx)
}

// Histogram holds equal-width bin counts for one feature, split by group.
type Histogram struct {
	Feature string      `json:"feature"`
	Edges   []float64   `json:"edges"` // len(bins)+1
	Groups  []HistGroup `json:"groups"`
}

// HistGroup is the per-bin count for one group value.
type HistGroup struct {
	Key    string `json:"key"`
	Label  string `json:"label,omitempty"`
	Counts []int  `json:"counts"`
	Total  int    `json:"total"`
}

// Bins returns the number of bins.
func (h *Histogram) Bins() int { return len(h.Edges) - 1 }

// Max returns the largest single-group bin count.
func (h *Histogram) Max() int {
	m := 0
	for _, g := range h.Groups {
		for _, c := range g.Counts {
			m = max(m, c)
		}
	}
	return m
}

// BuildHistogram bins the numeric column feature into bins equal-width
// buckets. When groupBy is non-nil counts are split by its values.
func BuildHistogram(feature *table.Column, bins int, groupBy *table.Column, labels map[string]string) (*Histogram, error) {
	if feature.Kind != table.KindNumeric {
		return nil, fmt.Errorf("histogram: column %q is %s, not numeric", feature.Name, feature.Kind)
	}
	if bins <= 0 {
		bins = 30
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := 0; i < feature.Len(); i++ {
		if x, ok := feature.FloatAt(i); ok && finite(x) {
			lo, hi = math.Min(lo, x), math.Max(hi, x)
		}
	}
	h := &Histogram{Feature: feature.Name}
	if math.IsInf(lo, 1) {
		return h, nil
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(bins)
	h.Edges = make([]float64, bins+1)
	for i := range h.Edges {
		h.Edges[i] = lo + float64(i)*width
	}
	h.Edges[bins] = hi

	groups := map[string]*HistGroup{}
	for i := 0; i < feature.Len(); i++ {
		x, ok := feature.FloatAt(i)
		if !ok || !finite(x) {
			continue
		}
		key := "all"
		if groupBy != nil {
			if groupBy.IsNull(i) {
				continue
			}
			key = groupBy.Value(i)
		}
		g := groups[key]
		if g == nil {
			g = &HistGroup{Key: key, Label: labels[key], Counts: make([]int, bins)}
			groups[key] = g
		}
		b := min(max(int((x-lo)/width), 0), bins-1)
		g.Counts[b]++
		g.Total++
	}
	for _, g := range groups {
		h.Groups = append(h.Groups, *g)
	}
	sort.Slice(h.Groups, func(i, j int) bool { return h.Groups[i].Key < h.Groups[j].Key })
	return h, nil
}

// PointGroup holds paired coordinates for one group value.
type PointGroup struct {
	Key   string    `json:"key"`
	Label string    `json:"label,omitempty"`
	X     []float64 `json:"x"`
	Y     []float64 `json:"y"`
}

// ScatterPoints pairs the numeric columns x and y row by row, skipping rows
// where either is null or not finite. groupBy may be empty.
func ScatterPoints(t *table.Table, x, y, groupBy string, labels map[string]string) ([]PointGroup, error) {
	xc, err := numericColumn(t, x)
	if err != nil {
		return nil, err
	}
	yc, err := numericColumn(t, y)
	if err != nil {
		return nil, err
	}
	var gc *table.Column
	if groupBy != "" {
		if gc, err = t.Column(groupBy); err != nil {
			return nil, err
		}
	}

	groups := map[string]*PointGroup{}
	for i := 0; i < t.Rows(); i++ {
		xv, okx := xc.FloatAt(i)
		yv, oky := yc.FloatAt(i)
		if !okx || !oky || !finite(xv) || !finite(yv) {
			continue
		}
		key := "all"
		if gc != nil {
			if gc.IsNull(i) {
				continue
			}
			key = gc.Value(i)
		}
		g := groups[key]
		if g == nil {
			g = &PointGroup{Key: key, Label: labels[key]}
			groups[key] = g
		}
		g.X = append(g.X, xv)
		g.Y = append(g.Y, yv)
	}
	out := make([]PointGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// finite reports whether x is neither NaN nor ±Inf.
func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func numericColumn(t *table.Table, name string) (*table.Column, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != table.KindNumeric {
		return nil, fmt.Errorf("column %q is %s, not numeric", c.Name, c.Kind)
	}
	return c, nil
}

package cmd

import (
	"fmt"

	"github.com/KaramelBytes/datadash/internal/analysis"
	cfgpkg "github.com/KaramelBytes/datadash/internal/config"
	"github.com/KaramelBytes/datadash/internal/table"
)

// view holds what the dashboard and charts commands have in common: the
// overview of the full table, and the columns and rows the charts use.
type view struct {
	full     *table.Table
	charted  *table.Table
	overview analysis.Overview
	x, y     string
	feature  string
	sampled  int
}

type viewFlags struct {
	sample  bool
	x, y    string
	feature string
}

func buildView(c *cfgpkg.Global, t *table.Table, f viewFlags) (*view, error) {
	ov, err := analysis.Metrics(t, analysis.MetricsSpec{
		IDColumn:       c.IDColumn,
		TargetColumn:   c.TargetColumn,
		FeatureColumns: c.FeatureColumns,
	})
	if err != nil {
		return nil, err
	}
	if len(ov.FeatureNames) == 0 {
		return nil, fmt.Errorf("no numeric feature columns found in %s", t.Name)
	}
	v := &view{full: t, charted: t, overview: ov}
	v.x = pick(f.x, ov.FeatureNames, 0)
	v.y = pick(f.y, ov.FeatureNames, 1)
	v.feature = pick(f.feature, ov.FeatureNames, 0)

	if f.sample && c.SampleRows > 0 && c.SampleRows < t.Rows() {
		s, err := analysis.Sample(t, c.SampleRows, c.SampleSeed)
		if err != nil {
			return nil, err
		}
		v.charted = s
		v.sampled = s.Rows()
	}
	return v, nil
}

// pick returns the flag value when set, else the i-th feature (or the last
// one when there are fewer).
func pick(flag string, features []string, i int) string {
	if flag != "" {
		return flag
	}
	if i >= len(features) {
		i = len(features) - 1
	}
	return features[i]
}

// targetCounts counts target values over the charted rows, or returns nil
// when the target column is absent.
func (v *view) targetCounts(c *cfgpkg.Global) []analysis.CategoryCount {
	col := v.groupColumn(c)
	if col == nil {
		return nil
	}
	return analysis.ValueCounts(col, c.TargetLabels)
}

// groupColumn returns the target column of the charted rows, or nil.
func (v *view) groupColumn(c *cfgpkg.Global) *table.Column {
	col, err := v.charted.Column(c.TargetColumn)
	if err != nil {
		return nil
	}
	return col
}

func (v *view) groupName(c *cfgpkg.Global) string {
	if col := v.groupColumn(c); col != nil {
		return col.Name
	}
	return ""
}

func (v *view) scatter(c *cfgpkg.Global) ([]analysis.PointGroup, error) {
	return analysis.ScatterPoints(v.charted, v.x, v.y, v.groupName(c), c.TargetLabels)
}

func (v *view) histogram(c *cfgpkg.Global, bins int) (*analysis.Histogram, error) {
	col, err := v.charted.Column(v.feature)
	if err != nil {
		return nil, err
	}
	return analysis.BuildHistogram(col, bins, v.groupColumn(c), c.TargetLabels)
}

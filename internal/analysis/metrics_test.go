package analysis

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/spf13/afero"

	"github.com/KaramelBytes/datadash/internal/table"
	"github.com/KaramelBytes/datadash/internal/table/tabletest"
)

func TestMetrics(t *testing.T) {
	tbl := tabletest.Sensors(t, 90, 9)

	ov, err := Metrics(tbl, MetricsSpec{IDColumn: "id", TargetColumn: "y_binary"})
	if err != nil {
		t.Fatal(err)
	}
	if ov.Rows != 90 || ov.Participants != 9 {
		t.Fatalf("overview = %+v", ov)
	}
	want := []string{"heartRate", "skinTemperature", "gsr_x", "x", "y", "z"}
	if !reflect.DeepEqual(ov.FeatureNames, want) || ov.Features != 6 {
		t.Fatalf("features = %v", ov.FeatureNames)
	}

	ov, err = Metrics(tbl, MetricsSpec{IDColumn: "id", FeatureColumns: []string{"heartRate", "id", "spo2"}})
	if err != nil {
		t.Fatal(err)
	}
	if ov.Features != 1 || !reflect.DeepEqual(ov.MissingFeatures, []string{"id", "spo2"}) {
		t.Fatalf("overview = %+v", ov)
	}

	_, err = Metrics(tbl, MetricsSpec{IDColumn: "participant"})
	if !errors.Is(err, table.ErrColumnNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestValueCountsLabels(t *testing.T) {
	tbl := tabletest.Sensors(t, 90, 9)
	target, _ := tbl.Column("y_binary")
	got := ValueCounts(target, fatigueLabels)
	want := []CategoryCount{
		{Value: "0", Label: "Tidak Lelah", Count: 60},
		{Value: "1", Label: "Lelah", Count: 30},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("counts = %+v", got)
	}
	if got[1].Display() != "1 (Lelah)" {
		t.Fatalf("display = %q", got[1].Display())
	}
}

func TestSampleDeterministic(t *testing.T) {
	tbl := tabletest.Sensors(t, 200, 5)

	a, err := Sample(tbl, 20, 42)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := Sample(tbl, 20, 42)
	c, _ := Sample(tbl, 20, 7)
	if a.Rows() != 20 {
		t.Fatalf("rows = %d", a.Rows())
	}
	same, differs := true, false
	for i := 0; i < a.Rows(); i++ {
		if !reflect.DeepEqual(a.Row(i), b.Row(i)) {
			same = false
		}
		if !reflect.DeepEqual(a.Row(i), c.Row(i)) {
			differs = true
		}
	}
	if !same || !differs {
		t.Fatalf("same seed must repeat (%v), different seed must differ (%v)", same, differs)
	}

	created, _ := a.Column("createdAt")
	seen := map[float64]bool{}
	for _, v := range created.Float {
		if seen[v] {
			t.Fatalf("row drawn twice")
		}
		seen[v] = true
	}

	if s, _ := Sample(tbl, 0, 42); s != tbl {
		t.Fatalf("n=0 must return the table")
	}
	if s, _ := Sample(tbl, 500, 42); s != tbl {
		t.Fatalf("n>rows must return the table")
	}
}

func TestBuildHistogram(t *testing.T) {
	tbl := tabletest.Sensors(t, 90, 9)
	hr, _ := tbl.Column("heartRate")
	target, _ := tbl.Column("y_binary")

	h, err := BuildHistogram(hr, 5, target, fatigueLabels)
	if err != nil {
		t.Fatal(err)
	}
	if h.Bins() != 5 || h.Edges[0] != 70 || h.Edges[5] != 114 {
		t.Fatalf("edges = %v", h.Edges)
	}
	if len(h.Groups) != 2 || h.Groups[0].Label != "Tidak Lelah" {
		t.Fatalf("groups = %+v", h.Groups)
	}
	for _, g := range h.Groups {
		sum := 0
		for _, c := range g.Counts {
			sum += c
		}
		if sum != g.Total {
			t.Fatalf("group %s: bins sum %d, total %d", g.Key, sum, g.Total)
		}
	}
	if h.Groups[0].Total != 60 || h.Groups[1].Total != 30 {
		t.Fatalf("totals = %d/%d", h.Groups[0].Total, h.Groups[1].Total)
	}
	if h.Max() == 0 {
		t.Fatalf("max should be positive")
	}

	flat := &table.Column{Name: "flat", Kind: table.KindNumeric, Float: []float64{3, 3, 3}}
	h, err = BuildHistogram(flat, 4, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Edges[0] != 2.5 || h.Edges[4] != 3.5 || h.Groups[0].Key != "all" || h.Groups[0].Total != 3 {
		t.Fatalf("flat histogram = %+v", h)
	}

	id, _ := tbl.Column("id")
	if _, err := BuildHistogram(id, 4, nil, nil); err == nil {
		t.Fatalf("expected error for text column")
	}
}

func TestScatterPoints(t *testing.T) {
	tbl := tabletest.Sensors(t, 90, 9)
	groups, err := ScatterPoints(tbl, "heartRate", "skinTemperature", "y_binary", fatigueLabels)
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 || len(groups[0].X) != 60 || len(groups[1].Y) != 30 {
		t.Fatalf("groups = %d", len(groups))
	}
	if groups[1].Label != "Lelah" || groups[1].X[0] != 95 {
		t.Fatalf("fatigued group = %s x0=%v", groups[1].Label, groups[1].X[0])
	}

	all, err := ScatterPoints(tbl, "x", "y", "", nil)
	if err != nil || len(all) != 1 || len(all[0].X) != 90 {
		t.Fatalf("ungrouped = %v, %v", all, err)
	}
	if _, err := ScatterPoints(tbl, "id", "y", "", nil); err == nil {
		t.Fatalf("expected error for text axis")
	}
}

func TestBuildHistogramIgnoresNonFinite(t *testing.T) {
	inf := math.Inf(1)
	col := &table.Column{Name: "heartRate", Kind: table.KindNumeric, Float: []float64{70, 80, inf, -inf, math.NaN(), 75}}
	h, err := BuildHistogram(col, 10, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Edges[0] != 70 || h.Edges[10] != 80 {
		t.Fatalf("edges = %v", h.Edges)
	}
	if len(h.Groups) != 1 || h.Groups[0].Total != 3 {
		t.Fatalf("groups = %+v", h.Groups)
	}

	only := &table.Column{Name: "only", Kind: table.KindNumeric, Float: []float64{inf, -inf}}
	h, err = BuildHistogram(only, 10, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if h.Bins() > 0 || len(h.Groups) != 0 {
		t.Fatalf("non-finite column should give an empty histogram: %+v", h)
	}
}

func TestNonFiniteCSVValuesReachCharts(t *testing.T) {
	fs := afero.NewMemMapFs()
	csv := "id,heartRate,skinTemperature,y_binary\nP1,70,33.1,0\nP2,inf,33.4,1\nP3,80,-Infinity,0\nP4,-inf,34,1\nP5,NaN,35,0\nP6,75,34.5,1\n"
	if err := afero.WriteFile(fs, "/d.csv", []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := table.ReadFile(fs, "/d.csv")
	if err != nil {
		t.Fatal(err)
	}
	hr, _ := tbl.Column("heartRate")
	if hr.Kind != table.KindNumeric {
		t.Fatalf("heartRate kind = %s", hr.Kind)
	}
	target, _ := tbl.Column("y_binary")

	h, err := BuildHistogram(hr, 5, target, fatigueLabels)
	if err != nil {
		t.Fatal(err)
	}
	totals := map[string]int{}
	for _, g := range h.Groups {
		totals[g.Key] = g.Total
	}
	if totals["0"] != 2 || totals["1"] != 1 {
		t.Fatalf("totals = %v", totals)
	}

	groups, err := ScatterPoints(tbl, "heartRate", "skinTemperature", "y_binary", fatigueLabels)
	if err != nil {
		t.Fatal(err)
	}
	n := 0
	for _, g := range groups {
		for i := range g.X {
			if math.IsInf(g.X[i], 0) || math.IsInf(g.Y[i], 0) || math.IsNaN(g.X[i]) || math.IsNaN(g.Y[i]) {
				t.Fatalf("non-finite point in group %s: (%v, %v)", g.Key, g.X[i], g.Y[i])
			}
			n++
		}
	}
	// P1 and P6 are the only rows finite on both axes.
	if n != 2 {
		t.Fatalf("points = %d, want 2", n)
	}
}

package dashboard_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datadash/internal/analysis"
	"github.com/KaramelBytes/datadash/internal/dashboard"
	"github.com/KaramelBytes/datadash/internal/table/tabletest"
)

var labels = map[string]string{"0": "Tidak Lelah", "1": "Lelah"}

func buildDashboard(t *testing.T) dashboard.Dashboard {
	t.Helper()
	tbl := tabletest.Sensors(t, 90, 9)
	ov, err := analysis.Metrics(tbl, analysis.MetricsSpec{IDColumn: "id", TargetColumn: "y_binary"})
	require.NoError(t, err)
	target, err := tbl.Column("y_binary")
	require.NoError(t, err)
	hr, err := tbl.Column("heartRate")
	require.NoError(t, err)
	hist, err := analysis.BuildHistogram(hr, 6, target, labels)
	require.NoError(t, err)
	pts, err := analysis.ScatterPoints(tbl, "heartRate", "skinTemperature", "y_binary", labels)
	require.NoError(t, err)

	return dashboard.Dashboard{
		Title:     "Fatigue dashboard",
		Source:    "/data/sensors.parquet",
		Overview:  ov,
		Target:    analysis.ValueCounts(target, labels),
		XName:     "heartRate",
		YName:     "skinTemperature",
		Scatter:   pts,
		Histogram: hist,
		Preview:   tbl.Head(3),
		About:     []string{"Cleaned wearable sensor sample."},
	}
}

func TestRenderPlain(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dashboard.RenderPlain(&buf, buildDashboard(t)))
	out := buf.String()

	for _, want := range []string{
		"FATIGUE DASHBOARD",
		"Source: /data/sensors.parquet",
		"Rows:         90",
		"Features:     6",
		"Participants: 9",
		"0 (Tidak Lelah)",
		"60 (66.7%)",
		"30 (33.3%)",
		"HEARTRATE VS SKINTEMPERATURE",
		"DISTRIBUTION OF HEARTRATE",
		"FIRST 3 ROWS",
		"P02",
		"Cleaned wearable sensor sample.",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "\x1b[", "plain output must not carry ANSI escapes")
}

func TestRenderFallsBackToPlainForBuffers(t *testing.T) {
	d := buildDashboard(t)
	var a, b bytes.Buffer
	require.NoError(t, dashboard.Render(&a, d))
	require.NoError(t, dashboard.RenderPlain(&b, d))
	assert.Equal(t, b.String(), a.String())
}

func TestRenderStyled(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dashboard.RenderStyled(&buf, buildDashboard(t), 120))
	out := buf.String()
	for _, want := range []string{"Fatigue dashboard", "Key metrics", "Participants", "Target distribution", "First 3 rows", "P01", "About"} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSkipsEmptySections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, dashboard.RenderPlain(&buf, dashboard.Dashboard{Title: "Empty"}))
	out := buf.String()
	assert.Contains(t, out, "KEY METRICS")
	assert.NotContains(t, out, "TARGET DISTRIBUTION")
	assert.NotContains(t, out, "ROWS\n")
}

func TestPairStats(t *testing.T) {
	stats := dashboard.PairStats([]analysis.PointGroup{
		{Key: "1", Label: "Lelah", X: []float64{1, 2, 3}, Y: []float64{2, 4, 6}},
		{Key: "empty"},
		{Key: "flat", X: []float64{1, 1}, Y: []float64{5, 6}},
	})
	require.Len(t, stats, 2)
	assert.Equal(t, "1 (Lelah)", stats[0].Group)
	assert.Equal(t, 3, stats[0].N)
	assert.InDelta(t, 2.0, stats[0].MeanX, 1e-9)
	assert.InDelta(t, 4.0, stats[0].MeanY, 1e-9)
	assert.InDelta(t, 1.0, stats[0].R, 1e-9)
	assert.Zero(t, stats[1].R)
}

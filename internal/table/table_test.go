package table_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datadash/internal/table"
	"github.com/KaramelBytes/datadash/internal/table/tabletest"
)

func TestNewRejectsRaggedColumns(t *testing.T) {
	a := &table.Column{Name: "a", Kind: table.KindNumeric, Float: []float64{1, 2, 3}}
	b := &table.Column{Name: "b", Kind: table.KindText, Str: []string{"x", "y"}}
	_, err := table.New("t", a, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrRaggedColumns)
}

func TestColumnLookupAndValues(t *testing.T) {
	tbl, err := table.New("t",
		&table.Column{Name: "Score", Kind: table.KindNumeric, Float: []float64{1.5, 0}, Valid: []bool{true, false}},
		&table.Column{Name: "flag", Kind: table.KindBool, Float: []float64{1, 0}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Rows())
	assert.Equal(t, []string{"Score", "flag"}, tbl.ColumnNames())

	c, err := tbl.Column("score")
	require.NoError(t, err)
	assert.Equal(t, "1.5", c.Value(0))
	assert.Equal(t, "", c.Value(1))
	_, ok := c.FloatAt(1)
	assert.False(t, ok)

	_, err = tbl.Column("missing")
	assert.ErrorIs(t, err, table.ErrColumnNotFound)

	assert.Equal(t, []string{"1.5", "true"}, tbl.Row(0))
}

func TestTakeAndHead(t *testing.T) {
	tbl := tabletest.Sensors(t, 10, 2)

	sub, err := tbl.Take([]int{9, 0})
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, tbl.Row(9), sub.Row(0))
	assert.Equal(t, tbl.Row(0), sub.Row(1))

	_, err = tbl.Take([]int{10})
	assert.Error(t, err)

	assert.Equal(t, 3, tbl.Head(3).Rows())
	assert.Same(t, tbl, tbl.Head(100))
}

func TestReadFileParquetRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := tabletest.Sensors(t, 250, 17)
	require.NoError(t, afero.WriteFile(fs, "/data/sensors.parquet", tabletest.ParquetBytes(t, src), 0o644))

	got, err := table.ReadFile(fs, "/data/sensors.parquet")
	require.NoError(t, err)
	assert.Equal(t, 250, got.Rows())
	assert.Equal(t, tabletest.SensorColumns, got.ColumnNames())

	hr, err := got.Column("heartRate")
	require.NoError(t, err)
	assert.Equal(t, table.KindNumeric, hr.Kind)
	assert.Equal(t, 95.0, hr.Float[0])

	created, err := got.Column("createdAt")
	require.NoError(t, err)
	assert.Equal(t, table.KindDatetime, created.Kind)
	assert.Equal(t, "2024-06-01T08:00:00Z", created.Value(0))

	id, err := got.Column("id")
	require.NoError(t, err)
	assert.Equal(t, table.KindText, id.Kind)
	assert.Equal(t, "P16", id.Value(16))
}

func TestReadFileRejectsMalformedParquet(t *testing.T) {
	fs := afero.NewMemMapFs()
	full := tabletest.ParquetBytes(t, tabletest.Sensors(t, 50, 3))

	cases := map[string][]byte{
		"garbage":       tabletest.Corrupt(),
		"truncated":     full[:len(full)/2],
		"empty":         {},
		"damaged pages": tabletest.DamagedPages(t, full),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			path := "/data/" + strings.ReplaceAll(name, " ", "_") + ".parquet"
			require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
			tbl, err := table.ReadFile(fs, path)
			assert.Error(t, err)
			assert.Nil(t, tbl)
		})
	}
}

func TestReadFileParquetDamagedPagesReturnErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	full := tabletest.ParquetBytes(t, tabletest.Sensors(t, 500, 17))
	start, end := tabletest.PageRegion(t, full)

	failures := 0
	for off := start; off+4 <= end; off += 7 {
		path := fmt.Sprintf("/data/flip_%d.parquet", off)
		require.NoError(t, afero.WriteFile(fs, path, tabletest.FlipPageBytes(t, full, off, 4), 0o644))
		var (
			tbl *table.Table
			err error
		)
		require.NotPanics(t, func() { tbl, err = table.ReadFile(fs, path) }, "offset %d", off)
		if err != nil {
			assert.Nil(t, tbl)
			failures++
			continue
		}
		assert.NotNil(t, tbl)
		require.NoError(t, fs.Remove(path))
	}
	assert.Positive(t, failures)
}

func TestReadFileCSV(t *testing.T) {
	fs := afero.NewMemMapFs()
	content := "id,when,score,ok\n" +
		"a,2024-08-10,12.5,true\n" +
		"b,2024-08-12,,false\n" +
		"c,2024-08-15,10.2,true\n"
	require.NoError(t, afero.WriteFile(fs, "/d/harvest.csv", []byte(content), 0o644))

	tbl, err := table.ReadFile(fs, "/d/harvest.csv")
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Rows())

	kinds := map[string]table.Kind{}
	for _, c := range tbl.Columns() {
		kinds[c.Name] = c.Kind
	}
	assert.Equal(t, map[string]table.Kind{
		"id": table.KindText, "when": table.KindDatetime, "score": table.KindNumeric, "ok": table.KindBool,
	}, kinds)

	score, _ := tbl.Column("score")
	assert.True(t, score.IsNull(1))
}

func TestReadFileCSVRejectsFieldCountMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/d/bad.csv", []byte("a,b\n1,2\n3\n"), 0o644))
	_, err := table.ReadFile(fs, "/d/bad.csv")
	assert.Error(t, err)
}

func TestReadFileCSVMatchesFixture(t *testing.T) {
	fs := afero.NewMemMapFs()
	src := tabletest.Sensors(t, 12, 4)
	require.NoError(t, afero.WriteFile(fs, "/d/s.csv", tabletest.CSVBytes(src), 0o644))
	got, err := table.ReadFile(fs, "/d/s.csv")
	require.NoError(t, err)
	assert.Equal(t, src.Rows(), got.Rows())
	assert.Equal(t, src.ColumnNames(), got.ColumnNames())
}

func TestReaderForUnsupported(t *testing.T) {
	_, err := table.ReaderFor("notes.docx")
	assert.ErrorIs(t, err, table.ErrUnsupportedFormat)

	r, err := table.ReaderFor("dataset")
	require.NoError(t, err)
	assert.Equal(t, table.FormatParquet, r.Format())
}

func TestReadFileMissing(t *testing.T) {
	_, err := table.ReadFile(afero.NewMemMapFs(), "/nope.parquet")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open table")
}

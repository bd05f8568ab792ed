// Package tabletest builds table fixtures and their serialized forms for tests.
package tabletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/KaramelBytes/datadash/internal/table"
)

// SensorColumns lists the columns produced by Sensors, in order.
var SensorColumns = []string{"id", "createdAt", "heartRate", "skinTemperature", "gsr_x", "x", "y", "z", "y_binary"}

// Sensors builds a deterministic wearable-sensor table with n rows spread
// over participants ids. Every third row is labelled fatigued (y_binary=1).
func Sensors(tb testing.TB, n, participants int) *table.Table {
	tb.Helper()
	if participants <= 0 {
		participants = 1
	}
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	id := &table.Column{Name: "id", Kind: table.KindText, Str: make([]string, n)}
	created := &table.Column{Name: "createdAt", Kind: table.KindDatetime, Float: make([]float64, n)}
	num := func(name string) *table.Column {
		return &table.Column{Name: name, Kind: table.KindNumeric, Float: make([]float64, n)}
	}
	hr, skin, gsr, x, y, z, target := num("heartRate"), num("skinTemperature"), num("gsr_x"), num("x"), num("y"), num("z"), num("y_binary")
	for i := 0; i < n; i++ {
		id.Str[i] = fmt.Sprintf("P%02d", i%participants)
		created.Float[i] = float64(base.Add(time.Duration(i) * time.Minute).Unix())
		fatigued := i%3 == 0
		hr.Float[i] = 70 + float64(i%20)
		skin.Float[i] = 33 + float64(i%5)*0.25
		gsr.Float[i] = 0.5 + math.Mod(float64(i)*0.37, 2)
		x.Float[i] = float64(i%7) - 3
		y.Float[i] = float64(i%11) - 5
		z.Float[i] = 9.8 - float64(i%3)*0.1
		if fatigued {
			hr.Float[i] += 25
			target.Float[i] = 1
		}
	}
	t, err := table.New("sensors.parquet", id, created, hr, skin, gsr, x, y, z, target)
	if err != nil {
		tb.Fatalf("build sensors table: %v", err)
	}
	return t
}

// ParquetBytes serializes t as a parquet file.
func ParquetBytes(tb testing.TB, t *table.Table) []byte {
	tb.Helper()
	fields := make([]arrow.Field, 0, t.NumCols())
	for _, c := range t.Columns() {
		fields = append(fields, arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true})
	}
	schema := arrow.NewSchema(fields, nil)
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for j, c := range t.Columns() {
		for i := 0; i < t.Rows(); i++ {
			if c.IsNull(i) {
				b.Field(j).AppendNull()
				continue
			}
			switch fb := b.Field(j).(type) {
			case *array.Float64Builder:
				fb.Append(c.Float[i])
			case *array.StringBuilder:
				fb.Append(c.Str[i])
			case *array.BooleanBuilder:
				fb.Append(c.Float[i] != 0)
			case *array.TimestampBuilder:
				fb.Append(arrow.Timestamp(int64(c.Float[i] * 1e6)))
			}
		}
	}
	rec := b.NewRecord()
	defer rec.Release()
	tbl := array.NewTableFromRecords(schema, []arrow.Record{rec})
	defer tbl.Release()

	var buf bytes.Buffer
	if err := pqarrow.WriteTable(tbl, &buf, 64*1024, parquet.NewWriterProperties(), pqarrow.DefaultWriterProps()); err != nil {
		tb.Fatalf("write parquet: %v", err)
	}
	return buf.Bytes()
}

// CSVBytes serializes t as a comma separated file with a header row.
func CSVBytes(t *table.Table) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(t.ColumnNames(), ","))
	b.WriteString("\n")
	for i := 0; i < t.Rows(); i++ {
		b.WriteString(strings.Join(t.Row(i), ","))
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// Corrupt returns bytes that no registered reader accepts: a parquet
// magic header followed by garbage.
func Corrupt() []byte {
	return append([]byte("PAR1"), bytes.Repeat([]byte{0xde, 0xad, 0xbe, 0xef}, 16)...)
}

// DamagedPages returns a copy of the parquet file b with every byte between
// the leading magic and the footer zeroed. The footer still parses, so the
// damage only shows once column pages are decoded.
func DamagedPages(tb testing.TB, b []byte) []byte {
	tb.Helper()
	start, end := PageRegion(tb, b)
	out := bytes.Clone(b)
	for i := start; i < end; i++ {
		out[i] = 0
	}
	return out
}

// FlipPageBytes returns a copy of the parquet file b with n bytes inverted
// starting at off, which must lie between the leading magic and the footer.
func FlipPageBytes(tb testing.TB, b []byte, off, n int) []byte {
	tb.Helper()
	start, end := PageRegion(tb, b)
	if off < start || off+n > end {
		tb.Fatalf("flip [%d,%d) outside page region [%d,%d)", off, off+n, start, end)
	}
	out := bytes.Clone(b)
	for i := off; i < off+n; i++ {
		out[i] = ^out[i]
	}
	return out
}

// PageRegion returns the byte range holding column pages in parquet file b.
func PageRegion(tb testing.TB, b []byte) (start, end int) {
	tb.Helper()
	const magic = 4
	if len(b) < 2*magic+4 || string(b[:magic]) != "PAR1" || string(b[len(b)-magic:]) != "PAR1" {
		tb.Fatalf("not a parquet file")
	}
	footer := int(binary.LittleEndian.Uint32(b[len(b)-magic-4:]))
	end = len(b) - magic - 4 - footer
	if end <= magic {
		tb.Fatalf("parquet file has no page data")
	}
	return magic, end
}

func arrowType(k table.Kind) arrow.DataType {
	switch k {
	case table.KindText:
		return arrow.BinaryTypes.String
	case table.KindBool:
		return arrow.FixedWidthTypes.Boolean
	case table.KindDatetime:
		return &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}
	default:
		return arrow.PrimitiveTypes.Float64
	}
}

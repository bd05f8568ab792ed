package table

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// FormatParquet names the parquet reader.
const FormatParquet = "parquet"

// pandas stores a non-default index as an extra column; it is not data.
const pandasIndexPrefix = "__index_level_"

type parquetReader struct{}

func (parquetReader) Format() string { return FormatParquet }

func (parquetReader) CanRead(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".parquet" || ext == ".pq"
}

// Read decodes src. arrow-go can panic on damaged pages whose footer still
// parses, so panics are returned as errors like any other malformed input.
func (parquetReader) Read(name string, src Source) (t *Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("decode parquet: %v", r)
		}
	}()

	pf, err := file.NewParquetReader(src)
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("arrow reader: %w", err)
	}
	at, err := fr.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	defer at.Release()

	schema := at.Schema()
	cols := make([]*Column, 0, at.NumCols())
	for i := 0; i < int(at.NumCols()); i++ {
		field := schema.Field(i)
		if strings.HasPrefix(field.Name, pandasIndexPrefix) {
			continue
		}
		col := &Column{Name: field.Name, Kind: kindOf(field.Type)}
		for _, chunk := range at.Column(i).Data().Chunks() {
			appendArray(col, chunk)
		}
		cols = append(cols, col)
	}
	return New(name, cols...)
}

func kindOf(dt arrow.DataType) Kind {
	switch dt.ID() {
	case arrow.FLOAT16, arrow.FLOAT32, arrow.FLOAT64,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64:
		return KindNumeric
	case arrow.BOOL:
		return KindBool
	case arrow.TIMESTAMP, arrow.DATE32, arrow.DATE64:
		return KindDatetime
	case arrow.DICTIONARY:
		return kindOf(dt.(*arrow.DictionaryType).ValueType)
	default:
		return KindText
	}
}

func appendArray(c *Column, arr arrow.Array) {
	for i := 0; i < arr.Len(); i++ {
		valid := arr.IsValid(i)
		c.Valid = append(c.Valid, valid)
		if c.Kind == KindText {
			s := ""
			if valid {
				s = textAt(arr, i)
			}
			c.Str = append(c.Str, s)
			continue
		}
		var f float64
		if valid {
			f = floatAt(arr, i)
		}
		c.Float = append(c.Float, f)
	}
}

func floatAt(arr arrow.Array, i int) float64 {
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(i)
	case *array.Float32:
		return float64(a.Value(i))
	case *array.Float16:
		return float64(a.Value(i).Float32())
	case *array.Int64:
		return float64(a.Value(i))
	case *array.Int32:
		return float64(a.Value(i))
	case *array.Int16:
		return float64(a.Value(i))
	case *array.Int8:
		return float64(a.Value(i))
	case *array.Uint64:
		return float64(a.Value(i))
	case *array.Uint32:
		return float64(a.Value(i))
	case *array.Uint16:
		return float64(a.Value(i))
	case *array.Uint8:
		return float64(a.Value(i))
	case *array.Boolean:
		if a.Value(i) {
			return 1
		}
		return 0
	case *array.Timestamp:
		unit := a.DataType().(*arrow.TimestampType).Unit
		return float64(a.Value(i).ToTime(unit).UnixNano()) / 1e9
	case *array.Date32:
		return float64(a.Value(i).ToTime().Unix())
	case *array.Date64:
		return float64(a.Value(i).ToTime().Unix())
	case *array.Dictionary:
		return floatAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return 0
	}
}

func textAt(arr arrow.Array, i int) string {
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.LargeString:
		return a.Value(i)
	case *array.Dictionary:
		return textAt(a.Dictionary(), a.GetValueIndex(i))
	default:
		return arr.ValueStr(i)
	}
}

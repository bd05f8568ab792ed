package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred storage class of a column.
type Kind string

const (
	KindNumeric  Kind = "numeric"
	KindText     Kind = "text"
	KindBool     Kind = "bool"
	KindDatetime Kind = "datetime"
)

var (
	// ErrRaggedColumns is returned when columns disagree on row count.
	ErrRaggedColumns = errors.New("columns have different lengths")
	// ErrColumnNotFound is returned by lookups on an unknown column name.
	ErrColumnNotFound = errors.New("column not found")
)

// Column holds one named column. Numeric, bool and datetime values live in
// Float (bools as 0/1, datetimes as unix seconds); text values live in Str.
// Valid[i] is false for null cells.
type Column struct {
	Name  string
	Kind  Kind
	Float []float64
	Str   []string
	Valid []bool
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	if c.Kind == KindText {
		return len(c.Str)
	}
	return len(c.Float)
}

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool {
	return i < len(c.Valid) && !c.Valid[i]
}

// FloatAt returns the numeric value of cell i. Text cells and nulls report false.
func (c *Column) FloatAt(i int) (float64, bool) {
	if c.Kind == KindText || c.IsNull(i) || i >= len(c.Float) {
		return 0, false
	}
	return c.Float[i], true
}

// Value renders cell i as a display string. Nulls render as "".
func (c *Column) Value(i int) string {
	if c.IsNull(i) {
		return ""
	}
	switch c.Kind {
	case KindText:
		return c.Str[i]
	case KindBool:
		if c.Float[i] != 0 {
			return "true"
		}
		return "false"
	case KindDatetime:
		return time.Unix(int64(c.Float[i]), 0).UTC().Format(time.RFC3339)
	default:
		return strconv.FormatFloat(c.Float[i], 'g', -1, 64)
	}
}

// take copies the cells at idx into a new column.
func (c *Column) take(idx []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind, Valid: make([]bool, len(idx))}
	if c.Kind == KindText {
		out.Str = make([]string, len(idx))
	} else {
		out.Float = make([]float64, len(idx))
	}
	for j, i := range idx {
		if c.Kind == KindText {
			out.Str[j] = c.Str[i]
		} else {
			out.Float[j] = c.Float[i]
		}
		out.Valid[j] = !c.IsNull(i)
	}
	return out
}

// Table is an in-memory columnar dataset. Every column has Rows() cells.
type Table struct {
	Name    string
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a Table and enforces that all columns have the same length.
func New(name string, cols ...*Column) (*Table, error) {
	t := &Table{Name: name, columns: cols, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if c.Valid == nil {
			c.Valid = make([]bool, c.Len())
			for j := range c.Valid {
				c.Valid[j] = true
			}
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, expected %d", ErrRaggedColumns, c.Name, c.Len(), t.rows)
		}
		if len(c.Valid) != c.Len() {
			return nil, fmt.Errorf("%w: %q validity mask has %d entries, expected %d", ErrRaggedColumns, c.Name, len(c.Valid), c.Len())
		}
		if _, dup := t.index[c.Name]; !dup {
			t.index[c.Name] = i
		}
	}
	return t, nil
}

// Rows returns the row count.
func (t *Table) Rows() int { return t.rows }

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.columns) }

// Columns returns the columns in file order. Callers must not mutate them.
func (t *Table) Columns() []*Column { return t.columns }

// ColumnNames returns the column names in file order.
func (t *Table) ColumnNames() []string {
	out := make([]string, len(t.columns))
	for i, c := range t.columns {
		out[i] = c.Name
	}
	return out
}

// Column looks a column up by exact name, then case-insensitively.
func (t *Table) Column(name string) (*Column, error) {
	if i, ok := t.index[name]; ok {
		return t.columns[i], nil
	}
	for _, c := range t.columns {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Row renders row i as display strings.
func (t *Table) Row(i int) []string {
	out := make([]string, len(t.columns))
	for j, c := range t.columns {
		out[j] = c.Value(i)
	}
	return out
}

// Take returns a new table holding the rows at idx, in that order.
func (t *Table) Take(idx []int) (*Table, error) {
	for _, i := range idx {
		if i < 0 || i >= t.rows {
			return nil, fmt.Errorf("row index %d out of range [0,%d)", i, t.rows)
		}
	}
	cols := make([]*Column, len(t.columns))
	for j, c := range t.columns {
		cols[j] = c.take(idx)
	}
	return New(t.Name, cols...)
}

// Head returns the first n rows. n larger than Rows() returns the whole table.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= t.rows {
		return t
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	h, _ := t.Take(idx)
	return h
}

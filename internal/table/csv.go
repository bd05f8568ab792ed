package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FormatCSV names the CSV/TSV reader.
const FormatCSV = "csv"

type csvReader struct{}

func (csvReader) Format() string { return FormatCSV }

func (csvReader) CanRead(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".csv" || ext == ".tsv"
}

// Read decodes a header-first CSV. Rows with a different field count than
// the header are rejected instead of padded.
func (csvReader) Read(name string, src Source) (*Table, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek: %w", err)
	}
	r := csv.NewReader(src)
	r.Comma = sniffDelimiter(name)
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv: missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	ncol := len(header)
	raw := make([][]string, ncol)
	names := make([]string, ncol)
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		for j := 0; j < ncol; j++ {
			raw[j] = append(raw[j], strings.TrimSpace(rec[j]))
		}
	}
	cols := make([]*Column, ncol)
	for j := range raw {
		cols[j] = inferColumn(names[j], raw[j])
	}
	return New(name, cols...)
}

// inferColumn picks the narrowest kind every non-empty cell parses as.
func inferColumn(name string, vals []string) *Column {
	allNum, allBool, allTime := true, true, true
	nonEmpty := 0
	for _, v := range vals {
		if v == "" {
			continue
		}
		nonEmpty++
		if allNum {
			if _, ok := parseNumeric(v); !ok {
				allNum = false
			}
		}
		if allBool {
			if _, ok := parseBool(v); !ok {
				allBool = false
			}
		}
		if allTime {
			if _, ok := parseTimeMaybe(v); !ok {
				allTime = false
			}
		}
	}
	c := &Column{Name: name, Valid: make([]bool, len(vals))}
	switch {
	case nonEmpty == 0:
		c.Kind = KindText
	case allNum:
		c.Kind = KindNumeric
	case allBool:
		c.Kind = KindBool
	case allTime:
		c.Kind = KindDatetime
	default:
		c.Kind = KindText
	}
	if c.Kind == KindText {
		c.Str = make([]string, len(vals))
	} else {
		c.Float = make([]float64, len(vals))
	}
	for i, v := range vals {
		if v == "" {
			continue
		}
		c.Valid[i] = true
		switch c.Kind {
		case KindText:
			c.Str[i] = v
		case KindNumeric:
			c.Float[i], _ = parseNumeric(v)
		case KindBool:
			if b, _ := parseBool(v); b {
				c.Float[i] = 1
			}
		case KindDatetime:
			ts, _ := parseTimeMaybe(v)
			c.Float[i] = float64(ts.UnixNano()) / 1e9
		}
	}
	return c
}

func sniffDelimiter(name string) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	return ','
}

func parseNumeric(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, " ", ""), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true, true
	case "false", "no":
		return false, true
	}
	return false, false
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano, time.RFC3339, "2006-01-02", "2006/01/02",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02 15:04:05.999999999",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

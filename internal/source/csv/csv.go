// Package csv implements a Source/Sink pair over comma-separated text
// (spec §6 domain stack), grounded directly on the teacher's
// internal/dataframe/dataframe.go ReadCSV/ToCSV: read the header row, infer
// or accept declared per-column types, and build/drain a Frame instead of
// the teacher's flat map[string][]interface{}.
package csv

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	civil "github.com/golang-sql/civil"
	strftime "github.com/ncruces/go-strftime"

	"tabula/internal/array"
	"tabula/internal/engineerrors"
	"tabula/internal/frame"
	"tabula/internal/source"
	"tabula/internal/typecode"
)

// Options configures a Read/Write call (spec §6: "configurator: O -> void").
type Options struct {
	HasHeader   bool
	Delimiter   rune
	ColumnTypes map[string]typecode.Code
	DateLayout  string // strftime layout used when writing DATE columns
}

// DefaultOptions matches the teacher's ReadCSV/ToCSV assumption: a header
// row present, comma-delimited, no declared column types (inferred).
func DefaultOptions() Options {
	return Options{HasHeader: true, Delimiter: ',', DateLayout: "%Y-%m-%d"}
}

// Adapter is the Source[int,string,Options]/Sink[int,string,Options]
// implementation registered under the "csv" type tag. Row keys are the
// zero-based line number; column keys are header names.
type Adapter struct {
	Path string
}

func init() {
	source.Register("csv", func(path string) Adapter { return Adapter{Path: path} })
}

// Read loads path into a Frame keyed by row ordinal and column name (spec
// §6: Source.read).
func (a Adapter) Read(configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	return Read(a.Path, configure)
}

// Write drains f to path (spec §6: Sink.write).
func (a Adapter) Write(f *frame.Frame[int, string], configure source.Configurator[Options]) error {
	return Write(f, a.Path, configure)
}

// Read is the free-function form Adapter.Read delegates to.
func Read(path string, configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, engineerrors.WrapIO("csv.Read", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	if opts.Delimiter != 0 {
		r.Comma = opts.Delimiter
	}
	records, err := r.ReadAll()
	if err != nil {
		return nil, engineerrors.WrapIO("csv.Read", err)
	}
	if len(records) == 0 {
		return frame.Empty[int, string](), nil
	}

	var headers []string
	var rows [][]string
	if opts.HasHeader {
		headers, rows = records[0], records[1:]
	} else {
		headers = make([]string, len(records[0]))
		for i := range headers {
			headers[i] = fmt.Sprintf("col%d", i)
		}
		rows = records
	}

	codes := make([]typecode.Code, len(headers))
	for ci, h := range headers {
		if c, ok := opts.ColumnTypes[h]; ok {
			codes[ci] = c
			continue
		}
		codes[ci] = inferColumnType(rows, ci)
	}

	rowKeys := make([]int, len(rows))
	for i := range rowKeys {
		rowKeys[i] = i
	}

	pos := 0
	out, err := frame.FromBuilder[int, string](rowKeys, headers, func(_ string, rowCount int) array.Array {
		code := codes[pos]
		pos++
		return array.Of(code, rowCount)
	})
	if err != nil {
		return nil, err
	}

	for ri, row := range rows {
		for ci, h := range headers {
			if ci >= len(row) {
				continue
			}
			v, err := parseValue(codes[ci], row[ci])
			if err != nil {
				continue // leave the column's default sentinel, matching §3's null-sentinel convention
			}
			if _, err := out.SetValue(ri, h, v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Write serializes f to path as CSV, one header row followed by one row
// per live row key in the Frame's current row-ordinal order.
func Write(f *frame.Frame[int, string], path string, configure source.Configurator[Options]) error {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	file, err := os.Create(path)
	if err != nil {
		return engineerrors.WrapIO("csv.Write", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if opts.Delimiter != 0 {
		w.Comma = opts.Delimiter
	}
	defer w.Flush()

	headers := f.ColIndex().Keys()
	if err := w.Write(headers); err != nil {
		return engineerrors.WrapIO("csv.Write", err)
	}

	for _, rowKey := range f.RowIndex().Keys() {
		record := make([]string, len(headers))
		for ci, colKey := range headers {
			v, err := f.GetValue(rowKey, colKey)
			if err != nil {
				continue
			}
			record[ci] = formatValue(v, opts.DateLayout)
		}
		if err := w.Write(record); err != nil {
			return engineerrors.WrapIO("csv.Write", err)
		}
	}
	return nil
}

func inferColumnType(rows [][]string, ci int) typecode.Code {
	sawAny := false
	allInt, allFloat, allBool, allDate := true, true, true, true
	for _, row := range rows {
		if ci >= len(row) || row[ci] == "" {
			continue
		}
		sawAny = true
		v := row[ci]
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			allInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			allFloat = false
		}
		if _, err := strconv.ParseBool(v); err != nil {
			allBool = false
		}
		if _, err := civil.ParseDate(v); err != nil {
			allDate = false
		}
	}
	switch {
	case !sawAny:
		return typecode.String
	case allInt:
		return typecode.Int64
	case allFloat:
		return typecode.Float64
	case allBool:
		return typecode.Bool
	case allDate:
		return typecode.Date
	default:
		return typecode.String
	}
}

func parseValue(code typecode.Code, s string) (any, error) {
	switch code {
	case typecode.Bool:
		return strconv.ParseBool(s)
	case typecode.Int32:
		v, err := strconv.ParseInt(s, 10, 32)
		return int32(v), err
	case typecode.Int64:
		return strconv.ParseInt(s, 10, 64)
	case typecode.Float64, typecode.Currency:
		return strconv.ParseFloat(s, 64)
	case typecode.Date:
		return civil.ParseDate(s)
	default:
		return s, nil
	}
}

func formatValue(v any, dateLayout string) string {
	switch t := v.(type) {
	case civil.Date:
		return strftime.Format(dateLayout, time.Date(t.Year, t.Month, t.Day, 0, 0, 0, 0, time.UTC))
	case civil.DateTime:
		d := t.Date
		tm := t.Time
		return strftime.Format(dateLayout, time.Date(d.Year, d.Month, d.Day, tm.Hour, tm.Minute, tm.Second, tm.Nanosecond, time.UTC))
	default:
		return fmt.Sprintf("%v", v)
	}
}

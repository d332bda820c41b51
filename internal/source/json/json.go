// Package json implements a Source/Sink pair over a JSON array of objects
// (spec §6 domain stack), grounded on the teacher's
// internal/dataframe/dataframe.go ToJSON (DataFrame -> []map[string]any ->
// json.Marshal), extended here with the Read direction ToJSON never had.
package json

import (
	"encoding/json"
	"os"
	"sort"

	"tabula/internal/array"
	"tabula/internal/engineerrors"
	"tabula/internal/frame"
	"tabula/internal/source"
	"tabula/internal/typecode"
)

// Options configures a Read/Write call.
type Options struct {
	ColumnTypes map[string]typecode.Code
	Indent      string // when non-empty, Write pretty-prints with this indent
}

func DefaultOptions() Options { return Options{} }

// Adapter is the Source[int,string,Options]/Sink[int,string,Options]
// implementation registered under the "json" type tag.
type Adapter struct {
	Path string
}

func init() {
	source.Register("json", func(path string) Adapter { return Adapter{Path: path} })
}

func (a Adapter) Read(configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	return Read(a.Path, configure)
}

func (a Adapter) Write(f *frame.Frame[int, string], configure source.Configurator[Options]) error {
	return Write(f, a.Path, configure)
}

// Read parses path as a JSON array of flat objects into a Frame keyed by
// row ordinal and object key.
func Read(path string, configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, engineerrors.WrapIO("json.Read", err)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, engineerrors.WrapIO("json.Read", err)
	}
	if len(records) == 0 {
		return frame.Empty[int, string](), nil
	}

	seen := make(map[string]bool)
	var headers []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers) // deterministic column order; JSON object key order is not preserved by map[string]any

	codes := make(map[string]typecode.Code, len(headers))
	for _, h := range headers {
		if c, ok := opts.ColumnTypes[h]; ok {
			codes[h] = c
			continue
		}
		codes[h] = inferColumnType(records, h)
	}

	rowKeys := make([]int, len(records))
	for i := range rowKeys {
		rowKeys[i] = i
	}

	out, err := frame.FromBuilder[int, string](rowKeys, headers, func(h string, rowCount int) array.Array {
		return array.Of(codes[h], rowCount)
	})
	if err != nil {
		return nil, err
	}

	for ri, rec := range records {
		for _, h := range headers {
			v, ok := rec[h]
			if !ok || v == nil {
				continue
			}
			converted, ok := convertJSONValue(codes[h], v)
			if !ok {
				continue
			}
			if _, err := out.SetValue(ri, h, converted); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Write serializes f as a JSON array of objects, one per live row.
func Write(f *frame.Frame[int, string], path string, configure source.Configurator[Options]) error {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	headers := f.ColIndex().Keys()
	records := make([]map[string]any, 0, f.RowCount())
	for _, rowKey := range f.RowIndex().Keys() {
		rec := make(map[string]any, len(headers))
		for _, colKey := range headers {
			v, err := f.GetValue(rowKey, colKey)
			if err == nil {
				rec[colKey] = v
			}
		}
		records = append(records, rec)
	}

	var out []byte
	var err error
	if opts.Indent != "" {
		out, err = json.MarshalIndent(records, "", opts.Indent)
	} else {
		out, err = json.Marshal(records)
	}
	if err != nil {
		return engineerrors.WrapIO("json.Write", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return engineerrors.WrapIO("json.Write", err)
	}
	return nil
}

func inferColumnType(records []map[string]any, key string) typecode.Code {
	sawAny, allInt, allFloat, allBool, allString := false, true, true, true, true
	for _, rec := range records {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		sawAny = true
		switch n := v.(type) {
		case bool:
			allInt, allFloat, allString = false, false, false
		case float64:
			allBool, allString = false, false
			if n != float64(int64(n)) {
				allInt = false
			}
		case string:
			allInt, allFloat, allBool = false, false, false
		default:
			allInt, allFloat, allBool, allString = false, false, false, false
		}
	}
	switch {
	case !sawAny:
		return typecode.String
	case allBool:
		return typecode.Bool
	case allInt:
		return typecode.Int64
	case allFloat:
		return typecode.Float64
	case allString:
		return typecode.String
	default:
		return typecode.Object
	}
}

func convertJSONValue(code typecode.Code, v any) (any, bool) {
	switch code {
	case typecode.Bool:
		b, ok := v.(bool)
		return b, ok
	case typecode.Int32:
		f, ok := v.(float64)
		return int32(f), ok
	case typecode.Int64:
		f, ok := v.(float64)
		return int64(f), ok
	case typecode.Float64, typecode.Currency:
		f, ok := v.(float64)
		return f, ok
	case typecode.String:
		s, ok := v.(string)
		return s, ok
	default:
		return v, true
	}
}

// Package frame implements Frame (spec §4.5, C5): a pair of axes (row,
// column) plus an ordered set of columns, coordinating element access,
// structural mutation, event notification and zero-copy views.
//
// Grounded on the teacher's internal/dataframe/dataframe.go DataFrame
// (column map + row count, ReadCSV/ToCSV/ToJSON, Select/Filter), generalized
// from one fixed string-keyed row/column pair into generic row/column key
// types backed by tableindex.Index, and from a single interface{} column
// slice into the polymorphic array.Array column set spec.md §3 describes.
package frame

import (
	"fmt"
	"math"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/kr/pretty"

	"tabula/internal/array"
	"tabula/internal/axis"
	"tabula/internal/config"
	"tabula/internal/engineerrors"
	"tabula/internal/events"
	"tabula/internal/parallel"
	"tabula/internal/tableindex"
	"tabula/internal/typecode"
)

// Frame is the core DataFrame assembly (spec §3/§4.5): {rowIndex, colIndex,
// columns[] indexed by canonical column index, events, notifying}.
type Frame[R comparable, C comparable] struct {
	rowIndex *tableindex.Index[R]
	colIndex *tableindex.Index[C]
	columns  []array.Array
	bus      *events.Bus
	cfg      config.Config
}

// Empty returns a Frame with no rows or columns.
func Empty[R comparable, C comparable]() *Frame[R, C] {
	return &Frame[R, C]{
		rowIndex: tableindex.New[R](),
		colIndex: tableindex.New[C](),
		bus:      &events.Bus{},
		cfg:      config.Default(),
	}
}

// From builds a Frame over rowKeys x colKeys, every column holding code's
// default-filled values (spec §6: "from(rowKeys, colKeys, TypeCode)").
func From[R comparable, C comparable](rowKeys []R, colKeys []C, code typecode.Code) (*Frame[R, C], error) {
	f := Empty[R, C]()
	if _, err := f.rowIndex.AddAll(rowKeys, true); err != nil {
		return nil, err
	}
	if _, err := f.colIndex.AddAll(colKeys, true); err != nil {
		return nil, err
	}
	n := f.rowIndex.Size()
	for range colKeys {
		f.columns = append(f.columns, array.Of(code, n))
	}
	return f, nil
}

// FromBuilder builds a Frame over rowKeys x colKeys where each column's
// storage is produced by builder(colKey, rowCount) (spec §6: "from(rowKeys,
// colType, columnBuilder)"), letting columns carry different TypeCodes.
func FromBuilder[R comparable, C comparable](rowKeys []R, colKeys []C, builder func(c C, rowCount int) array.Array) (*Frame[R, C], error) {
	f := Empty[R, C]()
	if _, err := f.rowIndex.AddAll(rowKeys, true); err != nil {
		return nil, err
	}
	n := f.rowIndex.Size()
	for _, ck := range colKeys {
		if _, err := f.colIndex.Add(ck); err != nil {
			return nil, err
		}
		f.columns = append(f.columns, builder(ck, n))
	}
	return f, nil
}

// RowCount / ColCount / row and column axis accessors (spec §4.5: Structure).
func (f *Frame[R, C]) RowCount() int { return f.rowIndex.Size() }
func (f *Frame[R, C]) ColCount() int { return f.colIndex.Size() }

// Rows returns the row Axis, a non-owning view sharing this Frame's row
// Index directly: sorting it reorders the Frame's own row ordering.
func (f *Frame[R, C]) Rows() *axis.Axis[R] { return axis.New(f.rowIndex, axis.Rows, f) }

// Cols returns the column Axis, analogous to Rows.
func (f *Frame[R, C]) Cols() *axis.Axis[C] { return axis.New(f.colIndex, axis.Cols, f) }

// Data returns the Frame itself: the content accessor spec §4.5 names
// (there is no separate accessor type — Frame already exposes every typed
// getter/setter a caller needs).
func (f *Frame[R, C]) Data() *Frame[R, C] { return f }

// RowIndex / ColIndex expose the underlying Index directly for the cursor
// and vector packages, which need key<->ordinal<->canonical translation
// this Frame already performs internally.
func (f *Frame[R, C]) RowIndex() *tableindex.Index[R] { return f.rowIndex }
func (f *Frame[R, C]) ColIndex() *tableindex.Index[C] { return f.colIndex }

// GetFloat64At reads the cell at (rowOrd, colOrd) as a float64, failing with
// TypeMismatch unless the column stores float64 values (FLOAT64, CURRENCY);
// integer-backed numeric columns fail as well.
func (f *Frame[R, C]) GetFloat64At(rowOrd, colOrd int) (float64, error) {
	rc, err := f.rowIndex.GetCanonicalAt(rowOrd)
	if err != nil {
		return 0, err
	}
	cc, err := f.colIndex.GetCanonicalAt(colOrd)
	if err != nil {
		return 0, err
	}
	col, err := f.ColumnArray(cc)
	if err != nil {
		return 0, err
	}
	return col.GetFloat64(rc)
}

// Config returns the Frame's explicit configuration (spec §5/§6; replaces
// the source's thread-local stacks per REDESIGN FLAGS).
func (f *Frame[R, C]) Config() config.Config { return f.cfg }

// SetConfig installs cfg as this Frame's configuration.
func (f *Frame[R, C]) SetConfig(cfg config.Config) { f.cfg = cfg }

// WithIgnoreDuplicates runs fn against a Frame that shares this Frame's
// storage (rowIndex/colIndex/columns/bus) but whose duplicate-key policy is
// scoped to ignore for the duration of the call (REDESIGN FLAGS item 2: an
// explicit scoped-config helper in place of the source's thread-local
// "while-not-ignoring-duplicates" stack). f itself is never mutated: the
// override lives only on the Frame copy handed to fn, so it is impossible
// to leak past fn returning on any exit path, success or error.
func (f *Frame[R, C]) WithIgnoreDuplicates(ignore bool, fn func(*Frame[R, C]) error) error {
	var result error
	config.With(f.cfg, func(c config.Config) config.Config {
		return config.WithIgnoreDuplicates(c, ignore)
	}, func(scopedCfg config.Config) {
		scoped := *f
		scoped.cfg = scopedCfg
		result = fn(&scoped)
	})
	return result
}

// Events returns the Frame's event bus (spec §4.8/§8).
func (f *Frame[R, C]) Events() *events.Bus { return f.bus }

// --- axis.Accessor implementation: the non-owning surface Axis consumes ---

func (f *Frame[R, C]) RowCanonicalOrder() []int { return f.rowIndex.Ordinals() }
func (f *Frame[R, C]) ColCanonicalOrder() []int { return f.colIndex.Ordinals() }

func (f *Frame[R, C]) ColumnArray(colCanonical int) (array.Array, error) {
	if colCanonical < 0 || colCanonical >= len(f.columns) {
		return nil, engineerrors.NewOutOfBounds("Frame.ColumnArray", colCanonical, len(f.columns))
	}
	return f.columns[colCanonical], nil
}

func (f *Frame[R, C]) ColCanonicalForKey(key any) (int, bool) {
	ck, ok := key.(C)
	if !ok {
		return 0, false
	}
	c, err := f.colIndex.GetIndexForKey(ck)
	return c, err == nil
}

func (f *Frame[R, C]) RowCanonicalForKey(key any) (int, bool) {
	rk, ok := key.(R)
	if !ok {
		return 0, false
	}
	r, err := f.rowIndex.GetIndexForKey(rk)
	return r, err == nil
}

// --- helpers ---

func (f *Frame[R, C]) columnByKey(ck C) (array.Array, error) {
	canon, err := f.colIndex.GetIndexForKey(ck)
	if err != nil {
		return nil, err
	}
	return f.columns[canon], nil
}

func (f *Frame[R, C]) slot(rk R, ck C) (array.Array, int, error) {
	col, err := f.columnByKey(ck)
	if err != nil {
		return nil, 0, err
	}
	rc, err := f.rowIndex.GetIndexForKey(rk)
	if err != nil {
		return nil, 0, err
	}
	return col, rc, nil
}

// --- Access (spec §4.5: get/set per TypeCode, by key) ---

func (f *Frame[R, C]) GetValue(rk R, ck C) (any, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return nil, err
	}
	return col.GetValue(rc)
}

func (f *Frame[R, C]) SetValue(rk R, ck C, v any) (any, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return nil, err
	}
	prev, err := col.SetValue(rc, v)
	if err != nil {
		return nil, err
	}
	f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	return prev, nil
}

func (f *Frame[R, C]) GetBool(rk R, ck C) (bool, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return false, err
	}
	return col.GetBool(rc)
}

func (f *Frame[R, C]) SetBool(rk R, ck C, v bool) (bool, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return false, err
	}
	prev, err := col.SetBool(rc, v)
	if err == nil {
		f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	}
	return prev, err
}

func (f *Frame[R, C]) GetInt32(rk R, ck C) (int32, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	return col.GetInt32(rc)
}

func (f *Frame[R, C]) SetInt32(rk R, ck C, v int32) (int32, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	prev, err := col.SetInt32(rc, v)
	if err == nil {
		f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	}
	return prev, err
}

func (f *Frame[R, C]) GetInt64(rk R, ck C) (int64, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	return col.GetInt64(rc)
}

func (f *Frame[R, C]) SetInt64(rk R, ck C, v int64) (int64, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	prev, err := col.SetInt64(rc, v)
	if err == nil {
		f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	}
	return prev, err
}

func (f *Frame[R, C]) GetFloat64(rk R, ck C) (float64, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	return col.GetFloat64(rc)
}

func (f *Frame[R, C]) SetFloat64(rk R, ck C, v float64) (float64, error) {
	col, rc, err := f.slot(rk, ck)
	if err != nil {
		return 0, err
	}
	prev, err := col.SetFloat64(rc, v)
	if err == nil {
		f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	}
	return prev, err
}

// GetValueAt / SetValueAt access by ordinal position rather than key.
func (f *Frame[R, C]) GetValueAt(rowOrd, colOrd int) (any, error) {
	rc, err := f.rowIndex.GetCanonicalAt(rowOrd)
	if err != nil {
		return nil, err
	}
	cc, err := f.colIndex.GetCanonicalAt(colOrd)
	if err != nil {
		return nil, err
	}
	col, err := f.ColumnArray(cc)
	if err != nil {
		return nil, err
	}
	return col.GetValue(rc)
}

func (f *Frame[R, C]) SetValueAt(rowOrd, colOrd int, v any) (any, error) {
	rc, err := f.rowIndex.GetCanonicalAt(rowOrd)
	if err != nil {
		return nil, err
	}
	cc, err := f.colIndex.GetCanonicalAt(colOrd)
	if err != nil {
		return nil, err
	}
	col, err := f.ColumnArray(cc)
	if err != nil {
		return nil, err
	}
	prev, err := col.SetValue(rc, v)
	if err != nil {
		return nil, err
	}
	rk, _ := f.rowIndex.GetKey(rowOrd)
	ck, _ := f.colIndex.GetKey(colOrd)
	f.bus.Fire(events.Event{Kind: events.Update, RowKeys: []any{rk}, ColKeys: []any{ck}})
	return prev, nil
}

// --- Structural mutation ---

// AddRow inserts rowKey, optionally filling its cells via init(colKey) ->
// value (spec §4.4: Rows axis "add(key[, initialValues fn])").
func (f *Frame[R, C]) AddRow(rowKey R, init func(ck C) any) error {
	canon, err := f.rowIndex.Add(rowKey)
	if err != nil {
		if f.cfg.IgnoreDuplicates {
			if ee, ok := err.(*engineerrors.EngineError); ok && ee.Kind == engineerrors.DuplicateKey {
				return nil
			}
		}
		return err
	}
	var keyByCanon map[int]C
	if init != nil {
		keyByCanon = make(map[int]C, f.colIndex.Size())
		for ord, ck := range f.colIndex.Keys() {
			cc, _ := f.colIndex.GetCanonicalAt(ord)
			keyByCanon[cc] = ck
		}
	}
	for ci, col := range f.columns {
		if err := col.Expand(canon + 1); err != nil {
			return err
		}
		if ck, ok := keyByCanon[ci]; ok {
			if v := init(ck); v != nil {
				if _, err := col.SetValue(canon, v); err != nil {
					return err
				}
			}
		}
	}
	f.bus.Fire(events.Event{Kind: events.Add, RowKeys: []any{rowKey}})
	return nil
}

// AddColumn inserts colKey with a new column of the given TypeCode,
// optionally filled via init(rowKey) -> value (spec §4.4: Columns axis
// "add(key, type[, initialValues fn])").
func (f *Frame[R, C]) AddColumn(colKey C, code typecode.Code, init func(rk R) any) error {
	if _, err := f.colIndex.Add(colKey); err != nil {
		if f.cfg.IgnoreDuplicates {
			if ee, ok := err.(*engineerrors.EngineError); ok && ee.Kind == engineerrors.DuplicateKey {
				return nil
			}
		}
		return err
	}
	n := f.rowIndex.Size()
	col := array.Of(code, n)
	if init != nil {
		for ord := 0; ord < n; ord++ {
			rc, _ := f.rowIndex.GetCanonicalAt(ord)
			rk, _ := f.rowIndex.GetKey(ord)
			if v := init(rk); v != nil {
				if _, err := col.SetValue(rc, v); err != nil {
					return err
				}
			}
		}
	}
	f.columns = append(f.columns, col)
	f.bus.Fire(events.Event{Kind: events.Add, ColKeys: []any{colKey}})
	return nil
}

// AddColumns fills a map of colKey -> TypeCode via a consumer callback
// (spec §4.4: Columns axis "addAll(consumer filling a map)").
func (f *Frame[R, C]) AddColumns(consumer func(m map[C]typecode.Code)) error {
	m := make(map[C]typecode.Code)
	consumer(m)
	for ck, code := range m {
		if err := f.AddColumn(ck, code, nil); err != nil {
			return err
		}
	}
	return nil
}

// --- Views (zero-copy: share columns + key map, own ordinal order) ---

func (f *Frame[R, C]) view(rowIdx *tableindex.Index[R], colIdx *tableindex.Index[C]) *Frame[R, C] {
	return &Frame[R, C]{rowIndex: rowIdx, colIndex: colIdx, columns: f.columns, bus: f.bus, cfg: f.cfg}
}

// SelectRows returns a view restricted to rowKeys (spec §4.5: "rows().select(keys|predicate)").
func (f *Frame[R, C]) SelectRows(rowKeys []R) (*Frame[R, C], error) {
	sub, err := f.rowIndex.Filter(rowKeys)
	if err != nil {
		return nil, err
	}
	return f.view(sub, f.colIndex), nil
}

func (f *Frame[R, C]) FilterRows(predicate func(k R, ord, canonical int) bool) *Frame[R, C] {
	return f.view(f.rowIndex.FilterPredicate(predicate), f.colIndex)
}

func (f *Frame[R, C]) SelectCols(colKeys []C) (*Frame[R, C], error) {
	sub, err := f.colIndex.Filter(colKeys)
	if err != nil {
		return nil, err
	}
	return f.view(f.rowIndex, sub), nil
}

func (f *Frame[R, C]) FilterCols(predicate func(k C, ord, canonical int) bool) *Frame[R, C] {
	return f.view(f.rowIndex, f.colIndex.FilterPredicate(predicate))
}

// --- Assembly ---

// ConcatRows unions the rows of every frame's shared column set into a
// fresh Frame with its own storage (concatenation necessarily copies,
// unlike Select/Filter, since canonical indices of the inputs overlap).
// A single input frame is returned as is, not copied, matching the
// round-trip law concatRows([f]) == f (spec §8).
func ConcatRows[R comparable, C comparable](frames []*Frame[R, C]) (*Frame[R, C], error) {
	if len(frames) == 0 {
		return Empty[R, C](), nil
	}
	if len(frames) == 1 {
		return frames[0], nil
	}
	colKeys := frames[0].colIndex.Keys()
	codes := make([]typecode.Code, len(colKeys))
	for i, ck := range colKeys {
		col, err := frames[0].columnByKey(ck)
		if err != nil {
			return nil, err
		}
		codes[i] = col.Code()
	}

	var allRowKeys []R
	for _, fr := range frames {
		if fr.colIndex.Size() != len(colKeys) {
			return nil, engineerrors.NewDimensionMismatch("frame.ConcatRows", len(colKeys), fr.colIndex.Size())
		}
		allRowKeys = append(allRowKeys, fr.rowIndex.Keys()...)
	}

	out := Empty[R, C]()
	if _, err := out.rowIndex.AddAll(allRowKeys, false); err != nil {
		return nil, err
	}
	for i, ck := range colKeys {
		if _, err := out.colIndex.Add(ck); err != nil {
			return nil, err
		}
		out.columns = append(out.columns, array.Of(codes[i], out.rowIndex.Size()))
	}

	destRow := 0
	for _, fr := range frames {
		for ord := 0; ord < fr.rowIndex.Size(); ord++ {
			srcCanon, _ := fr.rowIndex.GetCanonicalAt(ord)
			for ci, ck := range colKeys {
				srcCol, err := fr.columnByKey(ck)
				if err != nil {
					return nil, err
				}
				v, err := srcCol.GetValue(srcCanon)
				if err != nil {
					return nil, err
				}
				if _, err := out.columns[ci].SetValue(destRow, v); err != nil {
					return nil, err
				}
			}
			destRow++
		}
	}
	return out, nil
}

// ConcatColumns unions the columns of every frame, which must all share the
// same row key set, into a fresh Frame. A single input frame is returned as
// is, not copied.
func ConcatColumns[R comparable, C comparable](frames []*Frame[R, C]) (*Frame[R, C], error) {
	if len(frames) == 0 {
		return Empty[R, C](), nil
	}
	if len(frames) == 1 {
		return frames[0], nil
	}
	rowKeys := frames[0].rowIndex.Keys()
	out := Empty[R, C]()
	if _, err := out.rowIndex.AddAll(rowKeys, false); err != nil {
		return nil, err
	}
	for _, fr := range frames {
		if fr.rowIndex.Size() != len(rowKeys) {
			return nil, engineerrors.NewDimensionMismatch("frame.ConcatColumns", len(rowKeys), fr.rowIndex.Size())
		}
		for _, ck := range fr.colIndex.Keys() {
			col, err := fr.columnByKey(ck)
			if err != nil {
				return nil, err
			}
			newCol := array.Of(col.Code(), len(rowKeys))
			for destRow, rk := range rowKeys {
				srcCanon, err := fr.rowIndex.GetIndexForKey(rk)
				if err != nil {
					return nil, err
				}
				v, err := col.GetValue(srcCanon)
				if err != nil {
					return nil, err
				}
				if _, err := newCol.SetValue(destRow, v); err != nil {
					return nil, err
				}
			}
			if _, err := out.colIndex.Add(ck); err != nil {
				return nil, err
			}
			out.columns = append(out.columns, newCol)
		}
	}
	return out, nil
}

// CombineFirst unions the row and column keys of every frame (preserving
// first-seen order) and, for each cell, takes the first frame in order
// whose value at that coordinate is present and non-null. A single input
// frame is returned as is, not copied.
func CombineFirst[R comparable, C comparable](frames []*Frame[R, C]) (*Frame[R, C], error) {
	if len(frames) == 0 {
		return Empty[R, C](), nil
	}
	if len(frames) == 1 {
		return frames[0], nil
	}

	out := Empty[R, C]()
	seenRow := make(map[R]bool)
	var rowKeys []R
	seenCol := make(map[C]bool)
	var colKeys []C
	codes := make(map[C]typecode.Code)

	for _, fr := range frames {
		for _, rk := range fr.rowIndex.Keys() {
			if !seenRow[rk] {
				seenRow[rk] = true
				rowKeys = append(rowKeys, rk)
			}
		}
		for _, ck := range fr.colIndex.Keys() {
			if !seenCol[ck] {
				seenCol[ck] = true
				colKeys = append(colKeys, ck)
				col, _ := fr.columnByKey(ck)
				codes[ck] = col.Code()
			}
		}
	}

	if _, err := out.rowIndex.AddAll(rowKeys, false); err != nil {
		return nil, err
	}
	for _, ck := range colKeys {
		if _, err := out.colIndex.Add(ck); err != nil {
			return nil, err
		}
		out.columns = append(out.columns, array.Of(codes[ck], len(rowKeys)))
	}

	for ci, ck := range colKeys {
		code := codes[ck]
		for destRow, rk := range rowKeys {
			for _, fr := range frames {
				col, err := fr.columnByKey(ck)
				if err != nil {
					continue
				}
				rc, err := fr.rowIndex.GetIndexForKey(rk)
				if err != nil {
					continue
				}
				v, err := col.GetValue(rc)
				if err != nil || array.IsNullValue(code, v) {
					continue
				}
				if _, err := out.columns[ci].SetValue(destRow, v); err == nil {
					break
				}
			}
		}
	}
	return out, nil
}

// Transpose swaps the row and column axes: a new Frame keyed [C,R] whose
// cell (c,r) holds f's cell (r,c). Supplemented from the original
// (morpheus-core's DataFrame.transpose); dropped from spec.md's
// distillation, added back since Axis already models either direction.
func Transpose[R comparable, C comparable](f *Frame[R, C]) (*Frame[C, R], error) {
	rowKeys := f.rowIndex.Keys()
	colKeys := f.colIndex.Keys()
	out := Empty[C, R]()
	if _, err := out.rowIndex.AddAll(colKeys, false); err != nil {
		return nil, err
	}
	if _, err := out.colIndex.AddAll(rowKeys, false); err != nil {
		return nil, err
	}
	for _, rk := range rowKeys {
		code := typecode.Object
		newCol := array.Of(code, len(colKeys))
		for destRow, ck := range colKeys {
			v, err := f.GetValue(rk, ck)
			if err != nil {
				return nil, err
			}
			if _, err := newCol.SetValue(destRow, v); err != nil {
				return nil, err
			}
		}
		out.columns = append(out.columns, newCol)
	}
	return out, nil
}

// --- Transform ---

// ApplyValues mutates every cell via fn(rowKey, colKey, value) -> newValue.
func (f *Frame[R, C]) ApplyValues(fn func(rk R, ck C, v any) any) error {
	for _, ck := range f.colIndex.Keys() {
		col, err := f.columnByKey(ck)
		if err != nil {
			return err
		}
		for _, rk := range f.rowIndex.Keys() {
			rc, _ := f.rowIndex.GetIndexForKey(rk)
			v, err := col.GetValue(rc)
			if err != nil {
				return err
			}
			if _, err := col.SetValue(rc, fn(rk, ck, v)); err != nil {
				return err
			}
		}
	}
	f.bus.Fire(events.Event{Kind: events.Update})
	return nil
}

// ApplyFloats mutates every numeric cell via fn(rowKey, colKey, value) ->
// newValue, skipping non-numeric columns.
func (f *Frame[R, C]) ApplyFloats(fn func(rk R, ck C, v float64) float64) error {
	for _, ck := range f.colIndex.Keys() {
		col, err := f.columnByKey(ck)
		if err != nil {
			return err
		}
		if !col.Code().Numeric() {
			continue
		}
		for _, rk := range f.rowIndex.Keys() {
			rc, _ := f.rowIndex.GetIndexForKey(rk)
			v, err := col.GetFloat64(rc)
			if err != nil {
				continue
			}
			if _, err := col.SetFloat64(rc, fn(rk, ck, v)); err != nil {
				return err
			}
		}
	}
	f.bus.Fire(events.Event{Kind: events.Update})
	return nil
}

// MapRowKeys renames row keys via fn(oldKey, ord, canonical) -> newKey,
// returning a new Frame sharing this one's columns (spec §4.5).
func (f *Frame[R, C]) MapRowKeys(fn func(old R, ord, canonical int) R) (*Frame[R, C], error) {
	mapped, err := tableindex.Map(f.rowIndex, fn)
	if err != nil {
		return nil, err
	}
	return f.view(mapped, f.colIndex), nil
}

func (f *Frame[R, C]) MapColKeys(fn func(old C, ord, canonical int) C) (*Frame[R, C], error) {
	mapped, err := tableindex.Map(f.colIndex, fn)
	if err != nil {
		return nil, err
	}
	return f.view(f.rowIndex, mapped), nil
}

func (f *Frame[R, C]) ReplaceRowKey(existing, replacement R) error {
	return f.rowIndex.Replace(existing, replacement)
}

func (f *Frame[R, C]) ReplaceColKey(existing, replacement C) error {
	return f.colIndex.Replace(existing, replacement)
}

// Rank ranks each column's values (1-based) using cfg's TieStrategy and
// NaNStrategy (spec §6 config table; SPEC_FULL §4.5 makes the algorithm
// concrete since the source only implies it). Returns one rank column per
// numeric input column, keyed the same as the source columns.
func (f *Frame[R, C]) Rank() (map[C][]float64, error) {
	out := make(map[C][]float64, f.colIndex.Size())
	rowOrder := f.rowIndex.Ordinals()
	for _, ck := range f.colIndex.Keys() {
		col, err := f.columnByKey(ck)
		if err != nil {
			return nil, err
		}
		if !col.Code().Numeric() {
			continue
		}
		values := make([]float64, len(rowOrder))
		for i, rc := range rowOrder {
			v, err := col.GetValue(rc)
			if err != nil {
				return nil, err
			}
			switch n := v.(type) {
			case float64:
				values[i] = n
			case int32:
				values[i] = float64(n)
			case int64:
				values[i] = float64(n)
			}
		}
		out[ck] = rankValues(values, f.cfg)
	}
	return out, nil
}

func rankValues(values []float64, cfg config.Config) []float64 {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	less := func(i, j int) bool {
		vi, vj := values[order[i]], values[order[j]]
		iNaN, jNaN := isNaN(vi), isNaN(vj)
		if iNaN || jNaN {
			if iNaN && jNaN {
				return false
			}
			if cfg.NaNStrategy == config.NaNMinimum {
				return iNaN
			}
			return jNaN
		}
		return vi < vj
	}
	insertionSort(order, less)

	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && !less(i, j+1) && !less(j+1, i) {
			j++
		}
		var rank float64
		switch cfg.TieStrategy {
		case config.TieMinimum:
			rank = float64(i + 1)
		case config.TieMaximum:
			rank = float64(j + 1)
		default: // TieAverage
			rank = float64(i+j+2) / 2
		}
		for k := i; k <= j; k++ {
			ranks[order[k]] = rank
		}
		i = j + 1
	}
	return ranks
}

func isNaN(f float64) bool { return f != f }

func insertionSort(order []int, less func(i, j int) bool) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

// Demean subtracts each numeric column's own mean from its values in place
// (spec §4.4/§4.5).
func (f *Frame[R, C]) Demean() error {
	return f.Cols().Demean(true)
}

// CumReturns computes the cumulative product of (1+x) for every numeric
// column in row-ordinal order, a common time-series transform morpheus-core
// exposes alongside Frame (supplemented: spec.md's distillation only lists
// the name "cumReturns" without defining it).
func (f *Frame[R, C]) CumReturns() error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		running := 1.0
		for i, v := range values {
			running *= 1 + v
			out[i] = running
		}
		return out
	})
}

// LogReturns computes ln(x[i]/x[i-1]) per numeric column.
func (f *Frame[R, C]) LogReturns() error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		out[0] = 0
		for i := 1; i < len(values); i++ {
			out[i] = logRatio(values[i], values[i-1])
		}
		return out
	})
}

// PercentChanges computes (x[i]-x[i-1])/x[i-1] per numeric column.
func (f *Frame[R, C]) PercentChanges() error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		out[0] = 0
		for i := 1; i < len(values); i++ {
			out[i] = (values[i] - values[i-1]) / values[i-1]
		}
		return out
	})
}

// SMA computes the simple moving average with window w per numeric column.
func (f *Frame[R, C]) SMA(w int) error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		var sum float64
		for i, v := range values {
			sum += v
			if i >= w {
				sum -= values[i-w]
			}
			n := w
			if i+1 < w {
				n = i + 1
			}
			out[i] = sum / float64(n)
		}
		return out
	})
}

// EMA computes the exponential moving average with smoothing alpha per
// numeric column.
func (f *Frame[R, C]) EMA(alpha float64) error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		if len(values) == 0 {
			return out
		}
		out[0] = values[0]
		for i := 1; i < len(values); i++ {
			out[i] = alpha*values[i] + (1-alpha)*out[i-1]
		}
		return out
	})
}

// StdDev replaces each numeric column's values with its running (expanding
// window) standard deviation, folding the values one row at a time through
// the parallel façade's Moments accumulator (population variance, the same
// convention as array Stats). The computation is always sequential.
func (f *Frame[R, C]) StdDev() error {
	return f.scanColumns(func(values []float64) []float64 {
		out := make([]float64, len(values))
		var m parallel.Moments
		for i, v := range values {
			m = m.AddFloat64(v)
			out[i] = sqrt(m.Variance())
		}
		return out
	})
}

func sqrt(v float64) float64 {
	if v < 0 {
		return 0
	}
	return math.Sqrt(v)
}

func logRatio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return math.Log(a / b)
}

// scanColumns applies transform to the row-ordinal-ordered values of every
// numeric column, writing the result back in place.
func (f *Frame[R, C]) scanColumns(transform func([]float64) []float64) error {
	rowOrder := f.rowIndex.Ordinals()
	for _, ck := range f.colIndex.Keys() {
		col, err := f.columnByKey(ck)
		if err != nil {
			return err
		}
		if !col.Code().Numeric() {
			continue
		}
		values := make([]float64, len(rowOrder))
		for i, rc := range rowOrder {
			v, err := col.GetFloat64(rc)
			if err != nil {
				return err
			}
			values[i] = v
		}
		out := transform(values)
		for i, rc := range rowOrder {
			if _, err := col.SetFloat64(rc, out[i]); err != nil {
				return err
			}
		}
	}
	f.bus.Fire(events.Event{Kind: events.Update})
	return nil
}

// Describe computes the named statistics for every column, formatting
// counts with humanize.Comma (SPEC_FULL §4.5).
func (f *Frame[R, C]) Describe(stats ...string) (string, error) {
	rows, err := f.Cols().Describe(stats...)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Frame [%s rows x %s cols]\n", humanize.Comma(int64(f.RowCount())), humanize.Comma(int64(f.ColCount())))
	for _, row := range rows {
		fmt.Fprintf(&b, "  %v:", row.Key)
		for _, name := range stats {
			if v, ok := row.Stats[name]; ok {
				fmt.Fprintf(&b, " %s=%.6g", name, v)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

func (f *Frame[R, C]) String() string {
	return fmt.Sprintf("Frame[%d x %d]", f.RowCount(), f.ColCount())
}

// GoString pretty-prints the Frame's structure for debugging via
// github.com/kr/pretty, matching test-helper usage elsewhere in the pack.
func (f *Frame[R, C]) GoString() string {
	return fmt.Sprintf("%# v", pretty.Formatter(struct {
		Rows, Cols int
	}{f.RowCount(), f.ColCount()}))
}

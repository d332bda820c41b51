// Package cursor implements Cursor and Vector (spec §4.6, C6): a movable
// O(1) accessor over one Frame cell, and a single-axis specialization
// adding distinct/rank/toDataFrame/binarySearch.
//
// Grounded on spec.md §4.6 directly — the teacher's internal/dataframe has
// no cell-cursor concept (Series/NDArray are read by plain index, not a
// cached ordinal/canonical pair), so this is new code built in the
// teacher's idiom. A Cursor is never shared: each caller constructs its
// own via New and moves it in place (REDESIGN FLAGS: "no live aliasing
// pointer" refers to the Frame cell, not the Cursor value itself — two
// Cursors over the same Frame never observe each other's movement,
// since each owns its own ordinal/canonical position).
package cursor

import (
	"tabula/internal/array"
	"tabula/internal/engineerrors"
	"tabula/internal/frame"
	"tabula/internal/tableindex"
	"tabula/internal/typecode"
)

// Cursor is a single-threaded, movable accessor over one cell of a Frame,
// caching both the ordinal position and canonical index per dimension so
// repeated reads/writes at the same coordinate avoid re-resolving the key
// (spec §4.6: "caches both ordinal and canonical index per dimension").
type Cursor[R comparable, C comparable] struct {
	f                  *frame.Frame[R, C]
	rowOrd, colOrd     int
	rowCanon, colCanon int
}

// New returns a Cursor positioned at (0,0) if f has at least one row and
// column; an empty Frame yields a Cursor that every movement method will
// reposition once rows/columns exist.
func New[R comparable, C comparable](f *frame.Frame[R, C]) *Cursor[R, C] {
	c := &Cursor[R, C]{f: f}
	if f.RowCount() > 0 {
		c.rowCanon, _ = f.RowIndex().GetCanonicalAt(0)
	}
	if f.ColCount() > 0 {
		c.colCanon, _ = f.ColIndex().GetCanonicalAt(0)
	}
	return c
}

// AtRowKey moves the cursor to rowKey, leaving the column position intact.
func (c *Cursor[R, C]) AtRowKey(rowKey R) error {
	ord, err := c.f.RowIndex().GetOrdinalForKey(rowKey)
	if err != nil {
		return err
	}
	return c.AtRowOrdinal(ord)
}

// AtRowOrdinal moves the cursor to the row at ordinal position ord.
func (c *Cursor[R, C]) AtRowOrdinal(ord int) error {
	canon, err := c.f.RowIndex().GetCanonicalAt(ord)
	if err != nil {
		return err
	}
	c.rowOrd, c.rowCanon = ord, canon
	return nil
}

// AtColKey moves the cursor to colKey, leaving the row position intact.
func (c *Cursor[R, C]) AtColKey(colKey C) error {
	ord, err := c.f.ColIndex().GetOrdinalForKey(colKey)
	if err != nil {
		return err
	}
	return c.AtColOrdinal(ord)
}

// AtColOrdinal moves the cursor to the column at ordinal position ord.
func (c *Cursor[R, C]) AtColOrdinal(ord int) error {
	canon, err := c.f.ColIndex().GetCanonicalAt(ord)
	if err != nil {
		return err
	}
	c.colOrd, c.colCanon = ord, canon
	return nil
}

// AtKeys moves the cursor to (rowKey, colKey) in one call.
func (c *Cursor[R, C]) AtKeys(rowKey R, colKey C) error {
	if err := c.AtRowKey(rowKey); err != nil {
		return err
	}
	return c.AtColKey(colKey)
}

// AtOrdinals moves the cursor to (rowOrd, colOrd) in one call.
func (c *Cursor[R, C]) AtOrdinals(rowOrd, colOrd int) error {
	if err := c.AtRowOrdinal(rowOrd); err != nil {
		return err
	}
	return c.AtColOrdinal(colOrd)
}

// RowOrd / ColOrd / RowCanon / ColCanon expose the cursor's cached position.
func (c *Cursor[R, C]) RowOrd() int    { return c.rowOrd }
func (c *Cursor[R, C]) ColOrd() int    { return c.colOrd }
func (c *Cursor[R, C]) RowCanon() int  { return c.rowCanon }
func (c *Cursor[R, C]) ColCanon() int  { return c.colCanon }

// RowKey / ColKey resolve the cursor's current position back to a key.
func (c *Cursor[R, C]) RowKey() (R, error) { return c.f.RowIndex().GetKey(c.rowOrd) }
func (c *Cursor[R, C]) ColKey() (C, error) { return c.f.ColIndex().GetKey(c.colOrd) }

func (c *Cursor[R, C]) column() (array.Array, error) {
	return c.f.ColumnArray(c.colCanon)
}

// Get / Set read and write the cursor's current cell, boxed through `any`.
func (c *Cursor[R, C]) Get() (any, error) {
	col, err := c.column()
	if err != nil {
		return nil, err
	}
	return col.GetValue(c.rowCanon)
}

func (c *Cursor[R, C]) Set(v any) (any, error) {
	col, err := c.column()
	if err != nil {
		return nil, err
	}
	return col.SetValue(c.rowCanon, v)
}

// GetBool/GetInt32/GetInt64/GetFloat64 are the boxing-free accessors for
// the cursor's current cell, valid only when the column's TypeCode matches
// (spec §4.1: typed accessors fail with TypeMismatch otherwise).
func (c *Cursor[R, C]) GetBool() (bool, error) {
	col, err := c.column()
	if err != nil {
		return false, err
	}
	return col.GetBool(c.rowCanon)
}

func (c *Cursor[R, C]) GetInt32() (int32, error) {
	col, err := c.column()
	if err != nil {
		return 0, err
	}
	return col.GetInt32(c.rowCanon)
}

func (c *Cursor[R, C]) GetInt64() (int64, error) {
	col, err := c.column()
	if err != nil {
		return 0, err
	}
	return col.GetInt64(c.rowCanon)
}

func (c *Cursor[R, C]) GetFloat64() (float64, error) {
	col, err := c.column()
	if err != nil {
		return 0, err
	}
	return col.GetFloat64(c.rowCanon)
}

// Vector is a Cursor constrained to one axis (spec §4.6: "row/column
// Vector is a cursor constrained to one axis with length size(), typed
// stats, stream accessors and bulk operations"). K is the key type of the
// varying dimension: a row vector (fixed row, varying columns) is a
// Vector[C]; a column vector (fixed column, varying rows) is a Vector[R].
type Vector[K comparable] struct {
	idx      *tableindex.Index[K]
	valueAt  func(ord int) (any, error)
	floatAt  func(ord int) (float64, error)
	code     typecode.Code
}

// RowVector returns the vector of values across row rowKey, one per live
// column, in column-ordinal order.
func RowVector[R comparable, C comparable](f *frame.Frame[R, C], rowKey R) (*Vector[C], error) {
	rowOrd, err := f.RowIndex().GetOrdinalForKey(rowKey)
	if err != nil {
		return nil, err
	}
	return &Vector[C]{
		idx: f.ColIndex(),
		valueAt: func(colOrd int) (any, error) {
			return f.GetValueAt(rowOrd, colOrd)
		},
		floatAt: func(colOrd int) (float64, error) {
			return f.GetFloat64At(rowOrd, colOrd)
		},
		code: typecode.Object,
	}, nil
}

// ColVector returns the vector of values down column colKey, one per live
// row, in row-ordinal order.
func ColVector[R comparable, C comparable](f *frame.Frame[R, C], colKey C) (*Vector[R], error) {
	colOrd, err := f.ColIndex().GetOrdinalForKey(colKey)
	if err != nil {
		return nil, err
	}
	colCanon, err := f.ColIndex().GetCanonicalAt(colOrd)
	if err != nil {
		return nil, err
	}
	col, err := f.ColumnArray(colCanon)
	if err != nil {
		return nil, err
	}
	return &Vector[R]{
		idx: f.RowIndex(),
		valueAt: func(rowOrd int) (any, error) {
			rowCanon, err := f.RowIndex().GetCanonicalAt(rowOrd)
			if err != nil {
				return nil, err
			}
			return col.GetValue(rowCanon)
		},
		floatAt: func(rowOrd int) (float64, error) {
			rowCanon, err := f.RowIndex().GetCanonicalAt(rowOrd)
			if err != nil {
				return 0, err
			}
			return col.GetFloat64(rowCanon)
		},
		code: col.Code(),
	}, nil
}

// Size returns the vector's length (spec §4.6: "length size()").
func (v *Vector[K]) Size() int { return v.idx.Size() }

// Keys returns the vector's keys in ordinal order.
func (v *Vector[K]) Keys() []K { return v.idx.Keys() }

// Get returns the boxed value at ordinal position ord.
func (v *Vector[K]) Get(ord int) (any, error) { return v.valueAt(ord) }

// GetFloat64 returns the numeric value at ordinal position ord.
func (v *Vector[K]) GetFloat64(ord int) (float64, error) { return v.floatAt(ord) }

// materialize copies the vector's numeric values into a fresh dense
// float64 array, the same pattern axis.Axis.describeOne uses to compute
// Stats over a Rows axis's heterogeneous row.
func (v *Vector[K]) materialize() array.Array {
	n := v.idx.Size()
	out := array.NewFloat64Array(n, 0)
	for i := 0; i < n; i++ {
		f, err := v.floatAt(i)
		if err != nil {
			continue
		}
		out.SetFloat64(i, f)
	}
	return out
}

// Stats computes the vector's streaming statistics (spec §4.6/§4.1).
func (v *Vector[K]) Stats() (array.Stats, error) {
	return v.materialize().Stats()
}

// Distinct returns up to limit distinct values in first-seen order (spec
// §4.6: "bulk operations (distinct, ...)"). limit <= 0 means unbounded.
func (v *Vector[K]) Distinct(limit int) []any {
	seen := make(map[any]bool)
	var out []any
	for i := 0; i < v.idx.Size(); i++ {
		val, err := v.valueAt(i)
		if err != nil {
			continue
		}
		if seen[val] {
			continue
		}
		seen[val] = true
		out = append(out, val)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Rank ranks the vector's values 1-based, ties averaged (spec §4.6: "rank").
// Vector.Rank doesn't take a config.Config since a single-axis rank over
// heterogeneous boxed values has no NaN/tie-strategy ambiguity beyond the
// default average-tie behavior frame.Frame.Rank documents for its richer,
// per-column, config-aware form.
func (v *Vector[K]) Rank() []float64 {
	n := v.idx.Size()
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		f, _ := v.floatAt(i)
		values[i] = f
	}
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := 1; i < n; i++ {
		for j := i; j > 0 && values[order[j]] < values[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	ranks := make([]float64, n)
	i := 0
	for i < n {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		avg := float64(i+j+2) / 2
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// BinarySearch locates v within an already-ascending-sorted vector,
// returning its ordinal position, or -(insertionPoint)-1 if absent (spec
// §4.1's convention, reused here per spec §4.6: "bulk operations (...,
// binarySearch)").
func (v *Vector[K]) BinarySearch(target float64) int {
	lo, hi := 0, v.idx.Size()
	for lo < hi {
		mid := (lo + hi) / 2
		f, err := v.floatAt(mid)
		if err == nil && f < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < v.idx.Size() {
		if f, err := v.floatAt(lo); err == nil && f == target {
			return lo
		}
	}
	return -(lo + 1)
}

// ToDataFrame materializes this vector as a single-column Frame keyed by
// its own index, under colKey (spec §4.6: "toDataFrame").
func ToDataFrame[K comparable, C2 comparable](v *Vector[K], colKey C2) (*frame.Frame[K, C2], error) {
	out, err := frame.From[K, C2](v.idx.Keys(), []C2{colKey}, v.code)
	if err != nil {
		return nil, err
	}
	for ord, rowKey := range v.idx.Keys() {
		val, err := v.valueAt(ord)
		if err != nil {
			continue
		}
		if _, err := out.SetValue(rowKey, colKey, val); err != nil {
			return nil, engineerrors.WrapIO("cursor.ToDataFrame", err)
		}
	}
	return out, nil
}

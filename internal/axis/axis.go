// Package axis implements Axis (spec §4.4, C4): a typed view over one
// dimension (rows or columns) of a Frame's Index, plus the higher-level
// operations spec.md §4.4 names (filter, select, sort, groupBy, describe,
// hist, mapKeys, demean, ...).
//
// Grounded on spec.md §4.4 directly, generalized from the teacher's Series
// summary operations (internal/dataframe Series.Sum/Mean/Std/GroupBy) to
// work over canonical indices into an arbitrary column set rather than one
// fixed []interface{} slice.
//
// Axis holds a non-owning back-reference to its Frame (spec §3: "An Axis
// ... holds a non-owning reference to its Frame"). To avoid an import
// cycle (Frame owns both Axis instances, so Axis cannot import package
// frame), that back-reference is the Accessor interface below: a
// canonical-index-based view Frame implements and Axis consumes, entirely
// independent of the Frame's row/column key type parameters.
package axis

import (
	"fmt"
	"math"

	"tabula/internal/array"
	"tabula/internal/config"
	"tabula/internal/engineerrors"
	"tabula/internal/events"
	"tabula/internal/parallel"
	"tabula/internal/tableindex"
	"tabula/internal/typecode"
)

// Direction names which dimension an Axis wraps.
type Direction int

const (
	Rows Direction = iota
	Cols
)

func (d Direction) String() string {
	if d == Rows {
		return "ROWS"
	}
	return "COLS"
}

// Accessor is the minimal non-owning view into a Frame's data and the
// other axis that Axis needs for cross-axis operations (describe, hist,
// groupBy, demean, sort-by-data). Implemented by *frame.Frame[R,C].
type Accessor interface {
	RowCanonicalOrder() []int
	ColCanonicalOrder() []int
	ColumnArray(colCanonical int) (array.Array, error)
	ColCanonicalForKey(key any) (int, bool)
	RowCanonicalForKey(key any) (int, bool)
	Config() config.Config
	Events() *events.Bus
}

// Axis wraps an Index for one dimension (spec §4.4: "{Index, direction,
// parallel, frameRef}").
type Axis[K comparable] struct {
	idx       *tableindex.Index[K]
	direction Direction
	parallel  bool
	acc       Accessor
}

// New wraps idx as an Axis in direction dir, backed by acc for operations
// that need to read cell data.
func New[K comparable](idx *tableindex.Index[K], dir Direction, acc Accessor) *Axis[K] {
	return &Axis[K]{idx: idx, direction: dir, acc: acc}
}

func (a *Axis[K]) Index() *tableindex.Index[K] { return a.idx }
func (a *Axis[K]) Direction() Direction        { return a.direction }
func (a *Axis[K]) Count() int                  { return a.idx.Size() }
func (a *Axis[K]) Keys() []K                   { return a.idx.Keys() }
func (a *Axis[K]) Ordinals() []int             { return a.idx.Ordinals() }
func (a *Axis[K]) Contains(k K) bool           { return a.idx.Contains(k) }
func (a *Axis[K]) Parallel() bool              { return a.parallel }
func (a *Axis[K]) SetParallel(p bool)          { a.parallel = p }

func (a *Axis[K]) First() (K, bool)  { return a.idx.FirstKey() }
func (a *Axis[K]) Last() (K, bool)   { return a.idx.LastKey() }
func (a *Axis[K]) FirstKey() (K, bool) { return a.idx.FirstKey() }
func (a *Axis[K]) LastKey() (K, bool)  { return a.idx.LastKey() }

func (a *Axis[K]) LowerKey(k K) (K, bool, error)  { return a.idx.PreviousKey(k) }
func (a *Axis[K]) HigherKey(k K) (K, bool, error) { return a.idx.NextKey(k) }

// Select returns a shallow filter-Axis restricted to keys (spec §4.4).
func (a *Axis[K]) Select(keys []K) (*Axis[K], error) {
	sub, err := a.idx.Filter(keys)
	if err != nil {
		return nil, err
	}
	return &Axis[K]{idx: sub, direction: a.direction, acc: a.acc, parallel: a.parallel}, nil
}

// Filter returns a concrete filter-Axis keeping keys for which predicate
// holds (spec §4.4).
func (a *Axis[K]) Filter(predicate func(k K, ord, canonical int) bool) *Axis[K] {
	sub := a.idx.FilterPredicate(predicate)
	return &Axis[K]{idx: sub, direction: a.direction, acc: a.acc, parallel: a.parallel}
}

// Sort reorders this axis's ordinal ordering by key, ascending or
// descending, using cmp (spec §4.4: "sort(asc|by key|by comparator)").
func (a *Axis[K]) Sort(ascending bool, cmp func(x, y K) int) {
	a.idx.Sort(ascending, cmp, a.parallel)
}

// SortByData reorders this axis by the values found in the named
// cross-axis key's data: for a Rows axis, dataKey is a column key and the
// comparison is row-by-row on that column's values; for a Cols axis,
// dataKey is a row key and columns are ordered by their value at that row
// (spec §4.4's "sort by data values requires the referenced column(s) to
// be numeric or comparable").
func (a *Axis[K]) SortByData(dataKey any, ascending bool) error {
	if a.direction == Rows {
		colCanon, ok := a.acc.ColCanonicalForKey(dataKey)
		if !ok {
			return engineerrors.NewKeyNotFound("Axis.SortByData", dataKey)
		}
		column, err := a.acc.ColumnArray(colCanon)
		if err != nil {
			return err
		}
		a.idx.SortByOrdinalComparator(func(ordA, ordB int) int {
			canonA, _ := a.idx.GetCanonicalAt(ordA)
			canonB, _ := a.idx.GetCanonicalAt(ordB)
			va, _ := column.GetValue(canonA)
			vb, _ := column.GetValue(canonB)
			c := array.CompareValues(va, vb)
			if !ascending {
				c = -c
			}
			return c
		})
		return nil
	}

	rowCanon, ok := a.acc.RowCanonicalForKey(dataKey)
	if !ok {
		return engineerrors.NewKeyNotFound("Axis.SortByData", dataKey)
	}
	a.idx.SortByOrdinalComparator(func(ordA, ordB int) int {
		canonA, _ := a.idx.GetCanonicalAt(ordA)
		canonB, _ := a.idx.GetCanonicalAt(ordB)
		colA, _ := a.acc.ColumnArray(canonA)
		colB, _ := a.acc.ColumnArray(canonB)
		va, _ := colA.GetValue(rowCanon)
		vb, _ := colB.GetValue(rowCanon)
		c := array.CompareValues(va, vb)
		if !ascending {
			c = -c
		}
		return c
	})
	return nil
}

// MapKeys returns a new Axis whose keys are fn(oldKey, ord, canonical),
// preserving every canonical-index assignment (spec §4.3/§4.4).
func MapKeys[K comparable, K2 comparable](a *Axis[K], fn func(old K, ord, canonical int) K2) (*Axis[K2], error) {
	mapped, err := tableindex.Map(a.idx, fn)
	if err != nil {
		return nil, err
	}
	return &Axis[K2]{idx: mapped, direction: a.direction, acc: a.acc, parallel: a.parallel}, nil
}

// ReplaceKey atomically rebinds existing to replacement (spec §4.4).
func (a *Axis[K]) ReplaceKey(existing, replacement K) error {
	return a.idx.Replace(existing, replacement)
}

// DescribeRow is one row of an Axis.Describe() result: the data key
// (column key for a Cols axis describe, row key for a Rows axis describe)
// plus the requested statistics.
type DescribeRow struct {
	Key   any
	Stats map[string]float64
}

// statValue extracts a named statistic from an array.Stats snapshot.
func statValue(s array.Stats, name string) (float64, bool) {
	switch name {
	case "count":
		return float64(s.Count), true
	case "min":
		return s.Min, true
	case "max":
		return s.Max, true
	case "sum":
		return s.Sum, true
	case "mean":
		return s.Mean, true
	case "variance":
		return s.Variance, true
	case "stddev":
		return s.StdDev, true
	case "sem":
		return s.SEM, true
	case "mad":
		return s.MAD, true
	case "kurtosis":
		return s.Kurtosis, true
	case "skew":
		return s.Skew, true
	case "geomean":
		return s.GeoMean, true
	case "median":
		return s.Median, true
	case "product":
		return s.Product, true
	default:
		return 0, false
	}
}

// Describe computes the named statistics (spec §4.1's stat names) across
// every key on this axis, iterating over the other dimension's current
// ordinal order. For a Cols axis this is the familiar "one row of stats
// per column"; for a Rows axis it computes stats across a row's numeric
// column values.
func (a *Axis[K]) Describe(stats ...string) ([]DescribeRow, error) {
	keys := a.idx.Keys()
	out := make([]DescribeRow, 0, len(keys))
	for ord, key := range keys {
		canon, _ := a.idx.GetCanonicalAt(ord)
		s, err := a.describeOne(canon)
		if err != nil {
			return nil, err
		}
		row := DescribeRow{Key: key, Stats: make(map[string]float64, len(stats))}
		for _, name := range stats {
			if v, ok := statValue(s, name); ok {
				row.Stats[name] = v
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (a *Axis[K]) describeOne(canonical int) (array.Stats, error) {
	if a.direction == Cols {
		column, err := a.acc.ColumnArray(canonical)
		if err != nil {
			return array.Stats{}, err
		}
		s, err := column.Stats()
		if err != nil {
			return array.Stats{}, err
		}
		if a.parallel {
			if m, ok, err := a.parallelMoments(column); err != nil {
				return array.Stats{}, err
			} else if ok && m.Count > 0 {
				// Overlay the moments-derived fields with the parallel
				// façade's result: same quantities as column.Stats() above,
				// recomputed via parallel.ComputeMoments's sharded combine
				// so the two evaluations are provably equal (spec §8
				// invariant 7) rather than just both implemented.
				s.Count = int(m.Count)
				s.Sum = m.Sum
				s.Mean = m.Mean
				s.Min = m.Min
				s.Max = m.Max
				s.Variance = m.Variance()
				s.StdDev = math.Sqrt(s.Variance)
			}
		}
		return s, nil
	}

	// Rows axis: gather this row's values across every live column and
	// build a Stats snapshot the same way array.Stats would, over the
	// row's numeric cells only.
	colOrder := a.acc.ColCanonicalOrder()
	values := make([]float64, 0, len(colOrder))
	for _, colCanon := range colOrder {
		column, err := a.acc.ColumnArray(colCanon)
		if err != nil {
			return array.Stats{}, err
		}
		if !column.Code().Numeric() {
			continue
		}
		f, err := column.GetFloat64(canonical)
		if err == nil {
			values = append(values, f)
		}
	}
	return statsOfFloats(values), nil
}

// Hist builds a fixed-width histogram with binCount bins over the values
// named by keys (spec §4.4: "hist(binCount, keys…)").
func (a *Axis[K]) Hist(binCount int, keys []K) (map[K][]int, error) {
	if binCount <= 0 {
		binCount = 1
	}
	out := make(map[K][]int, len(keys))
	for _, k := range keys {
		canon, err := a.idx.GetIndexForKey(k)
		if err != nil {
			return nil, err
		}
		s, err := a.describeOne(canon)
		if err != nil {
			return nil, err
		}
		bins := make([]int, binCount)
		if s.Max > s.Min {
			width := (s.Max - s.Min) / float64(binCount)
			values, err := a.valuesFor(canon)
			if err != nil {
				return nil, err
			}
			for _, v := range values {
				idx := int((v - s.Min) / width)
				if idx >= binCount {
					idx = binCount - 1
				}
				if idx < 0 {
					idx = 0
				}
				bins[idx]++
			}
		}
		out[k] = bins
	}
	return out, nil
}

// parallelMoments recomputes a column's count/sum/mean/min/max/variance via
// the parallel façade (internal/parallel.ComputeMoments), splitting the
// row-ordinal range per config.ColSplitThresholdFor so Describe's result is
// independent of partitioning (spec §4.7/§8 invariant 7). ok is false for a
// non-numeric column, which callers fall back to column.Stats() for.
func (a *Axis[K]) parallelMoments(column array.Array) (parallel.Moments, bool, error) {
	if !column.Code().Numeric() {
		return parallel.Moments{}, false, nil
	}
	rowOrder := a.acc.RowCanonicalOrder()
	threshold := a.acc.Config().ColSplitThresholdFor(len(rowOrder))
	m, err := parallel.ComputeMoments(len(rowOrder), threshold, func(i int) (float64, bool) {
		v, err := column.GetFloat64(rowOrder[i])
		if err != nil || math.IsNaN(v) {
			return 0, false
		}
		return v, true
	})
	if err != nil {
		return parallel.Moments{}, false, err
	}
	return m, true, nil
}

func (a *Axis[K]) valuesFor(canonical int) ([]float64, error) {
	if a.direction == Cols {
		column, err := a.acc.ColumnArray(canonical)
		if err != nil {
			return nil, err
		}
		rowOrder := a.acc.RowCanonicalOrder()
		out := make([]float64, 0, len(rowOrder))
		for _, rc := range rowOrder {
			f, err := column.GetFloat64(rc)
			if err == nil {
				out = append(out, f)
			}
		}
		return out, nil
	}
	colOrder := a.acc.ColCanonicalOrder()
	out := make([]float64, 0, len(colOrder))
	for _, cc := range colOrder {
		column, err := a.acc.ColumnArray(cc)
		if err != nil {
			return nil, err
		}
		if !column.Code().Numeric() {
			continue
		}
		f, err := column.GetFloat64(canonical)
		if err == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

// GroupBy partitions this axis's keys by fn(key) -> group label, preserving
// relative order within each group (spec §4.4: "groupBy(keys…|fn)").
func (a *Axis[K]) GroupBy(fn func(k K) any) map[any][]K {
	groups := make(map[any][]K)
	for _, k := range a.idx.Keys() {
		g := fn(k)
		groups[g] = append(groups[g], k)
	}
	return groups
}

// GroupByColumns groups a Rows axis's row keys by the tuple of values in
// the named columns, the common case of spec §4.4's groupBy(keys…).
func (a *Axis[K]) GroupByColumns(colKeys []any) (map[any][]K, error) {
	canon := make([]int, len(colKeys))
	cols := make([]array.Array, len(colKeys))
	for i, ck := range colKeys {
		c, ok := a.acc.ColCanonicalForKey(ck)
		if !ok {
			return nil, engineerrors.NewKeyNotFound("Axis.GroupByColumns", ck)
		}
		canon[i] = c
		col, err := a.acc.ColumnArray(c)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return a.GroupBy(func(rowKey K) any {
		rowCanon, err := a.idx.GetIndexForKey(rowKey)
		if err != nil {
			return nil
		}
		tuple := make([]any, len(cols))
		for i, col := range cols {
			v, _ := col.GetValue(rowCanon)
			tuple[i] = v
		}
		return fmtTuple(tuple)
	}), nil
}

func fmtTuple(values []any) string {
	out := ""
	for i, v := range values {
		if i > 0 {
			out += "|"
		}
		out += toKeyString(v)
	}
	return out
}

func toKeyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		return sprint(t)
	}
}

// Demean subtracts each numeric column's mean from its own values in place
// when inPlace is true (spec §4.4: "demean(inPlace)"). With inPlace false
// the column statistics are computed, storage is left unchanged and no
// demeaned values are returned. Only a Cols axis is supported; a Rows axis
// fails with NonNumeric.
func (a *Axis[K]) Demean(inPlace bool) error {
	if a.direction != Cols {
		return engineerrors.NewNonNumeric("Axis.Demean", a.direction)
	}
	for _, canon := range a.idx.Ordinals() {
		column, err := a.acc.ColumnArray(canon)
		if err != nil {
			return err
		}
		if !column.Code().Numeric() {
			continue
		}
		s, err := column.Stats()
		if err != nil {
			return err
		}
		if !inPlace {
			continue
		}
		rowOrder := a.acc.RowCanonicalOrder()
		for _, rc := range rowOrder {
			f, err := column.GetFloat64(rc)
			if err != nil {
				continue
			}
			column.SetFloat64(rc, f-s.Mean)
		}
	}
	return nil
}

// UnionKeys returns the keys of otherKeys that are not yet on this axis, in
// the order given (the key half of spec §4.4's "addAll(frame) (union)").
// The Index is not modified: adding the keys and growing column storage
// happen at the Frame boundary, which owns the column arrays.
func (a *Axis[K]) UnionKeys(otherKeys []K) []K {
	missing := make([]K, 0)
	for _, k := range otherKeys {
		if !a.idx.Contains(k) {
			missing = append(missing, k)
		}
	}
	return missing
}

func statsOfFloats(values []float64) array.Stats {
	tmp := array.NewFloat64Array(len(values), 0)
	for i, v := range values {
		tmp.SetFloat64(i, v)
	}
	s, _ := tmp.Stats()
	return s
}

func sprint(v any) string {
	return fmt.Sprintf("%v", v)
}

// TypeCode is a convenience re-export so Axis callers don't need to import
// package typecode just to pass a TypeCode into Columns.Add.
type TypeCode = typecode.Code

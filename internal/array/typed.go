// Package array implements TypedArray (spec §4.1): a length-N container
// specialized per TypeCode with three interchangeable backends (dense,
// sparse, mapped) and primitive-typed accessors that avoid boxing on the
// hot path.
//
// Grounded on the teacher's internal/dataframe/{array.go,series.go}
// (NDArray/Series: Data/Index/Dtype, Sum/Mean/Std/Sort/Filter/Map/Copy),
// generalized from a single boxed []interface{} into a generic backend per
// TypeCode so primitive reads never box, per the source's "Polymorphic
// TypedArray" redesign note. The per-type concrete wrappers live in
// array.go; this file holds the shared generic engine all of them embed.
package array

import (
	"math/rand"

	"tabula/internal/engineerrors"
	"tabula/internal/typecode"
)

// BackendStyle names which of the three interchangeable storage strategies
// a TypedArray currently uses.
type BackendStyle uint8

const (
	Dense BackendStyle = iota
	Sparse
	Mapped
)

func (s BackendStyle) String() string {
	switch s {
	case Dense:
		return "DENSE"
	case Sparse:
		return "SPARSE"
	case Mapped:
		return "MAPPED"
	default:
		return "UNKNOWN"
	}
}

// Typed is the generic engine behind every TypeCode's concrete array type.
// T is comparable so the sparse backend can test values against the default
// sentinel without boxing through interface{}.
type Typed[T comparable] struct {
	code         typecode.Code
	style        BackendStyle
	data         []T         // authoritative storage for Dense and Mapped
	sparseData   map[int]T   // authoritative storage for Sparse
	sparseCount  int         // count of non-default entries currently stored
	length       int
	capacity     int
	defaultValue T
	loadFactor   float64
	readOnly     bool
	cmp          func(a, b T) int
	mm           *mappedRegion // non-nil only when style == Mapped
	encodeBits   func(T) (uint64, int16)
	decodeBits   func(uint64, int16) T
	toFloat      func(T) float64 // non-nil only for numeric TypeCodes; backs Stats()
}

// newTyped builds a dense array of the given length, all slots holding
// defaultValue.
func newTyped[T comparable](code typecode.Code, length int, defaultValue T, cmp func(a, b T) int) *Typed[T] {
	data := make([]T, length)
	for i := range data {
		data[i] = defaultValue
	}
	return &Typed[T]{
		code: code, style: Dense, data: data,
		length: length, capacity: length,
		defaultValue: defaultValue, loadFactor: 1, cmp: cmp,
	}
}

// newSparseTyped builds a sparse array: logically `length` slots, all
// reading as defaultValue until written.
func newSparseTyped[T comparable](code typecode.Code, length int, defaultValue T, loadFactor float64, cmp func(a, b T) int) *Typed[T] {
	return &Typed[T]{
		code: code, style: Sparse, sparseData: make(map[int]T),
		length: length, capacity: length,
		defaultValue: defaultValue, loadFactor: loadFactor, cmp: cmp,
	}
}

func (a *Typed[T]) Code() typecode.Code   { return a.code }
func (a *Typed[T]) Style() BackendStyle   { return a.style }
func (a *Typed[T]) Length() int           { return a.length }
func (a *Typed[T]) Capacity() int         { return a.capacity }
func (a *Typed[T]) ReadOnlyFlag() bool    { return a.readOnly }
func (a *Typed[T]) DefaultValue() T       { return a.defaultValue }

// Expand grows the array to n slots; new slots hold defaultValue. Fails if
// the array is read-only.
func (a *Typed[T]) Expand(n int) error {
	if a.readOnly {
		return engineerrors.NewReadOnly("TypedArray.Expand")
	}
	if n <= a.length {
		return nil
	}
	switch a.style {
	case Dense, Mapped:
		if n > a.capacity {
			grown := make([]T, n)
			copy(grown, a.data)
			for i := a.length; i < n; i++ {
				grown[i] = a.defaultValue
			}
			a.data = grown
			a.capacity = n
		}
	case Sparse:
		a.capacity = n
	}
	a.length = n
	return nil
}

// Fill sets every slot in [from,to) to v.
func (a *Typed[T]) Fill(v T, from, to int) error {
	if a.readOnly {
		return engineerrors.NewReadOnly("TypedArray.Fill")
	}
	for i := from; i < to; i++ {
		if _, err := a.Set(i, v); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the value at i.
func (a *Typed[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= a.length {
		return zero, engineerrors.NewOutOfBounds("TypedArray.Get", i, a.length)
	}
	switch a.style {
	case Dense, Mapped:
		return a.data[i], nil
	case Sparse:
		if v, ok := a.sparseData[i]; ok {
			return v, nil
		}
		return a.defaultValue, nil
	}
	return zero, nil
}

// Set stores v at i and returns the previous value.
func (a *Typed[T]) Set(i int, v T) (T, error) {
	var zero T
	if a.readOnly {
		return zero, engineerrors.NewReadOnly("TypedArray.Set")
	}
	if i < 0 || i >= a.length {
		return zero, engineerrors.NewOutOfBounds("TypedArray.Set", i, a.length)
	}
	switch a.style {
	case Dense:
		prev := a.data[i]
		a.data[i] = v
		return prev, nil
	case Mapped:
		prev := a.data[i]
		a.data[i] = v
		if a.mm != nil && a.encodeBits != nil {
			bits, zoneIdx := a.encodeBits(v)
			a.mm.writeBits(i, bits)
			if a.code == typecode.DateTimeZoned {
				a.mm.writeZoneIdx(i, zoneIdx)
			}
		}
		return prev, nil
	case Sparse:
		return a.sparseSet(i, v)
	}
	return zero, nil
}

// sparseSet implements the promotion policy from spec §4.1: promotion
// triggers on write when nonDefaultCount+1 > floor(loadFactor*capacity),
// strict greater-than. loadFactor==1 is allowed and simply means the array
// never promotes until completely non-default.
func (a *Typed[T]) sparseSet(i int, v T) (T, error) {
	existing, existed := a.sparseData[i]
	prev := a.defaultValue
	if existed {
		prev = existing
	}

	if v == a.defaultValue {
		if existed {
			delete(a.sparseData, i)
			a.sparseCount--
		}
		return prev, nil
	}

	if !existed {
		threshold := int(a.loadFactor * float64(a.capacity))
		if a.sparseCount+1 > threshold {
			a.promote()
			old := a.data[i]
			a.data[i] = v
			return old, nil
		}
		a.sparseCount++
	}
	a.sparseData[i] = v
	return prev, nil
}

// promote converts a sparse array to dense in place. Deterministic and
// invisible to readers: results before and after are identical (spec §4.1,
// tested by the sparse↔dense equivalence property, spec §8 invariant 6).
func (a *Typed[T]) promote() {
	data := make([]T, a.capacity)
	for i := range data {
		data[i] = a.defaultValue
	}
	for idx, v := range a.sparseData {
		data[idx] = v
	}
	a.data = data
	a.sparseData = nil
	a.sparseCount = 0
	a.style = Dense
}

// Apply mutates every slot via fn(currentValue) -> newValue, in place.
func (a *Typed[T]) Apply(fn func(i int, v T) T) error {
	if a.readOnly {
		return engineerrors.NewReadOnly("TypedArray.Apply")
	}
	for i := 0; i < a.length; i++ {
		cur, _ := a.Get(i)
		if _, err := a.Set(i, fn(i, cur)); err != nil {
			return err
		}
	}
	return nil
}

// MapTo produces a new array applying fn to every element. A Dense or
// Sparse receiver keeps its backend style; a Mapped receiver yields a Dense
// array.
func (a *Typed[T]) MapTo(fn func(i int, v T) T) *Typed[T] {
	out := a.cloneShape()
	for i := 0; i < a.length; i++ {
		cur, _ := a.Get(i)
		out.Set(i, fn(i, cur))
	}
	return out
}

func (a *Typed[T]) cloneShape() *Typed[T] {
	return a.cloneShapeLen(a.length)
}

// CopyRange returns a deep copy of [from,to). A Dense or Sparse source keeps
// its backend style; a Mapped source's copy is Dense.
func (a *Typed[T]) CopyRange(from, to int) *Typed[T] {
	n := to - from
	out := a.cloneShapeLen(n)
	for i := 0; i < n; i++ {
		v, _ := a.Get(from + i)
		out.Set(i, v)
	}
	return out
}

// CopyIndices returns a deep copy containing exactly the given source
// indices, in order.
func (a *Typed[T]) CopyIndices(indices []int) *Typed[T] {
	out := a.cloneShapeLen(len(indices))
	for i, idx := range indices {
		v, _ := a.Get(idx)
		out.Set(i, v)
	}
	return out
}

// CopyAll is equivalent to CopyRange(0, Length()).
func (a *Typed[T]) CopyAll() *Typed[T] { return a.CopyRange(0, a.length) }

// cloneShapeLen materializes a fresh backing store of length n matching a's
// style. A Mapped source has no destination file to clone into (copy takes
// no path argument), so its copy always lands Dense rather than Mapped; a
// Sparse source stays Sparse.
func (a *Typed[T]) cloneShapeLen(n int) *Typed[T] {
	var out *Typed[T]
	switch a.style {
	case Sparse:
		out = newSparseTyped(a.code, n, a.defaultValue, a.loadFactor, a.cmp)
	default:
		out = newTyped(a.code, n, a.defaultValue, a.cmp)
	}
	out.toFloat = a.toFloat
	return out
}

// Swap exchanges the values at i and j.
func (a *Typed[T]) Swap(i, j int) error {
	vi, err := a.Get(i)
	if err != nil {
		return err
	}
	vj, err := a.Get(j)
	if err != nil {
		return err
	}
	if _, err := a.Set(i, vj); err != nil {
		return err
	}
	_, err = a.Set(j, vi)
	return err
}

// Shuffle applies a seeded random in-place permutation (Fisher-Yates).
func (a *Typed[T]) Shuffle(seed int64) {
	r := rand.New(rand.NewSource(seed))
	for i := a.length - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		a.Swap(i, j)
	}
}

// Concat returns a new array of length a+b holding a's elements followed by
// other's. Both arrays must share a TypeCode.
func (a *Typed[T]) Concat(other *Typed[T]) (*Typed[T], error) {
	if a.code != other.code {
		return nil, engineerrors.NewTypeMismatch("TypedArray.Concat", a.code, other.code)
	}
	out := newTyped(a.code, a.length+other.length, a.defaultValue, a.cmp)
	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		out.Set(i, v)
	}
	for i := 0; i < other.length; i++ {
		v, _ := other.Get(i)
		out.Set(a.length+i, v)
	}
	return out, nil
}

// Update copies source[fromIdx[i]] into self[toIdx[i]] for each i.
func (a *Typed[T]) Update(source *Typed[T], fromIdx, toIdx []int) error {
	if len(fromIdx) != len(toIdx) {
		return engineerrors.NewDimensionMismatch("TypedArray.Update", len(fromIdx), len(toIdx))
	}
	for k := range fromIdx {
		v, err := source.Get(fromIdx[k])
		if err != nil {
			return err
		}
		if _, err := a.Set(toIdx[k], v); err != nil {
			return err
		}
	}
	return nil
}

// Distinct returns a new dense array of first-seen distinct values, capped
// at limit elements when limit > 0.
func (a *Typed[T]) Distinct(limit int) *Typed[T] {
	seen := make(map[T]bool)
	values := make([]T, 0, a.length)
	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		if !seen[v] {
			seen[v] = true
			values = append(values, v)
			if limit > 0 && len(values) >= limit {
				break
			}
		}
	}
	out := newTyped(a.code, len(values), a.defaultValue, a.cmp)
	for i, v := range values {
		out.Set(i, v)
	}
	return out
}

// ReadOnly returns a shallow wrapper disallowing mutation. The wrapper
// shares backing storage with a — this is a view, not a copy.
func (a *Typed[T]) ReadOnly() *Typed[T] {
	clone := *a
	clone.readOnly = true
	return &clone
}

// Stream returns the elements of [from,to) as a slice snapshot. The source
// models this as a lazy finite sequence; since Go ranges over slices are
// already lazy-enough iterators for in-process use, Stream here returns a
// materialized snapshot sized to the caller's requested window to avoid
// re-exposing internal sparse/mapped storage.
func (a *Typed[T]) Stream(from, to int) []T {
	out := make([]T, 0, to-from)
	for i := from; i < to; i++ {
		v, _ := a.Get(i)
		out = append(out, v)
	}
	return out
}

package array

import (
	"math"

	civil "github.com/golang-sql/civil"

	"tabula/internal/engineerrors"
	"tabula/internal/typecode"
)

// accessorKind records which of the four boxing-free primitive accessors
// (spec §4.1: getBool/Int/Long/Double) is valid for a given arr[T]
// instantiation. Every other TypeCode's Get/SetBool/Int32/Int64/Float64
// fails with TypeMismatch; GetValue/SetValue always work, boxed through
// `any` the way an interface call already must.
type accessorKind uint8

const (
	accessorNone accessorKind = iota
	accessorBool
	accessorInt32
	accessorInt64
	accessorFloat64
)

// Array is the uniform, non-generic contract every TypeCode specialization
// satisfies (spec §4.1's operation table). Concrete values are always
// *arr[T] for the T matching the TypeCode; the generic engine lives in
// Typed[T] (typed.go), this type is the trait boundary the rest of the
// engine programs against.
type Array interface {
	Code() typecode.Code
	Style() BackendStyle
	Length() int
	Capacity() int
	IsReadOnly() bool

	GetBool(i int) (bool, error)
	SetBool(i int, v bool) (bool, error)
	GetInt32(i int) (int32, error)
	SetInt32(i int, v int32) (int32, error)
	GetInt64(i int) (int64, error)
	SetInt64(i int, v int64) (int64, error)
	GetFloat64(i int) (float64, error)
	SetFloat64(i int, v float64) (float64, error)
	GetValue(i int) (any, error)
	SetValue(i int, v any) (any, error)

	Expand(n int) error
	Fill(v any, from, to int) error
	CopyRange(from, to int) Array
	CopyIndices(idx []int) Array
	CopyAll() Array
	Swap(i, j int) error
	Shuffle(seed int64)
	Distinct(limit int) Array
	Concat(other Array) (Array, error)
	Sort(from, to int, ascending bool)
	BinarySearch(v any, from, to int) int
	ReadOnly() Array
	Stats() (Stats, error)
	Percentile(p float64) (float64, error)
	Autocorr(k int) (float64, error)
	CumSum() (Array, error)

	ApplyBool(fn func(i int, v bool) bool) error
	ApplyInt32(fn func(i int, v int32) int32) error
	ApplyInt64(fn func(i int, v int64) int64) error
	ApplyFloat64(fn func(i int, v float64) float64) error
	ApplyValue(fn func(i int, v any) any) error
	MapToBool(fn func(i int, v bool) bool) (Array, error)
	MapToInt32(fn func(i int, v int32) int32) (Array, error)
	MapToInt64(fn func(i int, v int64) int64) (Array, error)
	MapToFloat64(fn func(i int, v float64) float64) (Array, error)
	Update(source Array, fromIdx, toIdx []int) error
	Stream(from, to int) ([]any, error)
}

// arr is the single concrete implementation of Array for every TypeCode:
// the generic Typed[T] engine plus a tag for which primitive fast accessor
// (if any) this instantiation exposes.
type arr[T comparable] struct {
	*Typed[T]
	kind accessorKind
}

func wrap[T comparable](t *Typed[T], kind accessorKind) *arr[T] {
	return &arr[T]{Typed: t, kind: kind}
}

func (a *arr[T]) IsReadOnly() bool { return a.ReadOnlyFlag() }

func mismatch[T any](op string, want typecode.Code, have typecode.Code) (T, error) {
	var zero T
	return zero, engineerrors.NewTypeMismatch(op, want, have)
}

func (a *arr[T]) GetBool(i int) (bool, error) {
	if a.kind != accessorBool {
		return mismatch[bool]("Array.GetBool", typecode.Bool, a.Code())
	}
	v, err := a.Get(i)
	return any(v).(bool), err
}

func (a *arr[T]) SetBool(i int, v bool) (bool, error) {
	if a.kind != accessorBool {
		return mismatch[bool]("Array.SetBool", typecode.Bool, a.Code())
	}
	prev, err := a.Set(i, any(v).(T))
	if err != nil {
		var zero bool
		return zero, err
	}
	return any(prev).(bool), nil
}

func (a *arr[T]) GetInt32(i int) (int32, error) {
	if a.kind != accessorInt32 {
		return mismatch[int32]("Array.GetInt32", typecode.Int32, a.Code())
	}
	v, err := a.Get(i)
	return any(v).(int32), err
}

func (a *arr[T]) SetInt32(i int, v int32) (int32, error) {
	if a.kind != accessorInt32 {
		return mismatch[int32]("Array.SetInt32", typecode.Int32, a.Code())
	}
	prev, err := a.Set(i, any(v).(T))
	if err != nil {
		var zero int32
		return zero, err
	}
	return any(prev).(int32), nil
}

func (a *arr[T]) GetInt64(i int) (int64, error) {
	if a.kind != accessorInt64 {
		return mismatch[int64]("Array.GetInt64", typecode.Int64, a.Code())
	}
	v, err := a.Get(i)
	return any(v).(int64), err
}

func (a *arr[T]) SetInt64(i int, v int64) (int64, error) {
	if a.kind != accessorInt64 {
		return mismatch[int64]("Array.SetInt64", typecode.Int64, a.Code())
	}
	prev, err := a.Set(i, any(v).(T))
	if err != nil {
		var zero int64
		return zero, err
	}
	return any(prev).(int64), nil
}

func (a *arr[T]) GetFloat64(i int) (float64, error) {
	if a.kind != accessorFloat64 {
		return mismatch[float64]("Array.GetFloat64", typecode.Float64, a.Code())
	}
	v, err := a.Get(i)
	return any(v).(float64), err
}

func (a *arr[T]) SetFloat64(i int, v float64) (float64, error) {
	if a.kind != accessorFloat64 {
		return mismatch[float64]("Array.SetFloat64", typecode.Float64, a.Code())
	}
	prev, err := a.Set(i, any(v).(T))
	if err != nil {
		var zero float64
		return zero, err
	}
	return any(prev).(float64), nil
}

func (a *arr[T]) GetValue(i int) (any, error) {
	v, err := a.Get(i)
	return v, err
}

func (a *arr[T]) SetValue(i int, v any) (any, error) {
	tv, ok := v.(T)
	if !ok {
		return nil, engineerrors.NewTypeMismatch("Array.SetValue", a.Code(), a.Code())
	}
	return a.Set(i, tv)
}

func (a *arr[T]) Fill(v any, from, to int) error {
	tv, ok := v.(T)
	if !ok {
		return engineerrors.NewTypeMismatch("Array.Fill", a.Code(), a.Code())
	}
	return a.Typed.Fill(tv, from, to)
}

func (a *arr[T]) CopyRange(from, to int) Array { return wrap(a.Typed.CopyRange(from, to), a.kind) }
func (a *arr[T]) CopyIndices(idx []int) Array  { return wrap(a.Typed.CopyIndices(idx), a.kind) }
func (a *arr[T]) CopyAll() Array               { return wrap(a.Typed.CopyAll(), a.kind) }
func (a *arr[T]) Distinct(limit int) Array     { return wrap(a.Typed.Distinct(limit), a.kind) }
func (a *arr[T]) ReadOnly() Array              { return wrap(a.Typed.ReadOnly(), a.kind) }

func (a *arr[T]) Concat(other Array) (Array, error) {
	o, ok := other.(*arr[T])
	if !ok {
		return nil, engineerrors.NewTypeMismatch("Array.Concat", a.Code(), other.Code())
	}
	t, err := a.Typed.Concat(o.Typed)
	if err != nil {
		return nil, err
	}
	return wrap(t, a.kind), nil
}

func (a *arr[T]) Sort(from, to int, ascending bool) {
	cmp := a.Typed.cmp
	if !ascending {
		cmp = func(x, y T) int { return -a.Typed.cmp(x, y) }
	}
	a.Typed.Sort(from, to, cmp)
}

func (a *arr[T]) Percentile(p float64) (float64, error) { return a.Typed.Percentile(p) }
func (a *arr[T]) Autocorr(k int) (float64, error)       { return a.Typed.Autocorr(k) }

func (a *arr[T]) CumSum() (Array, error) {
	t, err := a.Typed.CumSum()
	if err != nil {
		return nil, err
	}
	return wrap(t, a.kind), nil
}

func (a *arr[T]) BinarySearch(v any, from, to int) int {
	tv, ok := v.(T)
	if !ok {
		return -(from + 1)
	}
	return a.Typed.BinarySearch(tv, from, to, nil)
}

// ApplyBool/Int32/Int64/Float64 are the boxing-free in-place mutators spec
// §4.1 names ("applyBool/Int/Long/Double(fn)"); each fails with
// TypeMismatch on any TypeCode other than its own accessor kind, the same
// guard Get/Set already apply.
func (a *arr[T]) ApplyBool(fn func(i int, v bool) bool) error {
	if a.kind != accessorBool {
		return engineerrors.NewTypeMismatch("Array.ApplyBool", typecode.Bool, a.Code())
	}
	return a.Typed.Apply(func(i int, v T) T {
		return any(fn(i, any(v).(bool))).(T)
	})
}

func (a *arr[T]) ApplyInt32(fn func(i int, v int32) int32) error {
	if a.kind != accessorInt32 {
		return engineerrors.NewTypeMismatch("Array.ApplyInt32", typecode.Int32, a.Code())
	}
	return a.Typed.Apply(func(i int, v T) T {
		return any(fn(i, any(v).(int32))).(T)
	})
}

func (a *arr[T]) ApplyInt64(fn func(i int, v int64) int64) error {
	if a.kind != accessorInt64 {
		return engineerrors.NewTypeMismatch("Array.ApplyInt64", typecode.Int64, a.Code())
	}
	return a.Typed.Apply(func(i int, v T) T {
		return any(fn(i, any(v).(int64))).(T)
	})
}

func (a *arr[T]) ApplyFloat64(fn func(i int, v float64) float64) error {
	if a.kind != accessorFloat64 {
		return engineerrors.NewTypeMismatch("Array.ApplyFloat64", typecode.Float64, a.Code())
	}
	return a.Typed.Apply(func(i int, v T) T {
		return any(fn(i, any(v).(float64))).(T)
	})
}

// ApplyValue is spec §4.1's "applyValue(fn)": the boxed fallback that works
// regardless of TypeCode, the same role GetValue/SetValue play next to the
// boxing-free accessors above. A result fn returns that doesn't convert
// back to this array's element type fails the whole call with TypeMismatch
// (checked per element since fn's return type can't be validated upfront).
func (a *arr[T]) ApplyValue(fn func(i int, v any) any) error {
	var convErr error
	err := a.Typed.Apply(func(i int, v T) T {
		if convErr != nil {
			return v
		}
		result := fn(i, any(v))
		tv, ok := result.(T)
		if !ok {
			convErr = engineerrors.NewTypeMismatch("Array.ApplyValue", a.Code(), a.Code())
			return v
		}
		return tv
	})
	if err != nil {
		return err
	}
	return convErr
}

// MapToBool/Int32/Int64/Float64 are spec §4.1's "mapToBool/Int/Long/Double
// (fn) -> new TypedArray": each produces a fresh array of the same
// TypeCode as the receiver (the target type a TypeCode's own accessor
// already fixes), rather than mutating in place. The result keeps a Dense
// or Sparse receiver's backend style and is Dense for a Mapped receiver.
func (a *arr[T]) MapToBool(fn func(i int, v bool) bool) (Array, error) {
	if a.kind != accessorBool {
		return nil, engineerrors.NewTypeMismatch("Array.MapToBool", typecode.Bool, a.Code())
	}
	out := a.Typed.MapTo(func(i int, v T) T {
		return any(fn(i, any(v).(bool))).(T)
	})
	return wrap(out, a.kind), nil
}

func (a *arr[T]) MapToInt32(fn func(i int, v int32) int32) (Array, error) {
	if a.kind != accessorInt32 {
		return nil, engineerrors.NewTypeMismatch("Array.MapToInt32", typecode.Int32, a.Code())
	}
	out := a.Typed.MapTo(func(i int, v T) T {
		return any(fn(i, any(v).(int32))).(T)
	})
	return wrap(out, a.kind), nil
}

func (a *arr[T]) MapToInt64(fn func(i int, v int64) int64) (Array, error) {
	if a.kind != accessorInt64 {
		return nil, engineerrors.NewTypeMismatch("Array.MapToInt64", typecode.Int64, a.Code())
	}
	out := a.Typed.MapTo(func(i int, v T) T {
		return any(fn(i, any(v).(int64))).(T)
	})
	return wrap(out, a.kind), nil
}

func (a *arr[T]) MapToFloat64(fn func(i int, v float64) float64) (Array, error) {
	if a.kind != accessorFloat64 {
		return nil, engineerrors.NewTypeMismatch("Array.MapToFloat64", typecode.Float64, a.Code())
	}
	out := a.Typed.MapTo(func(i int, v T) T {
		return any(fn(i, any(v).(float64))).(T)
	})
	return wrap(out, a.kind), nil
}

// Update copies source[fromIdx[i]] into self[toIdx[i]] for each i (spec
// §4.1: "update(source, fromIdx[], toIdx[])"). source must share this
// array's TypeCode.
func (a *arr[T]) Update(source Array, fromIdx, toIdx []int) error {
	src, ok := source.(*arr[T])
	if !ok {
		return engineerrors.NewTypeMismatch("Array.Update", a.Code(), source.Code())
	}
	return a.Typed.Update(src.Typed, fromIdx, toIdx)
}

// Stream returns the elements of [from,to) as a boxed snapshot (spec §4.1:
// "stream([from,to))"). Array is the non-generic boundary the rest of the
// engine programs against, so the element type is necessarily any here;
// Typed.Stream (typed.go) is the unboxed form used inside this package.
func (a *arr[T]) Stream(from, to int) ([]any, error) {
	if from < 0 || to > a.Length() || from > to {
		return nil, engineerrors.NewOutOfBounds("Array.Stream", from, a.Length())
	}
	vals := a.Typed.Stream(from, to)
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out, nil
}

// --- Factory functions, one per TypeCode ---

func NewBoolArray(length int, defaultValue bool) Array {
	return wrap(newTyped(typecode.Bool, length, defaultValue, cmpBool), accessorBool)
}

func NewSparseBoolArray(length int, defaultValue bool, loadFactor float64) Array {
	return wrap(newSparseTyped(typecode.Bool, length, defaultValue, loadFactor, cmpBool), accessorBool)
}

func NewInt32Array(length int, defaultValue int32) Array {
	t := newTyped(typecode.Int32, length, defaultValue, cmpInt32)
	t.toFloat = func(v int32) float64 { return float64(v) }
	return wrap(t, accessorInt32)
}

func NewSparseInt32Array(length int, defaultValue int32, loadFactor float64) Array {
	t := newSparseTyped(typecode.Int32, length, defaultValue, loadFactor, cmpInt32)
	t.toFloat = func(v int32) float64 { return float64(v) }
	return wrap(t, accessorInt32)
}

func NewInt64Array(length int, defaultValue int64) Array {
	t := newTyped(typecode.Int64, length, defaultValue, cmpInt64)
	t.toFloat = func(v int64) float64 { return float64(v) }
	return wrap(t, accessorInt64)
}

func NewSparseInt64Array(length int, defaultValue int64, loadFactor float64) Array {
	t := newSparseTyped(typecode.Int64, length, defaultValue, loadFactor, cmpInt64)
	t.toFloat = func(v int64) float64 { return float64(v) }
	return wrap(t, accessorInt64)
}

func NewFloat64Array(length int, defaultValue float64) Array {
	t := newTyped(typecode.Float64, length, defaultValue, cmpFloat64)
	t.toFloat = func(v float64) float64 { return v }
	return wrap(t, accessorFloat64)
}

func NewSparseFloat64Array(length int, defaultValue float64, loadFactor float64) Array {
	t := newSparseTyped(typecode.Float64, length, defaultValue, loadFactor, cmpFloat64)
	t.toFloat = func(v float64) float64 { return v }
	return wrap(t, accessorFloat64)
}

func NewCurrencyArray(length int, defaultValue float64) Array {
	t := newTyped(typecode.Currency, length, defaultValue, cmpFloat64)
	t.toFloat = func(v float64) float64 { return v }
	return wrap(t, accessorFloat64)
}

func NewStringArray(length int, defaultValue string) Array {
	return wrap(newTyped(typecode.String, length, defaultValue, cmpString), accessorNone)
}

func NewSparseStringArray(length int, defaultValue string, loadFactor float64) Array {
	return wrap(newSparseTyped(typecode.String, length, defaultValue, loadFactor, cmpString), accessorNone)
}

// NewEnumArray stores int32 dictionary codes; pass dict to decode/encode
// labels at the Axis/Frame boundary (the array itself only orders codes).
func NewEnumArray(length int, defaultValue int32) Array {
	t := newTyped(typecode.Enum, length, defaultValue, cmpInt32)
	t.toFloat = func(v int32) float64 { return float64(v) }
	return wrap(t, accessorInt32)
}

func NewDateArray(length int, defaultValue civil.Date) Array {
	return wrap(newTyped(typecode.Date, length, defaultValue, cmpDate), accessorNone)
}

func NewTimeLocalArray(length int, defaultValue civil.Time) Array {
	return wrap(newTyped(typecode.TimeLocal, length, defaultValue, cmpTimeLocal), accessorNone)
}

func NewDateTimeLocalArray(length int, defaultValue civil.DateTime) Array {
	return wrap(newTyped(typecode.DateTimeLocal, length, defaultValue, cmpDateTimeLocal), accessorNone)
}

func NewDateTimeZonedArray(length int, defaultValue Zoned) Array {
	return wrap(newTyped(typecode.DateTimeZoned, length, defaultValue, cmpZoned), accessorNone)
}

func NewYearArray(length int, defaultValue int32) Array {
	t := newTyped(typecode.Year, length, defaultValue, cmpInt32)
	t.toFloat = func(v int32) float64 { return float64(v) }
	return wrap(t, accessorInt32)
}

func NewInstantArray(length int, defaultValue int64) Array {
	return wrap(newTyped(typecode.Instant, length, defaultValue, cmpInt64), accessorInt64)
}

func NewObjectArray(length int, defaultValue any) Array {
	return wrap(newTyped(typecode.Object, length, defaultValue, cmpObject), accessorNone)
}

// Empty returns a zero-length dense array for code, using the TypeCode's
// natural default value (spec §6: Array.empty(TypeCode)).
func Empty(code typecode.Code) Array {
	return of(code, 0)
}

// Of builds a length-N dense array of code with default-filled slots (spec
// §6: TypedArray.of(TypeCode, length[, defaultValue, loadFactor])).
func Of(code typecode.Code, length int) Array { return of(code, length) }

func of(code typecode.Code, length int) Array {
	switch code {
	case typecode.Bool:
		return NewBoolArray(length, false)
	case typecode.Int32:
		return NewInt32Array(length, 0)
	case typecode.Int64:
		return NewInt64Array(length, 0)
	case typecode.Float64:
		return NewFloat64Array(length, math.NaN())
	case typecode.String:
		return NewStringArray(length, "")
	case typecode.Enum:
		return NewEnumArray(length, -1)
	case typecode.Date:
		return NewDateArray(length, civil.Date{})
	case typecode.DateTimeLocal:
		return NewDateTimeLocalArray(length, civil.DateTime{})
	case typecode.DateTimeZoned:
		return NewDateTimeZonedArray(length, Zoned{})
	case typecode.TimeLocal:
		return NewTimeLocalArray(length, civil.Time{})
	case typecode.Currency:
		return NewCurrencyArray(length, math.NaN())
	case typecode.Year:
		return NewYearArray(length, 0)
	case typecode.Instant:
		return NewInstantArray(length, 0)
	default:
		return NewObjectArray(length, nil)
	}
}


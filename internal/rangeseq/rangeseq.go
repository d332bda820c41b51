// Package rangeseq implements Range (spec §4.2): a lazy, optionally
// filtered/mapped, restartable finite sequence over an ordered domain,
// materializable into a dense TypedArray and splittable into abutting
// contiguous sub-ranges for parallel materialization.
//
// Grounded on the teacher's internal/dataframe lazy-iteration helpers
// (Series.Map/Filter build a new backing slice on demand rather than
// eagerly); generalized here with an index->value function instead of a
// boxed slice, so Range never materializes until toArray is called.
package rangeseq

import (
	"math"

	civil "github.com/golang-sql/civil"

	"tabula/internal/array"
	"tabula/internal/engineerrors"
	"tabula/internal/typecode"
)

// Range is a lazy sequence of n elements addressed by index, of the given
// TypeCode. Elements are produced on demand by at(i); predicate and mapFn,
// when set, are applied lazily at materialization time.
type Range[T comparable] struct {
	n         int
	at        func(i int) T
	code      typecode.Code
	predicate func(T) bool
	mapFn     func(T) T
}

func newRange[T comparable](code typecode.Code, n int, at func(int) T) *Range[T] {
	return &Range[T]{n: n, at: at, code: code}
}

// Len reports the range's element count before any predicate filtering
// (the filtered count is only known after materialization).
func (r *Range[T]) Len() int { return r.n }

func (r *Range[T]) Code() typecode.Code { return r.code }

// Map returns a new Range whose materialization applies fn lazily, composed
// after any mapFn already present.
func (r *Range[T]) Map(fn func(T) T) *Range[T] {
	prev := r.mapFn
	composed := fn
	if prev != nil {
		composed = func(v T) T { return fn(prev(v)) }
	}
	return &Range[T]{n: r.n, at: r.at, code: r.code, predicate: r.predicate, mapFn: composed}
}

// Filter returns a new Range whose materialization only keeps elements for
// which predicate holds, composed with any filter already present.
func (r *Range[T]) Filter(predicate func(T) bool) *Range[T] {
	prev := r.predicate
	composed := predicate
	if prev != nil {
		composed = func(v T) bool { return prev(v) && predicate(v) }
	}
	return &Range[T]{n: r.n, at: r.at, code: r.code, predicate: composed, mapFn: r.mapFn}
}

func (r *Range[T]) value(i int) T {
	v := r.at(i)
	if r.mapFn != nil {
		v = r.mapFn(v)
	}
	return v
}

// ToArray materializes the range into a dense TypedArray, applying the
// predicate (if any) and then mapFn (if any) to each element in order.
// parallel is accepted for interface symmetry with spec §4.2's
// toArray([parallel]) and has no effect: materialization is always
// sequential and linear in n.
func (r *Range[T]) ToArray(parallel bool) (array.Array, error) {
	values := make([]T, 0, r.n)
	for i := 0; i < r.n; i++ {
		v := r.at(i)
		if r.predicate != nil && !r.predicate(v) {
			continue
		}
		if r.mapFn != nil {
			v = r.mapFn(v)
		}
		values = append(values, v)
	}
	out := array.Of(r.code, len(values))
	for i, v := range values {
		if _, err := out.SetValue(i, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Split partitions the range into contiguous index sub-ranges whose
// endpoints abut: sub-range k's last index is sub-range k+1's first index
// minus one, and the first/last segments coincide with the range's own
// start/end (spec §8 scenario 5). target is clamped to [1,n].
func (r *Range[T]) Split(target int) []*Range[T] {
	if target < 1 {
		target = 1
	}
	if target > r.n {
		target = r.n
	}
	if target == 0 {
		return nil
	}
	base := r.n / target
	rem := r.n % target
	out := make([]*Range[T], 0, target)
	start := 0
	for k := 0; k < target; k++ {
		size := base
		if k < rem {
			size++
		}
		end := start + size
		s := start
		out = append(out, &Range[T]{
			n:         end - s,
			at:        func(i int) T { return r.at(s + i) },
			code:      r.code,
			predicate: r.predicate,
			mapFn:     r.mapFn,
		})
		start = end
	}
	return out
}

// OfInt32 builds an INT32 range [start,end) stepping by step; step's sign
// must match the direction implied by start/end, and a zero step with
// start != end is rejected (spec §4.2: "step sign derived from direction").
func OfInt32(start, end, step int32) (*Range[int32], error) {
	n, err := countSteps(int64(start), int64(end), int64(step))
	if err != nil {
		return nil, err
	}
	return newRange(typecode.Int32, n, func(i int) int32 { return start + step*int32(i) }), nil
}

func OfInt64(start, end, step int64) (*Range[int64], error) {
	n, err := countSteps(start, end, step)
	if err != nil {
		return nil, err
	}
	return newRange(typecode.Int64, n, func(i int) int64 { return start + step*int64(i) }), nil
}

func OfFloat64(start, end, step float64) (*Range[float64], error) {
	if start == end {
		return newRange(typecode.Float64, 0, func(i int) float64 { return start }), nil
	}
	if step == 0 || (step > 0) != (end > start) {
		return nil, engineerrors.NewDimensionMismatch("Range.OfFloat64", 0, 0)
	}
	n := int(math.Ceil((end - start) / step))
	if n < 0 {
		n = 0
	}
	return newRange(typecode.Float64, n, func(i int) float64 { return start + step*float64(i) }), nil
}

// OfDate builds a DATE range [start,end) stepping by stepDays calendar days.
func OfDate(start, end civil.Date, stepDays int) (*Range[civil.Date], error) {
	n, err := countSteps(int64(start.DaysSince(civil.Date{})), int64(end.DaysSince(civil.Date{})), int64(stepDays))
	if err != nil {
		return nil, err
	}
	return newRange(typecode.Date, n, func(i int) civil.Date {
		return start.AddDays(stepDays * i)
	}), nil
}

// countSteps computes how many elements lie in the half-open interval
// [start,end) when stepping by step, validating step's sign matches the
// direction from start to end. start == end yields an empty range.
func countSteps(start, end, step int64) (int, error) {
	if start == end {
		return 0, nil
	}
	if step == 0 || (step > 0) != (end > start) {
		return 0, engineerrors.NewDimensionMismatch("Range.of", 0, 0)
	}
	diff := end - start
	if step > 0 {
		n := diff / step
		if diff%step != 0 {
			n++
		}
		return int(n), nil
	}
	diff = -diff
	negStep := -step
	n := diff / negStep
	if diff%negStep != 0 {
		n++
	}
	return int(n), nil
}

package array

import (
	"math"

	"tabula/internal/typecode"
)

// NullSentinel returns the natural "missing" representation for code (spec
// §3: "Each tag defines the natural null sentinel (false, 0, 0L, NaN,
// null)"). Reference/object codes report nil since any value is legal.
func NullSentinel(code typecode.Code) any {
	switch code {
	case typecode.Bool:
		return false
	case typecode.Int32, typecode.Enum, typecode.Year:
		return int32(0)
	case typecode.Int64, typecode.Instant:
		return int64(0)
	case typecode.Float64, typecode.Currency:
		return math.NaN()
	case typecode.String:
		return ""
	default:
		return nil
	}
}

// IsNullValue probes whether v is code's null sentinel, handling NaN for
// FLOAT64/CURRENCY specially since NaN != NaN under ==, per the Design
// Notes' "provide an isNull(i) probe that handles NaN for DOUBLE
// specifically".
func IsNullValue(code typecode.Code, v any) bool {
	if code == typecode.Float64 || code == typecode.Currency {
		f, ok := v.(float64)
		return ok && math.IsNaN(f)
	}
	sentinel := NullSentinel(code)
	if sentinel == nil {
		return v == nil
	}
	return v == sentinel
}

// IsNull reports whether the value at index i is code's null sentinel.
func (a *Typed[T]) IsNull(i int) (bool, error) {
	v, err := a.Get(i)
	if err != nil {
		return false, err
	}
	return IsNullValue(a.code, v), nil
}

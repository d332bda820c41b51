package array

import (
	"fmt"
	"math"

	civil "github.com/golang-sql/civil"
)

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func cmpInt32(a, b int32) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// cmpFloat64 sorts NaN last (spec §9 Open Question, decided).
func cmpFloat64(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpDate(a, b civil.Date) int {
	if a.Year != b.Year {
		return cmpInt32(int32(a.Year), int32(b.Year))
	}
	if a.Month != b.Month {
		return cmpInt32(int32(a.Month), int32(b.Month))
	}
	return cmpInt32(int32(a.Day), int32(b.Day))
}

func cmpTimeLocal(a, b civil.Time) int {
	if a.Hour != b.Hour {
		return cmpInt32(int32(a.Hour), int32(b.Hour))
	}
	if a.Minute != b.Minute {
		return cmpInt32(int32(a.Minute), int32(b.Minute))
	}
	if a.Second != b.Second {
		return cmpInt32(int32(a.Second), int32(b.Second))
	}
	return cmpInt32(int32(a.Nanosecond), int32(b.Nanosecond))
}

func cmpDateTimeLocal(a, b civil.DateTime) int {
	if c := cmpDate(a.Date, b.Date); c != 0 {
		return c
	}
	return cmpTimeLocal(a.Time, b.Time)
}

func cmpZoned(a, b Zoned) int {
	return cmpInt64(a.EpochMillis, b.EpochMillis)
}

// cmpObject falls back to string comparison, mirroring the teacher's
// Series.Sort fallback for values with no natural numeric ordering.
func cmpObject(a, b any) int {
	return cmpString(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// CompareValues orders two boxed column values by the natural ordering of
// their dynamic type, falling back to cmpObject's string comparison for any
// pair it doesn't recognize. Used at the Axis/Frame boundary (sorting an
// axis by data values, ranking) where values have already been unboxed from
// an Array.GetValue call and a concrete TypeCode isn't in scope.
func CompareValues(a, b any) int {
	switch av := a.(type) {
	case bool:
		if bv, ok := b.(bool); ok {
			return cmpBool(av, bv)
		}
	case int32:
		if bv, ok := b.(int32); ok {
			return cmpInt32(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmpInt64(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmpFloat64(av, bv)
		}
	case string:
		if bv, ok := b.(string); ok {
			return cmpString(av, bv)
		}
	case civil.Date:
		if bv, ok := b.(civil.Date); ok {
			return cmpDate(av, bv)
		}
	case civil.Time:
		if bv, ok := b.(civil.Time); ok {
			return cmpTimeLocal(av, bv)
		}
	case civil.DateTime:
		if bv, ok := b.(civil.DateTime); ok {
			return cmpDateTimeLocal(av, bv)
		}
	case Zoned:
		if bv, ok := b.(Zoned); ok {
			return cmpZoned(av, bv)
		}
	}
	return cmpObject(a, b)
}

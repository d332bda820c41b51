// Package typecode defines the TypeCode tag that identifies a column's
// primitive storage specialization, along with the per-code properties
// (Numeric, FixedWidth, Primitive, ElementSize) the rest of the engine
// relies on. The per-code null sentinel, default value and ordering live
// in package array.
package typecode

import "fmt"

// Code is a tag identifying the storage specialization of a TypedArray.
type Code uint8

const (
	Bool Code = iota
	Int32
	Int64
	Float64
	String
	Enum
	Date
	DateTimeLocal
	DateTimeZoned
	TimeLocal
	Currency
	Year
	Instant
	Object
)

func (c Code) String() string {
	switch c {
	case Bool:
		return "BOOL"
	case Int32:
		return "INT32"
	case Int64:
		return "INT64"
	case Float64:
		return "FLOAT64"
	case String:
		return "STRING"
	case Enum:
		return "ENUM"
	case Date:
		return "DATE"
	case DateTimeLocal:
		return "DATETIME_LOCAL"
	case DateTimeZoned:
		return "DATETIME_ZONED"
	case TimeLocal:
		return "TIME_LOCAL"
	case Currency:
		return "CURRENCY"
	case Year:
		return "YEAR"
	case Instant:
		return "INSTANT"
	case Object:
		return "OBJECT"
	default:
		return fmt.Sprintf("Code(%d)", uint8(c))
	}
}

// Numeric reports whether values of this code support arithmetic reduction
// (sum, mean, variance, ...). Temporal codes are ordered but not numeric.
func (c Code) Numeric() bool {
	switch c {
	case Int32, Int64, Float64, Currency, Year:
		return true
	default:
		return false
	}
}

// FixedWidth reports whether the code has a constant per-element byte size,
// a precondition for the MAPPED backend and for the serialization format.
func (c Code) FixedWidth() bool {
	switch c {
	case String, Object:
		return false
	default:
		return true
	}
}

// Primitive reports whether the code's natural Go representation is a
// scalar machine primitive (bool/int32/int64/float64), for which a
// dual-pivot quicksort applies. Reference-shaped codes (strings, objects,
// and the struct-valued temporal codes) sort via sort.SliceStable instead.
func (c Code) Primitive() bool {
	switch c {
	case Bool, Int32, Int64, Float64, Currency, Year, Enum, Instant:
		return true
	default:
		return false
	}
}

// ElementSize returns the per-element byte size for a fixed-width code, used
// to compute slot offsets in the mapped backend's header (spec §6).
func (c Code) ElementSize() int {
	switch c {
	case Bool:
		return 1
	case Int32, Enum, Year:
		return 4
	case Int64, Float64, Currency, Date, TimeLocal, Instant:
		return 8
	case DateTimeLocal:
		return 8
	case DateTimeZoned:
		return 10 // epochMillis(int64) + zoneIdx(int16)
	default:
		return 0
	}
}

// Package engineerrors defines the engine's error taxonomy (spec §7): a
// small set of error kinds, each carrying the context a caller needs to
// react without string-matching the message.
//
// Modeled on the teacher's internal/errors package (ErrorType enum plus a
// struct implementing error), trimmed of the source-location/call-stack
// fields that make sense for a language runtime but not a data engine.
package engineerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies a class of engine failure.
type Kind string

const (
	KeyNotFound      Kind = "KeyNotFound"
	DuplicateKey     Kind = "DuplicateKey"
	OutOfBounds      Kind = "OutOfBounds"
	TypeMismatch     Kind = "TypeMismatch"
	ReadOnly         Kind = "ReadOnly"
	DimensionMismatch Kind = "DimensionMismatch"
	NonNumeric       Kind = "NonNumeric"
	Singular         Kind = "Singular"
	IO               Kind = "IOError"
)

// EngineError is the concrete error type raised by every core operation.
type EngineError struct {
	Kind    Kind
	Op      string // operation that failed, e.g. "TypedArray.GetInt32"
	Message string
}

func (e *EngineError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Op, e.Message)
}

// Is lets errors.Is match on Kind alone, so callers can test
// errors.Is(err, engineerrors.Sentinel(engineerrors.TypeMismatch)) without
// constructing an EngineError.
func (e *EngineError) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(k)
}

// kindSentinel lets a bare Kind value be used as an errors.Is target.
type kindSentinel Kind

func (k kindSentinel) Error() string { return string(k) }

// Sentinel returns an error value usable with errors.Is(err, Sentinel(k)).
func Sentinel(k Kind) error { return kindSentinel(k) }

func new_(kind Kind, op, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

func NewKeyNotFound(op string, key any) *EngineError {
	return new_(KeyNotFound, op, "key %v not found", key)
}

func NewDuplicateKey(op string, key any) *EngineError {
	return new_(DuplicateKey, op, "key %v already present", key)
}

func NewOutOfBounds(op string, idx, length int) *EngineError {
	return new_(OutOfBounds, op, "index %d out of range [0,%d)", idx, length)
}

func NewTypeMismatch(op string, want, got fmt.Stringer) *EngineError {
	return new_(TypeMismatch, op, "expected %s, got %s", want, got)
}

func NewReadOnly(op string) *EngineError {
	return new_(ReadOnly, op, "array or index is read-only")
}

func NewDimensionMismatch(op string, a, b int) *EngineError {
	return new_(DimensionMismatch, op, "incompatible dimensions %d and %d", a, b)
}

func NewNonNumeric(op string, what any) *EngineError {
	return new_(NonNumeric, op, "%v is not numeric", what)
}

func NewSingular(op string) *EngineError {
	return new_(Singular, op, "matrix is singular")
}

// WrapIO wraps an adapter-layer I/O failure with call-site context, using
// pkg/errors so the original cause remains inspectable via errors.Cause.
func WrapIO(op string, err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(err, "%s: %s", IO, op)
}

// Package events implements the per-frame event bus (spec §4.8/§9): a
// listener registry firing ADD/REMOVE/UPDATE notifications on the mutating
// thread, in listener-insertion order, disabled by default.
//
// Grounded on the teacher's subscriber-registry shape used across
// internal/concurrency and internal/network (register callback, fire in
// order), replaced here with a plain callback slice per the REDESIGN FLAGS
// note "replace listener-observer with a pluggable callback registry".
package events

// Kind identifies the structural/data change a DataFrameEvent describes.
type Kind int

const (
	Add Kind = iota
	Remove
	Update
)

func (k Kind) String() string {
	switch k {
	case Add:
		return "ADD"
	case Remove:
		return "REMOVE"
	case Update:
		return "UPDATE"
	default:
		return "UNKNOWN"
	}
}

// Event is a DataFrameEvent (spec §3): a structural or data change,
// identified by the row/column keys it touched. RowKeys/ColKeys are `any`
// since the bus is shared across Frame[R,C] instantiations of different key
// types.
type Event struct {
	Kind    Kind
	RowKeys []any
	ColKeys []any
}

// Listener receives events fired on the mutating goroutine. Listeners must
// not mutate the firing frame during the callback; doing so is undefined
// behavior per spec §4.8, enforced only by contract and by tests, not by
// the type system.
type Listener func(Event)

// Bus is a frame's event bus: a listener registry plus an enabled flag.
// The zero value is a disabled bus with no listeners, matching spec §4.8's
// "default is enabled = false after construction".
type Bus struct {
	listeners []Listener
	enabled   bool
}

// Enabled reports whether Fire currently invokes listeners.
func (b *Bus) Enabled() bool { return b.enabled }

// SetEnabled toggles notification delivery. Batch-assembly code (parsers,
// bulk loaders) runs with events disabled, per spec §4.8.
func (b *Bus) SetEnabled(enabled bool) { b.enabled = enabled }

// Subscribe registers a listener, invoked on every future Fire call while
// the bus is enabled, in the order listeners were subscribed.
func (b *Bus) Subscribe(l Listener) {
	b.listeners = append(b.listeners, l)
}

// Fire invokes every listener with ev, in subscription order, if the bus is
// enabled. A no-op bus (disabled, or no listeners) costs one bool check.
func (b *Bus) Fire(ev Event) {
	if !b.enabled {
		return
	}
	for _, l := range b.listeners {
		l(ev)
	}
}

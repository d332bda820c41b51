package array

// Zoned is the storage representation of a DATETIME_ZONED element: an
// epoch-millisecond instant plus an index into the array's zone dictionary
// (spec §6). Both fields are comparable, so Zoned itself is comparable and
// can serve as a sparse-backend default-value sentinel.
type Zoned struct {
	EpochMillis int64
	ZoneIdx     int16
}

// EnumDict is the side dictionary an ENUM-coded array carries: the ordinal
// codes stored in the array index into Values.
type EnumDict struct {
	Values []string
	lookup map[string]int32
}

// NewEnumDict builds a dictionary from its value set, used by callers
// assembling an ENUM column from known category labels.
func NewEnumDict(values []string) *EnumDict {
	d := &EnumDict{Values: append([]string(nil), values...), lookup: make(map[string]int32, len(values))}
	for i, v := range d.Values {
		d.lookup[v] = int32(i)
	}
	return d
}

// CodeFor returns the ordinal for a label, adding it to the dictionary if
// absent. Dictionaries only grow, matching the append-only semantics of a
// canonical index (spec §3's Index invariant (b), echoed here for the
// column-local string dictionary).
func (d *EnumDict) CodeFor(label string) int32 {
	if code, ok := d.lookup[label]; ok {
		return code
	}
	code := int32(len(d.Values))
	d.Values = append(d.Values, label)
	d.lookup[label] = code
	return code
}

// Label returns the string for an ordinal code.
func (d *EnumDict) Label(code int32) string {
	if code < 0 || int(code) >= len(d.Values) {
		return ""
	}
	return d.Values[code]
}

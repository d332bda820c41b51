// Package tableindex implements Index (spec §4.3, C3): a key<->canonical
// bijection, immutable per insert for the life of the Index, plus an
// independent mutable ordinal permutation. A derived filter-Index shares
// its parent's key map and owns only its own ordering (spec §3 invariant d).
//
// Grounded on spec.md §4.3 directly — morpheus-core's Index class has no
// counterpart in the teacher repo (the teacher's Series/NDArray carry no
// separate key<->position bijection, just a single ordinal position), so
// this package is new, built in the teacher's idiom: a generic engine type
// (Index[K]) plus package-level constructors, matching internal/array's
// Typed[T]-plus-factories shape.
package tableindex

import (
	"golang.org/x/exp/slices"

	"tabula/internal/engineerrors"
)

// keyMap is the shared key<->canonical bijection a filter-Index and its
// parent reference through a common pointer (spec §3 invariant d, §5: "the
// filter holds an immutable snapshot of the key -> canonical map at
// construction time; implementers may use copy-on-write").
type keyMap[K comparable] struct {
	keyToCanonical map[K]int
	canonicalToKey []K
}

// Index is the key<->canonical bijection for one axis (spec §4.3).
// Canonical indices never change for the life of the Index; ord is the
// independently mutable ordinal permutation over live canonical indices.
type Index[K comparable] struct {
	km         *keyMap[K]
	ord        []int // ordinal -> canonical index
	canonToOrd map[int]int
	readOnly   bool
}

// New returns an empty Index.
func New[K comparable]() *Index[K] {
	return &Index[K]{
		km:         &keyMap[K]{keyToCanonical: make(map[K]int)},
		canonToOrd: make(map[int]int),
	}
}

// Of builds an Index from keys, in order, failing on the first duplicate.
func Of[K comparable](keys []K) (*Index[K], error) {
	ix := New[K]()
	if _, err := ix.AddAll(keys, false); err != nil {
		return nil, err
	}
	return ix, nil
}

// Size returns the number of live keys (ordinal count).
func (ix *Index[K]) Size() int { return len(ix.ord) }

// rebuildOrdMap recomputes canonToOrd after ord is reordered or resized.
func (ix *Index[K]) rebuildOrdMap() {
	ix.canonToOrd = make(map[int]int, len(ix.ord))
	for ord, canon := range ix.ord {
		ix.canonToOrd[canon] = ord
	}
}

// Add inserts key, allocating it a fresh canonical index one past the
// highest ever allocated, and appends it at the end of the current
// ordering. Fails with DuplicateKey if key is already present.
func (ix *Index[K]) Add(key K) (int, error) {
	if ix.readOnly {
		return 0, engineerrors.NewReadOnly("Index.Add")
	}
	if _, exists := ix.km.keyToCanonical[key]; exists {
		return 0, engineerrors.NewDuplicateKey("Index.Add", key)
	}
	canon := len(ix.km.canonicalToKey)
	ix.km.keyToCanonical[key] = canon
	ix.km.canonicalToKey = append(ix.km.canonicalToKey, key)
	ord := len(ix.ord)
	ix.ord = append(ix.ord, canon)
	ix.canonToOrd[canon] = ord
	return canon, nil
}

// AddAll inserts keys in order. When ignoreDuplicates is true, keys already
// present are silently skipped (spec §4.4's default axis-insert policy);
// otherwise the first duplicate key fails the whole call, leaving the
// already-added prefix in place (spec §7: no partial-state rollback beyond
// the point of first failure — the caller sees the added count).
func (ix *Index[K]) AddAll(keys []K, ignoreDuplicates bool) (int, error) {
	added := 0
	for _, k := range keys {
		if _, err := ix.Add(k); err != nil {
			if ignoreDuplicates {
				if ee, ok := err.(*engineerrors.EngineError); ok && ee.Kind == engineerrors.DuplicateKey {
					continue
				}
			}
			return added, err
		}
		added++
	}
	return added, nil
}

// GetIndexForKey returns key's canonical index, stable for the life of the
// Index (spec §4.3 invariant).
func (ix *Index[K]) GetIndexForKey(k K) (int, error) {
	c, ok := ix.km.keyToCanonical[k]
	if !ok {
		return 0, engineerrors.NewKeyNotFound("Index.GetIndexForKey", k)
	}
	return c, nil
}

// GetOrdinalForKey returns key's current position in the ordinal ordering.
func (ix *Index[K]) GetOrdinalForKey(k K) (int, error) {
	c, err := ix.GetIndexForKey(k)
	if err != nil {
		return 0, err
	}
	ord, ok := ix.canonToOrd[c]
	if !ok {
		return 0, engineerrors.NewKeyNotFound("Index.GetOrdinalForKey", k)
	}
	return ord, nil
}

// GetKey returns the key currently at ordinal position ord.
func (ix *Index[K]) GetKey(ord int) (K, error) {
	var zero K
	if ord < 0 || ord >= len(ix.ord) {
		return zero, engineerrors.NewOutOfBounds("Index.GetKey", ord, len(ix.ord))
	}
	canon := ix.ord[ord]
	return ix.km.canonicalToKey[canon], nil
}

// GetCanonicalAt returns the canonical index at ordinal position ord.
func (ix *Index[K]) GetCanonicalAt(ord int) (int, error) {
	if ord < 0 || ord >= len(ix.ord) {
		return 0, engineerrors.NewOutOfBounds("Index.GetCanonicalAt", ord, len(ix.ord))
	}
	return ix.ord[ord], nil
}

// Contains reports whether key is live in the Index.
func (ix *Index[K]) Contains(k K) bool {
	_, ok := ix.km.keyToCanonical[k]
	return ok
}

// Keys returns the live keys in current ordinal order.
func (ix *Index[K]) Keys() []K {
	out := make([]K, len(ix.ord))
	for ord, canon := range ix.ord {
		out[ord] = ix.km.canonicalToKey[canon]
	}
	return out
}

// Ordinals returns the canonical index for every ordinal position, in
// order: Ordinals()[i] == ix.ord[i].
func (ix *Index[K]) Ordinals() []int {
	out := make([]int, len(ix.ord))
	copy(out, ix.ord)
	return out
}

// Sort reorders ord in place by cmp over keys (canonical indices and the
// key map are untouched, per spec §4.3). parallel is accepted and has no
// effect: the reordering is always a single sequential stable sort, since
// neither sort.SliceStable nor slices.SortStableFunc has a parallel
// variant and splitting a single stable sort across goroutines would not
// preserve stability.
func (ix *Index[K]) Sort(ascending bool, cmp func(a, b K) int, parallel bool) {
	if cmp == nil {
		return
	}
	keyed := func(canonA, canonB int) int {
		ka := ix.km.canonicalToKey[canonA]
		kb := ix.km.canonicalToKey[canonB]
		return cmp(ka, kb)
	}
	slices.SortStableFunc(ix.ord, func(canonA, canonB int) int {
		c := keyed(canonA, canonB)
		if ascending {
			return c
		}
		return -c
	})
	ix.rebuildOrdMap()
}

// SortByOrdinalComparator reorders ord using an IntComparator over ordinal
// positions directly (spec §4.3: "sort(parallel, asc|IntComparator)").
//
// cmp compares two ordinal *positions* (the slot in ord before the sort),
// but slices.SortStableFunc hands its comparison func the *elements* of the
// slice (canonical indices), so ordinal positions are recovered by looking
// the canonical index back up in the ordinal map before calling cmp. The
// sort runs on a copy, so ord (and GetCanonicalAt, which cmp may call)
// keeps the pre-sort ordering until the sorted result is copied back.
func (ix *Index[K]) SortByOrdinalComparator(cmp func(ordA, ordB int) int) {
	sorted := slices.Clone(ix.ord)
	slices.SortStableFunc(sorted, func(canonA, canonB int) int {
		ordA := ix.canonToOrd[canonA]
		ordB := ix.canonToOrd[canonB]
		return cmp(ordA, ordB)
	})
	copy(ix.ord, sorted)
	ix.rebuildOrdMap()
}

// Filter returns a shallow filter-Index over exactly the given keys, in the
// order given, sharing the parent's key map (spec §4.3/§5). Reads through
// the filter remain O(1) since no new key map is scanned or copied.
func (ix *Index[K]) Filter(keys []K) (*Index[K], error) {
	ord := make([]int, 0, len(keys))
	for _, k := range keys {
		c, ok := ix.km.keyToCanonical[k]
		if !ok {
			return nil, engineerrors.NewKeyNotFound("Index.Filter", k)
		}
		ord = append(ord, c)
	}
	out := &Index[K]{km: ix.km, ord: ord}
	out.rebuildOrdMap()
	return out, nil
}

// FilterPredicate scans the current ordinal order and returns a concrete
// filter-Index keeping only keys for which predicate holds, still sharing
// the parent's key map — no new keys are introduced so the bijection is
// unaffected (spec §4.3: "filter(predicate) — scans; returns a concrete
// filter").
func (ix *Index[K]) FilterPredicate(predicate func(k K, ord, canonical int) bool) *Index[K] {
	ord := make([]int, 0, len(ix.ord))
	for pos, canon := range ix.ord {
		k := ix.km.canonicalToKey[canon]
		if predicate(k, pos, canon) {
			ord = append(ord, canon)
		}
	}
	out := &Index[K]{km: ix.km, ord: ord}
	out.rebuildOrdMap()
	return out
}

// Replace atomically rebinds existing's canonical index to replacement:
// replacement now resolves to the same canonical slot existing used to.
// replacement == existing is a no-op (spec §8 round-trip law).
func (ix *Index[K]) Replace(existing, replacement K) error {
	if ix.readOnly {
		return engineerrors.NewReadOnly("Index.Replace")
	}
	if existing == replacement {
		return nil
	}
	canon, ok := ix.km.keyToCanonical[existing]
	if !ok {
		return engineerrors.NewKeyNotFound("Index.Replace", existing)
	}
	if _, exists := ix.km.keyToCanonical[replacement]; exists {
		return engineerrors.NewDuplicateKey("Index.Replace", replacement)
	}
	delete(ix.km.keyToCanonical, existing)
	ix.km.keyToCanonical[replacement] = canon
	ix.km.canonicalToKey[canon] = replacement
	return nil
}

// Copy returns a deep clone: a new, independent key map and ordinal slice.
func (ix *Index[K]) Copy() *Index[K] {
	km := &keyMap[K]{
		keyToCanonical: make(map[K]int, len(ix.km.keyToCanonical)),
		canonicalToKey: make([]K, len(ix.km.canonicalToKey)),
	}
	for k, v := range ix.km.keyToCanonical {
		km.keyToCanonical[k] = v
	}
	copy(km.canonicalToKey, ix.km.canonicalToKey)
	ord := make([]int, len(ix.ord))
	copy(ord, ix.ord)
	out := &Index[K]{km: km, ord: ord}
	out.rebuildOrdMap()
	return out
}

// ReadOnly returns a shallow wrapper sharing storage on which Add and
// Replace fail with ReadOnly. Sort and SortByOrdinalComparator do not check
// the read-only flag.
func (ix *Index[K]) ReadOnly() *Index[K] {
	clone := *ix
	clone.readOnly = true
	return &clone
}

// IsReadOnly reports whether mutation is disallowed.
func (ix *Index[K]) IsReadOnly() bool { return ix.readOnly }

// PreviousKey returns the key immediately before k in the current ordinal
// order. Requires the Index to already be in ascending order by whatever
// comparator the caller last sorted with; behavior is otherwise undefined
// per spec §4.3.
func (ix *Index[K]) PreviousKey(k K) (K, bool, error) {
	var zero K
	ord, err := ix.GetOrdinalForKey(k)
	if err != nil {
		return zero, false, err
	}
	if ord == 0 {
		return zero, false, nil
	}
	pk, _ := ix.GetKey(ord - 1)
	return pk, true, nil
}

// NextKey returns the key immediately after k in the current ordinal order.
func (ix *Index[K]) NextKey(k K) (K, bool, error) {
	var zero K
	ord, err := ix.GetOrdinalForKey(k)
	if err != nil {
		return zero, false, err
	}
	if ord == len(ix.ord)-1 {
		return zero, false, nil
	}
	nk, _ := ix.GetKey(ord + 1)
	return nk, true, nil
}

// FirstKey/LastKey return the keys at the ordinal extremes.
func (ix *Index[K]) FirstKey() (K, bool) {
	var zero K
	if len(ix.ord) == 0 {
		return zero, false
	}
	k, _ := ix.GetKey(0)
	return k, true
}

func (ix *Index[K]) LastKey() (K, bool) {
	var zero K
	if len(ix.ord) == 0 {
		return zero, false
	}
	k, _ := ix.GetKey(len(ix.ord) - 1)
	return k, true
}

// Map builds a new Index[K2] whose keys are fn(oldKey, ordinal, canonical),
// preserving every canonical-index assignment and the current ordinal
// order (spec §4.3: "map(mapperFn) — returns a new Index whose keys are
// fn(oldKey, ord, canonical) preserving the canonical mapping").
func Map[K comparable, K2 comparable](ix *Index[K], fn func(oldKey K, ord, canonical int) K2) (*Index[K2], error) {
	km := &keyMap[K2]{
		keyToCanonical: make(map[K2]int, len(ix.km.canonicalToKey)),
		canonicalToKey: make([]K2, len(ix.km.canonicalToKey)),
	}
	for pos, canon := range ix.ord {
		oldKey := ix.km.canonicalToKey[canon]
		newKey := fn(oldKey, pos, canon)
		if _, exists := km.keyToCanonical[newKey]; exists {
			return nil, engineerrors.NewDuplicateKey("Index.Map", newKey)
		}
		km.keyToCanonical[newKey] = canon
		km.canonicalToKey[canon] = newKey
	}
	ord := make([]int, len(ix.ord))
	copy(ord, ix.ord)
	out := &Index[K2]{km: km, ord: ord}
	out.rebuildOrdMap()
	return out, nil
}

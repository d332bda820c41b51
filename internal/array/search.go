package array

// BinarySearch requires [from,to) to be ascending per cmp (or a.cmp when
// cmp is nil) and returns the index of v, or -(insertionPoint)-1 if absent
// (spec §4.1, tested by spec §8 invariant 3).
func (a *Typed[T]) BinarySearch(v T, from, to int, cmp func(x, y T) int) int {
	if cmp == nil {
		cmp = a.cmp
	}
	lo, hi := from, to
	for lo < hi {
		mid := lo + (hi-lo)/2
		mv, _ := a.Get(mid)
		switch c := cmp(mv, v); {
		case c == 0:
			return mid
		case c < 0:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return -(lo + 1)
}

// Previous returns the greatest element strictly less than v, scanning
// around the binary-search insertion point to skip duplicates. The array
// must already be ascending in [0,Length()); behavior is undefined
// otherwise (spec §4.1).
func (a *Typed[T]) Previous(v T) (T, bool) {
	pos := a.BinarySearch(v, 0, a.length, nil)
	if pos >= 0 {
		for pos > 0 {
			pv, _ := a.Get(pos - 1)
			cur, _ := a.Get(pos)
			if a.cmp(pv, cur) != 0 {
				return pv, true
			}
			pos--
		}
		var zero T
		return zero, false
	}
	ip := -(pos + 1)
	if ip == 0 {
		var zero T
		return zero, false
	}
	v2, _ := a.Get(ip - 1)
	return v2, true
}

// Next returns the least element strictly greater than v (spec §4.1).
func (a *Typed[T]) Next(v T) (T, bool) {
	pos := a.BinarySearch(v, 0, a.length, nil)
	if pos >= 0 {
		for pos < a.length-1 {
			nv, _ := a.Get(pos + 1)
			cur, _ := a.Get(pos)
			if a.cmp(nv, cur) != 0 {
				return nv, true
			}
			pos++
		}
		var zero T
		return zero, false
	}
	ip := -(pos + 1)
	if ip >= a.length {
		var zero T
		return zero, false
	}
	v2, _ := a.Get(ip)
	return v2, true
}

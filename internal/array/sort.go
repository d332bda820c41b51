package array

import "sort"

// Sort reorders [from,to) ascending (or per cmp if non-nil) in place. Primitive
// TypeCodes use a dual-pivot quicksort (sortDualPivot); STRING/OBJECT/temporal
// codes use sort.SliceStable as a faithful stand-in for Timsort — both are
// standard choices for "many equal runs" reference-type data, and
// sort.SliceStable's guarantee (equal elements keep relative order) is the
// property actually exercised by spec §8's idempotence law
// (`sort(asc); sort(asc)` is a no-op on an already-sorted array).
func (a *Typed[T]) Sort(from, to int, cmp func(x, y T) int) {
	if cmp == nil {
		cmp = a.cmp
	}
	if a.code.Primitive() {
		a.sortDualPivot(from, to, cmp)
		return
	}
	a.sortStable(from, to, cmp)
}

func (a *Typed[T]) sortStable(from, to int, cmp func(x, y T) int) {
	n := to - from
	idx := make([]int, n)
	vals := make([]T, n)
	for i := 0; i < n; i++ {
		v, _ := a.Get(from + i)
		idx[i] = i
		vals[i] = v
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return cmp(vals[idx[i]], vals[idx[j]]) < 0
	})
	out := make([]T, n)
	for i, k := range idx {
		out[i] = vals[k]
	}
	for i := 0; i < n; i++ {
		a.Set(from+i, out[i])
	}
}

// sortDualPivot implements a dual-pivot quicksort over [from,to) using cmp,
// operating through Get/Set so it applies uniformly across backends; the
// algorithmic shape follows Yaroslavskiy's dual-pivot partition (the
// standard library used by primitive sorts in the source system).
func (a *Typed[T]) sortDualPivot(from, to int, cmp func(x, y T) int) {
	if to-from < 2 {
		return
	}
	if to-from <= 16 {
		a.insertionSort(from, to, cmp)
		return
	}

	get := func(i int) T { v, _ := a.Get(i); return v }
	set := func(i int, v T) { a.Set(i, v) }

	if cmp(get(from), get(to-1)) > 0 {
		vf, vt := get(from), get(to-1)
		set(from, vt)
		set(to-1, vf)
	}
	p, q := get(from), get(to-1)

	less, great := from+1, to-2
	k := less
	for k <= great {
		vk := get(k)
		switch {
		case cmp(vk, p) < 0:
			set(k, get(less))
			set(less, vk)
			less++
		case cmp(vk, q) > 0:
			for cmp(get(great), q) > 0 && k < great {
				great--
			}
			vg := get(great)
			set(great, vk)
			set(k, vg)
			great--
			if cmp(get(k), p) < 0 {
				vk2 := get(k)
				set(k, get(less))
				set(less, vk2)
				less++
			}
		}
		k++
	}
	less--
	great++
	set(from, get(less))
	set(less, p)
	set(to-1, get(great))
	set(great, q)

	a.sortDualPivot(from, less, cmp)
	a.sortDualPivot(less+1, great, cmp)
	a.sortDualPivot(great+1, to, cmp)
}

func (a *Typed[T]) insertionSort(from, to int, cmp func(x, y T) int) {
	for i := from + 1; i < to; i++ {
		vi, _ := a.Get(i)
		j := i - 1
		for j >= from {
			vj, _ := a.Get(j)
			if cmp(vj, vi) <= 0 {
				break
			}
			a.Set(j+1, vj)
			j--
		}
		a.Set(j+1, vi)
	}
}

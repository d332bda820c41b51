// Package parallel implements the fork/join façade (spec §4.7/§5): a
// process-wide worker pool sized to GOMAXPROCS, contiguous-ordinal-range
// splitting controlled by a per-frame threshold, and deterministic
// associative reducers so parallel and sequential results agree up to
// floating-point rounding (sums depend on summation order; mean/variance
// agree to 1e-10 via the Chan/Welford combine rule).
//
// Grounded on spec.md §4.7/§7/§9 directly (the teacher has no fork/join
// facility of its own); built on golang.org/x/sync/errgroup for fork/join
// and golang.org/x/sync/semaphore to cap concurrent sub-tasks at pool size,
// both present in the teacher's go.mod but unused by the teacher itself.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// poolSize is the process-wide worker pool size: GOMAXPROCS, per spec §5.
func poolSize() int {
	n := runtime.GOMAXPROCS(0)
	if n < 1 {
		n = 1
	}
	return n
}

// Split partitions [0,total) into contiguous ranges no larger than
// threshold, used to decide whether and how an axis-level operation runs
// sequentially or in parallel sub-tasks (spec §4.7: "splits work by
// contiguous ordinal ranges at or above the threshold").
func Split(total, threshold int) [][2]int {
	if total <= 0 {
		return nil
	}
	if threshold < 1 {
		threshold = 1
	}
	if total <= threshold {
		return [][2]int{{0, total}}
	}
	var out [][2]int
	for start := 0; start < total; start += threshold {
		end := start + threshold
		if end > total {
			end = total
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

// Task processes the contiguous ordinal range [start,end).
type Task func(start, end int) error

// Run executes task over [0,total) sequentially when total <= threshold,
// otherwise fans out one goroutine per Split partition, bounded by a
// semaphore sized to the process worker pool, and joins via errgroup. The
// first error observed cancels the remaining sub-tasks (spec §7: "parallel
// sub-tasks propagate the first error observed; remaining tasks are
// cancelled best-effort").
func Run(total, threshold int, task Task) error {
	parts := Split(total, threshold)
	if len(parts) <= 1 {
		for _, p := range parts {
			if err := task(p[0], p[1]); err != nil {
				return err
			}
		}
		return nil
	}

	ctx := context.Background()
	sem := semaphore.NewWeighted(int64(poolSize()))
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range parts {
		p := p
		if err := sem.Acquire(gctx, 1); err != nil {
			return err
		}
		g.Go(func() error {
			defer sem.Release(1)
			return task(p[0], p[1])
		})
	}
	return g.Wait()
}

// Moments is a single-pass (count, mean, M2) accumulator combinable across
// shards via the Chan/Welford parallel combine rule, so a sharded
// computation and a single sequential pass agree to 1e-10 (spec §7/§8
// invariant 7).
type Moments struct {
	Count int64
	Mean   float64
	M2     float64 // sum of squared deviations from Mean
	Sum    float64
	Min    float64
	Max    float64
}

// AddFloat64 folds a single value into m, returning the updated
// accumulator (Welford's online algorithm).
func (m Moments) AddFloat64(v float64) Moments {
	if m.Count == 0 {
		m.Min, m.Max = v, v
	} else {
		if v < m.Min {
			m.Min = v
		}
		if v > m.Max {
			m.Max = v
		}
	}
	m.Count++
	delta := v - m.Mean
	m.Mean += delta / float64(m.Count)
	delta2 := v - m.Mean
	m.M2 += delta * delta2
	m.Sum += v
	return m
}

// Combine merges two independently accumulated Moments shards using the
// Chan et al. (1979) parallel-variance combine formula, making the result
// independent of how the input was partitioned.
func (a Moments) Combine(b Moments) Moments {
	if a.Count == 0 {
		return b
	}
	if b.Count == 0 {
		return a
	}
	na, nb := float64(a.Count), float64(b.Count)
	delta := b.Mean - a.Mean
	n := na + nb
	mean := a.Mean + delta*nb/n
	m2 := a.M2 + b.M2 + delta*delta*na*nb/n
	min := a.Min
	if b.Min < min {
		min = b.Min
	}
	max := a.Max
	if b.Max > max {
		max = b.Max
	}
	return Moments{Count: a.Count + b.Count, Mean: mean, M2: m2, Sum: a.Sum + b.Sum, Min: min, Max: max}
}

// Variance returns the population variance accumulated so far: M2/n, the
// same denominator internal/array.Typed.Stats uses, so a sharded and a
// sequential computation over the same data agree to 1e-10 (spec §8
// invariant 7) rather than merely both being "a" variance.
func (m Moments) Variance() float64 {
	if m.Count < 1 {
		return 0
	}
	return m.M2 / float64(m.Count)
}

// ComputeMoments splits [0,total) per threshold, accumulates Moments per
// shard sequentially, and combines shards with Combine. Values for which
// at returns ok==false (e.g. NaN) are skipped, matching array.Stats's
// treatment of non-finite values.
func ComputeMoments(total, threshold int, at func(i int) (float64, bool)) (Moments, error) {
	parts := Split(total, threshold)
	if len(parts) <= 1 {
		var m Moments
		for _, p := range parts {
			for i := p[0]; i < p[1]; i++ {
				if v, ok := at(i); ok {
					m = m.AddFloat64(v)
				}
			}
		}
		return m, nil
	}

	shardResults := make([]Moments, len(parts))
	err := Run(total, threshold, func(start, end int) error {
		for k, p := range parts {
			if p[0] == start && p[1] == end {
				var m Moments
				for i := start; i < end; i++ {
					if v, ok := at(i); ok {
						m = m.AddFloat64(v)
					}
				}
				shardResults[k] = m
				return nil
			}
		}
		return nil
	})
	if err != nil {
		return Moments{}, err
	}
	var out Moments
	for _, m := range shardResults {
		out = out.Combine(m)
	}
	return out, nil
}

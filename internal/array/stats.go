package array

import (
	"math"
	"sort"

	"tabula/internal/engineerrors"
)

// Stats is a snapshot of the streaming statistics spec §4.1 names. The
// first pass over the array computes count/min/max/sum/mean/variance; a
// second pass over the collected values computes mad/skew/kurtosis, and
// percentile/median/autocorr use sorted or lagged access. Mean/variance
// use Welford's online algorithm, the same combine rule the parallel
// façade uses to merge per-shard partials (spec §4.7, §8 invariant 7).
type Stats struct {
	Count     int
	Min       float64
	Max       float64
	Sum       float64
	SumSq     float64
	Mean      float64
	Variance  float64
	StdDev    float64
	SEM       float64
	MAD       float64
	Kurtosis  float64
	Skew      float64
	GeoMean   float64
	Median    float64
	Product   float64
}

// Stats computes streaming statistics over the array. Fails with
// NonNumeric if the TypeCode has no float64 projection wired in.
func (a *Typed[T]) Stats() (Stats, error) {
	if a.toFloat == nil {
		return Stats{}, engineerrors.NewNonNumeric("TypedArray.Stats", a.code)
	}

	var s Stats
	s.Min = math.Inf(1)
	s.Max = math.Inf(-1)
	s.Product = 1

	var mean, m2 float64 // Welford accumulators
	values := make([]float64, 0, a.length)

	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		f := a.toFloat(v)
		values = append(values, f)
		if math.IsNaN(f) {
			continue
		}
		s.Count++
		s.Sum += f
		s.SumSq += f * f
		s.Product *= f
		if f < s.Min {
			s.Min = f
		}
		if f > s.Max {
			s.Max = f
		}
		delta := f - mean
		mean += delta / float64(s.Count)
		m2 += delta * (f - mean)
	}

	if s.Count == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), GeoMean: math.NaN(), Median: math.NaN()}, nil
	}

	s.Mean = mean
	s.Variance = m2 / float64(s.Count)
	s.StdDev = math.Sqrt(s.Variance)
	s.SEM = s.StdDev / math.Sqrt(float64(s.Count))

	var madSum, m3, m4 float64
	for _, f := range values {
		if math.IsNaN(f) {
			continue
		}
		d := f - s.Mean
		madSum += math.Abs(d)
		m3 += d * d * d
		m4 += d * d * d * d
	}
	s.MAD = madSum / float64(s.Count)
	if s.StdDev > 0 {
		s.Skew = (m3 / float64(s.Count)) / math.Pow(s.StdDev, 3)
		s.Kurtosis = (m4/float64(s.Count))/math.Pow(s.Variance, 2) - 3
	}

	s.GeoMean = math.Exp(logSumPositive(values) / float64(s.Count))
	s.Median = percentileOf(values, 50)
	return s, nil
}

// Percentile returns the p-th percentile (0-100) using linear interpolation
// between closest ranks, matching the source's Series.Median convention for
// p=50.
func (a *Typed[T]) Percentile(p float64) (float64, error) {
	if a.toFloat == nil {
		return 0, engineerrors.NewNonNumeric("TypedArray.Percentile", a.code)
	}
	values := make([]float64, 0, a.length)
	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		f := a.toFloat(v)
		if !math.IsNaN(f) {
			values = append(values, f)
		}
	}
	return percentileOf(values, p), nil
}

func percentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := (p / 100.0) * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	w := idx - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

func logSumPositive(values []float64) float64 {
	var sum float64
	for _, f := range values {
		if math.IsNaN(f) || f <= 0 {
			continue
		}
		sum += math.Log(f)
	}
	return sum
}

// Autocorr returns the lag-k autocorrelation.
func (a *Typed[T]) Autocorr(k int) (float64, error) {
	if a.toFloat == nil {
		return 0, engineerrors.NewNonNumeric("TypedArray.Autocorr", a.code)
	}
	n := a.length
	if k <= 0 || k >= n {
		return math.NaN(), nil
	}
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		v, _ := a.Get(i)
		values[i] = a.toFloat(v)
	}
	var mean float64
	for _, f := range values {
		mean += f
	}
	mean /= float64(n)

	var num, den float64
	for i := 0; i < n; i++ {
		den += (values[i] - mean) * (values[i] - mean)
	}
	for i := 0; i < n-k; i++ {
		num += (values[i] - mean) * (values[i+k] - mean)
	}
	if den == 0 {
		return math.NaN(), nil
	}
	return num / den, nil
}

// CumSum is a left-scan that propagates the NaN sentinel per spec §8
// scenario 1: an element's own slot stays NaN in the output, but the running
// total used for the NEXT element ignores it and carries the last valid sum
// forward (e.g. [1,2,NaN,4,5] -> [1,3,NaN,7,12]).
func (a *Typed[T]) CumSum() (*Typed[T], error) {
	if a.toFloat == nil {
		return nil, engineerrors.NewNonNumeric("TypedArray.CumSum", a.code)
	}
	out := a.cloneShape()
	var running float64
	started := false
	for i := 0; i < a.length; i++ {
		v, _ := a.Get(i)
		f := a.toFloat(v)
		if math.IsNaN(f) {
			out.Set(i, a.fromFloatLike(math.NaN()))
			continue
		}
		if !started {
			running = f
			started = true
		} else {
			running += f
		}
		out.Set(i, a.fromFloatLike(running))
	}
	return out, nil
}

// fromFloatLike converts a running float64 accumulator back into T for
// numeric TypeCodes. Only called on arrays where toFloat is non-nil, whose
// T is always one of the engine's own numeric representations.
func (a *Typed[T]) fromFloatLike(f float64) T {
	var zero T
	switch any(zero).(type) {
	case float64:
		return any(f).(T)
	case int64:
		return any(int64(f)).(T)
	case int32:
		return any(int32(f)).(T)
	default:
		return zero
	}
}

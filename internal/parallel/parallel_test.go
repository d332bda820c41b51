package parallel

import (
	"fmt"
	"math"
	"testing"
)

func TestSplitAbutment(t *testing.T) {
	// spec §8 invariant 5: contiguous partitions abut, first starts at 0,
	// last ends at total.
	parts := Split(97, 10)
	if parts[0][0] != 0 {
		t.Fatalf("first start = %d, want 0", parts[0][0])
	}
	if parts[len(parts)-1][1] != 97 {
		t.Fatalf("last end = %d, want 97", parts[len(parts)-1][1])
	}
	for i := 0; i+1 < len(parts); i++ {
		if parts[i][1] != parts[i+1][0] {
			t.Fatalf("parts[%d].end=%d != parts[%d].start=%d", i, parts[i][1], i+1, parts[i+1][0])
		}
	}
}

func TestSplitBelowThresholdIsOneRange(t *testing.T) {
	parts := Split(5, 10)
	if len(parts) != 1 || parts[0] != [2]int{0, 5} {
		t.Fatalf("Split(5,10) = %v, want [[0 5]]", parts)
	}
}

func TestRunSequentialVsParallelSameSum(t *testing.T) {
	values := make([]float64, 10000)
	for i := range values {
		values[i] = float64(i%7) + 0.25
	}
	at := func(i int) (float64, bool) { return values[i], true }

	seq, err := ComputeMoments(len(values), len(values), at) // threshold >= total: sequential
	if err != nil {
		t.Fatalf("ComputeMoments sequential: %v", err)
	}
	par, err := ComputeMoments(len(values), 37, at) // forces many shards
	if err != nil {
		t.Fatalf("ComputeMoments parallel: %v", err)
	}

	if math.Abs(seq.Sum-par.Sum) > 1e-6 {
		t.Fatalf("sum mismatch: seq=%v par=%v", seq.Sum, par.Sum)
	}
	if math.Abs(seq.Mean-par.Mean) > 1e-10 {
		t.Fatalf("mean mismatch: seq=%v par=%v", seq.Mean, par.Mean)
	}
	if math.Abs(seq.Variance()-par.Variance()) > 1e-10 {
		t.Fatalf("variance mismatch: seq=%v par=%v", seq.Variance(), par.Variance())
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	boom := fmt.Errorf("boom")
	err := Run(1000, 10, func(start, end int) error {
		if start == 500 {
			return boom
		}
		return nil
	})
	if err == nil {
		t.Fatalf("Run should propagate sub-task error")
	}
}

func TestMomentsCombineAssociative(t *testing.T) {
	var a, b, c Moments
	for _, v := range []float64{1, 2, 3} {
		a = a.AddFloat64(v)
	}
	for _, v := range []float64{4, 5} {
		b = b.AddFloat64(v)
	}
	for _, v := range []float64{6, 7, 8, 9} {
		c = c.AddFloat64(v)
	}
	left := a.Combine(b).Combine(c)
	right := a.Combine(b.Combine(c))
	if math.Abs(left.Mean-right.Mean) > 1e-12 {
		t.Fatalf("Combine not associative on Mean: %v vs %v", left.Mean, right.Mean)
	}
	if math.Abs(left.Variance()-right.Variance()) > 1e-10 {
		t.Fatalf("Combine not associative on Variance: %v vs %v", left.Variance(), right.Variance())
	}
}

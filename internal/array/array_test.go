package array

import (
	"bytes"
	"math"
	"testing"

	"tabula/internal/typecode"
)

func TestFloat64ArrayGetSet(t *testing.T) {
	a := NewFloat64Array(5, 0)
	if _, err := a.SetFloat64(2, 3.5); err != nil {
		t.Fatalf("SetFloat64: %v", err)
	}
	v, err := a.GetFloat64(2)
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if v != 3.5 {
		t.Errorf("got %v, want 3.5", v)
	}
}

func TestAccessorMismatch(t *testing.T) {
	a := NewFloat64Array(3, 0)
	if _, err := a.GetBool(0); err == nil {
		t.Error("expected TypeMismatch calling GetBool on a FLOAT64 array")
	}
}

// TestCopyInvariant checks spec's copy invariant: a copy is value-equal to
// its source and independent of later mutation.
func TestCopyInvariant(t *testing.T) {
	a := NewInt32Array(4, 0)
	for i := 0; i < 4; i++ {
		a.SetInt32(i, int32(i*10))
	}
	cp := a.CopyAll()
	a.SetInt32(0, 999)

	v, _ := cp.GetInt32(0)
	if v != 0 {
		t.Errorf("copy observed source mutation: got %d, want 0", v)
	}
	for i := 1; i < 4; i++ {
		want := int32(i * 10)
		got, _ := cp.GetInt32(i)
		if got != want {
			t.Errorf("index %d: got %d, want %d", i, got, want)
		}
	}
}

func TestConcatTypeMismatch(t *testing.T) {
	a := NewInt32Array(2, 0)
	b := NewStringArray(2, "")
	if _, err := a.Concat(b); err == nil {
		t.Error("expected error concatenating INT32 with STRING")
	}
}

func TestBinarySearchInvariant(t *testing.T) {
	a := NewInt32Array(6, 0)
	vals := []int32{1, 3, 5, 7, 9, 11}
	for i, v := range vals {
		a.SetInt32(i, v)
	}
	if pos := a.BinarySearch(int32(7), 0, 6); pos != 3 {
		t.Errorf("BinarySearch(7) = %d, want 3", pos)
	}
	pos := a.BinarySearch(int32(6), 0, 6)
	if pos >= 0 {
		t.Errorf("BinarySearch(6) = %d, want negative (absent)", pos)
	}
	ip := -(pos + 1)
	if ip != 3 {
		t.Errorf("insertion point = %d, want 3", ip)
	}
}

func TestPreviousNextSkipDuplicates(t *testing.T) {
	ta := newTyped(typecode.Int32, 7, int32(0), cmpInt32)
	vals := []int32{1, 3, 3, 3, 5, 7, 9}
	for i, v := range vals {
		ta.Set(i, v)
	}
	prev, ok := ta.Previous(3)
	if !ok || prev != 1 {
		t.Errorf("Previous(3) = %v,%v want 1,true", prev, ok)
	}
	next, ok := ta.Next(3)
	if !ok || next != 5 {
		t.Errorf("Next(3) = %v,%v want 5,true", next, ok)
	}
}

// TestSparsePromotion checks the promotion policy boundary: the (n+1)-th
// non-default write with loadFactor*capacity == n must promote to dense
// while leaving values unchanged.
func TestSparsePromotion(t *testing.T) {
	const capacity = 10
	const loadFactor = 0.5 // threshold = 5
	a := NewSparseInt32Array(capacity, 0, loadFactor).(*arr[int32])

	for i := 0; i < 5; i++ {
		a.Set(i, int32(i+1))
	}
	if a.Style() != Sparse {
		t.Fatalf("expected still SPARSE after 5 writes, got %v", a.Style())
	}
	a.Set(5, 6)
	if a.Style() != Dense {
		t.Fatalf("expected promotion to DENSE on 6th non-default write, got %v", a.Style())
	}
	for i := 0; i < 6; i++ {
		v, _ := a.Get(i)
		if v != int32(i+1) {
			t.Errorf("after promotion, index %d = %d, want %d", i, v, i+1)
		}
	}
	for i := 6; i < capacity; i++ {
		v, _ := a.Get(i)
		if v != 0 {
			t.Errorf("after promotion, index %d = %d, want default 0", i, v)
		}
	}
}

func TestCumSumPropagatesNaNSentinelButSkipsItInRunningSum(t *testing.T) {
	a := NewFloat64Array(5, 0)
	vals := []float64{1.0, 2.0, math.NaN(), 4.0, 5.0}
	for i, v := range vals {
		a.SetFloat64(i, v)
	}
	ta := a.(*arr[float64]).Typed
	out, err := ta.CumSum()
	if err != nil {
		t.Fatalf("CumSum: %v", err)
	}
	want := []float64{1.0, 3.0, math.NaN(), 7.0, 12.0}
	for i, w := range want {
		got, _ := out.Get(i)
		if math.IsNaN(w) {
			if !math.IsNaN(got) {
				t.Errorf("index %d: got %v, want NaN", i, got)
			}
			continue
		}
		if got != w {
			t.Errorf("index %d: got %v, want %v", i, got, w)
		}
	}
}

func TestSortAscendingIdempotent(t *testing.T) {
	a := NewFloat64Array(6, 0)
	vals := []float64{5, 1, 4, 2, 3, 0}
	for i, v := range vals {
		a.SetFloat64(i, v)
	}
	a.Sort(0, 6, true)
	first := snapshot(t, a)
	a.Sort(0, 6, true)
	second := snapshot(t, a)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("sort not idempotent at %d: %v vs %v", i, first[i], second[i])
		}
	}
	for i := 1; i < len(first); i++ {
		if first[i-1] > first[i] {
			t.Errorf("not ascending at %d: %v > %v", i, first[i-1], first[i])
		}
	}
}

func snapshot(t *testing.T, a Array) []float64 {
	t.Helper()
	out := make([]float64, a.Length())
	for i := range out {
		v, err := a.GetFloat64(i)
		if err != nil {
			t.Fatalf("GetFloat64(%d): %v", i, err)
		}
		out[i] = v
	}
	return out
}

func TestStatsWelford(t *testing.T) {
	a := NewFloat64Array(4, 0)
	vals := []float64{2, 4, 4, 4}
	for i, v := range vals {
		a.SetFloat64(i, v)
	}
	ta := a.(*arr[float64]).Typed
	stats, err := ta.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 4 {
		t.Errorf("Count = %d, want 4", stats.Count)
	}
	if math.Abs(stats.Mean-3.5) > 1e-10 {
		t.Errorf("Mean = %v, want 3.5", stats.Mean)
	}
}

func TestShuffleIsPermutation(t *testing.T) {
	a := NewInt32Array(8, 0)
	for i := 0; i < 8; i++ {
		a.(*arr[int32]).Set(i, int32(i))
	}
	a.Shuffle(42)
	seen := make(map[int32]bool)
	for i := 0; i < 8; i++ {
		v, _ := a.GetInt32(i)
		seen[v] = true
	}
	if len(seen) != 8 {
		t.Errorf("shuffle lost values: saw %d distinct, want 8", len(seen))
	}
}

func TestReadOnlyRejectsWrite(t *testing.T) {
	a := NewInt32Array(3, 0)
	ro := a.ReadOnly()
	if _, err := ro.SetInt32(0, 5); err == nil {
		t.Error("expected ReadOnly error writing to read-only array")
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	a := NewFloat64Array(3, 0)
	a.SetFloat64(0, 1.5)
	a.SetFloat64(1, math.NaN())
	a.SetFloat64(2, -9.25)

	var buf bytes.Buffer
	if err := Write(&buf, a); err != nil {
		t.Fatalf("Write: %v", err)
	}
	out, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if out.Length() != 3 {
		t.Fatalf("Length = %d, want 3", out.Length())
	}
	v0, _ := out.GetFloat64(0)
	if v0 != 1.5 {
		t.Errorf("index 0 = %v, want 1.5", v0)
	}
	v1, _ := out.GetFloat64(1)
	if !math.IsNaN(v1) {
		t.Errorf("index 1 = %v, want NaN", v1)
	}
	v2, _ := out.GetFloat64(2)
	if v2 != -9.25 {
		t.Errorf("index 2 = %v, want -9.25", v2)
	}
}

func TestApplyFloat64MutatesInPlace(t *testing.T) {
	a := NewFloat64Array(4, 0)
	for i := 0; i < 4; i++ {
		a.SetFloat64(i, float64(i))
	}
	if err := a.ApplyFloat64(func(_ int, v float64) float64 { return v * 2 }); err != nil {
		t.Fatalf("ApplyFloat64: %v", err)
	}
	for i := 0; i < 4; i++ {
		got, _ := a.GetFloat64(i)
		if got != float64(i)*2 {
			t.Errorf("index %d = %v, want %v", i, got, float64(i)*2)
		}
	}
}

func TestApplyWrongAccessorIsTypeMismatch(t *testing.T) {
	a := NewFloat64Array(3, 0)
	if err := a.ApplyBool(func(_ int, v bool) bool { return !v }); err == nil {
		t.Error("expected TypeMismatch calling ApplyBool on a FLOAT64 array")
	}
}

func TestApplyValueBoxedMutation(t *testing.T) {
	a := NewStringArray(3, "")
	a.SetValue(0, "a")
	a.SetValue(1, "b")
	a.SetValue(2, "c")
	if err := a.ApplyValue(func(_ int, v any) any { return v.(string) + "!" }); err != nil {
		t.Fatalf("ApplyValue: %v", err)
	}
	v, _ := a.GetValue(1)
	if v != "b!" {
		t.Errorf("index 1 = %v, want b!", v)
	}
}

func TestApplyValueRejectsWrongReturnType(t *testing.T) {
	a := NewInt32Array(2, 0)
	a.SetInt32(0, 1)
	if err := a.ApplyValue(func(_ int, v any) any { return "not an int32" }); err == nil {
		t.Error("expected TypeMismatch when fn returns a value of the wrong element type")
	}
}

func TestMapToInt32ProducesNewArray(t *testing.T) {
	a := NewInt32Array(3, 0)
	for i := 0; i < 3; i++ {
		a.SetInt32(i, int32(i+1))
	}
	out, err := a.MapToInt32(func(_ int, v int32) int32 { return v * v })
	if err != nil {
		t.Fatalf("MapToInt32: %v", err)
	}
	for i, want := range []int32{1, 4, 9} {
		got, _ := out.GetInt32(i)
		if got != want {
			t.Errorf("mapped index %d = %d, want %d", i, got, want)
		}
	}
	// source is unmutated
	v0, _ := a.GetInt32(0)
	if v0 != 1 {
		t.Errorf("MapToInt32 mutated its source: index 0 = %d, want 1", v0)
	}
}

func TestUpdateCopiesByIndex(t *testing.T) {
	dst := NewFloat64Array(3, 0)
	src := NewFloat64Array(3, 0)
	src.SetFloat64(0, 10)
	src.SetFloat64(1, 20)
	src.SetFloat64(2, 30)
	if err := dst.Update(src, []int{2, 0}, []int{0, 1}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got0, _ := dst.GetFloat64(0)
	got1, _ := dst.GetFloat64(1)
	if got0 != 30 || got1 != 10 {
		t.Errorf("Update produced [%v %v], want [30 10]", got0, got1)
	}
}

func TestUpdateTypeMismatch(t *testing.T) {
	dst := NewFloat64Array(2, 0)
	src := NewInt32Array(2, 0)
	if err := dst.Update(src, []int{0}, []int{0}); err == nil {
		t.Error("expected TypeMismatch updating a FLOAT64 array from an INT32 source")
	}
}

func TestStreamReturnsWindow(t *testing.T) {
	a := NewInt32Array(5, 0)
	for i := 0; i < 5; i++ {
		a.SetInt32(i, int32(i*10))
	}
	vals, err := a.Stream(1, 4)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	want := []any{int32(10), int32(20), int32(30)}
	if len(vals) != len(want) {
		t.Fatalf("Stream length = %d, want %d", len(vals), len(want))
	}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("Stream[%d] = %v, want %v", i, vals[i], want[i])
		}
	}
}

func TestStreamOutOfBounds(t *testing.T) {
	a := NewInt32Array(3, 0)
	if _, err := a.Stream(0, 4); err == nil {
		t.Error("expected OutOfBounds streaming past array length")
	}
}

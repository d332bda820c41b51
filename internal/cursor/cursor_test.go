package cursor

import (
	"testing"

	"tabula/internal/frame"
	"tabula/internal/typecode"
)

func newTestFrame(t *testing.T) *frame.Frame[string, string] {
	t.Helper()
	f := frame.Empty[string, string]()
	if err := f.AddColumn("a", typecode.Float64, nil); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	if err := f.AddColumn("b", typecode.Float64, nil); err != nil {
		t.Fatalf("AddColumn: %v", err)
	}
	vals := map[string]map[string]float64{
		"r1": {"a": 1, "b": 10},
		"r2": {"a": 2, "b": 20},
		"r3": {"a": 3, "b": 30},
	}
	for _, rk := range []string{"r1", "r2", "r3"} {
		rk := rk
		if err := f.AddRow(rk, func(ck string) any { return vals[rk][ck] }); err != nil {
			t.Fatalf("AddRow: %v", err)
		}
	}
	return f
}

func TestCursorMovementStability(t *testing.T) {
	f := newTestFrame(t)
	c := New(f)
	if err := c.AtKeys("r2", "b"); err != nil {
		t.Fatalf("AtKeys: %v", err)
	}
	v, err := c.GetFloat64()
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if v != 20 {
		t.Fatalf("cursor at (r2,b) = %v, want 20", v)
	}

	// spec §8 invariant 8: cursor.value == frame[rowKey, colKey] for no
	// structural change.
	want, err := f.GetFloat64("r2", "b")
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if v != want {
		t.Fatalf("cursor value %v != frame value %v", v, want)
	}
}

func TestCursorSetWritesThroughFrame(t *testing.T) {
	f := newTestFrame(t)
	c := New(f)
	if err := c.AtKeys("r1", "a"); err != nil {
		t.Fatalf("AtKeys: %v", err)
	}
	if _, err := c.Set(99.0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := f.GetFloat64("r1", "a")
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if got != 99.0 {
		t.Fatalf("frame value after cursor.Set = %v, want 99", got)
	}
}

func TestColVectorStats(t *testing.T) {
	f := newTestFrame(t)
	v, err := ColVector(f, "a")
	if err != nil {
		t.Fatalf("ColVector: %v", err)
	}
	if v.Size() != 3 {
		t.Fatalf("Size = %d, want 3", v.Size())
	}
	s, err := v.Stats()
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if s.Sum != 6 {
		t.Fatalf("Sum = %v, want 6", s.Sum)
	}
	if s.Mean != 2 {
		t.Fatalf("Mean = %v, want 2", s.Mean)
	}
}

func TestRowVectorValues(t *testing.T) {
	f := newTestFrame(t)
	v, err := RowVector(f, "r2")
	if err != nil {
		t.Fatalf("RowVector: %v", err)
	}
	if v.Size() != 2 {
		t.Fatalf("Size = %d, want 2", v.Size())
	}
	got, err := v.GetFloat64(0)
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if got != 2 {
		t.Fatalf("RowVector(r2)[0] = %v, want 2", got)
	}
}

func TestVectorBinarySearch(t *testing.T) {
	f := newTestFrame(t)
	v, err := ColVector(f, "a")
	if err != nil {
		t.Fatalf("ColVector: %v", err)
	}
	if idx := v.BinarySearch(2); idx != 1 {
		t.Fatalf("BinarySearch(2) = %d, want 1", idx)
	}
	if idx := v.BinarySearch(2.5); idx >= 0 {
		t.Fatalf("BinarySearch(2.5) = %d, want negative insertion point", idx)
	}
}

func TestVectorToDataFrame(t *testing.T) {
	f := newTestFrame(t)
	v, err := ColVector(f, "a")
	if err != nil {
		t.Fatalf("ColVector: %v", err)
	}
	out, err := ToDataFrame[string, string](v, "a")
	if err != nil {
		t.Fatalf("ToDataFrame: %v", err)
	}
	if out.RowCount() != 3 || out.ColCount() != 1 {
		t.Fatalf("ToDataFrame shape = %dx%d, want 3x1", out.RowCount(), out.ColCount())
	}
}

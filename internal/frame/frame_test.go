package frame

import (
	"math"
	"testing"

	"tabula/internal/engineerrors"
	"tabula/internal/events"
	"tabula/internal/typecode"
)

func newTestFrame(t *testing.T) *Frame[string, string] {
	t.Helper()
	f := Empty[string, string]()
	if err := f.AddColumn("a", typecode.Float64, nil); err != nil {
		t.Fatalf("AddColumn a: %v", err)
	}
	if err := f.AddColumn("b", typecode.Int32, nil); err != nil {
		t.Fatalf("AddColumn b: %v", err)
	}
	for i, rk := range []string{"r1", "r2", "r3"} {
		i := i
		if err := f.AddRow(rk, func(ck string) any {
			if ck == "a" {
				return float64(i) + 0.5
			}
			return int32(i)
		}); err != nil {
			t.Fatalf("AddRow %s: %v", rk, err)
		}
	}
	return f
}

func TestFrameGetSetValue(t *testing.T) {
	f := newTestFrame(t)
	v, err := f.GetFloat64("r2", "a")
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if v != 1.5 {
		t.Fatalf("GetFloat64(r2,a) = %v, want 1.5", v)
	}
	prev, err := f.SetFloat64("r2", "a", 9.5)
	if err != nil {
		t.Fatalf("SetFloat64: %v", err)
	}
	if prev != 1.5 {
		t.Fatalf("SetFloat64 previous = %v, want 1.5", prev)
	}
	got, _ := f.GetFloat64("r2", "a")
	if got != 9.5 {
		t.Fatalf("GetFloat64 after set = %v, want 9.5", got)
	}
}

func TestFrameTypeMismatch(t *testing.T) {
	f := newTestFrame(t)
	if _, err := f.GetBool("r1", "a"); err == nil {
		t.Fatalf("GetBool on a FLOAT64 column should fail with TypeMismatch")
	}
}

func TestFrameOutOfBounds(t *testing.T) {
	f := newTestFrame(t)
	if _, err := f.GetValueAt(99, 0); err == nil {
		t.Fatalf("GetValueAt with out-of-range row ordinal should fail")
	}
}

// TestFilterZeroCopy verifies spec §8 invariant 9: a write through a
// filtered view is observed by the parent frame (shared storage).
func TestFilterZeroCopy(t *testing.T) {
	f := newTestFrame(t)
	view, err := f.SelectRows([]string{"r1", "r2"})
	if err != nil {
		t.Fatalf("SelectRows: %v", err)
	}
	if _, err := view.SetFloat64("r1", "a", 42); err != nil {
		t.Fatalf("SetFloat64 on view: %v", err)
	}
	got, err := f.GetFloat64("r1", "a")
	if err != nil {
		t.Fatalf("GetFloat64 on parent: %v", err)
	}
	if got != 42 {
		t.Fatalf("parent frame did not observe write through view: got %v, want 42", got)
	}
}

func TestConcatRowsIdentity(t *testing.T) {
	f := newTestFrame(t)
	out, err := ConcatRows([]*Frame[string, string]{f})
	if err != nil {
		t.Fatalf("ConcatRows: %v", err)
	}
	if out.RowCount() != f.RowCount() || out.ColCount() != f.ColCount() {
		t.Fatalf("ConcatRows([f]) shape = %dx%d, want %dx%d", out.RowCount(), out.ColCount(), f.RowCount(), f.ColCount())
	}
}

func TestConcatColumnsIdentity(t *testing.T) {
	f := newTestFrame(t)
	out, err := ConcatColumns([]*Frame[string, string]{f})
	if err != nil {
		t.Fatalf("ConcatColumns: %v", err)
	}
	if out.RowCount() != f.RowCount() || out.ColCount() != f.ColCount() {
		t.Fatalf("ConcatColumns([f]) shape mismatch")
	}
}

func TestConcatRowsStacks(t *testing.T) {
	a := newTestFrame(t)
	b := Empty[string, string]()
	b.AddColumn("a", typecode.Float64, nil)
	b.AddColumn("b", typecode.Int32, nil)
	b.AddRow("r4", func(ck string) any {
		if ck == "a" {
			return 100.0
		}
		return int32(100)
	})
	out, err := ConcatRows([]*Frame[string, string]{a, b})
	if err != nil {
		t.Fatalf("ConcatRows: %v", err)
	}
	if out.RowCount() != 4 {
		t.Fatalf("ConcatRows row count = %d, want 4", out.RowCount())
	}
	v, err := out.GetFloat64("r4", "a")
	if err != nil || v != 100.0 {
		t.Fatalf("ConcatRows r4/a = %v, %v; want 100.0, nil", v, err)
	}
}

func TestCombineFirstTakesFirstNonNull(t *testing.T) {
	a := Empty[string, string]()
	a.AddColumn("v", typecode.Float64, nil)
	a.AddRow("r1", func(string) any { return math.NaN() })
	b := Empty[string, string]()
	b.AddColumn("v", typecode.Float64, nil)
	b.AddRow("r1", func(string) any { return 7.0 })

	out, err := CombineFirst([]*Frame[string, string]{a, b})
	if err != nil {
		t.Fatalf("CombineFirst: %v", err)
	}
	got, err := out.GetFloat64("r1", "v")
	if err != nil {
		t.Fatalf("GetFloat64: %v", err)
	}
	if got != 7.0 {
		t.Fatalf("CombineFirst should take b's non-null value, got %v", got)
	}
}

func TestTransposeSwapsAxes(t *testing.T) {
	f := newTestFrame(t)
	out, err := Transpose(f)
	if err != nil {
		t.Fatalf("Transpose: %v", err)
	}
	if out.RowCount() != f.ColCount() || out.ColCount() != f.RowCount() {
		t.Fatalf("Transpose shape = %dx%d, want %dx%d", out.RowCount(), out.ColCount(), f.ColCount(), f.RowCount())
	}
}

func TestEventsFireOnUpdate(t *testing.T) {
	f := newTestFrame(t)
	f.Events().SetEnabled(true)
	var fired []events.Kind
	f.Events().Subscribe(func(e events.Event) {
		fired = append(fired, e.Kind)
	})
	if _, err := f.SetFloat64("r1", "a", 1); err != nil {
		t.Fatalf("SetFloat64: %v", err)
	}
	if len(fired) != 1 || fired[0] != events.Update {
		t.Fatalf("fired = %v, want [Update]", fired)
	}
}

func TestEventsDisabledByDefault(t *testing.T) {
	f := newTestFrame(t)
	var fired int
	f.Events().Subscribe(func(events.Event) { fired++ })
	f.SetFloat64("r1", "a", 2)
	if fired != 0 {
		t.Fatalf("events fired while disabled: %d", fired)
	}
}

// TestWithIgnoreDuplicatesScopesOverride exercises the scoped-config helper
// (REDESIGN FLAGS item 2): outside the scope, the default IgnoreDuplicates
// (true) silently no-ops a duplicate row insert; inside a
// WithIgnoreDuplicates(false, ...) scope, the same insert fails with
// DuplicateKey; after the scope returns, the Frame's own config is
// untouched.
func TestWithIgnoreDuplicatesScopesOverride(t *testing.T) {
	f := newTestFrame(t)

	if err := f.AddRow("r1", nil); err != nil {
		t.Fatalf("duplicate AddRow outside scope should be ignored by default, got: %v", err)
	}

	err := f.WithIgnoreDuplicates(false, func(scoped *Frame[string, string]) error {
		return scoped.AddRow("r1", nil)
	})
	if err == nil {
		t.Fatal("expected DuplicateKey inside WithIgnoreDuplicates(false, ...)")
	}
	if ee, ok := err.(*engineerrors.EngineError); !ok || ee.Kind != engineerrors.DuplicateKey {
		t.Fatalf("expected DuplicateKey error, got %v", err)
	}

	if !f.Config().IgnoreDuplicates {
		t.Fatal("WithIgnoreDuplicates must not mutate the outer Frame's own config")
	}
	if err := f.AddRow("r1", nil); err != nil {
		t.Fatalf("duplicate AddRow after scope returns should again be ignored, got: %v", err)
	}
}

// cumSum-style scenario: spec §8 scenario 1 is array-level (see
// internal/array), but StdDev/SMA/EMA exercise the same scanColumns path at
// the Frame level.
func TestSMAWindow(t *testing.T) {
	f := Empty[string, string]()
	f.AddColumn("v", typecode.Float64, nil)
	for i, val := range []float64{1, 2, 3, 4, 5} {
		i, val := i, val
		f.AddRow(string(rune('a'+i)), func(string) any { return val })
	}
	if err := f.SMA(2); err != nil {
		t.Fatalf("SMA: %v", err)
	}
	// window=2 simple moving average of [1,2,3,4,5]: [1, 1.5, 2.5, 3.5, 4.5]
	want := []float64{1, 1.5, 2.5, 3.5, 4.5}
	for i, rk := range []string{"a", "b", "c", "d", "e"} {
		got, err := f.GetFloat64(rk, "v")
		if err != nil {
			t.Fatalf("GetFloat64: %v", err)
		}
		if math.Abs(got-want[i]) > 1e-9 {
			t.Fatalf("SMA[%d] = %v, want %v", i, got, want[i])
		}
	}
}

package tableindex

import (
	"strings"
	"testing"
)

func TestSortPreservesCanonical(t *testing.T) {
	// spec §8 scenario 3: Index over ["a","c","b"] (canonical 0,1,2); after
	// ascending sort, keys order as a,b,c but getIndexForKey("b") stays 2.
	ix, err := Of([]string{"a", "c", "b"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	canonB, _ := ix.GetIndexForKey("b")
	if canonB != 2 {
		t.Fatalf("canonical(b) = %d, want 2", canonB)
	}

	ix.Sort(true, strings.Compare, false)

	canonBAfter, _ := ix.GetIndexForKey("b")
	if canonBAfter != 2 {
		t.Fatalf("canonical(b) after sort = %d, want 2 (unchanged)", canonBAfter)
	}
	keys := ix.Keys()
	want := []string{"a", "b", "c"}
	for i, k := range keys {
		if k != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, k, want[i])
		}
	}
}

func TestGetKeyRoundTrip(t *testing.T) {
	// spec §8 invariant 2.
	ix, err := Of([]string{"x", "y", "z"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	for _, k := range []string{"x", "y", "z"} {
		ord, err := ix.GetOrdinalForKey(k)
		if err != nil {
			t.Fatalf("GetOrdinalForKey(%q): %v", k, err)
		}
		got, err := ix.GetKey(ord)
		if err != nil || got != k {
			t.Fatalf("GetKey(GetOrdinalForKey(%q)) = %q, %v; want %q, nil", k, got, err, k)
		}
	}

	ix.Sort(true, strings.Compare, false)
	canonYBefore, _ := ix.GetIndexForKey("y")
	if canonYBefore != 1 {
		t.Fatalf("canonical(y) = %d, want 1", canonYBefore)
	}
}

func TestAddDuplicateFails(t *testing.T) {
	ix := New[string]()
	if _, err := ix.Add("a"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := ix.Add("a"); err == nil {
		t.Fatalf("Add duplicate: want error, got nil")
	}
}

func TestFilterSharesKeyMap(t *testing.T) {
	ix, err := Of([]string{"a", "b", "c", "d"})
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	sub, err := ix.Filter([]string{"c", "a"})
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if sub.Size() != 2 {
		t.Fatalf("sub.Size() = %d, want 2", sub.Size())
	}
	canonC, _ := ix.GetIndexForKey("c")
	subCanonC, _ := sub.GetIndexForKey("c")
	if canonC != subCanonC {
		t.Fatalf("filter canonical(c) = %d, want %d (shared map)", subCanonC, canonC)
	}
	k0, _ := sub.GetKey(0)
	if k0 != "c" {
		t.Fatalf("sub.GetKey(0) = %q, want %q (filter preserves given order)", k0, "c")
	}
}

func TestFilterAllEqualsOriginal(t *testing.T) {
	// round-trip law: filter(all) yields an Axis equal to original.
	ix, _ := Of([]string{"a", "b", "c"})
	sub, err := ix.Filter(ix.Keys())
	if err != nil {
		t.Fatalf("Filter: %v", err)
	}
	if sub.Size() != ix.Size() {
		t.Fatalf("sub.Size() = %d, want %d", sub.Size(), ix.Size())
	}
	for i, k := range ix.Keys() {
		sk, _ := sub.GetKey(i)
		if sk != k {
			t.Fatalf("sub.GetKey(%d) = %q, want %q", i, sk, k)
		}
	}
}

func TestReplaceKeyNoOp(t *testing.T) {
	ix, _ := Of([]string{"a", "b"})
	if err := ix.Replace("a", "a"); err != nil {
		t.Fatalf("Replace(a,a): %v", err)
	}
	if !ix.Contains("a") {
		t.Fatalf("Replace(a,a) should be a no-op, key a missing")
	}
}

func TestReplaceKeyRebinds(t *testing.T) {
	ix, _ := Of([]string{"a", "b", "c"})
	canonB, _ := ix.GetIndexForKey("b")
	if err := ix.Replace("b", "bb"); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if ix.Contains("b") {
		t.Fatalf("old key b should no longer be live")
	}
	canonBB, err := ix.GetIndexForKey("bb")
	if err != nil || canonBB != canonB {
		t.Fatalf("canonical(bb) = %d, %v; want %d, nil", canonBB, err, canonB)
	}
}

func TestPreviousNextKey(t *testing.T) {
	ix, _ := Of([]string{"a", "c", "e", "g"})
	prev, ok, err := ix.PreviousKey("e")
	if err != nil || !ok || prev != "c" {
		t.Fatalf("PreviousKey(e) = %q, %v, %v; want c, true, nil", prev, ok, err)
	}
	next, ok, err := ix.NextKey("e")
	if err != nil || !ok || next != "g" {
		t.Fatalf("NextKey(e) = %q, %v, %v; want g, true, nil", next, ok, err)
	}
	_, ok, _ = ix.PreviousKey("a")
	if ok {
		t.Fatalf("PreviousKey(a) should report no previous key")
	}
	_, ok, _ = ix.NextKey("g")
	if ok {
		t.Fatalf("NextKey(g) should report no next key")
	}
}

func TestReadOnlyRejectsMutation(t *testing.T) {
	ix, _ := Of([]string{"a", "b"})
	ro := ix.ReadOnly()
	if _, err := ro.Add("c"); err == nil {
		t.Fatalf("Add on read-only index: want error, got nil")
	}
	if err := ro.Replace("a", "z"); err == nil {
		t.Fatalf("Replace on read-only index: want error, got nil")
	}
}

func TestMapPreservesCanonical(t *testing.T) {
	ix, _ := Of([]string{"a", "b", "c"})
	canonB, _ := ix.GetIndexForKey("b")

	mapped, err := Map(ix, func(old string, ord, canonical int) string {
		return strings.ToUpper(old)
	})
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	canonBUpper, err := mapped.GetIndexForKey("B")
	if err != nil || canonBUpper != canonB {
		t.Fatalf("mapped canonical(B) = %d, %v; want %d, nil", canonBUpper, err, canonB)
	}
}

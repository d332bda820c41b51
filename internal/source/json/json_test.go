package json

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadWriteReadIdempotence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "records.json")
	content := `[{"id":1,"name":"alice","score":9.5},{"id":2,"name":"bob","score":8.25}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	f1, err := Read(path, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f1.RowCount() != 2 || f1.ColCount() != 3 {
		t.Fatalf("Read shape = %dx%d, want 2x3", f1.RowCount(), f1.ColCount())
	}

	out := filepath.Join(dir, "records_out.json")
	if err := Write(f1, out, nil); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f2, err := Read(out, nil)
	if err != nil {
		t.Fatalf("Read (round trip): %v", err)
	}
	for _, rk := range f1.RowIndex().Keys() {
		for _, ck := range f1.ColIndex().Keys() {
			v1, _ := f1.GetValue(rk, ck)
			v2, _ := f2.GetValue(rk, ck)
			if v1 != v2 {
				t.Fatalf("round-trip mismatch at (%v,%v): %v != %v", rk, ck, v1, v2)
			}
		}
	}
}

func TestReadEmptyArray(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f, err := Read(path, nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.RowCount() != 0 {
		t.Fatalf("RowCount = %d, want 0", f.RowCount())
	}
}

package sql

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// TestReadWriteRoundTrip exercises Read/Write against a real sqlite3
// database file (the same driver the teacher's internal/database blank-
// imports), matching spec §8's read->write->read idempotence law for the
// sql adapter.
func TestReadWriteRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "tabula_test.db")

	setup, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := setup.Exec(`CREATE TABLE quotes (id INTEGER, symbol TEXT, price REAL)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	if _, err := setup.Exec(`INSERT INTO quotes VALUES (1,'AAPL',190.5),(2,'MSFT',410.25)`); err != nil {
		t.Fatalf("INSERT: %v", err)
	}
	setup.Close()

	f, err := Read(func(o *Options) {
		o.Driver = DriverSQLite
		o.DSN = dsn
		o.Query = "SELECT id, symbol, price FROM quotes ORDER BY id"
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.RowCount() != 2 || f.ColCount() != 3 {
		t.Fatalf("Read shape = %dx%d, want 2x3", f.RowCount(), f.ColCount())
	}

	dsn2 := filepath.Join(t.TempDir(), "tabula_test_out.db")
	setup2, err := sql.Open("sqlite3", dsn2)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := setup2.Exec(`CREATE TABLE quotes (id INTEGER, symbol TEXT, price REAL)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	setup2.Close()

	if err := Write(f, func(o *Options) {
		o.Driver = DriverSQLite
		o.DSN = dsn2
		o.Table = "quotes"
	}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f2, err := Read(func(o *Options) {
		o.Driver = DriverSQLite
		o.DSN = dsn2
		o.Query = "SELECT id, symbol, price FROM quotes ORDER BY id"
	})
	if err != nil {
		t.Fatalf("Read (round trip): %v", err)
	}
	if f2.RowCount() != f.RowCount() {
		t.Fatalf("round-trip row count = %d, want %d", f2.RowCount(), f.RowCount())
	}
	v1, _ := f.GetValue(0, "symbol")
	v2, _ := f2.GetValue(0, "symbol")
	if v1 != v2 {
		t.Fatalf("round-trip symbol mismatch: %v != %v", v1, v2)
	}
}

func TestReadSingleIntegerColumn(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "types.db")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`CREATE TABLE t (n INTEGER)`); err != nil {
		t.Fatalf("CREATE TABLE: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t VALUES (42)`); err != nil {
		t.Fatalf("INSERT: %v", err)
	}
	db.Close()

	f, err := Read(func(o *Options) {
		o.Driver = DriverSQLite
		o.DSN = dsn
		o.Query = "SELECT n FROM t"
	})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if f.RowCount() != 1 {
		t.Fatalf("RowCount = %d, want 1", f.RowCount())
	}
}

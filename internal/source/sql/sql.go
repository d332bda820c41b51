// Package sql implements a Source/Sink pair over database/sql (spec §6
// domain stack), grounded on the teacher's internal/database/database.go:
// the same four blank-imported drivers (mysql/postgres/sqlite3/mssql), the
// same *sql.DB connection handling, generalized from ad hoc security-scan
// queries into a Source that builds a Frame column-by-column from
// sql.Rows' reported column types, and a Sink that batch-inserts rows.
package sql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	civil "github.com/golang-sql/civil"
	sqlexp "github.com/golang-sql/sqlexp"

	"tabula/internal/array"
	"tabula/internal/engineerrors"
	"tabula/internal/frame"
	"tabula/internal/source"
	"tabula/internal/typecode"
)

// Driver name constants, matching the registered database/sql driver
// names for the four blank-imported packages above.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMSSQL    = "sqlserver"
)

// Options configures a Read/Write call.
type Options struct {
	Driver    string
	DSN       string
	Query     string   // Read: the SELECT statement to run
	Table     string   // Write: destination table
	Columns   []string // Write: column order; defaults to the Frame's column key order
	BatchSize int      // Write: rows per batch; default 500
}

func DefaultOptions() Options { return Options{BatchSize: 500} }

// Adapter is the Source[int,string,Options]/Sink[int,string,Options]
// implementation registered under the "sql" type tag. Row keys are the
// zero-based result-row ordinal; column keys are the query's column names.
type Adapter struct{}

func init() {
	source.Register("sql", func() Adapter { return Adapter{} })
}

func (Adapter) Read(configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	return Read(configure)
}

func (Adapter) Write(f *frame.Frame[int, string], configure source.Configurator[Options]) error {
	return Write(f, configure)
}

// Read runs opts.Query and builds a Frame from the result set, inferring
// one TypeCode per column from database/sql's reported column type.
func Read(configure source.Configurator[Options]) (*frame.Frame[int, string], error) {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return nil, engineerrors.WrapIO("sql.Read", err)
	}
	defer db.Close()

	rows, err := db.Query(opts.Query)
	if err != nil {
		return nil, engineerrors.WrapIO("sql.Read", err)
	}
	defer rows.Close()

	colNames, err := rows.Columns()
	if err != nil {
		return nil, engineerrors.WrapIO("sql.Read", err)
	}
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, engineerrors.WrapIO("sql.Read", err)
	}
	codes := make([]typecode.Code, len(colTypes))
	for i, ct := range colTypes {
		codes[i] = codeForSQLType(ct)
	}

	var scanned [][]any
	for rows.Next() {
		dest := make([]any, len(colNames))
		ptrs := make([]any, len(colNames))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, engineerrors.WrapIO("sql.Read", err)
		}
		scanned = append(scanned, dest)
	}
	if err := rows.Err(); err != nil {
		return nil, engineerrors.WrapIO("sql.Read", err)
	}

	rowKeys := make([]int, len(scanned))
	for i := range rowKeys {
		rowKeys[i] = i
	}

	pos := 0
	out, err := frame.FromBuilder[int, string](rowKeys, colNames, func(_ string, rowCount int) array.Array {
		code := codes[pos]
		pos++
		return array.Of(code, rowCount)
	})
	if err != nil {
		return nil, err
	}

	for ri, row := range scanned {
		for ci, colName := range colNames {
			v := normalizeSQLValue(codes[ci], row[ci])
			if v == nil {
				continue
			}
			if _, err := out.SetValue(ri, colName, v); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Write inserts every row of f into opts.Table, committing one transaction
// per BatchSize rows.
func Write(f *frame.Frame[int, string], configure source.Configurator[Options]) error {
	opts := DefaultOptions()
	if configure != nil {
		configure(&opts)
	}

	db, err := sql.Open(opts.Driver, opts.DSN)
	if err != nil {
		return engineerrors.WrapIO("sql.Write", err)
	}
	defer db.Close()

	columns := opts.Columns
	if len(columns) == 0 {
		columns = f.ColIndex().Keys()
	}

	if opts.Driver == DriverMSSQL && supportsBulkInsert(db) {
		// go-mssqldb exposes a fast bulk-copy path by implementing
		// sqlexp.BulkInsert on its driver connection; detecting it doesn't
		// change correctness here (the portable batched path below always
		// runs), only documents that a faster path exists for this driver.
		_ = columns
	}

	return batchInsert(db, f, opts.Table, columns, opts.BatchSize)
}

func supportsBulkInsert(db *sql.DB) bool {
	conn, err := db.Conn(context.Background())
	if err != nil {
		return false
	}
	defer conn.Close()
	var ok bool
	conn.Raw(func(driverConn any) error {
		_, ok = driverConn.(sqlexp.BulkInsert)
		return nil
	})
	return ok
}

func batchInsert(db *sql.DB, f *frame.Frame[int, string], table string, columns []string, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 500
	}
	tx, err := db.Begin()
	if err != nil {
		return engineerrors.WrapIO("sql.Write", err)
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(columns, ","), strings.Join(placeholders, ","))
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return engineerrors.WrapIO("sql.Write", err)
	}
	defer stmt.Close()

	count := 0
	for _, rowKey := range f.RowIndex().Keys() {
		args := make([]any, len(columns))
		for i, col := range columns {
			v, err := f.GetValue(rowKey, col)
			if err != nil {
				v = nil
			}
			args[i] = v
		}
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return engineerrors.WrapIO("sql.Write", err)
		}
		count++
		if count%batchSize == 0 {
			if err := tx.Commit(); err != nil {
				return engineerrors.WrapIO("sql.Write", err)
			}
			tx, err = db.Begin()
			if err != nil {
				return engineerrors.WrapIO("sql.Write", err)
			}
			stmt, err = tx.Prepare(query)
			if err != nil {
				tx.Rollback()
				return engineerrors.WrapIO("sql.Write", err)
			}
		}
	}
	return tx.Commit()
}

func codeForSQLType(ct *sql.ColumnType) typecode.Code {
	switch strings.ToUpper(ct.DatabaseTypeName()) {
	case "INT", "INTEGER", "INT4", "SERIAL", "SMALLINT":
		return typecode.Int32
	case "BIGINT", "INT8":
		return typecode.Int64
	case "FLOAT", "DOUBLE", "REAL", "FLOAT8", "DECIMAL", "NUMERIC", "MONEY":
		return typecode.Float64
	case "BOOL", "BOOLEAN", "BIT":
		return typecode.Bool
	case "DATE":
		return typecode.Date
	case "DATETIME", "DATETIME2", "TIMESTAMP":
		return typecode.DateTimeLocal
	default:
		return typecode.String
	}
}

func normalizeSQLValue(code typecode.Code, v any) any {
	if v == nil {
		return nil
	}
	switch code {
	case typecode.Int32:
		switch n := v.(type) {
		case int64:
			return int32(n)
		case int32:
			return n
		}
	case typecode.Int64:
		if n, ok := v.(int64); ok {
			return n
		}
	case typecode.Float64, typecode.Currency:
		switch n := v.(type) {
		case float64:
			return n
		case []byte:
			var f float64
			fmt.Sscanf(string(n), "%g", &f)
			return f
		}
	case typecode.Bool:
		if b, ok := v.(bool); ok {
			return b
		}
	case typecode.Date:
		if t, ok := v.(time.Time); ok {
			return civil.DateOf(t)
		}
	case typecode.DateTimeLocal:
		if t, ok := v.(time.Time); ok {
			return civil.DateTimeOf(t)
		}
	default:
		switch s := v.(type) {
		case string:
			return s
		case []byte:
			return string(s)
		default:
			return fmt.Sprintf("%v", v)
		}
	}
	return nil
}

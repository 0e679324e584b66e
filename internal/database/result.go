// internal/database/result.go
//
// Statement execution and result normalisation.
//
// Context
// -------
// Row-returning statements (SELECT, SHOW, DESCRIBE, EXPLAIN, WITH) are run
// through QueryxContext and scanned into one map per row.  Everything else
// goes through ExecContext so the driver can report the last insert id and
// the affected-row count.
//
// Named bindings are compiled only when bindings are given.  A statement
// without bindings reaches the driver verbatim, so colons inside string
// literals ('%H:%i', 'Re: Dune') are safe there.  With bindings, sqlx treats
// every :word as a parameter; write a literal colon as "::".
//
// MySQL returns most text-protocol values as []byte.  These are turned into
// strings, except values of BIT columns, which arrive as one raw byte and
// become integers so boolean columns read back cleanly.
package database

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

// Result holds the outcome of one statement.
type Result struct {
	Columns []string
	Rows    []map[string]any

	lastInsertID int64
	affectedRows int64
}

// LastInsertID returns the id generated by an INSERT, or 0.
func (r *Result) LastInsertID() int64 { return r.lastInsertID }

// AffectedRows returns the affected-row count of a write statement.  It is
// -1 when the driver could not report one.
func (r *Result) AffectedRows() int64 { return r.affectedRows }

// NewResult builds a Result by hand.  Used by fakes in other packages' tests.
func NewResult(columns []string, rows []map[string]any, lastInsertID, affectedRows int64) *Result {
	return &Result{
		Columns:      columns,
		Rows:         rows,
		lastInsertID: lastInsertID,
		affectedRows: affectedRows,
	}
}

func execute(ctx context.Context, ext sqlx.ExtContext, query string, bindings map[string]any) (*Result, error) {
	q, args := query, []any(nil)
	if len(bindings) > 0 {
		var err error
		q, args, err = sqlx.Named(query, bindings)
		if err != nil {
			return nil, errors.Wrap(err, "bind named parameters")
		}
		q = ext.Rebind(q)
	}

	if returnsRows(q) {
		return queryRows(ctx, ext, q, args)
	}

	res, err := ext.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "exec")
	}

	out := &Result{affectedRows: -1}
	if id, err := res.LastInsertId(); err == nil {
		out.lastInsertID = id
	}
	if n, err := res.RowsAffected(); err == nil {
		out.affectedRows = n
	}
	return out, nil
}

func queryRows(ctx context.Context, ext sqlx.ExtContext, q string, args []any) (*Result, error) {
	rows, err := ext.QueryxContext(ctx, q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "columns")
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrap(err, "column types")
	}
	bit := make(map[string]bool, len(types))
	for i, ct := range types {
		if strings.EqualFold(ct.DatabaseTypeName(), "BIT") {
			bit[cols[i]] = true
		}
	}

	out := &Result{Columns: cols, Rows: make([]map[string]any, 0, 8), affectedRows: -1}
	for rows.Next() {
		row := make(map[string]any, len(cols))
		if err := rows.MapScan(row); err != nil {
			return nil, errors.Wrap(err, "scan")
		}
		for k, v := range row {
			row[k] = normalise(v, bit[k])
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "rows")
	}
	out.affectedRows = int64(len(out.Rows))
	return out, nil
}

// normalise converts driver bytes.  Only a BIT column's single byte becomes
// an integer; the same byte in a text column stays a string.
func normalise(v any, bit bool) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if bit && len(b) == 1 {
		return int64(b[0])
	}
	return string(b)
}

// returnsRows inspects the leading keyword of q.
func returnsRows(q string) bool {
	q = strings.TrimLeft(q, " \t\r\n(")
	end := strings.IndexAny(q, " \t\r\n(")
	if end == -1 {
		end = len(q)
	}
	switch strings.ToUpper(q[:end]) {
	case "SELECT", "SHOW", "DESCRIBE", "DESC", "EXPLAIN", "WITH":
		return true
	default:
		return false
	}
}

// internal/entity/table.go
//
// Schema probes and DDL.
//
// Context
// -------
// TableExists asks MySQL directly.  CreateTable derives column types from
// each field's kind and issues CREATE TABLE, or CREATE OR REPLACE VIEW for
// views.  Identifiers are always backtick-quoted.
//
//------------------------------------------------------------------------------

package entity

import (
	"context"
	"strings"
)

// TableExists probes for e's table (or view).
func (s *Store) TableExists(ctx context.Context, e Entity) bool {
	table := Table(e)
	res, err := s.db.Execute(ctx, "SHOW TABLES LIKE :tableName",
		map[string]any{"tableName": table})
	if err != nil {
		s.fail(table, "show_tables", err)
		return false
	}
	return len(res.Rows) > 0
}

// CreateTable creates e's table, or replaces its view when e is a View.
// An entity with no declared columns is rejected without a query.
func (s *Store) CreateTable(ctx context.Context, e Entity) bool {
	ss := slots(e)
	if len(ss) == 0 {
		return false
	}

	table := Table(e)
	var q string
	if v, ok := e.(View); ok {
		q = "CREATE OR REPLACE VIEW " + quoteIdent(table) + " AS " + v.ViewDefinition()
	} else {
		defs := make([]string, 0, len(ss)+1)
		defs = append(defs, quoteIdent(idColumn)+" INT NOT NULL AUTO_INCREMENT PRIMARY KEY")
		for _, sl := range ss {
			null := " NOT NULL"
			if sl.nullable {
				null = " NULL"
			}
			defs = append(defs, quoteIdent(sl.name)+" "+sl.kind.SQLType()+null)
		}
		q = "CREATE TABLE " + quoteIdent(table) + " (" + strings.Join(defs, ", ") + ") ENGINE=InnoDB"
	}

	if _, err := s.db.Execute(ctx, q, nil); err != nil {
		s.fail(table, "create", err)
		return false
	}
	return true
}

// quoteIdent wraps name in backticks, doubling embedded ones, so a hostile
// TableName override cannot break out of the identifier.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

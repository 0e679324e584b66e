// internal/entity/store.go
//
// CRUD over a database.Executor.
//
// Context
// -------
// Store turns entities into parameterised SQL.  One method call issues at
// most one statement and never opens a transaction of its own.  To run
// several calls atomically, open a transaction on the Database and bind a
// Store to it with WithExecutor.
//
// Failure model
// -------------
// A failed statement is not an error for the caller.  Save and Delete
// return false, lookups return nil, List returns an empty slice, and
// Tally returns 0.  The cause is logged at WARN and counted in
// peneus_entity_failures_total so operators still see it.
package entity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/metrics"
)

// Query narrows Find-style lookups.  Zero values mean "not provided".
// Where is a raw SQL condition; pass user input through Bindings only.
// When Bindings is non-empty a literal colon in Where must be written "::".
type Query struct {
	Where    string
	Bindings map[string]any
	OrderBy  string
	Limit    int
	Offset   int
}

// Store executes entity persistence against one Executor.
type Store struct {
	db  database.Executor
	log *zap.SugaredLogger
}

// NewStore binds a Store to db.  A nil logger discards failure logs.
func NewStore(db database.Executor, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{db: db, log: log}
}

// WithExecutor returns a Store sharing s's logger but running on db,
// typically a transaction handle.
func (s *Store) WithExecutor(db database.Executor) *Store {
	return &Store{db: db, log: s.log}
}

/*──────────────────────────── writes ──────────────────────────────────────*/

// Save inserts e when its id is 0 and updates it otherwise.
func (s *Store) Save(ctx context.Context, e Entity) bool {
	if e.base().ID == 0 {
		return s.insert(ctx, e)
	}
	return s.update(ctx, e)
}

func (s *Store) insert(ctx context.Context, e Entity) bool {
	cols := Columns(e)[1:]
	if len(cols) == 0 {
		return false
	}
	binds := make([]string, len(cols))
	for i, c := range cols {
		binds[i] = ":" + c
	}

	table := Table(e)
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(binds, ", "))

	res, err := s.db.Execute(ctx, q, values(e))
	if err != nil {
		s.fail(table, "insert", err)
		return false
	}
	e.base().ID = res.LastInsertID()
	return true
}

// update treats an affected-row count of -1 as the only failure signal.
// Zero affected rows means the statement ran but changed nothing.
func (s *Store) update(ctx context.Context, e Entity) bool {
	cols := Columns(e)[1:]
	if len(cols) == 0 {
		return false
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = c + " = :" + c
	}

	table := Table(e)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = :id", table, strings.Join(sets, ", "))

	binds := values(e)
	binds[idColumn] = e.base().ID

	res, err := s.db.Execute(ctx, q, binds)
	if err != nil {
		s.fail(table, "update", err)
		return false
	}
	if res.AffectedRows() == -1 {
		s.fail(table, "update", fmt.Errorf("affected row count unavailable"))
		return false
	}
	return true
}

// Delete removes e's row.  It succeeds only when exactly one row went away,
// in which case e's id is reset to 0.  A transient entity is rejected
// without touching the database.
func (s *Store) Delete(ctx context.Context, e Entity) bool {
	id := e.base().ID
	if id == 0 {
		return false
	}
	table := Table(e)
	res, err := s.db.Execute(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = :id", table),
		map[string]any{idColumn: id})
	if err != nil {
		s.fail(table, "delete", err)
		return false
	}
	if res.AffectedRows() != 1 {
		return false
	}
	e.base().ID = 0
	return true
}

/*──────────────────────────── reads ───────────────────────────────────────*/

// Lookup returns the entity of type f with the given id, or nil.
func (s *Store) Lookup(ctx context.Context, f Factory, id int64) Entity {
	return s.First(ctx, f, Query{
		Where:    "id = :id",
		Bindings: map[string]any{idColumn: id},
	})
}

// First returns the first entity matching q, or nil.
func (s *Store) First(ctx context.Context, f Factory, q Query) Entity {
	q.Limit, q.Offset = 1, 0
	list := s.List(ctx, f, q)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// List returns every entity matching q.  The slice is never nil.
func (s *Store) List(ctx context.Context, f Factory, q Query) []Entity {
	table := Table(f())
	res, err := s.db.Execute(ctx, "SELECT * FROM "+table+clauses(q), q.Bindings)
	if err != nil {
		s.fail(table, "select", err)
		return []Entity{}
	}

	out := make([]Entity, 0, len(res.Rows))
	for _, row := range res.Rows {
		e, err := New(f, row)
		if err != nil {
			s.fail(table, "populate", err)
			return []Entity{}
		}
		out = append(out, e)
	}
	return out
}

// Tally counts the rows matching q.Where.  Ordering and paging are ignored.
func (s *Store) Tally(ctx context.Context, f Factory, q Query) int64 {
	table := Table(f())
	sql := "SELECT COUNT(*) FROM " + table
	if q.Where != "" {
		sql += " WHERE " + q.Where
	}
	res, err := s.db.Execute(ctx, sql, q.Bindings)
	if err != nil {
		s.fail(table, "count", err)
		return 0
	}
	if len(res.Rows) == 0 || len(res.Columns) == 0 {
		return 0
	}
	v, ok := res.Rows[0][res.Columns[0]]
	if !ok {
		return 0
	}
	n, ok := toInt(v)
	if !ok {
		return 0
	}
	return n.(int64)
}

func clauses(q Query) string {
	var b strings.Builder
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	if q.OrderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}
	if q.Offset > 0 {
		fmt.Fprintf(&b, " OFFSET %d", q.Offset)
	}
	return b.String()
}

func (s *Store) fail(table, op string, err error) {
	metrics.EntityFailuresTotal.WithLabelValues(table, op).Inc()
	s.log.Warnw("entity persistence failed", "table", table, "op", op, "err", err)
}

/*──────────────────────────── typed helpers ───────────────────────────────*/

// Ptr constrains P to a pointer to an entity struct T.
type Ptr[T any] interface {
	*T
	Entity
}

// FactoryOf returns a Factory producing empty *T values.
func FactoryOf[T any, P Ptr[T]]() Factory {
	return func() Entity { return P(new(T)) }
}

// FindByID returns the T with the given id, or nil.
func FindByID[T any, P Ptr[T]](ctx context.Context, s *Store, id int64) P {
	if e := s.Lookup(ctx, FactoryOf[T, P](), id); e != nil {
		return e.(P)
	}
	return nil
}

// FindFirst returns the first T matching q, or nil.
func FindFirst[T any, P Ptr[T]](ctx context.Context, s *Store, q Query) P {
	if e := s.First(ctx, FactoryOf[T, P](), q); e != nil {
		return e.(P)
	}
	return nil
}

// Find returns every T matching q.  The slice is never nil.
func Find[T any, P Ptr[T]](ctx context.Context, s *Store, q Query) []P {
	list := s.List(ctx, FactoryOf[T, P](), q)
	out := make([]P, len(list))
	for i, e := range list {
		out[i] = e.(P)
	}
	return out
}

// Count counts the T rows matching q.
func Count[T any, P Ptr[T]](ctx context.Context, s *Store, q Query) int64 {
	return s.Tally(ctx, FactoryOf[T, P](), q)
}

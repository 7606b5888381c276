package sql

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
)

// State is the lifecycle state of a query.
type State uint8

const (
	// StateUnbound is the zero state: no session or table.
	StateUnbound State = iota
	// StateConfigured means the SQL may change before the next Prepare.
	StateConfigured
	// StatePrepared means a statement exists for the current SQL with
	// every value bound.
	StatePrepared
	// StateExecuted means the prepared statement has run at least once.
	StateExecuted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateConfigured:
		return "configured"
	case StatePrepared:
		return "prepared"
	case StateExecuted:
		return "executed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// generated is the memoized output of a generator.
type generated struct {
	sql   string
	args  []BindArg
	slots map[int]int
	err   error
	ok    bool
}

// query holds what every query kind shares: the session, the table, the
// where clause, caller-bound values and the prepared statement.
//
// All state changes go through mutate, which drops the memoized SQL and the
// statement. Only ToSQL and Prepare move the query forward again.
type query struct {
	session Session
	table   string
	where   *Where
	state   State
	write   func(*Builder)

	memo  generated
	bound map[int]Value
	named map[string]Value
	stmt  Statement
	err   error
}

func (q *query) init(s Session, table string, write func(*Builder)) error {
	if s == nil {
		return sqlkit.DatabaseErrorf("query", "nil session")
	}
	if table == "" {
		return sqlkit.DatabaseErrorf("query", "empty table name")
	}
	q.session = s
	q.table = table
	q.where = &Where{}
	q.write = write
	q.bound = make(map[int]Value)
	q.named = make(map[string]Value)
	q.state = StateConfigured
	return nil
}

// mutate applies fn and invalidates everything derived from the query.
func (q *query) mutate(fn func()) {
	fn()
	q.memo = generated{}
	q.closeStmt()
	if q.state != StateUnbound {
		q.state = StateConfigured
	}
}

func (q *query) closeStmt() {
	if q.stmt == nil {
		return
	}
	if err := q.stmt.Close(); err != nil {
		q.session.Logger().Warn("closing statement", "table", q.table, "error", err)
	}
	q.stmt = nil
}

// fail records the first error raised by a fluent mutator.
func (q *query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

// Table returns the table the query operates on.
func (q *query) Table() string { return q.table }

// State returns the lifecycle state.
func (q *query) State() State { return q.state }

// Session returns the session the query runs on.
func (q *query) Session() Session { return q.session }

// Err returns the first error recorded by a mutator.
func (q *query) Err() error { return q.err }

// WhereClause returns a copy of the where clause.
func (q *query) WhereClause() *Where { return q.where.Clone() }

func (q *query) setWhere(w *Where) {
	q.mutate(func() { q.where = w.Clone() })
}

// offset returns the index after which generated where arguments start.
func (q *query) offset(params int) int {
	top := params
	for i := range q.bound {
		top = max(top, i)
	}
	return top
}

// GenerateSQL renders the query. It does not touch the memo.
func (q *query) GenerateSQL() (string, error) {
	g := q.generate()
	return g.sql, g.err
}

func (q *query) generate() generated {
	if q.state == StateUnbound {
		return generated{err: sqlkit.DatabaseErrorf("query", "query is not bound to a session"), ok: true}
	}
	b := NewBuilder(q.session.BindParam)
	q.write(b)
	return generated{sql: b.String(), args: b.Args(), slots: b.Slots(), err: errors.Join(q.err, b.Err()), ok: true}
}

// ToSQL returns the memoized SQL, generating it if the query changed since
// the last call.
func (q *query) ToSQL() (string, error) {
	if !q.memo.ok {
		q.memo = q.generate()
	}
	return q.memo.sql, q.memo.err
}

// Args returns every value bound at execution, explicit binds and
// generated where arguments, ordered by index.
func (q *query) Args() ([]BindArg, error) {
	if _, err := q.ToSQL(); err != nil {
		return nil, err
	}
	vals, err := q.values()
	if err != nil {
		return nil, err
	}
	args := make([]BindArg, 0, len(vals))
	for _, i := range slices.Sorted(maps.Keys(vals)) {
		args = append(args, BindArg{Index: i, Value: vals[i]})
	}
	return args, nil
}

// values merges explicit binds with the memoized generated arguments,
// keyed by placeholder index. On positional backends an explicit bind moves
// to the position its slot was emitted at.
func (q *query) values() (map[int]Value, error) {
	vals := make(map[int]Value, len(q.bound)+len(q.memo.args))
	for i, v := range q.bound {
		if pos, ok := q.memo.slots[i]; ok {
			i = pos
		}
		if _, dup := vals[i]; dup {
			return nil, sqlkit.NewBindingError(i, "parameter bound twice")
		}
		vals[i] = v
	}
	for _, a := range q.memo.args {
		if _, dup := vals[a.Index]; dup {
			return nil, sqlkit.NewBindingError(a.Index, "parameter bound twice")
		}
		vals[a.Index] = a.Value
	}
	return vals, nil
}

// Bind binds v at the 1-based index. v is anything ValueOf accepts.
func (q *query) Bind(index int, v any) error {
	if index <= 0 {
		return sqlkit.NewBindingError(index, "index must be positive")
	}
	if q.state == StateUnbound {
		return sqlkit.NewBindingError(index, "query is not bound to a session")
	}
	val, err := ValueOf(v)
	if err != nil {
		return &sqlkit.BindingError{Index: index, Reason: "unsupported value", Err: err}
	}
	q.mutate(func() { q.bound[index] = val })
	return nil
}

// BindNamed binds v to the :name parameter.
func (q *query) BindNamed(name string, v any) error {
	if q.state == StateUnbound || !q.session.Features().Has(dialect.NamedParams) {
		return sqlkit.NewNamedBindingError(name, "named parameters are not supported")
	}
	val, err := ValueOf(v)
	if err != nil {
		return &sqlkit.BindingError{Name: name, Reason: "unsupported value", Err: err}
	}
	q.mutate(func() { q.named[name] = val })
	return nil
}

// BindAll binds vs at indexes 1 to len(vs).
func (q *query) BindAll(vs ...any) error {
	for i, v := range vs {
		if err := q.Bind(i+1, v); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops bound values and the prepared statement.
func (q *query) Reset() {
	q.mutate(func() {
		clear(q.bound)
		clear(q.named)
	})
}

// Prepare creates the statement for the current SQL and binds every value
// in increasing index order, then named values by name. It is a no-op when
// the query is prepared and unchanged.
func (q *query) Prepare(ctx context.Context) error {
	if q.stmt != nil && q.state >= StatePrepared {
		return nil
	}
	text, err := q.ToSQL()
	if err != nil {
		return err
	}
	vals, err := q.values()
	if err != nil {
		return err
	}
	st, err := q.session.Prepare(ctx, text)
	if err != nil {
		return err
	}
	for _, i := range slices.Sorted(maps.Keys(vals)) {
		if err := vals[i].BindTo(st, i); err != nil {
			return errors.Join(err, st.Close())
		}
	}
	for _, name := range slices.Sorted(maps.Keys(q.named)) {
		if err := st.BindNamed(name, q.named[name]); err != nil {
			return errors.Join(err, st.Close())
		}
	}
	q.stmt = st
	q.state = StatePrepared
	return nil
}

func (q *query) exec(ctx context.Context) (Result, error) {
	if err := q.Prepare(ctx); err != nil {
		return Result{}, err
	}
	res, err := q.stmt.Exec(ctx)
	if err != nil {
		return Result{}, err
	}
	q.state = StateExecuted
	return res, nil
}

func (q *query) rows(ctx context.Context) (Resultset, error) {
	if err := q.Prepare(ctx); err != nil {
		return nil, err
	}
	rs, err := q.stmt.Query(ctx)
	if err != nil {
		return nil, err
	}
	q.state = StateExecuted
	return rs, nil
}

// Close releases the prepared statement.
func (q *query) Close() error {
	if q.stmt == nil {
		return nil
	}
	err := q.stmt.Close()
	q.stmt = nil
	if q.state > StateConfigured {
		q.state = StateConfigured
	}
	return err
}

// writeWhere renders " WHERE <clause>" with arguments numbered after
// params column placeholders and any explicitly bound index.
func (q *query) writeWhere(b *Builder, params int) {
	if q.where.IsEmpty() {
		return
	}
	b.SetOffset(q.offset(params))
	b.WriteString(" WHERE ")
	q.where.Render(b)
}

// writeParams writes the placeholders for n column values.
func (q *query) writeParams(b *Builder, n int) {
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(",")
		}
		b.Param(i)
	}
}

package sql

import (
	"context"
	"errors"
	"maps"
	"slices"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// InsertQuery generates and runs INSERT statements.
//
//	q, err := sql.NewInsert(sess, "users", "name", "email")
//	q.Values("a8m", "a8m@example.com")
//	res, err := q.Exec(ctx)
type InsertQuery struct {
	query
	columns   []string
	returning []string
	useNamed  bool
}

// NewInsert returns a query inserting into columns of table.
func NewInsert(s Session, table string, columns ...string) (*InsertQuery, error) {
	q := &InsertQuery{columns: slices.Clone(columns)}
	if err := q.init(s, table, q.write); err != nil {
		return nil, err
	}
	return q, nil
}

// InsertSchema returns a query inserting into columns of sch. No columns
// means every column that is not auto incremented. The primary keys are
// returned on backends supporting RETURNING.
func InsertSchema(s Session, sch *schema.Schema, columns ...string) (*InsertQuery, error) {
	if len(columns) == 0 {
		for _, c := range sch.Columns() {
			if !c.AutoIncrement {
				columns = append(columns, c.Name)
			}
		}
	}
	q, err := NewInsert(s, sch.TableName(), columns...)
	if err != nil {
		return nil, err
	}
	q.returning = sch.PrimaryKeys()
	return q, nil
}

// Columns returns a copy of the inserted columns.
func (q *InsertQuery) Columns() []string { return slices.Clone(q.columns) }

// SetColumns replaces the inserted columns.
func (q *InsertQuery) SetColumns(columns ...string) *InsertQuery {
	q.mutate(func() { q.columns = slices.Clone(columns) })
	return q
}

// Returning sets the columns returned on backends supporting RETURNING.
// The first one is reported as the insert id.
func (q *InsertQuery) Returning(columns ...string) *InsertQuery {
	q.mutate(func() { q.returning = slices.Clone(columns) })
	return q
}

// Values binds vs positionally to the columns.
func (q *InsertQuery) Values(vs ...any) *InsertQuery {
	if len(vs) != len(q.columns) {
		q.fail(sqlkit.NewBindingError(len(vs), "value count does not match column count"))
		return q
	}
	vals, err := valuesOf(vs)
	if err != nil {
		q.fail(err)
		return q
	}
	q.mutate(func() {
		q.useNamed = false
		clear(q.named)
		for i, v := range vals {
			q.bound[i+1] = v
		}
	})
	return q
}

// NamedValues sets the columns to the keys of m, sorted, and binds their
// values. Backends with named parameters receive :column placeholders,
// the others positional ones.
func (q *InsertQuery) NamedValues(m map[string]any) *InsertQuery {
	columns := slices.Sorted(maps.Keys(m))
	vals := make([]any, len(columns))
	for i, c := range columns {
		vals[i] = m[c]
	}
	converted, err := valuesOf(vals)
	if err != nil {
		q.fail(err)
		return q
	}
	if q.state == StateUnbound {
		q.fail(sqlkit.DatabaseErrorf("query", "query is not bound to a session"))
		return q
	}
	named := q.session.Features().Has(dialect.NamedParams)
	q.mutate(func() {
		q.columns = columns
		q.useNamed = named
		clear(q.bound)
		clear(q.named)
		for i, c := range columns {
			if named {
				q.named[c] = converted[i]
			} else {
				q.bound[i+1] = converted[i]
			}
		}
	})
	return q
}

func valuesOf(vs []any) ([]Value, error) {
	vals := make([]Value, len(vs))
	for i, v := range vs {
		val, err := ValueOf(v)
		if err != nil {
			return nil, &sqlkit.BindingError{Index: i + 1, Reason: "unsupported value", Err: err}
		}
		vals[i] = val
	}
	return vals, nil
}

// returns reports whether the generated SQL carries a RETURNING clause.
func (q *InsertQuery) returns() bool {
	return len(q.returning) > 0 && q.session.Features().Has(dialect.Returning)
}

func (q *InsertQuery) write(b *Builder) {
	b.WriteString("INSERT INTO ").WriteString(q.table)
	switch {
	case len(q.columns) == 0 && q.session.Dialect() == dialect.MySQL:
		b.WriteString("() VALUES()")
	case len(q.columns) == 0:
		b.WriteString(" DEFAULT VALUES")
	default:
		b.WriteString("(").Join(",", q.columns...).WriteString(") VALUES(")
		if q.useNamed {
			for i, c := range q.columns {
				if i > 0 {
					b.WriteString(",")
				}
				b.Named(c)
			}
		} else {
			q.writeParams(b, len(q.columns))
		}
		b.WriteString(")")
	}
	if q.returns() {
		b.WriteString(" RETURNING ").Join(",", q.returning...)
	}
	b.WriteString(";")
}

// Exec runs the insert. With a RETURNING clause the first returned column
// is reported as the insert id.
func (q *InsertQuery) Exec(ctx context.Context) (Result, error) {
	if !q.returns() {
		return q.exec(ctx)
	}
	rs, err := q.rows(ctx)
	if err != nil {
		return Result{}, err
	}
	res, err := readReturning(rs)
	return res, errors.Join(err, rs.Close())
}

func readReturning(rs Resultset) (Result, error) {
	var res Result
	for rs.Next() {
		res.RowsAffected++
		if res.RowsAffected > 1 {
			continue
		}
		row, err := rs.Row()
		if err != nil {
			return res, err
		}
		c, err := row.Column(0)
		if err != nil {
			return res, err
		}
		v, err := c.Value()
		if err != nil {
			return res, err
		}
		// Non-integer keys (uuid, text) have no insert id.
		if id, err := v.Int64(); err == nil {
			res.LastInsertID = id
		}
	}
	return res, rs.Err()
}

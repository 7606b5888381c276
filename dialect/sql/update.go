package sql

import (
	"context"
	"slices"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// UpdateQuery generates and runs UPDATE statements. Column values take
// placeholders 1 to n; where arguments are numbered after them.
//
//	q, err := sql.NewUpdate(sess, "users", "name")
//	q.Values("a8m").Where(sql.EQ("id", 1))
type UpdateQuery struct {
	query
	columns []string
}

// NewUpdate returns a query setting columns of table.
func NewUpdate(s Session, table string, columns ...string) (*UpdateQuery, error) {
	q := &UpdateQuery{columns: slices.Clone(columns)}
	if err := q.init(s, table, q.write); err != nil {
		return nil, err
	}
	return q, nil
}

// UpdateSchema returns a query setting columns of sch. No columns means
// every column that is not a primary key.
func UpdateSchema(s Session, sch *schema.Schema, columns ...string) (*UpdateQuery, error) {
	if len(columns) == 0 {
		for _, c := range sch.Columns() {
			if !c.PrimaryKey {
				columns = append(columns, c.Name)
			}
		}
	}
	return NewUpdate(s, sch.TableName(), columns...)
}

// Columns returns a copy of the updated columns.
func (q *UpdateQuery) Columns() []string { return slices.Clone(q.columns) }

// SetColumns replaces the updated columns.
func (q *UpdateQuery) SetColumns(columns ...string) *UpdateQuery {
	q.mutate(func() { q.columns = slices.Clone(columns) })
	return q
}

// Set appends col and binds v to it.
func (q *UpdateQuery) Set(col string, v any) *UpdateQuery {
	val, err := ValueOf(v)
	if err != nil {
		q.fail(&sqlkit.BindingError{Name: col, Reason: "unsupported value", Err: err})
		return q
	}
	q.mutate(func() {
		q.columns = append(q.columns, col)
		q.bound[len(q.columns)] = val
	})
	return q
}

// Values binds vs positionally to the columns.
func (q *UpdateQuery) Values(vs ...any) *UpdateQuery {
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
		for i, v := range vals {
			q.bound[i+1] = v
		}
	})
	return q
}

// Where replaces the where clause with a copy of w.
func (q *UpdateQuery) Where(w *Where) *UpdateQuery {
	q.setWhere(w)
	return q
}

// WhereBuilder returns a builder editing the where clause in place.
func (q *UpdateQuery) WhereBuilder() *WhereBuilder { return &WhereBuilder{q: &q.query} }

func (q *UpdateQuery) write(b *Builder) {
	if len(q.columns) == 0 {
		b.AddError(sqlkit.DatabaseErrorf("query", "update of %s sets no columns", q.table))
	}
	b.WriteString("UPDATE ").WriteString(q.table).WriteString(" SET ")
	for i, c := range q.columns {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString(c).WriteString("=").Param(i + 1)
	}
	q.writeWhere(b, len(q.columns))
	b.WriteString(";")
}

// Exec runs the update.
func (q *UpdateQuery) Exec(ctx context.Context) (Result, error) {
	return q.exec(ctx)
}

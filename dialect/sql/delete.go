package sql

import (
	"context"

	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// DeleteQuery generates and runs DELETE statements.
type DeleteQuery struct {
	query
}

// NewDelete returns a query deleting from table.
func NewDelete(s Session, table string) (*DeleteQuery, error) {
	q := &DeleteQuery{}
	if err := q.init(s, table, q.write); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteSchema returns a query deleting from the table of sch.
func DeleteSchema(s Session, sch *schema.Schema) (*DeleteQuery, error) {
	return NewDelete(s, sch.TableName())
}

// Where replaces the where clause with a copy of w.
func (q *DeleteQuery) Where(w *Where) *DeleteQuery {
	q.setWhere(w)
	return q
}

// WhereBuilder returns a builder editing the where clause in place.
func (q *DeleteQuery) WhereBuilder() *WhereBuilder { return &WhereBuilder{q: &q.query} }

func (q *DeleteQuery) write(b *Builder) {
	b.WriteString("DELETE FROM ").WriteString(q.table)
	q.writeWhere(b, 0)
	b.WriteString(";")
}

// Exec runs the delete. A delete without a where clause removes every row
// of the table; it runs as asked and is logged as a warning.
func (q *DeleteQuery) Exec(ctx context.Context) (Result, error) {
	if q.state != StateUnbound && q.where.IsEmpty() {
		q.session.Logger().WarnContext(ctx, "delete without where clause affects the whole table", "table", q.table)
	}
	return q.exec(ctx)
}

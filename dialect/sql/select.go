package sql

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// JoinType is the kind of a join clause.
type JoinType uint8

const (
	JoinNone JoinType = iota
	JoinInner
	JoinLeft
	JoinRight
	JoinNatural
	JoinFullOuter
	JoinCross
)

// String returns the join keyword.
func (j JoinType) String() string {
	switch j {
	case JoinNone:
		return "JOIN"
	case JoinInner:
		return "INNER JOIN"
	case JoinLeft:
		return "LEFT JOIN"
	case JoinRight:
		return "RIGHT JOIN"
	case JoinNatural:
		return "NATURAL JOIN"
	case JoinFullOuter:
		return "FULL OUTER JOIN"
	case JoinCross:
		return "CROSS JOIN"
	default:
		return fmt.Sprintf("JoinType(%d)", j)
	}
}

// needsOn reports whether the join requires an ON clause. NATURAL and
// CROSS joins take none.
func (j JoinType) needsOn() bool {
	return j != JoinNatural && j != JoinCross
}

// feature returns the backend feature the join depends on, or None.
func (j JoinType) feature() dialect.Feature {
	switch j {
	case JoinRight:
		return dialect.RightJoin
	case JoinFullOuter:
		return dialect.FullOuterJoin
	default:
		return dialect.None
	}
}

// UnionType selects UNION ALL or UNION (DISTINCT) semantics.
type UnionType uint8

const (
	UnionAll UnionType = iota
	UnionDistinct
)

func (u UnionType) String() string {
	if u == UnionDistinct {
		return "UNION"
	}
	return "UNION ALL"
}

type join struct {
	typ   JoinType
	table string
	on    *Where
}

// SelectQuery generates and runs SELECT statements.
//
//	q, err := sql.NewSelect(sess, "users", "id", "name")
//	q.Where(sql.GT("age", 18)).OrderBy("name").Limit(10)
//	rs, err := q.Execute(ctx)
type SelectQuery struct {
	query
	columns   []string
	joins     []join
	groupBy   []string
	having    *Where
	orderBy   []string
	limit     *int
	offsetN   *int
	union     *SelectQuery
	unionType UnionType
}

// NewSelect returns a query selecting columns from table. No columns
// selects "*".
func NewSelect(s Session, table string, columns ...string) (*SelectQuery, error) {
	q := &SelectQuery{columns: slices.Clone(columns), having: &Where{}}
	if err := q.init(s, table, q.write); err != nil {
		return nil, err
	}
	return q, nil
}

// SelectSchema returns a query selecting every column of sch.
func SelectSchema(s Session, sch *schema.Schema) (*SelectQuery, error) {
	return NewSelect(s, sch.TableName(), sch.ColumnNames()...)
}

// Columns returns a copy of the selected columns.
func (q *SelectQuery) Columns() []string { return slices.Clone(q.columns) }

// Select replaces the selected columns.
func (q *SelectQuery) Select(columns ...string) *SelectQuery {
	q.mutate(func() { q.columns = slices.Clone(columns) })
	return q
}

// From replaces the table.
func (q *SelectQuery) From(table string) *SelectQuery {
	if table == "" {
		q.fail(sqlkit.DatabaseErrorf("query", "empty table name"))
		return q
	}
	q.mutate(func() { q.table = table })
	return q
}

// Join appends a join clause. on must be empty for NATURAL and CROSS joins
// and set for the others.
func (q *SelectQuery) Join(typ JoinType, table string, on *Where) *SelectQuery {
	switch {
	case table == "":
		q.fail(sqlkit.DatabaseErrorf("query", "join with empty table name"))
		return q
	case typ.needsOn() && on.IsEmpty():
		q.fail(sqlkit.DatabaseErrorf("query", "%s %s requires an ON clause", typ, table))
		return q
	case !typ.needsOn() && !on.IsEmpty():
		q.fail(sqlkit.DatabaseErrorf("query", "%s %s takes no ON clause", typ, table))
		return q
	}
	q.mutate(func() { q.joins = append(q.joins, join{typ: typ, table: table, on: on.Clone()}) })
	return q
}

// InnerJoin appends an INNER JOIN.
func (q *SelectQuery) InnerJoin(table string, on *Where) *SelectQuery {
	return q.Join(JoinInner, table, on)
}

// LeftJoin appends a LEFT JOIN.
func (q *SelectQuery) LeftJoin(table string, on *Where) *SelectQuery {
	return q.Join(JoinLeft, table, on)
}

// Where replaces the where clause with a copy of w.
func (q *SelectQuery) Where(w *Where) *SelectQuery {
	q.setWhere(w)
	return q
}

// WhereBuilder returns a builder editing the where clause in place.
func (q *SelectQuery) WhereBuilder() *WhereBuilder { return &WhereBuilder{q: &q.query} }

// GroupBy replaces the GROUP BY columns.
func (q *SelectQuery) GroupBy(columns ...string) *SelectQuery {
	q.mutate(func() { q.groupBy = slices.Clone(columns) })
	return q
}

// Having replaces the HAVING clause.
func (q *SelectQuery) Having(w *Where) *SelectQuery {
	q.mutate(func() { q.having = w.Clone() })
	return q
}

// OrderBy replaces the ORDER BY terms, e.g. "name", "age DESC".
func (q *SelectQuery) OrderBy(terms ...string) *SelectQuery {
	q.mutate(func() { q.orderBy = slices.Clone(terms) })
	return q
}

// Limit sets the LIMIT. A negative n removes it.
func (q *SelectQuery) Limit(n int) *SelectQuery {
	q.mutate(func() { q.limit = nonNegative(n) })
	return q
}

// Offset sets the OFFSET. A negative n removes it.
func (q *SelectQuery) Offset(n int) *SelectQuery {
	q.mutate(func() { q.offsetN = nonNegative(n) })
	return q
}

func nonNegative(n int) *int {
	if n < 0 {
		return nil
	}
	return &n
}

// Union appends other with UNION ALL or UNION semantics. The where
// arguments of other are numbered after those of q. Values bound
// explicitly on other are not carried over: generating the united query
// fails with a BindingError while other holds any.
func (q *SelectQuery) Union(other *SelectQuery, typ UnionType) *SelectQuery {
	switch {
	case other == nil:
		q.mutate(func() { q.union = nil })
		return q
	case other == q:
		q.fail(sqlkit.DatabaseErrorf("query", "select cannot be united with itself"))
		return q
	}
	q.mutate(func() { q.union, q.unionType = other, typ })
	return q
}

func (q *SelectQuery) write(b *Builder) {
	b.SetOffset(q.offset(0))
	q.writeSelect(b, map[*SelectQuery]bool{})
	b.WriteString(";")
}

func (q *SelectQuery) writeSelect(b *Builder, seen map[*SelectQuery]bool) {
	seen[q] = true
	b.WriteString("SELECT ")
	if len(q.columns) == 0 {
		b.WriteString("*")
	} else {
		b.Join(",", q.columns...)
	}
	b.WriteString(" FROM ").WriteString(q.table)
	for _, j := range q.joins {
		if f := j.typ.feature(); f != dialect.None && !q.session.Features().Has(f) {
			q.session.Logger().Warn("omitting join unsupported by backend",
				"join", j.typ.String(), "table", j.table, "dialect", q.session.Dialect())
			continue
		}
		b.WriteString(" ").WriteString(j.typ.String()).WriteString(" ").WriteString(j.table)
		if j.typ.needsOn() {
			b.WriteString(" ON ")
			j.on.Render(b)
		}
	}
	if !q.where.IsEmpty() {
		b.WriteString(" WHERE ")
		q.where.Render(b)
	}
	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY ").Join(",", q.groupBy...)
	}
	if !q.having.IsEmpty() {
		b.WriteString(" HAVING ")
		q.having.Render(b)
	}
	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY ").Join(",", q.orderBy...)
	}
	if q.limit != nil {
		b.WriteString(" LIMIT ").WriteString(strconv.Itoa(*q.limit))
	}
	if q.offsetN != nil {
		b.WriteString(" OFFSET ").WriteString(strconv.Itoa(*q.offsetN))
	}
	if q.union != nil {
		if seen[q.union] {
			b.AddError(sqlkit.DatabaseErrorf("query", "union cycle on table %s", q.union.table))
			return
		}
		if len(q.union.bound) > 0 || len(q.union.named) > 0 {
			index := 0
			if len(q.union.bound) > 0 {
				index = slices.Min(slices.Collect(maps.Keys(q.union.bound)))
			}
			b.AddError(sqlkit.NewBindingError(index, "value bound on a united select"))
		}
		b.WriteString(" ").WriteString(q.unionType.String()).WriteString(" ")
		q.union.writeSelect(b, seen)
	}
}

// Execute runs the query and returns its rows.
func (q *SelectQuery) Execute(ctx context.Context) (Resultset, error) {
	return q.rows(ctx)
}

// Count returns the number of rows the query matches. The selected
// columns are swapped for COUNT(*) while it runs and restored afterwards,
// whatever the outcome. United selects are rejected.
func (q *SelectQuery) Count(ctx context.Context) (n int64, err error) {
	if q.union != nil {
		return 0, sqlkit.DatabaseErrorf("count", "count of united select on table %s", q.table)
	}
	saved := q.columns
	q.mutate(func() { q.columns = []string{"COUNT(*)"} })
	defer q.mutate(func() { q.columns = saved })

	rs, err := q.rows(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { err = errors.Join(err, rs.Close()) }()
	if !rs.Next() {
		// An OFFSET past the single count row leaves nothing to read.
		return 0, rs.Err()
	}
	row, err := rs.Row()
	if err != nil {
		return 0, err
	}
	c, err := row.Column(0)
	if err != nil {
		return 0, err
	}
	v, err := c.Value()
	if err != nil {
		return 0, err
	}
	return v.Int64()
}

// One returns the first row as an owned copy, or a RecordNotFoundError.
func (q *SelectQuery) One(ctx context.Context) (Row, error) {
	var found Row
	err := q.Each(ctx, func(r Row) error {
		vals, err := r.Values()
		if err != nil {
			return err
		}
		found = &row{names: r.Names(), types: rowTypes(r), vals: vals}
		return errStop
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, sqlkit.NewRecordNotFoundError(q.table, nil)
	}
	return found, nil
}

var errStop = errors.New("stop")

func rowTypes(r Row) []string {
	types := make([]string, r.Len())
	for i := range types {
		if c, err := r.Column(i); err == nil {
			types[i] = c.Type()
		}
	}
	return types
}

// Each runs the query and calls fn for every row. Rows passed to fn are
// valid only during the call unless the session caches rows.
func (q *SelectQuery) Each(ctx context.Context, fn func(Row) error) (err error) {
	rs, err := q.rows(ctx)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, rs.Close()) }()
	for rs.Next() {
		r, err := rs.Row()
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	return rs.Err()
}

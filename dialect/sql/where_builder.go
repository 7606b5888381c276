package sql

// WhereBuilder edits the where clause of the query it was obtained from.
// Every call goes through the query's state transition, so the generated
// SQL and any prepared statement are dropped.
//
//	q.WhereBuilder().Equals("status", "active").OrIn("role", "admin", "owner")
type WhereBuilder struct {
	q *query
}

func (wb *WhereBuilder) set(w *Where) *WhereBuilder {
	wb.q.mutate(func() { wb.q.where = w })
	return wb
}

func (wb *WhereBuilder) and(w *Where) *WhereBuilder {
	wb.q.mutate(func() { wb.q.where.And(w) })
	return wb
}

func (wb *WhereBuilder) or(w *Where) *WhereBuilder {
	wb.q.mutate(func() { wb.q.where.Or(w) })
	return wb
}

// Clause returns a copy of the current clause.
func (wb *WhereBuilder) Clause() *Where { return wb.q.where.Clone() }

// Clear removes the where clause.
func (wb *WhereBuilder) Clear() *WhereBuilder { return wb.set(&Where{}) }

// Equals replaces the clause with "col = v".
func (wb *WhereBuilder) Equals(col string, v any) *WhereBuilder { return wb.set(EQ(col, v)) }

// AndEquals appends "col = v" with AND.
func (wb *WhereBuilder) AndEquals(col string, v any) *WhereBuilder { return wb.and(EQ(col, v)) }

// OrEquals appends "col = v" with OR.
func (wb *WhereBuilder) OrEquals(col string, v any) *WhereBuilder { return wb.or(EQ(col, v)) }

// NotEquals replaces the clause with "col <> v".
func (wb *WhereBuilder) NotEquals(col string, v any) *WhereBuilder { return wb.set(NEQ(col, v)) }

// AndNotEquals appends "col <> v" with AND.
func (wb *WhereBuilder) AndNotEquals(col string, v any) *WhereBuilder { return wb.and(NEQ(col, v)) }

// OrNotEquals appends "col <> v" with OR.
func (wb *WhereBuilder) OrNotEquals(col string, v any) *WhereBuilder { return wb.or(NEQ(col, v)) }

// Like replaces the clause with "col LIKE pattern".
func (wb *WhereBuilder) Like(col, pattern string) *WhereBuilder { return wb.set(Like(col, pattern)) }

// AndLike appends "col LIKE pattern" with AND.
func (wb *WhereBuilder) AndLike(col, pattern string) *WhereBuilder { return wb.and(Like(col, pattern)) }

// OrLike appends "col LIKE pattern" with OR.
func (wb *WhereBuilder) OrLike(col, pattern string) *WhereBuilder { return wb.or(Like(col, pattern)) }

// In replaces the clause with "col IN (vs...)".
func (wb *WhereBuilder) In(col string, vs ...any) *WhereBuilder { return wb.set(In(col, vs...)) }

// AndIn appends "col IN (vs...)" with AND.
func (wb *WhereBuilder) AndIn(col string, vs ...any) *WhereBuilder { return wb.and(In(col, vs...)) }

// OrIn appends "col IN (vs...)" with OR.
func (wb *WhereBuilder) OrIn(col string, vs ...any) *WhereBuilder { return wb.or(In(col, vs...)) }

// Between replaces the clause with "col BETWEEN lo AND hi".
func (wb *WhereBuilder) Between(col string, lo, hi any) *WhereBuilder {
	return wb.set(Between(col, lo, hi))
}

// AndBetween appends "col BETWEEN lo AND hi" with AND.
func (wb *WhereBuilder) AndBetween(col string, lo, hi any) *WhereBuilder {
	return wb.and(Between(col, lo, hi))
}

// OrBetween appends "col BETWEEN lo AND hi" with OR.
func (wb *WhereBuilder) OrBetween(col string, lo, hi any) *WhereBuilder {
	return wb.or(Between(col, lo, hi))
}

// And appends an arbitrary clause with AND.
func (wb *WhereBuilder) And(w *Where) *WhereBuilder { return wb.and(w) }

// Or appends an arbitrary clause with OR.
func (wb *WhereBuilder) Or(w *Where) *WhereBuilder { return wb.or(w) }

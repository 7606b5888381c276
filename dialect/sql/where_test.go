package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
)

func TestWhere_Compose(t *testing.T) {
	tests := []struct {
		name string
		w    *Where
		want string
	}{
		{
			name: "AndThenOr",
			w:    Expr("this").And(Expr("that")).Or(Expr("blah").And(Expr("bleh"))),
			want: "(this AND that) OR (blah AND bleh)",
		},
		{
			name: "EmptyAbsorbs",
			w:    new(Where).And(Expr("blah")),
			want: "blah",
		},
		{
			name: "EmptyAbsorbsChildren",
			w:    new(Where).Or(Expr("a").And(Expr("b"))),
			want: "a AND b",
		},
		{
			name: "OrOnly",
			w:    Expr("a").Or(Expr("b")).Or(Expr("c")),
			want: "a OR b OR c",
		},
		{
			name: "NestedOrInsideAnd",
			w:    Expr("a").And(Expr("b").Or(Expr("c"))),
			want: "a AND (b OR c)",
		},
		{
			name: "EmptyOperandIgnored",
			w:    Expr("a").And(nil).Or(new(Where)),
			want: "a",
		},
		{
			name: "Empty",
			w:    new(Where),
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.String())
		})
	}
}

func TestWhere_Predicates(t *testing.T) {
	tests := []struct {
		name string
		w    *Where
		want string
		args int
	}{
		{"EQ", EQ("name", "a8m"), "name = ?", 1},
		{"NEQ", NEQ("status", "deleted"), "status <> ?", 1},
		{"GT", GT("age", 18), "age > ?", 1},
		{"GTE", GTE("age", 18), "age >= ?", 1},
		{"LT", LT("age", 65), "age < ?", 1},
		{"LTE", LTE("age", 65), "age <= ?", 1},
		{"Like", Like("name", "a%"), "name LIKE ?", 1},
		{"Between", Between("age", 18, 65), "age BETWEEN ? AND ?", 2},
		{"In", In("id", 1, 2, 3), "id IN (?, ?, ?)", 3},
		{"InEmpty", In("id"), "1 = 0", 0},
		{"NotIn", NotIn("id", 1, 2), "id NOT IN (?, ?)", 2},
		{"NotInEmpty", NotIn("id"), "1 = 1", 0},
		{"IsNull", IsNull("deleted_at"), "deleted_at IS NULL", 0},
		{"NotNull", NotNull("deleted_at"), "deleted_at IS NOT NULL", 0},
		{"P", P("age > ", Arg(18), " AND age < ", Arg(65)), "age > ? AND age < ?", 2},
		{"Exprf", Exprf("%s IS TRUE", "active"), "active IS TRUE", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.w.String())
			assert.Len(t, tt.w.Args(), tt.args)
			assert.NoError(t, tt.w.Err())
		})
	}
}

func TestWhere_RenderNumbering(t *testing.T) {
	w := EQ("name", "a8m").And(GT("age", 18).Or(In("role", "admin", "owner")))
	b := NewBuilder(dialect.Dollar.Param)
	b.SetOffset(2)
	w.Render(b)
	require.NoError(t, b.Err())
	assert.Equal(t, "name = $3 AND (age > $4 OR role IN ($5, $6))", b.String())

	args := b.Args()
	require.Len(t, args, 4)
	for i, a := range args {
		assert.Equal(t, i+3, a.Index)
	}
	assert.Equal(t, "a8m", args[0].Value.String())
	assert.Equal(t, "owner", args[3].Value.String())
	assert.Equal(t, w.Args()[1], args[1].Value)
}

func TestWhere_RenderPositional(t *testing.T) {
	b := NewBuilder(nil)
	b.SetOffset(4)
	b.WriteString("SET x=").Param(1).WriteString(" WHERE ")
	EQ("a", 1).And(Expr("b = ? AND c = '?'")).And(EQ("d", 2)).Render(b)
	require.NoError(t, b.Err())
	assert.Equal(t, "SET x=? WHERE a = ? AND b = ? AND c = '?' AND d = ?", b.String())
	assert.Equal(t, []BindArg{
		{Index: 2, Value: Int64Value(1)},
		{Index: 4, Value: Int64Value(2)},
	}, b.Args())
	assert.Equal(t, map[int]int{1: 1, 2: 3}, b.Slots())
	assert.Equal(t, 4, b.Total())

	numbered := NewBuilder(dialect.Dollar.Param)
	Expr("b = ?").And(EQ("a", 1)).Render(numbered)
	assert.Nil(t, numbered.Slots())
}

func TestWhere_CloneIsolation(t *testing.T) {
	w := EQ("a", 1)
	c := w.Clone()
	c.And(Expr("b"))
	assert.Equal(t, "a = ?", w.String())
	assert.Equal(t, "a = ? AND b", c.String())

	// Composing copies the operand.
	other := Expr("x")
	w.Or(other)
	other.And(Expr("y"))
	assert.Equal(t, "a = ? OR x", w.String())
}

func TestWhere_Errors(t *testing.T) {
	w := EQ("a", struct{}{})
	require.Error(t, w.Err())

	composed := Expr("ok").And(w)
	require.Error(t, composed.Err())

	b := NewBuilder(nil)
	composed.Render(b)
	require.Error(t, b.Err())

	require.Error(t, P("x", 3).Err())
}

func TestField(t *testing.T) {
	const (
		age  Field[int]    = "age"
		name Field[string] = "name"
	)
	assert.Equal(t, "age", age.Name())
	assert.Equal(t, "age = ?", age.EQ(30).String())
	assert.Equal(t, "age <> ?", age.NEQ(30).String())
	assert.Equal(t, "age > ?", age.GT(30).String())
	assert.Equal(t, "age >= ?", age.GTE(30).String())
	assert.Equal(t, "age < ?", age.LT(30).String())
	assert.Equal(t, "age <= ?", age.LTE(30).String())
	assert.Equal(t, "age BETWEEN ? AND ?", age.Between(18, 65).String())
	assert.Equal(t, "name LIKE ?", name.Like("a%").String())
	assert.Equal(t, "name IS NULL", name.IsNull().String())
	assert.Equal(t, "name IS NOT NULL", name.NotNull().String())

	in := age.In(1, 2, 3)
	assert.Equal(t, "age IN (?, ?, ?)", in.String())
	assert.Equal(t, []Value{Int64Value(1), Int64Value(2), Int64Value(3)}, in.Args())
	assert.Equal(t, "name NOT IN (?)", name.NotIn("x").String())
}

func TestWhereBuilder_Connectives(t *testing.T) {
	tests := []struct {
		edit func(*WhereBuilder)
		want string
	}{
		{func(wb *WhereBuilder) { wb.AndNotEquals("b", 2) }, "a = ? AND b <> ?"},
		{func(wb *WhereBuilder) { wb.OrNotEquals("b", 2) }, "a = ? OR b <> ?"},
		{func(wb *WhereBuilder) { wb.AndLike("b", "x%") }, "a = ? AND b LIKE ?"},
		{func(wb *WhereBuilder) { wb.OrLike("b", "x%") }, "a = ? OR b LIKE ?"},
		{func(wb *WhereBuilder) { wb.AndIn("b", 2, 3) }, "a = ? AND b IN (?, ?)"},
		{func(wb *WhereBuilder) { wb.OrIn("b", 2, 3) }, "a = ? OR b IN (?, ?)"},
		{func(wb *WhereBuilder) { wb.AndBetween("b", 2, 3) }, "a = ? AND b BETWEEN ? AND ?"},
		{func(wb *WhereBuilder) { wb.OrBetween("b", 2, 3) }, "a = ? OR b BETWEEN ? AND ?"},
	}
	for _, tt := range tests {
		q := must(NewDelete(NewConn(mysqlLike, nil), "t"))
		wb := q.WhereBuilder().Equals("a", 1)
		tt.edit(wb)
		assert.Equal(t, tt.want, wb.Clause().String())
		assert.Equal(t, "DELETE FROM t WHERE "+tt.want+";", mustSQL(t, q))
	}
}

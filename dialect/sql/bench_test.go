package sql

import (
	"testing"
)

var benchBackends = []mockBackend{sqliteLike, mysqlLike, postgresLike}

func BenchmarkInsertQuery_Default(b *testing.B) {
	for _, be := range benchBackends {
		b.Run(be.name, func(b *testing.B) {
			s := NewConn(be, nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q, _ := NewInsert(s, "users")
				_, _ = q.Returning("id").ToSQL()
			}
		})
	}
}

func BenchmarkInsertQuery_Small(b *testing.B) {
	for _, be := range benchBackends {
		b.Run(be.name, func(b *testing.B) {
			s := NewConn(be, nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q, _ := NewInsert(s, "users", "id", "age", "first_name", "last_name", "nickname", "spouse_id", "created_at", "updated_at")
				_, _ = q.Values(1, 30, "Ariel", "Mashraki", "a8m", 2, "2009-11-10 23:00:00", "2009-11-10 23:00:00").
					Returning("id").
					ToSQL()
			}
		})
	}
}

func BenchmarkSelectQuery_Simple(b *testing.B) {
	for _, be := range benchBackends {
		b.Run(be.name, func(b *testing.B) {
			s := NewConn(be, nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q, _ := NewSelect(s, "users", "id", "name", "email")
				_, _ = q.ToSQL()
			}
		})
	}
}

func BenchmarkSelectQuery_WithJoins(b *testing.B) {
	for _, be := range benchBackends {
		b.Run(be.name, func(b *testing.B) {
			s := NewConn(be, nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q, _ := NewSelect(s, "users", "users.id", "users.name", "pets.name")
				_, _ = q.InnerJoin("pets", Expr("pets.owner_id = users.id")).
					LeftJoin("groups", Expr("groups.id = users.group_id")).
					Where(EQ("users.active", true).And(In("pets.kind", "cat", "dog"))).
					OrderBy("users.name").
					Limit(10).
					ToSQL()
			}
		})
	}
}

// BenchmarkSelectQuery_Memoized measures repeated ToSQL calls on an
// unchanged query.
func BenchmarkSelectQuery_Memoized(b *testing.B) {
	q, _ := NewSelect(NewConn(postgresLike, nil), "users", "id")
	q.Where(GT("age", 18).Or(IsNull("age")))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = q.ToSQL()
	}
}

func BenchmarkUpdateQuery(b *testing.B) {
	for _, be := range benchBackends {
		b.Run(be.name, func(b *testing.B) {
			s := NewConn(be, nil)
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				q, _ := NewUpdate(s, "users", "name", "age")
				_, _ = q.Values("a8m", 30).Where(EQ("id", 1)).ToSQL()
			}
		})
	}
}

func BenchmarkWhere_Render(b *testing.B) {
	w := EQ("a", 1).And(GT("b", 2)).Or(In("c", 1, 2, 3).And(Like("d", "x%")))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		bl := NewBuilder(nil)
		w.Render(bl)
		_ = bl.String()
	}
}

func BenchmarkValueOf(b *testing.B) {
	inputs := []any{1, int64(2), 3.5, "text", []byte("blob"), nil, true}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		for _, in := range inputs {
			_, _ = ValueOf(in)
		}
	}
}

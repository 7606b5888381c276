// Package sql provides typed SQL values, a where-clause algebra, memoizing
// query builders and a session abstraction dispatched over database
// backends.
//
// This package is the foundation for generating and executing SQL queries across
// different database systems (PostgreSQL, MySQL, SQLite). Generators never
// hardcode placeholder syntax; they ask the session through BindParam, so the
// same query renders "?" on SQLite and MySQL and "$1" on PostgreSQL.
//
// # Sessions
//
// Backends register themselves for URI schemes when their package is imported:
//
//	import _ "github.com/syssam/sqlkit/dialect/sql/sqlite"
//
//	sess, err := sql.Open(ctx, "sqlite://:memory:", sql.WithCacheLevel(sql.CacheRows))
//	if err != nil {
//	    return err
//	}
//	defer sess.Close()
//
// A session owns one connection and is meant for one unit of work.
//
// # Query Types
//
//   - SelectQuery: columns, joins, where, group by, having, order by, limit, offset, union
//   - InsertQuery: positional or named values, RETURNING of primary keys
//   - UpdateQuery: SET col=placeholder pairs and where
//   - DeleteQuery: where; a missing where is logged as a full-table delete
//
// Every query memoizes its SQL; any mutator drops the memo and the prepared
// statement:
//
//	q, _ := sql.NewUpdate(sess, "users", "id")
//	q.ToSQL() // UPDATE users SET id=?;
//
// # Predicates
//
//	sql.EQ("name", "john")                 // name = ?
//	sql.NEQ("status", "deleted")           // status <> ?
//	sql.In("status", "active", "pending")  // status IN (?, ?)
//	sql.Between("age", 18, 65)             // age BETWEEN ? AND ?
//	sql.IsNull("deleted_at")               // deleted_at IS NULL
//
// Clauses compose in place with And and Or; a node with both AND and OR
// children renders as "(a AND b) OR (c)".
//
// # Rows
//
// With the default CacheNone level a Row is a view over the cursor and is
// valid until the next call to Next or Reset. CacheRows materializes owned
// copies instead.
package sql

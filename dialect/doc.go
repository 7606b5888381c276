// Package dialect describes the database dialects supported by sqlkit.
//
// This package defines the dialect names, the capability bit flags each
// backend advertises and the placeholder styles used when a query generator
// emits bind parameters. It has no dependency on any driver.
//
// # Supported Dialects
//
//   - Postgres: PostgreSQL database
//   - MySQL: MySQL/MariaDB database
//   - SQLite: SQLite database (including libsql)
//
// # Features
//
// A backend reports its optional capabilities as a Feature bit set:
//
//	f := dialect.Returning | dialect.NamedParams
//	if f.Has(dialect.Returning) {
//	    // emit RETURNING
//	}
//
// Generators must check features before emitting RETURNING, RIGHT JOIN,
// FULL OUTER JOIN or :name parameters, and omit the construct otherwise.
//
// # Placeholders
//
// Placeholder styles are a backend property, never chosen by the caller:
//
//	dialect.Question.Param(1) // "?"
//	dialect.Dollar.Param(2)   // "$2"
//	dialect.Colon.Named("id") // ":id"
package dialect

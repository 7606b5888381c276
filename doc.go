// Package sqlkit is a database-agnostic SQL abstraction layer.
//
// The root package holds the error taxonomy shared by every layer. Query
// building, typed values and the session abstraction live in dialect/sql,
// and the concrete backends in dialect/sql/sqlite, dialect/sql/mysql and
// dialect/sql/postgres.
//
//	import (
//	    "github.com/syssam/sqlkit/dialect/sql"
//	    _ "github.com/syssam/sqlkit/dialect/sql/sqlite"
//	)
//
//	s, err := sql.Open(ctx, "sqlite://:memory:")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
// Every failure is one of DatabaseError, BindingError, ValueConversionError,
// NoSuchColumnError, RecordNotFoundError or TransactionError and can be
// matched with errors.Is against the Err* sentinels or the IsXxx helpers.
package sqlkit

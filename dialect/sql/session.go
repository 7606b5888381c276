package sql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// Session is an open logical connection to one database. It is the root
// object for statements, transactions and schemas.
//
// A Session exclusively owns its native connection and is not safe for
// concurrent use. Use one session per unit of work.
type Session interface {
	// Open connects the session. Opening an open session is a no-op.
	Open(ctx context.Context) error
	// Close releases the native connection.
	Close() error
	// IsOpen reports whether the session holds a live connection.
	IsOpen() bool

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	// Query runs a statement and returns its rows.
	Query(ctx context.Context, query string, args ...any) (Resultset, error)
	// Prepare creates a bindable statement from query.
	Prepare(ctx context.Context, query string) (Statement, error)
	// Transaction returns the session's transaction controller.
	Transaction() Transaction

	// Columns reads the column definitions of table from the database,
	// bypassing the schema cache.
	Columns(ctx context.Context, table string) ([]schema.Column, error)
	// Schema returns the cached schema of table, loading it on first use.
	Schema(ctx context.Context, table string) (*schema.Schema, error)
	// InvalidateSchema drops the cached schema of table.
	InvalidateSchema(table string)

	// BindParam returns the placeholder text for the 1-based index.
	BindParam(index int) string
	// Features returns the optional SQL constructs the backend supports.
	Features() dialect.Feature
	// Dialect returns the backend's dialect name.
	Dialect() string
	// CacheLevel returns how result rows are materialized.
	CacheLevel() CacheLevel
	// Logger returns the session's logger.
	Logger() *slog.Logger

	LastInsertID() int64
	LastNumberOfChanges() int64
}

// Statement is a prepared, bindable unit of SQL tied to one session.
// Values must be bound for every placeholder before execution.
type Statement interface {
	Bindable
	// Bind binds v at the 1-based index.
	Bind(index int, v Value) error
	// BindNamed binds v to the :name parameter.
	BindNamed(name string, v Value) error
	// ClearBindings drops every bound value.
	ClearBindings()
	Query(ctx context.Context) (Resultset, error)
	Exec(ctx context.Context) (Result, error)
	// SQL returns the statement text.
	SQL() string
	Close() error
}

// Resultset is a forward cursor over rows.
//
// With CacheNone the Row returned after a call to Next is valid until the
// following Next or Reset; using it afterwards fails with ErrStaleRow.
// With CacheRows rows are owned copies with no such constraint.
type Resultset interface {
	// Next advances to the next row. Past the last row it returns false and
	// keeps returning false until Reset.
	Next() bool
	// Row returns the current row.
	Row() (Row, error)
	// Reset moves the cursor before the first row.
	Reset(ctx context.Context) error
	Columns() []string
	Err() error
	Close() error
}

// Row is one row of a Resultset.
type Row interface {
	Len() int
	Names() []string
	// Column returns the column at the 0-based index.
	Column(i int) (Column, error)
	// ColumnByName returns the named column or a NoSuchColumnError.
	ColumnByName(name string) (Column, error)
	// Get returns the value of the named column.
	Get(name string) (Value, error)
	Values() ([]Value, error)
}

// Column is one cell of a Row.
type Column interface {
	Name() string
	Index() int
	// Type returns the native type name reported by the backend.
	Type() string
	// Value converts the native value on demand.
	Value() (Value, error)
}

// Transaction controls the transaction state of a session.
type Transaction interface {
	Start(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// Savepoint creates a savepoint and returns its name. An empty name
	// generates one.
	Savepoint(ctx context.Context, name string) (string, error)
	ReleaseSavepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	IsActive() bool
}

// Result summarizes an executed statement.
type Result struct {
	LastInsertID int64
	RowsAffected int64
}

// CacheLevel controls how result rows are materialized.
type CacheLevel uint8

const (
	// CacheNone exposes rows as live views over the cursor.
	CacheNone CacheLevel = iota
	// CacheRows prefetches every row into owned copies.
	CacheRows
)

// String implements fmt.Stringer.
func (l CacheLevel) String() string {
	switch l {
	case CacheNone:
		return "none"
	case CacheRows:
		return "rows"
	default:
		return fmt.Sprintf("CacheLevel(%d)", l)
	}
}

// ParseCacheLevel parses "none" or "rows".
func ParseCacheLevel(s string) (CacheLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CacheNone, nil
	case "rows", "row":
		return CacheRows, nil
	default:
		return CacheNone, fmt.Errorf("sql: unknown cache level %q", s)
	}
}

type sessionVar struct{ k, v string }

type options struct {
	logger *slog.Logger
	cache  CacheLevel
	vars   []sessionVar
}

func newOptions(opts []Option) options {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Option configures a session.
type Option func(*options)

// WithLogger sets the session logger. Sessions discard logs by default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCacheLevel sets how result rows are materialized.
func WithCacheLevel(l CacheLevel) Option {
	return func(o *options) {
		o.cache = l
	}
}

// WithVar sets a session variable once the connection is open.
func WithVar(name, value string) Option {
	return func(o *options) {
		o.vars = append(o.vars, sessionVar{k: name, v: value})
	}
}

package sql

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// Backend describes one database engine: how to reach it through
// database/sql and which SQL it accepts.
type Backend interface {
	// Name returns the dialect name, e.g. dialect.SQLite.
	Name() string
	// DriverName returns the database/sql driver name.
	DriverName() string
	// DSN converts a connection URI to the driver's data source name.
	DSN(u *URI) (string, error)
	// BindParam returns the placeholder for the 1-based index.
	BindParam(index int) string
	// Features returns the optional constructs the engine supports.
	Features() dialect.Feature
	// BeginSQL returns the statement starting a transaction.
	BeginSQL() string
	// SetVarSQL returns the statement setting a session variable. value is
	// already escaped.
	SetVarSQL(name, value string) string
	// Columns reads the column definitions of table through s.
	Columns(ctx context.Context, s Session, table string) ([]schema.Column, error)
	// ErrorCode extracts the engine's native code from a driver error.
	ErrorCode(err error) string
}

var backends = struct {
	sync.RWMutex
	m map[string]Backend
}{m: make(map[string]Backend)}

// Register makes a backend available for the given URI schemes. It panics
// if b is nil or a scheme is registered twice.
func Register(b Backend, schemes ...string) {
	if b == nil {
		panic("sql: Register backend is nil")
	}
	backends.Lock()
	defer backends.Unlock()
	for _, s := range schemes {
		if _, dup := backends.m[s]; dup {
			panic("sql: Register called twice for scheme " + s)
		}
		backends.m[s] = b
	}
}

// Lookup returns the backend registered for scheme.
func Lookup(scheme string) (Backend, bool) {
	backends.RLock()
	defer backends.RUnlock()
	b, ok := backends.m[scheme]
	return b, ok
}

// Schemes returns the registered URI schemes, sorted.
func Schemes() []string {
	backends.RLock()
	defer backends.RUnlock()
	s := make([]string, 0, len(backends.m))
	for k := range backends.m {
		s = append(s, k)
	}
	sort.Strings(s)
	return s
}

// Open resolves the backend for uri's scheme and opens a session.
//
//	import _ "github.com/syssam/sqlkit/dialect/sql/sqlite"
//
//	sess, err := sql.Open(ctx, "sqlite://:memory:")
func Open(ctx context.Context, uri string, opts ...Option) (*Conn, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	b, ok := Lookup(u.Protocol)
	if !ok {
		return nil, sqlkit.DatabaseErrorf("open", "unknown database %s", uri)
	}
	c := NewConn(b, u, opts...)
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// OpenDB opens a session on an existing pool. The session pins one
// connection from db and leaves db open on Close.
func OpenDB(ctx context.Context, b Backend, db *sql.DB, opts ...Option) (*Conn, error) {
	c := NewConn(b, nil, opts...)
	c.db = db
	if err := c.Open(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// ErrorCode returns the native error code carried by a DatabaseError, or
// an empty string.
func ErrorCode(err error) string {
	var e *sqlkit.DatabaseError
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// ScanColumns runs query on s and reads its rows with scan into column
// definitions. Backends use it to implement Columns.
func ScanColumns(ctx context.Context, s Session, scan func(Row) (schema.Column, error), query string, args ...any) ([]schema.Column, error) {
	rs, err := s.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()
	var cols []schema.Column
	for rs.Next() {
		row, err := rs.Row()
		if err != nil {
			return nil, err
		}
		c, err := scan(row)
		if err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return slices.Clip(cols), nil
}

package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// validIdentifierRe validates SQL identifiers (alphanumeric, underscores, dots for schema.name)
var validIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.]*$`)

// isValidIdentifier checks if the string is a valid SQL identifier.
func isValidIdentifier(s string) bool {
	return s != "" && len(s) <= 128 && validIdentifierRe.MatchString(s)
}

// escapeStringValue escapes a string value for safe use in SQL.
// It escapes both single quotes (by doubling) and backslashes (for MySQL compatibility).
func escapeStringValue(s string) string {
	// Fast path: if no escaping needed, return as-is
	if !strings.ContainsAny(s, `'\`) {
		return s
	}
	// Escape backslashes first, then single quotes
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "'", "''")
	return s
}

// Conn is a Session over one pinned database/sql connection. The pool it
// draws from is either opened from a URI (and owned by the Conn) or
// supplied by OpenDB.
type Conn struct {
	backend Backend
	uri     *URI
	opts    options

	db     *sql.DB
	ownsDB bool
	conn   *sql.Conn

	schemas *schema.Cache
	tx      *transaction

	lastID  int64
	changes int64
}

var _ Session = (*Conn)(nil)

// NewConn returns an unopened session for backend b. u may be nil when the
// pool is attached by OpenDB.
func NewConn(b Backend, u *URI, opts ...Option) *Conn {
	c := &Conn{backend: b, uri: u, opts: newOptions(opts)}
	c.schemas = schema.NewCache(schema.InspectorFunc(c.Columns), schema.OnLoad(c.checkSchema))
	c.tx = &transaction{c: c}
	return c
}

// Open implements Session.
func (c *Conn) Open(ctx context.Context) error {
	if c.conn != nil {
		return nil
	}
	if c.db == nil {
		if c.uri == nil {
			return sqlkit.DatabaseErrorf("open", "no database uri")
		}
		dsn, err := c.backend.DSN(c.uri)
		if err != nil {
			return c.wrap("open", err)
		}
		db, err := sql.Open(c.backend.DriverName(), dsn)
		if err != nil {
			return c.wrap("open", err)
		}
		c.db, c.ownsDB = db, true
	}
	conn, err := c.db.Conn(ctx)
	if err == nil {
		if err = conn.PingContext(ctx); err != nil {
			_ = conn.Close()
		}
	}
	if err != nil {
		c.releaseDB()
		return c.wrap("open", err)
	}
	c.conn = conn
	if err := c.setVars(ctx); err != nil {
		return errors.Join(err, c.Close())
	}
	c.opts.logger.DebugContext(ctx, "session opened", "dialect", c.Dialect(), "uri", c.uriString())
	return nil
}

// setVars applies the session variables given by WithVar.
func (c *Conn) setVars(ctx context.Context) error {
	for _, v := range c.opts.vars {
		// Validate the variable name to prevent SQL injection
		if !isValidIdentifier(v.k) {
			return sqlkit.DatabaseErrorf("open", "invalid session variable name: %q", v.k)
		}
		q := c.backend.SetVarSQL(v.k, escapeStringValue(v.v))
		if _, err := c.conn.ExecContext(ctx, q); err != nil {
			return c.wrap("open", fmt.Errorf("set session variable %s: %w", v.k, err))
		}
	}
	return nil
}

// Close implements Session. An active transaction is rolled back first so
// the connection returns to the pool clean.
func (c *Conn) Close() error {
	if c.conn == nil {
		return nil
	}
	var errs []error
	if c.tx.IsActive() {
		c.opts.logger.Warn("closing session with an active transaction; rolling back")
		// Use a background context with timeout for cleanup to ensure
		// it completes even if the caller's context was canceled.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, c.tx.Rollback(ctx))
		cancel()
	}
	errs = append(errs, c.conn.Close())
	c.conn = nil
	c.schemas.Clear()
	c.releaseDB()
	if err := errors.Join(errs...); err != nil {
		return c.wrap("close", err)
	}
	return nil
}

func (c *Conn) releaseDB() {
	if c.ownsDB && c.db != nil {
		_ = c.db.Close()
		c.db, c.ownsDB = nil, false
	}
}

// IsOpen implements Session.
func (c *Conn) IsOpen() bool { return c.conn != nil }

// Exec implements Session.
func (c *Conn) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	if err := c.ensureOpen("exec"); err != nil {
		return Result{}, err
	}
	c.opts.logger.DebugContext(ctx, "exec", "sql", query, "args", args)
	res, err := c.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return Result{}, c.wrap("exec", err)
	}
	return c.record(res), nil
}

// Query implements Session.
func (c *Conn) Query(ctx context.Context, query string, args ...any) (Resultset, error) {
	if err := c.ensureOpen("query"); err != nil {
		return nil, err
	}
	c.opts.logger.DebugContext(ctx, "query", "sql", query, "args", args)
	return c.query(ctx, func(ctx context.Context) (*sql.Rows, error) {
		return c.conn.QueryContext(ctx, query, args...)
	})
}

// query runs run and wraps its rows. run is kept to re-execute the query
// when an uncached resultset is reset.
func (c *Conn) query(ctx context.Context, run func(context.Context) (*sql.Rows, error)) (Resultset, error) {
	rows, err := run(ctx)
	if err != nil {
		return nil, c.wrap("query", err)
	}
	rs, err := newResultset(c, rows, run)
	if err != nil {
		return nil, err
	}
	return rs, nil
}

// Prepare implements Session.
func (c *Conn) Prepare(ctx context.Context, query string) (Statement, error) {
	if err := c.ensureOpen("prepare"); err != nil {
		return nil, err
	}
	st, err := c.conn.PrepareContext(ctx, query)
	if err != nil {
		return nil, c.wrap("prepare", err)
	}
	c.opts.logger.DebugContext(ctx, "prepare", "sql", query)
	return newStatement(c, st, query), nil
}

// Transaction implements Session.
func (c *Conn) Transaction() Transaction { return c.tx }

// Columns implements Session.
func (c *Conn) Columns(ctx context.Context, table string) ([]schema.Column, error) {
	if err := c.ensureOpen("schema"); err != nil {
		return nil, err
	}
	if table == "" {
		return nil, sqlkit.DatabaseErrorf("schema", "empty table name")
	}
	return c.backend.Columns(ctx, c, table)
}

// Schema implements Session.
func (c *Conn) Schema(ctx context.Context, table string) (*schema.Schema, error) {
	return c.schemas.Get(ctx, table)
}

// InvalidateSchema implements Session.
func (c *Conn) InvalidateSchema(table string) { c.schemas.Invalidate(table) }

// checkSchema logs validation findings of a freshly loaded schema.
func (c *Conn) checkSchema(s, previous *schema.Schema) {
	log := c.opts.logger.With("table", s.TableName())
	results := []*schema.ValidationResult{schema.ValidateTable(s)}
	if previous != nil {
		results = append(results, schema.ValidateDiff(previous, s))
	}
	for _, r := range results {
		for _, e := range r.Errors {
			log.Warn("schema error", "column", e.Column, "message", e.Message, "breaking", e.Breaking)
		}
		for _, w := range r.Warnings {
			log.Warn("schema warning", "column", w.Column, "message", w.Message, "breaking", w.Breaking)
		}
	}
}

// BindParam implements Session.
func (c *Conn) BindParam(index int) string { return c.backend.BindParam(index) }

// Features implements Session.
func (c *Conn) Features() dialect.Feature { return c.backend.Features() }

// Dialect implements Session.
func (c *Conn) Dialect() string { return c.backend.Name() }

// CacheLevel implements Session.
func (c *Conn) CacheLevel() CacheLevel { return c.opts.cache }

// Logger implements Session.
func (c *Conn) Logger() *slog.Logger { return c.opts.logger }

// LastInsertID implements Session.
func (c *Conn) LastInsertID() int64 { return c.lastID }

// LastNumberOfChanges implements Session.
func (c *Conn) LastNumberOfChanges() int64 { return c.changes }

// Backend returns the session's backend.
func (c *Conn) Backend() Backend { return c.backend }

// DB returns the underlying pool.
func (c *Conn) DB() *sql.DB { return c.db }

func (c *Conn) ensureOpen(op string) error {
	if c.conn == nil {
		return sqlkit.DatabaseErrorf(op, "session is not open")
	}
	return nil
}

// record stores the insert id and change count of res. Drivers that do
// not report one of them (lib/pq has no LastInsertId) leave it unchanged.
func (c *Conn) record(res sql.Result) Result {
	var r Result
	if id, err := res.LastInsertId(); err == nil {
		r.LastInsertID, c.lastID = id, id
	}
	if n, err := res.RowsAffected(); err == nil {
		r.RowsAffected, c.changes = n, n
	}
	return r
}

// wrap converts a driver error into a DatabaseError carrying the backend's
// native code.
func (c *Conn) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		dbErr   *sqlkit.DatabaseError
		bindErr *sqlkit.BindingError
	)
	if errors.As(err, &dbErr) || errors.As(err, &bindErr) {
		return err
	}
	return &sqlkit.DatabaseError{Op: op, Code: c.backend.ErrorCode(err), Err: err}
}

func (c *Conn) uriString() string {
	if c.uri == nil {
		return ""
	}
	return c.uri.String()
}

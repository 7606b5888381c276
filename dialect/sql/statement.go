package sql

import (
	"context"
	"database/sql"
	"slices"

	"github.com/syssam/sqlkit"
	"github.com/syssam/sqlkit/dialect"
)

// stmt is a Statement over a prepared database/sql statement on the
// session's pinned connection.
type stmt struct {
	c     *Conn
	st    *sql.Stmt
	query string
	pos   map[int]Value
	named map[string]Value
}

var _ Statement = (*stmt)(nil)

func newStatement(c *Conn, st *sql.Stmt, query string) *stmt {
	return &stmt{
		c:     c,
		st:    st,
		query: query,
		pos:   make(map[int]Value),
		named: make(map[string]Value),
	}
}

func (s *stmt) Bind(index int, v Value) error {
	if index <= 0 {
		return sqlkit.NewBindingError(index, "index must be positive")
	}
	s.pos[index] = v
	return nil
}

func (s *stmt) BindNamed(name string, v Value) error {
	if !s.c.Features().Has(dialect.NamedParams) {
		return sqlkit.NewNamedBindingError(name, "named parameters are not supported by "+s.c.Dialect())
	}
	if !isValidIdentifier(name) {
		return sqlkit.NewNamedBindingError(name, "invalid parameter name")
	}
	s.named[name] = v
	return nil
}

func (s *stmt) BindNull(index int) error               { return s.Bind(index, NullValue()) }
func (s *stmt) BindInt32(index int, v int32) error     { return s.Bind(index, Int32Value(v)) }
func (s *stmt) BindInt64(index int, v int64) error     { return s.Bind(index, Int64Value(v)) }
func (s *stmt) BindFloat64(index int, v float64) error { return s.Bind(index, Float64Value(v)) }
func (s *stmt) BindString(index int, v string) error   { return s.Bind(index, StringValue(v)) }
func (s *stmt) BindBlob(index int, v []byte) error     { return s.Bind(index, BlobValue(v)) }
func (s *stmt) BindTime(index int, v Time) error       { return s.Bind(index, TimeValue(v)) }

func (s *stmt) ClearBindings() {
	clear(s.pos)
	clear(s.named)
}

// args returns the bound values in increasing index order followed by the
// named values sorted by name. Every index from 1 to the highest bound one
// must be set.
func (s *stmt) args() ([]any, error) {
	top := 0
	for i := range s.pos {
		top = max(top, i)
	}
	args := make([]any, 0, top+len(s.named))
	for i := 1; i <= top; i++ {
		v, ok := s.pos[i]
		if !ok {
			return nil, sqlkit.NewBindingError(i, "parameter not bound")
		}
		args = append(args, v)
	}
	names := make([]string, 0, len(s.named))
	for name := range s.named {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		args = append(args, sql.Named(name, s.named[name]))
	}
	return args, nil
}

func (s *stmt) Query(ctx context.Context) (Resultset, error) {
	args, err := s.args()
	if err != nil {
		return nil, err
	}
	if err := s.c.ensureOpen("query"); err != nil {
		return nil, err
	}
	s.c.opts.logger.DebugContext(ctx, "query", "sql", s.query, "args", args)
	return s.c.query(ctx, func(ctx context.Context) (*sql.Rows, error) {
		return s.st.QueryContext(ctx, args...)
	})
}

func (s *stmt) Exec(ctx context.Context) (Result, error) {
	args, err := s.args()
	if err != nil {
		return Result{}, err
	}
	if err := s.c.ensureOpen("exec"); err != nil {
		return Result{}, err
	}
	s.c.opts.logger.DebugContext(ctx, "exec", "sql", s.query, "args", args)
	res, err := s.st.ExecContext(ctx, args...)
	if err != nil {
		return Result{}, s.c.wrap("exec", err)
	}
	return s.c.record(res), nil
}

func (s *stmt) SQL() string { return s.query }

func (s *stmt) Close() error {
	if err := s.st.Close(); err != nil {
		return s.c.wrap("close", err)
	}
	return nil
}

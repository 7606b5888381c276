package sql

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/syssam/sqlkit"
)

// resultset is a Resultset over database/sql rows.
//
// With CacheNone it scans one row at a time and hands out live rows tagged
// with a generation number; moving the cursor bumps the generation so older
// rows report ErrStaleRow. With CacheRows every row is converted up front
// and the native cursor is released immediately.
type resultset struct {
	c     *Conn
	run   func(context.Context) (*sql.Rows, error)
	level CacheLevel
	names []string
	types []string

	// CacheNone state.
	rows *sql.Rows
	raw  []any
	gen  uint64

	// CacheRows state.
	cache [][]Value
	pos   int

	onRow  bool
	done   bool
	closed bool
	err    error
}

var _ Resultset = (*resultset)(nil)

func newResultset(c *Conn, rows *sql.Rows, run func(context.Context) (*sql.Rows, error)) (*resultset, error) {
	rs := &resultset{c: c, run: run, level: c.opts.cache, pos: -1}
	if err := rs.attach(rows); err != nil {
		return nil, err
	}
	return rs, nil
}

// attach takes ownership of rows.
func (rs *resultset) attach(rows *sql.Rows) error {
	names, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return rs.c.wrap("query", err)
	}
	rs.names = names
	rs.types = make([]string, len(names))
	// Not every driver reports column types; an unknown type converts
	// from the scanned Go type alone.
	if cts, err := rows.ColumnTypes(); err == nil {
		for i, ct := range cts {
			rs.types[i] = ct.DatabaseTypeName()
		}
	}
	if rs.level != CacheRows {
		rs.rows = rows
		return nil
	}
	defer rows.Close()
	rs.cache = rs.cache[:0]
	for rows.Next() {
		raw, err := scanRaw(rows, len(names))
		if err != nil {
			return rs.c.wrap("query", err)
		}
		vals := make([]Value, len(raw))
		for i := range raw {
			if vals[i], err = nativeValue(raw[i], rs.types[i]); err != nil {
				return err
			}
		}
		rs.cache = append(rs.cache, vals)
	}
	return rs.c.wrap("query", rows.Err())
}

// scanRaw scans the current row into driver values. Scanning into *any
// copies byte slices, so the values outlive the cursor position.
func scanRaw(rows *sql.Rows, n int) ([]any, error) {
	raw := make([]any, n)
	dest := make([]any, n)
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	return raw, nil
}

func (rs *resultset) Next() bool {
	rs.gen++
	rs.onRow = false
	if rs.done || rs.closed || rs.err != nil {
		return false
	}
	if rs.level == CacheRows {
		if rs.pos+1 >= len(rs.cache) {
			rs.pos = len(rs.cache)
			rs.done = true
			return false
		}
		rs.pos++
		rs.onRow = true
		return true
	}
	if !rs.rows.Next() {
		rs.done = true
		rs.err = rs.c.wrap("query", rs.rows.Err())
		_ = rs.rows.Close()
		return false
	}
	raw, err := scanRaw(rs.rows, len(rs.names))
	if err != nil {
		rs.done = true
		rs.err = rs.c.wrap("query", err)
		return false
	}
	rs.raw = raw
	rs.onRow = true
	return true
}

func (rs *resultset) Row() (Row, error) {
	if !rs.onRow {
		return nil, ErrNoCurrentRow
	}
	if rs.level == CacheRows {
		return &row{names: rs.names, types: rs.types, vals: rs.cache[rs.pos]}, nil
	}
	return &row{rs: rs, gen: rs.gen, names: rs.names, types: rs.types, raw: rs.raw}, nil
}

func (rs *resultset) Reset(ctx context.Context) error {
	if rs.closed {
		return sqlkit.DatabaseErrorf("reset", "resultset is closed")
	}
	rs.gen++
	rs.onRow, rs.done, rs.err = false, false, nil
	if rs.level == CacheRows {
		rs.pos = -1
		return nil
	}
	if rs.rows != nil {
		_ = rs.rows.Close()
	}
	rs.raw = nil
	rows, err := rs.run(ctx)
	if err != nil {
		rs.done = true
		rs.err = rs.c.wrap("query", err)
		return rs.err
	}
	return rs.attach(rows)
}

func (rs *resultset) Columns() []string { return slices.Clone(rs.names) }

func (rs *resultset) Err() error { return rs.err }

func (rs *resultset) Close() error {
	if rs.closed {
		return nil
	}
	rs.closed = true
	rs.gen++
	rs.onRow = false
	rs.cache = nil
	if rs.rows != nil {
		return rs.c.wrap("close", rs.rows.Close())
	}
	return nil
}

// row is either a live view over the cursor (rs != nil) or an owned copy.
type row struct {
	rs    *resultset
	gen   uint64
	names []string
	types []string
	raw   []any
	vals  []Value
}

func (r *row) Len() int { return len(r.names) }

func (r *row) Names() []string { return slices.Clone(r.names) }

func (r *row) Column(i int) (Column, error) {
	if i < 0 || i >= len(r.names) {
		return nil, sqlkit.NewNoSuchColumnError(fmt.Sprintf("#%d", i))
	}
	return &column{r: r, i: i}, nil
}

// ColumnByName matches exactly first, then case-insensitively since some
// backends fold unquoted identifiers.
func (r *row) ColumnByName(name string) (Column, error) {
	if i := slices.Index(r.names, name); i >= 0 {
		return &column{r: r, i: i}, nil
	}
	for i, n := range r.names {
		if strings.EqualFold(n, name) {
			return &column{r: r, i: i}, nil
		}
	}
	return nil, sqlkit.NewNoSuchColumnError(name)
}

func (r *row) Get(name string) (Value, error) {
	c, err := r.ColumnByName(name)
	if err != nil {
		return Value{}, err
	}
	return c.Value()
}

func (r *row) Values() ([]Value, error) {
	vals := make([]Value, len(r.names))
	for i := range vals {
		v, err := r.value(i)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (r *row) value(i int) (Value, error) {
	if r.rs == nil {
		return r.vals[i], nil
	}
	if r.rs.gen != r.gen {
		return Value{}, ErrStaleRow
	}
	return nativeValue(r.raw[i], r.types[i])
}

type column struct {
	r *row
	i int
}

func (c *column) Name() string          { return c.r.names[c.i] }
func (c *column) Index() int            { return c.i }
func (c *column) Type() string          { return c.r.types[c.i] }
func (c *column) Value() (Value, error) { return c.r.value(c.i) }

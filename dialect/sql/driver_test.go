package sql

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit"
)

func TestWithVars(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("SET foo = 'bar'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("SET name = 'it''s'").WillReturnResult(sqlmock.NewResult(0, 0))

	c, err := OpenDB(context.Background(), postgresLike, db, WithVar("foo", "bar"), WithVar("name", "it's"))
	require.NoError(t, err)
	defer c.Close()
	require.NoError(t, mock.ExpectationsWereMet())
}

// TestWithVarsInvalidIdentifier tests that invalid identifiers are rejected.
func TestWithVarsInvalidIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	_, err = OpenDB(context.Background(), postgresLike, db, WithVar("foo; DROP TABLE users", "x"))
	require.Error(t, err)
	assert.True(t, sqlkit.IsDatabaseError(err))
	assert.Contains(t, err.Error(), "invalid session variable name")
	require.NoError(t, mock.ExpectationsWereMet(), "nothing reaches the database")
}

func TestWithVarsFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("SET foo = 'bar'").WillReturnError(errors.New("unknown variable"))

	_, err = OpenDB(context.Background(), mysqlLike, db, WithVar("foo", "bar"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set session variable foo")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("UnknownScheme", func(t *testing.T) {
		_, err := Open(ctx, "nosuch://localhost/db")
		require.Error(t, err)
		assert.True(t, sqlkit.IsDatabaseError(err))
		assert.Contains(t, err.Error(), "unknown database")
	})

	t.Run("InvalidURI", func(t *testing.T) {
		_, err := Open(ctx, "not a uri")
		assert.True(t, sqlkit.IsDatabaseError(err))
	})

	t.Run("Registered", func(t *testing.T) {
		db, mock, err := sqlmock.NewWithDSN("sqlmock://registered/app", sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
		require.NoError(t, err)
		defer db.Close()
		if _, ok := Lookup("sqlmock"); !ok {
			Register(sqliteLike, "sqlmock")
		}
		b, ok := Lookup("sqlmock")
		require.True(t, ok)
		assert.Equal(t, sqliteLike, b)
		assert.Contains(t, Schemes(), "sqlmock")

		mock.ExpectExec("CREATE TABLE t(id INTEGER)").WillReturnResult(sqlmock.NewResult(0, 0))
		c, err := Open(ctx, "sqlmock://registered/app", WithCacheLevel(CacheRows))
		require.NoError(t, err)
		assert.True(t, c.IsOpen())
		assert.Equal(t, CacheRows, c.CacheLevel())
		assert.NotNil(t, c.DB())
		_, err = c.Exec(ctx, "CREATE TABLE t(id INTEGER)")
		require.NoError(t, err)
		require.NoError(t, c.Close())
		assert.False(t, c.IsOpen())
		assert.Nil(t, c.DB(), "owned pool is released on close")
	})

	t.Run("RegisterPanics", func(t *testing.T) {
		assert.Panics(t, func() { Register(nil, "nil") })
		if _, ok := Lookup("sqlmock-dup"); !ok {
			Register(mysqlLike, "sqlmock-dup")
		}
		assert.Panics(t, func() { Register(mysqlLike, "sqlmock-dup") })
	})
}

func TestConn_Exec(t *testing.T) {
	ctx := context.Background()
	c, mock := newMock(t, mysqlLike)

	mock.ExpectExec("INSERT INTO users(name) VALUES(?)").
		WithArgs("a8m").
		WillReturnResult(sqlmock.NewResult(3, 1))
	res, err := c.Exec(ctx, "INSERT INTO users(name) VALUES(?)", "a8m")
	require.NoError(t, err)
	assert.Equal(t, Result{LastInsertID: 3, RowsAffected: 1}, res)
	assert.Equal(t, int64(3), c.LastInsertID())
	assert.Equal(t, int64(1), c.LastNumberOfChanges())

	boom := errors.New("boom")
	mock.ExpectExec("DELETE FROM users").WillReturnError(boom)
	_, err = c.Exec(ctx, "DELETE FROM users")
	require.ErrorIs(t, err, boom)
	var dbErr *sqlkit.DatabaseError
	require.ErrorAs(t, err, &dbErr)
	assert.Equal(t, "exec", dbErr.Op)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_Query(t *testing.T) {
	ctx := context.Background()
	c, mock := newMock(t, postgresLike)
	mock.ExpectQuery("SELECT id, name FROM users WHERE id > $1").
		WithArgs(0).
		WillReturnRows(mockRows("id:INTEGER", "name").AddRow(int64(1), "a").AddRow(int64(2), "b"))

	rs, err := c.Query(ctx, "SELECT id, name FROM users WHERE id > $1", 0)
	require.NoError(t, err)
	defer rs.Close()
	assert.Equal(t, []string{"id", "name"}, rs.Columns())
	var ids []int64
	for rs.Next() {
		row, err := rs.Row()
		require.NoError(t, err)
		v, err := row.Get("id")
		require.NoError(t, err)
		n, err := v.Int64()
		require.NoError(t, err)
		ids = append(ids, n)
	}
	require.NoError(t, rs.Err())
	assert.Equal(t, []int64{1, 2}, ids)

	mock.ExpectQuery("SELECT broken").WillReturnError(errors.New("syntax error"))
	_, err = c.Query(ctx, "SELECT broken")
	assert.True(t, sqlkit.IsDatabaseError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatement(t *testing.T) {
	ctx := context.Background()

	t.Run("BindAndQuery", func(t *testing.T) {
		c, mock := newMock(t, sqliteLike)
		mock.ExpectPrepare("SELECT name FROM users WHERE id = ? AND age > ?").
			ExpectQuery().
			WithArgs(int64(2), int64(18)).
			WillReturnRows(mockRows("name").AddRow("a8m"))
		st, err := c.Prepare(ctx, "SELECT name FROM users WHERE id = ? AND age > ?")
		require.NoError(t, err)
		defer st.Close()
		assert.Equal(t, "SELECT name FROM users WHERE id = ? AND age > ?", st.SQL())
		require.NoError(t, st.BindInt32(2, 18))
		require.NoError(t, st.BindInt64(1, 2))
		rs, err := st.Query(ctx)
		require.NoError(t, err)
		require.True(t, rs.Next())
		row, err := rs.Row()
		require.NoError(t, err)
		v, err := row.Get("name")
		require.NoError(t, err)
		assert.Equal(t, "a8m", v.String())
		require.NoError(t, rs.Close())
	})

	t.Run("Gaps", func(t *testing.T) {
		c, mock := newMock(t, sqliteLike)
		mock.ExpectPrepare("UPDATE t SET a = ?, b = ?")
		st, err := c.Prepare(ctx, "UPDATE t SET a = ?, b = ?")
		require.NoError(t, err)
		require.NoError(t, st.BindString(2, "x"))
		_, err = st.Exec(ctx)
		var e *sqlkit.BindingError
		require.ErrorAs(t, err, &e)
		assert.Equal(t, 1, e.Index)

		assert.True(t, sqlkit.IsBindingError(st.Bind(0, NullValue())))
		st.ClearBindings()
		mock.ExpectExec("UPDATE t SET a = ?, b = ?").WithArgs(nil, 1.5).WillReturnResult(sqlmock.NewResult(0, 4))
		require.NoError(t, st.BindNull(1))
		require.NoError(t, st.BindFloat64(2, 1.5))
		res, err := st.Exec(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), res.RowsAffected)
	})

	t.Run("Named", func(t *testing.T) {
		pg, mock := newMock(t, postgresLike)
		mock.ExpectPrepare("SELECT 1")
		st, err := pg.Prepare(ctx, "SELECT 1")
		require.NoError(t, err)
		assert.True(t, sqlkit.IsBindingError(st.BindNamed("id", Int32Value(1))))

		lite, mock := newMock(t, sqliteLike)
		mock.ExpectPrepare("SELECT :id")
		st, err = lite.Prepare(ctx, "SELECT :id")
		require.NoError(t, err)
		assert.True(t, sqlkit.IsBindingError(st.BindNamed("id; --", Int32Value(1))))
		require.NoError(t, st.BindNamed("id", Int32Value(1)))
	})

	t.Run("PrepareError", func(t *testing.T) {
		c, mock := newMock(t, mysqlLike)
		mock.ExpectPrepare("SELEC 1").WillReturnError(errors.New("syntax"))
		_, err := c.Prepare(ctx, "SELEC 1")
		var dbErr *sqlkit.DatabaseError
		require.ErrorAs(t, err, &dbErr)
		assert.Equal(t, "prepare", dbErr.Op)
	})
}

func TestConn_Closed(t *testing.T) {
	ctx := context.Background()
	c := NewConn(sqliteLike, nil)
	assert.False(t, c.IsOpen())
	_, err := c.Exec(ctx, "SELECT 1")
	assert.True(t, sqlkit.IsDatabaseError(err))
	_, err = c.Query(ctx, "SELECT 1")
	assert.True(t, sqlkit.IsDatabaseError(err))
	_, err = c.Prepare(ctx, "SELECT 1")
	assert.True(t, sqlkit.IsDatabaseError(err))
	assert.True(t, sqlkit.IsDatabaseError(c.Open(ctx)), "no uri and no pool")
	require.NoError(t, c.Close())
}

func TestConn_CloseRollsBack(t *testing.T) {
	var buf bytes.Buffer
	c, mock := newMock(t, sqliteLike, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	mock.ExpectExec("BEGIN").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("ROLLBACK").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, c.Transaction().Start(context.Background()))
	require.NoError(t, c.Close())
	assert.False(t, c.Transaction().IsActive())
	assert.Contains(t, buf.String(), "closing session with an active transaction")
	require.NoError(t, mock.ExpectationsWereMet())
	require.NoError(t, c.Close(), "closing twice is a no-op")
}

func TestConn_Schema(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	c, mock := newMock(t, sqliteLike, WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))
	const columns = "SELECT name, type, pk FROM columns WHERE tbl = ?"
	mock.ExpectQuery(columns).
		WithArgs("users").
		WillReturnRows(mockRows("name", "type", "pk:INTEGER").
			AddRow("id", "INTEGER", int64(1)).
			AddRow("name", "TEXT", int64(0)))

	s, err := c.Schema(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, s.ColumnNames())
	assert.Equal(t, []string{"id"}, s.PrimaryKeys())

	cached, err := c.Schema(ctx, "users")
	require.NoError(t, err)
	assert.Same(t, s, cached)

	c.InvalidateSchema("users")
	mock.ExpectQuery(columns).
		WithArgs("users").
		WillReturnRows(mockRows("name", "type", "pk:INTEGER").
			AddRow("id", "INTEGER", int64(1)).
			AddRow("email", "TEXT", int64(0)))
	s, err = c.Schema(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email"}, s.ColumnNames())
	assert.Contains(t, buf.String(), "column was dropped")
	assert.Contains(t, buf.String(), "new NOT NULL column without default value")

	_, err = c.Columns(ctx, "")
	assert.True(t, sqlkit.IsDatabaseError(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "23505", ErrorCode(&sqlkit.DatabaseError{Op: "exec", Code: "23505"}))
	assert.Equal(t, "1062", ErrorCode(errors.Join(errors.New("x"), &sqlkit.DatabaseError{Code: "1062"})))
	assert.Empty(t, ErrorCode(errors.New("plain")))
	assert.Empty(t, ErrorCode(nil))
}

func TestIsValidIdentifier(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"valid_simple", "foo", true},
		{"valid_with_underscore", "foo_bar", true},
		{"valid_with_number", "foo123", true},
		{"valid_with_dot", "schema.table", true},
		{"valid_starting_underscore", "_private", true},
		{"invalid_empty", "", false},
		{"invalid_starting_number", "123foo", false},
		{"invalid_with_space", "foo bar", false},
		{"invalid_with_quote", "foo'bar", false},
		{"invalid_with_semicolon", "foo;DROP TABLE", false},
		{"invalid_with_dash", "foo-bar", false},
		{"invalid_too_long", string(make([]byte, 129)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isValidIdentifier(tt.input))
		})
	}
}

func TestEscapeStringValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"no_escaping_needed", "hello", "hello"},
		{"single_quote", "it's", "it''s"},
		{"multiple_quotes", "he said 'hello'", "he said ''hello''"},
		{"backslash", `path\to\file`, `path\\to\\file`},
		{"both_quote_and_backslash", `it's a \test`, `it''s a \\test`},
		{"empty_string", "", ""},
		{"sql_injection_attempt", "'; DROP TABLE users; --", "''; DROP TABLE users; --"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, escapeStringValue(tt.input))
		})
	}
}

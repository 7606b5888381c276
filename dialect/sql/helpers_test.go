package sql

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

// mockBackend is a Backend over go-sqlmock with a configurable dialect.
type mockBackend struct {
	name     string
	param    dialect.Placeholder
	features dialect.Feature
}

var (
	sqliteLike   = mockBackend{name: dialect.SQLite, param: dialect.Question, features: dialect.Returning | dialect.FullOuterJoin | dialect.RightJoin | dialect.NamedParams}
	mysqlLike    = mockBackend{name: dialect.MySQL, param: dialect.Question}
	postgresLike = mockBackend{name: dialect.Postgres, param: dialect.Dollar, features: dialect.Returning | dialect.FullOuterJoin | dialect.RightJoin}
)

func (b mockBackend) Name() string                    { return b.name }
func (b mockBackend) DriverName() string              { return "sqlmock" }
func (b mockBackend) DSN(u *URI) (string, error)      { return u.String(), nil }
func (b mockBackend) BindParam(index int) string      { return b.param.Param(index) }
func (b mockBackend) Features() dialect.Feature       { return b.features }
func (b mockBackend) BeginSQL() string                { return "BEGIN" }
func (b mockBackend) ErrorCode(error) string          { return "" }
func (b mockBackend) SetVarSQL(name, v string) string { return fmt.Sprintf("SET %s = '%s'", name, v) }

func (b mockBackend) Columns(ctx context.Context, s Session, table string) ([]schema.Column, error) {
	return ScanColumns(ctx, s, func(r Row) (schema.Column, error) {
		name, err := r.Get("name")
		if err != nil {
			return schema.Column{}, err
		}
		typ, err := r.Get("type")
		if err != nil {
			return schema.Column{}, err
		}
		pk, err := r.Get("pk")
		if err != nil {
			return schema.Column{}, err
		}
		isPK, err := pk.Bool()
		if err != nil {
			return schema.Column{}, err
		}
		return schema.Column{Name: name.String(), Type: typ.String(), PrimaryKey: isPK, AutoIncrement: isPK}, nil
	}, "SELECT name, type, pk FROM columns WHERE tbl = "+b.BindParam(1), table)
}

// newMock opens a session on a fresh sqlmock pool. Queries are matched
// literally.
func newMock(t testing.TB, b Backend, opts ...Option) (*Conn, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	c, err := OpenDB(context.Background(), b, db, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c, mock
}

// mockRows returns rows with column type metadata. Columns are given as
// "name" or "name:TYPE"; the default type is TEXT.
func mockRows(cols ...string) *sqlmock.Rows {
	defs := make([]*sqlmock.Column, len(cols))
	for i, c := range cols {
		name, typ, _ := strings.Cut(c, ":")
		var sample any = ""
		switch typ {
		case "":
			typ = "TEXT"
		case "INTEGER", "INT", "BIGINT":
			sample = int64(0)
		case "REAL", "FLOAT":
			sample = float64(0)
		}
		defs[i] = sqlmock.NewColumn(name).OfType(typ, sample)
	}
	return sqlmock.NewRowsWithColumnDefinition(defs...)
}

// Package sqlite registers the SQLite backend for the sqlite://, file://
// and libsql:// URI schemes.
//
//	import _ "github.com/syssam/sqlkit/dialect/sql/sqlite"
//
//	sess, err := sql.Open(ctx, "sqlite://:memory:")
//	sess, err := sql.Open(ctx, "sqlite://./data/app.db?_pragma=foreign_keys(1)")
//	sess, err := sql.Open(ctx, "libsql://db-org.turso.io?authToken=...")
package sqlite

import (
	"context"
	"errors"
	"strconv"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	modernc "modernc.org/sqlite"

	"github.com/syssam/sqlkit/dialect"
	"github.com/syssam/sqlkit/dialect/sql"
	"github.com/syssam/sqlkit/dialect/sql/schema"
)

func init() {
	sql.Register(Backend{}, "sqlite", "file")
	sql.Register(Libsql{}, "libsql")
}

// Backend is the SQLite backend over modernc.org/sqlite.
type Backend struct{}

var _ sql.Backend = Backend{}

// Name implements sql.Backend.
func (Backend) Name() string { return dialect.SQLite }

// DriverName implements sql.Backend.
func (Backend) DriverName() string { return "sqlite" }

// DSN maps the URI onto a database file name. The authority and path
// together form the file name, so sqlite://:memory:, sqlite://./app.db and
// sqlite:///var/lib/app.db all work. The file:// scheme keeps the file: URI
// prefix understood by SQLite.
func (Backend) DSN(u *sql.URI) (string, error) {
	name := u.Host + u.Path
	if name == "" {
		name = ":memory:"
	}
	if u.Protocol == "file" {
		name = "file:" + name
	}
	if u.Query != "" {
		name += "?" + u.Query
	}
	return name, nil
}

// BindParam implements sql.Backend.
func (Backend) BindParam(i int) string { return dialect.Question.Param(i) }

// Features implements sql.Backend.
func (Backend) Features() dialect.Feature {
	return dialect.Returning | dialect.FullOuterJoin | dialect.RightJoin | dialect.NamedParams
}

// BeginSQL implements sql.Backend.
func (Backend) BeginSQL() string { return "BEGIN TRANSACTION" }

// SetVarSQL sets a pragma.
func (Backend) SetVarSQL(name, value string) string {
	return "PRAGMA " + name + " = '" + value + "'"
}

// Columns implements sql.Backend.
func (Backend) Columns(ctx context.Context, s sql.Session, table string) ([]schema.Column, error) {
	return tableInfo(ctx, s, table)
}

// ErrorCode returns the extended SQLite result code, e.g. "2067" for a
// UNIQUE constraint violation.
func (Backend) ErrorCode(err error) string {
	var e *modernc.Error
	if errors.As(err, &e) {
		return strconv.Itoa(e.Code())
	}
	return ""
}

// Libsql is the SQLite backend for libsql servers, reached through
// github.com/tursodatabase/libsql-client-go.
type Libsql struct{ Backend }

var _ sql.Backend = Libsql{}

// DriverName implements sql.Backend.
func (Libsql) DriverName() string { return "libsql" }

// DSN rebuilds the libsql URL, credentials and auth token included.
func (Libsql) DSN(u *sql.URI) (string, error) {
	var sb strings.Builder
	sb.WriteString("libsql://")
	if u.User != "" {
		sb.WriteString(u.User)
		if u.Password != "" {
			sb.WriteString(":" + u.Password)
		}
		sb.WriteString("@")
	}
	sb.WriteString(u.Host)
	if u.Port != 0 {
		sb.WriteString(":" + strconv.Itoa(u.Port))
	}
	sb.WriteString(u.Path)
	if u.Query != "" {
		sb.WriteString("?" + u.Query)
	}
	return sb.String(), nil
}

// Features implements sql.Backend. Remote statements are sent with
// positional arguments only.
func (Libsql) Features() dialect.Feature { return dialect.Returning }

// BeginSQL implements sql.Backend.
func (Libsql) BeginSQL() string { return "BEGIN" }

// ErrorCode implements sql.Backend. The libsql client reports no codes.
func (Libsql) ErrorCode(error) string { return "" }

// tableInfo reads PRAGMA table_info. An INTEGER column that is the only
// primary key aliases the rowid and counts as auto incremented.
func tableInfo(ctx context.Context, s sql.Session, table string) ([]schema.Column, error) {
	query := `PRAGMA table_info("` + strings.ReplaceAll(table, `"`, `""`) + `")`
	cols, err := sql.ScanColumns(ctx, s, scanColumn, query)
	if err != nil {
		return nil, err
	}
	pks := 0
	for _, c := range cols {
		if c.PrimaryKey {
			pks++
		}
	}
	for i, c := range cols {
		if pks == 1 && c.PrimaryKey && strings.EqualFold(c.Type, "INTEGER") {
			cols[i].AutoIncrement = true
		}
	}
	return cols, nil
}

func scanColumn(r sql.Row) (schema.Column, error) {
	vals := make(map[string]sql.Value, 5)
	for _, name := range []string{"name", "type", "notnull", "dflt_value", "pk"} {
		v, err := r.Get(name)
		if err != nil {
			return schema.Column{}, err
		}
		vals[name] = v
	}
	notNull, err := vals["notnull"].Bool()
	if err != nil {
		return schema.Column{}, err
	}
	// pk is the 1-based position within the primary key, 0 for other columns.
	pk, err := vals["pk"].Int64()
	if err != nil {
		return schema.Column{}, err
	}
	c := schema.Column{
		Name:       vals["name"].String(),
		Type:       vals["type"].String(),
		PrimaryKey: pk > 0,
		Nullable:   !notNull,
	}
	if c.PrimaryKey && strings.EqualFold(c.Type, "INTEGER") {
		c.Nullable = false
	}
	if def := vals["dflt_value"]; !def.IsNull() {
		c.Default.String, c.Default.Valid = def.String(), true
	}
	return c, nil
}

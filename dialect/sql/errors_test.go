package sql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syssam/sqlkit"
)

type sqlStateErr string

func (e sqlStateErr) Error() string    { return "pq: " + string(e) }
func (e sqlStateErr) SQLState() string { return string(e) }

func TestConstraintErrors(t *testing.T) {
	tests := []struct {
		name              string
		err               error
		unique, fk, check bool
	}{
		{name: "Nil"},
		{name: "Plain", err: errors.New("connection refused")},
		{name: "PostgresUnique", err: sqlStateErr("23505"), unique: true},
		{name: "PostgresForeignKey", err: sqlStateErr("23503"), fk: true},
		{name: "PostgresCheck", err: sqlStateErr("23514"), check: true},
		{name: "CodeOnDatabaseError", err: &sqlkit.DatabaseError{Op: "exec", Code: "23505", Err: errors.New("dup")}, unique: true},
		{name: "MySQLNumber", err: &sqlkit.DatabaseError{Op: "exec", Code: "1062", Err: errors.New("dup")}, unique: true},
		{name: "MySQLParentRow", err: &sqlkit.DatabaseError{Op: "exec", Code: "1451", Err: errors.New("fk")}, fk: true},
		{name: "MySQLCheck", err: &sqlkit.DatabaseError{Op: "exec", Code: "3819", Err: errors.New("check")}, check: true},
		{name: "SQLiteUnique", err: errors.New("UNIQUE constraint failed: users.email"), unique: true},
		{name: "SQLiteForeignKey", err: errors.New("FOREIGN KEY constraint failed"), fk: true},
		{name: "SQLiteCheck", err: errors.New("CHECK constraint failed: age"), check: true},
		{name: "Wrapped", err: fmt.Errorf("insert user: %w", sqlkit.NewDatabaseError("exec", sqlStateErr("23505"))), unique: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.unique, IsUniqueConstraintError(tt.err))
			assert.Equal(t, tt.fk, IsForeignKeyConstraintError(tt.err))
			assert.Equal(t, tt.check, IsCheckConstraintError(tt.err))
			assert.Equal(t, tt.unique || tt.fk || tt.check, IsConstraintError(tt.err))
		})
	}
}

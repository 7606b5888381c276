package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit/dialect/sql"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query SQL [ARGS...]",
		Short: "Run a statement and print its rows",
		Long: `Run a raw statement and print the rows it returns.

Arguments after the statement are bound to its placeholders in order.
Integers and floats are bound as numbers and NULL as null.

Examples:
  sqlkit query --uri sqlite://./app.db "SELECT * FROM users WHERE age > ?" 30
  sqlkit query --uri postgres://localhost/app "SELECT now()" --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s sql.Session, f *Formatter) (err error) {
				rs, err := s.Query(ctx, args[0], parseArgs(args[1:])...)
				if err != nil {
					return err
				}
				defer func() { err = errors.Join(err, rs.Close()) }()
				t, err := readTable(rs)
				if err != nil {
					return err
				}
				return f.Success(t)
			})
		},
	}
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "exec SQL [ARGS...]",
		Short: "Run a statement that returns no rows",
		Long: `Run a raw statement and print the number of affected rows and the
last insert id.

Examples:
  sqlkit exec --uri sqlite://./app.db "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)"
  sqlkit exec --uri sqlite://./app.db "INSERT INTO users(name) VALUES(?)" a8m`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s sql.Session, f *Formatter) error {
				res, err := s.Exec(ctx, args[0], parseArgs(args[1:])...)
				if err != nil {
					return err
				}
				return f.Success(ExecResult{LastInsertID: res.LastInsertID, RowsAffected: res.RowsAffected})
			})
		},
	}
}

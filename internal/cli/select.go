package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit/dialect/sql"
)

// SelectOptions holds flags for the select and count commands.
type SelectOptions struct {
	*RootOptions
	Columns []string
	Where   []string
	Order   []string
	Limit   int
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select TABLE",
		Short: "Generate and run a SELECT on a table",
		Long: `Generate a SELECT for the table and print its rows. Placeholders
are rendered for the backend of the URI.

Filters have the form COLUMN OP VALUE with OP one of =, !=, >=, <=, >, <
and ~ (LIKE). Repeated filters are joined with AND.

Examples:
  sqlkit select users --uri sqlite://./app.db --where "age>=21" --order "name DESC" --limit 10
  sqlkit select users --uri postgres://localhost/app --columns id,name --where "name~a%"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s sql.Session, f *Formatter) error {
				return runSelect(ctx, s, f, opts, args[0])
			})
		},
	}

	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "columns to select (default: every column of the table)")
	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter as COLUMN OP VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Order, "order", nil, `ORDER BY terms, e.g. "name DESC"`)
	cmd.Flags().IntVar(&opts.Limit, "limit", -1, "maximum number of rows (negative for no limit)")

	return cmd
}

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "count TABLE",
		Short: "Count the rows of a table",
		Long: `Count the rows of the table matching the filters.

Examples:
  sqlkit count users --uri sqlite://./app.db --where "age>=21"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(rootOpts, cmd, func(ctx context.Context, s sql.Session, f *Formatter) error {
				w, err := parseFilters(opts.Where)
				if err != nil {
					return err
				}
				q, err := sql.NewSelect(s, args[0])
				if err != nil {
					return err
				}
				defer q.Close()
				n, err := q.Where(w).Count(ctx)
				if err != nil {
					return err
				}
				return f.Success(CountResult{Count: n})
			})
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Where, "where", "w", nil, "filter as COLUMN OP VALUE (repeatable)")

	return cmd
}

func runSelect(ctx context.Context, s sql.Session, f *Formatter, opts *SelectOptions, table string) (err error) {
	w, err := parseFilters(opts.Where)
	if err != nil {
		return err
	}
	q, err := sql.NewSelect(s, table, opts.Columns...)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, q.Close()) }()
	q.Where(w).OrderBy(opts.Order...).Limit(opts.Limit)
	if opts.Verbose {
		if text, err := q.ToSQL(); err == nil {
			s.Logger().DebugContext(ctx, "generated", "sql", text)
		}
	}
	rs, err := q.Execute(ctx)
	if err != nil {
		return err
	}
	t, err := readTable(rs)
	if err != nil {
		return err
	}
	return f.Success(t)
}

// filterOps lists the filter operators, two character ones first.
var filterOps = []struct {
	op   string
	pred func(col string, v any) *sql.Where
}{
	{"!=", sql.NEQ},
	{">=", sql.GTE},
	{"<=", sql.LTE},
	{"=", sql.EQ},
	{">", sql.GT},
	{"<", sql.LT},
	{"~", sql.Like},
}

// parseFilters ANDs the COLUMN OP VALUE filters into one clause.
func parseFilters(filters []string) (*sql.Where, error) {
	w := &sql.Where{}
	for _, f := range filters {
		p, err := parseFilter(f)
		if err != nil {
			return nil, err
		}
		w.And(p)
	}
	return w, nil
}

func parseFilter(f string) (*sql.Where, error) {
	i, op := -1, filterOps[0]
	for _, o := range filterOps {
		if j := strings.Index(f, o.op); j > 0 && (i < 0 || j < i) {
			i, op = j, o
		}
	}
	if i < 0 {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter %q: expected COLUMN OP VALUE", f))
	}
	col := strings.TrimSpace(f[:i])
	if col == "" {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid filter %q: missing column", f))
	}
	val := strings.TrimSpace(f[i+len(op.op):])
	if val == "NULL" {
		switch op.op {
		case "=":
			return sql.IsNull(col), nil
		case "!=":
			return sql.NotNull(col), nil
		}
	}
	return op.pred(col, parseArg(val)), nil
}

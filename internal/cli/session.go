package cli

import (
	"context"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/syssam/sqlkit/config"
	"github.com/syssam/sqlkit/dialect/sql"
	_ "github.com/syssam/sqlkit/dialect/sql/mysql"
	_ "github.com/syssam/sqlkit/dialect/sql/postgres"
	_ "github.com/syssam/sqlkit/dialect/sql/sqlite"
)

// openSession loads the configuration and opens a session on the resulting
// URI. Logs go to stderr. A configured slow query threshold wraps the
// session in a StatsSession logging slow statements.
func openSession(ctx context.Context, opts *RootOptions, stderr io.Writer) (sql.Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if opts.URI != "" {
		cfg.URI = opts.URI
	}
	if cfg.URI == "" {
		return nil, NewExitError(ExitCommandError, "no database uri: use --uri or set "+config.EnvURI)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	c, err := sql.Open(ctx, cfg.URI, cfg.Options(stderr)...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if cfg.SlowQuery > 0 {
		return sql.NewStatsSession(c, sql.WithSlowThreshold(cfg.SlowQuery), sql.WithSlowQueryLog()), nil
	}
	return c, nil
}

// withSession opens a session for cmd, runs fn and reports its error in the
// configured format.
func withSession(opts *RootOptions, cmd *cobra.Command, fn func(context.Context, sql.Session, *Formatter) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	f := &Formatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	s, err := openSession(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		_ = f.Error(err)
		return reported(ExitCommandError, "failed to open database", err)
	}
	defer s.Close()
	if err := fn(ctx, s, f); err != nil {
		_ = f.Error(err)
		return reported(ExitFailure, cmd.Name()+" failed", err)
	}
	return nil
}

// parseArg converts a command line argument: integers and floats are bound
// as numbers, NULL as null and everything else as text.
func parseArg(s string) any {
	if s == "NULL" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

func parseArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = parseArg(a)
	}
	return out
}

package sql

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/syssam/sqlkit"
)

// transaction tracks the transaction state of a Conn. Statements run on
// the session's pinned connection, so every query issued through the
// session between Start and Commit/Rollback is part of the transaction.
type transaction struct {
	c          *Conn
	active     bool
	savepoints []string
}

var _ Transaction = (*transaction)(nil)

func (t *transaction) exec(ctx context.Context, op, query string) error {
	if t.c.conn == nil {
		return &sqlkit.TransactionError{Op: op, Msg: "session is not open"}
	}
	t.c.opts.logger.DebugContext(ctx, "transaction", "op", op, "sql", query)
	if _, err := t.c.conn.ExecContext(ctx, query); err != nil {
		return &sqlkit.TransactionError{Op: op, Err: t.c.wrap(op, err)}
	}
	return nil
}

func (t *transaction) Start(ctx context.Context) error {
	if t.active {
		return &sqlkit.TransactionError{Op: "start", Msg: "transaction already active"}
	}
	if err := t.exec(ctx, "start", t.c.backend.BeginSQL()); err != nil {
		return err
	}
	t.active = true
	return nil
}

func (t *transaction) Commit(ctx context.Context) error {
	return t.finish(ctx, "commit", "COMMIT")
}

func (t *transaction) Rollback(ctx context.Context) error {
	return t.finish(ctx, "rollback", "ROLLBACK")
}

func (t *transaction) finish(ctx context.Context, op, query string) error {
	if !t.active {
		return &sqlkit.TransactionError{Op: op, Msg: "no active transaction"}
	}
	err := t.exec(ctx, op, query)
	// The engine ends the transaction on a failed COMMIT or ROLLBACK too.
	t.active = false
	t.savepoints = nil
	return err
}

// Savepoint implements Transaction. Generated names have the form
// sp_<32 hex digits>.
func (t *transaction) Savepoint(ctx context.Context, name string) (string, error) {
	if !t.active {
		return "", &sqlkit.TransactionError{Op: "savepoint", Msg: "no active transaction"}
	}
	if name == "" {
		name = "sp_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if !isValidIdentifier(name) {
		return "", &sqlkit.TransactionError{Op: "savepoint", Msg: "invalid savepoint name " + name}
	}
	if err := t.exec(ctx, "savepoint", "SAVEPOINT "+name); err != nil {
		return "", err
	}
	t.savepoints = append(t.savepoints, name)
	return name, nil
}

func (t *transaction) ReleaseSavepoint(ctx context.Context, name string) error {
	i, err := t.lookup("release", name)
	if err != nil {
		return err
	}
	if err := t.exec(ctx, "release", "RELEASE SAVEPOINT "+name); err != nil {
		return err
	}
	// Releasing a savepoint also releases the ones created after it.
	t.savepoints = t.savepoints[:i]
	return nil
}

func (t *transaction) RollbackTo(ctx context.Context, name string) error {
	i, err := t.lookup("rollback to", name)
	if err != nil {
		return err
	}
	if err := t.exec(ctx, "rollback to", "ROLLBACK TO SAVEPOINT "+name); err != nil {
		return err
	}
	// The savepoint itself survives a rollback to it.
	t.savepoints = t.savepoints[:i+1]
	return nil
}

func (t *transaction) lookup(op, name string) (int, error) {
	if !t.active {
		return 0, &sqlkit.TransactionError{Op: op, Msg: "no active transaction"}
	}
	i := slices.Index(t.savepoints, name)
	if i < 0 {
		return 0, &sqlkit.TransactionError{Op: op, Msg: "unknown savepoint " + name}
	}
	return i, nil
}

func (t *transaction) IsActive() bool { return t.active }

// WithTransaction runs fn inside a transaction of s. The transaction is
// committed when fn returns nil and rolled back otherwise, including when
// fn panics.
func WithTransaction(ctx context.Context, s Session, fn func(tx Transaction) error) error {
	tx := s.Transaction()
	if err := tx.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if v := recover(); v != nil {
			_ = tx.Rollback(ctx)
			panic(v)
		}
	}()
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(ctx); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return err
	}
	return tx.Commit(ctx)
}

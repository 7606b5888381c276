package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/syssam/sqlkit/dialect/sql"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Database error
	ExitCommandError = 2 // Invalid flags, config or URI
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int
	Message string
	Err     error
	// Reported is set once the error was written to the command output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// reported marks err as written to the command output, wrapping it in an
// ExitError with code if it is not one already.
func reported(code int, message string, err error) *ExitError {
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		exitErr = WrapExitError(code, message, err)
	}
	exitErr.Reported = true
	return exitErr
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// Response is the JSON envelope of every command.
type Response struct {
	Status string     `json:"status"`
	Data   any        `json:"data,omitempty"`
	Error  *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed command.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Table is a tabular result.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// ExecResult is the result of a statement without rows.
type ExecResult struct {
	LastInsertID int64 `json:"last_insert_id"`
	RowsAffected int64 `json:"rows_affected"`
}

// CountResult is the result of the count command.
type CountResult struct {
	Count int64 `json:"count"`
}

// Formatter writes command results as text or JSON.
type Formatter struct {
	Format string
	Writer io.Writer
}

// Success writes data.
func (f *Formatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{Status: "ok", Data: data})
	}
	switch d := data.(type) {
	case *Table:
		return f.writeTable(d)
	case ExecResult:
		_, err := fmt.Fprintf(f.Writer, "rows affected: %d, last insert id: %d\n", d.RowsAffected, d.LastInsertID)
		return err
	case CountResult:
		_, err := fmt.Fprintln(f.Writer, d.Count)
		return err
	default:
		_, err := fmt.Fprintln(f.Writer, data)
		return err
	}
}

// Error writes err. The native database code is included when known.
func (f *Formatter) Error(err error) error {
	code := sql.ErrorCode(err)
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(Response{
			Status: "error",
			Error:  &ErrorBody{Message: err.Error(), Code: code},
		})
	}
	if code != "" {
		_, werr := fmt.Fprintf(f.Writer, "Error [%s]: %v\n", code, err)
		return werr
	}
	_, werr := fmt.Fprintf(f.Writer, "Error: %v\n", err)
	return werr
}

func (f *Formatter) writeTable(t *Table) error {
	tw := tabwriter.NewWriter(f.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	cells := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		for i, c := range t.Columns {
			if v := r[c]; v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(f.Writer, "(%d rows)\n", len(t.Rows))
	return err
}

// readTable drains rs into a Table.
func readTable(rs sql.Resultset) (*Table, error) {
	t := &Table{Columns: rs.Columns(), Rows: []map[string]any{}}
	for rs.Next() {
		row, err := rs.Row()
		if err != nil {
			return nil, err
		}
		vals, err := row.Values()
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, len(vals))
		for i, v := range vals {
			m[t.Columns[i]] = plain(v)
		}
		t.Rows = append(t.Rows, m)
	}
	return t, rs.Err()
}

// plain converts v to a JSON friendly value.
func plain(v sql.Value) any {
	switch v.Kind() {
	case sql.KindNull:
		return nil
	case sql.KindInt32, sql.KindInt64:
		n, _ := v.Int64()
		return n
	case sql.KindFloat64:
		f, _ := v.Float64()
		return f
	default:
		return v.String()
	}
}

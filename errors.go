package sqlkit

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for the error taxonomy.
var (
	// ErrDatabase is matched by every DatabaseError.
	ErrDatabase = errors.New("sqlkit: database error")

	// ErrBinding is matched by every BindingError.
	ErrBinding = errors.New("sqlkit: binding error")

	// ErrValueConversion is matched by every ValueConversionError.
	ErrValueConversion = errors.New("sqlkit: value conversion error")

	// ErrNoSuchColumn is matched by every NoSuchColumnError.
	ErrNoSuchColumn = errors.New("sqlkit: no such column")

	// ErrRecordNotFound is returned when a lookup yields no row.
	ErrRecordNotFound = errors.New("sqlkit: record not found")

	// ErrTransaction is matched by every TransactionError.
	ErrTransaction = errors.New("sqlkit: transaction error")
)

// DatabaseError represents a connection, prepare or execute level failure.
// It carries the backend-native message through the wrapped error.
type DatabaseError struct {
	Op   string // Operation (e.g., "open", "prepare", "exec", "query")
	Code string // Backend error code, if known
	Msg  string // Message used when there is no underlying error
	Err  error  // Underlying backend error
}

// Error returns the error string.
func (e *DatabaseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": " + e.Err.Error()
		} else {
			msg = e.Err.Error()
		}
	}
	switch {
	case e.Code != "" && e.Op != "":
		return fmt.Sprintf("sqlkit: %s: [%s] %s", e.Op, e.Code, msg)
	case e.Op != "":
		return fmt.Sprintf("sqlkit: %s: %s", e.Op, msg)
	default:
		return "sqlkit: " + msg
	}
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrDatabase.
func (e *DatabaseError) Is(err error) bool {
	return err == ErrDatabase
}

// NewDatabaseError returns a new DatabaseError for the given operation.
func NewDatabaseError(op string, err error) *DatabaseError {
	return &DatabaseError{Op: op, Err: err}
}

// DatabaseErrorf returns a DatabaseError with a formatted message and no underlying error.
func DatabaseErrorf(op, format string, args ...any) *DatabaseError {
	return &DatabaseError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// IsDatabaseError returns true if the error is a DatabaseError.
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}
	var e *DatabaseError
	return errors.As(err, &e) || errors.Is(err, ErrDatabase)
}

// BindingError represents a parameter count, type or index mismatch.
type BindingError struct {
	Index  int    // 1-based position, 0 when binding by name
	Name   string // Parameter name, if bound by name
	Reason string
	Err    error // Backend error, if the backend rejected the bind
}

// Error returns the error string.
func (e *BindingError) Error() string {
	var target string
	switch {
	case e.Name != "":
		target = fmt.Sprintf("parameter %q", e.Name)
	default:
		target = fmt.Sprintf("parameter %d", e.Index)
	}
	if e.Err != nil {
		return fmt.Sprintf("sqlkit: bind %s: %s: %v", target, e.Reason, e.Err)
	}
	return fmt.Sprintf("sqlkit: bind %s: %s", target, e.Reason)
}

// Unwrap returns the underlying error.
func (e *BindingError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrBinding.
func (e *BindingError) Is(err error) bool {
	return err == ErrBinding
}

// NewBindingError returns a new BindingError for a positional parameter.
func NewBindingError(index int, reason string) *BindingError {
	return &BindingError{Index: index, Reason: reason}
}

// NewNamedBindingError returns a new BindingError for a named parameter.
func NewNamedBindingError(name, reason string) *BindingError {
	return &BindingError{Name: name, Reason: reason}
}

// IsBindingError returns true if the error is a BindingError.
func IsBindingError(err error) bool {
	if err == nil {
		return false
	}
	var e *BindingError
	return errors.As(err, &e) || errors.Is(err, ErrBinding)
}

// ValueConversionError represents a typed value coercion failure.
type ValueConversionError struct {
	From  string // Source variant
	To    string // Requested target type
	Input string // Canonical text of the source value
	Err   error  // Parse error, if any
}

// Error returns the error string.
func (e *ValueConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sqlkit: cannot convert %s %q to %s: %v", e.From, e.Input, e.To, e.Err)
	}
	return fmt.Sprintf("sqlkit: cannot convert %s %q to %s", e.From, e.Input, e.To)
}

// Unwrap returns the underlying error.
func (e *ValueConversionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrValueConversion.
func (e *ValueConversionError) Is(err error) bool {
	return err == ErrValueConversion
}

// IsValueConversionError returns true if the error is a ValueConversionError.
func IsValueConversionError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValueConversionError
	return errors.As(err, &e) || errors.Is(err, ErrValueConversion)
}

// NoSuchColumnError is returned when a row has no column with the requested name.
type NoSuchColumnError struct {
	Name string
}

// Error returns the error string.
func (e *NoSuchColumnError) Error() string {
	return fmt.Sprintf("sqlkit: no such column %q", e.Name)
}

// Is reports whether the target error matches ErrNoSuchColumn.
func (e *NoSuchColumnError) Is(err error) bool {
	return err == ErrNoSuchColumn
}

// NewNoSuchColumnError returns a new NoSuchColumnError.
func NewNoSuchColumnError(name string) *NoSuchColumnError {
	return &NoSuchColumnError{Name: name}
}

// IsNoSuchColumn returns true if the error is a NoSuchColumnError.
func IsNoSuchColumn(err error) bool {
	if err == nil {
		return false
	}
	var e *NoSuchColumnError
	return errors.As(err, &e) || errors.Is(err, ErrNoSuchColumn)
}

// RecordNotFoundError represents a lookup that matched no row.
type RecordNotFoundError struct {
	Table string
	ID    any // Optional: the key that was searched for
}

// Error returns the error string.
func (e *RecordNotFoundError) Error() string {
	if e.ID != nil {
		return fmt.Sprintf("sqlkit: %s record not found (id=%v)", e.Table, e.ID)
	}
	return fmt.Sprintf("sqlkit: %s record not found", e.Table)
}

// Is reports whether the target error matches ErrRecordNotFound.
func (e *RecordNotFoundError) Is(err error) bool {
	return err == ErrRecordNotFound
}

// NewRecordNotFoundError returns a new RecordNotFoundError for the given table.
func NewRecordNotFoundError(table string, id any) *RecordNotFoundError {
	return &RecordNotFoundError{Table: table, ID: id}
}

// IsRecordNotFound returns true if the error is a RecordNotFoundError.
func IsRecordNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *RecordNotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrRecordNotFound)
}

// TransactionError wraps a start, commit, rollback or savepoint failure.
type TransactionError struct {
	Op  string // Operation (e.g., "start", "commit", "savepoint")
	Msg string
	Err error
}

// Error returns the error string.
func (e *TransactionError) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("sqlkit: transaction %s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("sqlkit: transaction %s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("sqlkit: transaction %s: %s", e.Op, e.Msg)
	}
}

// Unwrap returns the underlying error.
func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is reports whether the target error matches ErrTransaction.
func (e *TransactionError) Is(err error) bool {
	return err == ErrTransaction
}

// IsTransactionError returns true if the error is a TransactionError.
func IsTransactionError(err error) bool {
	if err == nil {
		return false
	}
	var e *TransactionError
	return errors.As(err, &e) || errors.Is(err, ErrTransaction)
}

package schema

import (
	"fmt"
	"strings"
)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Table   string
	Column  string
	Message string
	// Breaking indicates if queries built from the old schema may fail.
	Breaking bool
}

func (e *ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s.%s: %s", e.Table, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Table, e.Message)
}

// ValidationResult holds the results of schema validation.
type ValidationResult struct {
	Errors   []*ValidationError
	Warnings []*ValidationError
}

// HasErrors returns true if there are any validation errors.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// HasBreakingChanges returns true if there are any breaking changes.
func (r *ValidationResult) HasBreakingChanges() bool {
	for _, e := range r.Errors {
		if e.Breaking {
			return true
		}
	}
	for _, w := range r.Warnings {
		if w.Breaking {
			return true
		}
	}
	return false
}

// String returns a human-readable summary of the validation result.
func (r *ValidationResult) String() string {
	var sb strings.Builder
	write := func(title string, errs []*ValidationError) {
		if len(errs) == 0 {
			return
		}
		sb.WriteString(title)
		sb.WriteString(":\n")
		for _, e := range errs {
			sb.WriteString("  - ")
			sb.WriteString(e.Error())
			if e.Breaking {
				sb.WriteString(" [BREAKING]")
			}
			sb.WriteString("\n")
		}
	}
	write("Errors", r.Errors)
	write("Warnings", r.Warnings)
	if !r.HasErrors() && !r.HasWarnings() {
		sb.WriteString("No issues found")
	}
	return sb.String()
}

// ValidateTable checks a loaded schema for definitions the query builders
// cannot use safely.
func ValidateTable(s *Schema) *ValidationResult {
	result := &ValidationResult{}
	if s.TableName() == "" {
		result.Errors = append(result.Errors, &ValidationError{Message: "empty table name"})
	}
	if !s.Exists() {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   s.TableName(),
			Message: "table has no columns",
		})
		return result
	}

	if len(s.PrimaryKeys()) == 0 {
		result.Warnings = append(result.Warnings, &ValidationError{
			Table:   s.TableName(),
			Message: "table has no primary key",
		})
	}

	seen := make(map[string]bool)
	for _, c := range s.columns {
		if c.Name == "" {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   s.TableName(),
				Message: "column with empty name",
			})
			continue
		}
		if seen[c.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Table:   s.TableName(),
				Column:  c.Name,
				Message: "duplicate column name",
			})
		}
		seen[c.Name] = true

		if c.AutoIncrement && !c.PrimaryKey {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   s.TableName(),
				Column:  c.Name,
				Message: "auto increment column is not part of the primary key",
			})
		}
	}
	return result
}

// ValidateDiff compares a previously cached schema with a freshly loaded
// one of the same table. Dropped columns and columns that became NOT NULL
// are breaking for queries built from the old schema.
func ValidateDiff(previous, current *Schema) *ValidationResult {
	result := &ValidationResult{}
	table := current.TableName()

	for _, old := range previous.columns {
		c, ok := current.Column(old.Name)
		if !ok {
			result.Errors = append(result.Errors, &ValidationError{
				Table:    table,
				Column:   old.Name,
				Message:  "column was dropped",
				Breaking: true,
			})
			continue
		}
		if !strings.EqualFold(old.Type, c.Type) {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   table,
				Column:  c.Name,
				Message: fmt.Sprintf("column type changed from %s to %s", old.Type, c.Type),
			})
		}
		if old.Nullable && !c.Nullable {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:    table,
				Column:   c.Name,
				Message:  "column changed from NULL to NOT NULL",
				Breaking: true,
			})
		}
	}

	for _, c := range current.columns {
		if _, ok := previous.Column(c.Name); ok {
			continue
		}
		if !c.Nullable && !c.Default.Valid && !c.AutoIncrement {
			result.Warnings = append(result.Warnings, &ValidationError{
				Table:   table,
				Column:  c.Name,
				Message: "new NOT NULL column without default value",
			})
		}
	}

	if strings.Join(previous.PrimaryKeys(), ",") != strings.Join(current.PrimaryKeys(), ",") {
		result.Errors = append(result.Errors, &ValidationError{
			Table:    table,
			Message:  "primary key changed",
			Breaking: true,
		})
	}
	return result
}

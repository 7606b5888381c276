package sql

// Field is a typed column name that provides type-safe predicate methods.
// T is the Go type of the column values.
//
// Usage:
//
//	var Email = sql.Field[string]("email")
//	q.Where(Email.EQ("test@example.com").Or(Email.Like("%@example.org")))
type Field[T any] string

// Name returns the column name.
func (f Field[T]) Name() string { return string(f) }

// EQ returns a predicate that checks if the column equals the given value.
func (f Field[T]) EQ(v T) *Where { return EQ(string(f), v) }

// NEQ returns a predicate that checks if the column does not equal the given value.
func (f Field[T]) NEQ(v T) *Where { return NEQ(string(f), v) }

// GT returns a predicate that checks if the column is greater than the given value.
func (f Field[T]) GT(v T) *Where { return GT(string(f), v) }

// GTE returns a predicate that checks if the column is greater than or equal to the given value.
func (f Field[T]) GTE(v T) *Where { return GTE(string(f), v) }

// LT returns a predicate that checks if the column is less than the given value.
func (f Field[T]) LT(v T) *Where { return LT(string(f), v) }

// LTE returns a predicate that checks if the column is less than or equal to the given value.
func (f Field[T]) LTE(v T) *Where { return LTE(string(f), v) }

// Like returns a predicate that matches the column against a LIKE pattern.
func (f Field[T]) Like(pattern string) *Where { return Like(string(f), pattern) }

// Between returns a predicate that checks if the column lies in [lo, hi].
func (f Field[T]) Between(lo, hi T) *Where { return Between(string(f), lo, hi) }

// In returns a predicate that checks if the column value is in the given list.
func (f Field[T]) In(vs ...T) *Where { return In(string(f), anySlice(vs)...) }

// NotIn returns a predicate that checks if the column value is not in the given list.
func (f Field[T]) NotIn(vs ...T) *Where { return NotIn(string(f), anySlice(vs)...) }

// IsNull returns a predicate that checks if the column is NULL.
func (f Field[T]) IsNull() *Where { return IsNull(string(f)) }

// NotNull returns a predicate that checks if the column is not NULL.
func (f Field[T]) NotNull() *Where { return NotNull(string(f)) }

func anySlice[T any](vs []T) []any {
	v := make([]any, len(vs))
	for i := range vs {
		v[i] = vs[i]
	}
	return v
}

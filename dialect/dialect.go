package dialect

import (
	"strconv"
	"strings"
)

// Dialect names.
const (
	MySQL    = "mysql"
	SQLite   = "sqlite"
	Postgres = "postgres"
)

// Feature is a bit set of optional backend capabilities.
type Feature uint32

// Capability bits.
const (
	// Returning allows INSERT ... RETURNING.
	Returning Feature = 1 << iota
	// FullOuterJoin allows FULL OUTER JOIN.
	FullOuterJoin
	// RightJoin allows RIGHT JOIN.
	RightJoin
	// NamedParams allows :name style parameters.
	NamedParams
)

// None is the empty feature set.
const None Feature = 0

var featureNames = []struct {
	f    Feature
	name string
}{
	{Returning, "RETURNING"},
	{FullOuterJoin, "FULL_OUTER_JOIN"},
	{RightJoin, "RIGHT_JOIN"},
	{NamedParams, "NAMED_PARAMS"},
}

// Has reports whether all bits of x are set in f.
func (f Feature) Has(x Feature) bool {
	return f&x == x
}

// String returns the feature names joined by "|".
func (f Feature) String() string {
	if f == None {
		return "NONE"
	}
	var names []string
	for _, n := range featureNames {
		if f.Has(n.f) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "|")
}

// Placeholder is a bind parameter style.
type Placeholder uint8

// Placeholder styles.
const (
	// Question is the positional "?" style (SQLite, MySQL).
	Question Placeholder = iota
	// Dollar is the numbered "$1" style (PostgreSQL).
	Dollar
	// Colon is the named ":name" style.
	Colon
)

// Param returns the placeholder text for the 1-based index.
// Colon has no positional form and falls back to "?".
func (p Placeholder) Param(index int) string {
	if p == Dollar {
		return "$" + strconv.Itoa(index)
	}
	return "?"
}

// Named returns the named placeholder text for name.
func (p Placeholder) Named(name string) string {
	return ":" + name
}

// String returns the placeholder style name.
func (p Placeholder) String() string {
	switch p {
	case Question:
		return "question"
	case Dollar:
		return "dollar"
	case Colon:
		return "colon"
	default:
		return "unknown"
	}
}

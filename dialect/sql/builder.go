package sql

import (
	"errors"
	"strings"

	"github.com/syssam/sqlkit/dialect"
)

// BindArg is an argument emitted by a Builder at a 1-based position.
type BindArg struct {
	Index int
	Value Value
}

// Builder accumulates SQL text and the arguments bound to the placeholders it
// emits. Placeholder text comes from the param function, normally a
// session's BindParam, so generators never hardcode a placeholder style.
//
// With numbered placeholders ("$n") an argument's index is the number it
// renders. With positional placeholders ("?") the driver fills them in text
// order, so every placeholder takes the next position: generated arguments,
// caller slots written by Param and "?" marks inside literal clause text
// alike. Slots maps each caller index to the position it landed on.
type Builder struct {
	sb         strings.Builder
	param      func(int) string
	positional bool
	args       []BindArg
	total      int
	pos        int
	slots      map[int]int
	lastSlot   int
	errs       []error
}

// NewBuilder returns a Builder emitting placeholders with param.
// A nil param emits "?".
func NewBuilder(param func(int) string) *Builder {
	if param == nil {
		param = dialect.Question.Param
	}
	return &Builder{param: param, positional: param(1) == param(2)}
}

// SetOffset makes the next argument placeholder use index n+1. Positional
// builders ignore it.
func (b *Builder) SetOffset(n int) *Builder {
	if n > b.total {
		b.total = n
	}
	return b
}

// next returns the position of the next positional placeholder.
func (b *Builder) next() int {
	b.pos++
	return b.pos
}

func (b *Builder) slot(index int) {
	if b.slots == nil {
		b.slots = make(map[int]int)
	}
	if _, ok := b.slots[index]; !ok {
		b.slots[index] = b.next()
	}
	b.lastSlot = max(b.lastSlot, index)
}

// WriteString appends raw SQL text.
func (b *Builder) WriteString(s string) *Builder {
	b.sb.WriteString(s)
	return b
}

// Join appends items separated by sep.
func (b *Builder) Join(sep string, items ...string) *Builder {
	return b.Literal(strings.Join(items, sep))
}

// Arg records v as the next argument and writes its placeholder.
func (b *Builder) Arg(v Value) *Builder {
	var index int
	if b.positional {
		index = b.next()
	} else {
		b.total++
		index = b.total
	}
	b.args = append(b.args, BindArg{Index: index, Value: v})
	b.sb.WriteString(b.param(index))
	return b
}

// Param writes the placeholder for a caller-bound index without recording
// an argument.
func (b *Builder) Param(index int) *Builder {
	if b.positional {
		b.slot(index)
	}
	b.sb.WriteString(b.param(index))
	return b
}

// Literal appends clause text written by the caller. On positional
// builders each "?" outside a quoted string is a caller slot numbered after
// the last one seen.
func (b *Builder) Literal(s string) *Builder {
	b.sb.WriteString(s)
	if !b.positional {
		return b
	}
	var quote rune
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"' || r == '`':
			quote = r
		case r == '?':
			b.slot(b.lastSlot + 1)
		}
	}
	return b
}

// Named writes a :name placeholder.
func (b *Builder) Named(name string) *Builder {
	b.sb.WriteString(dialect.Colon.Named(name))
	return b
}

// AddError records an error surfaced by Err.
func (b *Builder) AddError(err error) *Builder {
	if err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// Err returns the errors recorded while building.
func (b *Builder) Err() error {
	return errors.Join(b.errs...)
}

// Args returns the arguments in emission order.
func (b *Builder) Args() []BindArg {
	return b.args
}

// Total returns the highest argument index emitted so far.
func (b *Builder) Total() int {
	if b.positional {
		return b.pos
	}
	return b.total
}

// Slots returns the position of every caller slot of a positional builder,
// keyed by caller index. It is nil for numbered placeholders.
func (b *Builder) Slots() map[int]int {
	return b.slots
}

// String returns the accumulated SQL.
func (b *Builder) String() string {
	return b.sb.String()
}

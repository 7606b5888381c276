package sql

import "fmt"

// fragment is either literal SQL text or a bound argument slot.
type fragment struct {
	text  string
	arg   Value
	isArg bool
}

// Where is a node of a boolean predicate tree: a literal SQL fragment with
// ordered AND-connected and OR-connected children.
//
// And and Or mutate the receiver in place and return it for chaining. A node
// with an empty literal absorbs the first clause composed into it, so
//
//	new(Where).And(Expr("a = 1")).String() // "a = 1"
//
// When a node has both AND and OR children it serializes as
// "(lit AND a...) OR (o...)".
type Where struct {
	frags []fragment
	and   []*Where
	or    []*Where
	err   error
}

// Expr returns a clause holding the raw SQL literal.
func Expr(literal string) *Where {
	w := &Where{}
	if literal != "" {
		w.frags = []fragment{{text: literal}}
	}
	return w
}

// Exprf returns a clause holding the formatted SQL literal.
func Exprf(format string, args ...any) *Where {
	return Expr(fmt.Sprintf(format, args...))
}

// IsEmpty reports whether the clause has no literal and no children.
func (w *Where) IsEmpty() bool {
	return w == nil || (len(w.frags) == 0 && len(w.and) == 0 && len(w.or) == 0)
}

// And appends other as an AND-connected child.
func (w *Where) And(other *Where) *Where {
	return w.compose(other, false)
}

// Or appends other as an OR-connected child.
func (w *Where) Or(other *Where) *Where {
	return w.compose(other, true)
}

func (w *Where) compose(other *Where, or bool) *Where {
	if other.IsEmpty() {
		return w
	}
	other = other.Clone()
	if w.err == nil {
		w.err = other.err
	}
	if len(w.frags) == 0 {
		w.frags = other.frags
		w.and = append(w.and, other.and...)
		w.or = append(w.or, other.or...)
		return w
	}
	if or {
		w.or = append(w.or, other)
	} else {
		w.and = append(w.and, other)
	}
	return w
}

// Clone returns a deep copy of the clause.
func (w *Where) Clone() *Where {
	if w == nil {
		return &Where{}
	}
	c := &Where{
		frags: append([]fragment(nil), w.frags...),
		err:   w.err,
	}
	for _, a := range w.and {
		c.and = append(c.and, a.Clone())
	}
	for _, o := range w.or {
		c.or = append(c.or, o.Clone())
	}
	return c
}

// Err returns the first error recorded while building the clause.
func (w *Where) Err() error {
	if w == nil {
		return nil
	}
	return w.err
}

// String renders the clause with "?" placeholders.
func (w *Where) String() string {
	b := NewBuilder(nil)
	w.Render(b)
	return b.String()
}

// Args returns the bound arguments in placeholder order.
func (w *Where) Args() []Value {
	if w == nil {
		return nil
	}
	var args []Value
	for _, f := range w.frags {
		if f.isArg {
			args = append(args, f.arg)
		}
	}
	for _, a := range w.and {
		args = append(args, a.Args()...)
	}
	for _, o := range w.or {
		args = append(args, o.Args()...)
	}
	return args
}

// Render writes the clause into b, emitting a placeholder for every bound
// argument in the same order Args returns them.
func (w *Where) Render(b *Builder) {
	if w.IsEmpty() {
		return
	}
	if w.err != nil {
		b.AddError(w.err)
	}
	switch {
	case len(w.and) > 0 && len(w.or) > 0:
		b.WriteString("(")
		w.renderAnd(b)
		b.WriteString(") OR (")
		w.renderOr(b)
		b.WriteString(")")
	case len(w.and) > 0:
		w.renderAnd(b)
	case len(w.or) > 0:
		w.renderLiteral(b)
		b.WriteString(" OR ")
		w.renderOr(b)
	default:
		w.renderLiteral(b)
	}
}

func (w *Where) renderLiteral(b *Builder) {
	for _, f := range w.frags {
		if f.isArg {
			b.Arg(f.arg)
		} else {
			b.Literal(f.text)
		}
	}
}

func (w *Where) renderAnd(b *Builder) {
	w.renderLiteral(b)
	for _, a := range w.and {
		b.WriteString(" AND ")
		// OR binds looser than AND.
		if len(a.or) > 0 {
			b.WriteString("(")
			a.Render(b)
			b.WriteString(")")
		} else {
			a.Render(b)
		}
	}
}

func (w *Where) renderOr(b *Builder) {
	for i, o := range w.or {
		if i > 0 {
			b.WriteString(" OR ")
		}
		o.Render(b)
	}
}

// P builds a clause from literal text and argument slots. Each element of
// parts is either a string (literal) or an argument wrapped by Arg.
//
//	sql.P("age > ", sql.Arg(18), " AND age < ", sql.Arg(65))
func P(parts ...any) *Where {
	w := &Where{}
	for _, p := range parts {
		switch x := p.(type) {
		case string:
			w.frags = append(w.frags, fragment{text: x})
		case argPart:
			v, err := ValueOf(x.v)
			if err != nil && w.err == nil {
				w.err = err
			}
			w.frags = append(w.frags, fragment{arg: v, isArg: true})
		default:
			if w.err == nil {
				w.err = fmt.Errorf("sql: unexpected clause part %T", p)
			}
		}
	}
	return w
}

type argPart struct{ v any }

// Arg marks v as a bound argument inside P.
func Arg(v any) any { return argPart{v} }

// EQ returns "col = ?".
func EQ(col string, v any) *Where { return P(col+" = ", Arg(v)) }

// NEQ returns "col <> ?".
func NEQ(col string, v any) *Where { return P(col+" <> ", Arg(v)) }

// GT returns "col > ?".
func GT(col string, v any) *Where { return P(col+" > ", Arg(v)) }

// GTE returns "col >= ?".
func GTE(col string, v any) *Where { return P(col+" >= ", Arg(v)) }

// LT returns "col < ?".
func LT(col string, v any) *Where { return P(col+" < ", Arg(v)) }

// LTE returns "col <= ?".
func LTE(col string, v any) *Where { return P(col+" <= ", Arg(v)) }

// Like returns "col LIKE ?".
func Like(col string, pattern any) *Where { return P(col+" LIKE ", Arg(pattern)) }

// Between returns "col BETWEEN ? AND ?".
func Between(col string, lo, hi any) *Where {
	return P(col+" BETWEEN ", Arg(lo), " AND ", Arg(hi))
}

// In returns "col IN (?, ...)". An empty list matches nothing.
func In(col string, vs ...any) *Where {
	if len(vs) == 0 {
		return Expr("1 = 0")
	}
	parts := make([]any, 0, 2*len(vs)+1)
	parts = append(parts, col+" IN (")
	for i, v := range vs {
		if i > 0 {
			parts = append(parts, ", ")
		}
		parts = append(parts, Arg(v))
	}
	return P(append(parts, ")")...)
}

// NotIn returns "col NOT IN (?, ...)". An empty list matches everything.
func NotIn(col string, vs ...any) *Where {
	if len(vs) == 0 {
		return Expr("1 = 1")
	}
	w := In(col, vs...)
	w.frags[0].text = col + " NOT IN ("
	return w
}

// IsNull returns "col IS NULL".
func IsNull(col string) *Where { return Expr(col + " IS NULL") }

// NotNull returns "col IS NOT NULL".
func NotNull(col string) *Where { return Expr(col + " IS NOT NULL") }

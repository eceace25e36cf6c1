package logic

import (
	"strconv"
	"strings"
)

// Term is a value appearing as an argument of a literal. The term language is
// deliberately small: constants, numbers, variables, lists (used only by the
// path accumulator of the transitive-closure rules) and division expressions
// (used only inside comparisons). There are no compound functor terms.
type Term interface {
	String() string
	isTerm()
}

// Const is an atomic constant such as a table or attribute identifier.
type Const string

func (c Const) String() string { return string(c) }
func (Const) isTerm()          {}

// Number is a numeric constant. Integers and reals share one representation;
// rendering drops the fractional part when it is zero.
type Number float64

func (n Number) String() string {
	return strconv.FormatFloat(float64(n), 'g', -1, 64)
}
func (Number) isTerm() {}

// Var is a logic variable. Renamed copies carry a "#n" suffix which never
// appears in user-written clauses.
type Var string

func (v Var) String() string { return string(v) }
func (Var) isTerm()          {}

// List is a proper or partial list. A nil Tail means the list ends after
// Items; a Var tail encodes the "[X|P]" cons form.
type List struct {
	Items []Term
	Tail  Term
}

func (l List) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, it := range l.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(it.String())
	}
	if l.Tail != nil {
		b.WriteByte('|')
		b.WriteString(l.Tail.String())
	}
	b.WriteByte(']')
	return b.String()
}
func (List) isTerm() {}

// Expr is a left-associative division expression, e.g. OutRecords / Levels.
// It is only legal inside a comparison literal and is evaluated, never unified.
type Expr struct {
	Left  Term
	Right Term
}

func (e Expr) String() string { return e.Left.String() + " / " + e.Right.String() }
func (Expr) isTerm()          {}

// Literal is one element of a clause body (or a clause head / query goal).
// Builtin comparison literals use the operator as the predicate name.
type Literal struct {
	Predicate string
	Args      []Term
	Negated   bool
}

func (l Literal) String() string {
	var b strings.Builder
	if l.Negated {
		b.WriteString(`\+ `)
	}
	switch l.Predicate {
	case opLess, opGreater, opNotEqual:
		b.WriteString(l.Args[0].String())
		b.WriteByte(' ')
		b.WriteString(l.Predicate)
		b.WriteByte(' ')
		b.WriteString(l.Args[1].String())
	default:
		b.WriteString(l.Predicate)
		b.WriteByte('(')
		for i, a := range l.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Clause is a fact (empty body) or a rule "Head :- Body".
type Clause struct {
	Head Literal
	Body []Literal
}

func (c Clause) String() string {
	if len(c.Body) == 0 {
		return c.Head.String()
	}
	parts := make([]string, len(c.Body))
	for i, l := range c.Body {
		parts[i] = l.String()
	}
	return c.Head.String() + " :- " + strings.Join(parts, ", ")
}

// IsFact reports whether the clause carries no body.
func (c Clause) IsFact() bool { return len(c.Body) == 0 }

// subst maps variable names to terms. Extension copies the map so sibling
// branches of the search never observe each other's bindings.
type subst map[string]Term

func (s subst) bind(v Var, t Term) subst {
	next := make(subst, len(s)+1)
	for k, val := range s {
		next[k] = val
	}
	next[string(v)] = t
	return next
}

// walk resolves a variable chain one level short of full resolution.
func (s subst) walk(t Term) Term {
	for {
		v, ok := t.(Var)
		if !ok {
			return t
		}
		bound, ok := s[string(v)]
		if !ok {
			return t
		}
		t = bound
	}
}

// resolve substitutes bindings all the way down, flattening list tails.
func (s subst) resolve(t Term) Term {
	t = s.walk(t)
	switch tt := t.(type) {
	case List:
		items := make([]Term, 0, len(tt.Items))
		for _, it := range tt.Items {
			items = append(items, s.resolve(it))
		}
		if tt.Tail != nil {
			switch tail := s.resolve(tt.Tail).(type) {
			case List:
				items = append(items, tail.Items...)
				return List{Items: items, Tail: tail.Tail}
			default:
				return List{Items: items, Tail: tail}
			}
		}
		return List{Items: items}
	case Expr:
		return Expr{Left: s.resolve(tt.Left), Right: s.resolve(tt.Right)}
	default:
		return t
	}
}

// unify attempts to make a and b equal under s, returning the extended
// substitution. Expressions do not unify; they are evaluation-only.
func unify(a, b Term, s subst) (subst, bool) {
	a, b = s.walk(a), s.walk(b)

	if av, ok := a.(Var); ok {
		if bv, ok := b.(Var); ok && av == bv {
			return s, true
		}
		return s.bind(av, b), true
	}
	if bv, ok := b.(Var); ok {
		return s.bind(bv, a), true
	}

	switch at := a.(type) {
	case Const:
		bc, ok := b.(Const)
		return s, ok && at == bc
	case Number:
		bn, ok := b.(Number)
		return s, ok && at == bn
	case List:
		bl, ok := b.(List)
		if !ok {
			return s, false
		}
		return unifyLists(at, bl, s)
	default:
		return s, false
	}
}

func unifyLists(a, b List, s subst) (subst, bool) {
	n := len(a.Items)
	if len(b.Items) < n {
		n = len(b.Items)
	}
	var ok bool
	for i := 0; i < n; i++ {
		if s, ok = unify(a.Items[i], b.Items[i], s); !ok {
			return s, false
		}
	}
	restA := List{Items: a.Items[n:], Tail: a.Tail}
	restB := List{Items: b.Items[n:], Tail: b.Tail}
	switch {
	case len(restA.Items) == 0 && restA.Tail != nil:
		return unify(restA.Tail, restB, s)
	case len(restB.Items) == 0 && restB.Tail != nil:
		return unify(restB.Tail, restA, s)
	case len(restA.Items) == 0 && len(restB.Items) == 0:
		return s, true
	default:
		return s, false
	}
}

// hasUnbound reports whether any variable in t is still free under s.
func (s subst) hasUnbound(t Term) bool {
	t = s.resolve(t)
	switch tt := t.(type) {
	case Var:
		return true
	case List:
		for _, it := range tt.Items {
			if s.hasUnbound(it) {
				return true
			}
		}
		return tt.Tail != nil && s.hasUnbound(tt.Tail)
	case Expr:
		return s.hasUnbound(tt.Left) || s.hasUnbound(tt.Right)
	default:
		return false
	}
}

// renameClause returns a copy of c with every variable suffixed by the given
// generation counter so recursive rule applications never capture each other.
func renameClause(c Clause, gen int) Clause {
	suffix := "#" + strconv.Itoa(gen)
	out := Clause{Head: renameLiteral(c.Head, suffix)}
	out.Body = make([]Literal, len(c.Body))
	for i, l := range c.Body {
		out.Body[i] = renameLiteral(l, suffix)
	}
	return out
}

func renameLiteral(l Literal, suffix string) Literal {
	args := make([]Term, len(l.Args))
	for i, a := range l.Args {
		args[i] = renameTerm(a, suffix)
	}
	return Literal{Predicate: l.Predicate, Args: args, Negated: l.Negated}
}

func renameTerm(t Term, suffix string) Term {
	switch tt := t.(type) {
	case Var:
		return Var(string(tt) + suffix)
	case List:
		items := make([]Term, len(tt.Items))
		for i, it := range tt.Items {
			items[i] = renameTerm(it, suffix)
		}
		var tail Term
		if tt.Tail != nil {
			tail = renameTerm(tt.Tail, suffix)
		}
		return List{Items: items, Tail: tail}
	case Expr:
		return Expr{Left: renameTerm(tt.Left, suffix), Right: renameTerm(tt.Right, suffix)}
	default:
		return t
	}
}

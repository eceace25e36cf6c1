package logic

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Builtin operator predicates. Comparison literals store the operator as the
// predicate name so the solver can dispatch on it like any other builtin.
const (
	opLess     = "<"
	opGreater  = ">"
	opNotEqual = `\=`

	predMember = "member"
)

// ParseClause parses a single clause line, either a fact "pred(a, b)." or a
// rule "head(X) :- body1(X), body2(X, Y)". The trailing dot is optional.
func ParseClause(line string) (Clause, error) {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "."))
	if line == "" {
		return Clause{}, fmt.Errorf("%w: empty line", ErrMalformedClause)
	}

	headPart := line
	var bodyPart string
	if idx := indexTopLevel(line, ":-"); idx != -1 {
		headPart = strings.TrimSpace(line[:idx])
		bodyPart = strings.TrimSpace(line[idx+2:])
	}

	head, err := parseLiteral(headPart)
	if err != nil {
		return Clause{}, fmt.Errorf("%w: head of %q: %v", ErrMalformedClause, line, err)
	}
	if head.Negated || isOperator(head.Predicate) {
		return Clause{}, fmt.Errorf("%w: head of %q must be a plain atom", ErrMalformedClause, line)
	}

	clause := Clause{Head: head}
	if bodyPart != "" {
		body, err := ParseGoal(bodyPart)
		if err != nil {
			return Clause{}, fmt.Errorf("%w: body of %q: %v", ErrMalformedClause, line, err)
		}
		clause.Body = body
	}
	return clause, nil
}

// ParseGoal parses a conjunction of literals, e.g. a query string or a rule
// body: "suitableAsTreatment(T, O), variesWithTime(T, O)".
func ParseGoal(goal string) ([]Literal, error) {
	goal = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(goal), "."))
	if goal == "" {
		return nil, ErrEmptyGoal
	}

	var literals []Literal
	for _, raw := range SmartSplit(goal) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		lit, err := parseLiteral(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to parse literal %q: %w", raw, err)
		}
		literals = append(literals, lit)
	}
	if len(literals) == 0 {
		return nil, ErrEmptyGoal
	}
	return literals, nil
}

func isOperator(pred string) bool {
	return pred == opLess || pred == opGreater || pred == opNotEqual
}

// parseLiteral parses one literal: a negated goal "\+ member(Z, P)", a
// comparison "TreatLevels < 30" / "A \= B", or a plain atom "related(X, Y, R)".
func parseLiteral(raw string) (Literal, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, `\+`) {
		inner, err := parseLiteral(raw[2:])
		if err != nil {
			return Literal{}, err
		}
		if inner.Negated {
			return Literal{}, fmt.Errorf("double negation in %q", raw)
		}
		inner.Negated = true
		return inner, nil
	}

	for _, op := range []string{opNotEqual, opLess, opGreater} {
		idx := indexTopLevel(raw, op)
		if idx == -1 {
			continue
		}
		lhs, err := parseArith(raw[:idx])
		if err != nil {
			return Literal{}, err
		}
		rhs, err := parseArith(raw[idx+len(op):])
		if err != nil {
			return Literal{}, err
		}
		return Literal{Predicate: op, Args: []Term{lhs, rhs}}, nil
	}

	start := strings.Index(raw, "(")
	end := strings.LastIndex(raw, ")")
	if start == -1 || end == -1 || start >= end {
		return Literal{}, fmt.Errorf("expected format 'predicate(args...)' but got %q", raw)
	}
	pred := strings.TrimSpace(raw[:start])
	if pred == "" || strings.ContainsAny(pred, " \t") {
		return Literal{}, fmt.Errorf("invalid predicate name in %q", raw)
	}

	var args []Term
	if body := strings.TrimSpace(raw[start+1 : end]); body != "" {
		for _, argRaw := range SmartSplit(body) {
			arg, err := ParseTerm(argRaw)
			if err != nil {
				return Literal{}, err
			}
			args = append(args, arg)
		}
	}
	return Literal{Predicate: pred, Args: args}, nil
}

// parseArith parses one side of a comparison: a term, or a division chain
// "OutRecords / TreatLevels" folded left-associatively.
func parseArith(raw string) (Term, error) {
	parts := splitTopLevel(raw, '/')
	term, err := ParseTerm(parts[0])
	if err != nil {
		return nil, err
	}
	for _, p := range parts[1:] {
		right, err := ParseTerm(p)
		if err != nil {
			return nil, err
		}
		term = Expr{Left: term, Right: right}
	}
	return term, nil
}

// ParseTerm parses a single term: variable, number, quoted or bare constant,
// or a list "[a, b]" / "[X|P]". Compound functor terms are rejected.
func ParseTerm(raw string) (Term, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty term", ErrMalformedTerm)
	}

	if strings.HasPrefix(raw, "[") {
		if !strings.HasSuffix(raw, "]") {
			return nil, fmt.Errorf("%w: unterminated list %q", ErrMalformedTerm, raw)
		}
		return parseList(raw[1 : len(raw)-1])
	}

	if len(raw) >= 2 {
		if (raw[0] == '\'' && raw[len(raw)-1] == '\'') || (raw[0] == '"' && raw[len(raw)-1] == '"') {
			return Const(raw[1 : len(raw)-1]), nil
		}
	}

	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return Number(n), nil
	}

	r := []rune(raw)[0]
	if r == '_' || unicode.IsUpper(r) {
		return Var(raw), nil
	}

	if strings.ContainsAny(raw, "()[]|,") {
		return nil, fmt.Errorf("%w: %q", ErrMalformedTerm, raw)
	}
	return Const(raw), nil
}

func parseList(inner string) (Term, error) {
	inner = strings.TrimSpace(inner)
	if inner == "" {
		return List{}, nil
	}

	var tail Term
	if idx := indexTopLevel(inner, "|"); idx != -1 {
		t, err := ParseTerm(inner[idx+1:])
		if err != nil {
			return nil, err
		}
		tail = t
		inner = inner[:idx]
	}

	var items []Term
	for _, raw := range SmartSplit(inner) {
		it, err := ParseTerm(raw)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return List{Items: items, Tail: tail}, nil
}

// SmartSplit splits a string by comma, correctly handling quotes, parentheses
// and list brackets. e.g. "a, [b, c], d" -> ["a", "[b, c]", "d"]
func SmartSplit(s string) []string {
	var results []string
	var current strings.Builder
	depth := 0
	inQuote := false
	var quoteChar rune

	for _, r := range s {
		switch r {
		case '"', '\'':
			if inQuote {
				if r == quoteChar {
					inQuote = false
				}
			} else {
				inQuote = true
				quoteChar = r
			}
			current.WriteRune(r)
		case '(', '[':
			if !inQuote {
				depth++
			}
			current.WriteRune(r)
		case ')', ']':
			if !inQuote {
				depth--
			}
			current.WriteRune(r)
		case ',':
			if !inQuote && depth == 0 {
				results = append(results, strings.TrimSpace(current.String()))
				current.Reset()
				continue
			}
			current.WriteRune(r)
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		results = append(results, strings.TrimSpace(current.String()))
	}
	return results
}

// indexTopLevel returns the index of the first occurrence of op outside of
// quotes, parentheses and brackets, or -1.
func indexTopLevel(s, op string) int {
	depth := 0
	inQuote := false
	var quoteChar byte
	for i := 0; i+len(op) <= len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\'':
			if inQuote {
				if c == quoteChar {
					inQuote = false
				}
			} else {
				inQuote = true
				quoteChar = c
			}
		case '(', '[':
			if !inQuote {
				depth++
			}
		case ')', ']':
			if !inQuote {
				depth--
			}
		}
		if depth == 0 && !inQuote && s[i:i+len(op)] == op {
			// "\=" must not match inside "\+" handling; operators here are
			// multi-byte only for ":-" and "\=", neither of which nests.
			return i
		}
	}
	return -1
}

func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	var quoteChar byte
	last := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\'':
			if inQuote {
				if c == quoteChar {
					inQuote = false
				}
			} else {
				inQuote = true
				quoteChar = c
			}
		case '(', '[':
			if !inQuote {
				depth++
			}
		case ')', ']':
			if !inQuote {
				depth--
			}
		}
		if depth == 0 && !inQuote && c == sep {
			parts = append(parts, strings.TrimSpace(s[last:i]))
			last = i + 1
		}
	}
	parts = append(parts, strings.TrimSpace(s[last:]))
	return parts
}

package logic

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// errDivZero marks a division by zero inside a comparison. The comparison
// simply does not hold for that binding; the query keeps running.
var errDivZero = errors.New("division by zero")

// DefaultMaxDepth bounds rule recursion. The visited-path guard of the
// transitive-closure rules already bounds recursion by table count; the
// ceiling is a structural backstop so a broken rule set fails instead of
// spinning.
const DefaultMaxDepth = 512

// KnowledgeBase holds ground facts indexed by predicate plus the rule set.
// It is built once, then queried read-only.
type KnowledgeBase struct {
	facts  map[string][]Literal
	rules  map[string][]Clause
	frozen bool
}

// NewKnowledgeBase creates an empty knowledge base.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		facts: make(map[string][]Literal),
		rules: make(map[string][]Clause),
	}
}

// Declare registers a predicate as known even if no fact for it is ever
// asserted. Schema predicates are declared up front so a query over an empty
// relation yields zero solutions rather than an unknown-predicate error.
func (kb *KnowledgeBase) Declare(predicates ...string) {
	for _, p := range predicates {
		if _, ok := kb.facts[p]; !ok {
			kb.facts[p] = nil
		}
	}
}

// Assert adds a parsed clause: facts go to the fact index, rules to the rule
// index. Asserting after Freeze is an error.
func (kb *KnowledgeBase) Assert(c Clause) error {
	if kb.frozen {
		return ErrFrozenRuleSet
	}
	if c.IsFact() {
		kb.facts[c.Head.Predicate] = append(kb.facts[c.Head.Predicate], c.Head)
		return nil
	}
	kb.rules[c.Head.Predicate] = append(kb.rules[c.Head.Predicate], c)
	return nil
}

// AssertString parses and asserts a single clause line.
func (kb *KnowledgeBase) AssertString(line string) error {
	c, err := ParseClause(line)
	if err != nil {
		return err
	}
	return kb.Assert(c)
}

// LoadClauses asserts a sequence of clause lines, skipping blank lines and
// '%' / '#' comments. Lines are loaded verbatim in order.
func (kb *KnowledgeBase) LoadClauses(lines []string) error {
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%") || strings.HasPrefix(line, "#") {
			continue
		}
		if err := kb.AssertString(line); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

// Freeze ends the mutation phase. Further Assert calls fail.
func (kb *KnowledgeBase) Freeze() { kb.frozen = true }

func (kb *KnowledgeBase) known(pred string) bool {
	if _, ok := kb.facts[pred]; ok {
		return true
	}
	if _, ok := kb.rules[pred]; ok {
		return true
	}
	return pred == predMember || isOperator(pred)
}

// Solution maps query variable names to the rendered terms they were bound to.
type Solution map[string]string

// Key returns the canonical order-independent form of a solution, used for
// deduplication: sorted "var=value" pairs joined by ';'.
func (s Solution) Key() string {
	pairs := make([]string, 0, len(s))
	for k, v := range s {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ";")
}

// Engine evaluates queries against an immutable knowledge base. Evaluation is
// a top-down search: conjunctions expand a pipeline of candidate bindings
// (nested-loop join), rules are applied with fresh variable renamings, and
// recursion is bounded by MaxDepth on top of the rule set's own path guard.
// The engine holds no per-query state, so concurrent Query calls are safe.
type Engine struct {
	kb       *KnowledgeBase
	MaxDepth int
}

// NewEngine wraps a knowledge base. The base is frozen: the engine assumes a
// fixed fact set for the lifetime of the run.
func NewEngine(kb *KnowledgeBase) *Engine {
	kb.Freeze()
	return &Engine{kb: kb, MaxDepth: DefaultMaxDepth}
}

// Query parses a goal (a single literal or a conjunction) and returns every
// consistent binding of its variables. Duplicate bindings are preserved;
// callers deduplicate with Solution.Key.
func (e *Engine) Query(goal string) ([]Solution, error) {
	literals, err := ParseGoal(goal)
	if err != nil {
		return nil, &QueryError{Goal: goal, Err: err}
	}

	for _, lit := range literals {
		if !lit.Negated && !e.kb.known(lit.Predicate) {
			return nil, &QueryError{Goal: goal, Predicate: lit.Predicate, Err: ErrUnknownPredicate}
		}
	}

	var gen int
	results, err := e.solveBody(literals, subst{}, 0, &gen)
	if err != nil {
		return nil, &QueryError{Goal: goal, Err: err}
	}

	vars := collectVars(literals)
	solutions := make([]Solution, 0, len(results))
	for _, s := range results {
		sol := make(Solution, len(vars))
		for _, v := range vars {
			sol[v] = s.resolve(Var(v)).String()
		}
		solutions = append(solutions, sol)
	}
	return solutions, nil
}

func collectVars(literals []Literal) []string {
	seen := make(map[string]bool)
	var vars []string
	var walk func(t Term)
	walk = func(t Term) {
		switch tt := t.(type) {
		case Var:
			name := string(tt)
			if name != "_" && !seen[name] {
				seen[name] = true
				vars = append(vars, name)
			}
		case List:
			for _, it := range tt.Items {
				walk(it)
			}
			if tt.Tail != nil {
				walk(tt.Tail)
			}
		case Expr:
			walk(tt.Left)
			walk(tt.Right)
		}
	}
	for _, l := range literals {
		for _, a := range l.Args {
			walk(a)
		}
	}
	return vars
}

// solveBody expands the binding pipeline literal by literal, short-circuiting
// as soon as no candidate binding survives. The rename counter gen is local
// to one Query call, keeping the engine free of mutable state.
func (e *Engine) solveBody(body []Literal, s subst, depth int, gen *int) ([]subst, error) {
	bindings := []subst{s}
	for _, lit := range body {
		var next []subst
		for _, b := range bindings {
			sols, err := e.solve(lit, b, depth, gen)
			if err != nil {
				return nil, err
			}
			next = append(next, sols...)
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}
	return bindings, nil
}

func (e *Engine) solve(lit Literal, s subst, depth int, gen *int) ([]subst, error) {
	if depth > e.MaxDepth {
		return nil, fmt.Errorf("%w (%d) at %s", ErrDepthExceeded, e.MaxDepth, lit.Predicate)
	}

	if lit.Negated {
		return e.solveNegation(lit, s, depth, gen)
	}

	switch lit.Predicate {
	case opLess, opGreater:
		return e.solveComparison(lit, s)
	case opNotEqual:
		return e.solveDisequality(lit, s)
	case predMember:
		return e.solveMember(lit, s)
	}

	if !e.kb.known(lit.Predicate) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPredicate, lit.Predicate)
	}

	var results []subst

	for _, fact := range e.kb.facts[lit.Predicate] {
		if len(fact.Args) != len(lit.Args) {
			continue
		}
		cand := s
		ok := true
		for i := range fact.Args {
			if cand, ok = unify(lit.Args[i], fact.Args[i], cand); !ok {
				break
			}
		}
		if ok {
			results = append(results, cand)
		}
	}

	for _, rule := range e.kb.rules[lit.Predicate] {
		*gen++
		renamed := renameClause(rule, *gen)
		if len(renamed.Head.Args) != len(lit.Args) {
			continue
		}
		cand := s
		ok := true
		for i := range renamed.Head.Args {
			if cand, ok = unify(lit.Args[i], renamed.Head.Args[i], cand); !ok {
				break
			}
		}
		if !ok {
			continue
		}
		sols, err := e.solveBody(renamed.Body, cand, depth+1, gen)
		if err != nil {
			return nil, err
		}
		results = append(results, sols...)
	}

	return results, nil
}

// solveNegation implements negation-as-failure. The goal must be fully bound:
// negating an unbound goal is a rule-set defect and fails loudly.
func (e *Engine) solveNegation(lit Literal, s subst, depth int, gen *int) ([]subst, error) {
	for _, a := range lit.Args {
		if s.hasUnbound(a) {
			return nil, fmt.Errorf("%w: \\+ %s", ErrUnsafeNegation, lit.Predicate)
		}
	}
	positive := Literal{Predicate: lit.Predicate, Args: lit.Args}
	sols, err := e.solve(positive, s, depth, gen)
	if err != nil {
		return nil, err
	}
	if len(sols) > 0 {
		return nil, nil
	}
	return []subst{s}, nil
}

func (e *Engine) solveComparison(lit Literal, s subst) ([]subst, error) {
	lhs, err := e.evalNumber(lit.Args[0], s)
	if err != nil {
		if errors.Is(err, errDivZero) {
			return nil, nil
		}
		return nil, err
	}
	rhs, err := e.evalNumber(lit.Args[1], s)
	if err != nil {
		if errors.Is(err, errDivZero) {
			return nil, nil
		}
		return nil, err
	}
	holds := false
	switch lit.Predicate {
	case opLess:
		holds = lhs < rhs
	case opGreater:
		holds = lhs > rhs
	}
	if holds {
		return []subst{s}, nil
	}
	return nil, nil
}

// solveDisequality is syntactic: both sides must be bound, and the literal
// holds when their resolved forms differ.
func (e *Engine) solveDisequality(lit Literal, s subst) ([]subst, error) {
	lhs, rhs := s.resolve(lit.Args[0]), s.resolve(lit.Args[1])
	if s.hasUnbound(lhs) || s.hasUnbound(rhs) {
		return nil, fmt.Errorf("%w: %s \\= %s", ErrUnboundArith, lhs, rhs)
	}
	if lhs.String() != rhs.String() {
		return []subst{s}, nil
	}
	return nil, nil
}

// solveMember enumerates list elements, unifying each against the first
// argument. The list argument must resolve to a proper list.
func (e *Engine) solveMember(lit Literal, s subst) ([]subst, error) {
	if len(lit.Args) != 2 {
		return nil, fmt.Errorf("member/2 takes 2 arguments, got %d", len(lit.Args))
	}
	listTerm := s.resolve(lit.Args[1])
	list, ok := listTerm.(List)
	if !ok || list.Tail != nil {
		return nil, fmt.Errorf("member/2: second argument %s is not a proper list", listTerm)
	}
	var results []subst
	for _, item := range list.Items {
		if cand, ok := unify(lit.Args[0], item, s); ok {
			results = append(results, cand)
		}
	}
	return results, nil
}

// evalNumber evaluates a comparison operand: a bound numeric term or a
// division expression over bound numeric terms. Division by zero fails the
// whole comparison; a candidate attribute with zero levels is simply not a
// candidate.
func (e *Engine) evalNumber(t Term, s subst) (float64, error) {
	t = s.resolve(t)
	switch tt := t.(type) {
	case Number:
		return float64(tt), nil
	case Var:
		return 0, fmt.Errorf("%w: %s", ErrUnboundArith, tt)
	case Expr:
		l, err := e.evalNumber(tt.Left, s)
		if err != nil {
			return 0, err
		}
		r, err := e.evalNumber(tt.Right, s)
		if err != nil {
			return 0, err
		}
		if r == 0 {
			return 0, fmt.Errorf("%w in %s", errDivZero, tt)
		}
		return l / r, nil
	default:
		return 0, fmt.Errorf("non-numeric term %s in arithmetic", t)
	}
}

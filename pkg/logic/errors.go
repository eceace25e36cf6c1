package logic

import (
	"errors"
	"fmt"
)

// Custom error types for better error handling
var (
	ErrMalformedClause  = errors.New("malformed clause")
	ErrMalformedTerm    = errors.New("malformed term")
	ErrEmptyGoal        = errors.New("empty goal")
	ErrUnsafeNegation   = errors.New("negation over unbound variable")
	ErrUnboundArith     = errors.New("arithmetic over unbound variable")
	ErrDepthExceeded    = errors.New("recursion depth ceiling exceeded")
	ErrFrozenRuleSet    = errors.New("knowledge base is frozen")
	ErrUnknownPredicate = errors.New("unknown predicate")
)

// QueryError reports a goal that cannot be evaluated against the current
// knowledge base, as opposed to one that evaluates to zero solutions.
// Callers use it to tell "no qualifying bindings" apart from a broken
// rule set or a mistyped predicate name.
type QueryError struct {
	Goal      string
	Predicate string
	Err       error
}

func (e *QueryError) Error() string {
	if e.Predicate != "" {
		return fmt.Sprintf("query %q: predicate %s: %v", e.Goal, e.Predicate, e.Err)
	}
	return fmt.Sprintf("query %q: %v", e.Goal, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

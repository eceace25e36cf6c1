package schema

import "fmt"

// TypeMappingError reports a declared column type that matches none of the
// recognized numeric/string/time patterns. It is fatal to the derivation
// pass: downstream rules key off every attribute's kind.
type TypeMappingError struct {
	Table        string
	Column       string
	DeclaredType string
}

func (e *TypeMappingError) Error() string {
	return fmt.Sprintf("unknown data type %q on %s.%s", e.DeclaredType, e.Table, e.Column)
}

// IdentifierCollisionError reports two distinct qualified names normalizing
// to the same logic identifier. Silently merging two attributes would
// corrupt the fact base, so derivation aborts.
type IdentifierCollisionError struct {
	Identifier string
	First      string
	Second     string
}

func (e *IdentifierCollisionError) Error() string {
	return fmt.Sprintf("identifier %q collides: %q and %q", e.Identifier, e.First, e.Second)
}

// RelationshipStatisticError reports a relationship whose average-child-size
// statistic cannot be computed (no referencing rows matched a parent). It is
// recoverable: the averageManySize fact for that relationship is omitted and
// derivation continues.
type RelationshipStatisticError struct {
	Relationship string
}

func (e *RelationshipStatisticError) Error() string {
	return fmt.Sprintf("relationship %s: no referencing rows, averageManySize undefined", e.Relationship)
}

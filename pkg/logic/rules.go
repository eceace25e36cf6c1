package logic

// QEDRules is the fixed library of quasi-experimental design inference rules.
// Direct table relation is symmetric regardless of foreign-key direction;
// path relation is its transitive closure, driven by an explicit visited-path
// accumulator so cyclic foreign-key graphs terminate; the design predicates
// combine treatment suitability (numeric, few levels, enough samples per
// level) with temporal co-variation markers on both sides.
var QEDRules = []string{
	`tablesDirectlyRelated(X, Y) :- related(Y, X, R)`,
	`tablesDirectlyRelated(X, Y) :- related(X, Y, R)`,
	`tablesRelatedByPath(X, Y, P) :- tablesDirectlyRelated(X, Y)`,
	`tablesRelatedByPath(X, Y, P) :- tablesDirectlyRelated(Z, X), \+ member(Z, P), tablesRelatedByPath(Z, Y, [X|P])`,
	`tablesRelatedByPath(X, Y) :- tablesRelatedByPath(X, Y, [])`,
	`attributesRelatedByPath(X, Y) :- attribute(X, T1), attribute(Y, T1)`,
	`attributesRelatedByPath(X, Y) :- attribute(X, T1), attribute(Y, T2), tablesRelatedByPath(T1, T2)`,
	`isNumeric(X) :- dataType(X, numeric)`,
	`variesWithTime(T, O) :- attribute(O, OTable), attributesRelatedByPath(T, O), attribute(E, OTable), dataType(E, time), attribute(T, TTable), attribute(E2, TTable), dataType(E2, time)`,
	`suitableAsTreatment(T, O) :- attribute(O, OTable), recordCount(OTable, OutRecords), isNumeric(T), levels(T, TreatLevels), TreatLevels < 30, OutRecords / TreatLevels > 20, T \= O`,
	`nonequivControlGroup(Out, Treat) :- suitableAsTreatment(Treat, Out), variesWithTime(Treat, Out)`,
	`counterbalancedDesign(Out, Treat) :- suitableAsTreatment(Treat, Out), variesWithTime(Treat, Out), levels(Treat, TreatLevels), TreatLevels > 3`,
	`qed(Out, Treat) :- nonequivControlGroup(Out, Treat)`,
}

// SchemaPredicates are the ground predicates a schema-derived fact base may
// populate. They are declared on every knowledge base so that querying an
// empty relation yields zero solutions instead of an unknown-predicate error.
var SchemaPredicates = []string{
	"table",
	"recordCount",
	"attribute",
	"dataType",
	"levels",
	"primaryKey",
	"related",
	"key",
	"averageManySize",
}

// NewQEDKnowledgeBase builds a knowledge base pre-loaded with the design rule
// library and the declared schema predicates. Callers assert facts (or whole
// rule files) on top, then hand it to NewEngine.
func NewQEDKnowledgeBase() (*KnowledgeBase, error) {
	kb := NewKnowledgeBase()
	kb.Declare(SchemaPredicates...)
	if err := kb.LoadClauses(QEDRules); err != nil {
		return nil, err
	}
	return kb, nil
}

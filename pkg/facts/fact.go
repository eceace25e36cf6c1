package facts

import (
	"github.com/dgarant/qed/pkg/logic"
)

// Kind classifies an attribute's declared type into the three categories the
// rule library distinguishes.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindString  Kind = "string"
	KindTime    Kind = "time"
)

// Fact is a ground statement about a schema. Each predicate gets its own
// struct so arity and argument kinds are checked at compile time; Atom
// lowers a fact into the logic engine's clause form.
type Fact interface {
	Atom() logic.Literal
}

// Table states that a table exists.
type Table struct {
	Table string
}

func (f Table) Atom() logic.Literal {
	return atom(PredTable, logic.Const(f.Table))
}

// RecordCount carries a table's row count.
type RecordCount struct {
	Table string
	Count int64
}

func (f RecordCount) Atom() logic.Literal {
	return atom(PredRecordCount, logic.Const(f.Table), logic.Number(f.Count))
}

// Attribute states that a column belongs to a table.
type Attribute struct {
	Attr  string
	Table string
}

func (f Attribute) Atom() logic.Literal {
	return atom(PredAttribute, logic.Const(f.Attr), logic.Const(f.Table))
}

// DataType classifies an attribute as numeric, string or time.
type DataType struct {
	Attr string
	Kind Kind
}

func (f DataType) Atom() logic.Literal {
	return atom(PredDataType, logic.Const(f.Attr), logic.Const(f.Kind))
}

// Levels carries an attribute's distinct-value count.
type Levels struct {
	Attr   string
	Levels int64
}

func (f Levels) Atom() logic.Literal {
	return atom(PredLevels, logic.Const(f.Attr), logic.Number(f.Levels))
}

// PrimaryKey marks a table's designated key attribute.
type PrimaryKey struct {
	Attr  string
	Table string
}

func (f PrimaryKey) Atom() logic.Literal {
	return atom(PredPrimaryKey, logic.Const(f.Attr), logic.Const(f.Table))
}

// Related records a foreign-key relationship: Many holds the referencing
// rows, One holds the referenced rows.
type Related struct {
	One  string
	Many string
	Rel  string
}

func (f Related) Atom() logic.Literal {
	return atom(PredRelated, logic.Const(f.One), logic.Const(f.Many), logic.Const(f.Rel))
}

// Key states that an attribute participates in a relationship. Every
// relationship carries two: the referenced and the referencing column.
type Key struct {
	Attr string
	Rel  string
}

func (f Key) Atom() logic.Literal {
	return atom(PredKey, logic.Const(f.Attr), logic.Const(f.Rel))
}

// AverageManySize carries the mean number of child rows per distinct parent
// key for a relationship.
type AverageManySize struct {
	Rel string
	Avg float64
}

func (f AverageManySize) Atom() logic.Literal {
	return atom(PredAverageManySize, logic.Const(f.Rel), logic.Number(f.Avg))
}

func atom(pred string, args ...logic.Term) logic.Literal {
	return logic.Literal{Predicate: pred, Args: args}
}

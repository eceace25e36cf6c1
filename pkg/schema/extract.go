package schema

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgarant/qed/pkg/facts"
)

// numericTypes are matched exactly against the declared type's base name
// (the token before any length/precision suffix).
var numericTypes = map[string]bool{
	"INTEGER":   true,
	"INT":       true,
	"SMALLINT":  true,
	"TINYINT":   true,
	"MEDIUMINT": true,
	"BIGINT":    true,
	"NUMERIC":   true,
	"DECIMAL":   true,
	"REAL":      true,
	"FLOAT":     true,
	"DOUBLE":    true,
}

// timePrefixes and stringPrefixes are matched as prefixes of the declared
// type, time first so TIMESTAMP variants never fall through to string.
var timePrefixes = []string{"TIMESTAMP", "DATETIME", "DATE", "TIME"}

var stringPrefixes = []string{"VARCHAR", "NVARCHAR", "CHARACTER", "CHAR", "TEXT", "CLOB", "STRING"}

// ClassifyType maps a declared column type onto the three kinds the rule
// library distinguishes. Unrecognized types are an error; the caller wraps
// it with table/column context.
func ClassifyType(declared string) (facts.Kind, error) {
	t := strings.ToUpper(strings.TrimSpace(declared))
	base := t
	if idx := strings.IndexByte(base, '('); idx != -1 {
		base = strings.TrimSpace(base[:idx])
	}
	if numericTypes[base] {
		return facts.KindNumeric, nil
	}
	for _, p := range timePrefixes {
		if strings.HasPrefix(t, p) {
			return facts.KindTime, nil
		}
	}
	for _, p := range stringPrefixes {
		if strings.HasPrefix(t, p) {
			return facts.KindString, nil
		}
	}
	return "", fmt.Errorf("unknown data type %q", declared)
}

// Identifier normalizes a qualified name into a logic-engine atom: dots
// become underscores. The extractor tracks the mapping to guarantee it stays
// injective over a run.
func Identifier(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "_")
}

// Extractor converts reflected schema metadata into catalog facts. It is
// pure with respect to the database: all statistics arrive pre-computed on
// the metadata structs.
type Extractor struct {
	catalog *facts.Catalog
	sources map[string]string // identifier -> qualified name it was minted for
}

// NewExtractor wraps a catalog.
func NewExtractor(c *facts.Catalog) *Extractor {
	return &Extractor{
		catalog: c,
		sources: make(map[string]string),
	}
}

// ExtractSchema derives the full fact set for an ordered list of tables.
// Type-mapping and identifier-collision failures abort; an uncomputable
// relationship statistic only skips its own fact.
func (e *Extractor) ExtractSchema(tables []Table) error {
	for _, t := range tables {
		if err := e.extractTable(t); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) extractTable(t Table) error {
	tableID, err := e.identifier(t.Name)
	if err != nil {
		return err
	}
	if err := e.catalog.AssertAll(
		facts.Table{Table: tableID},
		facts.RecordCount{Table: tableID, Count: t.RowCount},
	); err != nil {
		return err
	}

	for _, col := range t.Columns {
		if err := e.extractColumn(t, tableID, col); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) extractColumn(t Table, tableID string, col Column) error {
	attrID, err := e.identifier(t.Name + "." + col.Name)
	if err != nil {
		return err
	}

	kind, err := ClassifyType(col.DeclaredType)
	if err != nil {
		return &TypeMappingError{Table: t.Name, Column: col.Name, DeclaredType: col.DeclaredType}
	}

	if err := e.catalog.AssertAll(
		facts.Attribute{Attr: attrID, Table: tableID},
		facts.DataType{Attr: attrID, Kind: kind},
		facts.Levels{Attr: attrID, Levels: col.DistinctCount},
	); err != nil {
		return err
	}

	if col.PrimaryKey {
		if err := e.catalog.Assert(facts.PrimaryKey{Attr: attrID, Table: tableID}); err != nil {
			return err
		}
	}

	for _, fk := range col.ForeignKeys {
		if err := e.extractForeignKey(t, col, fk); err != nil {
			return err
		}
	}
	return nil
}

func (e *Extractor) extractForeignKey(t Table, col Column, fk ForeignKey) error {
	name := fk.Name
	if name == "" {
		name = fmt.Sprintf("fk_%s_%s", t.Name, col.Name)
	}
	relID, err := e.identifier(name)
	if err != nil {
		return err
	}
	oneTable, err := e.identifier(fk.RefTable)
	if err != nil {
		return err
	}
	manyTable, err := e.identifier(t.Name)
	if err != nil {
		return err
	}
	oneAttr, err := e.identifier(fk.RefTable + "." + fk.RefColumn)
	if err != nil {
		return err
	}
	manyAttr, err := e.identifier(t.Name + "." + col.Name)
	if err != nil {
		return err
	}

	if err := e.catalog.AssertAll(
		facts.Related{One: oneTable, Many: manyTable, Rel: relID},
		facts.Key{Attr: oneAttr, Rel: relID},
		facts.Key{Attr: manyAttr, Rel: relID},
	); err != nil {
		return err
	}

	if fk.DistinctReferenced == 0 {
		statErr := &RelationshipStatisticError{Relationship: relID}
		slog.Warn("skipping relationship statistic", "relationship", relID, "reason", statErr)
		return nil
	}
	avg := float64(t.RowCount) / float64(fk.DistinctReferenced)
	return e.catalog.Assert(facts.AverageManySize{Rel: relID, Avg: avg})
}

// identifier mints the normalized identifier for a qualified name, failing
// when a previously minted identifier came from a different name.
func (e *Extractor) identifier(qualified string) (string, error) {
	id := Identifier(qualified)
	if prev, ok := e.sources[id]; ok && prev != qualified {
		return "", &IdentifierCollisionError{Identifier: id, First: prev, Second: qualified}
	}
	e.sources[id] = qualified
	return id, nil
}

package schema

// Table is the reflected metadata of one relational table: everything the
// fact extractor needs, and nothing tied to a particular database driver.
type Table struct {
	Name     string
	RowCount int64
	Columns  []Column
}

// Column is the reflected metadata of one column.
type Column struct {
	Name          string
	DeclaredType  string
	DistinctCount int64
	PrimaryKey    bool
	ForeignKeys   []ForeignKey
}

// ForeignKey describes one outgoing reference from the owning column.
type ForeignKey struct {
	// Name is the relationship name. Empty for databases that do not name
	// constraints; the extractor then generates one.
	Name string
	// RefTable and RefColumn identify the referenced (parent) side.
	RefTable  string
	RefColumn string
	// DistinctReferenced is the distinct count of referenced key values
	// among joined rows, the denominator of averageManySize. Zero means no
	// referencing row matched a parent.
	DistinctReferenced int64
}

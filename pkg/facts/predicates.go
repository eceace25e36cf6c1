package facts

// System predicate constants for schema-derived facts.
const (
	PredTable           = "table"
	PredRecordCount     = "recordCount"
	PredAttribute       = "attribute"
	PredDataType        = "dataType"
	PredLevels          = "levels"
	PredPrimaryKey      = "primaryKey"
	PredRelated         = "related"
	PredKey             = "key"
	PredAverageManySize = "averageManySize"
)

// PredicateMetadata describes a system predicate for documentation.
type PredicateMetadata struct {
	Description string
	Example     string
}

// SystemPredicates maps predicate names to their metadata.
var SystemPredicates = map[string]PredicateMetadata{
	PredTable:           {"Table exists", "table(movies)"},
	PredRecordCount:     {"Table row count", "recordCount(movies, 1000)"},
	PredAttribute:       {"Column belongs to Table", "attribute(movies_gross, movies)"},
	PredDataType:        {"Column kind: numeric, string or time", "dataType(movies_gross, numeric)"},
	PredLevels:          {"Distinct-value count of a column", "levels(movies_studio_id, 15)"},
	PredPrimaryKey:      {"Column is the primary key of Table", "primaryKey(movies_id, movies)"},
	PredRelated:         {"Foreign key links child table to parent table", "related(studios, movies, fk_movies_studio_id)"},
	PredKey:             {"Column participates in a relationship", "key(movies_studio_id, fk_movies_studio_id)"},
	PredAverageManySize: {"Mean child rows per distinct parent key", "averageManySize(fk_movies_studio_id, 66.7)"},
}

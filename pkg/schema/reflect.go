package schema

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// quoteIdent quotes a SQL identifier the SQLite way: wrapped in double
// quotes with embedded double quotes doubled.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// OpenSQLite opens a SQLite database read path with foreign-key metadata
// enabled.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Reflect reads the full schema metadata of a SQLite database: table names
// and row counts, column names with declared types and distinct counts,
// primary-key flags and foreign keys with the join statistics the extractor
// needs. One synchronous query is issued per table/column/foreign-key.
func Reflect(ctx context.Context, db *sql.DB) ([]Table, error) {
	names, err := tableNames(ctx, db)
	if err != nil {
		return nil, err
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		t, err := reflectTable(ctx, db, name)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", name, err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func tableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

func reflectTable(ctx context.Context, db *sql.DB, name string) (Table, error) {
	t := Table{Name: name}

	if err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM "+quoteIdent(name)).Scan(&t.RowCount); err != nil {
		return t, err
	}

	cols, err := reflectColumns(ctx, db, name)
	if err != nil {
		return t, err
	}

	fks, err := reflectForeignKeys(ctx, db, name)
	if err != nil {
		return t, err
	}
	for i := range cols {
		cols[i].ForeignKeys = fks[cols[i].Name]
	}

	t.Columns = cols
	return t, nil
}

func reflectColumns(ctx context.Context, db *sql.DB, table string) ([]Column, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []Column
	for rows.Next() {
		var (
			cid      int
			name     string
			declType string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols = append(cols, Column{
			Name:         name,
			DeclaredType: declType,
			PrimaryKey:   pk > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cols {
		distinctQuery := fmt.Sprintf("SELECT COUNT(DISTINCT %s) FROM %s",
			quoteIdent(cols[i].Name), quoteIdent(table))
		if err := db.QueryRowContext(ctx, distinctQuery).Scan(&cols[i].DistinctCount); err != nil {
			return nil, err
		}
	}
	return cols, nil
}

// reflectForeignKeys returns the foreign keys of a table keyed by the
// referencing column. SQLite does not name constraints, so names are left
// empty for the extractor to generate. Composite keys contribute one
// descriptor per column pair.
func reflectForeignKeys(ctx context.Context, db *sql.DB, table string) (map[string][]ForeignKey, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type rawFK struct {
		from     string
		refTable string
		refCol   sql.NullString
	}
	var raws []rawFK
	for rows.Next() {
		var (
			id, seq            int
			refTable, from     string
			to                 sql.NullString
			onUpd, onDel, mtch string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpd, &onDel, &mtch); err != nil {
			return nil, err
		}
		raws = append(raws, rawFK{from: from, refTable: refTable, refCol: to})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make(map[string][]ForeignKey)
	for _, raw := range raws {
		refCol := raw.refCol.String
		if !raw.refCol.Valid || refCol == "" {
			// Implicit reference to the parent's primary key.
			refCol, err = primaryKeyColumn(ctx, db, raw.refTable)
			if err != nil {
				return nil, err
			}
		}

		var distinct int64
		joinQuery := fmt.Sprintf(
			"SELECT COUNT(DISTINCT m.%s) FROM %s AS m JOIN %s AS o ON m.%s = o.%s",
			quoteIdent(raw.from), quoteIdent(table), quoteIdent(raw.refTable),
			quoteIdent(raw.from), quoteIdent(refCol))
		if err := db.QueryRowContext(ctx, joinQuery).Scan(&distinct); err != nil {
			return nil, err
		}

		out[raw.from] = append(out[raw.from], ForeignKey{
			RefTable:           raw.refTable,
			RefColumn:          refCol,
			DistinctReferenced: distinct,
		})
	}
	return out, nil
}

func primaryKeyColumn(ctx context.Context, db *sql.DB, table string) (string, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return "", err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid      int
			name     string
			declType string
			notNull  int
			dflt     sql.NullString
			pk       int
		)
		if err := rows.Scan(&cid, &name, &declType, &notNull, &dflt, &pk); err != nil {
			return "", err
		}
		if pk > 0 {
			return name, nil
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no primary key on referenced table %s", table)
}

// Package introspect builds an in-memory schema.Database graph by
// querying a live MySQL-family information schema: tables, columns,
// unique indexes, and foreign-key edges in both directions.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/ordinaryparksee/dancer/schema"
)

// SchemaReflector builds a schema.Database from a live *sql.DB. It is
// stateless beyond the connection it is handed at Reflect time; callers
// may reuse one reflector against several databases.
type SchemaReflector struct {
	// TableLike optionally restricts table listing to names matching
	// this SQL LIKE pattern, e.g. "order_%". Empty means all tables.
	TableLike string
}

// NewSchemaReflector returns a SchemaReflector with no table filter.
func NewSchemaReflector() *SchemaReflector {
	return &SchemaReflector{}
}

// Reflect builds the full schema graph for dbName: tables, their
// columns (with parsed types), unique indexes, and FK edges in both
// directions. Reflection is eager: every query runs before Reflect
// returns, and any failure is fatal and returned wrapped.
func (r *SchemaReflector) Reflect(ctx context.Context, db *sql.DB, dbName string) (*schema.Database, error) {
	out := &schema.Database{Name: dbName}

	tableNames, err := r.listTables(ctx, db, dbName)
	if err != nil {
		return nil, fmt.Errorf("introspect: listing tables: %w", err)
	}

	for _, name := range tableNames {
		t := &schema.Table{Name: name, UniqueIndexes: map[string][]*schema.Column{}}
		if err := r.reflectColumns(ctx, db, dbName, t); err != nil {
			return nil, fmt.Errorf("introspect: columns of %s: %w", name, err)
		}
		if err := r.reflectIndexes(ctx, db, dbName, t); err != nil {
			return nil, fmt.Errorf("introspect: indexes of %s: %w", name, err)
		}
		out.Tables = append(out.Tables, t)
	}

	if err := r.reflectForeignKeys(ctx, db, dbName, out); err != nil {
		return nil, fmt.Errorf("introspect: foreign keys: %w", err)
	}

	return out, nil
}

// listTables runs SHOW TABLES FROM <db>, optionally filtered by
// TableLike.
func (r *SchemaReflector) listTables(ctx context.Context, db *sql.DB, dbName string) ([]string, error) {
	query := fmt.Sprintf("SHOW TABLES FROM %s", quoteIdent(dbName))
	args := []any{}
	if r.TableLike != "" {
		query += " LIKE ?"
		args = append(args, r.TableLike)
	}

	rows, err := db.QueryContext(ctx, query, args...)
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
	return names, rows.Err()
}

// reflectColumns runs SHOW FULL COLUMNS FROM <db>.<table> and parses
// every row's Type string.
func (r *SchemaReflector) reflectColumns(ctx context.Context, db *sql.DB, dbName string, t *schema.Table) error {
	query := fmt.Sprintf("SHOW FULL COLUMNS FROM %s.%s", quoteIdent(dbName), quoteIdent(t.Name))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			field, colType, null, key, extra, privileges, comment string
			collation, defaultVal                                 sql.NullString
		)
		if err := rows.Scan(&field, &colType, &collation, &null, &key, &defaultVal, &extra, &privileges, &comment); err != nil {
			return err
		}

		dt, unsigned, length, precision, scale, enumValues := schema.ParseColumnType(colType)

		col := &schema.Column{
			Table:         t,
			Name:          field,
			RawType:       colType,
			Type:          dt,
			Unsigned:      unsigned,
			Nullable:      null == "YES",
			AutoIncrement: strings.Contains(extra, "auto_increment"),
			Length:        length,
			Precision:     precision,
			Scale:         scale,
			EnumValues:    enumValues,
		}

		if defaultVal.Valid {
			v := defaultVal.String
			col.Default = &v
		}

		if idx := strings.Index(strings.ToLower(extra), "on update "); idx >= 0 {
			col.OnUpdate = strings.TrimSpace(extra[idx+len("on update "):])
		}

		t.Columns = append(t.Columns, col)
	}
	return rows.Err()
}

// reflectIndexes runs SHOW INDEX FROM <db>.<table>, keeping the first
// matching row per column: PRIMARY marks the
// column primary and is excluded from UniqueIndexes; any other
// non_unique=0 index is appended to UniqueIndexes in catalog order.
func (r *SchemaReflector) reflectIndexes(ctx context.Context, db *sql.DB, dbName string, t *schema.Table) error {
	query := fmt.Sprintf("SHOW INDEX FROM %s.%s", quoteIdent(dbName), quoteIdent(t.Name))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	seenColumn := map[string]bool{}
	for rows.Next() {
		rawRow := make([]sql.NullString, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range rawRow {
			scanArgs[i] = &rawRow[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return err
		}

		byName := map[string]string{}
		for i, c := range cols {
			byName[strings.ToLower(c)] = rawRow[i].String
		}

		columnName := byName["column_name"]
		if seenColumn[columnName] {
			continue
		}
		seenColumn[columnName] = true

		col := t.ColumnByName(columnName)
		if col == nil {
			continue
		}

		keyName := byName["key_name"]
		if keyName == "PRIMARY" {
			col.PrimaryKey = true
			continue
		}
		if byName["non_unique"] == "0" {
			t.UniqueIndexes[keyName] = append(t.UniqueIndexes[keyName], col)
		}
	}
	return rows.Err()
}

// reflectForeignKeys queries information_schema.key_column_usage for
// every outbound edge (this column references a parent) and every
// inbound edge (some other column references this column).
func (r *SchemaReflector) reflectForeignKeys(ctx context.Context, db *sql.DB, dbName string, out *schema.Database) error {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name, column_name, referenced_table_name, referenced_column_name
		FROM information_schema.key_column_usage
		WHERE table_schema = ?
		  AND referenced_table_name IS NOT NULL
		  AND referenced_column_name IS NOT NULL
	`, dbName)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, refTable, refColumn string
		if err := rows.Scan(&tableName, &columnName, &refTable, &refColumn); err != nil {
			return err
		}

		t := out.TableByName(tableName)
		if t == nil {
			continue
		}
		col := t.ColumnByName(columnName)
		if col == nil {
			continue
		}
		col.ReferencedTo = &schema.ColumnRef{Table: refTable, Column: refColumn}

		if parent := out.TableByName(refTable); parent != nil {
			if parentCol := parent.ColumnByName(refColumn); parentCol != nil {
				parentCol.ReferencesFrom = append(parentCol.ReferencesFrom, schema.ColumnRef{
					Table:  tableName,
					Column: columnName,
				})
			}
		}
	}
	return rows.Err()
}

func quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

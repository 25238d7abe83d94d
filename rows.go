package dancer

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ordinaryparksee/dancer/schema"
)

func quoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// scanTuples reads rows into maps keyed by cols' own names, in the
// order cols were selected.
func scanTuples(rows *sql.Rows, cols []*schema.Column) ([]map[string]any, error) {
	var out []map[string]any
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dancer: scanning tuple row: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i, c := range cols {
			m[c.Name] = dest[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// scanAliasedTuples reads rows selected as p0, p1, … (one per element
// of cols, in order) into maps keyed by that positional alias.
func scanAliasedTuples(rows *sql.Rows, cols []*schema.Column) ([]map[string]any, error) {
	var out []map[string]any
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("dancer: scanning aliased tuple row: %w", err)
		}
		m := make(map[string]any, len(cols))
		for i := range cols {
			m[fmt.Sprintf("p%d", i)] = dest[i]
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

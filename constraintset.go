package dancer

import (
	"context"
	"fmt"
	"strings"

	"github.com/ordinaryparksee/dancer/schema"
)

// ConstraintSet is a read-only view over one Table's unique indexes,
// providing membership tests and the "available foreign tuples" query
// synthesis used to find parent rows not yet claimed by a composite
// unique index.
type ConstraintSet struct {
	Table *schema.Table
	Q     Queryer
}

// NewConstraintSet returns a ConstraintSet over t, querying through q.
func NewConstraintSet(t *schema.Table, q Queryer) *ConstraintSet {
	return &ConstraintSet{Table: t, Q: q}
}

// Test reports whether row (keyed by column name) can be inserted
// without violating any of the table's unique indexes: false on the
// first index whose columns' proposed values already co-occur in an
// existing row.
func (cs *ConstraintSet) Test(ctx context.Context, row map[string]any) (bool, error) {
	for indexName, cols := range cs.Table.UniqueIndexes {
		var whereParts []string
		params := map[string]any{}
		skip := false
		for i, c := range cols {
			v, ok := row[c.Name]
			if !ok {
				// A unique index over a column this row hasn't
				// assigned yet (e.g. still being built) can't be
				// tested meaningfully; caller is expected to only test
				// once the whole row is built.
				skip = true
				break
			}
			param := fmt.Sprintf("v%d", i)
			whereParts = append(whereParts, fmt.Sprintf("%s = :%s", quoteIdent(c.Name), param))
			params[param] = v
		}
		if skip {
			continue
		}

		query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", quoteIdent(cs.Table.Name), strings.Join(whereParts, " AND "))
		var count int
		if err := cs.Q.QueryRowNamed(ctx, query, params).Scan(&count); err != nil {
			return false, fmt.Errorf("dancer: testing unique index %s on %s: %w", indexName, cs.Table.Name, err)
		}
		if count > 0 {
			return false, nil
		}
	}
	return true, nil
}

// UniqueRows returns the distinct tuples already present in the table
// across cols: `SELECT DISTINCT c1,…,cN FROM table`.
func (cs *ConstraintSet) UniqueRows(ctx context.Context, cols []*schema.Column) ([]map[string]any, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quoteIdent(c.Name)
	}
	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s", strings.Join(names, ", "), quoteIdent(cs.Table.Name))

	rows, err := cs.Q.QueryNamed(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("dancer: unique rows on %s: %w", cs.Table.Name, err)
	}
	defer rows.Close()

	return scanTuples(rows, cols)
}

// AvailableForeignTuples finds candidate parent-column tuples for a
// FK-bearing composite unique index by composing
//
//	SELECT DISTINCT p1,…,pK FROM parent_tables
//	 [ WHERE <not-already-used-tuples> ]
//	 GROUP BY p1,…,pK
//
// re-keyed from parent column names back to child column names via
// each column's ReferencedTo edge. By default the WHERE exclusion is
// an intentionally over-tight AND of per-existing-tuple
// negated-equality clauses, preserved for compatibility; set
// Policy.StrictExclusion to emit the semantically correct NOT EXISTS
// form instead.
func (cs *ConstraintSet) AvailableForeignTuples(ctx context.Context, cols []*schema.Column, policy FakePolicy) ([]map[string]any, error) {
	fkCols := make([]*schema.Column, 0, len(cols))
	for _, c := range cols {
		if c.ReferencedTo != nil {
			fkCols = append(fkCols, c)
		}
	}
	if len(fkCols) == 0 {
		return nil, nil
	}

	parentTables := map[string]bool{}
	parentSelect := make([]string, len(fkCols))
	groupBy := make([]string, len(fkCols))
	for i, c := range fkCols {
		ref := c.ReferencedTo
		parentTables[ref.Table] = true
		parentSelect[i] = fmt.Sprintf("%s.%s AS p%d", quoteIdent(ref.Table), quoteIdent(ref.Column), i)
		groupBy[i] = fmt.Sprintf("p%d", i)
	}

	var fromTables []string
	for t := range parentTables {
		fromTables = append(fromTables, quoteIdent(t))
	}

	existing, err := cs.UniqueRows(ctx, fkCols)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT DISTINCT %s FROM %s", strings.Join(parentSelect, ", "), strings.Join(fromTables, ", "))
	params := map[string]any{}

	if where := cs.buildExclusionClause(fkCols, existing, policy.StrictExclusion, params); where != "" {
		query += " WHERE " + where
	}
	query += " GROUP BY " + strings.Join(groupBy, ", ")

	rows, err := cs.Q.QueryNamed(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("dancer: available foreign tuples on %s: %w", cs.Table.Name, err)
	}
	defer rows.Close()

	cols2 := make([]*schema.Column, len(fkCols))
	copy(cols2, fkCols)
	tuples, err := scanAliasedTuples(rows, fkCols)
	if err != nil {
		return nil, err
	}

	// Re-key from parent alias (p0, p1, …) back to child column names.
	out := make([]map[string]any, len(tuples))
	for i, t := range tuples {
		reKeyed := make(map[string]any, len(fkCols))
		for j, c := range fkCols {
			reKeyed[c.Name] = t[fmt.Sprintf("p%d", j)]
		}
		out[i] = reKeyed
	}
	return out, nil
}

// buildExclusionClause renders the WHERE predicate excluding tuples
// already present in the child table. When strict is false (the
// documented default, preserved intentionally — see DESIGN.md) it
// emits the literal over-tight form: each existing tuple contributes
// `(p1<>:v1 AND p2<>:v2 …)` and the per-tuple clauses are joined with
// AND, which over-excludes whenever the index spans two or more FK
// columns: a parent tuple sharing any single value with an existing
// tuple is dropped. When strict is true it instead emits the correct
// `NOT (tuple IN (existing tuples))` form via an OR-of-ANDs negated.
func (cs *ConstraintSet) buildExclusionClause(fkCols []*schema.Column, existing []map[string]any, strict bool, params map[string]any) string {
	if len(existing) == 0 {
		return ""
	}

	var tupleClauses []string
	for i, tuple := range existing {
		var eqParts []string
		for j, c := range fkCols {
			param := fmt.Sprintf("e%d_%d", i, j)
			params[param] = tuple[c.Name]
			op := "<>"
			if strict {
				op = "="
			}
			// MySQL does not resolve SELECT aliases (p0, p1, …) inside
			// WHERE, so compare against the parent column itself.
			ref := c.ReferencedTo
			eqParts = append(eqParts, fmt.Sprintf("%s.%s %s :%s", quoteIdent(ref.Table), quoteIdent(ref.Column), op, param))
		}
		joiner := " AND "
		tupleClauses = append(tupleClauses, "("+strings.Join(eqParts, joiner)+")")
	}

	if !strict {
		// Over-tight form: AND across per-tuple negated-equality
		// clauses.
		return strings.Join(tupleClauses, " AND ")
	}

	// Correct form: NOT EXISTS any existing tuple equal to this parent
	// tuple, i.e. NOT (tuple = e1 OR tuple = e2 OR …).
	return "NOT (" + strings.Join(tupleClauses, " OR ") + ")"
}

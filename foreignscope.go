package dancer

import "math/rand"

// ForeignScope is a mutable in-memory map from unique-index name to a
// list of candidate parent tuples, keyed by child column name. It is
// created fresh per synthesized row and progressively narrowed as FK
// columns are chosen; narrowing is monotone — once a bucket empties,
// it stays empty.
type ForeignScope struct {
	rand    *rand.Rand
	buckets map[string][]map[string]any
}

// NewForeignScope seeds an empty ForeignScope; callers populate
// buckets via Seed once per composite unique index that bears FK
// columns (from ConstraintSet.AvailableForeignTuples).
func NewForeignScope(rng *rand.Rand) *ForeignScope {
	return &ForeignScope{rand: rng, buckets: map[string][]map[string]any{}}
}

// Seed installs the candidate tuples for one unique index's bucket.
func (f *ForeignScope) Seed(indexName string, tuples []map[string]any) {
	f.buckets[indexName] = tuples
}

// ColumnValues returns the distinct values appearing at colName across
// every bucket.
func (f *ForeignScope) ColumnValues(colName string) []any {
	seen := map[any]bool{}
	var out []any
	for _, tuples := range f.buckets {
		for _, t := range tuples {
			v, ok := t[colName]
			if !ok || seen[v] {
				continue
			}
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// RandomScope picks a uniformly random value for colName from
// ColumnValues, then drops every tuple in every bucket whose value at
// colName differs from it. Returns nil when no candidate exists. This
// narrowing is permanent for the lifetime of this ForeignScope — it is
// never widened back.
func (f *ForeignScope) RandomScope(colName string) any {
	values := f.ColumnValues(colName)
	if len(values) == 0 {
		return nil
	}
	chosen := values[f.rand.Intn(len(values))]

	for indexName, tuples := range f.buckets {
		var kept []map[string]any
		for _, t := range tuples {
			v, ok := t[colName]
			if !ok || v == chosen {
				kept = append(kept, t)
			}
		}
		f.buckets[indexName] = kept
	}

	return chosen
}

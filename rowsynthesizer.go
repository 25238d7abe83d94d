package dancer

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/ordinaryparksee/dancer/schema"
)

// RowSynthesizer fills one table's fillable columns for a single row at
// a time, retrying on unique-constraint collisions.
type RowSynthesizer struct {
	Table    *schema.Table
	Q        Queryer
	VF       *ValueFactory
	Policy   FakePolicy
	Rand     *rand.Rand
	Progress ProgressSink

	overrides map[string]FakeColumnOverride
}

// NewRowSynthesizer returns a RowSynthesizer for table t. A nil
// progress defaults to a no-op sink.
func NewRowSynthesizer(t *schema.Table, q Queryer, vf *ValueFactory, policy FakePolicy, rng *rand.Rand, progress ProgressSink, overrides map[string]FakeColumnOverride) *RowSynthesizer {
	if progress == nil {
		progress = noopProgress{}
	}
	return &RowSynthesizer{Table: t, Q: q, VF: vf, Policy: policy, Rand: rng, Progress: progress, overrides: overrides}
}

// Synthesize attempts up to the policy's retry budget to build a row
// satisfying every unique index, then INSERTs it. On exhaustion it
// warns via Progress and returns (nil, nil) — the caller
// (GenerationDriver) treats a nil row as tolerated partial failure,
// not an error.
func (rs *RowSynthesizer) Synthesize(ctx context.Context) (map[string]any, error) {
	cs := NewConstraintSet(rs.Table, rs.Q)
	fillable := rs.Table.FillableColumns()

	for attempt := 0; attempt < rs.Policy.retryLimit(); attempt++ {
		scope, err := rs.seedForeignScope(ctx, cs, fillable)
		if err != nil {
			return nil, err
		}

		row, err := rs.buildRow(ctx, fillable, scope)
		if err != nil {
			return nil, err
		}

		// A NOT NULL FK column left nil by an emptied ForeignScope has no
		// admissible parent tuple; the attempt counts against the budget.
		noCandidate := false
		for _, col := range fillable {
			if col.ReferencedTo != nil && !col.Nullable && row[col.Name] == nil {
				noCandidate = true
				break
			}
		}
		if noCandidate {
			continue
		}

		ok, err := cs.Test(ctx, row)
		if err != nil {
			return nil, err
		}
		if !ok {
			if rs.Policy.OnCollision != nil {
				rs.Policy.OnCollision(rs.Table.Name, row)
			}
			continue
		}

		if err := rs.insert(ctx, fillable, row); err != nil {
			return nil, err
		}
		return row, nil
	}

	rs.Progress.Warn(fmt.Errorf("%w: %s after %d attempts", ErrRetriesExhausted, rs.Table.Name, rs.Policy.retryLimit()).Error())
	return nil, nil
}

// seedForeignScope seeds one ForeignScope bucket per composite unique
// index that bears at least one FK column.
func (rs *RowSynthesizer) seedForeignScope(ctx context.Context, cs *ConstraintSet, fillable []*schema.Column) (*ForeignScope, error) {
	scope := NewForeignScope(rs.Rand)
	for indexName, cols := range rs.Table.UniqueIndexes {
		hasFK := false
		for _, c := range cols {
			if c.ReferencedTo != nil {
				hasFK = true
				break
			}
		}
		if !hasFK {
			continue
		}
		tuples, err := cs.AvailableForeignTuples(ctx, cols, rs.Policy)
		if err != nil {
			return nil, err
		}
		scope.Seed(indexName, tuples)
	}
	return scope, nil
}

// buildRow resolves a value for every fillable column: NULL first if
// the nullable ratio fires, then a foreign-key value if the column
// references another table, then any configured override, falling
// back to ValueFactory.Generate.
func (rs *RowSynthesizer) buildRow(ctx context.Context, fillable []*schema.Column, scope *ForeignScope) (map[string]any, error) {
	row := make(map[string]any, len(fillable))

	seed := rs.Rand.Int63()

	for _, col := range fillable {
		if col.Nullable && rs.Rand.Float64() < rs.Policy.NullableRatio {
			row[col.Name] = nil
			continue
		}

		if col.ReferencedTo != nil {
			v, err := rs.resolveForeignValue(ctx, col, scope, seed)
			if err != nil {
				return nil, err
			}
			row[col.Name] = v
			continue
		}

		if override, ok := rs.overrides[col.Name]; ok {
			v, err := rs.applyOverride(col, override)
			if err != nil {
				return nil, err
			}
			row[col.Name] = v
			continue
		}

		v, err := rs.VF.Generate(col)
		if err != nil {
			return nil, err
		}
		row[col.Name] = v
	}

	return row, nil
}

// resolveForeignValue handles the two FK branches: a column in a
// composite unique index narrows via ForeignScope; any
// other FK column picks a uniformly random parent row, using the same
// per-row seed for every such column so columns sharing a parent table
// see the same parent row.
func (rs *RowSynthesizer) resolveForeignValue(ctx context.Context, col *schema.Column, scope *ForeignScope, seed int64) (any, error) {
	if rs.columnInUniqueIndex(col) {
		return scope.RandomScope(col.Name), nil
	}

	ref := col.ReferencedTo
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY RAND(:seed) LIMIT 1", quoteIdent(ref.Column), quoteIdent(ref.Table))
	var value any
	row := rs.Q.QueryRowNamed(ctx, query, map[string]any{"seed": seed})
	if err := row.Scan(&value); err != nil {
		return nil, fmt.Errorf("dancer: resolving FK %s.%s -> %s.%s: %w", rs.Table.Name, col.Name, ref.Table, ref.Column, err)
	}
	return value, nil
}

func (rs *RowSynthesizer) columnInUniqueIndex(col *schema.Column) bool {
	for _, cols := range rs.Table.UniqueIndexes {
		for _, c := range cols {
			if c == col {
				return true
			}
		}
	}
	return false
}

// applyOverride dispatches a FakeColumnOverride: a fixed constant, a
// factory function of the column, or a named keyword method with
// optional args.
func (rs *RowSynthesizer) applyOverride(col *schema.Column, override FakeColumnOverride) (any, error) {
	switch override.Kind {
	case OverrideConstant:
		return override.Constant, nil
	case OverrideFactory:
		return override.Factory(col), nil
	case OverrideKeyword:
		return rs.dispatchKeyword(override.Keyword)
	default:
		return rs.VF.Generate(col)
	}
}

// dispatchKeyword calls the named Faker method, passing through
// "min"/"max"/"choices"/"length" keyword args. Unknown method names
// fall back to a random sentence rather than erroring.
func (rs *RowSynthesizer) dispatchKeyword(kw KeywordOverride) (any, error) {
	f := rs.VF.Faker
	switch kw.Method {
	case "random_int":
		min, max := intArg(kw.Args, "min", 0), intArg(kw.Args, "max", 100)
		return f.RandomInt(min, max), nil
	case "random_element":
		return f.RandomElement(stringsArg(kw.Args, "choices")), nil
	case "random_elements":
		return f.RandomElements(stringsArg(kw.Args, "choices")), nil
	case "word":
		return f.RandomLetters(intArg(kw.Args, "length", 6)), nil
	case "sentence":
		return f.Sentence(), nil
	case "date":
		return f.Date(), nil
	case "date_time":
		return f.DateTime(), nil
	default:
		return f.Sentence(), nil
	}
}

func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}

func stringsArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, fmt.Sprintf("%v", e))
		}
		return out
	default:
		return nil
	}
}

// insert emits INSERT INTO <t> (<fillable cols>) VALUES (:c1,…,:cN)
// with the resolved row.
func (rs *RowSynthesizer) insert(ctx context.Context, fillable []*schema.Column, row map[string]any) error {
	names := make([]string, len(fillable))
	placeholders := make([]string, len(fillable))
	params := make(map[string]any, len(fillable))
	for i, c := range fillable {
		names[i] = quoteIdent(c.Name)
		placeholders[i] = ":" + c.Name
		params[c.Name] = row[c.Name]
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(rs.Table.Name), strings.Join(names, ", "), strings.Join(placeholders, ", "))

	_, err := rs.Q.ExecNamed(ctx, query, params)
	if err != nil {
		return fmt.Errorf("dancer: inserting into %s: %w", rs.Table.Name, err)
	}
	return nil
}

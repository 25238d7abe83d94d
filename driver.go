package dancer

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/ordinaryparksee/dancer/genfaker"
	"github.com/ordinaryparksee/dancer/schema"
)

// GenerationDriver walks the Database's tables in FK-dependency order
// and drives RowSynthesizer N times per table.
type GenerationDriver struct {
	DB       *schema.Database
	Q        Queryer
	Faker    genfaker.Faker
	Rand     *rand.Rand
	Progress ProgressSink
	Policy   FakePolicy
	Tables   map[string]FakeTable

	memo       map[*schema.Table][]map[string]any
	inProgress map[*schema.Table]bool
}

// NewGenerationDriver wires a GenerationDriver against a reflected
// Database. progress may be nil (defaults to a no-op sink).
func NewGenerationDriver(db *schema.Database, q Queryer, f genfaker.Faker, rng *rand.Rand, progress ProgressSink, policy FakePolicy, tables map[string]FakeTable) *GenerationDriver {
	if progress == nil {
		progress = noopProgress{}
	}
	return &GenerationDriver{
		DB: db, Q: q, Faker: f, Rand: rng, Progress: progress, Policy: policy, Tables: tables,
		memo:       map[*schema.Table][]map[string]any{},
		inProgress: map[*schema.Table]bool{},
	}
}

// Generate fills every table in db.Tables (catalog order), recursing
// into parent tables first. It returns the rows generated per table,
// keyed by table name, for callers that want to inspect results.
func (d *GenerationDriver) Generate(ctx context.Context) (map[string][]map[string]any, error) {
	out := map[string][]map[string]any{}
	for _, t := range d.DB.Tables {
		rows, err := d.generate(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t.Name] = rows
	}
	return out, nil
}

// generate performs memoized parent-first recursion, skipping
// self-references, with an ErrCyclicForeignKey guard for cycles among
// distinct tables that unbounded recursion has no defense against (see
// DESIGN.md's Open Question resolution).
func (d *GenerationDriver) generate(ctx context.Context, t *schema.Table) ([]map[string]any, error) {
	if rows, ok := d.memo[t]; ok {
		return rows, nil
	}

	if d.inProgress[t] {
		return nil, fmt.Errorf("%w: %s", ErrCyclicForeignKey, t.Name)
	}
	d.inProgress[t] = true
	defer delete(d.inProgress, t)

	for parentName := range t.ReferencesGroupByTable() {
		parent := d.DB.TableByName(parentName)
		if parent == nil {
			continue
		}
		if _, err := d.generate(ctx, parent); err != nil {
			return nil, err
		}
	}

	conf, hasConf := d.Tables[t.Name]
	if !hasConf {
		conf = FakeTable{Table: t.Name}
	}
	numRows := conf.numOfRows()

	policy := conf.resolvePolicy(d.Policy)
	taskID := d.Progress.AddTask(t.Name, numRows)

	vf := NewValueFactory(d.Faker, d.Rand, policy)
	rs := NewRowSynthesizer(t, d.Q, vf, policy, d.Rand, d.Progress, conf.Columns)

	rows := make([]map[string]any, 0, numRows)
	for i := 0; i < numRows; i++ {
		row, err := rs.Synthesize(ctx)
		if err != nil {
			return nil, fmt.Errorf("dancer: generating row %d/%d for %s: %w", i+1, numRows, t.Name, err)
		}
		if row != nil {
			rows = append(rows, row)
		}
		d.Progress.Advance(taskID, 1)
	}

	d.memo[t] = rows
	d.Progress.Finish(taskID)
	return rows, nil
}

package dancer

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	"github.com/ordinaryparksee/dancer/genfaker"
	"github.com/ordinaryparksee/dancer/introspect"
	"github.com/ordinaryparksee/dancer/schema"
)

// FakeFactory is the public entry point of the engine:
// constructed once per job with a connection, a database name, and
// optional per-table overrides, it reflects the schema and then runs
// the generation driver.
type FakeFactory struct {
	DBName    string
	Conn      *sql.DB
	Tables    map[string]FakeTable
	Policy    FakePolicy
	Faker     genfaker.Faker
	Progress  ProgressSink
	TableLike string

	rand *rand.Rand
}

// FakeFactoryOption configures a FakeFactory at construction time.
type FakeFactoryOption func(*FakeFactory)

// WithFaker overrides the default DefaultFaker collaborator.
func WithFaker(f genfaker.Faker) FakeFactoryOption {
	return func(ff *FakeFactory) { ff.Faker = f }
}

// WithProgress overrides the default no-op ProgressSink.
func WithProgress(p ProgressSink) FakeFactoryOption {
	return func(ff *FakeFactory) { ff.Progress = p }
}

// WithPolicy overrides the default FakePolicy.
func WithPolicy(p FakePolicy) FakeFactoryOption {
	return func(ff *FakeFactory) { ff.Policy = p }
}

// WithTableLike restricts schema reflection to tables matching a LIKE
// pattern.
func WithTableLike(pattern string) FakeFactoryOption {
	return func(ff *FakeFactory) { ff.TableLike = pattern }
}

// WithSeed fixes the factory's RNG seed for reproducible-shape runs.
func WithSeed(seed int64) FakeFactoryOption {
	return func(ff *FakeFactory) { ff.rand = rand.New(rand.NewSource(seed)) }
}

// NewFakeFactory constructs a FakeFactory against conn/dbName, applying
// per-table row counts and column overrides plus any options. Unset
// collaborators default to DefaultFaker and a no-op ProgressSink —
// there are no package-level singletons (see DESIGN.md).
func NewFakeFactory(conn *sql.DB, dbName string, tables map[string]FakeTable, opts ...FakeFactoryOption) *FakeFactory {
	ff := &FakeFactory{
		DBName: dbName,
		Conn:   conn,
		Tables: tables,
		Policy: DefaultFakePolicy(),
	}
	for _, opt := range opts {
		opt(ff)
	}
	if ff.rand == nil {
		ff.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if ff.Faker == nil {
		ff.Faker = genfaker.NewDefaultFaker(ff.rand.Int63())
	}
	if ff.Progress == nil {
		ff.Progress = noopProgress{}
	}
	return ff
}

// Generate reflects the schema and runs the generation driver,
// returning the rows synthesized per table.
func (ff *FakeFactory) Generate(ctx context.Context) (map[string][]map[string]any, error) {
	taskID := ff.Progress.AddTask("reflecting schema", 1)
	reflector := &introspect.SchemaReflector{TableLike: ff.TableLike}
	db, err := reflector.Reflect(ctx, ff.Conn, ff.DBName)
	if err != nil {
		return nil, fmt.Errorf("dancer: reflecting %s: %w", ff.DBName, err)
	}
	ff.Progress.Finish(taskID)

	q := NewDBQueryer(ff.Conn)
	driver := NewGenerationDriver(db, q, ff.Faker, ff.rand, ff.Progress, ff.Policy, ff.Tables)
	return driver.Generate(ctx)
}

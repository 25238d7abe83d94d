package dancer

import (
	"context"
	"math/rand"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ordinaryparksee/dancer/genfaker"
	"github.com/ordinaryparksee/dancer/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationDriverDetectsCycleAmongDistinctTables(t *testing.T) {
	a := &schema.Table{Name: "a", UniqueIndexes: map[string][]*schema.Column{}}
	b := &schema.Table{Name: "b", UniqueIndexes: map[string][]*schema.Column{}}
	a.Columns = []*schema.Column{{Table: a, Name: "b_id", ReferencedTo: &schema.ColumnRef{Table: "b", Column: "id"}}}
	b.Columns = []*schema.Column{{Table: b, Name: "a_id", ReferencedTo: &schema.ColumnRef{Table: "a", Column: "id"}}}

	db := &schema.Database{Name: "testdb", Tables: []*schema.Table{a, b}}

	driver := NewGenerationDriver(db, nil, genfaker.NewDefaultFaker(1), rand.New(rand.NewSource(1)), nil, FakePolicy{}, nil)
	_, err := driver.Generate(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCyclicForeignKey)
}

func TestGenerationDriverSkipsSelfReferenceWithoutDeadlock(t *testing.T) {
	nodes := &schema.Table{Name: "nodes", UniqueIndexes: map[string][]*schema.Column{}}
	nodes.Columns = []*schema.Column{
		{Table: nodes, Name: "id", AutoIncrement: true},
		{Table: nodes, Name: "parent_id", Nullable: true, ReferencedTo: &schema.ColumnRef{Table: "nodes", Column: "id"}},
	}
	db := &schema.Database{Name: "testdb", Tables: []*schema.Table{nodes}}

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	// parent_id is nullable and policy forces every nullable column to
	// NULL, so no FK lookup for it is ever attempted; only the INSERT
	// runs, listing parent_id (bound to NULL) and leaving out the
	// auto_increment id.
	mock.ExpectExec("INSERT INTO").WillReturnResult(sqlmock.NewResult(1, 1))

	policy := FakePolicy{NullableRatio: 1}
	q := NewDBQueryer(sqldb)
	driver := NewGenerationDriver(db, q, genfaker.NewDefaultFaker(1), rand.New(rand.NewSource(1)), nil, policy,
		map[string]FakeTable{"nodes": {Table: "nodes", NumOfRows: 1}})

	rows, err := driver.Generate(context.Background())
	require.NoError(t, err)
	assert.Len(t, rows["nodes"], 1)
}

// recordingProgress captures Warn messages for assertions without
// writing anywhere; its other methods do nothing.
type recordingProgress struct {
	warnings []string
}

func (r *recordingProgress) AddTask(string, int) int { return 0 }
func (r *recordingProgress) Advance(int, int)        {}
func (r *recordingProgress) Finish(int)              {}
func (r *recordingProgress) Warn(message string)     { r.warnings = append(r.warnings, message) }

func TestGenerationDriverWarnsAndDropsRowOnRetryExhaustion(t *testing.T) {
	users := &schema.Table{Name: "users", UniqueIndexes: map[string][]*schema.Column{}}
	emailCol := &schema.Column{Table: users, Name: "email", Type: schema.TypeChar, Length: 4}
	users.Columns = []*schema.Column{emailCol}
	users.UniqueIndexes["uniq_email"] = []*schema.Column{emailCol}

	db := &schema.Database{Name: "testdb", Tables: []*schema.Table{users}}

	sqldb, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqldb.Close()

	// Every uniqueness probe reports a collision, so every attempt is
	// rejected and the retry budget is exhausted without any INSERT.
	mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	for i := 0; i < 4; i++ {
		mock.ExpectQuery("SELECT COUNT").WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	}

	progress := &recordingProgress{}
	policy := FakePolicy{RetryLimit: 5}
	q := NewDBQueryer(sqldb)
	driver := NewGenerationDriver(db, q, genfaker.NewDefaultFaker(1), rand.New(rand.NewSource(1)), progress, policy,
		map[string]FakeTable{"users": {Table: "users", NumOfRows: 1}})

	rows, err := driver.Generate(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows["users"])
	require.NotEmpty(t, progress.warnings)
	assert.Contains(t, progress.warnings[0], "users")
}

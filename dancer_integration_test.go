package dancer

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
)

type userRolePair struct {
	userID, roleID int64
}

// setupGenerationMySQL starts a throwaway MySQL container and returns
// an open *sql.DB against it.
func setupGenerationMySQL(t *testing.T) (*sql.DB, string) {
	t.Helper()
	ctx := context.Background()

	container, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err)

	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	require.NoError(t, db.PingContext(ctx))
	t.Cleanup(func() { _ = db.Close() })

	return db, "testdb"
}

// Single table with no foreign keys: every row inserts, auto-increment columns are never populated by the caller.
func TestIntegrationSingleTableNoForeignKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE t (
			id INT AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(10) NOT NULL,
			age TINYINT UNSIGNED NULL
		)
	`)
	require.NoError(t, err)

	factory := NewFakeFactory(db, dbName, map[string]FakeTable{
		"t": {Table: "t", NumOfRows: 3},
	})
	results, err := factory.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, results["t"], 3)

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM t").Scan(&count))
	assert.Equal(t, 3, count)

	for _, row := range results["t"] {
		assert.NotContains(t, row, "id")
		if name, ok := row["name"].(string); ok {
			assert.LessOrEqual(t, len(name), 10)
		}
	}
}

// Parent-child foreign key with no composite unique index: every child row's FK value must match some parent row's id.
func TestIntegrationParentChildForeignKey(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE p (id INT AUTO_INCREMENT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE c (
			id INT AUTO_INCREMENT PRIMARY KEY,
			p_id INT NOT NULL,
			FOREIGN KEY (p_id) REFERENCES p(id)
		)
	`)
	require.NoError(t, err)

	factory := NewFakeFactory(db, dbName, map[string]FakeTable{
		"p": {Table: "p", NumOfRows: 5},
		"c": {Table: "c", NumOfRows: 10},
	})
	_, err = factory.Generate(ctx)
	require.NoError(t, err)

	rows, err := db.QueryContext(ctx, "SELECT c.p_id FROM c")
	require.NoError(t, err)
	defer rows.Close()

	var parentIDs []int
	parentRows, err := db.QueryContext(ctx, "SELECT id FROM p")
	require.NoError(t, err)
	defer parentRows.Close()
	for parentRows.Next() {
		var id int
		require.NoError(t, parentRows.Scan(&id))
		parentIDs = append(parentIDs, id)
	}

	for rows.Next() {
		var pID int
		require.NoError(t, rows.Scan(&pID))
		assert.Contains(t, parentIDs, pID)
	}
}

// Columns defaulting to CURRENT_TIMESTAMP (with or without ON UPDATE) are never assigned by the generator.
func TestIntegrationCurrentTimestampColumnsSkipped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE t (
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			name VARCHAR(5) NOT NULL
		)
	`)
	require.NoError(t, err)

	factory := NewFakeFactory(db, dbName, map[string]FakeTable{"t": {Table: "t", NumOfRows: 2}})
	results, err := factory.Generate(ctx)
	require.NoError(t, err)

	for _, row := range results["t"] {
		assert.NotContains(t, row, "created_at")
		assert.NotContains(t, row, "updated_at")
		assert.Contains(t, row, "name")
	}
}

// Composite unique index across two FK columns: every inserted pair is
// distinct, and requesting more rows than there are distinct pairs
// exhausts retries and warns instead of erroring.
func TestIntegrationCompositeUniqueAcrossTwoForeignKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE user (id INT AUTO_INCREMENT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `CREATE TABLE role (id INT AUTO_INCREMENT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE user_role (
			user_id INT NOT NULL,
			role_id INT NOT NULL,
			FOREIGN KEY (user_id) REFERENCES user(id),
			FOREIGN KEY (role_id) REFERENCES role(id),
			UNIQUE KEY uniq_user_role (user_id, role_id)
		)
	`)
	require.NoError(t, err)

	const numUsers, numRoles = 3, 2
	capacity := numUsers * numRoles

	progress := &recordingProgress{}
	factory := NewFakeFactory(db, dbName, map[string]FakeTable{
		"user":      {Table: "user", NumOfRows: numUsers},
		"role":      {Table: "role", NumOfRows: numRoles},
		"user_role": {Table: "user_role", NumOfRows: capacity + 2},
	}, WithProgress(progress))

	results, err := factory.Generate(ctx)
	require.NoError(t, err)

	seen := map[userRolePair]bool{}
	for _, row := range results["user_role"] {
		pair := userRolePair{userID: row["user_id"].(int64), roleID: row["role_id"].(int64)}
		require.False(t, seen[pair], "pair %+v inserted more than once", pair)
		seen[pair] = true
	}
	assert.Len(t, results["user_role"], capacity, "only the distinct user/role pairs available fit")
	assert.NotEmpty(t, progress.warnings, "requesting more rows than distinct pairs exist should warn on exhaustion")
}

// Enum and decimal columns: every status is one of the declared enum
// values, and every price has at most 4 integer digits (the column
// itself stores exactly 2 fractional digits).
func TestIntegrationEnumAndDecimalColumns(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TABLE t (
			status ENUM('a', 'b', 'c') NOT NULL,
			price DECIMAL(6,2) NOT NULL
		)
	`)
	require.NoError(t, err)

	factory := NewFakeFactory(db, dbName, map[string]FakeTable{"t": {Table: "t", NumOfRows: 5}})
	results, err := factory.Generate(ctx)
	require.NoError(t, err)
	require.Len(t, results["t"], 5)

	rows, err := db.QueryContext(ctx, "SELECT status, price FROM t")
	require.NoError(t, err)
	defer rows.Close()

	count := 0
	for rows.Next() {
		var status string
		var price float64
		require.NoError(t, rows.Scan(&status, &price))
		assert.Contains(t, []string{"a", "b", "c"}, status)
		assert.Less(t, price, 10000.0, "DECIMAL(6,2) allows at most 4 integer digits")
		assert.GreaterOrEqual(t, price, -10000.0)
		count++
	}
	assert.Equal(t, 5, count)
}

// Dependency order: the parent table is reflected after the child
// alphabetically (SHOW TABLES returns catalog order), but the driver
// still inserts the parent first, so no FK error is raised.
func TestIntegrationDependencyOrderIgnoresCatalogOrder(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db, dbName := setupGenerationMySQL(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE zz_parent (id INT AUTO_INCREMENT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
		CREATE TABLE aa_child (
			id INT AUTO_INCREMENT PRIMARY KEY,
			parent_id INT NOT NULL,
			FOREIGN KEY (parent_id) REFERENCES zz_parent(id)
		)
	`)
	require.NoError(t, err)

	factory := NewFakeFactory(db, dbName, map[string]FakeTable{
		"zz_parent": {Table: "zz_parent", NumOfRows: 4},
		"aa_child":  {Table: "aa_child", NumOfRows: 6},
	})
	results, err := factory.Generate(ctx)
	require.NoError(t, err)
	assert.Len(t, results["zz_parent"], 4)
	assert.Len(t, results["aa_child"], 6)
}

package introspect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aita/migi/internal/catalog"
)

const liveSchema = `
CREATE TABLE teams (
	id serial PRIMARY KEY,
	name text NOT NULL UNIQUE
);
CREATE TABLE users (
	id bigint GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	email varchar(255) NOT NULL DEFAULT 'none',
	team_id integer REFERENCES teams (id) ON DELETE CASCADE,
	score numeric(10,2) CHECK (score >= 0)
);
CREATE INDEX users_email_idx ON users (email);
`

func TestLoadLivePostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping live database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("shop"),
		postgres.WithUsername("migi"),
		postgres.WithPassword("migi"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(2*time.Minute)),
	)
	if err != nil {
		t.Skipf("postgres container unavailable: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	i, err := Open(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { _ = i.Close() })

	_, err = i.db.ExecContext(ctx, liveSchema)
	require.NoError(t, err)

	db, err := i.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "shop", db.DefaultCatalog)
	assert.Equal(t, 2, db.TableCount())

	users, err := db.GetTable(catalog.TableName{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "team_id", "score"}, users.ColumnNames())
	assert.Equal(t, []string{"id"}, users.PrimaryKey())

	email, _ := users.Column("email")
	assert.Equal(t, "character varying(255)", email.DataType)
	def, ok := email.Default()
	require.True(t, ok)
	assert.Equal(t, "'none'", def)

	score, _ := users.Column("score")
	assert.Equal(t, "numeric(10,2)", score.DataType)

	var fk *catalog.Constraint
	for k := range users.Constraints {
		if users.Constraints[k].Kind == catalog.ConstraintForeignKey {
			fk = &users.Constraints[k]
		}
	}
	require.NotNil(t, fk)
	assert.Equal(t, catalog.ObjectName{"teams"}, fk.References.Table)
	assert.Equal(t, []string{"id"}, fk.References.Columns)
	assert.Equal(t, "CASCADE", fk.References.OnDelete)

	require.Len(t, users.Indexes, 1)
	assert.Equal(t, "users_email_idx", users.Indexes[0].Name)
	assert.Equal(t, []string{"email"}, users.Indexes[0].Columns)
}

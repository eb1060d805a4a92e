package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aita/migi/internal/dialect"
)

func newTestDB() *Dbinfo {
	return New(Options{Dialect: dialect.Postgres, Database: "db", DefaultSchema: "public"})
}

func TestNew(t *testing.T) {
	db := newTestDB()

	require.Contains(t, db.Catalogs, "db")
	assert.Equal(t, "db", db.DefaultCatalog)
	assert.Equal(t, "public", db.Catalogs["db"].DefaultSchema)
	assert.Contains(t, db.Catalogs["db"].Schemas, "public")
	assert.Equal(t, Options{Dialect: dialect.Postgres, Database: "db", DefaultSchema: "public"}, db.Options())

	sqlite := New(Options{Dialect: dialect.SQLite, Database: "app"})
	assert.Equal(t, "main", sqlite.Catalogs["app"].DefaultSchema)
}

func TestAddTable(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		db := newTestDB()
		require.NoError(t, db.AddTable(TableName{Table: "users"}, &Table{Name: "users"}))

		table, err := db.GetTable(TableName{Catalog: "db", Schema: "public", Table: "users"})
		require.NoError(t, err)
		assert.Equal(t, "users", table.Name)
	})

	t.Run("explicit schema", func(t *testing.T) {
		db := newTestDB()
		require.NoError(t, db.AddSchema("", NewSchema("reporting")))
		require.NoError(t, db.AddTable(TableName{Schema: "reporting", Table: "events"}, &Table{Name: "events"}))

		_, err := db.GetTable(TableName{Schema: "reporting", Table: "events"})
		require.NoError(t, err)

		_, err = db.GetTable(TableName{Table: "events"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing schema never falls back", func(t *testing.T) {
		db := newTestDB()
		err := db.AddTable(TableName{Schema: "missing", Table: "t"}, &Table{Name: "t"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Contains(t, err.Error(), `schema "db.missing"`)
		assert.Empty(t, db.Catalogs["db"].Schemas["public"].Tables)
	})

	t.Run("missing catalog", func(t *testing.T) {
		db := newTestDB()
		err := db.AddTable(TableName{Catalog: "other", Table: "t"}, &Table{Name: "t"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("replace", func(t *testing.T) {
		db := newTestDB()
		require.NoError(t, db.AddTable(TableName{Table: "t"}, &Table{Name: "t"}))
		require.NoError(t, db.AddTable(TableName{Table: "t"}, &Table{Name: "t", Comment: "second"}))

		table, err := db.GetTable(TableName{Table: "t"})
		require.NoError(t, err)
		assert.Equal(t, "second", table.Comment)
	})
}

func TestLookups(t *testing.T) {
	db := newTestDB()

	_, err := db.GetCatalog("db")
	assert.NoError(t, err)

	_, err = db.GetCatalog("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetSchema("db", "public")
	assert.NoError(t, err)

	_, err = db.GetSchema("db", "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetSchema("nope", "public")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = db.GetTable(TableName{Table: "nope"})
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "db.public.nope", cerr.Name)
	assert.Equal(t, "table", cerr.Object)
}

func TestAddCatalogReplaces(t *testing.T) {
	db := newTestDB()
	db.AddCatalog("db", NewCatalog("db", "app"))

	assert.Equal(t, "app", db.Catalogs["db"].DefaultSchema)
	assert.NotContains(t, db.Catalogs["db"].Schemas, "public")
}

func TestEqualAndClone(t *testing.T) {
	db := newTestDB()
	require.NoError(t, db.AddTable(TableName{Table: "users"}, &Table{
		Name: "users",
		Columns: []Column{
			{Name: "id", DataType: "integer", Options: []ColumnOption{{Kind: OptionPrimaryKey}}},
			{Name: "org", DataType: "integer", Options: []ColumnOption{{
				Kind:       OptionReferences,
				References: &Reference{Table: ObjectName{"orgs"}, Columns: []string{"id"}},
			}}},
		},
	}))

	clone := db.Clone()
	assert.True(t, db.Equal(clone))

	table, err := clone.GetTable(TableName{Table: "users"})
	require.NoError(t, err)
	table.Columns[1].Options[0].References.Columns[0] = "uuid"

	assert.False(t, db.Equal(clone))

	original, err := db.GetTable(TableName{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, "id", original.Columns[1].Options[0].References.Columns[0])
}

func TestTableEqualColumnOrder(t *testing.T) {
	a := &Table{Name: "t", Columns: []Column{{Name: "a", DataType: "int"}, {Name: "b", DataType: "int"}}}
	b := &Table{Name: "t", Columns: []Column{{Name: "b", DataType: "int"}, {Name: "a", DataType: "int"}}}

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(a.Clone()))

	empty := &Table{Name: "t", Columns: []Column{}}
	assert.True(t, empty.Equal(&Table{Name: "t"}))
}

func TestColumnHelpers(t *testing.T) {
	col := Column{Name: "id", DataType: "int", Options: []ColumnOption{
		{Kind: OptionNotNull},
		{Kind: OptionDefault, Expr: "0"},
	}}

	assert.False(t, col.Nullable())
	def, ok := col.Default()
	assert.True(t, ok)
	assert.Equal(t, "0", def)

	pk := Column{Name: "id", Options: []ColumnOption{{Kind: OptionPrimaryKey}}}
	assert.False(t, pk.Nullable())
	assert.True(t, Column{Name: "x"}.Nullable())

	table := &Table{Columns: []Column{pk, {Name: "name"}}}
	assert.Equal(t, []string{"id"}, table.PrimaryKey())
	assert.Equal(t, []string{"id", "name"}, table.ColumnNames())
}

func TestSortedNames(t *testing.T) {
	db := newTestDB()
	db.AddCatalog("alpha", NewCatalog("alpha", "public"))
	require.NoError(t, db.AddTable(TableName{Table: "zeta"}, &Table{Name: "zeta"}))
	require.NoError(t, db.AddTable(TableName{Table: "beta"}, &Table{Name: "beta"}))

	assert.Equal(t, []string{"alpha", "db"}, db.CatalogNames())
	assert.Equal(t, []string{"beta", "zeta"}, db.Catalogs["db"].Schemas["public"].TableNames())
	assert.Equal(t, 2, db.TableCount())
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aita/migi/internal/dialect"
)

func TestResolveTableName(t *testing.T) {
	tests := []struct {
		name    string
		parts   []string
		dialect dialect.Dialect
		want    TableName
		wantErr bool
	}{
		{name: "postgres bare", parts: []string{"t"}, dialect: dialect.Postgres, want: TableName{Table: "t"}},
		{name: "postgres schema", parts: []string{"s", "t"}, dialect: dialect.Postgres, want: TableName{Schema: "s", Table: "t"}},
		{name: "postgres full", parts: []string{"c", "s", "t"}, dialect: dialect.Postgres, want: TableName{Catalog: "c", Schema: "s", Table: "t"}},
		{name: "postgres four parts", parts: []string{"a", "b", "c", "d"}, dialect: dialect.Postgres, wantErr: true},
		{name: "postgres empty", parts: nil, dialect: dialect.Postgres, wantErr: true},
		{name: "mysql bare", parts: []string{"t"}, dialect: dialect.MySQL, want: TableName{Table: "t"}},
		{name: "mysql catalog", parts: []string{"c", "t"}, dialect: dialect.MySQL, want: TableName{Catalog: "c", Table: "t"}},
		{name: "mysql three parts", parts: []string{"c", "s", "t"}, dialect: dialect.MySQL, wantErr: true},
		{name: "sqlite bare", parts: []string{"t"}, dialect: dialect.SQLite, want: TableName{Table: "t"}},
		{name: "sqlite two parts", parts: []string{"s", "t"}, dialect: dialect.SQLite, wantErr: true},
		{name: "sqlite three parts", parts: []string{"c", "s", "t"}, dialect: dialect.SQLite, wantErr: true},
		{name: "empty part", parts: []string{"", "t"}, dialect: dialect.Postgres, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTableName(tt.parts, tt.dialect)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveTableNameUnknownDialect(t *testing.T) {
	_, err := ResolveTableName([]string{"t"}, dialect.Dialect(42))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidName)
	assert.Contains(t, err.Error(), "dialect(42)")
}

func TestResolveThreePartThenLookup(t *testing.T) {
	db := New(Options{Dialect: dialect.Postgres, Database: "db", DefaultSchema: "public"})
	require.NoError(t, db.AddTable(TableName{Table: "t"}, &Table{Name: "t"}))

	name, err := ResolveTableName([]string{"db", "public", "t"}, dialect.Postgres)
	require.NoError(t, err)

	_, err = db.GetTable(name)
	assert.NoError(t, err)
}

func TestObjectName(t *testing.T) {
	n := ObjectName{"db", "public", "users"}
	assert.Equal(t, "db.public.users", n.String())
	assert.Equal(t, "users", n.Last())
	assert.True(t, n.Equal(n.Clone()))
	assert.False(t, n.Equal(ObjectName{"db", "users"}))
	assert.Equal(t, "shop.orders", ObjectName{"shop", "", "orders"}.String())
	assert.Equal(t, "s.t", TableName{Schema: "s", Table: "t"}.String())
}

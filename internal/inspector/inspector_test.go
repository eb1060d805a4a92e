package inspector

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
)

func newDB(d dialect.Dialect) *catalog.Dbinfo {
	switch d {
	case dialect.MySQL:
		return catalog.New(catalog.Options{Dialect: d, Database: "app"})
	case dialect.SQLite:
		return catalog.New(catalog.Options{Dialect: d, Database: "main"})
	default:
		return catalog.New(catalog.Options{Dialect: d, Database: "test", DefaultSchema: "public"})
	}
}

func TestCreateTable(t *testing.T) {
	sql := `
		CREATE TABLE t (
			id INT PRIMARY KEY,
			name TEXT NOT NULL
		);
	`
	db := newDB(dialect.Postgres)
	require.NoError(t, New(db).Inspect(sql, "test.sql"))

	table, err := db.GetTable(catalog.TableName{Table: "t"})
	require.NoError(t, err)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, "id", table.Columns[0].Name)
	assert.Equal(t, "name", table.Columns[1].Name)
	assert.Equal(t, []string{"id"}, table.PrimaryKey())
	assert.False(t, table.Columns[1].Nullable())
}

func TestIdentifierFolding(t *testing.T) {
	sql := `CREATE TABLE Users ("Id" INT, Email TEXT);`

	t.Run("postgres folds unquoted names", func(t *testing.T) {
		db := newDB(dialect.Postgres)
		require.NoError(t, New(db).Inspect(sql, ""))

		table, err := db.GetTable(catalog.TableName{Table: "users"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "email"}, table.ColumnNames())
	})

	t.Run("sqlite keeps names as written", func(t *testing.T) {
		db := newDB(dialect.SQLite)
		require.NoError(t, New(db).Inspect(sql, ""))

		table, err := db.GetTable(catalog.TableName{Table: "Users"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Id", "Email"}, table.ColumnNames())
	})
}

// Unquoted Postgres names follow the server's folding rather than keeping
// the case they were written in, so both spellings name one table.
func TestPostgresUnquotedNamesFoldToLowerCase(t *testing.T) {
	db := newDB(dialect.Postgres)
	err := New(db).Inspect(`CREATE TABLE Orders (Id INT); CREATE TABLE "orders" (id INT);`, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))

	db = newDB(dialect.Postgres)
	require.NoError(t, New(db).Inspect(`CREATE TABLE Orders (Id INT); CREATE TABLE "Orders" (id INT);`, ""))
	assert.Equal(t, 2, db.TableCount())

	_, err = db.GetTable(catalog.TableName{Table: "Orders"})
	require.NoError(t, err)
	_, err = db.GetTable(catalog.TableName{Table: "orders"})
	require.NoError(t, err)
}

func TestQualifiedNames(t *testing.T) {
	t.Run("postgres schema and catalog", func(t *testing.T) {
		db := newDB(dialect.Postgres)
		sql := `
			CREATE SCHEMA billing;
			CREATE TABLE billing.invoices (id INT);
			CREATE DATABASE other;
			CREATE TABLE other.public.events (id INT);
		`
		require.NoError(t, New(db).Inspect(sql, "schema.sql"))

		_, err := db.GetTable(catalog.TableName{Schema: "billing", Table: "invoices"})
		assert.NoError(t, err)
		_, err = db.GetTable(catalog.TableName{Catalog: "other", Schema: "public", Table: "events"})
		assert.NoError(t, err)
	})

	t.Run("mysql database qualifier", func(t *testing.T) {
		db := newDB(dialect.MySQL)
		sql := "CREATE DATABASE shop; CREATE TABLE shop.orders (id INT);"
		require.NoError(t, New(db).Inspect(sql, "schema.sql"))

		_, err := db.GetTable(catalog.TableName{Catalog: "shop", Table: "orders"})
		assert.NoError(t, err)
	})

	t.Run("mysql schema is a database", func(t *testing.T) {
		db := newDB(dialect.MySQL)
		require.NoError(t, New(db).Inspect("CREATE SCHEMA shop", ""))
		_, err := db.GetCatalog("shop")
		assert.NoError(t, err)
	})

	t.Run("three parts are invalid in mysql", func(t *testing.T) {
		db := newDB(dialect.MySQL)
		err := New(db).Inspect("CREATE TABLE a.b.c (id INT);", "schema.sql")
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrInvalidName))
		assert.Contains(t, err.Error(), "schema.sql:1:14")
	})

	t.Run("unknown schema", func(t *testing.T) {
		db := newDB(dialect.Postgres)
		err := New(db).Inspect("CREATE TABLE missing.t (id INT);", "schema.sql")
		require.Error(t, err)
		assert.True(t, errors.Is(err, catalog.ErrNotFound))
	})
}

func TestUnsupportedConstructs(t *testing.T) {
	tests := []struct {
		name     string
		dialect  dialect.Dialect
		sql      string
		expected string
	}{
		{"temporary", dialect.Postgres, "CREATE TEMPORARY TABLE t (id INT);", "test.sql:1:1 CREATE TEMPORARY TABLE is not supported"},
		{"unlogged", dialect.Postgres, "\nCREATE UNLOGGED TABLE t (id INT);", "test.sql:2:1 CREATE UNLOGGED TABLE is not supported"},
		{"as query", dialect.Postgres, "CREATE TABLE t AS SELECT 1;", "test.sql:1:1 CREATE TABLE AS is not supported"},
		{"like", dialect.Postgres, "CREATE TABLE t (LIKE s);", "test.sql:1:16 CREATE TABLE ... LIKE is not supported"},
		{"inherits", dialect.Postgres, "CREATE TABLE t (id INT) INHERITS (p);", "test.sql:1:25 CREATE TABLE ... INHERITS is not supported"},
		{"tablespace", dialect.Postgres, "CREATE TABLE t (id INT) TABLESPACE fast;", "test.sql:1:25 CREATE TABLE ... TABLESPACE is not supported"},
		{"exclude", dialect.Postgres, "CREATE TABLE t (r INT, EXCLUDE USING gist (r WITH &&));", "test.sql:1:24 CREATE TABLE ... EXCLUDE is not supported"},
		{"without rowid outside sqlite", dialect.Postgres, "CREATE TABLE t (id INT) WITHOUT ROWID;", "test.sql:1:25 CREATE TABLE ... WITHOUT ROWID is not supported in postgres"},
		{"engine outside mysql", dialect.SQLite, "CREATE TABLE t (id INT) ENGINE=InnoDB;", "test.sql:1:25 CREATE TABLE ... ENGINE is not supported in sqlite"},
		{"virtual table", dialect.SQLite, "CREATE VIRTUAL TABLE t USING fts5(body);", "test.sql:1:1 CREATE VIRTUAL TABLE is not supported"},
		{"sqlite schema", dialect.SQLite, "CREATE SCHEMA s;", "test.sql:1:1 CREATE SCHEMA is not supported in sqlite"},
		{"sqlite database", dialect.SQLite, "CREATE DATABASE d;", "test.sql:1:1 CREATE DATABASE is not supported in sqlite"},
		{"rename", dialect.Postgres, "CREATE TABLE t (id INT); ALTER TABLE t RENAME TO u;", "test.sql:1:40 ALTER TABLE ... RENAME TO is not supported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(newDB(tt.dialect)).Inspect(tt.sql, "test.sql")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnsupportedConstruct))
			assert.Equal(t, tt.expected, err.Error())
		})
	}
}

func TestSyntaxErrorLocation(t *testing.T) {
	err := New(newDB(dialect.Postgres)).Inspect("CREATE TABLE t (\n  id INT NOT BOGUS\n);", "broken.sql")
	require.Error(t, err)

	var inspectErr *Error
	require.ErrorAs(t, err, &inspectErr)
	assert.Equal(t, "broken.sql:2:10", inspectErr.Location())
}

func TestOtherStatements(t *testing.T) {
	sql := "CREATE TABLE t (id INT);\nCREATE VIEW v AS SELECT id FROM t;"

	t.Run("skipped by default", func(t *testing.T) {
		db := newDB(dialect.Postgres)
		require.NoError(t, New(db).Inspect(sql, "views.sql"))
		assert.Equal(t, 1, db.TableCount())
	})

	t.Run("rejected in strict mode", func(t *testing.T) {
		err := New(newDB(dialect.Postgres), WithStrict(true)).Inspect(sql, "views.sql")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedConstruct))
		assert.Equal(t, "views.sql:2:1 CREATE VIEW is not supported", err.Error())
	})
}

func TestAlterTable(t *testing.T) {
	sql := "CREATE TABLE users (id INT, name TEXT, legacy INT);\n" +
		"ALTER TABLE users ADD COLUMN email VARCHAR(255) AFTER id, DROP COLUMN legacy;\n" +
		"ALTER TABLE users ADD COLUMN created_at DATETIME;\n" +
		"ALTER TABLE users ADD UNIQUE KEY uk_email (email), ADD INDEX idx_name (name);\n" +
		"ALTER TABLE users DROP CONSTRAINT idx_name;"

	db := newDB(dialect.MySQL)
	require.NoError(t, New(db).Inspect(sql, ""))

	table, err := db.GetTable(catalog.TableName{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "email", "name", "created_at"}, table.ColumnNames())
	require.Len(t, table.Constraints, 1)
	assert.Equal(t, "uk_email", table.Constraints[0].Name)
	assert.Empty(t, table.Indexes)
}

func TestAlterTableErrors(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		err  error
	}{
		{"unknown table", "ALTER TABLE nope ADD COLUMN a INT;", catalog.ErrNotFound},
		{"duplicate column", "CREATE TABLE t (a INT); ALTER TABLE t ADD COLUMN a INT;", ErrDuplicate},
		{"drop missing column", "CREATE TABLE t (a INT); ALTER TABLE t DROP COLUMN b;", catalog.ErrNotFound},
		{"drop missing constraint", "CREATE TABLE t (a INT); ALTER TABLE t DROP CONSTRAINT c;", catalog.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(newDB(dialect.Postgres)).Inspect(tt.sql, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}

	t.Run("if exists is tolerated", func(t *testing.T) {
		sql := "CREATE TABLE t (a INT); ALTER TABLE t DROP COLUMN IF EXISTS b, ADD COLUMN IF NOT EXISTS a INT;"
		assert.NoError(t, New(newDB(dialect.Postgres)).Inspect(sql, ""))
	})
}

func TestDuplicateTable(t *testing.T) {
	db := newDB(dialect.Postgres)
	err := New(db).Inspect("CREATE TABLE t (a INT); CREATE TABLE t (b INT);", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicate))

	db = newDB(dialect.Postgres)
	require.NoError(t, New(db).Inspect("CREATE TABLE t (a INT); CREATE TABLE IF NOT EXISTS t (b INT);", ""))
	table, err := db.GetTable(catalog.TableName{Table: "t"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, table.ColumnNames())
}

func TestIndexesAndComments(t *testing.T) {
	sql := `
		CREATE TABLE accounts (id INT, email TEXT);
		CREATE UNIQUE INDEX accounts_email ON accounts (lower(email));
		COMMENT ON TABLE accounts IS 'user accounts';
		COMMENT ON COLUMN accounts.email IS 'login address';
		COMMENT ON INDEX accounts_email IS 'ignored';
	`
	db := newDB(dialect.Postgres)
	require.NoError(t, New(db).Inspect(sql, ""))

	table, err := db.GetTable(catalog.TableName{Table: "accounts"})
	require.NoError(t, err)
	assert.Equal(t, "user accounts", table.Comment)

	require.Len(t, table.Indexes, 1)
	assert.True(t, table.Indexes[0].Unique)
	assert.Equal(t, []string{"lower(email)"}, table.Indexes[0].Columns)

	email, ok := table.Column("email")
	require.True(t, ok)
	opt, ok := email.Option(catalog.OptionComment)
	require.True(t, ok)
	assert.Equal(t, "login address", opt.Expr)
}

func TestMySQLTableOptions(t *testing.T) {
	sql := "CREATE TABLE t (id INT AUTO_INCREMENT PRIMARY KEY) ENGINE=InnoDB AUTO_INCREMENT=100 DEFAULT CHARSET=utf8mb4 ROW_FORMAT=DYNAMIC;"
	db := newDB(dialect.MySQL)
	require.NoError(t, New(db).Inspect(sql, ""))

	table, err := db.GetTable(catalog.TableName{Table: "t"})
	require.NoError(t, err)
	assert.Equal(t, "InnoDB", table.Engine)
	assert.Equal(t, "utf8mb4", table.Charset)
	require.NotNil(t, table.AutoIncrement)
	assert.Equal(t, uint64(100), *table.AutoIncrement)
	assert.Equal(t, []catalog.Option{{Key: "ROW_FORMAT", Value: "DYNAMIC"}}, table.Options)
}

func TestSQLiteTableOptions(t *testing.T) {
	db := newDB(dialect.SQLite)
	require.NoError(t, New(db).Inspect("CREATE TABLE kv (k TEXT PRIMARY KEY, v) WITHOUT ROWID, STRICT;", ""))

	table, err := db.GetTable(catalog.TableName{Table: "kv"})
	require.NoError(t, err)
	assert.True(t, table.WithoutRowID)
	assert.True(t, table.Strict)
}

func TestInspectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))

	files := map[string]string{
		"01_users.sql":         "CREATE TABLE users (id INT);",
		"nested/02_posts.sql":  "CREATE TABLE posts (id INT, user_id INT REFERENCES users (id));",
		"03_alter.sql":         "ALTER TABLE users ADD COLUMN name TEXT;",
		"README.md":            "not sql",
		"nested/04_broken.txt": "CREATE TABLE (",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}

	db := newDB(dialect.Postgres)
	require.NoError(t, New(db).InspectFiles(dir))
	assert.Equal(t, 2, db.TableCount())

	users, err := db.GetTable(catalog.TableName{Table: "users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, users.ColumnNames())

	t.Run("errors carry the file name", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.sql")
		require.NoError(t, os.WriteFile(bad, []byte("CREATE TEMP TABLE x (a INT);"), 0o644))

		err := New(newDB(dialect.Postgres)).InspectFiles(bad)
		require.Error(t, err)
		assert.Equal(t, bad+":1:1 CREATE TEMPORARY TABLE is not supported", err.Error())
	})

	t.Run("missing path", func(t *testing.T) {
		err := New(newDB(dialect.Postgres)).InspectFiles(filepath.Join(dir, "missing"))
		assert.Error(t, err)
	})
}

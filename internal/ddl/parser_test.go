package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aita/migi/internal/catalog"
	"github.com/aita/migi/internal/dialect"
)

func parseOne(t *testing.T, src string, d dialect.Dialect) Statement {
	t.Helper()
	stmts, err := Parse(src, d)
	require.NoError(t, err)
	require.Len(t, stmts, 1)
	return stmts[0]
}

func TestTokenizePositions(t *testing.T) {
	tokens, err := Tokenize("CREATE TABLE\n  \"Users\" (id INT);", dialect.Postgres)
	require.NoError(t, err)

	require.Len(t, tokens, 9)
	assert.Equal(t, Pos{Line: 1, Col: 1}, tokens[0].Pos)
	assert.Equal(t, QuotedIdent, tokens[2].Kind)
	assert.Equal(t, "Users", tokens[2].Value)
	assert.Equal(t, Pos{Line: 2, Col: 3}, tokens[2].Pos)
	assert.Equal(t, EOF, tokens[len(tokens)-1].Kind)
}

func TestTokenizeDialectQuoting(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		dialect dialect.Dialect
		kind    TokenKind
		value   string
	}{
		{"postgres double quote", `"a""b"`, dialect.Postgres, QuotedIdent, `a"b`},
		{"mysql double quote is a string", `"abc"`, dialect.MySQL, String, "abc"},
		{"mysql backtick", "`order`", dialect.MySQL, QuotedIdent, "order"},
		{"sqlite brackets", "[my col]", dialect.SQLite, QuotedIdent, "my col"},
		{"escape string", `E'a\'b'`, dialect.Postgres, String, "a'b"},
		{"mysql backslash", `'a\nb'`, dialect.MySQL, String, "a\nb"},
		{"dollar quoted", "$fn$ select 1; $fn$", dialect.Postgres, String, " select 1; "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.src, tt.dialect)
			require.NoError(t, err)
			require.Len(t, tokens, 2)
			assert.Equal(t, tt.kind, tokens[0].Kind)
			assert.Equal(t, tt.value, tokens[0].Value)
		})
	}
}

func TestTokenizeComments(t *testing.T) {
	tokens, err := Tokenize("a -- line\n/* block /* nested */ */ b # hash\n", dialect.Postgres)
	require.NoError(t, err)

	var words []string
	for _, tok := range tokens {
		if tok.Kind != EOF {
			words = append(words, tok.Text)
		}
	}
	// '#' is not a comment outside MySQL
	assert.Equal(t, []string{"a", "b", "#", "hash"}, words)
}

func TestTokenizeUnterminated(t *testing.T) {
	_, err := Tokenize("SELECT 'abc", dialect.Postgres)
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, Pos{Line: 1, Col: 8}, syntaxErr.Pos)
}

func TestParseCreateTable(t *testing.T) {
	stmt := parseOne(t, `CREATE TABLE t (id INT PRIMARY KEY, name TEXT NOT NULL)`, dialect.Postgres)

	create, ok := stmt.(*CreateTable)
	require.True(t, ok)
	assert.Equal(t, "t", create.Name.String())
	require.Len(t, create.Columns, 2)

	assert.Equal(t, "id", create.Columns[0].Name.Value)
	assert.Equal(t, "INT", create.Columns[0].Type)
	require.Len(t, create.Columns[0].Options, 1)
	assert.Equal(t, catalog.OptionPrimaryKey, create.Columns[0].Options[0].Kind)

	assert.Equal(t, "name", create.Columns[1].Name.Value)
	assert.Equal(t, "TEXT", create.Columns[1].Type)
	require.Len(t, create.Columns[1].Options, 1)
	assert.Equal(t, catalog.OptionNotNull, create.Columns[1].Options[0].Kind)
}

func TestParseColumnOptions(t *testing.T) {
	src := `CREATE TABLE IF NOT EXISTS app.orders (
		id BIGINT GENERATED ALWAYS AS IDENTITY,
		amount NUMERIC(10, 2) DEFAULT 0 NOT NULL CHECK (amount >= 0),
		user_id INT CONSTRAINT fk_user REFERENCES app.users (id) ON DELETE CASCADE,
		label CHARACTER VARYING(20) COLLATE "C",
		total NUMERIC GENERATED ALWAYS AS (amount * 2) STORED,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT now()
	)`
	create := parseOne(t, src, dialect.Postgres).(*CreateTable)

	assert.True(t, create.HasModifier("IF NOT EXISTS"))
	assert.Equal(t, "app.orders", create.Name.String())
	require.Len(t, create.Columns, 6)

	id := create.Columns[0]
	require.Len(t, id.Options, 1)
	assert.Equal(t, catalog.OptionIdentity, id.Options[0].Kind)
	assert.Equal(t, "ALWAYS", id.Options[0].Expr)

	amount := create.Columns[1]
	assert.Equal(t, "NUMERIC(10, 2)", amount.Type)
	require.Len(t, amount.Options, 3)
	assert.Equal(t, catalog.OptionDefault, amount.Options[0].Kind)
	assert.Equal(t, "0", amount.Options[0].Expr)
	assert.Equal(t, catalog.OptionNotNull, amount.Options[1].Kind)
	assert.Equal(t, "amount >= 0", amount.Options[2].Expr)

	user := create.Columns[2]
	require.Len(t, user.Options, 1)
	ref := user.Options[0]
	assert.Equal(t, catalog.OptionReferences, ref.Kind)
	require.NotNil(t, ref.Name)
	assert.Equal(t, "fk_user", ref.Name.Value)
	assert.Equal(t, "app.users", ref.Reference.Table.String())
	assert.Equal(t, "CASCADE", ref.Reference.OnDelete)

	label := create.Columns[3]
	assert.Equal(t, "CHARACTER VARYING(20)", label.Type)
	assert.Equal(t, "C", label.Collation)

	total := create.Columns[4]
	require.Len(t, total.Options, 1)
	assert.Equal(t, catalog.OptionGenerated, total.Options[0].Kind)
	assert.Equal(t, "amount * 2 STORED", total.Options[0].Expr)

	created := create.Columns[5]
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", created.Type)
	assert.Equal(t, "now()", created.Options[0].Expr)
}

func TestParseTableConstraints(t *testing.T) {
	src := `CREATE TABLE items (
		a INT,
		b INT,
		CONSTRAINT items_pk PRIMARY KEY (a, b),
		UNIQUE (b),
		FOREIGN KEY (b) REFERENCES other (id) ON UPDATE SET NULL,
		CHECK (a > b)
	)`
	create := parseOne(t, src, dialect.Postgres).(*CreateTable)

	require.Len(t, create.Constraints, 4)
	pk := create.Constraints[0]
	assert.Equal(t, catalog.ConstraintPrimaryKey, pk.Kind)
	assert.Equal(t, "items_pk", pk.Name.Value)
	require.Len(t, pk.Columns, 2)
	assert.Equal(t, "b", pk.Columns[1].Value)

	assert.Equal(t, catalog.ConstraintUnique, create.Constraints[1].Kind)
	assert.Equal(t, catalog.ConstraintForeignKey, create.Constraints[2].Kind)
	assert.Equal(t, "SET NULL", create.Constraints[2].Reference.OnUpdate)
	assert.Equal(t, "a > b", create.Constraints[3].Expr)
}

func TestParseMySQLTable(t *testing.T) {
	src := "CREATE TABLE `shop`.`users` (\n" +
		"  `id` INT UNSIGNED NOT NULL AUTO_INCREMENT,\n" +
		"  `email` VARCHAR(255) CHARACTER SET utf8mb4 NOT NULL COMMENT 'login',\n" +
		"  `updated` TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  UNIQUE KEY `uk_email` (`email`),\n" +
		"  KEY `idx_updated` (`updated`) USING BTREE,\n" +
		"  FULLTEXT INDEX `ft_email` (`email`(10))\n" +
		") ENGINE=InnoDB AUTO_INCREMENT=42 DEFAULT CHARSET=utf8mb4 COMMENT='accounts'"

	create := parseOne(t, src, dialect.MySQL).(*CreateTable)
	assert.Equal(t, "shop.users", create.Name.String())
	require.Len(t, create.Columns, 3)

	id := create.Columns[0]
	assert.Equal(t, "INT UNSIGNED", id.Type)
	require.Len(t, id.Options, 2)
	assert.Equal(t, catalog.OptionAutoIncrement, id.Options[1].Kind)

	email := create.Columns[1]
	require.Len(t, email.Options, 3)
	assert.Equal(t, catalog.OptionCharset, email.Options[0].Kind)
	assert.Equal(t, "login", email.Options[2].Expr)

	updated := create.Columns[2]
	require.Len(t, updated.Options, 2)
	assert.Equal(t, "CURRENT_TIMESTAMP", updated.Options[0].Expr)
	assert.Equal(t, catalog.OptionOnUpdate, updated.Options[1].Kind)

	require.Len(t, create.Constraints, 2)
	assert.Equal(t, "uk_email", create.Constraints[1].Name.Value)

	require.Len(t, create.Indexes, 2)
	assert.Equal(t, "idx_updated", create.Indexes[0].Name.Value)
	assert.Equal(t, "fulltext", create.Indexes[1].Method)
	assert.Equal(t, "email", create.Indexes[1].Columns[0].Value)

	opts := map[string]string{}
	for _, c := range create.Clauses {
		require.Equal(t, "OPTION", c.Keyword)
		opts[c.Key] = c.Text
	}
	assert.Equal(t, map[string]string{
		"ENGINE":         "InnoDB",
		"AUTO_INCREMENT": "42",
		"CHARSET":        "utf8mb4",
		"COMMENT":        "accounts",
	}, opts)
}

func TestParseSQLiteTable(t *testing.T) {
	src := `CREATE TABLE [log] (id PRIMARY KEY AUTOINCREMENT, msg, level INTEGER NOT NULL ON CONFLICT REPLACE) WITHOUT ROWID, STRICT`
	create := parseOne(t, src, dialect.SQLite).(*CreateTable)

	require.Len(t, create.Columns, 3)
	assert.Equal(t, "", create.Columns[0].Type)
	assert.Equal(t, "", create.Columns[1].Type)
	assert.Equal(t, "INTEGER", create.Columns[2].Type)

	var keywords []string
	for _, c := range create.Clauses {
		keywords = append(keywords, c.Keyword)
	}
	assert.Equal(t, []string{"WITHOUT ROWID", "STRICT"}, keywords)
}

func TestParseTypeRequired(t *testing.T) {
	_, err := Parse("CREATE TABLE t (id PRIMARY KEY)", dialect.Postgres)
	require.Error(t, err)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, Pos{Line: 1, Col: 20}, syntaxErr.Pos)
}

func TestParseTableClauses(t *testing.T) {
	src := `CREATE UNLOGGED TABLE m (a INT) PARTITION BY RANGE (a) WITH (fillfactor = 70) TABLESPACE fast`
	create := parseOne(t, src, dialect.Postgres).(*CreateTable)

	assert.True(t, create.HasModifier("UNLOGGED"))
	require.Len(t, create.Clauses, 3)
	assert.Equal(t, "PARTITION BY", create.Clauses[0].Keyword)
	assert.Equal(t, "RANGE (a)", create.Clauses[0].Text)
	assert.Equal(t, "WITH", create.Clauses[1].Keyword)
	assert.Equal(t, "fillfactor", create.Clauses[1].Key)
	assert.Equal(t, "70", create.Clauses[1].Text)
	assert.Equal(t, "TABLESPACE", create.Clauses[2].Keyword)
	assert.Equal(t, "fast", create.Clauses[2].Text)
}

func TestParseCreateTableAs(t *testing.T) {
	stmts, err := Parse("CREATE TABLE copy AS SELECT * FROM src; CREATE TABLE t2 (LIKE src INCLUDING ALL);", dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	assert.Equal(t, "AS", stmts[0].(*CreateTable).Clauses[0].Keyword)
	like := stmts[1].(*CreateTable).Clauses[0]
	assert.Equal(t, "LIKE", like.Keyword)
	assert.Equal(t, "src", like.Text)
}

func TestParseSchemaAndDatabase(t *testing.T) {
	stmts, err := Parse(`
		CREATE DATABASE IF NOT EXISTS shop;
		CREATE SCHEMA billing AUTHORIZATION admin;
	`, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	db := stmts[0].(*CreateDatabase)
	assert.Equal(t, "shop", db.Name.Value)
	assert.True(t, db.IfNotExists)
	assert.Equal(t, Pos{Line: 2, Col: 3}, db.Position())

	schema := stmts[1].(*CreateSchema)
	assert.Equal(t, "billing", schema.Name.String())
}

func TestParseCreateIndex(t *testing.T) {
	stmt := parseOne(t, `CREATE UNIQUE INDEX CONCURRENTLY idx_lower ON app.users USING btree (lower(email), id DESC) WHERE deleted_at IS NULL`, dialect.Postgres)

	idx := stmt.(*CreateIndex)
	assert.Equal(t, "app.users", idx.Table.String())
	assert.True(t, idx.Index.Unique)
	assert.Equal(t, "btree", idx.Index.Method)
	assert.Equal(t, "deleted_at IS NULL", idx.Index.Where)

	require.Len(t, idx.Index.Columns, 2)
	assert.Equal(t, "lower(email)", idx.Index.Columns[0].Value)
	assert.True(t, idx.Index.Columns[0].Quoted)
	assert.Equal(t, "id", idx.Index.Columns[1].Value)
	assert.False(t, idx.Index.Columns[1].Quoted)
}

func TestParseAlterTable(t *testing.T) {
	src := "ALTER TABLE users ADD COLUMN age INT NOT NULL DEFAULT 0 AFTER name, DROP COLUMN IF EXISTS legacy, ADD CONSTRAINT uk UNIQUE (age), DROP CONSTRAINT old_fk, RENAME TO people"
	alter := parseOne(t, src, dialect.MySQL).(*AlterTable)

	require.Len(t, alter.Actions, 5)

	add := alter.Actions[0].(*AddColumnAction)
	assert.Equal(t, "age", add.Column.Name.Value)
	require.NotNil(t, add.After)
	assert.Equal(t, "name", add.After.Value)
	require.Len(t, add.Column.Options, 2)

	drop := alter.Actions[1].(*DropColumnAction)
	assert.True(t, drop.IfExists)
	assert.Equal(t, "legacy", drop.Column.Value)

	con := alter.Actions[2].(*AddConstraintAction)
	assert.Equal(t, catalog.ConstraintUnique, con.Constraint.Kind)

	assert.Equal(t, "old_fk", alter.Actions[3].(*DropConstraintAction).Name.Value)

	other := alter.Actions[4].(*OtherAction)
	assert.Equal(t, "RENAME TO", other.Clause.Keyword)
}

func TestParseCommentOn(t *testing.T) {
	stmts, err := Parse(`COMMENT ON TABLE app.users IS 'people'; COMMENT ON COLUMN users.id IS NULL;`, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, stmts, 2)

	table := stmts[0].(*CommentOn)
	assert.Equal(t, "TABLE", table.Target)
	assert.Equal(t, "app.users", table.Name.String())
	assert.Equal(t, "people", table.Comment)

	column := stmts[1].(*CommentOn)
	assert.Equal(t, "COLUMN", column.Target)
	assert.True(t, column.IsNull)
}

func TestParseOtherStatements(t *testing.T) {
	src := `
CREATE VIEW v AS SELECT 1;
CREATE FUNCTION f() RETURNS trigger AS $$ BEGIN RETURN NEW; END; $$ LANGUAGE plpgsql;
INSERT INTO t VALUES (1);
DROP TABLE old;
`
	stmts, err := Parse(src, dialect.Postgres)
	require.NoError(t, err)
	require.Len(t, stmts, 4)

	var keywords []string
	for _, s := range stmts {
		keywords = append(keywords, s.(*Other).Keyword)
	}
	assert.Equal(t, []string{"CREATE VIEW", "CREATE FUNCTION", "INSERT", "DROP TABLE"}, keywords)
}

func TestParseTriggerBody(t *testing.T) {
	src := `CREATE TRIGGER trg AFTER INSERT ON t FOR EACH ROW BEGIN UPDATE c SET n = n + 1; END; CREATE TABLE x (a INT)`
	stmts, err := Parse(src, dialect.SQLite)
	require.NoError(t, err)
	require.Len(t, stmts, 2)
	assert.IsType(t, &CreateTable{}, stmts[1])
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		pos  Pos
	}{
		{"missing close paren", "CREATE TABLE t (a INT", Pos{Line: 1, Col: 22}},
		{"bad column option", "CREATE TABLE t (\n  a INT NOT BOGUS\n)", Pos{Line: 2, Col: 9}},
		{"missing table name", "CREATE TABLE (a INT)", Pos{Line: 1, Col: 14}},
		{"empty check", "CREATE TABLE t (a INT CHECK ())", Pos{Line: 1, Col: 29}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src, dialect.Postgres)
			require.Error(t, err)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tt.pos, syntaxErr.Pos)
		})
	}
}

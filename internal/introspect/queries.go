package introspect

import (
	"github.com/Masterminds/squirrel"

	"github.com/aita/migi/internal/dialect"
)

var systemSchemas = []string{"pg_catalog", "information_schema"}

// schemaFilter restricts a query to the schemas being introspected: the
// connected database on MySQL, user schemas on Postgres
func (i *Inspector) schemaFilter(column string) squirrel.Sqlizer {
	switch i.dialect {
	case dialect.MySQL:
		return squirrel.Expr(column + " = DATABASE()")
	default:
		if len(i.schemas) > 0 {
			return squirrel.Eq{column: i.schemas}
		}
		return squirrel.And{
			squirrel.NotEq{column: systemSchemas},
			squirrel.NotLike{column: "pg_toast%"},
		}
	}
}

func (i *Inspector) schemataQuery() squirrel.SelectBuilder {
	return i.sq.Select("s.schema_name AS schema_name").
		From("information_schema.schemata s").
		Where(i.schemaFilter("s.schema_name")).
		OrderBy("s.schema_name")
}

func (i *Inspector) tablesQuery() squirrel.SelectBuilder {
	columns := []string{"t.table_schema AS table_schema", "t.table_name AS table_name"}
	switch i.dialect {
	case dialect.MySQL:
		columns = append(columns,
			"COALESCE(t.table_comment, '') AS table_comment",
			"COALESCE(t.engine, '') AS engine",
			"COALESCE(t.table_collation, '') AS table_collation",
		)
	default:
		columns = append(columns,
			"COALESCE(obj_description(format('%I.%I', t.table_schema, t.table_name)::regclass, 'pg_class'), '') AS table_comment",
			"'' AS engine",
			"'' AS table_collation",
		)
	}

	return i.sq.Select(columns...).
		From("information_schema.tables t").
		Where(squirrel.Eq{"t.table_type": "BASE TABLE"}).
		Where(i.schemaFilter("t.table_schema")).
		OrderBy("t.table_schema", "t.table_name")
}

func (i *Inspector) columnsQuery() squirrel.SelectBuilder {
	columns := []string{
		"c.table_schema AS table_schema",
		"c.table_name AS table_name",
		"c.column_name AS column_name",
		"c.data_type AS data_type",
		"c.is_nullable AS is_nullable",
		"c.column_default AS column_default",
		"c.collation_name AS collation_name",
		"c.character_maximum_length AS character_maximum_length",
		"c.numeric_precision AS numeric_precision",
		"c.numeric_scale AS numeric_scale",
		"c.generation_expression AS generation_expression",
	}
	switch i.dialect {
	case dialect.MySQL:
		columns = append(columns,
			"c.column_type AS column_type",
			"c.extra AS extra",
			"c.column_comment AS column_comment",
		)
	default:
		columns = append(columns,
			"c.udt_name AS column_type",
			"COALESCE(c.identity_generation, '') AS extra",
			"COALESCE(col_description(format('%I.%I', c.table_schema, c.table_name)::regclass, c.ordinal_position::int), '') AS column_comment",
		)
	}

	return i.sq.Select(columns...).
		From("information_schema.columns c").
		Where(i.schemaFilter("c.table_schema")).
		OrderBy("c.table_schema", "c.table_name", "c.ordinal_position")
}

func (i *Inspector) keysQuery() squirrel.SelectBuilder {
	columns := []string{
		"tc.table_schema AS table_schema",
		"tc.table_name AS table_name",
		"tc.constraint_name AS constraint_name",
		"tc.constraint_type AS constraint_type",
		"kcu.column_name AS column_name",
		"rc.delete_rule AS delete_rule",
		"rc.update_rule AS update_rule",
	}

	q := i.sq.Select().
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON kcu.constraint_schema = tc.constraint_schema" +
			" AND kcu.constraint_name = tc.constraint_name AND kcu.table_name = tc.table_name").
		LeftJoin("information_schema.referential_constraints rc ON rc.constraint_schema = tc.constraint_schema" +
			" AND rc.constraint_name = tc.constraint_name")

	switch i.dialect {
	case dialect.MySQL:
		columns = append(columns,
			"kcu.referenced_table_schema AS referenced_table_schema",
			"kcu.referenced_table_name AS referenced_table_name",
			"kcu.referenced_column_name AS referenced_column_name",
		)
	default:
		// Postgres key_column_usage has no referenced columns; they are
		// matched through the referenced unique constraint
		q = q.LeftJoin("information_schema.key_column_usage rk ON rk.constraint_schema = rc.unique_constraint_schema" +
			" AND rk.constraint_name = rc.unique_constraint_name AND rk.ordinal_position = kcu.position_in_unique_constraint")
		columns = append(columns,
			"rk.table_schema AS referenced_table_schema",
			"rk.table_name AS referenced_table_name",
			"rk.column_name AS referenced_column_name",
		)
	}

	return q.Columns(columns...).
		Where(squirrel.Eq{"tc.constraint_type": []string{"PRIMARY KEY", "UNIQUE", "FOREIGN KEY"}}).
		Where(i.schemaFilter("tc.table_schema")).
		OrderBy("tc.table_schema", "tc.table_name", "tc.constraint_name", "kcu.ordinal_position")
}

func (i *Inspector) checksQuery() squirrel.SelectBuilder {
	q := i.sq.Select(
		"tc.table_schema AS table_schema",
		"tc.table_name AS table_name",
		"tc.constraint_name AS constraint_name",
		"cc.check_clause AS check_clause",
	).
		From("information_schema.table_constraints tc").
		Join("information_schema.check_constraints cc ON cc.constraint_schema = tc.constraint_schema" +
			" AND cc.constraint_name = tc.constraint_name").
		Where(squirrel.Eq{"tc.constraint_type": "CHECK"}).
		Where(i.schemaFilter("tc.table_schema"))

	if i.dialect == dialect.Postgres {
		// NOT NULL columns show up as system named check constraints
		q = q.Where(squirrel.NotLike{"cc.check_clause": "%IS NOT NULL"})
	}
	return q.OrderBy("tc.table_schema", "tc.table_name", "tc.constraint_name")
}

func (i *Inspector) indexesQuery() squirrel.SelectBuilder {
	if i.dialect == dialect.MySQL {
		return i.sq.Select(
			"s.table_schema AS table_schema",
			"s.table_name AS table_name",
			"s.index_name AS index_name",
			"s.non_unique AS non_unique",
			"s.column_name AS column_name",
			"s.expression AS expression",
			"s.index_type AS index_type",
		).
			From("information_schema.statistics s").
			Where(i.schemaFilter("s.table_schema")).
			Where(squirrel.NotEq{"s.index_name": "PRIMARY"}).
			Where("NOT EXISTS (SELECT 1 FROM information_schema.table_constraints tc" +
				" WHERE tc.table_schema = s.table_schema AND tc.table_name = s.table_name AND tc.constraint_name = s.index_name)").
			OrderBy("s.table_schema", "s.table_name", "s.index_name", "s.seq_in_index")
	}

	return i.sq.Select(
		"ix.schemaname AS table_schema",
		"ix.tablename AS table_name",
		"ix.indexname AS index_name",
		"ix.indexdef AS index_definition",
	).
		From("pg_indexes ix").
		Where(i.schemaFilter("ix.schemaname")).
		Where("NOT EXISTS (SELECT 1 FROM information_schema.table_constraints tc" +
			" WHERE tc.table_schema = ix.schemaname AND tc.table_name = ix.tablename AND tc.constraint_name = ix.indexname)").
		OrderBy("ix.schemaname", "ix.tablename", "ix.indexname")
}

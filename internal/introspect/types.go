package introspect

import (
	"database/sql"
)

// tableRow is one row of information_schema.tables
type tableRow struct {
	Schema    string `db:"table_schema"`
	Name      string `db:"table_name"`
	Comment   string `db:"table_comment"`
	Engine    string `db:"engine"`
	Collation string `db:"table_collation"`
}

// columnRow is one row of information_schema.columns. ColumnType holds
// MySQL's full column_type and Postgres' udt_name.
type columnRow struct {
	Schema           string         `db:"table_schema"`
	Table            string         `db:"table_name"`
	Name             string         `db:"column_name"`
	DataType         string         `db:"data_type"`
	ColumnType       string         `db:"column_type"`
	IsNullable       string         `db:"is_nullable"`
	Default          sql.NullString `db:"column_default"`
	Collation        sql.NullString `db:"collation_name"`
	CharMaxLength    sql.NullInt64  `db:"character_maximum_length"`
	NumericPrecision sql.NullInt64  `db:"numeric_precision"`
	NumericScale     sql.NullInt64  `db:"numeric_scale"`
	Extra            string         `db:"extra"`
	GenerationExpr   sql.NullString `db:"generation_expression"`
	Comment          string         `db:"column_comment"`
}

// keyRow is one column of a primary key, unique or foreign key constraint,
// joined with key_column_usage and referential_constraints
type keyRow struct {
	Schema     string         `db:"table_schema"`
	Table      string         `db:"table_name"`
	Name       string         `db:"constraint_name"`
	Type       string         `db:"constraint_type"`
	Column     string         `db:"column_name"`
	RefSchema  sql.NullString `db:"referenced_table_schema"`
	RefTable   sql.NullString `db:"referenced_table_name"`
	RefColumn  sql.NullString `db:"referenced_column_name"`
	DeleteRule sql.NullString `db:"delete_rule"`
	UpdateRule sql.NullString `db:"update_rule"`
}

// checkRow is one CHECK constraint
type checkRow struct {
	Schema string `db:"table_schema"`
	Table  string `db:"table_name"`
	Name   string `db:"constraint_name"`
	Clause string `db:"check_clause"`
}

// indexRow is one secondary index. Postgres rows carry the full definition
// in Definition; MySQL rows carry one column each.
type indexRow struct {
	Schema     string         `db:"table_schema"`
	Table      string         `db:"table_name"`
	Name       string         `db:"index_name"`
	Definition sql.NullString `db:"index_definition"`
	NonUnique  sql.NullInt64  `db:"non_unique"`
	Column     sql.NullString `db:"column_name"`
	Expression sql.NullString `db:"expression"`
	Method     sql.NullString `db:"index_type"`
}

// tableKey identifies a table across result sets
type tableKey struct {
	schema string
	table  string
}
